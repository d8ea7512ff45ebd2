package logx_test

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/altshiftab/jsonschema-decode/internal/logx"
)

func TestParseLevel(t *testing.T) {
	lvl, err := logx.ParseLevel("warn")
	require.NoError(t, err)
	assert.Equal(t, slog.LevelWarn, lvl)

	_, err = logx.ParseLevel("nonsense")
	assert.Error(t, err)
}

func TestParseFormat(t *testing.T) {
	f, err := logx.ParseFormat("json")
	require.NoError(t, err)
	assert.Equal(t, logx.FormatJSON, f)

	f, err = logx.ParseFormat("text")
	require.NoError(t, err)
	assert.Equal(t, logx.FormatLogfmt, f)

	_, err = logx.ParseFormat("xml")
	assert.Error(t, err)
}

func TestNewHandlerFromStringsJSON(t *testing.T) {
	var buf bytes.Buffer
	handler, err := logx.NewHandlerFromStrings(&buf, "info", "json")
	require.NoError(t, err)

	logger := slog.New(handler)
	logger.Info("hello", "key", "value")

	assert.Contains(t, buf.String(), `"msg":"hello"`)
	assert.Contains(t, buf.String(), `"key":"value"`)
}

func TestConfigRegisterFlagsAndBuildHandler(t *testing.T) {
	cfg := logx.NewConfig()
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	cfg.RegisterFlags(fs)

	require.NoError(t, fs.Parse([]string{"--log-level=debug", "--log-format=json"}))
	assert.Equal(t, "debug", cfg.Level)
	assert.Equal(t, "json", cfg.Format)

	var buf bytes.Buffer
	handler, err := cfg.NewHandler(&buf)
	require.NoError(t, err)
	assert.NotNil(t, handler)
}

func TestDiscardLoggerDropsRecords(t *testing.T) {
	logger := logx.Discard()
	require.NotNil(t, logger)
	assert.False(t, logger.Enabled(context.Background(), slog.LevelError))
	logger.Info("should not panic")
}
