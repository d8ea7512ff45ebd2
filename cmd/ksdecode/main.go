// Command ksdecode is a demonstration harness for the schema-constrained
// decoding core: given a JSON Schema document and a target JSON text,
// it replays the target byte by byte through pkg/engine, reporting at
// every step whether the byte about to be "sampled" was actually
// allowed by the schema-constrained logit mask, then prints the
// post-hoc validated result.
//
// It stands in for a real model's sampling loop (see replayExecutor)
// so this core can be exercised end to end without a model backend.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/altshiftab/jsonschema-decode/internal/logx"
	"github.com/altshiftab/jsonschema-decode/pkg/engine"
	"github.com/altshiftab/jsonschema-decode/pkg/procerr"
)

var errMissingSchema = errors.New("ksdecode: --schema is required")

func main() {
	logCfg := logx.NewConfig()

	var schemaPath string
	var textArg string

	rootCmd := &cobra.Command{
		Use:   "ksdecode --schema <file.json> [--text <json>]",
		Short: "Replay a target JSON document through the schema-constrained decoding core",
		Long: `ksdecode loads a JSON Schema document and replays a target JSON text through
it one byte at a time, reporting whether each byte was allowed by the
schema-constrained logit mask before it was "sampled". It exists to exercise
pkg/engine end to end without a real model backend.`,
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd, logCfg, schemaPath, textArg)
		},
	}

	rootCmd.Flags().StringVar(&schemaPath, "schema", "", "path to a JSON Schema document")
	rootCmd.Flags().StringVar(&textArg, "text", "", "target JSON text to replay (reads stdin if empty)")
	logCfg.RegisterFlags(rootCmd.Flags())

	if err := logCfg.RegisterCompletions(rootCmd); err != nil {
		fmt.Fprintf(os.Stderr, "register completions: %v\n", err)
	}

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, logCfg *logx.Config, schemaPath, textArg string) error {
	if schemaPath == "" {
		return errMissingSchema
	}

	handler, err := logCfg.NewHandler(os.Stderr)
	if err != nil {
		return fmt.Errorf("ksdecode: building log handler: %w", err)
	}
	logger := slog.New(handler)

	rawSchema, err := os.ReadFile(schemaPath)
	if err != nil {
		return fmt.Errorf("ksdecode: reading schema: %w", err)
	}
	schemaBytes, err := loadSchema(schemaPath, rawSchema)
	if err != nil {
		return err
	}

	targetText := textArg
	if targetText == "" {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return fmt.Errorf("ksdecode: reading target text from stdin: %w", err)
		}
		targetText = string(data)
	}

	tok := asciiTokenizer{}
	targetIDs := tok.Encode(targetText)

	e, err := engine.New(
		&replayExecutor{tok: tok, ids: targetIDs, out: cmd.OutOrStdout()},
		engine.WithLogger(logger),
	)
	if err != nil {
		return fmt.Errorf("ksdecode: constructing engine: %w", err)
	}

	result, err := e.Request(context.Background(), schemaBytes, tok, nil)
	if err != nil {
		var procErr *procerr.Error
		if errors.As(err, &procErr) {
			return fmt.Errorf("ksdecode: generation aborted: %w", procErr)
		}
		return fmt.Errorf("ksdecode: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "\nrequest %s produced %d tokens:\n%s\n", result.RequestID, len(result.TokenIDs), result.Text)
	return nil
}
