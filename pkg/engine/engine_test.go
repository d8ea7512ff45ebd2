package engine_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/altshiftab/jsonschema-decode/internal/testtok"
	"github.com/altshiftab/jsonschema-decode/pkg/engine"
	"github.com/altshiftab/jsonschema-decode/pkg/logits"
	"github.com/altshiftab/jsonschema-decode/pkg/procerr"
	"github.com/altshiftab/jsonschema-decode/pkg/processor"
	"github.com/altshiftab/jsonschema-decode/pkg/streamer"
)

// scriptedSource replays a fixed token sequence, driving the
// Processor the way a real sampling loop would: obtain masked logits,
// then report the token actually sampled.
type scriptedSource struct {
	proc *processor.Processor
	tok  *testtok.Fake
	ids  []int32
	i    int
}

func (s *scriptedSource) Next(ctx context.Context) (int32, bool, error) {
	if s.i >= len(s.ids) {
		return 0, false, nil
	}
	vocabSize, _ := s.tok.VocabSize()
	v := make(logits.Vector, vocabSize+1)
	s.proc.Process(v)

	id := s.ids[s.i]
	s.i++
	s.proc.DidSample(id)
	return id, true, nil
}

type scriptedExecutor struct {
	tok *testtok.Fake
	ids []int32
}

func (e *scriptedExecutor) Execute(ctx context.Context, proc *processor.Processor, promptTokens []int32) streamer.Source {
	return &scriptedSource{proc: proc, tok: e.tok, ids: e.ids}
}

func newScriptedTokenizer() (*testtok.Fake, int32, int32, int32, int32, int32, int32) {
	tok := testtok.New("fp")
	braceOpen := tok.Register("{")
	braceClose := tok.Register("}")
	quote := tok.Register(`"`)
	colon := tok.Register(":")
	tok.Register("nam")
	tok.Register("e")
	valTok := tok.Register("Al")
	return tok, braceOpen, braceClose, quote, colon, valTok, -1
}

const objectSchema = `{
	"type": "object",
	"properties": {"name": {"type": "string"}},
	"required": ["name"]
}`

func TestRequestCompletesAndValidates(t *testing.T) {
	tok, braceOpen, braceClose, quote, colon, valTok, _ := newScriptedTokenizer()
	nameTok := tok.Encode("name")

	ids := []int32{braceOpen, quote, nameTok[0], nameTok[1], quote, colon, quote, valTok, quote, braceClose}
	exec := &scriptedExecutor{tok: tok, ids: ids}

	e, err := engine.New(exec)
	require.NoError(t, err)

	result, err := e.Request(context.Background(), []byte(objectSchema), tok, nil)
	require.NoError(t, err)
	assert.Equal(t, `{"name":"Al"}`, result.Text)
	assert.Equal(t, ids, result.TokenIDs)
	assert.NotEmpty(t, result.RequestID)
}

func TestRequestReturnsFatalProcessorError(t *testing.T) {
	tok, braceOpen, _, quote, _, _, _ := newScriptedTokenizer()
	bogus := tok.Register("zzz")

	ids := []int32{braceOpen, quote, bogus}
	exec := &scriptedExecutor{tok: tok, ids: ids}

	e, err := engine.New(exec)
	require.NoError(t, err)

	_, err = e.Request(context.Background(), []byte(objectSchema), tok, nil)
	require.Error(t, err)

	var procErr *procerr.Error
	require.ErrorAs(t, err, &procErr)
	assert.Equal(t, procerr.KindAbortedDueToError, procErr.Kind)
}

func TestRequestReusesCachedTrieIndex(t *testing.T) {
	tok, braceOpen, braceClose, quote, colon, valTok, _ := newScriptedTokenizer()
	nameTok := tok.Encode("name")
	ids := []int32{braceOpen, quote, nameTok[0], nameTok[1], quote, colon, quote, valTok, quote, braceClose}

	exec := &scriptedExecutor{tok: tok, ids: ids}
	e, err := engine.New(exec)
	require.NoError(t, err)

	_, err = e.Request(context.Background(), []byte(objectSchema), tok, nil)
	require.NoError(t, err)

	exec.ids = ids
	result, err := e.Request(context.Background(), []byte(objectSchema), tok, nil)
	require.NoError(t, err)
	assert.Equal(t, `{"name":"Al"}`, result.Text)
}
