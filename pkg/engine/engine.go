// Package engine is the façade tying the rest of this core together:
// given a schema and a tokenizer, it builds (or reuses, via
// pkg/trieindex) the trie index, constructs a pkg/processor.Processor,
// hands it to an injected Executor (the seam for whatever model and
// sampler actually produces tokens), and drains the resulting
// pkg/streamer.AbortableStreamer to a finished, post-hoc-validated
// document.
package engine

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/altshiftab/jsonschema-decode/internal/charclass"
	"github.com/altshiftab/jsonschema-decode/pkg/jsonschema"
	"github.com/altshiftab/jsonschema-decode/pkg/procerr"
	"github.com/altshiftab/jsonschema-decode/pkg/processor"
	"github.com/altshiftab/jsonschema-decode/pkg/streamer"
	"github.com/altshiftab/jsonschema-decode/pkg/tokenizer"
	"github.com/altshiftab/jsonschema-decode/pkg/trieindex"
	"github.com/altshiftab/jsonschema-decode/pkg/validate"
)

// Executor is the seam between this core and whatever actually runs
// the model: given a primed Processor and the prompt's token ids, it
// returns a streamer.Source that yields sampled tokens, calling
// Processor.Process to obtain masked/biased logits and
// Processor.DidSample to advance the processor's tracked position
// before each token it yields.
type Executor interface {
	Execute(ctx context.Context, proc *processor.Processor, promptTokens []int32) streamer.Source
}

// Config tunes an Engine's caches and the per-request Processor it
// constructs.
type Config struct {
	TrieCacheCapacity int
	SearchLimit       int
	ProcessorConfig   processor.Config
	Logger            *slog.Logger
}

// Option mutates a Config being assembled by New.
type Option func(*Config)

// WithTrieCacheCapacity bounds the number of (tokenizer, schema) trie
// indices the Engine retains.
func WithTrieCacheCapacity(n int) Option {
	return func(c *Config) { c.TrieCacheCapacity = n }
}

// WithSearchLimit bounds the vocabulary scan used to resolve a
// tokenizer's special tokens (internal/charclass).
func WithSearchLimit(n int) Option {
	return func(c *Config) { c.SearchLimit = n }
}

// WithProcessorConfig overrides the masking/biasing policy every
// request's Processor is constructed with.
func WithProcessorConfig(cfg processor.Config) Option {
	return func(c *Config) { c.ProcessorConfig = cfg }
}

// WithLogger sets the logger the Engine and every Processor/streamer
// it constructs uses.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Config) { c.Logger = logger }
}

func defaultConfig() Config {
	return Config{
		TrieCacheCapacity: trieindex.DefaultCapacity,
		SearchLimit:       50_000,
		ProcessorConfig:   processor.DefaultConfig(),
		Logger:            slog.New(slog.DiscardHandler),
	}
}

// Engine owns the caches shared across requests and dispatches each
// request to an Executor.
type Engine struct {
	cfg      Config
	tries    *trieindex.Cache
	special  *charclass.Cache
	executor Executor
}

// New constructs an Engine backed by executor.
func New(executor Executor, opts ...Option) (*Engine, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.DiscardHandler)
	}

	tries, err := trieindex.NewCache(cfg.TrieCacheCapacity)
	if err != nil {
		return nil, fmt.Errorf("engine: constructing trie cache: %w", err)
	}

	return &Engine{
		cfg:      cfg,
		tries:    tries,
		special:  charclass.NewCache(),
		executor: executor,
	}, nil
}

// Result is the outcome of one completed constrained-decoding request.
type Result struct {
	RequestID string
	Text      string
	TokenIDs  []int32
}

// Request builds (or reuses) the trie index for schemaJSON under tok,
// drives the Executor to completion through an AbortableStreamer, and
// post-hoc validates the decoded text against the schema before
// returning it. It returns a *procerr.Error on a fatal constraint
// violation or a post-hoc schema violation, and otherwise propagates
// ctx cancellation or an Executor-side error unchanged.
func (e *Engine) Request(ctx context.Context, schemaJSON []byte, tok tokenizer.Tokenizer, promptTokens []int32) (*Result, error) {
	arena, root, err := jsonschema.Build(schemaJSON)
	if err != nil {
		return nil, fmt.Errorf("engine: building schema: %w", err)
	}

	hash := schemaHash(schemaJSON)
	fp := tok.Fingerprint()

	idx, ok := e.tries.Get(fp, hash)
	if !ok {
		idx = trieindex.Build(arena, root, tok.Encode)
		e.tries.Put(fp, hash, idx)
	}

	special := e.special.Resolve(tok, e.cfg.SearchLimit)

	procCfg := e.cfg.ProcessorConfig
	procCfg.Logger = e.cfg.Logger
	proc := processor.New(arena, root, idx, tok, special, procCfg)
	proc.Prompt(promptTokens)

	src := e.executor.Execute(ctx, proc, promptTokens)
	strm := streamer.New(src, proc, e.cfg.Logger)

	var ids []int32
	for {
		id, ok, err := strm.Next(ctx)
		if err != nil {
			if abortErr, isAbort := err.(*procerr.Error); isAbort {
				return nil, abortErr
			}
			return nil, err
		}
		if !ok {
			break
		}
		ids = append(ids, id)
	}

	text := tok.Decode(ids)

	if vErr := validate.JSON([]byte(text), arena, root); vErr != nil {
		return nil, &procerr.Error{Kind: procerr.KindSchemaViolation, Reason: vErr.Error()}
	}

	return &Result{
		RequestID: uuid.NewString(),
		Text:      text,
		TokenIDs:  ids,
	}, nil
}

func schemaHash(schemaJSON []byte) string {
	sum := sha256.Sum256(schemaJSON)
	return hex.EncodeToString(sum[:])
}
