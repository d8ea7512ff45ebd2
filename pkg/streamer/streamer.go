// Package streamer wraps a token-producing iterator with cooperative,
// processor-aware abort handling: between yielded tokens it polls the
// processor for a recorded error, terminating the stream on a fatal
// one and merely logging a non-fatal one.
package streamer

import (
	"context"
	"log/slog"

	"github.com/altshiftab/jsonschema-decode/pkg/procerr"
	"github.com/altshiftab/jsonschema-decode/pkg/processor"
)

// Source is a pull-based iterator over sampled token ids, as produced
// by a model's sampling loop. Next blocks until a token is ready, the
// stream ends (ok=false, err=nil), or the producer fails (err != nil).
type Source interface {
	Next(ctx context.Context) (tokenID int32, ok bool, err error)
}

// AbortableStreamer wraps a Source, polling the processor for fatal
// constraint violations between tokens and terminating the stream
// with a procerr.KindAbortedDueToError when one is found.
type AbortableStreamer struct {
	src    Source
	proc   *processor.Processor
	logger *slog.Logger

	tokenCount int
}

// New returns an AbortableStreamer over src, consulting proc after
// every token it yields. A nil logger is replaced with a discarding one.
func New(src Source, proc *processor.Processor, logger *slog.Logger) *AbortableStreamer {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &AbortableStreamer{src: src, proc: proc, logger: logger}
}

// Next pulls the next token. It returns an error if the context was
// cancelled, the upstream producer failed, or the processor has
// recorded a fatal constraint violation since the last call.
func (s *AbortableStreamer) Next(ctx context.Context) (int32, bool, error) {
	if err := ctx.Err(); err != nil {
		return 0, false, err
	}

	id, ok, err := s.src.Next(ctx)
	if err != nil {
		return 0, false, err
	}
	if !ok {
		return 0, false, nil
	}

	s.tokenCount++

	if polled := s.proc.PollError(); polled != nil {
		if polled.Kind.Fatal() {
			abortErr := &procerr.Error{Kind: procerr.KindAbortedDueToError, Position: s.tokenCount}
			s.logger.Error("aborting generation", "reason", polled.Error(), "position", s.tokenCount)
			return id, true, abortErr
		}
		s.logger.Warn("non-fatal constraint violation", "reason", polled.Error(), "position", s.tokenCount)
	}

	return id, true, nil
}

// TokenCount returns the number of tokens yielded so far.
func (s *AbortableStreamer) TokenCount() int { return s.tokenCount }
