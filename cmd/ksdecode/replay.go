package main

import (
	"context"
	"fmt"
	"io"

	"github.com/fatih/color"

	"github.com/altshiftab/jsonschema-decode/pkg/logits"
	"github.com/altshiftab/jsonschema-decode/pkg/processor"
	"github.com/altshiftab/jsonschema-decode/pkg/streamer"
)

// replayExecutor is a stand-in for a real model's sampling loop: it
// already knows the text it wants to produce (supplied by the user),
// encodes it once, and at every step asks the Processor for the
// masked logit vector purely to report whether the next scripted
// token was actually allowed, before advancing the Processor with it.
// A real engine.Executor would instead run a model's forward pass and
// sample from the returned Vector.
type replayExecutor struct {
	tok asciiTokenizer
	ids []int32
	out io.Writer
}

func (e *replayExecutor) Execute(_ context.Context, proc *processor.Processor, _ []int32) streamer.Source {
	return &replaySource{tok: e.tok, ids: e.ids, proc: proc, out: e.out}
}

type replaySource struct {
	tok asciiTokenizer
	ids []int32
	i   int

	proc *processor.Processor
	out  io.Writer
}

func (s *replaySource) Next(ctx context.Context) (int32, bool, error) {
	if err := ctx.Err(); err != nil {
		return 0, false, err
	}
	if s.i >= len(s.ids) {
		return 0, false, nil
	}

	vocabSize, _ := s.tok.VocabSize()
	v := make(logits.Vector, vocabSize)
	s.proc.Process(v)

	id := s.ids[s.i]
	s.i++

	allowed := v[id] > logits.NegInf
	frag := s.tok.DecodeToken(id)

	line := fmt.Sprintf("step %3d  phase=%-18s  token=%-4q", s.i, s.proc.Phase().Kind, frag)
	if allowed {
		fmt.Fprintln(s.out, color.GreenString(line))
	} else {
		fmt.Fprintln(s.out, color.RedString(line+"  (would have been masked)"))
	}

	s.proc.DidSample(id)
	return id, true, nil
}
