// Package processor implements the DPDA×KeyTrie logit processor: the
// per-request state machine that, at every generation step, narrows a
// model's logits to whatever tokens keep the output a valid instance
// of a JSON Schema, and afterward updates its tracked position from
// the token actually sampled.
package processor

import (
	"log/slog"
	"strings"
	"sync/atomic"

	"github.com/altshiftab/jsonschema-decode/pkg/dpda"
	"github.com/altshiftab/jsonschema-decode/pkg/jsonschema"
	"github.com/altshiftab/jsonschema-decode/pkg/keyrecover"
	"github.com/altshiftab/jsonschema-decode/pkg/logits"
	"github.com/altshiftab/jsonschema-decode/pkg/procerr"
	"github.com/altshiftab/jsonschema-decode/pkg/tokenizer"
	"github.com/altshiftab/jsonschema-decode/pkg/tokentrie"
	"github.com/altshiftab/jsonschema-decode/pkg/trieindex"
)

// Config tunes a Processor's masking/biasing policy.
type Config struct {
	// ValueBias is the additive bonus applied to tokens whose decoded
	// text is consistent with the expected value type (digits for a
	// number, quote for a string, and so on).
	ValueBias float32

	// EOSBias is the additive bonus applied to the EOS token once the
	// document is syntactically complete, or as a smaller fractional
	// nudge whenever EOS is merely safe-but-not-yet-expected.
	EOSBias float32

	// SnapThreshold is the maximum Levenshtein distance a decoded key
	// may be from a schema property and still be recovered.
	SnapThreshold int

	// SearchLimit bounds how much of the vocabulary is scanned when
	// discovering which tokens represent a given value-type fragment
	// (digits, "true", "false", "null").
	SearchLimit int

	Logger *slog.Logger
}

// DefaultConfig returns reasonable defaults.
func DefaultConfig() Config {
	return Config{
		ValueBias:     2.5,
		EOSBias:       3.0,
		SnapThreshold: keyrecover.DefaultThreshold,
		SearchLimit:   50_000,
		Logger:        slog.New(slog.DiscardHandler),
	}
}

type ctxFrame struct {
	prevNode      jsonschema.NodeID
	prevArrayItem jsonschema.NodeID
}

// Processor is the per-request DPDA×KeyTrie logit processor. A value
// is a single plain struct with no internal locks: it is used from
// one goroutine's sampling loop, except for LastError/PollError,
// which a supervising goroutine (pkg/streamer) may poll concurrently,
// hence the atomic.Pointer.
type Processor struct {
	arena *jsonschema.Arena
	root  jsonschema.NodeID
	idx   *trieindex.Index
	tok   tokenizer.Tokenizer

	special tokenizer.SpecialTokens
	cfg     Config

	dpda *dpda.State

	currentNode      jsonschema.NodeID
	currentArrayItem jsonschema.NodeID
	ctxStack         []ctxFrame
	confirmedKey     string

	currentTrie *tokentrie.Trie
	triePath    *tokentrie.Path
	keyBuffer   strings.Builder

	lastError atomic.Pointer[procerr.Error]
	errorLog  procerr.Log
	stepCount int

	searchCache map[string]map[int32]struct{}
}

// New constructs a Processor over a fixed (arena, root, idx)
// schema triple and tokenizer. Call Prompt before the first Process
// call of each request.
func New(
	arena *jsonschema.Arena,
	root jsonschema.NodeID,
	idx *trieindex.Index,
	tok tokenizer.Tokenizer,
	special tokenizer.SpecialTokens,
	cfg Config,
) *Processor {
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.DiscardHandler)
	}
	if cfg.SnapThreshold <= 0 {
		cfg.SnapThreshold = keyrecover.DefaultThreshold
	}
	if cfg.SearchLimit <= 0 {
		cfg.SearchLimit = DefaultConfig().SearchLimit
	}

	return &Processor{
		arena:   arena,
		root:    root,
		idx:     idx,
		tok:     tok,
		special: special,
		cfg:     cfg,
		dpda:    dpda.New(),
	}
}

// Prompt resets all per-request state. promptTokens is accepted for
// symmetry with the external interface (a caller typically feeds the
// prompt through the model before the first constrained step) but is
// not itself folded through the DPDA: constrained generation begins
// at PhaseRoot once JSON output starts.
func (p *Processor) Prompt(promptTokens []int32) {
	_ = promptTokens

	p.dpda.Reset()
	p.ctxStack = p.ctxStack[:0]
	p.keyBuffer.Reset()
	p.confirmedKey = ""
	p.lastError.Store(nil)
	p.errorLog = procerr.Log{}
	p.stepCount = 0
	p.searchCache = nil
	p.currentNode = jsonschema.NoNode
	p.currentArrayItem = jsonschema.NoNode
	p.currentTrie = nil
	p.triePath = nil
}

// Phase returns the DPDA's current phase, for observability/tests.
func (p *Processor) Phase() dpda.Phase { return p.dpda.Phase() }

// ConfirmedKey returns the most recently resolved object key.
func (p *Processor) ConfirmedKey() string { return p.confirmedKey }

// LastError returns the most recently recorded error without
// clearing it. Safe to call concurrently with Process/DidSample.
func (p *Processor) LastError() *procerr.Error { return p.lastError.Load() }

// PollError atomically returns and clears the most recently recorded
// error. Safe to call concurrently with Process/DidSample.
func (p *Processor) PollError() *procerr.Error { return p.lastError.Swap(nil) }

// ErrorLog returns every error recorded so far this request.
func (p *Processor) ErrorLog() *procerr.Log { return &p.errorLog }

func (p *Processor) recordError(e *procerr.Error) {
	p.errorLog.Add(e, p.stepCount)
	p.lastError.Store(e)
}

// Process reshapes v in place according to the current phase's
// masking/biasing policy and returns it.
func (p *Processor) Process(v logits.Vector) logits.Vector {
	phase := p.dpda.Phase()
	eos, hasEOS := p.tok.EOSTokenID()

	switch phase.Kind {
	case dpda.PhaseRoot:
		p.applyMask(v, unionSets(p.special.BraceOpen, p.special.BracketOpen, p.special.Quote,
			p.numberStartTokens(), p.literalStartTokens()), eos, hasEOS)

	case dpda.PhaseInObject:
		p.processInObject(v, phase, eos, hasEOS)

	case dpda.PhaseInArray:
		p.processInArray(v, phase, eos, hasEOS)

	case dpda.PhaseInString:
		p.processInString(v, phase, eos, hasEOS)

	case dpda.PhaseInNumber, dpda.PhaseInLiteral:
		// No further hard narrowing within a scalar literal/number:
		// the DPDA itself rejects malformed continuations token by
		// token as they arrive (see DidSample).

	case dpda.PhaseDone:
		if hasEOS {
			logits.BiasOne(v, eos, p.cfg.EOSBias*2)
		}

	case dpda.PhaseError:
		p.recordError(&procerr.Error{Kind: procerr.KindInvalidPhase})
		if hasEOS {
			logits.BiasOne(v, eos, p.cfg.EOSBias*2)
		}
	}

	return v
}

func (p *Processor) processInObject(v logits.Vector, phase dpda.Phase, eos int32, hasEOS bool) {
	switch phase.ObjectSub {
	case dpda.ObjectExpectKeyOrEnd:
		p.applyMask(v, unionSets(p.special.Quote, p.special.BraceClose), eos, hasEOS)
	case dpda.ObjectExpectKey:
		p.applyMask(v, p.special.Quote, eos, hasEOS)
	case dpda.ObjectExpectColon:
		p.applyMask(v, p.special.Colon, eos, hasEOS)
	case dpda.ObjectExpectValueStart:
		valueNode := p.valueSchemaForConfirmedKey()
		p.applyMask(v, p.valueStartTokens(valueNode), eos, hasEOS)
		logits.Bias(v, p.typePreferredFor(valueNode), p.cfg.ValueBias)
	case dpda.ObjectAfterValue:
		p.applyMask(v, unionSets(p.special.Comma, p.special.BraceClose), eos, hasEOS)
	}
}

func (p *Processor) processInArray(v logits.Vector, phase dpda.Phase, eos int32, hasEOS bool) {
	switch phase.ArraySub {
	case dpda.ArrayExpectValue:
		allowed := unionSets(p.valueStartTokens(p.currentArrayItem), p.special.BracketClose)
		p.applyMask(v, allowed, eos, hasEOS)
		logits.Bias(v, p.typePreferredFor(p.currentArrayItem), p.cfg.ValueBias)
	case dpda.ArrayAfterValue:
		p.applyMask(v, unionSets(p.special.Comma, p.special.BracketClose), eos, hasEOS)
	}
}

func (p *Processor) processInString(v logits.Vector, phase dpda.Phase, eos int32, hasEOS bool) {
	if phase.StringKind != dpda.StringKey {
		// Free-form value-string body: the schema does not constrain
		// string content (SPEC_FULL §6), only a light safety nudge so
		// EOS stays reachable if the model wants to stop early.
		if hasEOS {
			logits.BiasOne(v, eos, p.cfg.EOSBias*0.1)
		}
		return
	}

	if p.triePath == nil {
		p.applyMask(v, unionSets(p.special.Quote, p.special.Backslash), eos, hasEOS)
		return
	}

	allowed := unionSets(p.triePath.AllowedTokens(), p.special.Backslash)
	if p.triePath.IsAtTerminal() {
		allowed = unionSets(allowed, p.special.Quote)
	}
	p.applyMask(v, allowed, eos, hasEOS)
}

func (p *Processor) applyMask(v logits.Vector, allowed map[int32]struct{}, eos int32, hasEOS bool) {
	if len(allowed) == 0 {
		p.recordError(&procerr.Error{Kind: procerr.KindEmptyAllowedTokens})
		if hasEOS {
			logits.BiasOne(v, eos, p.cfg.EOSBias*0.1)
		}
		return
	}
	logits.Mask(v, allowed, eos, hasEOS)
}

// valueStartTokens returns the structural tokens that may open a
// value of the given schema node (or any value, if node is NoNode).
func (p *Processor) valueStartTokens(node jsonschema.NodeID) map[int32]struct{} {
	if node == jsonschema.NoNode {
		return unionSets(p.special.Quote, p.special.BraceOpen, p.special.BracketOpen,
			p.numberStartTokens(), p.literalStartTokens())
	}

	switch p.arena.Kind(node) {
	case jsonschema.KindObject:
		return p.special.BraceOpen
	case jsonschema.KindArray:
		return p.special.BracketOpen
	case jsonschema.KindString:
		return p.special.Quote
	case jsonschema.KindNumber:
		return p.numberStartTokens()
	case jsonschema.KindBoolean:
		return unionSets(p.searchContains("true"), p.searchContains("false"))
	case jsonschema.KindNull:
		return p.searchContains("null")
	default:
		return unionSets(p.special.Quote, p.special.BraceOpen, p.special.BracketOpen,
			p.numberStartTokens(), p.literalStartTokens())
	}
}

func (p *Processor) numberStartTokens() map[int32]struct{} {
	return p.searchContainsAny("-0123456789")
}

func (p *Processor) literalStartTokens() map[int32]struct{} {
	return unionSets(p.searchContains("true"), p.searchContains("false"), p.searchContains("null"))
}

// typePreferredFor returns the soft-bias token set for the expected
// value type at node (or nil for "any").
func (p *Processor) typePreferredFor(node jsonschema.NodeID) map[int32]struct{} {
	if node == jsonschema.NoNode {
		return nil
	}

	switch p.arena.Kind(node) {
	case jsonschema.KindString:
		return p.special.Quote
	case jsonschema.KindNumber:
		return p.searchContainsAny("0123456789-")
	case jsonschema.KindBoolean:
		return unionSets(p.searchContains("true"), p.searchContains("false"))
	case jsonschema.KindNull:
		return p.searchContains("null")
	case jsonschema.KindObject:
		return p.special.BraceOpen
	case jsonschema.KindArray:
		return p.special.BracketOpen
	default:
		return nil
	}
}

func (p *Processor) valueSchemaForConfirmedKey() jsonschema.NodeID {
	if p.currentNode == jsonschema.NoNode {
		return jsonschema.NoNode
	}
	id, ok := p.arena.Property(p.currentNode, p.confirmedKey)
	if !ok {
		return jsonschema.NoNode
	}
	return id
}

func (p *Processor) searchContains(substr string) map[int32]struct{} {
	return p.searchCached(substr, func(text string) bool { return strings.Contains(text, substr) })
}

func (p *Processor) searchContainsAny(chars string) map[int32]struct{} {
	return p.searchCached("any:"+chars, func(text string) bool { return strings.ContainsAny(text, chars) })
}

func (p *Processor) searchCached(key string, match func(string) bool) map[int32]struct{} {
	if p.searchCache == nil {
		p.searchCache = make(map[string]map[int32]struct{})
	}
	if set, ok := p.searchCache[key]; ok {
		return set
	}

	set := make(map[int32]struct{})
	limit := p.cfg.SearchLimit
	if vs, ok := p.tok.VocabSize(); ok && vs < limit {
		limit = vs
	}
	for id := int32(0); id < int32(limit); id++ {
		text := p.tok.DecodeToken(id)
		if text != "" && match(text) {
			set[id] = struct{}{}
		}
	}

	p.searchCache[key] = set
	return set
}

func unionSets(sets ...map[int32]struct{}) map[int32]struct{} {
	out := make(map[int32]struct{})
	for _, s := range sets {
		for id := range s {
			out[id] = struct{}{}
		}
	}
	return out
}

// DidSample folds the sampled token back into the processor's state:
// it decodes the token, attempts to extend the active key trie path
// if one is in play, advances the DPDA character by character, and
// applies the context-stack side effects each structural transition
// implies.
func (p *Processor) DidSample(tokenID int32) {
	p.stepCount++
	text := p.tok.DecodeToken(tokenID)

	if p.isKeyPhase() {
		stripped := stripQuoteBackslash(text)
		if stripped != "" {
			// keyBuffer tracks stripped text for bookkeeping, but the
			// trie is walked with the raw token id: tries are built
			// from Encode() of bare key substrings, so a token whose
			// text fuses letters with a structural character has no
			// matching edge and naturally reports trieMismatch below.
			p.keyBuffer.WriteString(stripped)
			if p.triePath == nil || !p.triePath.Append(tokenID) {
				p.recordError(&procerr.Error{Kind: procerr.KindTrieMismatch, Partial: p.keyBuffer.String()})
			}
		}
	}

	for _, c := range text {
		prevPhase := p.dpda.Phase()
		prevDepth := p.dpda.Depth()

		p.dpda.ProcessCharacter(c)

		if p.dpda.IsError() {
			continue
		}

		newPhase := p.dpda.Phase()
		newDepth := p.dpda.Depth()

		if prevPhase.Kind == dpda.PhaseInString && prevPhase.StringKind == dpda.StringKey &&
			newPhase.Kind == dpda.PhaseInObject && newPhase.ObjectSub == dpda.ObjectExpectColon {
			p.resolveConfirmedKey()
		}

		switch {
		case newDepth > prevDepth:
			switch c {
			case '{':
				p.pushObjectFrame(prevPhase)
			case '[':
				p.pushArrayFrame(prevPhase)
			}
		case newDepth < prevDepth:
			p.popFrame()
		case newPhase != prevPhase && isAfterValue(newPhase):
			p.confirmedKey = ""
		}
	}
}

func (p *Processor) isKeyPhase() bool {
	ph := p.dpda.Phase()
	return ph.Kind == dpda.PhaseInString && ph.StringKind == dpda.StringKey
}

func isAfterValue(ph dpda.Phase) bool {
	return (ph.Kind == dpda.PhaseInObject && ph.ObjectSub == dpda.ObjectAfterValue) ||
		(ph.Kind == dpda.PhaseInArray && ph.ArraySub == dpda.ArrayAfterValue)
}

func stripQuoteBackslash(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r == '"' || r == '\\' {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func (p *Processor) resolveConfirmedKey() {
	raw := p.keyBuffer.String()

	switch {
	case p.triePath != nil && p.triePath.IsAtTerminal():
		p.confirmedKey = p.triePath.KeyName()
	case p.currentTrie != nil:
		if snapped, ok := keyrecover.SnapOrdered(raw, p.currentTrie.AllKeys(), p.cfg.SnapThreshold); ok {
			p.confirmedKey = snapped
		} else {
			p.confirmedKey = raw
		}
	default:
		p.confirmedKey = raw
	}

	p.keyBuffer.Reset()
	if p.currentTrie != nil {
		p.triePath.Reset(p.currentTrie)
	}
}

func (p *Processor) setTrieFor(node jsonschema.NodeID) {
	if node != jsonschema.NoNode && p.arena.Kind(node) == jsonschema.KindObject {
		p.currentTrie = p.idx.Trie(node)
	} else {
		p.currentTrie = nil
	}
	if p.currentTrie != nil {
		p.triePath = p.currentTrie.NewPath()
	} else {
		p.triePath = nil
	}
}

func (p *Processor) pushObjectFrame(prevPhase dpda.Phase) {
	p.ctxStack = append(p.ctxStack, ctxFrame{prevNode: p.currentNode, prevArrayItem: p.currentArrayItem})

	var next jsonschema.NodeID = jsonschema.NoNode
	switch prevPhase.Kind {
	case dpda.PhaseInArray:
		next = p.currentArrayItem
	case dpda.PhaseInObject:
		next = p.valueSchemaForConfirmedKey()
	case dpda.PhaseRoot:
		next = p.root
	}

	p.currentNode = next
	p.currentArrayItem = jsonschema.NoNode
	p.confirmedKey = ""
	p.setTrieFor(next)
}

func (p *Processor) pushArrayFrame(prevPhase dpda.Phase) {
	p.ctxStack = append(p.ctxStack, ctxFrame{prevNode: p.currentNode, prevArrayItem: p.currentArrayItem})

	itemNode := jsonschema.NoNode
	switch prevPhase.Kind {
	case dpda.PhaseInArray:
		if p.currentArrayItem != jsonschema.NoNode && p.arena.Kind(p.currentArrayItem) == jsonschema.KindArray {
			itemNode = p.arena.Items(p.currentArrayItem)
		}
	case dpda.PhaseInObject:
		arrNode := p.valueSchemaForConfirmedKey()
		if arrNode != jsonschema.NoNode && p.arena.Kind(arrNode) == jsonschema.KindArray {
			itemNode = p.arena.Items(arrNode)
		}
	case dpda.PhaseRoot:
		if p.root != jsonschema.NoNode && p.arena.Kind(p.root) == jsonschema.KindArray {
			itemNode = p.arena.Items(p.root)
		}
	}

	p.currentArrayItem = itemNode
	p.currentNode = jsonschema.NoNode
	p.confirmedKey = ""
	p.currentTrie = nil
	p.triePath = nil
}

func (p *Processor) popFrame() {
	if len(p.ctxStack) == 0 {
		p.currentNode = jsonschema.NoNode
		p.currentArrayItem = jsonschema.NoNode
		p.currentTrie = nil
		p.triePath = nil
		return
	}

	top := p.ctxStack[len(p.ctxStack)-1]
	p.ctxStack = p.ctxStack[:len(p.ctxStack)-1]
	p.currentNode = top.prevNode
	p.currentArrayItem = top.prevArrayItem
	p.confirmedKey = ""
	p.setTrieFor(p.currentNode)
}
