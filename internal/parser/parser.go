// Package parser turns free-form LLM output into a map of relative file
// paths to file contents. Explicit wrapper blocks are extracted first, then
// the remaining markdown is tokenized and every fenced code block is
// resolved through a ranked heuristic cascade with an optional path oracle
// behind it.
package parser

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/radekstepan/apply-llm-changes/internal/model"
	"github.com/radekstepan/apply-llm-changes/internal/oracle"
	"github.com/radekstepan/apply-llm-changes/internal/pathutil"
	"github.com/radekstepan/apply-llm-changes/internal/ui"
)

const (
	windowBeforeLines = 3
	windowCodeLines   = 5
	maxParallelAsks   = 4
)

// Options control how Extract resolves fenced code blocks.
type Options struct {
	Policy   oracle.Policy
	Parallel bool
}

// Result is the outcome of one extraction pass. Files maps each resolved
// path to its winning block; Order keeps first-insertion order for
// deterministic writes.
type Result struct {
	Files      map[string]model.FileBlock
	Order      []string
	Warnings   []string
	BlocksSeen int // explicit matches plus fenced code blocks
	Unresolved int
}

func newResult() *Result {
	return &Result{Files: make(map[string]model.FileBlock)}
}

func (r *Result) warnf(format string, a ...interface{}) {
	msg := fmt.Sprintf(format, a...)
	r.Warnings = append(r.Warnings, msg)
	ui.Warning("%s", msg)
}

// insert applies the precedence rule: explicit blocks are never overridden
// by inferred ones, and same-tier collisions are last-write-wins with a
// warning.
func (r *Result) insert(b model.FileBlock) {
	existing, ok := r.Files[b.Path]
	if ok {
		if existing.Source.Explicit() && !b.Source.Explicit() {
			r.warnf("skipping %s block for %s: an explicit block already claims it", b.Source, b.Path)
			return
		}
		r.warnf("duplicate path %s: %s block overwrites earlier %s block", b.Path, b.Source, existing.Source)
	} else {
		r.Order = append(r.Order, b.Path)
	}
	r.Files[b.Path] = b
}

// pendingBlock is one fenced code block awaiting resolution and merge.
type pendingBlock struct {
	ordinal int // 1-based position among fenced blocks
	content string
	path    string
	source  model.Source
	ask     bool
	window  oracle.Window
	askErr  error
}

// Extract runs the full pipeline over raw text. It never fails on bad
// blocks; everything unresolvable is dropped with a warning and an empty
// result is a valid outcome.
func Extract(ctx context.Context, content string, o oracle.Oracle, opts Options) (*Result, error) {
	res := newResult()

	remaining := extractExplicit(content, SyntaxComment, res)
	remaining = extractExplicit(remaining, SyntaxTag, res)

	doc, err := Tokenize([]byte(remaining))
	if err != nil {
		// Explicit results still stand; only inference is lost.
		res.warnf("tokenization failed, emitting explicit blocks only: %v", err)
		return res, nil
	}

	pend := collectBlocks(doc, res, opts)

	if o != nil && opts.Policy != oracle.PolicyOff {
		if opts.Parallel {
			askParallel(ctx, o, pend)
		} else {
			askSequential(ctx, o, pend)
		}
	}

	// Single merge step, strictly in document order, so warnings and
	// overwrites stay deterministic even in parallel mode.
	for _, p := range pend {
		if p.askErr != nil {
			res.warnf("path oracle failed for code block %d: %v", p.ordinal, p.askErr)
		}
		if p.path == "" {
			res.Unresolved++
			res.warnf("could not determine file path for code block %d", p.ordinal)
			continue
		}
		res.insert(model.FileBlock{Path: p.path, Content: p.content, Source: p.source})
	}
	return res, nil
}

// collectBlocks walks the document, runs the heuristic cascade per policy,
// and marks which blocks still need the oracle.
func collectBlocks(doc *Document, res *Result, opts Options) []*pendingBlock {
	var pend []*pendingBlock
	ordinal := 0
	for i, n := range doc.Nodes {
		if n.Kind != KindFencedCode {
			continue
		}
		ordinal++
		res.BlocksSeen++

		p := &pendingBlock{ordinal: ordinal, content: n.Content}
		if opts.Policy != oracle.PolicyAlways {
			if m, ok := Locate(doc, i); ok {
				p.path = m.Candidate.Text
				p.content = m.Content
				p.source = model.SourceHeuristic
			}
		}
		if p.path == "" && opts.Policy != oracle.PolicyOff {
			p.ask = true
			p.window = windowFor(doc, i)
		}
		pend = append(pend, p)
	}
	return pend
}

func askSequential(ctx context.Context, o oracle.Oracle, pend []*pendingBlock) {
	for _, p := range pend {
		if p.ask {
			p.resolve(ctx, o)
		}
	}
}

// askParallel issues all oracle calls concurrently. Each goroutine writes
// only to its own pendingBlock; insertion happens later in document order.
func askParallel(ctx context.Context, o oracle.Oracle, pend []*pendingBlock) {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxParallelAsks)
	for _, p := range pend {
		if !p.ask {
			continue
		}
		p := p
		g.Go(func() error {
			p.resolve(gctx, o)
			return nil
		})
	}
	_ = g.Wait()
}

func (p *pendingBlock) resolve(ctx context.Context, o oracle.Oracle) {
	reply, err := o.Ask(ctx, p.window)
	if err != nil {
		p.askErr = err
		return
	}
	if reply == "" || reply == oracle.NoPath {
		return
	}
	// The oracle is untrusted input like everything else.
	path, err := pathutil.Normalize(reply)
	if err != nil {
		return
	}
	p.path = path
	p.source = model.SourceOracle
}

// windowFor builds the bounded context handed to the oracle for the fenced
// node at idx.
func windowFor(doc *Document, idx int) oracle.Window {
	n := doc.Nodes[idx]
	w := oracle.Window{Fence: "```" + n.Lang}

	if n.Offset > 0 {
		before := strings.TrimRight(string(doc.Source[:n.Offset]), "\n")
		if before != "" {
			lines := strings.Split(before, "\n")
			if len(lines) > windowBeforeLines {
				lines = lines[len(lines)-windowBeforeLines:]
			}
			w.Before = lines
		}
	}

	code := strings.Split(strings.TrimRight(n.Content, "\n"), "\n")
	if len(code) > windowCodeLines {
		code = code[:windowCodeLines]
	}
	w.Code = code
	return w
}
