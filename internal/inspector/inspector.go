// Package inspector walks a logical tree and its mirrored output structure,
// sending text and string attributes to the match worker and masking what it
// finds.
package inspector

import (
	"context"
	"errors"
	"strings"

	"github.com/onboardbase/securelog/internal/mask"
	"github.com/onboardbase/securelog/internal/metrics"
	"github.com/onboardbase/securelog/internal/tree"
	"github.com/onboardbase/securelog/internal/types"
	"github.com/onboardbase/securelog/internal/worker"
	"github.com/rs/zerolog/log"
)

// DefaultMaxDepth is the deepest level inspected when none is configured.
const DefaultMaxDepth = 10

// Matcher is the match dispatch used by the walker. *worker.Worker satisfies it.
type Matcher interface {
	Match(ctx context.Context, req worker.Request) ([]types.Result, error)
}

// Options controls one walk.
type Options struct {
	Patterns []types.SecretPattern
	// ExcludeTypes lists primitive type names skipped with their subtree.
	ExcludeTypes []string
	// MaxDepth is inclusive: nodes at MaxDepth are inspected, their children
	// are not.
	MaxDepth      int
	Mask          bool
	VisiblePrefix int
}

// Stats counts what a walk did.
type Stats struct {
	Nodes      int `json:"nodes"`
	Dispatches int `json:"dispatches"`
	Failures   int `json:"failures"`
	Rewrites   int `json:"rewrites"`
}

// Walker inspects trees. A Walker is used by one goroutine at a time.
type Walker struct {
	m       Matcher
	opts    Options
	exclude map[string]struct{}
	stats   Stats
}

// New returns a walker dispatching to m.
func New(m Matcher, opts Options) *Walker {
	ex := make(map[string]struct{}, len(opts.ExcludeTypes))
	for _, t := range opts.ExcludeTypes {
		ex[t] = struct{}{}
	}
	return &Walker{m: m, opts: opts, exclude: ex}
}

// Stats returns the counters accumulated since New.
func (w *Walker) Stats() Stats { return w.stats }

// Inspect scans node at depth, appending findings to acc in discovery order,
// and reports whether anything was found in the subtree. mirror may be nil.
func (w *Walker) Inspect(ctx context.Context, node tree.Node, mirror tree.OutputNode, depth int, acc *[]types.Result) bool {
	if depth > w.opts.MaxDepth || ctx.Err() != nil {
		return false
	}
	switch n := node.(type) {
	case tree.TextNode:
		w.stats.Nodes++
		return w.inspectText(ctx, n, mirror, acc)
	case tree.ElementNode:
		w.stats.Nodes++
		return w.inspectElement(ctx, n, mirror, depth, acc)
	}
	return false
}

func (w *Walker) inspectText(ctx context.Context, n tree.TextNode, mirror tree.OutputNode, acc *[]types.Result) bool {
	results := w.match(ctx, n.Text(), types.OriginText)
	for i := range results {
		if !w.opts.Mask {
			continue
		}
		raw := results[i].RawValue
		masked, ok := w.mask(raw)
		if !ok {
			continue
		}
		results[i].RawValue = masked
		w.rewrite(mirror, raw, masked)
	}
	*acc = append(*acc, results...)
	return len(results) > 0
}

func (w *Walker) inspectElement(ctx context.Context, n tree.ElementNode, mirror tree.OutputNode, depth int, acc *[]types.Result) bool {
	typ := n.Type()
	if typ.Primitive {
		if _, skip := w.exclude[typ.Name]; skip {
			return false
		}
	}
	origin := typ.Resolved()

	for _, a := range n.Attrs() {
		s, ok := a.Value.(string)
		if !ok {
			continue
		}
		results := w.match(ctx, s, origin)
		if len(results) == 0 {
			continue
		}
		// mirror attributes are never rewritten
		if w.opts.Mask {
			for i := range results {
				if masked, ok := w.mask(results[i].RawValue); ok {
					results[i].RawValue = masked
				}
			}
		}
		*acc = append(*acc, results...)
		return true
	}

	found := false
	for i, c := range n.Children() {
		var mc tree.OutputNode
		if mirror != nil {
			mc = mirror.ChildAt(i)
		}
		if w.Inspect(ctx, c, mc, depth+1, acc) {
			found = true
		}
	}
	return found
}

// match dispatches one call and absorbs any failure as zero matches.
func (w *Walker) match(ctx context.Context, text, origin string) []types.Result {
	w.stats.Dispatches++
	res, err := w.m.Match(ctx, worker.Request{Text: text, Patterns: w.opts.Patterns, Origin: origin})
	if err != nil {
		w.stats.Failures++
		metrics.MatchFailuresTotal.WithLabelValues(failureReason(err)).Inc()
		log.Warn().Str("origin", origin).Err(err).Msg("match call failed, treating as no matches")
		return nil
	}
	return res
}

func (w *Walker) mask(raw string) (string, bool) {
	masked, err := mask.Mask(raw, w.opts.VisiblePrefix)
	if err != nil {
		log.Error().Err(err).Msg("mask failed, leaving value unmasked")
		return raw, false
	}
	return masked, true
}

// rewrite replaces the first literal occurrence of raw in a mirrored text
// node. The occurrence may precede the match itself when raw repeats.
func (w *Walker) rewrite(mirror tree.OutputNode, raw, masked string) {
	if mirror == nil || !mirror.IsText() {
		log.Debug().Msg("no mirrored text node, skipping rewrite")
		return
	}
	text := mirror.Text()
	if !strings.Contains(text, raw) {
		log.Debug().Msg("mirrored text does not contain value, skipping rewrite")
		return
	}
	mirror.SetText(strings.Replace(text, raw, masked, 1))
	w.stats.Rewrites++
}

func failureReason(err error) string {
	switch {
	case errors.Is(err, worker.ErrTimeout):
		return metrics.ReasonTimeout
	case errors.Is(err, worker.ErrNotRunning):
		return metrics.ReasonNotRunning
	case errors.Is(err, context.Canceled):
		return metrics.ReasonCanceled
	}
	return metrics.ResultError
}
