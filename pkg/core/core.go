package core

import (
	"context"

	"github.com/onboardbase/securelog/internal/detectors"
	"github.com/onboardbase/securelog/internal/engine"
	"github.com/onboardbase/securelog/internal/mask"
	"github.com/onboardbase/securelog/internal/tree"
	"github.com/onboardbase/securelog/internal/types"
)

// Re-export selected internal types as a stable public API surface.
// These are type aliases so external consumers can depend on a stable path.
type (
	Config     = engine.Config
	Result     = engine.Result
	Finding    = types.Result
	Pattern    = types.SecretPattern
	Node       = tree.Node
	OutputNode = tree.OutputNode
	Attr       = tree.Attr
)

// OriginText is the origin reported for findings in bare text nodes.
const OriginText = types.OriginText

var (
	ErrSuperseded = engine.ErrSuperseded
	ErrNotMounted = engine.ErrNotMounted
)

// Session is a mounted scan context. Scans on one session supersede each
// other; Close releases its worker.
type Session struct {
	c *engine.Coordinator
}

// DefaultConfig returns the configuration used when nothing is overridden
// (depth 10, five visible characters, 5s match timeout). Build every Config
// from it: a zero Config scans only the root level and masks values fully.
func DefaultConfig() Config { return engine.DefaultConfig() }

// DefaultPatterns returns a copy of the bundled pattern catalog.
func DefaultPatterns() []Pattern { return detectors.Default() }

// PatternNames returns the names of the bundled patterns in catalog order.
func PatternNames() []string { return detectors.Names(detectors.Default()) }

// Open mounts a session over the bundled catalog plus cfg.CustomPatterns. cfg
// should come from DefaultConfig.
func Open(cfg Config) *Session {
	c := engine.New(detectors.Default(), cfg)
	c.Mount()
	return &Session{c: c}
}

// Scan walks root, masking into mirror when cfg.Mask is set. mirror may be
// nil.
func (s *Session) Scan(ctx context.Context, root Node, mirror OutputNode) (Result, error) {
	return s.c.Scan(ctx, root, mirror)
}

// Close cancels any scan in flight and stops the session's worker.
func (s *Session) Close() { s.c.Unmount() }

// Scan runs one scan over root with the bundled catalog and returns its
// findings. cfg should come from DefaultConfig; see Config for how zero
// fields are read.
func Scan(ctx context.Context, cfg Config, root Node, mirror OutputNode) ([]Finding, error) {
	res, err := engine.ScanOnce(ctx, detectors.Default(), cfg, root, mirror)
	if err != nil {
		return nil, err
	}
	return res.Findings, nil
}

// Mask disguises value, leaving the first visible characters readable.
func Mask(value string, visible int) (string, error) { return mask.Mask(value, visible) }

// Text builds a text node.
func Text(s string) Node { return tree.Text(s) }

// Element builds a primitive element named by tag.
func Element(tag string, attrs []Attr, children ...Node) Node {
	return tree.Primitive(tag, attrs, children...)
}

// Component builds a named composite element. An empty name is reported as
// "Unknown".
func Component(name string, attrs []Attr, children ...Node) Node {
	return tree.Component(name, attrs, children...)
}

// Mirror builds an in-memory output structure shaped like root.
func Mirror(root Node) OutputNode { return tree.Mirror(root) }
