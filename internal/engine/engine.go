package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/onboardbase/securelog/internal/detectors"
	"github.com/onboardbase/securelog/internal/inspector"
	"github.com/onboardbase/securelog/internal/mask"
	"github.com/onboardbase/securelog/internal/metrics"
	"github.com/onboardbase/securelog/internal/tree"
	"github.com/onboardbase/securelog/internal/types"
	"github.com/onboardbase/securelog/internal/worker"
	"github.com/rs/zerolog/log"
)

var (
	// ErrSuperseded is returned by a scan that finished after a newer scan
	// started. Its findings are discarded and the callback is not invoked.
	ErrSuperseded = errors.New("scan superseded by a newer scan")
	// ErrNotMounted is returned by Scan before Mount or after Unmount.
	ErrNotMounted = errors.New("coordinator not mounted")
)

// Config controls one mounted scan context. It is read once per scan and not
// modified by the coordinator.
//
// Start from DefaultConfig. Zero values are taken literally: a zero MaxDepth
// inspects only the root level and a zero VisiblePrefix masks every
// character. Only MatchTimeout treats zero as unset.
type Config struct {
	CustomPatterns []types.SecretPattern
	// ExcludeTypes names primitive element types skipped with their subtree.
	ExcludeTypes []string
	// MaxDepth is inclusive; a negative value selects the default.
	MaxDepth int
	Mask     bool
	// VisiblePrefix is the number of characters left readable when masking.
	VisiblePrefix int
	// MatchTimeout bounds each match call; zero selects the worker default.
	MatchTimeout time.Duration
	// OnComplete receives all findings of a scan, once, and only when there
	// is at least one.
	OnComplete func([]types.Result)
}

// DefaultConfig returns the configuration used when nothing is overridden.
func DefaultConfig() Config {
	return Config{
		MaxDepth:      inspector.DefaultMaxDepth,
		VisiblePrefix: mask.DefaultVisiblePrefix,
		MatchTimeout:  worker.DefaultTimeout,
	}
}

// Validate rejects settings the masker would refuse.
func (c Config) Validate() error {
	if c.Mask && c.VisiblePrefix < 0 {
		return fmt.Errorf("visible prefix %d: %w", c.VisiblePrefix, mask.ErrInvalidInput)
	}
	return nil
}

// Result summarizes a completed scan.
type Result struct {
	Findings   []types.Result
	Duration   time.Duration
	Stats      inspector.Stats
	Generation uint64
}

// Coordinator runs scans over one mounted tree.
type Coordinator struct {
	cfg      Config
	patterns []types.SecretPattern

	mu     sync.Mutex
	w      *worker.Worker
	gen    uint64
	cancel context.CancelFunc
}

// New returns an unmounted coordinator. catalog is the default pattern set;
// cfg.CustomPatterns are appended to it.
func New(catalog []types.SecretPattern, cfg Config) *Coordinator {
	if cfg.MaxDepth < 0 {
		cfg.MaxDepth = inspector.DefaultMaxDepth
	}
	return &Coordinator{
		cfg:      cfg,
		patterns: detectors.Effective(catalog, cfg.CustomPatterns),
	}
}

// Patterns returns the effective pattern set.
func (c *Coordinator) Patterns() []types.SecretPattern {
	return append([]types.SecretPattern(nil), c.patterns...)
}

// Mount starts the match worker. Mounting twice is a no-op.
func (c *Coordinator) Mount() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.w != nil {
		return
	}
	c.w = worker.New(worker.Options{Timeout: c.cfg.MatchTimeout})
	c.w.Start()
	log.Debug().Int("patterns", len(c.patterns)).Msg("scan context mounted")
}

// Unmount cancels any scan in flight and stops the worker.
func (c *Coordinator) Unmount() {
	c.mu.Lock()
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	w := c.w
	c.w = nil
	c.mu.Unlock()
	if w != nil {
		w.Close()
		log.Debug().Msg("scan context unmounted")
	}
}

// Scan walks root from depth 0, pairing it with mirror (which may be nil), and
// invokes OnComplete once with every finding if there are any. Starting a scan
// cancels the previous one; a scan that is no longer the latest when it
// finishes returns ErrSuperseded without invoking the callback.
func (c *Coordinator) Scan(ctx context.Context, root tree.Node, mirror tree.OutputNode) (Result, error) {
	if err := c.cfg.Validate(); err != nil {
		return Result{}, err
	}

	c.mu.Lock()
	if c.w == nil {
		c.mu.Unlock()
		return Result{}, ErrNotMounted
	}
	if c.cancel != nil {
		c.cancel()
	}
	c.gen++
	gen := c.gen
	ctx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	w := c.w
	c.mu.Unlock()
	defer cancel()

	start := time.Now()
	walker := inspector.New(w, inspector.Options{
		Patterns:      c.patterns,
		ExcludeTypes:  c.cfg.ExcludeTypes,
		MaxDepth:      c.cfg.MaxDepth,
		Mask:          c.cfg.Mask,
		VisiblePrefix: c.cfg.VisiblePrefix,
	})
	var acc []types.Result
	walker.Inspect(ctx, root, mirror, 0, &acc)
	res := Result{Findings: acc, Duration: time.Since(start), Stats: walker.Stats(), Generation: gen}

	c.mu.Lock()
	latest := gen == c.gen
	if latest {
		c.cancel = nil
	}
	c.mu.Unlock()

	if !latest {
		observe(metrics.ResultSuperseded, res.Duration)
		log.Debug().Uint64("generation", gen).Msg("discarding superseded scan")
		return Result{Generation: gen, Duration: res.Duration}, ErrSuperseded
	}
	if err := ctx.Err(); err != nil {
		observe(metrics.ResultError, res.Duration)
		return Result{Generation: gen, Duration: res.Duration}, fmt.Errorf("scan aborted: %w", err)
	}

	if len(acc) == 0 {
		observe(metrics.ResultClean, res.Duration)
		return res, nil
	}
	observe(metrics.ResultFound, res.Duration)
	for _, r := range acc {
		metrics.FindingsTotal.WithLabelValues(r.Detector).Inc()
	}
	log.Debug().Int("findings", len(acc)).Dur("duration", res.Duration).Int("nodes", res.Stats.Nodes).Msg("scan complete")
	if c.cfg.OnComplete != nil {
		c.cfg.OnComplete(acc)
	}
	return res, nil
}

// ScanOnce mounts a coordinator, runs a single scan and unmounts it.
func ScanOnce(ctx context.Context, catalog []types.SecretPattern, cfg Config, root tree.Node, mirror tree.OutputNode) (Result, error) {
	c := New(catalog, cfg)
	c.Mount()
	defer c.Unmount()
	return c.Scan(ctx, root, mirror)
}

func observe(result string, d time.Duration) {
	metrics.ScansTotal.WithLabelValues(result).Inc()
	metrics.ScanDuration.WithLabelValues(result).Observe(d.Seconds())
}
