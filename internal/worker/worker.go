// Package worker runs the matcher on a dedicated goroutine. Callers exchange
// plain-data messages with it; compiled rules live only inside the goroutine.
package worker

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/onboardbase/securelog/internal/matcher"
	"github.com/onboardbase/securelog/internal/metrics"
	"github.com/onboardbase/securelog/internal/types"
	"github.com/rs/zerolog/log"
)

var (
	// ErrNotRunning is returned when a call is made before Start or after Close.
	ErrNotRunning = errors.New("match worker not running")
	// ErrTimeout is returned when a call does not complete within the timeout.
	ErrTimeout = errors.New("match call timed out")
)

// DefaultTimeout bounds a single match call when Options.Timeout is zero.
const DefaultTimeout = 5 * time.Second

// Request is one unit of work: a text blob, the patterns to run over it, and
// the label recorded on every result.
type Request struct {
	Text     string
	Patterns []types.SecretPattern
	Origin   string
}

// Options configures a Worker.
type Options struct {
	// Timeout bounds each Match call. Zero means DefaultTimeout; negative
	// disables the per-call bound and leaves only the caller's context.
	Timeout time.Duration
}

type call struct {
	req  Request
	resp chan []types.Result
}

// Worker serves match requests one at a time.
type Worker struct {
	opts Options

	mu      sync.Mutex
	running bool
	reqs    chan call
	done    chan struct{}
	stopped chan struct{}

	// handle replaces the matcher in tests
	handle func(*matcher.Cache, Request) []types.Result
}

// New returns a stopped worker.
func New(opts Options) *Worker {
	if opts.Timeout == 0 {
		opts.Timeout = DefaultTimeout
	}
	return &Worker{opts: opts, handle: runMatch}
}

func runMatch(c *matcher.Cache, req Request) []types.Result {
	return c.Match(req.Text, req.Patterns, req.Origin)
}

// Start launches the goroutine. Starting a running worker is a no-op.
func (w *Worker) Start() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.running {
		return
	}
	w.reqs = make(chan call)
	w.done = make(chan struct{})
	w.stopped = make(chan struct{})
	w.running = true
	metrics.WorkersActive.Inc()
	go w.loop(w.reqs, w.done, w.stopped)
}

// Close stops the goroutine and waits for it to exit. Calls in flight return
// ErrNotRunning. Closing a stopped worker is a no-op.
func (w *Worker) Close() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	w.running = false
	close(w.done)
	stopped := w.stopped
	w.mu.Unlock()
	<-stopped
	metrics.WorkersActive.Dec()
}

// Running reports whether the worker accepts calls.
func (w *Worker) Running() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.running
}

func (w *Worker) loop(reqs <-chan call, done <-chan struct{}, stopped chan<- struct{}) {
	defer close(stopped)
	cache := matcher.NewCache()
	for {
		select {
		case <-done:
			hits, misses := cache.Stats()
			log.Debug().Int("rules", cache.Len()).Int("hits", hits).Int("misses", misses).Msg("match worker stopped")
			return
		case c := <-reqs:
			// resp is buffered, so an abandoned caller never blocks the loop
			c.resp <- w.handle(cache, c.req)
		}
	}
}

// Match sends req to the worker and waits for the results. It returns
// ErrNotRunning if the worker is stopped, ErrTimeout if the call outlives the
// configured timeout, or the context's error if ctx is cancelled first.
func (w *Worker) Match(ctx context.Context, req Request) ([]types.Result, error) {
	w.mu.Lock()
	running, reqs, done := w.running, w.reqs, w.done
	w.mu.Unlock()
	if !running {
		return nil, ErrNotRunning
	}

	if w.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, w.opts.Timeout)
		defer cancel()
	}
	start := time.Now()
	defer func() { metrics.MatchDuration.Observe(time.Since(start).Seconds()) }()

	// patterns are copied so the worker never aliases caller memory
	req.Patterns = append([]types.SecretPattern(nil), req.Patterns...)
	c := call{req: req, resp: make(chan []types.Result, 1)}

	select {
	case reqs <- c:
	case <-done:
		return nil, ErrNotRunning
	case <-ctx.Done():
		return nil, contextError(ctx)
	}
	select {
	case res := <-c.resp:
		return res, nil
	case <-done:
		return nil, ErrNotRunning
	case <-ctx.Done():
		return nil, contextError(ctx)
	}
}

func contextError(ctx context.Context) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return ErrTimeout
	}
	return ctx.Err()
}
