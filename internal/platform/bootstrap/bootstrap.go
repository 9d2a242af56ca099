// Package bootstrap runs the one-time startup work of the service (connecting
// storage, building the query layer) exactly once per process, whether it is
// triggered eagerly before listening or lazily by the first request.
package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"libraryapi/internal/apperr"
	"libraryapi/internal/httpx"
)

// State is the lifecycle position of an Initializer.
type State int

const (
	Uninitialized State = iota
	Initializing
	Ready
	Failed
)

func (s State) String() string {
	switch s {
	case Uninitialized:
		return "uninitialized"
	case Initializing:
		return "initializing"
	case Ready:
		return "ready"
	case Failed:
		return "failed"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// ErrInitFailed wraps every initialization failure.
var ErrInitFailed = apperr.New(apperr.ErrInternal, "Service initialization failed")

// Step is one named unit of startup work. Steps run in order and the first
// failure stops the attempt.
type Step struct {
	Name string
	Run  func(ctx context.Context) error
}

type attempt struct {
	done chan struct{}
	err  error
}

type Initializer struct {
	logger  *slog.Logger
	timeout time.Duration
	steps   []Step

	mu      sync.Mutex
	state   State
	current *attempt
}

// New returns an Initializer that bounds each attempt by timeout.
func New(logger *slog.Logger, timeout time.Duration, steps ...Step) *Initializer {
	return &Initializer{
		logger:  logger,
		timeout: timeout,
		steps:   steps,
	}
}

func (i *Initializer) State() State {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.state
}

func (i *Initializer) Ready() bool {
	return i.State() == Ready
}

// EnsureInitialized returns nil once every step has succeeded. The first call
// starts the attempt; concurrent callers wait for that same attempt. A caller
// whose ctx ends stops waiting with ctx.Err() while the attempt carries on
// under its own deadline. After a failure every call returns the stored error
// until Reset.
func (i *Initializer) EnsureInitialized(ctx context.Context) error {
	i.mu.Lock()
	switch i.state {
	case Ready:
		i.mu.Unlock()
		return nil
	case Failed:
		err := i.current.err
		i.mu.Unlock()
		return err
	case Uninitialized:
		i.state = Initializing
		i.current = &attempt{done: make(chan struct{})}
		go i.run(context.WithoutCancel(ctx), i.current)
	}
	a := i.current
	i.mu.Unlock()

	select {
	case <-a.done:
		return a.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (i *Initializer) run(ctx context.Context, a *attempt) {
	ctx, cancel := context.WithTimeout(ctx, i.timeout)
	defer cancel()

	start := time.Now()
	err := i.runSteps(ctx)

	i.mu.Lock()
	if err != nil {
		a.err = err
		i.state = Failed
	} else {
		i.state = Ready
	}
	i.mu.Unlock()
	close(a.done)

	if err != nil {
		i.logger.Error("initialization failed", "error", err, "duration", time.Since(start))
		return
	}
	i.logger.Info("initialization complete", "duration", time.Since(start))
}

func (i *Initializer) runSteps(ctx context.Context) error {
	for _, step := range i.steps {
		start := time.Now()
		if err := step.Run(ctx); err != nil {
			return fmt.Errorf("%w: step %s: %w", ErrInitFailed, step.Name, err)
		}
		i.logger.Info("initialization step done", "step", step.Name, "duration", time.Since(start))
	}
	return nil
}

// Reset returns a failed Initializer to Uninitialized so the next call starts
// a new attempt. It does nothing in any other state.
func (i *Initializer) Reset() {
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.state == Failed {
		i.state = Uninitialized
		i.current = nil
	}
}

// Middleware initializes lazily on the first request. Requests that arrive
// while initialization is in flight wait for it.
func (i *Initializer) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := i.EnsureInitialized(r.Context()); err != nil {
			httpx.JSONError(w, r, http.StatusInternalServerError, "INTERNAL_ERROR", apperr.Message(ErrInitFailed), nil)
			return
		}
		next.ServeHTTP(w, r)
	})
}
