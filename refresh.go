package arxivfeed

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// Fetcher is implemented by *Client.
type Fetcher interface {
	Fetch(ctx context.Context, req Request) ([]Paper, *Diagnostics, error)
}

var _ Fetcher = (*Client)(nil)

// Refresher re-runs one fetch on a fixed interval and hands every result to
// a callback. Runs never overlap; a tick that arrives while a fetch is still
// running is skipped.
type Refresher struct {
	fetcher  Fetcher
	req      Request
	interval time.Duration
	handle   func(Result)
	logger   *slog.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

var errAlreadyStarted = errors.New("refresher already started")

// RefresherOption configures a Refresher.
type RefresherOption func(*Refresher)

// WithRefreshLogger sets the logger for refresh events.
func WithRefreshLogger(l *slog.Logger) RefresherOption {
	return func(r *Refresher) {
		if l != nil {
			r.logger = l
		}
	}
}

// NewRefresher creates a refresher. handle is called from the refresher's
// goroutine after each completed fetch, successful or not.
func NewRefresher(f Fetcher, req Request, interval time.Duration, handle func(Result), opts ...RefresherOption) *Refresher {
	r := &Refresher{
		fetcher:  f,
		req:      req,
		interval: interval,
		handle:   handle,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Start fetches immediately and then once per interval until ctx is
// cancelled or Stop is called. A Refresher can be started once.
func (r *Refresher) Start(ctx context.Context) error {
	if r.interval <= 0 {
		return fmt.Errorf("refresh interval must be positive, got %v", r.interval)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.done != nil {
		return errAlreadyStarted
	}

	ctx, r.cancel = context.WithCancel(ctx)
	r.done = make(chan struct{})
	go r.run(ctx, r.done)
	return nil
}

// Stop cancels any in-flight fetch and waits for the loop to exit.
func (r *Refresher) Stop() {
	r.mu.Lock()
	cancel, done := r.cancel, r.done
	r.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

// Done is closed when the loop exits. It is nil before Start.
func (r *Refresher) Done() <-chan struct{} {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.done
}

func (r *Refresher) run(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.logger.Info("refresh started", "category", string(r.req.Category), "interval", r.interval)
	r.refresh(ctx)

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("refresh stopped", "category", string(r.req.Category))
			return
		case <-ticker.C:
			r.refresh(ctx)
		}
	}
}

func (r *Refresher) refresh(ctx context.Context) {
	papers, diag, err := r.fetcher.Fetch(ctx, r.req)
	if ctx.Err() != nil {
		// Cancelled mid-fetch: nothing partial is delivered.
		return
	}
	if err != nil {
		r.logger.Warn("refresh failed", "category", string(r.req.Category), "error", err)
	}
	if r.handle != nil {
		r.handle(Result{
			Request:     r.req,
			Papers:      papers,
			Diagnostics: diag,
			Err:         err,
		})
	}
}
