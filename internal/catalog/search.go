package catalog

import (
	"context"
	"sync"
	"time"
)

// Debouncer gates live search-as-you-type: only the latest scheduled call
// fires once the quiet window elapses, superseded calls are dropped.
type Debouncer struct {
	mu     sync.Mutex
	window time.Duration
	timer  *time.Timer
}

// NewDebouncer builds a debouncer with the given quiet window.
func NewDebouncer(window time.Duration) *Debouncer {
	if window <= 0 {
		window = 300 * time.Millisecond
	}
	return &Debouncer{window: window}
}

// Do schedules fn after the quiet window, canceling any pending call.
func (d *Debouncer) Do(fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.window, fn)
}

// Stop cancels the pending call, if any.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}

// Searcher couples the catalog service with a debouncer for one typing
// session. Results are delivered asynchronously to the provided callback.
type Searcher struct {
	service  Service
	debounce *Debouncer
}

// NewSearcher builds a per-session search gate.
func NewSearcher(service Service, window time.Duration) *Searcher {
	return &Searcher{
		service:  service,
		debounce: NewDebouncer(window),
	}
}

// Search schedules a debounced catalog query. Earlier keystrokes that have
// not fired yet are superseded; each fired query is its own round trip.
func (s *Searcher) Search(ctx context.Context, query string, deliver func([]Product, error)) {
	s.debounce.Do(func() {
		if ctx.Err() != nil {
			return
		}
		deliver(s.service.SearchProducts(ctx, query))
	})
}

// Close cancels any pending query.
func (s *Searcher) Close() {
	s.debounce.Stop()
}
