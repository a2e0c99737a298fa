// Package viewsync keeps a local copy of the request list in step with the server by
// polling, and applies dispatcher decisions optimistically.
package viewsync

import (
	"context"
	"errors"
	"sync"
	"time"

	"transportdesk/internal/domain/models"

	"go.uber.org/zap"
)

// DefaultInterval is the background refresh cadence.
const DefaultInterval = 10 * time.Second

var ErrClosed = errors.New("view is closed")

// Source fetches the full request list.
type Source interface {
	List(ctx context.Context) ([]models.TransportRequest, error)
}

// Mutator sends dispatcher commands.
type Mutator interface {
	Transition(ctx context.Context, id int64, status models.Status) (models.TransportRequest, error)
	Delete(ctx context.Context, id int64) error
}

// State is a snapshot of what a view currently shows.
type State struct {
	Requests []models.TransportRequest
	Loading  bool
	// Err is the last refresh failure; cleared by the next successful refresh.
	Err      error
	LastSync time.Time
}

type Options struct {
	Interval time.Duration
	OnChange func(State)
	Log      *zap.Logger
	Now      func() time.Time
}

type View struct {
	source   Source
	mutator  Mutator
	interval time.Duration
	onChange func(State)
	log      *zap.Logger
	now      func() time.Time

	mu       sync.Mutex
	requests []models.TransportRequest
	loading  bool
	err      error
	lastSync time.Time
	// generation changes whenever a fetch replaces the cache wholesale.
	generation uint64
	cancel     context.CancelFunc
	done       chan struct{}
	closed     bool

	// notifyMu serializes OnChange calls so snapshots arrive in order.
	notifyMu sync.Mutex
}

// New builds a view; mutator may be nil for read-only views.
func New(source Source, mutator Mutator, opts Options) *View {
	if opts.Interval <= 0 {
		opts.Interval = DefaultInterval
	}
	if opts.Log == nil {
		opts.Log = zap.NewNop()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &View{
		source:   source,
		mutator:  mutator,
		interval: opts.Interval,
		onChange: opts.OnChange,
		log:      opts.Log,
		now:      opts.Now,
	}
}

// Mount performs the initial load with the loading indicator on, then starts background
// refresh. A failed initial load is reported in State.Err and returned; polling still starts.
func (v *View) Mount(ctx context.Context) error {
	v.mu.Lock()
	if v.closed {
		v.mu.Unlock()
		return ErrClosed
	}
	if v.done != nil {
		v.mu.Unlock()
		return nil
	}
	loopCtx, cancel := context.WithCancel(context.Background())
	v.cancel = cancel
	v.done = make(chan struct{})
	v.mu.Unlock()

	err := v.fetch(ctx, true)
	go v.loop(loopCtx)
	return err
}

// Refresh re-fetches now with the loading indicator on. The polling timer is not reset.
func (v *View) Refresh(ctx context.Context) error {
	if v.isClosed() {
		return ErrClosed
	}
	return v.fetch(ctx, true)
}

// Snapshot returns a copy of the current state.
func (v *View) Snapshot() State {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.stateLocked()
}

// Close stops background refresh and waits for an in-flight fetch to finish.
func (v *View) Close() {
	v.mu.Lock()
	if v.closed {
		v.mu.Unlock()
		return
	}
	v.closed = true
	cancel, done := v.cancel, v.done
	v.mu.Unlock()

	if cancel != nil {
		cancel()
		<-done
	}
}

func (v *View) loop(ctx context.Context) {
	defer close(v.done)

	ticker := time.NewTicker(v.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := v.fetch(ctx, false); err != nil && ctx.Err() == nil {
				v.log.Warn("background refresh failed", zap.Error(err))
			}
		}
	}
}

func (v *View) fetch(ctx context.Context, showLoading bool) error {
	if showLoading {
		v.mu.Lock()
		v.loading = true
		v.mu.Unlock()
		v.notify()
	}

	list, err := v.source.List(ctx)

	v.mu.Lock()
	if showLoading {
		v.loading = false
	}
	switch {
	case err != nil && ctx.Err() != nil && v.closed:
		// Cancelled by Close; leave the cache as it was.
	case err != nil:
		v.err = err
	default:
		v.requests = cloneRequests(list)
		v.err = nil
		v.lastSync = v.now()
		v.generation++
	}
	v.mu.Unlock()
	v.notify()
	return err
}

// Transition applies status to the cached record immediately, then sends the command. On
// failure the cached record is restored unless a refresh replaced the cache meanwhile.
func (v *View) Transition(ctx context.Context, id int64, status models.Status) (models.TransportRequest, error) {
	if v.mutator == nil {
		return models.TransportRequest{}, errors.New("view is read-only")
	}

	v.mu.Lock()
	gen := v.generation
	idx := indexOf(v.requests, id)
	var before models.TransportRequest
	if idx >= 0 {
		before = v.requests[idx]
		v.requests[idx].Status = status
	}
	v.mu.Unlock()
	if idx >= 0 {
		v.notify()
	}

	updated, err := v.mutator.Transition(ctx, id, status)

	v.mu.Lock()
	if v.generation == gen {
		if i := indexOf(v.requests, id); i >= 0 {
			if err != nil {
				v.requests[i] = before
			} else {
				v.requests[i] = updated
			}
		}
	}
	v.mu.Unlock()
	v.notify()

	return updated, err
}

// Delete removes the cached record immediately, then sends the command. On failure the
// record is put back at its old position unless a refresh replaced the cache meanwhile.
func (v *View) Delete(ctx context.Context, id int64) error {
	if v.mutator == nil {
		return errors.New("view is read-only")
	}

	v.mu.Lock()
	gen := v.generation
	idx := indexOf(v.requests, id)
	var removed models.TransportRequest
	if idx >= 0 {
		removed = v.requests[idx]
		v.requests = append(v.requests[:idx:idx], v.requests[idx+1:]...)
	}
	v.mu.Unlock()
	if idx >= 0 {
		v.notify()
	}

	err := v.mutator.Delete(ctx, id)
	if err == nil || idx < 0 {
		return err
	}

	v.mu.Lock()
	if v.generation == gen && indexOf(v.requests, id) < 0 {
		at := min(idx, len(v.requests))
		restored := make([]models.TransportRequest, 0, len(v.requests)+1)
		restored = append(restored, v.requests[:at]...)
		restored = append(restored, removed)
		v.requests = append(restored, v.requests[at:]...)
	}
	v.mu.Unlock()
	v.notify()
	return err
}

func (v *View) isClosed() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.closed
}

func (v *View) stateLocked() State {
	return State{
		Requests: cloneRequests(v.requests),
		Loading:  v.loading,
		Err:      v.err,
		LastSync: v.lastSync,
	}
}

func (v *View) notify() {
	if v.onChange == nil {
		return
	}
	v.notifyMu.Lock()
	defer v.notifyMu.Unlock()
	v.onChange(v.Snapshot())
}

func indexOf(list []models.TransportRequest, id int64) int {
	for i, r := range list {
		if r.ID == id {
			return i
		}
	}
	return -1
}

func cloneRequests(in []models.TransportRequest) []models.TransportRequest {
	out := make([]models.TransportRequest, len(in))
	copy(out, in)
	return out
}
