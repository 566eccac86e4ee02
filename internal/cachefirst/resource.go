// Package cachefirst implements cache-first access to remote datasets.
//
// A Resource answers reads from the last persisted snapshot immediately and
// refreshes that snapshot from the network in the background. A successful
// refresh replaces the persisted snapshot and the in-memory mirror under one
// lock; a failed refresh leaves both untouched.
package cachefirst

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/rs/zerolog"
	"github.com/volumebot/console/internal/clientdata"
)

// ErrSuperseded is returned by Fetch when a later-started fetch for the same
// key has already been committed. The result was discarded.
var ErrSuperseded = errors.New("superseded by a newer fetch")

// Store is the persisted snapshot store. *clientdata.Repository satisfies it.
type Store interface {
	Get(key string) (*clientdata.Entry, error)
	Store(key string, data interface{}, ttl time.Duration) error
	Delete(key string) error
}

// FetchFunc performs one remote call.
type FetchFunc[T any] func(ctx context.Context) (T, error)

// CancelFunc stops a scheduled task. It is idempotent and returns only after
// the task's goroutine has exited.
type CancelFunc func()

type validator interface {
	Validate() error
}

// Config configures a Resource.
type Config struct {
	// TTL is the max-staleness window written with every snapshot.
	TTL   time.Duration
	Clock clock.Clock
	Log   zerolog.Logger
}

// Resource is one cached dataset bound to a snapshot key.
type Resource[T any] struct {
	key   string
	store Store
	ttl   time.Duration
	clock clock.Clock
	log   zerolog.Logger

	// mu serializes commits so the store and the mirror change together.
	mu        sync.RWMutex
	value     T
	hasValue  bool
	fetchedAt time.Time
	committed uint64

	seq      atomic.Uint64
	inflight sync.WaitGroup
}

// New creates a resource for key. The key must be a known snapshot key.
func New[T any](key string, store Store, cfg Config) (*Resource[T], error) {
	if err := clientdata.ValidateKey(key); err != nil {
		return nil, err
	}
	if store == nil {
		return nil, fmt.Errorf("snapshot store is required")
	}
	if cfg.TTL <= 0 {
		cfg.TTL = clientdata.TTLFor(key, 0)
	}
	if cfg.Clock == nil {
		cfg.Clock = clock.New()
	}

	return &Resource[T]{
		key:   key,
		store: store,
		ttl:   cfg.TTL,
		clock: cfg.Clock,
		log:   cfg.Log.With().Str("component", "cachefirst").Str("key", key).Logger(),
	}, nil
}

// Key returns the snapshot key.
func (r *Resource[T]) Key() string {
	return r.key
}

// LoadCached returns the persisted snapshot. It never fails: a missing
// snapshot is reported as absent, and a snapshot that is expired, cannot be
// decoded, or fails validation is deleted and reported as absent.
func (r *Resource[T]) LoadCached() (T, bool) {
	value, _, ok := r.LoadCachedAt()
	return value, ok
}

// LoadCachedAt is LoadCached that also returns when the snapshot was fetched.
func (r *Resource[T]) LoadCachedAt() (T, time.Time, bool) {
	var zero T

	r.mu.RLock()
	entry, err := r.store.Get(r.key)
	r.mu.RUnlock()

	if err != nil {
		r.log.Warn().Err(err).Msg("Failed to read snapshot, treating as absent")
		return zero, time.Time{}, false
	}
	if entry == nil {
		return zero, time.Time{}, false
	}

	if !entry.ExpiresAt.After(r.clock.Now()) {
		r.log.Info().Time("fetched_at", entry.FetchedAt).Msg("Snapshot exceeded max staleness, discarding")
		r.discard(entry.FetchedAt)
		return zero, time.Time{}, false
	}

	var value T
	if err := json.Unmarshal(entry.Data, &value); err != nil {
		r.log.Warn().Err(err).Msg("Snapshot is malformed, discarding")
		r.discard(entry.FetchedAt)
		return zero, time.Time{}, false
	}
	if v, ok := any(value).(validator); ok {
		if err := v.Validate(); err != nil {
			r.log.Warn().Err(err).Msg("Snapshot failed validation, discarding")
			r.discard(entry.FetchedAt)
			return zero, time.Time{}, false
		}
	}

	r.mu.Lock()
	if !r.hasValue || !r.fetchedAt.After(entry.FetchedAt) {
		r.value = value
		r.hasValue = true
		r.fetchedAt = entry.FetchedAt
	}
	r.mu.Unlock()

	return value, entry.FetchedAt, true
}

// discard deletes the snapshot unless a commit replaced it since it was read.
func (r *Resource[T]) discard(readFetchedAt time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.hasValue && r.fetchedAt.After(readFetchedAt) {
		return
	}
	if err := r.store.Delete(r.key); err != nil {
		r.log.Warn().Err(err).Msg("Failed to delete snapshot")
	}
}

// Forget clears the in-memory mirror and drops every fetch already in
// flight, so nothing started before the call can be committed after it.
func (r *Resource[T]) Forget() {
	r.mu.Lock()
	defer r.mu.Unlock()

	var zero T
	r.value = zero
	r.hasValue = false
	r.fetchedAt = time.Time{}
	r.committed = r.seq.Load() + 1
}

// Current returns the in-memory mirror: the last committed or hydrated value.
func (r *Resource[T]) Current() (T, time.Time, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.value, r.fetchedAt, r.hasValue
}

// Fetch runs fetch and commits its result. Same-key fetches are ordered by
// start: a result is dropped with ErrSuperseded when a later-started fetch
// has already committed. Nothing is committed on error or after ctx ends.
func (r *Resource[T]) Fetch(ctx context.Context, fetch FetchFunc[T]) (T, error) {
	var zero T
	seq := r.seq.Add(1)

	value, err := fetch(ctx)
	if ctxErr := ctx.Err(); ctxErr != nil {
		return zero, ctxErr
	}
	if err != nil {
		if r.isSuperseded(seq) {
			return zero, ErrSuperseded
		}
		return zero, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if seq < r.committed {
		r.log.Debug().Uint64("seq", seq).Uint64("committed", r.committed).Msg("Dropping superseded response")
		return zero, ErrSuperseded
	}

	if err := r.store.Store(r.key, value, r.ttl); err != nil {
		return zero, fmt.Errorf("failed to persist %s: %w", r.key, err)
	}

	r.value = value
	r.hasValue = true
	r.fetchedAt = r.clock.Now()
	r.committed = seq

	return value, nil
}

func (r *Resource[T]) isSuperseded(seq uint64) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return seq < r.committed
}

// Refresh runs Fetch in a new goroutine and returns immediately.
// onSuccess or onError is called from that goroutine, at most once.
// Superseded results and cancelled contexts produce no callback.
func (r *Resource[T]) Refresh(ctx context.Context, fetch FetchFunc[T], onSuccess func(T), onError func(error)) {
	r.inflight.Add(1)
	go func() {
		defer r.inflight.Done()
		r.deliver(ctx, fetch, onSuccess, onError)
	}()
}

func (r *Resource[T]) deliver(ctx context.Context, fetch FetchFunc[T], onSuccess func(T), onError func(error)) {
	value, err := r.Fetch(ctx, fetch)
	switch {
	case err == nil:
		if onSuccess != nil {
			onSuccess(value)
		}
	case errors.Is(err, ErrSuperseded), ctx.Err() != nil:
		return
	default:
		r.log.Debug().Err(err).Msg("Refresh failed, keeping snapshot")
		if onError != nil {
			onError(err)
		}
	}
}

// Wait blocks until every Refresh goroutine started so far has returned.
func (r *Resource[T]) Wait() {
	r.inflight.Wait()
}

// ScheduleAutoRefresh calls refreshFn every interval on one goroutine.
// refreshFn runs synchronously on that goroutine, so a tick that arrives while
// the previous call is still running is dropped rather than queued. The
// context passed to refreshFn is cancelled by the returned CancelFunc.
func (r *Resource[T]) ScheduleAutoRefresh(interval time.Duration, refreshFn func(ctx context.Context)) CancelFunc {
	return Schedule(r.clock, interval, refreshFn)
}

// Schedule is ScheduleAutoRefresh without a resource.
func Schedule(clk clock.Clock, interval time.Duration, fn func(ctx context.Context)) CancelFunc {
	if clk == nil {
		clk = clock.New()
	}
	ctx, cancel := context.WithCancel(context.Background())
	ticker := clk.Ticker(interval)
	exited := make(chan struct{})

	go func() {
		defer close(exited)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if ctx.Err() != nil {
					return
				}
				fn(ctx)
			}
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			cancel()
			<-exited
		})
	}
}
