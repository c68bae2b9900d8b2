// Package state caches API resources for a client view. Each slice tracks
// one resource type through a pending, fulfilled or rejected lifecycle and
// refreshes its whole collection after every successful mutation.
//
// Operations block until their network calls finish; callers run them in
// goroutines for concurrency. Nothing is queued or de-duplicated: results
// are applied in completion order, so the last response processed wins.
// Repeated FetchAll calls are therefore safe to issue from several places.
package state

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/duynhne/portfolio-service/client/gateway"
)

// Status is the lifecycle state of a Resource.
type Status string

const (
	StatusIdle      Status = "idle"
	StatusLoading   Status = "loading"
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
)

// Resource is a cached value with its request state. Data keeps its last
// good value when Status is failed.
type Resource[T any] struct {
	Data        T
	Status      Status
	Error       *gateway.Error
	LastUpdated time.Time
}

func (r *Resource[T]) pending() {
	r.Status = StatusLoading
	r.Error = nil
}

func (r *Resource[T]) fulfilled(data T, at time.Time) {
	r.Data = data
	r.Status = StatusSucceeded
	r.LastUpdated = at
}

func (r *Resource[T]) rejected(err error) {
	r.Status = StatusFailed
	r.Error = gateway.AsError(err)
}

// notifier fans state changes out to subscribers.
type notifier[S any] struct {
	mu   sync.Mutex
	next int
	subs map[int]func(S)
}

func (n *notifier[S]) subscribe(fn func(S)) func() {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.subs == nil {
		n.subs = make(map[int]func(S))
	}
	id := n.next
	n.next++
	n.subs[id] = fn
	return func() {
		n.mu.Lock()
		delete(n.subs, id)
		n.mu.Unlock()
	}
}

func (n *notifier[S]) publish(s S) {
	n.mu.Lock()
	subs := make([]func(S), 0, len(n.subs))
	for _, fn := range n.subs {
		subs = append(subs, fn)
	}
	n.mu.Unlock()
	for _, fn := range subs {
		fn(s)
	}
}

// Uploader stores a binary asset and returns its URL.
type Uploader func(ctx context.Context, f gateway.File) (string, error)

// Backend is the set of API calls a Collection drives.
type Backend[T any] interface {
	List(ctx context.Context, p gateway.ListParams) ([]T, error)
	Get(ctx context.Context, id string) (*T, error)
	Create(ctx context.Context, v T) error
	Update(ctx context.Context, id string, v T) error
	Delete(ctx context.Context, id string) error
}

// Snapshot is a copy of a Collection's state.
type Snapshot[T any] struct {
	Items   Resource[[]T]
	Current Resource[*T]
}

// Collection caches a list of T plus a separate current-item slot.
type Collection[T any] struct {
	name    string
	backend Backend[T]
	upload  Uploader
	// setAsset writes the uploaded URL into the entity.
	setAsset func(v *T, url string)
	log      zerolog.Logger
	now      func() time.Time

	mu      sync.Mutex
	items   Resource[[]T]
	current Resource[*T]
	// params is the filter of the last FetchAll, reused by refetches.
	params gateway.ListParams

	notifier[Snapshot[T]]
}

// CollectionOption configures a Collection.
type CollectionOption[T any] func(*Collection[T])

// WithAsset enables the asset argument of Create and Update.
func WithAsset[T any](upload Uploader, set func(v *T, url string)) CollectionOption[T] {
	return func(c *Collection[T]) {
		c.upload = upload
		c.setAsset = set
	}
}

func WithLogger[T any](l zerolog.Logger) CollectionOption[T] {
	return func(c *Collection[T]) { c.log = l }
}

func NewCollection[T any](name string, backend Backend[T], opts ...CollectionOption[T]) *Collection[T] {
	c := &Collection[T]{
		name:    name,
		backend: backend,
		log:     zerolog.Nop(),
		now:     time.Now,
		items:   Resource[[]T]{Status: StatusIdle},
		current: Resource[*T]{Status: StatusIdle},
	}
	for _, opt := range opts {
		opt(c)
	}
	c.log = c.log.With().Str("slice", name).Logger()
	return c
}

func (c *Collection[T]) Snapshot() Snapshot[T] {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

func (c *Collection[T]) snapshotLocked() Snapshot[T] {
	s := Snapshot[T]{Items: c.items, Current: c.current}
	s.Items.Data = append([]T(nil), c.items.Data...)
	if c.current.Data != nil {
		cp := *c.current.Data
		s.Current.Data = &cp
	}
	return s
}

// Subscribe registers fn for every state change.
func (c *Collection[T]) Subscribe(fn func(Snapshot[T])) (unsubscribe func()) {
	return c.subscribe(fn)
}

func (c *Collection[T]) apply(fn func()) {
	c.mu.Lock()
	fn()
	snap := c.snapshotLocked()
	c.mu.Unlock()
	c.publish(snap)
}

// FetchAll replaces the cached list with the server's.
func (c *Collection[T]) FetchAll(ctx context.Context, p gateway.ListParams) error {
	c.apply(func() {
		c.params = p
		c.items.pending()
	})
	return c.fetchAll(ctx, p)
}

func (c *Collection[T]) refetch(ctx context.Context) error {
	c.mu.Lock()
	p := c.params
	c.mu.Unlock()
	return c.fetchAll(ctx, p)
}

func (c *Collection[T]) fetchAll(ctx context.Context, p gateway.ListParams) error {
	items, err := c.backend.List(ctx, p)
	if err != nil {
		c.log.Debug().Err(err).Msg("Fetch failed")
		c.apply(func() { c.items.rejected(err) })
		return gateway.AsError(err)
	}
	c.apply(func() { c.items.fulfilled(items, c.now()) })
	return nil
}

// FetchOne loads id into the current-item slot.
func (c *Collection[T]) FetchOne(ctx context.Context, id string) error {
	c.apply(c.current.pending)
	v, err := c.backend.Get(ctx, id)
	if err != nil {
		c.apply(func() { c.current.rejected(err) })
		return gateway.AsError(err)
	}
	c.apply(func() { c.current.fulfilled(v, c.now()) })
	return nil
}

// Create writes v and refreshes the list. A non-nil asset is uploaded first
// and the write is skipped when the upload fails.
func (c *Collection[T]) Create(ctx context.Context, v T, asset *gateway.File) error {
	return c.mutate(ctx, func() error {
		if err := c.attach(ctx, &v, asset); err != nil {
			return err
		}
		return c.backend.Create(ctx, v)
	})
}

// Update writes v under id and refreshes the list. Asset handling is as in Create.
func (c *Collection[T]) Update(ctx context.Context, id string, v T, asset *gateway.File) error {
	return c.mutate(ctx, func() error {
		if err := c.attach(ctx, &v, asset); err != nil {
			return err
		}
		return c.backend.Update(ctx, id, v)
	})
}

// Delete removes id on the server, then refreshes the list.
func (c *Collection[T]) Delete(ctx context.Context, id string) error {
	return c.mutate(ctx, func() error {
		return c.backend.Delete(ctx, id)
	})
}

func (c *Collection[T]) attach(ctx context.Context, v *T, asset *gateway.File) error {
	if asset == nil || c.upload == nil {
		return nil
	}
	url, err := c.upload(ctx, *asset)
	if err != nil {
		return err
	}
	if url != "" {
		c.setAsset(v, url)
	}
	return nil
}

func (c *Collection[T]) mutate(ctx context.Context, write func() error) error {
	c.apply(c.items.pending)
	if err := write(); err != nil {
		c.log.Debug().Err(err).Msg("Mutation failed")
		c.apply(func() { c.items.rejected(err) })
		return gateway.AsError(err)
	}
	// The write is committed; a failed refetch only leaves the list stale.
	if err := c.refetch(ctx); err != nil {
		c.log.Debug().Err(err).Msg("Refetch after mutation failed")
	}
	return nil
}

// ClearCurrent empties the current-item slot.
func (c *Collection[T]) ClearCurrent() {
	c.apply(func() { c.current = Resource[*T]{Status: StatusIdle} })
}

// Reset returns the slice to its initial state.
func (c *Collection[T]) Reset() {
	c.apply(func() {
		c.items = Resource[[]T]{Status: StatusIdle}
		c.current = Resource[*T]{Status: StatusIdle}
		c.params = gateway.ListParams{}
	})
}
