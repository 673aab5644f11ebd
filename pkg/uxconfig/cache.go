// Package uxconfig keeps per-(organization, user, module) UX configuration
// in memory with a TTL, collapsing concurrent fetches of the same key into
// one backend request.
package uxconfig

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"

	"github.com/iota-uz/ats-console/pkg/backend"
	"github.com/iota-uz/ats-console/pkg/serrors"
)

const DefaultTTL = 300_000 * time.Millisecond

var (
	ErrModuleRequired  = serrors.NewError("UXCONFIG_MODULE_REQUIRED", "module is required", "Errors.ModuleRequired")
	ErrMissingIdentity = backend.ErrMissingIdentity
	ErrMissingBaseURL  = backend.ErrMissingBaseURL
)

// Source fetches a module config for the identity it is bound to.
// *backend.Client satisfies it.
type Source interface {
	Identity() (orgID, userID string)
	UXConfig(ctx context.Context, module string) (*backend.UXConfigResponse, error)
}

type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

type Key struct {
	OrgID  string
	UserID string
	Module string
}

func (k Key) String() string {
	return k.OrgID + "::" + k.UserID + "::" + k.Module
}

type Options struct {
	ForceRefresh bool
	// TTL overrides the cache default when positive.
	TTL time.Duration
}

type CachedResult struct {
	Data      *backend.UXConfigResponse
	Fresh     bool
	ExpiresAt time.Time
}

type entry struct {
	value     *backend.UXConfigResponse
	expiresAt time.Time
}

type Cache struct {
	source Source
	ttl    time.Duration
	clock  Clock
	log    *logrus.Entry

	mu      sync.Mutex
	entries map[Key]*entry
	// gens is bumped per key by Invalidate and epoch by Clear; a fetch that
	// started under an older generation does not write its result.
	gens     map[Key]uint64
	epoch    uint64
	inflight map[Key]int
	group    singleflight.Group
}

type Option func(*Cache)

func WithTTL(ttl time.Duration) Option {
	return func(c *Cache) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

func WithClock(clock Clock) Option {
	return func(c *Cache) {
		if clock != nil {
			c.clock = clock
		}
	}
}

func WithLogger(log *logrus.Entry) Option {
	return func(c *Cache) {
		if log != nil {
			c.log = log
		}
	}
}

// New creates a cache over source. A nil source is allowed; Get then fails
// with ErrMissingBaseURL while Cached keeps working.
func New(source Source, opts ...Option) *Cache {
	c := &Cache{
		source:   source,
		ttl:      DefaultTTL,
		clock:    systemClock{},
		log:      logrus.NewEntry(logrus.StandardLogger()),
		entries:  map[Key]*entry{},
		gens:     map[Key]uint64{},
		inflight: map[Key]int{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func normalizeModule(module string) (string, error) {
	trimmed := strings.TrimSpace(module)
	if trimmed == "" {
		return "", ErrModuleRequired
	}
	return trimmed, nil
}

// Cached reads an entry without ever touching the network. A miss returns
// a zero CachedResult. Data is returned even when stale.
func (c *Cache) Cached(orgID, userID, module string) (CachedResult, error) {
	mod, err := normalizeModule(module)
	if err != nil {
		return CachedResult{}, err
	}
	key := Key{OrgID: orgID, UserID: userID, Module: mod}

	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok || e.value == nil {
		return CachedResult{}, nil
	}
	return CachedResult{
		Data:      clone(e.value),
		Fresh:     c.clock.Now().Before(e.expiresAt),
		ExpiresAt: e.expiresAt,
	}, nil
}

// Get returns the module config for the source's identity. A fresh entry
// is served without a fetch and an in-flight fetch for the same key is
// joined, unless opts.ForceRefresh is set. Failed fetches leave any
// previous value in place.
//
// The fetch itself is detached from ctx: a caller that gives up gets
// ctx.Err() while the result still lands in the cache.
func (c *Cache) Get(ctx context.Context, module string, opts Options) (*backend.UXConfigResponse, error) {
	mod, err := normalizeModule(module)
	if err != nil {
		return nil, err
	}
	if c.source == nil {
		return nil, ErrMissingBaseURL
	}
	orgID, userID := c.source.Identity()
	if strings.TrimSpace(orgID) == "" || strings.TrimSpace(userID) == "" {
		return nil, ErrMissingIdentity
	}
	key := Key{OrgID: orgID, UserID: userID, Module: mod}
	ttl := c.ttl
	if opts.TTL > 0 {
		ttl = opts.TTL
	}

	if opts.ForceRefresh {
		c.group.Forget(key.String())
	} else if v, ok := c.fresh(key); ok {
		lookups.WithLabelValues("hit").Inc()
		return v, nil
	}
	lookups.WithLabelValues("miss").Inc()

	fetchCtx := context.WithoutCancel(ctx)
	ch := c.group.DoChan(key.String(), func() (any, error) {
		return c.fetch(fetchCtx, key, ttl)
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return clone(res.Val.(*backend.UXConfigResponse)), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (c *Cache) fresh(key Key) (*backend.UXConfigResponse, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok || e.value == nil || !c.clock.Now().Before(e.expiresAt) {
		return nil, false
	}
	return clone(e.value), true
}

type generation struct {
	epoch uint64
	key   uint64
}

func (c *Cache) generationLocked(key Key) generation {
	return generation{epoch: c.epoch, key: c.gens[key]}
}

func (c *Cache) fetch(ctx context.Context, key Key, ttl time.Duration) (*backend.UXConfigResponse, error) {
	c.mu.Lock()
	gen := c.generationLocked(key)
	c.inflight[key]++
	c.mu.Unlock()

	resp, err := c.source.UXConfig(ctx, key.Module)

	c.mu.Lock()
	if c.inflight[key] <= 1 {
		delete(c.inflight, key)
	} else {
		c.inflight[key]--
	}
	c.mu.Unlock()
	if err != nil {
		fetches.WithLabelValues("error").Inc()
		c.log.WithError(err).WithField("module", key.Module).Warn("uxconfig: fetch failed, keeping previous value")
		return nil, err
	}
	fetches.WithLabelValues("ok").Inc()

	normalized := resp.Normalized(key.Module)
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.generationLocked(key) == gen {
		c.entries[key] = &entry{value: &normalized, expiresAt: c.clock.Now().Add(ttl)}
	}
	return &normalized, nil
}

// Invalidate deletes the entry so the next Get fetches again. A fetch
// already in flight for the key is not stored.
func (c *Cache) Invalidate(orgID, userID, module string) error {
	mod, err := normalizeModule(module)
	if err != nil {
		return err
	}
	key := Key{OrgID: orgID, UserID: userID, Module: mod}

	c.mu.Lock()
	delete(c.entries, key)
	c.gens[key]++
	c.mu.Unlock()
	c.group.Forget(key.String())
	invalidations.Inc()
	return nil
}

// InvalidateModule drops the module for every identity held by the cache.
func (c *Cache) InvalidateModule(module string) error {
	mod, err := normalizeModule(module)
	if err != nil {
		return err
	}
	for _, key := range c.keys() {
		if key.Module != mod {
			continue
		}
		if err := c.Invalidate(key.OrgID, key.UserID, key.Module); err != nil {
			return err
		}
	}
	return nil
}

// Clear drops every entry and detaches fetches still in flight.
func (c *Cache) Clear() {
	keys := c.keys()
	c.mu.Lock()
	c.entries = map[Key]*entry{}
	c.gens = map[Key]uint64{}
	c.epoch++
	c.mu.Unlock()
	for _, key := range keys {
		c.group.Forget(key.String())
	}
}

// keys lists stored and in-flight keys.
func (c *Cache) keys() []Key {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Key, 0, len(c.entries)+len(c.inflight))
	for key := range c.entries {
		out = append(out, key)
	}
	for key := range c.inflight {
		if _, ok := c.entries[key]; !ok {
			out = append(out, key)
		}
	}
	return out
}

func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func clone(v *backend.UXConfigResponse) *backend.UXConfigResponse {
	if v == nil {
		return nil
	}
	out := v.Normalized(v.Module)
	return &out
}
