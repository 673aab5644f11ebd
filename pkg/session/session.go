// Package session owns the per-browser-session state of the console: one
// identity resolver and one UX config cache per (organization, user) pair.
package session

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jellydator/ttlcache/v3"
	"github.com/sirupsen/logrus"

	"github.com/iota-uz/ats-console/pkg/backend"
	"github.com/iota-uz/ats-console/pkg/identity"
	"github.com/iota-uz/ats-console/pkg/invalidation"
	"github.com/iota-uz/ats-console/pkg/lifecycle"
	"github.com/iota-uz/ats-console/pkg/uxconfig"
)

const DefaultIdleTTL = 12 * time.Hour

type Key struct {
	OrgID  string
	UserID string
}

func (k Key) String() string {
	return k.OrgID + "::" + k.UserID
}

// Session is the state shared by every request carrying the same identity
// pair. All fields are safe for concurrent use.
type Session struct {
	Key      Key
	Backend  *backend.Client
	Identity *identity.Resolver
	UX       *uxconfig.Cache
	Trends   *lifecycle.TrendTracker

	closeOnce   sync.Once
	unsubscribe func()
}

// Locale is the effective language from /me, or English while the
// identity is not resolved.
func (s *Session) Locale() backend.Locale {
	if id, ok := s.Identity.Peek(); ok && id.EffectiveLanguage.Valid() {
		return id.EffectiveLanguage
	}
	return backend.LocaleEN
}

func (s *Session) close() {
	s.closeOnce.Do(func() {
		if s.unsubscribe != nil {
			s.unsubscribe()
		}
		s.UX.Clear()
		s.Identity.Clear()
	})
}

type Options struct {
	// Backend is the unbound client; sessions derive identity-bound copies.
	Backend *backend.Client
	Bus     invalidation.Bus
	IdleTTL time.Duration
	UXTTL   time.Duration
	Logger  *logrus.Logger
}

// Manager creates sessions lazily and tears them down after IdleTTL
// without use.
type Manager struct {
	opts    Options
	log     *logrus.Entry
	mu      sync.Mutex
	cache   *ttlcache.Cache[Key, *Session]
	running atomic.Bool
}

func NewManager(opts Options) *Manager {
	if opts.IdleTTL <= 0 {
		opts.IdleTTL = DefaultIdleTTL
	}
	if opts.Logger == nil {
		opts.Logger = logrus.StandardLogger()
	}
	m := &Manager{
		opts: opts,
		log:  opts.Logger.WithField("component", "session"),
		cache: ttlcache.New(
			ttlcache.WithTTL[Key, *Session](opts.IdleTTL),
		),
	}
	m.cache.OnEviction(func(_ context.Context, reason ttlcache.EvictionReason, item *ttlcache.Item[Key, *Session]) {
		m.log.WithFields(logrus.Fields{
			"session": item.Key().String(),
			"reason":  reason,
		}).Debug("session closed")
		item.Value().close()
	})
	return m
}

// Start runs the expiry loop until Stop.
func (m *Manager) Start() {
	if m.running.CompareAndSwap(false, true) {
		go m.cache.Start()
	}
}

// Stop ends the expiry loop and closes every session.
func (m *Manager) Stop() {
	if m.running.CompareAndSwap(true, false) {
		m.cache.Stop()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	items := m.cache.Items()
	m.cache.DeleteAll()
	for _, item := range items {
		item.Value().close()
	}
}

// Acquire returns the session for the pair, creating it on first use.
// Every call extends the idle deadline.
func (m *Manager) Acquire(orgID, userID string) (*Session, error) {
	key := Key{OrgID: strings.TrimSpace(orgID), UserID: strings.TrimSpace(userID)}
	if key.OrgID == "" || key.UserID == "" {
		return nil, backend.ErrMissingIdentity
	}
	if m.opts.Backend == nil {
		return nil, backend.ErrMissingBaseURL
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if item := m.cache.Get(key); item != nil {
		return item.Value(), nil
	}
	// An expired session may still be stored until the next sweep; evict it
	// so it is closed instead of silently replaced.
	m.cache.DeleteExpired()
	s := m.newSession(key)
	m.cache.Set(key, s, ttlcache.DefaultTTL)
	return s, nil
}

// Peek returns an existing session without extending it.
func (m *Manager) Peek(orgID, userID string) (*Session, bool) {
	key := Key{OrgID: strings.TrimSpace(orgID), UserID: strings.TrimSpace(userID)}
	item := m.cache.Get(key, ttlcache.WithDisableTouchOnHit[Key, *Session]())
	if item == nil {
		return nil, false
	}
	return item.Value(), true
}

// Drop closes the session for the pair, if any.
func (m *Manager) Drop(orgID, userID string) {
	key := Key{OrgID: strings.TrimSpace(orgID), UserID: strings.TrimSpace(userID)}
	m.mu.Lock()
	defer m.mu.Unlock()
	item := m.cache.Get(key, ttlcache.WithDisableTouchOnHit[Key, *Session]())
	m.cache.Delete(key)
	if item != nil {
		item.Value().close()
	}
}

func (m *Manager) Len() int {
	return m.cache.Len()
}

func (m *Manager) newSession(key Key) *Session {
	client := m.opts.Backend.WithIdentity(key.OrgID, key.UserID)
	log := m.log.WithField("session", key.String())
	s := &Session{
		Key:      key,
		Backend:  client,
		Identity: identity.NewResolver(client),
		UX:       uxconfig.New(client, uxconfig.WithTTL(m.opts.UXTTL), uxconfig.WithLogger(log)),
		Trends:   lifecycle.NewTrendTracker(),
	}
	if m.opts.Bus != nil {
		s.unsubscribe = m.opts.Bus.Subscribe(func(e invalidation.Event) {
			if !e.Matches(key.OrgID) {
				return
			}
			if err := s.UX.InvalidateModule(e.Module); err != nil {
				log.WithError(err).Warn("invalidate module")
			}
		})
	}
	return s
}
