// Package identity memoizes the /me snapshot of one browser session.
package identity

import (
	"context"
	"strconv"
	"strings"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/iota-uz/ats-console/pkg/backend"
)

var (
	ErrMissingIdentity = backend.ErrMissingIdentity
	ErrMissingBaseURL  = backend.ErrMissingBaseURL
)

// Source is the /me endpoint bound to one identity pair.
// *backend.Client satisfies it.
type Source interface {
	Identity() (orgID, userID string)
	Me(ctx context.Context) (*backend.Identity, error)
}

// Resolver holds at most one identity. The returned *backend.Identity is
// shared between callers and must be treated as read-only.
type Resolver struct {
	source Source

	mu    sync.Mutex
	value *backend.Identity
	// gen changes on every Clear; fetches started under an older gen are
	// neither joined nor stored.
	gen   uint64
	group singleflight.Group
}

func NewResolver(source Source) *Resolver {
	return &Resolver{source: source}
}

// Get returns the memoized identity, joins a fetch already in flight, or
// fetches /me. Validation failures leave the slot empty so the next call
// retries. The fetch is not cancelled with ctx.
func (r *Resolver) Get(ctx context.Context) (*backend.Identity, error) {
	r.mu.Lock()
	if r.value != nil {
		v := r.value
		r.mu.Unlock()
		return v, nil
	}
	gen := r.gen
	r.mu.Unlock()

	if r.source == nil {
		return nil, ErrMissingBaseURL
	}
	orgID, userID := r.source.Identity()
	if strings.TrimSpace(orgID) == "" || strings.TrimSpace(userID) == "" {
		return nil, ErrMissingIdentity
	}

	fetchCtx := context.WithoutCancel(ctx)
	ch := r.group.DoChan(strconv.FormatUint(gen, 10), func() (any, error) {
		id, err := r.source.Me(fetchCtx)
		if err != nil {
			return nil, err
		}
		r.mu.Lock()
		if r.gen == gen {
			r.value = id
		}
		r.mu.Unlock()
		return id, nil
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*backend.Identity), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Peek returns the memoized identity without fetching.
func (r *Resolver) Peek() (*backend.Identity, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.value, r.value != nil
}

// Clear forgets the memoized identity and any fetch in flight.
func (r *Resolver) Clear() {
	r.mu.Lock()
	prev := r.gen
	r.value = nil
	r.gen++
	r.mu.Unlock()
	r.group.Forget(strconv.FormatUint(prev, 10))
}
