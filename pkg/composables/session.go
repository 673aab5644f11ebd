package composables

import (
	"context"
	"errors"

	"github.com/iota-uz/ats-console/pkg/backend"
	"github.com/iota-uz/ats-console/pkg/constants"
	"github.com/iota-uz/ats-console/pkg/session"
)

var ErrNoSession = errors.New("session not found")

func WithSession(ctx context.Context, s *session.Session) context.Context {
	return context.WithValue(ctx, constants.SessionKey, s)
}

// UseSession returns the browser session bound by the session middleware.
// A request without identity cookies has none.
func UseSession(ctx context.Context) (*session.Session, error) {
	s, ok := ctx.Value(constants.SessionKey).(*session.Session)
	if !ok || s == nil {
		return nil, ErrNoSession
	}
	return s, nil
}

// UseIdentity resolves /me for the current session. Without a session it
// fails with backend.ErrMissingIdentity, matching the resolver.
func UseIdentity(ctx context.Context) (*backend.Identity, error) {
	if identity, ok := ctx.Value(constants.IdentityKey).(*backend.Identity); ok && identity != nil {
		return identity, nil
	}
	s, err := UseSession(ctx)
	if err != nil {
		return nil, backend.ErrMissingIdentity
	}
	return s.Identity.Get(ctx)
}

// WithIdentity pins an already resolved identity so later lookups in the
// same request skip the resolver.
func WithIdentity(ctx context.Context, identity *backend.Identity) context.Context {
	return context.WithValue(ctx, constants.IdentityKey, identity)
}

// WithUXConfig binds the module config used to render the current page.
func WithUXConfig(ctx context.Context, cfg *backend.UXConfigResponse) context.Context {
	return context.WithValue(ctx, constants.UXConfigKey, cfg)
}

func UseUXConfig(ctx context.Context) (*backend.UXConfigResponse, bool) {
	cfg, ok := ctx.Value(constants.UXConfigKey).(*backend.UXConfigResponse)
	return cfg, ok && cfg != nil
}
