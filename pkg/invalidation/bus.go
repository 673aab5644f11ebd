// Package invalidation broadcasts "module config changed" signals to every
// interested session. Delivery is fire-and-forget: no ordering and no
// acknowledgement.
package invalidation

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/iota-uz/ats-console/pkg/eventbus"
)

const EventType = "uxconfig:invalidate"

// Event names the module whose UX config changed. OrganizationID scopes
// delivery; an empty value reaches every organization. UserID is the actor.
type Event struct {
	Module         string `json:"module"`
	OrganizationID string `json:"organization_id,omitempty"`
	UserID         string `json:"user_id,omitempty"`
	Origin         string `json:"origin,omitempty"`
}

// Matches reports whether a session of orgID should react to e.
func (e Event) Matches(orgID string) bool {
	return e.OrganizationID == "" || e.OrganizationID == orgID
}

type Bus interface {
	Publish(ctx context.Context, e Event)
	// Subscribe registers fn and returns a function that removes it.
	Subscribe(fn func(Event)) func()
}

// LocalBus delivers events inside this process.
type LocalBus struct {
	bus    eventbus.EventBus
	origin string
}

func NewLocalBus(log *logrus.Logger) *LocalBus {
	return &LocalBus{
		bus:    eventbus.NewEventPublisher(log),
		origin: uuid.NewString(),
	}
}

// Origin identifies this process in relayed events.
func (b *LocalBus) Origin() string {
	return b.origin
}

func (b *LocalBus) Publish(_ context.Context, e Event) {
	e.Module = strings.TrimSpace(e.Module)
	if e.Module == "" {
		return
	}
	if e.Origin == "" {
		e.Origin = b.origin
	}
	b.bus.Publish(e)
}

func (b *LocalBus) Subscribe(fn func(Event)) func() {
	return b.bus.Subscribe(fn)
}

func (b *LocalBus) SubscribersCount() int {
	return b.bus.SubscribersCount()
}
