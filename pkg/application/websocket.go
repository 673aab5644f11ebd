package application

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/iota-uz/ats-console/pkg/composables"
	"github.com/iota-uz/ats-console/pkg/constants"
	"github.com/iota-uz/ats-console/pkg/invalidation"
	"github.com/iota-uz/ats-console/pkg/ws"
)

var ErrNoModules = errors.New("ws: at least one module query parameter is required")

type HuberOptions struct {
	Logger      *logrus.Logger
	Bus         invalidation.Bus
	CheckOrigin func(r *http.Request) bool
}

type Connection interface {
	ws.Connectioner
	Meta() MetaInfo
}

type WsCallback func(ctx context.Context, conn Connection) error

// Huber relays UX config invalidations to browser tabs. A tab connects to
// /ws?module=<m>[&module=<n>] and receives {"type":"uxconfig:invalidate","module":m}.
type Huber interface {
	http.Handler
	ForEach(channel string, f WsCallback) error
	ConnectionsCount() int
	Close()
}

type MetaInfo struct {
	OrgID   string
	UserID  string
	Modules []string
}

type InvalidateMessage struct {
	Type   string `json:"type"`
	Module string `json:"module"`
}

// OrgChannel receives invalidations scoped to one organization.
func OrgChannel(orgID, module string) string {
	return "ux/" + orgID + "/" + module
}

// ModuleChannel receives invalidations that carry no organization.
func ModuleChannel(module string) string {
	return "ux/" + module
}

func NewHub(opts *HuberOptions) Huber {
	logger := opts.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	appHub := &huber{
		logger:          logger,
		connectionsMeta: make(map[*ws.Connection]*MetaInfo),
	}
	appHub.hub = ws.NewHub(&ws.HubOptions{
		Logger:       logger,
		CheckOrigin:  opts.CheckOrigin,
		OnConnect:    appHub.onConnect,
		OnDisconnect: appHub.onDisconnect,
	})
	if opts.Bus != nil {
		appHub.unsubscribe = opts.Bus.Subscribe(appHub.onInvalidate)
	}
	return appHub
}

type huber struct {
	hub         ws.Huber
	logger      *logrus.Logger
	unsubscribe func()

	mu              sync.RWMutex
	connectionsMeta map[*ws.Connection]*MetaInfo
}

type metaConnection struct {
	*ws.Connection
	meta MetaInfo
}

func (c metaConnection) Meta() MetaInfo {
	return c.meta
}

func (h *huber) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.hub.ServeHTTP(w, r)
}

func requestedModules(r *http.Request) []string {
	seen := map[string]bool{}
	var modules []string
	for _, raw := range r.URL.Query()["module"] {
		m := strings.TrimSpace(raw)
		if m == "" || seen[m] {
			continue
		}
		seen[m] = true
		modules = append(modules, m)
	}
	return modules
}

func (h *huber) onConnect(r *http.Request, hub *ws.Hub, conn *ws.Connection) error {
	s, err := composables.UseSession(r.Context())
	if err != nil {
		return err
	}
	modules := requestedModules(r)
	if len(modules) == 0 {
		return ErrNoModules
	}
	h.mu.Lock()
	h.connectionsMeta[conn] = &MetaInfo{OrgID: s.Key.OrgID, UserID: s.Key.UserID, Modules: modules}
	h.mu.Unlock()
	for _, m := range modules {
		hub.JoinChannel(OrgChannel(s.Key.OrgID, m), conn)
		hub.JoinChannel(ModuleChannel(m), conn)
	}
	return nil
}

func (h *huber) onDisconnect(conn *ws.Connection) {
	h.mu.Lock()
	delete(h.connectionsMeta, conn)
	h.mu.Unlock()
}

func (h *huber) onInvalidate(e invalidation.Event) {
	payload, err := json.Marshal(InvalidateMessage{Type: invalidation.EventType, Module: e.Module})
	if err != nil {
		h.logger.WithError(err).Error("ws: failed to encode invalidation")
		return
	}
	channel := ModuleChannel(e.Module)
	if e.OrganizationID != "" {
		channel = OrgChannel(e.OrganizationID, e.Module)
	}
	if err := h.ForEach(channel, func(_ context.Context, conn Connection) error {
		return conn.SendMessage(payload)
	}); err != nil {
		h.logger.WithError(err).WithField("channel", channel).Debug("ws: invalidation not delivered to every tab")
	}
}

// ForEach calls f for every connection in channel. Errors are joined; one
// failing connection does not stop delivery to the others.
func (h *huber) ForEach(channel string, f WsCallback) error {
	ctx := context.WithValue(context.Background(), constants.LoggerKey, logrus.NewEntry(h.logger))

	var errs []error
	for _, conn := range h.hub.ConnectionsInChannel(channel) {
		h.mu.RLock()
		meta, ok := h.connectionsMeta[conn]
		h.mu.RUnlock()
		if !ok {
			h.logger.Error("connection meta not found")
			continue
		}
		if err := f(ctx, metaConnection{Connection: conn, meta: *meta}); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (h *huber) ConnectionsCount() int {
	return h.hub.ConnectionsCount()
}

func (h *huber) Close() {
	if h.unsubscribe != nil {
		h.unsubscribe()
	}
}
