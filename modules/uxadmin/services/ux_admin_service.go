package services

import (
	"context"
	"sort"
	"strings"

	"github.com/go-faster/errors"
	"github.com/sirupsen/logrus"

	"github.com/iota-uz/ats-console/pkg/backend"
	"github.com/iota-uz/ats-console/pkg/invalidation"
	"github.com/iota-uz/ats-console/pkg/session"
	"github.com/iota-uz/ats-console/pkg/uxconfig"
	"github.com/iota-uz/ats-console/pkg/uxdiff"
)

// ErrMissingModule is returned for blank module names before any request.
var ErrMissingModule = &backend.Error{Kind: backend.KindNetwork, Message: "Missing module"}

type UXAdminService struct {
	bus invalidation.Bus
	log *logrus.Entry
}

func NewUXAdminService(bus invalidation.Bus, logger *logrus.Logger) *UXAdminService {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &UXAdminService{
		bus: bus,
		log: logger.WithField("component", "uxadmin"),
	}
}

func requireModule(module string) (string, error) {
	m := strings.TrimSpace(module)
	if m == "" {
		return "", ErrMissingModule
	}
	return m, nil
}

// Versions lists the module history newest first. Entries the backend sent
// without a diff get one computed against the previous version.
func (s *UXAdminService) Versions(ctx context.Context, sess *session.Session, module string) ([]backend.UXConfigVersionItem, error) {
	m, err := requireModule(module)
	if err != nil {
		return nil, err
	}
	items, err := sess.Backend.UXVersions(ctx, m)
	if err != nil {
		return nil, err
	}
	if err := uxdiff.Fill(items); err != nil {
		s.log.WithError(err).WithField("module", m).Warn("version diffs unavailable")
	}
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].Version > items[j].Version
	})
	return items, nil
}

// Config reads the module config through the session cache. With refresh
// the cached entry is bypassed. A failed fetch still answers with the last
// cached value, marked stale.
func (s *UXAdminService) Config(ctx context.Context, sess *session.Session, module string, refresh bool) (uxconfig.CachedResult, error) {
	m, err := requireModule(module)
	if err != nil {
		return uxconfig.CachedResult{}, err
	}
	fetched, getErr := sess.UX.Get(ctx, m, uxconfig.Options{ForceRefresh: refresh})
	cached, err := sess.UX.Cached(sess.Key.OrgID, sess.Key.UserID, m)
	if err != nil {
		return uxconfig.CachedResult{}, err
	}
	// An invalidation during the fetch keeps the result out of the cache.
	if getErr == nil && cached.Data == nil {
		return uxconfig.CachedResult{Data: fetched, Fresh: true}, nil
	}
	if getErr != nil {
		if cached.Data == nil {
			return uxconfig.CachedResult{}, getErr
		}
		cached.Fresh = false
	}
	return cached, nil
}

// Rollback restores module to version. On success the acting session's
// entry is dropped first, then every other session and browser tab of the
// organization is told to reload.
func (s *UXAdminService) Rollback(ctx context.Context, sess *session.Session, module string, version int) (*backend.UXConfigResponse, error) {
	m, err := requireModule(module)
	if err != nil {
		return nil, err
	}
	resp, err := sess.Backend.RollbackUX(ctx, m, version)
	if err != nil {
		return nil, err
	}
	if err := sess.UX.Invalidate(sess.Key.OrgID, sess.Key.UserID, m); err != nil {
		return nil, errors.Wrap(err, "invalidate ux config")
	}
	s.bus.Publish(ctx, invalidation.Event{
		Module:         m,
		OrganizationID: sess.Key.OrgID,
		UserID:         sess.Key.UserID,
	})
	s.log.WithFields(logrus.Fields{
		"module":  m,
		"version": version,
		"org_id":  sess.Key.OrgID,
	}).Info("ux config rolled back")
	return resp, nil
}
