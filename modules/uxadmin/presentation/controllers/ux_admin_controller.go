package controllers

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/a-h/templ"
	"github.com/gorilla/mux"
	"golang.org/x/sync/errgroup"

	"github.com/iota-uz/ats-console/modules/uxadmin/presentation/templates/pages/uxadmin"
	"github.com/iota-uz/ats-console/modules/uxadmin/presentation/viewmodels"
	"github.com/iota-uz/ats-console/modules/uxadmin/services"
	"github.com/iota-uz/ats-console/pkg/application"
	"github.com/iota-uz/ats-console/pkg/backend"
	"github.com/iota-uz/ats-console/pkg/composables"
	"github.com/iota-uz/ats-console/pkg/constants"
	"github.com/iota-uz/ats-console/pkg/intl"
	"github.com/iota-uz/ats-console/pkg/middleware"
	"github.com/iota-uz/ats-console/pkg/uxconfig"
)

const (
	noticeFlash = "uxAdminNotice"
	errorFlash  = "uxAdminError"
)

type RollbackDTO struct {
	Version int `form:"version" validate:"required,min=1"`
}

type UXAdminController struct {
	app            application.Application
	uxAdminService *services.UXAdminService
	basePath       string
}

func NewUXAdminController(app application.Application) application.Controller {
	return &UXAdminController{
		app:            app,
		uxAdminService: app.Service(services.UXAdminService{}).(*services.UXAdminService),
		basePath:       "/admin/ux",
	}
}

func (c *UXAdminController) Key() string {
	return c.basePath
}

// provideModuleUX styles the page with the config of the module it shows.
func provideModuleUX(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		middleware.ProvideUXConfig(mux.Vars(r)["module"])(next).ServeHTTP(w, r)
	})
}

func (c *UXAdminController) Register(r *mux.Router) {
	router := r.PathPrefix(c.basePath).Subrouter()
	router.Use(provideModuleUX)
	router.HandleFunc("/{module}", c.Versions).Methods(http.MethodGet)
	router.HandleFunc("/{module}/rollback", c.Rollback).Methods(http.MethodPost)
}

func moduleURL(module string) string {
	return "/admin/ux/" + url.PathEscape(module)
}

func flash(w http.ResponseWriter, r *http.Request, name string) string {
	v, err := composables.UseFlash(w, r, name)
	if err != nil {
		composables.UseLogger(r.Context()).WithError(err).Warn("bad flash cookie")
		return ""
	}
	return string(v)
}

func (c *UXAdminController) Versions(w http.ResponseWriter, r *http.Request) {
	module := strings.TrimSpace(mux.Vars(r)["module"])
	props := &uxadmin.VersionsProps{
		Module: module,
		Notice: flash(w, r, noticeFlash),
		Error:  flash(w, r, errorFlash),
	}

	sess, err := composables.UseSession(r.Context())
	if err != nil {
		props.CurrentErr = backend.ErrMissingIdentity
		props.VersionsErr = backend.ErrMissingIdentity
		templ.Handler(uxadmin.Versions(props)).ServeHTTP(w, r)
		return
	}

	var (
		g        errgroup.Group
		versions []backend.UXConfigVersionItem
		current  uxconfig.CachedResult
	)
	g.Go(func() error {
		versions, props.VersionsErr = c.uxAdminService.Versions(r.Context(), sess, module)
		return nil
	})
	g.Go(func() error {
		current, props.CurrentErr = c.uxAdminService.Config(r.Context(), sess, module, false)
		return nil
	})
	_ = g.Wait()

	props.Versions = viewmodels.Versions(versions)
	if props.CurrentErr == nil {
		props.Current = viewmodels.NewConfig(current.Data, current.Fresh, current.ExpiresAt)
	}
	templ.Handler(uxadmin.Versions(props)).ServeHTTP(w, r)
}

func rollbackErrorText(r *http.Request, err error) string {
	ctx := r.Context()
	switch {
	case backend.IsMissingIdentity(err):
		return intl.T(ctx, "Identity.Missing")
	case backend.IsForbidden(err):
		return intl.T(ctx, "UXAdmin.Errors.Forbidden")
	case backend.IsNotFound(err):
		return intl.T(ctx, "UXAdmin.Errors.VersionNotFound")
	default:
		return err.Error()
	}
}

func (c *UXAdminController) Rollback(w http.ResponseWriter, r *http.Request) {
	module := strings.TrimSpace(mux.Vars(r)["module"])
	back := moduleURL(module)

	dto, err := composables.UseForm(&RollbackDTO{}, r)
	if err == nil {
		err = constants.Validate.Struct(dto)
	}
	if err != nil {
		composables.SetFlash(w, errorFlash, []byte(intl.T(r.Context(), "UXAdmin.Errors.InvalidVersion")))
		http.Redirect(w, r, back, http.StatusFound)
		return
	}

	sess, err := composables.UseSession(r.Context())
	if err != nil {
		composables.SetFlash(w, errorFlash, []byte(rollbackErrorText(r, backend.ErrMissingIdentity)))
		http.Redirect(w, r, back, http.StatusFound)
		return
	}
	if _, err := c.uxAdminService.Rollback(r.Context(), sess, module, dto.Version); err != nil {
		composables.UseLogger(r.Context()).WithError(err).WithField("module", module).Warn("rollback failed")
		composables.SetFlash(w, errorFlash, []byte(rollbackErrorText(r, err)))
		http.Redirect(w, r, back, http.StatusFound)
		return
	}
	composables.SetFlash(w, noticeFlash, []byte(intl.T(r.Context(), "UXAdmin.Flash.RolledBack", map[string]any{"Version": dto.Version})))
	http.Redirect(w, r, back, http.StatusFound)
}
