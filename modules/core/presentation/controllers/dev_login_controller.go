package controllers

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"
	"github.com/iota-uz/go-i18n/v2/i18n"

	"github.com/iota-uz/ats-console/modules/core/presentation/templates/pages/devlogin"
	"github.com/iota-uz/ats-console/pkg/application"
	"github.com/iota-uz/ats-console/pkg/composables"
	"github.com/iota-uz/ats-console/pkg/constants"
	"github.com/iota-uz/ats-console/pkg/intl"
	"github.com/iota-uz/ats-console/pkg/middleware"
	"github.com/iota-uz/ats-console/pkg/session"
)

const devLoginErrorFlash = "devLoginError"

type DevLoginDTO struct {
	OrgID  string `form:"org_id" validate:"required,max=128"`
	UserID string `form:"user_id" validate:"required,max=128"`
	Next   string `form:"next"`
}

func (d *DevLoginDTO) normalize() {
	d.OrgID = strings.TrimSpace(d.OrgID)
	d.UserID = strings.TrimSpace(d.UserID)
}

// Ok returns the first translated validation message, if any.
func (d *DevLoginDTO) Ok(ctx context.Context) (string, bool) {
	errs := constants.Validate.Struct(d)
	if errs == nil {
		return "", true
	}
	l, ok := intl.UseLocalizer(ctx)
	if !ok {
		panic(intl.ErrNoLocalizer)
	}
	var validationErrs validator.ValidationErrors
	if ve, ok := errs.(validator.ValidationErrors); ok {
		validationErrs = ve
	}
	for _, err := range validationErrs {
		field := l.MustLocalize(&i18n.LocalizeConfig{
			MessageID: fmt.Sprintf("DevLogin.%s", err.Field()),
		})
		return l.MustLocalize(&i18n.LocalizeConfig{
			MessageID:    fmt.Sprintf("ValidationErrors.%s", err.Tag()),
			TemplateData: map[string]string{"Field": field},
		}), false
	}
	return errs.Error(), false
}

// safeNext keeps redirects on this host.
func safeNext(next string) string {
	u, err := url.Parse(next)
	if err != nil || next == "" || u.IsAbs() || u.Host != "" || !strings.HasPrefix(u.Path, "/") ||
		strings.HasPrefix(next, "//") {
		return "/dashboard?auto=1"
	}
	return next
}

type DevLoginController struct {
	app      application.Application
	sessions *session.Manager
	cookies  middleware.IdentityCookies
}

func NewDevLoginController(app application.Application, cookies middleware.IdentityCookies) application.Controller {
	return &DevLoginController{
		app:      app,
		sessions: app.Sessions(),
		cookies:  cookies,
	}
}

func (c *DevLoginController) Key() string {
	return "/dev/login"
}

func (c *DevLoginController) Register(r *mux.Router) {
	router := r.PathPrefix("/dev").Subrouter()
	router.HandleFunc("/login", c.Get).Methods(http.MethodGet)
	router.HandleFunc("/login", c.Post).Methods(http.MethodPost)
	router.HandleFunc("/logout", c.Logout).Methods(http.MethodPost)
}

func (c *DevLoginController) Get(w http.ResponseWriter, r *http.Request) {
	errorMessage, err := composables.UseFlash(w, r, devLoginErrorFlash)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	org, user := c.cookies.Read(r)
	props := &devlogin.Props{
		OrgID:        org,
		UserID:       user,
		ErrorMessage: string(errorMessage),
		Next:         r.URL.Query().Get("next"),
	}
	if err := devlogin.Index(props).Render(r.Context(), w); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// Post switches the browser to a new identity pair. The previous pair's
// session is dropped so its caches do not outlive the switch.
func (c *DevLoginController) Post(w http.ResponseWriter, r *http.Request) {
	dto, err := composables.UseForm(&DevLoginDTO{}, r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	dto.normalize()
	if message, ok := dto.Ok(r.Context()); !ok {
		composables.SetFlash(w, devLoginErrorFlash, []byte(message))
		http.Redirect(w, r, "/dev/login?next="+url.QueryEscape(dto.Next), http.StatusFound)
		return
	}

	prevOrg, prevUser := c.cookies.Read(r)
	if prevOrg != dto.OrgID || prevUser != dto.UserID {
		c.sessions.Drop(prevOrg, prevUser)
	}
	c.cookies.Write(w, dto.OrgID, dto.UserID)
	composables.UseLogger(r.Context()).
		WithField("org_id", dto.OrgID).
		WithField("user_id", dto.UserID).
		Info("dev identity switched")
	http.Redirect(w, r, safeNext(dto.Next), http.StatusFound)
}

func (c *DevLoginController) Logout(w http.ResponseWriter, r *http.Request) {
	org, user := c.cookies.Read(r)
	c.sessions.Drop(org, user)
	c.cookies.Write(w, "", "")
	http.Redirect(w, r, "/dev/login", http.StatusFound)
}
