package controllers

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/iota-uz/ats-console/modules/uxadmin/services"
	"github.com/iota-uz/ats-console/pkg/application"
	"github.com/iota-uz/ats-console/pkg/backend"
	"github.com/iota-uz/ats-console/pkg/composables"
	"github.com/iota-uz/ats-console/pkg/httpapi"
)

type ConfigResponse struct {
	Data      *backend.UXConfigResponse `json:"data"`
	Fresh     bool                      `json:"fresh"`
	ExpiresAt *time.Time                `json:"expires_at"`
}

type UXAPIController struct {
	uxAdminService *services.UXAdminService
}

func NewUXAPIController(app application.Application) application.Controller {
	return &UXAPIController{
		uxAdminService: app.Service(services.UXAdminService{}).(*services.UXAdminService),
	}
}

func (c *UXAPIController) Key() string {
	return "/api/ux"
}

func (c *UXAPIController) Register(r *mux.Router) {
	router := r.PathPrefix("/api/ux").Subrouter()
	router.HandleFunc("/{module}", c.Get).Methods(http.MethodGet)
}

// Get answers with the cached module config. refresh=1 bypasses a fresh
// entry; a failed refresh still serves the previous value as stale.
func (c *UXAPIController) Get(w http.ResponseWriter, r *http.Request) {
	sess, err := composables.UseSession(r.Context())
	if err != nil {
		_ = httpapi.WriteBackendError(w, backend.ErrMissingIdentity)
		return
	}
	refresh := r.URL.Query().Get("refresh") == "1"
	res, err := c.uxAdminService.Config(r.Context(), sess, mux.Vars(r)["module"], refresh)
	if err != nil {
		_ = httpapi.WriteBackendError(w, err)
		return
	}
	out := &ConfigResponse{Data: res.Data, Fresh: res.Fresh}
	if !res.ExpiresAt.IsZero() {
		exp := res.ExpiresAt.UTC()
		out.ExpiresAt = &exp
	}
	_ = httpapi.WriteJSON(w, http.StatusOK, out)
}
