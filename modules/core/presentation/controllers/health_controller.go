package controllers

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/iota-uz/ats-console/pkg/application"
	"github.com/iota-uz/ats-console/pkg/httpapi"
	"github.com/iota-uz/ats-console/pkg/session"
)

type HealthResponse struct {
	Status     string `json:"status"`
	Sessions   int    `json:"sessions"`
	Websockets int    `json:"websockets"`
}

type HealthController struct {
	app      application.Application
	sessions *session.Manager
}

func NewHealthController(app application.Application) application.Controller {
	return &HealthController{
		app:      app,
		sessions: app.Sessions(),
	}
}

func (c *HealthController) Key() string {
	return "/health"
}

func (c *HealthController) Register(r *mux.Router) {
	r.HandleFunc("/health", c.Get).Methods(http.MethodGet, http.MethodHead)
}

// Get reports liveness only. The hiring backend is not probed.
func (c *HealthController) Get(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{Status: "ok", Sessions: c.sessions.Len()}
	if hub := c.app.Websocket(); hub != nil {
		resp.Websockets = hub.ConnectionsCount()
	}
	_ = httpapi.WriteJSON(w, http.StatusOK, resp)
}
