package controllers

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/iota-uz/ats-console/pkg/application"
)

type WebSocketController struct {
	app application.Application
}

func NewWebSocketController(app application.Application) application.Controller {
	return &WebSocketController{app: app}
}

func (c *WebSocketController) Key() string {
	return "/ws"
}

func (c *WebSocketController) Register(r *mux.Router) {
	r.Handle("/ws", c.app.Websocket()).Methods(http.MethodGet)
}
