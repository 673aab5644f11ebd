package controllers

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/iota-uz/ats-console/pkg/application"
)

type HomeController struct{}

func NewHomeController() application.Controller {
	return &HomeController{}
}

func (c *HomeController) Key() string {
	return "/"
}

// Register sends the bare root to the dashboard, which opens the first
// active workflow.
func (c *HomeController) Register(r *mux.Router) {
	r.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/dashboard?auto=1", http.StatusFound)
	}).Methods(http.MethodGet)
}
