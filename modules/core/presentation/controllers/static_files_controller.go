package controllers

import (
	"net/http"
	"path"

	"github.com/benbjohnson/hashfs"
	"github.com/gorilla/mux"

	"github.com/iota-uz/ats-console/pkg/application"
	"github.com/iota-uz/ats-console/pkg/multifs"
)

const (
	cacheHashed      = "public, max-age=31536000, immutable"
	cachePlain       = "public, max-age=3600"
	cacheDevelopment = "no-cache, no-store, must-revalidate"
)

type StaticFilesController struct {
	files      http.Handler
	production bool
}

// NewStaticFilesController serves the asset trees of every module under
// /assets/. In production a hashed name never changes content, so it is
// cached for a year. Development disables caching so edited css and js
// show up on reload.
func NewStaticFilesController(fsInstances []*hashfs.FS, production bool) application.Controller {
	return &StaticFilesController{
		files:      http.StripPrefix("/assets/", http.FileServer(multifs.New(fsInstances...))),
		production: production,
	}
}

func (s *StaticFilesController) Key() string {
	return "/assets"
}

func (s *StaticFilesController) Register(r *mux.Router) {
	r.PathPrefix("/assets/").HandlerFunc(s.serve)
}

func (s *StaticFilesController) serve(w http.ResponseWriter, r *http.Request) {
	h := w.Header()
	switch {
	case !s.production:
		h.Set("Cache-Control", cacheDevelopment)
		h.Set("Pragma", "no-cache")
		h.Set("Expires", "0")
	case isHashed(r.URL.Path):
		h.Set("Cache-Control", cacheHashed)
	default:
		h.Set("Cache-Control", cachePlain)
	}
	s.files.ServeHTTP(w, r)
}

func isHashed(p string) bool {
	_, hash := hashfs.ParseName(path.Base(p))
	return hash != ""
}
