package types

import (
	"github.com/a-h/templ"

	"github.com/iota-uz/ats-console/pkg/backend"
)

type NavigationItem struct {
	Name     string
	Href     string
	Children []NavigationItem
	Icon     templ.Component
	// Scopes lists /me scopes required to see the item. Empty means everyone.
	Scopes []string
}

func (n NavigationItem) HasScopes(identity *backend.Identity) bool {
	if len(n.Scopes) == 0 {
		return true
	}
	if identity == nil {
		return false
	}
	for _, scope := range n.Scopes {
		if !identity.HasScope(scope) {
			return false
		}
	}
	return true
}
