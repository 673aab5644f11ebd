package core

import (
	icons "github.com/iota-uz/icons/phosphor"

	"github.com/iota-uz/ats-console/pkg/types"
)

// ScopeUXRead is the backend scope for reading UX config history.
const ScopeUXRead = "ux:read"

var DashboardLink = types.NavigationItem{
	Name:     "NavigationLinks.Dashboard",
	Icon:     icons.Gauge(icons.Props{Size: "20"}),
	Href:     "/dashboard",
	Children: nil,
}

var UXConfigLink = types.NavigationItem{
	Name:     "NavigationLinks.UXConfig",
	Icon:     nil,
	Href:     "/admin/ux/dashboard",
	Scopes:   []string{ScopeUXRead},
	Children: nil,
}

var AdministrationLink = types.NavigationItem{
	Name: "NavigationLinks.Administration",
	Icon: icons.AirTrafficControl(icons.Props{Size: "20"}),
	Href: "#",
	Children: []types.NavigationItem{
		UXConfigLink,
	},
}

var NavItems = []types.NavigationItem{
	DashboardLink,
	AdministrationLink,
}
