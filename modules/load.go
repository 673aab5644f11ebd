package modules

import (
	"slices"

	"github.com/iota-uz/ats-console/modules/core"
	"github.com/iota-uz/ats-console/modules/dashboard"
	"github.com/iota-uz/ats-console/modules/uxadmin"
	"github.com/iota-uz/ats-console/pkg/application"
	"github.com/iota-uz/ats-console/pkg/configuration"
	"github.com/iota-uz/ats-console/pkg/middleware"
)

// BuiltInModules returns the console modules configured from conf.
func BuiltInModules(conf *configuration.Configuration) []application.Module {
	return []application.Module{
		core.NewModule(&core.ModuleOptions{
			DevMode: conf.DevMode,
			Cookies: middleware.IdentityCookies{
				Org:  conf.Session.OrgIDCookie,
				User: conf.Session.UserIDCookie,
			},
		}),
		dashboard.NewModule(&dashboard.ModuleOptions{
			SLADays: conf.Session.DefaultSLADays,
		}),
		uxadmin.NewModule(),
	}
}

var NavLinks = slices.Concat(
	core.NavItems,
)

func Load(app application.Application, externalModules ...application.Module) error {
	for _, module := range externalModules {
		if err := module.Register(app); err != nil {
			return err
		}
	}
	return nil
}
