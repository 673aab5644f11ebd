package core

import (
	"embed"

	"github.com/iota-uz/ats-console/modules/core/presentation/assets"
	"github.com/iota-uz/ats-console/modules/core/presentation/controllers"
	"github.com/iota-uz/ats-console/pkg/application"
	"github.com/iota-uz/ats-console/pkg/middleware"
)

//go:embed presentation/locales/*.toml
var LocaleFiles embed.FS

type ModuleOptions struct {
	// DevMode mounts /dev/login. Never enable it behind a real gateway.
	DevMode bool
	Cookies middleware.IdentityCookies
}

func NewModule(opts *ModuleOptions) application.Module {
	if opts == nil {
		opts = &ModuleOptions{}
	}
	if opts.Cookies.Org == "" || opts.Cookies.User == "" {
		opts.Cookies = middleware.DefaultIdentityCookies()
	}
	return &Module{
		options: opts,
	}
}

type Module struct {
	options *ModuleOptions
}

func (m *Module) Register(app application.Application) error {
	app.RegisterLocaleFiles(&LocaleFiles)
	app.RegisterHashFsAssets(assets.HashFS)
	app.RegisterControllers(
		controllers.NewHomeController(),
		controllers.NewHealthController(app),
	)
	if m.options.DevMode {
		app.RegisterControllers(controllers.NewDevLoginController(app, m.options.Cookies))
	}
	return nil
}

func (m *Module) Name() string {
	return "core"
}
