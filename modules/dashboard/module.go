package dashboard

import (
	"embed"

	"github.com/iota-uz/ats-console/modules/dashboard/presentation/controllers"
	"github.com/iota-uz/ats-console/modules/dashboard/services"
	"github.com/iota-uz/ats-console/pkg/application"
	"github.com/iota-uz/ats-console/pkg/lifecycle"
)

//go:embed presentation/locales/*.toml
var LocaleFiles embed.FS

type ModuleOptions struct {
	// SLADays applies when the organization policy cannot be read.
	SLADays int
}

func NewModule(opts *ModuleOptions) application.Module {
	if opts == nil {
		opts = &ModuleOptions{}
	}
	if opts.SLADays <= 0 {
		opts.SLADays = lifecycle.DefaultSLADays
	}
	return &Module{options: opts}
}

type Module struct {
	options *ModuleOptions
}

func (m *Module) Register(app application.Application) error {
	app.RegisterLocaleFiles(&LocaleFiles)
	app.RegisterServices(
		services.NewDashboardService(m.options.SLADays),
	)
	app.RegisterControllers(
		controllers.NewDashboardController(app),
	)
	return nil
}

func (m *Module) Name() string {
	return "dashboard"
}
