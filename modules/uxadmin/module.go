package uxadmin

import (
	"embed"

	"github.com/iota-uz/ats-console/modules/uxadmin/presentation/controllers"
	"github.com/iota-uz/ats-console/modules/uxadmin/services"
	"github.com/iota-uz/ats-console/pkg/application"
)

//go:embed presentation/locales/*.toml
var LocaleFiles embed.FS

func NewModule() application.Module {
	return &Module{}
}

type Module struct {
}

func (m *Module) Register(app application.Application) error {
	app.RegisterLocaleFiles(&LocaleFiles)
	app.RegisterServices(
		services.NewUXAdminService(app.Bus(), app.Logger()),
	)
	app.RegisterControllers(
		controllers.NewUXAdminController(app),
		controllers.NewUXAPIController(app),
		controllers.NewWebSocketController(app),
	)
	return nil
}

func (m *Module) Name() string {
	return "uxadmin"
}
