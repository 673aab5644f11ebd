package application

import (
	"context"
	"embed"
	"errors"
	"reflect"

	"github.com/benbjohnson/hashfs"
	"github.com/gorilla/mux"
	"github.com/iota-uz/go-i18n/v2/i18n"
	"github.com/sirupsen/logrus"

	"github.com/iota-uz/ats-console/pkg/constants"
	"github.com/iota-uz/ats-console/pkg/invalidation"
	"github.com/iota-uz/ats-console/pkg/session"
	"github.com/iota-uz/ats-console/pkg/types"
)

var ErrAppNotFound = errors.New("application not found in context")

type Controller interface {
	Register(r *mux.Router)
	Key() string
}

type Module interface {
	Name() string
	Register(app Application) error
}

// Application is the registry modules populate at startup and controllers
// read from at request time.
type Application interface {
	Logger() *logrus.Logger
	Bus() invalidation.Bus
	Sessions() *session.Manager
	Websocket() Huber
	NavItems(localizer *i18n.Localizer) []types.NavigationItem
	RegisterNavItems(items ...types.NavigationItem)
	Middleware() []mux.MiddlewareFunc
	RegisterMiddleware(middleware ...mux.MiddlewareFunc)
	Controllers() []Controller
	RegisterControllers(controllers ...Controller)
	HashFsAssets() []*hashfs.FS
	RegisterHashFsAssets(fs ...*hashfs.FS)
	RegisterLocaleFiles(fs ...*embed.FS)
	RegisterServices(services ...interface{})
	Service(service interface{}) interface{}
	Services() map[reflect.Type]interface{}
	Bundle() *i18n.Bundle
	GetSupportedLanguages() []string
}

func WithApp(ctx context.Context, app Application) context.Context {
	return context.WithValue(ctx, constants.AppKey, app)
}

func UseApp(ctx context.Context) (Application, error) {
	app, ok := ctx.Value(constants.AppKey).(Application)
	if !ok || app == nil {
		return nil, ErrAppNotFound
	}
	return app, nil
}
