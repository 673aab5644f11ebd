package application

import (
	"embed"
	"encoding/json"
	"fmt"
	iofs "io/fs"
	"path/filepath"
	"reflect"
	"sort"

	"github.com/BurntSushi/toml"
	"github.com/benbjohnson/hashfs"
	"github.com/gorilla/mux"
	"github.com/iota-uz/go-i18n/v2/i18n"
	"github.com/sirupsen/logrus"
	"golang.org/x/text/language"

	"github.com/iota-uz/ats-console/pkg/intl"
	"github.com/iota-uz/ats-console/pkg/invalidation"
	"github.com/iota-uz/ats-console/pkg/session"
	"github.com/iota-uz/ats-console/pkg/types"
)

// translate localizes nav item names. A name without a message keeps its
// id so a missing key shows up in the UI instead of failing the request.
func translate(localizer *i18n.Localizer, items []types.NavigationItem) []types.NavigationItem {
	out := make([]types.NavigationItem, len(items))
	for i, item := range items {
		name, err := localizer.Localize(&i18n.LocalizeConfig{MessageID: item.Name})
		if err != nil {
			name = item.Name
		}
		item.Name = name
		item.Children = translate(localizer, item.Children)
		out[i] = item
	}
	return out
}

type ApplicationOptions struct {
	Logger             *logrus.Logger
	Bus                invalidation.Bus
	Sessions           *session.Manager
	Bundle             *i18n.Bundle
	Huber              Huber
	SupportedLanguages []string
}

// LoadBundle creates the message bundle; English is the fallback language.
func LoadBundle() *i18n.Bundle {
	bundle := i18n.NewBundle(language.English)
	bundle.RegisterUnmarshalFunc("json", json.Unmarshal)
	bundle.RegisterUnmarshalFunc("toml", toml.Unmarshal)
	return bundle
}

func New(opts *ApplicationOptions) Application {
	supportedLanguages := opts.SupportedLanguages
	if len(supportedLanguages) == 0 {
		supportedLanguages = intl.Codes()
	}
	bundle := opts.Bundle
	if bundle == nil {
		bundle = LoadBundle()
	}
	logger := opts.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	return &application{
		logger:             logger,
		bus:                opts.Bus,
		sessions:           opts.Sessions,
		websocket:          opts.Huber,
		controllers:        make(map[string]Controller),
		services:           make(map[reflect.Type]interface{}),
		bundle:             bundle,
		supportedLanguages: supportedLanguages,
	}
}

// application with a dynamically extendable service registry
type application struct {
	logger             *logrus.Logger
	bus                invalidation.Bus
	sessions           *session.Manager
	websocket          Huber
	services           map[reflect.Type]interface{}
	controllers        map[string]Controller
	middleware         []mux.MiddlewareFunc
	hashFsAssets       []*hashfs.FS
	bundle             *i18n.Bundle
	navItems           []types.NavigationItem
	supportedLanguages []string
}

func (app *application) Logger() *logrus.Logger {
	return app.logger
}

func (app *application) Bus() invalidation.Bus {
	return app.bus
}

func (app *application) Sessions() *session.Manager {
	return app.sessions
}

func (app *application) Websocket() Huber {
	return app.websocket
}

func (app *application) NavItems(localizer *i18n.Localizer) []types.NavigationItem {
	return translate(localizer, app.navItems)
}

func (app *application) RegisterNavItems(items ...types.NavigationItem) {
	app.navItems = append(app.navItems, items...)
}

func (app *application) Middleware() []mux.MiddlewareFunc {
	return app.middleware
}

// Controllers returns registered controllers ordered by key so route
// registration is deterministic.
func (app *application) Controllers() []Controller {
	controllers := make([]Controller, 0, len(app.controllers))
	for _, c := range app.controllers {
		controllers = append(controllers, c)
	}
	sort.Slice(controllers, func(i, j int) bool {
		return controllers[i].Key() < controllers[j].Key()
	})
	return controllers
}

func (app *application) HashFsAssets() []*hashfs.FS {
	return app.hashFsAssets
}

func (app *application) RegisterControllers(controllers ...Controller) {
	for _, c := range controllers {
		app.controllers[c.Key()] = c
	}
}

func (app *application) RegisterMiddleware(middleware ...mux.MiddlewareFunc) {
	app.middleware = append(app.middleware, middleware...)
}

func (app *application) RegisterHashFsAssets(fs ...*hashfs.FS) {
	app.hashFsAssets = append(app.hashFsAssets, fs...)
}

// RegisterLocaleFiles parses every message file in each tree. Files are
// named <lang>.toml, so a broken catalog stops startup.
func (app *application) RegisterLocaleFiles(fs ...*embed.FS) {
	for _, localeFs := range fs {
		err := iofs.WalkDir(localeFs, ".", func(path string, d iofs.DirEntry, err error) error {
			if err != nil || d.IsDir() {
				return err
			}
			data, err := localeFs.ReadFile(path)
			if err != nil {
				return err
			}
			_, err = app.bundle.ParseMessageFileBytes(data, filepath.Base(path))
			return err
		})
		if err != nil {
			panic(fmt.Errorf("register locale files: %w", err))
		}
	}
}

// RegisterServices registers a new service in the application by its type
func (app *application) RegisterServices(services ...interface{}) {
	for _, service := range services {
		serviceType := reflect.TypeOf(service).Elem()
		app.services[serviceType] = service
	}
}

// Service retrieves a service by its type
func (app *application) Service(service interface{}) interface{} {
	serviceType := reflect.TypeOf(service)
	svc, exists := app.services[serviceType]
	if !exists {
		panic(fmt.Sprintf("service %s not found", serviceType.Name()))
	}
	return svc
}

func (app *application) Services() map[reflect.Type]interface{} {
	return app.services
}

func (app *application) Bundle() *i18n.Bundle {
	return app.bundle
}

func (app *application) GetSupportedLanguages() []string {
	return app.supportedLanguages
}
