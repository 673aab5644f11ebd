package server

import (
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
	"github.com/ulule/limiter/v3"

	"github.com/iota-uz/ats-console/modules/core/presentation/controllers"
	"github.com/iota-uz/ats-console/modules/core/presentation/templates/layouts"
	"github.com/iota-uz/ats-console/pkg/application"
	"github.com/iota-uz/ats-console/pkg/configuration"
	"github.com/iota-uz/ats-console/pkg/constants"
	"github.com/iota-uz/ats-console/pkg/metrics"
	"github.com/iota-uz/ats-console/pkg/middleware"
	"github.com/iota-uz/ats-console/pkg/routing"
	"github.com/iota-uz/ats-console/pkg/server"
)

type DefaultOptions struct {
	Logger        *logrus.Logger
	Configuration *configuration.Configuration
	Application   application.Application
	// Metrics is optional; nil skips request instrumentation.
	Metrics    *metrics.HTTP
	Entrypoint string
}

// IdentityCookies returns the cookie names configured for the identity pair.
func IdentityCookies(conf *configuration.Configuration) middleware.IdentityCookies {
	return middleware.IdentityCookies{
		Org:  conf.Session.OrgIDCookie,
		User: conf.Session.UserIDCookie,
	}
}

func Default(options *DefaultOptions) (*server.HTTPServer, error) {
	app := options.Application
	conf := options.Configuration
	cookies := IdentityCookies(conf)

	rules, err := routing.LoadAllowlist("", options.Entrypoint)
	if err != nil {
		options.Logger.WithError(err).Warn("routing allowlist unavailable, using embedded rules")
		rules = nil
	}
	classifier := routing.NewClassifier(rules)

	loggerOpts := middleware.DefaultLoggerOptions()
	loggerOpts.RequestIDHeader = conf.RequestIDHeader
	loggerOpts.RealIPHeader = conf.RealIPHeader
	loggerOpts.Classifier = classifier

	// The logger creates the root span for each request.
	middlewares := []mux.MiddlewareFunc{
		middleware.WithLogger(options.Logger, loggerOpts),
	}
	if options.Metrics != nil {
		middlewares = append(middlewares, options.Metrics.Middleware(classifier))
	}
	middlewares = append(middlewares,
		middleware.Provide(constants.AppKey, app),
		middleware.Provide(constants.HeadKey, layouts.DefaultHead()),

		middleware.TracedMiddleware("cors"),
		middleware.Cors(conf.CorsOriginList()...),
	)

	if conf.RateLimit.Enabled {
		var store limiter.Store

		switch conf.RateLimit.Storage {
		case "redis":
			store, err = middleware.NewRedisStore(conf.RateLimit.RedisURL)
			if err != nil {
				options.Logger.WithError(err).Warn("Failed to create Redis store for rate limiting, falling back to memory")
				store = middleware.NewMemoryStore()
			}
		default:
			store = middleware.NewMemoryStore()
		}

		middlewares = append(middlewares,
			middleware.TracedMiddleware("rateLimit"),
			middleware.RateLimit(middleware.RateLimitConfig{
				RequestsPerPeriod: conf.RateLimit.GlobalRPS,
				Store:             store,
				RealIPHeader:      conf.RealIPHeader,
			}),
		)
	}

	middlewares = append(middlewares,
		middleware.TracedMiddleware("requestParams"),
		middleware.RequestParams(conf.RealIPHeader, cookies),
		middleware.TracedMiddleware("session"),
		middleware.ProvideSession(app.Sessions(), cookies),
		middleware.ResolveIdentity(),
		middleware.ProvideLocalizer(app),
		middleware.WithPageContext(),
		middleware.NavItems(),
	)

	app.RegisterMiddleware(middlewares...)

	handlerOpts := controllers.ErrorHandlersOptions{
		Entrypoint: options.Entrypoint,
	}
	serverInstance := server.NewHTTPServer(
		app,
		controllers.NotFound(app, handlerOpts),
		controllers.MethodNotAllowed(handlerOpts),
	)
	return serverInstance, nil
}
