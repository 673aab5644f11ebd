package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"

	"github.com/iota-uz/ats-console/internal/server"
	"github.com/iota-uz/ats-console/modules"
	"github.com/iota-uz/ats-console/modules/core/presentation/controllers"
	"github.com/iota-uz/ats-console/pkg/application"
	"github.com/iota-uz/ats-console/pkg/backend"
	"github.com/iota-uz/ats-console/pkg/configuration"
	"github.com/iota-uz/ats-console/pkg/invalidation"
	"github.com/iota-uz/ats-console/pkg/logging"
	"github.com/iota-uz/ats-console/pkg/metrics"
	"github.com/iota-uz/ats-console/pkg/session"
)

func main() {
	defer func() {
		if r := recover(); r != nil {
			configuration.Use().Unload()
			log.Println(r)
			debug.PrintStack()
			os.Exit(1)
		}
	}()

	conf := configuration.Use()
	defer conf.Unload()
	logger := conf.Logger()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if conf.OpenTelemetry.Enabled {
		tracingCleanup := logging.SetupTracing(ctx, conf.OpenTelemetry.ServiceName, conf.OpenTelemetry.TempoURL)
		defer tracingCleanup()
		logger.Info("OpenTelemetry tracing enabled, exporting to Tempo at " + conf.OpenTelemetry.TempoURL)
	}

	client, err := backend.New(
		conf.Backend.APIURL,
		backend.WithTimeout(conf.Backend.Timeout),
		backend.WithRequestIDHeader(conf.RequestIDHeader),
	)
	if err != nil {
		log.Fatalf("failed to create backend client: %v", err)
	}

	bus := newBus(ctx, conf, logger)
	sessions := session.NewManager(session.Options{
		Backend: client,
		Bus:     bus,
		IdleTTL: conf.Session.IdleTTL,
		UXTTL:   conf.Session.UXCacheTTL,
		Logger:  logger,
	})
	sessions.Start()
	defer sessions.Stop()

	hub := application.NewHub(&application.HuberOptions{
		Logger: logger,
		Bus:    bus,
		CheckOrigin: func(r *http.Request) bool {
			return true
		},
	})
	defer hub.Close()

	app := application.New(&application.ApplicationOptions{
		Logger:   logger,
		Bus:      bus,
		Sessions: sessions,
		Huber:    hub,
	})
	if err := modules.Load(app, modules.BuiltInModules(conf)...); err != nil {
		log.Fatalf("failed to load modules: %v", err)
	}

	app.RegisterNavItems(modules.NavLinks...)
	app.RegisterControllers(
		controllers.NewStaticFilesController(app.HashFsAssets(), conf.GoAppEnvironment == configuration.Production),
	)

	var httpMetrics *metrics.HTTP
	if conf.Prometheus.Enabled {
		httpMetrics = metrics.NewHTTP(prometheus.DefaultRegisterer)
		metrics.RegisterGauges(prometheus.DefaultRegisterer, sessions.Len, hub.ConnectionsCount)
		app.RegisterControllers(metrics.NewPrometheusController(conf.Prometheus.Path, nil))
	}

	serverInstance, err := server.Default(&server.DefaultOptions{
		Logger:        logger,
		Configuration: conf,
		Application:   app,
		Metrics:       httpMetrics,
		Entrypoint:    "server",
	})
	if err != nil {
		log.Fatalf("failed to create server: %v", err)
	}
	log.Printf("Listening on: %s\n", conf.Origin)
	if err := serverInstance.Serve(ctx, conf.SocketAddress); err != nil {
		log.Fatalf("failed to start server: %v", err)
	}
}

// newBus returns the in-process invalidation bus, relayed through Redis when
// INVALIDATION_REDIS_URL is set so rollbacks reach every console instance.
func newBus(ctx context.Context, conf *configuration.Configuration, logger *logrus.Logger) invalidation.Bus {
	local := invalidation.NewLocalBus(logger)
	if conf.Invalidation.RedisURL == "" {
		return local
	}
	redisClient, err := invalidation.NewRedisClient(conf.Invalidation.RedisURL)
	if err != nil {
		logger.WithError(err).Warn("invalidation relay disabled")
		return local
	}
	relay := invalidation.NewRedisRelay(local, redisClient, conf.Invalidation.Channel, logger)
	go func() {
		if err := relay.Run(ctx); err != nil {
			logger.WithError(err).Error("invalidation relay stopped")
		}
	}()
	return relay
}
