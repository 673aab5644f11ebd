package uxconfig

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	lookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "ats_console",
		Subsystem: "ux_config_cache",
		Name:      "lookups_total",
		Help:      "UX config cache lookups broken down by hit or miss.",
	}, []string{"result"})

	fetches = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "ats_console",
		Subsystem: "ux_config_cache",
		Name:      "fetches_total",
		Help:      "Backend fetches issued by the UX config cache broken down by result.",
	}, []string{"result"})

	invalidations = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "ats_console",
		Subsystem: "ux_config_cache",
		Name:      "invalidations_total",
		Help:      "UX config cache entries invalidated.",
	})
)
