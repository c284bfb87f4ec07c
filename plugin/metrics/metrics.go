// Package metrics exports Prometheus metrics for authorization checks.
package metrics

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/xraph/routeguard"
	"github.com/xraph/routeguard/id"
	"github.com/xraph/routeguard/permission"
	"github.com/xraph/routeguard/plugin"
)

var (
	_ plugin.Plugin             = (*Collector)(nil)
	_ plugin.AfterCheck         = (*Collector)(nil)
	_ plugin.PermissionCreated  = (*Collector)(nil)
	_ plugin.PermissionAttached = (*Collector)(nil)
	_ plugin.PermissionDetached = (*Collector)(nil)
)

// Collector counts check decisions and records evaluation latency.
type Collector struct {
	registry     *prometheus.Registry
	handler      http.Handler
	checks       *prometheus.CounterVec
	duration     *prometheus.HistogramVec
	cacheHits    prometheus.Counter
	registered   prometheus.Counter
	grantChanges *prometheus.CounterVec
}

// New creates a Collector with its own registry.
func New() *Collector {
	registry := prometheus.NewRegistry()
	checks := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "routeguard_checks_total",
		Help: "Authorization checks by decision.",
	}, []string{"decision"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "routeguard_check_duration_seconds",
		Help:    "Time spent evaluating a check.",
		Buckets: []float64{0.00001, 0.00005, 0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1},
	}, []string{"allowed"})
	cacheHits := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "routeguard_check_cache_hits_total",
		Help: "Checks answered from the decision cache.",
	})
	registered := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "routeguard_permissions_registered_total",
		Help: "Permissions created through registration.",
	})
	grantChanges := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "routeguard_grant_changes_total",
		Help: "Role permission links added or removed.",
	}, []string{"op"})
	registry.MustRegister(checks, duration, cacheHits, registered, grantChanges)

	return &Collector{
		registry:     registry,
		handler:      promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		checks:       checks,
		duration:     duration,
		cacheHits:    cacheHits,
		registered:   registered,
		grantChanges: grantChanges,
	}
}

// Name implements plugin.Plugin.
func (c *Collector) Name() string { return "metrics" }

// Handler serves the collected metrics.
func (c *Collector) Handler() http.Handler { return c.handler }

// Registerer exposes the registry for additional collectors.
func (c *Collector) Registerer() prometheus.Registerer { return c.registry }

// OnAfterCheck records the decision and its latency.
func (c *Collector) OnAfterCheck(_ context.Context, _, result any) error {
	res, ok := result.(*routeguard.CheckResult)
	if !ok || res == nil {
		return nil
	}
	c.checks.WithLabelValues(string(res.Decision)).Inc()
	allowed := "false"
	if res.Allowed {
		allowed = "true"
	}
	c.duration.WithLabelValues(allowed).Observe(time.Duration(res.EvalTimeNs).Seconds())
	if res.Cached {
		c.cacheHits.Inc()
	}
	return nil
}

func (c *Collector) OnPermissionCreated(context.Context, *permission.Permission) error {
	c.registered.Inc()
	return nil
}

func (c *Collector) OnPermissionAttached(context.Context, id.RoleID, id.PermissionID) error {
	c.grantChanges.WithLabelValues("attach").Inc()
	return nil
}

func (c *Collector) OnPermissionDetached(context.Context, id.RoleID, id.PermissionID) error {
	c.grantChanges.WithLabelValues("detach").Inc()
	return nil
}
