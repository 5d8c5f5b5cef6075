// Package pocketmetrics records discovery and signal metrics in a Prometheus registry.
package pocketmetrics

import (
	"github.com/SyNdicateFoundation/pockethost/gateway"
	"github.com/SyNdicateFoundation/pockethost/pockettypes"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Registry holds the helper's metrics. It observes discovery attempts and
// counts emitted signals.
type Registry struct {
	reg *prometheus.Registry

	DiscoveryTotal    *prometheus.CounterVec
	DiscoveryDuration *prometheus.HistogramVec
	SignalsTotal      *prometheus.CounterVec
}

func New() *Registry {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Registry{
		reg: reg,
		DiscoveryTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pockethost_gateway_discovery_total",
				Help: "Gateway discovery attempts by outcome",
			},
			[]string{"interface", "outcome"},
		),
		DiscoveryDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "pockethost_gateway_discovery_duration_seconds",
				Help:    "Time from attempt start to its result",
				Buckets: prometheus.ExponentialBuckets(0.0005, 2, 14), // 0.5ms to ~4s
			},
			[]string{"outcome"},
		),
		SignalsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pockethost_signals_emitted_total",
				Help: "Signals emitted to the host application",
			},
			[]string{"signal"},
		),
	}
}

// ObserveDiscovery implements gateway.Observer.
func (r *Registry) ObserveDiscovery(res gateway.Result) {
	outcome := res.Outcome.String()
	r.DiscoveryTotal.WithLabelValues(res.Interface.Name, outcome).Inc()
	r.DiscoveryDuration.WithLabelValues(outcome).Observe(res.Elapsed.Seconds())
}

// Emit counts e. It satisfies notify.Emitter so it can sit in a fan-out.
func (r *Registry) Emit(e pockettypes.Event) {
	r.SignalsTotal.WithLabelValues(e.Name).Inc()
}

// WriteTextfile writes every metric to path in the text exposition format,
// for collection by node_exporter's textfile collector.
func (r *Registry) WriteTextfile(path string) error {
	if path == "" {
		return errors.New("metrics textfile path cannot be empty")
	}
	return errors.Wrapf(prometheus.WriteToTextfile(path, r.reg), "write metrics to %s", path)
}
