package prometheus

import (
	"net/http"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/RichardKnop/agentrouter"
)

const namespace = "agentrouter"

// Adapter records routing, agent and ingest metrics in its own registry.
type Adapter struct {
	registry *prom.Registry

	routesTotal   *prom.CounterVec
	routeDuration *prom.HistogramVec
	agentDuration *prom.HistogramVec
	agentFailures *prom.CounterVec
	ingestsTotal  *prom.CounterVec
	chunksIndexed prom.Counter
}

type Option func(*Adapter)

// WithRuntimeCollectors adds the Go runtime and process collectors.
func WithRuntimeCollectors() Option {
	return func(a *Adapter) {
		a.registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}
}

func New(options ...Option) *Adapter {
	registry := prom.NewRegistry()
	factory := promauto.With(registry)

	a := &Adapter{
		registry: registry,
		routesTotal: factory.NewCounterVec(
			prom.CounterOpts{
				Namespace: namespace,
				Name:      "routes_total",
				Help:      "Total number of routing decisions by chosen agent and outcome",
			},
			[]string{"agent", "outcome"},
		),
		routeDuration: factory.NewHistogramVec(
			prom.HistogramOpts{
				Namespace: namespace,
				Name:      "route_duration_seconds",
				Help:      "Duration of routing decisions in seconds",
				Buckets:   prom.ExponentialBuckets(0.005, 2, 10),
			},
			[]string{"agent"},
		),
		agentDuration: factory.NewHistogramVec(
			prom.HistogramOpts{
				Namespace: namespace,
				Name:      "agent_duration_seconds",
				Help:      "Duration of agent handler runs in seconds",
				Buckets:   prom.ExponentialBuckets(0.05, 2, 10),
			},
			[]string{"agent"},
		),
		agentFailures: factory.NewCounterVec(
			prom.CounterOpts{
				Namespace: namespace,
				Name:      "agent_failures_total",
				Help:      "Total number of failed agent handler runs",
			},
			[]string{"agent"},
		),
		ingestsTotal: factory.NewCounterVec(
			prom.CounterOpts{
				Namespace: namespace,
				Name:      "ingests_total",
				Help:      "Total number of document ingests by status",
			},
			[]string{"status"},
		),
		chunksIndexed: factory.NewCounter(
			prom.CounterOpts{
				Namespace: namespace,
				Name:      "chunks_indexed_total",
				Help:      "Total number of chunks written to the index",
			},
		),
	}

	for _, o := range options {
		o(a)
	}

	return a
}

const adapterName = "prometheus"

func (a *Adapter) Name() string {
	return adapterName
}

// Handler serves the registry in the Prometheus exposition format.
func (a *Adapter) Handler() http.Handler {
	return promhttp.HandlerFor(a.registry, promhttp.HandlerOpts{Registry: a.registry})
}

func (a *Adapter) RecordRoute(agent string, outcome agentrouter.RouteOutcome, elapsed time.Duration) {
	a.routesTotal.WithLabelValues(agent, string(outcome)).Inc()
	a.routeDuration.WithLabelValues(agent).Observe(elapsed.Seconds())
}

func (a *Adapter) RecordAgent(agent string, elapsed time.Duration, err error) {
	a.agentDuration.WithLabelValues(agent).Observe(elapsed.Seconds())
	if err != nil {
		a.agentFailures.WithLabelValues(agent).Inc()
	}
}

func (a *Adapter) RecordIngest(status agentrouter.IngestStatus, chunks int) {
	a.ingestsTotal.WithLabelValues(string(status)).Inc()
	if chunks > 0 {
		a.chunksIndexed.Add(float64(chunks))
	}
}
