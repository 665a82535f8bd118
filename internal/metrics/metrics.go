// Package metrics records graph runtime events with Prometheus.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/vk/flowgridgo/internal/graph"
)

// Recorder implements graph.Observer on a private Prometheus registry.
type Recorder struct {
	registry *prometheus.Registry

	Registrations   *prometheus.CounterVec
	FlowsStarted    *prometheus.CounterVec
	Redirects       *prometheus.CounterVec
	RoutinesSpawned *prometheus.CounterVec
}

var _ graph.Observer = (*Recorder)(nil)

// NewRecorder creates a recorder with all metrics registered.
func NewRecorder() *Recorder {
	r := &Recorder{registry: prometheus.NewRegistry()}
	factory := promauto.With(r.registry)

	r.Registrations = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "flowgrid_registrations_total",
			Help: "Node registrations by node type and result",
		},
		[]string{"type", "result"},
	)
	r.FlowsStarted = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "flowgrid_flows_started_total",
			Help: "Flows started by the type of the triggered node",
		},
		[]string{"type"},
	)
	r.Redirects = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "flowgrid_stale_redirects_total",
			Help: "Calls on superseded nodes by whether a live substitute was found",
		},
		[]string{"outcome"},
	)
	r.RoutinesSpawned = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "flowgrid_routines_spawned_total",
			Help: "Suspended routines handed to the host",
		},
		[]string{"routine"},
	)
	return r
}

func (r *Recorder) Registered(o *graph.NodeObject, err error) {
	result := "ok"
	if err != nil {
		result = "failed"
	}
	r.Registrations.WithLabelValues(o.TypeName, result).Inc()
}

func (r *Recorder) FlowStarted(o *graph.NodeObject) {
	r.FlowsStarted.WithLabelValues(o.TypeName).Inc()
}

func (r *Recorder) Redirected(_ *graph.NodeObject, found bool) {
	outcome := "redirected"
	if !found {
		outcome = "dropped"
	}
	r.Redirects.WithLabelValues(outcome).Inc()
}

func (r *Recorder) RoutineSpawned(label string) {
	r.RoutinesSpawned.WithLabelValues(label).Inc()
}

// Gatherer exposes the underlying registry.
func (r *Recorder) Gatherer() prometheus.Gatherer { return r.registry }

// Handler serves the metrics in the Prometheus text format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}
