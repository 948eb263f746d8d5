// Package metrics holds the Prometheus collectors exported at /metrics.
package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "ridebook"

// Recorder records service events. A nil *Recorder is a no-op.
type Recorder struct {
	usersCreated   prometheus.Counter
	ridesSubmitted prometheus.Counter
	statusChanges  *prometheus.CounterVec
	httpRequests   *prometheus.CounterVec
}

// NewRecorder registers the collectors with reg.
func NewRecorder(reg prometheus.Registerer) *Recorder {
	factory := promauto.With(reg)
	return &Recorder{
		usersCreated: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "users_created_total",
			Help:      "User profiles created.",
		}),
		ridesSubmitted: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rides_submitted_total",
			Help:      "Ride requests accepted.",
		}),
		statusChanges: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ride_status_changes_total",
			Help:      "Ride status transitions applied.",
		}, []string{"from", "to"}),
		httpRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route and status code.",
		}, []string{"method", "route", "status"}),
	}
}

// UserCreated counts a created profile.
func (r *Recorder) UserCreated() {
	if r == nil {
		return
	}
	r.usersCreated.Inc()
}

// RideSubmitted counts an accepted ride request.
func (r *Recorder) RideSubmitted() {
	if r == nil {
		return
	}
	r.ridesSubmitted.Inc()
}

// StatusChanged counts a ride status transition.
func (r *Recorder) StatusChanged(from, to string) {
	if r == nil {
		return
	}
	r.statusChanges.WithLabelValues(from, to).Inc()
}

// HTTPRequest counts a served request.
func (r *Recorder) HTTPRequest(method, route string, status int) {
	if r == nil {
		return
	}
	r.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
}
