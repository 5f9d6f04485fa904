package metrics

import (
	"net/http"

	"github.com/H420Prajyot/Matrix/apiserver/internal/lib/restmachinery"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "matrix"

// Label values reported with the counters below.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"

	LoginMethodLocal = "local"
	LoginMethodOIDC  = "oidc"

	RejectionNoSession      = "no_session"
	RejectionUserNotFound   = "user_not_found"
	RejectionSessionExpired = "session_expired"
	RejectionRefreshFailed  = "refresh_failed"
	RejectionInactive      = "inactive"
	RejectionForbidden     = "forbidden"
)

// Metrics counts notable events in the authentication subsystem.
type Metrics struct {
	logins         *prometheus.CounterVec
	tokenRefreshes *prometheus.CounterVec
	gateRejections *prometheus.CounterVec
}

// New returns Metrics registered with the provided registry.
func New(registry prometheus.Registerer) *Metrics {
	factory := promauto.With(registry)
	return &Metrics{
		logins: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "logins_total",
				Help:      "Total login attempts by method and outcome.",
			},
			[]string{"method", "outcome"},
		),
		tokenRefreshes: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "token_refreshes_total",
				Help:      "Total OAuth2 refresh grant attempts by outcome.",
			},
			[]string{"outcome"},
		),
		gateRejections: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "gate_rejections_total",
				Help:      "Total requests rejected by the access control gate, by reason.", // nolint: lll
			},
			[]string{"reason"},
		),
	}
}

// CountLogin counts one login attempt.
func (m *Metrics) CountLogin(method, outcome string) {
	m.logins.WithLabelValues(method, outcome).Inc()
}

// CountTokenRefresh counts one refresh grant attempt.
func (m *Metrics) CountTokenRefresh(outcome string) {
	m.tokenRefreshes.WithLabelValues(outcome).Inc()
}

// CountGateRejection counts one request rejected by the access control gate.
func (m *Metrics) CountGateRejection(reason string) {
	m.gateRejections.WithLabelValues(reason).Inc()
}

type endpoints struct {
	registry *prometheus.Registry
}

// NewEndpoints returns a collection of REST API endpoints that exposes the
// contents of the provided metrics registry in Prometheus exposition format.
func NewEndpoints(registry *prometheus.Registry) restmachinery.Endpoints {
	return &endpoints{registry: registry}
}

func (e *endpoints) Register(router *mux.Router) {
	router.Handle(
		"/metrics",
		promhttp.HandlerFor(e.registry, promhttp.HandlerOpts{}),
	).Methods(http.MethodGet)
}
