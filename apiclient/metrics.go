package apiclient

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Refresh outcomes recorded on counters_client_token_refresh_total.
const (
	refreshSuccess = "success"
	refreshInvalid = "invalid"
	refreshFailed  = "failed"
	refreshMissing = "no_token"
)

type Metrics struct {
	requests      *prometheus.CounterVec
	duration      *prometheus.HistogramVec
	refreshes     *prometheus.CounterVec
	forcedLogouts prometheus.Counter
}

// NewMetrics registers the client collectors on reg. Registering twice on the
// same registry panics, as with promauto.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		requests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "counters_client_requests_total", Help: "Backend calls by method and status code (0 for transport errors)",
		}, []string{"method", "code"}),
		duration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name: "counters_client_request_duration_seconds", Help: "Backend call latency",
			Buckets: prometheus.DefBuckets,
		}, []string{"method"}),
		refreshes: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "counters_client_token_refresh_total", Help: "Token refresh attempts by result",
		}, []string{"result"}),
		forcedLogouts: factory.NewCounter(prometheus.CounterOpts{
			Name: "counters_client_forced_logout_total", Help: "Sessions dropped after unrecoverable auth failures",
		}),
	}
}

func (m *Metrics) observeRequest(method string, code int, elapsed time.Duration) {
	m.requests.WithLabelValues(method, strconv.Itoa(code)).Inc()
	m.duration.WithLabelValues(method).Observe(elapsed.Seconds())
}

func (m *Metrics) observeRefresh(result string) {
	if m == nil {
		return
	}
	m.refreshes.WithLabelValues(result).Inc()
}

func (m *Metrics) observeForcedLogout() {
	if m == nil {
		return
	}
	m.forcedLogouts.Inc()
}
