package observability

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	dto "github.com/prometheus/client_model/go"
	"github.com/sandevgo/dissonance/pkg/log"
)

const (
	outcomeOK    = "ok"
	outcomeError = "error"
)

// Metrics groups the instruments for chat traffic. Each instance owns its
// registry so tests and multiple engines never collide.
type Metrics struct {
	registry *prometheus.Registry

	Requests       *prometheus.CounterVec
	ResponseTime   prometheus.Histogram
	MemoryEntries  prometheus.Gauge
	MemoryFailures prometheus.Counter
}

func NewMetrics(namespace string) *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		Requests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "chat_requests_total",
			Help:      "Chat requests by outcome.",
		}, []string{"outcome"}),
		ResponseTime: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "chat_response_seconds",
			Help:      "Time from request to the last streamed token.",
			Buckets:   []float64{0.5, 1, 2, 5, 10, 20, 45, 90, 120},
		}),
		MemoryEntries: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "memory_entries",
			Help:      "Conversation turns held in memory.",
		}),
		MemoryFailures: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "memory_failures_total",
			Help:      "Memory store or query calls that failed and were skipped.",
		}),
	}
}

func (m *Metrics) ObserveRequest(d time.Duration, err error) {
	outcome := outcomeOK
	if err != nil {
		outcome = outcomeError
	}
	m.Requests.WithLabelValues(outcome).Inc()
	if err == nil {
		m.ResponseTime.Observe(d.Seconds())
	}
}

// Snapshot is a point-in-time summary for display.
type Snapshot struct {
	TotalRequests   int
	Errors          int
	AvgResponseTime time.Duration
	MemoryEntries   int
}

func (m *Metrics) Snapshot() (Snapshot, error) {
	families, err := m.registry.Gather()
	if err != nil {
		return Snapshot{}, err
	}

	var s Snapshot
	for _, mf := range families {
		switch {
		case hasSuffix(mf, "chat_requests_total"):
			for _, metric := range mf.GetMetric() {
				n := int(metric.GetCounter().GetValue())
				s.TotalRequests += n
				if labelValue(metric, "outcome") == outcomeError {
					s.Errors += n
				}
			}
		case hasSuffix(mf, "chat_response_seconds"):
			for _, metric := range mf.GetMetric() {
				h := metric.GetHistogram()
				if c := h.GetSampleCount(); c > 0 {
					s.AvgResponseTime = time.Duration(h.GetSampleSum() / float64(c) * float64(time.Second))
				}
			}
		case hasSuffix(mf, "memory_entries"):
			for _, metric := range mf.GetMetric() {
				s.MemoryEntries = int(metric.GetGauge().GetValue())
			}
		}
	}
	return s, nil
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func hasSuffix(mf *dto.MetricFamily, name string) bool {
	return strings.HasSuffix(mf.GetName(), name)
}

func labelValue(m *dto.Metric, name string) string {
	for _, lp := range m.GetLabel() {
		if lp.GetName() == name {
			return lp.GetValue()
		}
	}
	return ""
}

// Server exposes /metrics over HTTP while a chat session runs.
type Server struct {
	srv *http.Server
}

func NewServer(addr string, m *Metrics) *Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	return &Server{srv: &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}}
}

func (s *Server) Start(ctx context.Context) error {
	log.FromCtx(ctx).Info().Str("addr", s.srv.Addr).Msg("metrics server listening")
	if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
	defer cancel()
	return s.srv.Shutdown(ctx)
}
