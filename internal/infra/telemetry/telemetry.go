package telemetry

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/horuscamacho/noticias-pachuca-sub004/internal/infra/config"
)

// Provider holds the service metric handles.
type Provider struct {
	requestCounter  *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	tokensIssued    *prometheus.CounterVec
	tokensRevoked   *prometheus.CounterVec
	replaysDetected prometheus.Counter
}

// Attach registers the service metrics with the default registry and
// returns a provider handle.
func Attach(ctx context.Context, cfg *config.AppConfig) (*Provider, error) {
	return AttachWithRegisterer(ctx, cfg, prometheus.DefaultRegisterer)
}

// AttachWithRegisterer registers the service metrics with the supplied
// registerer. Tests pass a fresh registry to avoid duplicate registration.
func AttachWithRegisterer(_ context.Context, cfg *config.AppConfig, reg prometheus.Registerer) (*Provider, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is nil")
	}

	namespace := cfg.Telemetry.MetricsNamespace
	if namespace == "" {
		namespace = "auth"
	}

	factory := promauto.With(reg)

	return &Provider{
		requestCounter: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		}, []string{"method", "path", "status"}),
		requestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "path"}),
		tokensIssued: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tokens_issued_total",
			Help:      "Tokens issued, by kind",
		}, []string{"kind"}),
		tokensRevoked: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tokens_revoked_total",
			Help:      "Tokens revoked, by reason",
		}, []string{"reason"}),
		replaysDetected: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "refresh_replays_detected_total",
			Help:      "Refresh token replay attempts that triggered family revocation",
		}),
	}, nil
}

// RequestCounter exposes the HTTP request metric.
func (p *Provider) RequestCounter() *prometheus.CounterVec {
	if p == nil {
		return nil
	}
	return p.requestCounter
}

// RequestDuration exposes the HTTP latency histogram.
func (p *Provider) RequestDuration() *prometheus.HistogramVec {
	if p == nil {
		return nil
	}
	return p.requestDuration
}

// TokenIssued increments the issuance counter for a token kind.
func (p *Provider) TokenIssued(kind string) {
	if p == nil {
		return
	}
	p.tokensIssued.WithLabelValues(kind).Inc()
}

// TokensRevoked adds to the revocation counter for a reason.
func (p *Provider) TokensRevoked(reason string, count int) {
	if p == nil || count <= 0 {
		return
	}
	p.tokensRevoked.WithLabelValues(reason).Add(float64(count))
}

// ReplayDetected increments the refresh replay counter.
func (p *Provider) ReplayDetected() {
	if p == nil {
		return
	}
	p.replaysDetected.Inc()
}
