// Package observability exports stream and delivery metrics through an
// OpenTelemetry meter backed by a Prometheus exporter.
package observability

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"

	"viewsync/internal/logging"
)

// Metrics collects stream counters. The zero-value (disabled) collector is
// safe to call; every instrument check-guards against nil.
type Metrics struct {
	meter metric.Meter

	streamsActive  metric.Int64UpDownCounter
	streamsTotal   metric.Int64Counter
	eventsSent     metric.Int64Counter
	heartbeatsSent metric.Int64Counter

	prometheusServer *http.Server
	logger           logging.Logger
}

// NewMetrics builds the collector and, when enabled, starts the Prometheus
// scrape server on the configured port.
func NewMetrics(cfg Config, logger logging.Logger) (*Metrics, error) {
	m := &Metrics{logger: logging.OrNop(logger)}
	if !cfg.Enabled {
		return m, nil
	}

	exporter, err := prometheus.New()
	if err != nil {
		return nil, fmt.Errorf("create prometheus exporter: %w", err)
	}
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(exporter))
	otel.SetMeterProvider(provider)
	m.meter = provider.Meter("viewsync")

	if m.streamsActive, err = m.meter.Int64UpDownCounter(
		"viewsync.sse.streams.active",
		metric.WithDescription("Currently connected display clients"),
		metric.WithUnit("{stream}"),
	); err != nil {
		return nil, fmt.Errorf("create streams_active counter: %w", err)
	}
	if m.streamsTotal, err = m.meter.Int64Counter(
		"viewsync.sse.streams.total",
		metric.WithDescription("Total stream connections accepted"),
		metric.WithUnit("{stream}"),
	); err != nil {
		return nil, fmt.Errorf("create streams_total counter: %w", err)
	}
	if m.eventsSent, err = m.meter.Int64Counter(
		"viewsync.sse.events.sent",
		metric.WithDescription("Events forwarded to stream clients"),
		metric.WithUnit("{event}"),
	); err != nil {
		return nil, fmt.Errorf("create events_sent counter: %w", err)
	}
	if m.heartbeatsSent, err = m.meter.Int64Counter(
		"viewsync.sse.heartbeats.sent",
		metric.WithDescription("Heartbeat frames emitted on idle streams"),
		metric.WithUnit("{frame}"),
	); err != nil {
		return nil, fmt.Errorf("create heartbeats_sent counter: %w", err)
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	m.prometheusServer = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.PrometheusPort),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		m.logger.Info("Prometheus metrics listening on %s/metrics", m.prometheusServer.Addr)
		if err := m.prometheusServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			m.logger.Warn("Metrics server stopped: %v", err)
		}
	}()

	return m, nil
}

// StreamOpened records a new stream connection.
func (m *Metrics) StreamOpened(ctx context.Context) {
	if m == nil || m.streamsActive == nil {
		return
	}
	m.streamsActive.Add(ctx, 1)
	m.streamsTotal.Add(ctx, 1)
}

// StreamClosed records a stream disconnect.
func (m *Metrics) StreamClosed(ctx context.Context) {
	if m == nil || m.streamsActive == nil {
		return
	}
	m.streamsActive.Add(ctx, -1)
}

// EventForwarded records one event frame written to a client, tagged by
// event type.
func (m *Metrics) EventForwarded(ctx context.Context, eventType string) {
	if m == nil || m.eventsSent == nil {
		return
	}
	m.eventsSent.Add(ctx, 1, metric.WithAttributes(attribute.String("event.type", eventType)))
}

// HeartbeatSent records one heartbeat frame.
func (m *Metrics) HeartbeatSent(ctx context.Context) {
	if m == nil || m.heartbeatsSent == nil {
		return
	}
	m.heartbeatsSent.Add(ctx, 1)
}

// Shutdown stops the scrape server.
func (m *Metrics) Shutdown(ctx context.Context) {
	if m == nil || m.prometheusServer == nil {
		return
	}
	if err := m.prometheusServer.Shutdown(ctx); err != nil {
		m.logger.Warn("Metrics server shutdown: %v", err)
	}
}
