// Copyright 2025 Kadir Pekel
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package observability

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/a2aproject/a2a-go/a2a"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel/attribute"
	otelprom "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

// PrometheusMetrics records conversation metrics through an OpenTelemetry
// meter backed by a private Prometheus registry.
//
// A nil *PrometheusMetrics is valid and records nothing.
type PrometheusMetrics struct {
	provider *sdkmetric.MeterProvider
	registry *prometheus.Registry

	turns             metric.Int64Counter
	turnDuration      metric.Float64Histogram
	statusChanges     metric.Int64Counter
	pushNotifications metric.Int64Counter
}

// NewPrometheusMetrics creates the meter provider and all instruments.
func NewPrometheusMetrics() (*PrometheusMetrics, error) {
	registry := prometheus.NewRegistry()

	exporter, err := otelprom.New(otelprom.WithRegisterer(registry))
	if err != nil {
		return nil, fmt.Errorf("failed to create prometheus exporter: %w", err)
	}

	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(exporter))
	meter := provider.Meter(MeterName)

	turns, err := meter.Int64Counter(
		MetricTurns,
		metric.WithDescription("Conversational turns by outcome"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create turns counter: %w", err)
	}

	turnDuration, err := meter.Float64Histogram(
		MetricTurnDuration,
		metric.WithDescription("Time from sending a message to resolving the agent response"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create turn duration histogram: %w", err)
	}

	statusChanges, err := meter.Int64Counter(
		MetricStatusChanges,
		metric.WithDescription("Task status transitions observed while streaming"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create status changes counter: %w", err)
	}

	pushNotifications, err := meter.Int64Counter(
		MetricPushNotifyTotal,
		metric.WithDescription("Push notifications received by verification result"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create push notifications counter: %w", err)
	}

	return &PrometheusMetrics{
		provider:          provider,
		registry:          registry,
		turns:             turns,
		turnDuration:      turnDuration,
		statusChanges:     statusChanges,
		pushNotifications: pushNotifications,
	}, nil
}

// RecordTurn counts a finished turn. Quit turns carry no duration.
func (m *PrometheusMetrics) RecordTurn(ctx context.Context, outcome string, d time.Duration) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(attribute.String(AttrOutcome, outcome))
	m.turns.Add(ctx, 1, attrs)
	if d > 0 {
		m.turnDuration.Record(ctx, d.Seconds(), attrs)
	}
}

// RecordStatusChange counts a displayed task status transition.
func (m *PrometheusMetrics) RecordStatusChange(ctx context.Context, state a2a.TaskState) {
	if m == nil {
		return
	}
	m.statusChanges.Add(ctx, 1, metric.WithAttributes(attribute.String(AttrTaskState, string(state))))
}

// RecordPushNotification counts a received push notification.
func (m *PrometheusMetrics) RecordPushNotification(ctx context.Context, result string) {
	if m == nil {
		return
	}
	m.pushNotifications.Add(ctx, 1, metric.WithAttributes(attribute.String(AttrPushResult, result)))
}

// Handler serves the registry in the Prometheus exposition format.
func (m *PrometheusMetrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Shutdown flushes and stops the meter provider.
func (m *PrometheusMetrics) Shutdown(ctx context.Context) error {
	if m == nil {
		return nil
	}
	return m.provider.Shutdown(ctx)
}
