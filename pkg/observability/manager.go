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
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// Manager owns the tracer provider, the metrics instruments and the scrape
// endpoint for the lifetime of the process.
type Manager struct {
	config Config

	mu             sync.Mutex
	tracerProvider *sdktrace.TracerProvider
	metrics        *PrometheusMetrics
	server         *http.Server
	listener       net.Listener
}

// NewManager creates a manager; call Initialize before use.
func NewManager(cfg Config) *Manager {
	cfg.SetDefaults()
	return &Manager{config: cfg}
}

// Initialize sets up tracing and metrics according to the config.
func (m *Manager) Initialize(ctx context.Context, opts ...TracerOption) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	tp, err := InitTracer(ctx, m.config.Tracing, opts...)
	if err != nil {
		return err
	}
	m.tracerProvider = tp

	if m.config.Metrics.Enabled() {
		metrics, err := NewPrometheusMetrics()
		if err != nil {
			return err
		}
		m.metrics = metrics
	}
	return nil
}

// Metrics returns the metrics recorder, or nil when metrics are disabled.
func (m *Manager) Metrics() *PrometheusMetrics {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.metrics
}

// Listen binds the scrape endpoint. It is a no-op when metrics are disabled.
func (m *Manager) Listen() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.metrics == nil {
		return nil
	}

	ln, err := net.Listen("tcp", m.config.Metrics.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", m.config.Metrics.Addr, err)
	}
	m.listener = ln

	r := chi.NewRouter()
	r.Handle(m.config.Metrics.Path, m.metrics.Handler())
	m.server = &http.Server{
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return nil
}

// Addr returns the bound scrape address, or "" before Listen.
func (m *Manager) Addr() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.listener == nil {
		return ""
	}
	return m.listener.Addr().String()
}

// Serve runs the scrape endpoint until ctx is cancelled. It returns
// immediately when metrics are disabled.
func (m *Manager) Serve(ctx context.Context) error {
	if m.Addr() == "" {
		if err := m.Listen(); err != nil {
			return err
		}
	}

	m.mu.Lock()
	srv, ln := m.server, m.listener
	m.mu.Unlock()

	if srv == nil {
		return nil
	}

	slog.Info("Metrics endpoint listening", "address", ln.Addr().String(), "path", m.config.Metrics.Path)

	errCh := make(chan error, 1)
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

// Shutdown flushes pending spans and metrics.
func (m *Manager) Shutdown(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	var errs []error
	if m.tracerProvider != nil {
		if err := m.tracerProvider.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("tracer shutdown: %w", err))
		}
	}
	if m.metrics != nil {
		if err := m.metrics.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("metrics shutdown: %w", err))
		}
	}
	return errors.Join(errs...)
}
