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

// Package push receives task push notifications sent by a remote agent.
//
// The listener is a side channel: it reports verified notifications through
// a callback and never touches the state of an ongoing turn.
package push

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/a2aproject/a2a-go/a2a"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// NotifyPath is the route notifications are delivered to.
const NotifyPath = "/notify"

// maxBodySize bounds a notification payload.
const maxBodySize = 1 << 20

// Delivery results reported to the metrics recorder.
const (
	ResultAccepted = "accepted"
	ResultRejected = "rejected"
	ResultInvalid  = "invalid"
)

// Authenticator checks a notification's Authorization header against its body.
type Authenticator interface {
	Verify(ctx context.Context, authorization string, body []byte) error
}

// MetricsRecorder counts notification deliveries by result.
type MetricsRecorder interface {
	RecordPushNotification(ctx context.Context, result string)
}

// Notification is a verified task update.
type Notification struct {
	Task       *a2a.Task
	ReceivedAt time.Time
}

// ListenerConfig configures a Listener.
type ListenerConfig struct {
	// Addr is the host:port to bind.
	Addr string

	// Authenticator verifies every POST. Required.
	Authenticator Authenticator

	// OnNotify is called for every verified notification.
	OnNotify func(Notification)

	// Metrics is optional.
	Metrics MetricsRecorder
}

// Listener serves the push-notification webhook.
type Listener struct {
	config ListenerConfig

	mu       sync.Mutex
	listener net.Listener
	server   *http.Server
}

// NewListener creates a webhook listener.
func NewListener(cfg ListenerConfig) (*Listener, error) {
	if cfg.Addr == "" {
		return nil, fmt.Errorf("listen address is required")
	}
	if cfg.Authenticator == nil {
		return nil, fmt.Errorf("authenticator is required")
	}
	return &Listener{config: cfg}, nil
}

// Handler returns the webhook router.
func (l *Listener) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(requestLogger)

	r.Get(NotifyPath, l.handleValidation)
	r.With(middleware.AllowContentType("application/json")).Post(NotifyPath, l.handleNotification)
	return r
}

// Listen binds the configured address.
func (l *Listener) Listen() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	ln, err := net.Listen("tcp", l.config.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", l.config.Addr, err)
	}
	l.listener = ln
	l.server = &http.Server{
		Handler:           l.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	return nil
}

// Addr returns the bound address, or "" before Listen.
func (l *Listener) Addr() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.listener == nil {
		return ""
	}
	return l.listener.Addr().String()
}

// Start serves notifications until ctx is cancelled.
func (l *Listener) Start(ctx context.Context) error {
	if l.Addr() == "" {
		if err := l.Listen(); err != nil {
			return err
		}
	}

	l.mu.Lock()
	srv, ln := l.server, l.listener
	l.mu.Unlock()

	slog.Info("Push notification listener started", "address", ln.Addr().String(), "path", NotifyPath)

	errCh := make(chan error, 1)
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("push listener failed: %w", err)
		}
		return nil
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

// handleValidation answers the webhook ownership check by echoing the token.
func (l *Listener) handleValidation(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("validationToken")
	if token == "" {
		http.Error(w, "missing validationToken", http.StatusBadRequest)
		return
	}
	slog.Debug("Push notification validation", "token", token)
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = io.WriteString(w, token)
}

func (l *Listener) handleNotification(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodySize))
	if err != nil {
		l.record(ctx, ResultInvalid)
		http.Error(w, "failed to read body", http.StatusBadRequest)
		return
	}

	if err := l.config.Authenticator.Verify(ctx, r.Header.Get("Authorization"), body); err != nil {
		slog.Warn("Rejected push notification", "error", err)
		l.record(ctx, ResultRejected)
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	var task a2a.Task
	if err := json.Unmarshal(body, &task); err != nil {
		slog.Warn("Malformed push notification", "error", err)
		l.record(ctx, ResultInvalid)
		http.Error(w, "invalid task payload", http.StatusBadRequest)
		return
	}

	slog.Info("Push notification received", "task_id", task.ID, "state", task.Status.State)
	l.record(ctx, ResultAccepted)

	if l.config.OnNotify != nil {
		l.config.OnNotify(Notification{Task: &task, ReceivedAt: time.Now()})
	}
	w.WriteHeader(http.StatusOK)
}

func (l *Listener) record(ctx context.Context, result string) {
	if l.config.Metrics != nil {
		l.config.Metrics.RecordPushNotification(ctx, result)
	}
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		slog.Debug("Push request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start))
	})
}
