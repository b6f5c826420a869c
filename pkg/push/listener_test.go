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

package push

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/a2aproject/a2a-go/a2a"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticAuthenticator struct {
	err error
}

func (a staticAuthenticator) Verify(context.Context, string, []byte) error {
	return a.err
}

type recordingMetrics struct {
	mu      sync.Mutex
	results []string
}

func (m *recordingMetrics) RecordPushNotification(_ context.Context, result string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.results = append(m.results, result)
}

func (m *recordingMetrics) snapshot() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.results...)
}

func newTestListener(t *testing.T, auth Authenticator) (*httptest.Server, *recordingMetrics, *[]Notification) {
	t.Helper()

	var (
		mu       sync.Mutex
		received []Notification
	)
	metrics := &recordingMetrics{}
	l, err := NewListener(ListenerConfig{
		Addr:          "127.0.0.1:0",
		Authenticator: auth,
		Metrics:       metrics,
		OnNotify: func(n Notification) {
			mu.Lock()
			defer mu.Unlock()
			received = append(received, n)
		},
	})
	require.NoError(t, err)

	server := httptest.NewServer(l.Handler())
	t.Cleanup(server.Close)
	return server, metrics, &received
}

func taskBody(t *testing.T) []byte {
	t.Helper()
	body, err := json.Marshal(&a2a.Task{
		ID:        "task-1",
		ContextID: "ctx-1",
		Status:    a2a.TaskStatus{State: a2a.TaskStateCompleted},
	})
	require.NoError(t, err)
	return body
}

func TestNewListener_Validation(t *testing.T) {
	_, err := NewListener(ListenerConfig{Authenticator: staticAuthenticator{}})
	assert.Error(t, err)

	_, err = NewListener(ListenerConfig{Addr: "127.0.0.1:0"})
	assert.Error(t, err)
}

func TestListener_ValidationToken(t *testing.T) {
	server, _, _ := newTestListener(t, staticAuthenticator{})

	resp, err := http.Get(server.URL + NotifyPath + "?validationToken=abc123")
	require.NoError(t, err)
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "abc123", string(body))

	missing, err := http.Get(server.URL + NotifyPath)
	require.NoError(t, err)
	defer missing.Body.Close()
	assert.Equal(t, http.StatusBadRequest, missing.StatusCode)
}

func TestListener_Notification(t *testing.T) {
	server, metrics, received := newTestListener(t, staticAuthenticator{})

	resp, err := http.Post(server.URL+NotifyPath, "application/json", bytes.NewReader(taskBody(t)))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	require.Len(t, *received, 1)
	assert.Equal(t, a2a.TaskID("task-1"), (*received)[0].Task.ID)
	assert.Equal(t, a2a.TaskStateCompleted, (*received)[0].Task.Status.State)
	assert.Equal(t, []string{ResultAccepted}, metrics.snapshot())
}

func TestListener_Rejected(t *testing.T) {
	server, metrics, received := newTestListener(t, staticAuthenticator{err: ErrBodyMismatch})

	resp, err := http.Post(server.URL+NotifyPath, "application/json", bytes.NewReader(taskBody(t)))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Empty(t, *received)
	assert.Equal(t, []string{ResultRejected}, metrics.snapshot())
}

func TestListener_MalformedPayload(t *testing.T) {
	server, metrics, received := newTestListener(t, staticAuthenticator{})

	resp, err := http.Post(server.URL+NotifyPath, "application/json", strings.NewReader(`[1,2,3]`))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Empty(t, *received)
	assert.Equal(t, []string{ResultInvalid}, metrics.snapshot())
}

func TestListener_WrongContentType(t *testing.T) {
	server, _, received := newTestListener(t, staticAuthenticator{})

	resp, err := http.Post(server.URL+NotifyPath, "text/plain", bytes.NewReader(taskBody(t)))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusUnsupportedMediaType, resp.StatusCode)
	assert.Empty(t, *received)
}

func TestListener_EndToEndWithVerifier(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	privateKey := generateRSAKey(t)
	verifier, err := NewVerifier(ctx, newJWKSServer(t, createJWKS(t, &privateKey.PublicKey)))
	require.NoError(t, err)

	server, _, received := newTestListener(t, verifier)
	body := taskBody(t)

	req, err := http.NewRequest(http.MethodPost, server.URL+NotifyPath, bytes.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+signNotification(t, privateKey, time.Now(), body))

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, *received, 1)
}

func TestListener_StartAndShutdown(t *testing.T) {
	l, err := NewListener(ListenerConfig{Addr: "127.0.0.1:0", Authenticator: staticAuthenticator{}})
	require.NoError(t, err)
	require.NoError(t, l.Listen())
	addr := l.Addr()
	require.NotEmpty(t, addr)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- l.Start(ctx) }()

	resp, err := http.Get("http://" + addr + NotifyPath + "?validationToken=ping")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, "ping", string(body))

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("listener did not shut down")
	}
}

func TestListener_ListenError(t *testing.T) {
	l, err := NewListener(ListenerConfig{Addr: "256.0.0.1:bad", Authenticator: staticAuthenticator{}})
	require.NoError(t, err)

	err = l.Start(context.Background())
	require.Error(t, err)
	assert.False(t, errors.Is(err, context.Canceled))
}
