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

// Package client connects to a remote A2A agent.
//
// It resolves the agent card, then builds an a2a-go JSON-RPC client whose
// HTTP transport injects the configured headers into every request,
// including the card fetch itself.
package client

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/a2aproject/a2a-go/a2a"
	"github.com/a2aproject/a2a-go/a2aclient"
	"github.com/a2aproject/a2a-go/a2aclient/agentcard"

	"github.com/kadirpekel/a2achat/pkg/chat"
)

// Options configures how the agent is reached.
type Options struct {
	// Headers are added to every request.
	Headers map[string]string

	// Timeout bounds the wait for response headers. It does not cut off
	// streaming bodies. Zero means no timeout.
	Timeout time.Duration

	// Transport is the base round tripper. Default: http.DefaultTransport.
	Transport http.RoundTripper
}

// Agent is a connected remote agent.
type Agent struct {
	card   *a2a.AgentCard
	client *a2aclient.Client
}

var _ chat.Client = (*a2aclient.Client)(nil)

// NewHTTPClient returns an HTTP client that applies opts.
func NewHTTPClient(opts Options) *http.Client {
	base := opts.Transport
	if base == nil {
		base = http.DefaultTransport
	}
	if opts.Timeout > 0 {
		if t, ok := base.(*http.Transport); ok {
			t = t.Clone()
			t.ResponseHeaderTimeout = opts.Timeout
			base = t
		}
	}
	if len(opts.Headers) > 0 {
		base = &headerTransport{base: base, headers: opts.Headers}
	}
	return &http.Client{Transport: base}
}

// ResolveCard fetches the agent card published under baseURL.
func ResolveCard(ctx context.Context, baseURL string, httpClient *http.Client) (*a2a.AgentCard, error) {
	var resolver *agentcard.Resolver
	if httpClient != nil {
		resolver = agentcard.NewResolver(httpClient)
	} else {
		resolver = agentcard.DefaultResolver
	}

	card, err := resolver.Resolve(ctx, baseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve agent card: %w", err)
	}
	return card, nil
}

// Dial resolves the agent card at baseURL and connects to the agent.
func Dial(ctx context.Context, baseURL string, opts Options) (*Agent, error) {
	httpClient := NewHTTPClient(opts)

	card, err := ResolveCard(ctx, baseURL, httpClient)
	if err != nil {
		return nil, err
	}

	client, err := a2aclient.NewFromCard(ctx, card, a2aclient.WithJSONRPCTransport(httpClient))
	if err != nil {
		return nil, fmt.Errorf("failed to create a2a client: %w", err)
	}

	return &Agent{card: card, client: client}, nil
}

// Card returns the resolved agent card.
func (a *Agent) Card() *a2a.AgentCard {
	return a.card
}

// Client returns the protocol client.
func (a *Agent) Client() *a2aclient.Client {
	return a.client
}

// SupportsStreaming reports whether the card advertises streaming.
func (a *Agent) SupportsStreaming() bool {
	return a.card.Capabilities.Streaming
}

// SupportsPush reports whether the card advertises push notifications.
func (a *Agent) SupportsPush() bool {
	return a.card.Capabilities.PushNotifications
}

// Close releases the client's resources.
func (a *Agent) Close() error {
	return a.client.Destroy()
}

// headerTransport sets fixed headers on outgoing requests.
type headerTransport struct {
	base    http.RoundTripper
	headers map[string]string
}

func (t *headerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	for k, v := range t.headers {
		req.Header.Set(k, v)
	}
	return t.base.RoundTrip(req)
}
