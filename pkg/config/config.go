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

// Package config defines the client configuration and its loading pipeline.
//
// Example configuration file:
//
//	agent:
//	  url: http://localhost:10000
//	  timeout: 30s
//	  headers:
//	    Authorization: Bearer ${AGENT_TOKEN}
//	session:
//	  history: true
//	  history_length: 10
//	push:
//	  enabled: true
//	  receiver: http://localhost:5000
//	transcript:
//	  driver: sqlite
//	  database: .a2achat/transcript.db
//	observability:
//	  metrics:
//	    addr: ":9464"
//	logger:
//	  level: warn
package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kadirpekel/a2achat/pkg/observability"
)

// Defaults.
const (
	DefaultAgentURL      = "http://localhost:10000"
	DefaultPushReceiver  = "http://localhost:5000"
	DefaultTimeout       = 30 * time.Second
	DefaultHistoryLength = 10
	DefaultMaxTokenAge   = 5 * time.Minute
	DefaultNotifyPath    = "/notify"
	DefaultJWKSPath      = "/.well-known/jwks.json"
)

// ErrInvalidHeader is returned for a header entry that is not of the form key=value.
var ErrInvalidHeader = errors.New("invalid header")

// Config is the complete client configuration.
type Config struct {
	// Agent describes the remote agent and how to reach it.
	Agent AgentConfig `yaml:"agent,omitempty" json:"agent,omitempty" jsonschema:"title=Agent"`

	// Session configures the conversation.
	Session SessionConfig `yaml:"session,omitempty" json:"session,omitempty" jsonschema:"title=Session"`

	// Push configures the push-notification receiver.
	Push PushConfig `yaml:"push,omitempty" json:"push,omitempty" jsonschema:"title=Push Notifications"`

	// Transcript configures where completed turns are recorded.
	// Recording is disabled when no driver is set.
	Transcript DatabaseConfig `yaml:"transcript,omitempty" json:"transcript,omitempty" jsonschema:"title=Transcript Store"`

	// Observability configures tracing and metrics.
	Observability observability.Config `yaml:"observability,omitempty" json:"observability,omitempty" jsonschema:"title=Observability"`

	// Logger configures diagnostics.
	Logger LoggerConfig `yaml:"logger,omitempty" json:"logger,omitempty" jsonschema:"title=Logger"`
}

// AgentConfig describes the remote agent.
type AgentConfig struct {
	// URL is the agent base URL; the agent card is fetched from it.
	// Default: http://localhost:10000
	URL string `yaml:"url,omitempty" json:"url,omitempty" jsonschema:"title=Agent URL,format=uri,default=http://localhost:10000"`

	// Headers are sent with every request to the agent.
	Headers map[string]string `yaml:"headers,omitempty" json:"headers,omitempty" jsonschema:"title=Headers"`

	// Timeout bounds non-streaming requests.
	// Default: 30s
	Timeout time.Duration `yaml:"timeout,omitempty" json:"timeout,omitempty" jsonschema:"title=Timeout,type=string,default=30s"`
}

// SessionConfig configures the conversation.
type SessionConfig struct {
	// ContextID resumes an existing conversation. A fresh one is generated when empty.
	ContextID string `yaml:"context_id,omitempty" json:"context_id,omitempty" jsonschema:"title=Context ID"`

	// History renders the task history after every turn.
	History bool `yaml:"history,omitempty" json:"history,omitempty" jsonschema:"title=Show History,default=false"`

	// HistoryLength bounds the history window.
	// Default: 10
	HistoryLength int `yaml:"history_length,omitempty" json:"history_length,omitempty" jsonschema:"title=History Length,minimum=0,default=10"`
}

// PushConfig configures the push-notification receiver.
type PushConfig struct {
	// Enabled registers a webhook with every message and starts the receiver.
	Enabled bool `yaml:"enabled,omitempty" json:"enabled,omitempty" jsonschema:"title=Enabled,default=false"`

	// Receiver is the externally reachable base URL of the receiver.
	// Its host and port are also the listen address.
	// Default: http://localhost:5000
	Receiver string `yaml:"receiver,omitempty" json:"receiver,omitempty" jsonschema:"title=Receiver URL,format=uri,default=http://localhost:5000"`

	// JWKSURL is where the agent publishes its signing keys.
	// Default: <agent url>/.well-known/jwks.json
	JWKSURL string `yaml:"jwks_url,omitempty" json:"jwks_url,omitempty" jsonschema:"title=JWKS URL,format=uri"`

	// MaxTokenAge rejects notifications whose token was issued earlier.
	// Default: 5m
	MaxTokenAge time.Duration `yaml:"max_token_age,omitempty" json:"max_token_age,omitempty" jsonschema:"title=Max Token Age,type=string,default=5m"`
}

// NotifyURL is the webhook URL registered with the agent.
func (c *PushConfig) NotifyURL() string {
	return strings.TrimSuffix(c.Receiver, "/") + DefaultNotifyPath
}

// ListenAddr is the host:port the receiver binds.
func (c *PushConfig) ListenAddr() (string, error) {
	u, err := url.Parse(c.Receiver)
	if err != nil {
		return "", fmt.Errorf("invalid receiver url: %w", err)
	}
	port := u.Port()
	if port == "" {
		port = "80"
		if u.Scheme == "https" {
			port = "443"
		}
	}
	return u.Hostname() + ":" + port, nil
}

// Default returns a configuration with defaults applied.
func Default() *Config {
	cfg := &Config{}
	cfg.SetDefaults()
	return cfg
}

// SetDefaults applies default values.
func (c *Config) SetDefaults() {
	if c.Agent.URL == "" {
		c.Agent.URL = DefaultAgentURL
	}
	if c.Agent.Timeout == 0 {
		c.Agent.Timeout = DefaultTimeout
	}
	if c.Session.HistoryLength == 0 {
		c.Session.HistoryLength = DefaultHistoryLength
	}
	if c.Push.Receiver == "" {
		c.Push.Receiver = DefaultPushReceiver
	}
	if c.Push.JWKSURL == "" {
		c.Push.JWKSURL = strings.TrimSuffix(c.Agent.URL, "/") + DefaultJWKSPath
	}
	if c.Push.MaxTokenAge == 0 {
		c.Push.MaxTokenAge = DefaultMaxTokenAge
	}
	if c.Transcript.Enabled() {
		c.Transcript.SetDefaults()
	}
	c.Observability.SetDefaults()
	c.Logger.SetDefaults()
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if c.Agent.URL == "" {
		return fmt.Errorf("agent url is required")
	}
	if err := validateHTTPURL(c.Agent.URL); err != nil {
		return fmt.Errorf("agent url: %w", err)
	}
	for key := range c.Agent.Headers {
		if strings.TrimSpace(key) == "" {
			return fmt.Errorf("agent headers: %w: empty key", ErrInvalidHeader)
		}
	}
	if c.Agent.Timeout < 0 {
		return fmt.Errorf("agent timeout must be non-negative")
	}
	if c.Session.HistoryLength < 0 {
		return fmt.Errorf("session history_length must be non-negative, got %d", c.Session.HistoryLength)
	}
	if c.Push.Enabled {
		if err := validateHTTPURL(c.Push.Receiver); err != nil {
			return fmt.Errorf("push receiver: %w", err)
		}
		if err := validateHTTPURL(c.Push.JWKSURL); err != nil {
			return fmt.Errorf("push jwks_url: %w", err)
		}
	}
	if c.Transcript.Enabled() {
		if err := c.Transcript.Validate(); err != nil {
			return fmt.Errorf("transcript: %w", err)
		}
	}
	if err := c.Observability.Validate(); err != nil {
		return fmt.Errorf("observability: %w", err)
	}
	if err := c.Logger.Validate(); err != nil {
		return fmt.Errorf("logger: %w", err)
	}
	return nil
}

func validateHTTPURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid url %q: %w", raw, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%q is not an absolute http(s) url", raw)
	}
	return nil
}

// ParseHeaders parses repeated key=value entries. Values may contain '='.
func ParseHeaders(entries []string) (map[string]string, error) {
	headers := make(map[string]string, len(entries))
	for _, entry := range entries {
		key, value, ok := strings.Cut(entry, "=")
		if !ok {
			return nil, fmt.Errorf("%w %q: expected key=value", ErrInvalidHeader, entry)
		}
		key = strings.TrimSpace(key)
		if key == "" {
			return nil, fmt.Errorf("%w %q: empty key", ErrInvalidHeader, entry)
		}
		headers[key] = value
	}
	return headers, nil
}
