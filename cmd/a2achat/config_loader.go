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

package main

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/kadirpekel/a2achat/pkg/config"
	"github.com/kadirpekel/a2achat/pkg/observability"
)

// AgentFlags select and reach the remote agent.
type AgentFlags struct {
	Agent   string        `short:"a" help:"Agent base URL (default: http://localhost:10000)." env:"A2ACHAT_AGENT" placeholder:"URL"`
	Header  []string      `short:"H" help:"Extra request header as key=value (repeatable)." sep:"none" placeholder:"KEY=VALUE"`
	Timeout time.Duration `help:"Request timeout for non-streaming calls (default: 30s)." env:"A2ACHAT_TIMEOUT"`
}

// apply overlays the flags on cfg. Unset flags leave cfg untouched.
func (f *AgentFlags) apply(cfg *config.Config) error {
	if f.Agent != "" {
		cfg.Agent.URL = f.Agent
	}
	if len(f.Header) > 0 {
		headers, err := config.ParseHeaders(f.Header)
		if err != nil {
			return err
		}
		if cfg.Agent.Headers == nil {
			cfg.Agent.Headers = make(map[string]string, len(headers))
		}
		for k, v := range headers {
			cfg.Agent.Headers[k] = v
		}
	}
	if f.Timeout > 0 {
		cfg.Agent.Timeout = f.Timeout
	}
	return nil
}

// loadConfig builds the effective configuration.
// Priority: CLI flags > env vars > config file > defaults
//
// The logger is re-initialized when the config file's logger section
// changes the settings chosen at startup. The returned cleanup must be
// called on exit.
func loadConfig(cli *CLI, overlay func(*config.Config) error) (*config.Config, func(), error) {
	noop := func() {}

	_ = config.LoadDotEnvForConfig(cli.Config)

	cfg := &config.Config{}
	if cli.Config != "" {
		loaded, err := config.LoadFile(cli.Config)
		if err != nil {
			return nil, noop, err
		}
		cfg = loaded
	}

	cleanup := noop
	startup := resolveLogSettings(cli.LogLevel, cli.LogFile, cli.LogFormat, nil)
	if effective := resolveLogSettings(cli.LogLevel, cli.LogFile, cli.LogFormat, &cfg.Logger); effective != startup {
		c, err := initLogger(effective)
		if err != nil {
			return nil, noop, err
		}
		cleanup = c
	}

	if overlay != nil {
		if err := overlay(cfg); err != nil {
			cleanup()
			return nil, noop, err
		}
	}

	if err := cfg.Finalize(); err != nil {
		cleanup()
		return nil, noop, err
	}

	slog.Debug("Configuration loaded",
		"config", cli.Config,
		"agent", cfg.Agent.URL,
		"push", cfg.Push.Enabled,
		"transcript", cfg.Transcript.Driver)
	return cfg, cleanup, nil
}

// apply overlays the chat command flags on cfg.
func (c *ChatCmd) apply(cfg *config.Config) error {
	if err := c.AgentFlags.apply(cfg); err != nil {
		return err
	}

	if c.Session != "" {
		cfg.Session.ContextID = c.Session
	}
	if c.History {
		cfg.Session.History = true
	}
	if c.HistoryLength != 0 {
		cfg.Session.HistoryLength = c.HistoryLength
	}

	if c.UsePushNotifications {
		cfg.Push.Enabled = true
	}
	if c.PushReceiver != "" {
		cfg.Push.Receiver = c.PushReceiver
	}

	if c.Transcript != "" {
		cfg.Transcript = config.DatabaseConfig{Driver: "sqlite", Database: c.Transcript}
	}

	if c.MetricsAddr != "" {
		cfg.Observability.Metrics.Addr = c.MetricsAddr
	}
	if c.TraceEndpoint != "" {
		cfg.Observability.Tracing.Enabled = true
		cfg.Observability.Tracing.Exporter = observability.ExporterOTLP
		cfg.Observability.Tracing.Endpoint = c.TraceEndpoint
	}
	return nil
}

func (c *TranscriptCmd) apply(cfg *config.Config) error {
	if c.DB != "" {
		cfg.Transcript = config.DatabaseConfig{Driver: "sqlite", Database: c.DB}
	}
	if !cfg.Transcript.Enabled() {
		return fmt.Errorf("no transcript store configured (use --db or the transcript config section)")
	}
	return nil
}
