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
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/a2aproject/a2a-go/a2a"
	"golang.org/x/sync/errgroup"

	"github.com/kadirpekel/a2achat/pkg/a2a/client"
	"github.com/kadirpekel/a2achat/pkg/chat"
	"github.com/kadirpekel/a2achat/pkg/config"
	"github.com/kadirpekel/a2achat/pkg/console"
	"github.com/kadirpekel/a2achat/pkg/observability"
	"github.com/kadirpekel/a2achat/pkg/push"
	"github.com/kadirpekel/a2achat/pkg/transcript"
)

// historyFileName is the readline history file under the home directory.
const historyFileName = ".a2achat_history"

// ChatCmd runs the interactive conversation.
type ChatCmd struct {
	AgentFlags `embed:""`

	Session       string `help:"Resume an existing conversation (context id)." env:"A2ACHAT_SESSION" placeholder:"ID"`
	History       bool   `help:"Show task history after every turn."`
	HistoryLength int    `name:"history-length" help:"Number of history messages to show (default: 10)."`

	UsePushNotifications bool   `name:"use-push-notifications" help:"Ask the agent to deliver task updates to a local webhook."`
	PushReceiver         string `name:"push-receiver" help:"Externally reachable webhook base URL (default: http://localhost:5000)." placeholder:"URL"`

	Transcript    string `help:"Record turns in this SQLite database." type:"path" placeholder:"PATH"`
	MetricsAddr   string `name:"metrics-addr" help:"Serve Prometheus metrics on this address, e.g. :9464." placeholder:"ADDR"`
	TraceEndpoint string `name:"trace-endpoint" help:"Export traces to this OTLP gRPC endpoint." placeholder:"HOST:PORT"`
}

func (c *ChatCmd) Run(cli *CLI) error {
	ctx, cancel := signalContext()
	defer cancel()

	cfg, cleanup, err := loadConfig(cli, c.apply)
	if err != nil {
		return err
	}
	defer cleanup()

	obs := observability.NewManager(cfg.Observability)
	if err := obs.Initialize(ctx, observability.WithServiceVersion(buildVersion())); err != nil {
		return fmt.Errorf("failed to initialize observability: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := obs.Shutdown(shutdownCtx); err != nil {
			slog.Warn("Observability shutdown failed", "error", err)
		}
	}()
	if err := obs.Listen(); err != nil {
		return err
	}
	metrics := obs.Metrics()

	agent, err := client.Dial(ctx, cfg.Agent.URL, client.Options{
		Headers: cfg.Agent.Headers,
		Timeout: cfg.Agent.Timeout,
	})
	if err != nil {
		return err
	}
	defer func() {
		if err := agent.Close(); err != nil {
			slog.Debug("Failed to close agent client", "error", err)
		}
	}()

	renderer := console.NewRenderer(os.Stdout, console.WithAgentName(agent.Card().Name))
	renderer.Card(agent.Card())
	renderer.Headers(cfg.Agent.Headers)

	var recorder chat.Recorder
	if cfg.Transcript.Enabled() {
		store, err := openTranscript(ctx, &cfg.Transcript)
		if err != nil {
			return err
		}
		defer store.Close()
		recorder = store
	}

	var (
		listener   *push.Listener
		pushConfig *a2a.PushConfig
	)
	if cfg.Push.Enabled {
		if !agent.SupportsPush() {
			renderer.Info("The agent does not support push notifications; continuing without them.")
		} else {
			listener, err = newPushListener(ctx, &cfg.Push, renderer, metrics)
			if err != nil {
				return err
			}
			pushConfig = &a2a.PushConfig{
				URL:  cfg.Push.NotifyURL(),
				Auth: &a2a.PushAuthInfo{Schemes: []string{"bearer"}},
			}
			renderer.Info(fmt.Sprintf("Push notifications will be delivered to %s", pushConfig.URL))
		}
	}

	home, _ := os.UserHomeDir()
	historyFile := ""
	if home != "" {
		historyFile = filepath.Join(home, historyFileName)
	}
	prompter, err := console.NewPrompter(console.PrompterConfig{
		HistoryFile: historyFile,
		OnPrompt:    renderer.PromptLabel,
	})
	if err != nil {
		return err
	}
	defer prompter.Close()

	controller, err := chat.NewController(chat.Config{
		Client:     agent.Client(),
		Prompter:   prompter,
		Display:    renderer,
		Streaming:  agent.SupportsStreaming(),
		PushConfig: pushConfig,
		Recorder:   recorder,
		Metrics:    metrics,
	})
	if err != nil {
		return err
	}

	session, err := chat.NewSession(controller, chat.SessionConfig{
		ContextID:     cfg.Session.ContextID,
		ShowHistory:   cfg.Session.History,
		HistoryLength: cfg.Session.HistoryLength,
	})
	if err != nil {
		return err
	}
	slog.Info("Conversation started", "context_id", session.ContextID(), "agent", cfg.Agent.URL)

	runCtx, stop := context.WithCancel(ctx)
	defer stop()
	g, gctx := errgroup.WithContext(runCtx)

	g.Go(func() error {
		defer stop()
		return session.Run(gctx)
	})
	if listener != nil {
		g.Go(func() error {
			return listener.Start(gctx)
		})
	}
	g.Go(func() error {
		return obs.Serve(gctx)
	})

	err = g.Wait()
	renderer.Goodbye()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func openTranscript(ctx context.Context, cfg *config.DatabaseConfig) (*transcript.SQLStore, error) {
	db, err := transcript.OpenDB(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to open transcript store: %w", err)
	}
	store, err := transcript.NewSQLStore(db, cfg.Dialect())
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

func newPushListener(ctx context.Context, cfg *config.PushConfig, renderer *console.Renderer, metrics *observability.PrometheusMetrics) (*push.Listener, error) {
	addr, err := cfg.ListenAddr()
	if err != nil {
		return nil, err
	}

	verifier, err := push.NewVerifier(ctx, cfg.JWKSURL, push.WithMaxTokenAge(cfg.MaxTokenAge))
	if err != nil {
		return nil, err
	}

	listener, err := push.NewListener(push.ListenerConfig{
		Addr:          addr,
		Authenticator: verifier,
		Metrics:       metrics,
		OnNotify: func(n push.Notification) {
			renderer.PushNotification(n.Task)
		},
	})
	if err != nil {
		return nil, err
	}
	if err := listener.Listen(); err != nil {
		return nil, err
	}
	return listener, nil
}
