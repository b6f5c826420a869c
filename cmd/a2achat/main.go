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

// Command a2achat is an interactive client for A2A agents.
//
// Usage:
//
//	a2achat --agent http://localhost:10000
//	a2achat chat --session 4f0c... --history
//	a2achat chat --use-push-notifications --push-receiver http://localhost:5000
//	a2achat card --agent http://localhost:10000
//	a2achat transcript --db .a2achat/transcript.db <session>
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"

	"github.com/kadirpekel/a2achat"
	"github.com/kadirpekel/a2achat/pkg/config"
)

// CLI defines the command-line interface.
type CLI struct {
	Chat       ChatCmd       `cmd:"" default:"withargs" help:"Start an interactive conversation (default)."`
	Card       CardCmd       `cmd:"" help:"Show the agent card."`
	Transcript TranscriptCmd `cmd:"" help:"List recorded conversation turns."`
	Schema     SchemaCmd     `cmd:"" help:"Generate JSON Schema for the config file."`
	Version    VersionCmd    `cmd:"" help:"Show version information."`

	Config    string `short:"c" help:"Path to config file." type:"path" env:"A2ACHAT_CONFIG"`
	LogLevel  string `help:"Log level (debug, info, warn, error). Default: warn."`
	LogFile   string `help:"Log file path (empty = stderr)."`
	LogFormat string `help:"Log format (simple, verbose, json)."`
}

// VersionCmd shows version information.
type VersionCmd struct {
	JSON bool `help:"Print version information as JSON."`
}

func (c *VersionCmd) Run() error {
	info := a2achat.GetVersion()
	if c.JSON {
		return json.NewEncoder(os.Stdout).Encode(info)
	}
	fmt.Println(info.String())
	return nil
}

func buildVersion() string {
	return a2achat.GetVersion().Version
}

// signalContext returns a context cancelled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		select {
		case <-sigCh:
			slog.Info("Shutting down...")
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sigCh)
	}()

	return ctx, cancel
}

func main() {
	_ = config.LoadDotEnv()

	cli := CLI{}
	ctx := kong.Parse(&cli,
		kong.Name("a2achat"),
		kong.Description("Interactive command-line client for A2A agents"),
		kong.UsageOnError(),
	)

	// Config file logger settings are applied later if no CLI/env overrides
	cleanup, err := initLogger(resolveLogSettings(cli.LogLevel, cli.LogFile, cli.LogFormat, nil))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer cleanup()

	err = ctx.Run(&cli)
	ctx.FatalIfErrorf(err)
}
