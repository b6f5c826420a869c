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

package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoadFile(t *testing.T) {
	t.Setenv("AGENT_TOKEN", "secret")

	configFile := filepath.Join(t.TempDir(), "a2achat.yaml")
	configYAML := `
agent:
  url: http://agents.internal:9000/
  timeout: 45s
  headers:
    Authorization: Bearer ${AGENT_TOKEN}
    X-Team: ${A2ACHAT_TEST_TEAM:-platform}
session:
  history: true
  history_length: 3
push:
  enabled: true
  receiver: http://0.0.0.0:5050
transcript:
  driver: sqlite
  database: /tmp/turns.db
observability:
  tracing:
    enabled: true
    exporter: stdout
logger:
  level: debug
`
	if err := os.WriteFile(configFile, []byte(configYAML), 0o644); err != nil {
		t.Fatalf("failed to create test config: %v", err)
	}

	cfg, err := LoadFile(configFile)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}
	if err := cfg.Finalize(); err != nil {
		t.Fatalf("failed to finalize config: %v", err)
	}

	if cfg.Agent.URL != "http://agents.internal:9000/" {
		t.Errorf("unexpected agent url %q", cfg.Agent.URL)
	}
	if cfg.Agent.Timeout != 45*time.Second {
		t.Errorf("expected 45s timeout, got %s", cfg.Agent.Timeout)
	}
	if got := cfg.Agent.Headers["Authorization"]; got != "Bearer secret" {
		t.Errorf("expected expanded header, got %q", got)
	}
	if got := cfg.Agent.Headers["X-Team"]; got != "platform" {
		t.Errorf("expected default header value, got %q", got)
	}
	if !cfg.Session.History || cfg.Session.HistoryLength != 3 {
		t.Errorf("unexpected session config %+v", cfg.Session)
	}
	if cfg.Push.JWKSURL != "http://agents.internal:9000/.well-known/jwks.json" {
		t.Errorf("unexpected jwks url %q", cfg.Push.JWKSURL)
	}
	if cfg.Push.MaxTokenAge != DefaultMaxTokenAge {
		t.Errorf("expected default token age, got %s", cfg.Push.MaxTokenAge)
	}
	if cfg.Push.NotifyURL() != "http://0.0.0.0:5050/notify" {
		t.Errorf("unexpected notify url %q", cfg.Push.NotifyURL())
	}
	if cfg.Transcript.MaxConns != 5 {
		t.Errorf("expected transcript defaults, got %+v", cfg.Transcript)
	}
	if cfg.Observability.Tracing.Exporter != "stdout" {
		t.Errorf("unexpected exporter %q", cfg.Observability.Tracing.Exporter)
	}
	if cfg.Logger.Level != "debug" || cfg.Logger.Format != "simple" {
		t.Errorf("unexpected logger config %+v", cfg.Logger)
	}
}

func TestLoadFile_JSON(t *testing.T) {
	configFile := filepath.Join(t.TempDir(), "a2achat.json")
	if err := os.WriteFile(configFile, []byte(`{"agent": {"url": "https://agent.example.com"}}`), 0o644); err != nil {
		t.Fatalf("failed to create test config: %v", err)
	}

	cfg, err := LoadFile(configFile)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}
	if cfg.Agent.URL != "https://agent.example.com" {
		t.Errorf("unexpected agent url %q", cfg.Agent.URL)
	}
}

func TestLoadFile_NotFound(t *testing.T) {
	if _, err := LoadFile("/nonexistent/a2achat.yaml"); err == nil {
		t.Fatal("expected error for nonexistent file")
	}
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{name: "invalid yaml", data: "agent: [unclosed"},
		{name: "unknown key", data: "agent:\n  ulr: http://x"},
		{name: "bad duration", data: "agent:\n  timeout: soon"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Parse([]byte(tt.data)); err == nil {
				t.Fatal("expected parse error")
			}
		})
	}
}

func TestParse_Empty(t *testing.T) {
	cfg, err := Parse(nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := cfg.Finalize(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Agent.URL != DefaultAgentURL {
		t.Errorf("expected default agent url, got %q", cfg.Agent.URL)
	}
}

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Agent.URL != DefaultAgentURL {
		t.Errorf("expected %s, got %s", DefaultAgentURL, cfg.Agent.URL)
	}
	if cfg.Agent.Timeout != DefaultTimeout {
		t.Errorf("expected %s, got %s", DefaultTimeout, cfg.Agent.Timeout)
	}
	if cfg.Session.HistoryLength != DefaultHistoryLength {
		t.Errorf("expected %d, got %d", DefaultHistoryLength, cfg.Session.HistoryLength)
	}
	if cfg.Push.Receiver != DefaultPushReceiver {
		t.Errorf("expected %s, got %s", DefaultPushReceiver, cfg.Push.Receiver)
	}
	if cfg.Transcript.Enabled() {
		t.Error("transcript should be disabled by default")
	}
	if cfg.Logger.Level != "warn" {
		t.Errorf("expected warn, got %s", cfg.Logger.Level)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "relative agent url", mutate: func(c *Config) { c.Agent.URL = "localhost:10000" }, wantErr: "agent url"},
		{name: "ftp agent url", mutate: func(c *Config) { c.Agent.URL = "ftp://agent" }, wantErr: "agent url"},
		{name: "empty header key", mutate: func(c *Config) { c.Agent.Headers = map[string]string{" ": "v"} }, wantErr: "invalid header"},
		{name: "negative history", mutate: func(c *Config) { c.Session.HistoryLength = -1 }, wantErr: "history_length"},
		{name: "bad receiver", mutate: func(c *Config) {
			c.Push.Enabled = true
			c.Push.Receiver = "not a url"
		}, wantErr: "push receiver"},
		{name: "unknown transcript driver", mutate: func(c *Config) {
			c.Transcript = DatabaseConfig{Driver: "oracle", Database: "x"}
		}, wantErr: "transcript"},
		{name: "unknown trace exporter", mutate: func(c *Config) { c.Observability.Tracing.Exporter = "zipkin" }, wantErr: "observability"},
		{name: "bad log level", mutate: func(c *Config) { c.Logger.Level = "loud" }, wantErr: "logger"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatalf("expected error containing %q", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestValidate_PushDisabledIgnoresReceiver(t *testing.T) {
	cfg := Default()
	cfg.Push.Receiver = "not a url"
	if err := cfg.Validate(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestParseHeaders(t *testing.T) {
	headers, err := ParseHeaders([]string{"X-Api-Key=abc", "Authorization=Bearer a=b", "Empty="})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := map[string]string{
		"X-Api-Key":     "abc",
		"Authorization": "Bearer a=b",
		"Empty":         "",
	}
	if len(headers) != len(want) {
		t.Fatalf("expected %d headers, got %d", len(want), len(headers))
	}
	for k, v := range want {
		if headers[k] != v {
			t.Errorf("header %s: expected %q, got %q", k, v, headers[k])
		}
	}
}

func TestParseHeaders_Invalid(t *testing.T) {
	for _, entry := range []string{"no-equals-sign", "=value", "  =value"} {
		_, err := ParseHeaders([]string{entry})
		if !errors.Is(err, ErrInvalidHeader) {
			t.Errorf("%q: expected ErrInvalidHeader, got %v", entry, err)
		}
	}
}

func TestPushConfig_ListenAddr(t *testing.T) {
	tests := []struct {
		receiver string
		want     string
	}{
		{receiver: "http://localhost:5000", want: "localhost:5000"},
		{receiver: "http://0.0.0.0:7000/", want: "0.0.0.0:7000"},
		{receiver: "http://example.com", want: "example.com:80"},
		{receiver: "https://example.com", want: "example.com:443"},
	}

	for _, tt := range tests {
		p := PushConfig{Receiver: tt.receiver}
		got, err := p.ListenAddr()
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", tt.receiver, err)
		}
		if got != tt.want {
			t.Errorf("%s: expected %s, got %s", tt.receiver, tt.want, got)
		}
	}
}

func TestExpandEnv(t *testing.T) {
	t.Setenv("A2ACHAT_TEST_HOST", "agent.local")

	tests := []struct {
		in   string
		want string
	}{
		{in: "plain", want: "plain"},
		{in: "http://${A2ACHAT_TEST_HOST}:1", want: "http://agent.local:1"},
		{in: "$A2ACHAT_TEST_HOST", want: "agent.local"},
		{in: "${A2ACHAT_TEST_MISSING:-fallback}", want: "fallback"},
		{in: "${A2ACHAT_TEST_MISSING}", want: ""},
	}

	for _, tt := range tests {
		if got := ExpandEnv(tt.in); got != tt.want {
			t.Errorf("ExpandEnv(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestLoadDotEnv_DoesNotOverride(t *testing.T) {
	dir := t.TempDir()
	envFile := filepath.Join(dir, ".env")
	content := "A2ACHAT_TEST_DOTENV=from-file\nA2ACHAT_TEST_PRESET=from-file\n"
	if err := os.WriteFile(envFile, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write .env: %v", err)
	}

	t.Setenv("A2ACHAT_TEST_PRESET", "from-env")
	t.Setenv("A2ACHAT_TEST_DOTENV", "")
	os.Unsetenv("A2ACHAT_TEST_DOTENV")

	if err := LoadDotEnvForConfig(filepath.Join(dir, "a2achat.yaml")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got := os.Getenv("A2ACHAT_TEST_DOTENV"); got != "from-file" {
		t.Errorf("expected value from .env, got %q", got)
	}
	if got := os.Getenv("A2ACHAT_TEST_PRESET"); got != "from-env" {
		t.Errorf("existing variable was overridden: %q", got)
	}
}

func TestDatabaseConfig(t *testing.T) {
	pg := DatabaseConfig{Driver: "postgres", Host: "db", Database: "chat", Username: "u", Password: "p w"}
	pg.SetDefaults()
	if err := pg.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if pg.DSN() != "postgres://u:p%20w@db:5432/chat?sslmode=disable" {
		t.Errorf("unexpected postgres dsn %q", pg.DSN())
	}

	my := DatabaseConfig{Driver: "mysql", Host: "db", Database: "chat", Username: "u", Password: "p"}
	my.SetDefaults()
	if my.DSN() != "u:p@tcp(db:3306)/chat?parseTime=true" {
		t.Errorf("unexpected mysql dsn %q", my.DSN())
	}

	lite := DatabaseConfig{Driver: "sqlite", Database: "/tmp/x.db"}
	if lite.DriverName() != "sqlite3" || lite.Dialect() != "sqlite" || !lite.IsSQLite() {
		t.Errorf("unexpected sqlite naming: %s %s", lite.DriverName(), lite.Dialect())
	}
	if !strings.HasPrefix(lite.DSN(), "file:/tmp/x.db?") {
		t.Errorf("unexpected sqlite dsn %q", lite.DSN())
	}

	if err := (&DatabaseConfig{Driver: "postgres", Database: "x"}).Validate(); err == nil {
		t.Error("expected host to be required for postgres")
	}
}
