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

// Package a2achat is an interactive command-line client for agents that
// speak the A2A (Agent-to-Agent) protocol.
//
// # Quick Start
//
// Install the client:
//
//	go install github.com/kadirpekel/a2achat/cmd/a2achat@latest
//
// Talk to an agent:
//
//	a2achat --agent http://localhost:10000
//
// Every line typed is sent as a user message. Streaming agents have their
// events rendered as they arrive; the others answer with a single task or
// message. When the agent asks for more input, the prompt changes and the
// next line continues the same task. Type ":q" or "quit" to leave.
//
// # Configuration
//
// Flags override environment variables, which override the config file:
//
//	agent:
//	  url: http://localhost:10000
//	  headers:
//	    Authorization: "Bearer ${AGENT_TOKEN}"
//	session:
//	  history: true
//	push:
//	  enabled: true
//	  receiver: http://localhost:5000
//	transcript:
//	  driver: sqlite
//	  database: .a2achat/transcript.db
//
// Run "a2achat schema" for the JSON Schema of the file.
//
// # Packages
//
//   - pkg/chat: the conversation loop and turn state machine
//   - pkg/a2a/client: agent card resolution and the A2A JSON-RPC client
//   - pkg/console: terminal input and rendering
//   - pkg/push: the push-notification webhook and its JWT verification
//   - pkg/transcript: SQL recording of completed turns
//   - pkg/observability: tracing and Prometheus metrics
//   - pkg/config: configuration loading and validation
//   - pkg/logger: slog setup
package a2achat
