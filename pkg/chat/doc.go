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

// Package chat drives a multi-turn conversation with a remote A2A agent.
//
// A turn sends one user utterance, follows the task lifecycle reported by the
// agent and shows the agent's answer:
//
//	ctrl, _ := chat.NewController(chat.Config{
//	    Client:    a2aClient,          // *a2aclient.Client
//	    Prompter:  console.NewPrompter(),
//	    Display:   console.NewRenderer(os.Stdout),
//	    Streaming: card.Capabilities.Streaming,
//	})
//	session, _ := chat.NewSession(ctrl, chat.SessionConfig{ShowHistory: true})
//	err := session.Run(ctx)
//
// # Streaming
//
// Stream units are classified into lifecycle events (task created, status
// update, artifact update, agent message, protocol error) and applied in
// arrival order. Status notices are emitted only when the state changes.
// Once the stream ends, the task snapshot is fetched again; streamed events
// are progress, the snapshot is the source of truth.
//
// # Response resolution
//
// The displayed answer is, in order of preference: a message received
// directly from the agent, the task status message, the newest agent message
// in the task history, the first artifact with text.
//
// # Input required
//
// When the task ends a turn in the input-required state the user is prompted
// again under the same conversation and task.
package chat
