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

package chat

import (
	"context"
	"iter"
	"time"

	"github.com/a2aproject/a2a-go/a2a"
)

// Client is the part of an A2A client the controller uses.
// *a2aclient.Client satisfies it.
type Client interface {
	SendMessage(ctx context.Context, params *a2a.MessageSendParams) (a2a.SendMessageResult, error)
	SendStreamingMessage(ctx context.Context, params *a2a.MessageSendParams) iter.Seq2[a2a.Event, error]
	GetTask(ctx context.Context, query *a2a.TaskQueryParams) (*a2a.Task, error)
}

// Prompter reads one line of user input. It returns io.EOF when input is
// exhausted or the user interrupts the prompt.
type Prompter interface {
	Prompt(ctx context.Context, label string) (string, error)
}

// Display renders the conversation.
type Display interface {
	TurnStarted()
	UserMessage(text string)
	AgentResponse(text string)
	Status(label, detail string)
	Error(msg string, err error)
	History(task *a2a.Task)
}

// TurnRecord describes one completed prompt/response round.
type TurnRecord struct {
	ContextID string
	TaskID    a2a.TaskID
	UserText  string
	AgentText string
	Source    Source
	State     a2a.TaskState
	Streaming bool
	StartedAt time.Time
	Duration  time.Duration
}

// Recorder persists completed turns.
type Recorder interface {
	RecordTurn(ctx context.Context, rec TurnRecord) error
}

// Metrics receives turn measurements.
type Metrics interface {
	RecordTurn(ctx context.Context, outcome string, duration time.Duration)
	RecordStatusChange(ctx context.Context, state a2a.TaskState)
}

type noopRecorder struct{}

func (noopRecorder) RecordTurn(context.Context, TurnRecord) error { return nil }

type noopMetrics struct{}

func (noopMetrics) RecordTurn(context.Context, string, time.Duration) {}

func (noopMetrics) RecordStatusChange(context.Context, a2a.TaskState) {}
