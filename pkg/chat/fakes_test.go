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
	"fmt"
	"io"
	"iter"
	"time"

	"github.com/a2aproject/a2a-go/a2a"
)

type streamItem struct {
	event a2a.Event
	err   error
}

// fakeClient replays scripted exchanges. Each call consumes the next entry.
type fakeClient struct {
	streams  [][]streamItem
	replies  []a2a.SendMessageResult
	sendErrs []error

	// tasks holds successive snapshots per task; the last one repeats.
	tasks   map[a2a.TaskID][]*a2a.Task
	taskErr error

	sent    []*a2a.MessageSendParams
	queries []*a2a.TaskQueryParams
}

func (f *fakeClient) SendMessage(_ context.Context, params *a2a.MessageSendParams) (a2a.SendMessageResult, error) {
	idx := len(f.sent)
	f.sent = append(f.sent, params)
	if idx < len(f.sendErrs) && f.sendErrs[idx] != nil {
		return nil, f.sendErrs[idx]
	}
	if idx >= len(f.replies) {
		return nil, fmt.Errorf("no scripted reply for call %d", idx)
	}
	return f.replies[idx], nil
}

func (f *fakeClient) SendStreamingMessage(_ context.Context, params *a2a.MessageSendParams) iter.Seq2[a2a.Event, error] {
	idx := len(f.sent)
	f.sent = append(f.sent, params)
	return func(yield func(a2a.Event, error) bool) {
		if idx >= len(f.streams) {
			yield(nil, fmt.Errorf("no scripted stream for call %d", idx))
			return
		}
		for _, item := range f.streams[idx] {
			if !yield(item.event, item.err) {
				return
			}
		}
	}
}

func (f *fakeClient) GetTask(_ context.Context, query *a2a.TaskQueryParams) (*a2a.Task, error) {
	f.queries = append(f.queries, query)
	if f.taskErr != nil {
		return nil, f.taskErr
	}
	snapshots := f.tasks[query.ID]
	if len(snapshots) == 0 {
		return nil, a2a.ErrTaskNotFound
	}
	task := snapshots[0]
	if len(snapshots) > 1 {
		f.tasks[query.ID] = snapshots[1:]
	}
	return task, nil
}

// scriptedPrompter returns its lines in order, then io.EOF.
type scriptedPrompter struct {
	lines  []string
	calls  int
	labels []string
}

func (p *scriptedPrompter) Prompt(_ context.Context, label string) (string, error) {
	p.labels = append(p.labels, label)
	if p.calls >= len(p.lines) {
		return "", io.EOF
	}
	line := p.lines[p.calls]
	p.calls++
	return line, nil
}

type statusNotice struct {
	label  string
	detail string
}

type recordingDisplay struct {
	turns     int
	users     []string
	responses []string
	statuses  []statusNotice
	errors    []string
	histories []*a2a.Task
}

func (d *recordingDisplay) TurnStarted()              { d.turns++ }
func (d *recordingDisplay) UserMessage(text string)   { d.users = append(d.users, text) }
func (d *recordingDisplay) AgentResponse(text string) { d.responses = append(d.responses, text) }
func (d *recordingDisplay) Status(label, detail string) {
	d.statuses = append(d.statuses, statusNotice{label: label, detail: detail})
}
func (d *recordingDisplay) Error(msg string, err error) {
	d.errors = append(d.errors, fmt.Sprintf("%s: %v", msg, err))
}
func (d *recordingDisplay) History(task *a2a.Task) { d.histories = append(d.histories, task) }

func (d *recordingDisplay) statusLabels() []string {
	labels := make([]string, 0, len(d.statuses))
	for _, s := range d.statuses {
		labels = append(labels, s.label)
	}
	return labels
}

type memoryRecorder struct {
	records []TurnRecord
	err     error
}

func (r *memoryRecorder) RecordTurn(_ context.Context, rec TurnRecord) error {
	r.records = append(r.records, rec)
	return r.err
}

type countingMetrics struct {
	outcomes []string
	states   []a2a.TaskState
}

func (m *countingMetrics) RecordTurn(_ context.Context, outcome string, _ time.Duration) {
	m.outcomes = append(m.outcomes, outcome)
}

func (m *countingMetrics) RecordStatusChange(_ context.Context, state a2a.TaskState) {
	m.states = append(m.states, state)
}

func textMessage(role a2a.MessageRole, texts ...string) *a2a.Message {
	parts := make([]a2a.Part, 0, len(texts))
	for _, t := range texts {
		parts = append(parts, a2a.TextPart{Text: t})
	}
	return &a2a.Message{ID: "m-" + texts[0], Role: role, Parts: parts}
}

func statusEvent(taskID a2a.TaskID, state a2a.TaskState, msg *a2a.Message) streamItem {
	return streamItem{event: &a2a.TaskStatusUpdateEvent{
		TaskID:    taskID,
		ContextID: "ctx-1",
		Status:    a2a.TaskStatus{State: state, Message: msg},
	}}
}

func taskEvent(taskID a2a.TaskID, state a2a.TaskState) streamItem {
	return streamItem{event: &a2a.Task{
		ID:        taskID,
		ContextID: "ctx-1",
		Status:    a2a.TaskStatus{State: state},
	}}
}

func snapshot(taskID a2a.TaskID, state a2a.TaskState, msg *a2a.Message) *a2a.Task {
	return &a2a.Task{
		ID:        taskID,
		ContextID: "ctx-1",
		Status:    a2a.TaskStatus{State: state, Message: msg},
	}
}

func sequentialIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("msg-%d", n)
	}
}
