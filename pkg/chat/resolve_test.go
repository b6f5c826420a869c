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
	"testing"

	"github.com/a2aproject/a2a-go/a2a"
	"github.com/stretchr/testify/assert"
)

func TestResolve(t *testing.T) {
	artifactOnly := &a2a.Task{
		ID:     "t1",
		Status: a2a.TaskStatus{State: a2a.TaskStateCompleted},
		Artifacts: []*a2a.Artifact{
			{ID: "a1", Parts: []a2a.Part{a2a.TextPart{Text: "X"}}},
		},
	}

	statusAndHistory := &a2a.Task{
		ID:      "t1",
		Status:  a2a.TaskStatus{State: a2a.TaskStateCompleted, Message: textMessage(a2a.MessageRoleAgent, "A")},
		History: []*a2a.Message{textMessage(a2a.MessageRoleAgent, "B")},
	}

	historyOnly := &a2a.Task{
		ID:     "t1",
		Status: a2a.TaskStatus{State: a2a.TaskStateCompleted},
		History: []*a2a.Message{
			textMessage(a2a.MessageRoleAgent, "older"),
			textMessage(a2a.MessageRoleAgent, "newest"),
			textMessage(a2a.MessageRoleUser, "user last"),
			{ID: "empty", Role: a2a.MessageRoleAgent, Parts: []a2a.Part{a2a.DataPart{Data: map[string]any{}}}},
		},
	}

	emptyStatus := &a2a.Task{
		ID: "t1",
		Status: a2a.TaskStatus{
			State:   a2a.TaskStateCompleted,
			Message: &a2a.Message{ID: "s", Role: a2a.MessageRoleAgent},
		},
		History: []*a2a.Message{textMessage(a2a.MessageRoleAgent, "from history")},
	}

	artifactsSkipEmpty := &a2a.Task{
		ID:     "t1",
		Status: a2a.TaskStatus{State: a2a.TaskStateCompleted},
		Artifacts: []*a2a.Artifact{
			{ID: "a0", Parts: []a2a.Part{a2a.DataPart{Data: map[string]any{"k": 1}}}},
			{ID: "a1", Parts: []a2a.Part{a2a.TextPart{Text: "first"}, a2a.TextPart{Text: "text"}}},
			{ID: "a2", Parts: []a2a.Part{a2a.TextPart{Text: "second"}}},
		},
	}

	tests := []struct {
		name   string
		direct *a2a.Message
		task   *a2a.Task
		want   Resolution
	}{
		{name: "nothing", want: Resolution{Source: SourceNone}},
		{name: "artifact only", task: artifactOnly, want: Resolution{Text: "X", Source: SourceArtifact}},
		{name: "status beats history", task: statusAndHistory, want: Resolution{Text: "A", Source: SourceStatus}},
		{
			name:   "direct beats snapshot",
			direct: textMessage(a2a.MessageRoleAgent, "Z"),
			task:   statusAndHistory,
			want:   Resolution{Text: "Z", Source: SourceDirect},
		},
		{
			name:   "direct without text falls through",
			direct: &a2a.Message{ID: "d", Role: a2a.MessageRoleAgent},
			task:   artifactOnly,
			want:   Resolution{Text: "X", Source: SourceArtifact},
		},
		{name: "newest agent history entry", task: historyOnly, want: Resolution{Text: "newest", Source: SourceHistory}},
		{name: "empty status message skipped", task: emptyStatus, want: Resolution{Text: "from history", Source: SourceHistory}},
		{name: "first artifact with text", task: artifactsSkipEmpty, want: Resolution{Text: "first text", Source: SourceArtifact}},
		{
			name: "empty snapshot",
			task: &a2a.Task{ID: "t1", Status: a2a.TaskStatus{State: a2a.TaskStateCompleted}},
			want: Resolution{Source: SourceNone},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Resolve(tt.direct, tt.task)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.want.Source != SourceNone, got.Found())
		})
	}
}
