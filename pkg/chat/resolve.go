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
	"github.com/a2aproject/a2a-go/a2a"
)

// Source tells where a resolved response came from.
type Source string

const (
	SourceNone     Source = "none"
	SourceDirect   Source = "direct"
	SourceStatus   Source = "status"
	SourceHistory  Source = "history"
	SourceArtifact Source = "artifact"
)

// Resolution is the single agent utterance chosen for display.
type Resolution struct {
	Text   string
	Source Source
}

// Found reports whether any displayable text was resolved.
func (r Resolution) Found() bool {
	return r.Source != SourceNone
}

// Resolve picks the text to show for a turn. First match wins:
//
//  1. the message received directly from the stream or reply
//  2. the message embedded in the task's current status
//  3. the newest agent-authored history entry with text
//  4. the first artifact with text
func Resolve(direct *a2a.Message, task *a2a.Task) Resolution {
	if text := MessageText(direct); text != "" {
		return Resolution{Text: text, Source: SourceDirect}
	}
	if task == nil {
		return Resolution{Source: SourceNone}
	}

	if text := MessageText(task.Status.Message); text != "" {
		return Resolution{Text: text, Source: SourceStatus}
	}

	for i := len(task.History) - 1; i >= 0; i-- {
		msg := task.History[i]
		if msg == nil || msg.Role != a2a.MessageRoleAgent {
			continue
		}
		if text := MessageText(msg); text != "" {
			return Resolution{Text: text, Source: SourceHistory}
		}
	}

	for _, artifact := range task.Artifacts {
		if artifact == nil {
			continue
		}
		if text := JoinText(artifact.Parts); text != "" {
			return Resolution{Text: text, Source: SourceArtifact}
		}
	}

	return Resolution{Source: SourceNone}
}
