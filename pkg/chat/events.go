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
	"errors"
	"fmt"

	"github.com/a2aproject/a2a-go/a2a"
)

// ErrUnknownEvent is returned when a stream unit has a shape the client does not understand.
var ErrUnknownEvent = errors.New("unknown A2A event type")

// ProtocolError wraps an error unit received from the streaming exchange.
type ProtocolError struct {
	Err error
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("protocol error: %v", e.Err)
}

func (e *ProtocolError) Unwrap() error {
	return e.Err
}

// EventKind identifies the variant of a lifecycle event.
type EventKind int

const (
	EventTaskCreated EventKind = iota + 1
	EventStatusUpdate
	EventArtifactUpdate
	EventAgentMessage
	EventProtocolError
)

func (k EventKind) String() string {
	switch k {
	case EventTaskCreated:
		return "task_created"
	case EventStatusUpdate:
		return "status_update"
	case EventArtifactUpdate:
		return "artifact_update"
	case EventAgentMessage:
		return "agent_message"
	case EventProtocolError:
		return "protocol_error"
	default:
		return "unknown"
	}
}

// Event is one classified unit of the streaming exchange.
// Which fields are set depends on Kind:
//
//	TaskCreated     TaskID, ContextID, Task
//	StatusUpdate    TaskID, ContextID, State, Message (optional)
//	ArtifactUpdate  TaskID, ContextID, Artifact
//	AgentMessage    TaskID, ContextID (as reported by the message), Message
//	ProtocolError   Err
type Event struct {
	Kind      EventKind
	TaskID    a2a.TaskID
	ContextID string
	State     a2a.TaskState
	Message   *a2a.Message
	Artifact  *a2a.Artifact
	Task      *a2a.Task
	Err       *ProtocolError
}

// Classify maps one item of the event stream onto a lifecycle event.
// A non-nil err is the stream's error envelope and yields EventProtocolError.
// Any other shape is a defect and returns ErrUnknownEvent.
func Classify(item a2a.Event, err error) (Event, error) {
	if err != nil {
		return Event{Kind: EventProtocolError, Err: &ProtocolError{Err: err}}, nil
	}

	switch v := item.(type) {
	case *a2a.Task:
		if v == nil {
			break
		}
		return Event{
			Kind:      EventTaskCreated,
			TaskID:    v.ID,
			ContextID: v.ContextID,
			State:     v.Status.State,
			Task:      v,
		}, nil

	case *a2a.TaskStatusUpdateEvent:
		if v == nil {
			break
		}
		return Event{
			Kind:      EventStatusUpdate,
			TaskID:    v.TaskID,
			ContextID: v.ContextID,
			State:     v.Status.State,
			Message:   v.Status.Message,
		}, nil

	case *a2a.TaskArtifactUpdateEvent:
		if v == nil {
			break
		}
		return Event{
			Kind:      EventArtifactUpdate,
			TaskID:    v.TaskID,
			ContextID: v.ContextID,
			Artifact:  v.Artifact,
		}, nil

	case *a2a.Message:
		if v == nil {
			break
		}
		return Event{
			Kind:      EventAgentMessage,
			TaskID:    v.TaskID,
			ContextID: v.ContextID,
			Message:   v,
		}, nil
	}

	return Event{}, fmt.Errorf("%w: %T", ErrUnknownEvent, item)
}
