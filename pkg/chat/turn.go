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
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/a2aproject/a2a-go/a2a"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// PromptLabel is shown when the controller asks for the next user utterance.
const PromptLabel = "💬 What do you want to send to the agent? (:q or quit to exit)"

// Turn outcomes reported to Metrics.
const (
	OutcomeQuit          = "quit"
	OutcomeCompleted     = "completed"
	OutcomeInputRequired = "input_required"
	OutcomeProtocolError = "protocol_error"
	OutcomeNoResult      = "no_result"
	OutcomeFailed        = "failed"
)

const tracerName = "github.com/kadirpekel/a2achat/pkg/chat"

// IsQuit reports whether the input is one of the quit tokens.
func IsQuit(input string) bool {
	switch strings.TrimSpace(input) {
	case ":q", "quit":
		return true
	}
	return false
}

// Outcome is the result of one conversational turn.
type Outcome struct {
	// Continue is false when the user quit or the turn was aborted by a protocol error.
	Continue bool

	ContextID string
	TaskID    a2a.TaskID

	// Err is set when a protocol error ended the turn.
	Err *ProtocolError
}

// Config configures a Controller.
type Config struct {
	// Client sends messages and fetches task snapshots. Required.
	Client Client

	// Prompter reads user input. Required.
	Prompter Prompter

	// Display renders notices and responses. Required.
	Display Display

	// Streaming selects the streaming exchange. Set from the agent card.
	Streaming bool

	// PushConfig is attached to every outbound message when non-nil.
	PushConfig *a2a.PushConfig

	// Recorder stores completed turns. Optional.
	Recorder Recorder

	// Metrics records turn outcomes. Optional.
	Metrics Metrics

	// NewID generates message ids. Default: uuid.NewString.
	NewID func() string
}

// Controller executes conversational turns against a remote agent.
type Controller struct {
	cfg    Config
	tracer trace.Tracer
}

// NewController creates a turn controller.
func NewController(cfg Config) (*Controller, error) {
	if cfg.Client == nil {
		return nil, fmt.Errorf("client is required")
	}
	if cfg.Prompter == nil {
		return nil, fmt.Errorf("prompter is required")
	}
	if cfg.Display == nil {
		return nil, fmt.Errorf("display is required")
	}
	if cfg.Recorder == nil {
		cfg.Recorder = noopRecorder{}
	}
	if cfg.Metrics == nil {
		cfg.Metrics = noopMetrics{}
	}
	if cfg.NewID == nil {
		cfg.NewID = uuid.NewString
	}

	return &Controller{
		cfg:    cfg,
		tracer: otel.Tracer(tracerName),
	}, nil
}

// turnState is the state folded from one exchange with the agent.
type turnState struct {
	contextID string
	taskID    a2a.TaskID

	lastState   a2a.TaskState
	direct      *a2a.Message
	directShown bool
	task        *a2a.Task
}

// stepResult is the result of a single prompt/exchange round.
type stepResult struct {
	outcome       Outcome
	inputRequired bool
}

// ExecuteTurn runs one conversational turn under the given conversation.
// While the agent reports input-required, the user is prompted again under
// the same conversation and task until the task leaves that state.
func (c *Controller) ExecuteTurn(ctx context.Context, contextID string, taskID a2a.TaskID) (Outcome, error) {
	for {
		res, err := c.step(ctx, contextID, taskID)
		if err != nil {
			return res.outcome, err
		}
		if !res.inputRequired {
			return res.outcome, nil
		}
		contextID, taskID = res.outcome.ContextID, res.outcome.TaskID
	}
}

func (c *Controller) step(ctx context.Context, contextID string, taskID a2a.TaskID) (stepResult, error) {
	input, err := c.readInput(ctx)
	if errors.Is(err, io.EOF) || (err == nil && IsQuit(input)) {
		c.cfg.Metrics.RecordTurn(ctx, OutcomeQuit, 0)
		return stepResult{outcome: Outcome{Continue: false}}, nil
	}
	if err != nil {
		return stepResult{outcome: Outcome{ContextID: contextID, TaskID: taskID}}, err
	}

	c.cfg.Display.UserMessage(input)

	started := time.Now()
	ctx, span := c.tracer.Start(ctx, "chat.turn", trace.WithAttributes(
		attribute.String("a2a.context_id", contextID),
		attribute.String("a2a.task_id", string(taskID)),
		attribute.Bool("a2a.streaming", c.cfg.Streaming),
	))
	defer span.End()

	st := &turnState{contextID: contextID, taskID: taskID}
	params := c.buildParams(input, contextID, taskID)

	if c.cfg.Streaming {
		err = c.stream(ctx, params, st)
	} else {
		err = c.send(ctx, params, st)
	}

	var perr *ProtocolError
	switch {
	case errors.As(err, &perr):
		span.RecordError(perr)
		span.SetStatus(codes.Error, "protocol error")
		c.cfg.Metrics.RecordTurn(ctx, OutcomeProtocolError, time.Since(started))
		return stepResult{outcome: Outcome{
			Continue:  false,
			ContextID: st.contextID,
			TaskID:    st.taskID,
			Err:       perr,
		}}, nil
	case err != nil:
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		c.cfg.Metrics.RecordTurn(ctx, OutcomeFailed, time.Since(started))
		return stepResult{outcome: Outcome{ContextID: st.contextID, TaskID: st.taskID}}, err
	}

	res, resolution := c.finish(st)

	span.SetAttributes(
		attribute.String("a2a.context_id", st.contextID),
		attribute.String("a2a.task_id", string(st.taskID)),
		attribute.String("chat.response_source", string(resolution.Source)),
	)

	var state a2a.TaskState
	if st.task != nil {
		state = st.task.Status.State
		span.SetAttributes(attribute.String("a2a.task_state", string(state)))
	}

	outcome := OutcomeCompleted
	switch {
	case res.inputRequired:
		outcome = OutcomeInputRequired
	case st.task == nil && resolution.Source != SourceDirect:
		outcome = OutcomeNoResult
	}
	c.cfg.Metrics.RecordTurn(ctx, outcome, time.Since(started))

	c.record(ctx, TurnRecord{
		ContextID: st.contextID,
		TaskID:    st.taskID,
		UserText:  input,
		AgentText: resolution.Text,
		Source:    resolution.Source,
		State:     state,
		Streaming: c.cfg.Streaming,
		StartedAt: started,
		Duration:  time.Since(started),
	})

	return res, nil
}

// readInput prompts until a non-empty line is entered.
func (c *Controller) readInput(ctx context.Context) (string, error) {
	for {
		line, err := c.cfg.Prompter.Prompt(ctx, PromptLabel)
		if err != nil {
			return "", err
		}
		if line = strings.TrimSpace(line); line != "" {
			return line, nil
		}
	}
}

func (c *Controller) buildParams(input, contextID string, taskID a2a.TaskID) *a2a.MessageSendParams {
	msg := &a2a.Message{
		ID:        c.cfg.NewID(),
		Role:      a2a.MessageRoleUser,
		Parts:     []a2a.Part{a2a.TextPart{Text: input}},
		TaskID:    taskID,
		ContextID: contextID,
	}

	sendConfig := &a2a.MessageSendConfig{
		AcceptedOutputModes: []string{"text"},
	}
	if c.cfg.PushConfig != nil {
		push := *c.cfg.PushConfig
		sendConfig.PushConfig = &push
	}

	return &a2a.MessageSendParams{
		Message: msg,
		Config:  sendConfig,
	}
}

// stream consumes the streaming exchange in arrival order, then fetches the
// authoritative task snapshot if a task was observed.
func (c *Controller) stream(ctx context.Context, params *a2a.MessageSendParams, st *turnState) error {
	for item, err := range c.cfg.Client.SendStreamingMessage(ctx, params) {
		event, cerr := Classify(item, err)
		if cerr != nil {
			return cerr
		}
		if event.Kind == EventProtocolError {
			c.cfg.Display.Error("Error", event.Err.Err)
			return event.Err
		}
		c.apply(ctx, st, event)
	}

	if st.taskID == "" {
		return nil
	}

	task, err := c.cfg.Client.GetTask(ctx, &a2a.TaskQueryParams{ID: st.taskID})
	if err != nil {
		c.cfg.Display.Error("Failed to fetch task", err)
		slog.Warn("Task snapshot fetch failed", "task_id", st.taskID, "error", err)
		return nil
	}
	st.task = task
	return nil
}

// apply folds one lifecycle event into the turn state.
func (c *Controller) apply(ctx context.Context, st *turnState, event Event) {
	if st.contextID == "" && event.ContextID != "" {
		st.contextID = event.ContextID
	}

	switch event.Kind {
	case EventTaskCreated:
		c.observeTask(st, event.TaskID)
		c.cfg.Display.Status("Task Created", fmt.Sprintf("ID: %s", st.taskID))

	case EventStatusUpdate:
		c.observeTask(st, event.TaskID)
		if event.State != st.lastState {
			st.lastState = event.State
			c.cfg.Metrics.RecordStatusChange(ctx, event.State)
			label, detail := StatusNotice(event.State)
			c.cfg.Display.Status(label, detail)
		}

	case EventArtifactUpdate:
		c.observeTask(st, event.TaskID)
		c.cfg.Display.Status("Artifact Update", "New content available")

	case EventAgentMessage:
		st.direct = event.Message
		if text := MessageText(event.Message); text != "" {
			c.cfg.Display.AgentResponse(text)
			st.directShown = true
		}
	}
}

// observeTask records the task id the first time one is reported.
func (c *Controller) observeTask(st *turnState, id a2a.TaskID) {
	if id == "" {
		return
	}
	if st.taskID == "" {
		st.taskID = id
		return
	}
	if st.taskID != id {
		slog.Warn("Ignoring task id change within a turn", "task_id", st.taskID, "reported", id)
	}
}

// send performs the synchronous exchange. Transport failures are reported
// and leave the turn without a result.
func (c *Controller) send(ctx context.Context, params *a2a.MessageSendParams, st *turnState) error {
	result, err := c.cfg.Client.SendMessage(ctx, params)
	if err != nil {
		c.cfg.Display.Error("Failed to complete the call", err)
		slog.Warn("Synchronous send failed", "context_id", st.contextID, "error", err)
		return nil
	}

	switch v := result.(type) {
	case *a2a.Task:
		if v == nil {
			slog.Debug("Synchronous send returned no result", "context_id", st.contextID)
			return nil
		}
		if st.contextID == "" {
			st.contextID = v.ContextID
		}
		c.observeTask(st, v.ID)
		st.task = v
	case *a2a.Message:
		if v == nil {
			slog.Debug("Synchronous send returned no result", "context_id", st.contextID)
			return nil
		}
		if st.contextID == "" {
			st.contextID = v.ContextID
		}
		st.direct = v
	case nil:
		slog.Debug("Synchronous send returned no result", "context_id", st.contextID)
	default:
		return fmt.Errorf("%w: %T", ErrUnknownEvent, result)
	}
	return nil
}

// finish resolves and displays the final response and decides whether the
// agent is waiting for more input.
func (c *Controller) finish(st *turnState) (stepResult, Resolution) {
	outcome := Outcome{Continue: true, ContextID: st.contextID, TaskID: st.taskID}

	resolution := Resolve(st.direct, st.task)
	if resolution.Source == SourceDirect {
		if !st.directShown {
			c.cfg.Display.AgentResponse(resolution.Text)
		}
		return stepResult{outcome: outcome}, resolution
	}

	if st.task == nil {
		return stepResult{outcome: outcome}, resolution
	}

	if resolution.Found() {
		c.cfg.Display.AgentResponse(resolution.Text)
	}

	return stepResult{
		outcome:       outcome,
		inputRequired: st.task.Status.State == a2a.TaskStateInputRequired,
	}, resolution
}

func (c *Controller) record(ctx context.Context, rec TurnRecord) {
	if err := c.cfg.Recorder.RecordTurn(ctx, rec); err != nil {
		slog.Warn("Failed to record turn", "context_id", rec.ContextID, "error", err)
	}
}

// StatusNotice returns the label and detail shown for a task state.
func StatusNotice(state a2a.TaskState) (string, string) {
	switch state {
	case a2a.TaskStateWorking:
		return "Working", "Agent is processing..."
	case a2a.TaskStateInputRequired:
		return "Input Required", "Agent is asking a question..."
	case a2a.TaskStateCompleted:
		return "Completed", "Task finished"
	default:
		return "Status Update", fmt.Sprintf("State: %s", state)
	}
}
