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
	"log/slog"
	"strings"

	"github.com/a2aproject/a2a-go/a2a"
	"github.com/google/uuid"
)

// DefaultHistoryLength is the number of past messages fetched for history display.
const DefaultHistoryLength = 10

// NewContextID returns a fresh conversation identifier.
func NewContextID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

// SessionConfig configures a Session.
type SessionConfig struct {
	// ContextID is the conversation to join. A fresh one is generated when empty.
	ContextID string

	// ShowHistory fetches and renders task history after every turn.
	ShowHistory bool

	// HistoryLength bounds the history window. Default: DefaultHistoryLength.
	HistoryLength int
}

// Session runs turns under a single conversation until the user quits.
type Session struct {
	controller *Controller
	cfg        SessionConfig
}

// NewSession creates a session bound to a controller.
func NewSession(controller *Controller, cfg SessionConfig) (*Session, error) {
	if controller == nil {
		return nil, fmt.Errorf("controller is required")
	}
	if cfg.ContextID == "" {
		cfg.ContextID = NewContextID()
	}
	if cfg.HistoryLength <= 0 {
		cfg.HistoryLength = DefaultHistoryLength
	}
	return &Session{controller: controller, cfg: cfg}, nil
}

// ContextID returns the conversation identifier shared by every turn.
func (s *Session) ContextID() string {
	return s.cfg.ContextID
}

// Run executes turns until one reports that the user quit or ctx is done.
// Protocol errors and failed turns are reported and followed by a new turn.
func (s *Session) Run(ctx context.Context) error {
	display := s.controller.cfg.Display

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		display.TurnStarted()
		outcome, err := s.controller.ExecuteTurn(ctx, s.cfg.ContextID, "")
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			display.Error("Turn failed", err)
			slog.Error("Turn failed", "context_id", s.cfg.ContextID, "error", err)
			continue
		}

		if !outcome.Continue {
			if outcome.Err != nil {
				slog.Warn("Turn aborted by protocol error", "context_id", s.cfg.ContextID, "task_id", outcome.TaskID, "error", outcome.Err)
				continue
			}
			return nil
		}

		if s.cfg.ShowHistory && outcome.TaskID != "" {
			s.showHistory(ctx, outcome.TaskID)
		}
	}
}

func (s *Session) showHistory(ctx context.Context, taskID a2a.TaskID) {
	length := s.cfg.HistoryLength
	task, err := s.controller.cfg.Client.GetTask(ctx, &a2a.TaskQueryParams{
		ID:            taskID,
		HistoryLength: &length,
	})
	if err != nil {
		s.controller.cfg.Display.Error("Failed to fetch history", err)
		return
	}
	s.controller.cfg.Display.History(task)
}
