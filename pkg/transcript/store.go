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

// Package transcript persists completed conversation turns in SQL.
//
// PostgreSQL, MySQL and SQLite are supported. Each conversation (context id)
// keeps its turns in the order they were recorded.
package transcript

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/a2aproject/a2a-go/a2a"
	"github.com/google/uuid"

	"github.com/kadirpekel/a2achat/pkg/chat"
)

// Turn is a recorded prompt/response round.
type Turn struct {
	ID        string
	ContextID string
	Index     int
	TaskID    string
	UserText  string
	AgentText string
	Source    string
	State     string
	Streaming bool
	StartedAt time.Time
	Duration  time.Duration
}

// Conversation summarizes the turns stored for one context id.
type Conversation struct {
	ContextID string
	Turns     int
}

const createTurnsSchemaSQL = `
CREATE TABLE IF NOT EXISTS chat_turns (
    id VARCHAR(64) NOT NULL,
    context_id VARCHAR(255) NOT NULL,
    turn_index INTEGER NOT NULL,
    task_id VARCHAR(255),
    user_text TEXT,
    agent_text TEXT,
    source VARCHAR(32),
    state VARCHAR(64),
    streaming BOOLEAN DEFAULT FALSE,
    started_at TIMESTAMP NOT NULL,
    duration_ms BIGINT NOT NULL,
    PRIMARY KEY (id)
)`

const createTurnsIndexSQL = `
CREATE INDEX IF NOT EXISTS idx_chat_turns_context ON chat_turns(context_id, turn_index)`

// SQLStore records turns in a SQL database.
type SQLStore struct {
	db      *sql.DB
	dialect string
}

var _ chat.Recorder = (*SQLStore)(nil)

// NewSQLStore creates the schema if needed and returns a store.
func NewSQLStore(db *sql.DB, dialect string) (*SQLStore, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is required")
	}

	switch dialect {
	case "postgres", "mysql", "sqlite", "sqlite3":
		if dialect == "sqlite3" {
			dialect = "sqlite"
		}
	default:
		return nil, fmt.Errorf("unsupported dialect: %s (supported: postgres, mysql, sqlite)", dialect)
	}

	s := &SQLStore{db: db, dialect: dialect}
	if err := s.initSchema(); err != nil {
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return s, nil
}

func (s *SQLStore) initSchema() error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	statements := []string{createTurnsSchemaSQL}
	// MySQL has no CREATE INDEX IF NOT EXISTS.
	if s.dialect != "mysql" {
		statements = append(statements, createTurnsIndexSQL)
	}

	for _, stmt := range statements {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to execute schema statement: %w", err)
		}
	}
	return nil
}

// Close closes the database connection.
func (s *SQLStore) Close() error {
	return s.db.Close()
}

// RecordTurn appends a completed turn to its conversation.
func (s *SQLStore) RecordTurn(ctx context.Context, rec chat.TurnRecord) error {
	if rec.ContextID == "" {
		return fmt.Errorf("context id is required")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var next int
	query := s.rebind(`SELECT COALESCE(MAX(turn_index), 0) + 1 FROM chat_turns WHERE context_id = ?`)
	if err := tx.QueryRowContext(ctx, query, rec.ContextID).Scan(&next); err != nil {
		return fmt.Errorf("failed to get next turn index: %w", err)
	}

	startedAt := rec.StartedAt
	if startedAt.IsZero() {
		startedAt = time.Now()
	}

	insert := s.rebind(`INSERT INTO chat_turns
        (id, context_id, turn_index, task_id, user_text, agent_text, source, state, streaming, started_at, duration_ms)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	_, err = tx.ExecContext(ctx, insert,
		uuid.NewString(),
		rec.ContextID,
		next,
		string(rec.TaskID),
		rec.UserText,
		rec.AgentText,
		string(rec.Source),
		string(rec.State),
		rec.Streaming,
		startedAt.UTC(),
		rec.Duration.Milliseconds(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert turn: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit turn: %w", err)
	}
	return nil
}

// ListTurns returns the turns of a conversation in recording order.
func (s *SQLStore) ListTurns(ctx context.Context, contextID string) ([]Turn, error) {
	query := s.rebind(`SELECT id, context_id, turn_index, task_id, user_text, agent_text, source, state, streaming, started_at, duration_ms
              FROM chat_turns WHERE context_id = ? ORDER BY turn_index`)

	rows, err := s.db.QueryContext(ctx, query, contextID)
	if err != nil {
		return nil, fmt.Errorf("failed to list turns: %w", err)
	}
	defer rows.Close()

	var turns []Turn
	for rows.Next() {
		var (
			t          Turn
			taskID     sql.NullString
			userText   sql.NullString
			agentText  sql.NullString
			source     sql.NullString
			state      sql.NullString
			durationMs int64
		)
		if err := rows.Scan(&t.ID, &t.ContextID, &t.Index, &taskID, &userText, &agentText,
			&source, &state, &t.Streaming, &t.StartedAt, &durationMs); err != nil {
			return nil, fmt.Errorf("failed to scan turn: %w", err)
		}
		t.TaskID = taskID.String
		t.UserText = userText.String
		t.AgentText = agentText.String
		t.Source = source.String
		t.State = state.String
		t.Duration = time.Duration(durationMs) * time.Millisecond
		turns = append(turns, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate turns: %w", err)
	}
	return turns, nil
}

// ListConversations returns every stored context id with its turn count.
func (s *SQLStore) ListConversations(ctx context.Context) ([]Conversation, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT context_id, COUNT(*) FROM chat_turns GROUP BY context_id ORDER BY context_id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list conversations: %w", err)
	}
	defer rows.Close()

	var out []Conversation
	for rows.Next() {
		var c Conversation
		if err := rows.Scan(&c.ContextID, &c.Turns); err != nil {
			return nil, fmt.Errorf("failed to scan conversation: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// TaskState converts a stored state back to its protocol value.
func (t Turn) TaskState() a2a.TaskState {
	return a2a.TaskState(t.State)
}

func (s *SQLStore) rebind(query string) string {
	if s.dialect != "postgres" {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 20)
	paramNum := 1
	for _, c := range query {
		if c == '?' {
			fmt.Fprintf(&b, "$%d", paramNum)
			paramNum++
		} else {
			b.WriteRune(c)
		}
	}
	return b.String()
}
