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

package console

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/chzyer/readline"

	"github.com/kadirpekel/a2achat/pkg/chat"
)

// LineReader reads edited lines. *readline.Instance satisfies it.
type LineReader interface {
	Readline() (string, error)
	SetPrompt(prompt string)
	Close() error
}

// PrompterConfig configures a Prompter.
type PrompterConfig struct {
	// HistoryFile persists input history. Empty disables it.
	HistoryFile string

	// Prompt is the input marker. Default: "> ".
	Prompt string

	// OnPrompt is called with the label before every read.
	OnPrompt func(label string)

	Stdin  io.ReadCloser
	Stdout io.Writer
	Stderr io.Writer
}

// Prompter reads user input with line editing and history.
type Prompter struct {
	reader   LineReader
	prompt   string
	onPrompt func(string)
}

var _ chat.Prompter = (*Prompter)(nil)

// NewPrompter creates a readline-backed prompter.
func NewPrompter(cfg PrompterConfig) (*Prompter, error) {
	if cfg.Prompt == "" {
		cfg.Prompt = "> "
	}
	if cfg.Stdin == nil {
		cfg.Stdin = os.Stdin
	}
	if cfg.Stdout == nil {
		cfg.Stdout = os.Stdout
	}
	if cfg.Stderr == nil {
		cfg.Stderr = os.Stderr
	}

	rl, err := readline.NewEx(&readline.Config{
		Prompt:            cfg.Prompt,
		HistoryFile:       cfg.HistoryFile,
		InterruptPrompt:   "^C",
		EOFPrompt:         "quit",
		HistorySearchFold: true,
		UniqueEditLine:    true,

		Stdin:  readline.NewCancelableStdin(cfg.Stdin),
		Stdout: cfg.Stdout,
		Stderr: cfg.Stderr,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize readline: %w", err)
	}
	return NewPrompterWithReader(rl, cfg.Prompt, cfg.OnPrompt), nil
}

// NewPrompterWithReader wraps an existing line reader.
func NewPrompterWithReader(reader LineReader, prompt string, onPrompt func(string)) *Prompter {
	return &Prompter{reader: reader, prompt: prompt, onPrompt: onPrompt}
}

type readResult struct {
	line string
	err  error
}

// Prompt shows label and reads one line. Ctrl+C on an empty line and
// Ctrl+D both end input with io.EOF; Ctrl+C on a partial line discards it.
// When ctx is cancelled the reader is closed and ctx.Err() is returned.
func (p *Prompter) Prompt(ctx context.Context, label string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if p.onPrompt != nil {
		p.onPrompt(label)
	}
	p.reader.SetPrompt(p.prompt)

	for {
		ch := make(chan readResult, 1)
		go func() {
			line, err := p.reader.Readline()
			ch <- readResult{line: line, err: err}
		}()

		var res readResult
		select {
		case res = <-ch:
		case <-ctx.Done():
			_ = p.reader.Close()
			return "", ctx.Err()
		}

		switch {
		case errors.Is(res.err, readline.ErrInterrupt):
			if res.line == "" {
				return "", io.EOF
			}
			continue
		case errors.Is(res.err, io.EOF):
			return "", io.EOF
		case res.err != nil:
			return "", fmt.Errorf("failed to read input: %w", res.err)
		}
		return res.line, nil
	}
}

// Close releases the terminal.
func (p *Prompter) Close() error {
	return p.reader.Close()
}
