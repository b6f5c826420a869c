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

// Package console renders the conversation on a terminal and reads user input.
package console

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"sync"

	"github.com/a2aproject/a2a-go/a2a"
	"github.com/fatih/color"
	"golang.org/x/term"

	"github.com/kadirpekel/a2achat/pkg/chat"
)

const bannerRule = "========="

// Renderer writes conversation output. It is safe for concurrent use, so
// push notifications can be shown while a turn is in progress.
type Renderer struct {
	mu        sync.Mutex
	out       io.Writer
	agentName string

	bold    func(a ...any) string
	cyan    func(a ...any) string
	green   func(a ...any) string
	yellow  func(a ...any) string
	red     func(a ...any) string
	magenta func(a ...any) string
	faint   func(a ...any) string
}

var _ chat.Display = (*Renderer)(nil)

// Option configures a Renderer.
type Option func(*Renderer)

// WithColor forces colour on or off. By default colour is used only when
// the output is a terminal.
func WithColor(enabled bool) Option {
	return func(r *Renderer) {
		r.setColor(enabled)
	}
}

// WithAgentName sets the label agent responses are prefixed with.
func WithAgentName(name string) Option {
	return func(r *Renderer) {
		if name != "" {
			r.agentName = name
		}
	}
}

// NewRenderer creates a renderer writing to out.
func NewRenderer(out io.Writer, opts ...Option) *Renderer {
	r := &Renderer{out: out, agentName: "Agent"}
	r.setColor(isTerminal(out))
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func (r *Renderer) setColor(enabled bool) {
	mk := func(attrs ...color.Attribute) func(a ...any) string {
		c := color.New(attrs...)
		if enabled {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
		return c.SprintFunc()
	}
	r.bold = mk(color.Bold)
	r.cyan = mk(color.FgCyan, color.Bold)
	r.green = mk(color.FgGreen)
	r.yellow = mk(color.FgYellow)
	r.red = mk(color.FgRed, color.Bold)
	r.magenta = mk(color.FgMagenta)
	r.faint = mk(color.Faint)
}

func (r *Renderer) printf(format string, args ...any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	fmt.Fprintf(r.out, format, args...)
}

// Card prints the agent card summary.
func (r *Renderer) Card(card *a2a.AgentCard) {
	if card == nil {
		return
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s\n", r.bold("Agent Card"))
	fmt.Fprintf(&b, "  Name:        %s\n", card.Name)
	if card.Description != "" {
		fmt.Fprintf(&b, "  Description: %s\n", card.Description)
	}
	if card.Version != "" {
		fmt.Fprintf(&b, "  Version:     %s\n", card.Version)
	}
	if card.URL != "" {
		fmt.Fprintf(&b, "  URL:         %s\n", card.URL)
	}
	fmt.Fprintf(&b, "  Streaming:   %v\n", card.Capabilities.Streaming)
	fmt.Fprintf(&b, "  Push:        %v\n", card.Capabilities.PushNotifications)
	if len(card.Skills) > 0 {
		fmt.Fprintf(&b, "  Skills:\n")
		for _, skill := range card.Skills {
			if skill.Description != "" {
				fmt.Fprintf(&b, "    - %s: %s\n", skill.Name, skill.Description)
			} else {
				fmt.Fprintf(&b, "    - %s\n", skill.Name)
			}
		}
	}
	r.printf("%s\n", b.String())
}

// Headers echoes the extra request headers, sorted by name.
func (r *Renderer) Headers(headers map[string]string) {
	if len(headers) == 0 {
		return
	}
	keys := make([]string, 0, len(headers))
	for k := range headers {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, len(keys))
	for i, k := range keys {
		pairs[i] = k + "=" + headers[k]
	}
	r.printf("Will use headers: %s\n", strings.Join(pairs, ", "))
}

// Info prints a plain notice.
func (r *Renderer) Info(msg string) {
	r.printf("%s\n", r.faint(msg))
}

// PromptLabel prints the question shown before reading input.
func (r *Renderer) PromptLabel(label string) {
	r.printf("\n%s\n", r.bold(label))
}

// TurnStarted prints the banner that opens a new task.
func (r *Renderer) TurnStarted() {
	r.printf("\n%s starting a new task %s\n", bannerRule, bannerRule)
}

// UserMessage echoes the sent utterance.
func (r *Renderer) UserMessage(text string) {
	r.printf("%s %s\n", r.green("You:"), text)
}

// AgentResponse prints the agent's reply.
func (r *Renderer) AgentResponse(text string) {
	r.printf("%s %s\n", r.cyan(r.agentName+":"), text)
}

// Status prints a task lifecycle notice.
func (r *Renderer) Status(label, detail string) {
	if detail == "" {
		r.printf("%s\n", r.yellow("["+label+"]"))
		return
	}
	r.printf("%s %s\n", r.yellow("["+label+"]"), detail)
}

// Error prints a failure notice.
func (r *Renderer) Error(msg string, err error) {
	if err == nil {
		r.printf("%s %s\n", r.red("Error:"), msg)
		return
	}
	r.printf("%s %s: %v\n", r.red("Error:"), msg, err)
}

// History prints the task's message history as JSON.
func (r *Renderer) History(task *a2a.Task) {
	if task == nil {
		return
	}
	data, err := json.MarshalIndent(task.History, "", "  ")
	if err != nil {
		r.Error("Failed to render history", err)
		return
	}
	r.printf("\n%s history %s\n%s\n", bannerRule, bannerRule, string(data))
}

// PushNotification prints a verified push notification.
func (r *Renderer) PushNotification(task *a2a.Task) {
	if task == nil {
		return
	}
	detail := fmt.Sprintf("task %s is %s", task.ID, task.Status.State)
	if task.Status.Message != nil {
		if text := chat.MessageText(task.Status.Message); text != "" {
			detail += ": " + text
		}
	}
	r.printf("%s %s\n", r.magenta("[Push Notification]"), detail)
}

// Goodbye prints the closing line.
func (r *Renderer) Goodbye() {
	r.printf("%s\n", r.faint("Goodbye!"))
}
