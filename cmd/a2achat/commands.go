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

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/kadirpekel/a2achat/pkg/a2a/client"
	"github.com/kadirpekel/a2achat/pkg/console"
	"github.com/kadirpekel/a2achat/pkg/transcript"
)

// CardCmd fetches and prints the agent card.
type CardCmd struct {
	AgentFlags `embed:""`

	JSON bool `help:"Print the raw card as JSON."`
}

func (c *CardCmd) Run(cli *CLI) error {
	ctx, cancel := signalContext()
	defer cancel()

	cfg, cleanup, err := loadConfig(cli, c.AgentFlags.apply)
	if err != nil {
		return err
	}
	defer cleanup()

	httpClient := client.NewHTTPClient(client.Options{
		Headers: cfg.Agent.Headers,
		Timeout: cfg.Agent.Timeout,
	})
	card, err := client.ResolveCard(ctx, cfg.Agent.URL, httpClient)
	if err != nil {
		return err
	}

	if c.JSON {
		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")
		return encoder.Encode(card)
	}

	console.NewRenderer(os.Stdout).Card(card)
	return nil
}

// TranscriptCmd lists recorded turns.
type TranscriptCmd struct {
	Session string `arg:"" optional:"" help:"Conversation (context id) to show. Lists conversations when omitted."`
	DB      string `name:"db" help:"SQLite transcript database." type:"path" placeholder:"PATH"`
}

func (c *TranscriptCmd) Run(cli *CLI) error {
	ctx, cancel := signalContext()
	defer cancel()

	cfg, cleanup, err := loadConfig(cli, c.apply)
	if err != nil {
		return err
	}
	defer cleanup()

	store, err := openTranscript(ctx, &cfg.Transcript)
	if err != nil {
		return err
	}
	defer store.Close()

	if c.Session == "" {
		conversations, err := store.ListConversations(ctx)
		if err != nil {
			return err
		}
		printConversations(os.Stdout, conversations)
		return nil
	}

	turns, err := store.ListTurns(ctx, c.Session)
	if err != nil {
		return err
	}
	if len(turns) == 0 {
		return fmt.Errorf("no turns recorded for session %q", c.Session)
	}
	printTurns(os.Stdout, turns)
	return nil
}

func printConversations(w io.Writer, conversations []transcript.Conversation) {
	if len(conversations) == 0 {
		fmt.Fprintln(w, "No conversations recorded.")
		return
	}
	fmt.Fprintf(w, "Found %d conversation(s):\n\n", len(conversations))
	for _, c := range conversations {
		fmt.Fprintf(w, "  %s  (%d turn(s))\n", c.ContextID, c.Turns)
	}
}

func printTurns(w io.Writer, turns []transcript.Turn) {
	for _, t := range turns {
		state := t.State
		if state == "" {
			state = "-"
		}
		fmt.Fprintf(w, "#%d  %s  [%s]  task=%s  %s\n",
			t.Index, t.StartedAt.Local().Format("2006-01-02 15:04:05"), state, orDash(t.TaskID), t.Duration)
		fmt.Fprintf(w, "  You:   %s\n", t.UserText)
		if t.AgentText != "" {
			fmt.Fprintf(w, "  Agent: %s\n", strings.ReplaceAll(t.AgentText, "\n", "\n         "))
		}
		fmt.Fprintln(w)
	}
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
