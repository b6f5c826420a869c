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

	"github.com/invopop/jsonschema"

	"github.com/kadirpekel/a2achat/pkg/config"
)

// SchemaCmd generates JSON Schema from the config structs.
// Editors use it to validate and complete a2achat.yaml.
type SchemaCmd struct {
	Compact bool `help:"Compact JSON output (no indentation)."`
}

func (c *SchemaCmd) Run() error {
	return writeSchema(os.Stdout, c.Compact)
}

func configSchema() *jsonschema.Schema {
	reflector := &jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
	}

	schema := reflector.Reflect(&config.Config{})
	schema.ID = "https://github.com/kadirpekel/a2achat/schemas/config.json"
	schema.Title = "a2achat Configuration Schema"
	schema.Description = "Configuration for the a2achat A2A client"
	schema.Version = "http://json-schema.org/draft-07/schema#"

	schema.Examples = []any{
		map[string]any{
			"agent": map[string]any{
				"url":     config.DefaultAgentURL,
				"timeout": "30s",
				"headers": map[string]any{"Authorization": "Bearer ${AGENT_TOKEN}"},
			},
			"session": map[string]any{"history": true},
			"push": map[string]any{
				"enabled":  true,
				"receiver": config.DefaultPushReceiver,
			},
		},
	}
	return schema
}

func writeSchema(w io.Writer, compact bool) error {
	encoder := json.NewEncoder(w)
	if !compact {
		encoder.SetIndent("", "  ")
	}
	if err := encoder.Encode(configSchema()); err != nil {
		return fmt.Errorf("failed to encode schema: %w", err)
	}
	return nil
}
