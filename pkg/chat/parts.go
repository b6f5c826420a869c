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
	"log/slog"
	"strings"

	"github.com/a2aproject/a2a-go/a2a"
)

// ErrUnknownPart is returned by ClassifyPart for part types outside the A2A content model.
var ErrUnknownPart = errors.New("unknown content part")

// PartKind identifies the variant of an A2A content part.
type PartKind int

const (
	PartKindText PartKind = iota + 1
	PartKindData
	PartKindFile
)

func (k PartKind) String() string {
	switch k {
	case PartKindText:
		return "text"
	case PartKindData:
		return "data"
	case PartKindFile:
		return "file"
	default:
		return "unknown"
	}
}

// Part is a classified content part. Only text parts carry Text.
type Part struct {
	Kind PartKind
	Text string
}

// ClassifyPart maps an a2a.Part onto its variant.
func ClassifyPart(p a2a.Part) (Part, error) {
	switch v := p.(type) {
	case a2a.TextPart:
		return Part{Kind: PartKindText, Text: v.Text}, nil
	case *a2a.TextPart:
		return Part{Kind: PartKindText, Text: v.Text}, nil
	case a2a.DataPart, *a2a.DataPart:
		return Part{Kind: PartKindData}, nil
	case a2a.FilePart, *a2a.FilePart:
		return Part{Kind: PartKindFile}, nil
	default:
		return Part{}, fmt.Errorf("%w: %T", ErrUnknownPart, p)
	}
}

// JoinText concatenates the text of all text parts with a single space.
// Data and file parts contribute nothing.
func JoinText(parts []a2a.Part) string {
	texts := make([]string, 0, len(parts))
	for _, p := range parts {
		part, err := ClassifyPart(p)
		if err != nil {
			slog.Debug("Skipping content part", "error", err)
			continue
		}
		if part.Kind == PartKindText {
			texts = append(texts, part.Text)
		}
	}
	return strings.Join(texts, " ")
}

// MessageText returns the joined text of a message, or "" for nil.
func MessageText(msg *a2a.Message) string {
	if msg == nil {
		return ""
	}
	return JoinText(msg.Parts)
}
