// internal/suite/suite.go
// Package suite loads test suite files that describe a run: the prompt
// template, the schema the model output must satisfy, the input items, and
// the models under test.
package suite

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/schemarena/schemarena/internal/run"
)

// Item is one input payload in a suite file. The id is optional and gets a
// positional default when omitted.
type Item struct {
	ID      string          `json:"id,omitempty"`
	Content json.RawMessage `json:"content"`
}

// Suite is the on-disk shape of a test suite file.
type Suite struct {
	Name           string          `json:"name"`
	PromptTemplate string          `json:"promptTemplate"`
	Schema         json.RawMessage `json:"schema"`
	SchemaStatus   string          `json:"schemaStatus,omitempty"`
	Items          []Item          `json:"items"`
	Models         []string        `json:"models"`
}

// Load reads and parses a suite file and converts it into a run
// configuration. Items without an id are assigned item-1, item-2, ... by
// position. A suite that does not state a schema status is treated as
// approved, since committing the file is the review step.
func Load(path string) (run.RunConfig, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return run.RunConfig{}, fmt.Errorf("read suite %s: %w", path, err)
	}

	var s Suite
	if err := json.Unmarshal(raw, &s); err != nil {
		return run.RunConfig{}, fmt.Errorf("parse suite %s: %w", path, err)
	}

	if strings.TrimSpace(s.Name) == "" {
		return run.RunConfig{}, fmt.Errorf("suite %s is missing a name", path)
	}

	status := s.SchemaStatus
	if status == "" {
		status = run.SchemaStatusApproved
	}

	items := make([]run.Item, len(s.Items))
	for i, item := range s.Items {
		id := item.ID
		if strings.TrimSpace(id) == "" {
			id = fmt.Sprintf("item-%d", i+1)
		}
		items[i] = run.Item{ID: id, Content: item.Content}
	}

	return run.RunConfig{
		Name:           s.Name,
		PromptTemplate: s.PromptTemplate,
		Schema:         s.Schema,
		SchemaStatus:   status,
		Items:          items,
		Models:         s.Models,
	}, nil
}
