// internal/run/config.go
package run

import (
	"strings"

	"github.com/schemarena/schemarena/internal/prompt"
)

// ValidateConfig checks a run configuration's preconditions in a fixed order
// and fails fast with the first violated one. A run is never created while
// any check fails.
func ValidateConfig(cfg RunConfig) error {
	if !prompt.HasPlaceholder(cfg.PromptTemplate) {
		return ErrNoPlaceholder
	}
	if len(cfg.Items) == 0 {
		return ErrNoItems
	}
	if !uniqueItemIDs(cfg.Items) {
		return ErrDuplicateItems
	}
	if len(cfg.Models) == 0 {
		return ErrNoModels
	}
	if !uniqueModels(cfg.Models) {
		return ErrDuplicateModels
	}
	if len(cfg.Schema) == 0 {
		return ErrNoSchema
	}
	if strings.TrimSpace(cfg.SchemaStatus) != SchemaStatusApproved {
		return ErrSchemaNotApproved
	}
	return nil
}

// uniqueItemIDs guards the exactly-one-result-per-pair invariant: duplicate
// item ids would collapse distinct tasks into one persisted row.
func uniqueItemIDs(items []Item) bool {
	seen := make(map[string]struct{}, len(items))
	for _, item := range items {
		if _, dup := seen[item.ID]; dup {
			return false
		}
		seen[item.ID] = struct{}{}
	}
	return true
}

func uniqueModels(models []string) bool {
	seen := make(map[string]struct{}, len(models))
	for _, model := range models {
		if _, dup := seen[model]; dup {
			return false
		}
		seen[model] = struct{}{}
	}
	return true
}
