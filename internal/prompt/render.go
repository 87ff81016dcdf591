// internal/prompt/render.go
// Package prompt renders master prompt templates by injecting one mock item
// into the template's placeholder. Substitution is the only templating
// operation; there are no loops or conditionals.
package prompt

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Placeholder is the injection token a master prompt must contain.
const Placeholder = "{{INPUT_DATA}}"

// HasPlaceholder reports whether the template contains the injection token at
// least once.
func HasPlaceholder(template string) bool {
	return strings.Contains(template, Placeholder)
}

// Render substitutes every occurrence of the placeholder with the serialized
// item content. Templates without a placeholder are an error here as well as
// in config validation, since Render can be reached on its own.
func Render(template string, item json.RawMessage) (string, error) {
	if !HasPlaceholder(template) {
		return "", fmt.Errorf("prompt template does not contain the %s placeholder", Placeholder)
	}

	serialized, err := canonicalize(item)
	if err != nil {
		return "", fmt.Errorf("serialize item content: %w", err)
	}
	return strings.ReplaceAll(template, Placeholder, serialized), nil
}

// canonicalize round-trips the item through the JSON encoder so the injected
// text is compact and free of incidental whitespace from the source file.
func canonicalize(item json.RawMessage) (string, error) {
	var value any
	if err := json.Unmarshal(item, &value); err != nil {
		return "", err
	}
	compact, err := json.Marshal(value)
	if err != nil {
		return "", err
	}
	return string(compact), nil
}
