// internal/prompt/render_test.go
package prompt

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestRenderInjectsSerializedItem(t *testing.T) {
	template := "Generate a product JSON for this input: {{INPUT_DATA}}. Output JSON only."
	item := json.RawMessage(`{
        "name": "Widget",
        "price": 9.99
    }`)

	rendered, err := Render(template, item)
	if err != nil {
		t.Fatalf("Render returned error: %v", err)
	}
	if !strings.Contains(rendered, `"name":"Widget"`) {
		t.Fatalf("expected compact item JSON in rendered prompt, got %q", rendered)
	}
	if strings.Contains(rendered, Placeholder) {
		t.Fatalf("placeholder should be gone after rendering: %q", rendered)
	}
}

func TestRenderReplacesEveryOccurrence(t *testing.T) {
	template := "{{INPUT_DATA}} and again {{INPUT_DATA}}"
	rendered, err := Render(template, json.RawMessage(`{"a":1}`))
	if err != nil {
		t.Fatalf("Render returned error: %v", err)
	}
	if got := strings.Count(rendered, `{"a":1}`); got != 2 {
		t.Fatalf("expected 2 injections, got %d in %q", got, rendered)
	}
}

func TestRenderMissingPlaceholder(t *testing.T) {
	if _, err := Render("no token here", json.RawMessage(`{}`)); err == nil {
		t.Fatal("expected error for template without placeholder")
	}
}

func TestRenderInvalidItemContent(t *testing.T) {
	if _, err := Render("data: {{INPUT_DATA}}", json.RawMessage(`{broken`)); err == nil {
		t.Fatal("expected error for unparseable item content")
	}
}
