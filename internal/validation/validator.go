// internal/validation/validator.go
// Package validation classifies raw model output against a target JSON
// schema. Parsing precedes validation: output that is not syntactically valid
// JSON is never validated, it is reported as non-parseable. Validation itself
// never fails fast; the full document is walked and every violation is
// collected with its path.
package validation

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// Compliance is the schema-compliance classification of one model output.
type Compliance string

const (
	// CompliancePass means the parsed output satisfied the schema with zero violations.
	CompliancePass Compliance = "Pass"
	// ComplianceFail means the parsed output violated the schema at least once.
	ComplianceFail Compliance = "Fail"
	// ComplianceNotApplicable means there was no parseable document to validate.
	ComplianceNotApplicable Compliance = "NotApplicable"
)

// RuleParse is the rule kind attached to the single violation describing a
// JSON parse failure.
const RuleParse = "parse"

// Violation is one schema rule the document broke, addressed by its path from
// the document root.
type Violation struct {
	Message string   `json:"message"`
	Path    []string `json:"path"`
	Rule    string   `json:"rule"`
}

// Report is the full classification of one raw output.
type Report struct {
	ParseStatus bool        `json:"parse_status"`
	Compliance  Compliance  `json:"compliance_status"`
	Violations  []Violation `json:"violations,omitempty"`
}

// Evaluate strips markdown fences from the raw output, parses it as JSON, and
// validates the parsed document against the schema. The same input always
// yields the identical report: violations are sorted by path, rule, then
// message.
func Evaluate(rawOutput string, schema json.RawMessage) Report {
	cleaned := StripFences(rawOutput)

	var document any
	if err := json.Unmarshal([]byte(cleaned), &document); err != nil {
		return Report{
			ParseStatus: false,
			Compliance:  ComplianceNotApplicable,
			Violations: []Violation{{
				Message: fmt.Sprintf("output is not valid JSON: %v", err),
				Rule:    RuleParse,
			}},
		}
	}

	violations := Validate(document, schema)
	compliance := CompliancePass
	if len(violations) > 0 {
		compliance = ComplianceFail
	}
	return Report{
		ParseStatus: true,
		Compliance:  compliance,
		Violations:  violations,
	}
}

// Validate walks the whole document against the whole schema and returns
// every violation found. An empty slice means full compliance.
func Validate(document any, schema json.RawMessage) []Violation {
	compiled, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(schema))
	if err != nil {
		// An approved schema should always compile; surface the problem as a
		// violation rather than silently passing the document.
		return []Violation{{
			Message: fmt.Sprintf("schema could not be compiled: %v", err),
			Rule:    "schema_error",
		}}
	}

	result, err := compiled.Validate(gojsonschema.NewGoLoader(document))
	if err != nil {
		return []Violation{{
			Message: fmt.Sprintf("validation could not be performed: %v", err),
			Rule:    "schema_error",
		}}
	}

	violations := make([]Violation, 0, len(result.Errors()))
	for _, resultErr := range result.Errors() {
		violations = append(violations, Violation{
			Message: resultErr.Description(),
			Path:    violationPath(resultErr),
			Rule:    resultErr.Type(),
		})
	}
	sortViolations(violations)
	return violations
}

// violationPath converts gojsonschema's dotted field notation into a path of
// property and index accessors. Required-property violations are reported by
// the library at the parent object; the missing property name is appended so
// the path addresses the absent field itself.
func violationPath(resultErr gojsonschema.ResultError) []string {
	field := resultErr.Field()
	var path []string
	if field != "" && field != "(root)" {
		path = strings.Split(field, ".")
	}
	if resultErr.Type() == "required" {
		if prop, ok := resultErr.Details()["property"].(string); ok && prop != "" {
			path = append(path, prop)
		}
	}
	return path
}

func sortViolations(violations []Violation) {
	sort.SliceStable(violations, func(i, j int) bool {
		pi := strings.Join(violations[i].Path, ".")
		pj := strings.Join(violations[j].Path, ".")
		if pi != pj {
			return pi < pj
		}
		if violations[i].Rule != violations[j].Rule {
			return violations[i].Rule < violations[j].Rule
		}
		return violations[i].Message < violations[j].Message
	})
}

// StripFences removes a surrounding markdown code fence from model output.
// Models frequently wrap JSON in ```json blocks even when told not to.
func StripFences(raw string) string {
	trimmed := strings.TrimSpace(raw)
	for _, fence := range []string{"```json", "```"} {
		if strings.HasPrefix(trimmed, fence) {
			trimmed = trimmed[len(fence):]
			if idx := strings.LastIndex(trimmed, "```"); idx >= 0 {
				trimmed = trimmed[:idx]
			}
			return strings.TrimSpace(trimmed)
		}
	}
	return trimmed
}
