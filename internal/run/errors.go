// internal/run/errors.go
package run

import "fmt"

// ConfigError reports a run configuration that failed a precondition. It is
// raised synchronously before any run record exists.
type ConfigError struct {
	Reason string
}

func (e *ConfigError) Error() string {
	return "invalid run config: " + e.Reason
}

// The distinct, ordered precondition failures. Each is a *ConfigError so
// callers can match with errors.Is against the exact reason.
var (
	ErrNoPlaceholder     = &ConfigError{Reason: "prompt template does not contain the {{INPUT_DATA}} placeholder"}
	ErrNoItems           = &ConfigError{Reason: "mock item set is empty"}
	ErrDuplicateItems    = &ConfigError{Reason: "mock item ids are not unique"}
	ErrNoModels          = &ConfigError{Reason: "target model set is empty"}
	ErrDuplicateModels   = &ConfigError{Reason: "target model ids are not unique"}
	ErrNoSchema          = &ConfigError{Reason: "target schema content is empty"}
	ErrSchemaNotApproved = &ConfigError{Reason: "target schema is not in approved status"}
)

// SystemError reports that the orchestration or persistence substrate itself
// is unusable. It drives the run to Failed; it is never retried.
type SystemError struct {
	Op  string
	Err error
}

func (e *SystemError) Error() string {
	return fmt.Sprintf("system failure during %s: %v", e.Op, e.Err)
}

func (e *SystemError) Unwrap() error { return e.Err }
