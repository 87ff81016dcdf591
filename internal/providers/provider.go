// internal/providers/provider.go

// Package providers defines the interface the evaluation engine uses to talk
// to a completion service. It abstracts over concrete backends so the engine
// can send one rendered prompt to one named model and get back raw text plus
// usage metadata, regardless of the wire protocol underneath.
package providers

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Model describes one model advertised by the completion service.
type Model struct {
	ID          string `json:"model_id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// TokenUsage carries the token counts reported by the completion service for
// a single call. Services may omit usage entirely, in which case the
// Completion holds a nil TokenUsage.
type TokenUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// CompletionRequest encapsulates one call against a named model.
type CompletionRequest struct {
	Model       string
	Prompt      string
	Temperature float64
	MaxTokens   int
}

// Completion is the successful outcome of a completion call.
type Completion struct {
	RawOutput string
	Usage     *TokenUsage
	Latency   time.Duration
}

// ErrorKind classifies completion call failures.
type ErrorKind string

const (
	// ErrorTimeout marks calls that exceeded their per-call deadline.
	ErrorTimeout ErrorKind = "timeout"
	// ErrorRateLimited marks calls rejected by the service's rate limiter.
	ErrorRateLimited ErrorKind = "rate_limited"
	// ErrorTransport marks every other network or protocol failure.
	ErrorTransport ErrorKind = "transport"
)

// CallError is the classified failure of a single completion call.
type CallError struct {
	Kind  ErrorKind
	Model string
	Err   error
}

func (e *CallError) Error() string {
	return fmt.Sprintf("completion call to %s failed (%s): %v", e.Model, e.Kind, e.Err)
}

func (e *CallError) Unwrap() error { return e.Err }

// KindOf returns the classification of a completion call error, defaulting to
// transport for errors that did not come from a provider.
func KindOf(err error) ErrorKind {
	var callErr *CallError
	if errors.As(err, &callErr) {
		return callErr.Kind
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return ErrorTimeout
	}
	return ErrorTransport
}

// CompletionClient is the interface all completion service backends implement.
type CompletionClient interface {
	// Complete sends one rendered prompt to one named model and returns the
	// raw text output with usage metadata, or a *CallError.
	Complete(ctx context.Context, req CompletionRequest) (Completion, error)
	// ListModels returns the models the service advertises.
	ListModels(ctx context.Context) ([]Model, error)
	// Ping verifies the service is reachable at all. A Ping failure means the
	// orchestration substrate is unusable, not that a single call failed.
	Ping(ctx context.Context) error
	// Close releases any resources held by the client.
	Close() error
}
