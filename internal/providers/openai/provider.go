// internal/providers/openai/provider.go
// Package openai provides a CompletionClient backed by OpenAI-compatible HTTP
// endpoints (/v1/chat/completions and /v1/models), as exposed by LiteLLM,
// OpenRouter, and similar proxies.
package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/schemarena/schemarena/internal/appconfig"
	"github.com/schemarena/schemarena/internal/logging"
	"github.com/schemarena/schemarena/internal/providers"
)

// pingTimeout bounds the reachability probe; it must stay well under the
// per-call completion timeout.
const pingTimeout = 10 * time.Second

// Client implements providers.CompletionClient against OpenAI-compatible APIs.
type Client struct {
	client  *http.Client
	baseURL string
	apiKey  string
	timeout time.Duration
	debug   bool
}

// New constructs a Client configured with the application's request timeout.
func New(cfg *appconfig.Config) *Client {
	timeout := cfg.RequestTimeout()
	return &Client{
		client: &http.Client{
			Timeout: timeout,
		},
		baseURL: strings.TrimRight(cfg.ServiceURL, "/"),
		apiKey:  cfg.ServiceAPIKey,
		timeout: timeout,
		debug:   cfg.Debug,
	}
}

// chatRequest defines the request body for /v1/chat/completions.
type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
	Stream      bool          `json:"stream"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// chatResponse defines the subset of the chat completion response the engine
// consumes.
type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Usage *providers.TokenUsage `json:"usage"`
}

// modelsResponse defines the /v1/models list payload.
type modelsResponse struct {
	Data []struct {
		ID          string `json:"id"`
		Name        string `json:"name"`
		Description string `json:"description"`
	} `json:"data"`
}

// Complete sends one rendered prompt to one named model. The per-call timeout
// is applied here; callers supply a context only for cancellation.
func (c *Client) Complete(ctx context.Context, req providers.CompletionRequest) (providers.Completion, error) {
	payload := chatRequest{
		Model: req.Model,
		Messages: []chatMessage{{
			Role:    "user",
			Content: req.Prompt,
		}},
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
		Stream:      false,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return providers.Completion{}, c.classify(req.Model, err)
	}
	if c.debug {
		logging.LogRequest("ENGINE->LLM", req.Model, body)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/chat/completions", bytes.NewReader(body))
	if err != nil {
		return providers.Completion{}, c.classify(req.Model, err)
	}
	c.setHeaders(httpReq)

	start := time.Now()
	resp, err := c.client.Do(httpReq)
	if err != nil {
		return providers.Completion{}, c.classify(req.Model, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return providers.Completion{}, c.classify(req.Model, err)
	}
	latency := time.Since(start)

	if resp.StatusCode == http.StatusTooManyRequests {
		return providers.Completion{}, &providers.CallError{
			Kind:  providers.ErrorRateLimited,
			Model: req.Model,
			Err:   fmt.Errorf("service returned %s: %s", resp.Status, truncate(raw)),
		}
	}
	if resp.StatusCode != http.StatusOK {
		return providers.Completion{}, &providers.CallError{
			Kind:  providers.ErrorTransport,
			Model: req.Model,
			Err:   fmt.Errorf("service returned %s: %s", resp.Status, truncate(raw)),
		}
	}
	if c.debug {
		logging.LogRequest("LLM->ENGINE", req.Model, raw)
	}

	var parsed chatResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return providers.Completion{}, c.classify(req.Model, fmt.Errorf("decode response: %w", err))
	}
	if len(parsed.Choices) == 0 {
		return providers.Completion{}, &providers.CallError{
			Kind:  providers.ErrorTransport,
			Model: req.Model,
			Err:   errors.New("service returned no choices"),
		}
	}

	return providers.Completion{
		RawOutput: parsed.Choices[0].Message.Content,
		Usage:     parsed.Usage,
		Latency:   latency,
	}, nil
}

// ListModels fetches the models the service advertises via /v1/models.
func (c *Client) ListModels(ctx context.Context) ([]providers.Model, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/v1/models", nil)
	if err != nil {
		return nil, err
	}
	c.setHeaders(req)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("could not reach completion service: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("openai: /v1/models returned %s", resp.Status)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	var parsed modelsResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("decode model list: %w", err)
	}

	models := make([]providers.Model, 0, len(parsed.Data))
	for _, m := range parsed.Data {
		if m.ID == "" {
			continue
		}
		name := m.Name
		if name == "" {
			name = m.ID
		}
		models = append(models, providers.Model{
			ID:          m.ID,
			Name:        name,
			Description: m.Description,
		})
	}
	return models, nil
}

// Ping verifies the service answers /v1/models at all. It does not require a
// populated model list, only a reachable, non-erroring endpoint.
func (c *Client) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/v1/models", nil)
	if err != nil {
		return err
	}
	c.setHeaders(req)

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("completion service unreachable at %s: %w", c.baseURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusInternalServerError {
		return fmt.Errorf("completion service unhealthy: %s", resp.Status)
	}
	return nil
}

// Close releases client resources. The shared transport holds no state that
// needs explicit teardown.
func (c *Client) Close() error {
	c.client.CloseIdleConnections()
	return nil
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
}

// classify wraps a raw error into a *CallError with the right kind.
func (c *Client) classify(model string, err error) *providers.CallError {
	kind := providers.ErrorTransport
	var netErr net.Error
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		kind = providers.ErrorTimeout
	case errors.As(err, &netErr) && netErr.Timeout():
		kind = providers.ErrorTimeout
	}
	return &providers.CallError{Kind: kind, Model: model, Err: err}
}

func truncate(body []byte) string {
	const max = 512
	s := strings.TrimSpace(string(body))
	if len(s) > max {
		return s[:max] + "..."
	}
	return s
}
