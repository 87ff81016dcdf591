// internal/providers/openai/provider_test.go
package openai

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/schemarena/schemarena/internal/appconfig"
	"github.com/schemarena/schemarena/internal/providers"
)

func newTestClient(t *testing.T, handler http.HandlerFunc, timeoutSeconds int) (*Client, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	cfg := &appconfig.Config{
		ServiceURL:     server.URL,
		ServiceAPIKey:  "sk-test",
		TimeoutSeconds: timeoutSeconds,
	}
	return New(cfg), server
}

func TestCompleteParsesOutputAndUsage(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer sk-test" {
			t.Errorf("missing bearer header, got %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
            "choices": [{"message": {"role": "assistant", "content": "{\"name\":\"Ann\"}"}}],
            "usage": {"prompt_tokens": 12, "completion_tokens": 8, "total_tokens": 20}
        }`))
	}, 5)

	completion, err := client.Complete(context.Background(), providers.CompletionRequest{
		Model:       "gpt-4.1-nano",
		Prompt:      "produce json",
		Temperature: 0.5,
		MaxTokens:   256,
	})
	if err != nil {
		t.Fatalf("Complete returned error: %v", err)
	}
	if completion.RawOutput != `{"name":"Ann"}` {
		t.Fatalf("unexpected raw output: %q", completion.RawOutput)
	}
	if completion.Usage == nil || completion.Usage.TotalTokens != 20 {
		t.Fatalf("expected usage with 20 total tokens, got %+v", completion.Usage)
	}
	if completion.Latency <= 0 {
		t.Fatalf("expected positive latency, got %v", completion.Latency)
	}
}

func TestCompleteOmittedUsageIsNil(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"choices": [{"message": {"content": "ok"}}]}`))
	}, 5)

	completion, err := client.Complete(context.Background(), providers.CompletionRequest{Model: "m", Prompt: "p"})
	if err != nil {
		t.Fatalf("Complete returned error: %v", err)
	}
	if completion.Usage != nil {
		t.Fatalf("expected nil usage when service omits it, got %+v", completion.Usage)
	}
}

func TestCompleteClassifiesRateLimit(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "slow down", http.StatusTooManyRequests)
	}, 5)

	_, err := client.Complete(context.Background(), providers.CompletionRequest{Model: "m", Prompt: "p"})
	if err == nil {
		t.Fatal("expected error for 429 response")
	}
	if kind := providers.KindOf(err); kind != providers.ErrorRateLimited {
		t.Fatalf("expected rate_limited classification, got %s", kind)
	}
}

func TestCompleteClassifiesTimeout(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(2 * time.Second)
	}, 1)

	_, err := client.Complete(context.Background(), providers.CompletionRequest{Model: "m", Prompt: "p"})
	if err == nil {
		t.Fatal("expected timeout error")
	}
	if kind := providers.KindOf(err); kind != providers.ErrorTimeout {
		t.Fatalf("expected timeout classification, got %s", kind)
	}
}

func TestCompleteNoChoicesIsTransportError(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"choices": []}`))
	}, 5)

	_, err := client.Complete(context.Background(), providers.CompletionRequest{Model: "m", Prompt: "p"})
	var callErr *providers.CallError
	if !errors.As(err, &callErr) {
		t.Fatalf("expected *CallError, got %v", err)
	}
	if callErr.Kind != providers.ErrorTransport {
		t.Fatalf("expected transport classification, got %s", callErr.Kind)
	}
}

func TestListModels(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/models" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.Write([]byte(`{"data": [
            {"id": "gpt-4.1-nano"},
            {"id": "geminiflash", "name": "Gemini Flash"},
            {"name": "missing-id-skipped"}
        ], "object": "list"}`))
	}, 5)

	models, err := client.ListModels(context.Background())
	if err != nil {
		t.Fatalf("ListModels returned error: %v", err)
	}
	if len(models) != 2 {
		t.Fatalf("expected 2 models, got %d", len(models))
	}
	if models[0].Name != "gpt-4.1-nano" {
		t.Fatalf("expected id used as fallback name, got %q", models[0].Name)
	}
	if models[1].Name != "Gemini Flash" {
		t.Fatalf("unexpected second model name %q", models[1].Name)
	}
}

func TestPingUnreachable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close()

	cfg := &appconfig.Config{ServiceURL: server.URL, TimeoutSeconds: 1}
	client := New(cfg)
	if err := client.Ping(context.Background()); err == nil {
		t.Fatal("expected Ping to fail against a closed server")
	}
}

func TestPingToleratesClientErrors(t *testing.T) {
	// A 401 still proves the service is reachable; only 5xx or transport
	// failures count as unreachable.
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
	}, 5)

	if err := client.Ping(context.Background()); err != nil {
		t.Fatalf("Ping should tolerate 4xx responses, got %v", err)
	}
}
