// internal/server/server_test.go
package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/schemarena/schemarena/internal/providers"
	"github.com/schemarena/schemarena/internal/run"
	"github.com/schemarena/schemarena/internal/store"
)

type stubClient struct{}

func (c *stubClient) Complete(ctx context.Context, req providers.CompletionRequest) (providers.Completion, error) {
	usage := providers.TokenUsage{TotalTokens: 7}
	return providers.Completion{
		RawOutput: `{"name": "Ada"}`,
		Usage:     &usage,
		Latency:   3 * time.Millisecond,
	}, nil
}

func (c *stubClient) ListModels(ctx context.Context) ([]providers.Model, error) {
	return []providers.Model{{ID: "model-1"}}, nil
}

func (c *stubClient) Ping(ctx context.Context) error { return nil }
func (c *stubClient) Close() error                   { return nil }

func newTestServer(t *testing.T) (*Server, *run.Manager) {
	t.Helper()
	gateway, err := store.New(":memory:")
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = gateway.Close() })

	manager := run.NewManager(gateway, &stubClient{}, run.Options{Concurrency: 2})
	return New(manager), manager
}

func suiteBody() string {
	return `{
		"name": "http test",
		"prompt_template": "Extract: {{INPUT_DATA}}",
		"schema": {"type": "object", "required": ["name"], "properties": {"name": {"type": "string"}}},
		"items": [{"id": "item-1", "content": {"text": "Ada Lovelace"}}],
		"models": ["model-1"]
	}`
}

func TestCreateRunAndPoll(t *testing.T) {
	srv, manager := newTestServer(t)
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	resp, err := http.Post(ts.URL+"/runs", "application/json", strings.NewReader(suiteBody()))
	if err != nil {
		t.Fatalf("POST /runs: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusAccepted {
		t.Fatalf("POST /runs status = %d, want %d", resp.StatusCode, http.StatusAccepted)
	}

	var created createRunResponse
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		t.Fatalf("decode create response: %v", err)
	}
	if created.ID == "" {
		t.Fatal("create response has empty run id")
	}
	if created.ExpectedTasks != 1 {
		t.Errorf("ExpectedTasks = %d, want 1", created.ExpectedTasks)
	}

	manager.Wait()

	getResp, err := http.Get(ts.URL + "/runs/" + created.ID)
	if err != nil {
		t.Fatalf("GET /runs/{id}: %v", err)
	}
	defer getResp.Body.Close()
	if getResp.StatusCode != http.StatusOK {
		t.Fatalf("GET /runs/{id} status = %d, want %d", getResp.StatusCode, http.StatusOK)
	}

	var got runResponse
	if err := json.NewDecoder(getResp.Body).Decode(&got); err != nil {
		t.Fatalf("decode run response: %v", err)
	}
	if got.Run.Status != run.StatusCompleted {
		t.Errorf("run status = %q, want %q", got.Run.Status, run.StatusCompleted)
	}
	if len(got.Results) != 1 {
		t.Errorf("got %d results, want 1", len(got.Results))
	}

	sumResp, err := http.Get(ts.URL + "/runs/" + created.ID + "/summary")
	if err != nil {
		t.Fatalf("GET /runs/{id}/summary: %v", err)
	}
	defer sumResp.Body.Close()
	if sumResp.StatusCode != http.StatusOK {
		t.Fatalf("GET summary status = %d, want %d", sumResp.StatusCode, http.StatusOK)
	}

	var summary run.RunSummary
	if err := json.NewDecoder(sumResp.Body).Decode(&summary); err != nil {
		t.Fatalf("decode summary: %v", err)
	}
	if summary.TotalTasks != 1 {
		t.Errorf("summary TotalTasks = %d, want 1", summary.TotalTasks)
	}
	if len(summary.Models) != 1 || summary.Models[0].Model != "model-1" {
		t.Errorf("summary models = %+v, want single model-1 entry", summary.Models)
	}
}

func TestCreateRunRejectsInvalidConfig(t *testing.T) {
	srv, _ := newTestServer(t)
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	body := `{
		"name": "bad",
		"prompt_template": "no placeholder here",
		"schema": {"type": "object"},
		"items": [{"id": "item-1", "content": {}}],
		"models": ["model-1"]
	}`
	resp, err := http.Post(ts.URL+"/runs", "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("POST /runs: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusUnprocessableEntity)
	}
}

func TestCreateRunRejectsMalformedJSON(t *testing.T) {
	srv, _ := newTestServer(t)
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	resp, err := http.Post(ts.URL+"/runs", "application/json", strings.NewReader(`{"name":`))
	if err != nil {
		t.Fatalf("POST /runs: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusBadRequest)
	}
}

func TestGetRunNotFound(t *testing.T) {
	srv, _ := newTestServer(t)
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/runs/nope")
	if err != nil {
		t.Fatalf("GET /runs/nope: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusNotFound)
	}

	sumResp, err := http.Get(ts.URL + "/runs/nope/summary")
	if err != nil {
		t.Fatalf("GET /runs/nope/summary: %v", err)
	}
	defer sumResp.Body.Close()
	if sumResp.StatusCode != http.StatusNotFound {
		t.Fatalf("summary status = %d, want %d", sumResp.StatusCode, http.StatusNotFound)
	}
}

func TestHealthz(t *testing.T) {
	srv, _ := newTestServer(t)
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/healthz")
	if err != nil {
		t.Fatalf("GET /healthz: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusOK)
	}
}
