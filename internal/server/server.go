// internal/server/server.go
// Package server exposes the run engine over HTTP so callers can submit a
// run and poll for its state and summary.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/schemarena/schemarena/internal/run"
)

type errResp struct {
	OK    bool   `json:"ok"`
	Error string `json:"error"`
}

type createRunResponse struct {
	ID            string     `json:"id"`
	Status        run.Status `json:"status"`
	ExpectedTasks int        `json:"expected_tasks"`
}

type runResponse struct {
	Run     *run.TestRun     `json:"run"`
	Results []run.TestResult `json:"results"`
}

// Server routes HTTP requests to a run manager.
type Server struct {
	manager *run.Manager
}

// New creates a Server backed by the given manager.
func New(manager *run.Manager) *Server {
	return &Server{manager: manager}
}

// Handler builds the route table.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.HandleFunc("POST /runs", s.handleCreateRun)
	mux.HandleFunc("GET /runs/{id}", s.handleGetRun)
	mux.HandleFunc("GET /runs/{id}/summary", s.handleGetSummary)
	return mux
}

// ListenAndServe blocks serving the API on addr.
func (s *Server) ListenAndServe(addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	log.Printf("listening on %s", addr)
	return srv.ListenAndServe()
}

func (s *Server) handleCreateRun(w http.ResponseWriter, r *http.Request) {
	log.Printf("create run request from %s", r.RemoteAddr)

	var cfg run.RunConfig
	if err := decodeJSON(w, r, &cfg, 1<<20 /* 1 MiB */); err != nil {
		log.Printf("create run decode error: %v", err)
		writeJSON(w, http.StatusBadRequest, errResp{Error: "invalid JSON: " + err.Error()})
		return
	}
	if cfg.SchemaStatus == "" {
		cfg.SchemaStatus = run.SchemaStatusApproved
	}

	// The run outlives the request; its context must not die with it.
	testRun, err := s.manager.StartRun(context.WithoutCancel(r.Context()), cfg)
	if err != nil {
		var cfgErr *run.ConfigError
		if errors.As(err, &cfgErr) {
			log.Printf("create run rejected: %v", err)
			writeJSON(w, http.StatusUnprocessableEntity, errResp{Error: err.Error()})
			return
		}
		log.Printf("create run error: %v", err)
		writeJSON(w, http.StatusInternalServerError, errResp{Error: err.Error()})
		return
	}

	writeJSON(w, http.StatusAccepted, createRunResponse{
		ID:            testRun.ID,
		Status:        testRun.Status,
		ExpectedTasks: testRun.ExpectedTasks,
	})
}

func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	runID := r.PathValue("id")
	testRun, results, err := s.manager.GetRun(r.Context(), runID)
	if err != nil {
		log.Printf("get run %s: %v", runID, err)
		writeJSON(w, http.StatusNotFound, errResp{Error: "run not found: " + runID})
		return
	}
	writeJSON(w, http.StatusOK, runResponse{Run: testRun, Results: results})
}

func (s *Server) handleGetSummary(w http.ResponseWriter, r *http.Request) {
	runID := r.PathValue("id")
	summary, err := s.manager.GetSummary(r.Context(), runID)
	if err != nil {
		log.Printf("get summary %s: %v", runID, err)
		writeJSON(w, http.StatusNotFound, errResp{Error: "run not found: " + runID})
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any, maxBytes int64) error {
	if r.Body == nil {
		return errors.New("empty body")
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
	defer r.Body.Close()

	dec := json.NewDecoder(r.Body)
	return dec.Decode(v)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
