package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"licitahunter/internal/pipeline"
)

func staticRunner(result pipeline.Result) func(ctx context.Context) pipeline.Result {
	return func(ctx context.Context) pipeline.Result { return result }
}

func TestHealthEndpoint(t *testing.T) {
	srv := NewServer(staticRunner(pipeline.Result{}))

	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
	if rec.Body.String() != "OK" {
		t.Errorf("body = %q, want OK", rec.Body.String())
	}
}

func TestRunEndpoint(t *testing.T) {
	srv := NewServer(staticRunner(pipeline.Result{
		Outcome:  "success",
		ExitCode: 0,
		Matches:  3,
	}))

	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/run", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var body struct {
		Outcome string `json:"outcome"`
		Matches int    `json:"matches"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if body.Outcome != "success" || body.Matches != 3 {
		t.Errorf("body = %+v, want the run result", body)
	}
}

func TestRunEndpointRejectsConcurrentTrigger(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{})
	srv := NewServer(func(ctx context.Context) pipeline.Result {
		close(started)
		<-release
		return pipeline.Result{Outcome: "success"}
	})

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		rec := httptest.NewRecorder()
		srv.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/run", nil))
		if rec.Code != http.StatusOK {
			t.Errorf("first trigger status = %d, want 200", rec.Code)
		}
	}()

	<-started
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/run", nil))
	if rec.Code != http.StatusConflict {
		t.Errorf("second trigger status = %d, want 409", rec.Code)
	}

	close(release)
	wg.Wait()
}

func TestStatsEndpoint(t *testing.T) {
	srv := NewServer(staticRunner(pipeline.Result{Outcome: "success_empty"}))

	// before any run the last_run field is null
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/stats", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var before struct {
		LastRun *pipeline.Result `json:"last_run"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &before); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if before.LastRun != nil {
		t.Errorf("last_run = %+v, want null before any run", before.LastRun)
	}

	srv.Router().ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/run", nil))

	rec = httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/stats", nil))
	var after struct {
		LastRun *pipeline.Result `json:"last_run"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &after); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if after.LastRun == nil || after.LastRun.Outcome != "success_empty" {
		t.Errorf("last_run = %+v, want the completed run", after.LastRun)
	}
}
