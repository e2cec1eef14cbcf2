package api

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/funnelstack/funnel-probe/internal/insights"
	"github.com/funnelstack/funnel-probe/internal/models"
	"github.com/funnelstack/funnel-probe/internal/store"
)

type stubRunService struct {
	records map[string]store.Record
	listed  []store.Record
}

func newStubRunService() *stubRunService {
	return &stubRunService{records: make(map[string]store.Record)}
}

func (s *stubRunService) Submit(_ context.Context, storeURL string) (store.Record, error) {
	rec := store.Record{
		RunID:     "run-123",
		StoreURL:  storeURL,
		Status:    models.StatusRunning,
		CreatedAt: time.Now(),
	}
	s.records[rec.RunID] = rec
	return rec, nil
}

func (s *stubRunService) Get(_ context.Context, runID string) (store.Record, error) {
	rec, ok := s.records[runID]
	if !ok {
		return store.Record{}, store.ErrNotFound
	}
	return rec, nil
}

func (s *stubRunService) List(_ context.Context, limit int) ([]store.Record, error) {
	out := s.listed
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func testHandler(runs RunService) http.Handler {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewHandler(logger, runs, insights.NewMiner(logger))
}

func TestSubmitAnalysisAccepted(t *testing.T) {
	handler := testHandler(newStubRunService())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/analyses",
		strings.NewReader(`{"store_url":"https://shop.example"}`))
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusAccepted {
		t.Fatalf("status = %d, want 202; body: %s", rr.Code, rr.Body.String())
	}
	var resp map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp["run_id"] != "run-123" || resp["status"] != "running" {
		t.Fatalf("resp = %v", resp)
	}
}

func TestSubmitAnalysisRejectsInvalidURL(t *testing.T) {
	handler := testHandler(newStubRunService())

	cases := []string{
		`{"store_url":""}`,
		`{"store_url":"ftp://shop.example"}`,
		`{"store_url":"https://"}`,
		`not json`,
	}
	for _, body := range cases {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/analyses", strings.NewReader(body))
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
		if rr.Code != http.StatusBadRequest {
			t.Fatalf("body %q: status = %d, want 400", body, rr.Code)
		}
		var resp map[string]string
		if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil || resp["error"] == "" {
			t.Fatalf("body %q: error payload = %s", body, rr.Body.String())
		}
	}
}

func TestGetAnalysisRunningStub(t *testing.T) {
	runs := newStubRunService()
	runs.records["run-1"] = store.Record{
		RunID: "run-1", StoreURL: "https://shop.example",
		Status: models.StatusRunning, CreatedAt: time.Now(),
	}
	handler := testHandler(runs)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/analyses/run-1", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rr.Code)
	}
	var resp map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp["status"] != "running" {
		t.Fatalf("resp = %v, want running stub", resp)
	}
	if _, hasFindings := resp["findings"]; hasFindings {
		t.Fatal("running stub must not include the full report")
	}
}

func TestGetAnalysisReturnsFullResult(t *testing.T) {
	runs := newStubRunService()
	runs.records["run-2"] = store.Record{
		RunID: "run-2", StoreURL: "https://shop.example", Status: models.StatusCompleted,
		Result: &models.AnalysisResult{
			RunID: "run-2", StoreURL: "https://shop.example",
			Status: models.StatusCompleted, Score: 85,
			Findings: []models.Finding{{ID: "add-to-cart-works", Category: models.CategoryPositive}},
		},
		CreatedAt: time.Now(),
	}
	handler := testHandler(runs)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/analyses/run-2", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rr.Code)
	}
	var resp models.AnalysisResult
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Score != 85 || len(resp.Findings) != 1 {
		t.Fatalf("resp = %+v, want the stored report", resp)
	}
}

func TestGetAnalysisNotFound(t *testing.T) {
	handler := testHandler(newStubRunService())

	req := httptest.NewRequest(http.MethodGet, "/api/v1/analyses/missing", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rr.Code)
	}
}

func TestListAnalyses(t *testing.T) {
	runs := newStubRunService()
	runs.listed = []store.Record{
		{RunID: "b", Status: models.StatusCompleted, Result: &models.AnalysisResult{Score: 70}, CreatedAt: time.Now()},
		{RunID: "a", Status: models.StatusRunning, CreatedAt: time.Now().Add(-time.Hour)},
	}
	handler := testHandler(runs)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/analyses?limit=10", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rr.Code)
	}
	var resp struct {
		Analyses []runSummary `json:"analyses"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Analyses) != 2 {
		t.Fatalf("len = %d, want 2", len(resp.Analyses))
	}
	if resp.Analyses[0].Score == nil || *resp.Analyses[0].Score != 70 {
		t.Fatalf("completed summary = %+v, want score 70", resp.Analyses[0])
	}
	if resp.Analyses[1].Score != nil {
		t.Fatalf("running summary = %+v, want no score", resp.Analyses[1])
	}
}

func TestListAnalysesRejectsBadLimit(t *testing.T) {
	handler := testHandler(newStubRunService())

	req := httptest.NewRequest(http.MethodGet, "/api/v1/analyses?limit=potato", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rr.Code)
	}
}

func TestGetPatternsMinesCompletedRuns(t *testing.T) {
	runs := newStubRunService()
	runs.listed = []store.Record{
		{RunID: "a", Status: models.StatusCompleted, Result: &models.AnalysisResult{
			RunID: "a", StoreURL: "https://a.example", Status: models.StatusCompleted,
			Findings: []models.Finding{{ID: "homepage-no-search", Category: models.CategoryWarning, Title: "Search is missing"}},
		}},
		{RunID: "b", Status: models.StatusRunning},
	}
	handler := testHandler(runs)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/patterns", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rr.Code)
	}
	var resp struct {
		Patterns []models.FindingPattern `json:"patterns"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Patterns) != 1 || resp.Patterns[0].ID != "homepage-no-search" {
		t.Fatalf("patterns = %+v", resp.Patterns)
	}
}

func TestHealthz(t *testing.T) {
	handler := testHandler(newStubRunService())

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rr.Code)
	}
}
