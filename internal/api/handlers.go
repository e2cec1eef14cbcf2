package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/funnelstack/funnel-probe/internal/insights"
	"github.com/funnelstack/funnel-probe/internal/models"
	"github.com/funnelstack/funnel-probe/internal/store"
)

// RunService is the slice of the runner the HTTP layer needs.
type RunService interface {
	Submit(ctx context.Context, storeURL string) (store.Record, error)
	Get(ctx context.Context, runID string) (store.Record, error)
	List(ctx context.Context, limit int) ([]store.Record, error)
}

// Handler serves the JSON API for submitting and polling analyses.
type Handler struct {
	logger *slog.Logger
	runs   RunService
	miner  *insights.Miner
}

// NewHandler builds the route mux for the analysis API.
func NewHandler(logger *slog.Logger, runs RunService, miner *insights.Miner) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	h := &Handler{logger: logger, runs: runs, miner: miner}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/v1/analyses", h.submitAnalysis)
	mux.HandleFunc("GET /api/v1/analyses/{id}", h.getAnalysis)
	mux.HandleFunc("GET /api/v1/analyses", h.listAnalyses)
	mux.HandleFunc("GET /api/v1/patterns", h.getPatterns)
	mux.HandleFunc("GET /healthz", h.healthz)
	return mux
}

type submitRequest struct {
	StoreURL string `json:"store_url"`
}

type runSummary struct {
	RunID     string           `json:"run_id"`
	StoreURL  string           `json:"store_url"`
	Status    models.RunStatus `json:"status"`
	Score     *int             `json:"score,omitempty"`
	CreatedAt time.Time        `json:"created_at"`
}

func (h *Handler) submitAnalysis(w http.ResponseWriter, r *http.Request) {
	var req submitRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<16)).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if err := validateStoreURL(req.StoreURL); err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	rec, err := h.runs.Submit(r.Context(), req.StoreURL)
	if err != nil {
		h.logger.Error("submit analysis failed", slog.Any("error", err))
		h.writeError(w, http.StatusInternalServerError, "could not register analysis")
		return
	}

	h.writeJSON(w, http.StatusAccepted, summarize(rec))
}

func (h *Handler) getAnalysis(w http.ResponseWriter, r *http.Request) {
	runID := r.PathValue("id")
	rec, err := h.runs.Get(r.Context(), runID)
	if errors.Is(err, store.ErrNotFound) {
		h.writeError(w, http.StatusNotFound, "run not found")
		return
	}
	if err != nil {
		h.logger.Error("get analysis failed", slog.String("run_id", runID), slog.Any("error", err))
		h.writeError(w, http.StatusInternalServerError, "could not load analysis")
		return
	}

	// Terminal runs return the full report; in-flight runs a status stub.
	if rec.Result != nil {
		h.writeJSON(w, http.StatusOK, rec.Result)
		return
	}
	h.writeJSON(w, http.StatusOK, summarize(rec))
}

func (h *Handler) listAnalyses(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed <= 0 {
			h.writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = parsed
	}

	records, err := h.runs.List(r.Context(), limit)
	if err != nil {
		h.logger.Error("list analyses failed", slog.Any("error", err))
		h.writeError(w, http.StatusInternalServerError, "could not list analyses")
		return
	}

	summaries := make([]runSummary, 0, len(records))
	for _, rec := range records {
		summaries = append(summaries, summarize(rec))
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"analyses": summaries})
}

func (h *Handler) getPatterns(w http.ResponseWriter, r *http.Request) {
	records, err := h.runs.List(r.Context(), 0)
	if err != nil {
		h.logger.Error("list analyses for patterns failed", slog.Any("error", err))
		h.writeError(w, http.StatusInternalServerError, "could not mine patterns")
		return
	}

	results := make([]models.AnalysisResult, 0, len(records))
	for _, rec := range records {
		if rec.Result != nil {
			results = append(results, *rec.Result)
		}
	}

	patterns := h.miner.Mine(results)
	if patterns == nil {
		patterns = []models.FindingPattern{}
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"patterns": patterns})
}

func (h *Handler) healthz(w http.ResponseWriter, _ *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func summarize(rec store.Record) runSummary {
	s := runSummary{
		RunID:     rec.RunID,
		StoreURL:  rec.StoreURL,
		Status:    rec.Status,
		CreatedAt: rec.CreatedAt,
	}
	if rec.Result != nil {
		score := rec.Result.Score
		s.Score = &score
	}
	return s
}

func validateStoreURL(raw string) error {
	if strings.TrimSpace(raw) == "" {
		return errors.New("store_url is required")
	}
	parsed, err := url.Parse(raw)
	if err != nil {
		return errors.New("store_url is not a valid URL")
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return errors.New("store_url must use http or https")
	}
	if parsed.Host == "" {
		return errors.New("store_url must include a host")
	}
	return nil
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.logger.Error("encode response failed", slog.Any("error", err))
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, msg string) {
	h.writeJSON(w, status, map[string]string{"error": msg})
}
