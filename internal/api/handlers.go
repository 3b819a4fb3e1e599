package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/maltedev/whey-ranker/internal/dedup"
	"github.com/maltedev/whey-ranker/internal/jobs"
	"github.com/maltedev/whey-ranker/internal/models"
	"github.com/maltedev/whey-ranker/internal/pipeline"
	"github.com/maltedev/whey-ranker/internal/ranking"
)

// RunManager queues background pipeline runs.
type RunManager interface {
	CreateRun(ctx context.Context) (*jobs.Run, error)
	GetRun(runID string) (*jobs.Run, error)
	ListRuns() []*jobs.Run
	GetStats() jobs.Stats
	Exclusive(ctx context.Context, fn func(ctx context.Context) error) error
	Busy() bool
}

// Analyzer runs the synchronous pipeline steps.
type Analyzer interface {
	Deduplicate(ctx context.Context) (dedup.Result, error)
	AnalyzeOverall(ctx context.Context) []string
	TopByCategory(ctx context.Context, key string) ([]string, error)
}

type Handlers struct {
	runs     RunManager
	analyzer Analyzer
	logger   *slog.Logger
}

func NewHandlers(runs RunManager, analyzer Analyzer, logger *slog.Logger) *Handlers {
	return &Handlers{
		runs:     runs,
		analyzer: analyzer,
		logger:   logger.With("component", "api"),
	}
}

// CreateRunResponse represents the run creation response
type CreateRunResponse struct {
	RunID   string      `json:"run_id"`
	Status  jobs.Status `json:"status"`
	Message string      `json:"message"`
}

// LinesResponse carries report text, one entry per display line.
type LinesResponse struct {
	Lines []string `json:"lines"`
}

// CategoriesResponse lists the fixed category queries
type CategoriesResponse struct {
	Categories []models.CategoryQuery `json:"categories"`
}

// CreateRun starts a background scrape, dedup and analysis run
func (h *Handlers) CreateRun(w http.ResponseWriter, r *http.Request) {
	run, err := h.runs.CreateRun(r.Context())
	if errors.Is(err, jobs.ErrBusy) {
		h.respondError(w, http.StatusConflict, "a run is already in progress")
		return
	}
	if err != nil {
		h.logger.Error("failed to create run", "error", err)
		h.respondError(w, http.StatusInternalServerError, "failed to create run")
		return
	}

	h.respondJSON(w, http.StatusAccepted, CreateRunResponse{
		RunID:   run.ID,
		Status:  run.Status,
		Message: "Run queued",
	})
}

// GetRun handles run status retrieval
func (h *Handlers) GetRun(w http.ResponseWriter, r *http.Request) {
	runID := chi.URLParam(r, "runID")
	if runID == "" {
		h.respondError(w, http.StatusBadRequest, "run ID is required")
		return
	}

	run, err := h.runs.GetRun(runID)
	if err != nil {
		h.respondError(w, http.StatusNotFound, "run not found")
		return
	}

	h.respondJSON(w, http.StatusOK, run)
}

func (h *Handlers) ListRuns(w http.ResponseWriter, r *http.Request) {
	h.respondJSON(w, http.StatusOK, h.runs.ListRuns())
}

func (h *Handlers) GetStats(w http.ResponseWriter, r *http.Request) {
	h.respondJSON(w, http.StatusOK, h.runs.GetStats())
}

// Deduplicate merges rows sharing a normalized name. It holds the run slot
// while writing, so no run can reset the store underneath it.
func (h *Handlers) Deduplicate(w http.ResponseWriter, r *http.Request) {
	var result dedup.Result
	err := h.runs.Exclusive(r.Context(), func(ctx context.Context) error {
		var err error
		result, err = h.analyzer.Deduplicate(ctx)
		return err
	})
	if errors.Is(err, jobs.ErrBusy) {
		h.respondError(w, http.StatusConflict, "a run is already in progress")
		return
	}
	if err != nil {
		h.logger.Error("failed to deduplicate", "error", err)
		h.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	h.respondJSON(w, http.StatusOK, result)
}

// GetAnalysis renders the overall top products per gram. The price
// correction pass writes to the store, so it holds the run slot too.
func (h *Handlers) GetAnalysis(w http.ResponseWriter, r *http.Request) {
	var lines []string
	err := h.runs.Exclusive(r.Context(), func(ctx context.Context) error {
		lines = h.analyzer.AnalyzeOverall(ctx)
		return nil
	})
	if errors.Is(err, jobs.ErrBusy) {
		h.respondError(w, http.StatusConflict, "a run is already in progress")
		return
	}

	h.respondJSON(w, http.StatusOK, LinesResponse{Lines: lines})
}

func (h *Handlers) ListCategories(w http.ResponseWriter, r *http.Request) {
	h.respondJSON(w, http.StatusOK, CategoriesResponse{Categories: ranking.Categories()})
}

// GetCategory renders the ranking of one fixed category
func (h *Handlers) GetCategory(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "category")

	lines, err := h.analyzer.TopByCategory(r.Context(), key)
	if errors.Is(err, pipeline.ErrUnknownCategory) {
		h.respondError(w, http.StatusNotFound, "unknown category")
		return
	}
	if err != nil {
		h.logger.Error("failed to rank category", "category", key, "error", err)
		h.respondError(w, http.StatusInternalServerError, "failed to rank category")
		return
	}

	h.respondJSON(w, http.StatusOK, LinesResponse{Lines: lines})
}

func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"status": "ok",
		"busy":   h.runs.Busy(),
	})
}

// Helper methods
func (h *Handlers) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to encode response", "error", err)
	}
}

func (h *Handlers) respondError(w http.ResponseWriter, status int, message string) {
	h.respondJSON(w, status, map[string]string{"error": message})
}
