package jobs

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/maltedev/whey-ranker/internal/dedup"
	"github.com/maltedev/whey-ranker/internal/events"
	"github.com/maltedev/whey-ranker/internal/models"
	"github.com/maltedev/whey-ranker/internal/pipeline"
)

var (
	ErrBusy        = errors.New("a run is already in progress")
	ErrRunNotFound = errors.New("run not found")
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

const maxListedRuns = 100

// Pipeline is the full scrape-dedup-analyze sequence a run executes.
type Pipeline interface {
	RunAll(ctx context.Context) (pipeline.RunResult, error)
}

// EventPublisher announces finished runs.
type EventPublisher interface {
	PublishRun(ctx context.Context, payload *events.RunPayload) error
}

// Run represents one background pipeline run
type Run struct {
	ID          string                `json:"id"`
	Status      Status                `json:"status"`
	CreatedAt   time.Time             `json:"created_at"`
	StartedAt   *time.Time            `json:"started_at,omitempty"`
	CompletedAt *time.Time            `json:"completed_at,omitempty"`
	Error       string                `json:"error,omitempty"`
	Summary     *models.ScrapeSummary `json:"summary,omitempty"`
	Dedup       *dedup.Result         `json:"dedup,omitempty"`
	Lines       []string              `json:"lines,omitempty"`
}

// Stats represents run statistics
type Stats struct {
	TotalRuns     int     `json:"total_runs"`
	PendingRuns   int     `json:"pending_runs"`
	RunningRuns   int     `json:"running_runs"`
	CompletedRuns int     `json:"completed_runs"`
	FailedRuns    int     `json:"failed_runs"`
	SuccessRate   float64 `json:"success_rate"`
}

// Manager queues pipeline runs onto a single background worker. At most one
// run is pending or running at any time, which keeps the store single-writer.
type Manager struct {
	pipeline  Pipeline
	publisher EventPublisher
	logger    *slog.Logger
	queue     chan string

	mu     sync.RWMutex
	runs   map[string]*Run
	order  []string
	active string
}

// NewManager creates a manager. publisher may be nil.
func NewManager(p Pipeline, publisher EventPublisher, logger *slog.Logger) *Manager {
	return &Manager{
		pipeline:  p,
		publisher: publisher,
		logger:    logger.With("component", "job_manager"),
		queue:     make(chan string, 1),
		runs:      make(map[string]*Run),
	}
}

// CreateRun queues a new run, or fails with ErrBusy while another is active.
func (m *Manager) CreateRun(ctx context.Context) (*Run, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.active != "" {
		return nil, ErrBusy
	}

	run := &Run{
		ID:        uuid.New().String(),
		Status:    StatusPending,
		CreatedAt: time.Now(),
	}

	select {
	case m.queue <- run.ID:
	default:
		return nil, ErrBusy
	}

	m.runs[run.ID] = run
	m.order = append(m.order, run.ID)
	m.active = run.ID

	m.logger.Info("run created", "id", run.ID)
	return run.copy(), nil
}

// GetRun retrieves a run by ID
func (m *Manager) GetRun(runID string) (*Run, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	run, ok := m.runs[runID]
	if !ok {
		return nil, ErrRunNotFound
	}
	return run.copy(), nil
}

// ListRuns lists the most recent runs, newest first
func (m *Manager) ListRuns() []*Run {
	m.mu.RLock()
	defer m.mu.RUnlock()

	runs := make([]*Run, 0, len(m.order))
	for i := len(m.order) - 1; i >= 0 && len(runs) < maxListedRuns; i-- {
		runs = append(runs, m.runs[m.order[i]].copy())
	}
	return runs
}

func (m *Manager) GetStats() Stats {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var stats Stats
	for _, run := range m.runs {
		stats.TotalRuns++
		switch run.Status {
		case StatusPending:
			stats.PendingRuns++
		case StatusRunning:
			stats.RunningRuns++
		case StatusCompleted:
			stats.CompletedRuns++
		case StatusFailed:
			stats.FailedRuns++
		}
	}

	if stats.TotalRuns > 0 {
		stats.SuccessRate = float64(stats.CompletedRuns) / float64(stats.TotalRuns) * 100
	}
	return stats
}

// exclusiveSlot marks the active slot as held by Exclusive rather than a run.
const exclusiveSlot = "exclusive"

// Exclusive runs fn while holding the same slot a run holds, so no run can
// be queued until fn returns. It fails with ErrBusy while a run is pending or
// running, or another Exclusive call is in progress.
func (m *Manager) Exclusive(ctx context.Context, fn func(ctx context.Context) error) error {
	m.mu.Lock()
	if m.active != "" {
		m.mu.Unlock()
		return ErrBusy
	}
	m.active = exclusiveSlot
	m.mu.Unlock()

	defer func() {
		m.mu.Lock()
		m.active = ""
		m.mu.Unlock()
	}()

	return fn(ctx)
}

// Busy reports whether a run or an exclusive section holds the slot.
func (m *Manager) Busy() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.active != ""
}

func (r *Run) copy() *Run {
	c := *r
	c.Lines = append([]string(nil), r.Lines...)
	return &c
}
