package jobs

import (
	"context"
	"time"

	"github.com/maltedev/whey-ranker/internal/events"
	"github.com/maltedev/whey-ranker/internal/pipeline"
)

// StartWorker starts the background run worker
func (m *Manager) StartWorker(ctx context.Context) {
	m.logger.Info("run worker started")

	for {
		select {
		case <-ctx.Done():
			m.logger.Info("run worker stopping")
			return
		case runID := <-m.queue:
			m.processRun(ctx, runID)
		}
	}
}

// processRun executes one queued run
func (m *Manager) processRun(ctx context.Context, runID string) {
	m.logger.Info("processing run", "id", runID)
	m.updateRunStatus(runID, StatusRunning, pipeline.RunResult{}, nil)

	start := time.Now()
	result, err := m.pipeline.RunAll(ctx)
	if err != nil {
		m.logger.Error("run failed", "id", runID, "error", err)
		m.updateRunStatus(runID, StatusFailed, result, err)
	} else {
		m.logger.Info("run completed", "id", runID, "duration", time.Since(start))
		m.updateRunStatus(runID, StatusCompleted, result, nil)
	}

	m.publish(ctx, runID, result, err)
}

// updateRunStatus updates the status of a run
func (m *Manager) updateRunStatus(runID string, status Status, result pipeline.RunResult, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	run, ok := m.runs[runID]
	if !ok {
		return
	}

	now := time.Now()
	run.Status = status

	switch status {
	case StatusRunning:
		run.StartedAt = &now
	case StatusCompleted, StatusFailed:
		run.CompletedAt = &now
		summary := result.Summary
		dedupResult := result.Dedup
		run.Summary = &summary
		run.Dedup = &dedupResult
		run.Lines = result.Lines
		if err != nil {
			run.Error = err.Error()
		}
		if m.active == runID {
			m.active = ""
		}
	}
}

func (m *Manager) publish(ctx context.Context, runID string, result pipeline.RunResult, runErr error) {
	if m.publisher == nil {
		return
	}

	payload := &events.RunPayload{
		RunID:        runID,
		Status:       string(StatusCompleted),
		Sources:      result.Summary.Sources,
		TotalStored:  result.Summary.TotalStored(),
		Deduplicated: result.Dedup.After,
	}
	if runErr != nil {
		payload.Status = string(StatusFailed)
		payload.Error = runErr.Error()
	}

	// The run's context may already be cancelled on shutdown.
	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()

	if err := m.publisher.PublishRun(pubCtx, payload); err != nil {
		m.logger.Error("failed to publish run event", "id", runID, "error", err)
	}
}
