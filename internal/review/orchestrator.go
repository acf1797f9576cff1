package review

import (
	"context"
	"errors"
	"time"

	"github.com/paperlens/paperlens/internal/logger"
	"github.com/paperlens/paperlens/models"
)

// ErrAllReviewersFailed reports that no reviewer task reached completed
// status. The per-task results still accompany the error so the caller can
// show what went wrong.
var ErrAllReviewersFailed = errors.New("all reviewers failed")

// DefaultTaskTimeout bounds one reviewer task, including its retries.
const DefaultTaskTimeout = 180 * time.Second

// Orchestrator fans out one reviewer task per persona concurrently and
// collects their terminal results. One failing or slow task never blocks or
// cancels the others.
type Orchestrator struct {
	runner      Runner
	taskTimeout time.Duration
	log         logger.Logger
}

func NewOrchestrator(runner Runner, log logger.Logger) *Orchestrator {
	return &Orchestrator{
		runner:      runner,
		taskTimeout: DefaultTaskTimeout,
		log:         log,
	}
}

// SetTaskTimeout overrides the per-task timeout. Only meaningful before
// RunAll is called.
func (o *Orchestrator) SetTaskTimeout(d time.Duration) {
	o.taskTimeout = d
}

// RunAll launches one task per persona and returns once every task has
// reached a terminal state. The returned slice matches the persona order,
// independent of completion order. If zero personas complete, the results
// are returned together with ErrAllReviewersFailed.
func (o *Orchestrator) RunAll(ctx context.Context, personas []Persona, paperText string) ([]models.ReviewerResult, error) {
	results := make([]models.ReviewerResult, len(personas))

	type taskDone struct {
		index  int
		result models.ReviewerResult
	}
	done := make(chan taskDone, len(personas))

	for i, persona := range personas {
		go func(idx int, p Persona) {
			taskCtx, cancel := context.WithTimeout(ctx, o.taskTimeout)
			defer cancel()

			o.log.Debug("Starting reviewer task %s", p.Type)
			result := o.runner.Run(taskCtx, p, paperText)

			// The runner reports its own failures; a deadline hit inside the
			// call is reported as a timeout regardless of the inner reason.
			if result.Status == models.StatusFailed && taskCtx.Err() == context.DeadlineExceeded {
				result.Reason = "timeout"
			}
			if result.Status == models.StatusPending {
				result.Status = models.StatusFailed
				if result.Reason == "" {
					result.Reason = "no terminal status"
				}
			}
			done <- taskDone{index: idx, result: result}
		}(i, persona)
	}

	completed := 0
	for range personas {
		td := <-done
		results[td.index] = td.result
		if td.result.Status == models.StatusCompleted {
			completed++
		}
	}
	close(done)

	o.log.Info("Reviewer run finished: %d/%d completed", completed, len(personas))
	if completed == 0 {
		return results, ErrAllReviewersFailed
	}
	return results, nil
}
