package grabber

import (
	"context"
	"sync"

	"github.com/oshokin/podcast-grabber/internal/logger"
)

//go:generate $MOCKGEN -source=progress.go -destination=mocks/progress_mock.go

// ProgressReporter is a process-wide sink for task state transitions.
// It is used purely for observation and never influences scheduling
// or retry decisions. Implementations must tolerate concurrent calls
// from all workers.
type ProgressReporter interface {
	// ReportTransition records a single task state change.
	// Each transition is reported exactly once per task per state change.
	ReportTransition(ctx context.Context, task *EpisodeTask, from, to TaskState)
}

// LogProgressReporter reports task transitions through the application logger.
type LogProgressReporter struct {
	// total is the number of tasks in the run.
	total int64
	// completed counts tasks that reached a terminal state.
	completed int64
	// mutex protects the counters against concurrent workers.
	mutex sync.Mutex
}

// NewLogProgressReporter creates a reporter for a run of the given size.
func NewLogProgressReporter(total int64) *LogProgressReporter {
	return &LogProgressReporter{total: total}
}

// ReportTransition records a single task state change.
func (r *LogProgressReporter) ReportTransition(ctx context.Context, task *EpisodeTask, from, to TaskState) {
	if !to.IsTerminal() {
		logger.Debugf(ctx, "Episode '%s': %s -> %s", task.Entry.Title, from, to)
		return
	}

	r.mutex.Lock()
	r.completed++
	completed := r.completed
	r.mutex.Unlock()

	switch to {
	case TaskStateSucceeded:
		logger.Infof(ctx, "[%d/%d] Downloaded: %s", completed, r.total, task.Entry.Title)
	case TaskStateSkipped:
		logger.Infof(ctx, "[%d/%d] Skipped (%s): %s", completed, r.total, task.SkipReason, task.Entry.Title)
	case TaskStateFailed:
		logger.Warnf(ctx, "[%d/%d] Failed after %d attempt(s): %s: %v",
			completed, r.total, task.Attempts, task.Entry.Title, task.Err)
	case TaskStatePending, TaskStateInProgress:
	}
}

// transition moves a task to a new state and reports the change.
// The task is owned by the calling worker, so the state write itself
// needs no synchronization.
func (s *ServiceImpl) transition(ctx context.Context, task *EpisodeTask, to TaskState) {
	from := task.State
	if from == to {
		return
	}

	task.State = to
	s.progressReporter.ReportTransition(ctx, task, from, to)
}
