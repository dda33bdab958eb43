package grabber

import (
	"fmt"
	"time"
)

// TaskState represents the lifecycle state of an episode download task.
type TaskState uint8

const (
	// TaskStatePending - task is queued and has not started yet.
	TaskStatePending TaskState = iota
	// TaskStateInProgress - a worker currently owns the task.
	TaskStateInProgress
	// TaskStateSucceeded - the episode file was fully written to its final path.
	TaskStateSucceeded
	// TaskStateFailed - the download failed after exhausting all attempts.
	TaskStateFailed
	// TaskStateSkipped - the download was intentionally not performed.
	TaskStateSkipped
)

// String returns a human-readable representation of the TaskState.
func (ts TaskState) String() string {
	switch ts {
	case TaskStatePending:
		return "pending"
	case TaskStateInProgress:
		return "in progress"
	case TaskStateSucceeded:
		return "succeeded"
	case TaskStateFailed:
		return "failed"
	case TaskStateSkipped:
		return "skipped"
	default:
		return fmt.Sprintf("unknown state: %d", ts)
	}
}

// IsTerminal reports whether the state is final for a task.
func (ts TaskState) IsTerminal() bool {
	return ts == TaskStateSucceeded || ts == TaskStateFailed || ts == TaskStateSkipped
}

// SkipReason represents why an episode download was skipped.
type SkipReason uint8

const (
	// SkipReasonNone - the task was not skipped.
	SkipReasonNone SkipReason = iota
	// SkipReasonExists - the episode file already exists at the target path.
	SkipReasonExists
	// SkipReasonTooLarge - the announced enclosure size exceeds the configured limit.
	SkipReasonTooLarge
)

// String returns a human-readable representation of the SkipReason.
func (sr SkipReason) String() string {
	switch sr {
	case SkipReasonNone:
		return "not skipped"
	case SkipReasonExists:
		return "already exists"
	case SkipReasonTooLarge:
		return "size limit"
	default:
		return fmt.Sprintf("unknown reason: %d", sr)
	}
}

// FailureClass classifies a download failure for retry decisions.
type FailureClass uint8

const (
	// FailureClassUnknown - failure class could not be determined.
	FailureClassUnknown FailureClass = iota
	// FailureClassTransient - failure is expected to succeed on retry (timeout, reset, 5xx).
	FailureClassTransient
	// FailureClassPermanent - failure will not succeed on retry (4xx, bad URL, DNS).
	FailureClassPermanent
)

// String returns a human-readable representation of the FailureClass.
func (fc FailureClass) String() string {
	switch fc {
	case FailureClassTransient:
		return "transient"
	case FailureClassPermanent:
		return "permanent"
	default:
		return "unknown"
	}
}

// Feed is the parsed representation of a podcast feed.
type Feed struct {
	// Title is the feed channel title.
	Title string
	// Episodes is the list of usable entries in feed document order.
	Episodes []*EpisodeEntry
	// EntryErrors records entries that were dropped during parsing.
	EntryErrors []EntryError
}

// EpisodeEntry is one usable item extracted from the feed.
type EpisodeEntry struct {
	// Title is the episode title.
	Title string
	// PublishedAt is the episode's publish timestamp.
	PublishedAt time.Time
	// EnclosureURL is the absolute URL of the episode's audio file.
	EnclosureURL string
	// GUID is the feed-provided unique identifier (may be empty).
	GUID string
}

// EntryError records a feed entry that was dropped during parsing.
type EntryError struct {
	// Index is the zero-based position of the entry in the feed document.
	Index int
	// Title is the entry title, if any.
	Title string
	// Err is the reason the entry was dropped.
	Err error
}

// String returns a human-readable representation of the EntryError.
func (ee EntryError) String() string {
	title := ee.Title
	if title == "" {
		title = "untitled"
	}

	return fmt.Sprintf("entry #%d (%s): %v", ee.Index+1, title, ee.Err)
}

// EpisodeTask is the unit of work tracking one episode's download lifecycle.
// A task is owned exclusively by the worker executing it while in progress;
// ownership returns to the orchestrator once the task reaches a terminal state.
type EpisodeTask struct {
	// ID is the unique identifier of the task within one run.
	ID string
	// Entry is the feed entry this task downloads.
	Entry *EpisodeEntry
	// TargetPath is the final file path for the episode.
	TargetPath string
	// Attempts is the number of download attempts made so far.
	Attempts int64
	// State is the current lifecycle state.
	State TaskState
	// BytesWritten is the number of bytes written for a succeeded task.
	BytesWritten int64
	// SkipReason explains a skipped task.
	SkipReason SkipReason
	// FailureClass classifies the last error of a failed task.
	FailureClass FailureClass
	// Err is the last error of a failed task.
	Err error
}

// Summary aggregates the final per-task outcomes of one run.
// It is created once at the end of a run and immutable thereafter.
type Summary struct {
	// FeedTitles are the titles of the processed feeds.
	FeedTitles []string
	// Total is the total number of tasks attempted.
	Total int64
	// Succeeded is the number of tasks that downloaded successfully.
	Succeeded int64
	// Failed is the number of tasks that failed after exhausting retries.
	Failed int64
	// Skipped is the total number of skipped tasks.
	Skipped int64
	// SkippedExists is the number of tasks skipped because the file already exists.
	SkippedExists int64
	// SkippedTooLarge is the number of tasks skipped for exceeding the size limit.
	SkippedTooLarge int64
	// TotalBytesDownloaded is the total size of downloaded content in bytes.
	TotalBytesDownloaded int64
	// EntryErrors records feed entries dropped during parsing.
	EntryErrors []EntryError
	// Tasks holds the finalized tasks in feed document order.
	Tasks []*EpisodeTask
	// StartTime is when the run began.
	StartTime time.Time
	// EndTime is when the run completed.
	EndTime time.Time
	// IsDryRun indicates the run was a dry-run preview.
	IsDryRun bool
	// WasInterrupted indicates the run was canceled before completion.
	WasInterrupted bool
}

// HasFailures reports whether any task terminally failed.
func (s *Summary) HasFailures() bool {
	return s.Failed > 0
}

// downloadDuration returns the wall-clock duration of the run.
func (s *Summary) downloadDuration() time.Duration {
	if s.StartTime.IsZero() || s.EndTime.IsZero() {
		return 0
	}

	return s.EndTime.Sub(s.StartTime)
}
