package grabber

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFormatDuration(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		duration time.Duration
		expected string
	}{
		{
			name:     "milliseconds",
			duration: 450 * time.Millisecond,
			expected: "450ms",
		},
		{
			name:     "seconds only",
			duration: 42 * time.Second,
			expected: "42s",
		},
		{
			name:     "minutes and seconds",
			duration: 3*time.Minute + 5*time.Second,
			expected: "3m 5s",
		},
		{
			name:     "hours, minutes and seconds",
			duration: 2*time.Hour + 15*time.Minute + 30*time.Second,
			expected: "2h 15m 30s",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tt.expected, formatDuration(tt.duration))
		})
	}
}

func TestBuildSummary(t *testing.T) {
	t.Parallel()

	setup := newTestGrabberSetup(t)
	defer setup.ctrl.Finish()

	publishedAt := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)

	tasks := []*EpisodeTask{
		{
			Entry:        testEntry("Won", publishedAt, "https://cdn.example.com/1.mp3"),
			State:        TaskStateSucceeded,
			BytesWritten: 100,
		},
		{
			Entry:        testEntry("Also Won", publishedAt, "https://cdn.example.com/2.mp3"),
			State:        TaskStateSucceeded,
			BytesWritten: 250,
		},
		{
			Entry: testEntry("Lost", publishedAt, "https://cdn.example.com/3.mp3"),
			State: TaskStateFailed,
			Err:   errors.New("connection reset"),
		},
		{
			Entry:      testEntry("Had It", publishedAt, "https://cdn.example.com/4.mp3"),
			State:      TaskStateSkipped,
			SkipReason: SkipReasonExists,
		},
		{
			Entry:      testEntry("Too Big", publishedAt, "https://cdn.example.com/5.mp3"),
			State:      TaskStateSkipped,
			SkipReason: SkipReasonTooLarge,
		},
		{
			Entry: testEntry("Never Ran", publishedAt, "https://cdn.example.com/6.mp3"),
			State: TaskStatePending,
		},
	}

	entryErrors := []EntryError{
		{Index: 7, Title: "Broken", Err: ErrMissingPublishDate},
	}

	startTime := time.Now().Add(-time.Minute)
	summary := setup.service.buildSummary(tasks, entryErrors, []string{"Fold Test"}, startTime)

	assert.Equal(t, int64(6), summary.Total)
	assert.Equal(t, int64(2), summary.Succeeded)
	assert.Equal(t, int64(1), summary.Failed)
	assert.Equal(t, int64(2), summary.Skipped)
	assert.Equal(t, int64(1), summary.SkippedExists)
	assert.Equal(t, int64(1), summary.SkippedTooLarge)
	assert.Equal(t, int64(350), summary.TotalBytesDownloaded)
	assert.Equal(t, entryErrors, summary.EntryErrors)
	assert.Equal(t, startTime, summary.StartTime)
	assert.False(t, summary.EndTime.IsZero())
	assert.True(t, summary.HasFailures())
}

func TestTaskStateStrings(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "pending", TaskStatePending.String())
	assert.Equal(t, "succeeded", TaskStateSucceeded.String())
	assert.True(t, TaskStateSucceeded.IsTerminal())
	assert.True(t, TaskStateFailed.IsTerminal())
	assert.True(t, TaskStateSkipped.IsTerminal())
	assert.False(t, TaskStatePending.IsTerminal())
	assert.False(t, TaskStateInProgress.IsTerminal())

	assert.Equal(t, "already exists", SkipReasonExists.String())
	assert.Equal(t, "size limit", SkipReasonTooLarge.String())
	assert.Equal(t, "transient", FailureClassTransient.String())
	assert.Equal(t, "permanent", FailureClassPermanent.String())
}

func TestEntryErrorString(t *testing.T) {
	t.Parallel()

	withTitle := EntryError{Index: 2, Title: "Episode 3", Err: ErrMissingPublishDate}
	assert.Equal(t, "entry #3 (Episode 3): entry has no parsable publish date", withTitle.String())

	withoutTitle := EntryError{Index: 0, Err: ErrMissingEnclosure}
	assert.Equal(t, "entry #1 (untitled): entry has no enclosure URL", withoutTitle.String())
}
