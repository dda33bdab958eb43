package grabber

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/oshokin/podcast-grabber/internal/client/feed"
	"github.com/oshokin/podcast-grabber/internal/config"
)

func TestRunWorkerPool_ExactConcurrencyBound(t *testing.T) {
	t.Parallel()

	const (
		taskCount    = 12
		workerBound  = 3
		downloadTime = 20 * time.Millisecond
	)

	setup := newTestGrabberSetup(t, func(cfg *config.Config) {
		cfg.TaskCount = workerBound
	})
	defer setup.ctrl.Finish()

	var (
		active      atomic.Int64
		maxObserved atomic.Int64
	)

	setup.mockClient.EXPECT().
		FetchEnclosure(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, _ string) (*feed.FetchEnclosureResult, error) {
			current := active.Add(1)
			defer active.Add(-1)

			// Remember the highest concurrency level seen.
			for {
				seen := maxObserved.Load()
				if current <= seen || maxObserved.CompareAndSwap(seen, current) {
					break
				}
			}

			time.Sleep(downloadTime)

			return newFetchResult([]byte("payload")), nil
		}).
		Times(taskCount)

	tasks := make([]*EpisodeTask, 0, taskCount)
	for i := 0; i < taskCount; i++ {
		tasks = append(tasks, newTestTask(setup.tempDir, fmt.Sprintf("episode-%02d", i)))
	}

	setup.service.runWorkerPool(context.Background(), tasks)

	for _, task := range tasks {
		assert.Equal(t, TaskStateSucceeded, task.State)
	}

	assert.LessOrEqual(t, maxObserved.Load(), int64(workerBound),
		"never more than the configured number of concurrent downloads")
	assert.Greater(t, maxObserved.Load(), int64(1),
		"the pool must actually download concurrently")
}

func TestRunWorkerPool_DequeuesInFeedOrder(t *testing.T) {
	t.Parallel()

	const taskCount = 6

	// A single worker makes the dequeue order directly observable.
	setup := newTestGrabberSetup(t, func(cfg *config.Config) {
		cfg.TaskCount = 1
	})
	defer setup.ctrl.Finish()

	var (
		mutex   sync.Mutex
		started []string
	)

	setup.mockClient.EXPECT().
		FetchEnclosure(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, enclosureURL string) (*feed.FetchEnclosureResult, error) {
			mutex.Lock()
			started = append(started, enclosureURL)
			mutex.Unlock()

			return newFetchResult([]byte("payload")), nil
		}).
		Times(taskCount)

	tasks := make([]*EpisodeTask, 0, taskCount)
	for i := 0; i < taskCount; i++ {
		tasks = append(tasks, newTestTask(setup.tempDir, fmt.Sprintf("episode-%02d", i)))
	}

	setup.service.runWorkerPool(context.Background(), tasks)

	require.Len(t, started, taskCount)

	expected := make([]string, 0, taskCount)
	for _, task := range tasks {
		expected = append(expected, task.Entry.EnclosureURL)
	}

	assert.Equal(t, expected, started, "tasks must be dequeued in feed document order")
}

func TestRunWorkerPool_Cancellation(t *testing.T) {
	t.Parallel()

	const taskCount = 8

	setup := newTestGrabberSetup(t, func(cfg *config.Config) {
		cfg.TaskCount = 2
	})
	defer setup.ctrl.Finish()

	ctx, cancel := context.WithCancel(context.Background())

	var fetches atomic.Int64

	// The first fetch cancels the run; in-flight tasks finish normally,
	// queued ones are never started.
	setup.mockClient.EXPECT().
		FetchEnclosure(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, _ string) (*feed.FetchEnclosureResult, error) {
			if fetches.Add(1) == 1 {
				cancel()
			}

			time.Sleep(10 * time.Millisecond)

			return newFetchResult([]byte("payload")), nil
		}).
		AnyTimes()

	tasks := make([]*EpisodeTask, 0, taskCount)
	for i := 0; i < taskCount; i++ {
		tasks = append(tasks, newTestTask(setup.tempDir, fmt.Sprintf("episode-%02d", i)))
	}

	setup.service.runWorkerPool(ctx, tasks)

	var pending int

	for _, task := range tasks {
		switch task.State {
		case TaskStatePending:
			pending++
		case TaskStateSucceeded, TaskStateFailed, TaskStateSkipped:
		case TaskStateInProgress:
			t.Fatalf("task %s left in progress after the pool returned", task.ID)
		}
	}

	assert.Positive(t, pending, "cancellation must leave queued tasks unstarted")
	assertNoTempFiles(t, setup.tempDir)
}
