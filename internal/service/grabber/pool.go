package grabber

import (
	"context"
	"sync"
)

// runWorkerPool drains the task list with a fixed set of worker goroutines.
// Tasks are dequeued in feed document order (FIFO). At most TaskCount
// downloads are active at any time, and no task is ever executed twice.
// Cancellation stops feeding the queue; in-flight tasks run to completion
// or abort through their per-attempt context.
func (s *ServiceImpl) runWorkerPool(ctx context.Context, tasks []*EpisodeTask) {
	workerCount := s.cfg.TaskCount
	if workerCount > int64(len(tasks)) {
		workerCount = int64(len(tasks))
	}

	var (
		queue     = make(chan *EpisodeTask)
		waitGroup sync.WaitGroup
	)

	for i := int64(0); i < workerCount; i++ {
		waitGroup.Add(1)

		go func() {
			defer waitGroup.Done()

			for task := range queue {
				// An interrupted run leaves queued tasks pending instead of starting them.
				if ctx.Err() != nil {
					continue
				}

				s.processTask(ctx, task)
			}
		}()
	}

feedLoop:
	for _, task := range tasks {
		select {
		case <-ctx.Done():
			break feedLoop
		case queue <- task:
		}
	}

	close(queue)
	waitGroup.Wait()
}
