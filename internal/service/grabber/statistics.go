package grabber

import (
	"context"
	"fmt"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/oshokin/podcast-grabber/internal/logger"
)

// summarySeparator frames the summary block in the terminal.
const summarySeparator = "═══════════════════════════════════════════════════════════════"

// minMeaningfulDuration is the shortest run duration worth reporting.
const minMeaningfulDuration = 100 * time.Millisecond

// formatDuration formats a duration into a human-readable string.
func formatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}

	hours := int(d.Hours())
	minutes := int(d.Minutes()) % 60
	seconds := int(d.Seconds()) % 60

	if hours > 0 {
		return fmt.Sprintf("%dh %dm %ds", hours, minutes, seconds)
	}

	if minutes > 0 {
		return fmt.Sprintf("%dm %ds", minutes, seconds)
	}

	return fmt.Sprintf("%ds", seconds)
}

// buildSummary folds the finalized tasks into an immutable run summary.
func (s *ServiceImpl) buildSummary(
	tasks []*EpisodeTask,
	entryErrors []EntryError,
	feedTitles []string,
	startTime time.Time,
) *Summary {
	summary := &Summary{
		FeedTitles:  feedTitles,
		Total:       int64(len(tasks)),
		EntryErrors: entryErrors,
		Tasks:       tasks,
		StartTime:   startTime,
		EndTime:     time.Now(),
		IsDryRun:    s.cfg.DryRun,
	}

	for _, task := range tasks {
		switch task.State {
		case TaskStateSucceeded:
			summary.Succeeded++
			summary.TotalBytesDownloaded += task.BytesWritten
		case TaskStateFailed:
			summary.Failed++
		case TaskStateSkipped:
			summary.Skipped++

			switch task.SkipReason {
			case SkipReasonExists:
				summary.SkippedExists++
			case SkipReasonTooLarge:
				summary.SkippedTooLarge++
			case SkipReasonNone:
			}
		case TaskStatePending, TaskStateInProgress:
			// Tasks a canceled run never started stay pending.
		}
	}

	return summary
}

// PrintDownloadSummary prints a formatted summary of the last run.
func (s *ServiceImpl) PrintDownloadSummary(ctx context.Context) {
	s.lastSummaryMutex.Lock()
	summary := s.lastSummary
	s.lastSummaryMutex.Unlock()

	// If nothing was processed, don't print a summary.
	if summary == nil || summary.Total == 0 {
		return
	}

	s.printSummaryHeader(ctx, summary)
	s.printEpisodeStatistics(ctx, summary)
	s.printDataTransferStatistics(ctx, summary)
	logger.Info(ctx, summarySeparator)
	s.printErrorDetails(ctx, summary)
	s.printFinalMessage(ctx, summary)
}

// printSummaryHeader prints the summary header.
func (s *ServiceImpl) printSummaryHeader(ctx context.Context, summary *Summary) {
	logger.Info(ctx, "")
	logger.Info(ctx, summarySeparator)

	switch {
	case summary.IsDryRun:
		logger.Info(ctx, "                  DRY-RUN PREVIEW")
	case summary.WasInterrupted:
		logger.Info(ctx, "           DOWNLOAD SUMMARY (Interrupted)")
	default:
		logger.Info(ctx, "                  DOWNLOAD SUMMARY")
	}

	logger.Info(ctx, summarySeparator)
}

// printEpisodeStatistics prints per-outcome episode counts.
func (s *ServiceImpl) printEpisodeStatistics(ctx context.Context, summary *Summary) {
	logger.Infof(ctx, "Episodes:         %d total", summary.Total)

	downloadedLabel := "  Downloaded:     %d"
	if summary.IsDryRun {
		downloadedLabel = "  Would Download: %d"
	}

	if summary.Succeeded > 0 {
		logger.Infof(ctx, downloadedLabel, summary.Succeeded)
	}

	if summary.Skipped > 0 {
		logger.Infof(ctx, "  Skipped:        %d total", summary.Skipped)

		if summary.SkippedExists > 0 {
			logger.Infof(ctx, "    Already Exist: %d", summary.SkippedExists)
		}

		if summary.SkippedTooLarge > 0 {
			logger.Infof(ctx, "    Size Limit:    %d", summary.SkippedTooLarge)
		}
	}

	if summary.Failed > 0 {
		logger.Infof(ctx, "  Failed:         %d", summary.Failed)
	}

	notStarted := summary.Total - summary.Succeeded - summary.Failed - summary.Skipped
	if notStarted > 0 {
		logger.Infof(ctx, "  Not Started:    %d", notStarted)
	}
}

// printDataTransferStatistics prints data transfer statistics.
func (s *ServiceImpl) printDataTransferStatistics(ctx context.Context, summary *Summary) {
	if summary.TotalBytesDownloaded > 0 {
		logger.Info(ctx, "")
		//nolint:gosec // TotalBytesDownloaded is always positive, no overflow risk.
		logger.Infof(ctx, "Data Downloaded:  %s", humanize.Bytes(uint64(summary.TotalBytesDownloaded)))
	}

	duration := summary.downloadDuration()
	if summary.IsDryRun || duration <= minMeaningfulDuration {
		return
	}

	logger.Infof(ctx, "Duration:         %s", formatDuration(duration))

	if summary.TotalBytesDownloaded > 0 {
		bytesPerSecond := float64(summary.TotalBytesDownloaded) / duration.Seconds()
		logger.Infof(ctx, "Average Speed:    %s/s", humanize.Bytes(uint64(bytesPerSecond)))
	}
}

// printErrorDetails prints dropped feed entries and failed downloads.
func (s *ServiceImpl) printErrorDetails(ctx context.Context, summary *Summary) {
	if len(summary.EntryErrors) > 0 {
		logger.Info(ctx, "")
		logger.Warnf(ctx, "DROPPED FEED ENTRIES: %d", len(summary.EntryErrors))

		for _, entryError := range summary.EntryErrors {
			logger.Warnf(ctx, "  %s", entryError)
		}
	}

	if summary.Failed == 0 {
		return
	}

	logger.Info(ctx, "")
	logger.Errorf(ctx, "FAILED DOWNLOADS: %d", summary.Failed)

	failedIndex := 0

	for _, task := range summary.Tasks {
		if task.State != TaskStateFailed {
			continue
		}

		failedIndex++

		logger.Info(ctx, "")
		logger.Errorf(ctx, "  [%d] %s", failedIndex, task.Entry.Title)
		logger.Errorf(ctx, "      URL: %s", task.Entry.EnclosureURL)
		logger.Errorf(ctx, "      Attempts: %d", task.Attempts)
		logger.Errorf(ctx, "      Class: %s", task.FailureClass)
		logger.Errorf(ctx, "      Error: %v", task.Err)
	}

	logger.Info(ctx, "")
	logger.Info(ctx, summarySeparator)
}

// printFinalMessage prints a helpful message based on download results.
func (s *ServiceImpl) printFinalMessage(ctx context.Context, summary *Summary) {
	if summary.IsDryRun {
		logger.Info(ctx, "")
		logger.Info(ctx, "To proceed with actual download, remove the --dry-run flag.")

		return
	}

	switch {
	case summary.WasInterrupted:
		logger.Info(ctx, "")
		logger.Warn(ctx, "Download interrupted by user (CTRL+C).")

		if summary.Succeeded > 0 {
			logger.Infof(ctx, "Successfully downloaded %d episode(s) before interruption.", summary.Succeeded)
		}
	case summary.Failed > 0:
		logger.Info(ctx, "")
		logger.Warnf(ctx, "%d episode(s) failed to download. See detailed error log above.", summary.Failed)
	case summary.Succeeded > 0:
		logger.Info(ctx, "")
		logger.Info(ctx, "All downloads completed successfully!")
	case summary.Skipped > 0:
		logger.Info(ctx, "")
		logger.Info(ctx, "All episodes already exist in the output directory.")
	}
}
