package grabber

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"path/filepath"

	"github.com/schollz/progressbar/v3"
	"go.uber.org/zap"

	"github.com/oshokin/podcast-grabber/internal/client/feed"
	"github.com/oshokin/podcast-grabber/internal/constants"
	"github.com/oshokin/podcast-grabber/internal/logger"
	"github.com/oshokin/podcast-grabber/internal/utils"
)

// tempFileSuffix marks in-progress downloads.
// The temp file is renamed to the final name only after the full body
// is written and verified, so a crash never leaves a corrupt file
// at the final path.
const tempFileSuffix = ".part"

// overwriteFileOptions are the file options for (re)creating a temp file.
const overwriteFileOptions = os.O_CREATE | os.O_TRUNC | os.O_WRONLY

// processTask runs the full download state machine for a single task:
// existence check, size guard, attempt loop with retry classification,
// and the final outcome transition.
func (s *ServiceImpl) processTask(ctx context.Context, task *EpisodeTask) {
	s.transition(ctx, task, TaskStateInProgress)

	if !s.cfg.ReplaceExisting {
		exists, err := utils.IsFileExist(task.TargetPath)
		if err != nil {
			s.finalizeFailed(ctx, task, err)
			return
		}

		if exists {
			if s.cfg.DryRun {
				logger.Infof(ctx, "[DRY-RUN] Episode '%s' already exists, would skip", task.TargetPath)
			}

			task.SkipReason = SkipReasonExists
			s.transition(ctx, task, TaskStateSkipped)

			return
		}
	}

	if s.cfg.DryRun {
		logger.Infof(ctx, "[DRY-RUN] Would download '%s' to: %s", task.Entry.Title, task.TargetPath)
		s.transition(ctx, task, TaskStateSucceeded)

		return
	}

	maxAttempts := s.cfg.MaxRetries + 1

	for attempt := int64(1); attempt <= maxAttempts; attempt++ {
		task.Attempts = attempt

		bytesWritten, err := s.downloadToTargetPath(ctx, task)
		if err == nil {
			task.BytesWritten = bytesWritten
			s.transition(ctx, task, TaskStateSucceeded)

			return
		}

		if errors.Is(err, ErrEpisodeTooLarge) {
			logger.Warnf(ctx, "Episode '%s' skipped: %v", task.Entry.Title, err)

			task.SkipReason = SkipReasonTooLarge
			s.transition(ctx, task, TaskStateSkipped)

			return
		}

		task.Err = err
		task.FailureClass = classifyFailure(err)

		// Permanent failures and an interrupted run are not worth retrying.
		if task.FailureClass == FailureClassPermanent || ctx.Err() != nil || attempt == maxAttempts {
			s.finalizeFailed(ctx, task, err)
			return
		}

		logger.Warnf(ctx, "Attempt %d of %d for '%s' failed: %v, retrying",
			attempt, maxAttempts, task.Entry.Title, err)

		utils.RandomPause(s.cfg.ParsedMinRetryPause, s.cfg.ParsedMaxRetryPause)
	}
}

// finalizeFailed records the last error and moves the task to its failed state.
func (s *ServiceImpl) finalizeFailed(ctx context.Context, task *EpisodeTask, err error) {
	task.Err = err

	if task.FailureClass == FailureClassUnknown {
		task.FailureClass = classifyFailure(err)
	}

	// Context cancellation is expected when the user presses CTRL+C.
	if !errors.Is(err, context.Canceled) {
		logger.Errorf(ctx, "Failed to download episode '%s': %v", task.Entry.Title, err)
	}

	s.transition(ctx, task, TaskStateFailed)
}

// downloadToTargetPath performs a single download attempt:
// fetch the enclosure, stream it to a temp file next to the target,
// verify the byte count, and atomically rename into place.
// Partial temp content is discarded on any failure.
func (s *ServiceImpl) downloadToTargetPath(ctx context.Context, task *EpisodeTask) (int64, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, s.cfg.ParsedPerRequestTimeout)
	defer cancel()

	fetchResult, err := s.feedClient.FetchEnclosure(attemptCtx, task.Entry.EnclosureURL)
	if err != nil {
		return 0, fmt.Errorf("failed to fetch enclosure: %w", err)
	}

	defer fetchResult.Body.Close() //nolint:errcheck // Error on close is not critical here.

	if s.cfg.ParsedMaxEpisodeSize > 0 && fetchResult.TotalBytes > s.cfg.ParsedMaxEpisodeSize {
		return 0, fmt.Errorf("%w: announced size is %d bytes", ErrEpisodeTooLarge, fetchResult.TotalBytes)
	}

	tempFilePath := task.TargetPath + tempFileSuffix

	// A leftover temp file from a previous attempt is overwritten.
	file, err := os.OpenFile(filepath.Clean(tempFilePath), overwriteFileOptions, constants.DefaultFilePermissions)
	if err != nil {
		return 0, fmt.Errorf("failed to create temporary file: %w", err)
	}

	var downloadSucceeded bool

	defer func() {
		closeErr := file.Close()

		if !downloadSucceeded {
			if removeErr := os.Remove(tempFilePath); removeErr != nil && !os.IsNotExist(removeErr) {
				logger.Warnf(ctx, "Failed to clean up temporary file '%s': %v (close error: %v)",
					tempFilePath, removeErr, closeErr)
			}
		}
	}()

	// Progress bars are disabled when downloading concurrently
	// to avoid terminal output conflicts.
	var writer io.Writer = file

	if logger.Level() <= zap.InfoLevel && s.cfg.TaskCount == 1 {
		bar := progressbar.DefaultBytes(fetchResult.TotalBytes, "Downloading")
		writer = io.MultiWriter(file, bar)
	}

	bytesWritten, err := io.Copy(writer, fetchResult.Body)
	if err != nil {
		return 0, fmt.Errorf("failed to write file: %w", err)
	}

	// Servers that don't announce a length can't be verified.
	if fetchResult.TotalBytes > 0 && bytesWritten != fetchResult.TotalBytes {
		return 0, fmt.Errorf("%w: wrote %d bytes, expected %d bytes",
			ErrIncompleteDownload, bytesWritten, fetchResult.TotalBytes)
	}

	if err = file.Sync(); err != nil {
		return 0, fmt.Errorf("failed to flush file: %w", err)
	}

	if err = os.Rename(tempFilePath, task.TargetPath); err != nil {
		return 0, fmt.Errorf("failed to finalize episode file: %w", err)
	}

	downloadSucceeded = true

	return bytesWritten, nil
}

// classifyFailure decides whether an error is worth retrying.
// Timeouts, resets, and 5xx responses are transient; client errors,
// DNS failures, and malformed URLs are permanent.
func classifyFailure(err error) FailureClass {
	var statusErr *feed.HTTPStatusError
	if errors.As(err, &statusErr) {
		if statusErr.StatusCode == http.StatusTooManyRequests || statusErr.StatusCode >= http.StatusInternalServerError {
			return FailureClassTransient
		}

		return FailureClassPermanent
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return FailureClassPermanent
	}

	if errors.Is(err, feed.ErrInvalidURL) || errors.Is(err, feed.ErrUnsupportedScheme) {
		return FailureClassPermanent
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return FailureClassTransient
	}

	var timeoutErr interface{ Timeout() bool }
	if errors.As(err, &timeoutErr) && timeoutErr.Timeout() {
		return FailureClassTransient
	}

	// Connection resets and other network hiccups default to transient.
	return FailureClassTransient
}
