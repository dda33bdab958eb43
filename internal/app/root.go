package app

import (
	"context"
	"errors"

	"github.com/oshokin/podcast-grabber/internal/client/feed"
	"github.com/oshokin/podcast-grabber/internal/config"
	"github.com/oshokin/podcast-grabber/internal/logger"
	"github.com/oshokin/podcast-grabber/internal/service/grabber"
)

// ErrDownloadsFailed indicates that at least one episode terminally failed.
// It drives a non-zero exit code without re-printing the per-episode errors
// already shown in the summary.
var ErrDownloadsFailed = errors.New("some episodes failed to download")

// ExecuteRootCommand is the entry point for the application.
// It wires the feed client, parser, and download service,
// runs the pipeline for the provided feed URLs, and returns
// an error when the run should exit non-zero.
func ExecuteRootCommand(ctx context.Context, cfg *config.Config, feedURLs []string) (err error) {
	feedClient, err := feed.NewClient()
	if err != nil {
		return err
	}

	s := grabber.NewService(cfg, feedClient, grabber.NewFeedParser(), nil)

	// Ensure the summary is ALWAYS printed, even on panic.
	defer func() {
		if r := recover(); r != nil {
			logger.Errorf(ctx, "Panic recovered: %v", r)
		}

		s.PrintDownloadSummary(ctx)
	}()

	summary, err := s.DownloadFeeds(ctx, feedURLs)
	if err != nil {
		return err
	}

	if summary.HasFailures() {
		return ErrDownloadsFailed
	}

	return nil
}
