package grabber

//go:generate $MOCKGEN -source=service.go -destination=mocks/service_mock.go

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/oshokin/podcast-grabber/internal/client/feed"
	"github.com/oshokin/podcast-grabber/internal/config"
	"github.com/oshokin/podcast-grabber/internal/constants"
	"github.com/oshokin/podcast-grabber/internal/logger"
	"github.com/oshokin/podcast-grabber/internal/utils"
)

// Service provides methods for bulk-downloading podcast episodes from feed URLs.
type Service interface {
	// DownloadFeeds runs the full pipeline for the given feed URLs and returns a run summary.
	// Feed-level failures (unreachable or unparsable feed) abort the run;
	// per-episode failures are captured in the summary.
	DownloadFeeds(ctx context.Context, feedURLs []string) (*Summary, error)
	// PrintDownloadSummary prints a formatted summary of the last run.
	PrintDownloadSummary(ctx context.Context)
}

// ServiceImpl implements the episode download service.
type ServiceImpl struct {
	// cfg contains the application configuration.
	cfg *config.Config
	// feedClient fetches feed documents and episode enclosures.
	feedClient feed.Client
	// feedParser parses raw feed documents.
	feedParser FeedParser
	// progressReporter receives task state transitions.
	// When none was injected, a fresh logging reporter is created per run.
	progressReporter ProgressReporter
	// hasCustomReporter records whether a reporter was injected at construction.
	hasCustomReporter bool
	// lastSummary holds the result of the most recent run.
	lastSummary *Summary
	// lastSummaryMutex protects lastSummary.
	lastSummaryMutex sync.Mutex
}

// NewService creates a download service instance with dependency-injected components.
// A nil progressReporter means transitions are reported through the application logger.
func NewService(
	cfg *config.Config,
	feedClient feed.Client,
	feedParser FeedParser,
	progressReporter ProgressReporter,
) Service {
	return &ServiceImpl{
		cfg:               cfg,
		feedClient:        feedClient,
		feedParser:        feedParser,
		progressReporter:  progressReporter,
		hasCustomReporter: progressReporter != nil,
	}
}

// DownloadFeeds runs the full pipeline for the given feed URLs and returns a run summary.
func (s *ServiceImpl) DownloadFeeds(ctx context.Context, feedURLs []string) (*Summary, error) {
	startTime := time.Now()

	if !s.cfg.DryRun {
		if err := os.MkdirAll(s.cfg.OutputPath, constants.DefaultFolderPermissions); err != nil {
			return nil, fmt.Errorf("failed to create output path: %w", err)
		}
	} else {
		logger.Infof(ctx, "[DRY-RUN] Would create output directory: %s", s.cfg.OutputPath)
	}

	var (
		feedTitles  []string
		episodes    []*EpisodeEntry
		entryErrors []EntryError
	)

	// The feed fetch is a hard barrier: no episode download starts
	// until every feed is fetched and parsed.
	for _, feedURL := range utils.Unique(feedURLs) {
		parsedFeed, err := s.fetchAndParseFeed(ctx, feedURL)
		if err != nil {
			return nil, err
		}

		feedTitles = append(feedTitles, parsedFeed.Title)
		episodes = append(episodes, parsedFeed.Episodes...)
		entryErrors = append(entryErrors, parsedFeed.EntryErrors...)
	}

	tasks := s.buildEpisodeTasks(episodes)

	logger.Infof(ctx, "Starting download of %d episode(s) with %d concurrent task(s)",
		len(tasks), s.cfg.TaskCount)

	// A stale reporter would carry the previous run's counters,
	// so each run gets its own unless one was injected.
	if !s.hasCustomReporter {
		s.progressReporter = NewLogProgressReporter(int64(len(tasks)))
	}

	s.runWorkerPool(ctx, tasks)

	summary := s.buildSummary(tasks, entryErrors, feedTitles, startTime)
	summary.WasInterrupted = ctx.Err() != nil

	s.lastSummaryMutex.Lock()
	s.lastSummary = summary
	s.lastSummaryMutex.Unlock()

	return summary, nil
}

// fetchAndParseFeed downloads one feed document, optionally saves a copy
// of it to the output directory, and parses it.
func (s *ServiceImpl) fetchAndParseFeed(ctx context.Context, feedURL string) (*Feed, error) {
	logger.Infof(ctx, "Fetching feed: %s", feedURL)

	rawFeed, err := s.feedClient.FetchFeed(ctx, feedURL)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch feed '%s': %w", feedURL, err)
	}

	parsedFeed, err := s.feedParser.Parse(ctx, rawFeed)
	if err != nil {
		return nil, fmt.Errorf("failed to parse feed '%s': %w", feedURL, err)
	}

	logger.Infof(ctx, "Feed '%s': %d usable episode(s), %d dropped entry(ies)",
		parsedFeed.Title, len(parsedFeed.Episodes), len(parsedFeed.EntryErrors))

	if s.cfg.SaveFeed && !s.cfg.DryRun {
		if saveErr := s.saveFeedCopy(ctx, feedURL, parsedFeed.Title, rawFeed); saveErr != nil {
			// A failed feed copy doesn't abort the run.
			logger.Warnf(ctx, "Failed to save feed copy: %v", saveErr)
		}
	}

	return parsedFeed, nil
}

// saveFeedCopy writes the raw feed document next to the downloaded episodes.
// The write goes through a temp file so a crash never leaves a truncated copy.
func (s *ServiceImpl) saveFeedCopy(ctx context.Context, feedURL, feedTitle string, rawFeed []byte) error {
	name := utils.SanitizeFilename(feedTitle)
	if name == "" {
		if parsed, err := url.Parse(feedURL); err == nil {
			name = utils.SanitizeFilename(parsed.Host)
		}
	}

	if name == "" {
		name = "feed"
	}

	targetPath := filepath.Join(s.cfg.OutputPath,
		utils.SetFileExtension(name, constants.ExtensionXML, true))
	tempPath := targetPath + tempFileSuffix

	if err := os.WriteFile(tempPath, rawFeed, constants.DefaultFilePermissions); err != nil {
		return err
	}

	if err := os.Rename(tempPath, targetPath); err != nil {
		_ = os.Remove(tempPath)

		return err
	}

	logger.Infof(ctx, "Saved feed copy to: %s", targetPath)

	return nil
}
