package grabber

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"go.uber.org/mock/gomock"

	mock_feed "github.com/oshokin/podcast-grabber/internal/client/feed/mocks"
	"github.com/oshokin/podcast-grabber/internal/config"
)

// testGrabberSetup encapsulates common test dependencies and configuration.
type testGrabberSetup struct {
	ctrl       *gomock.Controller
	mockClient *mock_feed.MockClient
	service    *ServiceImpl
	config     *config.Config
	tempDir    string
}

// newTestGrabberSetup creates a standard test setup with optional config overrides.
func newTestGrabberSetup(t *testing.T, configOverrides ...func(*config.Config)) *testGrabberSetup {
	t.Helper()

	ctrl := gomock.NewController(t)
	mockClient := mock_feed.NewMockClient(ctrl)
	tempDir := t.TempDir()

	cfg := &config.Config{
		OutputPath:              tempDir,
		TaskCount:               2,
		MaxRetries:              0,
		MaxFilenameLength:       config.DefaultMaxFilenameLength,
		ParsedPerRequestTimeout: 5 * time.Second,
	}

	// Apply overrides.
	for _, override := range configOverrides {
		override(cfg)
	}

	service, _ := NewService(cfg, mockClient, NewFeedParser(), nil).(*ServiceImpl)
	service.progressReporter = NewLogProgressReporter(100)

	return &testGrabberSetup{
		ctrl:       ctrl,
		mockClient: mockClient,
		service:    service,
		config:     cfg,
		tempDir:    tempDir,
	}
}

// testEntry builds an episode entry with sensible defaults.
func testEntry(title string, publishedAt time.Time, enclosureURL string) *EpisodeEntry {
	return &EpisodeEntry{
		Title:        title,
		PublishedAt:  publishedAt,
		EnclosureURL: enclosureURL,
	}
}

// testFeedItem describes one item for buildTestFeed.
type testFeedItem struct {
	title        string
	pubDate      string
	enclosureURL string
}

// buildTestFeed renders a minimal RSS document from the given items.
func buildTestFeed(feedTitle string, items []testFeedItem) []byte {
	var builder strings.Builder

	builder.WriteString(`<?xml version="1.0" encoding="UTF-8"?>`)
	builder.WriteString(`<rss version="2.0"><channel>`)
	builder.WriteString(fmt.Sprintf("<title>%s</title>", feedTitle))

	for _, item := range items {
		builder.WriteString("<item>")
		builder.WriteString(fmt.Sprintf("<title>%s</title>", item.title))

		if item.pubDate != "" {
			builder.WriteString(fmt.Sprintf("<pubDate>%s</pubDate>", item.pubDate))
		}

		if item.enclosureURL != "" {
			builder.WriteString(fmt.Sprintf(
				`<enclosure url="%s" length="0" type="audio/mpeg"/>`, item.enclosureURL))
		}

		builder.WriteString("</item>")
	}

	builder.WriteString("</channel></rss>")

	return []byte(builder.String())
}

// testPubDate formats a timestamp the way RSS feeds announce publish dates.
func testPubDate(t time.Time) string {
	return t.Format(time.RFC1123Z)
}
