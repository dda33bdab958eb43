package grabber

import (
	"bytes"
	"context"
	"fmt"
	"net/url"

	"github.com/mmcdole/gofeed"

	"github.com/oshokin/podcast-grabber/internal/logger"
)

//go:generate $MOCKGEN -source=parser.go -destination=mocks/parser_mock.go

// FeedParser parses raw feed bytes into a Feed.
type FeedParser interface {
	// Parse parses the raw feed document.
	// Entries without a usable publish date or enclosure URL are dropped
	// and recorded as entry errors; the parse itself only fails when the
	// document is malformed or contains zero usable entries.
	Parse(ctx context.Context, rawFeed []byte) (*Feed, error)
}

// FeedParserImpl implements FeedParser for RSS and Atom documents.
type FeedParserImpl struct {
	parser *gofeed.Parser
}

// NewFeedParser creates and returns a new instance of FeedParserImpl.
func NewFeedParser() FeedParser {
	return &FeedParserImpl{
		parser: gofeed.NewParser(),
	}
}

// Parse parses the raw feed document into a Feed.
func (p *FeedParserImpl) Parse(ctx context.Context, rawFeed []byte) (*Feed, error) {
	document, err := p.parser.Parse(bytes.NewReader(rawFeed))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFeedParse, err)
	}

	result := &Feed{
		Title:    document.Title,
		Episodes: make([]*EpisodeEntry, 0, len(document.Items)),
	}

	// Entries keep feed document order, they are not re-sorted by date.
	for index, item := range document.Items {
		entry, entryErr := p.extractEntry(item)
		if entryErr != nil {
			logger.Warnf(ctx, "Dropping feed entry #%d (%s): %v", index+1, item.Title, entryErr)
			result.EntryErrors = append(result.EntryErrors, EntryError{
				Index: index,
				Title: item.Title,
				Err:   entryErr,
			})

			continue
		}

		result.Episodes = append(result.Episodes, entry)
	}

	if len(result.Episodes) == 0 {
		return nil, fmt.Errorf("%w: %q", ErrNoUsableEntries, document.Title)
	}

	return result, nil
}

// extractEntry converts a single feed item into an EpisodeEntry.
func (p *FeedParserImpl) extractEntry(item *gofeed.Item) (*EpisodeEntry, error) {
	if item.PublishedParsed == nil {
		return nil, ErrMissingPublishDate
	}

	enclosureURL := ""
	for _, enclosure := range item.Enclosures {
		if enclosure != nil && enclosure.URL != "" {
			enclosureURL = enclosure.URL
			break
		}
	}

	if enclosureURL == "" {
		return nil, ErrMissingEnclosure
	}

	parsed, err := url.Parse(enclosureURL)
	if err != nil || parsed.Host == "" || (parsed.Scheme != "http" && parsed.Scheme != "https") {
		return nil, fmt.Errorf("%w: %s", ErrInvalidEnclosureURL, enclosureURL)
	}

	return &EpisodeEntry{
		Title:        item.Title,
		PublishedAt:  *item.PublishedParsed,
		EnclosureURL: enclosureURL,
		GUID:         item.GUID,
	}, nil
}
