package grabber

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFeedParser_Parse_KeepsDocumentOrder(t *testing.T) {
	t.Parallel()

	base := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)

	// Publish dates run backwards on purpose: document order must win.
	items := []testFeedItem{
		{title: "Newest", pubDate: testPubDate(base.Add(48 * time.Hour)), enclosureURL: "https://cdn.example.com/ep3.mp3"},
		{title: "Middle", pubDate: testPubDate(base.Add(24 * time.Hour)), enclosureURL: "https://cdn.example.com/ep2.mp3"},
		{title: "Oldest", pubDate: testPubDate(base), enclosureURL: "https://cdn.example.com/ep1.mp3"},
	}

	parser := NewFeedParser()

	result, err := parser.Parse(context.Background(), buildTestFeed("Order Test", items))
	require.NoError(t, err)

	assert.Equal(t, "Order Test", result.Title)
	require.Len(t, result.Episodes, 3)
	assert.Equal(t, "Newest", result.Episodes[0].Title)
	assert.Equal(t, "Middle", result.Episodes[1].Title)
	assert.Equal(t, "Oldest", result.Episodes[2].Title)
	assert.Empty(t, result.EntryErrors)
}

func TestFeedParser_Parse_DropsEntryWithBadDate(t *testing.T) {
	t.Parallel()

	base := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)

	items := make([]testFeedItem, 0, 10)

	for i := 0; i < 10; i++ {
		item := testFeedItem{
			title:        fmt.Sprintf("Episode %d", i+1),
			pubDate:      testPubDate(base.Add(time.Duration(i) * time.Hour)),
			enclosureURL: fmt.Sprintf("https://cdn.example.com/ep%d.mp3", i+1),
		}

		// Entry #3 carries a date no parser can read.
		if i == 2 {
			item.pubDate = "not a real date"
		}

		items = append(items, item)
	}

	parser := NewFeedParser()

	result, err := parser.Parse(context.Background(), buildTestFeed("Bad Date Test", items))
	require.NoError(t, err)

	assert.Len(t, result.Episodes, 9)
	require.Len(t, result.EntryErrors, 1)
	assert.Equal(t, 2, result.EntryErrors[0].Index)
	assert.Equal(t, "Episode 3", result.EntryErrors[0].Title)
	assert.ErrorIs(t, result.EntryErrors[0].Err, ErrMissingPublishDate)
}

func TestFeedParser_Parse_DropsBadEnclosures(t *testing.T) {
	t.Parallel()

	pubDate := testPubDate(time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC))

	tests := []struct {
		name          string
		item          testFeedItem
		expectedError error
	}{
		{
			name:          "missing enclosure",
			item:          testFeedItem{title: "No Enclosure", pubDate: pubDate},
			expectedError: ErrMissingEnclosure,
		},
		{
			name: "relative enclosure URL",
			item: testFeedItem{
				title:        "Relative URL",
				pubDate:      pubDate,
				enclosureURL: "/audio/ep1.mp3",
			},
			expectedError: ErrInvalidEnclosureURL,
		},
		{
			name: "unsupported scheme",
			item: testFeedItem{
				title:        "FTP URL",
				pubDate:      pubDate,
				enclosureURL: "ftp://cdn.example.com/ep1.mp3",
			},
			expectedError: ErrInvalidEnclosureURL,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			items := []testFeedItem{
				tt.item,
				{title: "Good One", pubDate: pubDate, enclosureURL: "https://cdn.example.com/good.mp3"},
			}

			parser := NewFeedParser()

			result, err := parser.Parse(context.Background(), buildTestFeed("Enclosure Test", items))
			require.NoError(t, err)

			assert.Len(t, result.Episodes, 1)
			require.Len(t, result.EntryErrors, 1)
			assert.ErrorIs(t, result.EntryErrors[0].Err, tt.expectedError)
		})
	}
}

func TestFeedParser_Parse_MalformedDocument(t *testing.T) {
	t.Parallel()

	parser := NewFeedParser()

	_, err := parser.Parse(context.Background(), []byte("this is not feed markup at all"))
	assert.ErrorIs(t, err, ErrFeedParse)
}

func TestFeedParser_Parse_NoUsableEntries(t *testing.T) {
	t.Parallel()

	items := []testFeedItem{
		{title: "No Date", enclosureURL: "https://cdn.example.com/ep1.mp3"},
		{title: "No Enclosure", pubDate: testPubDate(time.Now())},
	}

	parser := NewFeedParser()

	_, err := parser.Parse(context.Background(), buildTestFeed("Empty Test", items))
	assert.ErrorIs(t, err, ErrNoUsableEntries)
}
