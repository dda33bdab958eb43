package grabber

import "errors"

// Static error definitions for better error handling.
var (
	// ErrFeedParse indicates that the feed document could not be parsed.
	ErrFeedParse = errors.New("failed to parse feed document")
	// ErrNoUsableEntries indicates that the feed contains zero usable entries.
	ErrNoUsableEntries = errors.New("feed contains no usable entries")
	// ErrMissingPublishDate indicates that a feed entry has no parsable publish date.
	ErrMissingPublishDate = errors.New("entry has no parsable publish date")
	// ErrMissingEnclosure indicates that a feed entry has no enclosure URL.
	ErrMissingEnclosure = errors.New("entry has no enclosure URL")
	// ErrInvalidEnclosureURL indicates that an entry's enclosure URL is not a valid absolute URL.
	ErrInvalidEnclosureURL = errors.New("entry enclosure URL is invalid")
	// ErrIncompleteDownload indicates that the downloaded file size doesn't match the expected size.
	ErrIncompleteDownload = errors.New("incomplete download")
	// ErrEpisodeTooLarge indicates that the announced enclosure size exceeds the configured limit.
	ErrEpisodeTooLarge = errors.New("episode exceeds maximum size")
)
