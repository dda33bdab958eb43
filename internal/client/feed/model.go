package feed

import "io"

// FetchEnclosureResult contains the response stream for an episode enclosure.
type FetchEnclosureResult struct {
	// Body is the response body stream. The caller is responsible for closing it.
	Body io.ReadCloser
	// TotalBytes is the expected content length in bytes, or -1 when the server doesn't announce it.
	TotalBytes int64
}
