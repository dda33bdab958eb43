// Package feed provides an HTTP client for fetching podcast feed documents
// and episode enclosures. It wraps the standard HTTP client with user-agent
// management and debug logging, caches fetched feed documents so repeated
// feed URLs are only requested once, and reports unexpected HTTP statuses
// through typed errors so callers can distinguish retryable failures.
package feed
