// Package grabber implements the feed-to-file download pipeline:
// parsing a podcast feed into an ordered list of episode tasks,
// distributing the tasks across a fixed-size worker pool,
// and downloading each enclosure to local storage with retries.
package grabber
