// Package app provides the main application logic for bulk-downloading
// podcast episodes from RSS/Atom feed URLs. It initializes the necessary
// components, such as the feed client and parser, and orchestrates the
// download process.
package app
