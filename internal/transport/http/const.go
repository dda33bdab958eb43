package http

import "time"

const (
	// DefaultTimeout is a safety-net timeout on the HTTP client.
	// Per-attempt deadlines are enforced separately through request contexts,
	// so this only guards requests issued without one.
	DefaultTimeout = 10 * time.Minute

	// DefaultUserAgent is the default User-Agent string used for HTTP requests.
	// Some podcast CDNs reject requests without a descriptive User-Agent.
	DefaultUserAgent = "podcast-grabber/1.0 (+https://github.com/oshokin/podcast-grabber)"
)
