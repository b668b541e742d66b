package ratelimit

// Config holds the write-path rate limit settings
type Config struct {
	// Mutations allowed per client per window
	ClientLimit   int64
	WindowSeconds int
}

// DefaultConfig allows sixty mutations per client per minute. Reads are
// never limited; the cache and replica pool absorb read load.
var DefaultConfig = Config{
	ClientLimit:   60,
	WindowSeconds: 60,
}
