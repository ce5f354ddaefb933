package api

import "time"

// Default client settings.
const (
	DefaultBaseURL = "http://localhost:8000"
	DefaultTimeout = 30 * time.Second
)

// Config holds connection settings for the API client.
type Config struct {
	// BaseURL is the backend root, without trailing slash.
	BaseURL string

	// Timeout is the ceiling for each request; exceeding it yields a
	// Timeout error.
	Timeout time.Duration
}

// DefaultConfig returns a Config pointing at a local backend.
func DefaultConfig() Config {
	return Config{BaseURL: DefaultBaseURL, Timeout: DefaultTimeout}
}

// WithBaseURL returns a copy of the config with the specified base URL.
func (c Config) WithBaseURL(u string) Config {
	c.BaseURL = u
	return c
}

// WithTimeout returns a copy of the config with the specified timeout.
func (c Config) WithTimeout(timeout time.Duration) Config {
	c.Timeout = timeout
	return c
}
