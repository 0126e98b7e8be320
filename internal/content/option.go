package content

import (
	"log/slog"
	"time"
)

// Option is a functional option for configuring a Repository.
type Option func(*Repository)

// WithPattern sets the glob that selects post files. Empty keeps the default.
func WithPattern(pattern string) Option {
	return func(r *Repository) {
		if pattern != "" {
			r.pattern = pattern
		}
	}
}

// WithLogger sets the logger used for ordering warnings.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Repository) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithRefresh selects the refresh policy. ttl and size only apply to
// RefreshTTL; non-positive values keep the defaults.
func WithRefresh(refresh Refresh, ttl time.Duration, size int) Option {
	return func(r *Repository) {
		r.refresh = refresh
		if ttl > 0 {
			r.ttl = ttl
		}
		if size > 0 {
			r.cacheSize = size
		}
	}
}
