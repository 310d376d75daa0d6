// Package ratelimit limits request rates per key, in process or through
// Redis when several servers share the limit.
package ratelimit

import (
	"context"
	"time"
)

type Result struct {
	Allowed   bool
	Limit     int
	Remaining int
	ResetAt   time.Time
}

type Limiter interface {
	// Allow records one request for key and reports whether it fits in
	// limit requests per window.
	Allow(ctx context.Context, key string, limit int, window time.Duration) (Result, error)
}
