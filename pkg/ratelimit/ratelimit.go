// Package ratelimit bounds login attempts before they reach the IdP. The
// limiter answers allow/deny per key; the key shape (username plus client IP)
// is the caller's business.
package ratelimit

import "context"

// Limiter decides whether one more attempt under key is allowed right now.
type Limiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

// Noop allows everything. Used when no Redis backend is configured.
type Noop struct{}

func NewNoop() *Noop {
	return &Noop{}
}

func (Noop) Allow(context.Context, string) (bool, error) {
	return true, nil
}
