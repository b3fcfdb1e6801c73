// Package ratelimit gates message sends to one per window per connection.
//
// The gate is a strict sliding-window-of-one, not a token bucket: a send is
// accepted iff at least the window has elapsed since the last accepted send,
// and a rejected send does not advance the window. Bursts are rejected
// outright, never queued or smoothed.
package ratelimit

import (
	"context"
	"time"
)

// DefaultWindow is one message per second per connection.
const DefaultWindow = time.Second

// Limiter decides whether a connection may send at the given instant.
// Implementations must be safe for concurrent use across connections.
type Limiter interface {
	// Allow returns true and records now as the connection's last accepted
	// send iff the window has elapsed since the previous accepted send (or
	// no record exists). Returns false without touching state otherwise, so
	// repeated attempts keep being measured from the original accepted time.
	Allow(ctx context.Context, connection string, now time.Time) bool
}
