package ratelimit

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// allowScript checks and records the last accepted send atomically.
// KEYS[1] = connection key, ARGV[1] = now (ms), ARGV[2] = window (ms).
var allowScript = redis.NewScript(`
local last = redis.call('GET', KEYS[1])
if last and (tonumber(ARGV[1]) - tonumber(last)) < tonumber(ARGV[2]) then
	return 0
end
redis.call('SET', KEYS[1], ARGV[1])
return 1
`)

// Redis is a Limiter backed by a shared Redis instance, giving a single
// throttle window across server instances. The check-and-set runs as a Lua
// script, so concurrent sends from the same connection are serialized on
// the Redis side.
//
// Fails open: if Redis is unreachable the send is allowed and the error
// logged, so a cache outage degrades throttling rather than messaging.
type Redis struct {
	client redis.UniversalClient
	window time.Duration
	log    *zerolog.Logger
}

// NewRedis builds a Redis limiter on an established client. A non-positive
// window falls back to DefaultWindow.
func NewRedis(client redis.UniversalClient, window time.Duration, logger *zerolog.Logger) *Redis {
	if window <= 0 {
		window = DefaultWindow
	}
	return &Redis{client: client, window: window, log: logger}
}

// Allow implements Limiter.
func (r *Redis) Allow(ctx context.Context, connection string, now time.Time) bool {
	key := "ratelimit:last:" + connection

	allowed, err := allowScript.Run(ctx, r.client, []string{key},
		now.UnixMilli(), r.window.Milliseconds()).Int()
	if err != nil {
		if r.log != nil {
			r.log.Warn().Err(err).Str("connection", connection).Msg("rate limit check failed, allowing")
		}
		return true
	}
	return allowed == 1
}
