package ratelimit

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const fixedWindowLua = `
local current = redis.call("INCR", KEYS[1])
if current == 1 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
local ttl = redis.call("PTTL", KEYS[1])
if ttl < 0 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
  ttl = tonumber(ARGV[1])
end
return {current, ttl}
`

// Decision describes the outcome of a single hit against the limiter.
type Decision struct {
	Allowed    bool
	Limit      int
	Remaining  int
	RetryAfter time.Duration
}

// Limiter is a Redis backed fixed-window counter shared by every API instance.
type Limiter struct {
	rdb    *redis.Client
	prefix string
	window time.Duration
	max    int
	script *redis.Script
}

// New builds a limiter allowing max hits per window for each key.
func New(rdb *redis.Client, prefix string, window time.Duration, max int) *Limiter {
	if prefix == "" {
		prefix = "courseflow:ratelimit"
	}
	return &Limiter{
		rdb:    rdb,
		prefix: prefix,
		window: window,
		max:    max,
		script: redis.NewScript(fixedWindowLua),
	}
}

// Enabled reports whether the limiter can enforce anything.
func (l *Limiter) Enabled() bool {
	return l != nil && l.rdb != nil && l.max > 0 && l.window > 0
}

// Allow records one hit for key and reports whether it fits in the current window.
func (l *Limiter) Allow(ctx context.Context, key string) (Decision, error) {
	if !l.Enabled() {
		return Decision{Allowed: true}, nil
	}

	res, err := l.script.Run(ctx, l.rdb, []string{l.prefix + ":" + key}, l.window.Milliseconds()).Result()
	if err != nil {
		return Decision{Allowed: true}, fmt.Errorf("ratelimit eval: %w", err)
	}

	values, ok := res.([]interface{})
	if !ok || len(values) < 2 {
		return Decision{Allowed: true}, fmt.Errorf("ratelimit invalid result")
	}

	count := toInt64(values[0])
	ttl := time.Duration(toInt64(values[1])) * time.Millisecond

	remaining := l.max - int(count)
	if remaining < 0 {
		remaining = 0
	}
	decision := Decision{Allowed: count <= int64(l.max), Limit: l.max, Remaining: remaining}
	if !decision.Allowed {
		decision.RetryAfter = ttl
	}
	return decision, nil
}

func toInt64(v interface{}) int64 {
	switch t := v.(type) {
	case int64:
		return t
	case int:
		return int64(t)
	case float64:
		return int64(t)
	case string:
		parsed, err := strconv.ParseInt(t, 10, 64)
		if err != nil {
			return 0
		}
		return parsed
	default:
		return 0
	}
}
