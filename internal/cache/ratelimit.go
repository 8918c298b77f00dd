package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// rateLimitLoginPrefix is the Redis key prefix for login attempt windows.
const rateLimitLoginPrefix = "ratelimit:login:"

// RateLimitResult contains the result of a rate limit check.
type RateLimitResult struct {
	Allowed    bool
	Limit      int64
	Remaining  int64
	ResetAt    time.Time
	RetryAfter time.Duration
}

// fixedWindowScript counts one attempt and starts the window on the first hit.
// Returns {count, remaining window in milliseconds}.
var fixedWindowScript = redis.NewScript(`
	local key = KEYS[1]
	local window = tonumber(ARGV[1])   -- window length in milliseconds

	local count = redis.call('INCR', key)
	if count == 1 then
		redis.call('PEXPIRE', key, window)
	end

	local ttl = redis.call('PTTL', key)
	if ttl < 0 then
		redis.call('PEXPIRE', key, window)
		ttl = window
	end

	return {count, ttl}
`)

// CheckLoginRateLimit records a login attempt from ip and reports whether it is within
// max attempts per window. IP is hashed to avoid storing raw IP addresses.
//
// On Redis errors the attempt is allowed and the error is returned for logging.
func (c *Cache) CheckLoginRateLimit(ctx context.Context, ip string, max int, window time.Duration) (*RateLimitResult, error) {
	key := rateLimitLoginPrefix + hashIP(ip)
	now := c.now()

	result, err := fixedWindowScript.Run(ctx, c.client,
		[]string{key},
		window.Milliseconds(),
	).Int64Slice()

	if err != nil || len(result) != 2 {
		// Fail open on Redis errors - allow the request
		if err == nil {
			err = fmt.Errorf("unexpected script reply of length %d", len(result))
		}
		return &RateLimitResult{
			Allowed:   true,
			Limit:     int64(max),
			Remaining: int64(max),
			ResetAt:   now.Add(window),
		}, fmt.Errorf("login rate limit check: %w", err)
	}

	return windowResult(now, int64(max), result[0], time.Duration(result[1])*time.Millisecond), nil
}

// windowResult derives the limiter verdict from the attempt count and remaining window.
func windowResult(now time.Time, max, count int64, ttl time.Duration) *RateLimitResult {
	remaining := max - count
	if remaining < 0 {
		remaining = 0
	}

	res := &RateLimitResult{
		Allowed:   count <= max,
		Limit:     max,
		Remaining: remaining,
		ResetAt:   now.Add(ttl),
	}
	if !res.Allowed {
		res.RetryAfter = ttl
	}
	return res
}

// hashIP creates a truncated SHA256 hash of an IP address.
// This provides privacy while maintaining uniqueness.
func hashIP(ip string) string {
	hash := sha256.Sum256([]byte(ip))
	return hex.EncodeToString(hash[:8]) // 16 hex chars
}
