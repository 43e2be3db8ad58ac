package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// takeScript refills the bucket for the elapsed time, then tries to take one
// token. Returns {allowed, tokens_left}.
var takeScript = redis.NewScript(`
	local key = KEYS[1]
	local capacity = tonumber(ARGV[1])
	local refill_rate = tonumber(ARGV[2])
	local window = tonumber(ARGV[3])
	local now = tonumber(ARGV[4])
	local take = tonumber(ARGV[5])

	local bucket = redis.call('HMGET', key, 'tokens', 'last_refill')
	local tokens = tonumber(bucket[1]) or capacity
	local last_refill = tonumber(bucket[2]) or now

	local tokens_to_add = math.floor(((now - last_refill) / window) * refill_rate)
	if tokens_to_add > 0 then
		tokens = math.min(capacity, tokens + tokens_to_add)
		last_refill = now
	end

	if take == 0 then
		return {1, tokens}
	end

	local allowed = 0
	if tokens > 0 then
		tokens = tokens - 1
		allowed = 1
	end

	redis.call('HMSET', key, 'tokens', tokens, 'last_refill', last_refill)
	redis.call('EXPIRE', key, window * 2)
	return {allowed, tokens}
`)

// Decision is the outcome of one Take.
type Decision struct {
	Allowed   bool
	Remaining int64
	Limit     int64
	Reset     time.Duration
}

// TokenBucket is a redis-backed per-subject token bucket. Buckets for
// different actions never share tokens.
type TokenBucket struct {
	redis    *redis.Client
	action   string
	capacity int64
	refill   int64 // tokens per window
	window   time.Duration
}

func NewTokenBucket(redisClient *redis.Client, action string, capacity, refillPerMinute int64) *TokenBucket {
	return &TokenBucket{
		redis:    redisClient,
		action:   action,
		capacity: capacity,
		refill:   refillPerMinute,
		window:   time.Minute,
	}
}

func (tb *TokenBucket) Action() string {
	return tb.action
}

func (tb *TokenBucket) Capacity() int64 {
	return tb.capacity
}

func (tb *TokenBucket) key(subject string) string {
	return fmt.Sprintf("rate_limit:%s:%s", tb.action, subject)
}

func (tb *TokenBucket) run(ctx context.Context, subject string, take int) (bool, int64, error) {
	result, err := takeScript.Run(ctx, tb.redis, []string{tb.key(subject)},
		tb.capacity, tb.refill, int64(tb.window.Seconds()), time.Now().Unix(), take).Result()
	if err != nil {
		return false, 0, fmt.Errorf("rate limit script: %w", err)
	}

	values, ok := result.([]interface{})
	if !ok || len(values) != 2 {
		return false, 0, fmt.Errorf("unexpected rate limit result %v", result)
	}
	allowed, ok1 := values[0].(int64)
	tokens, ok2 := values[1].(int64)
	if !ok1 || !ok2 {
		return false, 0, fmt.Errorf("unexpected rate limit result %v", result)
	}
	return allowed == 1, tokens, nil
}

// Take consumes one token for subject when one is available.
func (tb *TokenBucket) Take(ctx context.Context, subject string) (Decision, error) {
	allowed, tokens, err := tb.run(ctx, subject, 1)
	if err != nil {
		return Decision{}, err
	}
	return Decision{Allowed: allowed, Remaining: tokens, Limit: tb.capacity, Reset: tb.window}, nil
}

// Allow reports whether subject may act now, consuming a token if so.
func (tb *TokenBucket) Allow(ctx context.Context, subject string) (bool, error) {
	d, err := tb.Take(ctx, subject)
	return d.Allowed, err
}

// GetRemaining returns the tokens left for subject without consuming one.
func (tb *TokenBucket) GetRemaining(ctx context.Context, subject string) (int64, error) {
	_, tokens, err := tb.run(ctx, subject, 0)
	return tokens, err
}

// Reset clears the bucket for subject.
func (tb *TokenBucket) Reset(ctx context.Context, subject string) error {
	return tb.redis.Del(ctx, tb.key(subject)).Err()
}
