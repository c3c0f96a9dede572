package middleware

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"vinreport-web/utils"
)

type RateLimiter struct {
	client     *redis.Client
	configs    map[string]RateLimitConfig
	trustProxy bool
	now        func() time.Time
}

type RateLimitConfig struct {
	Requests int
	Window   time.Duration
	Message  string
}

// Keys are "METHOD path". Requests without an entry are not limited.
var defaultConfigs = map[string]RateLimitConfig{
	http.MethodPost + " /search": {
		Requests: 20,
		Window:   time.Minute,
		Message:  "Too many searches. Please wait a minute and try again.",
	},
	http.MethodPost + " /contact": {
		Requests: 5,
		Window:   time.Minute * 15,
		Message:  "Too many messages. Please try again in 15 minutes.",
	},
}

// NewRateLimiter shares the given Redis client; it does not own it.
// trustProxy keys callers by X-Forwarded-For instead of the peer address.
func NewRateLimiter(client *redis.Client, trustProxy bool) *RateLimiter {
	return &RateLimiter{
		client:     client,
		configs:    defaultConfigs,
		trustProxy: trustProxy,
		now:        time.Now,
	}
}

func (rl *RateLimiter) RateLimitMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			config, limited := rl.getConfig(r)
			if !limited || rl.client == nil {
				next.ServeHTTP(w, r)
				return
			}

			key := rl.getRateLimitKey(r)

			ctx, cancel := context.WithTimeout(r.Context(), 500*time.Millisecond)
			allowed, remaining, resetTime, err := rl.checkRateLimit(ctx, key, config)
			cancel()
			if err != nil {
				log.Printf("Rate limit check error: %v", err)
				next.ServeHTTP(w, r)
				return
			}

			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(config.Requests))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
			w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(resetTime.Unix(), 10))

			if !allowed {
				log.Printf("Rate limit exceeded for key: %s", key)
				w.Header().Set("Retry-After", strconv.FormatInt(int64(resetTime.Sub(rl.now()).Seconds()), 10))
				http.Error(w, config.Message, http.StatusTooManyRequests)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func (rl *RateLimiter) getConfig(r *http.Request) (RateLimitConfig, bool) {
	config, ok := rl.configs[r.Method+" "+r.URL.Path]
	return config, ok
}

func (rl *RateLimiter) getRateLimitKey(r *http.Request) string {
	return fmt.Sprintf("rate_limit:%s:%s", utils.ClientIP(r, rl.trustProxy), r.URL.Path)
}

// checkRateLimit counts the request in the current fixed window.
func (rl *RateLimiter) checkRateLimit(ctx context.Context, key string, config RateLimitConfig) (allowed bool, remaining int, resetTime time.Time, err error) {
	now := rl.now()
	windowStart := now.Truncate(config.Window)
	windowEnd := windowStart.Add(config.Window)

	luaScript := `
		local key = KEYS[1]
		local window_start = tonumber(ARGV[1])
		local limit = tonumber(ARGV[2])
		local score = ARGV[3]
		local ttl = tonumber(ARGV[4])
		local member = ARGV[5]

		redis.call('ZREMRANGEBYSCORE', key, 0, window_start - 1)

		local current_count = redis.call('ZCARD', key)

		if current_count < limit then
			redis.call('ZADD', key, score, member)
			redis.call('EXPIRE', key, ttl)
			return {1, limit - current_count - 1}
		else
			return {0, 0}
		end
	`

	member := fmt.Sprintf("%d-%s", now.UnixNano(), uuid.NewString())
	result, err := rl.client.Eval(ctx, luaScript, []string{key},
		windowStart.Unix(), config.Requests, now.Unix(), int64(config.Window.Seconds()), member).Result()
	if err != nil {
		return false, 0, time.Time{}, err
	}

	resultSlice, ok := result.([]interface{})
	if !ok || len(resultSlice) != 2 {
		return false, 0, time.Time{}, fmt.Errorf("unexpected redis result format")
	}

	allowedInt, ok1 := resultSlice[0].(int64)
	remainingInt, ok2 := resultSlice[1].(int64)
	if !ok1 || !ok2 {
		return false, 0, time.Time{}, fmt.Errorf("failed to parse redis result")
	}

	return allowedInt == 1, int(remainingInt), windowEnd, nil
}
