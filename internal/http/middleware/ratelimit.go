package middleware

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"

	"github.com/wolfman30/visitplus-leads/pkg/logging"
)

// Limiter decides whether a request identified by key may proceed.
type Limiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

// TokenBucket keeps one golang.org/x/time/rate limiter per key. It is used
// when no Redis is configured, so limits are per process.
type TokenBucket struct {
	mu          sync.Mutex
	buckets     map[string]*bucket
	limit       rate.Limit
	burst       int
	now         func() time.Time
	lastCleanup time.Time
}

type bucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

const (
	bucketIdleTTL   = 10 * time.Minute
	cleanupInterval = 5 * time.Minute
)

// NewTokenBucket allows perSecond requests/sec with the given burst per key.
// A zero rate hands out the burst once and never refills.
func NewTokenBucket(perSecond float64, burst int) *TokenBucket {
	if burst < 1 {
		burst = 1
	}
	return &TokenBucket{
		buckets:     make(map[string]*bucket),
		limit:       rate.Limit(perSecond),
		burst:       burst,
		now:         time.Now,
		lastCleanup: time.Now(),
	}
}

// PerMinute builds a token bucket refilling n tokens per minute with a
// burst of n.
func PerMinute(n int) *TokenBucket {
	if n < 1 {
		n = 1
	}
	tb := NewTokenBucket(0, n)
	tb.limit = rate.Every(time.Minute / time.Duration(n))
	return tb
}

// Allow never returns an error.
func (tb *TokenBucket) Allow(_ context.Context, key string) (bool, error) {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	now := tb.now()
	if now.Sub(tb.lastCleanup) >= cleanupInterval {
		tb.evictIdle(now)
	}

	b, ok := tb.buckets[key]
	if !ok {
		b = &bucket{limiter: rate.NewLimiter(tb.limit, tb.burst)}
		tb.buckets[key] = b
	}
	b.lastSeen = now
	return b.limiter.AllowN(now, 1), nil
}

func (tb *TokenBucket) evictIdle(now time.Time) {
	cutoff := now.Add(-bucketIdleTTL)
	for key, b := range tb.buckets {
		if b.lastSeen.Before(cutoff) {
			delete(tb.buckets, key)
		}
	}
	tb.lastCleanup = now
}

// RedisWindow is a fixed-window counter shared by every instance pointed at
// the same Redis.
type RedisWindow struct {
	client redis.Cmdable
	limit  int
	window time.Duration
	prefix string
	now    func() time.Time
}

// NewRedisWindow allows limit requests per window per key.
func NewRedisWindow(client redis.Cmdable, limit int, window time.Duration) *RedisWindow {
	if window <= 0 {
		window = time.Minute
	}
	return &RedisWindow{
		client: client,
		limit:  limit,
		window: window,
		prefix: "visitplus:ratelimit:",
		now:    time.Now,
	}
}

func (rw *RedisWindow) Allow(ctx context.Context, key string) (bool, error) {
	slot := rw.now().UnixNano() / int64(rw.window)
	redisKey := rw.prefix + key + ":" + strconv.FormatInt(slot, 10)

	pipe := rw.client.TxPipeline()
	incr := pipe.Incr(ctx, redisKey)
	pipe.Expire(ctx, redisKey, rw.window)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, fmt.Errorf("ratelimit: redis: %w", err)
	}
	return incr.Val() <= int64(rw.limit), nil
}

// MsgRateLimited is the 429 body shown to visitors.
const MsgRateLimited = "요청이 많아 잠시 후 다시 시도해 주세요"

// limiterTimeout bounds each limiter call so a slow Redis fails open instead
// of holding the request.
const limiterTimeout = 300 * time.Millisecond

// RateLimit rejects requests over the limiter's budget with 429. Limiter
// errors and timeouts are logged and the request is let through.
func RateLimit(limiter Limiter, logger *logging.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return func(next http.Handler) http.Handler {
		if limiter == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodOptions {
				next.ServeHTTP(w, r)
				return
			}
			ip := clientIP(r)
			ok, err := allowWithin(r.Context(), limiter, ip, limiterTimeout)
			if err != nil {
				logger.Warn("rate limiter unavailable", "error", err, "remote_ip", ip)
				ok = true
			}
			if !ok {
				logger.Warn("rate limit exceeded", "remote_ip", ip, "path", r.URL.Path)
				w.Header().Set("Retry-After", "60")
				writeError(w, MsgRateLimited, http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

type allowResult struct {
	ok  bool
	err error
}

// allowWithin gives up on the limiter once timeout passes, even when the
// limiter ignores its context.
func allowWithin(ctx context.Context, limiter Limiter, key string, timeout time.Duration) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	done := make(chan allowResult, 1)
	go func() {
		ok, err := limiter.Allow(ctx, key)
		done <- allowResult{ok: ok, err: err}
	}()
	select {
	case res := <-done:
		return res.ok, res.err
	case <-ctx.Done():
		return false, fmt.Errorf("ratelimit: %w", ctx.Err())
	}
}

// clientIP prefers X-Real-Ip (set by chi's RealIP middleware) over the
// socket address.
func clientIP(r *http.Request) string {
	if xri := r.Header.Get("X-Real-Ip"); xri != "" {
		return xri
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
