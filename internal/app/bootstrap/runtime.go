package bootstrap

import (
	"context"
	"crypto/tls"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	appconfig "github.com/wolfman30/visitplus-leads/internal/config"
	httpmiddleware "github.com/wolfman30/visitplus-leads/internal/http/middleware"
	"github.com/wolfman30/visitplus-leads/pkg/logging"
)

const redisPingTimeout = 2 * time.Second

// BuildRedisClient returns the rate-limit Redis client, or nil when REDIS_ADDR
// is unset. REDIS_ADDR may be host:port or a redis:// / rediss:// URL. With
// verify set, an unreachable server is logged and treated as absent so the
// service falls back to in-process limiting.
func BuildRedisClient(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger, verify bool) *redis.Client {
	if cfg == nil || strings.TrimSpace(cfg.RedisAddr) == "" {
		return nil
	}
	if logger == nil {
		logger = logging.Default()
	}

	opts, err := redisOptions(cfg)
	if err != nil {
		logger.Warn("invalid redis address, rate limiting stays in memory", "error", err)
		return nil
	}
	client := redis.NewClient(opts)
	if !verify {
		return client
	}

	if ctx == nil {
		ctx = context.Background()
	}
	pingCtx, cancel := context.WithTimeout(ctx, redisPingTimeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		logger.Warn("redis not available, rate limiting stays in memory", "error", err, "addr", opts.Addr)
		_ = client.Close()
		return nil
	}
	return client
}

func redisOptions(cfg *appconfig.Config) (*redis.Options, error) {
	addr := strings.TrimSpace(cfg.RedisAddr)
	if strings.HasPrefix(addr, "redis://") || strings.HasPrefix(addr, "rediss://") {
		opts, err := redis.ParseURL(addr)
		if err != nil {
			return nil, err
		}
		if opts.Password == "" {
			opts.Password = cfg.RedisPassword
		}
		return opts, nil
	}
	opts := &redis.Options{Addr: addr, Password: cfg.RedisPassword}
	if cfg.RedisTLS {
		opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	return opts, nil
}

// BuildRateLimiter picks the shared Redis window when a client is available
// and the per-process token bucket otherwise. A non-positive limit disables
// rate limiting.
func BuildRateLimiter(cfg *appconfig.Config, redisClient *redis.Client, logger *logging.Logger) httpmiddleware.Limiter {
	if cfg == nil || cfg.RateLimitPerMinute <= 0 {
		return nil
	}
	if logger == nil {
		logger = logging.Default()
	}
	if redisClient != nil {
		logger.Info("rate limiting via redis", "per_minute", cfg.RateLimitPerMinute)
		return httpmiddleware.NewRedisWindow(redisClient, cfg.RateLimitPerMinute, time.Minute)
	}
	logger.Info("rate limiting in memory", "per_minute", cfg.RateLimitPerMinute)
	return httpmiddleware.PerMinute(cfg.RateLimitPerMinute)
}
