package middleware

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"

	"agora/internal/observability"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
)

var errNoRedis = errors.New("rate limit store unavailable")

// Limit allows Max requests per Window for one named action.
type Limit struct {
	Name   string
	Max    int
	Window time.Duration
}

func rateLimitsEnabled() bool {
	switch os.Getenv("APP_ENV") {
	case "", "test", "development":
		return false
	}
	return true
}

// CheckRateLimit counts one hit for who against limit. When the limit is
// exceeded it also reports how long until the window resets.
func CheckRateLimit(ctx context.Context, rdb *redis.Client, limit Limit, who string) (bool, time.Duration, error) {
	if !rateLimitsEnabled() {
		return true, 0, nil
	}
	if rdb == nil {
		return false, 0, errNoRedis
	}

	key := "rl:" + limit.Name + ":" + who
	count, err := rdb.Incr(ctx, key).Result()
	if err != nil {
		observability.RedisErrorRate.WithLabelValues("ratelimit_incr").Inc()
		return false, 0, err
	}
	if count == 1 {
		rdb.Expire(ctx, key, limit.Window)
	}
	if count <= int64(limit.Max) {
		return true, 0, nil
	}

	ttl, err := rdb.TTL(ctx, key).Result()
	if err != nil || ttl < 0 {
		ttl = limit.Window
	}
	return false, ttl, nil
}

// RateLimit enforces limit per authenticated user, or per client IP for
// anonymous requests. Requests pass through when Redis is unreachable.
func RateLimit(rdb *redis.Client, limit Limit) fiber.Handler {
	return func(c *fiber.Ctx) error {
		who := "ip:" + c.IP()
		if uid, ok := c.Locals("userID").(uint); ok {
			who = fmt.Sprintf("user:%d", uid)
		}

		allowed, retryAfter, err := CheckRateLimit(c.UserContext(), rdb, limit, who)
		if err != nil {
			Logger.WarnContext(c.UserContext(), "rate limit check skipped",
				slog.String("limit", limit.Name),
				slog.String("error", err.Error()),
			)
			return c.Next()
		}
		if !allowed {
			c.Set(fiber.HeaderRetryAfter, strconv.Itoa(int(retryAfter.Round(time.Second).Seconds())))
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error": "Too many requests, please try again later.",
			})
		}
		return c.Next()
	}
}
