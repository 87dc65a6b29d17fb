package middleware

import (
	"context"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/AnshRaj112/solace-backend/internal/httpx"
	"github.com/AnshRaj112/solace-backend/pkg/clientip"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	RateLimitWindow      = 120 * time.Second
	RateLimitMaxRequests = 25
	RateLimitKeyPrefix   = "ratelimit:"
	BlockedIPKeyPrefix   = "blocked_ip:"
	BlockedIPDuration    = 24 * time.Hour
)

// RedisLimiter counts requests per IP in a fixed Redis window and blocks the
// IP for BlockedIPDuration once the window overflows. Counters are shared by
// every API instance.
type RedisLimiter struct {
	client     *redis.Client
	window     time.Duration
	max        int64
	block      time.Duration
	trustProxy bool
	log        *zap.SugaredLogger
}

func NewRedisLimiter(client *redis.Client, trustProxy bool, log *zap.SugaredLogger) *RedisLimiter {
	return &RedisLimiter{
		client:     client,
		window:     RateLimitWindow,
		max:        RateLimitMaxRequests,
		block:      BlockedIPDuration,
		trustProxy: trustProxy,
		log:        log,
	}
}

// BlockedIP is an IP currently refused by the limiter.
type BlockedIP struct {
	IP        string `json:"ip"`
	ExpiresIn int64  `json:"expires_in_seconds"`
}

// Middleware fails open when Redis is unavailable.
func (l *RedisLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		ip := clientip.FromRequest(r, l.trustProxy)

		blocked, err := l.IsBlocked(ctx, ip)
		if err != nil {
			l.log.Warnw("rate limiter unavailable", "error", err)
			next.ServeHTTP(w, r)
			return
		}
		if blocked {
			httpx.WriteError(w, http.StatusTooManyRequests, "RATE_LIMITED",
				"Your IP has been temporarily blocked due to excessive requests. Please try again later.", nil)
			return
		}

		count, err := l.hit(ctx, ip)
		if err != nil {
			l.log.Warnw("rate limiter unavailable", "error", err)
			next.ServeHTTP(w, r)
			return
		}

		if count > l.max {
			if err := l.client.Set(ctx, BlockedIPKeyPrefix+ip, "1", l.block).Err(); err != nil {
				l.log.Warnw("block ip failed", "ip", ip, "error", err)
			} else {
				l.log.Warnw("ip blocked", "ip", ip, "requests", count)
			}
			w.Header().Set("Retry-After", strconv.Itoa(int(l.window.Seconds())))
			httpx.WriteError(w, http.StatusTooManyRequests, "RATE_LIMITED",
				"Rate limit exceeded. Your IP has been temporarily blocked. Please try again later.", nil)
			return
		}

		w.Header().Set("X-RateLimit-Limit", strconv.FormatInt(l.max, 10))
		w.Header().Set("X-RateLimit-Remaining", strconv.FormatInt(l.max-count, 10))
		w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(time.Now().Add(l.window).Unix(), 10))
		next.ServeHTTP(w, r)
	})
}

// hit increments the window counter; the first hit starts the window.
func (l *RedisLimiter) hit(ctx context.Context, ip string) (int64, error) {
	key := RateLimitKeyPrefix + ip
	count, err := l.client.Incr(ctx, key).Result()
	if err != nil {
		return 0, err
	}
	if count == 1 {
		if err := l.client.Expire(ctx, key, l.window).Err(); err != nil {
			return 0, err
		}
	}
	return count, nil
}

// IsBlocked reports whether ip is currently blocked.
func (l *RedisLimiter) IsBlocked(ctx context.Context, ip string) (bool, error) {
	n, err := l.client.Exists(ctx, BlockedIPKeyPrefix+ip).Result()
	return n > 0, err
}

// Unblock lifts a block and resets the window counter for ip.
func (l *RedisLimiter) Unblock(ctx context.Context, ip string) error {
	return l.client.Del(ctx, BlockedIPKeyPrefix+ip, RateLimitKeyPrefix+ip).Err()
}

// BlockedIPs lists blocked IPs sorted by address.
func (l *RedisLimiter) BlockedIPs(ctx context.Context) ([]BlockedIP, error) {
	out := []BlockedIP{}
	iter := l.client.Scan(ctx, 0, BlockedIPKeyPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		key := iter.Val()
		ttl, err := l.client.TTL(ctx, key).Result()
		if err != nil {
			return nil, err
		}
		if ttl < 0 {
			ttl = 0
		}
		out = append(out, BlockedIP{IP: strings.TrimPrefix(key, BlockedIPKeyPrefix), ExpiresIn: int64(ttl.Seconds())})
	}
	if err := iter.Err(); err != nil {
		return nil, err
	}
	sort.Slice(out, func(i, j int) bool { return out[i].IP < out[j].IP })
	return out, nil
}
