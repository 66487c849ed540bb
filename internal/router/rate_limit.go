package router

import (
	"fmt"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/xmrpay-next/internal/http/response"
	"github.com/xmrpay-next/internal/logger"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"
)

// RateLimitKeyFunc 生成限流 key 的函数
type RateLimitKeyFunc func(*gin.Context) string

// RateLimitRule 限流规则
type RateLimitRule struct {
	Prefix        string
	WindowSeconds int
	MaxRequests   int
	Message       string
}

var rateLimitScript = redis.NewScript(`
local current = redis.call("INCR", KEYS[1])
if current == 1 then
	redis.call("EXPIRE", KEYS[1], ARGV[1])
end
local ttl = redis.call("TTL", KEYS[1])
return {current, ttl}
`)

// RateLimitMiddleware 频率限制中间件
// 配置了 Redis 时按固定窗口计数，多实例共享；否则退化为进程内令牌桶
func RateLimitMiddleware(client *redis.Client, rule RateLimitRule, keyFunc RateLimitKeyFunc) gin.HandlerFunc {
	if rule.WindowSeconds <= 0 || rule.MaxRequests <= 0 {
		return func(c *gin.Context) { c.Next() }
	}
	var local *localRateLimiter
	if client == nil {
		local = newLocalRateLimiter(rule)
	}
	return func(c *gin.Context) {
		key := ""
		if keyFunc != nil {
			key = strings.TrimSpace(keyFunc(c))
		}
		if key == "" {
			key = c.ClientIP()
		}
		if rule.Prefix != "" {
			key = fmt.Sprintf("%s:%s", rule.Prefix, key)
		}

		if local != nil {
			if wait, ok := local.allow(key); !ok {
				respondRateLimited(c, rule, wait)
				return
			}
			c.Next()
			return
		}

		result, err := rateLimitScript.Run(c.Request.Context(), client, []string{key}, rule.WindowSeconds).Result()
		if err != nil {
			logger.Warnw("rate_limit_script_failed", "key", key, "error", err)
			response.Error(c, response.CodeInternal, "rate limit unavailable")
			c.Abort()
			return
		}

		values, ok := result.([]interface{})
		if !ok || len(values) < 2 {
			response.Error(c, response.CodeInternal, "rate limit unavailable")
			c.Abort()
			return
		}
		count, ok := toInt64(values[0])
		if !ok {
			response.Error(c, response.CodeInternal, "rate limit unavailable")
			c.Abort()
			return
		}
		ttlSeconds, _ := toInt64(values[1])
		if count > int64(rule.MaxRequests) {
			respondRateLimited(c, rule, int(ttlSeconds))
			return
		}

		c.Next()
	}
}

func respondRateLimited(c *gin.Context, rule RateLimitRule, waitSeconds int) {
	if waitSeconds < 1 {
		waitSeconds = rule.WindowSeconds
	}
	if waitSeconds < 1 {
		waitSeconds = 1
	}
	msg := strings.TrimSpace(rule.Message)
	if msg == "" {
		msg = "too many requests, retry in %d seconds"
	}
	response.Error(c, response.CodeTooManyRequests, fmt.Sprintf(msg, waitSeconds))
	c.Abort()
}

// localRateLimiter 进程内按 key 的令牌桶
// 空闲超过一个窗口的桶已回满，清理后重建与保留等价
type localRateLimiter struct {
	mu        sync.Mutex
	limit     rate.Limit
	burst     int
	idleTTL   time.Duration
	lastSweep time.Time
	now       func() time.Time
	entries   map[string]*limiterEntry
}

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

func newLocalRateLimiter(rule RateLimitRule) *localRateLimiter {
	window := time.Duration(rule.WindowSeconds) * time.Second
	return &localRateLimiter{
		limit:   rate.Every(window / time.Duration(rule.MaxRequests)),
		burst:   rule.MaxRequests,
		idleTTL: window,
		now:     time.Now,
		entries: make(map[string]*limiterEntry),
	}
}

// allow 返回是否放行，拒绝时附带建议等待秒数
func (l *localRateLimiter) allow(key string) (int, bool) {
	l.mu.Lock()
	now := l.now()
	if now.Sub(l.lastSweep) >= l.idleTTL {
		l.sweep(now)
	}
	entry, ok := l.entries[key]
	if !ok {
		entry = &limiterEntry{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.entries[key] = entry
	}
	entry.lastSeen = now
	l.mu.Unlock()

	reservation := entry.limiter.ReserveN(now, 1)
	if !reservation.OK() {
		return 1, false
	}
	delay := reservation.DelayFrom(now)
	if delay == 0 {
		return 0, true
	}
	reservation.CancelAt(now)
	return int(math.Ceil(delay.Seconds())), false
}

// sweep 清理空闲的桶，调用方持有锁
func (l *localRateLimiter) sweep(now time.Time) {
	for key, entry := range l.entries {
		if now.Sub(entry.lastSeen) >= l.idleTTL {
			delete(l.entries, key)
		}
	}
	l.lastSweep = now
}

func (l *localRateLimiter) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

// KeyByIP 使用 IP 作为限流 key
func KeyByIP(c *gin.Context) string {
	return c.ClientIP()
}

// KeyByIPAndParam 使用 IP + 路由参数作为限流 key
func KeyByIPAndParam(names ...string) RateLimitKeyFunc {
	return func(c *gin.Context) string {
		parts := make([]string, 0, len(names)+1)
		for _, name := range names {
			value := strings.ToLower(strings.TrimSpace(c.Param(name)))
			if value != "" {
				parts = append(parts, value)
			}
		}
		parts = append(parts, c.ClientIP())
		return strings.Join(parts, "|")
	}
}

func toInt64(value interface{}) (int64, bool) {
	switch v := value.(type) {
	case int64:
		return v, true
	case int:
		return int64(v), true
	case int32:
		return int64(v), true
	case uint64:
		return int64(v), true
	case uint32:
		return int64(v), true
	case uint8:
		return int64(v), true
	case float64:
		return int64(v), true
	default:
		return 0, false
	}
}
