package router

import (
	"context"
	"errors"
	"strconv"
	"strings"

	handlershared "github.com/loyalcup/backend/internal/http/handlers/shared"
	"github.com/loyalcup/backend/internal/http/response"
	"github.com/loyalcup/backend/internal/i18n"
	"github.com/loyalcup/backend/internal/logger"
	"github.com/loyalcup/backend/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

// RateLimitKeyFunc 生成限流 key 的函数
type RateLimitKeyFunc func(*gin.Context) string

// RateLimitRule 固定窗口限流规则
type RateLimitRule struct {
	Prefix        string
	WindowSeconds int
	MaxRequests   int
	MessageKey    string
}

func (r RateLimitRule) active() bool {
	return r.WindowSeconds > 0 && r.MaxRequests > 0
}

func (r RateLimitRule) key(raw string) string {
	if r.Prefix == "" {
		return raw
	}
	return r.Prefix + ":" + raw
}

func (r RateLimitRule) messageKey() string {
	if key := strings.TrimSpace(r.MessageKey); key != "" {
		return key
	}
	return "error.rate_limited"
}

// 返回 {当前计数, 剩余秒数}
var fixedWindowScript = redis.NewScript(`
local current = redis.call("INCR", KEYS[1])
if current == 1 then
	redis.call("EXPIRE", KEYS[1], ARGV[1])
end
return {current, redis.call("TTL", KEYS[1])}
`)

var errUnexpectedWindowReply = errors.New("unexpected rate limit reply")

type windowHit struct {
	count int64
	ttl   int64
}

type fixedWindowLimiter struct {
	client *redis.Client
	rule   RateLimitRule
}

func (l fixedWindowLimiter) hit(ctx context.Context, key string) (windowHit, error) {
	reply, err := fixedWindowScript.Run(ctx, l.client, []string{key}, l.rule.WindowSeconds).Int64Slice()
	if err != nil {
		return windowHit{}, err
	}
	if len(reply) < 2 {
		return windowHit{}, errUnexpectedWindowReply
	}
	return windowHit{count: reply[0], ttl: reply[1]}, nil
}

// retryAfter 超限后的等待秒数，键未设置过期时退回整个窗口
func (l fixedWindowLimiter) retryAfter(h windowHit) int {
	if h.ttl > 0 {
		return int(h.ttl)
	}
	return max(l.rule.WindowSeconds, 1)
}

// RateLimitMiddleware Redis 固定窗口限流中间件，未配置 Redis 时直接放行
func RateLimitMiddleware(client *redis.Client, rule RateLimitRule, keyFunc RateLimitKeyFunc) gin.HandlerFunc {
	if client == nil || !rule.active() {
		return func(c *gin.Context) { c.Next() }
	}
	limiter := fixedWindowLimiter{client: client, rule: rule}

	return func(c *gin.Context) {
		raw := ""
		if keyFunc != nil {
			raw = strings.TrimSpace(keyFunc(c))
		}
		if raw == "" {
			raw = c.ClientIP()
		}
		key := rule.key(raw)

		h, err := limiter.hit(c.Request.Context(), key)
		if err != nil {
			logger.Warnw("rate_limit_script_failed", "key", key, "error", err)
			response.Error(c, response.CodeServiceUnavailable, i18n.T(i18n.ResolveLocale(c), "error.rate_limit_unavailable"))
			c.Abort()
			return
		}

		remaining := max(int64(rule.MaxRequests)-h.count, 0)
		c.Header("X-RateLimit-Limit", strconv.Itoa(rule.MaxRequests))
		c.Header("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))

		if h.count > int64(rule.MaxRequests) {
			wait := limiter.retryAfter(h)
			c.Header("Retry-After", strconv.Itoa(wait))
			logger.Debugw("rate_limit_exceeded", "key", key, "count", h.count)
			response.Error(c, response.CodeTooManyRequests, i18n.Sprintf(i18n.ResolveLocale(c), rule.messageKey(), wait))
			c.Abort()
			return
		}
		c.Next()
	}
}

// KeyByIP 按客户端 IP 限流
func KeyByIP(c *gin.Context) string {
	return "ip:" + c.ClientIP()
}

// KeyByActor 已登录请求按用户限流，否则按 IP
func KeyByActor(c *gin.Context) string {
	if value, ok := c.Get(handlershared.ContextKeyActor); ok {
		if actor, typeOK := value.(service.Actor); typeOK && actor.UserID != "" {
			return "user:" + actor.UserID
		}
	}
	return KeyByIP(c)
}
