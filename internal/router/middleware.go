package router

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/xmrpay-next/internal/config"
	"github.com/xmrpay-next/internal/constants"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const requestIDHeader = "X-Request-ID"

var (
	defaultCORSMethods = []string{http.MethodGet, http.MethodPost, http.MethodOptions}
	defaultCORSHeaders = []string{"Content-Type", "Authorization", "Accept-Encoding", "X-Requested-With", requestIDHeader}
)

// corsPolicy 预先计算好的跨域响应头
type corsPolicy struct {
	origins     []string
	wildcard    bool
	credentials bool
	methods     string
	headers     string
	maxAge      string
}

func newCORSPolicy(cfg config.CORSConfig) corsPolicy {
	p := corsPolicy{
		credentials: cfg.AllowCredentials,
		methods:     strings.Join(orDefaultList(cfg.AllowedMethods, defaultCORSMethods), ", "),
		headers:     strings.Join(orDefaultList(cfg.AllowedHeaders, defaultCORSHeaders), ", "),
	}
	if cfg.MaxAge > 0 {
		p.maxAge = strconv.Itoa(cfg.MaxAge)
	}
	for _, origin := range orDefaultList(cfg.AllowedOrigins, []string{"*"}) {
		if origin == "*" {
			p.wildcard = true
			continue
		}
		p.origins = append(p.origins, origin)
	}
	return p
}

// allowOrigin 返回 Access-Control-Allow-Origin 的值，空串表示不允许
// 携带凭证时不能返回 *，改为回显请求来源
func (p corsPolicy) allowOrigin(origin string) string {
	if p.wildcard {
		if p.credentials && origin != "" {
			return origin
		}
		return "*"
	}
	for _, allowed := range p.origins {
		if origin != "" && strings.EqualFold(allowed, origin) {
			return origin
		}
	}
	return ""
}

// CORSMiddleware 跨域中间件
func CORSMiddleware(cfg config.CORSConfig) gin.HandlerFunc {
	policy := newCORSPolicy(cfg)
	return func(c *gin.Context) {
		header := c.Writer.Header()
		if origin := policy.allowOrigin(c.GetHeader("Origin")); origin != "" {
			header.Set("Access-Control-Allow-Origin", origin)
			if origin != "*" {
				header.Add("Vary", "Origin")
			}
		}
		if policy.credentials {
			header.Set("Access-Control-Allow-Credentials", "true")
		}
		header.Set("Access-Control-Allow-Methods", policy.methods)
		header.Set("Access-Control-Allow-Headers", policy.headers)
		if policy.maxAge != "" {
			header.Set("Access-Control-Max-Age", policy.maxAge)
		}
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

// RequestIDMiddleware 沿用上游的 X-Request-ID，没有时生成
func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := strings.TrimSpace(c.GetHeader(requestIDHeader))
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Set(constants.ContextKeyRequestID, requestID)
		c.Header(requestIDHeader, requestID)
		c.Next()
	}
}

// LoggerMiddleware 请求日志，5xx 记 error，4xx 记 warn，健康检查不记录
func LoggerMiddleware(logger *zap.Logger, skipPaths ...string) gin.HandlerFunc {
	if logger == nil {
		logger = zap.L()
	}
	sugar := logger.Sugar()
	skip := make(map[string]struct{}, len(skipPaths))
	for _, path := range skipPaths {
		skip[path] = struct{}{}
	}
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}
		if _, ok := skip[path]; ok {
			return
		}
		status := c.Writer.Status()
		kv := []interface{}{
			"request_id", getRequestID(c),
			"method", c.Request.Method,
			"path", path,
			"status", status,
			"latency_ms", time.Since(start).Milliseconds(),
			"client_ip", c.ClientIP(),
		}
		if len(c.Errors) > 0 {
			kv = append(kv, "errors", c.Errors.String())
		}
		switch {
		case status >= http.StatusInternalServerError || len(c.Errors) > 0:
			sugar.Errorw("http_request", kv...)
		case status >= http.StatusBadRequest:
			sugar.Warnw("http_request", kv...)
		default:
			sugar.Infow("http_request", kv...)
		}
	}
}

func getRequestID(c *gin.Context) string {
	return c.GetString(constants.ContextKeyRequestID)
}

func orDefaultList(values, fallback []string) []string {
	if len(values) == 0 {
		return fallback
	}
	return values
}
