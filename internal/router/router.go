package router

import (
	"strings"

	"github.com/xmrpay-next/internal/cache"
	"github.com/xmrpay-next/internal/config"
	"github.com/xmrpay-next/internal/constants"
	adminhandlers "github.com/xmrpay-next/internal/http/handlers/admin"
	"github.com/xmrpay-next/internal/http/response"
	"github.com/xmrpay-next/internal/logger"
	"github.com/xmrpay-next/internal/provider"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

// SetupRouter 初始化路由
func SetupRouter(cfg *config.Config, c *provider.Container) *gin.Engine {
	log := logger.L
	if log == nil {
		log = logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	}
	r := gin.New()
	if cfg.Upload.MaxSize > 0 {
		// 两个钱包文件加表单字段
		r.MaxMultipartMemory = cfg.Upload.MaxSize * 2
	}

	adminHandler := adminhandlers.New(c)
	commandRule := RateLimitRule{
		Prefix:        cache.Key(constants.CacheKeyRateLimitAdmin),
		WindowSeconds: cfg.Security.CommandRateLimit.WindowSeconds,
		MaxRequests:   cfg.Security.CommandRateLimit.MaxRequests,
	}

	// 中间件
	r.Use(gin.Recovery())
	r.Use(RequestIDMiddleware())
	r.Use(LoggerMiddleware(log, "/healthz"))
	r.Use(CORSMiddleware(cfg.CORS))

	r.GET("/healthz", func(ctx *gin.Context) {
		if err := cache.Ping(ctx.Request.Context()); err != nil {
			response.Error(ctx, response.CodeInternal, "redis unavailable")
			return
		}
		response.Success(ctx, gin.H{"status": "ok"})
	})
	if cfg.Metrics.Enabled && c != nil && c.Metrics != nil {
		path := strings.TrimSpace(cfg.Metrics.Path)
		if path == "" {
			path = "/metrics"
		}
		r.GET(path, gin.WrapH(c.Metrics.Handler()))
	}

	apiV1 := r.Group("/api/v1")
	{
		admin := apiV1.Group("/admin")
		admin.Use(gzip.Gzip(gzip.DefaultCompression))
		admin.Use(JWTAuthMiddleware(cfg.JWT.SecretKey))
		{
			admin.POST("/stores", adminHandler.CreateStore)
			admin.GET("/stores/:store_id", adminHandler.GetStore)

			monero := admin.Group("/stores/:store_id/monerolike")
			{
				monero.GET("", adminHandler.ListMoneroPaymentMethods)
				monero.GET("/:crypto_code", adminHandler.GetMoneroPaymentMethod)
				monero.POST("/:crypto_code",
					RateLimitMiddleware(redisClientOf(c), commandRule, KeyByIPAndParam("store_id")),
					adminHandler.ApplyMoneroCommand,
				)
			}
		}
	}

	r.NoRoute(func(ctx *gin.Context) {
		response.NotFound(ctx, "route not found")
	})

	return r
}

func redisClientOf(c *provider.Container) *redis.Client {
	if c == nil {
		return nil
	}
	return c.RedisClient
}
