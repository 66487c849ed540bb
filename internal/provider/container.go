package provider

import (
	"fmt"
	"time"

	"github.com/xmrpay-next/internal/cache"
	"github.com/xmrpay-next/internal/config"
	"github.com/xmrpay-next/internal/logger"
	"github.com/xmrpay-next/internal/metrics"
	"github.com/xmrpay-next/internal/models"
	"github.com/xmrpay-next/internal/monero"
	"github.com/xmrpay-next/internal/queue"
	"github.com/xmrpay-next/internal/repository"
	"github.com/xmrpay-next/internal/service"

	"github.com/redis/go-redis/v9"
)

// Container 依赖注入容器
type Container struct {
	Config      *config.Config
	QueueClient *queue.Client
	RedisClient *redis.Client
	Metrics     *metrics.PromMetrics

	// Repositories
	StoreRepo repository.StoreRepository

	// Monero
	MoneroProvider *monero.Provider

	// Services
	MoneroService *service.MoneroStoreService
}

// NewContainer 初始化容器
func NewContainer(cfg *config.Config) (*Container, error) {
	// 初始化缓存
	if err := cache.InitRedis(&cfg.Redis); err != nil {
		logger.Warnw("provider_init_redis_failed", "error", err)
	}

	// 初始化队列客户端
	var queueClient *queue.Client
	if cfg.Queue.Enabled {
		qc, err := queue.NewClient(&cfg.Queue)
		if err != nil {
			logger.Errorw("provider_init_queue_client_failed", "error", err)
		} else {
			queueClient = qc
		}
	}

	c := &Container{
		Config:      cfg,
		QueueClient: queueClient,
		RedisClient: cache.Client(),
		Metrics:     metrics.NewPromMetrics(),
	}

	// 1. 初始化 Repositories
	c.initRepositories()

	// 2. 初始化 Monero RPC
	if err := c.initMonero(); err != nil {
		return nil, err
	}

	// 3. 初始化 Services
	c.initServices()

	return c, nil
}

func (c *Container) initRepositories() {
	c.StoreRepo = repository.NewStoreRepository(models.DB)
}

func (c *Container) initMonero() error {
	chains := c.Config.Monero.NormalizedChains()
	chainConfigs := make([]monero.ChainConfig, 0, len(chains))
	for _, code := range c.Config.Monero.CryptoCodes() {
		chain := chains[code]
		chainConfigs = append(chainConfigs, monero.ChainConfig{
			CryptoCode:      code,
			DaemonRPCURI:    chain.DaemonRPCURI,
			WalletRPCURI:    chain.WalletRPCURI,
			Username:        chain.Username,
			Password:        chain.Password,
			WalletDirectory: chain.WalletDirectory,
		})
	}

	opts := monero.ProviderOptions{
		Timeout:  time.Duration(c.Config.Monero.RPCTimeoutSeconds) * time.Second,
		Observer: c.Metrics,
	}
	if cache.Enabled() {
		opts.Store = cache.NewMoneroSummaryStore(summaryTTL(c.Config.Monero.SummaryRefreshSeconds))
	}
	moneroProvider, err := monero.NewProvider(chainConfigs, opts)
	if err != nil {
		logger.Errorw("provider_init_monero_failed", "error", err)
		return fmt.Errorf("init monero provider: %w", err)
	}
	c.MoneroProvider = moneroProvider
	logger.Infow("provider_monero_chains_loaded", "crypto_codes", moneroProvider.CryptoCodes())
	return nil
}

func (c *Container) initServices() {
	var summaryQueue service.MoneroSummaryQueue
	if c.QueueClient != nil {
		summaryQueue = c.QueueClient
	}
	c.MoneroService = service.NewMoneroStoreService(
		c.StoreRepo,
		c.MoneroProvider,
		service.NewLocalWalletFileSink(c.Config.Upload.MaxSize),
		summaryQueue,
		time.Duration(c.Config.Monero.UploadRefreshDelaySec)*time.Second,
	)
}

// Close 释放容器持有的外部连接
func (c *Container) Close() {
	if c == nil {
		return
	}
	if c.QueueClient != nil {
		if err := c.QueueClient.Close(); err != nil {
			logger.Warnw("provider_close_queue_client_failed", "error", err)
		}
	}
	if err := cache.Close(); err != nil {
		logger.Warnw("provider_close_redis_failed", "error", err)
	}
}

// summaryTTL 缓存有效期取刷新周期的若干倍，刷新停摆后快照自然过期
func summaryTTL(refreshSeconds int) time.Duration {
	if refreshSeconds <= 0 {
		return 0
	}
	return time.Duration(refreshSeconds) * 4 * time.Second
}
