package cache

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/xmrpay-next/internal/config"
	"github.com/xmrpay-next/internal/constants"

	"github.com/redis/go-redis/v9"
)

// redisState 进程级 Redis 连接，未启用时所有操作都是空操作
type redisState struct {
	mu     sync.RWMutex
	client *redis.Client
	prefix string
}

var state = &redisState{prefix: constants.RedisPrefixDefault}

// InitRedis 初始化 Redis 客户端
func InitRedis(cfg *config.RedisConfig) error {
	state.mu.Lock()
	defer state.mu.Unlock()
	if state.client != nil {
		_ = state.client.Close()
		state.client = nil
	}
	state.prefix = normalizePrefix("")
	if cfg == nil || !cfg.Enabled {
		return nil
	}
	state.prefix = normalizePrefix(cfg.Prefix)
	state.client = redis.NewClient(&redis.Options{
		Addr:         cfg.Addr(),
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})
	return nil
}

func normalizePrefix(prefix string) string {
	if prefix = strings.TrimSpace(prefix); prefix != "" {
		return prefix
	}
	return constants.RedisPrefixDefault
}

// Close 关闭 Redis 客户端
func Close() error {
	state.mu.Lock()
	defer state.mu.Unlock()
	if state.client == nil {
		return nil
	}
	err := state.client.Close()
	state.client = nil
	return err
}

// Client 获取 Redis 客户端，未启用返回 nil
func Client() *redis.Client {
	state.mu.RLock()
	defer state.mu.RUnlock()
	return state.client
}

// Enabled 判断缓存是否启用
func Enabled() bool {
	return Client() != nil
}

// Ping 检查 Redis 连通性，未启用视为健康
func Ping(ctx context.Context) error {
	client := Client()
	if client == nil {
		return nil
	}
	return client.Ping(ctx).Err()
}

// Key 返回带全局前缀的完整 key
func Key(parts ...string) string {
	return buildKey(strings.Join(parts, ":"))
}

// GetJSON 读取 JSON 缓存，未命中返回 false
func GetJSON(ctx context.Context, key string, dest interface{}) (bool, error) {
	client := Client()
	if client == nil {
		return false, nil
	}
	raw, err := client.Get(ctx, buildKey(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return false, err
	}
	return true, nil
}

// SetJSON 写入 JSON 缓存
func SetJSON(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	client := Client()
	if client == nil {
		return nil
	}
	payload, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return client.Set(ctx, buildKey(key), payload, ttl).Err()
}

// Del 删除缓存
func Del(ctx context.Context, key string) error {
	client := Client()
	if client == nil {
		return nil
	}
	return client.Del(ctx, buildKey(key)).Err()
}

func buildKey(key string) string {
	state.mu.RLock()
	prefix := state.prefix
	state.mu.RUnlock()
	if key = strings.Trim(strings.TrimSpace(key), ":"); key == "" {
		return prefix
	}
	return prefix + ":" + key
}
