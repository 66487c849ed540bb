package cache

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/xmrpay-next/internal/constants"
	"github.com/xmrpay-next/internal/monero"
)

// MoneroSummaryStore 将钱包状态快照镜像到 Redis，供多实例共享
type MoneroSummaryStore struct {
	ttl time.Duration
}

// NewMoneroSummaryStore 创建快照存储，ttl<=0 时使用 5 分钟
func NewMoneroSummaryStore(ttl time.Duration) *MoneroSummaryStore {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &MoneroSummaryStore{ttl: ttl}
}

// GetSummary 读取快照
func (s *MoneroSummaryStore) GetSummary(ctx context.Context, cryptoCode string) (*monero.Summary, bool, error) {
	var summary monero.Summary
	found, err := GetJSON(ctx, moneroSummaryKey(cryptoCode), &summary)
	if err != nil || !found {
		return nil, false, err
	}
	return &summary, true, nil
}

// SetSummary 写入快照
func (s *MoneroSummaryStore) SetSummary(ctx context.Context, summary *monero.Summary) error {
	if summary == nil {
		return nil
	}
	return SetJSON(ctx, moneroSummaryKey(summary.CryptoCode), summary, s.ttl)
}

func moneroSummaryKey(cryptoCode string) string {
	return fmt.Sprintf(constants.CacheKeyMoneroSummary, strings.ToUpper(strings.TrimSpace(cryptoCode)))
}
