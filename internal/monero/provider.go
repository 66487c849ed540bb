package monero

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/xmrpay-next/internal/logger"

	"golang.org/x/sync/errgroup"
)

// ErrUnknownCryptoCode 未配置的币种
var ErrUnknownCryptoCode = errors.New("monero crypto code not configured")

// SummaryStore 状态快照的外部存储（如 Redis）
type SummaryStore interface {
	GetSummary(ctx context.Context, cryptoCode string) (*Summary, bool, error)
	SetSummary(ctx context.Context, summary *Summary) error
}

// SummaryObserver 状态刷新回调
type SummaryObserver interface {
	ObserveSummary(summary Summary)
}

// ProviderOptions Provider 参数
type ProviderOptions struct {
	Timeout  time.Duration
	Observer CallObserver
	Store    SummaryStore
}

// Provider 按币种管理钱包与节点客户端及状态快照
type Provider struct {
	mu        sync.RWMutex
	chains    map[string]ChainConfig
	wallets   map[string]*Client
	daemons   map[string]DaemonRPC
	summaries map[string]*Summary
	opts      ProviderOptions
}

// NewProvider 创建 Provider
func NewProvider(chains []ChainConfig, opts ProviderOptions) (*Provider, error) {
	p := &Provider{
		chains:    make(map[string]ChainConfig, len(chains)),
		wallets:   make(map[string]*Client, len(chains)),
		daemons:   make(map[string]DaemonRPC, len(chains)),
		summaries: make(map[string]*Summary, len(chains)),
		opts:      opts,
	}
	for _, chain := range chains {
		code := strings.ToUpper(strings.TrimSpace(chain.CryptoCode))
		if code == "" {
			return nil, fmt.Errorf("%w: crypto code is required", ErrConfigInvalid)
		}
		chain.CryptoCode = code
		wallet, err := p.newClient(code, chain.WalletRPCURI, chain.Username, chain.Password)
		if err != nil {
			return nil, fmt.Errorf("%w: wallet rpc for %s", err, code)
		}
		p.wallets[code] = wallet
		if strings.TrimSpace(chain.DaemonRPCURI) != "" {
			daemon, err := p.newClient(code, chain.DaemonRPCURI, chain.Username, chain.Password)
			if err != nil {
				return nil, fmt.Errorf("%w: daemon rpc for %s", err, code)
			}
			p.daemons[code] = daemon
		}
		p.chains[code] = chain
	}
	return p, nil
}

func (p *Provider) newClient(code, uri, username, password string) (*Client, error) {
	return NewClient(ClientOptions{
		CryptoCode: code,
		URI:        uri,
		Username:   username,
		Password:   password,
		Timeout:    p.opts.Timeout,
		Observer:   p.opts.Observer,
	})
}

// CryptoCodes 返回已配置币种（排序后）
func (p *Provider) CryptoCodes() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	codes := make([]string, 0, len(p.chains))
	for code := range p.chains {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

// ChainConfig 返回币种配置
func (p *Provider) ChainConfig(cryptoCode string) (ChainConfig, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	chain, ok := p.chains[normalizeCode(cryptoCode)]
	return chain, ok
}

// WalletClient 返回钱包客户端
func (p *Provider) WalletClient(cryptoCode string) (WalletRPC, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	client, ok := p.wallets[normalizeCode(cryptoCode)]
	if !ok {
		return nil, false
	}
	return client, true
}

// Summary 读取状态快照
// 配置了外部存储时以存储为准（多进程共享），存储未命中或不可用时才用本进程的快照
func (p *Provider) Summary(ctx context.Context, cryptoCode string) (*Summary, bool) {
	code := normalizeCode(cryptoCode)
	if p.opts.Store != nil {
		stored, found, err := p.opts.Store.GetSummary(ctx, code)
		switch {
		case err != nil:
			logger.Debugw("monero_summary_store_get_failed", "crypto_code", code, "error", err)
		case found && stored != nil:
			return stored, true
		}
	}
	p.mu.RLock()
	summary, ok := p.summaries[code]
	p.mu.RUnlock()
	if !ok {
		return nil, false
	}
	copied := *summary
	return &copied, true
}

// RefreshSummary 查询节点与钱包并更新快照
func (p *Provider) RefreshSummary(ctx context.Context, cryptoCode string) (*Summary, error) {
	code := normalizeCode(cryptoCode)
	p.mu.RLock()
	wallet, ok := p.wallets[code]
	daemon := p.daemons[code]
	p.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownCryptoCode, code)
	}

	summary := &Summary{CryptoCode: code}
	if daemon != nil {
		if info, err := daemon.GetInfo(ctx); err == nil {
			summary.DaemonAvailable = true
			summary.Synced = info.Synchronized
			summary.DaemonHeight = info.Height
			summary.TargetHeight = info.TargetHeight
		} else {
			logger.Debugw("monero_daemon_get_info_failed", "crypto_code", code, "error", err)
		}
	}
	if height, err := wallet.GetHeight(ctx); err == nil {
		summary.WalletAvailable = true
		summary.WalletHeight = height.Height
	} else {
		logger.Debugw("monero_wallet_get_height_failed", "crypto_code", code, "error", err)
	}
	summary.UpdatedAt = time.Now()

	p.mu.Lock()
	p.summaries[code] = summary
	p.mu.Unlock()

	if p.opts.Store != nil {
		if err := p.opts.Store.SetSummary(ctx, summary); err != nil {
			logger.Warnw("monero_summary_store_set_failed", "crypto_code", code, "error", err)
		}
	}
	if observer, ok := p.opts.Observer.(SummaryObserver); ok {
		observer.ObserveSummary(*summary)
	}
	copied := *summary
	return &copied, nil
}

// RefreshAll 并发刷新所有币种
func (p *Provider) RefreshAll(ctx context.Context) {
	codes := p.CryptoCodes()
	var g errgroup.Group
	for _, code := range codes {
		g.Go(func() error {
			if _, err := p.RefreshSummary(ctx, code); err != nil {
				logger.Warnw("monero_summary_refresh_failed", "crypto_code", code, "error", err)
			}
			return nil
		})
	}
	_ = g.Wait()
}

// UpdateDaemon 钱包切换节点后同步替换节点客户端并刷新快照
func (p *Provider) UpdateDaemon(ctx context.Context, cryptoCode string, params DaemonParams) error {
	code := normalizeCode(cryptoCode)
	p.mu.RLock()
	chain, ok := p.chains[code]
	p.mu.RUnlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownCryptoCode, code)
	}
	daemon, err := p.newClient(code, params.Address, params.Username, params.Password)
	if err != nil {
		return err
	}

	p.mu.Lock()
	p.daemons[code] = daemon
	chain.DaemonRPCURI = daemon.URI()
	p.chains[code] = chain
	p.mu.Unlock()

	_, err = p.RefreshSummary(ctx, code)
	return err
}

func normalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
