package monero

import (
	"context"
	"time"
)

// WalletRPC 钱包 RPC 能力
type WalletRPC interface {
	GetAccounts(ctx context.Context) (*GetAccountsResult, error)
	CreateAccount(ctx context.Context, label string) (*CreateAccountResult, error)
	SetDaemon(ctx context.Context, params DaemonParams) error
	OpenWallet(ctx context.Context, filename, password string) error
	GetHeight(ctx context.Context) (*GetHeightResult, error)
}

// DaemonRPC 节点 RPC 能力
type DaemonRPC interface {
	GetInfo(ctx context.Context) (*GetInfoResult, error)
}

// SubaddressAccount 子地址账户
type SubaddressAccount struct {
	AccountIndex    int64  `json:"account_index"`
	Label           string `json:"label"`
	Tag             string `json:"tag,omitempty"`
	BaseAddress     string `json:"base_address"`
	Balance         uint64 `json:"balance"`
	UnlockedBalance uint64 `json:"unlocked_balance"`
}

// GetAccountsResult get_accounts 返回
type GetAccountsResult struct {
	SubaddressAccounts   []SubaddressAccount `json:"subaddress_accounts"`
	TotalBalance         uint64              `json:"total_balance"`
	TotalUnlockedBalance uint64              `json:"total_unlocked_balance"`
}

// CreateAccountResult create_account 返回
type CreateAccountResult struct {
	AccountIndex int64  `json:"account_index"`
	Address      string `json:"address"`
}

// DaemonParams set_daemon 参数
type DaemonParams struct {
	Address    string `json:"address"`
	Trusted    bool   `json:"trusted"`
	SSLSupport string `json:"ssl_support"`
	Username   string `json:"username"`
	Password   string `json:"password"`
}

// GetHeightResult get_height 返回
type GetHeightResult struct {
	Height int64 `json:"height"`
}

// GetInfoResult get_info 返回（仅保留用到的字段）
type GetInfoResult struct {
	Height       int64  `json:"height"`
	TargetHeight int64  `json:"target_height"`
	Synchronized bool   `json:"synchronized"`
	Status       string `json:"status"`
}

// Summary 币种的节点与钱包状态快照
type Summary struct {
	CryptoCode      string    `json:"crypto_code"`
	DaemonAvailable bool      `json:"daemon_available"`
	Synced          bool      `json:"synced"`
	DaemonHeight    int64     `json:"daemon_height"`
	TargetHeight    int64     `json:"target_height"`
	WalletHeight    int64     `json:"wallet_height"`
	WalletAvailable bool      `json:"wallet_available"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// ChainConfig 单币种 RPC 配置
type ChainConfig struct {
	CryptoCode      string
	DaemonRPCURI    string
	WalletRPCURI    string
	Username        string
	Password        string
	WalletDirectory string
}
