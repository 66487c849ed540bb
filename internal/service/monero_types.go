package service

import (
	"context"
	"errors"
	"io"
	"strings"
	"time"

	"github.com/xmrpay-next/internal/constants"
	"github.com/xmrpay-next/internal/monero"
	"github.com/xmrpay-next/internal/queue"
)

var (
	ErrMoneroCryptoCodeNotFound = errors.New("monero crypto code not found")
	ErrStoreNotFound            = errors.New("store not found")
	ErrStoreInvalid             = errors.New("store invalid")
)

// 表单错误码
const (
	FieldErrorValidation            = "validation_error"
	FieldErrorRPCRejected           = "rpc_rejected"
	FieldErrorAccountCreationFailed = "account_creation_failed"
	FieldErrorMissingFile           = "missing_file"
	FieldErrorWalletAlreadyActive   = "wallet_already_active"
	FieldErrorWalletOpenFailed      = "wallet_open_failed"
)

// 表单字段名，与请求字段保持一致
const (
	FieldAccountIndex     = "account_index"
	FieldSettlementChoice = "settlement_confirmation_threshold_choice"
	FieldCustomThreshold  = "custom_confirmation_threshold"
	FieldRemoteProtocol   = "remote_node_protocol"
	FieldRemoteAddress    = "remote_node_address"
	FieldRemotePort       = "remote_node_port"
	FieldWalletFile       = "wallet_file"
	FieldWalletKeysFile   = "wallet_keys_file"
	FieldCommand          = "command"
)

// FieldError 可展示给用户的表单错误，Field 为空表示整表错误
type FieldError struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// MoneroRPCProvider 钱包 RPC 提供者
type MoneroRPCProvider interface {
	CryptoCodes() []string
	ChainConfig(cryptoCode string) (monero.ChainConfig, bool)
	WalletClient(cryptoCode string) (monero.WalletRPC, bool)
	Summary(ctx context.Context, cryptoCode string) (*monero.Summary, bool)
	UpdateDaemon(ctx context.Context, cryptoCode string, params monero.DaemonParams) error
}

// MoneroSummaryQueue 钱包状态刷新队列
type MoneroSummaryQueue interface {
	EnqueueMoneroSummaryRefresh(payload queue.MoneroSummaryRefreshPayload, delay time.Duration) error
}

// WalletFileSink 钱包文件写入目标
type WalletFileSink interface {
	Exists(dir, name string) bool
	Write(dir, name string, src io.Reader) error
}

// WalletUploadInput 上传的钱包文件，nil 表示未提交
type WalletUploadInput struct {
	WalletFile     io.Reader
	WalletKeysFile io.Reader
}

// MoneroAccountOption 账户下拉选项
type MoneroAccountOption struct {
	Index int64  `json:"index"`
	Label string `json:"label"`
	Text  string `json:"text"`

	Balance         string `json:"balance"`
	UnlockedBalance string `json:"unlocked_balance"`
}

// MoneroPaymentMethodView 支付方式的有效配置视图
type MoneroPaymentMethodView struct {
	CryptoCode                string                `json:"crypto_code"`
	PaymentMethodID           string                `json:"payment_method_id"`
	Configured                bool                  `json:"configured"`
	Enabled                   bool                  `json:"enabled"`
	Summary                   *monero.Summary       `json:"summary"`
	WalletFileFound           bool                  `json:"wallet_file_found"`
	AccountIndex              int64                 `json:"account_index"`
	Accounts                  []MoneroAccountOption `json:"accounts"`
	NewAccountLabel           string                `json:"new_account_label"`
	SettlementChoice          SettlementChoice      `json:"settlement_confirmation_threshold_choice"`
	CustomSettlementThreshold *int64                `json:"custom_confirmation_threshold"`
	UseRemoteNode             bool                  `json:"use_remote_node"`
	RemoteNodeProtocol        string                `json:"remote_node_protocol"`
	RemoteNodeAddress         string                `json:"remote_node_address"`
	RemoteNodePort            *int                  `json:"remote_node_port"`
}

// MoneroPaymentMethodForm 后台提交的表单
type MoneroPaymentMethodForm struct {
	Enabled                   bool             `json:"enabled"`
	AccountIndex              int64            `json:"account_index"`
	NewAccountLabel           string           `json:"new_account_label"`
	SettlementChoice          SettlementChoice `json:"settlement_confirmation_threshold_choice"`
	CustomSettlementThreshold *int64           `json:"custom_confirmation_threshold"`
	UseRemoteNode             bool             `json:"use_remote_node"`
	RemoteNodeProtocol        string           `json:"remote_node_protocol"`
	RemoteNodeAddress         string           `json:"remote_node_address"`
	RemoteNodePort            *int             `json:"remote_node_port"`
	WalletPassword            string           `json:"wallet_password"`

	// InputErrors 解析阶段产生的字段错误（例如数字格式非法），对应字段不再重复校验
	InputErrors []FieldError `json:"-"`
}

// MoneroCommandResult 命令执行结果
type MoneroCommandResult struct {
	Command string                  `json:"command"`
	Saved   bool                    `json:"saved"`
	Message string                  `json:"message,omitempty"`
	Errors  []FieldError            `json:"errors"`
	View    MoneroPaymentMethodView `json:"view"`
}

// HasErrors 是否存在表单错误
func (r *MoneroCommandResult) HasErrors() bool {
	return r != nil && len(r.Errors) > 0
}

// NormalizeMoneroCommand 归一化命令，空值即保存
func NormalizeMoneroCommand(raw string) string {
	command := strings.ToLower(strings.TrimSpace(raw))
	if command == "" {
		return constants.MoneroCommandSave
	}
	return command
}
