package constants

// 支付方式常量
const (
	PaymentTypeChain         = "CHAIN"
	PaymentMethodIDSeparator = "-"
)

// Monero 钱包文件名常量
const (
	MoneroWalletFileName     = "wallet"
	MoneroWalletKeysFileName = "wallet.keys"
	MoneroWalletPasswordFile = "password"
)

// Monero 远程节点默认值
const (
	MoneroRemoteNodeProtocolDefault = "http"
	MoneroDaemonSSLSupportDisabled  = "disabled"
)

// MoneroAtomicUnitExponent 1 XMR = 1e12 piconero
const MoneroAtomicUnitExponent = 12

// Monero 后台命令常量
const (
	MoneroCommandSave          = "save"
	MoneroCommandAddRemoteNode = "add-remote-node"
	MoneroCommandAddAccount    = "add-account"
	MoneroCommandUploadWallet  = "upload-wallet"
)

// 结算确认数常量
const (
	SettlementThresholdZero       int64 = 0
	SettlementThresholdAtLeastOne int64 = 1
	SettlementThresholdAtLeastTen int64 = 10
	SettlementThresholdCustomMax  int64 = 100
)

// 队列常量
const (
	QueueDefault             = "default"
	QueueCritical            = "critical"
	TaskMoneroSummaryRefresh = "monero:summary_refresh"
)

// 缓存默认配置常量
const (
	RedisPrefixDefault     = "xmr"
	CacheKeyMoneroSummary  = "monero:summary:%s"
	CacheKeyRateLimitAdmin = "rate:admin_command"
)

// 上下文键常量
const (
	ContextKeyRequestID = "request_id"
	ContextKeyAdminID   = "admin_id"
	ContextKeyUsername  = "username"
)
