package models

import (
	"strings"

	"github.com/xmrpay-next/internal/constants"
)

// MoneroPaymentConfig Monero 类支付方式的店铺级配置
// 启用状态不在此处保存，由店铺的禁用集合推导
type MoneroPaymentConfig struct {
	AccountIndex                        int64  `json:"account_index"`
	InvoiceSettledConfirmationThreshold *int64 `json:"invoice_settled_confirmation_threshold"`
	UseRemoteNode                       bool   `json:"use_remote_node"`
	RemoteNodeProtocol                  string `json:"remote_node_protocol,omitempty"`
	RemoteNodeAddress                   string `json:"remote_node_address,omitempty"`
	RemoteNodePort                      *int   `json:"remote_node_port,omitempty"`
}

// MoneroPaymentMethodID 返回币种链上支付方式 ID，例如 XMR-CHAIN
func MoneroPaymentMethodID(cryptoCode string) string {
	code := strings.ToUpper(strings.TrimSpace(cryptoCode))
	return code + constants.PaymentMethodIDSeparator + constants.PaymentTypeChain
}
