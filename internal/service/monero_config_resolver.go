package service

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/xmrpay-next/internal/constants"
	"github.com/xmrpay-next/internal/models"
	"github.com/xmrpay-next/internal/monero"

	"github.com/shopspring/decimal"
)

// ExclusionSet 店铺禁用的支付方式集合
type ExclusionSet map[string]struct{}

// NewExclusionSet 由 ID 列表构建禁用集合
func NewExclusionSet(ids []string) ExclusionSet {
	set := make(ExclusionSet, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		set[id] = struct{}{}
	}
	return set
}

// Excludes 判断支付方式是否被禁用
func (s ExclusionSet) Excludes(paymentMethodID string) bool {
	if s == nil {
		return false
	}
	_, ok := s[paymentMethodID]
	return ok
}

// IsPaymentMethodEnabled 启用状态 = 已配置且不在禁用集合中
func IsPaymentMethodEnabled(configured bool, paymentMethodID string, exclusions ExclusionSet) bool {
	return configured && !exclusions.Excludes(paymentMethodID)
}

// MoneroResolveInput 解析输入
type MoneroResolveInput struct {
	CryptoCode      string
	Config          *models.MoneroPaymentConfig
	Summary         *monero.Summary
	Accounts        *monero.GetAccountsResult
	Exclusions      ExclusionSet
	WalletFileFound bool
}

// ResolveMoneroPaymentMethodView 计算支付方式的有效配置视图，不产生副作用
func ResolveMoneroPaymentMethodView(input MoneroResolveInput) MoneroPaymentMethodView {
	code := strings.ToUpper(strings.TrimSpace(input.CryptoCode))
	paymentMethodID := models.MoneroPaymentMethodID(code)

	view := MoneroPaymentMethodView{
		CryptoCode:         code,
		PaymentMethodID:    paymentMethodID,
		Configured:         input.Config != nil,
		Enabled:            IsPaymentMethodEnabled(input.Config != nil, paymentMethodID, input.Exclusions),
		Summary:            input.Summary,
		WalletFileFound:    input.WalletFileFound,
		Accounts:           buildAccountOptions(input.Accounts),
		RemoteNodeProtocol: constants.MoneroRemoteNodeProtocolDefault,
	}

	if input.Config == nil {
		if len(view.Accounts) > 0 {
			view.AccountIndex = view.Accounts[0].Index
		}
		view.SettlementChoice = SettlementChoiceStoreSpeedPolicy
		return view
	}

	cfg := input.Config
	view.AccountIndex = cfg.AccountIndex
	view.SettlementChoice, view.CustomSettlementThreshold = SettlementChoiceFromThreshold(cfg.InvoiceSettledConfirmationThreshold)
	view.UseRemoteNode = cfg.UseRemoteNode
	if protocol := strings.TrimSpace(cfg.RemoteNodeProtocol); protocol != "" {
		view.RemoteNodeProtocol = protocol
	}
	view.RemoteNodeAddress = cfg.RemoteNodeAddress
	if cfg.RemoteNodePort != nil {
		port := *cfg.RemoteNodePort
		view.RemoteNodePort = &port
	}
	return view
}

// overlayForm 将提交的表单覆盖到视图上，用于回显
func overlayForm(view MoneroPaymentMethodView, form MoneroPaymentMethodForm) MoneroPaymentMethodView {
	view.Enabled = form.Enabled
	view.NewAccountLabel = form.NewAccountLabel
	view.AccountIndex = form.AccountIndex
	view.SettlementChoice = form.SettlementChoice
	view.CustomSettlementThreshold = form.CustomSettlementThreshold
	view.UseRemoteNode = form.UseRemoteNode
	view.RemoteNodeProtocol = form.RemoteNodeProtocol
	view.RemoteNodeAddress = form.RemoteNodeAddress
	view.RemoteNodePort = form.RemoteNodePort
	return view
}

func buildAccountOptions(accounts *monero.GetAccountsResult) []MoneroAccountOption {
	if accounts == nil {
		return []MoneroAccountOption{}
	}
	options := make([]MoneroAccountOption, 0, len(accounts.SubaddressAccounts))
	for _, account := range accounts.SubaddressAccounts {
		label := strings.TrimSpace(account.Label)
		text := label
		if text == "" {
			text = "No label"
		}
		options = append(options, MoneroAccountOption{
			Index: account.AccountIndex,
			Label: label,
			Text:  fmt.Sprintf("%d - %s", account.AccountIndex, text),

			Balance:         FormatAtomicAmount(account.Balance),
			UnlockedBalance: FormatAtomicAmount(account.UnlockedBalance),
		})
	}
	return options
}

// FormatAtomicAmount 将最小单位金额（1e-12）格式化为币值字符串
func FormatAtomicAmount(atomic uint64) string {
	return decimal.NewFromBigInt(new(big.Int).SetUint64(atomic), -constants.MoneroAtomicUnitExponent).String()
}
