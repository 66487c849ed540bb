package service

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/url"
	"strconv"
	"strings"

	"github.com/xmrpay-next/internal/constants"
	"github.com/xmrpay-next/internal/logger"
	"github.com/xmrpay-next/internal/models"
	"github.com/xmrpay-next/internal/monero"
	"github.com/xmrpay-next/internal/queue"
)

// FieldErrorWalletWriteFailed 钱包文件写入失败
const FieldErrorWalletWriteFailed = "wallet_write_failed"

// ApplyCommand 执行后台命令
// 返回的 error 仅表示基础设施失败（店铺不存在、币种未配置、数据库错误），用户可修正的问题放在 result.Errors
func (s *MoneroStoreService) ApplyCommand(ctx context.Context, storeID, cryptoCode, command string, form MoneroPaymentMethodForm, upload WalletUploadInput) (*MoneroCommandResult, error) {
	code, err := s.requireCryptoCode(cryptoCode)
	if err != nil {
		return nil, err
	}
	store, err := s.GetStore(storeID)
	if err != nil {
		return nil, err
	}

	command = NormalizeMoneroCommand(command)
	form.Normalize()
	result := &MoneroCommandResult{Command: command, Errors: []FieldError{}}

	switch command {
	case constants.MoneroCommandAddRemoteNode:
		result.Errors = mergeFieldErrors(result.Errors, s.addRemoteNode(ctx, code, form, result)...)
	case constants.MoneroCommandAddAccount:
		result.Errors = mergeFieldErrors(result.Errors, s.addAccount(ctx, code, &form, result)...)
	case constants.MoneroCommandUploadWallet:
		result.Errors = mergeFieldErrors(result.Errors, s.uploadWallet(ctx, code, form, upload, result)...)
	case constants.MoneroCommandSave:
	default:
		result.Errors = append(result.Errors, validationError(FieldCommand, fmt.Sprintf("Unknown command: %s", command)))
	}
	result.Errors = mergeFieldErrors(result.Errors, form.Validate()...)

	if command == constants.MoneroCommandSave && !result.HasErrors() {
		updated, err := s.saveConfig(store.ID, code, form)
		if err != nil {
			return nil, err
		}
		result.Saved = true
		result.View = s.resolveView(ctx, updated, code)
		result.Message = fmt.Sprintf("%s settings updated successfully", code)
		return result, nil
	}

	result.View = overlayForm(s.resolveView(ctx, store, code), form)
	return result, nil
}

// saveConfig 在一次店铺更新中写入配置与禁用集合
func (s *MoneroStoreService) saveConfig(storeID, code string, form MoneroPaymentMethodForm) (*models.Store, error) {
	threshold, err := SettlementThresholdFromChoice(form.SettlementChoice, form.CustomSettlementThreshold)
	if err != nil {
		return nil, err
	}
	cfg := models.MoneroPaymentConfig{
		AccountIndex:                        form.AccountIndex,
		InvoiceSettledConfirmationThreshold: threshold,
		UseRemoteNode:                       form.UseRemoteNode,
		RemoteNodeProtocol:                  form.RemoteNodeProtocol,
		RemoteNodeAddress:                   form.RemoteNodeAddress,
		RemoteNodePort:                      form.RemoteNodePort,
	}
	paymentMethodID := models.MoneroPaymentMethodID(code)
	updated, err := s.storeRepo.UpdateBlob(storeID, func(blob *models.StoreBlob) error {
		if err := blob.SetPaymentMethodConfig(paymentMethodID, cfg); err != nil {
			return err
		}
		blob.SetExcluded(paymentMethodID, !form.Enabled)
		return nil
	})
	if err != nil {
		return nil, mapStoreRepoError(err)
	}
	return updated, nil
}

// addRemoteNode 让钱包切换到远程节点，不持久化表单
func (s *MoneroStoreService) addRemoteNode(ctx context.Context, code string, form MoneroPaymentMethodForm, result *MoneroCommandResult) []FieldError {
	if errs := withInputErrors(remoteNodeInputErrors(form.InputErrors), remoteNodeErrors(form)); len(errs) > 0 {
		return errs
	}
	client, ok := s.provider.WalletClient(code)
	if !ok {
		return []FieldError{{Code: FieldErrorRPCRejected, Message: "Could not set daemon: wallet rpc is not configured"}}
	}

	params := monero.DaemonParams{
		Address:    remoteNodeURI(form.RemoteNodeProtocol, form.RemoteNodeAddress, *form.RemoteNodePort),
		Trusted:    true,
		SSLSupport: constants.MoneroDaemonSSLSupportDisabled,
	}
	if err := client.SetDaemon(ctx, params); err != nil {
		logger.Warnw("monero_set_daemon_failed", "crypto_code", code, "address", params.Address, "error", err)
		return []FieldError{{
			Code:    FieldErrorRPCRejected,
			Message: fmt.Sprintf("Could not set daemon: %s", monero.RPCMessage(err)),
		}}
	}
	if err := s.provider.UpdateDaemon(ctx, code, params); err != nil {
		logger.Warnw("monero_update_daemon_client_failed", "crypto_code", code, "address", params.Address, "error", err)
	}
	result.Message = fmt.Sprintf("Remote node %s://%s:%d added successfully.",
		form.RemoteNodeProtocol, form.RemoteNodeAddress, *form.RemoteNodePort)
	return nil
}

func remoteNodeInputErrors(input []FieldError) []FieldError {
	var errs []FieldError
	for _, e := range input {
		switch e.Field {
		case FieldRemoteProtocol, FieldRemoteAddress, FieldRemotePort:
			errs = append(errs, e)
		}
	}
	return errs
}

// addAccount 创建钱包账户，新账户索引写回表单供后续保存
func (s *MoneroStoreService) addAccount(ctx context.Context, code string, form *MoneroPaymentMethodForm, result *MoneroCommandResult) []FieldError {
	accountErr := FieldError{
		Field:   FieldAccountIndex,
		Code:    FieldErrorAccountCreationFailed,
		Message: "Could not create a new account.",
	}
	client, ok := s.provider.WalletClient(code)
	if !ok {
		return []FieldError{accountErr}
	}
	created, err := client.CreateAccount(ctx, form.NewAccountLabel)
	if err != nil {
		logger.Warnw("monero_create_account_failed", "crypto_code", code, "error", err)
		return []FieldError{accountErr}
	}
	form.AccountIndex = created.AccountIndex
	result.Message = fmt.Sprintf("Account %d created.", created.AccountIndex)
	return nil
}

// uploadWallet 写入只读钱包文件并通知钱包 RPC 打开
// 三个文件的写入不是原子的，打开失败时不回滚已写入文件
func (s *MoneroStoreService) uploadWallet(ctx context.Context, code string, form MoneroPaymentMethodForm, upload WalletUploadInput, result *MoneroCommandResult) []FieldError {
	var errs []FieldError
	if upload.WalletFile == nil {
		errs = append(errs, FieldError{Field: FieldWalletFile, Code: FieldErrorMissingFile, Message: "Please select the view-only wallet file"})
	}
	if upload.WalletKeysFile == nil {
		errs = append(errs, FieldError{Field: FieldWalletKeysFile, Code: FieldErrorMissingFile, Message: "Please select the view-only wallet keys file"})
	}
	if len(errs) > 0 {
		return errs
	}

	if summary, ok := s.provider.Summary(ctx, code); ok && summary.WalletAvailable {
		return []FieldError{{
			Field:   FieldWalletFile,
			Code:    FieldErrorWalletAlreadyActive,
			Message: fmt.Sprintf("There is already an active wallet configured for %s. Replacing it would break any existing invoices!", code),
		}}
	}

	if s.files == nil {
		return []FieldError{{Field: FieldWalletFile, Code: FieldErrorWalletWriteFailed, Message: "Wallet file storage is not configured"}}
	}
	chain, _ := s.provider.ChainConfig(code)
	artifacts := []struct {
		name string
		body io.Reader
	}{
		{name: constants.MoneroWalletFileName, body: upload.WalletFile},
		{name: constants.MoneroWalletKeysFileName, body: upload.WalletKeysFile},
		{name: constants.MoneroWalletPasswordFile, body: strings.NewReader(form.WalletPassword)},
	}
	for _, artifact := range artifacts {
		if err := s.files.Write(chain.WalletDirectory, artifact.name, artifact.body); err != nil {
			logger.Errorw("monero_wallet_file_write_failed", "crypto_code", code, "file", artifact.name, "error", err)
			return []FieldError{{
				Field:   FieldWalletFile,
				Code:    FieldErrorWalletWriteFailed,
				Message: fmt.Sprintf("Could not write the wallet file %s: %v", artifact.name, err),
			}}
		}
	}

	client, ok := s.provider.WalletClient(code)
	if !ok {
		return []FieldError{{Field: FieldWalletFile, Code: FieldErrorWalletOpenFailed, Message: "Could not open the wallet: wallet rpc is not configured"}}
	}
	if err := client.OpenWallet(ctx, constants.MoneroWalletFileName, form.WalletPassword); err != nil {
		logger.Warnw("monero_open_wallet_failed", "crypto_code", code, "error", err)
		return []FieldError{{
			Field:   FieldWalletFile,
			Code:    FieldErrorWalletOpenFailed,
			Message: fmt.Sprintf("Could not open the wallet: %s", monero.RPCMessage(err)),
		}}
	}

	if s.queueClient != nil {
		payload := queue.MoneroSummaryRefreshPayload{CryptoCode: code}
		if err := s.queueClient.EnqueueMoneroSummaryRefresh(payload, s.uploadRefreshDelay); err != nil {
			logger.Warnw("monero_summary_refresh_enqueue_failed", "crypto_code", code, "error", err)
		}
	}
	result.Message = "View-only wallet files uploaded. The wallet will soon become available."
	return nil
}

func remoteNodeURI(protocol, address string, port int) string {
	return (&url.URL{Scheme: protocol, Host: net.JoinHostPort(address, strconv.Itoa(port))}).String()
}
