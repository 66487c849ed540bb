package service

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/xmrpay-next/internal/constants"
	"github.com/xmrpay-next/internal/models"
	"github.com/xmrpay-next/internal/monero"
)

func TestApplySaveRejectsIncompleteRemoteNode(t *testing.T) {
	f := setupMoneroStoreServiceTest(t, "XMR")
	before := f.storedBlob(t)

	result, err := f.service.ApplyCommand(context.Background(), "store-1", "XMR", "", MoneroPaymentMethodForm{
		Enabled:           true,
		UseRemoteNode:     true,
		RemoteNodeAddress: "",
		RemoteNodePort:    nil,
	}, WalletUploadInput{})
	if err != nil {
		t.Fatalf("apply command failed: %v", err)
	}
	if len(result.Errors) != 2 {
		t.Fatalf("want exactly 2 errors got %+v", result.Errors)
	}
	fields := map[string]bool{}
	for _, fieldErr := range result.Errors {
		if fieldErr.Code != FieldErrorValidation {
			t.Fatalf("unexpected error code: %+v", fieldErr)
		}
		fields[fieldErr.Field] = true
	}
	if !fields[FieldRemoteAddress] || !fields[FieldRemotePort] {
		t.Fatalf("expected address and port errors, got %+v", result.Errors)
	}
	if result.Saved {
		t.Fatalf("invalid form must not be saved")
	}
	if !result.View.Enabled || !result.View.UseRemoteNode {
		t.Fatalf("view should echo the submitted form: %+v", result.View)
	}
	if after := f.storedBlob(t); !reflect.DeepEqual(after, before) {
		t.Fatalf("store blob changed: before=%+v after=%+v", before, after)
	}
}

func TestApplySavePersistsConfigAndExclusion(t *testing.T) {
	f := setupMoneroStoreServiceTest(t, "XMR")
	custom := int64(5)

	result, err := f.service.ApplyCommand(context.Background(), "store-1", "xmr", constants.MoneroCommandSave, MoneroPaymentMethodForm{
		Enabled:                   false,
		AccountIndex:              2,
		SettlementChoice:          SettlementChoiceCustom,
		CustomSettlementThreshold: &custom,
		UseRemoteNode:             true,
		RemoteNodeAddress:         "node.example.com",
		RemoteNodePort:            intPtr(18081),
	}, WalletUploadInput{})
	if err != nil {
		t.Fatalf("apply command failed: %v", err)
	}
	if !result.Saved || result.HasErrors() {
		t.Fatalf("expected saved result, got %+v", result)
	}
	if result.Message != "XMR settings updated successfully" {
		t.Fatalf("unexpected message: %s", result.Message)
	}
	if result.View.Enabled || !result.View.Configured {
		t.Fatalf("excluded config should resolve disabled: %+v", result.View)
	}

	blob := f.storedBlob(t)
	var cfg models.MoneroPaymentConfig
	found, err := blob.GetPaymentMethodConfig("XMR-CHAIN", &cfg)
	if err != nil || !found {
		t.Fatalf("config not persisted: found=%v err=%v", found, err)
	}
	if cfg.AccountIndex != 2 || cfg.InvoiceSettledConfirmationThreshold == nil || *cfg.InvoiceSettledConfirmationThreshold != 5 {
		t.Fatalf("unexpected persisted config: %+v", cfg)
	}
	if cfg.RemoteNodeProtocol != "http" || *cfg.RemoteNodePort != 18081 {
		t.Fatalf("unexpected remote node config: %+v", cfg)
	}
	if !reflect.DeepEqual(blob.ExcludedPaymentMethods, []string{"XMR-CHAIN"}) {
		t.Fatalf("unexpected exclusions: %v", blob.ExcludedPaymentMethods)
	}

	result, err = f.service.ApplyCommand(context.Background(), "store-1", "XMR", "save", MoneroPaymentMethodForm{
		Enabled:          true,
		SettlementChoice: SettlementChoiceAtLeastTen,
	}, WalletUploadInput{})
	if err != nil || !result.Saved {
		t.Fatalf("second save failed: %+v err=%v", result, err)
	}
	if !result.View.Enabled || result.View.SettlementChoice != SettlementChoiceAtLeastTen {
		t.Fatalf("unexpected view after enabling: %+v", result.View)
	}
	if blob := f.storedBlob(t); len(blob.ExcludedPaymentMethods) != 0 {
		t.Fatalf("enabling should remove the exclusion, got %v", blob.ExcludedPaymentMethods)
	}
}

func TestApplySaveCustomThresholdValidation(t *testing.T) {
	f := setupMoneroStoreServiceTest(t, "XMR")
	tooMany := int64(101)

	cases := []struct {
		name   string
		custom *int64
		want   string
	}{
		{name: "missing", custom: nil, want: "You must specify the number of required confirmations when using a custom threshold."},
		{name: "out_of_range", custom: &tooMany, want: "The custom confirmation threshold must be between 0 and 100."},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			result, err := f.service.ApplyCommand(context.Background(), "store-1", "XMR", "save", MoneroPaymentMethodForm{
				SettlementChoice:          SettlementChoiceCustom,
				CustomSettlementThreshold: tc.custom,
			}, WalletUploadInput{})
			if err != nil {
				t.Fatalf("apply command failed: %v", err)
			}
			if len(result.Errors) != 1 || result.Errors[0].Field != FieldCustomThreshold || result.Errors[0].Message != tc.want {
				t.Fatalf("unexpected errors: %+v", result.Errors)
			}
			if result.Saved {
				t.Fatalf("invalid form must not be saved")
			}
		})
	}
}

func TestApplyAddRemoteNodeRejectedLeavesConfig(t *testing.T) {
	f := setupMoneroStoreServiceTest(t, "XMR")
	threshold := int64(10)
	f.persistConfig(t, "XMR", models.MoneroPaymentConfig{AccountIndex: 1, InvoiceSettledConfirmationThreshold: &threshold}, false)
	before := f.storedBlob(t)
	f.provider.wallets["XMR"].setDaemonErr = &monero.RPCError{Code: -1, Message: "Failed to set daemon address"}

	result, err := f.service.ApplyCommand(context.Background(), "store-1", "XMR", constants.MoneroCommandAddRemoteNode, MoneroPaymentMethodForm{
		Enabled:           true,
		AccountIndex:      1,
		SettlementChoice:  SettlementChoiceAtLeastTen,
		UseRemoteNode:     true,
		RemoteNodeAddress: "bad.example.com",
		RemoteNodePort:    intPtr(18081),
	}, WalletUploadInput{})
	if err != nil {
		t.Fatalf("apply command failed: %v", err)
	}
	if len(result.Errors) != 1 {
		t.Fatalf("want a single error got %+v", result.Errors)
	}
	if result.Errors[0].Code != FieldErrorRPCRejected || !strings.Contains(result.Errors[0].Message, "Failed to set daemon address") {
		t.Fatalf("unexpected error: %+v", result.Errors[0])
	}
	if len(f.provider.updatedDaemon) != 0 {
		t.Fatalf("daemon client must not be swapped after rejection")
	}
	if after := f.storedBlob(t); !reflect.DeepEqual(after, before) {
		t.Fatalf("persisted config changed: before=%+v after=%+v", before, after)
	}
}

func TestApplyAddRemoteNodeSuccessDoesNotPersist(t *testing.T) {
	f := setupMoneroStoreServiceTest(t, "XMR")

	result, err := f.service.ApplyCommand(context.Background(), "store-1", "XMR", constants.MoneroCommandAddRemoteNode, MoneroPaymentMethodForm{
		RemoteNodeProtocol: "HTTPS",
		RemoteNodeAddress:  "node.example.com",
		RemoteNodePort:     intPtr(18089),
	}, WalletUploadInput{})
	if err != nil {
		t.Fatalf("apply command failed: %v", err)
	}
	if result.HasErrors() || result.Saved {
		t.Fatalf("unexpected result: %+v", result)
	}
	if result.Message != "Remote node https://node.example.com:18089 added successfully." {
		t.Fatalf("unexpected message: %s", result.Message)
	}
	wallet := f.provider.wallets["XMR"]
	if len(wallet.daemonParams) != 1 {
		t.Fatalf("set_daemon should be called once")
	}
	params := wallet.daemonParams[0]
	if params.Address != "https://node.example.com:18089" || !params.Trusted || params.SSLSupport != "disabled" || params.Username != "" {
		t.Fatalf("unexpected daemon params: %+v", params)
	}
	if len(f.provider.updatedDaemon) != 1 {
		t.Fatalf("provider daemon client should be refreshed")
	}
	if blob := f.storedBlob(t); len(blob.PaymentMethodConfigs) != 0 {
		t.Fatalf("add-remote-node must not persist the form, got %+v", blob)
	}
}

func TestApplyAddRemoteNodeRunsDespiteUnrelatedErrors(t *testing.T) {
	f := setupMoneroStoreServiceTest(t, "XMR")

	result, err := f.service.ApplyCommand(context.Background(), "store-1", "XMR", constants.MoneroCommandAddRemoteNode, MoneroPaymentMethodForm{
		SettlementChoice:  SettlementChoiceCustom,
		RemoteNodeAddress: "node.example.com",
		RemoteNodePort:    intPtr(18081),
	}, WalletUploadInput{})
	if err != nil {
		t.Fatalf("apply command failed: %v", err)
	}
	if len(f.provider.wallets["XMR"].daemonParams) != 1 {
		t.Fatalf("set_daemon should be attempted even with unrelated validation errors")
	}
	if len(result.Errors) != 1 || result.Errors[0].Field != FieldCustomThreshold {
		t.Fatalf("expected only the unrelated validation error, got %+v", result.Errors)
	}
}

func TestApplyAddRemoteNodeInvalidFieldsSkipsRPC(t *testing.T) {
	f := setupMoneroStoreServiceTest(t, "XMR")

	result, err := f.service.ApplyCommand(context.Background(), "store-1", "XMR", constants.MoneroCommandAddRemoteNode, MoneroPaymentMethodForm{
		UseRemoteNode:  true,
		RemoteNodePort: intPtr(70000),
	}, WalletUploadInput{})
	if err != nil {
		t.Fatalf("apply command failed: %v", err)
	}
	if len(f.provider.wallets["XMR"].daemonParams) != 0 {
		t.Fatalf("set_daemon must not be called with invalid fields")
	}
	if len(result.Errors) != 2 {
		t.Fatalf("errors should be de-duplicated across command and form validation, got %+v", result.Errors)
	}
}

func TestApplyAddAccount(t *testing.T) {
	f := setupMoneroStoreServiceTest(t, "XMR")
	wallet := f.provider.wallets["XMR"]
	wallet.createResult = &monero.CreateAccountResult{AccountIndex: 5, Address: "84abc"}

	result, err := f.service.ApplyCommand(context.Background(), "store-1", "XMR", constants.MoneroCommandAddAccount, MoneroPaymentMethodForm{
		NewAccountLabel: " Store 1 ",
	}, WalletUploadInput{})
	if err != nil {
		t.Fatalf("apply command failed: %v", err)
	}
	if result.HasErrors() || result.Saved {
		t.Fatalf("unexpected result: %+v", result)
	}
	if result.View.AccountIndex != 5 || result.View.NewAccountLabel != "Store 1" {
		t.Fatalf("new account should be carried into the view: %+v", result.View)
	}
	if len(wallet.createdLabels) != 1 || wallet.createdLabels[0] != "Store 1" {
		t.Fatalf("unexpected labels: %v", wallet.createdLabels)
	}
	if blob := f.storedBlob(t); len(blob.PaymentMethodConfigs) != 0 {
		t.Fatalf("add-account must not persist, got %+v", blob)
	}

	wallet.createErr = errors.New("boom")
	result, err = f.service.ApplyCommand(context.Background(), "store-1", "XMR", constants.MoneroCommandAddAccount, MoneroPaymentMethodForm{}, WalletUploadInput{})
	if err != nil {
		t.Fatalf("apply command failed: %v", err)
	}
	if len(result.Errors) != 1 || result.Errors[0].Code != FieldErrorAccountCreationFailed || result.Errors[0].Field != FieldAccountIndex {
		t.Fatalf("unexpected errors: %+v", result.Errors)
	}
}

func TestApplyUploadWalletAlreadyActive(t *testing.T) {
	f := setupMoneroStoreServiceTest(t, "XMR")
	f.provider.setWalletAvailable("XMR", true)

	result, err := f.service.ApplyCommand(context.Background(), "store-1", "XMR", constants.MoneroCommandUploadWallet, MoneroPaymentMethodForm{
		WalletPassword: "secret",
	}, WalletUploadInput{
		WalletFile:     strings.NewReader("wallet-bytes"),
		WalletKeysFile: strings.NewReader("keys-bytes"),
	})
	if err != nil {
		t.Fatalf("apply command failed: %v", err)
	}
	if len(result.Errors) != 1 || result.Errors[0].Code != FieldErrorWalletAlreadyActive {
		t.Fatalf("expected wallet_already_active, got %+v", result.Errors)
	}
	if !strings.Contains(result.Errors[0].Message, "XMR") {
		t.Fatalf("message should name the crypto code: %s", result.Errors[0].Message)
	}
	if f.files.count() != 0 {
		t.Fatalf("no files must be written")
	}
	if len(f.provider.wallets["XMR"].openedFiles) != 0 {
		t.Fatalf("open_wallet must not be called")
	}
}

func TestApplyUploadWalletMissingFiles(t *testing.T) {
	f := setupMoneroStoreServiceTest(t, "XMR")

	result, err := f.service.ApplyCommand(context.Background(), "store-1", "XMR", constants.MoneroCommandUploadWallet, MoneroPaymentMethodForm{}, WalletUploadInput{})
	if err != nil {
		t.Fatalf("apply command failed: %v", err)
	}
	if len(result.Errors) != 2 {
		t.Fatalf("expected one error per missing file, got %+v", result.Errors)
	}
	if result.Errors[0].Field != FieldWalletFile || result.Errors[1].Field != FieldWalletKeysFile || result.Errors[0].Code != FieldErrorMissingFile {
		t.Fatalf("unexpected errors: %+v", result.Errors)
	}
}

func TestApplyUploadWalletWritesAndOpens(t *testing.T) {
	f := setupMoneroStoreServiceTest(t, "XMR")

	result, err := f.service.ApplyCommand(context.Background(), "store-1", "XMR", constants.MoneroCommandUploadWallet, MoneroPaymentMethodForm{
		WalletPassword: "secret",
	}, WalletUploadInput{
		WalletFile:     strings.NewReader("wallet-bytes"),
		WalletKeysFile: strings.NewReader("keys-bytes"),
	})
	if err != nil {
		t.Fatalf("apply command failed: %v", err)
	}
	if result.HasErrors() {
		t.Fatalf("unexpected errors: %+v", result.Errors)
	}
	if result.Message != "View-only wallet files uploaded. The wallet will soon become available." {
		t.Fatalf("unexpected message: %s", result.Message)
	}
	if string(f.files.files["/wallets/XMR/wallet"]) != "wallet-bytes" ||
		string(f.files.files["/wallets/XMR/wallet.keys"]) != "keys-bytes" ||
		string(f.files.files["/wallets/XMR/password"]) != "secret" {
		t.Fatalf("unexpected files: %v", f.files.files)
	}
	wallet := f.provider.wallets["XMR"]
	if len(wallet.openedFiles) != 1 || wallet.openedFiles[0] != "wallet" || wallet.openedPassword[0] != "secret" {
		t.Fatalf("unexpected open_wallet calls: %v %v", wallet.openedFiles, wallet.openedPassword)
	}
	if len(f.queue.payloads) != 1 || f.queue.payloads[0].CryptoCode != "XMR" || f.queue.delays[0] != 5*time.Second {
		t.Fatalf("expected delayed summary refresh, got %+v %v", f.queue.payloads, f.queue.delays)
	}
	if !result.View.WalletFileFound {
		t.Fatalf("view should report the uploaded wallet file")
	}
}

func TestApplyUploadWalletOpenFailedKeepsFiles(t *testing.T) {
	f := setupMoneroStoreServiceTest(t, "XMR")
	f.provider.wallets["XMR"].openErr = &monero.RPCError{Code: -1, Message: "Invalid password"}

	result, err := f.service.ApplyCommand(context.Background(), "store-1", "XMR", constants.MoneroCommandUploadWallet, MoneroPaymentMethodForm{}, WalletUploadInput{
		WalletFile:     strings.NewReader("wallet-bytes"),
		WalletKeysFile: strings.NewReader("keys-bytes"),
	})
	if err != nil {
		t.Fatalf("apply command failed: %v", err)
	}
	if len(result.Errors) != 1 || result.Errors[0].Code != FieldErrorWalletOpenFailed {
		t.Fatalf("expected wallet_open_failed, got %+v", result.Errors)
	}
	if result.Errors[0].Message != "Could not open the wallet: Invalid password" {
		t.Fatalf("unexpected message: %s", result.Errors[0].Message)
	}
	if f.files.count() != 3 {
		t.Fatalf("written files should remain on disk, got %d", f.files.count())
	}
	if len(f.queue.payloads) != 0 {
		t.Fatalf("no refresh should be enqueued after a failed open")
	}
}

func TestApplyCommandInfrastructureErrors(t *testing.T) {
	f := setupMoneroStoreServiceTest(t, "XMR")
	if _, err := f.service.ApplyCommand(context.Background(), "store-1", "BTC", "save", MoneroPaymentMethodForm{}, WalletUploadInput{}); !errors.Is(err, ErrMoneroCryptoCodeNotFound) {
		t.Fatalf("expected ErrMoneroCryptoCodeNotFound, got %v", err)
	}
	if _, err := f.service.ApplyCommand(context.Background(), "nope", "XMR", "save", MoneroPaymentMethodForm{}, WalletUploadInput{}); !errors.Is(err, ErrStoreNotFound) {
		t.Fatalf("expected ErrStoreNotFound, got %v", err)
	}

	result, err := f.service.ApplyCommand(context.Background(), "store-1", "XMR", "rescan", MoneroPaymentMethodForm{}, WalletUploadInput{})
	if err != nil {
		t.Fatalf("apply command failed: %v", err)
	}
	if len(result.Errors) != 1 || result.Errors[0].Field != FieldCommand || result.Saved {
		t.Fatalf("unknown command should be reported, got %+v", result)
	}
}
