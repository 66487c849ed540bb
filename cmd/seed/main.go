package main

import (
	"errors"
	"flag"
	"strings"

	"github.com/xmrpay-next/internal/config"
	"github.com/xmrpay-next/internal/logger"
	"github.com/xmrpay-next/internal/models"
	"github.com/xmrpay-next/internal/repository"
	"github.com/xmrpay-next/internal/service"
)

func main() {
	var (
		storeID     string
		storeName   string
		cryptoCode  string
		account     int64
		choice      string
		custom      int64
		disabled    bool
		remoteProto string
		remoteAddr  string
		remotePort  int
	)
	flag.StringVar(&storeID, "id", "", "店铺 ID，留空自动生成")
	flag.StringVar(&storeName, "name", "Demo Store", "店铺名称")
	flag.StringVar(&cryptoCode, "crypto", "", "同时写入该币种的支付配置，例如 XMR")
	flag.Int64Var(&account, "account", 0, "收款账户索引")
	flag.StringVar(&choice, "threshold", "", "结算确认策略: store_speed_policy/zero_confirmation/at_least_one/at_least_ten/custom")
	flag.Int64Var(&custom, "custom", 0, "自定义确认数（threshold=custom 时生效）")
	flag.BoolVar(&disabled, "disabled", false, "写入配置但保持禁用")
	flag.StringVar(&remoteProto, "remote-protocol", "", "远程节点协议 http/https")
	flag.StringVar(&remoteAddr, "remote-address", "", "远程节点地址")
	flag.IntVar(&remotePort, "remote-port", 0, "远程节点端口")
	flag.Parse()

	// 连接数据库
	cfg := config.Load()
	logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	stdLog := logger.StdLogger()
	if err := models.InitDB(cfg.Database); err != nil {
		stdLog.Fatalf("Failed to connect database: %v", err)
	}

	storeRepo := repository.NewStoreRepository(models.DB)
	storeService := service.NewMoneroStoreService(storeRepo, nil, nil, nil, 0)

	store, err := storeService.GetStore(strings.TrimSpace(storeID))
	switch {
	case err == nil:
		stdLog.Printf("Store already exists: %s", store.ID)
	case errors.Is(err, service.ErrStoreNotFound):
		store, err = storeService.CreateStore(service.CreateStoreInput{ID: storeID, Name: storeName})
		if err != nil {
			stdLog.Fatalf("Failed to create store: %v", err)
		}
		stdLog.Printf("Created store: %s (%s)", store.ID, store.Name)
	default:
		stdLog.Fatalf("Failed to load store: %v", err)
	}

	code := strings.ToUpper(strings.TrimSpace(cryptoCode))
	if code == "" {
		return
	}

	// 与后台保存走同一套校验
	form := service.MoneroPaymentMethodForm{
		Enabled:            !disabled,
		AccountIndex:       account,
		SettlementChoice:   service.SettlementChoice(choice),
		UseRemoteNode:      remoteAddr != "",
		RemoteNodeProtocol: remoteProto,
		RemoteNodeAddress:  remoteAddr,
	}
	if remotePort > 0 {
		form.RemoteNodePort = &remotePort
	}
	if strings.EqualFold(strings.TrimSpace(choice), string(service.SettlementChoiceCustom)) {
		form.CustomSettlementThreshold = &custom
	}
	form.Normalize()
	if errs := form.Validate(); len(errs) > 0 {
		for _, e := range errs {
			stdLog.Printf("Invalid %s: %s", e.Field, e.Message)
		}
		stdLog.Fatalf("Refusing to write invalid %s configuration", code)
	}
	threshold, err := service.SettlementThresholdFromChoice(form.SettlementChoice, form.CustomSettlementThreshold)
	if err != nil {
		stdLog.Fatalf("Invalid settlement threshold: %v", err)
	}

	paymentMethodID := models.MoneroPaymentMethodID(code)
	_, err = storeRepo.UpdateBlob(store.ID, func(blob *models.StoreBlob) error {
		if err := blob.SetPaymentMethodConfig(paymentMethodID, models.MoneroPaymentConfig{
			AccountIndex:                        form.AccountIndex,
			InvoiceSettledConfirmationThreshold: threshold,
			UseRemoteNode:                       form.UseRemoteNode,
			RemoteNodeProtocol:                  form.RemoteNodeProtocol,
			RemoteNodeAddress:                   form.RemoteNodeAddress,
			RemoteNodePort:                      form.RemoteNodePort,
		}); err != nil {
			return err
		}
		blob.SetExcluded(paymentMethodID, disabled)
		return nil
	})
	if err != nil {
		stdLog.Fatalf("Failed to write %s configuration: %v", paymentMethodID, err)
	}
	stdLog.Printf("Configured %s for store %s (enabled=%v)", paymentMethodID, store.ID, !disabled)
}
