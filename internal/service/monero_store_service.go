package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/xmrpay-next/internal/constants"
	"github.com/xmrpay-next/internal/logger"
	"github.com/xmrpay-next/internal/models"
	"github.com/xmrpay-next/internal/monero"
	"github.com/xmrpay-next/internal/repository"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// MoneroStoreService 店铺 Monero 类支付方式配置服务
type MoneroStoreService struct {
	storeRepo          repository.StoreRepository
	provider           MoneroRPCProvider
	files              WalletFileSink
	queueClient        MoneroSummaryQueue
	uploadRefreshDelay time.Duration
}

// NewMoneroStoreService 创建服务
func NewMoneroStoreService(storeRepo repository.StoreRepository, provider MoneroRPCProvider, files WalletFileSink, queueClient MoneroSummaryQueue, uploadRefreshDelay time.Duration) *MoneroStoreService {
	return &MoneroStoreService{
		storeRepo:          storeRepo,
		provider:           provider,
		files:              files,
		queueClient:        queueClient,
		uploadRefreshDelay: uploadRefreshDelay,
	}
}

// CreateStoreInput 创建店铺输入
type CreateStoreInput struct {
	ID   string `json:"id"`
	Name string `json:"name" binding:"required"`
}

// CreateStore 创建店铺，未指定 ID 时自动生成
func (s *MoneroStoreService) CreateStore(input CreateStoreInput) (*models.Store, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrStoreInvalid)
	}
	id := strings.TrimSpace(input.ID)
	if id == "" {
		id = uuid.New().String()
	}
	if len(id) > 64 {
		return nil, fmt.Errorf("%w: id too long", ErrStoreInvalid)
	}
	existing, err := s.storeRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, fmt.Errorf("%w: id %s already exists", ErrStoreInvalid, id)
	}
	store := &models.Store{ID: id, Name: name}
	if err := s.storeRepo.Create(store); err != nil {
		return nil, err
	}
	return store, nil
}

// GetStore 获取店铺
func (s *MoneroStoreService) GetStore(storeID string) (*models.Store, error) {
	store, err := s.storeRepo.GetByID(storeID)
	if err != nil {
		return nil, err
	}
	if store == nil {
		return nil, ErrStoreNotFound
	}
	return store, nil
}

// GetPaymentMethods 并发解析所有已配置币种的视图，按币种代码排序
func (s *MoneroStoreService) GetPaymentMethods(ctx context.Context, storeID string) ([]MoneroPaymentMethodView, error) {
	store, err := s.GetStore(storeID)
	if err != nil {
		return nil, err
	}
	codes := s.provider.CryptoCodes()
	views := make([]MoneroPaymentMethodView, len(codes))
	g, gctx := errgroup.WithContext(ctx)
	for i, code := range codes {
		g.Go(func() error {
			views[i] = s.resolveView(gctx, store, code)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return views, nil
}

// GetPaymentMethod 解析单个币种的视图
func (s *MoneroStoreService) GetPaymentMethod(ctx context.Context, storeID, cryptoCode string) (*MoneroPaymentMethodView, error) {
	code, err := s.requireCryptoCode(cryptoCode)
	if err != nil {
		return nil, err
	}
	store, err := s.GetStore(storeID)
	if err != nil {
		return nil, err
	}
	view := s.resolveView(ctx, store, code)
	return &view, nil
}

func (s *MoneroStoreService) requireCryptoCode(cryptoCode string) (string, error) {
	code := strings.ToUpper(strings.TrimSpace(cryptoCode))
	if _, ok := s.provider.ChainConfig(code); !ok {
		return "", fmt.Errorf("%w: %s", ErrMoneroCryptoCodeNotFound, code)
	}
	return code, nil
}

// resolveView 读取持久化配置与钱包状态后解析视图
// 单个币种的配置无法解码时按未配置处理，不影响其他币种
func (s *MoneroStoreService) resolveView(ctx context.Context, store *models.Store, code string) MoneroPaymentMethodView {
	cfg, err := loadMoneroConfig(store, code)
	if err != nil {
		logger.Warnw("monero_payment_config_decode_failed", "store_id", store.ID, "crypto_code", code, "error", err)
		cfg = nil
	}
	summary, _ := s.provider.Summary(ctx, code)
	walletFileFound := false
	if chain, ok := s.provider.ChainConfig(code); ok && s.files != nil {
		walletFileFound = s.files.Exists(chain.WalletDirectory, constants.MoneroWalletFileName)
	}
	return ResolveMoneroPaymentMethodView(MoneroResolveInput{
		CryptoCode:      code,
		Config:          cfg,
		Summary:         summary,
		Accounts:        s.fetchAccounts(ctx, code, summary),
		Exclusions:      NewExclusionSet(store.Blob.ExcludedSet()),
		WalletFileFound: walletFileFound,
	})
}

// fetchAccounts 读路径尽力获取账户列表，任何 RPC 失败都降级为无数据
func (s *MoneroStoreService) fetchAccounts(ctx context.Context, code string, summary *monero.Summary) *monero.GetAccountsResult {
	if summary == nil || !summary.WalletAvailable {
		return nil
	}
	client, ok := s.provider.WalletClient(code)
	if !ok {
		return nil
	}
	accounts, err := client.GetAccounts(ctx)
	if err != nil {
		if monero.IsRPCError(err) || monero.IsTransportError(err) {
			logger.Debugw("monero_get_accounts_unavailable", "crypto_code", code, "error", err)
		} else {
			logger.Warnw("monero_get_accounts_failed", "crypto_code", code, "error", err)
		}
		return nil
	}
	return accounts
}

func loadMoneroConfig(store *models.Store, code string) (*models.MoneroPaymentConfig, error) {
	if store == nil {
		return nil, nil
	}
	var cfg models.MoneroPaymentConfig
	found, err := store.Blob.GetPaymentMethodConfig(models.MoneroPaymentMethodID(code), &cfg)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, nil
	}
	return &cfg, nil
}

func mapStoreRepoError(err error) error {
	if errors.Is(err, repository.ErrStoreNotFound) {
		return ErrStoreNotFound
	}
	return err
}
