package service

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/xmrpay-next/internal/models"
	"github.com/xmrpay-next/internal/monero"
	"github.com/xmrpay-next/internal/queue"
	"github.com/xmrpay-next/internal/repository"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

type fakeWallet struct {
	mu             sync.Mutex
	accounts       *monero.GetAccountsResult
	accountsErr    error
	accountsHook   func(ctx context.Context)
	createResult   *monero.CreateAccountResult
	createErr      error
	createdLabels  []string
	setDaemonErr   error
	daemonParams   []monero.DaemonParams
	openErr        error
	openedFiles    []string
	openedPassword []string
}

func (w *fakeWallet) GetAccounts(ctx context.Context) (*monero.GetAccountsResult, error) {
	if w.accountsHook != nil {
		w.accountsHook(ctx)
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.accountsErr != nil {
		return nil, w.accountsErr
	}
	return w.accounts, nil
}

func (w *fakeWallet) CreateAccount(ctx context.Context, label string) (*monero.CreateAccountResult, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.createdLabels = append(w.createdLabels, label)
	if w.createErr != nil {
		return nil, w.createErr
	}
	return w.createResult, nil
}

func (w *fakeWallet) SetDaemon(ctx context.Context, params monero.DaemonParams) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.daemonParams = append(w.daemonParams, params)
	return w.setDaemonErr
}

func (w *fakeWallet) OpenWallet(ctx context.Context, filename, password string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.openedFiles = append(w.openedFiles, filename)
	w.openedPassword = append(w.openedPassword, password)
	return w.openErr
}

func (w *fakeWallet) GetHeight(ctx context.Context) (*monero.GetHeightResult, error) {
	return &monero.GetHeightResult{Height: 1}, nil
}

type fakeProvider struct {
	mu            sync.Mutex
	chains        map[string]monero.ChainConfig
	wallets       map[string]*fakeWallet
	summaries     map[string]*monero.Summary
	updatedDaemon []monero.DaemonParams
}

func newFakeProvider(codes ...string) *fakeProvider {
	p := &fakeProvider{
		chains:    map[string]monero.ChainConfig{},
		wallets:   map[string]*fakeWallet{},
		summaries: map[string]*monero.Summary{},
	}
	for _, code := range codes {
		p.chains[code] = monero.ChainConfig{CryptoCode: code, WalletDirectory: "/wallets/" + code}
		p.wallets[code] = &fakeWallet{}
	}
	return p
}

func (p *fakeProvider) CryptoCodes() []string {
	codes := make([]string, 0, len(p.chains))
	for code := range p.chains {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

func (p *fakeProvider) ChainConfig(cryptoCode string) (monero.ChainConfig, bool) {
	chain, ok := p.chains[cryptoCode]
	return chain, ok
}

func (p *fakeProvider) WalletClient(cryptoCode string) (monero.WalletRPC, bool) {
	wallet, ok := p.wallets[cryptoCode]
	if !ok {
		return nil, false
	}
	return wallet, true
}

func (p *fakeProvider) Summary(ctx context.Context, cryptoCode string) (*monero.Summary, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	summary, ok := p.summaries[cryptoCode]
	return summary, ok
}

func (p *fakeProvider) UpdateDaemon(ctx context.Context, cryptoCode string, params monero.DaemonParams) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.updatedDaemon = append(p.updatedDaemon, params)
	return nil
}

func (p *fakeProvider) setWalletAvailable(code string, available bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.summaries[code] = &monero.Summary{CryptoCode: code, WalletAvailable: available}
}

type memoryFileSink struct {
	mu       sync.Mutex
	files    map[string][]byte
	writeErr error
}

func newMemoryFileSink() *memoryFileSink {
	return &memoryFileSink{files: map[string][]byte{}}
}

func (s *memoryFileSink) Exists(dir, name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.files[dir+"/"+name]
	return ok
}

func (s *memoryFileSink) Write(dir, name string, src io.Reader) error {
	if s.writeErr != nil {
		return s.writeErr
	}
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, src); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.files[dir+"/"+name] = buf.Bytes()
	return nil
}

func (s *memoryFileSink) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.files)
}

type recordingQueue struct {
	mu       sync.Mutex
	payloads []queue.MoneroSummaryRefreshPayload
	delays   []time.Duration
}

func (q *recordingQueue) EnqueueMoneroSummaryRefresh(payload queue.MoneroSummaryRefreshPayload, delay time.Duration) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.payloads = append(q.payloads, payload)
	q.delays = append(q.delays, delay)
	return nil
}

type moneroServiceFixture struct {
	service  *MoneroStoreService
	repo     *repository.GormStoreRepository
	provider *fakeProvider
	files    *memoryFileSink
	queue    *recordingQueue
}

func setupMoneroStoreServiceTest(t *testing.T, codes ...string) *moneroServiceFixture {
	t.Helper()
	dsn := fmt.Sprintf("file:monero_store_service_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(&models.Store{}); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	if len(codes) == 0 {
		codes = []string{"XMR"}
	}
	fixture := &moneroServiceFixture{
		repo:     repository.NewStoreRepository(db),
		provider: newFakeProvider(codes...),
		files:    newMemoryFileSink(),
		queue:    &recordingQueue{},
	}
	fixture.service = NewMoneroStoreService(fixture.repo, fixture.provider, fixture.files, fixture.queue, 5*time.Second)
	if _, err := fixture.service.CreateStore(CreateStoreInput{ID: "store-1", Name: "Demo"}); err != nil {
		t.Fatalf("create store failed: %v", err)
	}
	return fixture
}

func (f *moneroServiceFixture) persistConfig(t *testing.T, code string, cfg models.MoneroPaymentConfig, excluded bool) {
	t.Helper()
	id := models.MoneroPaymentMethodID(code)
	if _, err := f.repo.UpdateBlob("store-1", func(blob *models.StoreBlob) error {
		blob.SetExcluded(id, excluded)
		return blob.SetPaymentMethodConfig(id, cfg)
	}); err != nil {
		t.Fatalf("persist config failed: %v", err)
	}
}

func (f *moneroServiceFixture) storedBlob(t *testing.T) models.StoreBlob {
	t.Helper()
	store, err := f.repo.GetByID("store-1")
	if err != nil || store == nil {
		t.Fatalf("load store failed: %v", err)
	}
	return store.Blob
}

func intPtr(v int) *int {
	return &v
}
