package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/xmrpay-next/internal/monero"
	"github.com/xmrpay-next/internal/queue"

	"github.com/hibiken/asynq"
)

type fakeRefresher struct {
	mu    sync.Mutex
	codes []string
	err   error
}

func (f *fakeRefresher) RefreshSummary(_ context.Context, cryptoCode string) (*monero.Summary, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.codes = append(f.codes, cryptoCode)
	if f.err != nil {
		return nil, f.err
	}
	return &monero.Summary{CryptoCode: cryptoCode, WalletAvailable: true}, nil
}

func TestHandleMoneroSummaryRefresh(t *testing.T) {
	refresher := &fakeRefresher{}
	consumer := &Consumer{refresher: refresher}

	task, err := queue.NewMoneroSummaryRefreshTask(queue.MoneroSummaryRefreshPayload{CryptoCode: "xmr"})
	if err != nil {
		t.Fatalf("new task failed: %v", err)
	}
	if err := consumer.handleMoneroSummaryRefresh(context.Background(), task); err != nil {
		t.Fatalf("handle task failed: %v", err)
	}
	if len(refresher.codes) != 1 || refresher.codes[0] != "XMR" {
		t.Fatalf("unexpected refresh calls: %v", refresher.codes)
	}
}

func TestHandleMoneroSummaryRefreshErrors(t *testing.T) {
	invalid := asynq.NewTask(queue.TaskMoneroSummaryRefresh, []byte(`{"crypto_code":" "}`))
	consumer := &Consumer{refresher: &fakeRefresher{}}
	if err := consumer.handleMoneroSummaryRefresh(context.Background(), invalid); !errors.Is(err, asynq.SkipRetry) {
		t.Fatalf("invalid payload should skip retry, got %v", err)
	}

	task, _ := queue.NewMoneroSummaryRefreshTask(queue.MoneroSummaryRefreshPayload{CryptoCode: "XMR"})
	unknown := &Consumer{refresher: &fakeRefresher{err: fmt.Errorf("%w: XMR", monero.ErrUnknownCryptoCode)}}
	if err := unknown.handleMoneroSummaryRefresh(context.Background(), task); err != nil {
		t.Fatalf("unknown code should be skipped, got %v", err)
	}

	failing := &Consumer{refresher: &fakeRefresher{err: errors.New("boom")}}
	if err := failing.handleMoneroSummaryRefresh(context.Background(), task); err == nil {
		t.Fatalf("refresh failure should be returned for retry")
	}

	if err := (&Consumer{}).handleMoneroSummaryRefresh(context.Background(), task); err != nil {
		t.Fatalf("missing provider should be skipped, got %v", err)
	}
}

type countingRefreshAll struct {
	calls atomic.Int32
}

func (c *countingRefreshAll) RefreshAll(context.Context) {
	c.calls.Add(1)
}

func TestSummaryRefreshServiceLoop(t *testing.T) {
	refresher := &countingRefreshAll{}
	svc, err := NewSummaryRefreshService(refresher, 10*time.Millisecond)
	if err != nil {
		t.Fatalf("new service failed: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- svc.Start(ctx) }()

	deadline := time.After(2 * time.Second)
	for refresher.calls.Load() < 3 {
		select {
		case <-deadline:
			t.Fatalf("expected periodic refreshes, got %d", refresher.calls.Load())
		case <-time.After(5 * time.Millisecond):
		}
	}
	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("loop should exit cleanly, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("loop did not exit after cancel")
	}
}

func TestNewServiceRequiresQueue(t *testing.T) {
	if _, err := NewService(nil, &Consumer{}); err == nil {
		t.Fatalf("expected error for disabled queue")
	}
	if _, err := NewSummaryRefreshService(nil, time.Second); err == nil {
		t.Fatalf("expected error for nil refresher")
	}
}
