package metrics

import (
	"errors"
	"net/http"
	"time"

	"github.com/xmrpay-next/internal/monero"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// 调用结果标签
const (
	OutcomeOK        = "ok"
	OutcomeRPCError  = "rpc_error"
	OutcomeTransport = "transport_error"
	OutcomeOther     = "error"
)

// PromMetrics Monero RPC 相关指标
type PromMetrics struct {
	registry        *prometheus.Registry
	RPCCalls        *prometheus.CounterVec
	RPCDuration     *prometheus.HistogramVec
	WalletAvailable *prometheus.GaugeVec
	DaemonHeight    *prometheus.GaugeVec
}

// NewPromMetrics 创建独立 registry 的指标集合
func NewPromMetrics() *PromMetrics {
	reg := prometheus.NewRegistry()

	var (
		rpcLabels   = []string{"crypto_code", "method", "outcome"}
		chainLabels = []string{"crypto_code"}
	)

	m := &PromMetrics{
		registry: reg,
		RPCCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "xmrpay_monero_rpc_calls_total",
			Help: "Number of monero JSON-RPC calls by outcome",
		}, rpcLabels),
		RPCDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "xmrpay_monero_rpc_duration_seconds",
			Help:    "Latency of monero JSON-RPC calls",
			Buckets: prometheus.DefBuckets,
		}, rpcLabels),
		WalletAvailable: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "xmrpay_monero_wallet_available",
			Help: "Whether the wallet rpc answered the last summary refresh",
		}, chainLabels),
		DaemonHeight: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "xmrpay_monero_daemon_height",
			Help: "Daemon height reported by the last summary refresh",
		}, chainLabels),
	}

	reg.MustRegister(m.RPCCalls, m.RPCDuration, m.WalletAvailable, m.DaemonHeight)
	return m
}

// Registry 返回底层 registry
func (m *PromMetrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler 返回 /metrics 处理器
func (m *PromMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// ObserveRPC 实现 monero.CallObserver
func (m *PromMetrics) ObserveRPC(cryptoCode, method string, err error, elapsed time.Duration) {
	outcome := classify(err)
	m.RPCCalls.WithLabelValues(cryptoCode, method, outcome).Inc()
	m.RPCDuration.WithLabelValues(cryptoCode, method, outcome).Observe(elapsed.Seconds())
}

// ObserveSummary 实现 monero.SummaryObserver
func (m *PromMetrics) ObserveSummary(summary monero.Summary) {
	available := 0.0
	if summary.WalletAvailable {
		available = 1
	}
	m.WalletAvailable.WithLabelValues(summary.CryptoCode).Set(available)
	m.DaemonHeight.WithLabelValues(summary.CryptoCode).Set(float64(summary.DaemonHeight))
}

func classify(err error) string {
	switch {
	case err == nil:
		return OutcomeOK
	case monero.IsRPCError(err):
		return OutcomeRPCError
	case errors.Is(err, monero.ErrRequestFailed), errors.Is(err, monero.ErrResponseInvalid):
		return OutcomeTransport
	default:
		return OutcomeOther
	}
}
