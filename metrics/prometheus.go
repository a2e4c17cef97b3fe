package metrics

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// FundVault Metrics Collector
// Provides comprehensive metrics for monitoring

var (
	// Singleton collector
	collector     *Collector
	collectorOnce sync.Once
)

// Collector holds all FundVault metrics
type Collector struct {
	// Deposit metrics
	DepositsTotal  *prometheus.CounterVec
	DepositValue   *prometheus.CounterVec
	SharesMinted   *prometheus.CounterVec
	DepositLatency *prometheus.HistogramVec

	// Withdrawal metrics
	WithdrawalsTotal     *prometheus.CounterVec
	WithdrawalValue      *prometheus.CounterVec
	WithdrawalQueueDepth prometheus.Gauge
	WithdrawalQueueValue prometheus.Gauge
	WithdrawalWaitTime   *prometheus.HistogramVec

	// Fee metrics
	FeeCollectionsTotal *prometheus.CounterVec
	ManagementFees      *prometheus.CounterVec
	PerformanceFees     *prometheus.CounterVec
	HighWaterMark       prometheus.Gauge

	// Vault state metrics
	AUM             prometheus.Gauge
	CustodyBalance  prometheus.Gauge
	SharePrice      prometheus.Gauge
	LockedShares    prometheus.Gauge
	VaultPaused     prometheus.Gauge
	DepositsEnabled prometheus.Gauge

	// WebSocket metrics
	WSConnectionsActive *prometheus.GaugeVec
	WSMessagesTotal     *prometheus.CounterVec
	WSMessageLatency    *prometheus.HistogramVec
	WSSubscriptions     *prometheus.GaugeVec

	// API metrics
	APIRequestsTotal  *prometheus.CounterVec
	APIRequestLatency *prometheus.HistogramVec
	APIErrorsTotal    *prometheus.CounterVec
	RateLimitHits     *prometheus.CounterVec

	// System metrics
	ActiveUsers prometheus.Gauge
	BlockHeight prometheus.Gauge
	BlockTime   *prometheus.HistogramVec
	TxPoolSize  prometheus.Gauge
	PeerCount   prometheus.Gauge
}

// GetCollector returns the singleton metrics collector
func GetCollector() *Collector {
	collectorOnce.Do(func() {
		collector = newCollector()
	})
	return collector
}

// newCollector creates a new metrics collector
func newCollector() *Collector {
	c := &Collector{}

	// Deposit metrics
	c.DepositsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "fundvault",
			Subsystem: "deposits",
			Name:      "total",
			Help:      "Total number of deposits",
		},
		[]string{"status"},
	)

	c.DepositValue = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "fundvault",
			Subsystem: "deposits",
			Name:      "value_usdc",
			Help:      "Total deposit value in USDC",
		},
		[]string{},
	)

	c.SharesMinted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "fundvault",
			Subsystem: "deposits",
			Name:      "shares_minted",
			Help:      "Total shares minted for deposits",
		},
		[]string{},
	)

	c.DepositLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "fundvault",
			Subsystem: "deposits",
			Name:      "latency_ms",
			Help:      "Deposit processing latency in milliseconds",
			Buckets:   []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000},
		},
		[]string{},
	)

	// Withdrawal metrics
	c.WithdrawalsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "fundvault",
			Subsystem: "withdrawals",
			Name:      "total",
			Help:      "Total withdrawal transitions by phase",
		},
		[]string{"phase"},
	)

	c.WithdrawalValue = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "fundvault",
			Subsystem: "withdrawals",
			Name:      "value_usdc",
			Help:      "Total withdrawal value paid out in USDC",
		},
		[]string{},
	)

	c.WithdrawalQueueDepth = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "fundvault",
			Subsystem: "withdrawals",
			Name:      "queue_depth",
			Help:      "Number of pending withdrawal requests",
		},
	)

	c.WithdrawalQueueValue = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "fundvault",
			Subsystem: "withdrawals",
			Name:      "queue_value_usdc",
			Help:      "Frozen settlement value of pending withdrawal requests",
		},
	)

	c.WithdrawalWaitTime = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "fundvault",
			Subsystem: "withdrawals",
			Name:      "wait_time_seconds",
			Help:      "Time from withdrawal request to approval in seconds",
			Buckets:   []float64{3600, 21600, 43200, 86400, 172800, 345600, 604800},
		},
		[]string{},
	)

	// Fee metrics
	c.FeeCollectionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "fundvault",
			Subsystem: "fees",
			Name:      "collections_total",
			Help:      "Total fee collection attempts by outcome",
		},
		[]string{"outcome"},
	)

	c.ManagementFees = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "fundvault",
			Subsystem: "fees",
			Name:      "management_usdc",
			Help:      "Total management fees collected in USDC",
		},
		[]string{},
	)

	c.PerformanceFees = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "fundvault",
			Subsystem: "fees",
			Name:      "performance_usdc",
			Help:      "Total performance fees collected in USDC",
		},
		[]string{},
	)

	c.HighWaterMark = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "fundvault",
			Subsystem: "fees",
			Name:      "high_water_mark_usdc",
			Help:      "Performance fee high-water mark in USDC",
		},
	)

	// Vault state metrics
	c.AUM = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "fundvault",
			Subsystem: "vault",
			Name:      "aum_usdc",
			Help:      "Assets under management in USDC",
		},
	)

	c.CustodyBalance = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "fundvault",
			Subsystem: "vault",
			Name:      "custody_usdc",
			Help:      "Settlement balance held by the vault account",
		},
	)

	c.SharePrice = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "fundvault",
			Subsystem: "vault",
			Name:      "share_price",
			Help:      "Administered share price (6 decimal fixed point)",
		},
	)

	c.LockedShares = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "fundvault",
			Subsystem: "vault",
			Name:      "locked_shares",
			Help:      "Shares escrowed by pending withdrawal requests",
		},
	)

	c.VaultPaused = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "fundvault",
			Subsystem: "vault",
			Name:      "paused",
			Help:      "Whether the vault is paused (0 or 1)",
		},
	)

	c.DepositsEnabled = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "fundvault",
			Subsystem: "vault",
			Name:      "deposits_enabled",
			Help:      "Whether deposits are enabled (0 or 1)",
		},
	)

	// WebSocket metrics
	c.WSConnectionsActive = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "fundvault",
			Subsystem: "websocket",
			Name:      "connections_active",
			Help:      "Number of active WebSocket connections",
		},
		[]string{},
	)

	c.WSMessagesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "fundvault",
			Subsystem: "websocket",
			Name:      "messages_total",
			Help:      "Total WebSocket messages sent",
		},
		[]string{"channel"},
	)

	c.WSMessageLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "fundvault",
			Subsystem: "websocket",
			Name:      "message_latency_ms",
			Help:      "WebSocket message latency in milliseconds",
			Buckets:   []float64{1, 5, 10, 25, 50, 100},
		},
		[]string{"channel"},
	)

	c.WSSubscriptions = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "fundvault",
			Subsystem: "websocket",
			Name:      "subscriptions",
			Help:      "Number of active subscriptions per channel",
		},
		[]string{"channel"},
	)

	// API metrics
	c.APIRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "fundvault",
			Subsystem: "api",
			Name:      "requests_total",
			Help:      "Total API requests",
		},
		[]string{"method", "path", "status"},
	)

	c.APIRequestLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "fundvault",
			Subsystem: "api",
			Name:      "request_latency_ms",
			Help:      "API request latency in milliseconds",
			Buckets:   []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000},
		},
		[]string{"method", "path"},
	)

	c.APIErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "fundvault",
			Subsystem: "api",
			Name:      "errors_total",
			Help:      "Total API errors",
		},
		[]string{"method", "path", "error_type"},
	)

	c.RateLimitHits = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "fundvault",
			Subsystem: "api",
			Name:      "rate_limit_hits",
			Help:      "Total rate limit hits",
		},
		[]string{"limit_type"},
	)

	// System metrics
	c.ActiveUsers = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "fundvault",
			Subsystem: "system",
			Name:      "active_users",
			Help:      "Number of active users",
		},
	)

	c.BlockHeight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "fundvault",
			Subsystem: "system",
			Name:      "block_height",
			Help:      "Current block height",
		},
	)

	c.BlockTime = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "fundvault",
			Subsystem: "system",
			Name:      "block_time_ms",
			Help:      "Block time in milliseconds",
			Buckets:   []float64{100, 250, 500, 1000, 2000, 5000},
		},
		[]string{},
	)

	c.TxPoolSize = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "fundvault",
			Subsystem: "system",
			Name:      "tx_pool_size",
			Help:      "Transaction pool size",
		},
	)

	c.PeerCount = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "fundvault",
			Subsystem: "system",
			Name:      "peer_count",
			Help:      "Number of connected peers",
		},
	)

	// Register all metrics
	c.registerAll()

	return c
}

// registerAll registers all metrics with Prometheus
func (c *Collector) registerAll() {
	// Deposit metrics
	prometheus.MustRegister(c.DepositsTotal)
	prometheus.MustRegister(c.DepositValue)
	prometheus.MustRegister(c.SharesMinted)
	prometheus.MustRegister(c.DepositLatency)

	// Withdrawal metrics
	prometheus.MustRegister(c.WithdrawalsTotal)
	prometheus.MustRegister(c.WithdrawalValue)
	prometheus.MustRegister(c.WithdrawalQueueDepth)
	prometheus.MustRegister(c.WithdrawalQueueValue)
	prometheus.MustRegister(c.WithdrawalWaitTime)

	// Fee metrics
	prometheus.MustRegister(c.FeeCollectionsTotal)
	prometheus.MustRegister(c.ManagementFees)
	prometheus.MustRegister(c.PerformanceFees)
	prometheus.MustRegister(c.HighWaterMark)

	// Vault state metrics
	prometheus.MustRegister(c.AUM)
	prometheus.MustRegister(c.CustodyBalance)
	prometheus.MustRegister(c.SharePrice)
	prometheus.MustRegister(c.LockedShares)
	prometheus.MustRegister(c.VaultPaused)
	prometheus.MustRegister(c.DepositsEnabled)

	// WebSocket metrics
	prometheus.MustRegister(c.WSConnectionsActive)
	prometheus.MustRegister(c.WSMessagesTotal)
	prometheus.MustRegister(c.WSMessageLatency)
	prometheus.MustRegister(c.WSSubscriptions)

	// API metrics
	prometheus.MustRegister(c.APIRequestsTotal)
	prometheus.MustRegister(c.APIRequestLatency)
	prometheus.MustRegister(c.APIErrorsTotal)
	prometheus.MustRegister(c.RateLimitHits)

	// System metrics
	prometheus.MustRegister(c.ActiveUsers)
	prometheus.MustRegister(c.BlockHeight)
	prometheus.MustRegister(c.BlockTime)
	prometheus.MustRegister(c.TxPoolSize)
	prometheus.MustRegister(c.PeerCount)
}

// ============ Recording Helpers ============

// RecordDeposit records a deposit event
func (c *Collector) RecordDeposit(status string, valueUsdc, shares float64) {
	c.DepositsTotal.WithLabelValues(status).Inc()
	if status == "accepted" {
		c.DepositValue.WithLabelValues().Add(valueUsdc)
		c.SharesMinted.WithLabelValues().Add(shares)
	}
}

// RecordDepositLatency records deposit processing latency
func (c *Collector) RecordDepositLatency(latencyMs float64) {
	c.DepositLatency.WithLabelValues().Observe(latencyMs)
}

// RecordWithdrawalPhase records a withdrawal lifecycle transition
func (c *Collector) RecordWithdrawalPhase(phase string) {
	c.WithdrawalsTotal.WithLabelValues(phase).Inc()
}

// RecordWithdrawalPayout records a completed withdrawal payout
func (c *Collector) RecordWithdrawalPayout(valueUsdc float64) {
	c.WithdrawalsTotal.WithLabelValues("processed").Inc()
	c.WithdrawalValue.WithLabelValues().Add(valueUsdc)
}

// RecordWithdrawalWait records the request-to-approval wait time
func (c *Collector) RecordWithdrawalWait(seconds float64) {
	c.WithdrawalWaitTime.WithLabelValues().Observe(seconds)
}

// UpdateWithdrawalQueue updates the pending queue gauges
func (c *Collector) UpdateWithdrawalQueue(depth int, valueUsdc float64) {
	c.WithdrawalQueueDepth.Set(float64(depth))
	c.WithdrawalQueueValue.Set(valueUsdc)
}

// RecordFeeCollection records a fee collection attempt
func (c *Collector) RecordFeeCollection(outcome string, managementUsdc, performanceUsdc float64) {
	c.FeeCollectionsTotal.WithLabelValues(outcome).Inc()
	if outcome == "collected" {
		c.ManagementFees.WithLabelValues().Add(managementUsdc)
		c.PerformanceFees.WithLabelValues().Add(performanceUsdc)
	}
}

// UpdateVaultState updates the vault accounting gauges
func (c *Collector) UpdateVaultState(aum, custody, sharePrice, highWaterMark, lockedShares float64, paused, depositsEnabled bool) {
	c.AUM.Set(aum)
	c.CustodyBalance.Set(custody)
	c.SharePrice.Set(sharePrice)
	c.HighWaterMark.Set(highWaterMark)
	c.LockedShares.Set(lockedShares)
	c.VaultPaused.Set(boolGauge(paused))
	c.DepositsEnabled.Set(boolGauge(depositsEnabled))
}

// RecordAPIRequest records an API request
func (c *Collector) RecordAPIRequest(method, path, status string, latencyMs float64) {
	c.APIRequestsTotal.WithLabelValues(method, path, status).Inc()
	c.APIRequestLatency.WithLabelValues(method, path).Observe(latencyMs)
}

// RecordWSConnection records WebSocket connection changes
func (c *Collector) RecordWSConnection(delta int) {
	c.WSConnectionsActive.WithLabelValues().Add(float64(delta))
}

// RecordWSMessage records a WebSocket message
func (c *Collector) RecordWSMessage(channel string, latencyMs float64) {
	c.WSMessagesTotal.WithLabelValues(channel).Inc()
	c.WSMessageLatency.WithLabelValues(channel).Observe(latencyMs)
}

// UpdateSystemMetrics updates system-level metrics
func (c *Collector) UpdateSystemMetrics(blockHeight int64, txPoolSize int, peerCount int) {
	c.BlockHeight.Set(float64(blockHeight))
	c.TxPoolSize.Set(float64(txPoolSize))
	c.PeerCount.Set(float64(peerCount))
}

func boolGauge(v bool) float64 {
	if v {
		return 1
	}
	return 0
}

// ============ HTTP Handler ============

// Handler returns the Prometheus HTTP handler
func Handler() http.Handler {
	return promhttp.Handler()
}

// Timer is a helper for measuring latency
type Timer struct {
	start time.Time
}

// NewTimer creates a new timer
func NewTimer() *Timer {
	return &Timer{start: time.Now()}
}

// ElapsedMs returns the elapsed time in milliseconds
func (t *Timer) ElapsedMs() float64 {
	return float64(time.Since(t.start).Microseconds()) / 1000.0
}
