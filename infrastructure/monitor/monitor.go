package monitor

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Monitor Prometheus监控指标收集器
type Monitor struct {
	registry *prometheus.Registry

	// 订单指标
	ordersPlaced  prometheus.Counter
	ordersFilled  prometheus.Counter
	ordersExpired prometheus.Counter

	// 交易指标
	tradesTotal  prometheus.Counter
	tradedVolume prometheus.Counter

	// 仓位指标
	position      prometheus.Gauge
	avgPrice      prometheus.Gauge
	unrealizedPnL prometheus.Gauge
	realizedPnL   prometheus.Gauge

	// 市场指标
	midPrice   prometheus.Gauge
	spread     prometheus.Gauge
	volatility prometheus.Gauge
	imbalance  prometheus.Gauge

	// 风控指标
	riskRejects   prometheus.Counter
	positionLimit prometheus.Gauge

	// 引擎指标
	ticksTotal      prometheus.Counter
	tickErrors      prometheus.Counter
	quotesGenerated prometheus.Counter
	openOrders      prometheus.Gauge
	tickDuration    prometheus.Histogram
}

// Config 监控配置
type Config struct {
	Namespace string `yaml:"namespace"`
	Subsystem string `yaml:"subsystem"`
}

// DefaultConfig 返回默认配置
func DefaultConfig() Config {
	return Config{
		Namespace: "sim",
		Subsystem: "engine",
	}
}

// New 创建新的Monitor实例
func New(cfg Config) *Monitor {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	m := &Monitor{
		registry: reg,

		ordersPlaced: factory.NewCounter(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "orders_placed_total",
			Help:      "订单下单总数",
		}),
		ordersFilled: factory.NewCounter(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "orders_filled_total",
			Help:      "订单成交总数",
		}),
		ordersExpired: factory.NewCounter(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "orders_expired_total",
			Help:      "订单过期总数",
		}),

		tradesTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "trades_total",
			Help:      "成交笔数总数",
		}),
		tradedVolume: factory.NewCounter(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "traded_volume_total",
			Help:      "累计成交量",
		}),

		position: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "position",
			Help:      "当前净仓位",
		}),
		avgPrice: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "avg_price",
			Help:      "持仓均价",
		}),
		unrealizedPnL: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "unrealized_pnl",
			Help:      "未实现盈亏",
		}),
		realizedPnL: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "realized_pnl",
			Help:      "已实现盈亏",
		}),

		midPrice: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "mid_price",
			Help:      "当前中间价",
		}),
		spread: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "spread",
			Help:      "当前价差",
		}),
		volatility: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "volatility",
			Help:      "GARCH波动率估计",
		}),
		imbalance: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "book_imbalance",
			Help:      "盘口不平衡度[-1,1]",
		}),

		riskRejects: factory.NewCounter(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "risk_rejects_total",
			Help:      "风控拒单总数",
		}),
		positionLimit: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "position_limit",
			Help:      "仓位限制",
		}),

		ticksTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "ticks_total",
			Help:      "引擎tick总数",
		}),
		tickErrors: factory.NewCounter(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "tick_errors_total",
			Help:      "tick处理错误总数",
		}),
		quotesGenerated: factory.NewCounter(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "quotes_generated_total",
			Help:      "策略生成报价总数",
		}),
		openOrders: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "open_orders",
			Help:      "当前挂单数",
		}),
		tickDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "tick_duration_seconds",
			Help:      "单个tick处理耗时分布（秒）",
			Buckets:   []float64{0.00001, 0.00005, 0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05},
		}),
	}

	return m
}

// 订单相关方法
func (m *Monitor) RecordOrderPlaced() {
	m.ordersPlaced.Inc()
}

func (m *Monitor) RecordOrderFilled() {
	m.ordersFilled.Inc()
}

func (m *Monitor) RecordOrderExpired() {
	m.ordersExpired.Inc()
}

// 交易相关方法
func (m *Monitor) RecordTrade(volume float64) {
	m.tradesTotal.Inc()
	m.tradedVolume.Add(volume)
}

// 仓位相关方法
func (m *Monitor) UpdatePosition(value float64) {
	m.position.Set(value)
}

func (m *Monitor) UpdateAvgPrice(value float64) {
	m.avgPrice.Set(value)
}

func (m *Monitor) UpdateUnrealizedPnL(value float64) {
	m.unrealizedPnL.Set(value)
}

func (m *Monitor) UpdateRealizedPnL(value float64) {
	m.realizedPnL.Set(value)
}

// 市场相关方法
func (m *Monitor) UpdateMidPrice(value float64) {
	m.midPrice.Set(value)
}

func (m *Monitor) UpdateSpread(value float64) {
	m.spread.Set(value)
}

func (m *Monitor) UpdateVolatility(value float64) {
	m.volatility.Set(value)
}

func (m *Monitor) UpdateImbalance(value float64) {
	m.imbalance.Set(value)
}

// 风控相关方法
func (m *Monitor) RecordRiskReject() {
	m.riskRejects.Inc()
}

func (m *Monitor) UpdatePositionLimit(value float64) {
	m.positionLimit.Set(value)
}

// 引擎相关方法
func (m *Monitor) RecordTick() {
	m.ticksTotal.Inc()
}

func (m *Monitor) RecordTickError() {
	m.tickErrors.Inc()
}

func (m *Monitor) RecordQuoteGenerated() {
	m.quotesGenerated.Inc()
}

func (m *Monitor) UpdateOpenOrders(count int) {
	m.openOrders.Set(float64(count))
}

func (m *Monitor) RecordTickDuration(seconds float64) {
	m.tickDuration.Observe(seconds)
}

// Handler 返回HTTP handler用于暴露指标
func (m *Monitor) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry 返回prometheus registry
func (m *Monitor) Registry() *prometheus.Registry {
	return m.registry
}
