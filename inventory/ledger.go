package inventory

import (
	"math/rand"
	"sync"

	"market-sim-go/risk"
)

// Config 账本配置。
//
// 价差捕获项（SpreadCapture*）是对真实排队/成交机制缺失的刻意简化：
// 大多数报价打平、少数盈利、少数亏损，用一个小的随机抽样近似，
// 并非真实盈利来源。与确定性的平仓盈亏分开开关，测试时可关闭归零。
type Config struct {
	SpreadCaptureEnabled bool
	SpreadCaptureMin     float64 // 每单位最小抽样
	SpreadCaptureMax     float64 // 每单位最大抽样
	TradeHistoryCap      int     // 成交历史容量
	InitialBalance       float64
}

// DefaultConfig returns simulation defaults.
func DefaultConfig() Config {
	return Config{
		SpreadCaptureEnabled: true,
		SpreadCaptureMin:     0.02,
		SpreadCaptureMax:     0.08,
		TradeHistoryCap:      10000,
		InitialBalance:       1_000_000,
	}
}

// PositionState is a consistent read of the ledger tuple.
type PositionState struct {
	Position    float64
	AvgPrice    float64
	RealizedPnL float64
	Balance     float64
	TradeCount  int
}

// Ledger owns position, volume-weighted average entry price, realized P&L
// and the trade history. Execute is its only mutator; all readers take a
// consistent view of the tuple.
type Ledger struct {
	mu    sync.RWMutex
	cfg   Config
	rng   *rand.Rand
	clock risk.Clock

	position float64
	avgPrice float64
	realized float64
	balance  float64

	trades     []Trade
	tradeCount int
}

// NewLedger builds a ledger. rng drives the spread-capture draw and must be
// seeded by the caller; it may be nil when spread capture is disabled.
func NewLedger(cfg Config, rng *rand.Rand) *Ledger {
	if cfg.TradeHistoryCap <= 0 {
		cfg.TradeHistoryCap = 10000
	}
	if cfg.SpreadCaptureMax < cfg.SpreadCaptureMin {
		cfg.SpreadCaptureMax = cfg.SpreadCaptureMin
	}
	return &Ledger{
		cfg:     cfg,
		rng:     rng,
		clock:   risk.NowUTC,
		balance: cfg.InitialBalance,
	}
}

// SetClock overrides the timestamp source (tests).
func (l *Ledger) SetClock(c risk.Clock) { l.clock = c }

// Execute applies one fill and appends the resulting trade.
//
// A fill that reduces opposite-sign inventory realizes the deterministic
// cover P&L and leaves the average price untouched; a fill that extends the
// position recomputes the VWAP entry price and realizes only the stochastic
// spread-capture draw.
func (l *Ledger) Execute(side string, price, qty float64, orderID string) Trade {
	l.mu.Lock()
	defer l.mu.Unlock()

	capture := l.spreadCaptureLocked(qty)
	var pnl float64

	switch side {
	case "BUY":
		if l.position < 0 {
			coverQty := qty
			if short := -l.position; coverQty > short {
				coverQty = short
			}
			pnl = coverQty*(l.avgPrice-price) + capture
			l.position += qty
		} else {
			totalCost := l.position*l.avgPrice + qty*price
			l.position += qty
			if l.position > 0 {
				l.avgPrice = totalCost / l.position
			}
			pnl = capture
		}
		l.balance -= price * qty
	default: // SELL
		if l.position > 0 {
			sellQty := qty
			if sellQty > l.position {
				sellQty = l.position
			}
			pnl = sellQty*(price-l.avgPrice) + capture
			l.position -= qty
		} else {
			totalCost := -l.position*l.avgPrice + qty*price
			l.position -= qty
			if l.position < 0 {
				l.avgPrice = totalCost / -l.position
			}
			pnl = capture
		}
		l.balance += price * qty
	}
	l.realized += pnl

	trade := Trade{
		Timestamp: l.clock.Now(),
		Side:      side,
		Price:     price,
		Qty:       qty,
		OrderID:   orderID,
		PnL:       pnl,
	}
	l.trades = append(l.trades, trade)
	if len(l.trades) > l.cfg.TradeHistoryCap {
		l.trades = l.trades[len(l.trades)-l.cfg.TradeHistoryCap:]
	}
	l.tradeCount++
	return trade
}

func (l *Ledger) spreadCaptureLocked(qty float64) float64 {
	if !l.cfg.SpreadCaptureEnabled || l.rng == nil {
		return 0
	}
	span := l.cfg.SpreadCaptureMax - l.cfg.SpreadCaptureMin
	return qty * (l.cfg.SpreadCaptureMin + l.rng.Float64()*span)
}

// State 返回仓位三元组的一致性读取。
func (l *Ledger) State() PositionState {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return PositionState{
		Position:    l.position,
		AvgPrice:    l.avgPrice,
		RealizedPnL: l.realized,
		Balance:     l.balance,
		TradeCount:  l.tradeCount,
	}
}

// Position returns the signed net quantity.
func (l *Ledger) Position() float64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.position
}

// Unrealized 以最新价计算持仓浮盈亏。
func (l *Ledger) Unrealized(lastPrice float64) float64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.position == 0 || l.avgPrice <= 0 {
		return 0
	}
	return l.position * (lastPrice - l.avgPrice)
}

// Trades returns the last n trades, oldest first (copy).
func (l *Ledger) Trades(n int) []Trade {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if n <= 0 || n > len(l.trades) {
		n = len(l.trades)
	}
	out := make([]Trade, n)
	copy(out, l.trades[len(l.trades)-n:])
	return out
}

// Reset 清空仓位、盈亏和成交历史，回到初始资金。
func (l *Ledger) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.position = 0
	l.avgPrice = 0
	l.realized = 0
	l.balance = l.cfg.InitialBalance
	l.trades = nil
	l.tradeCount = 0
}
