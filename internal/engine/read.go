package engine

import (
	"market-sim-go/inventory"
	"market-sim-go/market"
	"market-sim-go/order"
	"market-sim-go/posttrade"
)

// StatusInfo 轻量轮询用的状态摘要。
type StatusInfo struct {
	Running    bool
	Symbol     string
	LastPrice  float64
	TradeCount int
	PnL        float64 // 已实现+未实现
}

// BookView 盘口视图
type BookView struct {
	Bids   []market.Level
	Asks   []market.Level
	Spread float64
}

// Snapshot 面向外部读取方的一致性视图。启动前各字段为零值。
type Snapshot struct {
	Symbol        string
	State         string
	LastPrice     float64
	BidPrice      float64
	AskPrice      float64
	Spread        float64
	Volume        int64
	Volatility    float64
	Imbalance     float64
	Position      float64
	AvgPrice      float64
	RealizedPnL   float64
	UnrealizedPnL float64
	TotalPnL      float64
	Balance       float64
	TradeCount    int
	OpenOrders    int
	Bids          []market.Level
	Asks          []market.Level
	RecentTrades  []inventory.Trade // 最近RecentTradeCount笔
	PriceChart    []float64         // 固定ChartPoints个点，不足时前向补齐
	PnLChart      []float64
	VolChart      []float64
	SpreadChart   []float64
	VolumeChart   []float64
}

// Status 返回当前状态名。
func (e *SimEngine) Status() string {
	return e.GetState().String()
}

// StatusInfo 返回轮询摘要。
func (e *SimEngine) StatusInfo() StatusInfo {
	e.mu.RLock()
	last := e.lastSnap.LastPrice
	running := e.state == StateRunning
	e.mu.RUnlock()

	ls := e.ledger.State()
	return StatusInfo{
		Running:    running,
		Symbol:     e.config.Symbol,
		LastPrice:  last,
		TradeCount: ls.TradeCount,
		PnL:        ls.RealizedPnL + e.ledger.Unrealized(last),
	}
}

// Snapshot 汇总行情、仓位、盘口、成交与图表序列。
func (e *SimEngine) Snapshot() Snapshot {
	e.mu.RLock()
	snap := e.lastSnap
	vol := e.lastVol
	imb := e.lastImb
	priceChart := e.priceHist.Window(ChartPoints)
	pnlChart := e.pnlHist.Window(ChartPoints)
	volChart := e.volHist.Window(ChartPoints)
	spreadChart := e.spreadHist.Window(ChartPoints)
	volumeChart := e.volumeHist.Window(ChartPoints)
	state := e.state
	e.mu.RUnlock()

	ls := e.ledger.State()
	unreal := e.ledger.Unrealized(snap.LastPrice)

	bids := make([]market.Level, len(snap.Bids))
	asks := make([]market.Level, len(snap.Asks))
	copy(bids, snap.Bids)
	copy(asks, snap.Asks)

	return Snapshot{
		Symbol:        e.config.Symbol,
		State:         state.String(),
		LastPrice:     snap.LastPrice,
		BidPrice:      snap.BidPrice,
		AskPrice:      snap.AskPrice,
		Spread:        snap.Spread(),
		Volume:        snap.Volume,
		Volatility:    vol,
		Imbalance:     imb,
		Position:      ls.Position,
		AvgPrice:      ls.AvgPrice,
		RealizedPnL:   ls.RealizedPnL,
		UnrealizedPnL: unreal,
		TotalPnL:      ls.RealizedPnL + unreal,
		Balance:       ls.Balance,
		TradeCount:    ls.TradeCount,
		OpenOrders:    e.book.OpenCount(),
		Bids:          bids,
		Asks:          asks,
		RecentTrades:  e.ledger.Trades(RecentTradeCount),
		PriceChart:    priceChart,
		PnLChart:      pnlChart,
		VolChart:      volChart,
		SpreadChart:   spreadChart,
		VolumeChart:   volumeChart,
	}
}

// OrderBook 返回最近一帧的盘口档位和价差。
func (e *SimEngine) OrderBook() BookView {
	e.mu.RLock()
	snap := e.lastSnap
	e.mu.RUnlock()

	bids := make([]market.Level, len(snap.Bids))
	asks := make([]market.Level, len(snap.Asks))
	copy(bids, snap.Bids)
	copy(asks, snap.Asks)
	return BookView{Bids: bids, Asks: asks, Spread: snap.Spread()}
}

// OpenOrders 返回当前挂单的副本。
func (e *SimEngine) OpenOrders() []order.Resting {
	return e.book.Open()
}

// Trades 返回最近n笔成交。
func (e *SimEngine) Trades(n int) []inventory.Trade {
	return e.ledger.Trades(n)
}

// Performance 计算当前绩效统计。P&L样本不足两个时返回零值。
func (e *SimEngine) Performance() posttrade.Stats {
	e.mu.RLock()
	pnl := e.pnlHist.Values()
	last := e.lastSnap.LastPrice
	vol := e.lastVol
	e.mu.RUnlock()

	return e.aggregator.Compute(posttrade.Inputs{
		PnLHistory: pnl,
		Trades:     e.ledger.Trades(0),
		State:      e.ledger.State(),
		Unrealized: e.ledger.Unrealized(last),
		Volatility: vol,
		VaR:        e.gate.ValueAtRisk(0.95),
		OpenOrders: e.book.OpenCount(),
	})
}
