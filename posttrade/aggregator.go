// Package posttrade derives rolling performance statistics from the
// ledger and the P&L history.
package posttrade

import (
	"math"

	"market-sim-go/inventory"
)

// Stats 一次性能统计结果。
type Stats struct {
	TotalPnL      float64
	RealizedPnL   float64
	UnrealizedPnL float64
	TradeCount    int
	WinRate       float64 // [0, 100]
	Position      float64
	AvgPrice      float64
	SharpeRatio   float64
	MaxDrawdown   float64 // <= 0
	Volatility    float64
	VaR           float64
	OpenOrders    int
}

// Inputs 聚合所需的只读输入。
type Inputs struct {
	PnLHistory []float64 // oldest first
	Trades     []inventory.Trade
	State      inventory.PositionState
	Unrealized float64
	Volatility float64
	VaR        float64
	OpenOrders int
}

// Aggregator computes the performance statistics bundle.
type Aggregator struct {
	stdFloor      float64 // lower bound on return stddev in the sharpe ratio
	annualization float64 // periods per year, sqrt-scaled into the ratio
}

// NewAggregator builds an aggregator with the standard floors.
func NewAggregator() *Aggregator {
	return &Aggregator{stdFloor: 0.001, annualization: 252}
}

// Compute returns the stats bundle for the inputs. With fewer than two
// P&L samples it returns the zero Stats, never an error.
func (a *Aggregator) Compute(in Inputs) Stats {
	if len(in.PnLHistory) < 2 {
		return Stats{}
	}

	// 相邻 P&L 差分，按前值绝对额归一（下限 1 防爆）。
	returns := make([]float64, 0, len(in.PnLHistory)-1)
	for i := 1; i < len(in.PnLHistory); i++ {
		denom := math.Abs(in.PnLHistory[i-1])
		if denom < 1 {
			denom = 1
		}
		returns = append(returns, (in.PnLHistory[i]-in.PnLHistory[i-1])/denom)
	}

	wins := 0
	for _, tr := range in.Trades {
		// 近似胜率：卖价高于或买价低于滚动均价即记为赢，
		// 不做逐笔归因。
		if (tr.Side == "SELL" && tr.Price > in.State.AvgPrice) ||
			(tr.Side == "BUY" && tr.Price < in.State.AvgPrice) {
			wins++
		}
	}
	total := len(in.Trades)
	winRate := float64(wins) / math.Max(float64(total), 1) * 100

	return Stats{
		TotalPnL:      in.State.RealizedPnL + in.Unrealized,
		RealizedPnL:   in.State.RealizedPnL,
		UnrealizedPnL: in.Unrealized,
		TradeCount:    in.State.TradeCount,
		WinRate:       winRate,
		Position:      in.State.Position,
		AvgPrice:      in.State.AvgPrice,
		SharpeRatio:   a.sharpe(returns),
		MaxDrawdown:   maxDrawdown(in.PnLHistory),
		Volatility:    in.Volatility,
		VaR:           in.VaR,
		OpenOrders:    in.OpenOrders,
	}
}

// sharpe 年化的类 Sharpe 比率；标准差设下限避免除零爆表。
func (a *Aggregator) sharpe(returns []float64) float64 {
	if len(returns) < 2 {
		return 0
	}
	mean := 0.0
	for _, r := range returns {
		mean += r
	}
	mean /= float64(len(returns))

	variance := 0.0
	for _, r := range returns {
		d := r - mean
		variance += d * d
	}
	std := math.Sqrt(variance / float64(len(returns)))
	if std < a.stdFloor {
		std = a.stdFloor
	}
	return mean / std * math.Sqrt(a.annualization)
}

// maxDrawdown 返回相对运行峰值的最大回撤（非正数）。
func maxDrawdown(pnl []float64) float64 {
	if len(pnl) < 2 {
		return 0
	}
	peak := pnl[0]
	worst := 0.0
	for _, v := range pnl {
		if v > peak {
			peak = v
		}
		denom := peak
		if denom < 1 {
			denom = 1
		}
		dd := (v - peak) / denom
		if dd < worst {
			worst = dd
		}
	}
	return worst
}
