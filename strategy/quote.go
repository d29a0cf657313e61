package strategy

import (
	"errors"
	"math"
	"sync"

	"market-sim-go/market"
)

// Quote 一侧报价。
type Quote struct {
	Side  string // BUY / SELL
	Price float64
	Size  float64
}

// Config 报价引擎配置。
type Config struct {
	BaseSpread     float64 // 基础价差（绝对价格）
	TickSize       float64 // 最小报价单位
	MinProfit      float64 // 双边报价的最小利润间隔
	SkewFactor     float64 // 库存倾斜因子（每单位仓位）
	MaxOrderSize   float64 // 基础下单数量
	VolSpreadScale float64 // 波动率加宽系数
	ImbSpreadScale float64 // 盘口失衡加宽系数
	VolSizeScale   float64 // 波动率缩量系数
	MinVolFactor   float64 // 波动率缩量下限
	PosSizeScale   float64 // 仓位缩量分母
	MinPosFactor   float64 // 仓位缩量下限
}

// DefaultConfig returns NSE-flavoured defaults.
func DefaultConfig() Config {
	return Config{
		BaseSpread:     0.05,
		TickSize:       0.05,
		MinProfit:      0.10,
		SkewFactor:     0.0005,
		MaxOrderSize:   50,
		VolSpreadScale: 1000,
		ImbSpreadScale: 0.02,
		VolSizeScale:   100,
		MinVolFactor:   0.5,
		PosSizeScale:   1000,
		MinPosFactor:   0.3,
	}
}

// Gate rejects proposed position changes; satisfied by *risk.Gate.
type Gate interface {
	WithinLimits(position, delta float64) bool
}

// QuoteEngine turns a snapshot plus indicators into a bid/ask quote pair.
// It never returns an error: degenerate inputs resolve to "no quote".
type QuoteEngine struct {
	mu   sync.RWMutex
	cfg  Config
	gate Gate
}

// NewQuoteEngine validates the config and builds an engine.
func NewQuoteEngine(cfg Config, gate Gate) (*QuoteEngine, error) {
	if err := validate(cfg); err != nil {
		return nil, err
	}
	if gate == nil {
		return nil, errors.New("strategy: risk gate is required")
	}
	return &QuoteEngine{cfg: cfg, gate: gate}, nil
}

func validate(cfg Config) error {
	if cfg.TickSize <= 0 {
		return errors.New("strategy: tick size must be > 0")
	}
	if cfg.BaseSpread < 0 || cfg.MinProfit < 0 {
		return errors.New("strategy: spreads must be >= 0")
	}
	if cfg.MaxOrderSize < 1 {
		return errors.New("strategy: max order size must be >= 1")
	}
	if cfg.MinVolFactor <= 0 || cfg.MinPosFactor <= 0 {
		return errors.New("strategy: size factors must be > 0")
	}
	if cfg.PosSizeScale <= 0 {
		return errors.New("strategy: position size scale must be > 0")
	}
	return nil
}

// Quote 根据快照、波动率、盘口失衡与当前仓位生成双边报价。
// 任一方向触发风控即放弃两侧（返回 nil, nil）。
func (e *QuoteEngine) Quote(snap market.Snapshot, vol, imbalance, position float64) (*Quote, *Quote) {
	e.mu.RLock()
	cfg := e.cfg
	e.mu.RUnlock()

	mid := snap.Mid()
	if mid <= 0 {
		return nil, nil
	}

	// 价差：基础 + 波动率项 + 失衡项 + 库存项，下限一个 tick。
	spread := cfg.BaseSpread +
		vol*cfg.VolSpreadScale +
		math.Abs(imbalance)*cfg.ImbSpreadScale +
		math.Abs(position)*cfg.SkewFactor
	if spread < cfg.TickSize {
		spread = cfg.TickSize
	}

	// 库存倾斜：持多时整体下移报价促进卖出，持空时相反。
	skew := position * cfg.SkewFactor
	bid := market.RoundToTick(mid-spread/2-skew, cfg.TickSize)
	ask := market.RoundToTick(mid+spread/2-skew, cfg.TickSize)

	if gap := ask - bid; gap < cfg.MinProfit {
		adj := (cfg.MinProfit - gap) / 2
		bid = market.RoundToTick(bid-adj, cfg.TickSize)
		ask = market.RoundToTick(ask+adj, cfg.TickSize)
	}
	// 取整可能各吃掉半个 tick，再按 tick 对称外推补足。
	for ask-bid < cfg.MinProfit-1e-9 {
		bid -= cfg.TickSize
		ask += cfg.TickSize
	}

	// 数量随波动率和仓位单调收缩，均有下限，最少 1 单位。
	volFactor := math.Max(cfg.MinVolFactor, 1-vol*cfg.VolSizeScale)
	posFactor := math.Max(cfg.MinPosFactor, 1-math.Abs(position)/cfg.PosSizeScale)
	size := math.Floor(cfg.MaxOrderSize * volFactor * posFactor)
	if size < 1 {
		size = 1
	}

	if !e.gate.WithinLimits(position, size) || !e.gate.WithinLimits(position, -size) {
		return nil, nil
	}

	return &Quote{Side: "BUY", Price: bid, Size: size},
		&Quote{Side: "SELL", Price: ask, Size: size}
}

// Config returns the current parameters.
func (e *QuoteEngine) Config() Config {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.cfg
}

// SetConfig 应用新参数（热更新路径），非法配置拒绝并保留旧值。
func (e *QuoteEngine) SetConfig(cfg Config) error {
	if err := validate(cfg); err != nil {
		return err
	}
	e.mu.Lock()
	e.cfg = cfg
	e.mu.Unlock()
	return nil
}
