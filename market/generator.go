package market

import (
	"errors"
	"math"
	"math/rand"
	"time"
)

// GeneratorConfig 合成行情生成器配置。
type GeneratorConfig struct {
	Symbol        string
	BasePrice     float64 // 均值回归的锚定价
	TickSize      float64 // 最小报价单位
	BaseSpread    float64 // 盘口宽度均值
	SpreadStdDev  float64 // 盘口宽度标准差
	Momentum      float64 // 上一次变动的延续系数
	MeanReversion float64 // 回归锚定价的强度
	Damping       float64 // 整体变动的阻尼系数
	Depth         int     // 每侧档位数
	LevelQtyMean  float64 // 档位数量的指数分布均值
	LevelQtyFloor float64 // 档位数量下限
	VolumeMin     int64   // 单笔快照成交量下限
	VolumeMax     int64   // 单笔快照成交量上限（开区间）
}

// DefaultGeneratorConfig returns NSE-flavoured defaults for the symbol.
func DefaultGeneratorConfig(symbol string) GeneratorConfig {
	return GeneratorConfig{
		Symbol:        symbol,
		BasePrice:     BasePrice(symbol),
		TickSize:      0.05,
		BaseSpread:    0.05,
		SpreadStdDev:  0.02,
		Momentum:      0.7,
		MeanReversion: 0.05,
		Damping:       0.1,
		Depth:         10,
		LevelQtyMean:  100,
		LevelQtyFloor: 50,
		VolumeMin:     1000,
		VolumeMax:     5000,
	}
}

// basePrices 是内置的参考锚定价；未知符号回退到 1000。
var basePrices = map[string]float64{
	"RELIANCE":   2850.0,
	"TCS":        4200.0,
	"HDFCBANK":   1670.0,
	"INFY":       1860.0,
	"ITC":        485.0,
	"SBIN":       820.0,
	"BHARTIARTL": 1520.0,
	"KOTAKBANK":  1750.0,
	"LT":         3600.0,
	"ASIANPAINT": 2950.0,
}

// BasePrice returns the anchor price for a symbol (1000 when unknown).
func BasePrice(symbol string) float64 {
	if p, ok := basePrices[symbol]; ok {
		return p
	}
	return 1000.0
}

// Generator produces successive synthetic price/depth snapshots. The same
// seeded *rand.Rand yields the same sequence, which is what the property
// tests rely on.
type Generator struct {
	cfg      GeneratorConfig
	vol      *VolatilityEstimator
	rng      *rand.Rand
	now      func() time.Time
	last     float64
	momentum float64
	started  bool
	lastTS   time.Time
}

// NewGenerator validates the config and builds a generator. The volatility
// estimator conditions the diffusion term; the rng must be seeded by the
// caller for reproducible runs.
func NewGenerator(cfg GeneratorConfig, vol *VolatilityEstimator, rng *rand.Rand) (*Generator, error) {
	if cfg.TickSize <= 0 {
		return nil, errors.New("generator: tick size must be > 0")
	}
	if cfg.BasePrice <= 0 {
		return nil, errors.New("generator: base price must be > 0")
	}
	if cfg.Depth <= 0 {
		cfg.Depth = 10
	}
	if cfg.VolumeMax <= cfg.VolumeMin {
		cfg.VolumeMax = cfg.VolumeMin + 1
	}
	if vol == nil {
		return nil, errors.New("generator: volatility estimator is required")
	}
	if rng == nil {
		return nil, errors.New("generator: random source is required")
	}
	return &Generator{
		cfg: cfg,
		vol: vol,
		rng: rng,
		now: time.Now,
	}, nil
}

// SetClock overrides the timestamp source (tests).
func (g *Generator) SetClock(now func() time.Time) { g.now = now }

// Next advances the diffusion and returns a full snapshot.
func (g *Generator) Next() Snapshot {
	var price float64
	if !g.started {
		price = g.cfg.BasePrice
		g.momentum = 0
		g.started = true
	} else {
		// 用上一价格驱动波动率，再合成动量+均值回归+高斯扰动。
		vol := g.vol.Update(g.last)
		meanRev := g.cfg.MeanReversion * (g.cfg.BasePrice - g.last) / g.cfg.BasePrice
		random := g.rng.NormFloat64() * vol * 0.5
		change := (g.cfg.Momentum*g.momentum + meanRev + random) * g.cfg.Damping
		price = g.last * (1 + change)
		g.momentum = change
	}
	g.last = price

	spread := math.Abs(g.rng.NormFloat64()*g.cfg.SpreadStdDev + g.cfg.BaseSpread)
	if spread < g.cfg.TickSize {
		spread = g.cfg.TickSize
	}
	bid := roundToTick(price-spread/2, g.cfg.TickSize)
	ask := roundToTick(price+spread/2, g.cfg.TickSize)

	bids := make([]Level, 0, g.cfg.Depth)
	asks := make([]Level, 0, g.cfg.Depth)
	for i := 0; i < g.cfg.Depth; i++ {
		bids = append(bids, Level{
			Price: bid - float64(i)*g.cfg.TickSize,
			Qty:   g.levelQty(),
		})
		asks = append(asks, Level{
			Price: ask + float64(i)*g.cfg.TickSize,
			Qty:   g.levelQty(),
		})
	}

	ts := g.now()
	if ts.Before(g.lastTS) {
		ts = g.lastTS
	}
	g.lastTS = ts

	return Snapshot{
		Symbol:    g.cfg.Symbol,
		LastPrice: price,
		BidPrice:  bid,
		AskPrice:  ask,
		Volume:    g.cfg.VolumeMin + g.rng.Int63n(g.cfg.VolumeMax-g.cfg.VolumeMin),
		Timestamp: ts,
		Bids:      bids,
		Asks:      asks,
	}
}

func (g *Generator) levelQty() float64 {
	qty := math.Floor(g.rng.ExpFloat64() * g.cfg.LevelQtyMean)
	if qty < g.cfg.LevelQtyFloor {
		qty = g.cfg.LevelQtyFloor
	}
	return qty
}

func roundToTick(price, tick float64) float64 {
	return math.Round(price/tick) * tick
}

// RoundToTick rounds a price to the nearest multiple of tick.
func RoundToTick(price, tick float64) float64 { return roundToTick(price, tick) }
