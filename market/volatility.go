package market

import (
	"errors"
	"fmt"
	"math"
)

// VolatilityConfig 波动率估计器配置（GARCH(1,1) 条件方差递推）。
type VolatilityConfig struct {
	Omega   float64 // 基础方差项
	Alpha   float64 // 短期（近期收益平方）权重
	Beta    float64 // 长期（上期方差）权重，要求 Alpha+Beta < 1
	Initial float64 // 首个样本的种子波动率
	Floor   float64 // 输出下限
	Ceiling float64 // 输出上限
	HistCap int     // 收益/波动率历史容量
}

// DefaultVolatilityConfig returns the standard parameterization.
func DefaultVolatilityConfig() VolatilityConfig {
	return VolatilityConfig{
		Omega:   0.0001,
		Alpha:   0.1,
		Beta:    0.85,
		Initial: 0.001,
		Floor:   0.0001,
		Ceiling: 0.002,
		HistCap: 1000,
	}
}

// VolatilityEstimator maintains a conditional-variance estimate from a
// return series. Output is always clamped to [Floor, Ceiling] so the
// quoting feedback loop cannot diverge on a price jump.
type VolatilityEstimator struct {
	cfg       VolatilityConfig
	lastPrice float64
	seeded    bool
	current   float64
	returns   *History
	vols      *History
}

// NewVolatilityEstimator validates the config and builds an estimator.
func NewVolatilityEstimator(cfg VolatilityConfig) (*VolatilityEstimator, error) {
	if cfg.HistCap <= 0 {
		cfg.HistCap = 1000
	}
	if cfg.Omega < 0 {
		return nil, errors.New("volatility: omega must be >= 0")
	}
	if cfg.Alpha < 0 || cfg.Beta < 0 {
		return nil, errors.New("volatility: alpha/beta must be >= 0")
	}
	if cfg.Alpha+cfg.Beta >= 1 {
		return nil, fmt.Errorf("volatility: alpha+beta must be < 1 for stationarity, got %.4f", cfg.Alpha+cfg.Beta)
	}
	if cfg.Floor <= 0 || cfg.Ceiling < cfg.Floor {
		return nil, errors.New("volatility: need 0 < floor <= ceiling")
	}
	if cfg.Initial <= 0 {
		cfg.Initial = 0.001
	}
	return &VolatilityEstimator{
		cfg:     cfg,
		returns: NewHistory(cfg.HistCap),
		vols:    NewHistory(cfg.HistCap),
	}, nil
}

// Update 输入新价格，返回最新条件波动率。首次调用仅记录价格并返回种子值。
func (v *VolatilityEstimator) Update(price float64) float64 {
	if !v.seeded {
		v.lastPrice = price
		v.seeded = true
		v.current = v.clamp(v.cfg.Initial)
		v.vols.Append(v.current)
		return v.current
	}

	ret := 0.0
	if v.lastPrice != 0 {
		ret = (price - v.lastPrice) / v.lastPrice
	}
	v.returns.Append(ret)
	v.lastPrice = price

	// var' = omega + alpha*r^2 + beta*var_prev
	variance := v.cfg.Omega + v.cfg.Alpha*ret*ret + v.cfg.Beta*v.current*v.current
	v.current = v.clamp(math.Sqrt(variance))
	v.vols.Append(v.current)
	return v.current
}

// Current returns the most recent clamped volatility (seed value before
// any price has been observed).
func (v *VolatilityEstimator) Current() float64 {
	if !v.seeded {
		return v.clamp(v.cfg.Initial)
	}
	return v.current
}

// Returns exposes the bounded return history (oldest first).
func (v *VolatilityEstimator) Returns() []float64 { return v.returns.Values() }

// Volatilities exposes the bounded volatility history (oldest first).
func (v *VolatilityEstimator) Volatilities() []float64 { return v.vols.Values() }

// Reset drops all state so a new run starts from the seed volatility.
func (v *VolatilityEstimator) Reset() {
	v.seeded = false
	v.lastPrice = 0
	v.current = 0
	v.returns = NewHistory(v.cfg.HistCap)
	v.vols = NewHistory(v.cfg.HistCap)
}

func (v *VolatilityEstimator) clamp(vol float64) float64 {
	if vol < v.cfg.Floor {
		return v.cfg.Floor
	}
	if vol > v.cfg.Ceiling {
		return v.cfg.Ceiling
	}
	return vol
}
