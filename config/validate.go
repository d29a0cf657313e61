package config

import "fmt"

// ErrInvalid 用于参数验证错误。
type ErrInvalid string

func (e ErrInvalid) Error() string { return string(e) }

// Validate ensures the configuration is internally consistent.
// Any violation fails the whole load, partial configs never run.
func Validate(cfg AppConfig) error {
	if cfg.Engine.Symbol == "" {
		return ErrInvalid("engine.symbol is required")
	}
	if cfg.Engine.TickIntervalMs <= 0 {
		return ErrInvalid("engine.tickIntervalMs must be > 0")
	}
	if cfg.Engine.DecisionIntervalMs <= 0 {
		return ErrInvalid("engine.decisionIntervalMs must be > 0")
	}

	if cfg.Market.TickSize <= 0 {
		return ErrInvalid("market.tickSize must be > 0")
	}
	if cfg.Market.Depth <= 0 {
		return ErrInvalid("market.depth must be > 0")
	}
	if cfg.Market.LevelQtyMean <= 0 || cfg.Market.LevelQtyFloor <= 0 {
		return ErrInvalid("market.levelQtyMean/levelQtyFloor must be > 0")
	}
	if cfg.Market.VolumeMin <= 0 || cfg.Market.VolumeMax <= cfg.Market.VolumeMin {
		return ErrInvalid("market volume bounds must satisfy 0 < volumeMin < volumeMax")
	}

	v := cfg.Market.Volatility
	if v.Omega <= 0 || v.Alpha < 0 || v.Beta < 0 {
		return ErrInvalid("volatility omega must be > 0 and alpha/beta >= 0")
	}
	if v.Alpha+v.Beta >= 1 {
		return ErrInvalid(fmt.Sprintf("volatility alpha+beta must be < 1, got %g", v.Alpha+v.Beta))
	}
	if v.Floor <= 0 || v.Ceiling < v.Floor {
		return ErrInvalid("volatility bounds must satisfy 0 < floor <= ceiling")
	}

	s := cfg.Strategy
	if s.BaseSpread <= 0 {
		return ErrInvalid("strategy.baseSpread must be > 0")
	}
	if s.MinProfit < 0 {
		return ErrInvalid("strategy.minProfit must be >= 0")
	}
	if s.MaxOrderSize <= 0 {
		return ErrInvalid("strategy.maxOrderSize must be > 0")
	}
	if s.MinVolFactor <= 0 || s.MinPosFactor <= 0 {
		return ErrInvalid("strategy size factor floors must be > 0")
	}
	if s.PosSizeScale <= 0 {
		return ErrInvalid("strategy.posSizeScale must be > 0")
	}

	if cfg.Risk.MaxPosition <= 0 {
		return ErrInvalid("risk.maxPosition must be > 0")
	}
	if cfg.Risk.VarLookback <= 0 {
		return ErrInvalid("risk.varLookback must be > 0")
	}

	f := cfg.Fill
	if f.AcceptProb < 0 || f.AcceptProb > 1 {
		return ErrInvalid("fill.acceptProb must be in [0,1]")
	}
	if f.SlippageProb < 0 || f.SlippageProb > 1 {
		return ErrInvalid("fill.slippageProb must be in [0,1]")
	}
	if f.TTLMs <= 0 {
		return ErrInvalid("fill.ttlMs must be > 0")
	}
	if f.MaxOpen <= 0 {
		return ErrInvalid("fill.maxOpen must be > 0")
	}

	i := cfg.Inventory
	if i.SpreadCaptureMin < 0 || i.SpreadCaptureMax < i.SpreadCaptureMin {
		return ErrInvalid("inventory spread capture bounds must satisfy 0 <= min <= max")
	}

	return nil
}
