package risk

import (
	"errors"
	"fmt"
)

// ErrPositionExceed 表示新仓位会超过绝对仓位上限。
var ErrPositionExceed = errors.New("position limit exceed")

// GateConfig 仓位闸门配置。
type GateConfig struct {
	MaxPosition float64 // 绝对净仓上限
	MaxDrawdown float64 // 回撤上限（当前为许可式占位）
	VarLookback int     // VaR 回看窗口
}

// DefaultGateConfig returns simulation defaults.
func DefaultGateConfig() GateConfig {
	return GateConfig{
		MaxPosition: 1000,
		MaxDrawdown: 0.02,
		VarLookback: 100,
	}
}

// Gate performs pre-trade checks on proposed position changes. The drawdown
// and VaR hooks are interface points kept for future tightening; in this
// simulator they are deliberately permissive.
type Gate struct {
	cfg GateConfig
}

// NewGate validates the config and builds a gate.
func NewGate(cfg GateConfig) (*Gate, error) {
	if cfg.MaxPosition <= 0 {
		return nil, fmt.Errorf("risk: max position must be > 0, got %v", cfg.MaxPosition)
	}
	if cfg.MaxDrawdown < 0 {
		return nil, errors.New("risk: max drawdown must be >= 0")
	}
	if cfg.VarLookback <= 0 {
		cfg.VarLookback = 100
	}
	return &Gate{cfg: cfg}, nil
}

// WithinLimits reports whether |position + delta| stays within the limit.
func (g *Gate) WithinLimits(position, delta float64) bool {
	next := position + delta
	if next < 0 {
		next = -next
	}
	return next <= g.cfg.MaxPosition
}

// PreOrder is the error-returning form of WithinLimits, for callers that
// want a reason to log.
func (g *Gate) PreOrder(position, delta float64) error {
	if !g.WithinLimits(position, delta) {
		return fmt.Errorf("%w: |%.2f%+.2f| > %.2f", ErrPositionExceed, position, delta, g.cfg.MaxPosition)
	}
	return nil
}

// CheckDrawdown 回撤校验钩子。模拟器中总是放行；保留签名供后续收紧。
func (g *Gate) CheckDrawdown(equity float64) bool {
	return true
}

// ValueAtRisk VaR 估计钩子，当前返回占位常量。
func (g *Gate) ValueAtRisk(confidence float64) float64 {
	return 0.0
}

// MaxPosition exposes the configured limit.
func (g *Gate) MaxPosition() float64 { return g.cfg.MaxPosition }
