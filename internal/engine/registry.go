package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"market-sim-go/inventory"
)

// ErrSymbolMismatch 引擎已绑定其他符号。
var ErrSymbolMismatch = errors.New("engine already running for a different symbol")

// Factory 按符号构建一个新引擎。
type Factory func(symbol string) (*SimEngine, error)

// Registry 单引擎控制面。Start对同符号幂等，对异符号报错，
// Stop永远安全。
type Registry struct {
	mu      sync.Mutex
	factory Factory
	engine  *SimEngine
}

// NewRegistry 创建控制面
func NewRegistry(factory Factory) (*Registry, error) {
	if factory == nil {
		return nil, errors.New("factory is required")
	}
	return &Registry{factory: factory}, nil
}

// Start 为符号启动仿真。已有同符号引擎在运行时为无操作；
// 已有异符号引擎在运行时返回ErrSymbolMismatch。
func (r *Registry) Start(ctx context.Context, symbol string) error {
	if symbol == "" {
		return errors.New("symbol is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.engine != nil && r.engine.GetState() == StateRunning {
		if r.engine.Symbol() == symbol {
			return nil
		}
		return fmt.Errorf("%w: running=%s requested=%s",
			ErrSymbolMismatch, r.engine.Symbol(), symbol)
	}

	// 换符号或首次启动都重建引擎，旧状态不跨符号保留
	if r.engine == nil || r.engine.Symbol() != symbol {
		eng, err := r.factory(symbol)
		if err != nil {
			return fmt.Errorf("build engine: %w", err)
		}
		r.engine = eng
	}

	return r.engine.Start(ctx)
}

// Stop 停止当前引擎。没有引擎时直接返回nil。
func (r *Registry) Stop() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.engine == nil {
		return nil
	}
	return r.engine.Stop()
}

// Engine 返回当前引擎，可能为nil。
func (r *Registry) Engine() *SimEngine {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.engine
}

// Status 返回当前引擎状态；没有引擎时视为停止。
func (r *Registry) Status() string {
	r.mu.Lock()
	eng := r.engine
	r.mu.Unlock()

	if eng == nil {
		return StateStopped.String()
	}
	return eng.Status()
}

// StatusInfo 返回当前引擎的轮询摘要；没有引擎时返回零值。
func (r *Registry) StatusInfo() StatusInfo {
	r.mu.Lock()
	eng := r.engine
	r.mu.Unlock()

	if eng == nil {
		return StatusInfo{}
	}
	return eng.StatusInfo()
}

// Snapshot 返回当前引擎快照；没有引擎时返回零值。
func (r *Registry) Snapshot() Snapshot {
	r.mu.Lock()
	eng := r.engine
	r.mu.Unlock()

	if eng == nil {
		return Snapshot{State: StateStopped.String()}
	}
	return eng.Snapshot()
}

// OrderBook 返回当前引擎的盘口视图；没有引擎时返回空视图。
func (r *Registry) OrderBook() BookView {
	r.mu.Lock()
	eng := r.engine
	r.mu.Unlock()

	if eng == nil {
		return BookView{}
	}
	return eng.OrderBook()
}

// Trades 返回当前引擎最近n笔成交；没有引擎时返回nil。
func (r *Registry) Trades(n int) []inventory.Trade {
	r.mu.Lock()
	eng := r.engine
	r.mu.Unlock()

	if eng == nil {
		return nil
	}
	return eng.Trades(n)
}
