package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"market-sim-go/infrastructure/alert"
	"market-sim-go/infrastructure/logger"
	"market-sim-go/infrastructure/monitor"
	"market-sim-go/inventory"
	"market-sim-go/market"
	"market-sim-go/order"
	"market-sim-go/posttrade"
	"market-sim-go/risk"
	"market-sim-go/strategy"
)

// EngineState 引擎状态
type EngineState int

const (
	// StateStopped 停止状态（初始即为停止）
	StateStopped EngineState = iota
	// StateRunning 运行状态
	StateRunning
)

// String 返回状态名称
func (s EngineState) String() string {
	switch s {
	case StateStopped:
		return "STOPPED"
	case StateRunning:
		return "RUNNING"
	default:
		return "UNKNOWN"
	}
}

// ChartPoints 图表序列的固定长度，短于该长度时前向补齐。
const ChartPoints = 200

// RecentTradeCount 快照里携带的最近成交笔数。
const RecentTradeCount = 20

// Config 引擎配置
type Config struct {
	Symbol           string        // 仿真符号
	TickInterval     time.Duration // 仿真tick间隔
	DecisionInterval time.Duration // 两次报价决策的最小间隔
}

// Components 引擎依赖组件
type Components struct {
	Generator  *market.Generator
	Volatility *market.VolatilityEstimator
	Imbalance  *market.ImbalanceTracker
	Quotes     *strategy.QuoteEngine
	Gate       *risk.Gate
	Book       *order.Book
	Ledger     *inventory.Ledger
	Aggregator *posttrade.Aggregator
	Logger     *logger.Logger
	Monitor    *monitor.Monitor // 可选
	Alerts     *alert.Manager   // 可选
}

// SimEngine 单符号做市仿真引擎。所有写入都发生在引擎自己的
// 循环goroutine里，读接口通过锁返回一致性快照。
type SimEngine struct {
	config Config

	gen        *market.Generator
	vol        *market.VolatilityEstimator
	imbalance  *market.ImbalanceTracker
	quotes     *strategy.QuoteEngine
	gate       *risk.Gate
	book       *order.Book
	ledger     *inventory.Ledger
	aggregator *posttrade.Aggregator
	logger     *logger.Logger
	monitor    *monitor.Monitor
	alerts     *alert.Manager

	clock risk.Clock

	// 状态
	state EngineState
	mu    sync.RWMutex

	// 控制通道
	stopChan chan struct{}
	doneChan chan struct{}

	// tick循环内部状态，仅循环goroutine写入，读方持e.mu读。
	// 波动率与失衡在第6步拷贝到lastVol/lastImb，读接口不直接
	// 触碰vol和imbalance内部。
	lastSnap     market.Snapshot
	lastVol      float64
	lastImb      float64
	lastDecision time.Time
	priceHist    *market.History
	pnlHist      *market.History
	volHist      *market.History
	spreadHist   *market.History
	volumeHist   *market.History

	// 统计信息
	stats   Statistics
	statsMu sync.RWMutex
}

// Statistics 引擎统计信息
type Statistics struct {
	StartTime    time.Time
	TotalTicks   int64
	TotalQuotes  int64
	TotalOrders  int64
	TotalFills   int64
	TotalExpired int64
	TotalErrors  int64
	LastTickTime time.Time
}

// New 创建仿真引擎
func New(cfg Config, components Components) (*SimEngine, error) {
	if err := validateConfig(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if err := validateComponents(components); err != nil {
		return nil, fmt.Errorf("invalid components: %w", err)
	}

	return &SimEngine{
		config:     cfg,
		gen:        components.Generator,
		vol:        components.Volatility,
		imbalance:  components.Imbalance,
		quotes:     components.Quotes,
		gate:       components.Gate,
		book:       components.Book,
		ledger:     components.Ledger,
		aggregator: components.Aggregator,
		logger:     components.Logger,
		monitor:    components.Monitor,
		alerts:     components.Alerts,
		clock:      risk.NowUTC,
		state:      StateStopped,
		stopChan:   make(chan struct{}),
		doneChan:   make(chan struct{}),
		priceHist:  market.NewHistory(market.DefaultHistoryCap),
		pnlHist:    market.NewHistory(market.DefaultHistoryCap),
		volHist:    market.NewHistory(market.DefaultHistoryCap),
		spreadHist: market.NewHistory(market.DefaultHistoryCap),
		volumeHist: market.NewHistory(market.DefaultHistoryCap),
	}, nil
}

// SetClock 注入时钟，测试用。
func (e *SimEngine) SetClock(c risk.Clock) { e.clock = c }

// Symbol 返回引擎绑定的符号。
func (e *SimEngine) Symbol() string { return e.config.Symbol }

// Start 启动引擎主循环。重复Start返回错误；停止后可再次启动，
// 每次启动都从全新的仓位、盈亏和历史序列开始。
func (e *SimEngine) Start(ctx context.Context) error {
	e.mu.Lock()
	if e.state == StateRunning {
		e.mu.Unlock()
		return fmt.Errorf("engine already started (state: %s)", e.state)
	}
	// 复启需要重建通道，并清掉上一轮的状态
	e.stopChan = make(chan struct{})
	e.doneChan = make(chan struct{})
	e.priceHist = market.NewHistory(market.DefaultHistoryCap)
	e.pnlHist = market.NewHistory(market.DefaultHistoryCap)
	e.volHist = market.NewHistory(market.DefaultHistoryCap)
	e.spreadHist = market.NewHistory(market.DefaultHistoryCap)
	e.volumeHist = market.NewHistory(market.DefaultHistoryCap)
	e.lastSnap = market.Snapshot{}
	e.lastVol = 0
	e.lastImb = 0
	e.lastDecision = time.Time{}
	e.state = StateRunning
	e.mu.Unlock()

	e.ledger.Reset()
	e.book.Reset()

	e.statsMu.Lock()
	e.stats = Statistics{StartTime: e.clock.Now()}
	e.statsMu.Unlock()

	e.logger.Info("sim engine starting",
		zap.String("symbol", e.config.Symbol),
		zap.Duration("tick_interval", e.config.TickInterval),
		zap.Duration("decision_interval", e.config.DecisionInterval))

	go e.run(ctx)

	return nil
}

// Stop 停止引擎。幂等，对未运行的引擎直接返回。
func (e *SimEngine) Stop() error {
	e.mu.Lock()
	if e.state != StateRunning {
		e.mu.Unlock()
		return nil
	}
	stopChan := e.stopChan
	doneChan := e.doneChan
	e.mu.Unlock()

	select {
	case <-stopChan:
		// 已关闭
	default:
		close(stopChan)
	}

	select {
	case <-doneChan:
	case <-time.After(5 * time.Second):
		e.logger.Warn("timeout waiting for engine loop to stop")
	}

	e.mu.Lock()
	e.state = StateStopped
	e.mu.Unlock()

	e.logger.Info("sim engine stopped",
		zap.String("symbol", e.config.Symbol))

	return nil
}

// run 主事件循环
func (e *SimEngine) run(ctx context.Context) {
	defer close(e.doneChan)

	ticker := time.NewTicker(e.config.TickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			e.logger.Info("context done, stopping engine loop")
			e.mu.Lock()
			e.state = StateStopped
			e.mu.Unlock()
			return

		case <-e.stopChan:
			return

		case <-ticker.C:
			e.onTick()
		}
	}
}

// onTick 执行一个仿真步。单个tick出错只记录，不中断循环。
func (e *SimEngine) onTick() {
	start := e.clock.Now()

	defer func() {
		if r := recover(); r != nil {
			e.recordError()
			e.logger.Error("tick panic recovered", zap.Any("panic", r))
			if e.monitor != nil {
				e.monitor.RecordTickError()
			}
			if e.alerts != nil {
				_ = e.alerts.SendError("tick panic recovered", map[string]interface{}{
					"symbol": e.config.Symbol,
				})
			}
		}
	}()

	// 1. 生成下一帧行情
	snap := e.gen.Next()

	// 2. 更新盘口失衡
	imb := e.imbalance.Update(snap.Bids, snap.Asks)

	// 3. 对挂单撮合
	fills := e.book.SimulateFills(snap)
	for _, tr := range fills {
		e.logger.LogTrade("fill", map[string]interface{}{
			"side":     tr.Side,
			"price":    tr.Price,
			"qty":      tr.Qty,
			"order_id": tr.OrderID,
			"pnl":      tr.PnL,
		})
		if e.monitor != nil {
			e.monitor.RecordOrderFilled()
			e.monitor.RecordTrade(tr.Qty)
		}
	}

	// 4. 清理过期挂单
	now := e.clock.Now()
	expired := e.book.ExpireStale(now)
	if e.monitor != nil {
		for range expired {
			e.monitor.RecordOrderExpired()
		}
	}

	// 5. 报价决策（受最小决策间隔约束）
	quoted := false
	if now.Sub(e.lastDecision) >= e.config.DecisionInterval {
		quoted = e.decide(snap, imb, now)
		e.lastDecision = now
	}

	// 6. 更新历史序列，同时把本tick的波动率和失衡拷贝进锁内字段
	curVol := e.vol.Current()
	e.mu.Lock()
	e.lastSnap = snap
	e.lastVol = curVol
	e.lastImb = imb
	e.priceHist.Append(snap.LastPrice)
	e.volHist.Append(curVol)
	e.spreadHist.Append(snap.Spread())
	e.volumeHist.Append(float64(snap.Volume))
	state := e.ledger.State()
	total := state.RealizedPnL + e.ledger.Unrealized(snap.LastPrice)
	e.pnlHist.Append(total)
	e.mu.Unlock()

	// 7. 指标与统计
	e.statsMu.Lock()
	e.stats.TotalTicks++
	e.stats.TotalFills += int64(len(fills))
	e.stats.TotalExpired += int64(len(expired))
	if quoted {
		e.stats.TotalQuotes++
	}
	e.stats.LastTickTime = now
	e.statsMu.Unlock()

	if e.monitor != nil {
		e.monitor.RecordTick()
		e.monitor.UpdateMidPrice(snap.Mid())
		e.monitor.UpdateSpread(snap.Spread())
		e.monitor.UpdateVolatility(curVol)
		e.monitor.UpdateImbalance(imb)
		e.monitor.UpdatePosition(state.Position)
		e.monitor.UpdateAvgPrice(state.AvgPrice)
		e.monitor.UpdateRealizedPnL(state.RealizedPnL)
		e.monitor.UpdateUnrealizedPnL(total - state.RealizedPnL)
		e.monitor.UpdateOpenOrders(e.book.OpenCount())
		e.monitor.RecordTickDuration(e.clock.Now().Sub(start).Seconds())
	}
}

// decide 生成一次双边报价并尝试挂单。返回是否真的产生了报价。
func (e *SimEngine) decide(snap market.Snapshot, imb float64, now time.Time) bool {
	position := e.ledger.Position()
	bid, ask := e.quotes.Quote(snap, e.vol.Current(), imb, position)
	if bid == nil || ask == nil {
		// 中间价无效或风控拒绝，本轮不报价
		if snap.Mid() > 0 {
			if e.monitor != nil {
				e.monitor.RecordRiskReject()
			}
			e.logger.LogRisk("quote_rejected", map[string]interface{}{
				"position": position,
				"max":      e.gate.MaxPosition(),
			})
			if e.alerts != nil {
				_ = e.alerts.SendWarning("quote rejected by risk gate", map[string]interface{}{
					"symbol":   e.config.Symbol,
					"position": position,
				})
			}
		}
		return false
	}

	if e.monitor != nil {
		e.monitor.RecordQuoteGenerated()
	}

	for _, q := range []*strategy.Quote{bid, ask} {
		if e.book.OpenOnSide(q.Side) {
			// 该方向已有挂单，等它成交或过期再补
			continue
		}
		placed, err := e.book.Place(q.Side, q.Price, q.Size, now)
		if err != nil {
			if errors.Is(err, order.ErrBookFull) {
				// 挂单满了属于正常节奏，不算错误
				continue
			}
			e.recordError()
			e.logger.LogError(err, map[string]interface{}{
				"side":  q.Side,
				"price": q.Price,
			})
			continue
		}
		e.statsMu.Lock()
		e.stats.TotalOrders++
		e.statsMu.Unlock()
		if e.monitor != nil {
			e.monitor.RecordOrderPlaced()
		}
		e.logger.LogOrder("placed", placed.ID, map[string]interface{}{
			"side":  placed.Side,
			"price": placed.Price,
			"qty":   placed.Qty,
		})
	}
	return true
}

// ApplyStrategyParams 热更新报价参数，非法参数原样拒绝，旧参数继续生效。
func (e *SimEngine) ApplyStrategyParams(cfg strategy.Config) error {
	if err := e.quotes.SetConfig(cfg); err != nil {
		return fmt.Errorf("apply strategy params: %w", err)
	}
	e.logger.Info("strategy params applied",
		zap.Float64("base_spread", cfg.BaseSpread),
		zap.Float64("min_profit", cfg.MinProfit),
		zap.Float64("max_order_size", cfg.MaxOrderSize))
	return nil
}

// GetState 获取引擎状态
func (e *SimEngine) GetState() EngineState {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.state
}

// GetStatistics 获取统计信息
func (e *SimEngine) GetStatistics() Statistics {
	e.statsMu.RLock()
	defer e.statsMu.RUnlock()
	return e.stats
}

func (e *SimEngine) recordError() {
	e.statsMu.Lock()
	e.stats.TotalErrors++
	e.statsMu.Unlock()
}

// validateConfig 验证配置
func validateConfig(cfg Config) error {
	if cfg.Symbol == "" {
		return errors.New("symbol is required")
	}
	if cfg.TickInterval <= 0 {
		return errors.New("tick_interval must be > 0")
	}
	if cfg.DecisionInterval <= 0 {
		return errors.New("decision_interval must be > 0")
	}
	return nil
}

// validateComponents 验证组件
func validateComponents(comp Components) error {
	if comp.Generator == nil {
		return errors.New("generator is required")
	}
	if comp.Volatility == nil {
		return errors.New("volatility estimator is required")
	}
	if comp.Imbalance == nil {
		return errors.New("imbalance tracker is required")
	}
	if comp.Quotes == nil {
		return errors.New("quote engine is required")
	}
	if comp.Gate == nil {
		return errors.New("risk gate is required")
	}
	if comp.Book == nil {
		return errors.New("order book is required")
	}
	if comp.Ledger == nil {
		return errors.New("ledger is required")
	}
	if comp.Aggregator == nil {
		return errors.New("aggregator is required")
	}
	if comp.Logger == nil {
		return errors.New("logger is required")
	}
	return nil
}
