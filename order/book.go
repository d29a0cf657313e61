package order

import (
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"

	"market-sim-go/inventory"
	"market-sim-go/market"
)

// ErrBookFull 表示已达到并发挂单上限。
var ErrBookFull = errors.New("resting order limit reached")

// FillConfig 成交模拟配置。
//
// AcceptProb 在价格条件满足时仍按固定概率接受成交，用以近似未建模的
// 队列优先级；Slippage 以低概率加入不超过半个 tick 的滑点。
type FillConfig struct {
	AcceptProb   float64       // 价格穿越后被接受的概率
	SlippageProb float64       // 出现滑点的概率
	TickSize     float64       // 滑点界限为 ±TickSize/2
	TTL          time.Duration // 挂单存活时间
	MaxOpen      int           // 并发挂单上限
}

// DefaultFillConfig returns simulation defaults.
func DefaultFillConfig() FillConfig {
	return FillConfig{
		AcceptProb:   0.15,
		SlippageProb: 0.1,
		TickSize:     0.05,
		TTL:          10 * time.Millisecond,
		MaxOpen:      6,
	}
}

// Executor applies a fill to the ledger; satisfied by *inventory.Ledger.
type Executor interface {
	Execute(side string, price, qty float64, orderID string) inventory.Trade
}

// Book tracks the engine's own resting orders and simulates fills against
// each new market snapshot. Orders iterate in insertion order so seeded
// runs are fully deterministic.
type Book struct {
	mu     sync.RWMutex
	cfg    FillConfig
	rng    *rand.Rand
	ledger Executor
	orders map[string]*Resting
	ids    []string
}

// NewBook validates the config and builds a book over the given ledger.
func NewBook(cfg FillConfig, ledger Executor, rng *rand.Rand) (*Book, error) {
	if cfg.AcceptProb < 0 || cfg.AcceptProb > 1 {
		return nil, fmt.Errorf("order: accept probability %v outside [0, 1]", cfg.AcceptProb)
	}
	if cfg.SlippageProb < 0 || cfg.SlippageProb > 1 {
		return nil, fmt.Errorf("order: slippage probability %v outside [0, 1]", cfg.SlippageProb)
	}
	if cfg.TickSize <= 0 {
		return nil, errors.New("order: tick size must be > 0")
	}
	if cfg.TTL <= 0 {
		return nil, errors.New("order: ttl must be > 0")
	}
	if cfg.MaxOpen <= 0 {
		cfg.MaxOpen = 6
	}
	if ledger == nil {
		return nil, errors.New("order: ledger is required")
	}
	if rng == nil {
		return nil, errors.New("order: random source is required")
	}
	return &Book{
		cfg:    cfg,
		rng:    rng,
		ledger: ledger,
		orders: make(map[string]*Resting),
	}, nil
}

// Place registers a new resting order. Fails with ErrBookFull when the
// concurrent-order cap is reached.
func (b *Book) Place(side string, price, qty float64, now time.Time) (Resting, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.orders) >= b.cfg.MaxOpen {
		return Resting{}, fmt.Errorf("%w: %d open", ErrBookFull, len(b.orders))
	}
	o := &Resting{
		ID:        uuid.NewString(),
		Side:      side,
		Price:     price,
		Qty:       qty,
		CreatedAt: now,
		Status:    StatusPlaced,
	}
	b.orders[o.ID] = o
	b.ids = append(b.ids, o.ID)
	return *o, nil
}

// ExpireStale removes orders older than the TTL. Expired orders produce no
// trade; each transitions PLACED -> EXPIRED exactly once.
func (b *Book) ExpireStale(now time.Time) []Resting {
	b.mu.Lock()
	defer b.mu.Unlock()

	var expired []Resting
	for _, id := range b.ids {
		o := b.orders[id]
		if o == nil {
			continue
		}
		if now.Sub(o.CreatedAt) > b.cfg.TTL {
			o.Status = StatusExpired
			expired = append(expired, *o)
			delete(b.orders, id)
		}
	}
	if len(expired) > 0 {
		b.compactLocked()
	}
	return expired
}

// SimulateFills checks every resting order against the snapshot. A BUY
// fills when the last price or an improving bid reaches at or below the
// order price, a SELL symmetrically on the ask side; the price condition is
// then gated by the probabilistic acceptance draw.
func (b *Book) SimulateFills(snap market.Snapshot) []inventory.Trade {
	b.mu.Lock()
	defer b.mu.Unlock()

	var fills []inventory.Trade
	filled := false
	for _, id := range b.ids {
		o := b.orders[id]
		if o == nil || o.Status != StatusPlaced {
			continue
		}
		var through bool
		if o.Side == "BUY" {
			through = snap.LastPrice <= o.Price || snap.BidPrice <= o.Price
		} else {
			through = snap.LastPrice >= o.Price || snap.AskPrice >= o.Price
		}
		if !through || b.rng.Float64() >= b.cfg.AcceptProb {
			continue
		}

		execPrice := o.Price
		if b.rng.Float64() < b.cfg.SlippageProb {
			execPrice += (b.rng.Float64() - 0.5) * b.cfg.TickSize
		}

		o.Status = StatusFilled
		fills = append(fills, b.ledger.Execute(o.Side, execPrice, o.Qty, o.ID))
		delete(b.orders, id)
		filled = true
	}
	if filled {
		b.compactLocked()
	}
	return fills
}

// OpenCount returns the number of resting orders.
func (b *Book) OpenCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.orders)
}

// OpenOnSide reports whether a PLACED order exists for the side.
func (b *Book) OpenOnSide(side string) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, o := range b.orders {
		if o.Side == side {
			return true
		}
	}
	return false
}

// Open returns the resting orders in insertion order (copy).
func (b *Book) Open() []Resting {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]Resting, 0, len(b.orders))
	for _, id := range b.ids {
		if o := b.orders[id]; o != nil {
			out = append(out, *o)
		}
	}
	return out
}

// Reset drops all resting orders.
func (b *Book) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.orders = make(map[string]*Resting)
	b.ids = nil
}

// compactLocked drops removed ids, preserving insertion order.
func (b *Book) compactLocked() {
	kept := b.ids[:0]
	for _, id := range b.ids {
		if _, ok := b.orders[id]; ok {
			kept = append(kept, id)
		}
	}
	b.ids = kept
}
