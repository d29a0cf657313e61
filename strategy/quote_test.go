package strategy

import (
	"math"
	"testing"

	"market-sim-go/market"
	"market-sim-go/risk"
)

type openGate struct{}

func (openGate) WithinLimits(position, delta float64) bool { return true }

type closedGate struct{}

func (closedGate) WithinLimits(position, delta float64) bool { return false }

func snap(bid, ask float64) market.Snapshot {
	return market.Snapshot{Symbol: "RELIANCE", LastPrice: (bid + ask) / 2, BidPrice: bid, AskPrice: ask}
}

func TestNewQuoteEngineValidation(t *testing.T) {
	cfg := DefaultConfig()
	cfg.TickSize = 0
	if _, err := NewQuoteEngine(cfg, openGate{}); err == nil {
		t.Fatal("expected error for zero tick")
	}
	cfg = DefaultConfig()
	cfg.MaxOrderSize = 0
	if _, err := NewQuoteEngine(cfg, openGate{}); err == nil {
		t.Fatal("expected error for zero size")
	}
	if _, err := NewQuoteEngine(DefaultConfig(), nil); err == nil {
		t.Fatal("expected error for nil gate")
	}
}

func TestQuoteMinProfitProperty(t *testing.T) {
	e, err := NewQuoteEngine(DefaultConfig(), openGate{})
	if err != nil {
		t.Fatal(err)
	}
	cfg := DefaultConfig()

	cases := []struct {
		bid, ask, vol, imb, pos float64
	}{
		{2849.95, 2850.05, 0.0001, 0, 0},
		{2849.95, 2850.05, 0.002, 0.9, 500},
		{100.00, 100.05, 0.0001, -1, -999},
		{100.00, 100.00, 0.0005, 0, 0}, // degenerate zero-width book
		{0.05, 0.10, 0.0001, 0.3, 10},
	}
	for _, c := range cases {
		bid, ask := e.Quote(snap(c.bid, c.ask), c.vol, c.imb, c.pos)
		if bid == nil || ask == nil {
			t.Fatalf("expected quotes for %+v", c)
		}
		if ask.Price-bid.Price < cfg.MinProfit-1e-9 {
			t.Fatalf("gap %.4f below min profit %.2f for %+v", ask.Price-bid.Price, cfg.MinProfit, c)
		}
		for _, p := range []float64{bid.Price, ask.Price} {
			ratio := p / cfg.TickSize
			if math.Abs(ratio-math.Round(ratio)) > 1e-6 {
				t.Fatalf("price %v not tick-aligned", p)
			}
		}
	}
}

func TestQuoteInventorySkewDirection(t *testing.T) {
	e, _ := NewQuoteEngine(DefaultConfig(), openGate{})
	s := snap(2849.95, 2850.05)

	flatBid, flatAsk := e.Quote(s, 0.0001, 0, 0)
	longBid, longAsk := e.Quote(s, 0.0001, 0, 800)
	shortBid, shortAsk := e.Quote(s, 0.0001, 0, -800)

	// Long inventory pushes both quotes down (sell more, buy less);
	// short inventory pushes both up.
	if longBid.Price >= flatBid.Price || longAsk.Price >= flatAsk.Price {
		t.Fatalf("long skew did not lower quotes: %v/%v vs flat %v/%v",
			longBid.Price, longAsk.Price, flatBid.Price, flatAsk.Price)
	}
	if shortBid.Price <= flatBid.Price || shortAsk.Price <= flatAsk.Price {
		t.Fatalf("short skew did not raise quotes: %v/%v vs flat %v/%v",
			shortBid.Price, shortAsk.Price, flatBid.Price, flatAsk.Price)
	}
}

func TestQuoteSpreadWidening(t *testing.T) {
	e, _ := NewQuoteEngine(DefaultConfig(), openGate{})
	s := snap(2849.95, 2850.05)

	calmBid, calmAsk := e.Quote(s, 0.0001, 0, 0)
	wildBid, wildAsk := e.Quote(s, 0.002, 0.9, 0)

	if wildAsk.Price-wildBid.Price <= calmAsk.Price-calmBid.Price {
		t.Fatal("volatility and imbalance must widen the spread")
	}
}

func TestQuoteSizeDamping(t *testing.T) {
	cfg := DefaultConfig()
	e, _ := NewQuoteEngine(cfg, openGate{})
	s := snap(2849.95, 2850.05)

	calmBid, _ := e.Quote(s, 0.0001, 0, 0)
	wildBid, _ := e.Quote(s, 0.002, 0, 0)
	bigPosBid, _ := e.Quote(s, 0.0001, 0, 900)

	if wildBid.Size >= calmBid.Size {
		t.Fatalf("high volatility must shrink size: %v vs %v", wildBid.Size, calmBid.Size)
	}
	if bigPosBid.Size >= calmBid.Size {
		t.Fatalf("large position must shrink size: %v vs %v", bigPosBid.Size, calmBid.Size)
	}
	// Floors hold.
	if wildBid.Size < 1 || bigPosBid.Size < 1 {
		t.Fatal("size must be at least 1")
	}
	if calmBid.Size > cfg.MaxOrderSize {
		t.Fatalf("size %v above base %v", calmBid.Size, cfg.MaxOrderSize)
	}
}

func TestQuoteNoQuoteCases(t *testing.T) {
	e, _ := NewQuoteEngine(DefaultConfig(), closedGate{})
	if b, a := e.Quote(snap(2849.95, 2850.05), 0.0001, 0, 0); b != nil || a != nil {
		t.Fatal("gate rejection must suppress both sides")
	}

	open, _ := NewQuoteEngine(DefaultConfig(), openGate{})
	if b, a := open.Quote(market.Snapshot{}, 0.0001, 0, 0); b != nil || a != nil {
		t.Fatal("zero snapshot must yield no quotes")
	}
}

func TestQuoteWithRealGate(t *testing.T) {
	gate, err := risk.NewGate(risk.GateConfig{MaxPosition: 1000})
	if err != nil {
		t.Fatal(err)
	}
	e, _ := NewQuoteEngine(DefaultConfig(), gate)

	// Near the limit the candidate size no longer fits on the long side.
	if b, a := e.Quote(snap(2849.95, 2850.05), 0.0001, 0, 995); b != nil || a != nil {
		t.Fatal("expected no quotes near the position limit")
	}
	if b, a := e.Quote(snap(2849.95, 2850.05), 0.0001, 0, 0); b == nil || a == nil {
		t.Fatal("expected quotes when flat")
	}
}

func TestQuoteSetConfig(t *testing.T) {
	e, _ := NewQuoteEngine(DefaultConfig(), openGate{})

	bad := DefaultConfig()
	bad.TickSize = -1
	if err := e.SetConfig(bad); err == nil {
		t.Fatal("expected rejection of invalid config")
	}
	if e.Config().TickSize != DefaultConfig().TickSize {
		t.Fatal("rejected config must not be applied")
	}

	wide := DefaultConfig()
	wide.BaseSpread = 1.0
	if err := e.SetConfig(wide); err != nil {
		t.Fatal(err)
	}
	if e.Config().BaseSpread != 1.0 {
		t.Fatal("accepted config must be applied")
	}
}
