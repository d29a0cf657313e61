package order

import (
	"math"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"market-sim-go/inventory"
	"market-sim-go/market"
)

func testLedger() *inventory.Ledger {
	cfg := inventory.DefaultConfig()
	cfg.SpreadCaptureEnabled = false
	return inventory.NewLedger(cfg, nil)
}

// alwaysFill makes the acceptance draw deterministic.
func alwaysFill() FillConfig {
	cfg := DefaultFillConfig()
	cfg.AcceptProb = 1
	cfg.SlippageProb = 0
	return cfg
}

func snapAt(last, bid, ask float64) market.Snapshot {
	return market.Snapshot{
		Symbol:    "RELIANCE",
		LastPrice: last,
		BidPrice:  bid,
		AskPrice:  ask,
		Timestamp: time.Unix(1_700_000_000, 0),
	}
}

func TestNewBookValidation(t *testing.T) {
	led := testLedger()
	rng := rand.New(rand.NewSource(1))

	bad := DefaultFillConfig()
	bad.AcceptProb = 1.5
	if _, err := NewBook(bad, led, rng); err == nil {
		t.Fatal("expected error for accept prob > 1")
	}
	bad = DefaultFillConfig()
	bad.TTL = 0
	if _, err := NewBook(bad, led, rng); err == nil {
		t.Fatal("expected error for zero ttl")
	}
	if _, err := NewBook(DefaultFillConfig(), nil, rng); err == nil {
		t.Fatal("expected error for nil ledger")
	}
	if _, err := NewBook(DefaultFillConfig(), led, nil); err == nil {
		t.Fatal("expected error for nil rng")
	}
}

func TestBookMaxOpen(t *testing.T) {
	b, err := NewBook(alwaysFill(), testLedger(), rand.New(rand.NewSource(1)))
	require.NoError(t, err)

	now := time.Unix(1_700_000_000, 0)
	for i := 0; i < 6; i++ {
		_, err := b.Place("BUY", 100, 1, now)
		require.NoError(t, err)
	}
	_, err = b.Place("SELL", 101, 1, now)
	assert.ErrorIs(t, err, ErrBookFull)
	assert.Equal(t, 6, b.OpenCount())
}

func TestBookTTLExpiry(t *testing.T) {
	led := testLedger()
	b, err := NewBook(alwaysFill(), led, rand.New(rand.NewSource(1)))
	require.NoError(t, err)

	now := time.Unix(1_700_000_000, 0)
	old, err := b.Place("BUY", 100, 1, now)
	require.NoError(t, err)
	fresh, err := b.Place("SELL", 101, 1, now.Add(8*time.Millisecond))
	require.NoError(t, err)

	expired := b.ExpireStale(now.Add(11 * time.Millisecond))
	require.Len(t, expired, 1)
	assert.Equal(t, old.ID, expired[0].ID)
	assert.Equal(t, StatusExpired, expired[0].Status)
	assert.True(t, expired[0].Status.IsFinal())

	open := b.Open()
	require.Len(t, open, 1)
	assert.Equal(t, fresh.ID, open[0].ID)

	// Expiry produced no trade.
	assert.Equal(t, 0, led.State().TradeCount)
}

func TestBookFillOnPriceThrough(t *testing.T) {
	led := testLedger()
	b, err := NewBook(alwaysFill(), led, rand.New(rand.NewSource(1)))
	require.NoError(t, err)

	now := time.Unix(1_700_000_000, 0)
	buy, _ := b.Place("BUY", 100, 10, now)
	sell, _ := b.Place("SELL", 110, 10, now)

	// Last trades well inside the quotes: neither side is reached.
	fills := b.SimulateFills(snapAt(105, 104, 106))
	assert.Empty(t, fills)
	assert.Equal(t, 2, b.OpenCount())

	// Last drops through the buy price, only the buy fills.
	fills = b.SimulateFills(snapAt(99, 104, 106))
	require.Len(t, fills, 1)
	assert.Equal(t, "BUY", fills[0].Side)
	assert.Equal(t, buy.ID, fills[0].OrderID)
	assert.Equal(t, 100.0, fills[0].Price)
	assert.Equal(t, 10.0, led.Position())

	// Ask rises through the sell price.
	fills = b.SimulateFills(snapAt(105, 109, 111))
	require.Len(t, fills, 1)
	assert.Equal(t, sell.ID, fills[0].OrderID)
	assert.Equal(t, 0.0, led.Position())
	assert.Equal(t, 0, b.OpenCount())
}

func TestBookProbabilisticAcceptance(t *testing.T) {
	cfg := alwaysFill()
	cfg.AcceptProb = 0 // price condition holds but queue never reaches us
	b, err := NewBook(cfg, testLedger(), rand.New(rand.NewSource(1)))
	require.NoError(t, err)

	now := time.Unix(1_700_000_000, 0)
	b.Place("BUY", 100, 1, now)
	fills := b.SimulateFills(snapAt(90, 90, 91))
	assert.Empty(t, fills)
	assert.Equal(t, 1, b.OpenCount())
}

func TestBookSlippageBounded(t *testing.T) {
	cfg := alwaysFill()
	cfg.SlippageProb = 1
	led := testLedger()
	b, err := NewBook(cfg, led, rand.New(rand.NewSource(5)))
	require.NoError(t, err)

	now := time.Unix(1_700_000_000, 0)
	for i := 0; i < 6; i++ {
		b.Place("BUY", 100, 1, now)
	}
	fills := b.SimulateFills(snapAt(95, 95, 96))
	require.Len(t, fills, 6)
	for _, f := range fills {
		assert.LessOrEqual(t, math.Abs(f.Price-100), cfg.TickSize/2+1e-12)
	}
}

func TestBookTerminalStateExactlyOnce(t *testing.T) {
	led := testLedger()
	b, err := NewBook(alwaysFill(), led, rand.New(rand.NewSource(1)))
	require.NoError(t, err)

	now := time.Unix(1_700_000_000, 0)
	b.Place("BUY", 100, 1, now)

	fills := b.SimulateFills(snapAt(99, 99, 100))
	require.Len(t, fills, 1)

	// A filled order is gone: a later snapshot or expiry sweep cannot
	// touch it again.
	assert.Empty(t, b.SimulateFills(snapAt(99, 99, 100)))
	assert.Empty(t, b.ExpireStale(now.Add(time.Hour)))
	assert.Equal(t, 1, led.State().TradeCount)
}

func TestBookOpenOnSide(t *testing.T) {
	b, err := NewBook(alwaysFill(), testLedger(), rand.New(rand.NewSource(1)))
	require.NoError(t, err)

	now := time.Unix(1_700_000_000, 0)
	b.Place("BUY", 100, 1, now)
	assert.True(t, b.OpenOnSide("BUY"))
	assert.False(t, b.OpenOnSide("SELL"))

	b.Reset()
	assert.Equal(t, 0, b.OpenCount())
	assert.False(t, b.OpenOnSide("BUY"))
}
