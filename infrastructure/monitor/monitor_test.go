package monitor

import (
	"net/http/httptest"
	"testing"

	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func gatherValue(t *testing.T, m *Monitor, name string) float64 {
	t.Helper()
	families, err := m.Registry().Gather()
	require.NoError(t, err)
	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
		require.Len(t, mf.GetMetric(), 1)
		metric := mf.GetMetric()[0]
		switch mf.GetType() {
		case dto.MetricType_COUNTER:
			return metric.GetCounter().GetValue()
		case dto.MetricType_GAUGE:
			return metric.GetGauge().GetValue()
		}
	}
	t.Fatalf("metric %s not found", name)
	return 0
}

func TestMonitorCounters(t *testing.T) {
	m := New(DefaultConfig())

	m.RecordOrderPlaced()
	m.RecordOrderPlaced()
	m.RecordOrderFilled()
	m.RecordOrderExpired()
	m.RecordTick()
	m.RecordTickError()
	m.RecordQuoteGenerated()
	m.RecordRiskReject()
	m.RecordTrade(25)
	m.RecordTrade(10)

	assert.Equal(t, 2.0, gatherValue(t, m, "sim_engine_orders_placed_total"))
	assert.Equal(t, 1.0, gatherValue(t, m, "sim_engine_orders_filled_total"))
	assert.Equal(t, 1.0, gatherValue(t, m, "sim_engine_orders_expired_total"))
	assert.Equal(t, 1.0, gatherValue(t, m, "sim_engine_ticks_total"))
	assert.Equal(t, 1.0, gatherValue(t, m, "sim_engine_tick_errors_total"))
	assert.Equal(t, 1.0, gatherValue(t, m, "sim_engine_quotes_generated_total"))
	assert.Equal(t, 1.0, gatherValue(t, m, "sim_engine_risk_rejects_total"))
	assert.Equal(t, 2.0, gatherValue(t, m, "sim_engine_trades_total"))
	assert.Equal(t, 35.0, gatherValue(t, m, "sim_engine_traded_volume_total"))
}

func TestMonitorGauges(t *testing.T) {
	m := New(DefaultConfig())

	m.UpdatePosition(-120)
	m.UpdateAvgPrice(2849.5)
	m.UpdateRealizedPnL(42.5)
	m.UpdateUnrealizedPnL(-3.2)
	m.UpdateMidPrice(2850.05)
	m.UpdateSpread(0.1)
	m.UpdateVolatility(0.0012)
	m.UpdateImbalance(-0.4)
	m.UpdateOpenOrders(4)
	m.UpdatePositionLimit(1000)

	assert.Equal(t, -120.0, gatherValue(t, m, "sim_engine_position"))
	assert.Equal(t, 2849.5, gatherValue(t, m, "sim_engine_avg_price"))
	assert.Equal(t, 42.5, gatherValue(t, m, "sim_engine_realized_pnl"))
	assert.Equal(t, -3.2, gatherValue(t, m, "sim_engine_unrealized_pnl"))
	assert.Equal(t, 2850.05, gatherValue(t, m, "sim_engine_mid_price"))
	assert.Equal(t, 0.1, gatherValue(t, m, "sim_engine_spread"))
	assert.Equal(t, 0.0012, gatherValue(t, m, "sim_engine_volatility"))
	assert.Equal(t, -0.4, gatherValue(t, m, "sim_engine_book_imbalance"))
	assert.Equal(t, 4.0, gatherValue(t, m, "sim_engine_open_orders"))
	assert.Equal(t, 1000.0, gatherValue(t, m, "sim_engine_position_limit"))
}

func TestMonitorHandler(t *testing.T) {
	m := New(DefaultConfig())
	m.RecordTick()

	rec := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/metrics", nil)
	m.Handler().ServeHTTP(rec, req)

	assert.Equal(t, 200, rec.Code)
	assert.Contains(t, rec.Body.String(), "sim_engine_ticks_total")
}

// 独立registry之间不应互相污染
func TestMonitorIndependentRegistries(t *testing.T) {
	a := New(DefaultConfig())
	b := New(DefaultConfig())

	a.RecordTick()
	a.RecordTick()
	b.RecordTick()

	assert.Equal(t, 2.0, gatherValue(t, a, "sim_engine_ticks_total"))
	assert.Equal(t, 1.0, gatherValue(t, b, "sim_engine_ticks_total"))
}
