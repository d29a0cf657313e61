package market

import (
	"math"
	"testing"
)

func TestNewVolatilityEstimatorValidation(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*VolatilityConfig)
		wantErr bool
	}{
		{"defaults ok", func(c *VolatilityConfig) {}, false},
		{"alpha+beta >= 1", func(c *VolatilityConfig) { c.Alpha = 0.3; c.Beta = 0.7 }, true},
		{"negative omega", func(c *VolatilityConfig) { c.Omega = -1 }, true},
		{"zero floor", func(c *VolatilityConfig) { c.Floor = 0 }, true},
		{"ceiling below floor", func(c *VolatilityConfig) { c.Ceiling = c.Floor / 2 }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultVolatilityConfig()
			tt.mutate(&cfg)
			_, err := NewVolatilityEstimator(cfg)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr = %v", err, tt.wantErr)
			}
		})
	}
}

func TestVolatilitySeedAndRecursion(t *testing.T) {
	cfg := DefaultVolatilityConfig()
	cfg.Ceiling = 10 // wide enough not to clamp in this test
	v, err := NewVolatilityEstimator(cfg)
	if err != nil {
		t.Fatal(err)
	}

	// First call stores the price and returns the seed volatility.
	got := v.Update(100)
	if got != cfg.Initial {
		t.Fatalf("seed vol = %v, want %v", got, cfg.Initial)
	}
	if len(v.Returns()) != 0 {
		t.Fatalf("no return should be produced on the seeding call")
	}

	// Second call: r = (101-100)/100 = 0.01.
	got = v.Update(101)
	ret := 0.01
	want := math.Sqrt(cfg.Omega + cfg.Alpha*ret*ret + cfg.Beta*cfg.Initial*cfg.Initial)
	if math.Abs(got-want) > 1e-12 {
		t.Fatalf("vol = %v, want %v", got, want)
	}
	if len(v.Returns()) != 1 {
		t.Fatalf("returns len = %d, want 1", len(v.Returns()))
	}
}

func TestVolatilityClamping(t *testing.T) {
	cfg := DefaultVolatilityConfig()
	v, err := NewVolatilityEstimator(cfg)
	if err != nil {
		t.Fatal(err)
	}

	v.Update(100)
	// Extreme jumps must never push the output outside [floor, ceiling].
	prices := []float64{100, 1e6, 1, 5e7, 100, 100, 100, 100, 100, 100, 100, 100}
	for _, p := range prices {
		vol := v.Update(p)
		if vol < cfg.Floor || vol > cfg.Ceiling {
			t.Fatalf("vol %v outside [%v, %v] after price %v", vol, cfg.Floor, cfg.Ceiling, p)
		}
	}
}

func TestVolatilityReset(t *testing.T) {
	v, err := NewVolatilityEstimator(DefaultVolatilityConfig())
	if err != nil {
		t.Fatal(err)
	}
	v.Update(100)
	v.Update(105)
	v.Reset()
	if len(v.Volatilities()) != 0 || len(v.Returns()) != 0 {
		t.Fatal("reset should drop histories")
	}
	if got := v.Update(50); got != DefaultVolatilityConfig().Initial {
		t.Fatalf("post-reset first update = %v, want seed", got)
	}
}
