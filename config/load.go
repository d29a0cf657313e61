package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"market-sim-go/infrastructure/logger"
	"market-sim-go/infrastructure/monitor"
	"market-sim-go/inventory"
	"market-sim-go/market"
	"market-sim-go/order"
	"market-sim-go/risk"
	"market-sim-go/strategy"
)

// AppConfig holds the main runtime configuration.
type AppConfig struct {
	Engine    EngineConfig     `yaml:"engine"`
	Market    MarketConfig     `yaml:"market"`
	Strategy  StrategyConfig   `yaml:"strategy"`
	Risk      RiskConfig       `yaml:"risk"`
	Fill      FillConfig       `yaml:"fill"`
	Inventory InventoryConfig  `yaml:"inventory"`
	Logger    logger.Config    `yaml:"logger"`
	Monitor   monitor.Config   `yaml:"monitor"`
}

// EngineConfig 引擎循环配置
type EngineConfig struct {
	Symbol             string `yaml:"symbol"`
	TickIntervalMs     int    `yaml:"tickIntervalMs"`     // 每个仿真tick的间隔
	DecisionIntervalMs int    `yaml:"decisionIntervalMs"` // 报价决策的最小间隔
	Seed               int64  `yaml:"seed"`               // 0 表示按时间播种
	MetricsAddr        string `yaml:"metricsAddr"`        // 空字符串关闭指标服务
}

// MarketConfig 合成行情配置
type MarketConfig struct {
	BasePrice     float64          `yaml:"basePrice"` // 0 表示按符号查表
	TickSize      float64          `yaml:"tickSize"`
	BaseSpread    float64          `yaml:"baseSpread"`
	SpreadStdDev  float64          `yaml:"spreadStdDev"`
	Momentum      float64          `yaml:"momentum"`
	MeanReversion float64          `yaml:"meanReversion"`
	Damping       float64          `yaml:"damping"`
	Depth         int              `yaml:"depth"`
	LevelQtyMean  float64          `yaml:"levelQtyMean"`
	LevelQtyFloor float64          `yaml:"levelQtyFloor"`
	VolumeMin     int64            `yaml:"volumeMin"`
	VolumeMax     int64            `yaml:"volumeMax"`
	Volatility    VolatilityConfig `yaml:"volatility"`
}

// VolatilityConfig GARCH(1,1)参数
type VolatilityConfig struct {
	Omega   float64 `yaml:"omega"`
	Alpha   float64 `yaml:"alpha"`
	Beta    float64 `yaml:"beta"`
	Initial float64 `yaml:"initial"`
	Floor   float64 `yaml:"floor"`
	Ceiling float64 `yaml:"ceiling"`
}

// StrategyConfig 报价策略参数
type StrategyConfig struct {
	BaseSpread     float64 `yaml:"baseSpread"`
	MinProfit      float64 `yaml:"minProfit"`
	SkewFactor     float64 `yaml:"skewFactor"`
	MaxOrderSize   float64 `yaml:"maxOrderSize"`
	VolSpreadScale float64 `yaml:"volSpreadScale"`
	ImbSpreadScale float64 `yaml:"imbSpreadScale"`
	VolSizeScale   float64 `yaml:"volSizeScale"`
	MinVolFactor   float64 `yaml:"minVolFactor"`
	PosSizeScale   float64 `yaml:"posSizeScale"`
	MinPosFactor   float64 `yaml:"minPosFactor"`
}

// RiskConfig 风控参数
type RiskConfig struct {
	MaxPosition float64 `yaml:"maxPosition"`
	MaxDrawdown float64 `yaml:"maxDrawdown"`
	VarLookback int     `yaml:"varLookback"`
}

// FillConfig 模拟成交参数
type FillConfig struct {
	AcceptProb   float64 `yaml:"acceptProb"`
	SlippageProb float64 `yaml:"slippageProb"`
	TTLMs        int     `yaml:"ttlMs"`
	MaxOpen      int     `yaml:"maxOpen"`
}

// InventoryConfig 持仓账本参数
type InventoryConfig struct {
	SpreadCaptureEnabled bool    `yaml:"spreadCaptureEnabled"`
	SpreadCaptureMin     float64 `yaml:"spreadCaptureMin"`
	SpreadCaptureMax     float64 `yaml:"spreadCaptureMax"`
	InitialBalance       float64 `yaml:"initialBalance"`
}

// Default returns the full default configuration for the symbol.
func Default(symbol string) AppConfig {
	gen := market.DefaultGeneratorConfig(symbol)
	vol := market.DefaultVolatilityConfig()
	str := strategy.DefaultConfig()
	gate := risk.DefaultGateConfig()
	fill := order.DefaultFillConfig()
	inv := inventory.DefaultConfig()

	return AppConfig{
		Engine: EngineConfig{
			Symbol:             symbol,
			TickIntervalMs:     1,
			DecisionIntervalMs: 1,
			MetricsAddr:        ":9090",
		},
		Market: MarketConfig{
			BasePrice:     gen.BasePrice,
			TickSize:      gen.TickSize,
			BaseSpread:    gen.BaseSpread,
			SpreadStdDev:  gen.SpreadStdDev,
			Momentum:      gen.Momentum,
			MeanReversion: gen.MeanReversion,
			Damping:       gen.Damping,
			Depth:         gen.Depth,
			LevelQtyMean:  gen.LevelQtyMean,
			LevelQtyFloor: gen.LevelQtyFloor,
			VolumeMin:     gen.VolumeMin,
			VolumeMax:     gen.VolumeMax,
			Volatility: VolatilityConfig{
				Omega:   vol.Omega,
				Alpha:   vol.Alpha,
				Beta:    vol.Beta,
				Initial: vol.Initial,
				Floor:   vol.Floor,
				Ceiling: vol.Ceiling,
			},
		},
		Strategy: StrategyConfig{
			BaseSpread:     str.BaseSpread,
			MinProfit:      str.MinProfit,
			SkewFactor:     str.SkewFactor,
			MaxOrderSize:   str.MaxOrderSize,
			VolSpreadScale: str.VolSpreadScale,
			ImbSpreadScale: str.ImbSpreadScale,
			VolSizeScale:   str.VolSizeScale,
			MinVolFactor:   str.MinVolFactor,
			PosSizeScale:   str.PosSizeScale,
			MinPosFactor:   str.MinPosFactor,
		},
		Risk: RiskConfig{
			MaxPosition: gate.MaxPosition,
			MaxDrawdown: gate.MaxDrawdown,
			VarLookback: gate.VarLookback,
		},
		Fill: FillConfig{
			AcceptProb:   fill.AcceptProb,
			SlippageProb: fill.SlippageProb,
			TTLMs:        int(fill.TTL / time.Millisecond),
			MaxOpen:      fill.MaxOpen,
		},
		Inventory: InventoryConfig{
			SpreadCaptureEnabled: inv.SpreadCaptureEnabled,
			SpreadCaptureMin:     inv.SpreadCaptureMin,
			SpreadCaptureMax:     inv.SpreadCaptureMax,
			InitialBalance:       inv.InitialBalance,
		},
		Logger:  logger.DefaultConfig(),
		Monitor: monitor.DefaultConfig(),
	}
}

// Load reads YAML config from path, applies defaults for omitted
// sections, and validates the result.
func Load(path string) (AppConfig, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return AppConfig{}, fmt.Errorf("read config: %w", err)
	}

	// 先解析一遍取出symbol，再以该symbol的默认值为基底解析
	var probe struct {
		Engine struct {
			Symbol string `yaml:"symbol"`
		} `yaml:"engine"`
	}
	if err := yaml.Unmarshal(raw, &probe); err != nil {
		return AppConfig{}, fmt.Errorf("parse yaml: %w", err)
	}
	symbol := probe.Engine.Symbol
	if symbol == "" {
		symbol = "RELIANCE"
	}

	cfg := Default(symbol)
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return AppConfig{}, fmt.Errorf("parse yaml: %w", err)
	}
	if err := Validate(cfg); err != nil {
		return AppConfig{}, err
	}
	return cfg, nil
}

// GeneratorConfig maps the market section onto the generator.
func (c AppConfig) GeneratorConfig() market.GeneratorConfig {
	return market.GeneratorConfig{
		Symbol:        c.Engine.Symbol,
		BasePrice:     c.Market.BasePrice,
		TickSize:      c.Market.TickSize,
		BaseSpread:    c.Market.BaseSpread,
		SpreadStdDev:  c.Market.SpreadStdDev,
		Momentum:      c.Market.Momentum,
		MeanReversion: c.Market.MeanReversion,
		Damping:       c.Market.Damping,
		Depth:         c.Market.Depth,
		LevelQtyMean:  c.Market.LevelQtyMean,
		LevelQtyFloor: c.Market.LevelQtyFloor,
		VolumeMin:     c.Market.VolumeMin,
		VolumeMax:     c.Market.VolumeMax,
	}
}

// VolatilityConfig maps the market.volatility section onto the estimator.
func (c AppConfig) VolatilityConfig() market.VolatilityConfig {
	out := market.DefaultVolatilityConfig()
	out.Omega = c.Market.Volatility.Omega
	out.Alpha = c.Market.Volatility.Alpha
	out.Beta = c.Market.Volatility.Beta
	out.Initial = c.Market.Volatility.Initial
	out.Floor = c.Market.Volatility.Floor
	out.Ceiling = c.Market.Volatility.Ceiling
	return out
}

// StrategyConfig maps the strategy section onto the quote engine.
func (c AppConfig) StrategyConfig() strategy.Config {
	return strategy.Config{
		BaseSpread:     c.Strategy.BaseSpread,
		TickSize:       c.Market.TickSize,
		MinProfit:      c.Strategy.MinProfit,
		SkewFactor:     c.Strategy.SkewFactor,
		MaxOrderSize:   c.Strategy.MaxOrderSize,
		VolSpreadScale: c.Strategy.VolSpreadScale,
		ImbSpreadScale: c.Strategy.ImbSpreadScale,
		VolSizeScale:   c.Strategy.VolSizeScale,
		MinVolFactor:   c.Strategy.MinVolFactor,
		PosSizeScale:   c.Strategy.PosSizeScale,
		MinPosFactor:   c.Strategy.MinPosFactor,
	}
}

// GateConfig maps the risk section onto the gate.
func (c AppConfig) GateConfig() risk.GateConfig {
	return risk.GateConfig{
		MaxPosition: c.Risk.MaxPosition,
		MaxDrawdown: c.Risk.MaxDrawdown,
		VarLookback: c.Risk.VarLookback,
	}
}

// BookConfig maps the fill section onto the order book.
func (c AppConfig) BookConfig() order.FillConfig {
	return order.FillConfig{
		AcceptProb:   c.Fill.AcceptProb,
		SlippageProb: c.Fill.SlippageProb,
		TickSize:     c.Market.TickSize,
		TTL:          time.Duration(c.Fill.TTLMs) * time.Millisecond,
		MaxOpen:      c.Fill.MaxOpen,
	}
}

// LedgerConfig maps the inventory section onto the ledger.
func (c AppConfig) LedgerConfig() inventory.Config {
	out := inventory.DefaultConfig()
	out.SpreadCaptureEnabled = c.Inventory.SpreadCaptureEnabled
	out.SpreadCaptureMin = c.Inventory.SpreadCaptureMin
	out.SpreadCaptureMax = c.Inventory.SpreadCaptureMax
	out.InitialBalance = c.Inventory.InitialBalance
	return out
}
