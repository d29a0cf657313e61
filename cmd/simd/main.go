package main

import (
	"context"
	"fmt"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"market-sim-go/config"
	"market-sim-go/infrastructure/alert"
	"market-sim-go/infrastructure/logger"
	"market-sim-go/infrastructure/monitor"
	"market-sim-go/internal/engine"
	"market-sim-go/inventory"
	"market-sim-go/market"
	"market-sim-go/order"
	"market-sim-go/posttrade"
	"market-sim-go/risk"
	"market-sim-go/strategy"
)

var (
	cfgPath     string
	symbol      string
	seed        int64
	metricsAddr string
	watch       bool
)

func main() {
	root := &cobra.Command{
		Use:   "simd",
		Short: "单符号做市仿真引擎",
		Long:  "simd 运行一个合成行情上的做市仿真：GARCH波动率、盘口失衡、双边报价、概率成交与绩效统计。",
		RunE:  run,
	}

	root.Flags().StringVarP(&cfgPath, "config", "c", "", "配置文件路径，留空使用内置默认值")
	root.Flags().StringVarP(&symbol, "symbol", "s", "RELIANCE", "仿真符号")
	root.Flags().Int64Var(&seed, "seed", 0, "随机种子，0表示按时间播种")
	root.Flags().StringVar(&metricsAddr, "metrics-addr", "", "Prometheus监听地址，覆盖配置文件")
	root.Flags().BoolVar(&watch, "watch", false, "监听配置文件变化并热更新策略参数")

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	cfg := config.Default(symbol)
	if cfgPath != "" {
		loaded, err := config.Load(cfgPath)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = loaded
	}
	// 命令行优先于配置文件
	if cmd.Flags().Changed("symbol") {
		cfg.Engine.Symbol = symbol
		cfg.Market.BasePrice = market.BasePrice(symbol)
	}
	if cmd.Flags().Changed("seed") {
		cfg.Engine.Seed = seed
	}
	if cmd.Flags().Changed("metrics-addr") {
		cfg.Engine.MetricsAddr = metricsAddr
	}

	lg, err := logger.New(cfg.Logger)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer lg.Close()

	mon := monitor.New(cfg.Monitor)
	mon.UpdatePositionLimit(cfg.Risk.MaxPosition)

	alerts := alert.NewManager([]alert.Channel{
		alert.NewLoggerChannel("log", lg),
	}, 30*time.Second)

	registry, err := engine.NewRegistry(buildFactory(cfg, lg, mon, alerts))
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := registry.Start(ctx, cfg.Engine.Symbol); err != nil {
		return fmt.Errorf("start engine: %w", err)
	}

	if cfg.Engine.MetricsAddr != "" {
		go serveMetrics(cfg.Engine.MetricsAddr, mon, lg)
	}

	if watch && cfgPath != "" {
		w, err := config.NewWatcher(cfgPath, config.DefaultWatchConfig(), func(next config.AppConfig) {
			eng := registry.Engine()
			if eng == nil {
				return
			}
			if err := eng.ApplyStrategyParams(next.StrategyConfig()); err != nil {
				lg.Warn("hot reload rejected", zap.Error(err))
			}
		})
		if err != nil {
			return fmt.Errorf("init config watcher: %w", err)
		}
		if err := w.Start(ctx); err != nil {
			return fmt.Errorf("start config watcher: %w", err)
		}
		defer w.Stop()
	}

	// 等待退出信号
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigChan
	lg.Info("shutdown signal received", zap.String("signal", sig.String()))

	if err := registry.Stop(); err != nil {
		lg.Error("engine stop failed", zap.Error(err))
	}

	snap := registry.Snapshot()
	lg.Info("final state",
		zap.String("symbol", snap.Symbol),
		zap.Float64("last_price", snap.LastPrice),
		zap.Float64("position", snap.Position),
		zap.Float64("realized_pnl", snap.RealizedPnL),
		zap.Float64("unrealized_pnl", snap.UnrealizedPnL),
		zap.Int("trades", snap.TradeCount))

	return nil
}

// buildFactory 按配置组装一个引擎的全部组件。
func buildFactory(cfg config.AppConfig, lg *logger.Logger, mon *monitor.Monitor, alerts *alert.Manager) engine.Factory {
	return func(sym string) (*engine.SimEngine, error) {
		baseSeed := cfg.Engine.Seed
		if baseSeed == 0 {
			baseSeed = time.Now().UnixNano()
		}

		vol, err := market.NewVolatilityEstimator(cfg.VolatilityConfig())
		if err != nil {
			return nil, err
		}

		genCfg := cfg.GeneratorConfig()
		genCfg.Symbol = sym
		if genCfg.BasePrice <= 0 {
			genCfg.BasePrice = market.BasePrice(sym)
		}
		gen, err := market.NewGenerator(genCfg, vol, rand.New(rand.NewSource(baseSeed)))
		if err != nil {
			return nil, err
		}

		gate, err := risk.NewGate(cfg.GateConfig())
		if err != nil {
			return nil, err
		}

		quotes, err := strategy.NewQuoteEngine(cfg.StrategyConfig(), gate)
		if err != nil {
			return nil, err
		}

		ledger := inventory.NewLedger(cfg.LedgerConfig(), rand.New(rand.NewSource(baseSeed+1)))

		book, err := order.NewBook(cfg.BookConfig(), ledger, rand.New(rand.NewSource(baseSeed+2)))
		if err != nil {
			return nil, err
		}

		return engine.New(engine.Config{
			Symbol:           sym,
			TickInterval:     time.Duration(cfg.Engine.TickIntervalMs) * time.Millisecond,
			DecisionInterval: time.Duration(cfg.Engine.DecisionIntervalMs) * time.Millisecond,
		}, engine.Components{
			Generator:  gen,
			Volatility: vol,
			Imbalance:  market.NewImbalanceTracker(market.ImbalanceDepth, market.DefaultHistoryCap),
			Quotes:     quotes,
			Gate:       gate,
			Book:       book,
			Ledger:     ledger,
			Aggregator: posttrade.NewAggregator(),
			Logger:     lg,
			Monitor:    mon,
			Alerts:     alerts,
		})
	}
}

func serveMetrics(addr string, mon *monitor.Monitor, lg *logger.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", mon.Handler())
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	lg.Info("metrics server listening", zap.String("addr", addr))
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		lg.Error("metrics server failed", zap.Error(err))
	}
}
