package main

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"TradingEnv/config"
	"TradingEnv/internal/environ"
	"TradingEnv/internal/handlers"
	"TradingEnv/internal/metrics"
	"TradingEnv/internal/models"
	"TradingEnv/internal/operations/binance"
	"TradingEnv/internal/operations/price"
	"TradingEnv/internal/operations/rollout"
	"TradingEnv/internal/repositories"
	"TradingEnv/internal/services/strategy"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func newFetcher(cfg *config.Config, logger *zap.Logger) *price.Fetcher {
	client := binance.NewClient(cfg.Exchange.APIKey, cfg.Exchange.SecretKey, logger)
	return price.NewFetcher(client, logger)
}

func fetchCmd() *cobra.Command {
	var (
		symbols   []string
		timeframe string
		days      int
		follow    bool
	)

	cmd := &cobra.Command{
		Use:   "fetch",
		Short: "Download candles into the database",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := setup()
			if err != nil {
				return err
			}
			defer logger.Sync()

			if len(symbols) == 0 {
				symbols = cfg.Symbols
			}
			if timeframe == "" {
				timeframe = cfg.TimeFrame
			}
			if days <= 0 {
				days = cfg.HistoryDays
			}

			db, err := setupDatabase(cfg.Database)
			if err != nil {
				return err
			}
			priceRepo := repositories.NewPriceRepository(db)

			ctx, cancel := signalContext()
			defer cancel()

			fetcher := newFetcher(cfg, logger)
			priceHandler := handlers.NewPriceHandler(priceRepo, fetcher, logger)
			if follow {
				priceHandler.SetRecorder(price.NewRecorder(fetcher, priceRepo, symbols, logger))
			}
			if err := priceHandler.Start(ctx, symbols, []string{timeframe}, days); err != nil {
				return err
			}

			for _, symbol := range symbols {
				count, err := priceRepo.CountByTimeFrame(symbol, timeframe)
				if err != nil {
					return err
				}
				fmt.Printf("%s %s: %d bars stored\n", symbol, timeframe, count)
			}

			if follow {
				logger.Info("Price recording started, press Ctrl+C to stop")
				<-ctx.Done()
				logger.Info("Shutting down")
			}
			return nil
		},
	}

	cmd.Flags().StringSliceVarP(&symbols, "symbol", "s", nil, "Symbols to fetch (defaults to TRADING_SYMBOLS)")
	cmd.Flags().StringVar(&timeframe, "timeframe", "", "Candle timeframe (defaults to PRICE_TIMEFRAME)")
	cmd.Flags().IntVar(&days, "days", 0, "Days of history (defaults to HISTORY_DAYS)")
	cmd.Flags().BoolVarP(&follow, "follow", "f", false, "Keep recording new candles until interrupted")
	return cmd
}

func simulateCmd() *cobra.Command {
	var (
		symbol     string
		policyName string
		episodes   int
		reportPath string
		fetch      bool
	)

	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Play a policy against the trading simulator",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := setup()
			if err != nil {
				return err
			}
			defer logger.Sync()

			if symbol == "" {
				symbol = cfg.Symbols[0]
			}
			if policyName == "" {
				policyName = cfg.Rollout.Policy
			}
			if episodes <= 0 {
				episodes = cfg.Rollout.Episodes
			}

			db, err := setupDatabase(cfg.Database)
			if err != nil {
				return err
			}

			ctx, cancel := signalContext()
			defer cancel()

			var fetcher handlers.HistoryFetcher
			if fetch {
				fetcher = newFetcher(cfg, logger)
			}
			priceHandler := handlers.NewPriceHandler(repositories.NewPriceRepository(db), fetcher, logger)

			envCfg := environ.EnvConfig{
				BarsCount:     cfg.Env.BarsCount,
				Commission:    cfg.Env.Commission,
				ResetOnSell:   cfg.Env.ResetOnSell,
				RewardOnEmpty: cfg.Env.RewardOnEmpty,
				RandomOffset:  cfg.Env.RandomOffset,
				Encoding:      environ.Encoding(cfg.Env.Encoding),
			}
			minBars := envCfg.BarsCount + 2
			if envCfg.RandomOffset {
				minBars = envCfg.BarsCount*10 + 1
			}

			series, err := priceHandler.LoadSeries(ctx, symbol, cfg.TimeFrame, cfg.HistoryDays, minBars)
			if err != nil {
				return err
			}

			seed := cfg.Env.Seed
			if seed == 0 {
				seed = time.Now().UnixNano()
			}
			env, err := environ.NewEnv(series, envCfg, rand.New(rand.NewSource(seed)))
			if err != nil {
				return err
			}
			policy, err := strategy.New(policyName, rand.New(rand.NewSource(seed+1)), envCfg.Encoding)
			if err != nil {
				return err
			}

			registry := prometheus.NewRegistry()
			recorder, err := metrics.NewRecorder(registry)
			if err != nil {
				return err
			}
			if cfg.MetricsAddr != "" {
				server := serveMetrics(cfg.MetricsAddr, registry, logger)
				defer server.Shutdown(context.Background())
			}

			engine := rollout.NewEngine(env, policy, repositories.NewEpisodeRepository(db), logger, rollout.Config{
				Episodes:  episodes,
				MaxSteps:  cfg.Rollout.MaxSteps,
				Symbol:    symbol,
				TimeFrame: cfg.TimeFrame,
			})
			engine.SetMetrics(recorder)

			logger.Info("Running simulation",
				zap.String("symbol", symbol),
				zap.String("policy", policy.Name()),
				zap.Int64("seed", seed),
				zap.Ints("observation_shape", env.ObservationShape()))

			results, err := engine.Run(ctx)
			if err != nil {
				return err
			}
			printResults(results)

			if reportPath != "" {
				if err := rollout.WriteReport(reportPath, results); err != nil {
					return err
				}
				fmt.Printf("Report written to %s\n", reportPath)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&symbol, "symbol", "s", "", "Symbol to simulate (defaults to the first of TRADING_SYMBOLS)")
	cmd.Flags().StringVarP(&policyName, "policy", "p", "", "Policy: random, hold, empty, momentum or rsi (defaults to ROLLOUT_POLICY)")
	cmd.Flags().IntVarP(&episodes, "episodes", "n", 0, "Episodes to play (defaults to ROLLOUT_EPISODES)")
	cmd.Flags().StringVar(&reportPath, "report", "", "Write a YAML report to this path")
	cmd.Flags().BoolVar(&fetch, "fetch", false, "Download candles when too few are stored")
	return cmd
}

func serveMetrics(addr string, registry *prometheus.Registry, logger *zap.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	server := &http.Server{Addr: addr, Handler: mux}

	go func() {
		logger.Info("Serving metrics", zap.String("addr", addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Metrics server failed", zap.Error(err))
		}
	}()
	return server
}

func printResults(results *rollout.Results) {
	fmt.Println("\n=== Simulation Results ===")
	fmt.Printf("Policy: %s\n", results.Policy)
	fmt.Printf("Episodes: %d\n", results.Episodes)
	fmt.Printf("Mean Reward: %.4f\n", results.MeanReward)
	fmt.Printf("Best / Worst Reward: %.4f / %.4f\n", results.BestReward, results.WorstReward)
	fmt.Printf("Winning Episodes: %.2f%%\n", results.WinRate*100)
	fmt.Printf("Mean Steps: %.1f\n", results.MeanSteps)
	fmt.Printf("Sharpe Ratio: %.2f\n", results.SharpeRatio)
}

func episodesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "episodes",
		Short: "Inspect stored episodes",
	}

	var limit int
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List the most recent episodes",
		RunE: func(cmd *cobra.Command, args []string) error {
			repo, err := openEpisodes()
			if err != nil {
				return err
			}
			episodes, err := repo.FindRecent(limit)
			if err != nil {
				return err
			}
			for _, ep := range episodes {
				fmt.Printf("%s  %-8s %-10s steps=%-5d reward=%9.4f  %s\n",
					ep.RunID, ep.Symbol, ep.Policy, ep.Steps, ep.TotalReward, ep.DoneReason)
			}
			return nil
		},
	}
	listCmd.Flags().IntVarP(&limit, "limit", "l", 20, "Number of episodes to show")

	showCmd := &cobra.Command{
		Use:   "show <run-id>",
		Short: "Show one episode and its trades",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			repo, err := openEpisodes()
			if err != nil {
				return err
			}
			ep, err := repo.FindByRunID(args[0])
			if err != nil {
				return err
			}
			if ep == nil {
				return fmt.Errorf("episode %s not found", args[0])
			}
			fmt.Printf("Episode %s (%s %s, %s)\n", ep.RunID, ep.Symbol, ep.TimeFrame, ep.Policy)
			fmt.Printf("Offsets %d..%d, %d steps, reward %.4f, commission %.4f, %s\n",
				ep.StartOffset, ep.EndOffset, ep.Steps, ep.TotalReward, ep.Commission, ep.DoneReason)
			for _, t := range ep.Trades {
				fmt.Printf("  %-6s %d -> %d  %.4f -> %.4f  %+.3f%%\n",
					t.Status, t.EntryOffset, t.ExitOffset, t.EntryPrice, t.ExitPrice, t.Return)
			}
			return nil
		},
	}

	var policy, symbol string
	statsCmd := &cobra.Command{
		Use:   "stats",
		Short: "Summarize stored episodes of a policy",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := setup()
			if err != nil {
				return err
			}
			if policy == "" {
				policy = cfg.Rollout.Policy
			}
			if symbol == "" {
				symbol = cfg.Symbols[0]
			}
			db, err := setupDatabase(cfg.Database)
			if err != nil {
				return err
			}
			episodeRepo := repositories.NewEpisodeRepository(db)
			tradeRepo := repositories.NewTradeRepository(db)

			episodes, err := episodeRepo.FindByPolicy(policy, symbol)
			if err != nil {
				return err
			}
			avgReward, err := episodeRepo.GetAverageReward(policy)
			if err != nil {
				return err
			}
			closed, err := tradeRepo.CountByStatus(models.TradeStatusClosed)
			if err != nil {
				return err
			}
			avgReturn, err := tradeRepo.GetAverageReturn()
			if err != nil {
				return err
			}

			fmt.Printf("Policy %s on %s: %d episodes\n", policy, symbol, len(episodes))
			fmt.Printf("Average reward (all symbols): %.4f\n", avgReward)
			fmt.Printf("Closed trades (all policies): %d, average return %.3f%%\n", closed, avgReturn)
			return nil
		},
	}
	statsCmd.Flags().StringVarP(&policy, "policy", "p", "", "Policy name (defaults to ROLLOUT_POLICY)")
	statsCmd.Flags().StringVarP(&symbol, "symbol", "s", "", "Symbol (defaults to the first of TRADING_SYMBOLS)")

	cmd.AddCommand(listCmd, showCmd, statsCmd)
	return cmd
}

func openEpisodes() (*repositories.EpisodeRepository, error) {
	cfg, _, err := setup()
	if err != nil {
		return nil, err
	}
	db, err := setupDatabase(cfg.Database)
	if err != nil {
		return nil, err
	}
	return repositories.NewEpisodeRepository(db), nil
}
