package main

import (
	"fmt"
	"log"
	"os"

	"TradingEnv/config"
	"TradingEnv/internal/models"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var version = "0.1.0"

func main() {
	rootCmd := &cobra.Command{
		Use:   "tradingenv",
		Short: "Single-instrument trading simulator",
		Long: `tradingenv stores exchange candles, turns them into factor series and
plays trading policies against a long-or-flat simulator.`,
		SilenceUsage: true,
	}

	rootCmd.AddCommand(fetchCmd())
	rootCmd.AddCommand(simulateCmd())
	rootCmd.AddCommand(episodesCmd())
	rootCmd.AddCommand(versionCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("tradingenv version %s\n", version)
		},
	}
}

// setup loads and validates configuration and builds the logger.
func setup() (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, fmt.Errorf("invalid config: %w", err)
	}

	level, err := zapcore.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, nil, err
	}
	zapCfg := zap.NewProductionConfig()
	zapCfg.Level = zap.NewAtomicLevelAt(level)
	zapLogger, err := zapCfg.Build()
	if err != nil {
		log.Printf("Failed to initialize logger: %v", err)
		return nil, nil, err
	}
	return cfg, zapLogger, nil
}

func setupDatabase(dbConfig config.DatabaseConfig) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dbConfig.DSN()), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Error),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := db.AutoMigrate(&models.Price{}, &models.Episode{}, &models.Trade{}); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return db, nil
}
