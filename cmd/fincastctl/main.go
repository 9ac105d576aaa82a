package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"FinCast/internal/di"
	"FinCast/internal/usecase"
	"FinCast/pkg/config"
	applogger "FinCast/pkg/logger"
)

var (
	configPath string
	jsonOutput bool
	verbose    bool
)

var rootCmd = &cobra.Command{
	Use:   "fincastctl",
	Short: "Offline forecasts, signals and data loading",
	Long: `fincastctl runs the forecast engine against the configured data source
without starting the API.

Examples:
  fincastctl forecast gold --steps 30
  fincastctl batch SPY QQQ NVDA --steps 21 --strength 0.5
  fincastctl ranges btc
  fincastctl signal gold --vix 18 --dxy 103
  fincastctl import gold btc SPY`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "config/config.yaml", "config file path")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "print JSON instead of tables")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log to stderr")
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}

// env is what every subcommand needs.
type env struct {
	cfg       *config.Config
	l         *applogger.Logger
	forecasts *usecase.ForecastUseCase
	cleanup   func()
}

// loadEnv builds forecasting over the configured series store. Persistence
// and the cache stay out of the offline path.
func loadEnv() (*env, error) {
	cfg, err := config.LoadWithEnv(configPath)
	if err != nil {
		return nil, err
	}
	l := applogger.Nop()
	if verbose {
		l = applogger.NewWriter(os.Stderr)
	}

	catalogue, err := di.ProvideCatalogue(cfg)
	if err != nil {
		return nil, err
	}
	ch, chCleanup, err := di.ProvideClickHouseClient(cfg, l)
	if err != nil {
		return nil, err
	}
	series, err := di.ProvideSeriesStore(cfg, ch, l)
	if err != nil {
		chCleanup()
		return nil, err
	}
	registry, regCleanup, err := di.ProvideRegistry(cfg, catalogue, l)
	if err != nil {
		chCleanup()
		return nil, err
	}
	engine, err := di.ProvideEngine(cfg, l)
	if err != nil {
		regCleanup()
		chCleanup()
		return nil, err
	}

	forecasts := usecase.NewForecastUseCase(usecase.ForecastConfig{
		Anchor:       cfg.Correlation.Anchor,
		Lookback:     cfg.Correlation.Lookback,
		MinOverlap:   cfg.Correlation.MinOverlap,
		Strength:     cfg.Correlation.Strength,
		BatchTimeout: cfg.Forecast.BatchTimeout,
	}, catalogue, series, registry, engine, usecase.WithForecastLogger(l))

	return &env{
		cfg:       cfg,
		l:         l,
		forecasts: forecasts,
		cleanup: func() {
			regCleanup()
			chCleanup()
		},
	}, nil
}

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	return nil
}
