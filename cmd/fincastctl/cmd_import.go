package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"FinCast/internal/di"
	"FinCast/internal/repository"
)

var importCmd = &cobra.Command{
	Use:   "import ASSET...",
	Short: "Load CSV histories from data.dir into ClickHouse feature_rows",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runImport,
}

func init() {
	rootCmd.AddCommand(importCmd)
}

func runImport(cmd *cobra.Command, args []string) error {
	e, err := loadEnv()
	if err != nil {
		return err
	}
	defer e.cleanup()

	e.cfg.ClickHouse.Enabled = true
	ch, cleanup, err := di.ProvideClickHouseClient(e.cfg, e.l)
	if err != nil {
		return err
	}
	defer cleanup()

	src := repository.NewCSVSeriesStore(e.cfg.Data.Dir, e.l)
	dst := repository.NewCHSeriesStore(ch.DB(), e.cfg.ClickHouse.Database, e.l)
	for _, asset := range args {
		profile, err := e.forecasts.Profile(asset)
		if err != nil {
			return err
		}
		series, err := src.Series(cmd.Context(), profile)
		if err != nil {
			return fmt.Errorf("read %s: %w", asset, err)
		}
		n, err := dst.Import(cmd.Context(), profile, series)
		if err != nil {
			return fmt.Errorf("import %s: %w", asset, err)
		}
		fmt.Printf("%s: %d rows (%d days)\n", asset, n, series.Len())
	}
	return nil
}
