package main

import (
	"fmt"
	"os"
	"sort"
	"text/tabwriter"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"FinCast/internal/domain/models"
)

var (
	steps       int
	strength    float64
	skipEnforce bool
)

var forecastCmd = &cobra.Command{
	Use:   "forecast ASSET",
	Short: "Forecast one asset without correlation enforcement",
	Args:  cobra.ExactArgs(1),
	RunE:  runForecast,
}

var batchCmd = &cobra.Command{
	Use:   "batch ASSET...",
	Short: "Forecast several assets and blend them toward the anchor",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runBatch,
}

var rangesCmd = &cobra.Command{
	Use:   "ranges ASSET...",
	Short: "Read every named horizon off one run per asset",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runRanges,
}

func init() {
	forecastCmd.Flags().IntVarP(&steps, "steps", "n", 21, "trading steps to forecast")
	batchCmd.Flags().IntVarP(&steps, "steps", "n", 21, "trading steps to forecast")
	batchCmd.Flags().Float64Var(&strength, "strength", -1, "enforcement strength in [0,1]; negative uses the config value")
	batchCmd.Flags().BoolVar(&skipEnforce, "skip-enforce", false, "return raw paths")
	rootCmd.AddCommand(forecastCmd, batchCmd, rangesCmd)
}

func runForecast(cmd *cobra.Command, args []string) error {
	e, err := loadEnv()
	if err != nil {
		return err
	}
	defer e.cleanup()

	res, err := e.forecasts.Forecast(cmd.Context(), args[0], steps)
	if err != nil {
		return err
	}
	if jsonOutput {
		return printJSON(os.Stdout, res)
	}
	printResults(map[string]models.ForecastResult{res.Asset: res})
	return nil
}

func runBatch(cmd *cobra.Command, args []string) error {
	e, err := loadEnv()
	if err != nil {
		return err
	}
	defer e.cleanup()

	req := models.BatchForecastRequest{Assets: args, Steps: steps, SkipEnforce: skipEnforce}
	if strength >= 0 {
		req.Strength = &strength
	}
	out, err := e.forecasts.Batch(cmd.Context(), req)
	if err != nil {
		return err
	}
	if jsonOutput {
		return printJSON(os.Stdout, out)
	}
	printResults(out.Results)
	for asset, msg := range out.Errors {
		fmt.Fprintf(os.Stderr, "%s: %s\n", asset, msg)
	}
	for _, n := range out.Notes {
		fmt.Fprintln(os.Stderr, n)
	}
	return nil
}

func runRanges(cmd *cobra.Command, args []string) error {
	e, err := loadEnv()
	if err != nil {
		return err
	}
	defer e.cleanup()

	rows := e.forecasts.RangesBatch(cmd.Context(), args)
	if jsonOutput {
		return printJSON(os.Stdout, rows)
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ASSET\tHORIZON\tSTEPS\tPRICE\tCHANGE%")
	for _, r := range rows {
		if r.Error != "" {
			fmt.Fprintf(w, "%s\t-\t-\t-\t%s\n", r.Asset, r.Error)
			continue
		}
		for _, p := range r.Ranges {
			fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%s\n", r.Asset, p.Label, p.Steps, money(p.Price), pct(r.Current, p.Price))
		}
	}
	return w.Flush()
}

func printResults(results map[string]models.ForecastResult) {
	assets := make([]string, 0, len(results))
	for a := range results {
		assets = append(assets, a)
	}
	sort.Strings(assets)

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ASSET\tCURRENT\tFINAL\tCHANGE%\tADJUSTED\tNOTE")
	for _, a := range assets {
		r := results[a]
		note := r.Error
		if note == "" && len(r.Notes) > 0 {
			note = r.Notes[0]
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%t\t%s\n", a, money(r.CurrentPrice), money(r.Predicted()), pct(r.CurrentPrice, r.Predicted()), r.Adjusted, note)
	}
	_ = w.Flush()
}

func money(v float64) string {
	return decimal.NewFromFloat(v).StringFixed(2)
}

func pct(from, to float64) string {
	if from == 0 {
		return "-"
	}
	return decimal.NewFromFloat((to - from) / from * 100).StringFixed(2)
}
