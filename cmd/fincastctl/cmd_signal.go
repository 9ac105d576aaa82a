package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"FinCast/internal/di"
	"FinCast/internal/domain/models"
	"FinCast/internal/usecase"
)

var (
	vix, dxy, yield10y          float64
	probCut, probHold, probHike float64
)

var signalCmd = &cobra.Command{
	Use:   "signal ASSET",
	Short: "Generate a trading signal from the forecast and macro readings",
	Long: `Generate a BUY, SELL or HOLD signal. Macro flags override the DXY, VIX and
10Y yield found in the latest history row; an omitted Fed reading is neutral.

Examples:
  fincastctl signal gold --vix 22 --dxy 101 --yield 4.1
  fincastctl signal btc --cut 0.6 --hold 0.3 --hike 0.1`,
	Args: cobra.ExactArgs(1),
	RunE: runSignal,
}

func init() {
	f := signalCmd.Flags()
	f.Float64Var(&vix, "vix", 0, "VIX level")
	f.Float64Var(&dxy, "dxy", 0, "dollar index level")
	f.Float64Var(&yield10y, "yield", 0, "10 year treasury yield")
	f.Float64Var(&probCut, "cut", 0, "probability of a rate cut")
	f.Float64Var(&probHold, "hold", 0, "probability of a hold")
	f.Float64Var(&probHike, "hike", 0, "probability of a hike")
	rootCmd.AddCommand(signalCmd)
}

func runSignal(cmd *cobra.Command, args []string) error {
	e, err := loadEnv()
	if err != nil {
		return err
	}
	defer e.cleanup()

	gen, err := di.ProvideSignalGenerator(e.cfg, e.l)
	if err != nil {
		return err
	}
	uc := usecase.NewSignalUseCase(usecase.SignalConfig{WeekSteps: e.cfg.Signal.WeekSteps}, e.forecasts, gen,
		usecase.WithSignalLogger(e.l))

	req := models.SignalRequest{Asset: args[0]}
	if vix > 0 || dxy > 0 || yield10y > 0 {
		req.Macro = &models.MacroReading{VIX: vix, DXY: dxy, Yield10Y: yield10y}
	}
	if probCut+probHold+probHike > 0 {
		req.Fed = &models.FedReading{ProbCut: probCut, ProbHold: probHold, ProbHike: probHike}
	}
	sig, err := uc.Generate(cmd.Context(), req)
	if err != nil {
		return err
	}
	if jsonOutput {
		return printJSON(os.Stdout, sig)
	}
	fmt.Printf("%s %s  confidence %.0f%%\n", sig.Asset, sig.Direction, sig.Confidence*100)
	fmt.Printf("entry %s  target %s  stop %s  r/r %.2f\n", money(sig.EntryPrice), money(sig.TargetPrice), money(sig.StopLoss), sig.RiskReward)
	if len(sig.Reasons) > 0 {
		fmt.Println("  - " + strings.Join(sig.Reasons, "\n  - "))
	}
	return nil
}
