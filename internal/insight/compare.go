package insight

import (
	"fmt"
	"sort"

	"FinCast/internal/domain/models"
	"FinCast/internal/services/features"
)

// Compare ranks assets by expected change from their current price. Assets
// without a current price are measured from the first forecast point.
func Compare(paths map[string]models.ForecastPath, current map[string]float64) (models.Comparison, error) {
	rankings := make([]models.Ranking, 0, len(paths))
	for asset, p := range paths {
		if len(p) == 0 {
			continue
		}
		base, ok := current[asset]
		if !ok || base <= 0 {
			base = p[0]
		}
		rankings = append(rankings, models.Ranking{Asset: asset, ChangePct: features.ChangePct(base, p.Last())})
	}
	if len(rankings) == 0 {
		return models.Comparison{}, fmt.Errorf("%w: no forecasts to compare", models.ErrInvalidInput)
	}
	sort.SliceStable(rankings, func(i, j int) bool {
		if rankings[i].ChangePct != rankings[j].ChangePct {
			return rankings[i].ChangePct > rankings[j].ChangePct
		}
		return rankings[i].Asset < rankings[j].Asset
	})

	best, worst := rankings[0], rankings[len(rankings)-1]
	return models.Comparison{
		Rankings: rankings,
		Best:     best.Asset,
		Worst:    worst.Asset,
		Summary: fmt.Sprintf("Best outlook: %s (%+.1f%%). Weakest: %s (%+.1f%%).",
			best.Asset, best.ChangePct, worst.Asset, worst.ChangePct),
	}, nil
}
