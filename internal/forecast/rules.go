package forecast

import (
	"fmt"

	"FinCast/internal/domain/models"
	domsvc "FinCast/internal/domain/service"
)

// plan is the per-run, pre-resolved form of every feature's update rule in
// normalized units.
type plan struct {
	kinds []models.RuleKind
	alpha []float64 // smoothing factor, RuleSmoothed
	mean  []float64 // normalized historical mean, RuleDrifting
	tick  []float64 // one day in normalized units, RuleCountdown
	floor []float64 // normalized zero, RuleCountdown
	drift float64
}

// newPlan resolves rules against the normalizer. Countdown ticks are derived
// by pushing the raw means, means+1 day and a zeroed countdown row through
// the forward transform together with the means themselves.
func newPlan(profile models.AssetProfile, rawMeans []float64, norm domsvc.Normalizer, drift float64) (*plan, []float64, error) {
	n := profile.NumFeatures()
	p := &plan{
		kinds: make([]models.RuleKind, n),
		alpha: make([]float64, n),
		mean:  make([]float64, n),
		tick:  make([]float64, n),
		floor: make([]float64, n),
		drift: drift,
	}

	plusDay := make([]float64, n)
	zeroed := make([]float64, n)
	copy(plusDay, rawMeans)
	copy(zeroed, rawMeans)
	for j, f := range profile.Features {
		p.kinds[j] = f.Rule.Kind
		switch f.Rule.Kind {
		case models.RuleSmoothed:
			p.alpha[j] = f.Rule.Alpha()
		case models.RuleCountdown:
			plusDay[j] = rawMeans[j] + 1
			zeroed[j] = 0
		}
	}

	out, err := norm.Forward([][]float64{rawMeans, plusDay, zeroed})
	if err != nil {
		return nil, nil, fmt.Errorf("normalize means: %w", err)
	}
	if len(out) != 3 {
		return nil, nil, fmt.Errorf("normalize means: expected 3 rows, got %d", len(out))
	}
	normMeans := out[0]
	copy(p.mean, normMeans)
	for j, k := range p.kinds {
		if k == models.RuleCountdown {
			p.tick[j] = out[1][j] - out[0][j]
			p.floor[j] = out[2][j]
		}
	}
	return p, normMeans, nil
}

// apply writes the next frame into dst from prev. dst and prev may alias;
// every column reads its old value before writing.
func (p *plan) apply(dst, prev []float64, price float64) {
	for j, k := range p.kinds {
		old := prev[j]
		switch k {
		case models.RulePrice:
			dst[j] = price
		case models.RuleSmoothed:
			a := p.alpha[j]
			dst[j] = price*a + old*(1-a)
		case models.RuleCountdown:
			v := old - p.tick[j]
			if v < p.floor[j] {
				v = p.floor[j]
			}
			dst[j] = v
		case models.RuleDrifting:
			dst[j] = old + (p.mean[j]-old)*p.drift
		default:
			dst[j] = old
		}
	}
}
