package signal

import "FinCast/internal/domain/models"

// Stance is the policy posture implied by rate-futures probabilities.
type Stance string

const (
	StanceDovish  Stance = "dovish"
	StanceNeutral Stance = "neutral"
	StanceHawkish Stance = "hawkish"
)

// DovishScore maps cut/hold probabilities (0..1) onto 0..100; a hike counts zero.
func DovishScore(f models.FedReading) float64 {
	return f.ProbCut*100 + f.ProbHold*50
}

// StanceOf classifies a dovish score.
func StanceOf(score float64) Stance {
	switch {
	case score > 65:
		return StanceDovish
	case score < 35:
		return StanceHawkish
	default:
		return StanceNeutral
	}
}

// Bullish reports whether the stance supports risk and hard assets.
func (s Stance) Bullish() bool { return s == StanceDovish }

func (s Stance) Bearish() bool { return s == StanceHawkish }

// fedView resolves an optional reading; without one the market is priced
// as an even hold.
func fedView(f *models.FedReading) (float64, Stance) {
	if f == nil {
		return 50, StanceNeutral
	}
	score := DovishScore(*f)
	return score, StanceOf(score)
}
