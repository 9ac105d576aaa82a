package forecast

import (
	"fmt"

	"FinCast/internal/domain/models"
)

// Config holds the empirically tuned stabilization constants of the
// recursive loop. They were fitted on the default catalogue and are not
// assumed to generalize.
type Config struct {
	// MaxStepDelta bounds |raw prediction - previous price| in normalized units.
	MaxStepDelta float64
	// TrustHorizon is the step at which trust in the model reaches TrustFloor.
	TrustHorizon float64
	TrustFloor   float64
	// AnchorPull scales the pull back toward the starting price as trust decays.
	AnchorPull float64
	// DriftRate is the per-step pull of macro features toward their mean.
	DriftRate float64
	// FloorRatio is the lowest returned price as a fraction of the start price.
	FloorRatio float64
	// Decay damps the trusted delta per asset class; DefaultDecay covers the rest.
	Decay        map[models.AssetClass]float64
	DefaultDecay float64
	// MaxSteps caps a single run; 0 disables the cap.
	MaxSteps int
}

func DefaultConfig() Config {
	return Config{
		MaxStepDelta: 0.008,
		TrustHorizon: 365,
		TrustFloor:   0.05,
		AnchorPull:   0.01,
		DriftRate:    0.002,
		FloorRatio:   0.2,
		Decay: map[models.AssetClass]float64{
			models.ClassCrypto: 0.97,
		},
		DefaultDecay: 0.99,
	}
}

// DecayFor returns the damping constant for an asset class.
func (c Config) DecayFor(class models.AssetClass) float64 {
	if d, ok := c.Decay[class]; ok {
		return d
	}
	return c.DefaultDecay
}

// Trust is max(TrustFloor, 1 - step/TrustHorizon).
func (c Config) Trust(step int) float64 {
	t := 1 - float64(step)/c.TrustHorizon
	if t < c.TrustFloor {
		return c.TrustFloor
	}
	return t
}

func (c Config) Validate() error {
	if c.MaxStepDelta <= 0 {
		return fmt.Errorf("forecast config: max step delta must be positive")
	}
	if c.TrustHorizon <= 0 {
		return fmt.Errorf("forecast config: trust horizon must be positive")
	}
	if c.TrustFloor < 0 || c.TrustFloor > 1 {
		return fmt.Errorf("forecast config: trust floor must be in [0,1]")
	}
	if c.FloorRatio < 0 || c.FloorRatio >= 1 {
		return fmt.Errorf("forecast config: floor ratio must be in [0,1)")
	}
	if c.DefaultDecay <= 0 || c.DefaultDecay > 1 {
		return fmt.Errorf("forecast config: default decay must be in (0,1]")
	}
	for class, d := range c.Decay {
		if d <= 0 || d > 1 {
			return fmt.Errorf("forecast config: decay for %s must be in (0,1]", class)
		}
	}
	return nil
}
