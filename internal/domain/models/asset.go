package models

import (
	"fmt"
	"strconv"
	"strings"
)

// AssetClass selects damping constants and the macro rule applied to an asset.
type AssetClass string

const (
	ClassMetal  AssetClass = "metal"
	ClassCrypto AssetClass = "crypto"
	ClassEquity AssetClass = "equity"
	ClassIndex  AssetClass = "index"
)

// RuleKind tags how a feature evolves during a recursive forecast.
type RuleKind uint8

const (
	RulePrice RuleKind = iota
	RuleSmoothed
	RuleCountdown
	RuleDrifting
)

func (k RuleKind) String() string {
	switch k {
	case RulePrice:
		return "price"
	case RuleSmoothed:
		return "smoothed"
	case RuleCountdown:
		return "countdown"
	case RuleDrifting:
		return "drifting"
	default:
		return "unknown"
	}
}

// FeatureRule is resolved once per profile so the forecast loop never
// dispatches on feature names.
type FeatureRule struct {
	Kind   RuleKind
	Window int // smoothing window, RuleSmoothed only
}

// Alpha is the exponential smoothing factor 2/(window+1).
func (r FeatureRule) Alpha() float64 {
	if r.Window <= 0 {
		return 1
	}
	return 2 / (float64(r.Window) + 1)
}

type FeatureSpec struct {
	Name string
	Rule FeatureRule
}

// AssetProfile is the static descriptor of one instrument. Features[0] is
// always the instrument's own price.
type AssetProfile struct {
	ID             string
	Name           string
	Class          AssetClass
	Features       []FeatureSpec
	SequenceLength int
}

// ResolveRule maps a feature name onto its update rule. Names of the form
// EMA_<n> smooth toward price, countdown names tick down once per day, and
// everything else drifts toward its historical mean.
func ResolveRule(name string) FeatureRule {
	upper := strings.ToUpper(name)
	if strings.HasPrefix(upper, "EMA_") {
		if w, err := strconv.Atoi(upper[len("EMA_"):]); err == nil && w > 0 {
			return FeatureRule{Kind: RuleSmoothed, Window: w}
		}
	}
	if upper == "HALVING_CYCLE" || strings.HasSuffix(upper, "_COUNTDOWN") || strings.HasPrefix(upper, "DAYS_TO_") {
		return FeatureRule{Kind: RuleCountdown}
	}
	return FeatureRule{Kind: RuleDrifting}
}

// NewAssetProfile builds a validated profile from ordered feature names.
func NewAssetProfile(id, name string, class AssetClass, features []string, sequenceLength int) (AssetProfile, error) {
	p := AssetProfile{
		ID:             id,
		Name:           name,
		Class:          class,
		SequenceLength: sequenceLength,
		Features:       make([]FeatureSpec, len(features)),
	}
	if p.Name == "" {
		p.Name = id
	}
	for i, f := range features {
		rule := ResolveRule(f)
		if i == 0 {
			rule = FeatureRule{Kind: RulePrice}
		}
		p.Features[i] = FeatureSpec{Name: f, Rule: rule}
	}
	if err := p.Validate(); err != nil {
		return AssetProfile{}, err
	}
	return p, nil
}

func (p AssetProfile) Validate() error {
	if p.ID == "" {
		return fmt.Errorf("asset profile: id is required")
	}
	if len(p.Features) == 0 {
		return fmt.Errorf("asset profile %s: at least one feature is required", p.ID)
	}
	if p.Features[0].Rule.Kind != RulePrice {
		return fmt.Errorf("asset profile %s: feature 0 must be the price", p.ID)
	}
	if p.SequenceLength <= 0 {
		return fmt.Errorf("asset profile %s: sequence length must be positive", p.ID)
	}
	switch p.Class {
	case ClassMetal, ClassCrypto, ClassEquity, ClassIndex:
	default:
		return fmt.Errorf("asset profile %s: unknown class %q", p.ID, p.Class)
	}
	return nil
}

func (p AssetProfile) NumFeatures() int { return len(p.Features) }

func (p AssetProfile) FeatureNames() []string {
	out := make([]string, len(p.Features))
	for i, f := range p.Features {
		out[i] = f.Name
	}
	return out
}

// FeatureIndex returns the column of a named feature or -1.
func (p AssetProfile) FeatureIndex(name string) int {
	for i, f := range p.Features {
		if strings.EqualFold(f.Name, name) {
			return i
		}
	}
	return -1
}
