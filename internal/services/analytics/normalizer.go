package analytics

import (
	"encoding/json"
	"fmt"
	"os"

	domsvc "FinCast/internal/domain/service"
)

// MinMaxParams are the fitted parameters of a per-column min-max scaler, in
// the layout the training pipeline exports.
type MinMaxParams struct {
	DataMin      []float64  `json:"data_min"`
	DataMax      []float64  `json:"data_max"`
	FeatureRange [2]float64 `json:"feature_range"`
}

// MinMaxNormalizer maps each column of [min, max] onto FeatureRange. Columns
// with no range are shifted but not scaled.
type MinMaxNormalizer struct {
	lo, hi float64
	min    []float64
	scale  []float64
}

func NewMinMaxNormalizer(p MinMaxParams) (*MinMaxNormalizer, error) {
	if len(p.DataMin) == 0 || len(p.DataMin) != len(p.DataMax) {
		return nil, fmt.Errorf("normalizer: %d minima for %d maxima", len(p.DataMin), len(p.DataMax))
	}
	lo, hi := p.FeatureRange[0], p.FeatureRange[1]
	if lo == 0 && hi == 0 {
		hi = 1
	}
	if hi <= lo {
		return nil, fmt.Errorf("normalizer: feature range [%v, %v] is empty", lo, hi)
	}
	n := &MinMaxNormalizer{lo: lo, hi: hi, min: p.DataMin, scale: make([]float64, len(p.DataMin))}
	for j := range p.DataMin {
		span := p.DataMax[j] - p.DataMin[j]
		if span == 0 {
			span = 1
		}
		n.scale[j] = (hi - lo) / span
	}
	return n, nil
}

// LoadMinMaxNormalizer reads fitted params from a JSON file.
func LoadMinMaxNormalizer(path string) (*MinMaxNormalizer, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var p MinMaxParams
	if err := json.Unmarshal(b, &p); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return NewMinMaxNormalizer(p)
}

func (n *MinMaxNormalizer) NumFeatures() int { return len(n.min) }

func (n *MinMaxNormalizer) Forward(rows [][]float64) ([][]float64, error) {
	return n.mapRows(rows, func(j int, v float64) float64 {
		return (v-n.min[j])*n.scale[j] + n.lo
	})
}

func (n *MinMaxNormalizer) Inverse(rows [][]float64) ([][]float64, error) {
	return n.mapRows(rows, func(j int, v float64) float64 {
		return (v-n.lo)/n.scale[j] + n.min[j]
	})
}

func (n *MinMaxNormalizer) mapRows(rows [][]float64, f func(j int, v float64) float64) ([][]float64, error) {
	width := len(n.min)
	slab := make([]float64, len(rows)*width)
	out := make([][]float64, len(rows))
	for i, r := range rows {
		if len(r) != width {
			return nil, fmt.Errorf("normalizer: row %d has %d features, want %d", i, len(r), width)
		}
		row := slab[i*width : (i+1)*width : (i+1)*width]
		for j, v := range r {
			row[j] = f(j, v)
		}
		out[i] = row
	}
	return out, nil
}

var _ domsvc.Normalizer = (*MinMaxNormalizer)(nil)
