package usecase

import (
	"fmt"

	"FinCast/internal/domain/models"
	"FinCast/pkg/config"
)

const defaultSequenceLength = 60

// BuildCatalogue applies config overrides on top of base. Known ids keep any
// field the override leaves empty; new ids must list their features.
func BuildCatalogue(base map[string]models.AssetProfile, overrides []config.AssetConfig) (map[string]models.AssetProfile, error) {
	out := make(map[string]models.AssetProfile, len(base)+len(overrides))
	for id, p := range base {
		out[id] = p
	}
	for _, o := range overrides {
		cur, known := out[o.ID]
		name, class, seq := o.Name, models.AssetClass(o.Class), o.SequenceLength
		features := o.Features
		if known {
			if name == "" {
				name = cur.Name
			}
			if class == "" {
				class = cur.Class
			}
			if seq == 0 {
				seq = cur.SequenceLength
			}
			if len(features) == 0 {
				features = cur.FeatureNames()
			}
		} else {
			if len(features) == 0 {
				return nil, fmt.Errorf("asset %s: features are required for a new asset", o.ID)
			}
			if class == "" {
				class = models.ParseAssetClass(o.Class)
			}
			if seq == 0 {
				seq = defaultSequenceLength
			}
		}
		p, err := models.NewAssetProfile(o.ID, name, class, features, seq)
		if err != nil {
			return nil, err
		}
		out[o.ID] = p
	}
	return out, nil
}
