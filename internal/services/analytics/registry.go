package analytics

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"FinCast/internal/domain/models"
	domsvc "FinCast/internal/domain/service"
	"FinCast/pkg/config"
	applogger "FinCast/pkg/logger"
)

// Registry resolves per-asset regressors and normalizers from config and the
// artifact directory, loading each artifact once.
type Registry struct {
	cfg      *config.Config
	profiles map[string]models.AssetProfile
	paths    map[string]artifactPaths
	base     *HTTPServiceBase
	l        *applogger.Logger

	mu          sync.Mutex
	regressors  map[string]domsvc.Regressor
	normalizers map[string]domsvc.Normalizer
	closers     []func()
}

type artifactPaths struct {
	model      string
	normalizer string
}

func NewRegistry(cfg *config.Config, profiles map[string]models.AssetProfile, l *applogger.Logger) *Registry {
	r := &Registry{
		cfg:         cfg,
		profiles:    profiles,
		paths:       make(map[string]artifactPaths, len(profiles)),
		l:           l,
		regressors:  make(map[string]domsvc.Regressor),
		normalizers: make(map[string]domsvc.Normalizer),
	}
	for id := range profiles {
		r.paths[id] = artifactPaths{
			model:      filepath.Join(cfg.Model.ArtifactDir, id+".onnx"),
			normalizer: filepath.Join(cfg.Model.ArtifactDir, id+"_scaler.json"),
		}
	}
	for _, a := range cfg.Assets {
		p := r.paths[a.ID]
		if a.ModelPath != "" {
			p.model = a.ModelPath
		}
		if a.NormalizerPath != "" {
			p.normalizer = a.NormalizerPath
		}
		r.paths[a.ID] = p
	}
	if cfg.Model.Backend == "http" {
		r.base = NewHTTPServiceBase(cfg, l)
	}
	return r
}

func (r *Registry) Regressor(asset string) (domsvc.Regressor, error) {
	profile, ok := r.profiles[asset]
	if !ok {
		return nil, fmt.Errorf("%w: %s", models.ErrUnknownAsset, asset)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if reg, ok := r.regressors[asset]; ok {
		return reg, nil
	}

	var reg domsvc.Regressor
	switch r.cfg.Model.Backend {
	case "onnx":
		if err := InitializeORT(r.cfg.Model.ONNXLibrary); err != nil {
			return nil, fmt.Errorf("%w: onnxruntime: %v", models.ErrModelUnavailable, err)
		}
		path := r.paths[asset].model
		if _, err := os.Stat(path); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", models.ErrModelUnavailable, asset, err)
		}
		m, err := NewONNXRegressor(path, profile.SequenceLength, profile.NumFeatures())
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", models.ErrModelUnavailable, asset, err)
		}
		r.closers = append(r.closers, m.Close)
		reg = m
	default:
		if r.base == nil || r.cfg.Model.ServiceURL == "" {
			return nil, fmt.Errorf("%w: no model service configured", models.ErrModelUnavailable)
		}
		reg = NewHTTPRegressor(r.base, asset)
	}
	r.regressors[asset] = reg
	r.l.Info("regressor loaded", applogger.String("asset", asset), applogger.String("backend", r.cfg.Model.Backend))
	return reg, nil
}

func (r *Registry) Normalizer(asset string) (domsvc.Normalizer, error) {
	profile, ok := r.profiles[asset]
	if !ok {
		return nil, fmt.Errorf("%w: %s", models.ErrUnknownAsset, asset)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if n, ok := r.normalizers[asset]; ok {
		return n, nil
	}

	path := r.paths[asset].normalizer
	n, err := LoadMinMaxNormalizer(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s: no scaler at %s", models.ErrNormalizerUnavailable, asset, path)
		}
		return nil, fmt.Errorf("%w: %s: %v", models.ErrNormalizerUnavailable, asset, err)
	}
	if n.NumFeatures() != profile.NumFeatures() {
		return nil, fmt.Errorf("%w: %s scaler has %d features, profile has %d",
			models.ErrNormalizerUnavailable, asset, n.NumFeatures(), profile.NumFeatures())
	}
	r.normalizers[asset] = n
	return n, nil
}

// Close releases in-process model sessions.
func (r *Registry) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.closers {
		c()
	}
	r.closers = nil
	r.regressors = make(map[string]domsvc.Regressor)
}

var _ domsvc.ModelRegistry = (*Registry)(nil)
