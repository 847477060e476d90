package fair

import (
	"maps"
	"sync"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/safetyrisk/pkg/domain/model"
	"github.com/secmon-lab/safetyrisk/pkg/domain/types"
)

// Registry is an immutable, ordered catalog of safety features.
type Registry struct {
	features []model.SafetyFeature
	byID     map[types.FeatureID]int
	byName   map[string]int
}

// NewRegistry validates features and builds a registry that keeps their order.
// IDs and names must be unique.
func NewRegistry(features ...model.SafetyFeature) (*Registry, error) {
	if len(features) == 0 {
		return nil, goerr.Wrap(model.ErrInvalidConfiguration, "feature registry must not be empty")
	}

	r := &Registry{
		features: make([]model.SafetyFeature, 0, len(features)),
		byID:     make(map[types.FeatureID]int, len(features)),
		byName:   make(map[string]int, len(features)),
	}

	for _, f := range features {
		if err := f.Validate(); err != nil {
			return nil, model.AsInvalidConfiguration(goerr.Wrap(err, "invalid safety feature"))
		}
		if _, ok := r.byID[f.ID]; ok {
			return nil, goerr.Wrap(model.ErrInvalidConfiguration, "duplicate feature ID", goerr.V("id", f.ID))
		}
		if _, ok := r.byName[f.Name]; ok {
			return nil, goerr.Wrap(model.ErrInvalidConfiguration, "duplicate feature name", goerr.V(model.FeatureKey, f.Name))
		}

		idx := len(r.features)
		r.features = append(r.features, copyFeature(f))
		r.byID[f.ID] = idx
		r.byName[f.Name] = idx
	}

	return r, nil
}

var defaultRegistry = sync.OnceValue(func() *Registry {
	r, err := NewRegistry(catalog()...)
	if err != nil {
		panic(err)
	}
	return r
})

// DefaultRegistry returns the built-in ride-share safety feature catalog.
func DefaultRegistry() *Registry {
	return defaultRegistry()
}

// Len returns the number of features.
func (r *Registry) Len() int {
	return len(r.features)
}

// Features returns copies of all features in registry order.
func (r *Registry) Features() []model.SafetyFeature {
	out := make([]model.SafetyFeature, len(r.features))
	for i, f := range r.features {
		out[i] = copyFeature(f)
	}
	return out
}

// Lookup finds a feature by display name or ID.
func (r *Registry) Lookup(nameOrID string) (*model.SafetyFeature, error) {
	idx, ok := r.index(nameOrID)
	if !ok {
		return nil, goerr.Wrap(model.ErrUnknownFeature, "feature is not registered",
			goerr.V(model.FeatureKey, nameOrID))
	}
	f := copyFeature(r.features[idx])
	return &f, nil
}

// Index returns the registry position of a feature by name or ID.
func (r *Registry) Index(nameOrID string) (int, bool) {
	return r.index(nameOrID)
}

func (r *Registry) index(nameOrID string) (int, bool) {
	if idx, ok := r.byName[nameOrID]; ok {
		return idx, true
	}
	idx, ok := r.byID[types.FeatureID(nameOrID)]
	return idx, ok
}

func copyFeature(f model.SafetyFeature) model.SafetyFeature {
	f.Adjustment.Factors = maps.Clone(f.Adjustment.Factors)
	if f.Adjustment.PrimaryLoss != nil {
		pl := *f.Adjustment.PrimaryLoss
		f.Adjustment.PrimaryLoss = &pl
	}
	return f
}
