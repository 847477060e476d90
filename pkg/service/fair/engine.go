package fair

import (
	"context"
	"math/rand/v2"
	"runtime"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/safetyrisk/pkg/domain/model"
	"github.com/secmon-lab/safetyrisk/pkg/domain/types"
	"github.com/secmon-lab/safetyrisk/pkg/utils/logging"
	"golang.org/x/sync/errgroup"
)

// Engine runs FAIR Monte Carlo analyses over a feature registry.
type Engine struct {
	registry *Registry
	seed     *uint64
	workers  int
}

// Option is a functional option for Engine configuration
type Option func(*Engine)

// WithRegistry replaces the built-in feature catalog
func WithRegistry(r *Registry) Option {
	return func(e *Engine) {
		e.registry = r
	}
}

// WithSeed fixes the random seed so results are reproducible
func WithSeed(seed uint64) Option {
	return func(e *Engine) {
		e.seed = &seed
	}
}

// WithWorkers bounds the number of features (or sweep points) computed
// concurrently. Values below 1 mean GOMAXPROCS.
func WithWorkers(n int) Option {
	return func(e *Engine) {
		e.workers = n
	}
}

// New creates an Engine. Without WithSeed every analysis draws a fresh seed
// and records it in the report.
func New(opts ...Option) *Engine {
	e := &Engine{}
	for _, opt := range opts {
		opt(e)
	}
	if e.registry == nil {
		e.registry = DefaultRegistry()
	}
	if e.workers < 1 {
		e.workers = runtime.GOMAXPROCS(0)
	}
	return e
}

// Registry returns the feature catalog used by the engine.
func (e *Engine) Registry() *Registry {
	return e.registry
}

// Seeded returns a copy of the engine that always uses seed.
func (e *Engine) Seeded(seed uint64) *Engine {
	c := *e
	c.seed = &seed
	return &c
}

func (e *Engine) nextSeed() uint64 {
	if e.seed != nil {
		return *e.seed
	}
	return rand.Uint64()
}

// featureRand derives the stream for the i-th registry feature. Streams
// depend only on seed and position, never on scheduling.
func featureRand(seed uint64, i int) *rand.Rand {
	return rand.New(rand.NewPCG(seed, uint64(i)+1))
}

// ComputeRiskWithRanges composes and summarizes every registered feature
// against baseline. The report lists features in registry order and keeps
// the raw samples. Any failing feature aborts the whole report.
func (e *Engine) ComputeRiskWithRanges(ctx context.Context, baseline model.BaselineParameters) (*model.RiskReport, error) {
	if err := baseline.Validate(); err != nil {
		return nil, goerr.Wrap(err, "invalid baseline parameters")
	}

	seed := e.nextSeed()
	features := e.registry.Features()
	results := make([]model.FeatureResult, len(features))
	samples := make([]*model.FeatureSamples, len(features))
	started := time.Now()

	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(e.workers)
	for i, feature := range features {
		eg.Go(func() error {
			if err := ctx.Err(); err != nil {
				return goerr.Wrap(err, "analysis canceled", goerr.V(model.FeatureKey, feature.Name))
			}

			s, err := Compose(featureRand(seed, i), &feature, baseline)
			if err != nil {
				return goerr.Wrap(err, "failed to compose feature", goerr.V(model.FeatureKey, feature.Name))
			}

			result, err := summarizeFeature(&feature, s)
			if err != nil {
				return err
			}

			results[i] = *result
			samples[i] = s
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	byID := make(map[types.FeatureID]*model.FeatureSamples, len(features))
	for i, f := range features {
		byID[f.ID] = samples[i]
	}

	logging.From(ctx).Debug("risk analysis finished",
		"seed", seed,
		"samples", baseline.Samples,
		"features", len(features),
		"elapsed", time.Since(started),
	)

	return model.NewRiskReport(seed, baseline.Samples, results, byID), nil
}

func summarizeFeature(feature *model.SafetyFeature, s *model.FeatureSamples) (*model.FeatureResult, error) {
	result := &model.FeatureResult{
		ID:         feature.ID,
		Name:       feature.Name,
		Components: make(map[types.ComponentID]model.ComponentResult, len(types.AllComponents())),
		Inputs:     make(map[types.FactorID]model.ComponentResult, len(types.AllFactors())),
	}

	for _, c := range types.AllComponents() {
		summary, err := Summarize(s.Components[c])
		if err != nil {
			return nil, goerr.Wrap(err, "failed to summarize component",
				goerr.V(model.FeatureKey, feature.Name), goerr.V(model.ComponentKey, c))
		}
		result.Components[c] = summary
	}
	for _, f := range types.AllFactors() {
		summary, err := Summarize(s.Inputs[f])
		if err != nil {
			return nil, goerr.Wrap(err, "failed to summarize input",
				goerr.V(model.FeatureKey, feature.Name), goerr.V(model.FactorKey, f))
		}
		result.Inputs[f] = summary
	}

	return result, nil
}

// ComputeRiskWithRanges runs an analysis on a default engine with a fresh seed.
func ComputeRiskWithRanges(ctx context.Context, baseline model.BaselineParameters) (*model.RiskReport, error) {
	return New().ComputeRiskWithRanges(ctx, baseline)
}
