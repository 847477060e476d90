package firestore

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/safetyrisk/pkg/domain/model"
	"github.com/secmon-lab/safetyrisk/pkg/domain/types"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

type runDocument struct {
	ID          string               `firestore:"id"`
	Label       string               `firestore:"label"`
	Baseline    baselineDocument     `firestore:"baseline"`
	Seed        int64                `firestore:"seed"`
	Samples     int                  `firestore:"samples"`
	Features    []featureDocument    `firestore:"features"`
	Ranking     []string             `firestore:"ranking"`
	Sensitivity *sensitivityDocument `firestore:"sensitivity,omitempty"`
	CreatedAt   time.Time            `firestore:"created_at"`
	UpdatedAt   time.Time            `firestore:"updated_at"`
}

type rangeDocument struct {
	Min   float64 `firestore:"min"`
	Max   float64 `firestore:"max"`
	Fixed bool    `firestore:"fixed"`
}

type baselineDocument struct {
	Ranges  map[string]rangeDocument `firestore:"ranges"`
	Samples int                      `firestore:"samples"`
}

type componentDocument struct {
	Mean   float64 `firestore:"mean"`
	Median float64 `firestore:"median"`
	P5     float64 `firestore:"p5"`
	P95    float64 `firestore:"p95"`
	Min    float64 `firestore:"min"`
	Max    float64 `firestore:"max"`
}

type featureDocument struct {
	ID         string                       `firestore:"id"`
	Name       string                       `firestore:"name"`
	Components map[string]componentDocument `firestore:"components"`
	Inputs     map[string]componentDocument `firestore:"inputs"`
}

type sensitivityPointDocument struct {
	Value float64           `firestore:"value"`
	Risk  componentDocument `firestore:"risk"`
}

type sensitivityDocument struct {
	FeatureID string                     `firestore:"feature_id"`
	Feature   string                     `firestore:"feature"`
	Factor    string                     `firestore:"factor"`
	Selection string                     `firestore:"selection"`
	Range     rangeDocument              `firestore:"range"`
	Samples   int                        `firestore:"samples"`
	Points    []sensitivityPointDocument `firestore:"points"`
}

type runRepository struct {
	client           *firestore.Client
	collectionPrefix string
}

func newRunRepository(client *firestore.Client) *runRepository {
	return &runRepository{
		client:           client,
		collectionPrefix: "",
	}
}

func (r *runRepository) runsCollection() string {
	if r.collectionPrefix != "" {
		return r.collectionPrefix + "_runs"
	}
	return "runs"
}

func rangeToDocument(spec model.RangeSpec) rangeDocument {
	return rangeDocument{Min: spec.Min(), Max: spec.Max(), Fixed: spec.IsFixed()}
}

func rangeToModel(doc rangeDocument) model.RangeSpec {
	if doc.Fixed {
		return model.FixedValue(doc.Min)
	}
	return model.Between(doc.Min, doc.Max)
}

func componentToDocument(c model.ComponentResult) componentDocument {
	return componentDocument{Mean: c.Mean, Median: c.Median, P5: c.P5, P95: c.P95, Min: c.Min, Max: c.Max}
}

func componentToModel(doc componentDocument) model.ComponentResult {
	return model.ComponentResult{Mean: doc.Mean, Median: doc.Median, P5: doc.P5, P95: doc.P95, Min: doc.Min, Max: doc.Max}
}

func runToDocument(run *model.Run) *runDocument {
	doc := &runDocument{
		ID:    string(run.ID),
		Label: run.Label,
		Baseline: baselineDocument{
			Ranges:  make(map[string]rangeDocument, len(types.AllFactors())),
			Samples: run.Baseline.Samples,
		},
		Ranking:   run.Ranking,
		CreatedAt: run.CreatedAt,
		UpdatedAt: run.UpdatedAt,
	}

	for _, f := range types.AllFactors() {
		doc.Baseline.Ranges[f.String()] = rangeToDocument(run.Baseline.Range(f))
	}

	if run.Report != nil {
		// Firestore integers are signed 64-bit
		doc.Seed = int64(run.Report.Seed) // #nosec G115
		doc.Samples = run.Report.Samples
		for _, f := range run.Report.Features {
			fd := featureDocument{
				ID:         string(f.ID),
				Name:       f.Name,
				Components: make(map[string]componentDocument, len(f.Components)),
				Inputs:     make(map[string]componentDocument, len(f.Inputs)),
			}
			for c, res := range f.Components {
				fd.Components[c.String()] = componentToDocument(res)
			}
			for factor, res := range f.Inputs {
				fd.Inputs[factor.String()] = componentToDocument(res)
			}
			doc.Features = append(doc.Features, fd)
		}
	}

	if s := run.Sensitivity; s != nil {
		sd := &sensitivityDocument{
			FeatureID: string(s.FeatureID),
			Feature:   s.Feature,
			Factor:    s.Factor.String(),
			Selection: string(s.Selection),
			Range:     rangeToDocument(s.Range),
			Samples:   s.Samples,
		}
		for _, p := range s.Points {
			sd.Points = append(sd.Points, sensitivityPointDocument{Value: p.Value, Risk: componentToDocument(p.Risk)})
		}
		doc.Sensitivity = sd
	}

	return doc
}

func runToModel(doc *runDocument) *model.Run {
	run := &model.Run{
		ID:        model.RunID(doc.ID),
		Label:     doc.Label,
		Ranking:   doc.Ranking,
		CreatedAt: doc.CreatedAt,
		UpdatedAt: doc.UpdatedAt,
	}

	run.Baseline.Samples = doc.Baseline.Samples
	for key, rd := range doc.Baseline.Ranges {
		run.Baseline = run.Baseline.WithRange(types.FactorID(key), rangeToModel(rd))
	}

	features := make([]model.FeatureResult, 0, len(doc.Features))
	for _, fd := range doc.Features {
		f := model.FeatureResult{
			ID:         types.FeatureID(fd.ID),
			Name:       fd.Name,
			Components: make(map[types.ComponentID]model.ComponentResult, len(fd.Components)),
			Inputs:     make(map[types.FactorID]model.ComponentResult, len(fd.Inputs)),
		}
		for c, cd := range fd.Components {
			f.Components[types.ComponentID(c)] = componentToModel(cd)
		}
		for factor, cd := range fd.Inputs {
			f.Inputs[types.FactorID(factor)] = componentToModel(cd)
		}
		features = append(features, f)
	}
	run.Report = model.NewRiskReport(uint64(doc.Seed), doc.Samples, features, nil) // #nosec G115

	if sd := doc.Sensitivity; sd != nil {
		s := &model.SensitivityResult{
			FeatureID: types.FeatureID(sd.FeatureID),
			Feature:   sd.Feature,
			Factor:    types.FactorID(sd.Factor),
			Selection: model.SensitivitySelection(sd.Selection),
			Range:     rangeToModel(sd.Range),
			Samples:   sd.Samples,
		}
		for _, p := range sd.Points {
			s.Points = append(s.Points, model.SensitivityPoint{Value: p.Value, Risk: componentToModel(p.Risk)})
		}
		run.Sensitivity = s
	}

	return run
}

func (r *runRepository) Put(ctx context.Context, run *model.Run) error {
	if run.ID == "" {
		return goerr.New("run ID is required")
	}

	now := time.Now().UTC()
	docRef := r.client.Collection(r.runsCollection()).Doc(string(run.ID))

	doc := runToDocument(run)
	existing, err := docRef.Get(ctx)
	switch {
	case err == nil:
		var prev runDocument
		if err := existing.DataTo(&prev); err != nil {
			return goerr.Wrap(err, "failed to unmarshal run", goerr.V("id", run.ID))
		}
		doc.CreatedAt = prev.CreatedAt
	case status.Code(err) == codes.NotFound:
		if doc.CreatedAt.IsZero() {
			doc.CreatedAt = now
		}
	default:
		return goerr.Wrap(err, "failed to get run", goerr.V("id", run.ID))
	}
	doc.UpdatedAt = now

	if _, err := docRef.Set(ctx, doc); err != nil {
		return goerr.Wrap(err, "failed to put run", goerr.V("id", run.ID))
	}

	return nil
}

func (r *runRepository) Get(ctx context.Context, id model.RunID) (*model.Run, error) {
	docRef := r.client.Collection(r.runsCollection()).Doc(string(id))
	doc, err := docRef.Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, goerr.Wrap(ErrNotFound, "run not found", goerr.V("id", id))
		}
		return nil, goerr.Wrap(err, "failed to get run", goerr.V("id", id))
	}

	var runDoc runDocument
	if err := doc.DataTo(&runDoc); err != nil {
		return nil, goerr.Wrap(err, "failed to unmarshal run", goerr.V("id", id))
	}

	return runToModel(&runDoc), nil
}

func (r *runRepository) List(ctx context.Context) ([]*model.Run, error) {
	iter := r.client.Collection(r.runsCollection()).
		OrderBy("created_at", firestore.Desc).
		Documents(ctx)
	defer iter.Stop()

	var runs []*model.Run
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to iterate runs")
		}

		var runDoc runDocument
		if err := doc.DataTo(&runDoc); err != nil {
			return nil, goerr.Wrap(err, "failed to unmarshal run")
		}

		runs = append(runs, runToModel(&runDoc))
	}

	return runs, nil
}

func (r *runRepository) Delete(ctx context.Context, id model.RunID) error {
	docRef := r.client.Collection(r.runsCollection()).Doc(string(id))

	_, err := docRef.Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return goerr.Wrap(ErrNotFound, "run not found", goerr.V("id", id))
		}
		return goerr.Wrap(err, "failed to get run", goerr.V("id", id))
	}

	if _, err := docRef.Delete(ctx); err != nil {
		return goerr.Wrap(err, "failed to delete run", goerr.V("id", id))
	}

	return nil
}
