package http

import (
	"bytes"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/safetyrisk/pkg/domain/model"
	"github.com/secmon-lab/safetyrisk/pkg/domain/types"
	"github.com/secmon-lab/safetyrisk/pkg/service/report"
	"github.com/secmon-lab/safetyrisk/pkg/usecase"
	"github.com/secmon-lab/safetyrisk/pkg/utils/errutil"
	"github.com/secmon-lab/safetyrisk/pkg/utils/safe"
)

type sensitivityRequest struct {
	Feature  string `json:"feature"`
	Factor   string `json:"factor"`
	Points   int    `json:"points"`
	Samples  int    `json:"samples"`
	Disabled bool   `json:"disabled"`
}

// analysisRequest accepts the legacy JSON baseline keys merged over the
// defaults, plus run options.
type analysisRequest struct {
	CF          *model.RangeSpec    `json:"cf_range"`
	TC          *model.RangeSpec    `json:"tc_range"`
	RS          *model.RangeSpec    `json:"rs_range"`
	SLEF        *model.RangeSpec    `json:"sl_ef_range"`
	SLM         *model.RangeSpec    `json:"sl_magnitude_range"`
	NSamples    *int                `json:"n_samples"`
	Seed        *uint64             `json:"seed"`
	Label       string              `json:"label"`
	Sensitivity *sensitivityRequest `json:"sensitivity"`
}

func (r *analysisRequest) toUseCase() (usecase.AnalysisRequest, error) {
	baseline := model.DefaultBaseline()
	for _, o := range []struct {
		factor types.FactorID
		spec   *model.RangeSpec
	}{
		{types.FactorContactFrequency, r.CF},
		{types.FactorThreatCapability, r.TC},
		{types.FactorResistanceStrength, r.RS},
		{types.FactorSecondaryLossFrequency, r.SLEF},
		{types.FactorSecondaryLossMagnitude, r.SLM},
	} {
		if o.spec != nil {
			baseline = baseline.WithRange(o.factor, *o.spec)
		}
	}
	if r.NSamples != nil {
		baseline = baseline.WithSamples(*r.NSamples)
	}

	req := usecase.AnalysisRequest{
		Label:    r.Label,
		Baseline: baseline,
		Seed:     r.Seed,
	}

	if r.Sensitivity == nil {
		req.Sensitivity = &usecase.SensitivityRequest{}
		return req, nil
	}
	if r.Sensitivity.Disabled {
		return req, nil
	}
	sens, err := r.Sensitivity.toUseCase()
	if err != nil {
		return req, err
	}
	req.Sensitivity = sens
	return req, nil
}

func (r *sensitivityRequest) toUseCase() (*usecase.SensitivityRequest, error) {
	opts := model.SensitivityOptions{Points: r.Points, Samples: r.Samples}
	switch r.Factor {
	case "":
	case string(model.FactorAuto):
		opts.Factor = model.FactorAuto
	default:
		f, err := types.ParseFactorID(r.Factor)
		if err != nil {
			return nil, model.AsInvalidConfiguration(err)
		}
		opts.Factor = f
	}
	return &usecase.SensitivityRequest{Feature: r.Feature, Options: opts}, nil
}

type runSummary struct {
	ID         model.RunID `json:"id"`
	Label      string      `json:"label,omitempty"`
	Seed       uint64      `json:"seed"`
	Samples    int         `json:"samples"`
	TopFeature string      `json:"top_feature"`
	CreatedAt  time.Time   `json:"created_at"`
}

type runResponse struct {
	runSummary
	UpdatedAt   time.Time                `json:"updated_at"`
	Baseline    model.BaselineParameters `json:"baseline"`
	Ranking     []string                 `json:"ranking"`
	Features    []model.FeatureResult    `json:"features"`
	Sensitivity *model.SensitivityResult `json:"sensitivity,omitempty"`
}

func newRunSummary(run *model.Run) runSummary {
	s := runSummary{
		ID:         run.ID,
		Label:      run.Label,
		TopFeature: run.TopFeature(),
		CreatedAt:  run.CreatedAt,
	}
	if run.Report != nil {
		s.Seed = run.Report.Seed
		s.Samples = run.Report.Samples
	}
	return s
}

func newRunResponse(run *model.Run) runResponse {
	resp := runResponse{
		runSummary:  newRunSummary(run),
		UpdatedAt:   run.UpdatedAt,
		Baseline:    run.Baseline,
		Ranking:     run.Ranking,
		Sensitivity: run.Sensitivity,
	}
	if run.Report != nil {
		resp.Features = run.Report.Features
	}
	return resp
}

// checkLimits rejects requests whose sample or point counts exceed the
// server limits.
func (s *Server) checkLimits(samples int, sens *usecase.SensitivityRequest) error {
	if samples > s.maxSamples {
		return model.AsInvalidConfiguration(goerr.New("sample count exceeds server limit",
			goerr.V(model.SamplesKey, samples), goerr.V("limit", s.maxSamples)))
	}
	if sens == nil {
		return nil
	}
	if sens.Options.Samples > s.maxSamples {
		return model.AsInvalidConfiguration(goerr.New("sensitivity sample count exceeds server limit",
			goerr.V(model.SamplesKey, sens.Options.Samples), goerr.V("limit", s.maxSamples)))
	}
	if sens.Options.Points > s.maxPoints {
		return model.AsInvalidConfiguration(goerr.New("sensitivity points exceed server limit",
			goerr.V(model.PointsKey, sens.Options.Points), goerr.V("limit", s.maxPoints)))
	}
	return nil
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) error {
	body := http.MaxBytesReader(w, r.Body, s.maxBodyBytes)
	dec := json.NewDecoder(body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return model.AsInvalidConfiguration(goerr.Wrap(err, "failed to decode request body"))
	}
	return nil
}

func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		errutil.HandleHTTP(r.Context(), w, goerr.Wrap(err, "failed to marshal response"), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	safe.Write(r.Context(), w, data)
}

func (s *Server) featuresHandler(w http.ResponseWriter, r *http.Request) {
	type response struct {
		Features []model.SafetyFeature `json:"features"`
	}
	writeJSON(w, r, http.StatusOK, response{Features: s.analysis.Features()})
}

func (s *Server) createAnalysisHandler(w http.ResponseWriter, r *http.Request) {
	var body analysisRequest
	if r.ContentLength != 0 {
		if err := s.decode(w, r, &body); err != nil {
			errutil.HandleHTTP(r.Context(), w, err, 0)
			return
		}
	}

	req, err := body.toUseCase()
	if err != nil {
		errutil.HandleHTTP(r.Context(), w, err, 0)
		return
	}
	if err := s.checkLimits(req.Baseline.Samples, req.Sensitivity); err != nil {
		errutil.HandleHTTP(r.Context(), w, err, 0)
		return
	}

	result, err := s.analysis.Analyze(r.Context(), req)
	if err != nil {
		errutil.HandleHTTP(r.Context(), w, err, 0)
		return
	}

	w.Header().Set("Location", "/api/analyses/"+result.Run.ID.String())
	writeJSON(w, r, http.StatusCreated, newRunResponse(result.Run))
}

func (s *Server) listAnalysesHandler(w http.ResponseWriter, r *http.Request) {
	runs, err := s.analysis.ListRuns(r.Context())
	if err != nil {
		errutil.HandleHTTP(r.Context(), w, err, 0)
		return
	}

	type response struct {
		Analyses []runSummary `json:"analyses"`
	}
	resp := response{Analyses: make([]runSummary, len(runs))}
	for i, run := range runs {
		resp.Analyses[i] = newRunSummary(run)
	}
	writeJSON(w, r, http.StatusOK, resp)
}

func (s *Server) getAnalysisHandler(w http.ResponseWriter, r *http.Request) {
	run, err := s.analysis.GetRun(r.Context(), model.RunID(chi.URLParam(r, "id")))
	if err != nil {
		errutil.HandleHTTP(r.Context(), w, err, 0)
		return
	}

	if r.URL.Query().Get("format") == "text" {
		var buf bytes.Buffer
		if err := report.WriteSummaryTable(&buf, run.Report); err != nil {
			errutil.HandleHTTP(r.Context(), w, err, http.StatusInternalServerError)
			return
		}
		if run.Sensitivity != nil {
			buf.WriteString("\n")
			if err := report.WriteSensitivityTable(&buf, run.Sensitivity); err != nil {
				errutil.HandleHTTP(r.Context(), w, err, http.StatusInternalServerError)
				return
			}
		}
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		safe.Write(r.Context(), w, buf.Bytes())
		return
	}

	writeJSON(w, r, http.StatusOK, newRunResponse(run))
}

func (s *Server) sensitivityHandler(w http.ResponseWriter, r *http.Request) {
	var body sensitivityRequest
	if r.ContentLength != 0 {
		if err := s.decode(w, r, &body); err != nil {
			errutil.HandleHTTP(r.Context(), w, err, 0)
			return
		}
	}
	if body.Disabled {
		errutil.HandleHTTP(r.Context(), w,
			model.AsInvalidConfiguration(goerr.New("sensitivity cannot be disabled on this endpoint")), 0)
		return
	}

	req, err := body.toUseCase()
	if err != nil {
		errutil.HandleHTTP(r.Context(), w, err, 0)
		return
	}
	if err := s.checkLimits(0, req); err != nil {
		errutil.HandleHTTP(r.Context(), w, err, 0)
		return
	}

	result, err := s.analysis.Sensitivity(r.Context(), model.RunID(chi.URLParam(r, "id")), *req)
	if err != nil {
		errutil.HandleHTTP(r.Context(), w, err, 0)
		return
	}

	writeJSON(w, r, http.StatusOK, result)
}
