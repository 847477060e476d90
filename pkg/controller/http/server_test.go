package http_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/m-mizutani/gt"
	httpctrl "github.com/secmon-lab/safetyrisk/pkg/controller/http"
	"github.com/secmon-lab/safetyrisk/pkg/repository/memory"
	"github.com/secmon-lab/safetyrisk/pkg/usecase"
)

const smallAnalysis = `{
	"cf_range": {"min": 100, "max": 200},
	"tc_range": {"min": 5, "max": 6},
	"rs_range": {"min": 4, "max": 5},
	"sl_ef_range": {"min": 0.1, "max": 0.2},
	"sl_magnitude_range": {"min": 1000, "max": 2000},
	"n_samples": 50,
	"seed": 42,
	"label": "api",
	"sensitivity": {"points": 3}
}`

type runBody struct {
	ID          string   `json:"id"`
	Label       string   `json:"label"`
	Seed        uint64   `json:"seed"`
	Samples     int      `json:"samples"`
	TopFeature  string   `json:"top_feature"`
	Ranking     []string `json:"ranking"`
	Features    []any    `json:"features"`
	Sensitivity *struct {
		Feature string `json:"feature"`
		Factor  string `json:"factor"`
		Points  []any  `json:"points"`
	} `json:"sensitivity"`
}

func newServer() *httpctrl.Server {
	uc := usecase.New(memory.New())
	return httpctrl.New(uc.Analysis)
}

func do(t *testing.T, srv http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	return rec
}

func createRun(t *testing.T, srv http.Handler) runBody {
	t.Helper()
	rec := do(t, srv, http.MethodPost, "/api/analyses", smallAnalysis)
	gt.Value(t, rec.Code).Equal(http.StatusCreated)

	var run runBody
	gt.NoError(t, json.Unmarshal(rec.Body.Bytes(), &run)).Required()
	return run
}

func TestFeatures(t *testing.T) {
	srv := newServer()
	rec := do(t, srv, http.MethodGet, "/api/features", "")
	gt.Value(t, rec.Code).Equal(http.StatusOK)
	gt.String(t, rec.Header().Get("Content-Type")).Contains("application/json")

	var resp struct {
		Features []struct {
			ID   string `json:"id"`
			Name string `json:"name"`
		} `json:"features"`
	}
	gt.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp)).Required()
	gt.Number(t, len(resp.Features)).GreaterOrEqual(9)
	gt.Value(t, resp.Features[0].Name).NotEqual("")
}

func TestCreateAndGetAnalysis(t *testing.T) {
	srv := newServer()
	run := createRun(t, srv)

	gt.Value(t, run.Label).Equal("api")
	gt.Value(t, run.Seed).Equal(uint64(42))
	gt.Value(t, run.Samples).Equal(50)
	gt.Number(t, len(run.Features)).GreaterOrEqual(9)
	gt.Value(t, run.TopFeature).Equal(run.Ranking[0])
	gt.Value(t, run.Sensitivity).NotNil()
	gt.Value(t, run.Sensitivity.Feature).Equal(run.TopFeature)
	gt.Value(t, run.Sensitivity.Factor).Equal("rs")
	gt.Array(t, run.Sensitivity.Points).Length(3)

	t.Run("get", func(t *testing.T) {
		rec := do(t, srv, http.MethodGet, "/api/analyses/"+run.ID, "")
		gt.Value(t, rec.Code).Equal(http.StatusOK)

		var got runBody
		gt.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got)).Required()
		gt.Value(t, got.ID).Equal(run.ID)
		gt.Value(t, got.Ranking).Equal(run.Ranking)
	})

	t.Run("get as text", func(t *testing.T) {
		rec := do(t, srv, http.MethodGet, "/api/analyses/"+run.ID+"?format=text", "")
		gt.Value(t, rec.Code).Equal(http.StatusOK)
		gt.String(t, rec.Body.String()).Contains("risk.median")
		gt.String(t, rec.Body.String()).Contains(run.TopFeature)
	})

	t.Run("list", func(t *testing.T) {
		rec := do(t, srv, http.MethodGet, "/api/analyses", "")
		gt.Value(t, rec.Code).Equal(http.StatusOK)

		var resp struct {
			Analyses []runBody `json:"analyses"`
		}
		gt.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp)).Required()
		gt.Array(t, resp.Analyses).Length(1)
		gt.Value(t, resp.Analyses[0].ID).Equal(run.ID)
	})

	t.Run("sensitivity", func(t *testing.T) {
		rec := do(t, srv, http.MethodPost, "/api/analyses/"+run.ID+"/sensitivity",
			`{"feature": "Trip Sharing", "factor": "tc", "points": 4}`)
		gt.Value(t, rec.Code).Equal(http.StatusOK)

		var resp struct {
			Feature string `json:"feature"`
			Factor  string `json:"factor"`
			Points  []struct {
				Value float64 `json:"value"`
			} `json:"points"`
		}
		gt.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp)).Required()
		gt.Value(t, resp.Feature).Equal("Trip Sharing")
		gt.Value(t, resp.Factor).Equal("tc")
		gt.Array(t, resp.Points).Length(4)
		gt.Value(t, resp.Points[0].Value).Equal(5.0)
		gt.Value(t, resp.Points[3].Value).Equal(6.0)
	})
}

func TestAnalysisErrors(t *testing.T) {
	srv := newServer()
	run := createRun(t, srv)

	testCases := []struct {
		name   string
		method string
		path   string
		body   string
		status int
	}{
		{
			name:   "reversed range",
			method: http.MethodPost,
			path:   "/api/analyses",
			body:   `{"tc_range": {"min": 9, "max": 6}, "n_samples": 10}`,
			status: http.StatusBadRequest,
		},
		{
			name:   "zero samples",
			method: http.MethodPost,
			path:   "/api/analyses",
			body:   `{"n_samples": 0}`,
			status: http.StatusBadRequest,
		},
		{
			name:   "unknown field",
			method: http.MethodPost,
			path:   "/api/analyses",
			body:   `{"weather": 1}`,
			status: http.StatusBadRequest,
		},
		{
			name:   "unknown sensitivity factor",
			method: http.MethodPost,
			path:   "/api/analyses",
			body:   `{"n_samples": 10, "sensitivity": {"factor": "weather"}}`,
			status: http.StatusBadRequest,
		},
		{
			name:   "unknown sensitivity feature",
			method: http.MethodPost,
			path:   "/api/analyses",
			body:   `{"n_samples": 10, "sensitivity": {"feature": "Teleportation"}}`,
			status: http.StatusNotFound,
		},
		{
			name:   "missing run",
			method: http.MethodGet,
			path:   "/api/analyses/does-not-exist",
			status: http.StatusNotFound,
		},
		{
			name:   "sensitivity on missing run",
			method: http.MethodPost,
			path:   "/api/analyses/does-not-exist/sensitivity",
			body:   `{}`,
			status: http.StatusNotFound,
		},
		{
			name:   "sensitivity on unknown feature",
			method: http.MethodPost,
			path:   "/api/analyses/" + run.ID + "/sensitivity",
			body:   `{"feature": "Teleportation"}`,
			status: http.StatusNotFound,
		},
		{
			name:   "negative points",
			method: http.MethodPost,
			path:   "/api/analyses/" + run.ID + "/sensitivity",
			body:   `{"points": -1}`,
			status: http.StatusBadRequest,
		},
		{
			name:   "samples above limit",
			method: http.MethodPost,
			path:   "/api/analyses",
			body:   `{"n_samples": 1099511627776}`,
			status: http.StatusBadRequest,
		},
		{
			name:   "sensitivity samples above limit",
			method: http.MethodPost,
			path:   "/api/analyses",
			body:   `{"n_samples": 10, "sensitivity": {"samples": 1099511627776}}`,
			status: http.StatusBadRequest,
		},
		{
			name:   "points above limit",
			method: http.MethodPost,
			path:   "/api/analyses/" + run.ID + "/sensitivity",
			body:   `{"points": 1000000000}`,
			status: http.StatusBadRequest,
		},
		{
			name:   "overflowing risk",
			method: http.MethodPost,
			path:   "/api/analyses",
			body:   `{"cf_range": {"min": 1e160, "max": 2e160}, "sl_magnitude_range": {"min": 1e160, "max": 2e160}, "n_samples": 10}`,
			status: http.StatusBadRequest,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			rec := do(t, srv, tc.method, tc.path, tc.body)
			gt.Value(t, rec.Code).Equal(tc.status)
		})
	}
}

func TestAnalysisLimits(t *testing.T) {
	uc := usecase.New(memory.New())
	srv := httpctrl.New(uc.Analysis, httpctrl.WithMaxSamples(100), httpctrl.WithMaxPoints(5))

	rec := do(t, srv, http.MethodPost, "/api/analyses", `{"n_samples": 101}`)
	gt.Value(t, rec.Code).Equal(http.StatusBadRequest)
	gt.String(t, rec.Body.String()).Contains("sample count exceeds server limit")

	rec = do(t, srv, http.MethodPost, "/api/analyses", `{"n_samples": 100, "sensitivity": {"points": 6}}`)
	gt.Value(t, rec.Code).Equal(http.StatusBadRequest)

	rec = do(t, srv, http.MethodGet, "/api/analyses", "")
	gt.Value(t, rec.Code).Equal(http.StatusOK)
	var list struct {
		Analyses []any `json:"analyses"`
	}
	gt.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list)).Required()
	gt.Array(t, list.Analyses).Length(0)

	rec = do(t, srv, http.MethodPost, "/api/analyses", `{"n_samples": 100, "seed": 1, "sensitivity": {"points": 5}}`)
	gt.Value(t, rec.Code).Equal(http.StatusCreated)
}

func TestAnalysisDisabledSensitivity(t *testing.T) {
	srv := newServer()
	rec := do(t, srv, http.MethodPost, "/api/analyses", `{"n_samples": 20, "seed": 1, "sensitivity": {"disabled": true}}`)
	gt.Value(t, rec.Code).Equal(http.StatusCreated)
	gt.Bool(t, strings.Contains(rec.Body.String(), `"sensitivity"`)).False()
}

func TestHealth(t *testing.T) {
	rec := do(t, newServer(), http.MethodGet, "/health", "")
	gt.Value(t, rec.Code).Equal(http.StatusOK)
}
