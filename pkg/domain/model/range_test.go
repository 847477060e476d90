package model_test

import (
	"encoding/json"
	"errors"
	"math"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/safetyrisk/pkg/domain/model"
)

func TestNewRange(t *testing.T) {
	t.Run("valid interval", func(t *testing.T) {
		r, err := model.NewRange(4, 6)
		gt.NoError(t, err).Required()
		gt.Bool(t, r.IsFixed()).False()
		gt.Number(t, r.Min()).Equal(4)
		gt.Number(t, r.Max()).Equal(6)
		gt.Number(t, r.Mid()).Equal(5)
		gt.Number(t, r.Width()).Equal(2)
	})

	t.Run("degenerate interval is allowed", func(t *testing.T) {
		r, err := model.NewRange(3, 3)
		gt.NoError(t, err).Required()
		gt.Number(t, r.Width()).Equal(0)
	})

	t.Run("min greater than max", func(t *testing.T) {
		_, err := model.NewRange(5, 1)
		gt.Error(t, err).Is(model.ErrInvalidRange)
	})

	t.Run("non-finite bounds", func(t *testing.T) {
		_, err := model.NewRange(math.NaN(), 1)
		gt.Error(t, err).Is(model.ErrInvalidRange)

		_, err = model.NewRange(0, math.Inf(1))
		gt.Error(t, err).Is(model.ErrInvalidRange)
	})
}

func TestFixedValue(t *testing.T) {
	r := model.FixedValue(500)
	gt.Bool(t, r.IsFixed()).True()
	gt.Number(t, r.Min()).Equal(500)
	gt.Number(t, r.Max()).Equal(500)
	gt.NoError(t, r.Validate())
	gt.Value(t, r.String()).Equal("500")
}

func TestRangeSpec_Transform(t *testing.T) {
	t.Run("scale and offset", func(t *testing.T) {
		r := model.Between(4, 6).Transform(1, 2, 0, 10)
		gt.Number(t, r.Min()).Equal(6)
		gt.Number(t, r.Max()).Equal(8)
	})

	t.Run("clamped into domain", func(t *testing.T) {
		r := model.Between(6, 9).Transform(1, 3, 0, 10)
		gt.Number(t, r.Min()).Equal(9)
		gt.Number(t, r.Max()).Equal(10)
	})

	t.Run("fixed stays fixed", func(t *testing.T) {
		r := model.FixedValue(0.1).Transform(0.5, 0, 0, 1)
		gt.Bool(t, r.IsFixed()).True()
		gt.Number(t, r.Min()).Equal(0.05)
	})
}

func TestRangeSpec_JSON(t *testing.T) {
	type doc struct {
		R model.RangeSpec `json:"r"`
	}

	t.Run("bare number is fixed", func(t *testing.T) {
		var d doc
		gt.NoError(t, json.Unmarshal([]byte(`{"r": 7.5}`), &d)).Required()
		gt.Bool(t, d.R.IsFixed()).True()
		gt.Number(t, d.R.Min()).Equal(7.5)
	})

	t.Run("object is interval", func(t *testing.T) {
		var d doc
		gt.NoError(t, json.Unmarshal([]byte(`{"r": {"min": 1, "max": 2}}`), &d)).Required()
		gt.Bool(t, d.R.IsFixed()).False()
		gt.Number(t, d.R.Min()).Equal(1)
		gt.Number(t, d.R.Max()).Equal(2)
	})

	t.Run("reversed bounds decode but fail validation", func(t *testing.T) {
		var d doc
		gt.NoError(t, json.Unmarshal([]byte(`{"r": {"min": 5, "max": 1}}`), &d)).Required()
		gt.Error(t, d.R.Validate()).Is(model.ErrInvalidRange)
	})

	t.Run("missing bound", func(t *testing.T) {
		var d doc
		err := json.Unmarshal([]byte(`{"r": {"min": 5}}`), &d)
		gt.Bool(t, errors.Is(err, model.ErrInvalidRange)).True()
	})

	t.Run("encode", func(t *testing.T) {
		raw, err := json.Marshal(doc{R: model.FixedValue(3)})
		gt.NoError(t, err).Required()
		gt.Value(t, string(raw)).Equal(`{"r":3}`)

		raw, err = json.Marshal(doc{R: model.Between(1, 2)})
		gt.NoError(t, err).Required()
		gt.Value(t, string(raw)).Equal(`{"r":{"min":1,"max":2}}`)
	})
}
