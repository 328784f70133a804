package flame

import (
	"encoding/json"

	flameerrors "github.com/matzehuels/flametower/pkg/errors"
)

// TransformParams is the serializable form of a [Transform].
type TransformParams struct {
	// Coefs holds A, B, C, D, E, F in order.
	Coefs      [6]float64 `json:"coefs"`
	Color      float64    `json:"color"`
	Variations []string   `json:"variations"`
	Weights    []float64  `json:"weights"`
}

// Params captures the shape of a flame: its transforms and the grid size
// they were tuned for. It holds no rendered pixels.
type Params struct {
	Width      int               `json:"width"`
	Height     int               `json:"height"`
	Transforms []TransformParams `json:"transforms"`
}

// Snapshot returns the engine's current transform parameters.
func (e *Engine) Snapshot() Params {
	p := Params{
		Width:      e.cfg.Width,
		Height:     e.cfg.Height,
		Transforms: make([]TransformParams, len(e.transforms)),
	}
	for i, t := range e.transforms {
		p.Transforms[i] = TransformParams{
			Coefs:      [6]float64{t.A, t.B, t.C, t.D, t.E, t.F},
			Color:      t.Color,
			Variations: t.VariationNames(),
			Weights:    t.Weights(),
		}
	}
	return p
}

// Load replaces the engine's transforms with p and rerenders. The transform
// count must match the engine's.
func (e *Engine) Load(p Params) error {
	if len(p.Transforms) != len(e.transforms) {
		return flameerrors.New(flameerrors.ErrCodeInvalidParams,
			"params have %d transforms, engine has %d", len(p.Transforms), len(e.transforms))
	}
	loaded := make([]*Transform, len(p.Transforms))
	for i, tp := range p.Transforms {
		t, err := tp.Transform()
		if err != nil {
			return flameerrors.Wrap(flameerrors.ErrCodeInvalidParams, err, "transform %d", i)
		}
		loaded[i] = t
	}
	e.transforms = loaded
	e.Rerender()
	return nil
}

// Transform builds a transform from the parameters.
func (tp TransformParams) Transform() (*Transform, error) {
	t := &Transform{
		A: tp.Coefs[0], B: tp.Coefs[1], C: tp.Coefs[2],
		D: tp.Coefs[3], E: tp.Coefs[4], F: tp.Coefs[5],
		Color: tp.Color,
	}
	if err := t.SetVariations(tp.Variations, tp.Weights); err != nil {
		return nil, err
	}
	return t, nil
}

// MarshalParams encodes params as indented JSON.
func MarshalParams(p Params) ([]byte, error) {
	return json.MarshalIndent(p, "", "  ")
}

// UnmarshalParams decodes params and checks that they describe at least one
// transform.
func UnmarshalParams(data []byte) (Params, error) {
	var p Params
	if err := json.Unmarshal(data, &p); err != nil {
		return Params{}, flameerrors.Wrap(flameerrors.ErrCodeInvalidParams, err, "decode params")
	}
	if len(p.Transforms) == 0 {
		return Params{}, flameerrors.New(flameerrors.ErrCodeInvalidParams, "params contain no transforms")
	}
	return p, nil
}
