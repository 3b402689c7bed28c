// Package terrain builds the session field layout and the passes that
// derive data from terrain height: the initial heightmap and the shadow field.
package terrain

import (
	"fmt"

	"github.com/peterberweiler/ITA-Project-sub000/brush"
	"github.com/peterberweiler/ITA-Project-sub000/config"
	"github.com/peterberweiler/ITA-Project-sub000/field"
)

// Layout sizes the session field set.
type Layout struct {
	Width, Height    int
	KernelResolution int
	InitialHardness  float32
}

// LayoutFromConfig reads the field, brush and erosion sections.
func LayoutFromConfig(c *config.Config) Layout {
	return Layout{
		Width:            c.Field.Width,
		Height:           c.Field.Height,
		KernelResolution: c.Brush.KernelResolution,
		InitialHardness:  float32(c.Erosion.InitialHardness),
	}
}

type bufferSpec struct {
	name     string
	channels int
	semantic field.Semantic
	initial  []float32
}

// NewFieldSet allocates every field a session uses, each at its neutral
// initial value. Allocation failures are construction errors.
func NewFieldSet(l Layout) (*field.Set, error) {
	specs := []bufferSpec{
		{field.Height, 1, field.SemanticScalar, nil},
		{field.Water, 1, field.SemanticScalar, nil},
		{field.Flux, 4, field.SemanticVector, nil},
		{field.Velocity, 2, field.SemanticVector, nil},
		{field.Sediment, 2, field.SemanticScalar, []float32{0, l.InitialHardness}},
		{field.SoilFluxPlus, 4, field.SemanticVector, nil},
		{field.SoilFluxCross, 4, field.SemanticVector, nil},
		{field.Layers0, 4, field.SemanticWeights, []float32{1}},
		{field.Layers1, 4, field.SemanticWeights, nil},
		{field.Shadow, 1, field.SemanticScalar, []float32{1}},
	}

	set := field.NewSet()
	for _, s := range specs {
		b, err := set.AddBuffer(s.name, field.Shape{W: l.Width, H: l.Height, Channels: s.channels, Semantic: s.semantic})
		if err != nil {
			return nil, fmt.Errorf("creating field set: %w", err)
		}
		if s.initial != nil {
			b.Initialize(func(f *field.Field) { f.Fill(s.initial...) })
		}
	}

	res := l.KernelResolution
	if res == 0 {
		res = 64
	}
	if err := brush.AddTileset(set, res); err != nil {
		return nil, fmt.Errorf("creating brush tileset: %w", err)
	}
	return set, nil
}
