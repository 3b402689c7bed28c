package terrain

import (
	"github.com/peterberweiler/ITA-Project-sub000/field"
	"github.com/peterberweiler/ITA-Project-sub000/pass"
)

// Fill is the new content of one field. Values, when set, holds the whole
// field in row-major order; otherwise every texel gets Texel, with missing
// channels zeroed.
type Fill struct {
	Field  string
	Values []float32
	Texel  []float32
}

// FillPass overwrites whole fields through the scheduler, so replaced
// contents become visible with a swap like any other edit. Each FillPass
// carries its own data and is meant to be queued once.
type FillPass struct {
	fills []Fill
}

// NewFillPass creates a pass writing fills in order.
func NewFillPass(fills ...Fill) *FillPass {
	return &FillPass{fills: fills}
}

func (p *FillPass) Name() string { return "fill" }

func (p *FillPass) Bindings() []pass.Binding {
	out := make([]pass.Binding, len(p.fills))
	for i, f := range p.fills {
		out[i] = pass.Write(f.Field)
	}
	return out
}

func (p *FillPass) Init(ctx *pass.Context) {}

func (p *FillPass) Execute(ctx *pass.Context) error {
	for _, f := range p.fills {
		dst := ctx.Write(f.Field)
		if f.Values != nil {
			copy(dst.Values(), f.Values)
			continue
		}
		dst.Fill(f.Texel...)
	}
	return nil
}

func (p *FillPass) Finalize(ctx *pass.Context) {}

// ResetFills returns fills that put the hydraulic and soil state back to
// its neutral initial value, leaving height, layers and shadow alone.
func ResetFills(l Layout) []Fill {
	return []Fill{
		{Field: field.Water},
		{Field: field.Flux},
		{Field: field.Velocity},
		{Field: field.Sediment, Texel: []float32{0, l.InitialHardness}},
		{Field: field.SoilFluxPlus},
		{Field: field.SoilFluxCross},
	}
}
