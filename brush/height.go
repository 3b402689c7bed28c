package brush

import (
	"gonum.org/v1/gonum/blas/blas32"

	"github.com/peterberweiler/ITA-Project-sub000/field"
	"github.com/peterberweiler/ITA-Project-sub000/pass"
)

// HeightParams are the uniforms of a height brush invocation.
type HeightParams struct {
	Radius   float32 // normalized field space
	Strength float32 // signed; negative lowers
	Kernel   Kernel
}

// HeightBrush raises or lowers terrain by strength·kernel(distance/radius)
// around every pending stroke point, accumulated in point order. Each batch
// of points is applied with the parameters it was queued with.
type HeightBrush struct {
	strokes *StrokeBuffer[HeightParams]

	// Per-invocation state, set at Init.
	batches []Batch[HeightParams]
	height  field.View
	tiles   field.View
	scratch []float32
}

// NewHeightBrush creates a height brush fed by strokes.
func NewHeightBrush(strokes *StrokeBuffer[HeightParams]) *HeightBrush {
	return &HeightBrush{strokes: strokes}
}

// Strokes returns the buffer the brush consumes.
func (b *HeightBrush) Strokes() *StrokeBuffer[HeightParams] { return b.strokes }

func (b *HeightBrush) Name() string { return "height_brush" }

func (b *HeightBrush) Bindings() []pass.Binding {
	return []pass.Binding{
		pass.Read(field.Height),
		pass.Read(field.BrushTiles),
		pass.Write(field.Height),
	}
}

func (b *HeightBrush) Init(ctx *pass.Context) {
	b.batches = b.strokes.Take(b.batches[:0])
	b.height = ctx.Read(field.Height)
	b.tiles = ctx.Read(field.BrushTiles)
	if w := b.height.Shape().W; cap(b.scratch) < w {
		b.scratch = make([]float32, w)
	}
}

func (b *HeightBrush) Execute(ctx *pass.Context) error {
	ctx.PassThrough(field.Height)
	dst := ctx.Write(field.Height)
	for _, batch := range b.batches {
		if batch.Params.Strength == 0 {
			continue
		}
		b.apply(dst, batch)
	}
	return nil
}

func (b *HeightBrush) apply(dst *field.Field, batch Batch[HeightParams]) {
	p := batch.Params
	st := newStamp(b.tiles, p.Kernel, p.Radius, b.height.Shape())
	for _, pt := range batch.Points {
		x0, y0, x1, y1 := st.bounds(pt)
		n := x1 - x0
		if n <= 0 {
			continue
		}
		weights := b.scratch[:n]
		for y := y0; y < y1; y++ {
			st.row(pt, y, x0, weights)
			row := dst.Row(y)[x0:x1]
			blas32.Axpy(p.Strength,
				blas32.Vector{N: n, Inc: 1, Data: weights},
				blas32.Vector{N: n, Inc: 1, Data: row},
			)
		}
	}
}

func (b *HeightBrush) Finalize(ctx *pass.Context) {
	clear(b.batches)
	b.batches = b.batches[:0]
	b.height, b.tiles = field.View{}, field.View{}
}
