package brush

import (
	"github.com/peterberweiler/ITA-Project-sub000/field"
	"github.com/peterberweiler/ITA-Project-sub000/pass"
)

// LayerCount is the number of surface layers, packed four per field.
const LayerCount = 8

type texels interface {
	At(x, y, c int) float32
}

// readWeights gathers the eight layer weights at (x, y).
func readWeights(l0, l1 texels, x, y int) (w [LayerCount]float32) {
	for c := 0; c < 4; c++ {
		w[c] = l0.At(x, y, c)
		w[c+4] = l1.At(x, y, c)
	}
	return w
}

func writeWeights(l0, l1 *field.Field, x, y int, w [LayerCount]float32) {
	for c := 0; c < 4; c++ {
		l0.Set(x, y, c, w[c])
		l1.Set(x, y, c, w[c+4])
	}
}

// addWeight changes layer by amount and rebalances the other layers.
// Raising scales the others down just enough that the weights sum to at
// most 1. Lowering hands the removed weight to the others in proportion
// to their weights, or to a fallback layer when they are all empty, so
// the sum is unchanged.
func addWeight(w *[LayerCount]float32, layer int, amount float32) {
	old := w[layer]
	w[layer] = clamp01(old + amount)
	var others float32
	for i := range w {
		if i != layer {
			others += w[i]
		}
	}

	if removed := old - w[layer]; removed > 0 {
		if others <= 0 {
			w[fallbackLayer(layer)] += removed
			return
		}
		scale := 1 + removed/others
		for i := range w {
			if i != layer {
				w[i] = clamp01(w[i] * scale)
			}
		}
		return
	}

	room := 1 - w[layer]
	if others <= room || others <= 0 {
		return
	}
	scale := room / others
	for i := range w {
		if i != layer {
			w[i] *= scale
		}
	}
}

// fallbackLayer receives weight erased from a texel with no other material.
func fallbackLayer(layer int) int {
	if layer == 0 {
		return 1
	}
	return 0
}

// LayerParams are the uniforms of a layer brush invocation.
type LayerParams struct {
	Layer    int
	Radius   float32
	Strength float32
	Kernel   Kernel
	MinSlope float32 // slope tangent bounds; texels outside are untouched
	MaxSlope float32
	CellSize float32 // world distance between texels, for the slope
}

// LayerBrush paints one surface layer's weight with the brush kernel,
// restricted to texels whose slope lies in [MinSlope, MaxSlope]. Each batch
// of points is applied with the parameters it was queued with.
type LayerBrush struct {
	strokes *StrokeBuffer[LayerParams]

	batches []Batch[LayerParams]
	height  field.View
	tiles   field.View
}

// NewLayerBrush creates a layer brush fed by strokes.
func NewLayerBrush(strokes *StrokeBuffer[LayerParams]) *LayerBrush {
	return &LayerBrush{strokes: strokes}
}

// Strokes returns the buffer the brush consumes.
func (b *LayerBrush) Strokes() *StrokeBuffer[LayerParams] { return b.strokes }

func (b *LayerBrush) Name() string { return "layer_brush" }

func (b *LayerBrush) Bindings() []pass.Binding {
	return []pass.Binding{
		pass.Read(field.Height),
		pass.Read(field.Layers0),
		pass.Read(field.Layers1),
		pass.Read(field.BrushTiles),
		pass.Write(field.Layers0),
		pass.Write(field.Layers1),
	}
}

func (b *LayerBrush) Init(ctx *pass.Context) {
	b.batches = b.strokes.Take(b.batches[:0])
	b.height = ctx.Read(field.Height)
	b.tiles = ctx.Read(field.BrushTiles)
}

func (b *LayerBrush) Execute(ctx *pass.Context) error {
	ctx.PassThrough(field.Layers0)
	ctx.PassThrough(field.Layers1)
	l0 := ctx.Write(field.Layers0)
	l1 := ctx.Write(field.Layers1)
	for _, batch := range b.batches {
		p := batch.Params
		if p.Strength == 0 || p.Layer < 0 || p.Layer >= LayerCount {
			continue
		}
		if p.CellSize <= 0 {
			p.CellSize = 1
		}
		b.apply(l0, l1, p, batch.Points)
	}
	return nil
}

func (b *LayerBrush) apply(l0, l1 *field.Field, p LayerParams, points []Point) {
	st := newStamp(b.tiles, p.Kernel, p.Radius, b.height.Shape())
	for _, pt := range points {
		x0, y0, x1, y1 := st.bounds(pt)
		for y := y0; y < y1; y++ {
			for x := x0; x < x1; x++ {
				k := st.weight(pt, x, y)
				if k <= 0 {
					continue
				}
				slope := b.height.Slope(x, y, p.CellSize)
				if slope < p.MinSlope || slope > p.MaxSlope {
					continue
				}
				w := readWeights(l0, l1, x, y)
				addWeight(&w, p.Layer, p.Strength*k)
				writeWeights(l0, l1, x, y, w)
			}
		}
	}
}

func (b *LayerBrush) Finalize(ctx *pass.Context) {
	clear(b.batches)
	b.batches = b.batches[:0]
	b.height, b.tiles = field.View{}, field.View{}
}
