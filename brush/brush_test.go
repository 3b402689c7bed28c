package brush

import (
	"errors"
	"io"
	"log/slog"
	"math"
	"testing"

	"github.com/peterberweiler/ITA-Project-sub000/field"
	"github.com/peterberweiler/ITA-Project-sub000/pass"
)

var quiet = slog.New(slog.NewTextHandler(io.Discard, nil))

func newBrushSet(t *testing.T, w, h int) *field.Set {
	t.Helper()
	s := field.NewSet()
	if _, err := s.AddBuffer(field.Height, field.Shape{W: w, H: h, Channels: 1}); err != nil {
		t.Fatal(err)
	}
	l0, err := s.AddBuffer(field.Layers0, field.Shape{W: w, H: h, Channels: 4, Semantic: field.SemanticWeights})
	if err != nil {
		t.Fatal(err)
	}
	l0.Initialize(func(f *field.Field) { f.Fill(1) })
	if _, err := s.AddBuffer(field.Layers1, field.Shape{W: w, H: h, Channels: 4, Semantic: field.SemanticWeights}); err != nil {
		t.Fatal(err)
	}
	if err := AddTileset(s, 32); err != nil {
		t.Fatal(err)
	}
	return s
}

func drain(t *testing.T, s *field.Set, passes ...pass.Pass) {
	t.Helper()
	sched := pass.NewScheduler(s, pass.WithLogger(quiet))
	for _, p := range passes {
		if err := sched.Enqueue(p); err != nil {
			t.Fatal(err)
		}
	}
	sched.DrainOnce()
}

func TestStrokeBufferOverflow(t *testing.T) {
	b := NewStrokeBuffer[HeightParams](3, quiet)
	params := HeightParams{Radius: 0.1, Strength: 1}
	pts := []Point{{0.1, 0.1}, {0.2, 0.2}, {0.3, 0.3}, {0.4, 0.4}, {0.5, 0.5}}

	err := b.Add(params, pts...)
	if !errors.Is(err, ErrStrokeOverflow) {
		t.Fatalf("expected ErrStrokeOverflow, got %v", err)
	}
	if b.Len() != 3 || b.Dropped() != 2 {
		t.Errorf("len=%d dropped=%d, want 3 and 2", b.Len(), b.Dropped())
	}
	got := b.Take(nil)
	if len(got) != 1 || len(got[0].Points) != 3 {
		t.Fatalf("batches %+v, want one batch of 3", got)
	}
	for i, p := range got[0].Points {
		if p != pts[i] {
			t.Errorf("point %d = %v, want %v (first points kept)", i, p, pts[i])
		}
	}
	if b.Len() != 0 {
		t.Errorf("Take did not clear, len=%d", b.Len())
	}
	if err := b.Add(params, pts[0]); err != nil {
		t.Errorf("add after take: %v", err)
	}
}

func TestStrokeBufferBatchesByParams(t *testing.T) {
	b := NewStrokeBuffer[HeightParams](DefaultCapacity, quiet)
	up := HeightParams{Radius: 0.1, Strength: 1}
	down := HeightParams{Radius: 0.1, Strength: -1}

	b.Add(up, Point{0.1, 0.1})
	b.Add(up, Point{0.2, 0.2})
	b.Add(down, Point{0.3, 0.3})
	b.Add(up, Point{0.4, 0.4})
	b.Add(down) // no points, no batch

	got := b.Take(nil)
	want := []struct {
		params HeightParams
		n      int
	}{{up, 2}, {down, 1}, {up, 1}}
	if len(got) != len(want) {
		t.Fatalf("got %d batches, want %d", len(got), len(want))
	}
	for i, w := range want {
		if got[i].Params != w.params || len(got[i].Points) != w.n {
			t.Errorf("batch %d = %+v, want %d points with %+v", i, got[i], w.n, w.params)
		}
	}
}

func TestKernelShapes(t *testing.T) {
	for _, k := range Kernels() {
		t.Run(k.String(), func(t *testing.T) {
			if got := k.Eval(0); math.Abs(float64(got-1)) > 1e-6 {
				t.Errorf("center = %v, want 1", got)
			}
			if got := k.Eval(1.5); got != 0 {
				t.Errorf("outside radius = %v, want 0", got)
			}
			prev := k.Eval(0)
			for i := 1; i <= 10; i++ {
				v := k.Eval(float32(i) / 10)
				if v > prev+1e-6 {
					t.Errorf("falloff increases at t=%v", float32(i)/10)
				}
				prev = v
			}
			parsed, err := ParseKernel(k.String())
			if err != nil || parsed != k {
				t.Errorf("ParseKernel(%q) = %v, %v", k.String(), parsed, err)
			}
		})
	}
	if _, err := ParseKernel("blob"); !errors.Is(err, ErrUnknownKernel) {
		t.Errorf("expected ErrUnknownKernel, got %v", err)
	}
}

func TestInvalidKernelStampsSmooth(t *testing.T) {
	bad := Kernel(kernelCount + 3)
	if bad.Valid() {
		t.Fatal("out-of-range kernel reported valid")
	}
	if got, want := bad.Eval(0.5), KernelSmooth.Eval(0.5); got != want {
		t.Errorf("Eval = %v, want smooth %v", got, want)
	}

	paint := func(k Kernel) field.View {
		s := newBrushSet(t, 32, 32)
		b := NewHeightBrush(NewStrokeBuffer[HeightParams](DefaultCapacity, quiet))
		b.Strokes().Add(HeightParams{Radius: 0.2, Strength: 1, Kernel: k}, Point{X: 0.5, Y: 0.5})
		drain(t, s, b)
		v, _ := s.View(field.Height)
		return v
	}
	if a, b := paint(bad).Checksum(), paint(KernelSmooth).Checksum(); a != b {
		t.Errorf("invalid kernel stamp differs from smooth: %x vs %x", a, b)
	}
}

func TestHeightBrushAdditivity(t *testing.T) {
	params := HeightParams{Radius: 0.2, Strength: 0.75, Kernel: KernelSmooth}
	p1, p2 := Point{X: 0.4, Y: 0.45}, Point{X: 0.55, Y: 0.5}

	split := newBrushSet(t, 32, 32)
	sb := NewHeightBrush(NewStrokeBuffer[HeightParams](DefaultCapacity, quiet))
	sb.Strokes().Add(params, p1)
	drain(t, split, sb)
	sb.Strokes().Add(params, p2)
	drain(t, split, sb)

	joined := newBrushSet(t, 32, 32)
	jb := NewHeightBrush(NewStrokeBuffer[HeightParams](DefaultCapacity, quiet))
	jb.Strokes().Add(params, p1, p2)
	drain(t, joined, jb)

	a, _ := split.View(field.Height)
	b, _ := joined.View(field.Height)
	var touched bool
	for y := 0; y < 32; y++ {
		for x := 0; x < 32; x++ {
			if math.Abs(float64(a.At(x, y, 0)-b.At(x, y, 0))) > 1e-5 {
				t.Fatalf("(%d,%d): split %v, joined %v", x, y, a.At(x, y, 0), b.At(x, y, 0))
			}
			if a.At(x, y, 0) != 0 {
				touched = true
			}
		}
	}
	if !touched {
		t.Error("brush changed nothing")
	}
	if hi := b.At(15, 15, 0); hi <= 0 {
		t.Errorf("height under stroke = %v, want > 0", hi)
	}
}

func TestHeightBrushNoDataPassesThrough(t *testing.T) {
	s := newBrushSet(t, 16, 16)
	hb, _ := s.Buffer(field.Height)
	hb.Initialize(func(f *field.Field) {
		for i := range f.Values() {
			f.Values()[i] = float32(i) * 0.5
		}
	})
	before := hb.Current().Checksum()

	b := NewHeightBrush(NewStrokeBuffer[HeightParams](DefaultCapacity, quiet))
	drain(t, s, b)

	if hb.Generation() != 1 {
		t.Errorf("no-op invocation did not swap, generation %d", hb.Generation())
	}
	if hb.Current().Checksum() != before {
		t.Error("no-op invocation changed height")
	}
}

func TestLayerBrushKeepsSumBounded(t *testing.T) {
	s := newBrushSet(t, 24, 24)
	b := NewLayerBrush(NewStrokeBuffer[LayerParams](DefaultCapacity, quiet))
	params := LayerParams{
		Layer: 5, Radius: 0.3, Strength: 0.4, Kernel: KernelConstant,
		MinSlope: 0, MaxSlope: 10, CellSize: 1,
	}
	for i := 0; i < 6; i++ {
		b.Strokes().Add(params, Point{X: 0.5, Y: 0.5}, Point{X: 0.45, Y: 0.55})
		drain(t, s, b)
	}

	l0, _ := s.View(field.Layers0)
	l1, _ := s.View(field.Layers1)
	for y := 0; y < 24; y++ {
		for x := 0; x < 24; x++ {
			w := readWeights(l0, l1, x, y)
			var sum float32
			for _, v := range w {
				if v < 0 || v > 1 {
					t.Fatalf("(%d,%d) weight out of range: %v", x, y, w)
				}
				sum += v
			}
			if sum > 1+1e-5 {
				t.Fatalf("(%d,%d) weights sum to %v", x, y, sum)
			}
		}
	}
	center := readWeights(l0, l1, 12, 12)
	if center[5] < 0.99 || center[0] > 0.01 {
		t.Errorf("center weights %v, want layer 5 saturated", center)
	}
	corner := readWeights(l0, l1, 0, 0)
	if corner[0] != 1 || corner[5] != 0 {
		t.Errorf("corner outside radius changed: %v", corner)
	}
}

func TestLayerBrushSlopeRestriction(t *testing.T) {
	s := newBrushSet(t, 16, 16)
	hb, _ := s.Buffer(field.Height)
	// Steep on the left half, flat on the right.
	hb.Initialize(func(f *field.Field) {
		for y := 0; y < 16; y++ {
			for x := 0; x < 16; x++ {
				if x < 8 {
					f.Set(x, y, 0, float32(x)*5)
				} else {
					f.Set(x, y, 0, 35)
				}
			}
		}
	})

	b := NewLayerBrush(NewStrokeBuffer[LayerParams](DefaultCapacity, quiet))
	b.Strokes().Add(LayerParams{
		Layer: 2, Radius: 1, Strength: 1, Kernel: KernelConstant,
		MinSlope: 0, MaxSlope: 0.5, CellSize: 1,
	}, Point{X: 0.5, Y: 0.5})
	drain(t, s, b)

	l0, _ := s.View(field.Layers0)
	if got := l0.At(3, 8, 2); got != 0 {
		t.Errorf("steep texel painted: %v", got)
	}
	if got := l0.At(12, 8, 2); got != 1 {
		t.Errorf("flat texel weight %v, want 1", got)
	}
}

func TestLayerBrushEraseKeepsSum(t *testing.T) {
	s := newBrushSet(t, 16, 16)
	b := NewLayerBrush(NewStrokeBuffer[LayerParams](DefaultCapacity, quiet))
	paint := LayerParams{Layer: 5, Radius: 0.25, Strength: 1, Kernel: KernelConstant, MaxSlope: 10, CellSize: 1}
	erase := paint
	erase.Strength = -1

	b.Strokes().Add(paint, Point{X: 0.5, Y: 0.5})
	drain(t, s, b)
	b.Strokes().Add(erase, Point{X: 0.5, Y: 0.5})
	drain(t, s, b)

	l0, _ := s.View(field.Layers0)
	l1, _ := s.View(field.Layers1)
	for y := 0; y < 16; y++ {
		for x := 0; x < 16; x++ {
			w := readWeights(l0, l1, x, y)
			var sum float32
			for _, v := range w {
				sum += v
			}
			if math.Abs(float64(sum-1)) > 1e-5 {
				t.Fatalf("(%d,%d) weights sum to %v after erase: %v", x, y, sum, w)
			}
		}
	}
	if w := readWeights(l0, l1, 8, 8); w[5] != 0 || w[0] != 1 {
		t.Errorf("center weights %v, want layer 5 erased back to layer 0", w)
	}
}

func TestAddWeight(t *testing.T) {
	tests := []struct {
		name   string
		start  [LayerCount]float32
		layer  int
		amount float32
		want   [LayerCount]float32
	}{
		{"room left", [LayerCount]float32{0.5}, 1, 0.3, [LayerCount]float32{0.5, 0.3}},
		{"scales others", [LayerCount]float32{1}, 1, 0.25, [LayerCount]float32{0.75, 0.25}},
		{"saturates", [LayerCount]float32{0.4, 0.6}, 1, 2, [LayerCount]float32{0, 1}},
		{"lowering", [LayerCount]float32{0.5, 0.5}, 1, -0.2, [LayerCount]float32{0.7, 0.3}},
		{"lowering spreads", [LayerCount]float32{0.2, 0.4, 0.4}, 2, -0.4, [LayerCount]float32{0.2 + 0.4/3, 0.4 + 0.8/3, 0}},
		{"erasing only layer", [LayerCount]float32{0, 0, 0, 0, 0, 1}, 5, -1, [LayerCount]float32{1}},
		{"erasing layer 0 alone", [LayerCount]float32{1}, 0, -0.5, [LayerCount]float32{0.5, 0.5}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := tt.start
			addWeight(&w, tt.layer, tt.amount)
			for i := range w {
				if math.Abs(float64(w[i]-tt.want[i])) > 1e-6 {
					t.Errorf("weights %v, want %v", w, tt.want)
					break
				}
			}
		})
	}
}

func TestSurfacePassNormalizes(t *testing.T) {
	s := newBrushSet(t, 16, 16)
	hb, _ := s.Buffer(field.Height)
	hb.Initialize(func(f *field.Field) {
		for y := 0; y < 16; y++ {
			for x := 0; x < 16; x++ {
				f.Set(x, y, 0, float32(y)*10)
			}
		}
	})

	rules := []SurfaceRule{
		{Layer: 1, MinHeight: -10, MaxHeight: 50, MinSlope: 0, MaxSlope: 100, Blend: 5},
		{Layer: 6, MinHeight: 100, MaxHeight: 1000, MinSlope: 0, MaxSlope: 100, Blend: 5},
	}
	drain(t, s, NewSurfacePass(rules, 1))

	l0, _ := s.View(field.Layers0)
	l1, _ := s.View(field.Layers1)
	for y := 0; y < 16; y++ {
		for x := 0; x < 16; x++ {
			w := readWeights(l0, l1, x, y)
			var sum float32
			for _, v := range w {
				sum += v
			}
			if math.Abs(float64(sum-1)) > 1e-5 {
				t.Fatalf("(%d,%d) weights sum to %v", x, y, sum)
			}
		}
	}
	if w := readWeights(l0, l1, 4, 1); w[1] != 1 {
		t.Errorf("low texel weights %v, want layer 1", w)
	}
	if w := readWeights(l0, l1, 4, 14); w[6] != 1 {
		t.Errorf("high texel weights %v, want layer 6", w)
	}
	// Between the bands no rule matches; layer 0 is the fallback.
	if w := readWeights(l0, l1, 4, 7); w[0] != 1 {
		t.Errorf("unmatched texel weights %v, want layer 0", w)
	}
}
