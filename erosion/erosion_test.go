package erosion

import (
	"errors"
	"math"
	"math/rand/v2"
	"testing"

	"github.com/peterberweiler/ITA-Project-sub000/field"
	"github.com/peterberweiler/ITA-Project-sub000/pass"
)

func newErosionSet(t testing.TB, w, h int) *field.Set {
	t.Helper()
	s := field.NewSet()
	layout := []struct {
		name     string
		channels int
	}{
		{field.Height, 1},
		{field.Water, 1},
		{field.Flux, 4},
		{field.Velocity, 2},
		{field.Sediment, 2},
		{field.SoilFluxPlus, 4},
		{field.SoilFluxCross, 4},
	}
	for _, l := range layout {
		if _, err := s.AddBuffer(l.name, field.Shape{W: w, H: h, Channels: l.channels}); err != nil {
			t.Fatal(err)
		}
	}
	return s
}

func initField(t testing.TB, s *field.Set, name string, fn func(x, y, c int) float32) {
	t.Helper()
	b, ok := s.Buffer(name)
	if !ok {
		t.Fatalf("no buffer %s", name)
	}
	b.Initialize(func(f *field.Field) {
		shape := f.Shape()
		for y := 0; y < shape.H; y++ {
			for x := 0; x < shape.W; x++ {
				for c := 0; c < shape.Channels; c++ {
					f.Set(x, y, c, fn(x, y, c))
				}
			}
		}
	})
}

func run(t testing.TB, s *field.Set, passes ...pass.Pass) {
	t.Helper()
	sched := pass.NewScheduler(s)
	for _, p := range passes {
		if err := sched.Enqueue(p); err != nil {
			t.Fatalf("enqueue %s: %v", p.Name(), err)
		}
	}
	sched.DrainOnce()
}

func view(t testing.TB, s *field.Set, name string) field.View {
	t.Helper()
	v, err := s.View(name)
	if err != nil {
		t.Fatal(err)
	}
	return v
}

func hill(x, y, _ int) float32 {
	dx, dy := float64(x)-7.5, float64(y)-7.5
	return float32(10 * math.Exp(-(dx*dx+dy*dy)/20))
}

func TestWaterFluxRoundTrip4x4(t *testing.T) {
	heights := [4][4]float32{
		{0, 0, 0, 0},
		{0, 10, 10, 0},
		{0, 10, 10, 0},
		{0, 0, 0, 0},
	}
	s := newErosionSet(t, 4, 4)
	initField(t, s, field.Height, func(x, y, _ int) float32 { return heights[y][x] })

	p := DefaultParams()
	p.RainRate = 0.1
	p.DeltaTime = 0.02
	p.PipeLength = 1
	p.PipeCrossSectionArea = 20
	run(t, s, NewWaterFlux(&p))

	water := view(t, s, field.Water)
	for y := 1; y <= 2; y++ {
		for x := 1; x <= 2; x++ {
			if d := water.At(x, y, 0); d <= 0 {
				t.Errorf("water at raised cell (%d,%d) = %v, want > 0", x, y, d)
			}
		}
	}

	out, in := fluxBalance(view(t, s, field.Flux))
	if math.Abs(out-in) > 1e-6 {
		t.Errorf("flux imbalance: out=%v in=%v", out, in)
	}
}

// fluxBalance sums every outgoing pipe and every pipe arriving at an in-grid cell.
func fluxBalance(flux field.View) (out, in float64) {
	shape := flux.Shape()
	for y := 0; y < shape.H; y++ {
		for x := 0; x < shape.W; x++ {
			for i := 0; i < 4; i++ {
				out += float64(flux.At(x, y, i))
				nx, ny := x+plusDX[i], y+plusDY[i]
				if inGrid(nx, ny, shape.W, shape.H) {
					in += float64(flux.At(nx, ny, plusOp[i]))
				}
			}
		}
	}
	return out, in
}

func TestWaterFluxConservesVolume(t *testing.T) {
	s := newErosionSet(t, 16, 16)
	initField(t, s, field.Height, hill)
	initField(t, s, field.Water, func(x, y, _ int) float32 { return 0.5 })

	p := DefaultParams()
	p.RainRate = 0.05
	n := 16 * 16

	for tick := 0; tick < 10; tick++ {
		before := view(t, s, field.Water).Sum(0)
		run(t, s, NewWaterFlux(&p))
		after := view(t, s, field.Water).Sum(0)

		want := before + float64(p.RainRate*p.DeltaTime)*float64(n)
		if math.Abs(after-want) > 1e-3*want {
			t.Fatalf("tick %d: water volume %v, want %v", tick, after, want)
		}
		out, in := fluxBalance(view(t, s, field.Flux))
		if math.Abs(out-in) > 1e-3*(out+1) {
			t.Fatalf("tick %d: flux leaves the grid: out=%v in=%v", tick, out, in)
		}
	}
}

func TestWaterFluxNeverOverdrains(t *testing.T) {
	rng := rand.New(rand.NewPCG(7, 11))
	cases := []struct {
		name string
		mod  func(*Params)
	}{
		{"defaults", func(*Params) {}},
		{"no rain", func(p *Params) { p.RainRate = 0 }},
		{"wide pipes", func(p *Params) { p.PipeCrossSectionArea = 400 }},
		{"large step", func(p *Params) { p.DeltaTime = 0.1; p.RainRate = 0.01 }},
		{"short pipes", func(p *Params) { p.PipeLength = 0.25 }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := newErosionSet(t, 12, 12)
			initField(t, s, field.Height, func(int, int, int) float32 { return rng.Float32() * 20 })
			initField(t, s, field.Water, func(int, int, int) float32 { return rng.Float32() * 2 })

			p := DefaultParams()
			tc.mod(&p)
			cellArea := float64(p.PipeLength * p.PipeLength)

			for tick := 0; tick < 20; tick++ {
				prior, err := s.Snapshot(field.Water)
				if err != nil {
					t.Fatal(err)
				}
				run(t, s, NewWaterFlux(&p))

				flux := view(t, s, field.Flux)
				water := view(t, s, field.Water)
				for y := 0; y < 12; y++ {
					for x := 0; x < 12; x++ {
						var out float64
						for i := 0; i < 4; i++ {
							out += float64(flux.At(x, y, i))
						}
						held := float64(prior.At(x, y, 0)) * cellArea
						if out*float64(p.DeltaTime) > held*(1+1e-5)+1e-6 {
							t.Fatalf("tick %d (%d,%d): outflow %v exceeds held %v", tick, x, y, out*float64(p.DeltaTime), held)
						}
						if d := water.At(x, y, 0); d < 0 {
							t.Fatalf("tick %d (%d,%d): negative depth %v", tick, x, y, d)
						}
					}
				}
			}
		})
	}
}

func TestSuspensionMovesMassBetweenTerrainAndSediment(t *testing.T) {
	s := newErosionSet(t, 16, 16)
	initField(t, s, field.Height, hill)
	initField(t, s, field.Water, func(int, int, int) float32 { return 1 })

	p := DefaultParams()
	run(t, s, NewWaterFlux(&p))

	before := view(t, s, field.Height).Sum(0) + view(t, s, field.Sediment).Sum(0)
	run(t, s, NewSuspension(&p))
	after := view(t, s, field.Height).Sum(0) + view(t, s, field.Sediment).Sum(0)

	if math.Abs(after-before) > 1e-3 {
		t.Errorf("terrain+sediment changed: %v -> %v", before, after)
	}
	if _, hi := view(t, s, field.Sediment).MinMax(0); hi <= 0 {
		t.Error("flowing water on a slope dissolved nothing")
	}
	if _, hi := view(t, s, field.Velocity).MinMax(0); hi <= 0 {
		t.Error("no velocity produced from flux")
	}
}

func TestStageOrderChangesSediment(t *testing.T) {
	p := DefaultParams()
	prepare := func() *field.Set {
		s := newErosionSet(t, 16, 16)
		initField(t, s, field.Height, hill)
		initField(t, s, field.Water, func(int, int, int) float32 { return 1 })
		run(t, s, NewWaterFlux(&p))
		return s
	}

	canonical := prepare()
	run(t, canonical, NewSuspension(&p), NewSedimentAdvection(&p))

	swapped := prepare()
	run(t, swapped, NewSedimentAdvection(&p), NewSuspension(&p))

	a := view(t, canonical, field.Sediment).Checksum()
	b := view(t, swapped, field.Sediment).Checksum()
	if a == b {
		t.Error("swapping suspension and advection left sediment unchanged")
	}
}

func TestSoilStagesConserveHeight(t *testing.T) {
	rng := rand.New(rand.NewPCG(3, 5))
	s := newErosionSet(t, 20, 20)
	initField(t, s, field.Height, func(int, int, int) float32 { return rng.Float32() * 30 })

	p := DefaultParams()
	p.ThermalErosionRate = 20 // reaches the half-drop cap

	initial := view(t, s, field.Height)
	total := initial.Sum(0)
	lo, hi := initial.MinMax(0)
	spread := hi - lo

	for i := 0; i < 30; i++ {
		run(t, s, NewSoilFlux(&p), NewSoilAdvection())
	}

	final := view(t, s, field.Height)
	if got := final.Sum(0); math.Abs(got-total) > 1e-4*math.Abs(total) {
		t.Errorf("total height %v, want %v", got, total)
	}
	lo, hi = final.MinMax(0)
	if hi-lo >= spread {
		t.Errorf("thermal erosion did not reduce relief: %v -> %v", spread, hi-lo)
	}
}

func TestSoilFluxRespectsTalus(t *testing.T) {
	s := newErosionSet(t, 8, 8)
	// A gentle ramp below the talus threshold.
	initField(t, s, field.Height, func(x, _, _ int) float32 { return float32(x) * 0.05 })

	p := DefaultParams()
	run(t, s, NewSoilFlux(&p))

	plus := view(t, s, field.SoilFluxPlus)
	cross := view(t, s, field.SoilFluxCross)
	for c := 0; c < 4; c++ {
		if _, hi := plus.MinMax(c); hi != 0 {
			t.Errorf("plus flux channel %d = %v below talus angle", c, hi)
		}
		if _, hi := cross.MinMax(c); hi != 0 {
			t.Errorf("cross flux channel %d = %v below talus angle", c, hi)
		}
	}
}

func TestSolverTickFlatTerrainIsStable(t *testing.T) {
	s := newErosionSet(t, 8, 8)
	initField(t, s, field.Height, func(int, int, int) float32 { return 5 })

	solver := NewSolver(DefaultParams())
	sched := pass.NewScheduler(s)
	for i := 0; i < 5; i++ {
		if err := solver.Enqueue(sched); err != nil {
			t.Fatal(err)
		}
		sched.DrainOnce()
	}

	lo, hi := view(t, s, field.Height).MinMax(0)
	if lo != 5 || hi != 5 {
		t.Errorf("flat terrain moved: [%v, %v]", lo, hi)
	}
	if lo, _ := view(t, s, field.Water).MinMax(0); lo <= 0 {
		t.Errorf("rain did not accumulate, min depth %v", lo)
	}
}

type recordingQueue struct{ names []string }

func (q *recordingQueue) Validate(pass.Pass) error { return nil }

func (q *recordingQueue) Enqueue(p pass.Pass) error {
	q.names = append(q.names, p.Name())
	return nil
}

func TestSolverEnqueuesFixedOrder(t *testing.T) {
	solver := NewSolver(DefaultParams())
	q := &recordingQueue{}
	if err := solver.Enqueue(q); err != nil {
		t.Fatal(err)
	}
	want := []string{StageWaterFlux, StageSuspension, StageSedimentAdvection, StageSoilFlux, StageSoilAdvection}
	if len(q.names) != len(want) {
		t.Fatalf("enqueued %v", q.names)
	}
	for i := range want {
		if q.names[i] != want[i] {
			t.Errorf("stage %d = %s, want %s", i, q.names[i], want[i])
		}
	}
}

func TestSolverRejectedTickQueuesNothing(t *testing.T) {
	s := field.NewSet()
	for _, l := range []struct {
		name     string
		channels int
	}{
		{field.Height, 1}, {field.Water, 1}, {field.Flux, 4},
		{field.Velocity, 2}, {field.Sediment, 2},
	} {
		if _, err := s.AddBuffer(l.name, field.Shape{W: 4, H: 4, Channels: l.channels}); err != nil {
			t.Fatal(err)
		}
	}
	sched := pass.NewScheduler(s)
	err := NewSolver(DefaultParams()).Enqueue(sched)
	if !errors.Is(err, pass.ErrInvalidBinding) {
		t.Fatalf("expected ErrInvalidBinding, got %v", err)
	}
	if n := sched.Len(); n != 0 {
		t.Errorf("%d stages left queued after a rejected tick", n)
	}
}

func TestSuspensionClampsHardness(t *testing.T) {
	s := newErosionSet(t, 16, 16)
	initField(t, s, field.Height, hill)
	initField(t, s, field.Water, func(int, int, int) float32 { return 1 })
	initField(t, s, field.Sediment, func(_, _, c int) float32 {
		if c == 1 {
			return 2
		}
		return 0
	})

	p := DefaultParams()
	run(t, s, NewWaterFlux(&p))

	before := view(t, s, field.Height).Sum(0) + view(t, s, field.Sediment).Sum(0)
	run(t, s, NewSuspension(&p))
	after := view(t, s, field.Height).Sum(0) + view(t, s, field.Sediment).Sum(0)

	if math.Abs(after-before) > 1e-3 {
		t.Errorf("terrain+sediment changed: %v -> %v", before, after)
	}
	if lo, _ := view(t, s, field.Sediment).MinMax(0); lo < 0 {
		t.Errorf("suspended sediment went negative: %v", lo)
	}
}

func TestSolverParamsApplyNextTick(t *testing.T) {
	s := newErosionSet(t, 4, 4)
	solver := NewSolver(DefaultParams())
	solver.Params().RainRate = 1
	solver.Params().EvaporationRate = 0

	run(t, s, solver.Stages()...)

	want := float32(1) * solver.Params().DeltaTime
	if got := view(t, s, field.Water).At(0, 0, 0); math.Abs(float64(got-want)) > 1e-6 {
		t.Errorf("depth after one tick = %v, want %v", got, want)
	}
}

func BenchmarkSolverTick(b *testing.B) {
	s := newErosionSet(b, 256, 256)
	initField(b, s, field.Height, func(x, y, _ int) float32 {
		return float32(math.Sin(float64(x)*0.05)*10 + math.Cos(float64(y)*0.07)*10)
	})
	solver := NewSolver(DefaultParams())
	sched := pass.NewScheduler(s)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		solver.Enqueue(sched)
		sched.DrainOnce()
	}
}
