package pass

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/peterberweiler/ITA-Project-sub000/field"
)

// addPass writes current+delta into next and records what it observed.
type addPass struct {
	name  string
	delta float32
	err   error

	calls          []string
	currentDuring  float32
	currentAfterWr float32
}

func (p *addPass) Name() string { return p.name }

func (p *addPass) Bindings() []Binding {
	return []Binding{Read(field.Height), Write(field.Height)}
}

func (p *addPass) Init(ctx *Context) { p.calls = append(p.calls, "init") }

func (p *addPass) Execute(ctx *Context) error {
	p.calls = append(p.calls, "execute")
	cur := ctx.Read(field.Height)
	dst := ctx.Write(field.Height)
	p.currentDuring = cur.At(0, 0, 0)
	shape := cur.Shape()
	for y := 0; y < shape.H; y++ {
		for x := 0; x < shape.W; x++ {
			dst.Set(x, y, 0, cur.At(x, y, 0)+p.delta)
		}
	}
	p.currentAfterWr = ctx.Read(field.Height).At(0, 0, 0)
	return p.err
}

func (p *addPass) Finalize(ctx *Context) { p.calls = append(p.calls, "finalize") }

func newTestSet(t *testing.T) *field.Set {
	t.Helper()
	s := field.NewSet()
	if _, err := s.AddBuffer(field.Height, field.Shape{W: 4, H: 4, Channels: 1}); err != nil {
		t.Fatal(err)
	}
	if _, err := s.AddStatic(field.BrushTiles, field.Shape{W: 4, H: 1, Channels: 1}); err != nil {
		t.Fatal(err)
	}
	return s
}

func TestDrainOnceEmptyQueueIsNoop(t *testing.T) {
	set := newTestSet(t)
	s := NewScheduler(set)

	before := set.Generations()
	if n := s.DrainOnce(); n != 0 {
		t.Errorf("expected 0 invocations, got %d", n)
	}
	after := set.Generations()
	for name, g := range before {
		if after[name] != g {
			t.Errorf("generation of %s changed on idle frame: %d -> %d", name, g, after[name])
		}
	}
}

func TestDrainOnceRunsFIFOAndSwaps(t *testing.T) {
	set := newTestSet(t)
	var order []string
	s := NewScheduler(set, WithObserver(func(name string, _ time.Duration) {
		order = append(order, name)
	}))

	a := &addPass{name: "a", delta: 1}
	b := &addPass{name: "b", delta: 10}
	for _, p := range []Pass{a, b, a} {
		if err := s.Enqueue(p); err != nil {
			t.Fatal(err)
		}
	}
	if s.Len() != 3 {
		t.Fatalf("expected 3 pending, got %d", s.Len())
	}

	if n := s.DrainOnce(); n != 3 {
		t.Fatalf("expected 3 invocations, got %d", n)
	}
	if len(order) != 3 || order[0] != "a" || order[1] != "b" || order[2] != "a" {
		t.Errorf("unexpected execution order %v", order)
	}

	// Each invocation saw the previous one's committed result.
	if b.currentDuring != 1 {
		t.Errorf("b read %v, want 1 (a's output)", b.currentDuring)
	}
	if a.currentDuring != 11 {
		t.Errorf("second a read %v, want 11", a.currentDuring)
	}

	v, _ := set.View(field.Height)
	if got := v.At(3, 3, 0); got != 12 {
		t.Errorf("final height %v, want 12", got)
	}
	if gen := set.Generations()[field.Height]; gen != 3 {
		t.Errorf("expected 3 swaps, got %d", gen)
	}
	if s.Len() != 0 {
		t.Errorf("queue not empty after drain: %d", s.Len())
	}
}

func TestCurrentIsolatedUntilSwap(t *testing.T) {
	set := newTestSet(t)
	s := NewScheduler(set)
	p := &addPass{name: "iso", delta: 5}
	if err := s.Enqueue(p); err != nil {
		t.Fatal(err)
	}
	s.DrainOnce()

	if p.currentDuring != 0 || p.currentAfterWr != 0 {
		t.Errorf("current changed during execute: before=%v after-write=%v", p.currentDuring, p.currentAfterWr)
	}
	v, _ := set.View(field.Height)
	if v.At(0, 0, 0) != 5 {
		t.Errorf("expected committed value 5 after swap, got %v", v.At(0, 0, 0))
	}
}

func TestFinalizeRunsAfterCellError(t *testing.T) {
	set := newTestSet(t)
	s := NewScheduler(set)
	p := &addPass{name: "nan", delta: 1, err: &CellError{Pass: "nan", Field: field.Height, Cells: 3}}
	if err := s.Enqueue(p); err != nil {
		t.Fatal(err)
	}
	s.DrainOnce()

	want := []string{"init", "execute", "finalize"}
	if len(p.calls) != len(want) {
		t.Fatalf("calls = %v, want %v", p.calls, want)
	}
	for i := range want {
		if p.calls[i] != want[i] {
			t.Errorf("calls = %v, want %v", p.calls, want)
		}
	}
	if gen := set.Generations()[field.Height]; gen != 1 {
		t.Errorf("expected swap despite cell error, generation %d", gen)
	}
	if s.Anomalies() != 3 {
		t.Errorf("anomalies = %d, want 3", s.Anomalies())
	}
}

func TestDropRemovesPendingOnly(t *testing.T) {
	set := newTestSet(t)
	s := NewScheduler(set)
	a := &addPass{name: "a", delta: 1}
	b := &addPass{name: "b", delta: 2}
	s.Enqueue(a)
	s.Enqueue(b)
	s.Enqueue(a)

	if n := s.Drop(a); n != 2 {
		t.Errorf("expected 2 dropped, got %d", n)
	}
	if s.Len() != 1 {
		t.Errorf("expected 1 pending, got %d", s.Len())
	}
	s.DrainOnce()
	if len(a.calls) != 0 {
		t.Errorf("dropped pass ran: %v", a.calls)
	}
	v, _ := set.View(field.Height)
	if v.At(0, 0, 0) != 2 {
		t.Errorf("expected only b applied, got %v", v.At(0, 0, 0))
	}
}

type badPass struct {
	addPass
	bindings []Binding
}

func (p *badPass) Bindings() []Binding { return p.bindings }

func TestEnqueueValidatesBindings(t *testing.T) {
	set := newTestSet(t)
	s := NewScheduler(set)

	tests := []struct {
		name     string
		bindings []Binding
	}{
		{"unknown field", []Binding{Read("nope"), Write(field.Height)}},
		{"write static", []Binding{Write(field.BrushTiles)}},
		{"duplicate", []Binding{Write(field.Height), Write(field.Height)}},
		{"no write", []Binding{Read(field.Height)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &badPass{addPass: addPass{name: tt.name}, bindings: tt.bindings}
			if err := s.Enqueue(p); !errors.Is(err, ErrInvalidBinding) {
				t.Errorf("expected ErrInvalidBinding, got %v", err)
			}
		})
	}
	if s.Len() != 0 {
		t.Errorf("invalid passes were queued: %d", s.Len())
	}
}

type rogueWriter struct{ addPass }

func (p *rogueWriter) Execute(ctx *Context) error {
	ctx.Write(field.BrushTiles)
	return nil
}

func TestWriteUndeclaredPanics(t *testing.T) {
	set := newTestSet(t)
	s := NewScheduler(set)
	if err := s.Enqueue(&rogueWriter{addPass{name: "rogue"}}); err != nil {
		t.Fatal(err)
	}
	defer func() {
		r := recover()
		err, ok := r.(error)
		if !ok || !errors.Is(err, ErrUnboundWrite) {
			t.Errorf("expected ErrUnboundWrite panic, got %v", r)
		}
	}()
	s.DrainOnce()
}

func TestClampCountsNonFinite(t *testing.T) {
	var k Clamp
	nan := float32(0)
	nan = nan / nan
	inf := float32(1e38)
	inf *= 10

	if got := k.Value(nan, 0); got != 0 {
		t.Errorf("NaN clamped to %v", got)
	}
	if got := k.Value(inf, 1); got != 1 {
		t.Errorf("Inf clamped to %v", got)
	}
	if got := k.Value(2.5, 0); got != 2.5 {
		t.Errorf("finite value changed to %v", got)
	}
	err := k.Err("p", "f")
	var cellErr *CellError
	if !errors.As(err, &cellErr) || cellErr.Cells != 2 {
		t.Errorf("expected CellError with 2 cells, got %v", err)
	}
}

func TestRowsCoversEveryRowOnce(t *testing.T) {
	for _, h := range []int{1, 7, 64, 65, 1000} {
		hits := make([]int32, h)
		var k Clamp
		Rows(h, &k, func(y0, y1 int, band *Clamp) {
			for y := y0; y < y1; y++ {
				hits[y]++
				band.Value(float32(math.NaN()), 0)
			}
		})
		for y, n := range hits {
			if n != 1 {
				t.Fatalf("h=%d: row %d visited %d times", h, y, n)
			}
		}
		if k.Cells != h {
			t.Errorf("h=%d: merged clamp count %d", h, k.Cells)
		}
	}
}
