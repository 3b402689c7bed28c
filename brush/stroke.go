// Package brush implements the user-driven editing passes: height brush,
// layer weight brush and the generate-surface pass.
package brush

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
)

// DefaultCapacity is the number of stroke points one invocation consumes.
const DefaultCapacity = 25

// ErrStrokeOverflow is returned when more points arrive than a buffer holds.
var ErrStrokeOverflow = errors.New("brush: stroke capacity exceeded")

// Point is a stroke sample in normalized field space, [0,1] on both axes.
type Point struct {
	X, Y float32
}

// Batch is a run of consecutive stroke points sharing one parameter record.
type Batch[P comparable] struct {
	Params P
	Points []Point
}

// StrokeBuffer accumulates stroke samples between invocations, each with
// the parameters it was drawn with. Input handlers call Add; the owning
// pass calls Take at Init.
type StrokeBuffer[P comparable] struct {
	mu       sync.Mutex
	batches  []Batch[P]
	n        int
	capacity int
	dropped  int
	log      *slog.Logger
}

// NewStrokeBuffer creates a buffer holding at most capacity points.
// A nil logger falls back to slog.Default().
func NewStrokeBuffer[P comparable](capacity int, log *slog.Logger) *StrokeBuffer[P] {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	if log == nil {
		log = slog.Default()
	}
	return &StrokeBuffer[P]{
		capacity: capacity,
		log:      log,
	}
}

// Add appends points drawn with params. Consecutive points with equal
// params share a batch. Points past capacity are ignored and the overflow
// is logged and returned; the accepted points are kept.
func (b *StrokeBuffer[P]) Add(params P, pts ...Point) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	room := b.capacity - b.n
	keep := min(len(pts), max(room, 0))
	b.append(params, pts[:keep])
	if keep == len(pts) {
		return nil
	}
	extra := len(pts) - keep
	b.dropped += extra
	b.log.Warn("stroke points exceed capacity", "capacity", b.capacity, "dropped", extra)
	return fmt.Errorf("%w: %d points over %d", ErrStrokeOverflow, extra, b.capacity)
}

func (b *StrokeBuffer[P]) append(params P, pts []Point) {
	if len(pts) == 0 {
		return
	}
	b.n += len(pts)
	if last := len(b.batches) - 1; last >= 0 && b.batches[last].Params == params {
		b.batches[last].Points = append(b.batches[last].Points, pts...)
		return
	}
	b.batches = append(b.batches, Batch[P]{Params: params, Points: append([]Point(nil), pts...)})
}

// Take appends the pending batches to dst in arrival order, clears the
// buffer and returns dst.
func (b *StrokeBuffer[P]) Take(dst []Batch[P]) []Batch[P] {
	b.mu.Lock()
	defer b.mu.Unlock()
	dst = append(dst, b.batches...)
	clear(b.batches)
	b.batches = b.batches[:0]
	b.n = 0
	return dst
}

// Len returns the number of pending points.
func (b *StrokeBuffer[P]) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.n
}

// Clear drops pending points without applying them.
func (b *StrokeBuffer[P]) Clear() {
	b.mu.Lock()
	clear(b.batches)
	b.batches = b.batches[:0]
	b.n = 0
	b.mu.Unlock()
}

// Capacity returns the maximum number of pending points.
func (b *StrokeBuffer[P]) Capacity() int { return b.capacity }

// Dropped returns the total number of points ignored due to overflow.
func (b *StrokeBuffer[P]) Dropped() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.dropped
}
