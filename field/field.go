// Package field provides the fixed-resolution grids the terrain simulation
// operates on, the double-buffered wrapper used by passes, and the named
// collection that owns them for a session.
package field

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/blas/blas32"
)

var (
	// ErrShapeMismatch is returned when two fields with different layouts are combined.
	ErrShapeMismatch = errors.New("field: shape mismatch")
	// ErrInvalidShape is returned for non-positive dimensions or channel counts.
	ErrInvalidShape = errors.New("field: invalid shape")
)

// MaxChannels is the widest texel a Field can hold.
const MaxChannels = 4

// Semantic describes what the channels of a field mean.
type Semantic uint8

const (
	SemanticScalar  Semantic = iota // height, depth, shadow
	SemanticVector                  // velocity, flux
	SemanticWeights                 // packed layer weights
	SemanticMask                    // brush tileset
)

func (s Semantic) String() string {
	switch s {
	case SemanticScalar:
		return "scalar"
	case SemanticVector:
		return "vector"
	case SemanticWeights:
		return "weights"
	case SemanticMask:
		return "mask"
	default:
		return fmt.Sprintf("semantic(%d)", uint8(s))
	}
}

// Shape is the immutable layout of a Field.
type Shape struct {
	W, H     int
	Channels int
	Semantic Semantic
}

// Len returns the number of float32 values stored for this shape.
func (s Shape) Len() int { return s.W * s.H * s.Channels }

// Texels returns the number of grid cells.
func (s Shape) Texels() int { return s.W * s.H }

func (s Shape) validate() error {
	if s.W <= 0 || s.H <= 0 {
		return fmt.Errorf("%w: %dx%d", ErrInvalidShape, s.W, s.H)
	}
	if s.Channels < 1 || s.Channels > MaxChannels {
		return fmt.Errorf("%w: %d channels", ErrInvalidShape, s.Channels)
	}
	return nil
}

// Field is a 2D grid of interleaved float32 texels stored row-major.
// Its shape never changes after creation; only its contents do.
type Field struct {
	name  string
	shape Shape
	data  []float32
}

// NewField allocates a zeroed field.
func NewField(name string, shape Shape) (*Field, error) {
	if err := shape.validate(); err != nil {
		return nil, fmt.Errorf("field %q: %w", name, err)
	}
	return &Field{name: name, shape: shape, data: make([]float32, shape.Len())}, nil
}

// Name returns the field name.
func (f *Field) Name() string { return f.name }

// Shape returns the field layout.
func (f *Field) Shape() Shape { return f.shape }

// Index returns the slice offset of channel 0 at (x, y).
func (f *Field) Index(x, y int) int { return (y*f.shape.W + x) * f.shape.Channels }

// At returns channel c at (x, y).
func (f *Field) At(x, y, c int) float32 {
	return f.data[(y*f.shape.W+x)*f.shape.Channels+c]
}

// Set writes channel c at (x, y).
func (f *Field) Set(x, y, c int, v float32) {
	f.data[(y*f.shape.W+x)*f.shape.Channels+c] = v
}

// Row exposes the backing values of row y for bulk writes.
func (f *Field) Row(y int) []float32 {
	stride := f.shape.W * f.shape.Channels
	return f.data[y*stride : (y+1)*stride]
}

// Values exposes the whole backing slice for bulk writes.
func (f *Field) Values() []float32 { return f.data }

// Fill sets every texel to the given per-channel values. Missing channels are zeroed.
func (f *Field) Fill(values ...float32) {
	c := f.shape.Channels
	var texel [MaxChannels]float32
	copy(texel[:], values)
	for i := 0; i < len(f.data); i += c {
		copy(f.data[i:i+c], texel[:c])
	}
}

// CopyFrom overwrites every texel with the contents of v.
func (f *Field) CopyFrom(v View) error {
	if v.f == nil || v.f.shape != f.shape {
		return fmt.Errorf("%w: copy %q into %q", ErrShapeMismatch, v.Name(), f.name)
	}
	n := len(f.data)
	blas32.Copy(
		blas32.Vector{N: n, Inc: 1, Data: v.f.data},
		blas32.Vector{N: n, Inc: 1, Data: f.data},
	)
	return nil
}

// View returns a read-only view of the field.
func (f *Field) View() View { return View{f: f} }
