package field

import (
	"errors"
	"fmt"
)

// Field names of the terrain session.
const (
	Height        = "height"
	Water         = "water"
	Flux          = "flux"
	Velocity      = "velocity"
	Sediment      = "sediment"
	SoilFluxPlus  = "soil_flux_plus"
	SoilFluxCross = "soil_flux_cross"
	Layers0       = "layers0"
	Layers1       = "layers1"
	Shadow        = "shadow"
	BrushTiles    = "brush_tiles"
)

var (
	// ErrUnknownField is returned when a name is not registered in the set.
	ErrUnknownField = errors.New("field: unknown field")
	// ErrDuplicateField is returned when a name is registered twice.
	ErrDuplicateField = errors.New("field: duplicate field")
)

// Set owns every Field and Buffer of a session, keyed by name.
type Set struct {
	buffers map[string]*Buffer
	statics map[string]*Field
	order   []string
}

// NewSet creates an empty set.
func NewSet() *Set {
	return &Set{
		buffers: make(map[string]*Buffer),
		statics: make(map[string]*Field),
	}
}

func (s *Set) checkFree(name string) error {
	if name == "" {
		return fmt.Errorf("%w: empty name", ErrInvalidShape)
	}
	if _, ok := s.buffers[name]; ok {
		return fmt.Errorf("%w: %q", ErrDuplicateField, name)
	}
	if _, ok := s.statics[name]; ok {
		return fmt.Errorf("%w: %q", ErrDuplicateField, name)
	}
	return nil
}

// AddBuffer registers a double-buffered field.
func (s *Set) AddBuffer(name string, shape Shape) (*Buffer, error) {
	if err := s.checkFree(name); err != nil {
		return nil, err
	}
	b, err := NewBuffer(name, shape)
	if err != nil {
		return nil, err
	}
	s.buffers[name] = b
	s.order = append(s.order, name)
	return b, nil
}

// AddStatic registers a single-buffered field. The returned Field is for
// populating it at construction; afterwards consumers read it through View.
func (s *Set) AddStatic(name string, shape Shape) (*Field, error) {
	if err := s.checkFree(name); err != nil {
		return nil, err
	}
	f, err := NewField(name, shape)
	if err != nil {
		return nil, err
	}
	s.statics[name] = f
	s.order = append(s.order, name)
	return f, nil
}

// Buffer looks up a double-buffered field.
func (s *Set) Buffer(name string) (*Buffer, bool) {
	b, ok := s.buffers[name]
	return b, ok
}

// IsStatic reports whether name refers to a single-buffered field.
func (s *Set) IsStatic(name string) bool {
	_, ok := s.statics[name]
	return ok
}

// Has reports whether name is registered.
func (s *Set) Has(name string) bool {
	_, b := s.buffers[name]
	_, f := s.statics[name]
	return b || f
}

// View returns the readable side of a field: Current for buffers, the field itself for statics.
func (s *Set) View(name string) (View, error) {
	if b, ok := s.buffers[name]; ok {
		return b.Current(), nil
	}
	if f, ok := s.statics[name]; ok {
		return f.View(), nil
	}
	return View{}, fmt.Errorf("%w: %q", ErrUnknownField, name)
}

// Names returns field names in registration order.
func (s *Set) Names() []string {
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}

// Generations returns the swap counter of every buffer.
func (s *Set) Generations() map[string]uint64 {
	gens := make(map[string]uint64, len(s.buffers))
	for name, b := range s.buffers {
		gens[name] = b.Generation()
	}
	return gens
}

// Snapshot is an owned copy of a field's readable contents.
type Snapshot struct {
	Name       string
	Shape      Shape
	Generation uint64
	Data       []float32
}

// At returns channel c at (x, y) of the snapshot.
func (s Snapshot) At(x, y, c int) float32 {
	return s.Data[(y*s.Shape.W+x)*s.Shape.Channels+c]
}

// Snapshot copies the current contents of a field into host memory.
func (s *Set) Snapshot(name string) (Snapshot, error) {
	v, err := s.View(name)
	if err != nil {
		return Snapshot{}, err
	}
	snap := Snapshot{
		Name:  name,
		Shape: v.Shape(),
		Data:  make([]float32, v.Shape().Len()),
	}
	if b, ok := s.buffers[name]; ok {
		snap.Generation = b.Generation()
	}
	v.CopyTo(snap.Data)
	return snap, nil
}
