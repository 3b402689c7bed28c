package field

// Buffer is a double-buffered field. One side is current (readable by every
// consumer), the other is next (the write target of the pass executing now).
// There is no way to obtain a mutable reference to the current side.
type Buffer struct {
	sides      [2]*Field
	cur        int
	generation uint64
}

// NewBuffer allocates both sides with the same shape.
func NewBuffer(name string, shape Shape) (*Buffer, error) {
	a, err := NewField(name, shape)
	if err != nil {
		return nil, err
	}
	b, err := NewField(name, shape)
	if err != nil {
		return nil, err
	}
	return &Buffer{sides: [2]*Field{a, b}}, nil
}

// Name returns the field name.
func (b *Buffer) Name() string { return b.sides[0].name }

// Shape returns the field layout shared by both sides.
func (b *Buffer) Shape() Shape { return b.sides[0].shape }

// Current returns the authoritative side, read-only.
func (b *Buffer) Current() View { return View{f: b.sides[b.cur]} }

// Next returns the write side. Its contents are stale (from two swaps ago);
// writers must overwrite every texel they claim to produce.
func (b *Buffer) Next() *Field { return b.sides[1-b.cur] }

// Swap exchanges the roles of the two sides without copying.
func (b *Buffer) Swap() {
	b.cur = 1 - b.cur
	b.generation++
}

// Generation counts swaps since creation.
func (b *Buffer) Generation() uint64 { return b.generation }

// Initialize applies fn to both sides so they start out identical.
func (b *Buffer) Initialize(fn func(*Field)) {
	fn(b.sides[0])
	fn(b.sides[1])
}
