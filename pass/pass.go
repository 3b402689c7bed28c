// Package pass defines units of grid computation and the scheduler that runs
// them in order against a field.Set.
package pass

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidBinding is returned by Enqueue when a pass declares bindings
	// the field set cannot satisfy.
	ErrInvalidBinding = errors.New("pass: invalid binding")
	// ErrUnboundWrite is the panic value when a pass writes a field it did not declare.
	ErrUnboundWrite = errors.New("pass: write to undeclared field")
)

// Access is how a pass touches a field.
type Access uint8

const (
	// ReadCurrent reads the authoritative side of a field.
	ReadCurrent Access = iota
	// WriteNext writes the non-current side of a double-buffered field.
	WriteNext
)

func (a Access) String() string {
	if a == WriteNext {
		return "write-next"
	}
	return "read-current"
}

// Binding names a field and how the pass accesses it. Reads always resolve
// to the current side and writes to the next side, so a field may appear
// once with each access without aliasing.
type Binding struct {
	Field  string
	Access Access
}

// Read declares a read-current binding.
func Read(name string) Binding { return Binding{Field: name, Access: ReadCurrent} }

// Write declares a write-next binding.
func Write(name string) Binding { return Binding{Field: name, Access: WriteNext} }

// Pass is one discrete computation step.
//
// For each invocation the scheduler calls Init, Execute and Finalize exactly
// once, in that order, then swaps every write-next buffer. Execute must
// overwrite every texel of every field it writes.
type Pass interface {
	Name() string
	Bindings() []Binding
	// Init binds parameters and read views for this invocation.
	Init(ctx *Context)
	// Execute runs the kernel over the grid. A non-nil error reports
	// recoverable cell-level anomalies; the writes are still committed.
	Execute(ctx *Context) error
	// Finalize releases per-invocation state.
	Finalize(ctx *Context)
}

// CellError reports cells whose values were clamped during Execute.
type CellError struct {
	Pass  string
	Field string
	Cells int
}

func (e *CellError) Error() string {
	return fmt.Sprintf("pass %s: clamped %d non-finite cells in %s", e.Pass, e.Cells, e.Field)
}
