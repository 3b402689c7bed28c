package pass

import (
	"fmt"
	"log/slog"
	"math"

	"github.com/peterberweiler/ITA-Project-sub000/field"
)

type writeTarget struct {
	name   string
	buffer *field.Buffer
}

// Context is the explicit compute context handed to a pass invocation.
// It exposes read access to every field in the set and write access to the
// next side of the fields the pass declared.
type Context struct {
	set    *field.Set
	log    *slog.Logger
	pass   string
	writes []writeTarget
}

func (c *Context) bind(p Pass) {
	c.pass = p.Name()
	c.writes = c.writes[:0]
	for _, b := range p.Bindings() {
		if b.Access != WriteNext {
			continue
		}
		buf, _ := c.set.Buffer(b.Field)
		c.writes = append(c.writes, writeTarget{name: b.Field, buffer: buf})
	}
}

// Pass returns the name of the running pass.
func (c *Context) Pass() string { return c.pass }

// Logger returns the scheduler's logger.
func (c *Context) Logger() *slog.Logger { return c.log }

// Read returns the current side of any field in the set.
// Reading an unregistered name is a programming error and panics.
func (c *Context) Read(name string) field.View {
	v, err := c.set.View(name)
	if err != nil {
		panic(err)
	}
	return v
}

// Write returns the next side of a field declared with WriteNext.
// Writing an undeclared field is a programming error and panics.
func (c *Context) Write(name string) *field.Field {
	for _, w := range c.writes {
		if w.name == name {
			return w.buffer.Next()
		}
	}
	panic(fmt.Errorf("%w: %s writes %q", ErrUnboundWrite, c.pass, name))
}

// PassThrough copies the current side of a declared write field into its next side.
func (c *Context) PassThrough(name string) {
	dst := c.Write(name)
	// Both sides of a buffer share a shape, so the copy cannot fail.
	_ = dst.CopyFrom(c.Read(name))
}

// Clamp counts non-finite values and replaces them with fallback.
type Clamp struct {
	Cells int
}

// Value returns v, or fallback when v is NaN or infinite.
func (k *Clamp) Value(v, fallback float32) float32 {
	if v != v || v > math.MaxFloat32 || v < -math.MaxFloat32 {
		k.Cells++
		return fallback
	}
	return v
}

// Err converts the count into a CellError for the given pass and field.
func (k *Clamp) Err(passName, fieldName string) error {
	if k.Cells == 0 {
		return nil
	}
	return &CellError{Pass: passName, Field: fieldName, Cells: k.Cells}
}
