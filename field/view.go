package field

import (
	"encoding/binary"
	"hash/fnv"
	"math"
)

// View is a read-only handle on a Field. Passes receive Views for every
// field they read, so the authoritative buffer cannot be mutated through them.
type View struct {
	f *Field
}

// Valid reports whether the view refers to a field.
func (v View) Valid() bool { return v.f != nil }

// Name returns the underlying field name.
func (v View) Name() string {
	if v.f == nil {
		return ""
	}
	return v.f.name
}

// Shape returns the underlying field layout.
func (v View) Shape() Shape { return v.f.shape }

// At returns channel c at (x, y).
func (v View) At(x, y, c int) float32 {
	return v.f.data[(y*v.f.shape.W+x)*v.f.shape.Channels+c]
}

// Clamped returns channel c at (x, y) with coordinates clamped to the grid edge.
func (v View) Clamped(x, y, c int) float32 {
	w, h := v.f.shape.W, v.f.shape.H
	if x < 0 {
		x = 0
	} else if x >= w {
		x = w - 1
	}
	if y < 0 {
		y = 0
	} else if y >= h {
		y = h - 1
	}
	return v.f.data[(y*w+x)*v.f.shape.Channels+c]
}

// Sample bilinearly interpolates channel c at texel-space coordinates (fx, fy),
// where integer coordinates are texel centers. Out-of-range positions clamp to the edge.
func (v View) Sample(fx, fy float32, c int) float32 {
	w, h := v.f.shape.W, v.f.shape.H
	if fx < 0 {
		fx = 0
	} else if fx > float32(w-1) {
		fx = float32(w - 1)
	}
	if fy < 0 {
		fy = 0
	} else if fy > float32(h-1) {
		fy = float32(h - 1)
	}

	x0 := int(fx)
	y0 := int(fy)
	tx := fx - float32(x0)
	ty := fy - float32(y0)
	x1 := x0 + 1
	if x1 >= w {
		x1 = w - 1
	}
	y1 := y0 + 1
	if y1 >= h {
		y1 = h - 1
	}

	a := v.At(x0, y0, c) + (v.At(x1, y0, c)-v.At(x0, y0, c))*tx
	b := v.At(x0, y1, c) + (v.At(x1, y1, c)-v.At(x0, y1, c))*tx
	return a + (b-a)*ty
}

// Slope returns the tangent of the steepest slope at (x, y) from central
// differences of channel 0, with cellSize the world distance between texels.
func (v View) Slope(x, y int, cellSize float32) float32 {
	gx, gy := v.Gradient(x, y, cellSize)
	return float32(math.Sqrt(float64(gx*gx + gy*gy)))
}

// Gradient returns the central-difference gradient of channel 0 at (x, y).
func (v View) Gradient(x, y int, cellSize float32) (gx, gy float32) {
	if cellSize <= 0 {
		return 0, 0
	}
	gx = (v.Clamped(x+1, y, 0) - v.Clamped(x-1, y, 0)) / (2 * cellSize)
	gy = (v.Clamped(x, y+1, 0) - v.Clamped(x, y-1, 0)) / (2 * cellSize)
	return gx, gy
}

// Sum returns the sum of channel c over all texels.
func (v View) Sum(c int) float64 {
	var total float64
	n := v.f.shape.Channels
	for i := c; i < len(v.f.data); i += n {
		total += float64(v.f.data[i])
	}
	return total
}

// MinMax returns the extremes of channel c.
func (v View) MinMax(c int) (lo, hi float32) {
	n := v.f.shape.Channels
	lo = float32(math.Inf(1))
	hi = float32(math.Inf(-1))
	for i := c; i < len(v.f.data); i += n {
		x := v.f.data[i]
		if x < lo {
			lo = x
		}
		if x > hi {
			hi = x
		}
	}
	return lo, hi
}

// Checksum hashes the exact bit pattern of every value.
func (v View) Checksum() uint64 {
	h := fnv.New64a()
	var buf [4]byte
	for _, x := range v.f.data {
		binary.LittleEndian.PutUint32(buf[:], math.Float32bits(x))
		h.Write(buf[:])
	}
	return h.Sum64()
}

// CopyTo copies the field values into dst, which must hold Shape().Len() values.
func (v View) CopyTo(dst []float32) int {
	return copy(dst, v.f.data)
}
