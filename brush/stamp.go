package brush

import (
	"math"

	"github.com/peterberweiler/ITA-Project-sub000/field"
)

// stamp evaluates one kernel around one stroke point.
type stamp struct {
	tiles  field.View
	kernel Kernel
	radius float32 // normalized field space
	w, h   int
}

// newStamp reads kernel k from the tileset; invalid kernels use the
// KernelSmooth row, matching Eval.
func newStamp(tiles field.View, k Kernel, radius float32, shape field.Shape) stamp {
	if !k.Valid() {
		k = KernelSmooth
	}
	return stamp{tiles: tiles, kernel: k, radius: radius, w: shape.W, h: shape.H}
}

// bounds returns the texel rectangle [x0,x1) x [y0,y1) the point can reach.
func (s stamp) bounds(p Point) (x0, y0, x1, y1 int) {
	rx := s.radius * float32(s.w)
	ry := s.radius * float32(s.h)
	cx := p.X * float32(s.w)
	cy := p.Y * float32(s.h)
	x0 = clampInt(int(math.Floor(float64(cx-rx))), 0, s.w)
	x1 = clampInt(int(math.Ceil(float64(cx+rx)))+1, 0, s.w)
	y0 = clampInt(int(math.Floor(float64(cy-ry))), 0, s.h)
	y1 = clampInt(int(math.Ceil(float64(cy+ry)))+1, 0, s.h)
	return x0, y0, x1, y1
}

// weight returns the kernel value of texel (x, y) for point p, from the tileset.
func (s stamp) weight(p Point, x, y int) float32 {
	if s.radius <= 0 {
		return 0
	}
	dx := (float32(x)+0.5)/float32(s.w) - p.X
	dy := (float32(y)+0.5)/float32(s.h) - p.Y
	t := float32(math.Sqrt(float64(dx*dx+dy*dy))) / s.radius
	if t >= 1 {
		return 0
	}
	res := s.tiles.Shape().W
	return s.tiles.Sample(t*float32(res-1), float32(s.kernel), 0)
}

// row fills dst[i] with the weight of texel (x0+i, y).
func (s stamp) row(p Point, y, x0 int, dst []float32) {
	for i := range dst {
		dst[i] = s.weight(p, x0+i, y)
	}
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clamp01(v float32) float32 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
