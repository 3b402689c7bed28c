package brush

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/peterberweiler/ITA-Project-sub000/field"
)

// Kernel selects a falloff shape from the brush tileset.
type Kernel uint8

const (
	KernelSmooth Kernel = iota
	KernelLinear
	KernelGaussian
	KernelConstant
	KernelSpike
	kernelCount
)

// ErrUnknownKernel is returned for a kernel name or index outside the tileset.
var ErrUnknownKernel = errors.New("brush: unknown kernel")

var kernelNames = [kernelCount]string{"smooth", "linear", "gaussian", "constant", "spike"}

func (k Kernel) String() string {
	if k < kernelCount {
		return kernelNames[k]
	}
	return fmt.Sprintf("kernel(%d)", uint8(k))
}

// ParseKernel resolves a kernel by name, case-insensitively.
func ParseKernel(name string) (Kernel, error) {
	for i, n := range kernelNames {
		if strings.EqualFold(n, name) {
			return Kernel(i), nil
		}
	}
	return 0, fmt.Errorf("%w %q", ErrUnknownKernel, name)
}

// Valid reports whether k selects a row of the tileset.
func (k Kernel) Valid() bool { return k < kernelCount }

// Kernels returns every kernel in tileset row order.
func Kernels() []Kernel {
	out := make([]Kernel, kernelCount)
	for i := range out {
		out[i] = Kernel(i)
	}
	return out
}

// Eval returns the falloff at t = distance/radius. It is 1 at the center
// for every kernel and 0 outside the radius. Invalid kernels evaluate as
// KernelSmooth.
func (k Kernel) Eval(t float32) float32 {
	if t < 0 {
		t = -t
	}
	if t > 1 {
		return 0
	}
	switch k {
	case KernelLinear:
		return 1 - t
	case KernelGaussian:
		const edge = 0.01831563888873418 // exp(-4)
		g := math.Exp(-4 * float64(t*t))
		return float32((g - edge) / (1 - edge))
	case KernelConstant:
		return 1
	case KernelSpike:
		u := 1 - t
		return u * u * u * u
	default:
		return 1 - t*t*(3-2*t)
	}
}

// AddTileset registers the static brush_tiles field, one row per kernel
// with resolution samples spanning t in [0,1].
func AddTileset(set *field.Set, resolution int) error {
	if resolution < 2 {
		return fmt.Errorf("%w: kernel resolution %d", field.ErrInvalidShape, resolution)
	}
	tiles, err := set.AddStatic(field.BrushTiles, field.Shape{
		W:        resolution,
		H:        int(kernelCount),
		Channels: 1,
		Semantic: field.SemanticMask,
	})
	if err != nil {
		return err
	}
	step := 1 / float32(resolution-1)
	for _, k := range Kernels() {
		for i := 0; i < resolution; i++ {
			tiles.Set(i, int(k), 0, k.Eval(float32(i)*step))
		}
	}
	return nil
}
