package terrain

import (
	"fmt"
	"math"

	"github.com/ojrac/opensimplex-go"

	"github.com/peterberweiler/ITA-Project-sub000/config"
	"github.com/peterberweiler/ITA-Project-sub000/field"
)

// NoiseParams configures the fractal heightmap.
type NoiseParams struct {
	Seed       int64
	Scale      float64 // base frequency in cycles per field width
	Octaves    int
	Lacunarity float64
	Gain       float64
	Amplitude  float64 // height of the tallest possible peak
}

// NoiseParamsFromConfig converts the noise config section.
func NoiseParamsFromConfig(c config.NoiseConfig) NoiseParams {
	return NoiseParams{
		Seed:       c.Seed,
		Scale:      c.Scale,
		Octaves:    c.Octaves,
		Lacunarity: c.Lacunarity,
		Gain:       c.Gain,
		Amplitude:  c.Amplitude,
	}
}

// fbm sums octaves of simplex noise, normalized to [0,1].
func fbm(n opensimplex.Noise, x, y float64, p NoiseParams) float64 {
	var sum, norm float64
	amp, freq := 1.0, 1.0
	for o := 0; o < p.Octaves; o++ {
		sum += amp * n.Eval2(x*freq, y*freq)
		norm += amp
		amp *= p.Gain
		freq *= p.Lacunarity
	}
	if norm == 0 {
		return 0
	}
	v := (sum/norm + 1) / 2
	return math.Max(0, math.Min(1, v))
}

// HeightNoise returns a W×H heightmap of fractal noise in [0, Amplitude].
func HeightNoise(shape field.Shape, p NoiseParams) []float32 {
	if p.Octaves <= 0 {
		p.Octaves = 1
	}
	noise := opensimplex.New(p.Seed)
	freq := p.Scale / float64(shape.W)

	out := make([]float32, shape.W*shape.H)
	for y := 0; y < shape.H; y++ {
		for x := 0; x < shape.W; x++ {
			out[y*shape.W+x] = float32(p.Amplitude * fbm(noise, float64(x)*freq, float64(y)*freq, p))
		}
	}
	return out
}

// GenerateHeight replaces both sides of the height buffer with fractal
// noise. It is meant for session construction, before any pass runs; live
// sessions queue a FillPass instead.
func GenerateHeight(set *field.Set, p NoiseParams) error {
	hb, ok := set.Buffer(field.Height)
	if !ok {
		return fmt.Errorf("generating height: %w: %q", field.ErrUnknownField, field.Height)
	}
	values := HeightNoise(hb.Shape(), p)
	hb.Initialize(func(f *field.Field) { copy(f.Values(), values) })
	return nil
}
