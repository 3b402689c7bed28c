package brush

import (
	"sync"

	"github.com/peterberweiler/ITA-Project-sub000/config"
	"github.com/peterberweiler/ITA-Project-sub000/field"
	"github.com/peterberweiler/ITA-Project-sub000/pass"
)

// SurfaceRule assigns a layer inside a height and slope band.
type SurfaceRule struct {
	Layer                int
	MinHeight, MaxHeight float32
	MinSlope, MaxSlope   float32
	Blend                float32
}

// SurfaceRulesFromConfig converts the surface config section.
func SurfaceRulesFromConfig(c config.SurfaceConfig) []SurfaceRule {
	rules := make([]SurfaceRule, 0, len(c.Rules))
	for _, r := range c.Rules {
		rules = append(rules, SurfaceRule{
			Layer:     r.Layer,
			MinHeight: float32(r.MinHeight),
			MaxHeight: float32(r.MaxHeight),
			MinSlope:  float32(r.MinSlope),
			MaxSlope:  float32(r.MaxSlope),
			Blend:     float32(r.Blend),
		})
	}
	return rules
}

// band is 1 well inside [lo, hi], 0 well outside, with a linear edge of width 2·blend.
func band(v, lo, hi, blend float32) float32 {
	if blend <= 0 {
		if v >= lo && v <= hi {
			return 1
		}
		return 0
	}
	ramp := func(d float32) float32 { return clamp01((d + blend) / (2 * blend)) }
	a, b := ramp(v-lo), ramp(hi-v)
	if a < b {
		return a
	}
	return b
}

// SurfacePass recomputes every layer weight from height and slope. It
// ignores the previous weights.
type SurfacePass struct {
	mu       sync.Mutex
	rules    []SurfaceRule
	cellSize float32

	active []SurfaceRule
	height field.View
}

// NewSurfacePass creates the pass. cellSize is the world distance between texels.
func NewSurfacePass(rules []SurfaceRule, cellSize float32) *SurfacePass {
	if cellSize <= 0 {
		cellSize = 1
	}
	return &SurfacePass{rules: append([]SurfaceRule(nil), rules...), cellSize: cellSize}
}

// SetRules replaces the rules used from the next invocation on.
func (s *SurfacePass) SetRules(rules []SurfaceRule) {
	s.mu.Lock()
	s.rules = append(s.rules[:0], rules...)
	s.mu.Unlock()
}

func (s *SurfacePass) Name() string { return "generate_surface" }

func (s *SurfacePass) Bindings() []pass.Binding {
	return []pass.Binding{
		pass.Read(field.Height),
		pass.Write(field.Layers0),
		pass.Write(field.Layers1),
	}
}

func (s *SurfacePass) Init(ctx *pass.Context) {
	s.mu.Lock()
	s.active = append(s.active[:0], s.rules...)
	s.mu.Unlock()
	s.height = ctx.Read(field.Height)
}

func (s *SurfacePass) Execute(ctx *pass.Context) error {
	l0 := ctx.Write(field.Layers0)
	l1 := ctx.Write(field.Layers1)
	shape := s.height.Shape()

	for y := 0; y < shape.H; y++ {
		for x := 0; x < shape.W; x++ {
			h := s.height.At(x, y, 0)
			slope := s.height.Slope(x, y, s.cellSize)

			var w [LayerCount]float32
			var sum float32
			for _, r := range s.active {
				if r.Layer < 0 || r.Layer >= LayerCount {
					continue
				}
				m := band(h, r.MinHeight, r.MaxHeight, r.Blend) * band(slope, r.MinSlope, r.MaxSlope, r.Blend)
				w[r.Layer] += m
				sum += m
			}
			if sum > 0 {
				for i := range w {
					w[i] /= sum
				}
			} else {
				w[0] = 1
			}
			writeWeights(l0, l1, x, y, w)
		}
	}
	return nil
}

func (s *SurfacePass) Finalize(ctx *pass.Context) {
	s.height = field.View{}
}
