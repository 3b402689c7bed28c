package terrain

import (
	"github.com/peterberweiler/ITA-Project-sub000/config"
	"github.com/peterberweiler/ITA-Project-sub000/field"
	"github.com/peterberweiler/ITA-Project-sub000/pass"
)

// ShadowParams configures the heightfield ray march.
type ShadowParams struct {
	DirX, DirY float32 // unit step toward the sun, in texels
	Tan        float32 // ray rise per unit of horizontal distance
	Ambient    float32 // light floor in full shadow
	Softness   float32 // occluder height over the ray that reaches full shadow
	MaxSteps   int
	CellSize   float32
}

// ShadowParamsFromConfig reads the shadow and field sections.
func ShadowParamsFromConfig(c *config.Config) ShadowParams {
	return ShadowParams{
		DirX:     c.Derived.SunDirX,
		DirY:     c.Derived.SunDirY,
		Tan:      c.Derived.SunTan,
		Ambient:  float32(c.Shadow.Ambient),
		Softness: float32(c.Shadow.Softness),
		MaxSteps: c.Shadow.MaxSteps,
		CellSize: c.Derived.CellSize32,
	}
}

// ShadowPass computes per-texel light in [Ambient, 1] by marching from
// each texel toward the sun over the height field.
type ShadowPass struct {
	p ShadowParams

	height field.View
	peak   float32
}

// NewShadowPass creates the pass.
func NewShadowPass(p ShadowParams) *ShadowPass {
	if p.MaxSteps <= 0 {
		p.MaxSteps = 256
	}
	if p.CellSize <= 0 {
		p.CellSize = 1
	}
	return &ShadowPass{p: p}
}

func (s *ShadowPass) Name() string { return "shadow" }

func (s *ShadowPass) Bindings() []pass.Binding {
	return []pass.Binding{pass.Read(field.Height), pass.Write(field.Shadow)}
}

func (s *ShadowPass) Init(ctx *pass.Context) {
	s.height = ctx.Read(field.Height)
	_, s.peak = s.height.MinMax(0)
}

func (s *ShadowPass) Execute(ctx *pass.Context) error {
	out := ctx.Write(field.Shadow)
	shape := s.height.Shape()
	w, h := float32(shape.W-1), float32(shape.H-1)
	rise := s.p.Tan * s.p.CellSize

	var none pass.Clamp
	pass.Rows(shape.H, &none, func(y0, y1 int, _ *pass.Clamp) {
		for y := y0; y < y1; y++ {
			for x := 0; x < shape.W; x++ {
				ray := s.height.At(x, y, 0)
				px, py := float32(x), float32(y)
				var occlusion float32

				for step := 0; step < s.p.MaxSteps; step++ {
					px += s.p.DirX
					py += s.p.DirY
					ray += rise
					if px < 0 || py < 0 || px > w || py > h || ray > s.peak {
						break
					}
					if d := s.height.Sample(px, py, 0) - ray; d > occlusion {
						occlusion = d
					}
				}

				light := float32(1)
				if occlusion > 0 {
					if s.p.Softness > 0 {
						light = 1 - occlusion/s.p.Softness
					} else {
						light = 0
					}
					if light < 0 {
						light = 0
					}
				}
				out.Set(x, y, 0, s.p.Ambient+(1-s.p.Ambient)*light)
			}
		}
	})
	return nil
}

func (s *ShadowPass) Finalize(ctx *pass.Context) {
	s.height = field.View{}
}
