package erosion

import (
	"github.com/peterberweiler/ITA-Project-sub000/field"
	"github.com/peterberweiler/ITA-Project-sub000/pass"
)

// SedimentAdvection is stage 3: semi-Lagrangian transport of suspended
// sediment along the stage 2 velocity. Hardness stays with the terrain.
type SedimentAdvection struct {
	params *Params
	p      Params

	sediment, velocity field.View
	clamp              pass.Clamp
}

// NewSedimentAdvection creates the stage over a shared parameter record.
func NewSedimentAdvection(p *Params) *SedimentAdvection {
	return &SedimentAdvection{params: p}
}

func (s *SedimentAdvection) Name() string { return "sediment_advection" }

func (s *SedimentAdvection) Bindings() []pass.Binding {
	return []pass.Binding{
		pass.Read(field.Sediment),
		pass.Read(field.Velocity),
		pass.Write(field.Sediment),
	}
}

func (s *SedimentAdvection) Init(ctx *pass.Context) {
	s.p = *s.params
	s.sediment = ctx.Read(field.Sediment)
	s.velocity = ctx.Read(field.Velocity)
	s.clamp = pass.Clamp{}
}

func (s *SedimentAdvection) Execute(ctx *pass.Context) error {
	out := ctx.Write(field.Sediment)
	shape := s.sediment.Shape()
	step := s.p.DeltaTime / s.p.PipeLength

	pass.Rows(shape.H, &s.clamp, func(y0, y1 int, k *pass.Clamp) {
		for y := y0; y < y1; y++ {
			for x := 0; x < shape.W; x++ {
				fx := float32(x) - s.velocity.At(x, y, 0)*step
				fy := float32(y) - s.velocity.At(x, y, 1)*step
				out.Set(x, y, 0, k.Value(s.sediment.Sample(fx, fy, 0), 0))
				out.Set(x, y, 1, s.sediment.At(x, y, 1))
			}
		}
	})
	return s.clamp.Err(s.Name(), field.Sediment)
}

func (s *SedimentAdvection) Finalize(ctx *pass.Context) {
	s.sediment, s.velocity = field.View{}, field.View{}
}
