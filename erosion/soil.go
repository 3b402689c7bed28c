package erosion

import (
	"math"

	"github.com/peterberweiler/ITA-Project-sub000/field"
	"github.com/peterberweiler/ITA-Project-sub000/pass"
)

// SoilFlux is stage 4: talus-limited thermal erosion outflow toward the
// eight neighbours, split into plus and cross direction fields.
type SoilFlux struct {
	params *Params
	p      Params

	height, sediment field.View
	clamp            pass.Clamp
}

// NewSoilFlux creates the stage over a shared parameter record.
func NewSoilFlux(p *Params) *SoilFlux { return &SoilFlux{params: p} }

func (s *SoilFlux) Name() string { return "soil_flux" }

func (s *SoilFlux) Bindings() []pass.Binding {
	return []pass.Binding{
		pass.Read(field.Height),
		pass.Read(field.Sediment),
		pass.Write(field.SoilFluxPlus),
		pass.Write(field.SoilFluxCross),
	}
}

func (s *SoilFlux) Init(ctx *pass.Context) {
	s.p = *s.params
	s.height = ctx.Read(field.Height)
	s.sediment = ctx.Read(field.Sediment)
	s.clamp = pass.Clamp{}
}

func (s *SoilFlux) Execute(ctx *pass.Context) error {
	outPlus := ctx.Write(field.SoilFluxPlus)
	outCross := ctx.Write(field.SoilFluxCross)
	shape := s.height.Shape()
	w, h := shape.W, shape.H

	l := s.p.PipeLength
	diag := l * math.Sqrt2
	rate := s.p.DeltaTime * s.p.ThermalErosionRate

	pass.Rows(h, &s.clamp, func(y0, y1 int, k *pass.Clamp) {
		for y := y0; y < y1; y++ {
			for x := 0; x < w; x++ {
				h0 := s.height.At(x, y, 0)
				talus := s.p.TalusAngleTangentBias + s.sediment.At(x, y, 1)*s.p.TalusAngleTangentCoeff

				var plus, cross [4]float32
				var maxDiff, sumDiff float32
				for i := 0; i < 4; i++ {
					if nx, ny := x+plusDX[i], y+plusDY[i]; inGrid(nx, ny, w, h) {
						if diff := h0 - s.height.At(nx, ny, 0); diff > 0 && diff/l > talus {
							plus[i] = diff
							sumDiff += diff
							maxDiff = maxf(maxDiff, diff)
						}
					}
					if nx, ny := x+crossDX[i], y+crossDY[i]; inGrid(nx, ny, w, h) {
						if diff := h0 - s.height.At(nx, ny, 0); diff > 0 && diff/diag > talus {
							cross[i] = diff
							sumDiff += diff
							maxDiff = maxf(maxDiff, diff)
						}
					}
				}

				var scale float32
				if sumDiff > 0 {
					// Never move more than half the steepest drop, so the pair cannot invert.
					total := minf(rate*maxDiff/2, maxDiff/2)
					scale = total / sumDiff
				}
				for i := 0; i < 4; i++ {
					outPlus.Set(x, y, i, k.Value(plus[i]*scale, 0))
					outCross.Set(x, y, i, k.Value(cross[i]*scale, 0))
				}
			}
		}
	})
	return s.clamp.Err(s.Name(), field.SoilFluxPlus)
}

func (s *SoilFlux) Finalize(ctx *pass.Context) {
	s.height, s.sediment = field.View{}, field.View{}
}

// SoilAdvection is stage 5: applies the stage 4 soil flux to terrain height.
// Every unit leaving a cell arrives at exactly one neighbour, so total
// height is conserved.
type SoilAdvection struct {
	height, plus, cross field.View
	clamp               pass.Clamp
}

// NewSoilAdvection creates the stage. It has no parameters of its own.
func NewSoilAdvection() *SoilAdvection { return &SoilAdvection{} }

func (s *SoilAdvection) Name() string { return "soil_advection" }

func (s *SoilAdvection) Bindings() []pass.Binding {
	return []pass.Binding{
		pass.Read(field.Height),
		pass.Read(field.SoilFluxPlus),
		pass.Read(field.SoilFluxCross),
		pass.Write(field.Height),
	}
}

func (s *SoilAdvection) Init(ctx *pass.Context) {
	s.height = ctx.Read(field.Height)
	s.plus = ctx.Read(field.SoilFluxPlus)
	s.cross = ctx.Read(field.SoilFluxCross)
	s.clamp = pass.Clamp{}
}

func (s *SoilAdvection) Execute(ctx *pass.Context) error {
	out := ctx.Write(field.Height)
	shape := s.height.Shape()
	w, h := shape.W, shape.H

	pass.Rows(h, &s.clamp, func(y0, y1 int, k *pass.Clamp) {
		for y := y0; y < y1; y++ {
			for x := 0; x < w; x++ {
				var in, outflow float32
				for i := 0; i < 4; i++ {
					outflow += s.plus.At(x, y, i) + s.cross.At(x, y, i)
					if nx, ny := x+plusDX[i], y+plusDY[i]; inGrid(nx, ny, w, h) {
						in += s.plus.At(nx, ny, plusOp[i])
					}
					if nx, ny := x+crossDX[i], y+crossDY[i]; inGrid(nx, ny, w, h) {
						in += s.cross.At(nx, ny, crossOp[i])
					}
				}
				h0 := s.height.At(x, y, 0)
				out.Set(x, y, 0, k.Value(h0+in-outflow, h0))
			}
		}
	})
	return s.clamp.Err(s.Name(), field.Height)
}

func (s *SoilAdvection) Finalize(ctx *pass.Context) {
	s.height, s.plus, s.cross = field.View{}, field.View{}, field.View{}
}
