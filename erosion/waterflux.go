package erosion

import (
	"github.com/peterberweiler/ITA-Project-sub000/field"
	"github.com/peterberweiler/ITA-Project-sub000/pass"
)

// WaterFlux is stage 1: virtual-pipe outflow flux and the resulting water depth.
type WaterFlux struct {
	params *Params
	p      Params

	height, water, flux field.View
	clamp               pass.Clamp
}

// NewWaterFlux creates the stage over a shared parameter record.
func NewWaterFlux(p *Params) *WaterFlux { return &WaterFlux{params: p} }

func (s *WaterFlux) Name() string { return "water_flux" }

func (s *WaterFlux) Bindings() []pass.Binding {
	return []pass.Binding{
		pass.Read(field.Height),
		pass.Read(field.Water),
		pass.Read(field.Flux),
		pass.Write(field.Flux),
		pass.Write(field.Water),
	}
}

func (s *WaterFlux) Init(ctx *pass.Context) {
	s.p = *s.params
	s.height = ctx.Read(field.Height)
	s.water = ctx.Read(field.Water)
	s.flux = ctx.Read(field.Flux)
	s.clamp = pass.Clamp{}
}

func (s *WaterFlux) Execute(ctx *pass.Context) error {
	outFlux := ctx.Write(field.Flux)
	outWater := ctx.Write(field.Water)
	shape := s.height.Shape()
	w, h := shape.W, shape.H

	dt := s.p.DeltaTime
	l := s.p.PipeLength
	cellArea := l * l
	gain := dt * s.p.PipeCrossSectionArea * s.p.Gravity / l

	// Outflow flux per pipe, scaled so a cell never ships more water than it holds.
	pass.Rows(h, &s.clamp, func(y0, y1 int, k *pass.Clamp) {
		for y := y0; y < y1; y++ {
			for x := 0; x < w; x++ {
				d := s.water.At(x, y, 0)
				surface := s.height.At(x, y, 0) + d

				var f [4]float32
				var sum float32
				for i := 0; i < 4; i++ {
					nx, ny := x+plusDX[i], y+plusDY[i]
					if !inGrid(nx, ny, w, h) {
						continue
					}
					dh := surface - s.height.At(nx, ny, 0) - s.water.At(nx, ny, 0)
					f[i] = maxf(0, s.flux.At(x, y, i)+gain*dh)
					sum += f[i]
				}

				scale := float32(1)
				if sum*dt > minOutflow {
					scale = minf(1, d*cellArea/(sum*dt))
				}
				for i := 0; i < 4; i++ {
					outFlux.Set(x, y, i, k.Value(f[i]*scale, 0))
				}
			}
		}
	})

	// Depth update from the net volume through the new pipes.
	rain := s.p.RainRate * dt
	pass.Rows(h, &s.clamp, func(y0, y1 int, k *pass.Clamp) {
		for y := y0; y < y1; y++ {
			for x := 0; x < w; x++ {
				var in, out float32
				for i := 0; i < 4; i++ {
					out += outFlux.At(x, y, i)
					nx, ny := x+plusDX[i], y+plusDY[i]
					if inGrid(nx, ny, w, h) {
						in += outFlux.At(nx, ny, plusOp[i])
					}
				}
				d := s.water.At(x, y, 0) + rain + dt*(in-out)/cellArea
				outWater.Set(x, y, 0, k.Value(maxf(0, d), 0))
			}
		}
	})

	return s.clamp.Err(s.Name(), field.Water)
}

func (s *WaterFlux) Finalize(ctx *pass.Context) {
	s.height, s.water, s.flux = field.View{}, field.View{}, field.View{}
}
