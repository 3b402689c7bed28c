package erosion

import (
	"math"

	"github.com/peterberweiler/ITA-Project-sub000/field"
	"github.com/peterberweiler/ITA-Project-sub000/pass"
)

// Suspension is stage 2: water velocity from flux, then dissolution or
// deposition toward the local carrying capacity, then evaporation.
type Suspension struct {
	params *Params
	p      Params

	height, water, flux, sediment field.View
	clamp                         pass.Clamp
}

// NewSuspension creates the stage over a shared parameter record.
func NewSuspension(p *Params) *Suspension { return &Suspension{params: p} }

func (s *Suspension) Name() string { return "suspension" }

func (s *Suspension) Bindings() []pass.Binding {
	return []pass.Binding{
		pass.Read(field.Height),
		pass.Read(field.Water),
		pass.Read(field.Flux),
		pass.Read(field.Sediment),
		pass.Write(field.Height),
		pass.Write(field.Sediment),
		pass.Write(field.Water),
		pass.Write(field.Velocity),
	}
}

func (s *Suspension) Init(ctx *pass.Context) {
	s.p = *s.params
	s.height = ctx.Read(field.Height)
	s.water = ctx.Read(field.Water)
	s.flux = ctx.Read(field.Flux)
	s.sediment = ctx.Read(field.Sediment)
	s.clamp = pass.Clamp{}
}

// fluxAt returns channel c of the flux at (x, y), or 0 outside the grid.
func (s *Suspension) fluxAt(x, y, c, w, h int) float32 {
	if !inGrid(x, y, w, h) {
		return 0
	}
	return s.flux.At(x, y, c)
}

func (s *Suspension) Execute(ctx *pass.Context) error {
	outHeight := ctx.Write(field.Height)
	outSed := ctx.Write(field.Sediment)
	outWater := ctx.Write(field.Water)
	outVel := ctx.Write(field.Velocity)
	shape := s.height.Shape()
	w, h := shape.W, shape.H

	dt := s.p.DeltaTime
	l := s.p.PipeLength
	maxSpeed := l / dt
	evap := maxf(0, 1-s.p.EvaporationRate*dt)

	pass.Rows(h, &s.clamp, func(y0, y1 int, k *pass.Clamp) {
		for y := y0; y < y1; y++ {
			for x := 0; x < w; x++ {
				s.cell(x, y, w, h, k, outHeight, outSed, outWater, outVel, maxSpeed, evap)
			}
		}
	})

	return s.clamp.Err(s.Name(), field.Sediment)
}

// cell updates one texel and writes only that texel of each output.
func (s *Suspension) cell(x, y, w, h int, k *pass.Clamp, outHeight, outSed, outWater, outVel *field.Field, maxSpeed, evap float32) {
	dt := s.p.DeltaTime
	l := s.p.PipeLength
	d := s.water.At(x, y, 0)
	terrain := s.height.At(x, y, 0)
	sed := s.sediment.At(x, y, 0)
	hard := minf(1, maxf(0, s.sediment.At(x, y, 1)))

	var u, v float32
	if d > minDepth {
		dwx := 0.5 * (s.fluxAt(x-1, y, dirR, w, h) - s.flux.At(x, y, dirL) +
			s.flux.At(x, y, dirR) - s.fluxAt(x+1, y, dirL, w, h))
		dwy := 0.5 * (s.fluxAt(x, y-1, dirB, w, h) - s.flux.At(x, y, dirT) +
			s.flux.At(x, y, dirB) - s.fluxAt(x, y+1, dirT, w, h))
		u = dwx / (d * l)
		v = dwy / (d * l)
		if speed := float32(math.Hypot(float64(u), float64(v))); speed > maxSpeed {
			u *= maxSpeed / speed
			v *= maxSpeed / speed
		}
	}
	speed := float32(math.Hypot(float64(u), float64(v)))

	tan := s.height.Slope(x, y, l)
	sin := tan / float32(math.Sqrt(float64(1+tan*tan)))
	depthFactor := float32(1)
	if s.p.MaxErosionDepth > 0 {
		depthFactor = minf(1, d/s.p.MaxErosionDepth)
	}
	capacity := s.p.SedimentCapacity * sin * speed * depthFactor

	if capacity > sed {
		diff := capacity - sed
		amount := dt * s.p.SuspensionRate * (1 - hard) * diff
		terrain -= amount
		sed += amount
		hard = maxf(0, hard-dt*s.p.SedimentSofteningRate*s.p.SuspensionRate*diff)
	} else {
		amount := minf(sed, dt*s.p.DepositionRate*(sed-capacity))
		terrain += amount
		sed -= amount
	}

	outHeight.Set(x, y, 0, k.Value(terrain, s.height.At(x, y, 0)))
	outSed.Set(x, y, 0, k.Value(maxf(0, sed), 0))
	outSed.Set(x, y, 1, k.Value(hard, 0))
	outWater.Set(x, y, 0, k.Value(d*evap, 0))
	outVel.Set(x, y, 0, k.Value(u, 0))
	outVel.Set(x, y, 1, k.Value(v, 0))
}

func (s *Suspension) Finalize(ctx *pass.Context) {
	s.height, s.water, s.flux, s.sediment = field.View{}, field.View{}, field.View{}, field.View{}
}
