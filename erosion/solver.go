package erosion

import (
	"fmt"

	"github.com/peterberweiler/ITA-Project-sub000/field"
	"github.com/peterberweiler/ITA-Project-sub000/pass"
)

// Stage names in execution order.
const (
	StageWaterFlux         = "water_flux"
	StageSuspension        = "suspension"
	StageSedimentAdvection = "sediment_advection"
	StageSoilFlux          = "soil_flux"
	StageSoilAdvection     = "soil_advection"
)

// Queue accepts pass invocations. *pass.Scheduler satisfies it.
type Queue interface {
	Validate(p pass.Pass) error
	Enqueue(p pass.Pass) error
}

// Solver owns the five erosion stages and their shared parameters.
//
// Each tick enqueues the stages in a fixed order: the suspension stage needs
// the new flux and depth from water_flux, sediment_advection needs the
// suspension velocity, and the soil stages must see the terrain after
// suspension has moved it.
type Solver struct {
	params Params
	stages [5]pass.Pass
}

// NewSolver creates a solver with the given parameters.
func NewSolver(p Params) *Solver {
	s := &Solver{params: p}
	s.stages = [5]pass.Pass{
		NewWaterFlux(&s.params),
		NewSuspension(&s.params),
		NewSedimentAdvection(&s.params),
		NewSoilFlux(&s.params),
		NewSoilAdvection(),
	}
	return s
}

// Params returns the live parameter record. Changes apply at the next stage Init.
func (s *Solver) Params() *Params { return &s.params }

// Stages returns the stages in execution order.
func (s *Solver) Stages() []pass.Pass {
	out := make([]pass.Pass, len(s.stages))
	copy(out, s.stages[:])
	return out
}

// Fields lists the fields the solver reads or writes.
func (s *Solver) Fields() []string {
	return []string{
		field.Height, field.Water, field.Flux, field.Velocity,
		field.Sediment, field.SoilFluxPlus, field.SoilFluxCross,
	}
}

// Enqueue appends one tick of the solver to q. Every stage is validated
// first, so a rejected stage leaves q as it was.
func (s *Solver) Enqueue(q Queue) error {
	for _, st := range s.stages {
		if err := q.Validate(st); err != nil {
			return fmt.Errorf("validate erosion stage %s: %w", st.Name(), err)
		}
	}
	for _, st := range s.stages {
		if err := q.Enqueue(st); err != nil {
			return fmt.Errorf("enqueue erosion stage %s: %w", st.Name(), err)
		}
	}
	return nil
}
