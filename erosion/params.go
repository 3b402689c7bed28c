// Package erosion implements the hydraulic and thermal erosion solver as a
// fixed sequence of five passes over the terrain field set.
package erosion

import "github.com/peterberweiler/ITA-Project-sub000/config"

// Params is the one parameter record shared by every stage of a Solver.
// Stages read it at Init, so edits apply from the next invocation on.
type Params struct {
	DeltaTime              float32
	RainRate               float32
	PipeCrossSectionArea   float32
	PipeLength             float32 // Also the distance between texel centers
	Gravity                float32
	SedimentCapacity       float32
	MaxErosionDepth        float32
	SuspensionRate         float32
	DepositionRate         float32
	SedimentSofteningRate  float32
	EvaporationRate        float32
	ThermalErosionRate     float32
	TalusAngleTangentCoeff float32
	TalusAngleTangentBias  float32
}

// DefaultParams returns the values the embedded configuration ships with.
func DefaultParams() Params {
	return Params{
		DeltaTime:              0.02,
		RainRate:               0.0008,
		PipeCrossSectionArea:   20,
		PipeLength:             1,
		Gravity:                9.81,
		SedimentCapacity:       1,
		MaxErosionDepth:        10,
		SuspensionRate:         0.5,
		DepositionRate:         1,
		SedimentSofteningRate:  5,
		EvaporationRate:        0.015,
		ThermalErosionRate:     0.15,
		TalusAngleTangentCoeff: 0.8,
		TalusAngleTangentBias:  0.1,
	}
}

// ParamsFromConfig converts the erosion config section.
func ParamsFromConfig(c config.ErosionConfig) Params {
	return Params{
		DeltaTime:              float32(c.DeltaTime),
		RainRate:               float32(c.RainRate),
		PipeCrossSectionArea:   float32(c.PipeCrossSectionArea),
		PipeLength:             float32(c.PipeLength),
		Gravity:                float32(c.Gravity),
		SedimentCapacity:       float32(c.SedimentCapacity),
		MaxErosionDepth:        float32(c.MaxErosionDepth),
		SuspensionRate:         float32(c.SuspensionRate),
		DepositionRate:         float32(c.DepositionRate),
		SedimentSofteningRate:  float32(c.SedimentSofteningRate),
		EvaporationRate:        float32(c.EvaporationRate),
		ThermalErosionRate:     float32(c.ThermalErosionRate),
		TalusAngleTangentCoeff: float32(c.TalusAngleTangentCoeff),
		TalusAngleTangentBias:  float32(c.TalusAngleTangentBias),
	}
}
