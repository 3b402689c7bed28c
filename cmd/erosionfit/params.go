package main

import "github.com/peterberweiler/ITA-Project-sub000/config"

// ParamSpec defines a single tunable erosion parameter.
type ParamSpec struct {
	Name string  // Column and config key
	Min  float64 // Lower bound
	Max  float64 // Upper bound

	field func(*config.ErosionConfig) *float64
}

// ParamVector holds the set of tuned parameters. Values outside the set
// keep whatever the base config holds.
type ParamVector struct {
	Specs []ParamSpec
}

// NewParamVector creates the standard set of tuned parameters.
func NewParamVector() *ParamVector {
	return &ParamVector{
		Specs: []ParamSpec{
			{Name: "rain_rate", Min: 0.0001, Max: 0.005, field: func(e *config.ErosionConfig) *float64 { return &e.RainRate }},
			{Name: "sediment_capacity", Min: 0.1, Max: 3, field: func(e *config.ErosionConfig) *float64 { return &e.SedimentCapacity }},
			{Name: "suspension_rate", Min: 0.05, Max: 2, field: func(e *config.ErosionConfig) *float64 { return &e.SuspensionRate }},
			{Name: "deposition_rate", Min: 0.05, Max: 2, field: func(e *config.ErosionConfig) *float64 { return &e.DepositionRate }},
			{Name: "sediment_softening_rate", Min: 0, Max: 20, field: func(e *config.ErosionConfig) *float64 { return &e.SedimentSofteningRate }},
			{Name: "evaporation_rate", Min: 0.001, Max: 0.1, field: func(e *config.ErosionConfig) *float64 { return &e.EvaporationRate }},
			{Name: "thermal_erosion_rate", Min: 0, Max: 1, field: func(e *config.ErosionConfig) *float64 { return &e.ThermalErosionRate }},
		},
	}
}

// Dim returns the number of parameters.
func (pv *ParamVector) Dim() int {
	return len(pv.Specs)
}

// Normalize converts raw parameter values to [0,1] range.
func (pv *ParamVector) Normalize(raw []float64) []float64 {
	normalized := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		normalized[i] = (raw[i] - spec.Min) / (spec.Max - spec.Min)
	}
	return normalized
}

// Denormalize converts [0,1] values back to raw parameter values.
func (pv *ParamVector) Denormalize(normalized []float64) []float64 {
	raw := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		raw[i] = spec.Min + normalized[i]*(spec.Max-spec.Min)
	}
	return raw
}

// Clamp ensures all values are within bounds.
func (pv *ParamVector) Clamp(v []float64) []float64 {
	clamped := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		clamped[i] = min(max(v[i], spec.Min), spec.Max)
	}
	return clamped
}

// Apply writes clamped values into the erosion section of cfg.
func (pv *ParamVector) Apply(cfg *config.Config, values []float64) {
	for i, v := range pv.Clamp(values) {
		*pv.Specs[i].field(&cfg.Erosion) = v
	}
}

// Extract reads the current values from cfg, clamped to bounds.
func (pv *ParamVector) Extract(cfg *config.Config) []float64 {
	e := cfg.Erosion
	raw := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		raw[i] = *spec.field(&e)
	}
	return pv.Clamp(raw)
}
