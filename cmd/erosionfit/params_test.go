package main

import (
	"math"
	"testing"

	"github.com/peterberweiler/ITA-Project-sub000/config"
)

func TestNormalizeRoundTrip(t *testing.T) {
	pv := NewParamVector()
	raw := make([]float64, pv.Dim())
	for i, s := range pv.Specs {
		raw[i] = s.Min + 0.3*(s.Max-s.Min)
	}
	back := pv.Denormalize(pv.Normalize(raw))
	for i := range raw {
		if math.Abs(back[i]-raw[i]) > 1e-12 {
			t.Errorf("%s: %v -> %v", pv.Specs[i].Name, raw[i], back[i])
		}
	}
}

func TestApplyExtract(t *testing.T) {
	cfg, err := config.Load("")
	if err != nil {
		t.Fatal(err)
	}
	pv := NewParamVector()

	vals := make([]float64, pv.Dim())
	for i, s := range pv.Specs {
		vals[i] = s.Max * 10 // clamped on apply
	}
	vals[0] = 0.002
	pv.Apply(cfg, vals)

	if cfg.Erosion.RainRate != 0.002 {
		t.Errorf("rain_rate = %v", cfg.Erosion.RainRate)
	}
	if cfg.Erosion.ThermalErosionRate != 1 {
		t.Errorf("thermal_erosion_rate = %v, want clamp to 1", cfg.Erosion.ThermalErosionRate)
	}
	got := pv.Extract(cfg)
	for i, s := range pv.Specs[1:] {
		if got[i+1] != s.Max {
			t.Errorf("%s extracted %v, want %v", s.Name, got[i+1], s.Max)
		}
	}
}

func TestFitnessPenalizesUnstableRuns(t *testing.T) {
	if f := reliefFitness(runResult{relief0: 10, relief1: 5}, 0.5); f != 0 {
		t.Errorf("exact match fitness = %v", f)
	}
	if f := reliefFitness(runResult{relief0: 10, relief1: 8}, 0.5); math.Abs(f-0.36) > 1e-9 {
		t.Errorf("fitness = %v, want 0.36", f)
	}
	if f := reliefFitness(runResult{relief0: 10, relief1: math.NaN()}, 0.5); f != unstablePenalty {
		t.Errorf("NaN relief fitness = %v", f)
	}
	if f := reliefFitness(runResult{relief0: 10, relief1: 5, nonFinite: 3}, 0.5); f != unstablePenalty {
		t.Errorf("clamped run fitness = %v", f)
	}
}
