package main

import (
	"io"
	"log/slog"
	"math"
	"sync"

	"github.com/peterberweiler/ITA-Project-sub000/config"
	"github.com/peterberweiler/ITA-Project-sub000/editor"
	"github.com/peterberweiler/ITA-Project-sub000/telemetry"
)

// unstablePenalty is the fitness of a run that clamped cells or produced
// non-finite statistics.
const unstablePenalty = 1e6

// FitnessEvaluator runs headless erosion sessions and scores how close the
// resulting relief reduction is to the target.
type FitnessEvaluator struct {
	params      *ParamVector
	ticks       int
	seeds       []int64
	baseConfig  *config.Config
	targetRatio float64

	mu         sync.Mutex
	lastResult runResult
}

// NewFitnessEvaluator creates a new evaluator.
func NewFitnessEvaluator(params *ParamVector, ticks int, seeds []int64, baseCfg *config.Config, targetRatio float64) *FitnessEvaluator {
	return &FitnessEvaluator{
		params:      params,
		ticks:       ticks,
		seeds:       seeds,
		baseConfig:  baseCfg,
		targetRatio: targetRatio,
	}
}

// runResult holds the measurements of one session run.
type runResult struct {
	relief0, relief1 float64 // p90 - p10 height before and after
	nonFinite        uint64  // cells clamped by the solver
	sediment         float64 // suspended sediment left at the end
}

// reliefFitness scores a run (lower = better).
func reliefFitness(r runResult, target float64) float64 {
	if r.nonFinite > 0 || r.relief0 <= 0 || math.IsNaN(r.relief1) || math.IsInf(r.relief1, 0) {
		return unstablePenalty
	}
	d := r.relief1/r.relief0 - target
	return d * d / (target * target)
}

// Evaluate computes the mean fitness over all seeds for a raw parameter vector.
func (fe *FitnessEvaluator) Evaluate(x []float64) float64 {
	results := make([]runResult, len(fe.seeds))
	var wg sync.WaitGroup
	for i, seed := range fe.seeds {
		wg.Add(1)
		go func(idx int, s int64) {
			defer wg.Done()
			results[idx] = fe.run(x, s)
		}(i, seed)
	}
	wg.Wait()

	var total float64
	var mean runResult
	for _, r := range results {
		total += reliefFitness(r, fe.targetRatio)
		mean.relief0 += r.relief0
		mean.relief1 += r.relief1
		mean.sediment += r.sediment
		mean.nonFinite += r.nonFinite
	}
	n := float64(len(results))
	mean.relief0 /= n
	mean.relief1 /= n
	mean.sediment /= n

	fe.mu.Lock()
	fe.lastResult = mean
	fe.mu.Unlock()

	return total / n
}

// LastResult returns the seed-averaged measurements of the latest evaluation.
func (fe *FitnessEvaluator) LastResult() runResult {
	fe.mu.Lock()
	defer fe.mu.Unlock()
	return fe.lastResult
}

func (fe *FitnessEvaluator) run(x []float64, seed int64) runResult {
	cfg := fe.copyConfig()
	fe.params.Apply(cfg, x)
	cfg.Noise.Seed = seed

	quiet := slog.New(slog.NewTextHandler(io.Discard, nil))
	s, err := editor.New(cfg, editor.WithLogger(quiet))
	if err != nil {
		return runResult{nonFinite: 1}
	}

	before, err := telemetry.ComputeFieldStats(s.Fields(), 0)
	if err != nil {
		return runResult{nonFinite: 1}
	}
	for s.Frame() < int64(fe.ticks) {
		if _, err := s.Update(); err != nil {
			return runResult{nonFinite: 1}
		}
	}
	after, err := telemetry.ComputeFieldStats(s.Fields(), s.Frame())
	if err != nil {
		return runResult{nonFinite: 1}
	}

	return runResult{
		relief0:   before.HeightP90 - before.HeightP10,
		relief1:   after.HeightP90 - after.HeightP10,
		nonFinite: s.Scheduler().Anomalies(),
		sediment:  after.SedimentTotal,
	}
}

// copyConfig copies the base config with erosion forced on and the
// display-only passes disabled.
func (fe *FitnessEvaluator) copyConfig() *config.Config {
	cfg := *fe.baseConfig
	cfg.Surface.Rules = nil
	cfg.Shadow.Enabled = false
	cfg.Noise.Enabled = true
	cfg.Erosion.Enabled = true
	cfg.Telemetry.StatsWindowFrames = fe.ticks + 1
	return &cfg
}
