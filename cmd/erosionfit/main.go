// Command erosionfit tunes the erosion parameters with CMA-ES so that a
// headless session reduces terrain relief by a target ratio without
// producing clamped cells.
//
// Usage: go run ./cmd/erosionfit -output fit -target-ratio 0.7
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/gocarina/gocsv"
	"gonum.org/v1/gonum/optimize"

	"github.com/peterberweiler/ITA-Project-sub000/config"
)

// evalRow is one line of fit_log.csv.
type evalRow struct {
	Eval        int     `csv:"eval"`
	Fitness     float64 `csv:"fitness"`
	ReliefRatio float64 `csv:"relief_ratio"`
	Sediment    float64 `csv:"sediment_total"`
	Clamped     uint64  `csv:"clamped_cells"`

	RainRate              float64 `csv:"rain_rate"`
	SedimentCapacity      float64 `csv:"sediment_capacity"`
	SuspensionRate        float64 `csv:"suspension_rate"`
	DepositionRate        float64 `csv:"deposition_rate"`
	SedimentSofteningRate float64 `csv:"sediment_softening_rate"`
	EvaporationRate       float64 `csv:"evaporation_rate"`
	ThermalErosionRate    float64 `csv:"thermal_erosion_rate"`
}

// formatDuration formats a duration as HH:MM:SS or MM:SS for shorter durations.
func formatDuration(d time.Duration) string {
	d = d.Round(time.Second)
	h := d / time.Hour
	d -= h * time.Hour
	m := d / time.Minute
	d -= m * time.Minute
	s := d / time.Second

	if h > 0 {
		return fmt.Sprintf("%dh%02dm%02ds", h, m, s)
	}
	return fmt.Sprintf("%dm%02ds", m, s)
}

func main() {
	configPath := flag.String("config", "", "Base config YAML file (empty = use defaults)")
	size := flag.Int("size", 128, "Field resolution used for evaluation runs")
	ticks := flag.Int("ticks", 400, "Erosion frames per run")
	seeds := flag.Int("seeds", 3, "Number of terrain seeds per evaluation")
	maxEvals := flag.Int("max-evals", 200, "Maximum number of evaluations")
	population := flag.Int("population", 0, "CMA-ES population size (0 = auto)")
	target := flag.Float64("target-ratio", 0.7, "Wanted ratio of final to initial height relief")
	outputDir := flag.String("output", "", "Output directory for results")
	flag.Parse()

	if *outputDir == "" {
		log.Fatal("--output is required")
	}
	if *target <= 0 {
		log.Fatal("--target-ratio must be positive")
	}
	if err := os.MkdirAll(*outputDir, 0755); err != nil {
		log.Fatalf("failed to create output directory: %v", err)
	}

	baseCfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	baseCfg.Field.Width, baseCfg.Field.Height = *size, *size
	if err := baseCfg.Refresh(); err != nil {
		log.Fatalf("invalid config: %v", err)
	}

	params := NewParamVector()
	evalSeeds := make([]int64, *seeds)
	for i := range evalSeeds {
		evalSeeds[i] = int64(i*1000 + 42)
	}
	evaluator := NewFitnessEvaluator(params, *ticks, evalSeeds, baseCfg, *target)

	dim := params.Dim()
	initX := params.Normalize(params.Extract(baseCfg))

	popSize := *population
	if popSize == 0 {
		popSize = 4 + 3*dim/2
	}

	logFile, err := os.Create(filepath.Join(*outputDir, "fit_log.csv"))
	if err != nil {
		log.Fatalf("failed to create log file: %v", err)
	}
	defer logFile.Close()

	evalCount := 0
	bestFitness := unstablePenalty * 10
	var bestParams []float64
	startTime := time.Now()

	problem := optimize.Problem{
		Func: func(x []float64) float64 {
			raw := params.Clamp(params.Denormalize(x))
			fitness := evaluator.Evaluate(raw)
			res := evaluator.LastResult()
			evalCount++

			if fitness < bestFitness {
				bestFitness = fitness
				bestParams = raw
			}

			row := evalRow{
				Eval:                  evalCount,
				Fitness:               fitness,
				Sediment:              res.sediment,
				Clamped:               res.nonFinite,
				RainRate:              raw[0],
				SedimentCapacity:      raw[1],
				SuspensionRate:        raw[2],
				DepositionRate:        raw[3],
				SedimentSofteningRate: raw[4],
				EvaporationRate:       raw[5],
				ThermalErosionRate:    raw[6],
			}
			if res.relief0 > 0 {
				row.ReliefRatio = res.relief1 / res.relief0
			}
			write := gocsv.MarshalWithoutHeaders
			if evalCount == 1 {
				write = gocsv.Marshal
			}
			if err := write([]evalRow{row}, logFile); err != nil {
				log.Printf("writing fit log: %v", err)
			}

			elapsed := time.Since(startTime)
			remaining := time.Duration(*maxEvals-evalCount) * (elapsed / time.Duration(evalCount))
			fmt.Printf("Eval %d/%d: ratio=%.3f clamped=%d fitness=%.4f (best=%.4f) | elapsed: %s, ETA: %s\n",
				evalCount, *maxEvals, row.ReliefRatio, res.nonFinite, fitness, bestFitness,
				formatDuration(elapsed), formatDuration(remaining))
			return fitness
		},
	}

	settings := &optimize.Settings{
		FuncEvaluations: *maxEvals,
		Concurrent:      0, // seeds already run in parallel
	}
	method := &optimize.CmaEsChol{
		InitStepSize: 0.3,
		Population:   popSize,
	}

	fmt.Printf("Starting CMA-ES with %d parameters, population=%d, max_evals=%d\n", dim, popSize, *maxEvals)
	fmt.Printf("Seeds per evaluation: %d, frames per run: %d, field %dx%d\n", *seeds, *ticks, *size, *size)

	result, err := optimize.Minimize(problem, initX, settings, method)
	if err != nil {
		log.Printf("optimization ended: %v", err)
	}
	if bestParams == nil && result != nil {
		bestParams = params.Clamp(params.Denormalize(result.X))
	}
	if bestParams == nil {
		log.Fatal("no evaluation completed")
	}

	fmt.Printf("\nOptimization complete after %d evaluations in %s\n", evalCount, formatDuration(time.Since(startTime)))
	fmt.Printf("Best fitness: %.5f\n", bestFitness)
	fmt.Println("\nBest parameters:")
	for i, spec := range params.Specs {
		fmt.Printf("  %s: %.6f\n", spec.Name, bestParams[i])
	}

	// The best config keeps the caller's resolution, not the evaluation size.
	bestCfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("reloading config: %v", err)
	}
	params.Apply(bestCfg, bestParams)
	configOutPath := filepath.Join(*outputDir, "best_config.yaml")
	if err := bestCfg.WriteYAML(configOutPath); err != nil {
		log.Printf("failed to write best config: %v", err)
	} else {
		fmt.Printf("\nBest config saved to: %s\n", configOutPath)
	}
}
