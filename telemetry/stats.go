package telemetry

import (
	"fmt"
	"log/slog"
	"math"
	"slices"

	"gonum.org/v1/gonum/stat"

	"github.com/peterberweiler/ITA-Project-sub000/field"
)

// maxQuantileSamples bounds the texels sorted for height quantiles.
const maxQuantileSamples = 1 << 16

// FieldStats summarizes the simulation state at the end of a window.
type FieldStats struct {
	Frame int64 `csv:"frame"`

	// Terrain height distribution
	HeightTotal float64 `csv:"height_total"`
	HeightMean  float64 `csv:"height_mean"`
	HeightStd   float64 `csv:"height_std"`
	HeightMin   float64 `csv:"height_min"`
	HeightMax   float64 `csv:"height_max"`
	HeightP10   float64 `csv:"height_p10"`
	HeightP50   float64 `csv:"height_p50"`
	HeightP90   float64 `csv:"height_p90"`

	// Hydraulic state
	WaterTotal    float64 `csv:"water_total"`
	WaterMax      float64 `csv:"water_max"`
	SedimentTotal float64 `csv:"sediment_total"`
	HardnessMean  float64 `csv:"hardness_mean"`

	// Largest amount by which a texel's layer weights exceed 1
	LayerSumExcess float64 `csv:"layer_sum_excess"`

	// Swap counts, to confirm idle frames stay idle
	HeightGeneration uint64 `csv:"height_generation"`

	// Cumulative non-finite cells clamped by passes. Filled by the caller.
	ClampedCells uint64 `csv:"clamped_cells"`
}

// ComputeFieldStats reads the current side of the session fields.
func ComputeFieldStats(set *field.Set, frame int64) (FieldStats, error) {
	s := FieldStats{Frame: frame}

	height, err := set.Snapshot(field.Height)
	if err != nil {
		return s, fmt.Errorf("field stats: %w", err)
	}
	s.HeightGeneration = height.Generation
	s.HeightTotal, s.HeightMean, s.HeightStd, s.HeightMin, s.HeightMax = summarize(height.Data)

	sorted := sample(height.Data, maxQuantileSamples)
	slices.Sort(sorted)
	s.HeightP10 = stat.Quantile(0.1, stat.Empirical, sorted, nil)
	s.HeightP50 = stat.Quantile(0.5, stat.Empirical, sorted, nil)
	s.HeightP90 = stat.Quantile(0.9, stat.Empirical, sorted, nil)

	if v, err := set.View(field.Water); err == nil {
		s.WaterTotal = v.Sum(0)
		_, hi := v.MinMax(0)
		s.WaterMax = float64(hi)
	}
	if v, err := set.View(field.Sediment); err == nil {
		s.SedimentTotal = v.Sum(0)
		s.HardnessMean = v.Sum(1) / float64(v.Shape().Texels())
	}

	l0, err0 := set.View(field.Layers0)
	l1, err1 := set.View(field.Layers1)
	if err0 == nil && err1 == nil {
		s.LayerSumExcess = layerExcess(l0, l1)
	}
	return s, nil
}

// summarize returns total, mean, population std dev, min and max.
func summarize(data []float32) (total, mean, std, lo, hi float64) {
	if len(data) == 0 {
		return 0, 0, 0, 0, 0
	}
	xs := make([]float64, len(data))
	lo, hi = float64(data[0]), float64(data[0])
	for i, v := range data {
		x := float64(v)
		xs[i] = x
		total += x
		lo = min(lo, x)
		hi = max(hi, x)
	}
	mean, variance := stat.PopMeanVariance(xs, nil)
	if variance > 0 {
		std = math.Sqrt(variance)
	}
	return total, mean, std, lo, hi
}

// sample returns at most n evenly strided values as float64.
func sample(data []float32, n int) []float64 {
	stride := 1
	if len(data) > n {
		stride = (len(data) + n - 1) / n
	}
	out := make([]float64, 0, len(data)/stride+1)
	for i := 0; i < len(data); i += stride {
		out = append(out, float64(data[i]))
	}
	return out
}

func layerExcess(l0, l1 field.View) float64 {
	shape := l0.Shape()
	var worst float64
	for y := 0; y < shape.H; y++ {
		for x := 0; x < shape.W; x++ {
			var sum float32
			for c := 0; c < 4; c++ {
				sum += l0.At(x, y, c) + l1.At(x, y, c)
			}
			if e := float64(sum) - 1; e > worst {
				worst = e
			}
		}
	}
	return worst
}

// LogValue implements slog.LogValuer for structured logging.
func (s FieldStats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int64("frame", s.Frame),
		slog.Float64("height_mean", s.HeightMean),
		slog.Float64("height_std", s.HeightStd),
		slog.Float64("height_min", s.HeightMin),
		slog.Float64("height_max", s.HeightMax),
		slog.Float64("water_total", s.WaterTotal),
		slog.Float64("water_max", s.WaterMax),
		slog.Float64("sediment_total", s.SedimentTotal),
		slog.Float64("layer_sum_excess", s.LayerSumExcess),
		slog.Uint64("height_generation", s.HeightGeneration),
		slog.Uint64("clamped_cells", s.ClampedCells),
	)
}
