package telemetry

import (
	"log/slog"
	"time"
)

// Phase names, one per pass the editor runs.
const (
	PhaseWaterFlux         = "water_flux"
	PhaseSuspension        = "suspension"
	PhaseSedimentAdvection = "sediment_advection"
	PhaseSoilFlux          = "soil_flux"
	PhaseSoilAdvection     = "soil_advection"
	PhaseHeightBrush       = "height_brush"
	PhaseLayerBrush        = "layer_brush"
	PhaseGenerateSurface   = "generate_surface"
	PhaseShadow            = "shadow"
)

var phases = []string{
	PhaseWaterFlux, PhaseSuspension, PhaseSedimentAdvection,
	PhaseSoilFlux, PhaseSoilAdvection,
	PhaseHeightBrush, PhaseLayerBrush, PhaseGenerateSurface, PhaseShadow,
}

// Phases returns the known pass names in display order.
func Phases() []string { return append([]string(nil), phases...) }

// PerfSample holds timing data for a single frame.
type PerfSample struct {
	FrameDuration time.Duration
	Invocations   int
	Phases        map[string]time.Duration
}

// PerfCollector tracks per-pass timings over a rolling window of frames.
// Record has the signature of a scheduler observer.
type PerfCollector struct {
	windowSize    int
	samples       []PerfSample
	writeIndex    int
	sampleCount   int
	currentPhases map[string]time.Duration
	invocations   int
	frameStart    time.Time

	// Render frame timing (viewer mode)
	lastRenderTime time.Time
	renderDuration time.Duration
}

// NewPerfCollector creates a new performance collector.
// windowSize: number of frames to average over.
func NewPerfCollector(windowSize int) *PerfCollector {
	if windowSize < 1 {
		windowSize = 60
	}
	return &PerfCollector{
		windowSize:    windowSize,
		samples:       make([]PerfSample, windowSize),
		currentPhases: make(map[string]time.Duration),
	}
}

// StartFrame begins timing a new simulation frame.
func (p *PerfCollector) StartFrame() {
	p.frameStart = time.Now()
	p.currentPhases = make(map[string]time.Duration)
	p.invocations = 0
}

// Record adds the duration of one pass invocation to the current frame.
func (p *PerfCollector) Record(pass string, elapsed time.Duration) {
	p.currentPhases[pass] += elapsed
	p.invocations++
}

// EndFrame finishes timing the current frame and records the sample.
func (p *PerfCollector) EndFrame() {
	p.samples[p.writeIndex] = PerfSample{
		FrameDuration: time.Since(p.frameStart),
		Invocations:   p.invocations,
		Phases:        p.currentPhases,
	}
	p.writeIndex = (p.writeIndex + 1) % p.windowSize
	if p.sampleCount < p.windowSize {
		p.sampleCount++
	}
}

// RecordRender records render frame timing in viewer mode.
func (p *PerfCollector) RecordRender() {
	now := time.Now()
	if !p.lastRenderTime.IsZero() {
		p.renderDuration = now.Sub(p.lastRenderTime)
	}
	p.lastRenderTime = now
}

// PerfStats holds aggregated performance statistics.
type PerfStats struct {
	AvgFrameDuration time.Duration
	MinFrameDuration time.Duration
	MaxFrameDuration time.Duration
	AvgInvocations   float64

	// Per-pass average durations and share of frame time
	PhaseAvg map[string]time.Duration
	PhasePct map[string]float64

	FramesPerSecond float64

	RenderDuration time.Duration
	FPS            float64
}

// Stats computes aggregated statistics over the current window.
func (p *PerfCollector) Stats() PerfStats {
	var fps float64
	if p.renderDuration > 0 {
		fps = float64(time.Second) / float64(p.renderDuration)
	}

	if p.sampleCount == 0 {
		return PerfStats{
			PhaseAvg:       make(map[string]time.Duration),
			PhasePct:       make(map[string]float64),
			RenderDuration: p.renderDuration,
			FPS:            fps,
		}
	}

	var total time.Duration
	var minFrame, maxFrame time.Duration
	var invocations int
	phaseSum := make(map[string]time.Duration)

	for i := 0; i < p.sampleCount; i++ {
		s := p.samples[i]
		total += s.FrameDuration
		invocations += s.Invocations

		if i == 0 || s.FrameDuration < minFrame {
			minFrame = s.FrameDuration
		}
		if s.FrameDuration > maxFrame {
			maxFrame = s.FrameDuration
		}
		for phase, dur := range s.Phases {
			phaseSum[phase] += dur
		}
	}

	avg := total / time.Duration(p.sampleCount)

	phaseAvg := make(map[string]time.Duration)
	phasePct := make(map[string]float64)
	for phase, sum := range phaseSum {
		phaseAvg[phase] = sum / time.Duration(p.sampleCount)
		if avg > 0 {
			phasePct[phase] = float64(phaseAvg[phase]) / float64(avg) * 100
		}
	}

	var perSec float64
	if avg > 0 {
		perSec = float64(time.Second) / float64(avg)
	}

	return PerfStats{
		AvgFrameDuration: avg,
		MinFrameDuration: minFrame,
		MaxFrameDuration: maxFrame,
		AvgInvocations:   float64(invocations) / float64(p.sampleCount),
		PhaseAvg:         phaseAvg,
		PhasePct:         phasePct,
		FramesPerSecond:  perSec,
		RenderDuration:   p.renderDuration,
		FPS:              fps,
	}
}

// LogValue implements slog.LogValuer for structured logging.
func (s PerfStats) LogValue() slog.Value {
	attrs := []slog.Attr{
		slog.Int64("avg_frame_us", s.AvgFrameDuration.Microseconds()),
		slog.Int64("min_frame_us", s.MinFrameDuration.Microseconds()),
		slog.Int64("max_frame_us", s.MaxFrameDuration.Microseconds()),
		slog.Float64("invocations", s.AvgInvocations),
		slog.Float64("frames_per_sec", s.FramesPerSecond),
	}
	if s.FPS > 0 {
		attrs = append(attrs, slog.Float64("fps", s.FPS))
	}
	for _, phase := range phases {
		if pct, ok := s.PhasePct[phase]; ok && pct > 0.1 {
			attrs = append(attrs, slog.Float64(phase+"_pct", pct))
		}
	}
	return slog.GroupValue(attrs...)
}

// PerfStatsCSV is a flat struct for CSV export of performance stats.
type PerfStatsCSV struct {
	WindowEnd            int64   `csv:"window_end"`
	AvgFrameUS           int64   `csv:"avg_frame_us"`
	MinFrameUS           int64   `csv:"min_frame_us"`
	MaxFrameUS           int64   `csv:"max_frame_us"`
	Invocations          float64 `csv:"invocations"`
	FramesPerSec         float64 `csv:"frames_per_sec"`
	FPS                  float64 `csv:"fps"`
	WaterFluxPct         float64 `csv:"water_flux_pct"`
	SuspensionPct        float64 `csv:"suspension_pct"`
	SedimentAdvectionPct float64 `csv:"sediment_advection_pct"`
	SoilFluxPct          float64 `csv:"soil_flux_pct"`
	SoilAdvectionPct     float64 `csv:"soil_advection_pct"`
	HeightBrushPct       float64 `csv:"height_brush_pct"`
	LayerBrushPct        float64 `csv:"layer_brush_pct"`
	GenerateSurfacePct   float64 `csv:"generate_surface_pct"`
	ShadowPct            float64 `csv:"shadow_pct"`
}

// ToCSV converts PerfStats to a flat CSV-friendly struct.
func (s PerfStats) ToCSV(windowEnd int64) PerfStatsCSV {
	return PerfStatsCSV{
		WindowEnd:            windowEnd,
		AvgFrameUS:           s.AvgFrameDuration.Microseconds(),
		MinFrameUS:           s.MinFrameDuration.Microseconds(),
		MaxFrameUS:           s.MaxFrameDuration.Microseconds(),
		Invocations:          s.AvgInvocations,
		FramesPerSec:         s.FramesPerSecond,
		FPS:                  s.FPS,
		WaterFluxPct:         s.PhasePct[PhaseWaterFlux],
		SuspensionPct:        s.PhasePct[PhaseSuspension],
		SedimentAdvectionPct: s.PhasePct[PhaseSedimentAdvection],
		SoilFluxPct:          s.PhasePct[PhaseSoilFlux],
		SoilAdvectionPct:     s.PhasePct[PhaseSoilAdvection],
		HeightBrushPct:       s.PhasePct[PhaseHeightBrush],
		LayerBrushPct:        s.PhasePct[PhaseLayerBrush],
		GenerateSurfacePct:   s.PhasePct[PhaseGenerateSurface],
		ShadowPct:            s.PhasePct[PhaseShadow],
	}
}
