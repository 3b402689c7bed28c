package editor

import (
	"github.com/peterberweiler/ITA-Project-sub000/brush"
	"github.com/peterberweiler/ITA-Project-sub000/config"
)

// BrushSettings is the brush state edited by the control panel. Each
// pointer batch is turned into a StrokeEvent with the settings current at
// that moment.
type BrushSettings struct {
	Tool     Tool
	Radius   float32
	Strength float32
	Kernel   brush.Kernel
	Invert   bool // Lower instead of raise; height brush only

	Layer      int
	SlopeLimit bool
	MinSlope   float32
	MaxSlope   float32
}

// BrushSettingsFromConfig returns the startup settings. The tool starts at
// ToolHeight.
func BrushSettingsFromConfig(cfg *config.Config) (BrushSettings, error) {
	k, err := brush.ParseKernel(cfg.Brush.Kernel)
	if err != nil {
		return BrushSettings{}, err
	}
	return BrushSettings{
		Tool:     ToolHeight,
		Radius:   float32(cfg.Brush.Radius),
		Strength: float32(cfg.Brush.Strength),
		Kernel:   k,
		Layer:    cfg.Brush.Layer,
		MinSlope: float32(cfg.Brush.MinSlope),
		MaxSlope: float32(cfg.Brush.MaxSlope),
	}, nil
}

// Event builds the stroke event for a batch of points.
func (b BrushSettings) Event(points []brush.Point) StrokeEvent {
	strength := b.Strength
	if b.Invert && b.Tool == ToolHeight {
		strength = -strength
	}
	return StrokeEvent{
		Points:     points,
		Radius:     b.Radius,
		Strength:   strength,
		Kernel:     b.Kernel,
		Layer:      b.Layer,
		SlopeLimit: b.SlopeLimit,
		MinSlope:   b.MinSlope,
		MaxSlope:   b.MaxSlope,
	}
}

// NextKernel cycles the kernel shape.
func (b *BrushSettings) NextKernel() {
	ks := brush.Kernels()
	for i, k := range ks {
		if k == b.Kernel {
			b.Kernel = ks[(i+1)%len(ks)]
			return
		}
	}
	b.Kernel = ks[0]
}
