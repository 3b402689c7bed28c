package ui

import (
	"fmt"

	gui "github.com/gen2brain/raylib-go/raygui"
	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/peterberweiler/ITA-Project-sub000/editor"
	"github.com/peterberweiler/ITA-Project-sub000/erosion"
)

// Action is a set of requests raised by the control panel in one frame.
type Action uint8

const (
	ActionToggleErosion Action = 1 << iota
	ActionGenerateSurface
	ActionSave
	ActionExport
	ActionRegenerate
)

// Has reports whether a is set.
func (a Action) Has(b Action) bool { return a&b != 0 }

// ControlsPanel renders the right-side brush and erosion controls.
type ControlsPanel struct {
	renderer *Renderer
	x, y     float32
	width    float32
	height   float32
	visible  bool

	showErosion bool
}

// NewControlsPanel creates a new controls panel.
func NewControlsPanel(x, y, width float32) *ControlsPanel {
	return &ControlsPanel{
		renderer: NewRenderer(),
		x:        x,
		y:        y,
		width:    width,
		visible:  true,
	}
}

// SetPosition updates the panel position.
func (c *ControlsPanel) SetPosition(x, y float32) {
	c.x, c.y = x, y
}

// Toggle switches panel visibility.
func (c *ControlsPanel) Toggle() bool {
	c.visible = !c.visible
	return c.visible
}

// Contains reports whether a screen point is over the panel, so pointer
// input there is not treated as a stroke.
func (c *ControlsPanel) Contains(x, y float32) bool {
	if !c.visible {
		return false
	}
	return x >= c.x && x < c.x+c.width && y >= c.y && y < c.y+c.height
}

// Draw renders the panel, applies slider edits to settings and params, and
// returns the buttons pressed this frame.
func (c *ControlsPanel) Draw(settings *editor.BrushSettings, params *erosion.Params, eroding bool) Action {
	if !c.visible {
		return 0
	}
	r := c.renderer
	pad := float32(r.Theme.Padding)
	x := c.x + pad
	w := c.width - pad*2
	sliderW := w - 60

	r.DrawPanel(int32(c.x), int32(c.y), int32(c.width), int32(c.height))
	y := c.y + pad
	var act Action

	y = float32(r.DrawSectionHeader(int32(x), int32(y), "Brush"))
	half := (w - 10) / 2
	if gui.Button(rl.Rectangle{X: x, Y: y, Width: half, Height: 24}, toolLabel("Height", settings.Tool == editor.ToolHeight)) {
		settings.Tool = editor.ToolHeight
	}
	if gui.Button(rl.Rectangle{X: x + half + 10, Y: y, Width: half, Height: 24}, toolLabel("Layer", settings.Tool == editor.ToolLayer)) {
		settings.Tool = editor.ToolLayer
	}
	y += 32

	y = c.slider(x, y, sliderW, "Radius", &settings.Radius, 0.005, 0.3, "%.3f")
	y = c.slider(x, y, sliderW, "Strength", &settings.Strength, 0, 5, "%.2f")
	if gui.Button(rl.Rectangle{X: x, Y: y, Width: half, Height: 22}, "Kernel: "+settings.Kernel.String()) {
		settings.NextKernel()
	}
	if settings.Tool == editor.ToolHeight {
		settings.Invert = gui.CheckBox(rl.Rectangle{X: x + half + 10, Y: y + 4, Width: 14, Height: 14}, "Lower", settings.Invert)
	}
	y += 30

	if settings.Tool == editor.ToolLayer {
		layer := float32(settings.Layer)
		y = c.slider(x, y, sliderW, "Layer", &layer, 0, 7, "%.0f")
		settings.Layer = int(layer + 0.5)
		settings.SlopeLimit = gui.CheckBox(rl.Rectangle{X: x, Y: y, Width: 14, Height: 14}, "Slope limit", settings.SlopeLimit)
		y += 22
		if settings.SlopeLimit {
			y = c.slider(x, y, sliderW, "Min slope", &settings.MinSlope, 0, 3, "%.2f")
			y = c.slider(x, y, sliderW, "Max slope", &settings.MaxSlope, 0, 3, "%.2f")
		}
	}
	y += 6

	y = float32(r.DrawSectionHeader(int32(x), int32(y), "Terrain"))
	if gui.Button(rl.Rectangle{X: x, Y: y, Width: half, Height: 24}, toolLabel("Erode", eroding)) {
		act |= ActionToggleErosion
	}
	if gui.Button(rl.Rectangle{X: x + half + 10, Y: y, Width: half, Height: 24}, "Gen. surface") {
		act |= ActionGenerateSurface
	}
	y += 30
	if gui.Button(rl.Rectangle{X: x, Y: y, Width: half, Height: 24}, "Save") {
		act |= ActionSave
	}
	if gui.Button(rl.Rectangle{X: x + half + 10, Y: y, Width: half, Height: 24}, "Export PNG") {
		act |= ActionExport
	}
	y += 30
	if gui.Button(rl.Rectangle{X: x, Y: y, Width: w, Height: 24}, "Regenerate noise") {
		act |= ActionRegenerate
	}
	y += 34

	if gui.Button(rl.Rectangle{X: x, Y: y, Width: w, Height: 20}, toolLabel("Erosion parameters", c.showErosion)) {
		c.showErosion = !c.showErosion
	}
	y += 28
	if c.showErosion {
		y = c.slider(x, y, sliderW, "Time step", &params.DeltaTime, 0.001, 0.1, "%.3f")
		y = c.slider(x, y, sliderW, "Rain", &params.RainRate, 0, 0.01, "%.4f")
		y = c.slider(x, y, sliderW, "Pipe area", &params.PipeCrossSectionArea, 1, 100, "%.1f")
		y = c.slider(x, y, sliderW, "Capacity", &params.SedimentCapacity, 0, 5, "%.2f")
		y = c.slider(x, y, sliderW, "Max depth", &params.MaxErosionDepth, 0, 50, "%.1f")
		y = c.slider(x, y, sliderW, "Suspension", &params.SuspensionRate, 0, 2, "%.2f")
		y = c.slider(x, y, sliderW, "Deposition", &params.DepositionRate, 0, 2, "%.2f")
		y = c.slider(x, y, sliderW, "Softening", &params.SedimentSofteningRate, 0, 20, "%.1f")
		y = c.slider(x, y, sliderW, "Evaporation", &params.EvaporationRate, 0, 0.2, "%.3f")
		y = c.slider(x, y, sliderW, "Thermal", &params.ThermalErosionRate, 0, 1, "%.2f")
		y = c.slider(x, y, sliderW, "Talus coeff", &params.TalusAngleTangentCoeff, 0, 2, "%.2f")
		y = c.slider(x, y, sliderW, "Talus bias", &params.TalusAngleTangentBias, 0, 1, "%.2f")
	}

	c.height = y - c.y + pad
	return act
}

// slider draws a labeled raygui slider bound to v and returns the next Y.
func (c *ControlsPanel) slider(x, y, width float32, label string, v *float32, lo, hi float32, format string) float32 {
	r := c.renderer
	rl.DrawText(label, int32(x), int32(y), r.Theme.FontSize, r.Theme.LabelColor)
	y += 14
	*v = gui.SliderBar(rl.Rectangle{X: x, Y: y, Width: width, Height: 16}, "", "", *v, lo, hi)
	rl.DrawText(fmt.Sprintf(format, *v), int32(x+width+8), int32(y+2), r.Theme.FontSize, r.Theme.ValueColor)
	return y + 22
}

func toolLabel(name string, active bool) string {
	if active {
		return "[" + name + "]"
	}
	return name
}
