package ui

import (
	"fmt"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/peterberweiler/ITA-Project-sub000/field"
	"github.com/peterberweiler/ITA-Project-sub000/renderer"
)

// Inspector shows the field values of the texel under the pointer.
type Inspector struct {
	renderer *Renderer
	x, y     int32
	width    int32
}

// NewInspector creates a new inspector panel.
func NewInspector(x, y, width int32) *Inspector {
	return &Inspector{
		renderer: NewRenderer(),
		x:        x,
		y:        y,
		width:    width,
	}
}

// SetPosition updates the inspector position.
func (ins *Inspector) SetPosition(x, y int32) {
	ins.x = x
	ins.y = y
}

// Draw renders the current values at texel (tx, ty). cellSize scales the
// slope readout.
func (ins *Inspector) Draw(set *field.Set, tx, ty int, cellSize float32) {
	height, err := set.View(field.Height)
	if err != nil {
		return
	}
	shape := height.Shape()
	if tx < 0 || ty < 0 || tx >= shape.W || ty >= shape.H {
		return
	}

	r := ins.renderer
	pad := r.Theme.Padding
	content := ins.width - pad*2
	r.DrawPanel(ins.x, ins.y, ins.width, 320)

	x, y := ins.x+pad, ins.y+pad
	y = r.DrawSectionHeader(x, y, fmt.Sprintf("Texel %d, %d", tx, ty))
	y = r.DrawLabelValue(x, y, "Height", fmt.Sprintf("%.3f", height.At(tx, ty, 0)))
	y = r.DrawLabelValue(x, y, "Slope", fmt.Sprintf("%.3f", height.Slope(tx, ty, cellSize)))

	if v, err := set.View(field.Water); err == nil {
		y = r.DrawLabelValue(x, y, "Water", fmt.Sprintf("%.4f", v.At(tx, ty, 0)))
	}
	if v, err := set.View(field.Sediment); err == nil {
		y = r.DrawLabelValue(x, y, "Sediment", fmt.Sprintf("%.4f", v.At(tx, ty, 0)))
		y = r.DrawLabelValue(x, y, "Hardness", fmt.Sprintf("%.3f", v.At(tx, ty, 1)))
	}
	if v, err := set.View(field.Velocity); err == nil {
		y = r.DrawLabelValue(x, y, "Velocity", fmt.Sprintf("%+.3f, %+.3f", v.At(tx, ty, 0), v.At(tx, ty, 1)))
	}
	if v, err := set.View(field.Shadow); err == nil {
		y = r.DrawLabelValue(x, y, "Light", fmt.Sprintf("%.2f", v.At(tx, ty, 0)))
	}

	y += 4
	y = r.DrawSectionHeader(x, y, "Layers")
	l0, err0 := set.View(field.Layers0)
	l1, err1 := set.View(field.Layers1)
	if err0 != nil || err1 != nil {
		return
	}
	for layer := range renderer.LayerPalette {
		src := l0
		if layer >= 4 {
			src = l1
		}
		w := src.At(tx, ty, layer%4)
		y = r.DrawBar(x, y, fmt.Sprintf("Layer %d", layer), w, content, rl.Color(renderer.LayerPalette[layer]))
	}
}
