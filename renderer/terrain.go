// Package renderer draws the terrain field set with raylib.
package renderer

import (
	"image/color"
	"math"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/peterberweiler/ITA-Project-sub000/field"
)

// Mode selects what the terrain texture shows.
type Mode int

const (
	ModeShaded Mode = iota // layer colors, hillshade, shadow and water
	ModeHeight
	ModeWater
	ModeSediment
	ModeHardness
	modeCount
)

func (m Mode) String() string {
	switch m {
	case ModeShaded:
		return "shaded"
	case ModeHeight:
		return "height"
	case ModeWater:
		return "water"
	case ModeSediment:
		return "sediment"
	case ModeHardness:
		return "hardness"
	}
	return "unknown"
}

// Next cycles to the following mode.
func (m Mode) Next() Mode { return (m + 1) % modeCount }

// LayerPalette is the base color of each material layer.
var LayerPalette = [8]color.RGBA{
	{R: 196, G: 178, B: 136, A: 255}, // sediment
	{R: 96, G: 128, B: 56, A: 255},   // grass
	{R: 120, G: 104, B: 88, A: 255},  // rock
	{R: 240, G: 244, B: 250, A: 255}, // snow
	{R: 70, G: 92, B: 48, A: 255},    // forest
	{R: 92, G: 74, B: 60, A: 255},    // soil
	{R: 150, G: 150, B: 156, A: 255}, // gravel
	{R: 180, G: 90, B: 60, A: 255},   // clay
}

var waterColor = [3]float32{30, 80, 150}

// TerrainTexture keeps a GPU texture in sync with the field set. The texture
// is refreshed only when one of the displayed fields has swapped since the
// last upload.
type TerrainTexture struct {
	width, height int
	cellSize      float32
	mode          Mode

	pixels  []color.RGBA
	texture rl.Texture2D
	lastGen map[string]uint64

	initialized bool
}

// NewTerrainTexture creates a texture for a width x height field.
func NewTerrainTexture(width, height int, cellSize float32) *TerrainTexture {
	return &TerrainTexture{
		width:    width,
		height:   height,
		cellSize: cellSize,
		pixels:   make([]color.RGBA, width*height),
		lastGen:  make(map[string]uint64),
	}
}

// Init creates the GPU texture (must be called after the raylib window is created).
func (t *TerrainTexture) Init() {
	if t.initialized {
		return
	}
	img := rl.GenImageColor(t.width, t.height, rl.Black)
	t.texture = rl.LoadTextureFromImage(img)
	rl.UnloadImage(img)
	rl.SetTextureFilter(t.texture, rl.FilterBilinear)
	t.initialized = true
}

// Mode returns the display mode.
func (t *TerrainTexture) Mode() Mode { return t.mode }

// SetMode changes the display mode and forces a refresh.
func (t *TerrainTexture) SetMode(m Mode) {
	t.mode = m
	clear(t.lastGen)
}

// Update recomposes and uploads the texture when the displayed fields changed.
func (t *TerrainTexture) Update(set *field.Set) {
	if !t.initialized {
		t.Init()
	}
	gens := set.Generations()
	dirty := len(t.lastGen) == 0
	for name, g := range gens {
		if t.lastGen[name] != g {
			dirty = true
		}
		t.lastGen[name] = g
	}
	if !dirty {
		return
	}
	Compose(t.pixels, set, t.mode, t.cellSize)
	rl.UpdateTexture(t.texture, t.pixels)
}

// Draw renders the texture into the destination rectangle in screen space.
func (t *TerrainTexture) Draw(x, y, w, h float32) {
	rl.DrawTexturePro(
		t.texture,
		rl.Rectangle{X: 0, Y: 0, Width: float32(t.width), Height: float32(t.height)},
		rl.Rectangle{X: x, Y: y, Width: w, Height: h},
		rl.Vector2{X: 0, Y: 0},
		0,
		rl.White,
	)
	rl.DrawRectangleLines(int32(x), int32(y), int32(w), int32(h), rl.DarkGray)
}

// DrawBrushCursor outlines the brush footprint at a screen position.
func DrawBrushCursor(x, y, radius float32, active bool) {
	c := rl.Color{R: 255, G: 255, B: 255, A: 140}
	if active {
		c = rl.Color{R: 255, G: 220, B: 120, A: 220}
	}
	rl.DrawCircleLines(int32(x), int32(y), radius, c)
	rl.DrawCircle(int32(x), int32(y), 2, c)
}

// Unload frees resources.
func (t *TerrainTexture) Unload() {
	if t.initialized {
		rl.UnloadTexture(t.texture)
		t.initialized = false
	}
}

// Compose fills dst with one color per texel of the current field contents.
// Fields missing from the set are treated as absent layers.
func Compose(dst []color.RGBA, set *field.Set, mode Mode, cellSize float32) {
	height, err := set.View(field.Height)
	if err != nil {
		return
	}
	shape := height.Shape()
	lo, hi := height.MinMax(0)
	span := hi - lo
	if span <= 0 {
		span = 1
	}

	water, _ := set.View(field.Water)
	sediment, _ := set.View(field.Sediment)
	l0, _ := set.View(field.Layers0)
	l1, _ := set.View(field.Layers1)
	shadow, _ := set.View(field.Shadow)

	for y := 0; y < shape.H; y++ {
		for x := 0; x < shape.W; x++ {
			i := y*shape.W + x
			switch mode {
			case ModeHeight:
				dst[i] = ramp((height.At(x, y, 0) - lo) / span)
			case ModeWater:
				dst[i] = ramp(valueAt(water, x, y, 0) * 20)
			case ModeSediment:
				dst[i] = ramp(valueAt(sediment, x, y, 0) * 50)
			case ModeHardness:
				dst[i] = ramp(valueAt(sediment, x, y, 1))
			default:
				dst[i] = shade(height, water, l0, l1, shadow, x, y, cellSize)
			}
		}
	}
}

func valueAt(v field.View, x, y, c int) float32 {
	if !v.Valid() {
		return 0
	}
	return v.At(x, y, c)
}

// shade blends the layer palette by weight, applies a hillshade and the
// shadow light, then tints by water depth.
func shade(height, water, l0, l1, shadow field.View, x, y int, cellSize float32) color.RGBA {
	var rgb [3]float32
	var total float32
	for layer := 0; layer < len(LayerPalette); layer++ {
		src := l0
		if layer >= 4 {
			src = l1
		}
		w := valueAt(src, x, y, layer%4)
		if w <= 0 {
			continue
		}
		c := LayerPalette[layer]
		rgb[0] += w * float32(c.R)
		rgb[1] += w * float32(c.G)
		rgb[2] += w * float32(c.B)
		total += w
	}
	if total <= 0 {
		c := LayerPalette[0]
		rgb = [3]float32{float32(c.R), float32(c.G), float32(c.B)}
	} else if total < 1 {
		for k := range rgb {
			rgb[k] /= total
		}
	}

	// Lambert against a fixed upper-left light.
	gx, gy := height.Gradient(x, y, cellSize)
	nz := 1 / float32(math.Sqrt(float64(gx*gx+gy*gy+1)))
	lambert := (0.5*gx + 0.5*gy + 0.7) * nz
	light := 0.35 + 0.65*clamp01(lambert)
	if shadow.Valid() {
		light *= shadow.At(x, y, 0)
	}

	depth := valueAt(water, x, y, 0)
	tint := clamp01(depth * 10)
	for k := range rgb {
		rgb[k] = rgb[k]*light*(1-tint) + waterColor[k]*tint
	}
	return color.RGBA{R: byteOf(rgb[0]), G: byteOf(rgb[1]), B: byteOf(rgb[2]), A: 255}
}

// ramp maps [0,1] through dark blue, cyan, yellow-green and white.
func ramp(v float32) color.RGBA {
	v = clamp01(v)
	var r, g, b float32
	switch {
	case v < 0.25:
		t := v / 0.25
		r, g, b = 10+t*30, 20+t*60, 60+t*100
	case v < 0.5:
		t := (v - 0.25) / 0.25
		r, g, b = 40+t*20, 80+t*120, 160+t*40
	case v < 0.75:
		t := (v - 0.5) / 0.25
		r, g, b = 60+t*140, 200-t*40, 200-t*150
	default:
		t := (v - 0.75) / 0.25
		r, g, b = 200+t*55, 160+t*95, 50+t*205
	}
	return color.RGBA{R: byteOf(r), G: byteOf(g), B: byteOf(b), A: 255}
}

func byteOf(v float32) uint8 {
	if v <= 0 {
		return 0
	}
	if v >= 255 {
		return 255
	}
	return uint8(v)
}

func clamp01(v float32) float32 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
