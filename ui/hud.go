package ui

import (
	"fmt"
	"time"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/peterberweiler/ITA-Project-sub000/telemetry"
)

// HUDData holds all the data needed to render the main HUD.
type HUDData struct {
	Title   string
	Frame   int64
	FPS     int32
	Tool    string
	Kernel  string
	Mode    string
	Eroding bool
	Pending int
	Status  string // Last save/export message, if any
	Fields  telemetry.FieldStats
}

// HUD renders the main heads-up display.
type HUD struct{}

// NewHUD creates a new HUD renderer.
func NewHUD() *HUD { return &HUD{} }

// Draw renders the HUD.
func (h *HUD) Draw(data HUDData) {
	rl.DrawText(data.Title, 10, 10, 20, rl.White)

	rl.DrawText(
		fmt.Sprintf("Frame: %d | FPS: %d | Queue: %d | View: %s", data.Frame, data.FPS, data.Pending, data.Mode),
		10, 35, 16, rl.LightGray,
	)
	rl.DrawText(
		fmt.Sprintf("Tool: %s (%s) | Height mean %.2f [%.1f, %.1f] | Water %.1f",
			data.Tool, data.Kernel, data.Fields.HeightMean, data.Fields.HeightMin, data.Fields.HeightMax, data.Fields.WaterTotal),
		10, 55, 16, rl.LightGray,
	)

	status := "Idle"
	if data.Eroding {
		status = "ERODING"
	}
	rl.DrawText(status, 10, 75, 16, rl.Yellow)
	if data.Status != "" {
		rl.DrawText(data.Status, 100, 75, 16, rl.Green)
	}
}

// DrawControls renders the control legend at the bottom of the screen.
func (h *HUD) DrawControls(screenHeight int32, controls string) {
	rl.DrawText(controls, 10, screenHeight-25, 14, rl.Gray)
}

// PerfPanel renders per-pass timings.
type PerfPanel struct {
	x, y int32
}

// NewPerfPanel creates a new performance panel.
func NewPerfPanel(x, y int32) *PerfPanel {
	return &PerfPanel{x: x, y: y}
}

// SetPosition updates the panel position.
func (p *PerfPanel) SetPosition(x, y int32) {
	p.x = x
	p.y = y
}

// Draw renders the performance panel.
func (p *PerfPanel) Draw(stats telemetry.PerfStats) {
	x, y := p.x, p.y

	rl.DrawText("Pass Performance", x, y, 16, rl.White)
	y += 20
	rl.DrawText(fmt.Sprintf("Frame: %s  (%.1f invocations)", stats.AvgFrameDuration.Round(time.Microsecond), stats.AvgInvocations), x, y, 14, rl.Yellow)
	y += 16

	for _, name := range telemetry.Phases() {
		avg, ok := stats.PhaseAvg[name]
		if !ok {
			continue
		}
		pct := stats.PhasePct[name]

		color := rl.LightGray
		if pct > 40 {
			color = rl.Red
		} else if pct > 20 {
			color = rl.Orange
		}
		rl.DrawText(
			fmt.Sprintf("%-18s %8s %5.1f%%", name, avg.Round(time.Microsecond), pct),
			x, y, 12, color,
		)
		y += 14
	}
}
