package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/peterberweiler/ITA-Project-sub000/brush"
	"github.com/peterberweiler/ITA-Project-sub000/camera"
	"github.com/peterberweiler/ITA-Project-sub000/config"
	"github.com/peterberweiler/ITA-Project-sub000/editor"
	"github.com/peterberweiler/ITA-Project-sub000/renderer"
	"github.com/peterberweiler/ITA-Project-sub000/telemetry"
	"github.com/peterberweiler/ITA-Project-sub000/ui"
)

const panelWidth = 300

func main() {
	// CLI flags
	configPath := flag.String("config", "", "Path to config.yaml (empty = use defaults)")
	headless := flag.Bool("headless", false, "Run without graphics")
	logStats := flag.Bool("log-stats", false, "Output stats via slog")
	snapshotDir := flag.String("snapshot-dir", "snapshots", "Directory for snapshot and export files")
	outputDir := flag.String("output-dir", "", "Output directory for CSV logs and config snapshot")
	loadPath := flag.String("load", "", "Snapshot file to restore at startup")
	seed := flag.Int64("seed", 0, "Noise seed (0 = use config)")
	erode := flag.Bool("erode", false, "Start with erosion running")
	maxTicks := flag.Int("max-ticks", 0, "Stop after N frames (0 = unlimited)")

	flag.Parse()

	if err := config.Init(*configPath); err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	cfg := config.Cfg()
	if *seed != 0 {
		cfg.Noise.Seed = *seed
	}
	if *erode {
		cfg.Erosion.Enabled = true
	}

	// Set up slog (JSON to stdout for structured logging)
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	output, err := telemetry.NewOutputManager(*outputDir)
	if err != nil {
		slog.Error("failed to create output dir", "error", err)
		os.Exit(1)
	}
	defer output.Close()
	if err := output.WriteConfig(cfg); err != nil {
		slog.Warn("writing config snapshot", "error", err)
	}

	session, err := editor.New(cfg,
		editor.WithLogger(logger),
		editor.WithOutput(output),
		editor.WithStatsLog(*logStats),
	)
	if err != nil {
		slog.Error("failed to create session", "error", err)
		os.Exit(1)
	}
	if *loadPath != "" {
		if err := session.Load(*loadPath); err != nil {
			slog.Error("failed to load snapshot", "path", *loadPath, "error", err)
			os.Exit(1)
		}
	}

	if *headless {
		runHeadless(session, *maxTicks, *snapshotDir)
		return
	}
	runWindow(cfg, session, *maxTicks, *snapshotDir)
}

func runHeadless(s *editor.Session, maxTicks int, snapshotDir string) {
	if maxTicks <= 0 {
		slog.Error("headless mode needs -max-ticks")
		os.Exit(2)
	}
	slog.Info("starting headless run",
		"max_ticks", maxTicks,
		"eroding", s.Eroding(),
	)
	start := time.Now()
	for s.Frame() < int64(maxTicks) {
		if _, err := s.Update(); err != nil {
			slog.Error("frame failed", "frame", s.Frame(), "error", err)
			os.Exit(1)
		}
	}
	slog.Info("max ticks reached", "tick", s.Frame(), "elapsed", time.Since(start).String())

	if snapshotDir != "" {
		if _, err := s.Save(snapshotDir); err != nil {
			slog.Error("saving snapshot", "error", err)
			os.Exit(1)
		}
	}
}

func runWindow(cfg *config.Config, s *editor.Session, maxTicks int, snapshotDir string) {
	screenW, screenH := int32(cfg.Screen.Width), int32(cfg.Screen.Height)
	rl.SetConfigFlags(rl.FlagWindowResizable)
	rl.InitWindow(screenW, screenH, "Terrain Editor")
	defer rl.CloseWindow()
	rl.SetTargetFPS(int32(cfg.Screen.TargetFPS))

	worldW := float32(cfg.Field.Width) * cfg.Derived.CellSize32
	worldH := float32(cfg.Field.Height) * cfg.Derived.CellSize32
	cam := camera.New(float32(screenW-panelWidth), float32(screenH), worldW, worldH)

	tex := renderer.NewTerrainTexture(cfg.Field.Width, cfg.Field.Height, cfg.Derived.CellSize32)
	tex.Init()
	defer tex.Unload()

	settings, err := editor.BrushSettingsFromConfig(cfg)
	if err != nil {
		slog.Error("brush settings", "error", err)
		return
	}
	s.SetTool(settings.Tool)

	controls := ui.NewControlsPanel(float32(screenW-panelWidth), 0, panelWidth)
	hud := ui.NewHUD()
	perf := ui.NewPerfPanel(10, 100)
	inspector := ui.NewInspector(10, 260, 220)
	showPerf, showInspector := false, false
	status := ""
	nextSeed := cfg.Noise.Seed + 1

	for !rl.WindowShouldClose() {
		if rl.IsWindowResized() {
			screenW, screenH = int32(rl.GetScreenWidth()), int32(rl.GetScreenHeight())
			cam.Resize(float32(screenW-panelWidth), float32(screenH))
			controls.SetPosition(float32(screenW-panelWidth), 0)
		}

		// Keyboard shortcuts
		switch {
		case rl.IsKeyPressed(rl.KeyOne):
			settings.Tool = editor.ToolHeight
		case rl.IsKeyPressed(rl.KeyTwo):
			settings.Tool = editor.ToolLayer
		case rl.IsKeyPressed(rl.KeyE):
			s.SetEroding(!s.Eroding())
		case rl.IsKeyPressed(rl.KeyV):
			tex.SetMode(tex.Mode().Next())
		case rl.IsKeyPressed(rl.KeyK):
			settings.NextKernel()
		case rl.IsKeyPressed(rl.KeyP):
			showPerf = !showPerf
		case rl.IsKeyPressed(rl.KeyI):
			showInspector = !showInspector
		case rl.IsKeyPressed(rl.KeyTab):
			controls.Toggle()
		case rl.IsKeyPressed(rl.KeyR):
			cam.Reset()
		}

		// Camera: right drag pans, wheel zooms at the pointer
		mouse := rl.GetMousePosition()
		if rl.IsMouseButtonDown(rl.MouseButtonRight) {
			d := rl.GetMouseDelta()
			cam.Pan(-d.X, -d.Y)
		}
		if wheel := rl.GetMouseWheelMove(); wheel != 0 && !controls.Contains(mouse.X, mouse.Y) {
			factor := float32(1.1)
			if wheel < 0 {
				factor = 1 / factor
			}
			cam.ZoomAt(factor, mouse.X, mouse.Y)
		}

		if settings.Tool != s.Tool() {
			s.SetTool(settings.Tool)
		}

		// Brush strokes from the left button
		u, v, inField := cam.ScreenToField(mouse.X, mouse.Y)
		painting := rl.IsMouseButtonDown(rl.MouseButtonLeft) && !controls.Contains(mouse.X, mouse.Y)
		if painting && inField {
			if err := s.Stroke(settings.Event([]brush.Point{{X: u, Y: v}})); err != nil {
				slog.Debug("stroke", "error", err)
			}
		}
		if rl.IsMouseButtonReleased(rl.MouseButtonLeft) {
			s.EndStroke()
		}

		if _, err := s.Update(); err != nil {
			slog.Error("frame failed", "frame", s.Frame(), "error", err)
			return
		}
		s.Perf().RecordRender()
		tex.Update(s.Fields())

		rl.BeginDrawing()
		rl.ClearBackground(rl.Color{R: 24, G: 28, B: 34, A: 255})

		fx, fy, fw, fh := cam.FieldRect()
		tex.Draw(fx, fy, fw, fh)
		if inField && !controls.Contains(mouse.X, mouse.Y) {
			renderer.DrawBrushCursor(mouse.X, mouse.Y, settings.Radius*fw, painting)
		}

		act := controls.Draw(&settings, s.Params(), s.Eroding())
		switch {
		case act.Has(ui.ActionToggleErosion):
			s.SetEroding(!s.Eroding())
		case act.Has(ui.ActionGenerateSurface):
			if err := s.GenerateSurface(); err != nil {
				slog.Warn("generate surface", "error", err)
			}
		case act.Has(ui.ActionSave):
			status = report(s.Save(snapshotDir))
		case act.Has(ui.ActionExport):
			path := filepath.Join(snapshotDir, fmt.Sprintf("height_%d.png", s.Frame()))
			err := os.MkdirAll(snapshotDir, 0755)
			if err == nil {
				err = s.ExportHeight(path, 16)
			}
			status = report(path, err)
		case act.Has(ui.ActionRegenerate):
			if err := s.Regenerate(nextSeed); err != nil {
				slog.Warn("regenerate", "error", err)
			}
			nextSeed++
		}

		hud.Draw(ui.HUDData{
			Title:   "Terrain Editor",
			Frame:   s.Frame(),
			FPS:     rl.GetFPS(),
			Tool:    s.Tool().String(),
			Kernel:  settings.Kernel.String(),
			Mode:    tex.Mode().String(),
			Eroding: s.Eroding(),
			Pending: s.Scheduler().Len(),
			Status:  status,
			Fields:  s.Stats(),
		})
		if showPerf {
			perf.Draw(s.Perf().Stats())
		}
		if showInspector && inField {
			tx := int(u * float32(cfg.Field.Width))
			ty := int(v * float32(cfg.Field.Height))
			inspector.Draw(s.Fields(), tx, ty, cfg.Derived.CellSize32)
		}
		hud.DrawControls(screenH, "LMB: paint | RMB: pan | Wheel: zoom | 1/2: tool | K: kernel | E: erode | V: view | P: perf | I: inspect | Tab: panel")

		rl.EndDrawing()

		if maxTicks > 0 && s.Frame() >= int64(maxTicks) {
			break
		}
	}
}

func report(path string, err error) string {
	if err != nil {
		slog.Warn("write failed", "error", err)
		return "write failed: " + err.Error()
	}
	return "wrote " + path
}
