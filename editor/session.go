// Package editor owns a terrain editing session: the field set, the pass
// scheduler, the erosion solver and the brushes, driven once per frame.
package editor

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sync"

	"github.com/peterberweiler/ITA-Project-sub000/brush"
	"github.com/peterberweiler/ITA-Project-sub000/config"
	"github.com/peterberweiler/ITA-Project-sub000/erosion"
	"github.com/peterberweiler/ITA-Project-sub000/field"
	"github.com/peterberweiler/ITA-Project-sub000/pass"
	"github.com/peterberweiler/ITA-Project-sub000/telemetry"
	"github.com/peterberweiler/ITA-Project-sub000/terrain"
)

// ErrNoTool is returned when a stroke arrives while no brush tool is selected.
var ErrNoTool = errors.New("editor: no brush tool selected")

// Tool is the active editing tool.
type Tool uint8

const (
	ToolNone Tool = iota
	ToolHeight
	ToolLayer
)

func (t Tool) String() string {
	switch t {
	case ToolHeight:
		return "height"
	case ToolLayer:
		return "layer"
	default:
		return "none"
	}
}

// StrokeEvent is one batch of pointer samples from the input controller.
type StrokeEvent struct {
	Points   []brush.Point
	Radius   float32
	Strength float32
	Kernel   brush.Kernel

	// Layer brush only
	Layer      int
	SlopeLimit bool
	MinSlope   float32
	MaxSlope   float32
}

// Option configures a Session.
type Option func(*Session)

// WithLogger sets the session logger. Passes and brushes log through it too.
func WithLogger(l *slog.Logger) Option {
	return func(s *Session) {
		if l != nil {
			s.log = l
		}
	}
}

// WithStatsLog logs field and pass statistics at the end of each window.
func WithStatsLog(on bool) Option {
	return func(s *Session) { s.logStats = on }
}

// WithOutput enables CSV statistics output.
func WithOutput(om *telemetry.OutputManager) Option {
	return func(s *Session) { s.output = om }
}

// Session is a single editing session.
type Session struct {
	cfg *config.Config
	log *slog.Logger

	set     *field.Set
	sched   *pass.Scheduler
	solver  *erosion.Solver
	height  *brush.HeightBrush
	layer   *brush.LayerBrush
	surface *brush.SurfacePass
	shadow  *terrain.ShadowPass

	mu           sync.Mutex
	tool         Tool
	eroding      bool
	strokeActive bool
	brushQueued  bool

	frame    int64
	logStats bool
	perf     *telemetry.PerfCollector
	output   *telemetry.OutputManager
	stats    telemetry.FieldStats
	marks    *telemetry.BookmarkDetector
}

// New builds a session from cfg. Field allocation and tileset failures are
// returned as construction errors.
func New(cfg *config.Config, opts ...Option) (*Session, error) {
	s := &Session{cfg: cfg, log: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}

	set, err := terrain.NewFieldSet(terrain.LayoutFromConfig(cfg))
	if err != nil {
		return nil, err
	}
	s.set = set
	if cfg.Noise.Enabled {
		if err := terrain.GenerateHeight(set, terrain.NoiseParamsFromConfig(cfg.Noise)); err != nil {
			return nil, err
		}
	}

	if _, err := brush.ParseKernel(cfg.Brush.Kernel); err != nil {
		return nil, fmt.Errorf("brush config: %w", err)
	}

	s.perf = telemetry.NewPerfCollector(cfg.Telemetry.PerfWindowFrames)
	s.marks = telemetry.NewBookmarkDetector(10)
	s.sched = pass.NewScheduler(set, pass.WithLogger(s.log), pass.WithObserver(s.perf.Record))
	s.solver = erosion.NewSolver(erosion.ParamsFromConfig(cfg.Erosion))
	s.eroding = cfg.Erosion.Enabled

	s.height = brush.NewHeightBrush(brush.NewStrokeBuffer[brush.HeightParams](cfg.Brush.StrokeCapacity, s.log))
	s.layer = brush.NewLayerBrush(brush.NewStrokeBuffer[brush.LayerParams](cfg.Brush.StrokeCapacity, s.log))
	s.surface = brush.NewSurfacePass(brush.SurfaceRulesFromConfig(cfg.Surface), cfg.Derived.CellSize32)
	s.shadow = terrain.NewShadowPass(terrain.ShadowParamsFromConfig(cfg))

	// The shadow pass is queued by the first Update.
	if len(cfg.Surface.Rules) > 0 {
		if err := s.sched.Enqueue(s.surface); err != nil {
			return nil, err
		}
	}

	s.log.Info("session created",
		"width", cfg.Field.Width,
		"height", cfg.Field.Height,
		"fields", len(set.Names()),
		"eroding", s.eroding,
	)
	return s, nil
}

// brushFor returns the pass behind a tool and a function that clears its
// pending strokes, or nil.
func (s *Session) brushFor(t Tool) (pass.Pass, func()) {
	switch t {
	case ToolHeight:
		return s.height, s.height.Strokes().Clear
	case ToolLayer:
		return s.layer, s.layer.Strokes().Clear
	}
	return nil, nil
}

// SetTool switches the active tool. Brush invocations still waiting in the
// queue and their stroke points are discarded; nothing was written for them.
func (s *Session) SetTool(t Tool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t == s.tool {
		return
	}
	if p, clearStrokes := s.brushFor(s.tool); p != nil {
		dropped := s.sched.Drop(p)
		clearStrokes()
		s.log.Debug("tool switched", "from", s.tool.String(), "to", t.String(), "dropped", dropped)
	}
	s.tool = t
	s.strokeActive = false
	s.brushQueued = false
}

// Tool returns the active tool.
func (s *Session) Tool() Tool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tool
}

// Stroke queues stroke data for the active brush and, once per frame, its
// invocation. The points keep the event's parameters even when later
// events in the same frame change them. Points past the stroke capacity
// are ignored and reported.
func (s *Session) Stroke(ev StrokeEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, _ := s.brushFor(s.tool)
	if p == nil {
		return ErrNoTool
	}
	if !ev.Kernel.Valid() {
		return fmt.Errorf("%w: index %d", brush.ErrUnknownKernel, ev.Kernel)
	}

	var addErr error
	switch s.tool {
	case ToolHeight:
		hp := brush.HeightParams{Radius: ev.Radius, Strength: ev.Strength, Kernel: ev.Kernel}
		addErr = s.height.Strokes().Add(hp, ev.Points...)
	case ToolLayer:
		lp := brush.LayerParams{
			Layer:    ev.Layer,
			Radius:   ev.Radius,
			Strength: ev.Strength,
			Kernel:   ev.Kernel,
			MinSlope: 0,
			MaxSlope: math.MaxFloat32,
			CellSize: s.cfg.Derived.CellSize32,
		}
		if ev.SlopeLimit {
			lp.MinSlope, lp.MaxSlope = ev.MinSlope, ev.MaxSlope
		}
		addErr = s.layer.Strokes().Add(lp, ev.Points...)
	}
	s.strokeActive = true

	if !s.brushQueued {
		if err := s.sched.Enqueue(p); err != nil {
			return err
		}
		s.brushQueued = true
	}
	return addErr
}

// EndStroke marks the end of a pointer drag. Points already queued are
// still applied by the next frame.
func (s *Session) EndStroke() {
	s.mu.Lock()
	s.strokeActive = false
	s.mu.Unlock()
}

// SetEroding turns the per-frame erosion tick on or off.
func (s *Session) SetEroding(on bool) {
	s.mu.Lock()
	s.eroding = on
	s.mu.Unlock()
}

// Eroding reports whether erosion runs each frame.
func (s *Session) Eroding() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.eroding
}

// GenerateSurface queues a full recomputation of the layer weights.
func (s *Session) GenerateSurface() error {
	return s.sched.Enqueue(s.surface)
}

// SetSurfaceRules replaces the generate-surface rules.
func (s *Session) SetSurfaceRules(rules []brush.SurfaceRule) {
	s.surface.SetRules(rules)
}

// Regenerate queues a fill of the height field with fresh noise from seed,
// a reset of the water, sediment and soil state, a surface regeneration and,
// when enabled, a shadow update. The new terrain appears with the next
// Update's swaps.
func (s *Session) Regenerate(seed int64) error {
	np := terrain.NoiseParamsFromConfig(s.cfg.Noise)
	np.Seed = seed
	hb, ok := s.set.Buffer(field.Height)
	if !ok {
		return fmt.Errorf("regenerate: %w: %q", field.ErrUnknownField, field.Height)
	}
	fills := append([]terrain.Fill{{Field: field.Height, Values: terrain.HeightNoise(hb.Shape(), np)}},
		terrain.ResetFills(terrain.LayoutFromConfig(s.cfg))...)
	if err := s.sched.Enqueue(terrain.NewFillPass(fills...)); err != nil {
		return err
	}
	if err := s.GenerateSurface(); err != nil {
		return err
	}
	if s.cfg.Shadow.Enabled {
		if err := s.sched.Enqueue(s.shadow); err != nil {
			return err
		}
	}
	s.log.Info("terrain regenerated", "seed", seed)
	return nil
}

// Update runs one frame: the active brush invocation while a stroke is in
// progress, one erosion tick when enabled, the periodic shadow pass, then
// drains the queue. It returns the number of invocations executed.
func (s *Session) Update() (int, error) {
	s.perf.StartFrame()

	s.mu.Lock()
	if p, _ := s.brushFor(s.tool); p != nil && s.strokeActive && !s.brushQueued {
		// A drag with no new samples still runs the brush as a pass-through.
		if err := s.sched.Enqueue(p); err != nil {
			s.mu.Unlock()
			return 0, err
		}
	}
	eroding := s.eroding
	s.brushQueued = false
	s.mu.Unlock()

	if eroding {
		if err := s.solver.Enqueue(s.sched); err != nil {
			return 0, err
		}
	}
	if s.cfg.Shadow.Enabled && s.frame%int64(s.cfg.Shadow.UpdateInterval) == 0 {
		if err := s.sched.Enqueue(s.shadow); err != nil {
			return 0, err
		}
	}

	n := s.sched.DrainOnce()
	s.frame++
	s.perf.EndFrame()

	if s.frame%int64(s.cfg.Telemetry.StatsWindowFrames) == 0 {
		s.flushStats()
	}
	return n, nil
}

func (s *Session) flushStats() {
	stats, err := telemetry.ComputeFieldStats(s.set, s.frame)
	if err != nil {
		s.log.Warn("field stats failed", "error", err)
		return
	}
	stats.ClampedCells = s.sched.Anomalies()
	s.stats = stats
	perf := s.perf.Stats()
	if s.logStats {
		s.log.Info("window", "fields", stats, "perf", perf)
	}
	for _, b := range s.marks.Check(stats) {
		b.Log(s.log)
	}

	if err := s.output.WriteFieldStats(stats); err != nil {
		s.log.Warn("writing field stats", "error", err)
	}
	if err := s.output.WritePerf(perf, s.frame); err != nil {
		s.log.Warn("writing perf stats", "error", err)
	}
}

// Frame returns the number of frames run.
func (s *Session) Frame() int64 { return s.frame }

// Fields returns the session field set.
func (s *Session) Fields() *field.Set { return s.set }

// Scheduler returns the session scheduler.
func (s *Session) Scheduler() *pass.Scheduler { return s.sched }

// Params returns the live erosion parameters.
func (s *Session) Params() *erosion.Params { return s.solver.Params() }

// HeightBrush returns the height brush for parameter edits.
func (s *Session) HeightBrush() *brush.HeightBrush { return s.height }

// LayerBrush returns the layer brush for parameter edits.
func (s *Session) LayerBrush() *brush.LayerBrush { return s.layer }

// Perf returns the per-pass timing collector.
func (s *Session) Perf() *telemetry.PerfCollector { return s.perf }

// Stats returns the statistics of the last completed window.
func (s *Session) Stats() telemetry.FieldStats { return s.stats }

// Snapshot copies the current contents of a field.
func (s *Session) Snapshot(name string) (field.Snapshot, error) {
	return s.set.Snapshot(name)
}
