// Package config provides configuration loading and access for the terrain editor.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// MaxLayers is the number of surface layers packed into the two layer fields.
const MaxLayers = 8

// ErrInvalid is wrapped by every validation failure.
var ErrInvalid = errors.New("config: invalid value")

// Config holds all editor configuration parameters.
type Config struct {
	Screen    ScreenConfig    `yaml:"screen"`
	Field     FieldConfig     `yaml:"field"`
	Erosion   ErosionConfig   `yaml:"erosion"`
	Brush     BrushConfig     `yaml:"brush"`
	Surface   SurfaceConfig   `yaml:"surface"`
	Noise     NoiseConfig     `yaml:"noise"`
	Shadow    ShadowConfig    `yaml:"shadow"`
	Telemetry TelemetryConfig `yaml:"telemetry"`

	// Derived values computed after loading
	Derived DerivedConfig `yaml:"-"`
}

// ScreenConfig holds viewer window settings.
type ScreenConfig struct {
	Width     int `yaml:"width"`
	Height    int `yaml:"height"`
	TargetFPS int `yaml:"target_fps"`
}

// FieldConfig holds the grid resolution shared by every field.
type FieldConfig struct {
	Width    int     `yaml:"width"`
	Height   int     `yaml:"height"`
	CellSize float64 `yaml:"cell_size"` // World distance between adjacent texels
}

// ErosionConfig is the single parameter record of the erosion solver.
type ErosionConfig struct {
	Enabled                bool    `yaml:"enabled"`
	DeltaTime              float64 `yaml:"delta_time"`
	RainRate               float64 `yaml:"rain_rate"`
	PipeCrossSectionArea   float64 `yaml:"pipe_cross_section_area"`
	PipeLength             float64 `yaml:"pipe_length"`
	Gravity                float64 `yaml:"gravity"`
	SedimentCapacity       float64 `yaml:"sediment_capacity"`
	MaxErosionDepth        float64 `yaml:"max_erosion_depth"`
	SuspensionRate         float64 `yaml:"suspension_rate"`
	DepositionRate         float64 `yaml:"deposition_rate"`
	SedimentSofteningRate  float64 `yaml:"sediment_softening_rate"`
	EvaporationRate        float64 `yaml:"evaporation_rate"`
	ThermalErosionRate     float64 `yaml:"thermal_erosion_rate"`
	TalusAngleTangentCoeff float64 `yaml:"talus_angle_tangent_coeff"`
	TalusAngleTangentBias  float64 `yaml:"talus_angle_tangent_bias"`
	InitialHardness        float64 `yaml:"initial_hardness"` // Starting value of the hardness channel
}

// BrushConfig holds brush defaults.
type BrushConfig struct {
	StrokeCapacity   int     `yaml:"stroke_capacity"`   // Points consumed per invocation
	KernelResolution int     `yaml:"kernel_resolution"` // Samples per kernel in the tileset
	Kernel           string  `yaml:"kernel"`
	Radius           float64 `yaml:"radius"` // Normalized field space
	Strength         float64 `yaml:"strength"`
	Layer            int     `yaml:"layer"`
	MinSlope         float64 `yaml:"min_slope"` // Slope tangent
	MaxSlope         float64 `yaml:"max_slope"`
}

// SurfaceConfig holds the generate-surface rules.
type SurfaceConfig struct {
	Rules []SurfaceRuleConfig `yaml:"rules"`
}

// SurfaceRuleConfig assigns a layer to texels inside a height and slope band.
type SurfaceRuleConfig struct {
	Layer     int     `yaml:"layer"`
	MinHeight float64 `yaml:"min_height"`
	MaxHeight float64 `yaml:"max_height"`
	MinSlope  float64 `yaml:"min_slope"`
	MaxSlope  float64 `yaml:"max_slope"`
	Blend     float64 `yaml:"blend"` // Width of the soft edge on each band boundary
}

// NoiseConfig holds the initial heightmap generator settings.
type NoiseConfig struct {
	Enabled    bool    `yaml:"enabled"`
	Seed       int64   `yaml:"seed"`
	Scale      float64 `yaml:"scale"` // Base frequency in cycles per field width
	Octaves    int     `yaml:"octaves"`
	Lacunarity float64 `yaml:"lacunarity"`
	Gain       float64 `yaml:"gain"`
	Amplitude  float64 `yaml:"amplitude"`
}

// ShadowConfig holds the shadow pass settings.
type ShadowConfig struct {
	Enabled        bool    `yaml:"enabled"`
	SunAzimuth     float64 `yaml:"sun_azimuth"`   // Degrees, 0 = +X
	SunElevation   float64 `yaml:"sun_elevation"` // Degrees above the horizon
	UpdateInterval int     `yaml:"update_interval"`
	Ambient        float64 `yaml:"ambient"`  // Light floor inside shadow
	Softness       float64 `yaml:"softness"` // Height over the ray that fades to full shadow
	MaxSteps       int     `yaml:"max_steps"`
}

// TelemetryConfig holds statistics settings.
type TelemetryConfig struct {
	StatsWindowFrames int `yaml:"stats_window_frames"`
	PerfWindowFrames  int `yaml:"perf_window_frames"`
}

// DerivedConfig holds computed values derived from the loaded config.
type DerivedConfig struct {
	CellSize32 float32 // Field.CellSize as float32
	Texels     int     // Field.Width * Field.Height
	SunDirX    float32 // Unit step toward the sun in texels
	SunDirY    float32
	SunTan     float32 // Height gained per unit horizontal distance toward the sun
}

// global holds the loaded configuration.
var global *Config

// Init loads configuration from the given path, or uses embedded defaults if path is empty.
// Must be called before Cfg().
func Init(path string) error {
	cfg, err := Load(path)
	if err != nil {
		return err
	}
	global = cfg
	return nil
}

// MustInit is like Init but panics on error.
func MustInit(path string) {
	if err := Init(path); err != nil {
		panic(fmt.Sprintf("config: failed to initialize: %v", err))
	}
}

// Cfg returns the global configuration. Panics if Init was not called.
func Cfg() *Config {
	if global == nil {
		panic("config: Cfg() called before Init()")
	}
	return global
}

// Load loads configuration from a YAML file, merging with embedded defaults.
// If path is empty, only embedded defaults are used.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		// Only overwrites fields present in the file
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg.computeDerived()

	return cfg, nil
}

// Validate rejects values the simulation cannot run with.
func (c *Config) Validate() error {
	if c.Field.Width <= 0 || c.Field.Height <= 0 {
		return fmt.Errorf("%w: field resolution %dx%d", ErrInvalid, c.Field.Width, c.Field.Height)
	}
	if c.Field.CellSize <= 0 {
		return fmt.Errorf("%w: field.cell_size %v", ErrInvalid, c.Field.CellSize)
	}
	if c.Erosion.DeltaTime <= 0 {
		return fmt.Errorf("%w: erosion.delta_time %v", ErrInvalid, c.Erosion.DeltaTime)
	}
	if c.Erosion.PipeLength <= 0 {
		return fmt.Errorf("%w: erosion.pipe_length %v", ErrInvalid, c.Erosion.PipeLength)
	}
	if h := c.Erosion.InitialHardness; h < 0 || h > 1 {
		return fmt.Errorf("%w: erosion.initial_hardness %v outside [0,1]", ErrInvalid, h)
	}
	if c.Brush.StrokeCapacity <= 0 {
		return fmt.Errorf("%w: brush.stroke_capacity %d", ErrInvalid, c.Brush.StrokeCapacity)
	}
	if c.Brush.KernelResolution < 2 {
		return fmt.Errorf("%w: brush.kernel_resolution %d", ErrInvalid, c.Brush.KernelResolution)
	}
	if c.Brush.Layer < 0 || c.Brush.Layer >= MaxLayers {
		return fmt.Errorf("%w: brush.layer %d", ErrInvalid, c.Brush.Layer)
	}
	if len(c.Surface.Rules) > MaxLayers {
		return fmt.Errorf("%w: %d surface rules, at most %d layers", ErrInvalid, len(c.Surface.Rules), MaxLayers)
	}
	for i, r := range c.Surface.Rules {
		if r.Layer < 0 || r.Layer >= MaxLayers {
			return fmt.Errorf("%w: surface.rules[%d].layer %d", ErrInvalid, i, r.Layer)
		}
	}
	return nil
}

// Refresh validates a config edited after loading and recomputes its
// derived values.
func (c *Config) Refresh() error {
	if err := c.Validate(); err != nil {
		return err
	}
	c.computeDerived()
	return nil
}

// computeDerived calculates values derived from loaded config.
func (c *Config) computeDerived() {
	c.Derived.CellSize32 = float32(c.Field.CellSize)
	c.Derived.Texels = c.Field.Width * c.Field.Height

	az := c.Shadow.SunAzimuth * math.Pi / 180
	el := c.Shadow.SunElevation * math.Pi / 180
	c.Derived.SunDirX = float32(math.Cos(az))
	c.Derived.SunDirY = float32(math.Sin(az))
	c.Derived.SunTan = float32(math.Tan(el))

	if c.Shadow.UpdateInterval <= 0 {
		c.Shadow.UpdateInterval = 1
	}
	if c.Telemetry.StatsWindowFrames <= 0 {
		c.Telemetry.StatsWindowFrames = 60
	}
	if c.Telemetry.PerfWindowFrames <= 0 {
		c.Telemetry.PerfWindowFrames = 60
	}
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}
