package dice

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/akmonengine/dice/actor"
	"github.com/akmonengine/dice/constraint"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// ErrInvalidConfig is returned when a configuration cannot drive a world
var ErrInvalidConfig = errors.New("invalid physics config")

// NarrowPhase selects the body-to-body contact model
type NarrowPhase string

const (
	// NarrowPhaseSphere treats each die as a sphere of HalfExtent·SphereScale.
	// It is the most stable choice for resting contact.
	NarrowPhaseSphere NarrowPhase = "sphere"
	// NarrowPhaseVertex uses the deepest vertex of one die inside the inner
	// sphere of the other as the contact point
	NarrowPhaseVertex NarrowPhase = "vertex"
)

// Config holds every tunable constant of a World. It may be replaced between
// steps with World.SetConfig; a step always runs with a single snapshot.
type Config struct {
	// TimeStep is the fixed simulation step in seconds
	TimeStep float64 `toml:"time_step" yaml:"time_step"`
	// MaxFrameDelta clamps the wall-clock delta accepted by Advance
	MaxFrameDelta float64 `toml:"max_frame_delta" yaml:"max_frame_delta"`
	// Mass of every die created by AddBody (kg)
	Mass float64 `toml:"mass" yaml:"mass"`

	NarrowPhase NarrowPhase `toml:"narrow_phase" yaml:"narrow_phase"`
	SphereScale float64     `toml:"sphere_scale" yaml:"sphere_scale"`
	// GridCellSize is the broad-phase spatial hash cell size
	GridCellSize float64 `toml:"grid_cell_size" yaml:"grid_cell_size"`

	World   WorldConfig   `toml:"world" yaml:"world"`
	Ground  GroundConfig  `toml:"ground" yaml:"ground"`
	Walls   WallConfig    `toml:"walls" yaml:"walls"`
	Contact ContactConfig `toml:"contact" yaml:"contact"`
	Settle  SettleConfig  `toml:"settle" yaml:"settle"`
}

type WorldConfig struct {
	Gravity     float64 `toml:"gravity" yaml:"gravity"`
	GroundY     float64 `toml:"ground_y" yaml:"ground_y"`
	LinearDrag  float64 `toml:"linear_drag" yaml:"linear_drag"`
	AngularDrag float64 `toml:"angular_drag" yaml:"angular_drag"`
}

type GroundConfig struct {
	Restitution      float64 `toml:"restitution" yaml:"restitution"`
	BounceThreshold  float64 `toml:"bounce_threshold" yaml:"bounce_threshold"`
	KineticFriction  float64 `toml:"kinetic_friction" yaml:"kinetic_friction"`
	Iterations       int     `toml:"iterations" yaml:"iterations"`
	Slop             float64 `toml:"slop" yaml:"slop"`
	CorrectionFactor float64 `toml:"correction_factor" yaml:"correction_factor"`
	LinearDamping    float64 `toml:"linear_damping" yaml:"linear_damping"`
	AngularDamping   float64 `toml:"angular_damping" yaml:"angular_damping"`
	WakeThreshold    float64 `toml:"wake_threshold" yaml:"wake_threshold"`
}

type WallConfig struct {
	MinX        float64 `toml:"min_x" yaml:"min_x"`
	MaxX        float64 `toml:"max_x" yaml:"max_x"`
	MinZ        float64 `toml:"min_z" yaml:"min_z"`
	MaxZ        float64 `toml:"max_z" yaml:"max_z"`
	Restitution float64 `toml:"restitution" yaml:"restitution"`
	Spin        float64 `toml:"spin" yaml:"spin"`
}

type ContactConfig struct {
	Restitution      float64 `toml:"restitution" yaml:"restitution"`
	Friction         float64 `toml:"friction" yaml:"friction"`
	SpinTransfer     float64 `toml:"spin_transfer" yaml:"spin_transfer"`
	Slop             float64 `toml:"slop" yaml:"slop"`
	CorrectionFactor float64 `toml:"correction_factor" yaml:"correction_factor"`
	WakeThreshold    float64 `toml:"wake_threshold" yaml:"wake_threshold"`
}

type SettleConfig struct {
	LinearThreshold  float64 `toml:"linear_threshold" yaml:"linear_threshold"`
	AngularThreshold float64 `toml:"angular_threshold" yaml:"angular_threshold"`
	Duration         float64 `toml:"duration" yaml:"duration"`
}

// DefaultConfig returns the tuning used for 1m-wide dice on a table
func DefaultConfig() Config {
	return Config{
		TimeStep:      1.0 / 120.0,
		MaxFrameDelta: 0.1,
		Mass:          1.0,
		NarrowPhase:   NarrowPhaseSphere,
		SphereScale:   1.0,
		GridCellSize:  2.0,
		World: WorldConfig{
			Gravity:     9.81,
			GroundY:     0,
			LinearDrag:  0.02,
			AngularDrag: 0.01,
		},
		Ground: GroundConfig{
			Restitution:      0.3,
			BounceThreshold:  0.5,
			KineticFriction:  0.4,
			Iterations:       8,
			Slop:             0.005,
			CorrectionFactor: 0.4,
			LinearDamping:    0.99,
			AngularDamping:   0.98,
			WakeThreshold:    0.5,
		},
		Walls: WallConfig{
			MinX:        -6,
			MaxX:        6,
			MinZ:        -4,
			MaxZ:        4,
			Restitution: 0.5,
			Spin:        0.3,
		},
		Contact: ContactConfig{
			Restitution:      0.5,
			Friction:         0.3,
			SpinTransfer:     0.5,
			Slop:             0.001,
			CorrectionFactor: 0.8,
			WakeThreshold:    0.3,
		},
		Settle: SettleConfig{
			LinearThreshold:  0.1,
			AngularThreshold: 0.2,
			Duration:         0.3,
		},
	}
}

// ReducedFidelity returns a copy of cfg stepping at half the rate
func ReducedFidelity(cfg Config) Config {
	cfg.TimeStep *= 2
	cfg.MaxFrameDelta = max(cfg.MaxFrameDelta, cfg.TimeStep)
	return cfg
}

// Validate reports the first field that cannot drive a simulation
func (c Config) Validate() error {
	checks := []struct {
		ok   bool
		what string
	}{
		{c.TimeStep > 0, "time_step must be positive"},
		{c.MaxFrameDelta >= c.TimeStep, "max_frame_delta must be at least time_step"},
		{c.Mass > 0, "mass must be positive"},
		{c.NarrowPhase == NarrowPhaseSphere || c.NarrowPhase == NarrowPhaseVertex, "narrow_phase must be sphere or vertex"},
		{c.SphereScale > 0, "sphere_scale must be positive"},
		{c.GridCellSize > 0, "grid_cell_size must be positive"},
		{c.World.Gravity >= 0, "world.gravity must not be negative"},
		{c.World.LinearDrag >= 0 && c.World.AngularDrag >= 0, "world drag must not be negative"},
		{unit(c.Ground.Restitution), "ground.restitution must be in [0, 1]"},
		{c.Ground.KineticFriction >= 0, "ground.kinetic_friction must not be negative"},
		{c.Ground.Iterations >= 1, "ground.iterations must be at least 1"},
		{c.Ground.Slop >= 0 && unit(c.Ground.CorrectionFactor), "ground correction must be in [0, 1]"},
		{damping(c.Ground.LinearDamping) && damping(c.Ground.AngularDamping), "ground damping must be in (0, 1]"},
		{c.Walls.MaxX > c.Walls.MinX && c.Walls.MaxZ > c.Walls.MinZ, "walls must enclose an area"},
		{unit(c.Walls.Restitution), "walls.restitution must be in [0, 1]"},
		{unit(c.Contact.Restitution), "contact.restitution must be in [0, 1]"},
		{c.Contact.Friction >= 0, "contact.friction must not be negative"},
		{unit(c.Contact.SpinTransfer), "contact.spin_transfer must be in [0, 1]"},
		{c.Contact.Slop >= 0 && unit(c.Contact.CorrectionFactor), "contact correction must be in [0, 1]"},
		{c.Settle.LinearThreshold > 0 && c.Settle.AngularThreshold > 0, "settle thresholds must be positive"},
		{c.Settle.Duration >= 0, "settle.duration must not be negative"},
	}

	for _, check := range checks {
		if !check.ok {
			return fmt.Errorf("%w: %s", ErrInvalidConfig, check.what)
		}
	}
	return nil
}

func unit(v float64) bool {
	return v >= 0 && v <= 1
}

func damping(v float64) bool {
	return v > 0 && v <= 1
}

// LoadConfig reads a TOML (.toml) or YAML (.yaml, .yml) file over the
// defaults, so a file only needs the fields it changes.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".toml":
		err = toml.Unmarshal(data, &cfg)
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &cfg)
	default:
		return cfg, fmt.Errorf("%w: unsupported config format %q", ErrInvalidConfig, ext)
	}
	if err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// SaveConfig writes cfg in the format selected by the file extension
func SaveConfig(path string, cfg Config) error {
	var (
		data []byte
		err  error
	)

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".toml":
		data, err = toml.Marshal(cfg)
	case ".yaml", ".yml":
		data, err = yaml.Marshal(cfg)
	default:
		return fmt.Errorf("%w: unsupported config format %q", ErrInvalidConfig, ext)
	}
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}

	return os.WriteFile(path, data, 0644)
}

func (c Config) integrationParams() actor.IntegrationParams {
	return actor.IntegrationParams{
		Gravity:     c.World.Gravity,
		LinearDrag:  c.World.LinearDrag,
		AngularDrag: c.World.AngularDrag,
	}
}

func (c Config) groundParams() constraint.GroundParams {
	return constraint.GroundParams{
		GroundY:          c.World.GroundY,
		Restitution:      c.Ground.Restitution,
		BounceThreshold:  c.Ground.BounceThreshold,
		KineticFriction:  c.Ground.KineticFriction,
		Iterations:       c.Ground.Iterations,
		Slop:             c.Ground.Slop,
		CorrectionFactor: c.Ground.CorrectionFactor,
		LinearDamping:    c.Ground.LinearDamping,
		AngularDamping:   c.Ground.AngularDamping,
		WakeThreshold:    c.Ground.WakeThreshold,
	}
}

func (c Config) wallParams() constraint.WallParams {
	return constraint.WallParams{
		MinX:        c.Walls.MinX,
		MaxX:        c.Walls.MaxX,
		MinZ:        c.Walls.MinZ,
		MaxZ:        c.Walls.MaxZ,
		Restitution: c.Walls.Restitution,
		Spin:        c.Walls.Spin,
	}
}

func (c Config) contactParams() constraint.ContactParams {
	return constraint.ContactParams{
		Restitution:      c.Contact.Restitution,
		Friction:         c.Contact.Friction,
		SpinTransfer:     c.Contact.SpinTransfer,
		Slop:             c.Contact.Slop,
		CorrectionFactor: c.Contact.CorrectionFactor,
		WakeThreshold:    c.Contact.WakeThreshold,
	}
}

func (c Config) settleParams() actor.SettleParams {
	return actor.SettleParams{
		LinearThreshold:  c.Settle.LinearThreshold,
		AngularThreshold: c.Settle.AngularThreshold,
		Duration:         c.Settle.Duration,
		GroundY:          c.World.GroundY,
	}
}
