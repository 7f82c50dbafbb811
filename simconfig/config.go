package simconfig

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/katalvlaran/roadnet/congestion"
	"github.com/katalvlaran/roadnet/planner"
	"github.com/katalvlaran/roadnet/segment"
)

// ErrInvalidConfig indicates a loaded configuration that fails
// validation.
var ErrInvalidConfig = errors.New("simconfig: invalid configuration")

// Config is the full driver configuration.
type Config struct {
	Network    NetworkConfig    `yaml:"network"`
	Congestion CongestionConfig `yaml:"congestion"`
	Planner    PlannerConfig    `yaml:"planner"`
	Sim        SimConfig        `yaml:"sim"`
}

// NetworkConfig maps onto segment.StoreOptions.
type NetworkConfig struct {
	SnapTolerance float64 `yaml:"snap_tolerance"`
	MinLength     float64 `yaml:"min_length"`
	BoundsMinX    float64 `yaml:"bounds_min_x"`
	BoundsMinY    float64 `yaml:"bounds_min_y"`
	BoundsMaxX    float64 `yaml:"bounds_max_x"`
	BoundsMaxY    float64 `yaml:"bounds_max_y"`
}

// CongestionConfig maps onto congestion.Options.
type CongestionConfig struct {
	Alpha         float64 `yaml:"alpha"`
	BPRAlpha      float64 `yaml:"bpr_alpha"`
	BPRBeta       float64 `yaml:"bpr_beta"`
	MaxMultiplier float64 `yaml:"max_multiplier"`
	MaxDelta      float64 `yaml:"max_delta"`
	Window        int     `yaml:"window"`
}

// PlannerConfig maps onto planner.Options.
type PlannerConfig struct {
	Budget     int     `yaml:"budget"`
	Workers    int     `yaml:"workers"`
	CacheTTL   uint64  `yaml:"cache_ttl"`
	CacheDrift float64 `yaml:"cache_drift"`
}

// SimConfig holds the driver's own knobs.
type SimConfig struct {
	Ticks  int    `yaml:"ticks"`
	Seed   int64  `yaml:"seed"`
	Agents int    `yaml:"agents"`
	Listen string `yaml:"listen"`
}

// Default returns the configuration matching each package's
// DefaultOptions, 1000 ticks, 512 agents and no overlay listener.
func Default() Config {
	store := segment.DefaultStoreOptions()
	cong := congestion.DefaultOptions()
	plan := planner.DefaultOptions()
	return Config{
		Network: NetworkConfig{
			SnapTolerance: store.SnapTolerance,
			MinLength:     store.MinLength,
			BoundsMinX:    store.Bounds.Min.X,
			BoundsMinY:    store.Bounds.Min.Y,
			BoundsMaxX:    store.Bounds.Max.X,
			BoundsMaxY:    store.Bounds.Max.Y,
		},
		Congestion: CongestionConfig{
			Alpha:         cong.Alpha,
			BPRAlpha:      cong.BPRAlpha,
			BPRBeta:       cong.BPRBeta,
			MaxMultiplier: cong.MaxMultiplier,
			MaxDelta:      cong.MaxDelta,
			Window:        cong.Window,
		},
		Planner: PlannerConfig{
			Budget:     plan.Budget,
			Workers:    plan.Workers,
			CacheTTL:   plan.CacheTTL,
			CacheDrift: plan.CacheDrift,
		},
		Sim: SimConfig{
			Ticks:  1000,
			Seed:   1,
			Agents: 512,
		},
	}
}

// Load merges defaults, the YAML file at path (if it exists) and
// ROADSIM_* environment variables, then validates the result.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		if err := loadFile(path, &cfg); err != nil {
			return cfg, fmt.Errorf("simconfig: load %s: %w", path, err)
		}
	}
	loadEnv(&cfg)

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

func loadEnv(cfg *Config) {
	if v := os.Getenv("ROADSIM_BUDGET"); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			cfg.Planner.Budget = i
		}
	}
	if v := os.Getenv("ROADSIM_WORKERS"); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			cfg.Planner.Workers = i
		}
	}
	if v := os.Getenv("ROADSIM_CACHE_TTL"); v != "" {
		if i, err := strconv.ParseUint(v, 10, 64); err == nil {
			cfg.Planner.CacheTTL = i
		}
	}
	if v := os.Getenv("ROADSIM_MAX_MULTIPLIER"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Congestion.MaxMultiplier = f
		}
	}
	if v := os.Getenv("ROADSIM_WINDOW"); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			cfg.Congestion.Window = i
		}
	}
	if v := os.Getenv("ROADSIM_SNAP_TOLERANCE"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Network.SnapTolerance = f
		}
	}
	if v := os.Getenv("ROADSIM_TICKS"); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			cfg.Sim.Ticks = i
		}
	}
	if v := os.Getenv("ROADSIM_SEED"); v != "" {
		if i, err := strconv.ParseInt(v, 10, 64); err == nil {
			cfg.Sim.Seed = i
		}
	}
	if v := os.Getenv("ROADSIM_AGENTS"); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			cfg.Sim.Agents = i
		}
	}
	if v := os.Getenv("ROADSIM_LISTEN"); v != "" {
		cfg.Sim.Listen = v
	}
}

// Validate rejects parameter combinations the packages would choke on.
func (c Config) Validate() error {
	switch {
	case c.Network.SnapTolerance <= 0:
		return fmt.Errorf("%w: snap_tolerance must be > 0", ErrInvalidConfig)
	case c.Network.MinLength <= 0:
		return fmt.Errorf("%w: min_length must be > 0", ErrInvalidConfig)
	case c.Network.BoundsMaxX <= c.Network.BoundsMinX || c.Network.BoundsMaxY <= c.Network.BoundsMinY:
		return fmt.Errorf("%w: bounds must be a non-empty rectangle", ErrInvalidConfig)
	case c.Congestion.Alpha <= 0 || c.Congestion.Alpha > 1:
		return fmt.Errorf("%w: alpha must be in (0, 1]", ErrInvalidConfig)
	case c.Congestion.MaxMultiplier < 1:
		return fmt.Errorf("%w: max_multiplier must be >= 1", ErrInvalidConfig)
	case c.Congestion.Window < 1:
		return fmt.Errorf("%w: window must be >= 1", ErrInvalidConfig)
	case c.Planner.Budget < 1:
		return fmt.Errorf("%w: budget must be >= 1", ErrInvalidConfig)
	case c.Planner.CacheDrift < 0:
		return fmt.Errorf("%w: cache_drift must be >= 0", ErrInvalidConfig)
	case c.Sim.Ticks < 0 || c.Sim.Agents < 0:
		return fmt.Errorf("%w: ticks and agents must be >= 0", ErrInvalidConfig)
	}
	return nil
}

// StoreOptions converts the network section.
func (c Config) StoreOptions() segment.StoreOptions {
	return segment.StoreOptions{
		SnapTolerance: c.Network.SnapTolerance,
		MinLength:     c.Network.MinLength,
		Bounds: segment.Rect{
			Min: segment.Point{X: c.Network.BoundsMinX, Y: c.Network.BoundsMinY},
			Max: segment.Point{X: c.Network.BoundsMaxX, Y: c.Network.BoundsMaxY},
		},
	}
}

// CongestionOptions converts the congestion section.
func (c Config) CongestionOptions() congestion.Options {
	return congestion.Options{
		Alpha:         c.Congestion.Alpha,
		BPRAlpha:      c.Congestion.BPRAlpha,
		BPRBeta:       c.Congestion.BPRBeta,
		MaxMultiplier: c.Congestion.MaxMultiplier,
		MaxDelta:      c.Congestion.MaxDelta,
		Window:        c.Congestion.Window,
	}
}

// PlannerOptions converts the planner section. Metrics stay nil; the
// driver wires them when it serves /metrics.
func (c Config) PlannerOptions() planner.Options {
	return planner.Options{
		Budget:     c.Planner.Budget,
		Workers:    c.Planner.Workers,
		CacheTTL:   c.Planner.CacheTTL,
		CacheDrift: c.Planner.CacheDrift,
	}
}
