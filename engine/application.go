package engine

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/spaghettifunk/anima-scenes/engine/core"
	"github.com/spaghettifunk/anima-scenes/engine/groups"
	"github.com/spaghettifunk/anima-scenes/engine/systems"
	"github.com/spaghettifunk/anima-scenes/engine/ui"
)

const EnvPrefix = "ANIMA"

type ApplicationConfig struct {
	// The application name, used in log lines and the loading screen.
	Name     string `mapstructure:"name"`
	LogLevel string `mapstructure:"log_level"`
	// Frames per second the engine loop aims for.
	TargetFPS int `mapstructure:"target_fps"`
	// Directory holding the group definition files.
	DefinitionsDir string `mapstructure:"definitions_dir"`
	// Group loaded right after boot. Empty loads nothing.
	InitialGroup string `mapstructure:"initial_group"`
	// Reload the active group when its definition file changes.
	HotReload bool `mapstructure:"hot_reload"`

	Scenes   ScenesConfig   `mapstructure:"scenes"`
	Progress ProgressConfig `mapstructure:"progress"`
	Jobs     JobsConfig     `mapstructure:"jobs"`
}

type ScenesConfig struct {
	// Scene that survives every group transition.
	Persistent            string `mapstructure:"persistent"`
	ReleaseUnusedOnUnload bool   `mapstructure:"release_unused_on_unload"`
	PollIntervalMs        int    `mapstructure:"poll_interval_ms"`
	// 0 waits forever.
	LoadTimeoutMs int `mapstructure:"load_timeout_ms"`
	// Simulated streaming cost of one step.
	StepDelayMs int     `mapstructure:"step_delay_ms"`
	Jitter      float64 `mapstructure:"jitter"`
}

type ProgressConfig struct {
	Speed    float64 `mapstructure:"speed"`
	BarWidth int     `mapstructure:"bar_width"`
}

type JobsConfig struct {
	Workers   int `mapstructure:"workers"`
	QueueSize int `mapstructure:"queue_size"`
}

func DefaultApplicationConfig() *ApplicationConfig {
	return &ApplicationConfig{
		Name:           "Anima Scenes",
		LogLevel:       "info",
		TargetFPS:      60,
		DefinitionsDir: "assets/groups",
		HotReload:      true,
		Scenes: ScenesConfig{
			Persistent:     groups.DefaultPersistentScene,
			PollIntervalMs: int(groups.DefaultPollInterval / time.Millisecond),
			StepDelayMs:    50,
			Jitter:         0.25,
		},
		Progress: ProgressConfig{
			Speed:    ui.DefaultSmoothingSpeed,
			BarWidth: 40,
		},
		Jobs: JobsConfig{
			Workers:   4,
			QueueSize: 64,
		},
	}
}

// SetDefaults registers every key with its default value on v.
func SetDefaults(v *viper.Viper) {
	defaults := DefaultApplicationConfig()

	v.SetDefault("name", defaults.Name)
	v.SetDefault("log_level", defaults.LogLevel)
	v.SetDefault("target_fps", defaults.TargetFPS)
	v.SetDefault("definitions_dir", defaults.DefinitionsDir)
	v.SetDefault("initial_group", defaults.InitialGroup)
	v.SetDefault("hot_reload", defaults.HotReload)

	v.SetDefault("scenes.persistent", defaults.Scenes.Persistent)
	v.SetDefault("scenes.release_unused_on_unload", defaults.Scenes.ReleaseUnusedOnUnload)
	v.SetDefault("scenes.poll_interval_ms", defaults.Scenes.PollIntervalMs)
	v.SetDefault("scenes.load_timeout_ms", defaults.Scenes.LoadTimeoutMs)
	v.SetDefault("scenes.step_delay_ms", defaults.Scenes.StepDelayMs)
	v.SetDefault("scenes.jitter", defaults.Scenes.Jitter)

	v.SetDefault("progress.speed", defaults.Progress.Speed)
	v.SetDefault("progress.bar_width", defaults.Progress.BarWidth)

	v.SetDefault("jobs.workers", defaults.Jobs.Workers)
	v.SetDefault("jobs.queue_size", defaults.Jobs.QueueSize)
}

// LoadApplicationConfig reads path (TOML, YAML or anything viper
// understands) on top of the defaults, then applies ANIMA_* environment
// overrides. An empty path only uses defaults and environment.
func LoadApplicationConfig(path string) (*ApplicationConfig, error) {
	v := viper.New()
	SetDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	}

	cfg := &ApplicationConfig{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *ApplicationConfig) Validate() error {
	var errs []error
	if c.TargetFPS <= 0 {
		errs = append(errs, fmt.Errorf("target_fps must be positive, got %d", c.TargetFPS))
	}
	if c.DefinitionsDir == "" {
		errs = append(errs, errors.New("definitions_dir must be set"))
	}
	if c.Scenes.PollIntervalMs <= 0 {
		errs = append(errs, fmt.Errorf("scenes.poll_interval_ms must be positive, got %d", c.Scenes.PollIntervalMs))
	}
	if c.Scenes.LoadTimeoutMs < 0 {
		errs = append(errs, fmt.Errorf("scenes.load_timeout_ms cannot be negative, got %d", c.Scenes.LoadTimeoutMs))
	}
	if c.Scenes.StepDelayMs < 0 {
		errs = append(errs, fmt.Errorf("scenes.step_delay_ms cannot be negative, got %d", c.Scenes.StepDelayMs))
	}
	if c.Scenes.Jitter < 0 || c.Scenes.Jitter > 1 {
		errs = append(errs, fmt.Errorf("scenes.jitter must be within [0, 1], got %g", c.Scenes.Jitter))
	}
	if c.Progress.Speed <= 0 {
		errs = append(errs, fmt.Errorf("progress.speed must be positive, got %g", c.Progress.Speed))
	}
	if c.Jobs.Workers <= 0 {
		errs = append(errs, fmt.Errorf("jobs.workers must be positive, got %d", c.Jobs.Workers))
	}
	if c.Jobs.QueueSize < 0 {
		errs = append(errs, fmt.Errorf("jobs.queue_size cannot be negative, got %d", c.Jobs.QueueSize))
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid application config: %w", errors.Join(errs...))
	}
	return nil
}

func (c *ApplicationConfig) Level() core.LogLevel {
	return core.ParseLogLevel(c.LogLevel)
}

func (c *ApplicationConfig) FrameDuration() time.Duration {
	return time.Second / time.Duration(c.TargetFPS)
}

// OrchestratorConfig maps the scenes section onto the orchestrator. The
// waiter is left empty so the orchestrator picks its real timer.
func (c *ApplicationConfig) OrchestratorConfig() groups.OrchestratorConfig {
	return groups.OrchestratorConfig{
		PersistentScene:       c.Scenes.Persistent,
		ReleaseUnusedOnUnload: c.Scenes.ReleaseUnusedOnUnload,
		PollInterval:          time.Duration(c.Scenes.PollIntervalMs) * time.Millisecond,
		LoadTimeout:           time.Duration(c.Scenes.LoadTimeoutMs) * time.Millisecond,
	}
}

func (c *ApplicationConfig) SystemManagerConfig() systems.SystemManagerConfig {
	cfg := systems.DefaultSystemManagerConfig()
	cfg.Jobs.Workers = c.Jobs.Workers
	cfg.Jobs.QueueSize = c.Jobs.QueueSize
	cfg.Scenes.StepDelay = time.Duration(c.Scenes.StepDelayMs) * time.Millisecond
	cfg.Scenes.Jitter = c.Scenes.Jitter
	cfg.Scenes.Seed = uint64(time.Now().UnixNano())
	return cfg
}
