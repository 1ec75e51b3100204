// Package config loads the ndview settings from a YAML file with
// NDVIEW_* environment overrides on top.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/chazu/ndview/pkg/camera"
	"github.com/chazu/ndview/pkg/logging"
	"github.com/chazu/ndview/pkg/triangulate"
)

// ErrInvalid wraps every validation failure of a loaded config.
var ErrInvalid = errors.New("config: invalid value")

type TriangulationConfig struct {
	// Backend is one of pure, bermuda, partsegcore, triangle or
	// fastest_available.
	Backend string `yaml:"backend"`
}

type ViewConfig struct {
	Margin         float64    `yaml:"margin"`
	Canvas         [2]float64 `yaml:"canvas"`          // height, width
	ShapeThreshold [2]float64 `yaml:"shape_threshold"` // zero follows the canvas
	NDisplay       int        `yaml:"ndisplay"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Source bool   `yaml:"source"`
	File   string `yaml:"file"`
}

type EngineConfig struct {
	TimeoutMS int `yaml:"timeout_ms"`
}

type Config struct {
	Triangulation TriangulationConfig `yaml:"triangulation"`
	View          ViewConfig          `yaml:"view"`
	Logging       LoggingConfig       `yaml:"logging"`
	Engine        EngineConfig        `yaml:"engine"`
}

// Defaults returns the built-in settings.
func Defaults() Config {
	return Config{
		Triangulation: TriangulationConfig{Backend: string(triangulate.KindFastest)},
		View:          ViewConfig{Margin: 0.05, Canvas: [2]float64{600, 800}, NDisplay: 2},
		Logging:       LoggingConfig{Level: "info", Format: "text"},
		Engine:        EngineConfig{TimeoutMS: 5000},
	}
}

// Env var names used as overrides. The logging ones are shared with
// logging.FromEnv.
const (
	EnvBackend   = "NDVIEW_BACKEND"
	EnvMargin    = "NDVIEW_MARGIN"
	EnvNDisplay  = "NDVIEW_NDISPLAY"
	EnvTimeoutMS = "NDVIEW_ENGINE_TIMEOUT_MS"
)

// Load reads path over the defaults and applies environment overrides. A
// missing file is not an error; an empty path skips the file.
func Load(path string) (Config, error) {
	cfg := Defaults()
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return cfg, fmt.Errorf("config: read %s: %w", path, err)
		default:
			// Decoding into the defaults keeps every key the file omits.
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return cfg, fmt.Errorf("config: parse %s: %w", path, err)
			}
		}
	}
	applyEnvOverrides(&cfg)
	return cfg, cfg.Validate()
}

// Save writes cfg to path as YAML, creating the directory.
func Save(path string, cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("config: encode: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("config: write %s: %w", path, err)
	}
	return nil
}

// Validate checks the values the viewer would reject later.
func (c Config) Validate() error {
	var errs []error
	if _, err := triangulate.ParseKind(c.Triangulation.Backend); err != nil {
		errs = append(errs, fmt.Errorf("%w: triangulation.backend: %w", ErrInvalid, err))
	}
	if _, err := camera.ScaleFactor(c.View.Margin); err != nil {
		errs = append(errs, fmt.Errorf("%w: view.margin: %w", ErrInvalid, err))
	}
	if c.View.Canvas[0] <= 0 || c.View.Canvas[1] <= 0 {
		errs = append(errs, fmt.Errorf("%w: view.canvas %v must be positive", ErrInvalid, c.View.Canvas))
	}
	if n := c.View.NDisplay; n != 2 && n != 3 {
		errs = append(errs, fmt.Errorf("%w: view.ndisplay must be 2 or 3, got %d", ErrInvalid, n))
	}
	if c.Engine.TimeoutMS < 0 {
		errs = append(errs, fmt.Errorf("%w: engine.timeout_ms is negative", ErrInvalid))
	}
	return errors.Join(errs...)
}

// Timeout is the engine timeout; zero means the engine default.
func (e EngineConfig) Timeout() time.Duration {
	return time.Duration(e.TimeoutMS) * time.Millisecond
}

// Options converts the logging section for logging.Init.
func (l LoggingConfig) Options() logging.Options {
	return logging.Options{Level: l.Level, Format: l.Format, AddSource: l.Source, File: l.File}
}

func applyEnvOverrides(cfg *Config) {
	if v := env(EnvBackend); v != "" {
		cfg.Triangulation.Backend = v
	}
	if v := env(EnvMargin); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.View.Margin = f
		}
	}
	if v := env(EnvNDisplay); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.View.NDisplay = n
		}
	}
	if v := env(EnvTimeoutMS); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Engine.TimeoutMS = n
		}
	}
	if v := env(logging.EnvLevel); v != "" {
		cfg.Logging.Level = strings.ToLower(v)
	}
	if v := env(logging.EnvFormat); v != "" {
		cfg.Logging.Format = strings.ToLower(v)
	}
	if v := env(logging.EnvSource); v != "" {
		lv := strings.ToLower(v)
		cfg.Logging.Source = lv == "1" || lv == "true" || lv == "on" || lv == "yes"
	}
	if v := env(logging.EnvFile); v != "" {
		cfg.Logging.File = v
	}
}

func env(key string) string { return strings.TrimSpace(os.Getenv(key)) }
