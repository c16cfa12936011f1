package gallery

import (
	"errors"
	"fmt"
	"os"
	"time"

	"fyne.io/fyne/v2"
	"gopkg.in/yaml.v3"
)

// Config holds the engine's tunables. The zero value is not usable; start from
// DefaultConfig or LoadConfig.
type Config struct {
	ItemSize     float32 `yaml:"itemSize"`
	Gap          float32 `yaml:"gap"`
	OverscanRows int     `yaml:"overscanRows"`

	// FullResThreshold is the rendered width at which grid tiles switch to full resolution.
	FullResThreshold float32 `yaml:"fullResThreshold"`

	TransitionDuration time.Duration `yaml:"transitionDuration"`
	NavigationDuration time.Duration `yaml:"navigationDuration"`
	FadeDuration       time.Duration `yaml:"fadeDuration"`

	DefaultViewMode string `yaml:"defaultViewMode"`

	Loader LoaderConfig `yaml:"loader"`
}

// LoaderConfig configures the MediaLoader.
type LoaderConfig struct {
	Workers       int    `yaml:"workers"`
	CacheDir      string `yaml:"cacheDir"`
	MaxCacheMB    int64  `yaml:"maxCacheMB"`
	MaxCacheFiles int    `yaml:"maxCacheFiles"`
	FFmpegPath    string `yaml:"ffmpegPath"`
	ThumbnailSize int    `yaml:"thumbnailSize"`
	FullMaxSize   int    `yaml:"fullMaxSize"`
}

// DefaultConfig returns the built in configuration.
func DefaultConfig() Config {
	return Config{
		ItemSize:           150,
		Gap:                8,
		OverscanRows:       2,
		FullResThreshold:   320,
		TransitionDuration: 350 * time.Millisecond,
		NavigationDuration: 280 * time.Millisecond,
		FadeDuration:       180 * time.Millisecond,
		DefaultViewMode:    ViewCarousel.String(),
		Loader: LoaderConfig{
			Workers:       4,
			MaxCacheMB:    500,
			MaxCacheFiles: 10000,
			FFmpegPath:    "ffmpeg",
			ThumbnailSize: 256,
			FullMaxSize:   2048,
		},
	}
}

// LoadConfig reads a YAML file on top of DefaultConfig. A missing file is not
// an error.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("read config %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks the configuration for values the engine cannot work with.
func (c Config) Validate() error {
	var errs []error
	if c.ItemSize <= 0 {
		errs = append(errs, fmt.Errorf("itemSize must be positive, got %v", c.ItemSize))
	}
	if c.Gap < 0 {
		errs = append(errs, fmt.Errorf("gap must not be negative, got %v", c.Gap))
	}
	if c.OverscanRows < 0 {
		errs = append(errs, fmt.Errorf("overscanRows must not be negative, got %d", c.OverscanRows))
	}
	if c.TransitionDuration <= 0 || c.NavigationDuration <= 0 {
		errs = append(errs, errors.New("transition durations must be positive"))
	}
	if _, ok := ParseViewMode(c.DefaultViewMode); !ok {
		errs = append(errs, fmt.Errorf("unknown defaultViewMode %q", c.DefaultViewMode))
	}
	if c.Loader.Workers < 1 {
		errs = append(errs, fmt.Errorf("loader.workers must be at least 1, got %d", c.Loader.Workers))
	}
	return errors.Join(errs...)
}

// viewModePreference returns the persisted view mode, falling back to the
// configured default.
func (c Config) viewModePreference() ViewMode {
	mode, _ := ParseViewMode(c.DefaultViewMode)
	if app := fyne.CurrentApp(); app != nil {
		if saved, ok := ParseViewMode(app.Preferences().String(viewModeKey)); ok {
			mode = saved
		}
	}
	return mode
}
