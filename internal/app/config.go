package app

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"fyne.io/fyne/v2"
	"github.com/spf13/viper"

	"github.com/tejashwikalptaru/wavepulse/internal/domain"
	"github.com/tejashwikalptaru/wavepulse/internal/logger"
	"github.com/tejashwikalptaru/wavepulse/internal/visualizer"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "WAVEPULSE"

// Config holds application configuration.
type Config struct {
	// AppID is the unique application identifier
	AppID string `mapstructure:"app_id"`

	// AppName is the display name
	AppName string `mapstructure:"app_name"`

	// Theme is the initial background, dark or light
	Theme string `mapstructure:"theme"`

	// FPS is the target frame rate of the render loop
	FPS int `mapstructure:"fps"`

	Audio      AudioConfig       `mapstructure:"audio"`
	Log        LogConfig         `mapstructure:"log"`
	Visualizer visualizer.Config `mapstructure:"visualizer"`

	// TestFyneApp allows injecting a test Fyne app for testing (nil for production)
	TestFyneApp fyne.App `mapstructure:"-"`
}

// AudioConfig selects the audio platform.
type AudioConfig struct {
	// Mock replaces the sound card with a synthetic demo signal
	Mock bool `mapstructure:"mock"`
}

// LogConfig controls logging.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// DefaultConfig returns the default application configuration.
func DefaultConfig() Config {
	loggerCfg := logger.DefaultConfig()
	return Config{
		AppID:   "com.wavepulse.app",
		AppName: "WavePulse",
		Theme:   string(domain.ThemeDark),
		FPS:     60,
		Log: LogConfig{
			Level:  loggerCfg.Level.String(),
			Format: loggerCfg.Format,
		},
		Visualizer: visualizer.DefaultConfig(),
	}
}

// envBindings maps config keys to their environment variables.
var envBindings = []string{
	"theme",
	"fps",
	"audio.mock",
	"log.level",
	"log.format",
	"visualizer.fft_size",
	"visualizer.smoothing",
	"visualizer.partition",
	"visualizer.beat_threshold",
	"visualizer.beat_filter",
	"visualizer.beat_hold_frames",
	"visualizer.max_ripples",
	"visualizer.ripple_lifespan",
}

// LoadConfig reads a YAML config file over the defaults and applies
// WAVEPULSE_* environment overrides. An empty path skips the file.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	for _, key := range envBindings {
		if err := v.BindEnv(key); err != nil {
			return cfg, fmt.Errorf("binding %s: %w", key, err)
		}
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return cfg, fmt.Errorf("reading config %s: %w", path, err)
		}
	}

	// Keys absent from the file and the environment keep their defaults
	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("decoding config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate checks the configuration.
func (c Config) Validate() error {
	var errs []error

	if c.FPS < 1 || c.FPS > 240 {
		errs = append(errs, domain.NewValidationError("fps", c.FPS, "must be in [1,240]"))
	}
	if c.Theme != string(domain.ThemeDark) && c.Theme != string(domain.ThemeLight) {
		errs = append(errs, domain.NewValidationError("theme", c.Theme, "must be dark or light"))
	}
	if f := strings.ToLower(c.Log.Format); f != "text" && f != "json" {
		errs = append(errs, domain.NewValidationError("log.format", c.Log.Format, "must be text or json"))
	}
	if err := c.Visualizer.Validate(); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}

// LoggerConfig returns the logger configuration.
func (c Config) LoggerConfig() logger.Config {
	return logger.Config{
		Level:  logger.ParseLevel(c.Log.Level, slog.LevelInfo),
		Format: c.Log.Format,
	}
}
