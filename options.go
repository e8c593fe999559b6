package overdraw

import (
	"fmt"
	"log/slog"

	"github.com/chewxy/math32"

	"github.com/gogpu/overdraw/gpucore"
)

// Config holds Monitor and Sampler configuration.
type Config struct {
	// Shader is the replacement shader every sampler renders with.
	// The reduction kernel divides pixel values by Shader.FragmentWeight,
	// so any positive weight yields the same fragment counts.
	Shader gpucore.ReplacementShader

	// HistoryLimit bounds every history series (0 = unbounded).
	HistoryLimit int

	// DisplayWidth and DisplayHeight give the display area global ratios
	// are computed against.
	DisplayWidth  int
	DisplayHeight int

	// Logger overrides the package logger when non-nil.
	Logger *slog.Logger
}

// DefaultConfig returns the default configuration: the overdraw shader,
// unbounded history and no display area.
func DefaultConfig() Config {
	return Config{
		Shader: gpucore.NewOverdrawShader(),
	}
}

// Validate reports whether the configuration is usable.
func (c Config) Validate() error {
	w := c.Shader.FragmentWeight
	if !(w > 0) || math32.IsInf(w, 0) {
		return fmt.Errorf("%w: fragment weight %v must be positive and finite", ErrInvalidConfig, w)
	}
	if math32.IsInf(gpucore.FragmentScale(w), 0) {
		return fmt.Errorf("%w: fragment weight %v is too small to invert", ErrInvalidConfig, w)
	}
	if c.HistoryLimit < 0 {
		return fmt.Errorf("%w: history limit %d is negative", ErrInvalidConfig, c.HistoryLimit)
	}
	if c.DisplayWidth < 0 || c.DisplayHeight < 0 {
		return fmt.Errorf("%w: display size %dx%d is negative", ErrInvalidConfig, c.DisplayWidth, c.DisplayHeight)
	}
	return nil
}

func (c Config) logger() *slog.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return Logger()
}

// Option configures a Monitor or Sampler during creation.
// Use functional options to customize behavior.
//
// Example:
//
//	m, err := overdraw.NewMonitor(dev,
//		overdraw.WithDisplaySize(1920, 1080),
//		overdraw.WithHistoryLimit(600),
//	)
type Option func(*Config)

// WithConfig replaces the whole configuration.
func WithConfig(cfg Config) Option {
	return func(c *Config) {
		*c = cfg
	}
}

// WithShader sets the replacement shader.
func WithShader(s gpucore.ReplacementShader) Option {
	return func(c *Config) {
		c.Shader = s
	}
}

// WithHistoryLimit bounds history series to n samples (0 = unbounded).
func WithHistoryLimit(n int) Option {
	return func(c *Config) {
		c.HistoryLimit = n
	}
}

// WithDisplaySize sets the display area used for global ratios.
func WithDisplaySize(width, height int) Option {
	return func(c *Config) {
		c.DisplayWidth = width
		c.DisplayHeight = height
	}
}

// WithLogger sets a logger for this Monitor or Sampler and its device.
func WithLogger(l *slog.Logger) Option {
	return func(c *Config) {
		c.Logger = l
	}
}

func newConfig(opts []Option) (Config, error) {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
