// internal/config/config.go
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Defaults for the outlier policy and page rendering. The sigma threshold
// and the absolute minimum margin are policy choices, so both stay
// configurable.
const (
	DefaultSigmaThreshold = 2.0
	DefaultMinMarginPct   = 1.0
	DefaultRenderDPI      = 72
	DefaultInkThreshold   = 0.92
)

type Config struct {
	// SigmaThreshold flags a page when a margin lies more than this many
	// standard deviations from the document mean.
	SigmaThreshold float64 `yaml:"sigma_threshold"`
	// MinMarginPct is an absolute floor: margins below it flag the page
	// regardless of the distribution, catching severely cropped content.
	MinMarginPct float64 `yaml:"min_margin_percent"`
	// RenderDPI is the resolution pages are rasterized at before content
	// detection.
	RenderDPI int `yaml:"render_dpi"`
	// InkThreshold is the luminance fraction (0..1) below which a pixel
	// counts as content rather than background.
	InkThreshold float64 `yaml:"ink_threshold"`
	// DefaultExceptions lists 0-based page indices always excluded from
	// statistics, e.g. a cover page.
	DefaultExceptions []int `yaml:"default_exceptions"`
}

func Default() *Config {
	return &Config{
		SigmaThreshold: DefaultSigmaThreshold,
		MinMarginPct:   DefaultMinMarginPct,
		RenderDPI:      DefaultRenderDPI,
		InkThreshold:   DefaultInkThreshold,
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.SigmaThreshold < 0 {
		return fmt.Errorf("sigma_threshold must be non-negative, got %v", c.SigmaThreshold)
	}
	if c.MinMarginPct < 0 || c.MinMarginPct >= 100 {
		return fmt.Errorf("min_margin_percent must be in [0, 100), got %v", c.MinMarginPct)
	}
	if c.RenderDPI <= 0 {
		return fmt.Errorf("render_dpi must be positive, got %d", c.RenderDPI)
	}
	if c.InkThreshold <= 0 || c.InkThreshold > 1 {
		return fmt.Errorf("ink_threshold must be in (0, 1], got %v", c.InkThreshold)
	}
	for _, idx := range c.DefaultExceptions {
		if idx < 0 {
			return fmt.Errorf("default_exceptions must be 0-based page indices, got %d", idx)
		}
	}
	return nil
}
