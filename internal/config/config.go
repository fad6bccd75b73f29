// Package config handles meshscope configuration loading and management.
package config

import (
	"fmt"
	"time"

	"github.com/Faultbox/meshscope/internal/geometry"
)

// UV policy names accepted in geometry.uv_policy.
const (
	UVPolicyAll = "all"
	UVPolicyUV0 = "uv0"
)

// Preview view names accepted in preview.view.
const (
	ViewFront = "front"
	ViewTop   = "top"
	ViewSide  = "side"
)

// Config holds all settings.
type Config struct {
	Logging  LoggingConfig  `yaml:"logging"`
	Geometry GeometryConfig `yaml:"geometry"`
	Preview  PreviewConfig  `yaml:"preview"`
	Watch    WatchConfig    `yaml:"watch"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// GeometryConfig holds derived geometry settings.
type GeometryConfig struct {
	UVPolicy           string  `yaml:"uv_policy"`            // "all" or "uv0"
	NormalScaleDivisor float32 `yaml:"normal_scale_divisor"` // Largest bounds extent / divisor = segment length
}

// PreviewConfig holds wireframe preview rendering settings.
type PreviewConfig struct {
	Size        int    `yaml:"size"`        // Output edge length in pixels
	Supersample int    `yaml:"supersample"` // Render scale before downsampling
	View        string `yaml:"view"`        // "front", "top" or "side"
	Background  Color  `yaml:"background"`
	WireColor   Color  `yaml:"wire_color"`
	NormalColor Color  `yaml:"normal_color"`
	BoundsColor Color  `yaml:"bounds_color"`
	ShowNormals bool   `yaml:"show_normals"`
	ShowBounds  bool   `yaml:"show_bounds"`
}

// WatchConfig holds file watching settings.
type WatchConfig struct {
	Debounce time.Duration `yaml:"debounce"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
		Geometry: GeometryConfig{
			UVPolicy:           UVPolicyAll,
			NormalScaleDivisor: geometry.DefaultNormalScaleDivisor,
		},
		Preview: PreviewConfig{
			Size:        512,
			Supersample: 2,
			View:        ViewFront,
			Background:  MustParseColor("#1e1e24"),
			WireColor:   MustParseColor("#d8dee9"),
			NormalColor: MustParseColor("#88c070"),
			BoundsColor: MustParseColor("#e0a040"),
			ShowNormals: false,
			ShowBounds:  true,
		},
		Watch: WatchConfig{
			Debounce: 250 * time.Millisecond,
		},
	}
}

// Validate reports the first setting outside its allowed range.
func (c *Config) Validate() error {
	switch c.Geometry.UVPolicy {
	case UVPolicyAll, UVPolicyUV0:
	default:
		return fmt.Errorf("geometry.uv_policy: unknown policy %q", c.Geometry.UVPolicy)
	}
	if c.Geometry.NormalScaleDivisor <= 0 {
		return fmt.Errorf("geometry.normal_scale_divisor: must be positive, got %v", c.Geometry.NormalScaleDivisor)
	}
	switch c.Preview.View {
	case ViewFront, ViewTop, ViewSide:
	default:
		return fmt.Errorf("preview.view: unknown view %q", c.Preview.View)
	}
	if c.Preview.Size <= 0 {
		return fmt.Errorf("preview.size: must be positive, got %d", c.Preview.Size)
	}
	if c.Preview.Supersample < 1 {
		return fmt.Errorf("preview.supersample: must be at least 1, got %d", c.Preview.Supersample)
	}
	if c.Watch.Debounce < 0 {
		return fmt.Errorf("watch.debounce: must not be negative, got %s", c.Watch.Debounce)
	}
	return nil
}

// Options converts the geometry settings for geometry.Build.
func (g GeometryConfig) Options() geometry.Options {
	opts := geometry.DefaultOptions()
	if g.UVPolicy == UVPolicyUV0 {
		opts.UVPolicy = geometry.UVChannel0Only
	}
	if g.NormalScaleDivisor > 0 {
		opts.NormalScaleDivisor = g.NormalScaleDivisor
	}
	return opts
}
