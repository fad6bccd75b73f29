package config

import "flag"

// Flags holds command-line overrides. Zero values leave the loaded
// configuration unchanged.
type Flags struct {
	Config string
	Debug  bool
	UV0    bool
	Size   int
	View   string
}

// RegisterFlags defines the shared configuration flags on fs.
func RegisterFlags(fs *flag.FlagSet) *Flags {
	f := &Flags{}
	fs.StringVar(&f.Config, "config", "", "Path to config file")
	fs.BoolVar(&f.Debug, "debug", false, "Enable debug logging")
	fs.BoolVar(&f.UV0, "uv0", false, "Interleave only UV channel 0")
	fs.IntVar(&f.Size, "size", 0, "Preview size in pixels")
	fs.StringVar(&f.View, "view", "", "Preview view: front, top or side")
	return f
}

// applyFlags applies CLI flag overrides to the config.
func applyFlags(cfg *Config, f *Flags) {
	if f == nil {
		return
	}
	if f.Debug {
		cfg.Logging.Level = "debug"
	}
	if f.UV0 {
		cfg.Geometry.UVPolicy = UVPolicyUV0
	}
	if f.Size > 0 {
		cfg.Preview.Size = f.Size
	}
	if f.View != "" {
		cfg.Preview.View = f.View
	}
}
