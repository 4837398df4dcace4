package config

import "sort"

// Presets are named overrides applied on top of DefaultConfig.
var Presets = map[string]func(*Config){
	"default": func(c *Config) {},
	"tiny": func(c *Config) {
		c.Balls = 27
		c.HalfExtent = 3
		c.Run.Steps = 600
	},
	"small": func(c *Config) {
		c.Balls = 512
		c.HalfExtent = 6
		c.Run.Steps = 3000
	},
	"dense": func(c *Config) {
		c.Balls = 8000
		c.Spacing = 0.85
		c.HalfExtent = 12
		c.MaxSpeed = 2
	},
	"bench": func(c *Config) {
		c.Balls = 4096
		c.Run.Steps = 10 * c.StepsPerSecond
		c.Run.ExportEvery = 0
	},
}

// GetPreset returns a fresh configuration for the named preset, or nil.
func GetPreset(name string) *Config {
	apply, ok := Presets[name]
	if !ok {
		return nil
	}
	cfg := DefaultConfig()
	apply(cfg)
	return cfg
}

// ListPresets returns the preset names in sorted order.
func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
