package config

import "sort"

func preset(action string, mutate func(*Config)) *Config {
	cfg := DefaultConfig()
	cfg.Action = action
	mutate(cfg)
	return cfg
}

var Presets = map[string]map[string]*Config{
	"wilson": {
		"free": preset("wilson", func(c *Config) {
			c.Mass = 1.0
			c.Lattice.Spatial, c.Lattice.Temporal = 2, 2
			c.Solver.Tolerance = 1e-6
		}),
		"hot": preset("wilson", func(c *Config) {
			c.Mass = 0.4
			c.Lattice.Start = "hot"
			c.Lattice.Seed = 1
		}),
		"smeared": preset("wilson", func(c *Config) {
			c.Mass = 0.4
			c.Lattice.Start = "hot"
			c.Lattice.Seed = 1
			c.Smearing.Links.Count = 2
			c.Smearing.Source.Count = 4
			c.Smearing.Sink.Count = 4
		}),
	},
	"hamber_wu": {
		"free": preset("hamber_wu", func(c *Config) {
			c.Mass = 0.5
			c.Solver.Method = "bicgstab"
		}),
		"hot": preset("hamber_wu", func(c *Config) {
			c.Mass = 0.5
			c.Lattice.Start = "hot"
			c.Lattice.Seed = 2
			c.Solver.Method = "bicgstab"
		}),
	},
	"naik": {
		"free": preset("naik", func(c *Config) {
			c.Mass = 0.5
			c.Solver.Method = "gmres"
		}),
		"hot": preset("naik", func(c *Config) {
			c.Mass = 0.5
			c.Lattice.Start = "hot"
			c.Lattice.Seed = 3
			c.Solver.Method = "gmres"
			c.Solver.Restart = 30
		}),
	},
	"dwf": {
		"shamir": preset("dwf", func(c *Config) {
			c.Mass = 0.1
			c.Lattice.Spatial, c.Lattice.Temporal = 2, 4
			c.DWF.Ls = 6
			c.Solver.MaxIterations = 4000
		}),
		"hamber_wu_kernel": preset("dwf", func(c *Config) {
			c.Mass = 0.1
			c.Lattice.Spatial, c.Lattice.Temporal = 2, 4
			c.DWF.Ls = 6
			c.DWF.M5 = 1.5
			c.DWF.Kernel = "hamber_wu"
			c.Solver.MaxIterations = 4000
		}),
	},
}

// GetPreset returns a copy of the named preset, or nil.
func GetPreset(action, name string) *Config {
	actionPresets, ok := Presets[action]
	if !ok {
		return nil
	}
	cfg, ok := actionPresets[name]
	if !ok {
		return nil
	}
	return cfg.Clone()
}

func ListPresets(action string) []string {
	actionPresets, ok := Presets[action]
	if !ok {
		return nil
	}
	names := make([]string, 0, len(actionPresets))
	for name := range actionPresets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func ListActions() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
