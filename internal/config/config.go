package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

const (
	DefaultParticles   = 64
	DefaultDensity     = 0.5
	DefaultTemperature = 1.0
	DefaultDt          = 0.002
	DefaultDelta       = 0.1
	DefaultSteps       = 1000
)

type Config struct {
	Model       string  `yaml:"model"`
	Particles   int     `yaml:"particles"`
	Density     float64 `yaml:"density"`
	Temperature float64 `yaml:"temperature"`
	Dt          float64 `yaml:"dt"`
	Delta       float64 `yaml:"delta"`
	Steps       int     `yaml:"steps"`
	Seed        int64   `yaml:"seed"`

	// Thermostat, when positive, couples the MD backend to a heat
	// bath at this temperature.
	Thermostat float64 `yaml:"thermostat"`

	TrajectoryInterval int      `yaml:"trajectory_interval"`
	ThermoInterval     int      `yaml:"thermo_interval"`
	Fields             []string `yaml:"fields"`
}

func DefaultConfig() *Config {
	return &Config{
		Model:              "lj",
		Particles:          DefaultParticles,
		Density:            DefaultDensity,
		Temperature:        DefaultTemperature,
		Dt:                 DefaultDt,
		Delta:              DefaultDelta,
		Steps:              DefaultSteps,
		TrajectoryInterval: 100,
		ThermoInterval:     10,
	}
}

// Load reads a YAML config on top of the defaults and validates it.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	if err := cfg.Check(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Check validates the configuration.
func (c *Config) Check() error {
	switch c.Model {
	case "lj", "walk":
	default:
		return fmt.Errorf("unknown model %q", c.Model)
	}
	if c.Particles <= 0 {
		return fmt.Errorf("particles must be positive, got %d", c.Particles)
	}
	if c.Density <= 0 {
		return fmt.Errorf("density must be positive, got %g", c.Density)
	}
	if c.Temperature < 0 {
		return fmt.Errorf("temperature must be non-negative, got %g", c.Temperature)
	}
	if c.Model == "lj" && c.Dt <= 0 {
		return fmt.Errorf("dt must be positive, got %g", c.Dt)
	}
	if c.Model == "walk" && c.Delta <= 0 {
		return fmt.Errorf("delta must be positive, got %g", c.Delta)
	}
	if c.Steps < 0 {
		return fmt.Errorf("steps must be non-negative, got %d", c.Steps)
	}
	if c.TrajectoryInterval < 0 || c.ThermoInterval < 0 {
		return fmt.Errorf("intervals must be non-negative")
	}
	return nil
}
