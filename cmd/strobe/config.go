package main

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config holds renderer settings loadable from a YAML file. Flags
// override whatever the file sets.
type Config struct {
	Width   int     `yaml:"width"`
	Height  int     `yaml:"height"`
	Frames  int     `yaml:"frames"`
	FPS     float64 `yaml:"fps"`
	Workers int     `yaml:"workers"`
	Seed    int64   `yaml:"seed"`

	Audio AudioConfig `yaml:"audio"`
}

// AudioConfig configures the synthetic audio feed used for offline
// rendering
type AudioConfig struct {
	FFTSize int     `yaml:"fft_size"`
	Bands   int     `yaml:"bands"`
	Freq    float64 `yaml:"freq"` // test tone frequency in Hz
	Rate    float64 `yaml:"rate"` // sample rate in Hz
}

// DefaultConfig returns the settings used when no config file is given
func DefaultConfig() Config {
	return Config{
		Width:   320,
		Height:  240,
		Frames:  120,
		FPS:     60,
		Workers: 0, // one per CPU
		Audio: AudioConfig{
			FFTSize: 1024,
			Bands:   32,
			Freq:    220,
			Rate:    44100,
		},
	}
}

// LoadConfig reads and validates a YAML config file over the defaults
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Validate rejects settings the renderer cannot run with
func (c *Config) Validate() error {
	if c.Width < 1 || c.Height < 1 {
		return fmt.Errorf("bad frame size %dx%d", c.Width, c.Height)
	}
	if c.Frames < 0 {
		return fmt.Errorf("bad frame count %d", c.Frames)
	}
	if c.FPS <= 0 {
		return fmt.Errorf("bad fps %g", c.FPS)
	}
	return nil
}
