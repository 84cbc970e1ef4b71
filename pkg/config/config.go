package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v2"

	"github.com/dougsko/dsss/pkg/dsss"
	"github.com/dougsko/dsss/pkg/spectrum"
)

// Config represents the dsssd configuration
type Config struct {
	Transmitter struct {
		Code          string  `yaml:"code"`
		Message       string  `yaml:"message"`
		Modulation    string  `yaml:"modulation"`
		SymbolPeriod  float64 `yaml:"symbol_period"`
		SymbolSamples int     `yaml:"symbol_samples"`
		Strict        bool    `yaml:"strict"`
	} `yaml:"transmitter"`

	Spectrum struct {
		FFTSize          int     `yaml:"fft_size"`
		OccupiedFraction float64 `yaml:"occupied_fraction"`
	} `yaml:"spectrum"`

	Web struct {
		Port        int    `yaml:"port"`
		BindAddress string `yaml:"bind_address"`
	} `yaml:"web"`

	API struct {
		UnixSocket string `yaml:"unix_socket"`
	} `yaml:"api"`

	Logging struct {
		Level      string `yaml:"level"`
		File       string `yaml:"file"`
		Console    bool   `yaml:"console"`
		Structured bool   `yaml:"structured"`
		MaxSize    int    `yaml:"max_size"`    // megabytes
		MaxBackups int    `yaml:"max_backups"` // rotated files to keep
		MaxAge     int    `yaml:"max_age"`     // days
		Compress   bool   `yaml:"compress"`
	} `yaml:"logging"`
}

// Default returns a configuration with every default applied
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// LoadConfig loads configuration from a YAML file
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	config.applyDefaults()
	return &config, nil
}

func (c *Config) applyDefaults() {
	if c.Transmitter.Modulation == "" {
		c.Transmitter.Modulation = dsss.ModulationBPSK
	}
	if c.Transmitter.SymbolPeriod == 0 {
		c.Transmitter.SymbolPeriod = dsss.DefaultSymbolPeriod
	}
	if c.Transmitter.SymbolSamples == 0 {
		c.Transmitter.SymbolSamples = dsss.DefaultSymbolSamples
	}
	if c.Spectrum.OccupiedFraction == 0 {
		c.Spectrum.OccupiedFraction = spectrum.DefaultOccupiedFraction
	}
	if c.Web.Port == 0 {
		c.Web.Port = 8080
	}
	if c.Web.BindAddress == "" {
		c.Web.BindAddress = "0.0.0.0"
	}
	if c.API.UnixSocket == "" {
		c.API.UnixSocket = "/tmp/dsssd.sock"
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.MaxSize == 0 {
		c.Logging.MaxSize = 10
	}
	if c.Logging.MaxBackups == 0 {
		c.Logging.MaxBackups = 3
	}
	if c.Logging.MaxAge == 0 {
		c.Logging.MaxAge = 28
	}
}

// Params converts the transmitter section to synthesizer parameters
func (c *Config) Params() dsss.Params {
	return dsss.Params{
		Modulation:    c.Transmitter.Modulation,
		SymbolPeriod:  c.Transmitter.SymbolPeriod,
		SymbolSamples: c.Transmitter.SymbolSamples,
		Strict:        c.Transmitter.Strict,
	}
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if err := c.Params().Validate(); err != nil {
		return fmt.Errorf("transmitter: %w", err)
	}
	if c.Transmitter.Strict {
		if err := dsss.ValidateBits(c.Transmitter.Code); err != nil {
			return fmt.Errorf("transmitter code: %w", err)
		}
		if err := dsss.ValidateBits(c.Transmitter.Message); err != nil {
			return fmt.Errorf("transmitter message: %w", err)
		}
	}
	if c.Spectrum.FFTSize < 0 {
		return fmt.Errorf("spectrum fft_size must not be negative")
	}
	if c.Spectrum.OccupiedFraction <= 0 || c.Spectrum.OccupiedFraction >= 1 {
		return fmt.Errorf("spectrum occupied_fraction must be between 0 and 1, got %g", c.Spectrum.OccupiedFraction)
	}
	if c.Web.Port < 0 || c.Web.Port > 65535 {
		return fmt.Errorf("web port %d out of range", c.Web.Port)
	}
	return nil
}

// SaveConfig writes the configuration to path as YAML
func (c *Config) SaveConfig(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}
