package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// MonitorConfig configures the crumbsmond polling daemon.
type MonitorConfig struct {
	Name         string             `toml:"name"`
	Addr         string             `toml:"addr"`
	PollInterval string             `toml:"poll_interval"`
	Bus          BusConfig          `toml:"bus"`
	Peripherals  []PeripheralConfig `toml:"peripherals"`
}

type BusConfig struct {
	Kind   string `toml:"kind"`
	Device string `toml:"device"`
}

type PeripheralConfig struct {
	Address byte   `toml:"address"`
	Name    string `toml:"name"`
	TypeID  byte   `toml:"type_id"`
}

func LoadMonitorConfig(path string) (MonitorConfig, error) {
	var cfg MonitorConfig
	if err := loadToml(path, &cfg); err != nil {
		return MonitorConfig{}, err
	}
	if cfg.Name == "" {
		cfg.Name = "crumbsmond"
	}
	if cfg.Addr == "" {
		cfg.Addr = ":9300"
	}
	if cfg.PollInterval == "" {
		cfg.PollInterval = "5s"
	}
	if cfg.Bus.Kind == "" {
		cfg.Bus.Kind = "i2c"
	}
	if err := ValidateMonitorConfig(cfg); err != nil {
		return MonitorConfig{}, err
	}
	return cfg, nil
}

// Interval parses the poll interval. Only valid after ValidateMonitorConfig.
func (c MonitorConfig) Interval() time.Duration {
	d, err := time.ParseDuration(c.PollInterval)
	if err != nil {
		return 5 * time.Second
	}
	return d
}

func loadToml(path string, out any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config load failed (%s): %w", path, err)
	}
	if err := toml.Unmarshal(data, out); err != nil {
		return fmt.Errorf("config parse failed (%s): %w", path, err)
	}
	return nil
}

func ValidateMonitorConfig(cfg MonitorConfig) error {
	if strings.TrimSpace(cfg.Name) == "" {
		return fmt.Errorf("monitor config missing name")
	}
	if strings.TrimSpace(cfg.Addr) == "" {
		return fmt.Errorf("monitor config missing addr")
	}
	if d, err := time.ParseDuration(cfg.PollInterval); err != nil {
		return fmt.Errorf("poll_interval invalid: %w", err)
	} else if d <= 0 {
		return fmt.Errorf("poll_interval must be positive")
	}
	switch strings.ToLower(strings.TrimSpace(cfg.Bus.Kind)) {
	case "i2c":
		if strings.TrimSpace(cfg.Bus.Device) == "" {
			return fmt.Errorf("bus device required for kind %q", cfg.Bus.Kind)
		}
	case "loopback":
	default:
		return fmt.Errorf("unknown bus kind: %s", cfg.Bus.Kind)
	}
	seen := make(map[byte]bool, len(cfg.Peripherals))
	for i, p := range cfg.Peripherals {
		if err := ValidatePeripheralEntry(p); err != nil {
			return fmt.Errorf("peripheral[%d] invalid: %w", i, err)
		}
		if seen[p.Address] {
			return fmt.Errorf("peripheral[%d] duplicate address 0x%02X", i, p.Address)
		}
		seen[p.Address] = true
	}
	return nil
}

func ValidatePeripheralEntry(cfg PeripheralConfig) error {
	if cfg.Address < 0x08 || cfg.Address > 0x77 {
		return fmt.Errorf("address 0x%02X outside 7-bit range [0x08, 0x77]", cfg.Address)
	}
	if strings.TrimSpace(cfg.Name) == "" {
		return fmt.Errorf("name is required")
	}
	return nil
}
