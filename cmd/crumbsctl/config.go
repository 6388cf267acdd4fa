package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// ctlConfig holds the operator defaults for crumbsctl. The file is
// optional; flags override whatever it sets.
type ctlConfig struct {
	Device     string
	Timeout    time.Duration
	StrictScan bool
}

type fileConfig struct {
	Device     string `toml:"device"`
	Timeout    string `toml:"timeout"`
	StrictScan bool   `toml:"strict_scan"`
}

func defaultCtlConfig() ctlConfig {
	return ctlConfig{
		Device:  "/dev/i2c-1",
		Timeout: 2 * time.Second,
	}
}

func loadCtlConfig(path string) (ctlConfig, error) {
	cfg := defaultCtlConfig()
	if path == "" {
		return cfg, nil
	}
	if _, err := os.Stat(path); err != nil {
		return ctlConfig{}, fmt.Errorf("ctl config: %w", err)
	}

	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return ctlConfig{}, fmt.Errorf("load ctl config: %w", err)
	}

	if meta.IsDefined("device") {
		cfg.Device = strings.TrimSpace(raw.Device)
	}

	if meta.IsDefined("timeout") {
		d, err := time.ParseDuration(strings.TrimSpace(raw.Timeout))
		if err != nil {
			return ctlConfig{}, fmt.Errorf("parse timeout: %w", err)
		}
		if d <= 0 {
			return ctlConfig{}, fmt.Errorf("timeout must be positive")
		}
		cfg.Timeout = d
	}

	if meta.IsDefined("strict_scan") {
		cfg.StrictScan = raw.StrictScan
	}

	return cfg, nil
}
