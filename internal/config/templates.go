package config

import (
	"fmt"
	"os"
	"strings"
)

func Template(kind string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case "monitor":
		return monitorTemplate, nil
	default:
		return "", fmt.Errorf("unknown config kind: %s", kind)
	}
}

func WriteTemplate(path, kind string, overwrite bool) error {
	template, err := Template(kind)
	if err != nil {
		return err
	}
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config already exists: %s", path)
		}
	}
	return os.WriteFile(path, []byte(template), 0o600)
}

const monitorTemplate = `name = "crumbsmond"
addr = ":9300"
poll_interval = "5s"

[bus]
kind = "i2c"
device = "/dev/i2c-1"

[[peripherals]]
address = 0x20
name = "reflow-heater"
type_id = 1

[[peripherals]]
address = 0x21
name = "stir-motor"
type_id = 2
`
