package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/rs/zerolog/log"

	"github.com/FEASTorg/crumbs-go/internal/bus"
	"github.com/FEASTorg/crumbs-go/internal/bus/bustest"
	"github.com/FEASTorg/crumbs-go/internal/bus/i2cdev"
	"github.com/FEASTorg/crumbs-go/internal/config"
	"github.com/FEASTorg/crumbs-go/internal/logging"
	"github.com/FEASTorg/crumbs-go/internal/monitor"
)

func main() {
	configPath := flag.String("config", "crumbsmond.toml", "monitor config file")
	flag.Parse()

	logging.ConfigureRuntime()

	cfg, err := config.LoadMonitorConfig(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load monitor config")
	}
	log.Info().Str("path", *configPath).Msg("loaded monitor config")

	rw, closer, err := openBus(cfg.Bus)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open bus")
	}
	if closer != nil {
		defer closer()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	svc := monitor.NewService(cfg, rw)
	if err := svc.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatal().Err(err).Msg("monitor stopped")
	}
	log.Info().Msg("monitor shut down")
}

func openBus(cfg config.BusConfig) (bus.ReadWriter, func(), error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Kind)) {
	case "i2c":
		b, err := i2cdev.Open(cfg.Device)
		if err != nil {
			return nil, nil, err
		}
		return b, func() { _ = b.Close() }, nil
	case "loopback":
		// An empty scripted bus: every peripheral reads as offline. Useful
		// for exercising the HTTP surface without hardware.
		return bustest.NewScript(), nil, nil
	default:
		return nil, nil, fmt.Errorf("unknown bus kind: %s", cfg.Kind)
	}
}
