package main

import (
	"context"
	"encoding/hex"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/FEASTorg/crumbs-go/internal/bus/i2cdev"
	"github.com/FEASTorg/crumbs-go/internal/config"
	"github.com/FEASTorg/crumbs-go/internal/endpoint"
	"github.com/FEASTorg/crumbs-go/internal/logging"
	"github.com/FEASTorg/crumbs-go/internal/observability"
	"github.com/FEASTorg/crumbs-go/internal/protocol"
	"github.com/FEASTorg/crumbs-go/internal/scan"
)

const usage = `usage: crumbsctl [-device path] [-config path] <command> [args]

commands:
  scan                       probe the bus for devices
  send                       encode and write one frame
  request                    stage a reply opcode and read it back
  init-config                write a monitor config template
`

func main() {
	logging.ConfigureRuntime()

	global := flag.NewFlagSet("crumbsctl", flag.ExitOnError)
	device := global.String("device", "", "i2c device path (overrides config)")
	configPath := global.String("config", "", "ctl config file")
	global.Usage = func() { fmt.Fprint(os.Stderr, usage) }

	args := os.Args[1:]
	split := len(args)
	for i, a := range args {
		if !strings.HasPrefix(a, "-") {
			split = i
			break
		}
	}
	if err := global.Parse(args[:split]); err != nil {
		os.Exit(2)
	}
	rest := args[split:]
	if len(rest) == 0 {
		global.Usage()
		os.Exit(2)
	}

	cfg, err := loadCtlConfig(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load ctl config")
	}
	if *device != "" {
		cfg.Device = *device
	}

	cmd, cmdArgs := rest[0], rest[1:]
	switch cmd {
	case "scan":
		err = runScan(cfg, cmdArgs)
	case "send":
		err = runSend(cfg, cmdArgs)
	case "request":
		err = runRequest(cfg, cmdArgs)
	case "init-config":
		err = runInitConfig(cmdArgs)
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n%s", cmd, usage)
		os.Exit(2)
	}
	if err != nil {
		log.Fatal().Err(err).Str("command", cmd).Msg("command failed")
	}
}

func openBus(cfg ctlConfig) (*i2cdev.Bus, error) {
	if cfg.Device == "" {
		return nil, fmt.Errorf("no i2c device: pass -device or set it in the config")
	}
	return i2cdev.Open(cfg.Device)
}

func opCtx(cfg ctlConfig) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), cfg.Timeout)
}

func runScan(cfg ctlConfig, args []string) error {
	fs := flag.NewFlagSet("scan", flag.ExitOnError)
	start := fs.Uint("start", uint(scan.DefaultStart), "first address")
	end := fs.Uint("end", uint(scan.DefaultEnd), "last address")
	strict := fs.Bool("strict", cfg.StrictScan, "read-only probing")
	maxFound := fs.Int("max", 0, "stop after this many devices (0 = no limit)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	b, err := openBus(cfg)
	if err != nil {
		return err
	}
	defer b.Close()

	ctx, cancel := opCtx(cfg)
	defer cancel()

	found, err := scan.Scan(ctx, b, scan.Options{
		Start:    byte(*start),
		End:      byte(*end),
		Strict:   *strict,
		MaxFound: *maxFound,
		Logger:   log.Logger,
	})
	if err != nil {
		return err
	}
	observability.RecordScanSweep(int(*end)-int(*start)+1, len(found))

	if len(found) == 0 {
		fmt.Println("no devices found")
		return nil
	}
	for _, r := range found {
		fmt.Printf("0x%02X  type_id=%d\n", r.Address, r.TypeID)
	}
	return nil
}

func runSend(cfg ctlConfig, args []string) error {
	fs := flag.NewFlagSet("send", flag.ExitOnError)
	addr := fs.Uint("addr", 0, "target address")
	typeID := fs.Uint("type", 0, "type identifier")
	opcode := fs.Uint("opcode", 0, "opcode")
	data := fs.String("data", "", "payload as hex bytes, e.g. 0a1b2c")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *addr == 0 {
		return fmt.Errorf("send: -addr is required")
	}

	payload, err := hex.DecodeString(strings.TrimPrefix(*data, "0x"))
	if err != nil {
		return fmt.Errorf("send: bad -data: %w", err)
	}

	msg := protocol.NewMessage(byte(*typeID), byte(*opcode))
	if err := msg.AddBytes(payload); err != nil {
		return err
	}

	b, err := openBus(cfg)
	if err != nil {
		return err
	}
	defer b.Close()

	ctx, cancel := opCtx(cfg)
	defer cancel()

	controller := endpoint.New(endpoint.RoleController, 0, endpoint.WithLogger(log.Logger))
	if err := controller.Send(ctx, b, byte(*addr), &msg); err != nil {
		return err
	}
	fmt.Printf("sent %d payload bytes to 0x%02X opcode 0x%02X\n", len(payload), *addr, *opcode)
	return nil
}

func runRequest(cfg ctlConfig, args []string) error {
	fs := flag.NewFlagSet("request", flag.ExitOnError)
	addr := fs.Uint("addr", 0, "target address")
	opcode := fs.Uint("opcode", uint(protocol.OpcodeIdentity), "opcode to request")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *addr == 0 {
		return fmt.Errorf("request: -addr is required")
	}

	b, err := openBus(cfg)
	if err != nil {
		return err
	}
	defer b.Close()

	ctx, cancel := opCtx(cfg)
	defer cancel()

	controller := endpoint.New(endpoint.RoleController, 0, endpoint.WithLogger(log.Logger))
	if err := controller.Stage(ctx, b, byte(*addr), byte(*opcode)); err != nil {
		return err
	}

	var frame [protocol.MaxFrameSize]byte
	n, err := b.Read(ctx, byte(*addr), frame[:])
	if err != nil {
		return err
	}

	var msg protocol.Message
	if err := controller.DecodeFrame(frame[:n], &msg); err != nil {
		return err
	}

	fmt.Printf("reply from 0x%02X: type_id=%d opcode=0x%02X payload=%s\n",
		*addr, msg.TypeID, msg.Opcode, formatPayload(msg.Payload()))
	return nil
}

func runInitConfig(args []string) error {
	fs := flag.NewFlagSet("init-config", flag.ExitOnError)
	output := fs.String("output", "crumbsmond.toml", "output path")
	force := fs.Bool("force", false, "overwrite existing file")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := config.WriteTemplate(*output, "monitor", *force); err != nil {
		return err
	}
	fmt.Printf("wrote monitor config template to %s\n", *output)
	return nil
}

func formatPayload(p []byte) string {
	if len(p) == 0 {
		return "(empty)"
	}
	parts := make([]string, len(p))
	for i, b := range p {
		parts[i] = strconv.FormatUint(uint64(b), 16)
		if len(parts[i]) == 1 {
			parts[i] = "0" + parts[i]
		}
	}
	return strings.Join(parts, " ")
}
