//go:build !linux

package i2cdev

import (
	"context"
	"errors"
)

var errUnsupported = errors.New("i2cdev: /dev/i2c devices require linux")

// Bus is unavailable on this platform; Open always fails.
type Bus struct{}

func Open(device string) (*Bus, error) { return nil, errUnsupported }

func (b *Bus) Close() error { return errUnsupported }

func (b *Bus) Device() string { return "" }

func (b *Bus) Write(ctx context.Context, addr byte, frame []byte) error {
	return errUnsupported
}

func (b *Bus) Read(ctx context.Context, addr byte, buf []byte) (int, error) {
	return 0, errUnsupported
}
