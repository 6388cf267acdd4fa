//go:build linux

// Package i2cdev adapts a Linux /dev/i2c-N character device to the bus
// interfaces. One Bus owns one file descriptor; the kernel serializes the
// actual transfers, this package serializes the address selection around
// them.
package i2cdev

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sys/unix"
)

// I2C_SLAVE from <linux/i2c-dev.h>.
const ioctlSlave = 0x0703

// Bus is an open I²C adapter device.
type Bus struct {
	mu      sync.Mutex
	fd      int
	device  string
	current int // last address selected via ioctl, -1 when none
}

// Open opens an adapter device such as "/dev/i2c-1".
func Open(device string) (*Bus, error) {
	fd, err := unix.Open(device, unix.O_RDWR, 0)
	if err != nil {
		return nil, fmt.Errorf("i2cdev: open %s: %w", device, err)
	}
	return &Bus{fd: fd, device: device, current: -1}, nil
}

// Close releases the device.
func (b *Bus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.fd < 0 {
		return nil
	}
	err := unix.Close(b.fd)
	b.fd = -1
	if err != nil {
		return fmt.Errorf("i2cdev: close %s: %w", b.device, err)
	}
	return nil
}

// Device reports the path the bus was opened with.
func (b *Bus) Device() string {
	return b.device
}

func (b *Bus) selectAddr(addr byte) error {
	if b.current == int(addr) {
		return nil
	}
	if err := unix.IoctlSetInt(b.fd, ioctlSlave, int(addr)); err != nil {
		return fmt.Errorf("i2cdev: select 0x%02X on %s: %w", addr, b.device, err)
	}
	b.current = int(addr)
	return nil
}

// Write performs one write transaction to addr.
func (b *Bus) Write(ctx context.Context, addr byte, frame []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.selectAddr(addr); err != nil {
		return err
	}

	n, err := unix.Write(b.fd, frame)
	if err != nil {
		return fmt.Errorf("i2cdev: write 0x%02X: %w", addr, err)
	}
	if n != len(frame) {
		return fmt.Errorf("i2cdev: short write to 0x%02X: %d of %d bytes", addr, n, len(frame))
	}
	return nil
}

// Read performs one read attempt from addr.
func (b *Bus) Read(ctx context.Context, addr byte, buf []byte) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.selectAddr(addr); err != nil {
		return 0, err
	}

	n, err := unix.Read(b.fd, buf)
	if err != nil {
		return 0, fmt.Errorf("i2cdev: read 0x%02X: %w", addr, err)
	}
	return n, nil
}
