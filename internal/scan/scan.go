// Package scan discovers which bus addresses speak the CRUMBS protocol.
// Probes decode through the pure codec path, so a scan never disturbs any
// endpoint's CRC statistics.
package scan

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/FEASTorg/crumbs-go/internal/bus"
	"github.com/FEASTorg/crumbs-go/internal/protocol"
)

// Standard 7-bit I²C address range, excluding the reserved blocks at both
// ends.
const (
	DefaultStart byte = 0x08
	DefaultEnd   byte = 0x77
)

var ErrInvalidRange = errors.New("scan: invalid address range")

// Options selects the address range and probing behavior.
type Options struct {
	// Start and End bound the inclusive address range. Both zero means the
	// standard range.
	Start byte
	End   byte

	// Strict disables the probe write: only devices answering a bare read
	// are counted, which avoids perturbing devices that might react badly
	// to an unsolicited write.
	Strict bool

	// MaxFound stops the scan early once that many devices are collected.
	// Zero means no limit.
	MaxFound int

	// ProbeTimeout bounds each transport operation as a per-call deadline.
	// Zero means the caller's context deadline applies alone.
	ProbeTimeout time.Duration

	// Logger for per-address diagnostics; the zero Options scans silently.
	Logger zerolog.Logger
}

// Result is one discovered protocol speaker.
type Result struct {
	Address byte
	TypeID  byte
}

// Scan walks the address range probing for valid frames. Transport failures
// on individual addresses are treated as "nothing there" and do not abort
// the scan; only context cancellation does.
func Scan(ctx context.Context, rw bus.ReadWriter, opts Options) ([]Result, error) {
	if rw == nil {
		return nil, errors.New("scan: nil transport")
	}
	if opts.Start == 0 && opts.End == 0 {
		opts.Start, opts.End = DefaultStart, DefaultEnd
	}
	if opts.End < opts.Start {
		return nil, ErrInvalidRange
	}

	// The probe is the minimum legal frame: an all-zero empty message.
	// Opcode zero is the identity convention, so at worst it nudges a real
	// peripheral into staging its identity reply.
	var probe [protocol.MinFrameSize]byte
	if _, err := protocol.Encode(&protocol.Message{}, probe[:]); err != nil {
		return nil, err
	}

	found := make([]Result, 0, 8)
	for addr := int(opts.Start); addr <= int(opts.End); addr++ {
		if err := ctx.Err(); err != nil {
			return found, err
		}

		res, ok := tryRead(ctx, rw, byte(addr), opts.ProbeTimeout)
		if !ok && !opts.Strict {
			// A NACK on the probe write is expected for empty addresses
			// and not fatal.
			_ = write(ctx, rw, byte(addr), probe[:], opts.ProbeTimeout)
			res, ok = tryRead(ctx, rw, byte(addr), opts.ProbeTimeout)
		}
		if !ok {
			continue
		}

		opts.Logger.Debug().
			Uint8("addr", res.Address).
			Uint8("type_id", res.TypeID).
			Msg("device found")
		found = append(found, res)
		if opts.MaxFound > 0 && len(found) >= opts.MaxFound {
			break
		}
	}
	return found, nil
}

func write(ctx context.Context, w bus.Writer, addr byte, frame []byte, timeout time.Duration) error {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	return w.Write(ctx, addr, frame)
}

func tryRead(ctx context.Context, r bus.Reader, addr byte, timeout time.Duration) (Result, bool) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	var frame [protocol.MaxFrameSize]byte
	n, err := r.Read(ctx, addr, frame[:])
	if err != nil || n < protocol.MinFrameSize {
		return Result{}, false
	}

	var msg protocol.Message
	if protocol.Decode(frame[:n], &msg) != nil {
		return Result{}, false
	}
	return Result{Address: addr, TypeID: msg.TypeID}, true
}
