package endpoint

import (
	"context"

	"github.com/FEASTorg/crumbs-go/internal/bus"
	"github.com/FEASTorg/crumbs-go/internal/protocol"
)

// Send encodes msg and writes it to target in one bus transaction.
// Controller role only. Transport errors pass through unmodified; the
// engine never retries.
func (c *Context) Send(ctx context.Context, w bus.Writer, target byte, msg *protocol.Message) error {
	if c.role != RoleController {
		return ErrWrongRole
	}
	if w == nil || msg == nil {
		return ErrNilArgument
	}

	var frame [protocol.MaxFrameSize]byte
	n, err := protocol.Encode(msg, frame[:])
	if err != nil {
		return err
	}

	c.log.Debug().
		Uint8("target", target).
		Uint8("opcode", msg.Opcode).
		Int("frame_len", n).
		Msg("send")

	return w.Write(ctx, target, frame[:n])
}

// Stage sends a reply-staging frame telling the peripheral at target which
// opcode to prepare. The next read from that peripheral observes the staged
// reply. Controller role only.
func (c *Context) Stage(ctx context.Context, w bus.Writer, target byte, opcode byte) error {
	msg := protocol.NewMessage(0, protocol.OpcodeSetReply)
	if err := msg.AddU8(opcode); err != nil {
		return err
	}
	return c.Send(ctx, w, target, &msg)
}

// HandleReceive is the peripheral entry point for raw bytes delivered by
// the transport. For one frame the sequence is fixed: decode (updating CRC
// statistics), staging intercept, general callback, opcode dispatch.
// Staging frames never reach the callback or any handler.
func (c *Context) HandleReceive(frame []byte) error {
	if c.role != RolePeripheral {
		return ErrWrongRole
	}

	var msg protocol.Message
	if err := c.DecodeFrame(frame, &msg); err != nil {
		return err
	}
	msg.Address = c.address

	switch in := protocol.ClassifyInbound(&msg).(type) {
	case protocol.StagingRequest:
		// An empty staging frame is a defined no-op.
		if in.HasTarget {
			c.requestedOpcode = in.Target
			c.log.Debug().Uint8("opcode", in.Target).Msg("reply staged")
		}

	case protocol.ApplicationMessage:
		if c.onMessage != nil {
			c.onMessage(c, in.Msg)
		}
		if fn, userData, ok := c.handlerFor(in.Msg.Opcode); ok {
			fn(c, in.Msg.Opcode, in.Msg.Payload(), userData)
		}
	}
	return nil
}

// BuildReply encodes the application's reply into buf on a peripheral read
// request and returns its length. With no request callback configured there
// is nothing to send and the result is (0, nil). The callback receives a
// zeroed message; it typically switches on RequestedOpcode to decide what
// to populate.
func (c *Context) BuildReply(buf []byte) (int, error) {
	if c.role != RolePeripheral {
		return 0, ErrWrongRole
	}
	if c.onRequest == nil {
		return 0, nil
	}

	var reply protocol.Message
	c.onRequest(c, &reply)

	n, err := protocol.Encode(&reply, buf)
	if err != nil {
		return 0, err
	}
	c.log.Debug().
		Uint8("opcode", reply.Opcode).
		Int("frame_len", n).
		Msg("reply built")
	return n, nil
}
