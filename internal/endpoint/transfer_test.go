package endpoint

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/FEASTorg/crumbs-go/internal/bus/bustest"
	"github.com/FEASTorg/crumbs-go/internal/protocol"
)

func encodeFrame(t *testing.T, msg *protocol.Message) []byte {
	t.Helper()
	var buf [protocol.MaxFrameSize]byte
	n, err := protocol.Encode(msg, buf[:])
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	return append([]byte(nil), buf[:n]...)
}

func TestSendWrongRole(t *testing.T) {
	p := New(RolePeripheral, 0x10)
	msg := protocol.NewMessage(1, 2)
	err := p.Send(context.Background(), bustest.NewScript(), 0x20, &msg)
	if !errors.Is(err, ErrWrongRole) {
		t.Fatalf("expected ErrWrongRole, got %v", err)
	}
}

func TestSendNilArguments(t *testing.T) {
	c := New(RoleController, 0)
	msg := protocol.NewMessage(1, 2)
	if err := c.Send(context.Background(), nil, 0x20, &msg); !errors.Is(err, ErrNilArgument) {
		t.Fatalf("nil writer: %v", err)
	}
	if err := c.Send(context.Background(), bustest.NewScript(), 0x20, nil); !errors.Is(err, ErrNilArgument) {
		t.Fatalf("nil message: %v", err)
	}
}

func TestSendWritesEncodedFrame(t *testing.T) {
	c := New(RoleController, 0)
	script := bustest.NewScript()
	script.Ack(0x20)

	msg := protocol.NewMessage(0x01, 0x02)
	_ = msg.AddU8(0x05)
	if err := c.Send(context.Background(), script, 0x20, &msg); err != nil {
		t.Fatalf("send: %v", err)
	}

	writes := script.Writes()
	if len(writes) != 1 || writes[0].Addr != 0x20 {
		t.Fatalf("writes: %+v", writes)
	}
	if !bytes.Equal(writes[0].Frame, []byte{0x01, 0x02, 0x01, 0x05, 0xCE}) {
		t.Fatalf("frame % X", writes[0].Frame)
	}
}

func TestSendRelaysTransportError(t *testing.T) {
	c := New(RoleController, 0)
	script := bustest.NewScript() // nothing ACKs
	msg := protocol.NewMessage(1, 2)
	if err := c.Send(context.Background(), script, 0x20, &msg); !errors.Is(err, bustest.ErrNack) {
		t.Fatalf("expected transport error to pass through, got %v", err)
	}
}

func TestHandleReceiveWrongRole(t *testing.T) {
	c := New(RoleController, 0)
	if err := c.HandleReceive([]byte{0, 0, 0, 0}); !errors.Is(err, ErrWrongRole) {
		t.Fatalf("expected ErrWrongRole, got %v", err)
	}
}

func TestDispatchIsolation(t *testing.T) {
	p := New(RolePeripheral, 0x10)

	handlerCalls := 0
	for _, op := range []byte{1, 2, 3} {
		if err := p.RegisterHandler(op, func(*Context, byte, []byte, any) {
			handlerCalls++
		}, nil); err != nil {
			t.Fatalf("register 0x%02X: %v", op, err)
		}
	}

	messageCalls := 0
	p.SetCallbacks(func(*Context, *protocol.Message) { messageCalls++ }, nil, nil)

	msg := protocol.NewMessage(0x01, 0x05)
	if err := p.HandleReceive(encodeFrame(t, &msg)); err != nil {
		t.Fatalf("receive: %v", err)
	}
	if handlerCalls != 0 {
		t.Fatalf("unregistered opcode reached a handler")
	}
	if messageCalls != 1 {
		t.Fatalf("general callback calls = %d, want 1", messageCalls)
	}
}

func TestDispatchOrderAndPayload(t *testing.T) {
	p := New(RolePeripheral, 0x10)

	var order []string
	p.SetCallbacks(func(_ *Context, msg *protocol.Message) {
		order = append(order, "on_message")
		if msg.Address != 0x10 {
			t.Fatalf("callback message address = 0x%02X, want endpoint address", msg.Address)
		}
	}, nil, nil)

	if err := p.RegisterHandler(0x07, func(_ *Context, opcode byte, data []byte, userData any) {
		order = append(order, "handler")
		if opcode != 0x07 {
			t.Fatalf("handler opcode = 0x%02X", opcode)
		}
		if !bytes.Equal(data, []byte{0xAA, 0xBB}) {
			t.Fatalf("handler payload % X", data)
		}
		if userData != "ud" {
			t.Fatalf("handler user data = %v", userData)
		}
	}, "ud"); err != nil {
		t.Fatalf("register: %v", err)
	}

	msg := protocol.NewMessage(0x01, 0x07)
	_ = msg.AddBytes([]byte{0xAA, 0xBB})
	if err := p.HandleReceive(encodeFrame(t, &msg)); err != nil {
		t.Fatalf("receive: %v", err)
	}

	if len(order) != 2 || order[0] != "on_message" || order[1] != "handler" {
		t.Fatalf("dispatch order: %v", order)
	}
}

func TestStagingInterceptedBeforeCallbacks(t *testing.T) {
	p := New(RolePeripheral, 0x10)

	messageCalls, handlerCalls := 0, 0
	p.SetCallbacks(func(*Context, *protocol.Message) { messageCalls++ }, nil, nil)
	_ = p.RegisterHandler(protocol.OpcodeSetReply, func(*Context, byte, []byte, any) {
		handlerCalls++
	}, nil)

	stage := protocol.NewMessage(0x01, protocol.OpcodeSetReply)
	_ = stage.AddU8(0x10)
	if err := p.HandleReceive(encodeFrame(t, &stage)); err != nil {
		t.Fatalf("receive staging: %v", err)
	}

	if p.RequestedOpcode() != 0x10 {
		t.Fatalf("requested opcode = 0x%02X, want 0x10", p.RequestedOpcode())
	}
	if messageCalls != 0 || handlerCalls != 0 {
		t.Fatalf("staging frame leaked: on_message=%d handler=%d", messageCalls, handlerCalls)
	}
}

func TestEmptyStagingIsNoOp(t *testing.T) {
	p := New(RolePeripheral, 0x10)

	stage := protocol.NewMessage(0x01, protocol.OpcodeSetReply)
	_ = stage.AddU8(0x33)
	if err := p.HandleReceive(encodeFrame(t, &stage)); err != nil {
		t.Fatalf("stage 0x33: %v", err)
	}

	empty := protocol.NewMessage(0x01, protocol.OpcodeSetReply)
	if err := p.HandleReceive(encodeFrame(t, &empty)); err != nil {
		t.Fatalf("empty staging frame errored: %v", err)
	}
	if p.RequestedOpcode() != 0x33 {
		t.Fatalf("empty staging frame changed state: 0x%02X", p.RequestedOpcode())
	}
}

func TestStagingPersistsAcrossReads(t *testing.T) {
	p := New(RolePeripheral, 0x10)
	p.SetCallbacks(nil, func(c *Context, reply *protocol.Message) {
		reply.Reset(0x01, c.RequestedOpcode())
	}, nil)

	stage := protocol.NewMessage(0x01, protocol.OpcodeSetReply)
	_ = stage.AddU8(0x10)
	if err := p.HandleReceive(encodeFrame(t, &stage)); err != nil {
		t.Fatalf("stage: %v", err)
	}

	// Two independent read requests both observe the staged opcode.
	for i := 0; i < 2; i++ {
		var buf [protocol.MaxFrameSize]byte
		n, err := p.BuildReply(buf[:])
		if err != nil {
			t.Fatalf("read %d: %v", i, err)
		}
		var reply protocol.Message
		if err := protocol.Decode(buf[:n], &reply); err != nil {
			t.Fatalf("read %d decode: %v", i, err)
		}
		if reply.Opcode != 0x10 {
			t.Fatalf("read %d reply opcode = 0x%02X, want 0x10", i, reply.Opcode)
		}
	}
}

func TestBuildReplyWithoutCallback(t *testing.T) {
	p := New(RolePeripheral, 0x10)
	var buf [protocol.MaxFrameSize]byte
	n, err := p.BuildReply(buf[:])
	if err != nil || n != 0 {
		t.Fatalf("no callback: n=%d err=%v", n, err)
	}
}

func TestBuildReplyWrongRole(t *testing.T) {
	c := New(RoleController, 0)
	var buf [protocol.MaxFrameSize]byte
	if _, err := c.BuildReply(buf[:]); !errors.Is(err, ErrWrongRole) {
		t.Fatalf("expected ErrWrongRole, got %v", err)
	}
}

func TestBuildReplyEmptyMessage(t *testing.T) {
	p := New(RolePeripheral, 0x10)
	p.SetCallbacks(nil, func(*Context, *protocol.Message) {}, nil)

	var buf [protocol.MaxFrameSize]byte
	n, err := p.BuildReply(buf[:])
	if err != nil {
		t.Fatalf("reply: %v", err)
	}
	if n != protocol.MinFrameSize {
		t.Fatalf("empty reply length = %d, want %d", n, protocol.MinFrameSize)
	}
}

func TestReceiveCRCFailureCounted(t *testing.T) {
	p := New(RolePeripheral, 0x10)
	messageCalls := 0
	p.SetCallbacks(func(*Context, *protocol.Message) { messageCalls++ }, nil, nil)

	msg := protocol.NewMessage(1, 2)
	frame := encodeFrame(t, &msg)
	frame[1] ^= 0x80

	if err := p.HandleReceive(frame); !errors.Is(err, protocol.ErrCRCMismatch) {
		t.Fatalf("expected ErrCRCMismatch, got %v", err)
	}
	if messageCalls != 0 {
		t.Fatalf("corrupt frame reached the callback")
	}
	if p.CRCErrorCount() != 1 || p.LastCRCOK() {
		t.Fatalf("stats: count=%d ok=%v", p.CRCErrorCount(), p.LastCRCOK())
	}
}

func TestControllerPeripheralLoopback(t *testing.T) {
	peripheral := New(RolePeripheral, 0x20)
	peripheral.SetCallbacks(nil, func(c *Context, reply *protocol.Message) {
		reply.Reset(0x05, c.RequestedOpcode())
		_ = reply.AddU16(0x1234)
	}, nil)

	var seen []byte
	_ = peripheral.RegisterHandler(0x02, func(_ *Context, _ byte, data []byte, _ any) {
		seen = append([]byte(nil), data...)
	}, nil)

	controller := New(RoleController, 0)
	link := bustest.NewLoopback(0x20, peripheral)
	ctx := context.Background()

	// Command phase.
	cmd := protocol.NewMessage(0x05, 0x02)
	_ = cmd.AddU8(0x7F)
	if err := controller.Send(ctx, link, 0x20, &cmd); err != nil {
		t.Fatalf("send: %v", err)
	}
	if !bytes.Equal(seen, []byte{0x7F}) {
		t.Fatalf("handler saw % X", seen)
	}

	// Query-then-read phase.
	if err := controller.Stage(ctx, link, 0x20, 0x11); err != nil {
		t.Fatalf("stage: %v", err)
	}
	var buf [protocol.MaxFrameSize]byte
	n, err := link.Read(ctx, 0x20, buf[:])
	if err != nil {
		t.Fatalf("read: %v", err)
	}

	var reply protocol.Message
	if err := controller.DecodeFrame(buf[:n], &reply); err != nil {
		t.Fatalf("decode reply: %v", err)
	}
	if !controller.LastCRCOK() {
		t.Fatalf("controller crc flag not set")
	}
	if reply.Opcode != 0x11 || reply.TypeID != 0x05 {
		t.Fatalf("reply header: %+v", reply)
	}
	if v, err := protocol.ReadU16(reply.Payload(), 0); err != nil || v != 0x1234 {
		t.Fatalf("reply payload: %d, %v", v, err)
	}
}
