package bustest

import "context"

// Peer is the peripheral-side surface a Loopback drives. It matches
// endpoint.Context; an interface here keeps bustest import-free of the
// engine so the engine's own tests can use it.
type Peer interface {
	HandleReceive(frame []byte) error
	BuildReply(buf []byte) (int, error)
}

// Loopback connects a controller to one peripheral endpoint with no wire in
// between: writes become HandleReceive calls, reads become BuildReply calls.
type Loopback struct {
	addr byte
	peer Peer
}

// NewLoopback binds peer to addr. Any other address NACKs.
func NewLoopback(addr byte, peer Peer) *Loopback {
	return &Loopback{addr: addr, peer: peer}
}

func (l *Loopback) Write(ctx context.Context, addr byte, frame []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if addr != l.addr {
		return ErrNack
	}
	return l.peer.HandleReceive(frame)
}

func (l *Loopback) Read(ctx context.Context, addr byte, buf []byte) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if addr != l.addr {
		return 0, nil
	}
	return l.peer.BuildReply(buf)
}
