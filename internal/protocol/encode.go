package protocol

import "github.com/FEASTorg/crumbs-go/internal/protocol/crc8"

// Encode serializes msg into buf using the CRUMBS wire format and returns
// the number of bytes written. buf must hold at least msg.FrameLen() bytes.
// The function is pure: it touches nothing but buf.
func Encode(msg *Message, buf []byte) (int, error) {
	if msg == nil {
		return 0, ErrNilMessage
	}
	if int(msg.DataLen) > MaxPayload {
		return 0, ErrInvalidLength
	}

	n := msg.FrameLen()
	if len(buf) < n {
		return 0, ErrShortBuffer
	}

	buf[0] = msg.TypeID
	buf[1] = msg.Opcode
	buf[2] = msg.DataLen
	copy(buf[HeaderSize:], msg.Data[:msg.DataLen])
	buf[n-1] = crc8.Checksum(buf[:n-1])

	return n, nil
}
