package protocol

import "github.com/FEASTorg/crumbs-go/internal/protocol/crc8"

// Decode parses one frame from buf into msg. It is pure and context-free;
// endpoint.Context wraps it to maintain CRC statistics, and the discovery
// scanner calls it directly to keep probe noise out of those statistics.
//
// The CRC gate runs before any field value is trusted. msg.Address is left
// untouched: the wire carries no address.
func Decode(buf []byte, msg *Message) error {
	if msg == nil {
		return ErrNilMessage
	}
	if len(buf) < MinFrameSize {
		return ErrFrameTooShort
	}

	dataLen := buf[2]
	if int(dataLen) > MaxPayload {
		return ErrInvalidLength
	}

	n := HeaderSize + int(dataLen) + CRCSize
	if len(buf) < n {
		return ErrTruncated
	}

	received := buf[n-1]
	if crc8.Checksum(buf[:n-1]) != received {
		return ErrCRCMismatch
	}

	msg.TypeID = buf[0]
	msg.Opcode = buf[1]
	msg.DataLen = dataLen
	copy(msg.Data[:dataLen], buf[HeaderSize:n-1])
	for i := int(dataLen); i < MaxPayload; i++ {
		msg.Data[i] = 0
	}
	msg.CRC = received

	return nil
}
