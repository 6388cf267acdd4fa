package protocol

// Wire frame layout, 4-31 bytes total:
//
//	[type_id:1][opcode:1][data_len:1][data:0..27][crc8:1]
//
// The CRC-8 trailer covers type_id through the last payload byte. The logical
// address is never transmitted; routing is the transport's problem.
const (
	// MaxPayload is the largest data_len a frame may declare. The bound
	// exists because a single bus transfer is capped near 32 bytes on the
	// smallest supported targets.
	MaxPayload = 27

	// HeaderSize counts type_id, opcode and data_len.
	HeaderSize = 3

	// CRCSize is the single trailing checksum byte.
	CRCSize = 1

	// MinFrameSize is a zero-payload frame: header plus CRC.
	MinFrameSize = HeaderSize + CRCSize

	// MaxFrameSize is a full-payload frame.
	MaxFrameSize = HeaderSize + MaxPayload + CRCSize
)

const (
	// OpcodeSetReply is reserved by the engine for reply staging. Frames
	// carrying it are intercepted before any application callback runs.
	OpcodeSetReply byte = 0xFE

	// OpcodeIdentity is the conventional "who are you" reply opcode. A
	// freshly initialized endpoint stages it by default.
	OpcodeIdentity byte = 0x00
)

// Message is one CRUMBS protocol unit. The zero value is a valid empty
// message. Payload storage is inline so encode/decode never allocate.
type Message struct {
	// Address is a logical routing hint for the application. It is not
	// serialized and is never populated from wire bytes.
	Address byte

	// TypeID tags the device class. Opaque to the engine.
	TypeID byte

	// Opcode tags the command or query. Opaque to the engine except for
	// OpcodeSetReply.
	Opcode byte

	// DataLen is the number of valid bytes in Data, at most MaxPayload.
	DataLen uint8

	// Data holds the opaque payload.
	Data [MaxPayload]byte

	// CRC is the checksum observed on the last decode. Encode computes its
	// own; caller-supplied values are never trusted.
	CRC byte
}

// NewMessage returns an empty message with the given header fields.
func NewMessage(typeID, opcode byte) Message {
	return Message{TypeID: typeID, Opcode: opcode}
}

// Reset clears the message and sets the header fields, mirroring a fresh
// NewMessage without discarding the storage.
func (m *Message) Reset(typeID, opcode byte) {
	*m = Message{TypeID: typeID, Opcode: opcode}
}

// Payload returns the valid portion of the payload storage. The slice
// aliases the message; it is only valid while the message is.
func (m *Message) Payload() []byte {
	return m.Data[:m.DataLen]
}

// FrameLen reports the serialized size of the message.
func (m *Message) FrameLen() int {
	return HeaderSize + int(m.DataLen) + CRCSize
}
