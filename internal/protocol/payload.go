package protocol

import (
	"encoding/binary"
	"math"
)

// Payload builder. Integers are little-endian; float32 is the IEEE-754 bit
// pattern in little-endian byte order, which is byte-identical to the
// original wire layout on every deployed target. Every append is bounds
// checked against MaxPayload and fails with ErrPayloadOverflow instead of
// silently truncating.

// AddU8 appends one byte to the payload.
func (m *Message) AddU8(v uint8) error {
	if int(m.DataLen)+1 > MaxPayload {
		return ErrPayloadOverflow
	}
	m.Data[m.DataLen] = v
	m.DataLen++
	return nil
}

// AddU16 appends a little-endian uint16.
func (m *Message) AddU16(v uint16) error {
	if int(m.DataLen)+2 > MaxPayload {
		return ErrPayloadOverflow
	}
	binary.LittleEndian.PutUint16(m.Data[m.DataLen:], v)
	m.DataLen += 2
	return nil
}

// AddU32 appends a little-endian uint32.
func (m *Message) AddU32(v uint32) error {
	if int(m.DataLen)+4 > MaxPayload {
		return ErrPayloadOverflow
	}
	binary.LittleEndian.PutUint32(m.Data[m.DataLen:], v)
	m.DataLen += 4
	return nil
}

// AddI8 appends a signed byte.
func (m *Message) AddI8(v int8) error {
	return m.AddU8(uint8(v))
}

// AddI16 appends a little-endian int16.
func (m *Message) AddI16(v int16) error {
	return m.AddU16(uint16(v))
}

// AddI32 appends a little-endian int32.
func (m *Message) AddI32(v int32) error {
	return m.AddU32(uint32(v))
}

// AddFloat32 appends an IEEE-754 float32.
func (m *Message) AddFloat32(v float32) error {
	return m.AddU32(math.Float32bits(v))
}

// AddBytes appends raw bytes.
func (m *Message) AddBytes(p []byte) error {
	if int(m.DataLen)+len(p) > MaxPayload {
		return ErrPayloadOverflow
	}
	copy(m.Data[m.DataLen:], p)
	m.DataLen += uint8(len(p))
	return nil
}

// Payload readers operate on the raw byte slice handlers receive, so a
// handler can pick fields out of its payload without copying it into a
// Message first. Every read is bounds checked and fails with ErrOutOfBounds.

// ReadU8 reads one byte at off.
func ReadU8(data []byte, off int) (uint8, error) {
	if off < 0 || off >= len(data) {
		return 0, ErrOutOfBounds
	}
	return data[off], nil
}

// ReadU16 reads a little-endian uint16 at off.
func ReadU16(data []byte, off int) (uint16, error) {
	if off < 0 || off+2 > len(data) {
		return 0, ErrOutOfBounds
	}
	return binary.LittleEndian.Uint16(data[off:]), nil
}

// ReadU32 reads a little-endian uint32 at off.
func ReadU32(data []byte, off int) (uint32, error) {
	if off < 0 || off+4 > len(data) {
		return 0, ErrOutOfBounds
	}
	return binary.LittleEndian.Uint32(data[off:]), nil
}

// ReadI8 reads a signed byte at off.
func ReadI8(data []byte, off int) (int8, error) {
	v, err := ReadU8(data, off)
	return int8(v), err
}

// ReadI16 reads a little-endian int16 at off.
func ReadI16(data []byte, off int) (int16, error) {
	v, err := ReadU16(data, off)
	return int16(v), err
}

// ReadI32 reads a little-endian int32 at off.
func ReadI32(data []byte, off int) (int32, error) {
	v, err := ReadU32(data, off)
	return int32(v), err
}

// ReadFloat32 reads an IEEE-754 float32 at off.
func ReadFloat32(data []byte, off int) (float32, error) {
	v, err := ReadU32(data, off)
	if err != nil {
		return 0, err
	}
	return math.Float32frombits(v), nil
}

// ReadBytes copies count bytes starting at off into a fresh slice.
func ReadBytes(data []byte, off, count int) ([]byte, error) {
	if off < 0 || count < 0 || off+count > len(data) {
		return nil, ErrOutOfBounds
	}
	out := make([]byte, count)
	copy(out, data[off:off+count])
	return out, nil
}
