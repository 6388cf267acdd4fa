package protocol

import "errors"

var (
	ErrFrameTooShort   = errors.New("protocol: frame shorter than minimum")
	ErrInvalidLength   = errors.New("protocol: declared payload length out of range")
	ErrTruncated       = errors.New("protocol: frame truncated below declared length")
	ErrCRCMismatch     = errors.New("protocol: crc mismatch")
	ErrShortBuffer     = errors.New("protocol: destination buffer too small")
	ErrNilMessage      = errors.New("protocol: nil message")
	ErrPayloadOverflow = errors.New("protocol: payload overflow")
	ErrOutOfBounds     = errors.New("protocol: payload read out of bounds")
)
