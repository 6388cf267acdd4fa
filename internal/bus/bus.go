// Package bus defines the transport boundary the protocol engine is built
// against. Implementations own all blocking, timing and retry behavior; the
// engine passes deadlines through as context values and never retries.
package bus

import "context"

// Writer performs one complete bus write transaction (start + address +
// data + stop, or the platform equivalent). Errors are relayed to callers
// unmodified.
type Writer interface {
	Write(ctx context.Context, addr byte, frame []byte) error
}

// Reader performs one read attempt against addr. It may return fewer bytes
// than buf holds; n reports how many are valid. A deadline on ctx is the
// timeout hint.
type Reader interface {
	Read(ctx context.Context, addr byte, buf []byte) (n int, err error)
}

// ReadWriter is the full transport surface the controller-side operations
// (send, request, scan) need.
type ReadWriter interface {
	Writer
	Reader
}
