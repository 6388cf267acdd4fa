// Package bustest provides in-memory bus implementations for tests and
// examples: a Script that plays canned per-address responses, and a Loopback
// that wires a controller directly to a peripheral endpoint.
package bustest

import (
	"context"
	"errors"
	"sync"
)

// ErrNack models an unacknowledged address: nothing at that address took
// the transaction.
var ErrNack = errors.New("bustest: address nack")

// WriteRecord is one observed write transaction.
type WriteRecord struct {
	Addr  byte
	Frame []byte
}

// Script is a scripted bus. Addresses respond with whatever frames the test
// installed; everything else NACKs writes and returns zero bytes on read.
type Script struct {
	mu      sync.Mutex
	replies map[byte][]byte
	acked   map[byte]bool
	readErr map[byte]error
	writes  []WriteRecord
}

// NewScript returns an empty script; every address is silent.
func NewScript() *Script {
	return &Script{
		replies: make(map[byte][]byte),
		acked:   make(map[byte]bool),
		readErr: make(map[byte]error),
	}
}

// Respond installs the bytes addr returns on every read, and marks the
// address as acknowledging writes. The data need not be a valid frame;
// garbage is how non-protocol devices are scripted.
func (s *Script) Respond(addr byte, data []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.replies[addr] = append([]byte(nil), data...)
	s.acked[addr] = true
}

// Ack marks addr as acknowledging writes without returning read data.
func (s *Script) Ack(addr byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.acked[addr] = true
}

// FailRead makes every read from addr return err.
func (s *Script) FailRead(addr byte, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.readErr[addr] = err
}

// Writes returns all observed write transactions in order.
func (s *Script) Writes() []WriteRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]WriteRecord, len(s.writes))
	copy(out, s.writes)
	return out
}

// Write records the transaction and ACKs or NACKs per the script.
func (s *Script) Write(ctx context.Context, addr byte, frame []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.writes = append(s.writes, WriteRecord{Addr: addr, Frame: append([]byte(nil), frame...)})
	if !s.acked[addr] {
		return ErrNack
	}
	return nil
}

// Read copies the scripted response for addr, or returns zero bytes for
// silent addresses.
func (s *Script) Read(ctx context.Context, addr byte, buf []byte) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.readErr[addr]; err != nil {
		return 0, err
	}
	data, ok := s.replies[addr]
	if !ok {
		return 0, nil
	}
	return copy(buf, data), nil
}
