// Package endpoint owns per-participant protocol state and the receive
// pipeline.
//
// Ownership boundary:
// - role-checked Context (address, CRC statistics, staging state)
// - bounded opcode handler registry and dispatch
// - controller send and peripheral receive/reply operations
//
// A Context is not safe for concurrent use; callers that share one across
// goroutines must serialize access themselves. Nothing here allocates on
// the encode/decode path and nothing here blocks: all waiting lives in the
// injected bus transport.
package endpoint
