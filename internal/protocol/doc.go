// Package protocol owns the CRUMBS wire contract and parsing primitives.
//
// Ownership boundary:
// - message model and frame sizing constants
// - frame encode/decode with the CRC-8 integrity gate
// - bounds-checked payload builder/reader helpers
// - reserved-opcode classification at the dispatch boundary
package protocol
