// Package ir provides the content-addressed identity types and the value
// model shared by the compiler, the memory store and the runtime bridge.
//
// This package contains type definitions and pure functions only. All other
// internal packages import ir; ir imports nothing internal.
//
// Key design constraints:
//   - The four identity domains (concept, fact, episode, context) are
//     distinct nominal types even though each wraps a 32-byte SHA-256 digest
//   - Hashes serialize as 64-character lowercase hex; decoding rejects any
//     value that is not exactly 32 bytes
//   - All JSON tags use snake_case
//   - Canonical JSON (RFC 8785 style) is the only serialization used when a
//     value must be hashed or persisted byte-for-byte
package ir
