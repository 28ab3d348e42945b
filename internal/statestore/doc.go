// Package statestore persists runtime state as canonical JSON values keyed
// by string.
//
// Backends:
//   - Memory: process-local map, for tests and one-shot CLI runs
//   - SQLite: durable single-file store (WAL, embedded schema, upsert)
//   - Redis: shared store for several processes, keys under a prefix
//
// Every backend follows the same contract: loading an absent key returns
// found=false and a nil error; only backend failures are errors. Values are
// encoded with ir.MarshalCanonical, so equal values always store equal bytes.
package statestore
