// Package storage defines the persistence boundary for the focus economy.
//
// It abstracts the durable records the engine mutates — profiles, tasks, and
// the append-only focus session log — behind interfaces. The engine requires
// that the three writes produced by one settlement (profile update, task
// status update, session insert) are applied as a single atomic unit; see
// SettlementStore. Implementations live in subpackages (e.g. sqlite).
//
// # Error Types
//
//   - ErrNotFound: a requested record is missing.
//   - ErrConflict: a write conflicts with current record state.
package storage
