// Package kvstore provides the key-value blob stores that back the contact
// ledger.
//
// Three implementations share the Store interface:
//
//   - Memory: process-local map, used by tests and the simulated CLI mode.
//   - FileStore: one file per key under a directory, written atomically via
//     a temp file and rename.
//   - SQLiteStore: a single-table SQLite database (github.com/mattn/go-sqlite3).
//
// Get returns ErrNotFound for a missing key. Stores are safe for concurrent
// use.
package kvstore
