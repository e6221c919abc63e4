// Package sqlite provides a SQLite-backed implementation of the storage ports.
//
// This adapter uses modernc.org/sqlite, a pure Go SQLite implementation that requires
// no CGO. Documents, chunks and vector records share one database so that
// SaveDocument and DeleteDocument can run as single transactions.
//
// # Schema
//
// The schema is managed through versioned migrations stored in the
// migrations/ directory. Each migration is a pair of .up.sql and .down.sql files.
//
// # Data Location
//
// By default, the database is stored at ~/.ragchat/data/ragchat.db
//
// # Thread Safety
//
// All operations are thread-safe. The store relies on SQLite locking in WAL mode.
package sqlite
