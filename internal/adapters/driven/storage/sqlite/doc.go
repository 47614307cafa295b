// Package sqlite provides the SQLite implementation of the decision store
// and the processed-archive ledger.
//
// This adapter uses modernc.org/sqlite, a pure Go SQLite implementation that requires
// no CGO. Text search uses an FTS5 external-content table over titre and
// contenu, kept in sync by triggers and ranked with bm25.
//
// # Schema
//
// The database schema is managed through versioned migrations stored in the
// migrations/ directory. Each migration is a pair of .up.sql and .down.sql files.
//
// # Data Location
//
// By default, the database is stored at ~/.cassation/data/cassation.db
//
// # Thread Safety
//
// The store holds a single connection, so statements and transactions from
// concurrent callers are serialised. Upsert reads and writes a row inside
// one transaction, which keeps the version comparison atomic.
package sqlite
