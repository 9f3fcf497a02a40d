// Package kvstore provides versioned, indexed key-value tables on SQLite.
//
// Each logical table holds JSON records addressed by a key stored in one of
// the record's fields (the key path). Tables are declared up front in a
// Schema together with their secondary indexes:
//
//	kvstore.Schema{
//		Version: 3,
//		Tables: []kvstore.TableSchema{{
//			Name:          "invoices",
//			KeyPath:       "id",
//			AutoIncrement: true,
//			Indexes:       []kvstore.IndexSchema{{Name: "isDraft", Fields: []string{"isDraft"}}},
//		}},
//	}
//
// # Storage Layout
//
//   - One SQL table per logical table: kv_<name>(key, value)
//   - value is the record's JSON encoding, key included
//   - Indexes are expression indexes over json_extract(value, '$.<field>')
//   - Auto-increment tables use INTEGER PRIMARY KEY AUTOINCREMENT, so
//     allocated keys strictly increase and are never reused
//
// # Versioning
//
// The on-disk schema version is PRAGMA user_version. Opening with a higher
// declared version runs a single upgrade transaction that creates missing
// tables and indexes, then applies every Migration whose Version lies in
// (old, new] in ascending order. Opening with a lower declared version fails.
//
// # Concurrency
//
// A DB holds exactly one connection. Every public Table method runs as its
// own transaction against a single table; there is no way to span a
// transaction across calls. OpenAsync returns before the database is ready;
// operations issued in the meantime wait, and all of them fail with the same
// *OpenError if opening fails.
package kvstore
