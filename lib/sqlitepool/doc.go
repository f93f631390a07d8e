// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package sqlitepool provides a SQLite connection pool with standard
// pragmas, wrapping zombiezen.com/go/sqlite.
//
// The pool is built on zombiezen's sqlitex.Pool, which manages a
// fixed-size set of connections. Callers [Pool.Take] a connection,
// perform work, and [Pool.Put] it back. Connections are NOT safe for
// concurrent use; each goroutine must hold its own connection for the
// duration of its work.
//
// # Pragmas
//
// Writable pools initialize every connection with:
//
//   - journal_mode=WAL: readers never block the single writer.
//   - synchronous=NORMAL: transactions survive process crashes.
//   - busy_timeout=5000: wait up to 5 seconds for a write lock.
//   - foreign_keys=OFF
//   - cache_size=-8192: 8 MB page cache per connection.
//   - mmap_size=268435456: 256 MB memory-mapped I/O for reads.
//   - temp_store=MEMORY
//
// Read-only pools ([Config.ReadOnly]) open with SQLITE_OPEN_READONLY,
// set query_only, and leave the journal mode alone, since changing it
// would need a write. The table-blob backend opens databases extracted
// from lower layers this way.
//
// # Usage
//
//	pool, err := sqlitepool.Open(sqlitepool.Config{
//	    Path:     extractedPath,
//	    ReadOnly: true,
//	    PoolSize: 4,
//	    Logger:   logger,
//	})
//	if err != nil {
//	    return err
//	}
//	defer pool.Close()
//
//	conn, err := pool.Take(ctx)
//	if err != nil {
//	    return err
//	}
//	defer pool.Put(conn)
//
// There is no query builder: callers write SQL and use sqlitex.Execute
// for cached statements.
package sqlitepool
