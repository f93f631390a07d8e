// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package sqliteblob is the backend for blobs stored in a SQLite
// table. The parent layer holds a database file; a SQLITE_BLOB node
// names a table and a column, and each row of that column is a file
// entry. Rows are addressed by position ([pathspec.RowIndex]) or by
// the first row matching a condition ([pathspec.RowCondition]).
//
// The parent's bytes are copied to a scratch file under the resolver's
// temp directory and opened read-only through lib/sqlitepool. The
// scratch file is removed when the file system closes.
package sqliteblob

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"regexp"
	"sync"
	"sync/atomic"

	"go.uber.org/multierr"
	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"

	"github.com/bureau-foundation/strata/lib/fserr"
	"github.com/bureau-foundation/strata/lib/pathspec"
	"github.com/bureau-foundation/strata/lib/registry"
	"github.com/bureau-foundation/strata/lib/sqlitepool"
	"github.com/bureau-foundation/strata/lib/vfs"
)

const (
	fieldTable  = "table_name"
	fieldColumn = "column_name"

	// defaultPoolSize keeps scratch databases cheap: they are read by
	// whoever holds entries, rarely by many goroutines at once.
	defaultPoolSize = 2
)

// Type is the SQLITE_BLOB path-spec type. Build specs through
// [NewPathSpec], which also validates the identifiers.
var Type = &pathspec.Type{
	Tag:    "SQLITE_BLOB",
	Parent: pathspec.ParentRequired,
	Fields: []pathspec.FieldSpec{
		{Name: fieldTable, Kind: pathspec.FieldString, Required: true},
		{Name: fieldColumn, Kind: pathspec.FieldString, Required: true},
	},
	Addresses: pathspec.AcceptsRowIndex | pathspec.AcceptsRowCondition,
}

var identifier = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// sqliteMagic opens every SQLite 3 database file.
var sqliteMagic = []byte("SQLite format 3\x00")

// NewPathSpec builds a SQLITE_BLOB spec. Table, column, and condition
// column names are interpolated into SQL, so they must be plain
// identifiers.
func NewPathSpec(attributes pathspec.Attributes, parent *pathspec.PathSpec) (*pathspec.PathSpec, error) {
	spec, err := Type.New(attributes, parent)
	if err != nil {
		return nil, err
	}
	if err := validateIdentifiers(spec); err != nil {
		return nil, err
	}
	return spec, nil
}

func validateIdentifiers(spec *pathspec.PathSpec) error {
	names := []string{spec.StringField(fieldTable), spec.StringField(fieldColumn)}
	if condition, ok := spec.Address().(pathspec.RowCondition); ok {
		names = append(names, condition.Column)
	}
	for _, name := range names {
		if !identifier.MatchString(name) {
			return fserr.Argumentf("SQLITE_BLOB: %q is not a valid SQL identifier", name)
		}
	}
	return nil
}

// Options configures SQLITE_BLOB file systems.
type Options struct {
	// PoolSize is the connection pool size per open database.
	PoolSize int
}

// Register adds SQLITE_BLOB to reg.
func Register(reg *registry.Registry, options Options) error {
	return reg.Register(Type.Tag, NewPathSpec, Constructor(options))
}

// Constructor returns the SQLITE_BLOB file system constructor.
func Constructor(options Options) registry.FileSystemConstructor {
	return func(environment vfs.Environment) vfs.FileSystem {
		poolSize := options.PoolSize
		if poolSize <= 0 {
			poolSize = defaultPoolSize
		}
		return &FileSystem{environment: environment, poolSize: poolSize}
	}
}

// FileSystem is one table column of a database held by the parent
// layer.
type FileSystem struct {
	environment vfs.Environment
	poolSize    int
	state       vfs.State
	spec        *pathspec.PathSpec
	table       string
	column      string

	parent  vfs.FileObject
	scratch string
	pool    *sqlitepool.Pool

	rowsMu          sync.Mutex
	rows            int64
	rowsKnown       bool
	rowCountQueries atomic.Int32
}

// Open extracts the parent database and checks that the table and
// column exist.
func (f *FileSystem) Open(spec *pathspec.PathSpec, _ *vfs.Credentials) (err error) {
	if err := f.state.BeginOpen(); err != nil {
		return err
	}
	if !spec.HasParent() {
		return fserr.Structuralf("SQLITE_BLOB path spec requires a parent")
	}
	if err := validateIdentifiers(spec); err != nil {
		return err
	}
	f.spec = spec.WithoutAddress()
	f.table = spec.StringField(fieldTable)
	f.column = spec.StringField(fieldColumn)

	parent, err := f.environment.Resolver.OpenFileObject(spec.Parent())
	if err != nil {
		return err
	}
	f.parent = parent
	defer func() {
		if err != nil {
			err = multierr.Append(err, f.release())
		}
	}()

	if err := f.extract(); err != nil {
		return err
	}
	pool, err := sqlitepool.Open(sqlitepool.Config{
		Path:     f.scratch,
		ReadOnly: true,
		PoolSize: f.poolSize,
		Logger:   f.environment.Log(),
	})
	if err != nil {
		return fserr.IOf("opening extracted database: %w", err)
	}
	f.pool = pool

	query := fmt.Sprintf("SELECT %s FROM %s LIMIT 0", quote(f.column), quote(f.table))
	if err := f.execute(query, nil, nil); err != nil {
		return fserr.IOf("table %s column %s: %w", f.table, f.column, err)
	}

	f.state.Opened()
	return nil
}

// extract copies the parent object to a scratch file. A database
// written in WAL mode is switched to rollback mode in the copy, since
// a read-only connection cannot create the WAL index.
func (f *FileSystem) extract() error {
	header := make([]byte, 100)
	if _, err := f.parent.ReadAt(header, 0); err != nil {
		return fserr.IOf("reading database header: %w", err)
	}
	if !bytes.HasPrefix(header, sqliteMagic) {
		return fserr.IOf("parent is not a SQLite database")
	}

	scratch, err := os.CreateTemp(f.environment.TempDir, "strata-sqlite-*.db")
	if err != nil {
		return fserr.IOf("creating scratch database: %w", err)
	}
	f.scratch = scratch.Name()

	size := f.parent.Size()
	_, err = io.Copy(scratch, io.NewSectionReader(f.parent, 0, size))
	if err == nil && header[18] == 2 {
		_, err = scratch.WriteAt([]byte{1, 1}, 18)
	}
	err = multierr.Append(err, scratch.Close())
	if err != nil {
		return fserr.IOf("extracting database: %w", err)
	}
	f.environment.Log().Debug("extracted sqlite database", "path", f.scratch, "size", size)
	return nil
}

// release undoes whatever Open acquired.
func (f *FileSystem) release() error {
	var err error
	if f.pool != nil {
		err = multierr.Append(err, f.pool.Close())
	}
	if f.scratch != "" {
		if removeErr := os.Remove(f.scratch); removeErr != nil && !os.IsNotExist(removeErr) {
			err = multierr.Append(err, removeErr)
		}
	}
	if f.parent != nil {
		err = multierr.Append(err, f.parent.Close())
	}
	return err
}

// Close closes the pool, removes the scratch database, and releases
// the parent object.
func (f *FileSystem) Close() error {
	if err := f.state.BeginClose(); err != nil {
		return err
	}
	return f.release()
}

// PathSpec returns the address-free spec.
func (f *FileSystem) PathSpec() *pathspec.PathSpec { return f.spec }

// RootFileEntry returns the virtual table entry.
func (f *FileSystem) RootFileEntry() (vfs.FileEntry, error) {
	return f.FileEntryByPathSpec(f.spec)
}

// FileEntryByPathSpec returns the table entry for an address-free spec
// and a row entry otherwise. A row that does not exist is NotFound.
func (f *FileSystem) FileEntryByPathSpec(spec *pathspec.PathSpec) (vfs.FileEntry, error) {
	if err := f.state.Check(); err != nil {
		return nil, err
	}
	switch address := spec.Address().(type) {
	case nil:
		return &tableEntry{fileSystem: f}, nil
	case pathspec.RowIndex:
		return f.rowEntry(address)
	case pathspec.RowCondition:
		if !identifier.MatchString(address.Column) {
			return nil, fserr.Argumentf("SQLITE_BLOB: %q is not a valid SQL identifier", address.Column)
		}
		return f.rowEntry(address)
	default:
		return nil, fserr.Argumentf("SQLITE_BLOB does not support %T addresses", address)
	}
}

// NumberOfRows returns the row count of the table. It is computed once
// per file system.
func (f *FileSystem) NumberOfRows() (int64, error) {
	if err := f.state.Check(); err != nil {
		return 0, err
	}
	f.rowsMu.Lock()
	defer f.rowsMu.Unlock()
	if f.rowsKnown {
		return f.rows, nil
	}
	f.rowCountQueries.Add(1)
	var rows int64
	query := fmt.Sprintf("SELECT COUNT(*) FROM %s", quote(f.table))
	err := f.execute(query, nil, func(stmt *sqlite.Stmt) error {
		rows = stmt.ColumnInt64(0)
		return nil
	})
	if err != nil {
		return 0, fserr.IOf("counting rows of %s: %w", f.table, err)
	}
	f.rows, f.rowsKnown = rows, true
	return rows, nil
}

// selectRow renders the SELECT for one row and its bind arguments.
func (f *FileSystem) selectRow(expression string, address pathspec.Address) (string, []any) {
	switch address := address.(type) {
	case pathspec.RowIndex:
		return fmt.Sprintf("SELECT %s FROM %s LIMIT 1 OFFSET ?", expression, quote(f.table)), []any{int64(address)}
	case pathspec.RowCondition:
		return fmt.Sprintf("SELECT %s FROM %s WHERE %s %s ? LIMIT 1", expression, quote(f.table), quote(address.Column), address.Operator), []any{address.Value}
	}
	panic(fmt.Sprintf("sqliteblob: unexpected address %T", address))
}

func (f *FileSystem) rowEntry(address pathspec.Address) (vfs.FileEntry, error) {
	if index, ok := address.(pathspec.RowIndex); ok {
		rows, err := f.NumberOfRows()
		if err != nil {
			return nil, err
		}
		if int64(index) >= rows {
			return nil, fserr.NotFound(address.String())
		}
	}

	query, args := f.selectRow("length("+quote(f.column)+")", address)
	found := false
	var size int64
	err := f.execute(query, args, func(stmt *sqlite.Stmt) error {
		found = true
		size = stmt.ColumnInt64(0)
		return nil
	})
	if err != nil {
		return nil, fserr.IOf("looking up %s: %w", address, err)
	}
	if !found {
		return nil, fserr.NotFound(address.String())
	}
	return &rowEntry{fileSystem: f, address: address, size: size}, nil
}

// openRow opens the value of the row address selects through
// SQLite's incremental blob I/O. Values up to the buffer limit are read
// into memory; larger ones are spilled to a scratch file that is
// removed when the object closes.
func (f *FileSystem) openRow(address pathspec.Address) (vfs.FileObject, error) {
	if err := f.state.Check(); err != nil {
		return nil, err
	}
	query, args := f.selectRow("rowid, length("+quote(f.column)+")", address)
	var rowid, size int64
	found, null := false, false
	err := f.execute(query, args, func(stmt *sqlite.Stmt) error {
		found = true
		rowid = stmt.ColumnInt64(0)
		null = stmt.ColumnType(1) == sqlite.TypeNull
		size = stmt.ColumnInt64(1)
		return nil
	})
	if err != nil {
		return nil, fserr.IOf("locating %s: %w", address, err)
	}
	if !found {
		return nil, fserr.NotFound(address.String())
	}
	if null || size == 0 {
		return vfs.NewBytesObject(nil), nil
	}

	conn, err := f.pool.Take(context.Background())
	if err != nil {
		return nil, fserr.IOf("reading %s: %w", address, err)
	}
	defer f.pool.Put(conn)
	blob, err := conn.OpenBlob("main", f.table, f.column, rowid, false)
	if err != nil {
		return nil, fserr.IOf("opening %s: %w", address, err)
	}
	defer blob.Close()

	if blob.Size() > f.environment.BufferLimit() {
		return f.spill(blob, address)
	}
	data := make([]byte, blob.Size())
	if _, err := io.ReadFull(blob, data); err != nil {
		return nil, fserr.IOf("reading %s: %w", address, err)
	}
	return vfs.NewBytesObject(data), nil
}

func (f *FileSystem) spill(blob *sqlite.Blob, address pathspec.Address) (vfs.FileObject, error) {
	file, err := os.CreateTemp(f.environment.TempDir, "strata-blob-*")
	if err != nil {
		return nil, fserr.IOf("creating scratch file for %s: %w", address, err)
	}
	size, err := blob.WriteTo(file)
	if err != nil {
		return nil, fserr.IOf("spilling %s: %w", address, multierr.Combine(err, file.Close(), os.Remove(file.Name())))
	}
	f.environment.Log().Debug("spilled large row to scratch file",
		"table", f.table,
		"address", address.String(),
		"size", size,
	)
	return vfs.NewReaderAtObject(file, size, scratchFile{file}), nil
}

// scratchFile removes its file on Close.
type scratchFile struct {
	*os.File
}

func (s scratchFile) Close() error {
	return multierr.Append(s.File.Close(), os.Remove(s.Name()))
}

// quote renders a validated identifier as a quoted SQL identifier, so
// names that are also keywords (order, group) work.
func quote(name string) string {
	return `"` + name + `"`
}

func (f *FileSystem) execute(query string, args []any, result func(*sqlite.Stmt) error) error {
	conn, err := f.pool.Take(context.Background())
	if err != nil {
		return err
	}
	defer f.pool.Put(conn)
	return sqlitex.Execute(conn, query, &sqlitex.ExecOptions{Args: args, ResultFunc: result})
}

// tableEntry is the virtual root: the table column itself.
type tableEntry struct {
	fileSystem *FileSystem
}

func (e *tableEntry) Name() string { return "" }
func (e *tableEntry) PathSpec() *pathspec.PathSpec { return e.fileSystem.spec }
func (e *tableEntry) IsRoot() bool { return true }
func (e *tableEntry) IsVirtual() bool { return true }
func (e *tableEntry) IsDirectory() bool { return true }
func (e *tableEntry) Size() (int64, error) { return 0, nil }

// SubFileEntries lists one entry per row, addressed by row index.
func (e *tableEntry) SubFileEntries() ([]vfs.FileEntry, error) {
	f := e.fileSystem
	if err := f.state.Check(); err != nil {
		return nil, err
	}
	var entries []vfs.FileEntry
	query := fmt.Sprintf("SELECT length(%s) FROM %s", quote(f.column), quote(f.table))
	err := f.execute(query, nil, func(stmt *sqlite.Stmt) error {
		index := pathspec.RowIndex(len(entries))
		entries = append(entries, &rowEntry{fileSystem: f, address: index, size: stmt.ColumnInt64(0)})
		return nil
	})
	if err != nil {
		return nil, fserr.IOf("listing %s: %w", f.table, err)
	}
	return entries, nil
}

func (e *tableEntry) Open() (vfs.FileObject, error) {
	return nil, fserr.IOf("SQLITE_BLOB table %s is not a file", e.fileSystem.table)
}

// rowEntry is one blob.
type rowEntry struct {
	fileSystem *FileSystem
	address    pathspec.Address
	size       int64
}

func (e *rowEntry) Name() string { return e.address.String() }
func (e *rowEntry) PathSpec() *pathspec.PathSpec { return e.fileSystem.spec.WithAddress(e.address) }
func (e *rowEntry) IsRoot() bool { return false }
func (e *rowEntry) IsVirtual() bool { return false }
func (e *rowEntry) IsDirectory() bool { return false }
func (e *rowEntry) Size() (int64, error) { return e.size, nil }
func (e *rowEntry) SubFileEntries() ([]vfs.FileEntry, error) { return nil, nil }

func (e *rowEntry) Open() (vfs.FileObject, error) {
	return e.fileSystem.openRow(e.address)
}
