// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package resolver

import (
	"fmt"
	"log/slog"
	"sync"

	"go.uber.org/multierr"

	"github.com/bureau-foundation/strata/lib/fserr"
	"github.com/bureau-foundation/strata/lib/keychain"
	"github.com/bureau-foundation/strata/lib/pathspec"
	"github.com/bureau-foundation/strata/lib/registry"
	"github.com/bureau-foundation/strata/lib/vfs"
)

// Options configures a Resolver.
type Options struct {
	// Registry maps type tags to backends. Required.
	Registry *registry.Registry

	// KeyChain supplies credentials. When nil, the resolver creates
	// an empty one validated against Registry.
	KeyChain *keychain.KeyChain

	// Logger receives open, eviction, and failure events. Nil
	// discards them.
	Logger *slog.Logger

	// TempDir and MaxBufferSize are passed to backends through
	// vfs.Environment.
	TempDir       string
	MaxBufferSize int64

	// Metrics is optional.
	Metrics *Metrics
}

// Resolver is safe for concurrent use.
type Resolver struct {
	registry    *registry.Registry
	keyChain    *keychain.KeyChain
	logger      *slog.Logger
	metrics     *Metrics
	environment vfs.Environment
	cache       *cache
}

// New creates a Resolver with an empty cache.
func New(options Options) (*Resolver, error) {
	if options.Registry == nil {
		return nil, fmt.Errorf("resolver: Registry is required")
	}
	logger := options.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	keyChain := options.KeyChain
	if keyChain == nil {
		keyChain = keychain.New(options.Registry)
	}

	resolver := &Resolver{
		registry: options.Registry,
		keyChain: keyChain,
		logger:   logger,
		metrics:  options.Metrics,
		cache:    newCache(),
	}
	resolver.environment = vfs.Environment{
		Resolver:      resolver,
		Logger:        logger,
		TempDir:       options.TempDir,
		MaxBufferSize: options.MaxBufferSize,
	}
	return resolver, nil
}

// Registry returns the resolver's registry.
func (r *Resolver) Registry() *registry.Registry { return r.registry }

// KeyChain returns the resolver's key chain.
func (r *Resolver) KeyChain() *keychain.KeyChain { return r.keyChain }

// OpenFileSystem returns the open FileSystem for spec's canonical key,
// opening the backend on a miss. The caller owns one reference and
// must release it with CloseFileSystem.
func (r *Resolver) OpenFileSystem(spec *pathspec.PathSpec) (vfs.FileSystem, error) {
	if spec == nil {
		return nil, fserr.Argumentf("opening file system: nil path spec")
	}
	key := spec.CanonicalKey()

	entry := r.cache.lock(key)
	defer r.cache.unlock(key, entry)

	if entry.fileSystem != nil {
		entry.references++
		r.metrics.hit()
		return entry.fileSystem, nil
	}
	r.metrics.miss()

	fileSystem, err := r.openBackend(spec)
	if err != nil {
		r.metrics.failed(spec.Tag(), err)
		r.logger.Debug("backend open failed",
			"type", spec.Tag(),
			"key", key.Short(),
			"error", err,
		)
		return nil, err
	}

	entry.fileSystem = fileSystem
	entry.references = 1
	r.metrics.opened(spec.Tag())
	r.logger.Debug("backend opened",
		"type", spec.Tag(),
		"key", key.Short(),
		"chain", spec.WithoutAddress(),
	)
	return fileSystem, nil
}

// openBackend constructs and opens the backend for spec. The backend
// releases anything it acquired when Open fails.
func (r *Resolver) openBackend(spec *pathspec.PathSpec) (vfs.FileSystem, error) {
	registered, err := r.registry.Lookup(spec.Tag())
	if err != nil {
		return nil, err
	}
	fileSystem := registered.NewFileSystem(r.environment)
	if fileSystem == nil {
		return nil, fserr.Structuralf("backend %s constructed a nil file system", spec.Tag())
	}

	credentials, err := r.keyChain.ExtractCredentialsFromPathSpec(spec)
	if err != nil {
		return nil, err
	}
	defer credentials.Close()

	if err := fileSystem.Open(spec, credentials); err != nil {
		return nil, err
	}
	return fileSystem, nil
}

// CloseFileSystem releases one reference taken by OpenFileSystem.
func (r *Resolver) CloseFileSystem(spec *pathspec.PathSpec) error {
	if spec == nil {
		return fserr.Argumentf("closing file system: nil path spec")
	}
	return r.release(spec.CanonicalKey())
}

// release drops one reference to key's FileSystem, closing and
// evicting it at zero. Releasing a key with no open FileSystem is an
// argument error.
func (r *Resolver) release(key pathspec.Key) error {
	entry := r.cache.lockExisting(key)
	if entry == nil {
		return fserr.Argumentf("no open file system for key %s", key.Short())
	}
	defer r.cache.unlock(key, entry)

	if entry.fileSystem == nil {
		return fserr.Argumentf("no open file system for key %s", key.Short())
	}
	entry.references--
	if entry.references > 0 {
		return nil
	}

	fileSystem := entry.fileSystem
	entry.fileSystem = nil
	tag := fileSystem.PathSpec().Tag()
	r.metrics.evicted(tag)

	if err := fileSystem.Close(); err != nil {
		r.logger.Warn("closing evicted backend",
			"type", tag,
			"key", key.Short(),
			"error", err,
		)
		return err
	}
	r.logger.Debug("backend evicted", "type", tag, "key", key.Short())
	return nil
}

// OpenFileEntry returns the entry spec addresses. The returned handle
// holds a reference to the owning FileSystem until closed.
func (r *Resolver) OpenFileEntry(spec *pathspec.PathSpec) (*FileEntry, error) {
	fileSystem, err := r.OpenFileSystem(spec)
	if err != nil {
		return nil, err
	}
	key := spec.CanonicalKey()

	entry, err := fileSystem.FileEntryByPathSpec(spec)
	if err != nil {
		return nil, multierr.Append(err, r.release(key))
	}
	return &FileEntry{FileEntry: entry, resolver: r, key: key}, nil
}

// OpenFileObject opens the content spec addresses. Closing the object
// releases its reference to the owning FileSystem.
func (r *Resolver) OpenFileObject(spec *pathspec.PathSpec) (vfs.FileObject, error) {
	fileSystem, err := r.OpenFileSystem(spec)
	if err != nil {
		return nil, err
	}
	key := spec.CanonicalKey()

	entry, err := fileSystem.FileEntryByPathSpec(spec)
	if err != nil {
		return nil, multierr.Append(err, r.release(key))
	}
	object, err := entry.Open()
	if err != nil {
		return nil, multierr.Append(err, r.release(key))
	}
	return &fileObject{FileObject: object, resolver: r, key: key}, nil
}

// Cached reports whether spec's canonical key has an open FileSystem.
func (r *Resolver) Cached(spec *pathspec.PathSpec) bool {
	return r.References(spec) > 0
}

// References returns the reference count of spec's FileSystem. A nil
// spec has none.
func (r *Resolver) References(spec *pathspec.PathSpec) int {
	if spec == nil {
		return 0
	}
	key := spec.CanonicalKey()
	entry := r.cache.lockExisting(key)
	if entry == nil {
		return 0
	}
	defer r.cache.unlock(key, entry)
	return entry.references
}

// Len returns the number of cache entries.
func (r *Resolver) Len() int {
	return r.cache.len()
}

// FileEntry is an entry handle returned by OpenFileEntry.
type FileEntry struct {
	vfs.FileEntry

	resolver *Resolver
	key      pathspec.Key
	once     sync.Once
	err      error
}

// Close releases the handle's reference. Close is idempotent.
func (e *FileEntry) Close() error {
	e.once.Do(func() {
		e.err = e.resolver.release(e.key)
	})
	return e.err
}

// fileObject releases its FileSystem reference after closing the
// backend object.
type fileObject struct {
	vfs.FileObject

	resolver *Resolver
	key      pathspec.Key
	once     sync.Once
	err      error
}

func (o *fileObject) Close() error {
	o.once.Do(func() {
		o.err = multierr.Append(o.FileObject.Close(), o.resolver.release(o.key))
	})
	return o.err
}
