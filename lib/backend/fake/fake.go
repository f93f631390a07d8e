// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package fake is an in-memory hierarchical backend. Its path specs
// never have a parent, so a FAKE node is always the outermost layer of
// a chain. Tests and examples populate a [Store] and register it:
//
//	store := fake.NewStore()
//	store.AddFile("/images/vault.age", volumeBytes)
//	registry.RegisterType(fake.Type, fake.Constructor(store))
package fake

import (
	"path"
	"slices"
	"strings"
	"sync"

	"github.com/bureau-foundation/strata/lib/fserr"
	"github.com/bureau-foundation/strata/lib/pathspec"
	"github.com/bureau-foundation/strata/lib/registry"
	"github.com/bureau-foundation/strata/lib/vfs"
)

// Type is the FAKE path-spec type.
var Type = &pathspec.Type{
	Tag:       "FAKE",
	Parent:    pathspec.ParentForbidden,
	Addresses: pathspec.AcceptsLocation,
}

type node struct {
	data      []byte
	directory bool
}

// Store holds the files and directories FAKE file systems serve. It is
// safe for concurrent use; changes are visible to open file systems.
type Store struct {
	mu    sync.RWMutex
	nodes map[string]*node
	opens map[string]int
}

// NewStore returns a store containing only the root directory.
func NewStore() *Store {
	return &Store{
		nodes: map[string]*node{"/": {directory: true}},
		opens: make(map[string]int),
	}
}

// AddFile stores a copy of data at location, creating parent
// directories as needed.
func (s *Store) AddFile(location string, data []byte) error {
	location, err := cleanLocation(location)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.addParents(location); err != nil {
		return err
	}
	if existing, ok := s.nodes[location]; ok && existing.directory {
		return fserr.Argumentf("%s is a directory", location)
	}
	s.nodes[location] = &node{data: slices.Clone(data)}
	return nil
}

// AddDirectory creates a directory and its parents.
func (s *Store) AddDirectory(location string) error {
	location, err := cleanLocation(location)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.addParents(location); err != nil {
		return err
	}
	if existing, ok := s.nodes[location]; ok && !existing.directory {
		return fserr.Argumentf("%s is a file", location)
	}
	s.nodes[location] = &node{directory: true}
	return nil
}

// Opens returns how many times the file at location has been opened
// for reading.
func (s *Store) Opens(location string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.opens[path.Clean(location)]
}

func (s *Store) addParents(location string) error {
	for parent := path.Dir(location); parent != "/"; parent = path.Dir(parent) {
		existing, ok := s.nodes[parent]
		if ok && !existing.directory {
			return fserr.Argumentf("%s is a file", parent)
		}
		if !ok {
			s.nodes[parent] = &node{directory: true}
		}
	}
	return nil
}

func (s *Store) lookup(location string) (*node, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	found, ok := s.nodes[location]
	return found, ok
}

func (s *Store) children(directory string) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var names []string
	for location := range s.nodes {
		if location != "/" && path.Dir(location) == directory {
			names = append(names, location)
		}
	}
	slices.Sort(names)
	return names
}

func (s *Store) read(location string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	found, ok := s.nodes[location]
	if !ok {
		return nil, fserr.NotFound(location)
	}
	if found.directory {
		return nil, fserr.IOf("%s is a directory", location)
	}
	s.opens[location]++
	return found.data, nil
}

func cleanLocation(location string) (string, error) {
	if !strings.HasPrefix(location, "/") {
		return "", fserr.Argumentf("location %q is not absolute", location)
	}
	return path.Clean(location), nil
}

// Constructor returns the FAKE file system constructor serving store.
func Constructor(store *Store) registry.FileSystemConstructor {
	return func(vfs.Environment) vfs.FileSystem {
		return &FileSystem{store: store}
	}
}

// FileSystem is an open view of a Store.
type FileSystem struct {
	store *Store
	state vfs.State
	spec  *pathspec.PathSpec
}

// Open binds the file system to spec.
func (f *FileSystem) Open(spec *pathspec.PathSpec, _ *vfs.Credentials) error {
	if err := f.state.BeginOpen(); err != nil {
		return err
	}
	if spec.HasParent() {
		return fserr.Structuralf("FAKE path spec cannot have a parent")
	}
	f.spec = spec.WithoutAddress()
	f.state.Opened()
	return nil
}

// Close releases nothing; the store outlives its file systems.
func (f *FileSystem) Close() error {
	return f.state.BeginClose()
}

// PathSpec returns the address-free spec the file system was opened
// with.
func (f *FileSystem) PathSpec() *pathspec.PathSpec { return f.spec }

// RootFileEntry returns the "/" directory.
func (f *FileSystem) RootFileEntry() (vfs.FileEntry, error) {
	return f.FileEntryByPathSpec(f.spec)
}

// FileEntryByPathSpec returns the entry at spec's location, or the
// root for an address-free spec.
func (f *FileSystem) FileEntryByPathSpec(spec *pathspec.PathSpec) (vfs.FileEntry, error) {
	if err := f.state.Check(); err != nil {
		return nil, err
	}
	switch address := spec.Address().(type) {
	case nil:
		return f.entry("/")
	case pathspec.Location:
		location, err := cleanLocation(string(address))
		if err != nil {
			return nil, err
		}
		return f.entry(location)
	default:
		return nil, fserr.Argumentf("FAKE does not support %T addresses", address)
	}
}

func (f *FileSystem) entry(location string) (vfs.FileEntry, error) {
	found, ok := f.store.lookup(location)
	if !ok {
		return nil, fserr.NotFound(location)
	}
	spec := f.spec
	if location != "/" {
		spec = f.spec.WithAddress(pathspec.Location(location))
	}
	return &fileEntry{fileSystem: f, spec: spec, location: location, node: found}, nil
}

type fileEntry struct {
	fileSystem *FileSystem
	spec       *pathspec.PathSpec
	location   string
	node       *node
}

func (e *fileEntry) Name() string {
	if e.location == "/" {
		return ""
	}
	return path.Base(e.location)
}

func (e *fileEntry) PathSpec() *pathspec.PathSpec { return e.spec }
func (e *fileEntry) IsRoot() bool { return e.location == "/" }
func (e *fileEntry) IsVirtual() bool { return false }
func (e *fileEntry) IsDirectory() bool { return e.node.directory }
func (e *fileEntry) Size() (int64, error) { return int64(len(e.node.data)), nil }

func (e *fileEntry) SubFileEntries() ([]vfs.FileEntry, error) {
	if !e.node.directory {
		return nil, nil
	}
	var entries []vfs.FileEntry
	for _, location := range e.fileSystem.store.children(e.location) {
		entry, err := e.fileSystem.entry(location)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

func (e *fileEntry) Open() (vfs.FileObject, error) {
	if err := e.fileSystem.state.Check(); err != nil {
		return nil, err
	}
	data, err := e.fileSystem.store.read(e.location)
	if err != nil {
		return nil, err
	}
	return vfs.NewBytesObject(data), nil
}
