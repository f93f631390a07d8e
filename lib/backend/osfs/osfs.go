// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package osfs is the backend for files on the host filesystem. An OS
// node is always the outermost layer of a chain: it is where raw bytes
// enter the resolver.
package osfs

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/bureau-foundation/strata/lib/fserr"
	"github.com/bureau-foundation/strata/lib/pathspec"
	"github.com/bureau-foundation/strata/lib/vfs"
)

// Type is the OS path-spec type.
var Type = &pathspec.Type{
	Tag:       "OS",
	Parent:    pathspec.ParentForbidden,
	Addresses: pathspec.AcceptsLocation,
}

// New returns an unopened OS file system.
func New(environment vfs.Environment) vfs.FileSystem {
	return &FileSystem{}
}

// FileSystem serves the host filesystem rooted at "/".
type FileSystem struct {
	state vfs.State
	spec  *pathspec.PathSpec
}

// Open binds the file system to spec. The host filesystem is always
// available, so there is nothing to acquire.
func (f *FileSystem) Open(spec *pathspec.PathSpec, _ *vfs.Credentials) error {
	if err := f.state.BeginOpen(); err != nil {
		return err
	}
	if spec.HasParent() {
		return fserr.Structuralf("OS path spec cannot have a parent")
	}
	f.spec = spec.WithoutAddress()
	f.state.Opened()
	return nil
}

// Close marks the file system closed.
func (f *FileSystem) Close() error {
	return f.state.BeginClose()
}

// PathSpec returns the address-free OS spec.
func (f *FileSystem) PathSpec() *pathspec.PathSpec { return f.spec }

// RootFileEntry returns the "/" directory.
func (f *FileSystem) RootFileEntry() (vfs.FileEntry, error) {
	return f.FileEntryByPathSpec(f.spec)
}

// FileEntryByPathSpec stats spec's location.
func (f *FileSystem) FileEntryByPathSpec(spec *pathspec.PathSpec) (vfs.FileEntry, error) {
	if err := f.state.Check(); err != nil {
		return nil, err
	}
	switch address := spec.Address().(type) {
	case nil:
		return f.entry("/")
	case pathspec.Location:
		location := string(address)
		if !filepath.IsAbs(location) {
			return nil, fserr.Argumentf("OS location %q is not absolute", location)
		}
		return f.entry(filepath.Clean(location))
	default:
		return nil, fserr.Argumentf("OS does not support %T addresses", address)
	}
}

func (f *FileSystem) entry(location string) (vfs.FileEntry, error) {
	info, err := os.Stat(location)
	if err != nil {
		return nil, classify(location, err)
	}
	spec := f.spec
	if location != "/" {
		spec = f.spec.WithAddress(pathspec.Location(location))
	}
	return &fileEntry{fileSystem: f, spec: spec, location: location, info: info}, nil
}

// classify maps host errors onto the fserr taxonomy.
func classify(location string, err error) error {
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return fserr.NotFound(location)
	case errors.Is(err, fs.ErrPermission):
		return fserr.Wrap(fserr.KindAccess, location, err)
	default:
		return fserr.Wrap(fserr.KindIO, location, err)
	}
}

type fileEntry struct {
	fileSystem *FileSystem
	spec       *pathspec.PathSpec
	location   string
	info       fs.FileInfo
}

func (e *fileEntry) Name() string {
	if e.location == "/" {
		return ""
	}
	return e.info.Name()
}

func (e *fileEntry) PathSpec() *pathspec.PathSpec { return e.spec }
func (e *fileEntry) IsRoot() bool { return e.location == "/" }
func (e *fileEntry) IsVirtual() bool { return false }
func (e *fileEntry) IsDirectory() bool { return e.info.IsDir() }
func (e *fileEntry) Size() (int64, error) { return e.info.Size(), nil }

func (e *fileEntry) SubFileEntries() ([]vfs.FileEntry, error) {
	if !e.info.IsDir() {
		return nil, nil
	}
	listing, err := os.ReadDir(e.location)
	if err != nil {
		return nil, classify(e.location, err)
	}
	sort.Slice(listing, func(i, j int) bool { return listing[i].Name() < listing[j].Name() })

	entries := make([]vfs.FileEntry, 0, len(listing))
	for _, item := range listing {
		entry, err := e.fileSystem.entry(filepath.Join(e.location, item.Name()))
		if err != nil {
			// Dangling symlinks and files removed mid-listing are
			// skipped rather than failing the whole directory.
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
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
	if e.info.IsDir() {
		return nil, fserr.IOf("%s is a directory", e.location)
	}
	file, err := os.Open(e.location)
	if err != nil {
		return nil, classify(e.location, err)
	}
	info, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, classify(e.location, err)
	}
	return &fileObject{File: file, size: info.Size()}, nil
}

// fileObject is an *os.File with the size captured at open.
type fileObject struct {
	*os.File
	size int64
}

func (o *fileObject) Size() int64 { return o.size }
