// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package resolver

import (
	"sync/atomic"
	"testing"

	"github.com/bureau-foundation/strata/lib/fserr"
	"github.com/bureau-foundation/strata/lib/pathspec"
	"github.com/bureau-foundation/strata/lib/registry"
	"github.com/bureau-foundation/strata/lib/vfs"
)

// Test backends. TEST_ROOT is an in-memory hierarchical store that
// counts opens and closes and can be made to block or fail. TEST_LAYER
// wraps its parent's bytes behind a password, exercising nested
// resolution and credential injection.

var (
	rootType = &pathspec.Type{
		Tag:       "TEST_ROOT",
		Parent:    pathspec.ParentForbidden,
		Fields:    []pathspec.FieldSpec{{Name: "volume", Kind: pathspec.FieldString, Required: true}},
		Addresses: pathspec.AcceptsLocation,
	}
	layerType = &pathspec.Type{Tag: "TEST_LAYER", Parent: pathspec.ParentRequired}
)

const layerPassword = "letmein"

type rootBackend struct {
	opens  atomic.Int32
	closes atomic.Int32

	// openErr, when set, is returned by every Open.
	openErr error
	// opening, when set, receives each opening volume name.
	opening chan string
	// gate, when set, blocks Open until it is closed.
	gate chan struct{}

	files map[string]string
}

type rootFileSystem struct {
	backend *rootBackend
	state   vfs.State
	spec    *pathspec.PathSpec
}

func (f *rootFileSystem) Open(spec *pathspec.PathSpec, _ *vfs.Credentials) error {
	if err := f.state.BeginOpen(); err != nil {
		return err
	}
	if f.backend.opening != nil {
		f.backend.opening <- spec.StringField("volume")
	}
	if f.backend.gate != nil {
		<-f.backend.gate
	}
	if f.backend.openErr != nil {
		return f.backend.openErr
	}
	f.backend.opens.Add(1)
	f.spec = spec.WithoutAddress()
	f.state.Opened()
	return nil
}

func (f *rootFileSystem) Close() error {
	if err := f.state.BeginClose(); err != nil {
		return err
	}
	f.backend.closes.Add(1)
	return nil
}

func (f *rootFileSystem) PathSpec() *pathspec.PathSpec { return f.spec }

func (f *rootFileSystem) RootFileEntry() (vfs.FileEntry, error) {
	return f.FileEntryByPathSpec(f.spec)
}

func (f *rootFileSystem) FileEntryByPathSpec(spec *pathspec.PathSpec) (vfs.FileEntry, error) {
	if err := f.state.Check(); err != nil {
		return nil, err
	}
	switch address := spec.Address().(type) {
	case nil:
		return &rootEntry{spec: f.spec, directory: true}, nil
	case pathspec.Location:
		content, ok := f.backend.files[string(address)]
		if !ok {
			return nil, fserr.NotFound(string(address))
		}
		return &rootEntry{spec: spec, name: string(address), content: content}, nil
	default:
		return nil, fserr.Argumentf("unsupported address %T", address)
	}
}

type rootEntry struct {
	spec      *pathspec.PathSpec
	name      string
	content   string
	directory bool
}

func (e *rootEntry) Name() string { return e.name }
func (e *rootEntry) PathSpec() *pathspec.PathSpec { return e.spec }
func (e *rootEntry) IsRoot() bool { return e.directory }
func (e *rootEntry) IsVirtual() bool { return e.directory }
func (e *rootEntry) IsDirectory() bool { return e.directory }
func (e *rootEntry) Size() (int64, error) { return int64(len(e.content)), nil }
func (e *rootEntry) SubFileEntries() ([]vfs.FileEntry, error) { return nil, nil }

func (e *rootEntry) Open() (vfs.FileObject, error) {
	if e.directory {
		return nil, fserr.IOf("%s is a directory", e.spec)
	}
	return vfs.NewBytesObject([]byte(e.content)), nil
}

type layerFileSystem struct {
	environment vfs.Environment
	state       vfs.State
	spec        *pathspec.PathSpec
	content     []byte
}

func (f *layerFileSystem) Open(spec *pathspec.PathSpec, credentials *vfs.Credentials) error {
	if err := f.state.BeginOpen(); err != nil {
		return err
	}
	parent, err := f.environment.Resolver.OpenFileObject(spec.Parent())
	if err != nil {
		return err
	}
	defer parent.Close()

	password, ok := credentials.Get(vfs.CredentialPassword)
	if !ok {
		return fserr.Accessf("TEST_LAYER: no password")
	}
	if !password.Equal([]byte(layerPassword)) {
		return fserr.Accessf("TEST_LAYER: wrong password")
	}
	content, err := vfs.ReadAll(parent, f.environment.BufferLimit())
	if err != nil {
		return err
	}
	f.content = content
	f.spec = spec.WithoutAddress()
	f.state.Opened()
	return nil
}

func (f *layerFileSystem) Close() error { return f.state.BeginClose() }

func (f *layerFileSystem) PathSpec() *pathspec.PathSpec { return f.spec }

func (f *layerFileSystem) RootFileEntry() (vfs.FileEntry, error) {
	if err := f.state.Check(); err != nil {
		return nil, err
	}
	return vfs.NewStreamRoot(f.spec, int64(len(f.content)), func() (vfs.FileObject, error) {
		return vfs.NewBytesObject(f.content), nil
	}), nil
}

func (f *layerFileSystem) FileEntryByPathSpec(*pathspec.PathSpec) (vfs.FileEntry, error) {
	return f.RootFileEntry()
}

type testHarness struct {
	resolver *Resolver
	backend  *rootBackend
	metrics  *Metrics
}

func newHarness(t *testing.T) *testHarness {
	t.Helper()
	backend := &rootBackend{files: map[string]string{
		"/readme.txt": "top layer",
		"/inner.bin":  "wrapped content",
	}}

	reg := registry.New()
	if err := reg.RegisterType(rootType, func(vfs.Environment) vfs.FileSystem {
		return &rootFileSystem{backend: backend}
	}); err != nil {
		t.Fatal(err)
	}
	if err := reg.RegisterType(layerType, func(environment vfs.Environment) vfs.FileSystem {
		return &layerFileSystem{environment: environment}
	}, vfs.CredentialPassword); err != nil {
		t.Fatal(err)
	}

	metrics, err := NewMetrics(nil)
	if err != nil {
		t.Fatal(err)
	}
	resolver, err := New(Options{Registry: reg, Metrics: metrics})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { resolver.KeyChain().Close() })
	return &testHarness{resolver: resolver, backend: backend, metrics: metrics}
}

func rootSpec(t *testing.T, volume, location string) *pathspec.PathSpec {
	t.Helper()
	attributes := pathspec.Attributes{"volume": volume}
	if location != "" {
		attributes["location"] = location
	}
	spec, err := rootType.New(attributes, nil)
	if err != nil {
		t.Fatal(err)
	}
	return spec
}

func layerSpec(t *testing.T, volume, location string) *pathspec.PathSpec {
	t.Helper()
	spec, err := layerType.New(nil, rootSpec(t, volume, location))
	if err != nil {
		t.Fatal(err)
	}
	return spec
}
