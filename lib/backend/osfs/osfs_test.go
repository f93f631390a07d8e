// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package osfs

import (
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/bureau-foundation/strata/lib/fserr"
	"github.com/bureau-foundation/strata/lib/pathspec"
	"github.com/bureau-foundation/strata/lib/testutil"
	"github.com/bureau-foundation/strata/lib/vfs"
)

func newSpec(t *testing.T, location string) *pathspec.PathSpec {
	t.Helper()
	attributes := pathspec.Attributes{}
	if location != "" {
		attributes["location"] = location
	}
	spec, err := Type.New(attributes, nil)
	if err != nil {
		t.Fatalf("Type.New: %v", err)
	}
	return spec
}

func openFileSystem(t *testing.T) vfs.FileSystem {
	t.Helper()
	fileSystem := New(vfs.Environment{})
	if err := fileSystem.Open(newSpec(t, ""), nil); err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { fileSystem.Close() })
	return fileSystem
}

func TestFileEntry(t *testing.T) {
	directory := t.TempDir()
	path := testutil.WriteFile(t, directory, "image.raw", []byte("raw image bytes"))
	fileSystem := openFileSystem(t)

	entry, err := fileSystem.FileEntryByPathSpec(newSpec(t, path))
	if err != nil {
		t.Fatalf("FileEntryByPathSpec: %v", err)
	}
	if entry.Name() != "image.raw" || entry.IsDirectory() || entry.IsRoot() {
		t.Errorf("entry = %q directory=%t root=%t", entry.Name(), entry.IsDirectory(), entry.IsRoot())
	}
	if size, _ := entry.Size(); size != 15 {
		t.Errorf("Size() = %d, want 15", size)
	}

	object, err := entry.Open()
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer object.Close()
	if object.Size() != 15 {
		t.Errorf("object Size() = %d", object.Size())
	}
	buffer := make([]byte, 5)
	if _, err := object.ReadAt(buffer, 4); err != nil {
		t.Fatalf("ReadAt: %v", err)
	}
	if string(buffer) != "image" {
		t.Errorf("ReadAt(4) = %q", buffer)
	}
	if _, err := object.Seek(10, io.SeekStart); err != nil {
		t.Fatalf("Seek: %v", err)
	}
	rest, _ := io.ReadAll(object)
	if string(rest) != "bytes" {
		t.Errorf("read after seek = %q", rest)
	}
}

func TestDirectoryEntry(t *testing.T) {
	directory := t.TempDir()
	testutil.WriteFile(t, directory, "b.bin", []byte("b"))
	testutil.WriteFile(t, directory, "a.bin", []byte("a"))
	os.Mkdir(filepath.Join(directory, "sub"), 0o755)
	os.Symlink(filepath.Join(directory, "missing"), filepath.Join(directory, "dangling"))
	fileSystem := openFileSystem(t)

	entry, err := fileSystem.FileEntryByPathSpec(newSpec(t, directory))
	if err != nil {
		t.Fatalf("FileEntryByPathSpec: %v", err)
	}
	if !entry.IsDirectory() {
		t.Fatal("temp dir is not a directory entry")
	}
	children, err := entry.SubFileEntries()
	if err != nil {
		t.Fatalf("SubFileEntries: %v", err)
	}
	var names []string
	for _, child := range children {
		names = append(names, child.Name())
	}
	if len(names) != 3 || names[0] != "a.bin" || names[1] != "b.bin" || names[2] != "sub" {
		t.Errorf("children = %v, want [a.bin b.bin sub]", names)
	}
	if _, err := entry.Open(); !fserr.Is(err, fserr.KindIO) {
		t.Errorf("opening a directory: err = %v, want io error", err)
	}
}

func TestRootEntry(t *testing.T) {
	root, err := openFileSystem(t).RootFileEntry()
	if err != nil {
		t.Fatalf("RootFileEntry: %v", err)
	}
	if !root.IsRoot() || !root.IsDirectory() || root.Name() != "" {
		t.Errorf("root = %q root=%t directory=%t", root.Name(), root.IsRoot(), root.IsDirectory())
	}
}

func TestErrors(t *testing.T) {
	fileSystem := openFileSystem(t)

	_, err := fileSystem.FileEntryByPathSpec(newSpec(t, filepath.Join(t.TempDir(), "absent")))
	if !errors.Is(err, fs.ErrNotExist) || !fserr.Is(err, fserr.KindIO) {
		t.Errorf("missing file: err = %v, want io not-exist", err)
	}

	_, err = fileSystem.FileEntryByPathSpec(newSpec(t, "relative/path"))
	if !fserr.Is(err, fserr.KindArgument) {
		t.Errorf("relative location: err = %v, want argument", err)
	}

	if _, err := Type.New(pathspec.Attributes{"location": "/x"}, newSpec(t, "/y")); !fserr.Is(err, fserr.KindStructural) {
		t.Errorf("OS with parent: err = %v, want structural", err)
	}
}

func TestClassifyPermission(t *testing.T) {
	err := classify("/secret", fs.ErrPermission)
	if !fserr.Is(err, fserr.KindAccess) {
		t.Errorf("classify(ErrPermission) = %v, want access", err)
	}
	if err := classify("/dev", errors.New("EIO")); !fserr.Is(err, fserr.KindIO) {
		t.Errorf("classify(other) = %v, want io", err)
	}
}
