// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package vfs

import (
	"bytes"
	"io"
	"io/fs"
	"sync"

	"github.com/bureau-foundation/strata/lib/fserr"
)

// DefaultMaxBufferSize caps how many bytes a backend may hold in
// memory for one object when it has to materialize it (decompressed
// streams, authenticated ciphertext, table blobs).
const DefaultMaxBufferSize = 256 << 20

// readerAtObject adapts an io.ReaderAt of known size to FileObject.
type readerAtObject struct {
	mu      sync.Mutex
	section *io.SectionReader
	closer  io.Closer
	closed  bool
}

// NewReaderAtObject returns a FileObject reading size bytes from
// reader. Close calls closer, which may be nil.
func NewReaderAtObject(reader io.ReaderAt, size int64, closer io.Closer) FileObject {
	return &readerAtObject{section: io.NewSectionReader(reader, 0, size), closer: closer}
}

// NewBytesObject returns a FileObject over data.
func NewBytesObject(data []byte) FileObject {
	return NewReaderAtObject(bytes.NewReader(data), int64(len(data)), nil)
}

func (o *readerAtObject) Read(buffer []byte) (int, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.closed {
		return 0, fs.ErrClosed
	}
	return o.section.Read(buffer)
}

func (o *readerAtObject) ReadAt(buffer []byte, offset int64) (int, error) {
	o.mu.Lock()
	closed := o.closed
	o.mu.Unlock()
	if closed {
		return 0, fs.ErrClosed
	}
	return o.section.ReadAt(buffer, offset)
}

func (o *readerAtObject) Seek(offset int64, whence int) (int64, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.closed {
		return 0, fs.ErrClosed
	}
	return o.section.Seek(offset, whence)
}

func (o *readerAtObject) Size() int64 { return o.section.Size() }

func (o *readerAtObject) Close() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.closed {
		return nil
	}
	o.closed = true
	if o.closer != nil {
		return o.closer.Close()
	}
	return nil
}

// ReadAll reads an object from offset zero into memory, refusing
// objects larger than limit. It does not close the object.
func ReadAll(object FileObject, limit int64) ([]byte, error) {
	size := object.Size()
	if size > limit {
		return nil, fserr.IOf("object is %d bytes, larger than the %d byte buffer limit", size, limit)
	}
	data := make([]byte, size)
	if _, err := io.ReadFull(io.NewSectionReader(object, 0, size), data); err != nil {
		return nil, fserr.IOf("reading object: %w", err)
	}
	return data, nil
}

// ReadAllLimited reads r to EOF, failing once more than limit bytes
// have been produced. Decompressors use it to bound their output.
func ReadAllLimited(r io.Reader, limit int64) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > limit {
		return nil, fserr.IOf("content exceeds the %d byte buffer limit", limit)
	}
	return data, nil
}
