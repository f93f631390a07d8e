// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package vfsfuse

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"strings"
	"syscall"
	"time"

	gofuse "github.com/hanwen/go-fuse/v2/fs"
	"github.com/hanwen/go-fuse/v2/fuse"
	"go.uber.org/multierr"

	"github.com/bureau-foundation/strata/lib/fserr"
	"github.com/bureau-foundation/strata/lib/pathspec"
	"github.com/bureau-foundation/strata/lib/resolver"
	"github.com/bureau-foundation/strata/lib/vfs"
)

// StreamFileName is the single file a stream entry is exposed as.
const StreamFileName = "content"

// Options configures the FUSE mount.
type Options struct {
	// Mountpoint is the directory where the filesystem is mounted.
	// It is created if it does not exist.
	Mountpoint string

	// Resolver opens Spec. Required.
	Resolver *resolver.Resolver

	// Spec addresses the entry to expose. Required.
	Spec *pathspec.PathSpec

	// AllowOther permits other users (including root) to access
	// the mount. Requires user_allow_other in /etc/fuse.conf.
	AllowOther bool

	// Logger receives diagnostic messages. If nil, errors are
	// written to stderr.
	Logger *slog.Logger
}

// Mounted is a live mount.
type Mounted struct {
	server *fuse.Server
	entry  *resolver.FileEntry
	logger *slog.Logger
}

// Mount resolves options.Spec and mounts it at options.Mountpoint.
// The caller must call Unmount when done.
func Mount(options Options) (*Mounted, error) {
	if options.Mountpoint == "" {
		return nil, fmt.Errorf("mountpoint is required")
	}
	if options.Resolver == nil {
		return nil, fmt.Errorf("resolver is required")
	}
	if options.Spec == nil {
		return nil, fmt.Errorf("path spec is required")
	}
	if options.Logger == nil {
		options.Logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelError,
		}))
	}

	if err := os.MkdirAll(options.Mountpoint, 0o755); err != nil {
		return nil, fmt.Errorf("creating mountpoint %s: %w", options.Mountpoint, err)
	}

	entry, err := options.Resolver.OpenFileEntry(options.Spec)
	if err != nil {
		return nil, fmt.Errorf("resolving %s: %w", options.Spec, err)
	}

	var root gofuse.InodeEmbedder
	if entry.IsDirectory() {
		root = &directoryNode{entry: entry.FileEntry, logger: options.Logger}
	} else {
		root = &streamRootNode{entry: entry.FileEntry, logger: options.Logger}
	}

	entryTimeout := 1 * time.Second
	attrTimeout := 1 * time.Second
	negativeTimeout := 100 * time.Millisecond

	server, err := gofuse.Mount(options.Mountpoint, root, &gofuse.Options{
		EntryTimeout:    &entryTimeout,
		AttrTimeout:     &attrTimeout,
		NegativeTimeout: &negativeTimeout,
		MountOptions: fuse.MountOptions{
			FsName:     "strata:" + string(options.Spec.Tag()),
			Name:       "strata",
			AllowOther: options.AllowOther,
		},
	})
	if err != nil {
		return nil, multierr.Append(
			fmt.Errorf("mounting FUSE filesystem at %s: %w", options.Mountpoint, err),
			entry.Close(),
		)
	}

	options.Logger.Info("FUSE filesystem mounted",
		"mountpoint", options.Mountpoint,
		"chain", options.Spec.String(),
	)
	return &Mounted{server: server, entry: entry, logger: options.Logger}, nil
}

// Wait blocks until the filesystem is unmounted.
func (m *Mounted) Wait() {
	m.server.Wait()
}

// Unmount detaches the filesystem and releases the resolver reference.
func (m *Mounted) Unmount() error {
	return multierr.Append(m.server.Unmount(), m.entry.Close())
}

// directoryNode is a directory entry. Sub entries are listed on every
// Readdir so the view follows the backend.
type directoryNode struct {
	gofuse.Inode
	entry  vfs.FileEntry
	logger *slog.Logger
}

var _ gofuse.InodeEmbedder = (*directoryNode)(nil)
var _ gofuse.NodeLookuper = (*directoryNode)(nil)
var _ gofuse.NodeReaddirer = (*directoryNode)(nil)
var _ gofuse.NodeGetattrer = (*directoryNode)(nil)

func (d *directoryNode) Getattr(ctx context.Context, f gofuse.FileHandle, out *fuse.AttrOut) syscall.Errno {
	out.Mode = syscall.S_IFDIR | 0o555
	return 0
}

func (d *directoryNode) Lookup(ctx context.Context, name string, out *fuse.EntryOut) (*gofuse.Inode, syscall.Errno) {
	children, errno := d.children()
	if errno != 0 {
		return nil, errno
	}
	for _, child := range children {
		if entryName(child) == name {
			return newChild(ctx, &d.Inode, child, d.logger, out)
		}
	}
	return nil, syscall.ENOENT
}

func (d *directoryNode) Readdir(ctx context.Context) (gofuse.DirStream, syscall.Errno) {
	children, errno := d.children()
	if errno != 0 {
		return nil, errno
	}
	entries := make([]fuse.DirEntry, 0, len(children))
	for _, child := range children {
		mode := uint32(syscall.S_IFREG)
		if child.IsDirectory() {
			mode = syscall.S_IFDIR
		}
		entries = append(entries, fuse.DirEntry{Name: entryName(child), Mode: mode})
	}
	return gofuse.NewListDirStream(entries), 0
}

func (d *directoryNode) children() ([]vfs.FileEntry, syscall.Errno) {
	children, err := d.entry.SubFileEntries()
	if err != nil {
		d.logger.Error("listing sub entries failed",
			"chain", d.entry.PathSpec().String(),
			"error", err,
		)
		return nil, Errno(err)
	}
	return children, 0
}

// streamRootNode is the root of a mount over a stream entry.
type streamRootNode struct {
	gofuse.Inode
	entry  vfs.FileEntry
	logger *slog.Logger
}

var _ gofuse.InodeEmbedder = (*streamRootNode)(nil)
var _ gofuse.NodeOnAdder = (*streamRootNode)(nil)

func (r *streamRootNode) OnAdd(ctx context.Context) {
	child := r.NewPersistentInode(ctx, &fileNode{entry: r.entry, logger: r.logger}, gofuse.StableAttr{Mode: syscall.S_IFREG})
	r.AddChild(StreamFileName, child, true)
}

// fileNode is a readable entry.
type fileNode struct {
	gofuse.Inode
	entry  vfs.FileEntry
	logger *slog.Logger
}

var _ gofuse.InodeEmbedder = (*fileNode)(nil)
var _ gofuse.NodeGetattrer = (*fileNode)(nil)
var _ gofuse.NodeOpener = (*fileNode)(nil)

func (n *fileNode) Getattr(ctx context.Context, f gofuse.FileHandle, out *fuse.AttrOut) syscall.Errno {
	return fillAttr(n.entry, &out.Attr)
}

func (n *fileNode) Open(ctx context.Context, flags uint32) (gofuse.FileHandle, uint32, syscall.Errno) {
	if flags&(syscall.O_WRONLY|syscall.O_RDWR) != 0 {
		return nil, 0, syscall.EROFS
	}
	object, err := n.entry.Open()
	if err != nil {
		n.logger.Error("opening entry failed",
			"chain", n.entry.PathSpec().String(),
			"error", err,
		)
		return nil, 0, Errno(err)
	}
	// Resolved content does not change while the mount holds its
	// file system open.
	return &objectHandle{object: object, entry: n.entry, logger: n.logger}, fuse.FOPEN_KEEP_CACHE, 0
}

// objectHandle serves reads from one open FileObject.
type objectHandle struct {
	object vfs.FileObject
	entry  vfs.FileEntry
	logger *slog.Logger
}

var _ gofuse.FileReader = (*objectHandle)(nil)
var _ gofuse.FileReleaser = (*objectHandle)(nil)

func (h *objectHandle) Read(ctx context.Context, dest []byte, off int64) (fuse.ReadResult, syscall.Errno) {
	bytesRead, err := h.object.ReadAt(dest, off)
	if err != nil && !errors.Is(err, io.EOF) {
		h.logger.Error("read failed",
			"chain", h.entry.PathSpec().String(),
			"offset", off,
			"error", err,
		)
		return nil, syscall.EIO
	}
	return fuse.ReadResultData(dest[:bytesRead]), 0
}

func (h *objectHandle) Release(ctx context.Context) syscall.Errno {
	if err := h.object.Close(); err != nil {
		h.logger.Warn("closing entry failed",
			"chain", h.entry.PathSpec().String(),
			"error", err,
		)
	}
	return 0
}

func newChild(ctx context.Context, parent *gofuse.Inode, entry vfs.FileEntry, logger *slog.Logger, out *fuse.EntryOut) (*gofuse.Inode, syscall.Errno) {
	if entry.IsDirectory() {
		out.Mode = syscall.S_IFDIR | 0o555
		node := &directoryNode{entry: entry, logger: logger}
		return parent.NewInode(ctx, node, gofuse.StableAttr{Mode: syscall.S_IFDIR}), 0
	}
	if errno := fillAttr(entry, &out.Attr); errno != 0 {
		return nil, errno
	}
	node := &fileNode{entry: entry, logger: logger}
	return parent.NewInode(ctx, node, gofuse.StableAttr{Mode: syscall.S_IFREG}), 0
}

func fillAttr(entry vfs.FileEntry, attr *fuse.Attr) syscall.Errno {
	size, err := entry.Size()
	if err != nil {
		return Errno(err)
	}
	attr.Mode = syscall.S_IFREG | 0o444
	attr.Size = uint64(size)
	attr.Blocks = (attr.Size + 511) / 512
	attr.Blksize = 65536
	return 0
}

// entryName is the file name an entry is listed under. Names that
// cannot appear in a directory (row condition addresses may carry a
// slash) are made safe.
func entryName(entry vfs.FileEntry) string {
	name := entry.Name()
	if name == "" {
		return StreamFileName
	}
	return strings.ReplaceAll(name, "/", "_")
}

// Errno maps a resolver error to the errno the kernel reports.
func Errno(err error) syscall.Errno {
	if errors.Is(err, fs.ErrNotExist) {
		return syscall.ENOENT
	}
	kind, _ := fserr.KindOf(err)
	switch kind {
	case fserr.KindAccess:
		return syscall.EACCES
	case fserr.KindArgument:
		return syscall.EINVAL
	default:
		return syscall.EIO
	}
}
