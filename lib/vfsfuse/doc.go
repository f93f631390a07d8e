// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package vfsfuse exposes a resolved entry as a read-only FUSE
// filesystem.
//
// A directory entry (an OS directory, a FAKE directory, the table of a
// SQLITE_BLOB layer) becomes the mount root and its sub entries become
// the mount's files and directories. A stream entry (an unlocked AGE
// volume, a decompressed stream) has no listing of its own, so the
// mount root is a directory holding one file named [StreamFileName].
//
// The mount holds one resolver reference on the entry's file system
// from [Mount] until [Mounted.Unmount], so the backend stays open while
// the kernel can reach it. Every write operation fails with EROFS.
package vfsfuse
