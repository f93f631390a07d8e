// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package vfs

import (
	"sync"

	"github.com/bureau-foundation/strata/lib/fserr"
)

type phase uint8

const (
	phaseNew phase = iota
	phaseOpen
	phaseClosed
)

// State tracks a FileSystem through new, open, and closed. Closed is
// terminal. The zero value is a new FileSystem.
type State struct {
	mu    sync.Mutex
	phase phase
}

// BeginOpen fails unless the FileSystem has never been opened.
func (s *State) BeginOpen() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch s.phase {
	case phaseOpen:
		return fserr.IOf("file system is already open")
	case phaseClosed:
		return fserr.IOf("file system is closed and cannot be reopened")
	}
	return nil
}

// Opened records a successful Open.
func (s *State) Opened() {
	s.mu.Lock()
	s.phase = phaseOpen
	s.mu.Unlock()
}

// Check fails unless the FileSystem is open.
func (s *State) Check() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.phase != phaseOpen {
		return fserr.IOf("file system is not open")
	}
	return nil
}

// BeginClose moves an open FileSystem to closed. It fails if the
// FileSystem is not open, so backend cleanup runs exactly once.
func (s *State) BeginClose() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.phase != phaseOpen {
		return fserr.IOf("file system is not open")
	}
	s.phase = phaseClosed
	return nil
}
