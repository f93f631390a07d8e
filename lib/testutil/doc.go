// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package testutil provides shared test helpers for strata packages.
//
// [RequireReceive] and [RequireClosed] bound every channel wait in the
// resolver's concurrency tests, so a deadlock fails the test instead of
// hanging it. They are the only wall-clock timeouts in the test suite.
//
// [WriteFile] and [RandomBytes] build on-disk fixtures for backend
// tests: the bytes of images, volumes, and databases that chains
// resolve through.
//
// All helpers call t.Fatalf on failure rather than returning errors.
package testutil
