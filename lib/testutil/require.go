// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package testutil

import (
	"fmt"
	"testing"
	"time"
)

// RequireReceive returns the next value from ch, failing the test if
// none arrives within timeout or ch is closed first. what describes the
// wait for the failure message.
//
//	spec := testutil.RequireReceive(t, backend.opening, 5*time.Second, "waiting for backend open")
func RequireReceive[T any](t testing.TB, ch <-chan T, timeout time.Duration, what string, args ...any) T {
	t.Helper()
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case value, ok := <-ch:
		if !ok {
			t.Fatalf("%s: channel closed before a value arrived", describe(what, args))
		}
		return value
	case <-timer.C:
		t.Fatalf("%s: nothing received after %v", describe(what, args), timeout)
	}
	panic("unreachable")
}

// RequireClosed waits up to timeout for ch to be closed.
//
//	testutil.RequireClosed(t, done, 5*time.Second, "opener goroutines finished")
func RequireClosed(t testing.TB, ch <-chan struct{}, timeout time.Duration, what string, args ...any) {
	t.Helper()
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case <-ch:
	case <-timer.C:
		t.Fatalf("%s: still open after %v", describe(what, args), timeout)
	}
}

func describe(what string, args []any) string {
	if len(args) == 0 {
		return what
	}
	return fmt.Sprintf(what, args...)
}
