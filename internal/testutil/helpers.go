// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package testutil

import (
	"os"
	"testing"
)

// RequireVM skips the test if the DPLINK_VM_TEST environment variable is not set.
// Tests that create links or enter namespaces need CAP_NET_ADMIN and
// CAP_SYS_ADMIN and only run in a disposable VM.
func RequireVM(t *testing.T) {
	t.Helper()
	if os.Getenv("DPLINK_VM_TEST") == "" {
		t.Skip("Skipping test: requires DPLINK_VM_TEST environment")
	}
}

// FakeNamespace runs work on the calling goroutine and reports a fixed fd.
// It stands in for a netns.Handle in unit tests.
type FakeNamespace struct {
	FD       int
	EnterErr error
	Calls    int
}

// Fd returns the configured descriptor.
func (f *FakeNamespace) Fd() int { return f.FD }

// Do runs fn unless EnterErr is set.
func (f *FakeNamespace) Do(fn func() error) error {
	f.Calls++
	if f.EnterErr != nil {
		return f.EnterErr
	}
	return fn()
}
