// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

// Package netns runs work inside a kernel network namespace referenced by an
// open descriptor, without moving the calling goroutine's thread.
package netns

import (
	"os"

	"grimm.is/dplink/internal/errors"
	"grimm.is/dplink/internal/install"
)

// Namespace is a network namespace work can be scheduled into.
type Namespace interface {
	// Fd returns the open namespace descriptor. It is valid until Close.
	Fd() int
	// Do runs fn inside the namespace and returns its error.
	Do(fn func() error) error
}

// Handle owns one open descriptor to a namespace pseudo-file.
type Handle struct {
	file *os.File
}

// Open opens the namespace file at path read-only.
func Open(path string) (*Handle, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrapf(err, errors.KindNotFound, "open netns %s", path)
		}
		return nil, errors.Wrapf(err, errors.KindNamespace, "open netns %s", path)
	}
	if err := checkNamespaceFile(f); err != nil {
		f.Close()
		return nil, errors.Context(err, "open netns %s", path)
	}
	return &Handle{file: f}, nil
}

// OpenPID opens /proc/<pid>/ns/net.
func OpenPID(pid int) (*Handle, error) {
	if pid <= 0 {
		return nil, errors.Errorf(errors.KindValidation, "invalid pid %d", pid)
	}
	return Open(install.NetNSPath(pid))
}

// FromFile takes ownership of an already open namespace file.
func FromFile(f *os.File) *Handle {
	return &Handle{file: f}
}

// Fd returns the raw descriptor, or -1 once closed.
func (h *Handle) Fd() int {
	if h == nil || h.file == nil {
		return -1
	}
	return int(h.file.Fd())
}

// Close releases the descriptor. Closing twice is a no-op.
func (h *Handle) Close() error {
	if h == nil || h.file == nil {
		return nil
	}
	err := h.file.Close()
	h.file = nil
	return err
}

// Run is Do for work that produces a value.
func Run[T any](ns Namespace, fn func() (T, error)) (T, error) {
	var out T
	err := ns.Do(func() error {
		v, err := fn()
		if err != nil {
			return err
		}
		out = v
		return nil
	})
	return out, err
}

var errClosed = errors.New(errors.KindNamespace, "network namespace handle is closed")
