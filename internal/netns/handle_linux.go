// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

//go:build linux
// +build linux

package netns

import (
	"os"
	"runtime"

	vnetns "github.com/vishvananda/netns"
	"golang.org/x/sys/unix"

	"grimm.is/dplink/internal/errors"
)

// Do runs fn on a fresh goroutine locked to its own OS thread which joins the
// namespace first. The caller's thread never changes namespace. The worker is
// joined before Do returns; a failure to enter the namespace means fn is not run.
func (h *Handle) Do(fn func() error) error {
	if h == nil || h.file == nil {
		return errClosed
	}
	fd := vnetns.NsHandle(h.file.Fd())

	done := make(chan error, 1)
	go func() {
		// Never unlocked: the runtime terminates a locked thread when its
		// goroutine exits, taking the namespace association with it.
		runtime.LockOSThread()

		defer func() {
			if r := recover(); r != nil {
				done <- errors.Errorf(errors.KindInternal, "panic in namespace worker: %v", r)
			}
		}()

		if err := vnetns.Set(fd); err != nil {
			if errors.Is(err, unix.EPERM) {
				done <- errors.Wrapf(err, errors.KindNamespace, "enter network namespace fd %d: CAP_SYS_ADMIN required", int(fd))
				return
			}
			done <- errors.Wrapf(err, errors.KindNamespace, "enter network namespace fd %d", int(fd))
			return
		}
		done <- fn()
	}()

	err := <-done
	runtime.KeepAlive(h.file)
	return err
}

// checkNamespaceFile rejects files that do not live on nsfs.
func checkNamespaceFile(f *os.File) error {
	var st unix.Statfs_t
	if err := unix.Fstatfs(int(f.Fd()), &st); err != nil {
		return errors.Wrap(err, errors.KindNamespace, "statfs")
	}
	if st.Type != unix.NSFS_MAGIC {
		return errors.Errorf(errors.KindNamespace, "%s is not a namespace file", f.Name())
	}
	return nil
}
