// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

//go:build !linux

package netns

import (
	"os"

	"grimm.is/dplink/internal/errors"
)

// Do is unsupported outside Linux.
func (h *Handle) Do(fn func() error) error {
	if h == nil || h.file == nil {
		return errClosed
	}
	return errors.New(errors.KindNamespace, "network namespaces are only supported on linux")
}

func checkNamespaceFile(*os.File) error { return nil }
