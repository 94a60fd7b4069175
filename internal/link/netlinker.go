// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package link

import (
	"github.com/vishvananda/netlink"
)

// Netlinker is the slice of the kernel link API the provisioner drives.
// It operates in the host namespace of the calling thread.
type Netlinker interface {
	LinkAdd(link netlink.Link) error
	LinkByName(name string) (netlink.Link, error)
	LinkByIndex(index int) (netlink.Link, error)
	LinkSetNsFd(link netlink.Link, fd int) error
	LinkAddAltName(link netlink.Link, name string) error
	LinkDel(link netlink.Link) error
}

// RealNetlinker calls vishvananda/netlink.
type RealNetlinker struct{}

func (RealNetlinker) LinkAdd(link netlink.Link) error { return netlink.LinkAdd(link) }

func (RealNetlinker) LinkByName(name string) (netlink.Link, error) { return netlink.LinkByName(name) }

func (RealNetlinker) LinkByIndex(index int) (netlink.Link, error) {
	return netlink.LinkByIndex(index)
}

func (RealNetlinker) LinkSetNsFd(link netlink.Link, fd int) error {
	return netlink.LinkSetNsFd(link, fd)
}

func (RealNetlinker) LinkAddAltName(link netlink.Link, name string) error {
	return netlink.LinkAddAltName(link, name)
}

func (RealNetlinker) LinkDel(link netlink.Link) error { return netlink.LinkDel(link) }

// DefaultNetlinker is the default RealNetlinker instance.
var DefaultNetlinker Netlinker = RealNetlinker{}
