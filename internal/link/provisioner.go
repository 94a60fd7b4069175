// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

// Package link creates the veth pairs that bridge a dataplane sandbox to the host.
package link

import (
	"github.com/vishvananda/netlink"

	"grimm.is/dplink/internal/errors"
	"grimm.is/dplink/internal/logging"
	"grimm.is/dplink/internal/netns"
	"grimm.is/dplink/internal/netstate"
)

// Ref identifies a host-visible link.
type Ref struct {
	Index    int
	Name     string
	AltNames []string
}

// HasAltName reports whether name is among the link's alternate names.
func (r Ref) HasAltName(name string) bool {
	for _, alt := range r.AltNames {
		if alt == name {
			return true
		}
	}
	return false
}

// byIndex builds a link value the kernel resolves by ifindex only.
func (r Ref) byIndex() netlink.Link {
	return &netlink.Device{LinkAttrs: netlink.LinkAttrs{Index: r.Index}}
}

// Snapshotter reads the interfaces of a namespace.
type Snapshotter interface {
	Collect(ns netns.Namespace) (*netstate.State, error)
}

// Provisioner manages veth pairs in the host namespace.
type Provisioner struct {
	nl        Netlinker
	collector Snapshotter
	logger    *logging.Logger
}

// NewProvisioner returns a provisioner using the real kernel interfaces.
func NewProvisioner(logger *logging.Logger) *Provisioner {
	return NewProvisionerWithDeps(DefaultNetlinker, netstate.NewCollector(), logger)
}

// NewProvisionerWithDeps creates a provisioner with injected dependencies.
func NewProvisionerWithDeps(nl Netlinker, collector Snapshotter, logger *logging.Logger) *Provisioner {
	if logger == nil {
		logger = logging.WithComponent("link")
	}
	return &Provisioner{nl: nl, collector: collector, logger: logger}
}

// CreateVethPair creates a veth pair named nameA and nameB in the host namespace.
func (p *Provisioner) CreateVethPair(nameA, nameB string) error {
	attrs := netlink.NewLinkAttrs()
	attrs.Name = nameA
	veth := &netlink.Veth{LinkAttrs: attrs, PeerName: nameB}

	if err := p.nl.LinkAdd(veth); err != nil {
		return errors.Attr(
			errors.Wrapf(err, errors.KindBackend, "add veth pair %s/%s", nameA, nameB),
			"link", nameA)
	}
	return nil
}

// ResolveByName looks a link up by name. A missing link yields a KindNotFound
// error; anything else is a KindBackend error.
func (p *Provisioner) ResolveByName(name string) (Ref, error) {
	l, err := p.nl.LinkByName(name)
	if err != nil {
		if IsNotFound(err) {
			return Ref{}, errors.Wrapf(err, errors.KindNotFound, "link %s not found", name)
		}
		return Ref{}, errors.Wrapf(err, errors.KindBackend, "look up link %s", name)
	}
	attrs := l.Attrs()
	return Ref{Index: attrs.Index, Name: attrs.Name, AltNames: attrs.AltNames}, nil
}

// MoveToNamespace reassigns ref to the namespace behind ns. The link is
// addressed by index and the namespace by its open descriptor.
func (p *Provisioner) MoveToNamespace(ref Ref, ns netns.Namespace) error {
	fd := ns.Fd()
	if fd < 0 {
		return errors.Errorf(errors.KindNamespace, "move %s: namespace handle is closed", ref.Name)
	}
	if err := p.nl.LinkSetNsFd(ref.byIndex(), fd); err != nil {
		return errors.Wrapf(err, errors.KindBackend, "move link %s (index %d) to netns fd %d", ref.Name, ref.Index, fd)
	}
	return nil
}

// AddAltName attaches altname to ref without changing its primary name.
func (p *Provisioner) AddAltName(ref Ref, altname string) error {
	if err := p.nl.LinkAddAltName(ref.byIndex(), altname); err != nil {
		return errors.Wrapf(err, errors.KindBackend, "add altname %s to %s", altname, ref.Name)
	}
	return nil
}

// RemoveStaleVeth deletes the veth called name from the host namespace if one
// exists. Deleting either end of a pair removes its peer too. It reports
// whether anything was deleted. Links of other types are left alone and
// reported as a conflict.
func (p *Provisioner) RemoveStaleVeth(name string) (bool, error) {
	l, err := p.nl.LinkByName(name)
	if err != nil {
		if IsNotFound(err) {
			return false, nil
		}
		return false, errors.Wrapf(err, errors.KindBackend, "look up link %s", name)
	}
	if l.Type() != "veth" {
		return false, errors.Errorf(errors.KindValidation, "link %s exists with type %s, refusing to replace it", name, l.Type())
	}
	if err := p.nl.LinkDel(l); err != nil {
		return false, errors.Wrapf(err, errors.KindBackend, "delete stale veth %s", name)
	}
	return true, nil
}

// IsNotFound reports whether err is netlink's link-not-found error.
func IsNotFound(err error) bool {
	var nf netlink.LinkNotFoundError
	return errors.As(err, &nf)
}
