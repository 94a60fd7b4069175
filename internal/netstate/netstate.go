// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

// Package netstate snapshots the interfaces of a network namespace.
package netstate

import (
	"sort"

	"github.com/vishvananda/netlink"

	"grimm.is/dplink/internal/errors"
	"grimm.is/dplink/internal/netns"
)

// Interface describes one link as seen inside the namespace.
type Interface struct {
	Name         string   `json:"name"`
	Index        int      `json:"index"`
	Type         string   `json:"type"`
	MTU          int      `json:"mtu"`
	HardwareAddr string   `json:"hardware_addr,omitempty"`
	OperState    string   `json:"oper_state"`
	AltNames     []string `json:"alt_names,omitempty"`
	Addresses    []string `json:"addresses,omitempty"`
}

// State is a read-only snapshot of a namespace's interfaces keyed by name.
type State struct {
	ifaces map[string]Interface
}

// NewState builds a snapshot from ifaces. Later duplicates win.
func NewState(ifaces ...Interface) *State {
	s := &State{ifaces: make(map[string]Interface, len(ifaces))}
	for _, iface := range ifaces {
		s.ifaces[iface.Name] = iface
	}
	return s
}

// Has reports whether an interface called name exists.
func (s *State) Has(name string) bool {
	_, ok := s.ifaces[name]
	return ok
}

// Get returns the interface called name.
func (s *State) Get(name string) (Interface, bool) {
	iface, ok := s.ifaces[name]
	return iface, ok
}

// Names returns the interface names in sorted order.
func (s *State) Names() []string {
	names := make([]string, 0, len(s.ifaces))
	for name := range s.ifaces {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Interfaces returns all interfaces ordered by name.
func (s *State) Interfaces() []Interface {
	out := make([]Interface, 0, len(s.ifaces))
	for _, name := range s.Names() {
		out = append(out, s.ifaces[name])
	}
	return out
}

// Len returns the number of interfaces.
func (s *State) Len() int {
	return len(s.ifaces)
}

// Lister is the subset of netlink the collector needs.
type Lister interface {
	LinkList() ([]netlink.Link, error)
	AddrList(link netlink.Link, family int) ([]netlink.Addr, error)
}

// RealLister calls the package-level netlink functions, which open their
// sockets in the namespace of the calling thread.
type RealLister struct{}

func (RealLister) LinkList() ([]netlink.Link, error) { return netlink.LinkList() }

func (RealLister) AddrList(link netlink.Link, family int) ([]netlink.Addr, error) {
	return netlink.AddrList(link, family)
}

// Collector produces snapshots.
type Collector struct {
	nl Lister
}

// NewCollector returns a collector backed by netlink.
func NewCollector() *Collector {
	return &Collector{nl: RealLister{}}
}

// NewCollectorWithLister returns a collector using nl.
func NewCollectorWithLister(nl Lister) *Collector {
	return &Collector{nl: nl}
}

// Collect snapshots the interfaces of ns. Queries run inside ns.
func (c *Collector) Collect(ns netns.Namespace) (*State, error) {
	state, err := netns.Run(ns, c.collectHere)
	if err != nil {
		return nil, errors.Context(err, "collect network state")
	}
	return state, nil
}

// collectHere snapshots the namespace of the current thread.
func (c *Collector) collectHere() (*State, error) {
	links, err := c.nl.LinkList()
	if err != nil {
		return nil, errors.Wrap(err, errors.KindBackend, "list links")
	}

	ifaces := make([]Interface, 0, len(links))
	for _, link := range links {
		attrs := link.Attrs()
		iface := Interface{
			Name:      attrs.Name,
			Index:     attrs.Index,
			Type:      link.Type(),
			MTU:       attrs.MTU,
			OperState: attrs.OperState.String(),
			AltNames:  append([]string(nil), attrs.AltNames...),
		}
		if len(attrs.HardwareAddr) > 0 {
			iface.HardwareAddr = attrs.HardwareAddr.String()
		}

		addrs, err := c.nl.AddrList(link, netlink.FAMILY_ALL)
		if err != nil {
			return nil, errors.Wrapf(err, errors.KindBackend, "list addresses of %s", attrs.Name)
		}
		for _, addr := range addrs {
			if addr.IPNet != nil {
				iface.Addresses = append(iface.Addresses, addr.IPNet.String())
			}
		}
		ifaces = append(ifaces, iface)
	}
	return NewState(ifaces...), nil
}
