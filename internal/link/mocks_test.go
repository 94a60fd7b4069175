// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package link

import (
	"github.com/stretchr/testify/mock"
	"github.com/vishvananda/netlink"

	"grimm.is/dplink/internal/netns"
	"grimm.is/dplink/internal/netstate"
)

type MockNetlinker struct {
	mock.Mock
}

func (m *MockNetlinker) LinkAdd(link netlink.Link) error {
	return m.Called(link).Error(0)
}

func (m *MockNetlinker) LinkByName(name string) (netlink.Link, error) {
	args := m.Called(name)
	l, _ := args.Get(0).(netlink.Link)
	return l, args.Error(1)
}

func (m *MockNetlinker) LinkByIndex(index int) (netlink.Link, error) {
	args := m.Called(index)
	l, _ := args.Get(0).(netlink.Link)
	return l, args.Error(1)
}

func (m *MockNetlinker) LinkSetNsFd(link netlink.Link, fd int) error {
	return m.Called(link, fd).Error(0)
}

func (m *MockNetlinker) LinkAddAltName(link netlink.Link, name string) error {
	return m.Called(link, name).Error(0)
}

func (m *MockNetlinker) LinkDel(link netlink.Link) error {
	return m.Called(link).Error(0)
}

// staticSnapshot returns the same state for every namespace.
type staticSnapshot struct {
	state *netstate.State
	err   error
	calls int
}

func (s *staticSnapshot) Collect(netns.Namespace) (*netstate.State, error) {
	s.calls++
	return s.state, s.err
}

func notFound() error {
	return netlink.LinkNotFoundError{}
}

func byIndex(index int) interface{} {
	return mock.MatchedBy(func(l netlink.Link) bool {
		return l.Attrs().Index == index
	})
}
