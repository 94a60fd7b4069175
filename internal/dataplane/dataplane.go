// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

// Package dataplane loads the declarative dataplane list and derives the
// host-side names of each dataplane.
package dataplane

import (
	"fmt"

	"grimm.is/dplink/internal/errors"
)

// Dataplane is one managed network-function workload.
type Dataplane struct {
	Name string `yaml:"name" json:"name"`
	ID   uint32 `yaml:"id" json:"id"`
}

// SandboxName is the pod the dataplane runs in.
func (d Dataplane) SandboxName() string {
	return "dp-" + d.Name
}

// HostLinkName is the veth end that stays in the host namespace.
func (d Dataplane) HostLinkName() string {
	return fmt.Sprintf("dp%d", d.ID)
}

// AltName is the alternate name given to the host link.
func (d Dataplane) AltName() string {
	return "dp-" + d.Name
}

// List is an ordered set of dataplanes with unique names and ids.
type List struct {
	dataplanes []Dataplane
}

// NewList validates dps and wraps them in a List.
func NewList(dps []Dataplane) (*List, error) {
	l := &List{dataplanes: append([]Dataplane(nil), dps...)}
	if errs := l.Validate(); errs.HasErrors() {
		return nil, errors.Wrap(errs, errors.KindValidation, "invalid dataplane list")
	}
	return l, nil
}

// All returns the dataplanes in document order.
func (l *List) All() []Dataplane {
	return append([]Dataplane(nil), l.dataplanes...)
}

// Len returns the number of dataplanes.
func (l *List) Len() int {
	return len(l.dataplanes)
}

// ByName returns the first dataplane called name.
func (l *List) ByName(name string) (Dataplane, error) {
	for _, dp := range l.dataplanes {
		if dp.Name == name {
			return dp, nil
		}
	}
	return Dataplane{}, errors.Attr(
		errors.Errorf(errors.KindNotFound, "dataplane %q not found", name),
		"dataplane", name)
}

// ByID returns the first dataplane with id.
func (l *List) ByID(id uint32) (Dataplane, error) {
	for _, dp := range l.dataplanes {
		if dp.ID == id {
			return dp, nil
		}
	}
	return Dataplane{}, errors.Attr(
		errors.Errorf(errors.KindNotFound, "dataplane with id %d not found", id),
		"dataplane_id", id)
}
