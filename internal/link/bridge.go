// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package link

import (
	"grimm.is/dplink/internal/errors"
	"grimm.is/dplink/internal/netns"
)

// SandboxIfName is the name the bridging interface always has inside a sandbox.
const SandboxIfName = "host0"

// BridgeSpec names both ends of a dataplane's veth pair.
type BridgeSpec struct {
	// HostName stays in the host namespace, e.g. "dp1".
	HostName string
	// SandboxName is moved into the sandbox, normally SandboxIfName.
	SandboxName string
	// AltName is attached to the host end, e.g. "dp-alpha".
	AltName string
}

// Outcome describes what Bridge did.
type Outcome int

const (
	// AlreadyConnected means the sandbox already had its bridging interface.
	AlreadyConnected Outcome = iota
	// Provisioned means a new pair was created and moved.
	Provisioned
)

func (o Outcome) String() string {
	switch o {
	case AlreadyConnected:
		return "already_connected"
	case Provisioned:
		return "provisioned"
	default:
		return "unknown"
	}
}

// Result reports the links touched by Bridge.
type Result struct {
	Outcome Outcome
	Host    Ref
	Sandbox Ref
	// RemovedStale is set when a pair left by an interrupted pass was deleted first.
	RemovedStale bool
	// StrayOwner names the host link whose sandbox end was found in the host
	// namespace and deleted. Empty when the owner could not be resolved.
	StrayOwner string
	// RemovedStray is set when such a sandbox end was deleted.
	RemovedStray bool
	// AltNameAdded is set when the host end received its alternate name.
	AltNameAdded bool
}

// Bridge connects the namespace behind ns to the host.
//
// The namespace is snapshotted first; if it already holds spec.SandboxName no
// link is created or moved. Otherwise a pair is created, both ends resolved
// to their indices, the sandbox end moved into ns by descriptor and the host
// end tagged with spec.AltName. ns must stay open until Bridge returns.
//
// A failure after creation returns a KindPartial error and leaves the pair in
// the host namespace. The next pass finds the stale host end and deletes it
// before creating a fresh pair.
func (p *Provisioner) Bridge(spec BridgeSpec, ns netns.Namespace) (*Result, error) {
	if spec.SandboxName == "" {
		spec.SandboxName = SandboxIfName
	}
	log := p.logger.With("host_link", spec.HostName, "sandbox_link", spec.SandboxName)

	state, err := p.collector.Collect(ns)
	if err != nil {
		return nil, errors.Context(err, "snapshot sandbox namespace")
	}
	if state.Has(spec.SandboxName) {
		log.Debug("Sandbox already has bridging interface")
		return p.ensureHostAltName(spec)
	}

	res := &Result{Outcome: Provisioned}

	removed, err := p.RemoveStaleVeth(spec.HostName)
	if err != nil {
		return nil, errors.Context(err, "clear stale host link")
	}
	if removed {
		log.Warn("Removed veth left by an interrupted pass")
		res.RemovedStale = true
	}

	owner, removed, err := p.removeStraySandboxEnd(spec.SandboxName)
	if err != nil {
		return nil, errors.Context(err, "clear stray %s", spec.SandboxName)
	}
	if removed {
		log.Warn("Removed sandbox end left in host namespace by an interrupted pass", "owner", owner)
		res.RemovedStray = true
		res.StrayOwner = owner
	}

	if err := p.CreateVethPair(spec.HostName, spec.SandboxName); err != nil {
		return nil, err
	}
	log.Info("Created veth pair")

	res.Sandbox, err = p.ResolveByName(spec.SandboxName)
	if err != nil {
		return nil, partial(err, spec, "resolve sandbox end")
	}
	res.Host, err = p.ResolveByName(spec.HostName)
	if err != nil {
		return nil, partial(err, spec, "resolve host end")
	}

	if err := p.MoveToNamespace(res.Sandbox, ns); err != nil {
		return nil, partial(err, spec, "move sandbox end")
	}
	log.Info("Moved link into sandbox namespace", "index", res.Sandbox.Index)

	if err := p.AddAltName(res.Host, spec.AltName); err != nil {
		return nil, partial(err, spec, "tag host end")
	}
	res.AltNameAdded = true
	log.Info("Tagged host link", "altname", spec.AltName)

	return res, nil
}

// ensureHostAltName finishes a pass that moved the pair but stopped before
// tagging the host end. It only mutates when the alternate name is missing.
func (p *Provisioner) ensureHostAltName(spec BridgeSpec) (*Result, error) {
	res := &Result{Outcome: AlreadyConnected}
	if spec.AltName == "" {
		return res, nil
	}

	host, err := p.ResolveByName(spec.HostName)
	if err != nil {
		if errors.HasKind(err, errors.KindNotFound) {
			p.logger.Warn("Sandbox is connected but host link is missing", "host_link", spec.HostName)
			return res, nil
		}
		return nil, err
	}
	res.Host = host
	if host.HasAltName(spec.AltName) {
		return res, nil
	}

	if err := p.AddAltName(host, spec.AltName); err != nil {
		return nil, err
	}
	res.AltNameAdded = true
	p.logger.Info("Tagged host link", "host_link", spec.HostName, "altname", spec.AltName)
	return res, nil
}

// removeStraySandboxEnd deletes a veth called name from the host namespace.
// Every dataplane uses the same sandbox end name, so a pass interrupted between
// create and move blocks all other dataplanes until that end is gone. Deleting
// it removes its peer as well. The peer's name is reported when resolvable.
func (p *Provisioner) removeStraySandboxEnd(name string) (string, bool, error) {
	l, err := p.nl.LinkByName(name)
	if err != nil {
		if IsNotFound(err) {
			return "", false, nil
		}
		return "", false, errors.Wrapf(err, errors.KindBackend, "look up link %s", name)
	}
	if l.Type() != "veth" {
		return "", false, errors.Errorf(errors.KindValidation, "link %s exists in host namespace with type %s, refusing to replace it", name, l.Type())
	}

	var owner string
	if idx := l.Attrs().ParentIndex; idx > 0 {
		if peer, err := p.nl.LinkByIndex(idx); err == nil {
			owner = peer.Attrs().Name
		}
	}

	if err := p.nl.LinkDel(l); err != nil {
		err = errors.Wrapf(err, errors.KindBackend, "delete stray veth %s", name)
		return "", false, errors.Attr(err, "owner", owner)
	}
	return owner, true, nil
}

func partial(err error, spec BridgeSpec, step string) error {
	err = errors.Wrapf(err, errors.KindPartial, "%s: veth pair %s/%s partially provisioned", step, spec.HostName, spec.SandboxName)
	return errors.Attr(err, "host_link", spec.HostName)
}
