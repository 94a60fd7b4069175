// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

// Package orchestrator brings dataplanes to the connected state by composing
// the sandbox, link and unit packages.
package orchestrator

import (
	"context"
	"strconv"
	"time"

	"grimm.is/dplink/internal/dataplane"
	"grimm.is/dplink/internal/errors"
	"grimm.is/dplink/internal/link"
	"grimm.is/dplink/internal/logging"
	"grimm.is/dplink/internal/metrics"
	"grimm.is/dplink/internal/netns"
	"grimm.is/dplink/internal/netstate"
	"grimm.is/dplink/internal/sandbox"
)

// Operation names used for metrics.
const (
	OpConnect   = "connect"
	OpEnable    = "enable"
	OpTemplate  = "install_template"
	OpSnapshot  = "snapshot"
	OpEnableAll = "enable_all"
)

// Sandboxes is the subset of *sandbox.Controller the orchestrator needs.
type Sandboxes interface {
	Get(ctx context.Context, name string) (*sandbox.Sandbox, error)
	EnsureExists(ctx context.Context, name string, labels map[string]string) (*sandbox.Sandbox, error)
	EnsureRunning(ctx context.Context, sb *sandbox.Sandbox) error
	OpenNetNS(ctx context.Context, sb *sandbox.Sandbox) (*netns.Handle, error)
}

// Bridger is satisfied by *link.Provisioner.
type Bridger interface {
	Bridge(spec link.BridgeSpec, ns netns.Namespace) (*link.Result, error)
}

// Units is satisfied by *unit.Manager.
type Units interface {
	EnsureTemplateInstalled(ctx context.Context) (bool, error)
	EnableAndStart(ctx context.Context, name string) error
}

// Deps are the collaborators of an Orchestrator.
type Deps struct {
	Dataplanes *dataplane.List
	Sandboxes  Sandboxes
	Bridger    Bridger
	Collector  link.Snapshotter
	Units      Units
	Metrics    *metrics.Registry
	Logger     *logging.Logger
}

// Orchestrator runs reconciliation passes. It holds no state between calls.
type Orchestrator struct {
	dataplanes *dataplane.List
	sandboxes  Sandboxes
	bridger    Bridger
	collector  link.Snapshotter
	units      Units
	metrics    *metrics.Registry
	logger     *logging.Logger
	now        func() time.Time
}

// New creates an orchestrator. Metrics and Logger are optional.
func New(deps Deps) *Orchestrator {
	if deps.Metrics == nil {
		deps.Metrics = metrics.NewRegistry()
	}
	if deps.Logger == nil {
		deps.Logger = logging.WithComponent("orchestrator")
	}
	if deps.Collector == nil {
		deps.Collector = netstate.NewCollector()
	}
	return &Orchestrator{
		dataplanes: deps.Dataplanes,
		sandboxes:  deps.Sandboxes,
		bridger:    deps.Bridger,
		collector:  deps.Collector,
		units:      deps.Units,
		metrics:    deps.Metrics,
		logger:     deps.Logger,
		now:        time.Now,
	}
}

// Metrics returns the registry the orchestrator records into.
func (o *Orchestrator) Metrics() *metrics.Registry {
	return o.metrics
}

// Connect ensures the sandbox of dataplane name exists and runs, then bridges
// its network namespace to the host. Repeating Connect on a connected
// dataplane performs no mutating link operation.
func (o *Orchestrator) Connect(ctx context.Context, name string) (res *link.Result, err error) {
	start := o.now()
	defer func() { o.metrics.Observe(OpConnect, start, err) }()

	dp, err := o.dataplanes.ByName(name)
	if err != nil {
		return nil, err
	}
	log := o.logger.With("dataplane", dp.Name, "id", dp.ID)

	sb, err := o.sandboxes.EnsureExists(ctx, dp.SandboxName(), map[string]string{
		sandbox.LabelDataplane: dp.Name,
		sandbox.LabelID:        strconv.FormatUint(uint64(dp.ID), 10),
	})
	if err != nil {
		return nil, errors.Context(err, "dataplane %s", dp.Name)
	}
	if err := o.sandboxes.EnsureRunning(ctx, sb); err != nil {
		return nil, errors.Context(err, "dataplane %s", dp.Name)
	}

	handle, err := o.sandboxes.OpenNetNS(ctx, sb)
	if err != nil {
		return nil, errors.Context(err, "dataplane %s", dp.Name)
	}
	defer handle.Close()

	res, err = o.bridger.Bridge(link.BridgeSpec{
		HostName:    dp.HostLinkName(),
		SandboxName: link.SandboxIfName,
		AltName:     dp.AltName(),
	}, handle)
	if err != nil {
		log.Error("Failed to bridge sandbox", "error", err)
		return nil, errors.Context(err, "dataplane %s", dp.Name)
	}

	if res.RemovedStale {
		o.metrics.StaleRemoved()
	}
	if res.RemovedStray {
		o.metrics.StaleRemoved()
	}
	if res.Outcome == link.Provisioned {
		o.metrics.VethCreated()
	}
	o.metrics.Connected(dp.Name, o.now())
	log.Info("Dataplane connected", "outcome", res.Outcome.String(), "host_link", dp.HostLinkName())
	return res, nil
}

// EnableAll installs the unit template and enables and starts one instance
// per dataplane, in list order. The first failure aborts the batch.
func (o *Orchestrator) EnableAll(ctx context.Context) (err error) {
	start := o.now()
	defer func() { o.metrics.Observe(OpEnableAll, start, err) }()

	if err := o.installTemplate(ctx); err != nil {
		return err
	}

	for _, dp := range o.dataplanes.All() {
		if err := ctx.Err(); err != nil {
			return errors.Wrap(err, errors.KindInternal, "enable interrupted")
		}
		if err := o.enable(ctx, dp); err != nil {
			return err
		}
	}
	o.logger.Info("Enabled dataplanes", "count", o.dataplanes.Len())
	return nil
}

func (o *Orchestrator) installTemplate(ctx context.Context) (err error) {
	start := o.now()
	defer func() { o.metrics.Observe(OpTemplate, start, err) }()

	written, err := o.units.EnsureTemplateInstalled(ctx)
	if err != nil {
		return errors.Context(err, "install unit template")
	}
	if !written {
		o.logger.Debug("Unit template up to date")
	}
	return nil
}

func (o *Orchestrator) enable(ctx context.Context, dp dataplane.Dataplane) (err error) {
	start := o.now()
	defer func() { o.metrics.Observe(OpEnable, start, err) }()

	if err := o.units.EnableAndStart(ctx, dp.Name); err != nil {
		o.logger.Error("Failed to enable dataplane", "dataplane", dp.Name, "error", err)
		return errors.Context(err, "dataplane %s", dp.Name)
	}
	return nil
}

// Snapshot returns the interfaces inside the sandbox of dataplane name
// without creating or starting anything.
func (o *Orchestrator) Snapshot(ctx context.Context, name string) (state *netstate.State, err error) {
	start := o.now()
	defer func() { o.metrics.Observe(OpSnapshot, start, err) }()

	dp, err := o.dataplanes.ByName(name)
	if err != nil {
		return nil, err
	}
	sb, err := o.sandboxes.Get(ctx, dp.SandboxName())
	if err != nil {
		return nil, errors.Context(err, "dataplane %s", dp.Name)
	}
	handle, err := o.sandboxes.OpenNetNS(ctx, sb)
	if err != nil {
		return nil, errors.Context(err, "dataplane %s", dp.Name)
	}
	defer handle.Close()

	state, err = o.collector.Collect(handle)
	if err != nil {
		return nil, errors.Context(err, "dataplane %s", dp.Name)
	}
	return state, nil
}
