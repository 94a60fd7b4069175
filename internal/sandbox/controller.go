// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package sandbox

import (
	"context"

	"grimm.is/dplink/internal/errors"
	"grimm.is/dplink/internal/logging"
	"grimm.is/dplink/internal/netns"
)

// Controller drives sandboxes forward: absent -> created -> running.
// It never stops or removes a sandbox.
type Controller struct {
	backend Backend
	opts    CreateOptions
	logger  *logging.Logger

	// openNS opens the namespace of a pid; replaced in tests.
	openNS func(pid int) (*netns.Handle, error)
}

// NewController returns a controller over backend.
func NewController(backend Backend, opts CreateOptions, logger *logging.Logger) *Controller {
	if opts.Network == "" {
		opts.Network = DefaultCreateOptions().Network
	}
	if logger == nil {
		logger = logging.WithComponent("sandbox")
	}
	return &Controller{
		backend: backend,
		opts:    opts,
		logger:  logger,
		openNS:  netns.OpenPID,
	}
}

// Exists reports whether the sandbox exists.
func (c *Controller) Exists(ctx context.Context, name string) (bool, error) {
	ok, err := c.backend.PodExists(ctx, name)
	if err != nil {
		return false, errors.Context(err, "check if sandbox %s exists", name)
	}
	return ok, nil
}

// Get returns the sandbox or a KindNotFound error.
func (c *Controller) Get(ctx context.Context, name string) (*Sandbox, error) {
	ok, err := c.Exists(ctx, name)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, errors.Errorf(errors.KindNotFound, "sandbox %s doesn't exist", name)
	}
	return &Sandbox{Name: name}, nil
}

// EnsureExists creates the sandbox when it is absent. labels are added to the
// controller's own labels at creation; an existing sandbox is not relabelled.
func (c *Controller) EnsureExists(ctx context.Context, name string, labels map[string]string) (*Sandbox, error) {
	ok, err := c.Exists(ctx, name)
	if err != nil {
		return nil, err
	}
	if !ok {
		opts := c.opts
		opts.Labels = make(map[string]string, len(c.opts.Labels)+len(labels))
		for k, v := range c.opts.Labels {
			opts.Labels[k] = v
		}
		for k, v := range labels {
			opts.Labels[k] = v
		}

		c.logger.Info("Creating sandbox", "sandbox", name, "network", opts.Network)
		if err := c.backend.PodCreate(ctx, name, opts); err != nil {
			return nil, errors.Context(err, "create sandbox %s", name)
		}
	}
	return c.Get(ctx, name)
}

// EnsureRunning starts the sandbox unless it already runs.
func (c *Controller) EnsureRunning(ctx context.Context, sb *Sandbox) error {
	info, err := c.Inspect(ctx, sb)
	if err != nil {
		return err
	}
	if info.IsRunning() {
		return nil
	}

	c.logger.Info("Starting sandbox", "sandbox", sb.Name, "state", info.State)
	if err := c.backend.PodStart(ctx, sb.Name); err != nil {
		return errors.Context(err, "start sandbox %s", sb.Name)
	}
	return nil
}

// Inspect queries the backend for the sandbox's current state.
func (c *Controller) Inspect(ctx context.Context, sb *Sandbox) (*Info, error) {
	info, err := c.backend.PodInspect(ctx, sb.Name)
	if err != nil {
		return nil, errors.Context(err, "inspect sandbox %s", sb.Name)
	}
	return info, nil
}

// InfraContainer resolves the container owning the sandbox's namespaces.
func (c *Controller) InfraContainer(ctx context.Context, sb *Sandbox) (*Container, error) {
	info, err := c.Inspect(ctx, sb)
	if err != nil {
		return nil, err
	}
	if info.InfraContainerID == "" {
		return nil, errors.Errorf(errors.KindNotFound, "sandbox %s has no infra container", sb.Name)
	}

	ok, err := c.backend.ContainerExists(ctx, info.InfraContainerID)
	if err != nil {
		return nil, errors.Context(err, "check infra container of %s", sb.Name)
	}
	if !ok {
		return nil, errors.Errorf(errors.KindNotFound, "infra container %s of sandbox %s doesn't exist", info.InfraContainerID, sb.Name)
	}

	ctr, err := c.backend.ContainerInspect(ctx, info.InfraContainerID)
	if err != nil {
		return nil, errors.Context(err, "inspect infra container of %s", sb.Name)
	}
	return ctr, nil
}

// OpenNetNS opens the network namespace of the sandbox's infra container.
// The caller owns the returned handle.
func (c *Controller) OpenNetNS(ctx context.Context, sb *Sandbox) (*netns.Handle, error) {
	ctr, err := c.InfraContainer(ctx, sb)
	if err != nil {
		return nil, err
	}
	if ctr.PID <= 0 {
		return nil, errors.Errorf(errors.KindValidation, "infra container %s of sandbox %s is not running", ctr.ID, sb.Name)
	}

	h, err := c.openNS(ctr.PID)
	if err != nil {
		return nil, errors.Context(err, "open netns of sandbox %s (pid %d)", sb.Name, ctr.PID)
	}
	return h, nil
}
