// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package cmd

import (
	"grimm.is/dplink/internal/dataplane"
	"grimm.is/dplink/internal/errors"
	"grimm.is/dplink/internal/link"
	"grimm.is/dplink/internal/logging"
	"grimm.is/dplink/internal/netstate"
	"grimm.is/dplink/internal/orchestrator"
	"grimm.is/dplink/internal/sandbox"
	"grimm.is/dplink/internal/unit"
)

const (
	backendCLI    = "cli"
	backendSocket = "socket"
)

func loadDataplanes() (*dataplane.List, error) {
	list, err := dataplane.Load(opts.configFile)
	if err != nil {
		return nil, errors.Attr(errors.Context(err, "load dataplanes"), "config", opts.configFile)
	}
	return list, nil
}

func newBackend() (sandbox.Backend, error) {
	switch opts.backend {
	case backendCLI:
		return sandbox.NewCLIBackend(opts.podman), nil
	case backendSocket:
		return sandbox.NewSocketBackend(opts.socket), nil
	default:
		return nil, errors.Errorf(errors.KindValidation, "unknown backend %q (want %s or %s)", opts.backend, backendCLI, backendSocket)
	}
}

func newOrchestrator() (*orchestrator.Orchestrator, error) {
	list, err := loadDataplanes()
	if err != nil {
		return nil, err
	}
	backend, err := newBackend()
	if err != nil {
		return nil, err
	}

	logger := logging.Default()
	return orchestrator.New(orchestrator.Deps{
		Dataplanes: list,
		Sandboxes:  sandbox.NewController(backend, sandbox.DefaultCreateOptions(), logger.WithComponent("sandbox")),
		Bridger:    link.NewProvisioner(logger.WithComponent("link")),
		Collector:  netstate.NewCollector(),
		Units:      unit.NewManager(unitOptions(), logger.WithComponent("unit")),
		Metrics:    registry,
		Logger:     logger.WithComponent("orchestrator"),
	}), nil
}

func unitOptions() unit.Options {
	return unit.Options{
		UnitDir:       opts.unitDir,
		RuntimeEnable: !opts.persistent,
	}
}
