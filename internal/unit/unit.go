// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

// Package unit installs the dataplane unit template and enables per-dataplane
// instances through systemd's D-Bus API.
package unit

import (
	"bytes"
	"context"
	_ "embed"
	"os"
	"path/filepath"

	"github.com/coreos/go-systemd/v22/dbus"
	godbus "github.com/godbus/dbus/v5"
	"github.com/spf13/afero"

	"grimm.is/dplink/internal/errors"
	"grimm.is/dplink/internal/logging"
)

// TemplateName is the file name of the installed template unit.
const TemplateName = "dataplane@.service"

// StartMode replaces conflicting queued jobs.
const StartMode = "replace"

//go:embed dataplane.service.in
var template []byte

// Template returns the embedded unit template.
func Template() []byte {
	return append([]byte(nil), template...)
}

// InstanceName returns dataplane@<name>.service.
func InstanceName(name string) string {
	return "dataplane@" + name + ".service"
}

// Conn is the part of the systemd manager API used here.
// *dbus.Conn from go-systemd satisfies it.
type Conn interface {
	ReloadContext(ctx context.Context) error
	EnableUnitFilesContext(ctx context.Context, files []string, runtime bool, force bool) (bool, []dbus.EnableUnitFileChange, error)
	StartUnitContext(ctx context.Context, name string, mode string, ch chan<- string) (int, error)
	Close()
}

// Dialer opens a manager connection.
type Dialer func(ctx context.Context) (Conn, error)

// SystemBus dials the system bus.
func SystemBus(ctx context.Context) (Conn, error) {
	conn, err := dbus.NewSystemConnectionContext(ctx)
	if err != nil {
		return nil, err
	}
	return conn, nil
}

// Options configures a Manager.
type Options struct {
	// UnitDir is where the template is written.
	UnitDir string
	// RuntimeEnable links instances under /run instead of /etc.
	RuntimeEnable bool
}

// Manager owns the template file and instance enablement.
type Manager struct {
	fs      afero.Fs
	dial    Dialer
	opts    Options
	logger  *logging.Logger
	content []byte
}

// NewManager returns a manager writing to the real filesystem and talking to
// the system bus.
func NewManager(opts Options, logger *logging.Logger) *Manager {
	return NewManagerWithDeps(afero.NewOsFs(), SystemBus, opts, logger)
}

// NewManagerWithDeps creates a manager with injected dependencies.
func NewManagerWithDeps(fs afero.Fs, dial Dialer, opts Options, logger *logging.Logger) *Manager {
	if opts.UnitDir == "" {
		opts.UnitDir = "/etc/systemd/system"
	}
	if logger == nil {
		logger = logging.WithComponent("unit")
	}
	return &Manager{fs: fs, dial: dial, opts: opts, logger: logger, content: template}
}

// TemplatePath is the absolute path of the installed template.
func (m *Manager) TemplatePath() string {
	return filepath.Join(m.opts.UnitDir, TemplateName)
}

// EnsureTemplateInstalled writes the template and reloads systemd, unless the
// file on disk already holds exactly the template bytes. It reports whether
// anything was written.
func (m *Manager) EnsureTemplateInstalled(ctx context.Context) (bool, error) {
	path := m.TemplatePath()

	existing, err := afero.ReadFile(m.fs, path)
	switch {
	case err == nil && bytes.Equal(existing, m.content):
		return false, nil
	case err != nil && !os.IsNotExist(err):
		return false, errors.Wrapf(err, errors.KindInternal, "failed to read %s", path)
	}

	if err := m.fs.MkdirAll(m.opts.UnitDir, 0o755); err != nil {
		return false, errors.Wrapf(err, errors.KindInternal, "failed to create %s", m.opts.UnitDir)
	}
	if err := afero.WriteFile(m.fs, path, m.content, 0o644); err != nil {
		return false, errors.Wrapf(err, errors.KindInternal, "failed to write to %s", path)
	}
	m.logger.Info("Installed unit template", "path", path)

	conn, err := m.dial(ctx)
	if err != nil {
		return true, errors.Wrap(err, errors.KindBackend, "failed D-Bus connection")
	}
	defer conn.Close()

	if err := conn.ReloadContext(ctx); err != nil {
		return true, errors.Wrap(err, errors.KindBackend, "failed to reload systemd")
	}
	return true, nil
}

// EnableAndStart enables dataplane@<name>.service and queues its start. It
// does not wait for the job: success means systemd accepted both calls.
func (m *Manager) EnableAndStart(ctx context.Context, name string) error {
	unit := InstanceName(name)

	conn, err := m.dial(ctx)
	if err != nil {
		return errors.Wrap(err, errors.KindBackend, "failed D-Bus connection")
	}
	defer conn.Close()

	_, changes, err := conn.EnableUnitFilesContext(ctx, []string{unit}, m.opts.RuntimeEnable, false)
	if err != nil {
		return errors.Wrapf(err, busErrorKind(err), "failed to enable %s", unit)
	}
	for _, c := range changes {
		m.logger.Debug("Unit file change", "type", c.Type, "filename", c.Filename, "destination", c.Destination)
	}

	jobID, err := conn.StartUnitContext(ctx, unit, StartMode, nil)
	if err != nil {
		return errors.Wrapf(err, busErrorKind(err), "failed to start %s", unit)
	}
	m.logger.Info("Enabled and started unit", "unit", unit, "job", jobID)
	return nil
}

// busErrorKind maps systemd's D-Bus error names onto error kinds.
func busErrorKind(err error) errors.Kind {
	var name string
	var val godbus.Error
	var ptr *godbus.Error
	switch {
	case errors.As(err, &val):
		name = val.Name
	case errors.As(err, &ptr):
		name = ptr.Name
	}

	switch name {
	case "org.freedesktop.systemd1.NoSuchUnit", "org.freedesktop.DBus.Error.FileNotFound":
		return errors.KindNotFound
	default:
		return errors.KindBackend
	}
}
