// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package sandbox

import (
	"bytes"
	"context"
	"encoding/json"
	"os/exec"
	"sort"
	"strings"

	"grimm.is/dplink/internal/errors"
)

// Output is the captured result of a finished command.
type Output struct {
	Stdout   []byte
	Stderr   []byte
	ExitCode int
}

// CommandExecutor runs a command to completion. A non-zero exit is reported
// through Output.ExitCode; the error is reserved for failing to run at all.
type CommandExecutor interface {
	Run(ctx context.Context, name string, args ...string) (Output, error)
}

// RealCommandExecutor runs commands with os/exec.
type RealCommandExecutor struct{}

// Run implements CommandExecutor.
func (RealCommandExecutor) Run(ctx context.Context, name string, args ...string) (Output, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	out := Output{Stdout: stdout.Bytes(), Stderr: stderr.Bytes()}
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			out.ExitCode = exitErr.ExitCode()
			return out, nil
		}
		return out, err
	}
	return out, nil
}

// CLIBackend drives podman as a subprocess.
type CLIBackend struct {
	binary string
	exec   CommandExecutor
}

// NewCLIBackend returns a backend invoking binary (normally "podman").
func NewCLIBackend(binary string) *CLIBackend {
	return NewCLIBackendWithExecutor(binary, RealCommandExecutor{})
}

// NewCLIBackendWithExecutor returns a backend using the given executor.
func NewCLIBackendWithExecutor(binary string, executor CommandExecutor) *CLIBackend {
	if binary == "" {
		binary = "podman"
	}
	return &CLIBackend{binary: binary, exec: executor}
}

func (b *CLIBackend) run(ctx context.Context, args ...string) (Output, error) {
	out, err := b.exec.Run(ctx, b.binary, args...)
	if err != nil {
		return out, errors.Wrapf(err, errors.KindBackend, "execute %s %s", b.binary, strings.Join(args, " "))
	}
	return out, nil
}

func (b *CLIBackend) failure(out Output, args ...string) error {
	err := errors.Errorf(errors.KindBackend, "%s %s failed (exit %d): %s",
		b.binary, strings.Join(args, " "), out.ExitCode, strings.TrimSpace(string(out.Stderr)))
	return errors.Attr(err, "stderr", string(out.Stderr))
}

// exists maps podman's exists exit codes: 0 present, 1 absent, anything
// else is a failure.
func (b *CLIBackend) exists(ctx context.Context, kind, name string) (bool, error) {
	args := []string{kind, "exists", name}
	out, err := b.run(ctx, args...)
	if err != nil {
		return false, err
	}
	switch out.ExitCode {
	case 0:
		return true, nil
	case 1:
		return false, nil
	default:
		return false, b.failure(out, args...)
	}
}

// PodExists implements Backend.
func (b *CLIBackend) PodExists(ctx context.Context, name string) (bool, error) {
	return b.exists(ctx, "pod", name)
}

// ContainerExists implements Backend.
func (b *CLIBackend) ContainerExists(ctx context.Context, id string) (bool, error) {
	return b.exists(ctx, "container", id)
}

// PodCreate implements Backend.
func (b *CLIBackend) PodCreate(ctx context.Context, name string, opts CreateOptions) error {
	args := []string{"pod", "create", "--name", name}
	if opts.Network != "" {
		args = append(args, "--network="+opts.Network)
	}
	keys := make([]string, 0, len(opts.Labels))
	for k := range opts.Labels {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		args = append(args, "--label", k+"="+opts.Labels[k])
	}

	out, err := b.run(ctx, args...)
	if err != nil {
		return err
	}
	if out.ExitCode != 0 {
		return b.failure(out, args...)
	}
	return nil
}

// PodStart implements Backend.
func (b *CLIBackend) PodStart(ctx context.Context, name string) error {
	args := []string{"pod", "start", name}
	out, err := b.run(ctx, args...)
	if err != nil {
		return err
	}
	if out.ExitCode != 0 {
		return b.failure(out, args...)
	}
	return nil
}

// PodInspect implements Backend.
func (b *CLIBackend) PodInspect(ctx context.Context, name string) (*Info, error) {
	args := []string{"pod", "inspect", name}
	out, err := b.run(ctx, args...)
	if err != nil {
		return nil, err
	}
	if out.ExitCode != 0 {
		return nil, b.failure(out, args...)
	}
	return parsePodInspect(out.Stdout)
}

// ContainerInspect implements Backend.
func (b *CLIBackend) ContainerInspect(ctx context.Context, id string) (*Container, error) {
	args := []string{"container", "inspect", id}
	out, err := b.run(ctx, args...)
	if err != nil {
		return nil, err
	}
	if out.ExitCode != 0 {
		return nil, b.failure(out, args...)
	}
	return parseContainerInspect(out.Stdout)
}

// parsePodInspect accepts both the object podman 4 prints and the
// one-element array podman 5 prints.
func parsePodInspect(data []byte) (*Info, error) {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '[' {
		var infos []Info
		if err := json.Unmarshal(data, &infos); err != nil {
			return nil, errors.Wrap(err, errors.KindDecode, "failed to decode pod inspection")
		}
		if len(infos) != 1 {
			return nil, errors.Errorf(errors.KindDecode, "expected 1 pod inspection, got %d", len(infos))
		}
		return &infos[0], nil
	}

	var info Info
	if err := json.Unmarshal(data, &info); err != nil {
		return nil, errors.Wrap(err, errors.KindDecode, "failed to decode pod inspection")
	}
	return &info, nil
}

func parseContainerInspect(data []byte) (*Container, error) {
	var inspections []containerInspect
	if err := json.Unmarshal(data, &inspections); err != nil {
		return nil, errors.Wrap(err, errors.KindDecode, "failed to decode container inspection")
	}
	if len(inspections) != 1 {
		return nil, errors.Errorf(errors.KindDecode, "expected 1 container inspection, got %d", len(inspections))
	}
	return inspections[0].container(), nil
}
