// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

// Package sandbox drives pod sandboxes through a container-management backend.
// Sandbox state is never cached: every question goes back to the backend.
package sandbox

import "context"

// State is a pod lifecycle state as reported by the backend.
type State string

const (
	StateCreated  State = "Created"
	StateRunning  State = "Running"
	StateStopped  State = "Stopped"
	StateExited   State = "Exited"
	StateDegraded State = "Degraded"
)

// Sandbox names a pod known to exist.
type Sandbox struct {
	Name string
}

// Info is the decoded result of a pod inspection.
type Info struct {
	State            State  `json:"State"`
	InfraContainerID string `json:"InfraContainerID"`
}

// IsRunning reports whether the pod is running.
func (i *Info) IsRunning() bool {
	return i.State == StateRunning
}

// Container is an inspected container. PID is only meaningful while the
// container runs and must not be kept past the inspection that produced it.
type Container struct {
	ID  string
	PID int
}

// CreateOptions controls pod creation.
type CreateOptions struct {
	// Network is the pod network mode; "none" gives no external connectivity.
	Network string
	Labels  map[string]string
}

// Labels set on every pod dplink creates.
const (
	LabelManagedBy = "dplink.managed-by"
	LabelDataplane = "dplink.dataplane"
	LabelID        = "dplink.id"
)

// DefaultCreateOptions creates pods without networking, marked as ours.
func DefaultCreateOptions() CreateOptions {
	return CreateOptions{
		Network: "none",
		Labels:  map[string]string{LabelManagedBy: "dplink"},
	}
}

// Backend is the container-management strategy. Implementations must report
// "does not exist" as (false, nil) from the Exists methods and reserve errors
// for failures to reach or run the backend.
type Backend interface {
	PodExists(ctx context.Context, name string) (bool, error)
	PodCreate(ctx context.Context, name string, opts CreateOptions) error
	PodStart(ctx context.Context, name string) error
	PodInspect(ctx context.Context, name string) (*Info, error)
	ContainerExists(ctx context.Context, id string) (bool, error)
	ContainerInspect(ctx context.Context, id string) (*Container, error)
}

// containerInspect is the subset of podman's container inspect document we read.
type containerInspect struct {
	ID    string `json:"Id"`
	State struct {
		Status  string `json:"Status"`
		Running bool   `json:"Running"`
		Pid     int    `json:"Pid"`
	} `json:"State"`
}

func (c containerInspect) container() *Container {
	return &Container{ID: c.ID, PID: c.State.Pid}
}
