// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

// Package install resolves host paths dplink reads and writes.
package install

import (
	"os"
	"path/filepath"
	"strconv"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "DPLINK"

// Exported variables for convenience and build-time overrides.
var (
	DefaultConfigFile   = "/etc/dataplanes.yaml"
	DefaultUnitDir      = "/etc/systemd/system"
	DefaultPodmanBinary = "podman"
	DefaultPodmanSocket = "/run/podman/podman.sock"

	// Build-time overrides (set via -ldflags)
	BuildDefaultConfigFile = ""
	BuildDefaultUnitDir    = ""
)

func init() {
	if BuildDefaultConfigFile != "" {
		DefaultConfigFile = BuildDefaultConfigFile
	}
	if BuildDefaultUnitDir != "" {
		DefaultUnitDir = BuildDefaultUnitDir
	}
}

// GetConfigFile returns the dataplane list path.
// Priority: DPLINK_CONFIG > DPLINK_PREFIX/dataplanes.yaml > DefaultConfigFile
func GetConfigFile() string {
	if path := os.Getenv(EnvPrefix + "_CONFIG"); path != "" {
		return path
	}
	if prefix := os.Getenv(EnvPrefix + "_PREFIX"); prefix != "" {
		return filepath.Join(prefix, "dataplanes.yaml")
	}
	return DefaultConfigFile
}

// GetUnitDir returns the directory the unit template is installed into.
// Priority: DPLINK_UNIT_DIR > DPLINK_PREFIX/systemd > DefaultUnitDir
func GetUnitDir() string {
	if dir := os.Getenv(EnvPrefix + "_UNIT_DIR"); dir != "" {
		return dir
	}
	if prefix := os.Getenv(EnvPrefix + "_PREFIX"); prefix != "" {
		return filepath.Join(prefix, "systemd")
	}
	return DefaultUnitDir
}

// GetPodmanBinary returns the podman executable used by the CLI backend.
func GetPodmanBinary() string {
	if bin := os.Getenv(EnvPrefix + "_PODMAN"); bin != "" {
		return bin
	}
	return DefaultPodmanBinary
}

// GetPodmanSocket returns the libpod API socket used by the socket backend.
func GetPodmanSocket() string {
	if path := os.Getenv(EnvPrefix + "_PODMAN_SOCKET"); path != "" {
		return path
	}
	return DefaultPodmanSocket
}

// NetNSPath returns the network namespace pseudo-file of pid.
func NetNSPath(pid int) string {
	return filepath.Join("/proc", strconv.Itoa(pid), "ns", "net")
}
