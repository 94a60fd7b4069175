// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"net"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"grimm.is/dplink/internal/errors"
)

const testConfig = `dataplanes:
  - name: alpha
    id: 1
  - name: beta
    id: 2
`

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func run(t *testing.T, args ...string) (int, string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stderr)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetArgs(nil)
	})
	code := execute(context.Background(), rootCmd)
	return code, stdout.String(), stderr.String()
}

func TestList_Table(t *testing.T) {
	path := writeConfig(t, "dataplanes.yaml", testConfig)

	code, out, _ := run(t, "list", "--config", path, "--json=false")
	require.Equal(t, ExitOK, code)
	assert.Contains(t, out, "NAME")
	assert.Regexp(t, `alpha\s+1\s+dp-alpha\s+dp1\s+dp-alpha\s+dataplane@alpha\.service`, out)
	assert.Regexp(t, `beta\s+2\s+dp-beta\s+dp2\s+dp-beta\s+dataplane@beta\.service`, out)
}

func TestList_JSON(t *testing.T) {
	path := writeConfig(t, "dataplanes.yaml", testConfig)

	code, out, _ := run(t, "list", "--config", path, "--json")
	require.Equal(t, ExitOK, code)

	var entries []listEntry
	require.NoError(t, json.Unmarshal([]byte(out), &entries))
	require.Len(t, entries, 2)
	assert.Equal(t, listEntry{
		Name: "alpha", ID: 1, Sandbox: "dp-alpha", HostLink: "dp1", AltName: "dp-alpha", Unit: "dataplane@alpha.service",
	}, entries[0])
}

func TestList_HCL(t *testing.T) {
	path := writeConfig(t, "dataplanes.hcl", `
dataplane "alpha" {
  id = 1
}
`)
	code, out, _ := run(t, "list", "--config", path, "--json=false")
	require.Equal(t, ExitOK, code)
	assert.Contains(t, out, "dataplane@alpha.service")
}

func TestList_DuplicateIsConfigError(t *testing.T) {
	path := writeConfig(t, "dataplanes.yaml", `dataplanes:
  - name: alpha
    id: 1
  - name: alpha2
    id: 1
`)
	code, _, stderr := run(t, "list", "--config", path)
	assert.Equal(t, ExitConfig, code)
	assert.Contains(t, stderr, "duplicate id 1")
}

func TestMissingConfig(t *testing.T) {
	code, _, stderr := run(t, "list", "--config", filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Equal(t, ExitConfig, code)
	assert.Contains(t, stderr, "Command failed")
}

func TestUnknownBackend(t *testing.T) {
	path := writeConfig(t, "dataplanes.yaml", testConfig)

	code, _, stderr := run(t, "setup", "alpha", "--config", path, "--backend", "docker")
	t.Cleanup(func() { opts.backend = backendCLI })
	assert.Equal(t, ExitFailure, code)
	assert.Contains(t, stderr, `unknown backend \"docker\"`)
}

func TestSetup_RequiresName(t *testing.T) {
	code, _, _ := run(t, "setup")
	assert.Equal(t, ExitFailure, code)
}

func TestExitCode(t *testing.T) {
	assert.Equal(t, ExitOK, exitCode(nil))
	assert.Equal(t, ExitFailure, exitCode(errors.New(errors.KindBackend, "podman failed")))

	partial := errors.Context(errors.Wrap(errors.New(errors.KindBackend, "EPERM"), errors.KindPartial, "move"), "dataplane alpha")
	assert.Equal(t, ExitPartial, exitCode(partial))

	cfg := errors.Attr(errors.New(errors.KindDecode, "bad yaml"), "config", "/etc/dataplanes.yaml")
	assert.Equal(t, ExitConfig, exitCode(cfg))
}

func TestMetricsFile(t *testing.T) {
	path := writeConfig(t, "dataplanes.yaml", testConfig)
	metricsPath := filepath.Join(t.TempDir(), "dplink.prom")

	code, _, _ := run(t, "setup", "gamma", "--config", path, "--metrics-file", metricsPath)
	t.Cleanup(func() { opts.metricsFile = "" })
	assert.Equal(t, ExitFailure, code)

	data, err := os.ReadFile(metricsPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), `dplink_operations_total{operation="connect",result="not_found"}`)
}

func TestSyslogForwarding(t *testing.T) {
	pc, err := net.ListenPacket("udp", "127.0.0.1:0")
	require.NoError(t, err)
	defer pc.Close()

	missing := filepath.Join(t.TempDir(), "absent.yaml")
	code, _, _ := run(t, "list", "--config", missing, "--syslog", pc.LocalAddr().String())
	t.Cleanup(func() { opts.syslogHost = "" })
	require.Equal(t, ExitConfig, code)

	require.NoError(t, pc.SetReadDeadline(time.Now().Add(5*time.Second)))
	buf := make([]byte, 8192)
	var record string
	for record == "" {
		n, _, err := pc.ReadFrom(buf)
		require.NoError(t, err, "no syslog record received")
		if msg := string(buf[:n]); strings.Contains(msg, "Command failed") {
			record = msg
		}
	}

	assert.Contains(t, record, "dplink[")
	assert.Regexp(t, `run_id=[0-9a-f-]{36}`, record)
	assert.Contains(t, record, "absent.yaml")
}

func TestSyslogForwarding_BadTarget(t *testing.T) {
	path := writeConfig(t, "dataplanes.yaml", testConfig)

	code, _, _ := run(t, "list", "--config", path, "--syslog", "127.0.0.1:notaport")
	t.Cleanup(func() { opts.syslogHost = "" })
	assert.Equal(t, ExitFailure, code)
}

func TestUnitOptions_DefaultsToRuntimeEnable(t *testing.T) {
	assert.True(t, unitOptions().RuntimeEnable)

	opts.persistent = true
	t.Cleanup(func() { opts.persistent = false })
	assert.False(t, unitOptions().RuntimeEnable)
}
