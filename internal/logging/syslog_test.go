// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package logging

import (
	"io"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSyslogTarget(t *testing.T) {
	cfg, err := ParseSyslogTarget("logs.example.net")
	require.NoError(t, err)
	assert.Equal(t, "logs.example.net", cfg.Host)
	assert.Equal(t, 514, cfg.Port)
	assert.Equal(t, "udp", cfg.Protocol)
	assert.Equal(t, "dplink", cfg.Tag)

	cfg, err = ParseSyslogTarget("127.0.0.1:1514")
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1", cfg.Host)
	assert.Equal(t, 1514, cfg.Port)

	cfg, err = ParseSyslogTarget("[::1]:1514")
	require.NoError(t, err)
	assert.Equal(t, "::1", cfg.Host)

	_, err = ParseSyslogTarget("127.0.0.1:notaport")
	assert.Error(t, err)
	_, err = ParseSyslogTarget("")
	assert.Error(t, err)
}

func TestNewSyslogWriter_MissingHost(t *testing.T) {
	_, err := NewSyslogWriter(DefaultSyslogConfig())
	assert.Error(t, err)
}

func TestNewSyslogWriter_DeliversOverUDP(t *testing.T) {
	pc, err := net.ListenPacket("udp", "127.0.0.1:0")
	require.NoError(t, err)
	defer pc.Close()

	cfg, err := ParseSyslogTarget(pc.LocalAddr().String())
	require.NoError(t, err)
	w, err := NewSyslogWriter(cfg)
	require.NoError(t, err)
	defer w.Close()

	logger := New(Config{Output: io.Discard, Extra: w})
	logger.Info("Dataplane connected", "dataplane", "alpha")

	require.NoError(t, pc.SetReadDeadline(time.Now().Add(5*time.Second)))
	buf := make([]byte, 4096)
	n, _, err := pc.ReadFrom(buf)
	require.NoError(t, err)

	msg := string(buf[:n])
	assert.Contains(t, msg, "dplink[")
	assert.Contains(t, msg, `msg="Dataplane connected"`)
	assert.Contains(t, msg, "dataplane=alpha")
}
