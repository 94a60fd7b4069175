// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package metrics

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"grimm.is/dplink/internal/errors"
)

func TestObserve(t *testing.T) {
	r := NewRegistry()
	start := time.Now()

	r.Observe("connect", start, nil)
	r.Observe("connect", start, errors.New(errors.KindNotFound, "dataplane missing"))
	r.Observe("connect", start, errors.New(errors.KindNotFound, "dataplane missing"))

	assert.Equal(t, 1.0, testutil.ToFloat64(r.operations.WithLabelValues("connect", "ok")))
	assert.Equal(t, 2.0, testutil.ToFloat64(r.operations.WithLabelValues("connect", "not_found")))
}

func TestCounters(t *testing.T) {
	r := NewRegistry()
	r.VethCreated()
	r.StaleRemoved()
	r.StaleRemoved()

	assert.Equal(t, 1.0, testutil.ToFloat64(r.vethCreated))
	assert.Equal(t, 2.0, testutil.ToFloat64(r.staleRemoved))
}

func TestWriteTextfile(t *testing.T) {
	r := NewRegistry()
	r.VethCreated()
	r.Connected("alpha", time.Unix(1700000000, 0))

	path := filepath.Join(t.TempDir(), "dplink.prom")
	require.NoError(t, r.WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "dplink_veth_pairs_created_total 1")
	assert.Contains(t, string(data), `dplink_last_success_timestamp_seconds{dataplane="alpha"} 1.7e+09`)
}
