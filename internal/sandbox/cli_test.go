// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package sandbox

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"grimm.is/dplink/internal/errors"
)

type MockCommandExecutor struct {
	mock.Mock
}

func (m *MockCommandExecutor) Run(_ context.Context, name string, args ...string) (Output, error) {
	ret := m.Called(name, args)
	return ret.Get(0).(Output), ret.Error(1)
}

func TestCLIBackend_PodExists(t *testing.T) {
	ctx := context.Background()
	exec := new(MockCommandExecutor)
	b := NewCLIBackendWithExecutor("podman", exec)

	exec.On("Run", "podman", []string{"pod", "exists", "dp-alpha"}).Return(Output{}, nil).Once()
	ok, err := b.PodExists(ctx, "dp-alpha")
	require.NoError(t, err)
	assert.True(t, ok)

	exec.On("Run", "podman", []string{"pod", "exists", "dp-beta"}).Return(Output{ExitCode: 1}, nil).Once()
	ok, err = b.PodExists(ctx, "dp-beta")
	require.NoError(t, err)
	assert.False(t, ok)

	exec.On("Run", "podman", []string{"pod", "exists", "dp-gamma"}).
		Return(Output{ExitCode: 125, Stderr: []byte("Error: cannot connect to podman\n")}, nil).Once()
	_, err = b.PodExists(ctx, "dp-gamma")
	require.Error(t, err)
	assert.Equal(t, errors.KindBackend, errors.GetKind(err))
	assert.Contains(t, err.Error(), "cannot connect to podman")

	exec.AssertExpectations(t)
}

func TestCLIBackend_SpawnFailure(t *testing.T) {
	exec := new(MockCommandExecutor)
	b := NewCLIBackendWithExecutor("podman", exec)
	exec.On("Run", "podman", []string{"pod", "exists", "dp-alpha"}).Return(Output{}, assert.AnError).Once()

	_, err := b.PodExists(context.Background(), "dp-alpha")
	require.Error(t, err)
	assert.Equal(t, errors.KindBackend, errors.GetKind(err))
	assert.ErrorIs(t, err, assert.AnError)
}

func TestCLIBackend_PodCreate(t *testing.T) {
	exec := new(MockCommandExecutor)
	b := NewCLIBackendWithExecutor("podman", exec)

	want := []string{"pod", "create", "--name", "dp-alpha", "--network=none",
		"--label", "dplink.dataplane=alpha", "--label", "dplink.id=1"}
	exec.On("Run", "podman", want).Return(Output{Stdout: []byte("abc123\n")}, nil).Once()

	err := b.PodCreate(context.Background(), "dp-alpha", CreateOptions{
		Network: "none",
		Labels:  map[string]string{"dplink.id": "1", "dplink.dataplane": "alpha"},
	})
	require.NoError(t, err)
	exec.AssertExpectations(t)
}

func TestCLIBackend_PodStartFailure(t *testing.T) {
	exec := new(MockCommandExecutor)
	b := NewCLIBackendWithExecutor("podman", exec)
	exec.On("Run", "podman", []string{"pod", "start", "dp-alpha"}).
		Return(Output{ExitCode: 125, Stderr: []byte("Error: no such pod")}, nil).Once()

	err := b.PodStart(context.Background(), "dp-alpha")
	require.Error(t, err)
	assert.Equal(t, "Error: no such pod", errors.GetAttributes(err)["stderr"])
}

func TestParsePodInspect(t *testing.T) {
	obj := `{"Id":"p1","Name":"dp-alpha","State":"Running","InfraContainerID":"8dfafdbc3a40"}`
	info, err := parsePodInspect([]byte(obj))
	require.NoError(t, err)
	assert.Equal(t, StateRunning, info.State)
	assert.Equal(t, "8dfafdbc3a40", info.InfraContainerID)
	assert.True(t, info.IsRunning())

	arr := "\n[" + obj + "]\n"
	info, err = parsePodInspect([]byte(arr))
	require.NoError(t, err)
	assert.Equal(t, "8dfafdbc3a40", info.InfraContainerID)

	_, err = parsePodInspect([]byte("[]"))
	assert.Equal(t, errors.KindDecode, errors.GetKind(err))

	_, err = parsePodInspect([]byte("not json"))
	assert.Equal(t, errors.KindDecode, errors.GetKind(err))
}

func TestParseContainerInspect(t *testing.T) {
	jsonResp := `[
		{
			"Id": "8dfafdbc3a40",
			"Name": "dp-alpha-infra",
			"State": {"Status": "running", "Running": true, "Pid": 31337}
		}
	]`
	ctr, err := parseContainerInspect([]byte(jsonResp))
	require.NoError(t, err)
	assert.Equal(t, &Container{ID: "8dfafdbc3a40", PID: 31337}, ctr)

	_, err = parseContainerInspect([]byte(`[{"Id":"a"},{"Id":"b"}]`))
	assert.Equal(t, errors.KindDecode, errors.GetKind(err))

	_, err = parseContainerInspect([]byte(`{"Id":"a"}`))
	assert.Equal(t, errors.KindDecode, errors.GetKind(err))
}
