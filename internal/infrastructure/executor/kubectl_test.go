package executor

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeKubectl writes a shell script standing in for kubectl.
func fakeKubectl(t *testing.T, body string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell scripts are not executable on windows")
	}
	path := filepath.Join(t.TempDir(), "kubectl")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+body+"\n"), 0o755))
	return path
}

func TestRunSuccessPassesArgumentsVerbatim(t *testing.T) {
	program := fakeKubectl(t, `for a in "$@"; do echo "[$a]"; done`)
	runner := NewKubectlExecutor(WithProgram(program), WithKubeconfig("/tmp/kc"), WithContext("kind-dev"))

	result := runner.Run(context.Background(), []string{"get", "pods", "-l", "app=a b;c"}, time.Second*5)

	require.True(t, result.Success, result.Stderr)
	assert.Equal(t, 0, result.ReturnCode)
	assert.Equal(t, "[--kubeconfig]\n[/tmp/kc]\n[--context]\n[kind-dev]\n[get]\n[pods]\n[-l]\n[app=a b;c]\n", result.Stdout)
	assert.Equal(t, "kubectl get pods -l app=a b;c", result.Command)
	assert.True(t, result.KubectlAvailable)
	assert.True(t, result.ClusterAccessible)
}

func TestRunNonZeroExit(t *testing.T) {
	program := fakeKubectl(t, `echo 'Error from server (NotFound): pods "x" not found' >&2; exit 1`)

	result := NewKubectlExecutor(WithProgram(program)).Run(context.Background(), []string{"get", "pod", "x"}, time.Second*5)

	assert.False(t, result.Success)
	assert.Equal(t, 1, result.ReturnCode)
	assert.Contains(t, result.Stderr, "NotFound")
	assert.True(t, result.KubectlAvailable, "resource not found is not kubectl missing")
	assert.True(t, result.ClusterAccessible)
	assert.Empty(t, result.Error)
}

func TestRunConnectionError(t *testing.T) {
	program := fakeKubectl(t, `echo 'The connection to the server localhost:8080 was refused - did you specify the right host or port? connection refused' >&2; exit 1`)

	result := NewKubectlExecutor(WithProgram(program)).Run(context.Background(), []string{"get", "pods"}, time.Second*5)

	assert.False(t, result.Success)
	assert.False(t, result.ClusterAccessible)
	assert.Contains(t, result.Error, "Cluster connection error")
}

func TestRunTimeout(t *testing.T) {
	program := fakeKubectl(t, `exec sleep 5`)

	start := time.Now()
	result := NewKubectlExecutor(WithProgram(program)).Run(context.Background(), []string{"get", "pods"}, 100*time.Millisecond)

	assert.Less(t, time.Since(start), 3*time.Second)
	assert.False(t, result.Success)
	assert.Equal(t, -1, result.ReturnCode)
	assert.Equal(t, "Timeout", result.Stderr)
	assert.True(t, result.KubectlAvailable)
}

func TestRunKubectlMissing(t *testing.T) {
	for _, program := range []string{"kubeask-no-such-kubectl", filepath.Join(t.TempDir(), "missing")} {
		result := NewKubectlExecutor(WithProgram(program)).Run(context.Background(), []string{"version"}, time.Second)

		assert.False(t, result.Success, program)
		assert.False(t, result.KubectlAvailable, program)
		assert.Equal(t, -1, result.ReturnCode, program)
		assert.Equal(t, kubectlMissing, result.Error, program)
	}
}
