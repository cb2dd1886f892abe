package commands

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/doeshing/kubeask/internal/app"
	"github.com/doeshing/kubeask/internal/domain"
)

func newTestRuntime(t *testing.T) *Runtime {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	rt := &Runtime{Options: app.Options{ConfigPath: filepath.Join(home, "config.yaml")}}
	t.Cleanup(func() { _ = rt.Close() })
	return rt
}

func run(t *testing.T, cmd *cobra.Command, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestVerifyCommand(t *testing.T) {
	rt := newTestRuntime(t)

	out, err := run(t, NewVerifyCommand(rt), "kubectl", "get", "pods", "-n", "default")
	require.NoError(t, err)
	assert.Contains(t, out, "ACCEPTED kubectl get pods -n default")

	out, err = run(t, NewVerifyCommand(rt), "kubectl delete pod api-1")
	assert.ErrorIs(t, err, ErrCommandRejected)
	assert.Contains(t, out, "REJECTED")
}

func TestVerifyCommandJSON(t *testing.T) {
	rt := newTestRuntime(t)

	out, err := run(t, NewVerifyCommand(rt), "--json", "kubectl get nodes")
	require.NoError(t, err)

	var decoded struct {
		Command  string `json:"command"`
		Accepted bool   `json:"accepted"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &decoded))
	assert.Equal(t, "kubectl get nodes", decoded.Command)
	assert.True(t, decoded.Accepted)
}

func TestSafeCommandsJSON(t *testing.T) {
	rt := newTestRuntime(t)

	out, err := run(t, NewSafeCommandsCommand(rt), "--json")
	require.NoError(t, err)

	var info domain.SafeCommandsInfo
	require.NoError(t, json.Unmarshal([]byte(out), &info))
	assert.Contains(t, info.SafeVerbs, "get")
	assert.NotEmpty(t, info.Examples)
}

func TestClassifyCommandWithoutAI(t *testing.T) {
	rt := newTestRuntime(t)

	out, err := run(t, NewClassifyCommand(rt), "--no-ai", "--json", "show", "me", "pods")
	require.NoError(t, err)

	var result domain.ClassificationResult
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	assert.Equal(t, domain.QuestionSimpleListing, result.QuestionType)
	assert.Equal(t, domain.MethodKeywordContext, result.ClassificationMethod)
}

func TestVersionCommand(t *testing.T) {
	out, err := run(t, NewVersionCommand())
	require.NoError(t, err)
	assert.Contains(t, out, "kubeask version dev")
	assert.Contains(t, out, "Go version:")
}

func TestConfigCommands(t *testing.T) {
	rt := newTestRuntime(t)

	out, err := run(t, NewConfigCommand(rt), "path")
	require.NoError(t, err)
	assert.Equal(t, rt.Options.ConfigPath+"\n", out)

	_, err = run(t, NewConfigCommand(rt), "set", "execution.max_parallel", "2")
	require.NoError(t, err)

	out, err = run(t, NewConfigCommand(rt), "get", "--key", "execution.max_parallel")
	require.NoError(t, err)
	assert.Equal(t, "2\n", out)

	_, err = run(t, NewConfigCommand(rt), "get", "--key", "execution.nope")
	assert.Error(t, err)

	_, err = run(t, NewConfigCommand(rt), "get")
	assert.EqualError(t, err, ErrKeyRequired)

	out, err = run(t, NewConfigCommand(rt), "validate")
	require.NoError(t, err)
	assert.Contains(t, out, MsgConfigurationValid)

	_, err = run(t, NewConfigCommand(rt), "init")
	assert.Error(t, err, "init refuses to overwrite without --force")
}

func TestConfigSetRejectsInvalidValue(t *testing.T) {
	rt := newTestRuntime(t)

	_, err := run(t, NewConfigCommand(rt), "set", "execution.max_parallel", "-3")
	assert.Error(t, err)

	out, err := run(t, NewConfigCommand(rt), "get", "--key", "execution.max_parallel")
	require.NoError(t, err)
	assert.NotEqual(t, "-3\n", out, "invalid values are never saved")
}

func TestHistoryCommands(t *testing.T) {
	rt := newTestRuntime(t)

	out, err := run(t, NewHistoryCommand(rt), "sessions")
	require.NoError(t, err)
	assert.Contains(t, out, "No conversations recorded yet.")

	_, err = run(t, NewHistoryCommand(rt), "clear")
	assert.Error(t, err)

	out, err = run(t, NewHistoryCommand(rt), "clear", "--all")
	require.NoError(t, err)
	assert.Contains(t, out, MsgHistoryCleared)

	_, err = run(t, NewHistoryCommand(rt), "prune", "--days", "0")
	assert.EqualError(t, err, ErrInvalidRetainDays)

	out, err = run(t, NewHistoryCommand(rt), "prune", "--days", "7")
	require.NoError(t, err)
	assert.Contains(t, out, "Removed 0 session(s)")
}

func TestCacheCommands(t *testing.T) {
	rt := newTestRuntime(t)

	out, err := run(t, NewCacheCommand(rt), "stats")
	require.NoError(t, err)
	assert.Contains(t, out, "Entries:   0")

	out, err = run(t, NewCacheCommand(rt), "clear")
	require.NoError(t, err)
	assert.Contains(t, out, msgCacheCleared)
}

func TestModelsCommands(t *testing.T) {
	rt := newTestRuntime(t)

	out, err := run(t, NewModelsCommand(rt), "list")
	require.NoError(t, err)
	assert.Contains(t, out, "NAME")
	assert.Contains(t, out, "offline")

	_, err = run(t, NewModelsCommand(rt), "use", "offline")
	require.NoError(t, err)
	out, err = run(t, NewConfigCommand(rt), "get", "--key", "preferences.default_model")
	require.NoError(t, err)
	assert.Equal(t, "offline\n", out)

	_, err = run(t, NewModelsCommand(rt), "use", "missing")
	assert.Error(t, err)

	out, err = run(t, NewModelsCommand(rt), "add", "--name", "local", "--endpoint", "http://localhost:11434/api/chat", "--model-id", "qwen-test")
	require.NoError(t, err)
	assert.Contains(t, out, "Model local added.")

	_, err = run(t, NewModelsCommand(rt), "add", "--name", "local", "--model-id", "llama3")
	assert.Error(t, err, "names are unique")

	_, err = run(t, NewModelsCommand(rt), "remove", "local")
	require.NoError(t, err)
	out, err = run(t, NewModelsCommand(rt), "list")
	require.NoError(t, err)
	assert.NotContains(t, out, "qwen-test")
}
