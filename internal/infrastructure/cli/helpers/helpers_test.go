package helpers

import (
	"bytes"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/doeshing/kubeask/internal/domain"
)

func TestNestedMapHelpers(t *testing.T) {
	tree := map[string]interface{}{
		"execution": map[string]interface{}{"max_parallel": 2},
		"name":      "x",
	}

	require.True(t, SetNestedMapValue(tree, []string{"execution", "max_parallel"}, ParseYAMLValue("4")))
	require.True(t, SetNestedMapValue(tree, []string{"name", "nested"}, ParseYAMLValue("true")))
	assert.False(t, SetNestedMapValue(tree, nil, 1))

	value, found := TraverseNestedMap(tree, []string{"execution", "max_parallel"})
	require.True(t, found)
	assert.Equal(t, 4, value)

	value, found = TraverseNestedMap(tree, []string{"name", "nested"})
	require.True(t, found)
	assert.Equal(t, true, value)

	_, found = TraverseNestedMap(tree, []string{"execution", "missing"})
	assert.False(t, found)

	assert.Equal(t, "not: [valid", ParseYAMLValue("not: [valid"))
}

func TestConfigMapRoundTrip(t *testing.T) {
	cfg := domain.Config{
		Preferences: domain.Preferences{DefaultModel: "m"},
		Models:      []domain.ModelDefinition{{Name: "m", Endpoint: "http://localhost:11434"}},
		Execution:   domain.ExecutionSettings{MaxParallel: 3},
	}
	tree, err := ConfigToMap(cfg)
	require.NoError(t, err)
	require.True(t, SetNestedMapValue(tree, []string{"execution", "max_follow_ups"}, 1))

	updated, err := MapToConfig(tree)
	require.NoError(t, err)
	assert.Equal(t, 3, updated.Execution.MaxParallel)
	assert.Equal(t, 1, updated.Execution.MaxFollowUps)
	assert.Equal(t, cfg.Models, updated.Models)
}

func TestRendererPlainOutput(t *testing.T) {
	var buf bytes.Buffer
	r := NewRenderer(&buf)
	assert.False(t, r.Terminal())

	r.Answer(domain.ChatResponse{
		SessionID: "s1",
		Answer:    "## Pods\n\nAll **3** pods are running.\n",
		Executed: []domain.CommandOutput{
			{Command: "kubectl get pods", Result: domain.ExecutionResult{Success: true}},
			{Command: "kubectl logs api", FollowUp: true},
		},
		Rejected:       []domain.RejectedCommand{{Command: "kubectl delete pod api", Reason: "Command verb 'delete' is not in safe list"}},
		Classification: domain.ClassificationResult{QuestionType: domain.QuestionSimpleListing},
		AnalysisType:   domain.AnalysisCommandBased,
	})

	out := buf.String()
	assert.Contains(t, out, "[ran] kubectl get pods")
	assert.Contains(t, out, "[failed] kubectl logs api (follow-up)")
	assert.Contains(t, out, "[rejected] kubectl delete pod api - Command verb 'delete' is not in safe list")
	assert.Contains(t, out, "## Pods", "markdown is left verbatim off a terminal")
	assert.Contains(t, out, "simple_listing · command_based · session s1")
	assert.NotContains(t, out, "\x1b[", "no ANSI codes off a terminal")
}

func TestRendererDoctorAndVerification(t *testing.T) {
	var buf bytes.Buffer
	r := NewRenderer(&buf)

	r.Doctor(domain.HealthReport{Checks: []domain.HealthCheck{
		{Name: "kubectl", Status: domain.HealthOK, Details: "/usr/bin/kubectl"},
		{Name: "History", Status: domain.HealthError, Details: "locked"},
	}})
	r.Verification("kubectl get pods", domain.Accept("Command is safe"))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	assert.Equal(t, []string{
		"[OK] kubectl - /usr/bin/kubectl",
		"[ERROR] History - locked",
		"ACCEPTED kubectl get pods",
		"  Command is safe",
	}, lines)
}

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestSpinner(t *testing.T) {
	var out syncBuffer
	s := NewSpinner(&out, "thinking", true)
	s.interval = time.Millisecond
	s.Start()
	s.Start()
	time.Sleep(10 * time.Millisecond)
	s.Stop()
	s.Stop()
	assert.Contains(t, out.String(), "thinking")
	assert.True(t, strings.HasSuffix(out.String(), "\r\033[K"))

	var quiet syncBuffer
	disabled := NewSpinner(&quiet, "thinking", false)
	disabled.Start()
	disabled.Stop()
	assert.Empty(t, quiet.String())
}
