package doctor

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/doeshing/kubeask/internal/domain"
	"github.com/doeshing/kubeask/internal/infrastructure/security"
	"github.com/doeshing/kubeask/internal/ports"
)

type staticConfig struct {
	cfg domain.Config
	err error
}

func (s staticConfig) Load(context.Context) (domain.Config, error) { return s.cfg, s.err }
func (s staticConfig) Path() string                                { return "/tmp/config.yaml" }

type kubectlAt struct {
	path string
	err  error
}

func (k kubectlAt) Available() (string, error) { return k.path, k.err }

type clusterExecutor struct {
	result domain.ExecutionResult
}

func (c clusterExecutor) Run(context.Context, []string, time.Duration) domain.ExecutionResult {
	return c.result
}

type kubeReader struct {
	info domain.ClusterInfo
	err  error
}

func (k kubeReader) Current(string, string) (domain.ClusterInfo, error) { return k.info, k.err }

type pingStore struct {
	ports.ConversationRepository
	err error
}

func (p pingStore) Ping(context.Context) error { return p.err }

func baseConfig() domain.Config {
	return domain.Config{
		Preferences: domain.Preferences{DefaultModel: "router"},
		Models: []domain.ModelDefinition{
			{Name: "router", AuthEnvVar: "ROUTER_KEY"},
			{Name: "offline"},
		},
	}
}

func checksByName(report domain.HealthReport) map[string]domain.HealthCheck {
	out := make(map[string]domain.HealthCheck, len(report.Checks))
	for _, check := range report.Checks {
		out[check.Name] = check
	}
	return out
}

func TestDoctorHealthy(t *testing.T) {
	svc := &Service{
		ConfigProvider: staticConfig{cfg: baseConfig()},
		Verifier:       security.DefaultVerifier(),
		Kubectl:        kubectlAt{path: "/usr/bin/kubectl"},
		Executor:       clusterExecutor{result: domain.ExecutionResult{Success: true, ClusterAccessible: true}},
		Kube:           kubeReader{info: domain.ClusterInfo{Context: "kind-dev"}},
		Store:          pingStore{},
		Keys: func(model domain.ModelDefinition) (string, bool) {
			return model.AuthEnvVar, true
		},
	}

	report, err := svc.Run(context.Background())
	require.NoError(t, err)
	assert.False(t, report.HasErrors())

	checks := checksByName(report)
	for _, name := range []string{"Config file", "Verifier", "kubectl", "Cluster", "Kube context", "History", "API keys"} {
		assert.Equal(t, domain.HealthOK, checks[name].Status, name)
	}
	assert.Equal(t, "kind-dev (namespace default)", checks["Kube context"].Details)
	assert.Equal(t, "/usr/bin/kubectl", checks["kubectl"].Details)
}

func TestDoctorProblems(t *testing.T) {
	svc := &Service{
		ConfigProvider: staticConfig{cfg: baseConfig()},
		Verifier:       security.DefaultVerifier(),
		Kubectl:        kubectlAt{err: errors.New(`exec: "kubectl": executable file not found in $PATH`)},
		Kube:           kubeReader{err: errors.New("no current context")},
		Store:          pingStore{err: errors.New("database is locked")},
		Keys: func(model domain.ModelDefinition) (string, bool) {
			return model.AuthEnvVar, model.AuthEnvVar == ""
		},
	}

	report, err := svc.Run(context.Background())
	require.NoError(t, err)
	assert.True(t, report.HasErrors())

	checks := checksByName(report)
	assert.Equal(t, domain.HealthError, checks["kubectl"].Status)
	assert.NotContains(t, checks, "Cluster", "no cluster probe without kubectl")
	assert.Equal(t, domain.HealthWarn, checks["Kube context"].Status)
	assert.Equal(t, domain.HealthError, checks["History"].Status)
	assert.Equal(t, domain.HealthWarn, checks["API keys"].Status)
	assert.Equal(t, "missing ROUTER_KEY (router)", checks["API keys"].Details)
}

func TestDoctorUnreachableCluster(t *testing.T) {
	svc := &Service{
		ConfigProvider: staticConfig{cfg: baseConfig()},
		Kubectl:        kubectlAt{path: "kubectl"},
		Executor: clusterExecutor{result: domain.ExecutionResult{
			Stderr: "Cluster connection error: The connection to the server localhost:8080 was refused\nmore",
		}},
	}

	report, err := svc.Run(context.Background())
	require.NoError(t, err)
	cluster := checksByName(report)["Cluster"]
	assert.Equal(t, domain.HealthWarn, cluster.Status)
	assert.Equal(t, "Cluster connection error: The connection to the server localhost:8080 was refused", cluster.Details)
}

func TestDoctorInvalidConfig(t *testing.T) {
	cfg := baseConfig()
	cfg.Preferences.DefaultModel = "ghost"
	report, err := (&Service{ConfigProvider: staticConfig{cfg: cfg}}).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, domain.HealthError, checksByName(report)["Config file"].Status)

	_, err = (&Service{ConfigProvider: staticConfig{err: errors.New("unreadable")}}).Run(context.Background())
	assert.Error(t, err)
}
