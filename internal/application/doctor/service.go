// Package doctor checks that kubeask can reach everything it depends on.
package doctor

import (
	"context"
	"fmt"
	"strings"
	"time"

	appconfig "github.com/doeshing/kubeask/internal/application/config"
	"github.com/doeshing/kubeask/internal/domain"
	"github.com/doeshing/kubeask/internal/ports"
)

const clusterProbeTimeout = 5 * time.Second

// KubectlLocator reports where the kubectl binary resolves to.
type KubectlLocator interface {
	Available() (string, error)
}

// KeyChecker reports the variable a model reads its API key from and
// whether it is set.
type KeyChecker func(domain.ModelDefinition) (envVar string, present bool)

type pinger interface {
	Ping(context.Context) error
}

// Service runs environment diagnostics.
type Service struct {
	ConfigProvider ports.ConfigProvider
	Verifier       ports.CommandVerifier
	Kubectl        KubectlLocator
	Executor       ports.CommandExecutor
	Kube           ports.KubeContextReader
	Store          ports.ConversationRepository
	Keys           KeyChecker
}

// Run executes checks and returns a report.
func (s *Service) Run(ctx context.Context) (domain.HealthReport, error) {
	var checks []domain.HealthCheck

	cfg, err := s.ConfigProvider.Load(ctx)
	if err != nil {
		checks = append(checks, fail("Config file", fmt.Sprintf("load failed: %v", err)))
		return domain.HealthReport{Checks: checks}, err
	}
	if err := appconfig.Validate(cfg); err != nil {
		checks = append(checks, fail("Config file", err.Error()))
	} else {
		checks = append(checks, ok("Config file", fmt.Sprintf("loaded %s", s.ConfigProvider.Path())))
	}

	checks = append(checks, s.verifierCheck())
	checks = append(checks, s.kubectlChecks(ctx)...)
	checks = append(checks, s.contextCheck(cfg))
	checks = append(checks, s.historyCheck(ctx))
	checks = append(checks, s.apiCheck(cfg)...)

	return domain.HealthReport{Checks: checks}, nil
}

// verifierCheck runs two known commands through the verifier so a broken
// rules file shows up here rather than mid-conversation.
func (s *Service) verifierCheck() domain.HealthCheck {
	if s.Verifier == nil {
		return warn("Verifier", "not initialized")
	}
	if !s.Verifier.Verify("kubectl get pods").Accepted {
		return fail("Verifier", "rejects a plain read-only command")
	}
	if s.Verifier.Verify("kubectl delete pod probe").Accepted {
		return fail("Verifier", "accepts a mutating command")
	}
	return ok("Verifier", fmt.Sprintf("%d safe verbs", len(s.Verifier.SafeCommandsInfo().SafeVerbs)))
}

func (s *Service) kubectlChecks(ctx context.Context) []domain.HealthCheck {
	if s.Kubectl == nil {
		return []domain.HealthCheck{warn("kubectl", "not checked")}
	}
	path, err := s.Kubectl.Available()
	if err != nil {
		return []domain.HealthCheck{fail("kubectl", err.Error())}
	}
	checks := []domain.HealthCheck{ok("kubectl", path)}
	if s.Executor == nil {
		return checks
	}

	result := s.Executor.Run(ctx, []string{"cluster-info"}, clusterProbeTimeout)
	if result.Success {
		return append(checks, ok("Cluster", "reachable"))
	}
	return append(checks, warn("Cluster", defaultString(firstLine(result.Stderr), result.Error)))
}

func (s *Service) contextCheck(cfg domain.Config) domain.HealthCheck {
	if s.Kube == nil {
		return warn("Kube context", "not checked")
	}
	info, err := s.Kube.Current(cfg.Kubernetes.Kubeconfig, cfg.Kubernetes.Context)
	if err != nil {
		return warn("Kube context", err.Error())
	}
	return ok("Kube context", fmt.Sprintf("%s (namespace %s)", info.Context, info.DisplayNamespace()))
}

func (s *Service) historyCheck(ctx context.Context) domain.HealthCheck {
	if s.Store == nil {
		return warn("History", "not initialized")
	}
	if p, isPinger := s.Store.(pinger); isPinger {
		if err := p.Ping(ctx); err != nil {
			return fail("History", err.Error())
		}
		return ok("History", "sqlite store ready")
	}
	return warn("History", "using jsonl fallback store")
}

func (s *Service) apiCheck(cfg domain.Config) []domain.HealthCheck {
	if s.Keys == nil {
		return nil
	}
	var missing []string
	for _, model := range cfg.Models {
		if envVar, present := s.Keys(model); !present && envVar != "" {
			missing = append(missing, fmt.Sprintf("%s (%s)", envVar, model.Name))
		}
	}
	if len(missing) > 0 {
		return []domain.HealthCheck{warn("API keys", "missing "+strings.Join(missing, ", "))}
	}
	return []domain.HealthCheck{ok("API keys", "detected for configured providers")}
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}

func defaultString(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}

func ok(name, details string) domain.HealthCheck {
	return domain.HealthCheck{Name: name, Status: domain.HealthOK, Details: details}
}

func warn(name, details string) domain.HealthCheck {
	return domain.HealthCheck{Name: name, Status: domain.HealthWarn, Details: details}
}

func fail(name, details string) domain.HealthCheck {
	return domain.HealthCheck{Name: name, Status: domain.HealthError, Details: details}
}
