// Package executor runs verified kubectl commands without a shell.
package executor

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os/exec"
	"strings"
	"time"

	"github.com/doeshing/kubeask/internal/domain"
	"github.com/doeshing/kubeask/internal/ports"
)

const defaultProgram = "kubectl"

// waitDelay bounds how long Run waits for output pipes after a kill.
const waitDelay = 500 * time.Millisecond

const kubectlMissing = "kubectl not found - please install kubectl or ensure it's in PATH"

// connectionErrors mark a kubectl failure as a cluster reachability problem.
var connectionErrors = []string{
	"unable to connect",
	"connection refused",
	"no configuration",
	"invalid configuration",
}

// KubectlExecutor runs kubectl directly with an argument list.
type KubectlExecutor struct {
	program    string
	kubeconfig string
	context    string
	logger     ports.Logger
}

// Option customises the executor.
type Option func(*KubectlExecutor)

// WithProgram overrides the kubectl binary (path or name on PATH).
func WithProgram(program string) Option {
	return func(e *KubectlExecutor) {
		if program != "" {
			e.program = program
		}
	}
}

// WithKubeconfig prepends --kubeconfig to every invocation.
func WithKubeconfig(path string) Option {
	return func(e *KubectlExecutor) {
		e.kubeconfig = path
	}
}

// WithContext prepends --context to every invocation.
func WithContext(name string) Option {
	return func(e *KubectlExecutor) {
		e.context = name
	}
}

func WithLogger(logger ports.Logger) Option {
	return func(e *KubectlExecutor) {
		e.logger = logger
	}
}

// NewKubectlExecutor builds an executor for the kubectl on PATH.
func NewKubectlExecutor(opts ...Option) *KubectlExecutor {
	e := &KubectlExecutor{program: defaultProgram}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Run implements ports.CommandExecutor. args excludes the program name.
// Failures are reported in the result, never as a panic or error.
func (e *KubectlExecutor) Run(ctx context.Context, args []string, timeout time.Duration) domain.ExecutionResult {
	if timeout <= 0 {
		timeout = domain.DefaultCommandTimeout
	}
	full := e.arguments(args)
	display := strings.Join(append([]string{defaultProgram}, args...), " ")

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, e.program, full...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	cmd.WaitDelay = waitDelay

	start := time.Now()
	err := cmd.Run()
	duration := time.Since(start).Milliseconds()

	result := domain.ExecutionResult{
		Command:           display,
		Stdout:            stdout.String(),
		Stderr:            stderr.String(),
		DurationMS:        duration,
		KubectlAvailable:  true,
		ClusterAccessible: true,
	}

	switch {
	case err == nil:
		result.Success = true
	case errors.Is(err, exec.ErrNotFound), errors.Is(err, fs.ErrNotExist):
		result.KubectlAvailable = false
		result.ClusterAccessible = false
		result.ReturnCode = -1
		result.Stdout = ""
		result.Stderr = "kubectl command not found"
		result.Error = kubectlMissing
	case errors.Is(ctx.Err(), context.DeadlineExceeded):
		result.ReturnCode = -1
		result.Stdout = ""
		result.Stderr = "Timeout"
		result.Error = fmt.Sprintf("Command timed out after %s", timeout)
	default:
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			result.ReturnCode = exitErr.ExitCode()
		} else {
			result.ReturnCode = -1
			result.Error = err.Error()
		}
		if isConnectionError(result.Stderr) {
			result.ClusterAccessible = false
			result.Stdout = ""
			result.Error = "Cluster connection error: " + strings.TrimSpace(result.Stderr)
		}
	}

	e.log(result)
	return result
}

func (e *KubectlExecutor) arguments(args []string) []string {
	full := make([]string, 0, len(args)+4)
	if e.kubeconfig != "" {
		full = append(full, "--kubeconfig", e.kubeconfig)
	}
	if e.context != "" {
		full = append(full, "--context", e.context)
	}
	return append(full, args...)
}

func (e *KubectlExecutor) log(result domain.ExecutionResult) {
	if e.logger == nil {
		return
	}
	fields := map[string]interface{}{
		"command":     result.Command,
		"return_code": result.ReturnCode,
		"duration_ms": result.DurationMS,
	}
	if result.Success {
		e.logger.Debug("kubectl finished", fields)
		return
	}
	fields["error"] = result.Error
	e.logger.Warn("kubectl failed", fields)
}

// Available reports the resolved kubectl path.
func (e *KubectlExecutor) Available() (string, error) {
	return exec.LookPath(e.program)
}

func isConnectionError(stderr string) bool {
	lower := strings.ToLower(stderr)
	for _, phrase := range connectionErrors {
		if strings.Contains(lower, phrase) {
			return true
		}
	}
	return false
}

var _ ports.CommandExecutor = (*KubectlExecutor)(nil)
