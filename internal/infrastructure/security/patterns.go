package security

import (
	"regexp"
	"sort"
	"strings"
)

// kubectlProgram is the only program the verifier will ever accept.
const kubectlProgram = "kubectl"

// readOnlyVerbs never mutate cluster state.
var readOnlyVerbs = toSet(
	"get", "describe", "logs", "explain", "top", "auth", "api-versions",
	"cluster-info", "version", "config", "view", "help",
)

// safeFlags is an allow-list. Anything else starting with "-" is rejected.
var safeFlags = toSet(
	"-n", "--namespace",
	"-o", "--output",
	"-w", "--watch",
	"--watch-only",
	"-l", "--labels",
	"-f", "--field-selector",
	"-A", "--all-namespaces",
	"-s", "--show-labels",
	"--show-managed-fields",
	"--sort-by",
	"--selector",
	"--server-side",
	"--chunk-size",
	"-v", "--v",
	"--vmodule",
	"--log-flush-frequency",
	"--log-backtrace-at",
	"--log-dir",
	"--logtostderr",
	"--alsologtostderr",
	"--log-file",
	"--log-file-max-size",
	"--skip-headers",
	"--skip-log-headers",
	"--one-output",
	"--log-json",
	"--short",
	"--client",
	"--server",
)

func toSet(values ...string) map[string]struct{} {
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		set[v] = struct{}{}
	}
	return set
}

// exceptionKind names the benign carve-out a danger pattern may be excused by.
type exceptionKind int

const (
	noException exceptionKind = iota
	// output redirection whose target is /dev/null
	devNullOutput
	// input redirection whose source lives under /dev/
	devInput
)

type dangerPattern struct {
	expr      string
	message   string
	re        *regexp.Regexp
	exception exceptionKind
}

func builtin(expr string, exception exceptionKind) dangerPattern {
	return dangerPattern{
		expr:      expr,
		re:        regexp.MustCompile(`(?i)` + expr),
		exception: exception,
	}
}

// defaultDangerPatterns is scanned in order; the first unexcused match rejects.
var defaultDangerPatterns = []dangerPattern{
	// pipes and chains into a shell or destructive utility
	builtin(`\|\s*(grep|awk|sed|xargs|rm|mv|cp|sh|bash|zsh|fish|python|perl|ruby|php)`, noException),
	builtin(`;\s*(rm|mv|cp|sh|bash|zsh|fish|python|perl|ruby|php)`, noException),
	builtin(`&\s*(rm|mv|cp|sh|bash|zsh|fish|python|perl|ruby|php)`, noException),
	builtin(`&&\s*(rm|mv|cp|sh|bash|zsh|fish|python|perl|ruby|php)`, noException),
	builtin(`\|\|\s*(rm|mv|cp|sh|bash|zsh|fish|python|perl|ruby|php)`, noException),

	// heredocs, longest operator first
	builtin(`<<<`, noException),
	builtin(`<<`, noException),

	// redirection, with or without a space before the target
	builtin(`\s>>\s*`, devNullOutput),
	builtin(`\s2>\s*`, devNullOutput),
	builtin(`\s1>\s*`, devNullOutput),
	builtin(`\s>\s*`, devNullOutput),
	builtin(`\s<\s*`, devInput),

	// command substitution
	builtin(`\$\(`, noException),
	builtin("`.*`", noException),

	// environment expansion
	builtin(`\$HOME`, noException),
	builtin(`\$PATH`, noException),
	builtin(`\$SHELL`, noException),

	// filesystem paths
	builtin(`/etc/`, noException),
	builtin(`/var/`, noException),
	builtin(`/usr/`, noException),
	builtin(`/bin/`, noException),
	builtin(`/sbin/`, noException),
	builtin(`/tmp/`, noException),
	builtin(`~/`, noException),

	// network tools
	builtin(`\bcurl\b`, noException),
	builtin(`\bwget\b`, noException),
	builtin(`\bnc\b`, noException),
	builtin(`\bnetcat\b`, noException),
	builtin(`\btelnet\b`, noException),
	builtin(`\bssh\b`, noException),
	builtin(`\bscp\b`, noException),
	builtin(`\brsync\b`, noException),

	// process control
	builtin(`\bkill\b`, noException),
	builtin(`\bps\b`, noException),
	builtin(`\bpkill\b`, noException),
	builtin(`\bkillall\b`, noException),

	// package managers
	builtin(`\bapt\b`, noException),
	builtin(`\byum\b`, noException),
	builtin(`\bdnf\b`, noException),
	builtin(`\bpacman\b`, noException),
	builtin(`\bbrew\b`, noException),

	// globbing and brace expansion
	builtin(`\*\*`, noException),
	builtin(`\?\(`, noException),
	builtin(`\$\{`, noException),

	// any other redirection or shell control operator; kubectl never needs one
	builtin(`>{1,2}\s*`, devNullOutput),
	builtin(`<\s*`, devInput),
	builtin(`[;&|]`, noException),
}

var (
	devNullTarget = regexp.MustCompile(`^\s*/dev/null(\s|$)`)
	devSource     = regexp.MustCompile(`^\s*/dev/`)
)

// excused reports whether the match ending at end is covered by the pattern's carve-out.
func (p dangerPattern) excused(command string, end int) bool {
	rest := command[end:]
	switch p.exception {
	case devNullOutput:
		return devNullTarget.MatchString(rest)
	case devInput:
		return devSource.MatchString(rest)
	default:
		return false
	}
}

// matchesUnexcused reports whether any match escapes the pattern's carve-out.
func (p dangerPattern) matchesUnexcused(command string) bool {
	for _, loc := range p.re.FindAllStringIndex(command, -1) {
		if !p.excused(command, loc[1]) {
			return true
		}
	}
	return false
}

// placeholderPatterns detect unfilled template values echoed back by an LLM.
var placeholderPatterns = []struct {
	expr string
	re   *regexp.Regexp
}{
	{expr: `<[^>]+>`},
	{expr: `\{[^}]+\}`},
	{expr: `\[[^\]]+\]`},
	{expr: `pod-name`},
	{expr: `namespace-name`},
	{expr: `service-name`},
	{expr: `deployment-name`},
	{expr: `resource-name`},
}

func init() {
	for i := range placeholderPatterns {
		placeholderPatterns[i].re = regexp.MustCompile(`(?i)` + placeholderPatterns[i].expr)
	}
}

var safeCommandExamples = []string{
	"kubectl get pods",
	"kubectl get pods -n default",
	"kubectl describe pod my-pod",
	"kubectl logs my-pod",
	"kubectl get deployments -o wide",
	"kubectl cluster-info",
	"kubectl get nodes",
	"kubectl get services --all-namespaces",
}

func sortedKeys(set map[string]struct{}) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

var (
	sortedVerbs = sortedKeys(readOnlyVerbs)
	sortedFlags = sortedKeys(safeFlags)
	verbList    = strings.Join(sortedVerbs, ", ")
)
