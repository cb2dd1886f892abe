package security

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/sahilm/fuzzy"

	"github.com/doeshing/kubeask/internal/domain"
	"github.com/doeshing/kubeask/internal/ports"
)

const safeReason = "Command is safe"

// Verifier implements the CommandVerifier port. It is immutable after
// construction and safe for concurrent use.
type Verifier struct {
	patterns []dangerPattern
}

// NewVerifier builds a verifier from the built-in policy plus any extra
// danger patterns found in the rules file. A missing file is not an error.
func NewVerifier(rulesPath string) (*Verifier, error) {
	extra, err := loadRules(rulesPath)
	if err != nil {
		return nil, err
	}
	patterns := make([]dangerPattern, 0, len(defaultDangerPatterns)+len(extra))
	patterns = append(patterns, defaultDangerPatterns...)
	patterns = append(patterns, extra...)
	return &Verifier{patterns: patterns}, nil
}

// DefaultVerifier returns a verifier with only the built-in policy.
func DefaultVerifier() *Verifier {
	return &Verifier{patterns: defaultDangerPatterns}
}

// PatternCount reports how many danger patterns are active.
func (v *Verifier) PatternCount() int {
	return len(v.patterns)
}

// Verify runs placeholder detection and then the safety check.
func (v *Verifier) Verify(command string) domain.VerificationOutcome {
	if found, reason := v.HasPlaceholders(command); found {
		return domain.Reject(reason)
	}
	ok, reason := v.IsSafeCommand(command)
	if !ok {
		return domain.Reject(reason)
	}
	return domain.Accept(reason)
}

// HasPlaceholders reports whether the command still carries template values.
func (v *Verifier) HasPlaceholders(command string) (found bool, reason string) {
	defer func() {
		if r := recover(); r != nil {
			found, reason = true, fmt.Sprintf("Error checking placeholders: %v", r)
		}
	}()
	for _, p := range placeholderPatterns {
		if p.re.MatchString(command) {
			return true, "Command contains placeholder pattern: " + p.expr
		}
	}
	return false, "No placeholders found"
}

// IsSafeCommand decides whether a command is read-only kubectl with no shell escape.
// Any panic during analysis is converted into a rejection.
func (v *Verifier) IsSafeCommand(command string) (safe bool, reason string) {
	defer func() {
		if r := recover(); r != nil {
			safe, reason = false, fmt.Sprintf("Error verifying command: %v", r)
		}
	}()

	command = strings.TrimSpace(command)
	if command == "" {
		return false, "Empty command"
	}
	if !strings.HasPrefix(command, kubectlProgram) {
		return false, "Command must start with 'kubectl'"
	}

	parts := strings.Fields(command)
	if parts[0] != kubectlProgram {
		return false, "Command must start with 'kubectl'"
	}
	if len(parts) < 2 {
		return false, "Incomplete kubectl command"
	}

	verb := parts[1]
	if _, ok := readOnlyVerbs[verb]; !ok {
		return false, fmt.Sprintf("Command verb '%s' is not read-only. Safe verbs are: %s", verb, verbList)
	}

	if found, placeholder := v.HasPlaceholders(command); found {
		return false, placeholder
	}

	for _, p := range v.patterns {
		if p.matchesUnexcused(command) {
			msg := "Command contains potentially dangerous pattern: " + p.expr
			if p.message != "" {
				msg += " (" + p.message + ")"
			}
			return false, msg
		}
	}

	args := parts[2:]
	for _, part := range args {
		if !strings.HasPrefix(part, "-") {
			continue
		}
		flag := strings.SplitN(part, "=", 2)[0]
		if _, ok := safeFlags[flag]; !ok {
			return false, unsafeFlagReason(flag)
		}
	}

	if reason, ok := checkVerbArguments(verb, args); !ok {
		return false, reason
	}
	return true, safeReason
}

func checkVerbArguments(verb string, args []string) (string, bool) {
	switch verb {
	case "logs":
		if !hasPositional(args) {
			return "logs command requires a pod name", false
		}
	case "get":
		if !hasPositional(args) {
			return "get command requires a resource type", false
		}
	case "describe":
		if !hasPositional(args) {
			return "describe command requires a resource type and name", false
		}
	case "explain", "top", "auth", "api-versions", "cluster-info", "version", "config", "view", "help":
	default:
		return fmt.Sprintf("Command verb '%s' is not read-only. Safe verbs are: %s", verb, verbList), false
	}
	return "", true
}

func hasPositional(args []string) bool {
	for _, arg := range args {
		if !strings.HasPrefix(arg, "-") {
			return true
		}
	}
	return false
}

func unsafeFlagReason(flag string) string {
	reason := "Unsafe flag or option: " + flag
	if len(flag) <= 3 {
		return reason
	}
	if matches := fuzzy.Find(flag, sortedFlags); len(matches) > 0 {
		reason += fmt.Sprintf(" (did you mean %s?)", matches[0].Str)
	}
	return reason
}

// SafeCommandsInfo describes the policy for user reference.
func (v *Verifier) SafeCommandsInfo() domain.SafeCommandsInfo {
	return domain.SafeCommandsInfo{
		SafeVerbs:   append([]string(nil), sortedVerbs...),
		SafeFlags:   append([]string(nil), sortedFlags...),
		Description: "Only read-only kubectl commands are allowed for safety",
		Examples:    append([]string(nil), safeCommandExamples...),
	}
}

// SanitizeCommand collapses whitespace and strips control characters.
// It is a normalization step only and never replaces IsSafeCommand.
func SanitizeCommand(command string) string {
	cleaned := strings.Map(func(r rune) rune {
		switch {
		case unicode.IsSpace(r):
			return ' '
		case r <= 0x1f, r >= 0x7f && r <= 0x9f:
			return -1
		default:
			return r
		}
	}, command)
	return strings.Join(strings.Fields(cleaned), " ")
}

// Sanitize applies SanitizeCommand.
func (v *Verifier) Sanitize(command string) string {
	return SanitizeCommand(command)
}

var _ ports.CommandVerifier = (*Verifier)(nil)
