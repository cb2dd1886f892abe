package ai

import (
	"fmt"
	"strings"

	"github.com/doeshing/kubeask/internal/domain"
)

// localAnalysis summarises outputs without a model.
func localAnalysis(question string, outputs []domain.CommandOutput) string {
	var succeeded, failed []domain.CommandOutput
	for _, out := range outputs {
		if out.Result.Success {
			succeeded = append(succeeded, out)
		} else {
			failed = append(failed, out)
		}
	}

	var b strings.Builder
	if len(succeeded) == 0 {
		fmt.Fprintf(&b, "I couldn't reach the analysis service for %q and none of the commands succeeded.\n", question)
		if len(failed) > 0 {
			b.WriteString("\n**Commands that failed:**\n")
			writeFailures(&b, failed)
		}
		b.WriteString("\nPlease try again in a moment for an automated analysis.")
		return b.String()
	}

	fmt.Fprintf(&b, "I ran some commands for %q but couldn't reach the analysis service, so here is the raw output.\n", question)
	for _, out := range succeeded {
		fmt.Fprintf(&b, "\n**%s**\n```\n%s\n```\n", out.Command, truncate(strings.TrimSpace(out.Result.Stdout), outputExcerpt))
	}
	if len(failed) > 0 {
		b.WriteString("\n**Commands that failed:**\n")
		writeFailures(&b, failed)
	}
	return strings.TrimRight(b.String(), "\n")
}

func writeFailures(b *strings.Builder, failed []domain.CommandOutput) {
	for _, out := range failed {
		reason := strings.TrimSpace(out.Result.Stderr)
		if reason == "" {
			reason = out.Result.Error
		}
		if reason == "" {
			reason = "unknown error"
		}
		fmt.Fprintf(b, "- `%s` (%s)\n", out.Command, truncate(reason, 100))
	}
}

// localAdvice answers advice-only questions without a model.
func localAdvice(question string) string {
	lower := strings.ToLower(question)
	var commands []string
	switch {
	case strings.Contains(lower, "pod"):
		commands = []string{"kubectl get pods --all-namespaces", "kubectl get events --all-namespaces"}
	case strings.Contains(lower, "deployment"):
		commands = []string{"kubectl get deployments --all-namespaces"}
	case strings.Contains(lower, "service"):
		commands = []string{"kubectl get services --all-namespaces"}
	case strings.Contains(lower, "namespace"):
		commands = []string{"kubectl get namespaces"}
	default:
		commands = []string{"kubectl cluster-info", "kubectl get nodes", "kubectl get pods --all-namespaces"}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "I can't reach an AI provider right now, so I can't give a full answer to %q.\n\n", question)
	b.WriteString("These read-only commands are a good starting point:\n\n```bash\n")
	b.WriteString(strings.Join(commands, "\n"))
	b.WriteString("\n```")
	return b.String()
}
