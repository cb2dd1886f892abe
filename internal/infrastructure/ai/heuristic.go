package ai

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/doeshing/kubeask/internal/domain"
	"github.com/doeshing/kubeask/internal/ports"
)

// ErrOffline is returned by the heuristic provider for anything it cannot fake.
var ErrOffline = errors.New("no AI provider configured")

// HeuristicName is the Name() of the offline provider.
const HeuristicName = "heuristic"

// heuristicProvider keeps kubeask usable without credentials: it proposes
// discovery commands from keywords and declines everything else.
type heuristicProvider struct {
	model domain.ModelDefinition
}

func newHeuristicProvider(model domain.ModelDefinition) ports.Provider {
	return &heuristicProvider{model: model}
}

func (p *heuristicProvider) Name() string {
	return HeuristicName
}

func (p *heuristicProvider) Model() domain.ModelDefinition {
	return p.model
}

func (p *heuristicProvider) Complete(_ context.Context, req domain.CompletionRequest) (string, error) {
	switch req.Purpose {
	case domain.PurposeSuggest:
		commands := guessCommands(lastUserContent(req.Messages))
		data, err := json.Marshal(commands)
		if err != nil {
			return "", err
		}
		return string(data), nil
	case domain.PurposeFollowUp:
		return "[]", nil
	default:
		return "", ErrOffline
	}
}

// guessCommands maps the question onto a single discovery command.
func guessCommands(question string) []string {
	question = strings.ToLower(question)
	namespaceFlag := "--all-namespaces"
	if ns := namespaceMention(question); ns != "" {
		namespaceFlag = "-n " + ns
	}

	switch {
	case strings.Contains(question, "deployment"):
		return []string{"kubectl get deployments " + namespaceFlag}
	case strings.Contains(question, "service") || strings.Contains(question, "svc"):
		return []string{"kubectl get services " + namespaceFlag}
	case strings.Contains(question, "node"):
		return []string{"kubectl get nodes -o wide"}
	case strings.Contains(question, "pod"):
		return []string{"kubectl get pods " + namespaceFlag}
	case strings.Contains(question, "event"):
		return []string{"kubectl get events " + namespaceFlag}
	case strings.Contains(question, "namespace"):
		return []string{"kubectl get namespaces"}
	case strings.Contains(question, "cluster"):
		return []string{"kubectl cluster-info"}
	default:
		return []string{}
	}
}

// namespaceMention picks up "namespace <ns>" or "<ns> namespace".
func namespaceMention(question string) string {
	fields := strings.Fields(question)
	for i, field := range fields {
		word := strings.Trim(field, "?.,!")
		if word != "namespace" && word != "ns" {
			continue
		}
		if i+1 < len(fields) && !namespaceStopWords[fields[i+1]] {
			if name := sanitizeName(fields[i+1]); name != "" {
				return name
			}
		}
		if i > 0 && !namespaceStopWords[fields[i-1]] {
			return sanitizeName(fields[i-1])
		}
	}
	return ""
}

var namespaceStopWords = map[string]bool{
	"a": true, "all": true, "each": true, "every": true, "in": true, "my": true,
	"the": true, "this": true, "that": true, "which": true, "what": true,
}

func sanitizeName(s string) string {
	s = strings.Trim(s, "?.,!'\"")
	for _, r := range s {
		if !(r >= 'a' && r <= 'z' || r >= '0' && r <= '9' || r == '-') {
			return ""
		}
	}
	return s
}

func lastUserContent(messages []domain.PromptMessage) string {
	for i := len(messages) - 1; i >= 0; i-- {
		if strings.EqualFold(messages[i].Role, "user") {
			return messages[i].Content
		}
	}
	return ""
}
