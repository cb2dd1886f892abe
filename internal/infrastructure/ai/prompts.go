package ai

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"

	"github.com/doeshing/kubeask/internal/domain"
	"github.com/doeshing/kubeask/internal/ports"
)

const (
	// historyTurns is how much conversation is replayed to the model.
	historyTurns = 5
	// outputExcerpt bounds each command's stdout inside a prompt.
	outputExcerpt = 1000
	// stderrExcerpt bounds each command's stderr inside a prompt.
	stderrExcerpt = 500
)

const classifySystemPrompt = "You are a question classification expert. Respond only with valid JSON."

type promptData struct {
	QuestionKind string
	MaxCommands  int
	Style        domain.ResponseStyle
	Cluster      domain.ClusterInfo
	Question     string
	Outputs      []outputView
}

type outputView struct {
	Command  string
	Status   string
	Stdout   string
	Stderr   string
	FollowUp bool
}

var (
	suggestTemplate = template.Must(template.New("suggest").Parse(`You are a Kubernetes command suggestion expert. Based on the user's question, determine if they need kubectl commands executed.

USER QUESTION TYPE: {{.QuestionKind}}
{{- if .Cluster.Context}}
CURRENT CONTEXT: {{.Cluster.Context}} (namespace {{.Cluster.DisplayNamespace}})
{{- end}}

CRITICAL INSTRUCTION: Your response must be ONLY a valid JSON array of strings. Nothing else.

DISCOVERY-FIRST APPROACH:
1. If the user asks about specific resources without exact names, suggest discovery commands first
2. Never use placeholders like <pod-name>, <namespace-name> or <service-name>; use real names or discover them
3. Be conservative and suggest at most {{.MaxCommands}} commands, most relevant first

COMMAND RULES:
- Only read-only commands: get, describe, logs, explain, top, api-versions, api-resources, cluster-info, version, config view
- Never suggest create, delete, apply, edit, patch, replace, scale, rollout, exec, attach, port-forward, proxy, cp, drain, cordon or taint
- Never use shell operators such as |, ;, &&, ||, >, >>, <, $() or backticks
- Use output formats (-o wide, -o yaml) when helpful

EXAMPLES:
- "what pods are in my default ns" -> ["kubectl get pods -n default"]
- "show me services" -> ["kubectl get services --all-namespaces"]
- "what's wrong with pod my-app-pod?" -> ["kubectl describe pod my-app-pod", "kubectl logs my-app-pod"]
- "should I use config maps or secrets?" -> []

If no commands are needed (general advice, concepts, opinions), return [].
Return ONLY the JSON array. No explanations, no markdown, no code blocks.`))

	followUpTemplate = template.Must(template.New("follow_up").Parse(`You are a Kubernetes troubleshooting expert. Look at the discovery outputs and decide whether follow-up commands are needed to answer the user's question.

USER QUESTION TYPE: {{.QuestionKind}}

Only suggest follow-ups when the outputs show a real problem (Error, CrashLoopBackOff, ImagePullBackOff, Pending, failed rollouts, restarts) that the question asks about.

RULES:
1. Use ONLY resource names that appear in the discovery outputs
2. Never use placeholders like <pod-name>
3. Only read-only commands (get, describe, logs, top, explain)
4. At most {{.MaxCommands}} follow-up commands
5. If nothing is wrong, or the user just wants a list, return []

EXAMPLES:
- "what's wrong with my pods?" + a pod in CrashLoopBackOff -> ["kubectl describe pod error-pod", "kubectl logs error-pod"]
- "list deployments" + healthy deployments -> []

Return ONLY the JSON array. No explanations, no markdown, no code blocks.`))

	followUpUserTemplate = template.Must(template.New("follow_up_user").Parse(`Original question: {{.Question}}

Discovery outputs:
{{- range .Outputs}}{{if eq .Status "SUCCESS"}}
Command: {{.Command}}
Output: {{.Stdout}}
{{end}}{{end}}`))

	analysisTemplate = template.Must(template.New("analysis").Parse(`You are a friendly Kubernetes assistant that talks like a helpful coworker. Be casual and conversational.

USER QUESTION TYPE: {{.QuestionKind}}
RESPONSE STYLE: {{.Style}}
{{- if .Cluster.Context}}
CLUSTER CONTEXT: {{.Cluster.Context}}
{{- end}}

RESPONSE RULES:
1. Match the answer to the question: simple questions get direct answers, tables are fine
2. If everything looks good, say so briefly
3. For simple questions, mention problems you notice and offer to investigate instead of investigating
4. For investigations, explain what the outputs show and what to look at next
5. Use only the command outputs provided and be honest about what you cannot see
6. If a command failed, explain the error`))

	analysisUserTemplate = template.Must(template.New("analysis_user").Parse(`User question: {{.Question}}

Command outputs:
{{- range .Outputs}}
Command: {{.Command}}{{if .FollowUp}} (follow-up){{end}}
Status: {{.Status}}
{{- if .Stdout}}
Output:
{{.Stdout}}
{{- end}}
{{- if .Stderr}}
Error:
{{.Stderr}}
{{- end}}
{{end}}`))

	adviceTemplate = template.Must(template.New("advice").Parse(`You are a friendly Kubernetes assistant. Be casual and conversational.

If someone asks for general advice about Kubernetes, help them out. If they are asking about specific cluster state, tell them no commands could be run to see real data.

Keep it simple and helpful. No fancy formatting unless there is a problem to solve.`))
)

func newPromptData(req ports.AdvisorRequest, maxCommands int, outputs []domain.CommandOutput) promptData {
	kind := "COMPLEX INVESTIGATION"
	if req.Classification.QuestionType == domain.QuestionSimpleListing {
		kind = "SIMPLE LISTING"
	}
	return promptData{
		QuestionKind: kind,
		MaxCommands:  maxCommands,
		Style:        req.Classification.ResponseStyle,
		Cluster:      req.Cluster,
		Question:     strings.TrimSpace(req.Question),
		Outputs:      outputViews(outputs),
	}
}

func outputViews(outputs []domain.CommandOutput) []outputView {
	views := make([]outputView, 0, len(outputs))
	for _, out := range outputs {
		status := "FAILED"
		if out.Result.Success {
			status = "SUCCESS"
		}
		stderr := out.Result.Stderr
		if stderr == "" && !out.Result.Success {
			stderr = out.Result.Error
		}
		views = append(views, outputView{
			Command:  out.Command,
			Status:   status,
			Stdout:   truncate(strings.TrimSpace(out.Result.Stdout), outputExcerpt),
			Stderr:   truncate(strings.TrimSpace(stderr), stderrExcerpt),
			FollowUp: out.FollowUp,
		})
	}
	return views
}

func render(tmpl *template.Template, data promptData) (string, error) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render %s prompt: %w", tmpl.Name(), err)
	}
	return strings.TrimSpace(buf.String()), nil
}

// buildMessages assembles system prompt, recent history, then the user turn.
func buildMessages(system string, history []domain.ConversationMessage, user string) []domain.PromptMessage {
	messages := []domain.PromptMessage{{Role: "system", Content: system}}
	if len(history) > historyTurns {
		history = history[len(history)-historyTurns:]
	}
	for _, msg := range history {
		switch msg.Role {
		case domain.RoleUser, domain.RoleAssistant:
			messages = append(messages, domain.PromptMessage{Role: string(msg.Role), Content: msg.Message})
		}
	}
	return append(messages, domain.PromptMessage{Role: "user", Content: user})
}
