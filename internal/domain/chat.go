package domain

import "time"

// AnalysisType distinguishes answers backed by command output from pure advice.
type AnalysisType string

const (
	AnalysisAdviceOnly   AnalysisType = "advice_only"
	AnalysisCommandBased AnalysisType = "command_based"
)

// ChatRequest captures one user question.
type ChatRequest struct {
	SessionID     string
	Message       string
	ModelOverride string
}

// ChatResponse is what the chat service hands back to the CLI.
type ChatResponse struct {
	SessionID      string               `json:"session_id"`
	Answer         string               `json:"response"`
	Executed       []CommandOutput      `json:"commands_executed"`
	Rejected       []RejectedCommand    `json:"rejected_commands"`
	Classification ClassificationResult `json:"classification"`
	AnalysisType   AnalysisType         `json:"analysis_type"`
	Timestamp      time.Time            `json:"timestamp"`
}

// ExecutedCommands lists the command strings that actually ran.
func (r ChatResponse) ExecutedCommands() []string {
	out := make([]string, 0, len(r.Executed))
	for _, exec := range r.Executed {
		out = append(out, exec.Command)
	}
	return out
}

// CommandOutput is the output of one executed command.
type CommandOutput struct {
	Command  string          `json:"command"`
	FollowUp bool            `json:"follow_up,omitempty"`
	Result   ExecutionResult `json:"result"`
}

// ExecutionResult wraps details from the kubectl executor.
type ExecutionResult struct {
	Success    bool   `json:"success"`
	Stdout     string `json:"stdout"`
	Stderr     string `json:"stderr"`
	ReturnCode int    `json:"returncode"`
	Error      string `json:"error,omitempty"`
	Command    string `json:"command"`
	DurationMS int64  `json:"duration_ms"`

	KubectlAvailable  bool `json:"kubectl_available"`
	ClusterAccessible bool `json:"cluster_accessible"`
}
