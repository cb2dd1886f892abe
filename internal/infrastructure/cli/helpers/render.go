package helpers

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	"github.com/doeshing/kubeask/internal/domain"
)

const defaultWrapWidth = 100

// Renderer prints results for humans: markdown through glamour and coloured
// labels on a terminal, plain text everywhere else.
type Renderer struct {
	out      io.Writer
	terminal bool
	width    int

	ok    lipgloss.Style
	warn  lipgloss.Style
	bad   lipgloss.Style
	faint lipgloss.Style
	title lipgloss.Style
}

// NewRenderer inspects out to decide between rich and plain output.
func NewRenderer(out io.Writer) *Renderer {
	r := &Renderer{out: out, width: defaultWrapWidth}
	if f, isFile := out.(*os.File); isFile && term.IsTerminal(int(f.Fd())) {
		r.terminal = true
		if w, _, err := term.GetSize(int(f.Fd())); err == nil && w > 20 {
			r.width = w - 2
		}
	}

	styles := lipgloss.NewRenderer(out)
	r.ok = styles.NewStyle().Foreground(lipgloss.Color("2")).Bold(true)
	r.warn = styles.NewStyle().Foreground(lipgloss.Color("3")).Bold(true)
	r.bad = styles.NewStyle().Foreground(lipgloss.Color("1")).Bold(true)
	r.faint = styles.NewStyle().Faint(true)
	r.title = styles.NewStyle().Bold(true).Underline(true)
	return r
}

// Terminal reports whether output goes to an interactive terminal.
func (r *Renderer) Terminal() bool {
	return r.terminal
}

// JSON writes v as indented JSON.
func (r *Renderer) JSON(v interface{}) error {
	enc := json.NewEncoder(r.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// Markdown renders text with glamour on a terminal and verbatim otherwise.
func (r *Renderer) Markdown(text string) {
	if r.terminal {
		md, err := glamour.NewTermRenderer(glamour.WithAutoStyle(), glamour.WithWordWrap(r.width))
		if err == nil {
			if rendered, err := md.Render(text); err == nil {
				fmt.Fprint(r.out, rendered)
				return
			}
		}
	}
	fmt.Fprintln(r.out, strings.TrimSpace(text))
}

// Answer prints the commands that ran, the ones refused, then the answer.
func (r *Renderer) Answer(resp domain.ChatResponse) {
	if len(resp.Executed) > 0 {
		fmt.Fprintln(r.out, r.title.Render("Commands"))
		for _, out := range resp.Executed {
			label := r.ok.Render("ran")
			if !out.Result.Success {
				label = r.warn.Render("failed")
			}
			suffix := ""
			if out.FollowUp {
				suffix = r.faint.Render(" (follow-up)")
			}
			fmt.Fprintf(r.out, "  [%s] %s%s\n", label, out.Command, suffix)
		}
	}
	if len(resp.Rejected) > 0 {
		for _, rej := range resp.Rejected {
			fmt.Fprintf(r.out, "  [%s] %s %s\n", r.bad.Render("rejected"), rej.Command, r.faint.Render("- "+rej.Reason))
		}
	}
	if len(resp.Executed) > 0 || len(resp.Rejected) > 0 {
		fmt.Fprintln(r.out)
	}
	r.Markdown(resp.Answer)
	fmt.Fprintln(r.out, r.faint.Render(fmt.Sprintf("%s · %s · session %s",
		resp.Classification.QuestionType, resp.AnalysisType, resp.SessionID)))
}

// Verification prints a verifier verdict.
func (r *Renderer) Verification(command string, outcome domain.VerificationOutcome) {
	label := r.ok.Render("ACCEPTED")
	if !outcome.Accepted {
		label = r.bad.Render("REJECTED")
	}
	fmt.Fprintf(r.out, "%s %s\n  %s\n", label, command, outcome.Reason)
}

// Classification prints every field of a classification result.
func (r *Renderer) Classification(result domain.ClassificationResult) {
	rows := [][2]string{
		{"question type", string(result.QuestionType)},
		{"strategy", string(result.StrategyType)},
		{"complexity", fmt.Sprintf("%.2f", result.ComplexityScore)},
		{"confidence", fmt.Sprintf("%.2f", result.Confidence)},
		{"max commands", fmt.Sprintf("%d", result.SuggestedMaxCommands)},
		{"follow-up", fmt.Sprintf("%t", result.FollowUpAllowed)},
		{"style", string(result.ResponseStyle)},
		{"method", string(result.ClassificationMethod)},
		{"reasoning", result.Reasoning},
	}
	for _, row := range rows {
		fmt.Fprintf(r.out, "%-13s %s\n", r.faint.Render(row[0]+":"), row[1])
	}
}

// SafeCommands prints the verifier policy summary.
func (r *Renderer) SafeCommands(info domain.SafeCommandsInfo) {
	fmt.Fprintln(r.out, info.Description)
	fmt.Fprintf(r.out, "\n%s\n  %s\n", r.title.Render("Safe verbs"), strings.Join(info.SafeVerbs, ", "))
	fmt.Fprintf(r.out, "\n%s\n  %s\n", r.title.Render("Safe flags"), strings.Join(info.SafeFlags, ", "))
	fmt.Fprintf(r.out, "\n%s\n", r.title.Render("Examples"))
	for _, example := range info.Examples {
		fmt.Fprintf(r.out, "  %s\n", example)
	}
}

// Doctor prints one line per health check.
func (r *Renderer) Doctor(report domain.HealthReport) {
	for _, check := range report.Checks {
		fmt.Fprintf(r.out, "[%s] %s - %s\n", r.status(check.Status), check.Name, check.Details)
	}
}

func (r *Renderer) status(status domain.HealthStatus) string {
	label := strings.ToUpper(string(status))
	switch status {
	case domain.HealthOK:
		return r.ok.Render(label)
	case domain.HealthWarn:
		return r.warn.Render(label)
	default:
		return r.bad.Render(label)
	}
}

// Sessions lists stored sessions, most recent first.
func (r *Renderer) Sessions(sessions []domain.Session) {
	if len(sessions) == 0 {
		fmt.Fprintln(r.out, "No conversations recorded yet.")
		return
	}
	for _, s := range sessions {
		fmt.Fprintf(r.out, "%s  %s  %d messages\n", s.ID, r.faint.Render(s.LastActive.Local().Format("2006-01-02 15:04")), s.MessageCount)
	}
}

// Conversation prints a stored session transcript.
func (r *Renderer) Conversation(messages []domain.ConversationMessage) {
	for _, msg := range messages {
		who := r.title.Render("you")
		if msg.Role == domain.RoleAssistant {
			who = r.ok.Render("kubeask")
		}
		fmt.Fprintf(r.out, "%s %s\n", who, r.faint.Render(msg.Timestamp.Local().Format("15:04:05")))
		if msg.Metadata != nil {
			for _, command := range msg.Metadata.CommandsExecuted {
				fmt.Fprintf(r.out, "  $ %s\n", command)
			}
		}
		fmt.Fprintln(r.out, strings.TrimSpace(msg.Message))
		fmt.Fprintln(r.out)
	}
}
