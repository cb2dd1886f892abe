package domain

// VerificationOutcome is the verdict on a single proposed command.
// Reason is always populated, for both acceptance and rejection.
type VerificationOutcome struct {
	Accepted bool   `json:"accepted"`
	Reason   string `json:"reason"`
}

// Accept builds an accepting outcome.
func Accept(reason string) VerificationOutcome {
	return VerificationOutcome{Accepted: true, Reason: reason}
}

// Reject builds a rejecting outcome.
func Reject(reason string) VerificationOutcome {
	return VerificationOutcome{Accepted: false, Reason: reason}
}

// SafeCommandsInfo describes the static verifier policy for user reference.
type SafeCommandsInfo struct {
	SafeVerbs   []string `json:"safe_verbs"`
	SafeFlags   []string `json:"safe_flags"`
	Description string   `json:"description"`
	Examples    []string `json:"examples"`
}

// RejectedCommand pairs a command with the reason it was refused.
type RejectedCommand struct {
	Command string `json:"command"`
	Reason  string `json:"reason"`
}
