package domain

import "time"

// Role identifies who authored a conversation message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// ConversationMessage is one turn of a session, oldest first in any slice.
// The classifier only reads a trailing window and never mutates it.
type ConversationMessage struct {
	Role      Role             `json:"role"`
	Message   string           `json:"message"`
	Timestamp time.Time        `json:"timestamp"`
	Metadata  *MessageMetadata `json:"metadata,omitempty"`
}

// MessageMetadata is attached to assistant turns for later inspection.
type MessageMetadata struct {
	CommandsExecuted []string              `json:"commands_executed,omitempty"`
	RejectedCommands []RejectedCommand     `json:"rejected_commands,omitempty"`
	Classification   *ClassificationResult `json:"classification,omitempty"`
	AnalysisType     AnalysisType          `json:"analysis_type,omitempty"`
}

// Session summarises a stored conversation.
type Session struct {
	ID           string    `json:"id"`
	CreatedAt    time.Time `json:"created_at"`
	LastActive   time.Time `json:"last_active"`
	MessageCount int       `json:"message_count"`
}

// UserMessage builds a user turn stamped with the current time.
func UserMessage(text string) ConversationMessage {
	return ConversationMessage{Role: RoleUser, Message: text, Timestamp: time.Now()}
}

// AssistantMessage builds an assistant turn stamped with the current time.
func AssistantMessage(text string, meta *MessageMetadata) ConversationMessage {
	return ConversationMessage{Role: RoleAssistant, Message: text, Timestamp: time.Now(), Metadata: meta}
}
