package commands

// CLI-specific constants
const (
	// DefaultEditorCommand is the default editor command
	DefaultEditorCommand = "vi"
	envKeyEditor         = "EDITOR"
)

// Error messages
const (
	ErrKeyRequired       = "--key is required"
	ErrInvalidRetainDays = "--days must be > 0"
)

// Success messages
const (
	MsgConfigurationValid       = "Configuration valid"
	MsgNoDifferencesFromDefault = "No differences from default configuration."
	MsgHistoryCleared           = "History cleared."
)

// chat loop keywords
const (
	chatPrompt = "kubeask> "
	chatExit   = "exit"
	chatQuit   = "quit"
	chatNew    = "/new"
)
