package models

import "strings"

// CommandType enumerates supported bot command categories.
type CommandType string

const (
	CommandStart   CommandType = "start"
	CommandAuth    CommandType = "auth"
	CommandHelp    CommandType = "help"
	CommandUnknown CommandType = "unknown"
)

// Command represents a parsed bot instruction extracted from Telegram text.
type Command struct {
	Type CommandType
	Raw  string
	Args []string
}

// IsCommand reports whether the message text is a bot command rather than an
// expense line. Expense lines contain "/" as a field delimiter but never start
// with one.
func IsCommand(message string) bool {
	return strings.HasPrefix(strings.TrimSpace(message), "/")
}

// ParseCommand derives a Command instance from a leading-slash message.
func ParseCommand(message string) Command {
	normalized := strings.TrimSpace(message)
	cmd := Command{Raw: message, Type: CommandUnknown}

	tokens := strings.Fields(normalized)
	if len(tokens) == 0 {
		return cmd
	}

	head := strings.ToLower(strings.TrimPrefix(tokens[0], "/"))
	// Telegram appends the bot name in group chats, e.g. /help@spendbot.
	if at := strings.Index(head, "@"); at >= 0 {
		head = head[:at]
	}

	switch head {
	case string(CommandStart):
		cmd.Type = CommandStart
	case string(CommandAuth):
		cmd.Type = CommandAuth
	case string(CommandHelp):
		cmd.Type = CommandHelp
	}

	if len(tokens) > 1 {
		cmd.Args = tokens[1:]
	}

	return cmd
}
