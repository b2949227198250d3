package models

import "strings"

// CommandType enumerates supported chat command categories.
type CommandType string

const (
	CommandProduce CommandType = "produce"
	CommandSale    CommandType = "sale"
	CommandReturn  CommandType = "return"
	CommandStock   CommandType = "stock"
	CommandReport  CommandType = "report"
	CommandUnknown CommandType = "unknown"
)

// Command represents a parsed staff instruction extracted from WhatsApp text.
type Command struct {
	Type CommandType
	Raw  string
	Args []string
}

// ParseCommand derives a Command instance from free-form text messages.
func ParseCommand(message string) Command {
	normalized := normalize(message)

	cmd := Command{Raw: message, Type: CommandUnknown}
	tokens := strings.Fields(normalized)
	if len(tokens) == 0 {
		return cmd
	}

	switch head := CommandType(strings.TrimPrefix(tokens[0], "/")); head {
	case CommandProduce, CommandSale, CommandReturn, CommandStock, CommandReport:
		cmd.Type = head
	case "sales", "sell":
		cmd.Type = CommandSale
	case "prod", "bake":
		cmd.Type = CommandProduce
	}

	if len(tokens) > 1 {
		cmd.Args = tokens[1:]
	}

	return cmd
}
