package enums

import "strings"

type Command string

const (
	CommandEnable  Command = "enable"
	CommandDisable Command = "disable"
	CommandStatus  Command = "status"
	CommandHelp    Command = "help"
	CommandUnknown Command = ""
)

func ParseCommand(raw string) Command {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "enable":
		return CommandEnable
	case "disable":
		return CommandDisable
	case "status":
		return CommandStatus
	case "start", "help":
		return CommandHelp
	default:
		return CommandUnknown
	}
}
