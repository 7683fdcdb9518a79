package ui

import "fmt"

func HelpMessage() string {
	return "I delete messages from users whose profile bio contains a link.\n\n" +
		"Add me to a group as an administrator with the \"Delete messages\" right, then:\n" +
		"/enable - start moderating this chat\n" +
		"/disable - stop moderating this chat\n" +
		"/status - show whether moderation is on\n\n" +
		"Only chat administrators can use these commands."
}

func GroupOnlyMessage() string {
	return "This command only works in groups."
}

func UnauthorizedMessage() string {
	return "Only chat administrators can change moderation settings."
}

func EnabledMessage() string {
	return "Bio link moderation is now enabled for this chat."
}

func AlreadyEnabledMessage() string {
	return "Bio link moderation is already enabled."
}

func DisabledMessage() string {
	return "Bio link moderation is now disabled for this chat."
}

func AlreadyDisabledMessage() string {
	return "Bio link moderation is already disabled."
}

func StatusMessage(enabled bool, deletions int64) string {
	state := "disabled"
	if enabled {
		state = "enabled"
	}
	return fmt.Sprintf("Bio link moderation is %s. Messages deleted here: %d.", state, deletions)
}

func CommandFailedMessage() string {
	return "Could not update moderation settings, please try again later."
}

func MissingDeleteRightMessage() string {
	return "I can't delete messages here. Please grant me the \"Delete messages\" admin right."
}
