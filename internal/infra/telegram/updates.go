package telegram

import (
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"bioguard/internal/domain/enums"
	"bioguard/internal/domain/model"
)

// Inbound is one update reduced to what the engine consumes. Exactly one of
// Message and Command is set.
type Inbound struct {
	ChatID  int64
	ReplyTo int
	Message *model.MessageEvent
	Command *model.CommandEvent
}

// ParseUpdate maps an update to an inbound event. ok is false for updates
// that carry nothing to moderate. botUsername filters commands addressed to
// other bots and may be empty.
func ParseUpdate(update tgbotapi.Update, botUsername string) (Inbound, bool) {
	msg := update.Message
	isEdit := false
	if msg == nil {
		msg = update.EditedMessage
		isEdit = true
	}
	if msg == nil || msg.Chat == nil {
		return Inbound{}, false
	}

	in := Inbound{ChatID: msg.Chat.ID, ReplyTo: msg.MessageID}

	if !isEdit && msg.IsCommand() && addressedTo(msg.CommandWithAt(), botUsername) {
		if cmd := enums.ParseCommand(msg.Command()); cmd != enums.CommandUnknown {
			var issuer int64
			if msg.From != nil && msg.SenderChat == nil {
				issuer = msg.From.ID
			}
			in.Command = &model.CommandEvent{
				ChatID:       msg.Chat.ID,
				IssuerUserID: issuer,
				Command:      cmd,
				IsGroup:      msg.Chat.IsGroup() || msg.Chat.IsSuperGroup(),
			}
			return in, true
		}
	}

	if !(msg.Chat.IsGroup() || msg.Chat.IsSuperGroup()) {
		return Inbound{}, false
	}

	ev := &model.MessageEvent{
		ChatID:         msg.Chat.ID,
		MessageID:      msg.MessageID,
		IsServiceEvent: isServiceMessage(msg),
	}
	// Messages posted as a chat (anonymous admins, linked channels) have no
	// user to look up.
	if msg.From != nil && msg.SenderChat == nil {
		ev.AuthorUserID = msg.From.ID
		ev.AuthorUsername = msg.From.UserName
	}
	in.Message = ev
	return in, true
}

func addressedTo(commandWithAt, botUsername string) bool {
	_, target, found := strings.Cut(commandWithAt, "@")
	if !found || botUsername == "" {
		return true
	}
	return strings.EqualFold(target, botUsername)
}

func isServiceMessage(msg *tgbotapi.Message) bool {
	return len(msg.NewChatMembers) > 0 ||
		msg.LeftChatMember != nil ||
		msg.NewChatTitle != "" ||
		len(msg.NewChatPhoto) > 0 ||
		msg.DeleteChatPhoto ||
		msg.GroupChatCreated ||
		msg.SuperGroupChatCreated ||
		msg.ChannelChatCreated ||
		msg.MigrateToChatID != 0 ||
		msg.MigrateFromChatID != 0 ||
		msg.PinnedMessage != nil
}
