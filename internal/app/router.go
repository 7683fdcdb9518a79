package app

import (
	"context"
	"errors"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"bioguard/internal/infra/telegram"
	"bioguard/internal/services/dispatch"
)

func (a *App) routeUpdate(_ context.Context, update tgbotapi.Update) {
	in, ok := telegram.ParseUpdate(update, a.tg.Username())
	if !ok {
		return
	}

	// Work runs on the scheduler's context so an in-flight delete can finish
	// after polling stops.
	err := a.scheduler.AddWork(in.ChatID, func(ctx context.Context) {
		a.handleInbound(ctx, in)
	})
	if err != nil && !errors.Is(err, dispatch.ErrClosed) {
		a.logger.Error("enqueue update", "chat_id", in.ChatID, "error", err)
	}
}

func (a *App) handleInbound(ctx context.Context, in telegram.Inbound) {
	if in.Command != nil {
		res := a.engine.HandleCommand(ctx, *in.Command)
		if res.Reply == "" {
			return
		}
		msg := tgbotapi.NewMessage(in.ChatID, res.Reply)
		msg.ReplyToMessageID = in.ReplyTo
		if err := a.tg.Send(msg); err != nil {
			a.logger.Warn("send command reply", "chat_id", in.ChatID, "error", err)
		}
		return
	}

	if in.Message != nil {
		a.engine.HandleMessage(ctx, *in.Message)
	}
}
