package telegram

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"bioguard/internal/domain/enums"
	"bioguard/internal/domain/model"
)

var errDryRun = errors.New("telegram client is in dry mode")

type UpdateHandler func(context.Context, tgbotapi.Update)

type Client struct {
	api         *tgbotapi.BotAPI
	logger      *slog.Logger
	handler     UpdateHandler
	pollTimeout int
	dryRun      bool
}

func NewClient(token string, pollTimeout int, logger *slog.Logger, handler UpdateHandler) (*Client, error) {
	if handler == nil {
		return nil, errors.New("telegram update handler is required")
	}
	if logger == nil {
		logger = slog.Default()
	}

	if strings.TrimSpace(token) == "" {
		return &Client{
			logger:      logger,
			handler:     handler,
			pollTimeout: pollTimeout,
			dryRun:      true,
		}, nil
	}

	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, err
	}

	return &Client{
		api:         api,
		logger:      logger,
		handler:     handler,
		pollTimeout: pollTimeout,
	}, nil
}

// Username is the bot's own username, empty in dry mode.
func (c *Client) Username() string {
	if c.dryRun {
		return ""
	}
	return c.api.Self.UserName
}

func (c *Client) Start(ctx context.Context) error {
	if c.dryRun {
		c.logger.Warn("BOT_TOKEN is empty, running in dry mode")
		<-ctx.Done()
		return nil
	}

	timeout := c.pollTimeout
	if timeout <= 0 {
		timeout = 30
	}

	updateConfig := tgbotapi.NewUpdate(0)
	updateConfig.Timeout = timeout
	updateConfig.AllowedUpdates = []string{"message", "edited_message"}
	updates := c.api.GetUpdatesChan(updateConfig)
	c.logger.Info("telegram polling started", "bot", c.api.Self.UserName)

	for {
		select {
		case <-ctx.Done():
			c.api.StopReceivingUpdates()
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			c.handler(ctx, update)
		}
	}
}

func (c *Client) Send(msg tgbotapi.Chattable) error {
	if c.dryRun {
		return nil
	}
	_, err := c.api.Send(msg)
	return err
}

func (c *Client) GetAdminStatus(ctx context.Context, chatID, userID int64) (enums.AdminStatus, error) {
	if err := ctx.Err(); err != nil {
		return enums.AdminStatusUnknown, err
	}
	if c.dryRun {
		return enums.AdminStatusUnknown, errDryRun
	}

	member, err := c.api.GetChatMember(tgbotapi.GetChatMemberConfig{
		ChatConfigWithUser: tgbotapi.ChatConfigWithUser{ChatID: chatID, UserID: userID},
	})
	if err != nil {
		return enums.AdminStatusUnknown, fmt.Errorf("get chat member: %w", classifyError(err))
	}
	return memberStatus(member.Status), nil
}

func (c *Client) GetUserProfile(ctx context.Context, userID int64) (model.UserProfile, error) {
	if err := ctx.Err(); err != nil {
		return model.UserProfile{}, err
	}
	if c.dryRun {
		return model.UserProfile{}, errDryRun
	}

	chat, err := c.api.GetChat(tgbotapi.ChatInfoConfig{
		ChatConfig: tgbotapi.ChatConfig{ChatID: userID},
	})
	if err != nil {
		return model.UserProfile{}, fmt.Errorf("get chat: %w", classifyError(err))
	}
	return model.UserProfile{
		UserID:   userID,
		Username: chat.UserName,
		BioText:  chat.Bio,
	}, nil
}

func (c *Client) DeleteMessage(ctx context.Context, chatID int64, messageID int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if c.dryRun {
		c.logger.Info("dry mode: would delete message", "chat_id", chatID, "message_id", messageID)
		return nil
	}

	if _, err := c.api.Request(tgbotapi.NewDeleteMessage(chatID, messageID)); err != nil {
		return classifyError(err)
	}
	return nil
}

func (c *Client) NotifyChat(ctx context.Context, chatID int64, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return c.Send(tgbotapi.NewMessage(chatID, text))
}

func memberStatus(status string) enums.AdminStatus {
	switch status {
	case "creator":
		return enums.AdminStatusOwner
	case "administrator":
		return enums.AdminStatusAdministrator
	case "member", "restricted", "left", "kicked":
		return enums.AdminStatusMember
	default:
		return enums.AdminStatusUnknown
	}
}

var permissionMarkers = []string{
	"not enough rights",
	"can't be deleted",
	"have no rights",
	"chat_admin_required",
	"need administrator rights",
}

// classifyError maps Bot API failures onto the errors the moderation engine
// branches on.
func classifyError(err error) error {
	var apiErr *tgbotapi.Error
	if !errors.As(err, &apiErr) {
		return err
	}

	if apiErr.Code == http.StatusTooManyRequests || apiErr.RetryAfter > 0 {
		return &model.RateLimitError{RetryAfter: time.Duration(apiErr.RetryAfter) * time.Second}
	}

	msg := strings.ToLower(apiErr.Message)
	if apiErr.Code == http.StatusForbidden {
		return fmt.Errorf("%w: %s", model.ErrPermissionDenied, apiErr.Message)
	}
	for _, marker := range permissionMarkers {
		if strings.Contains(msg, marker) {
			return fmt.Errorf("%w: %s", model.ErrPermissionDenied, apiErr.Message)
		}
	}
	return err
}
