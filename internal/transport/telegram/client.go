package telegram

import (
	"context"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// botAPI is the subset of *tgbotapi.BotAPI used by the bot.
type botAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetChatMember(config tgbotapi.GetChatMemberConfig) (tgbotapi.ChatMember, error)
}

// Client adapts the Bot API to the narrow sender and lookup contracts of the use cases.
type Client struct {
	api botAPI
}

// NewClient wraps an authorized Bot API.
func NewClient(api botAPI) *Client {
	return &Client{api: api}
}

// GetMembership returns the user's status in a public channel (username without "@").
func (c *Client) GetMembership(_ context.Context, channel string, userID int64) (string, error) {
	member, err := c.api.GetChatMember(tgbotapi.GetChatMemberConfig{
		ChatConfigWithUser: tgbotapi.ChatConfigWithUser{
			SuperGroupUsername: "@" + strings.TrimPrefix(channel, "@"),
			UserID:             userID,
		},
	})
	if err != nil {
		return "", fmt.Errorf("get chat member: %w", err)
	}
	return member.Status, nil
}

// SendMessage sends an HTML message.
func (c *Client) SendMessage(ctx context.Context, chatID int64, text string) error {
	return c.Reply(ctx, chatID, text, nil)
}

// Reply sends an HTML message with an optional inline keyboard.
func (c *Client) Reply(_ context.Context, chatID int64, text string, markup *tgbotapi.InlineKeyboardMarkup) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.DisableWebPagePreview = true
	if markup != nil {
		msg.ReplyMarkup = *markup
	}
	if _, err := c.api.Send(msg); err != nil {
		return fmt.Errorf("send message: %w", err)
	}
	return nil
}

// Edit replaces the text and keyboard of a previously sent message.
func (c *Client) Edit(_ context.Context, chatID int64, messageID int, text string, markup tgbotapi.InlineKeyboardMarkup) error {
	edit := tgbotapi.NewEditMessageTextAndMarkup(chatID, messageID, text, markup)
	edit.ParseMode = tgbotapi.ModeHTML
	if _, err := c.api.Request(edit); err != nil {
		if isNotModified(err) {
			return nil
		}
		return fmt.Errorf("edit message: %w", err)
	}
	return nil
}

// SendDocument uploads a local file.
func (c *Client) SendDocument(_ context.Context, chatID int64, path, caption string) error {
	doc := tgbotapi.NewDocument(chatID, tgbotapi.FilePath(path))
	doc.Caption = caption
	if _, err := c.api.Send(doc); err != nil {
		return fmt.Errorf("send document: %w", err)
	}
	return nil
}

// RemoveKeyboard strips the inline keyboard from a message.
func (c *Client) RemoveKeyboard(_ context.Context, chatID int64, messageID int) error {
	empty := tgbotapi.InlineKeyboardMarkup{InlineKeyboard: [][]tgbotapi.InlineKeyboardButton{}}
	if _, err := c.api.Request(tgbotapi.NewEditMessageReplyMarkup(chatID, messageID, empty)); err != nil {
		return fmt.Errorf("remove keyboard: %w", err)
	}
	return nil
}

// AnswerCallback acknowledges a callback query, optionally with a toast text.
func (c *Client) AnswerCallback(_ context.Context, callbackID, text string) error {
	if _, err := c.api.Request(tgbotapi.NewCallback(callbackID, text)); err != nil {
		return fmt.Errorf("answer callback: %w", err)
	}
	return nil
}

// Typing shows the "typing…" indicator. Best-effort.
func (c *Client) Typing(_ context.Context, chatID int64) {
	_, _ = c.api.Request(tgbotapi.NewChatAction(chatID, tgbotapi.ChatTyping))
}

// isNotModified matches the Bot API error for an edit with identical content.
func isNotModified(err error) bool {
	return strings.Contains(err.Error(), "message is not modified")
}
