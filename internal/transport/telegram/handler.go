package telegram

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/tgassist/tgassist/internal/domain"
	domuser "github.com/tgassist/tgassist/internal/domain/user"
	"github.com/tgassist/tgassist/internal/logger"
	"github.com/tgassist/tgassist/internal/usecase/delivery"
)

// HandlerConfig holds chat-level settings.
type HandlerConfig struct {
	AdminID int64
	Channel string // username without "@"
}

// Handler routes commands, text messages and callback queries to the use cases.
type Handler struct {
	client   *Client
	users    UserService
	answers  Answerer
	books    BookDeliverer
	notifier Notifier
	cfg      HandlerConfig
	now      func() time.Time
}

// NewHandler creates a Handler.
func NewHandler(
	client *Client,
	users UserService,
	answers Answerer,
	books BookDeliverer,
	notifier Notifier,
	cfg HandlerConfig,
) *Handler {
	return &Handler{
		client:   client,
		users:    users,
		answers:  answers,
		books:    books,
		notifier: notifier,
		cfg:      cfg,
		now:      time.Now,
	}
}

// Handle processes one update. Errors are logged here; the returned error only
// reports that the user saw a failure reply.
func (h *Handler) Handle(ctx context.Context, upd tgbotapi.Update) error {
	switch {
	case upd.CallbackQuery != nil:
		return h.handleCallback(ctx, upd.CallbackQuery)
	case upd.Message != nil && upd.Message.From != nil:
		if upd.Message.IsCommand() {
			return h.handleCommand(ctx, upd.Message)
		}
		return h.handleText(ctx, upd.Message)
	default:
		return nil
	}
}

func (h *Handler) handleCommand(ctx context.Context, msg *tgbotapi.Message) error {
	switch msg.Command() {
	case "start":
		return h.cmdStart(ctx, msg)
	case "settings":
		return h.cmdSettings(ctx, msg)
	case "timezone":
		return h.cmdTimezone(ctx, msg)
	case "test_notification":
		return h.cmdTestNotification(ctx, msg)
	case "send_notifications":
		return h.cmdSendNotifications(ctx, msg)
	default:
		return h.client.SendMessage(ctx, msg.Chat.ID, helpText)
	}
}

func (h *Handler) cmdStart(ctx context.Context, msg *tgbotapi.Message) error {
	log := logger.FromContext(ctx)
	chatID := msg.Chat.ID

	if _, err := h.users.Register(ctx, msg.From.ID, msg.From.UserName); err != nil {
		// The welcome still goes out; registration is retried on the next /start.
		log.Warn("User registration failed", zap.Error(err))
	}

	name := msg.From.FirstName
	if name == "" {
		name = msg.From.UserName
	}
	if err := h.client.SendMessage(ctx, chatID, welcomeText(name)); err != nil {
		return err
	}
	kb := bookKeyboard()
	return h.client.Reply(ctx, chatID, bookOfferText(h.cfg.Channel), &kb)
}

func (h *Handler) cmdSettings(ctx context.Context, msg *tgbotapi.Message) error {
	text, kb, err := h.settingsView(ctx, msg.From.ID)
	if err != nil {
		logger.FromContext(ctx).Error("Failed to load settings", zap.Error(err))
		return h.client.SendMessage(ctx, msg.Chat.ID, msgSettingsError)
	}
	return h.client.Reply(ctx, msg.Chat.ID, text, &kb)
}

func (h *Handler) cmdTimezone(ctx context.Context, msg *tgbotapi.Message) error {
	chatID := msg.Chat.ID
	tz := strings.ToUpper(strings.TrimSpace(msg.CommandArguments()))

	if tz == "" {
		current := domuser.DefaultTimezone
		if u, err := h.users.Get(ctx, msg.From.ID); err == nil && u.Timezone != "" {
			current = u.Timezone
		}
		return h.client.SendMessage(ctx, chatID, fmt.Sprintf(msgTimezoneUsage, current))
	}

	err := h.users.SetTimezone(ctx, msg.From.ID, tz)
	switch {
	case err == nil:
		return h.client.SendMessage(ctx, chatID, fmt.Sprintf(msgTimezoneSaved, tz))
	case errors.Is(err, domain.ErrInvalidTimezone):
		return h.client.SendMessage(ctx, chatID, msgTimezoneInvalid)
	case errors.Is(err, domain.ErrUserNotFound):
		return h.client.SendMessage(ctx, chatID, msgUserNotFound)
	default:
		logger.FromContext(ctx).Error("Failed to save timezone", zap.Error(err))
		return h.client.SendMessage(ctx, chatID, msgSaveError)
	}
}

func (h *Handler) cmdTestNotification(ctx context.Context, msg *tgbotapi.Message) error {
	if !h.isAdmin(msg.From.ID) {
		return h.client.SendMessage(ctx, msg.Chat.ID, msgAdminOnly)
	}
	if err := h.notifier.SendTest(ctx, msg.Chat.ID); err != nil {
		logger.FromContext(ctx).Error("Test notification failed", zap.Error(err))
		return h.client.SendMessage(ctx, msg.Chat.ID, msgTestFailed)
	}
	return h.client.SendMessage(ctx, msg.Chat.ID, msgTestSent)
}

func (h *Handler) cmdSendNotifications(ctx context.Context, msg *tgbotapi.Message) error {
	if !h.isAdmin(msg.From.ID) {
		return h.client.SendMessage(ctx, msg.Chat.ID, msgAdminOnly)
	}
	report, err := h.notifier.RunOnce(ctx, h.now())
	if err != nil {
		logger.FromContext(ctx).Error("Manual notification run failed", zap.Error(err))
		return h.client.SendMessage(ctx, msg.Chat.ID, msgSendNowFailed)
	}
	return h.client.SendMessage(ctx, msg.Chat.ID, sendNowText(report))
}

func (h *Handler) handleText(ctx context.Context, msg *tgbotapi.Message) error {
	if strings.TrimSpace(msg.Text) == "" {
		return nil
	}
	h.client.Typing(ctx, msg.Chat.ID)

	reply, err := h.answers.Answer(ctx, msg.Text)
	if err != nil {
		logger.FromContext(ctx).Warn("Question not answered", zap.Error(err))
	}
	return h.client.SendMessage(ctx, msg.Chat.ID, reply.Text)
}

func (h *Handler) handleCallback(ctx context.Context, cq *tgbotapi.CallbackQuery) error {
	if cq.Message == nil || cq.From == nil {
		return h.answer(ctx, cq, "")
	}
	data := cq.Data

	switch {
	case data == cbCheckSubscription:
		return h.cbBook(ctx, cq)
	case data == cbNotificationsOn:
		return h.editCallback(ctx, cq, msgFrequencyPrompt, frequencyKeyboard(), "")
	case data == cbNotificationsOff:
		return h.cbNotificationsOff(ctx, cq)
	case data == cbBackToSettings:
		return h.showSettings(ctx, cq, "")
	case strings.HasPrefix(data, cbFreqPrefix):
		return h.cbFrequency(ctx, cq, strings.TrimPrefix(data, cbFreqPrefix))
	case strings.HasPrefix(data, cbPagePrefix):
		return h.cbTimePage(ctx, cq, strings.TrimPrefix(data, cbPagePrefix))
	case strings.HasPrefix(data, cbTimePrefix):
		return h.cbTime(ctx, cq, strings.TrimPrefix(data, cbTimePrefix))
	default:
		return h.answer(ctx, cq, "")
	}
}

func (h *Handler) cbBook(ctx context.Context, cq *tgbotapi.CallbackQuery) error {
	chatID := cq.Message.Chat.ID
	outcome, err := h.books.Deliver(ctx, delivery.Request{
		TelegramID: cq.From.ID,
		ChatID:     chatID,
		MessageID:  cq.Message.MessageID,
	})
	log := logger.FromContext(ctx).With(zap.String("outcome", string(outcome)))
	if err != nil {
		log.Warn("Book delivery failed", zap.Error(err))
	} else {
		log.Info("Book delivery handled")
	}

	switch outcome {
	case delivery.Delivered:
		return h.answer(ctx, cq, msgBookSent)
	case delivery.AlreadySent:
		_ = h.answer(ctx, cq, "")
		return h.client.SendMessage(ctx, chatID, msgBookAlreadySent)
	case delivery.NotSubscribed:
		_ = h.answer(ctx, cq, "")
		return h.client.SendMessage(ctx, chatID, notSubscribedText(h.cfg.Channel))
	case delivery.UserNotFound:
		return h.answer(ctx, cq, msgUserNotFound)
	case delivery.FileMissing:
		return h.answer(ctx, cq, msgBookMissing)
	default:
		return h.answer(ctx, cq, msgBookSendFailed)
	}
}

func (h *Handler) cbNotificationsOff(ctx context.Context, cq *tgbotapi.CallbackQuery) error {
	if err := h.users.SetNotifications(ctx, cq.From.ID, false); err != nil {
		logger.FromContext(ctx).Error("Failed to disable notifications", zap.Error(err))
		return h.answer(ctx, cq, msgSaveError)
	}
	return h.showSettings(ctx, cq, msgNotificationsOff)
}

func (h *Handler) cbFrequency(ctx context.Context, cq *tgbotapi.CallbackQuery, raw string) error {
	f, err := domuser.ParseFrequency(raw)
	if err != nil {
		return h.answer(ctx, cq, msgUnknownFrequency)
	}
	if err := h.users.SetNotifications(ctx, cq.From.ID, true); err != nil {
		return h.callbackError(ctx, cq, err)
	}
	if _, err := h.users.SetFrequency(ctx, cq.From.ID, string(f)); err != nil {
		return h.callbackError(ctx, cq, err)
	}
	return h.editCallback(ctx, cq, timePickerText(f, 0), timeKeyboard(f, 0), "")
}

// cbTimePage handles "<freq>_<page>".
func (h *Handler) cbTimePage(ctx context.Context, cq *tgbotapi.CallbackQuery, rest string) error {
	raw, pageStr, ok := strings.Cut(rest, "_")
	f, err := domuser.ParseFrequency(raw)
	page, perr := strconv.Atoi(pageStr)
	if !ok || err != nil || perr != nil || page < 0 || page*hoursPerPage >= 24 {
		return h.answer(ctx, cq, "")
	}
	return h.editCallback(ctx, cq, timePickerText(f, page), timeKeyboard(f, page), "")
}

// cbTime handles "<freq>_<HH:MM>".
func (h *Handler) cbTime(ctx context.Context, cq *tgbotapi.CallbackQuery, rest string) error {
	freq, clock, ok := strings.Cut(rest, "_")
	if !ok {
		return h.answer(ctx, cq, msgSaveError)
	}
	settings, err := h.users.SetSchedule(ctx, cq.From.ID, clock, freq)
	if err != nil {
		return h.callbackError(ctx, cq, err)
	}
	toast := fmt.Sprintf(msgScheduleConfirmed, frequencyName(settings.Frequency), settings.Time)
	return h.showSettings(ctx, cq, toast)
}

// showSettings replaces the callback message with the settings menu.
func (h *Handler) showSettings(ctx context.Context, cq *tgbotapi.CallbackQuery, toast string) error {
	text, kb, err := h.settingsView(ctx, cq.From.ID)
	if err != nil {
		return h.callbackError(ctx, cq, err)
	}
	return h.editCallback(ctx, cq, text, kb, toast)
}

func (h *Handler) settingsView(ctx context.Context, telegramID int64) (string, tgbotapi.InlineKeyboardMarkup, error) {
	u, err := h.users.Get(ctx, telegramID)
	if err != nil {
		return "", tgbotapi.InlineKeyboardMarkup{}, err //nolint:wrapcheck // already wrapped by the service
	}
	s, err := h.users.Settings(ctx, telegramID)
	if err != nil {
		return "", tgbotapi.InlineKeyboardMarkup{}, err //nolint:wrapcheck // already wrapped by the service
	}
	return settingsText(u, s), settingsKeyboard(u), nil
}

func (h *Handler) editCallback(
	ctx context.Context, cq *tgbotapi.CallbackQuery, text string, kb tgbotapi.InlineKeyboardMarkup, toast string,
) error {
	_ = h.answer(ctx, cq, toast)
	return h.client.Edit(ctx, cq.Message.Chat.ID, cq.Message.MessageID, text, kb)
}

func (h *Handler) callbackError(ctx context.Context, cq *tgbotapi.CallbackQuery, err error) error {
	if errors.Is(err, domain.ErrUserNotFound) {
		return h.answer(ctx, cq, msgUserNotFound)
	}
	logger.FromContext(ctx).Error("Callback failed", zap.String("data", cq.Data), zap.Error(err))
	return h.answer(ctx, cq, msgSaveError)
}

// answer acknowledges the callback; failures (expired queries) are only logged.
func (h *Handler) answer(ctx context.Context, cq *tgbotapi.CallbackQuery, text string) error {
	if err := h.client.AnswerCallback(ctx, cq.ID, text); err != nil {
		logger.FromContext(ctx).Debug("Callback answer failed", zap.Error(err))
	}
	return nil
}

func (h *Handler) isAdmin(userID int64) bool {
	return h.cfg.AdminID != 0 && userID == h.cfg.AdminID
}
