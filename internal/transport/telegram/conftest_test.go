package telegram

import (
	"context"
	"strings"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	domuser "github.com/tgassist/tgassist/internal/domain/user"
	"github.com/tgassist/tgassist/internal/usecase/answer"
	"github.com/tgassist/tgassist/internal/usecase/delivery"
	"github.com/tgassist/tgassist/internal/usecase/notification"
)

// --- Bot API fake ---

type fakeAPI struct {
	mu         sync.Mutex
	sent       []tgbotapi.Chattable
	requests   []tgbotapi.Chattable
	sendErr    error
	requestErr error
	member     tgbotapi.ChatMember
	memberErr  error
	memberCfg  tgbotapi.GetChatMemberConfig
}

func (f *fakeAPI) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, c)
	return tgbotapi.Message{}, f.sendErr
}

func (f *fakeAPI) Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, c)
	if f.requestErr != nil {
		return nil, f.requestErr
	}
	return &tgbotapi.APIResponse{Ok: true}, nil
}

func (f *fakeAPI) GetChatMember(cfg tgbotapi.GetChatMemberConfig) (tgbotapi.ChatMember, error) {
	f.memberCfg = cfg
	return f.member, f.memberErr
}

// messages returns every sent text message.
func (f *fakeAPI) messages() []tgbotapi.MessageConfig {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []tgbotapi.MessageConfig
	for _, c := range f.sent {
		if m, ok := c.(tgbotapi.MessageConfig); ok {
			out = append(out, m)
		}
	}
	return out
}

func (f *fakeAPI) lastText() string {
	msgs := f.messages()
	if len(msgs) == 0 {
		return ""
	}
	return msgs[len(msgs)-1].Text
}

func (f *fakeAPI) edits() []tgbotapi.EditMessageTextConfig {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []tgbotapi.EditMessageTextConfig
	for _, c := range f.requests {
		if e, ok := c.(tgbotapi.EditMessageTextConfig); ok {
			out = append(out, e)
		}
	}
	return out
}

func (f *fakeAPI) callbackTexts() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []string
	for _, c := range f.requests {
		if cb, ok := c.(tgbotapi.CallbackConfig); ok {
			out = append(out, cb.Text)
		}
	}
	return out
}

// callbackData flattens all button payloads of a keyboard.
func callbackData(kb tgbotapi.InlineKeyboardMarkup) []string {
	var out []string
	for _, row := range kb.InlineKeyboard {
		for _, b := range row {
			if b.CallbackData != nil {
				out = append(out, *b.CallbackData)
			}
		}
	}
	return out
}

// --- Use case mocks ---

type mockUsers struct {
	user          *domuser.User
	settings      domuser.Settings
	registerErr   error
	getErr        error
	setErr        error
	registered    int
	notifications []bool
	timezone      string
	frequency     string
	scheduleClock string
}

func (m *mockUsers) Register(_ context.Context, _ int64, _ string) (*domuser.User, error) {
	m.registered++
	return m.user, m.registerErr
}

func (m *mockUsers) Get(_ context.Context, _ int64) (*domuser.User, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	return m.user, nil
}

func (m *mockUsers) SetNotifications(_ context.Context, _ int64, enabled bool) error {
	m.notifications = append(m.notifications, enabled)
	if m.setErr == nil {
		m.user.Notification = enabled
	}
	return m.setErr
}

func (m *mockUsers) SetTimezone(_ context.Context, _ int64, tz string) error {
	if _, err := domuser.ParseOffset(tz); err != nil {
		return err
	}
	m.timezone = tz
	return m.setErr
}

func (m *mockUsers) SetFrequency(_ context.Context, _ int64, frequency string) (domuser.Settings, error) {
	m.frequency = frequency
	m.settings = domuser.Settings{Time: "09:00", Frequency: domuser.Frequency(frequency)}
	return m.settings, m.setErr
}

func (m *mockUsers) SetSchedule(_ context.Context, _ int64, clock, frequency string) (domuser.Settings, error) {
	if err := domuser.ValidateTime(clock); err != nil {
		return domuser.Settings{}, err
	}
	m.scheduleClock = clock
	m.frequency = frequency
	m.settings = domuser.Settings{Time: clock, Frequency: domuser.Frequency(frequency)}
	return m.settings, m.setErr
}

func (m *mockUsers) Settings(_ context.Context, _ int64) (domuser.Settings, error) {
	return m.settings, nil
}

type mockAnswerer struct {
	reply    answer.Reply
	err      error
	question string
}

func (m *mockAnswerer) Answer(_ context.Context, q string) (answer.Reply, error) {
	m.question = q
	return m.reply, m.err
}

type mockBooks struct {
	outcome delivery.Outcome
	err     error
	req     delivery.Request
}

func (m *mockBooks) Deliver(_ context.Context, req delivery.Request) (delivery.Outcome, error) {
	m.req = req
	return m.outcome, m.err
}

type mockNotifier struct {
	report   notification.Report
	runErr   error
	testErr  error
	runs     int
	testChat int64
}

func (m *mockNotifier) RunOnce(_ context.Context, _ time.Time) (notification.Report, error) {
	m.runs++
	return m.report, m.runErr
}

func (m *mockNotifier) SendTest(_ context.Context, chatID int64) error {
	m.testChat = chatID
	return m.testErr
}

// --- Fixture ---

const (
	testUserID  int64 = 1001
	testAdminID int64 = 42
	testChannel       = "mychannel"
)

type fixture struct {
	api      *fakeAPI
	users    *mockUsers
	answers  *mockAnswerer
	books    *mockBooks
	notifier *mockNotifier
	handler  *Handler
}

func newFixture() *fixture {
	f := &fixture{
		api:      &fakeAPI{},
		users:    &mockUsers{user: &domuser.User{ID: 7, TelegramID: testUserID, Username: "alice"}},
		answers:  &mockAnswerer{},
		books:    &mockBooks{},
		notifier: &mockNotifier{},
	}
	f.handler = NewHandler(NewClient(f.api), f.users, f.answers, f.books, f.notifier,
		HandlerConfig{AdminID: testAdminID, Channel: testChannel})
	f.handler.now = func() time.Time { return time.Date(2026, 10, 14, 9, 0, 0, 0, time.UTC) }
	return f
}

// commandUpdate builds a message update whose text starts with a bot command.
func commandUpdate(from int64, text string) tgbotapi.Update {
	cmd, _, _ := strings.Cut(text, " ")
	return tgbotapi.Update{
		UpdateID: 1,
		Message: &tgbotapi.Message{
			MessageID: 10,
			From:      &tgbotapi.User{ID: from, FirstName: "Alice", UserName: "alice"},
			Chat:      &tgbotapi.Chat{ID: from},
			Text:      text,
			Entities:  []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: len(cmd)}},
		},
	}
}

func textUpdate(from int64, text string) tgbotapi.Update {
	return tgbotapi.Update{
		UpdateID: 2,
		Message: &tgbotapi.Message{
			MessageID: 11,
			From:      &tgbotapi.User{ID: from, FirstName: "Alice"},
			Chat:      &tgbotapi.Chat{ID: from},
			Text:      text,
		},
	}
}

func callbackUpdate(from int64, data string) tgbotapi.Update {
	return tgbotapi.Update{
		UpdateID: 3,
		CallbackQuery: &tgbotapi.CallbackQuery{
			ID:   "cb-1",
			From: &tgbotapi.User{ID: from},
			Message: &tgbotapi.Message{
				MessageID: 55,
				Chat:      &tgbotapi.Chat{ID: from},
			},
			Data: data,
		},
	}
}
