package telegram

import (
	"context"
	"time"

	domuser "github.com/tgassist/tgassist/internal/domain/user"
	"github.com/tgassist/tgassist/internal/usecase/answer"
	"github.com/tgassist/tgassist/internal/usecase/delivery"
	"github.com/tgassist/tgassist/internal/usecase/notification"
)

// UserService manages registration and notification preferences.
type UserService interface {
	Register(ctx context.Context, telegramID int64, username string) (*domuser.User, error)
	Get(ctx context.Context, telegramID int64) (*domuser.User, error)
	SetNotifications(ctx context.Context, telegramID int64, enabled bool) error
	SetTimezone(ctx context.Context, telegramID int64, tz string) error
	SetFrequency(ctx context.Context, telegramID int64, frequency string) (domuser.Settings, error)
	SetSchedule(ctx context.Context, telegramID int64, clock, frequency string) (domuser.Settings, error)
	Settings(ctx context.Context, telegramID int64) (domuser.Settings, error)
}

// Answerer answers free-form questions.
type Answerer interface {
	Answer(ctx context.Context, question string) (answer.Reply, error)
}

// BookDeliverer runs the gated book delivery.
type BookDeliverer interface {
	Deliver(ctx context.Context, req delivery.Request) (delivery.Outcome, error)
}

// Notifier exposes the admin notification commands.
type Notifier interface {
	RunOnce(ctx context.Context, now time.Time) (notification.Report, error)
	SendTest(ctx context.Context, chatID int64) error
}
