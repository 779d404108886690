package user

import (
	"context"

	domuser "github.com/tgassist/tgassist/internal/domain/user"
)

// Store is the user persistence consumed by the service.
type Store interface {
	GetUser(ctx context.Context, telegramID int64) (*domuser.User, error)
	CreateIfAbsent(ctx context.Context, telegramID int64, username string) (bool, error)
	SetNotification(ctx context.Context, telegramID int64, enabled bool) error
	SetTimezone(ctx context.Context, telegramID int64, tz string) error
	GetNotificationSettings(ctx context.Context, userID int64) (domuser.Settings, error)
	UpsertNotificationSettings(ctx context.Context, userID int64, s domuser.Settings) error
}
