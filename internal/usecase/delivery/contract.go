package delivery

import (
	"context"

	domuser "github.com/tgassist/tgassist/internal/domain/user"
)

// UserStore is the persistence the delivery flow needs.
type UserStore interface {
	GetUser(ctx context.Context, telegramID int64) (*domuser.User, error)
	MarkBookReceived(ctx context.Context, telegramID int64) error
}

// SubscriptionChecker is the access gate.
type SubscriptionChecker interface {
	IsSubscribed(ctx context.Context, userID int64) bool
}

// Sender delivers the file and cleans up the prompt that triggered the check.
type Sender interface {
	SendDocument(ctx context.Context, chatID int64, path, caption string) error
	RemoveKeyboard(ctx context.Context, chatID int64, messageID int) error
}
