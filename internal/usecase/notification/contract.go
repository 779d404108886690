package notification

import (
	"context"

	domuser "github.com/tgassist/tgassist/internal/domain/user"
)

// SubscriberLister loads notification-enabled users with their schedules.
type SubscriberLister interface {
	ListNotificationUsers(ctx context.Context) ([]domuser.Subscriber, error)
}

// MessageSender delivers a text message to a chat.
type MessageSender interface {
	SendMessage(ctx context.Context, chatID int64, text string) error
}
