package access

import (
	"context"

	"go.uber.org/zap"

	"github.com/tgassist/tgassist/internal/logger"
)

// Channel membership statuses as reported by Telegram.
const (
	StatusCreator       = "creator"
	StatusAdministrator = "administrator"
	StatusMember        = "member"
	StatusRestricted    = "restricted"
	StatusLeft          = "left"
	StatusKicked        = "kicked"
)

// MembershipLookup resolves a user's status in a channel.
type MembershipLookup interface {
	GetMembership(ctx context.Context, channel string, userID int64) (string, error)
}

// Gate decides whether a user may receive gated content.
type Gate struct {
	lookup  MembershipLookup
	channel string
}

// NewGate creates a Gate for the given channel username (without "@").
func NewGate(lookup MembershipLookup, channel string) *Gate {
	return &Gate{lookup: lookup, channel: channel}
}

// IsSubscribed never grants access on failure: lookup errors read as "not subscribed".
func (g *Gate) IsSubscribed(ctx context.Context, userID int64) bool {
	status, err := g.lookup.GetMembership(ctx, g.channel, userID)
	if err != nil {
		logger.FromContext(ctx).Warn("Membership lookup failed",
			zap.String("channel", g.channel),
			zap.Int64("user_id", userID),
			zap.Error(err),
		)
		return false
	}
	return Allows(status)
}

// Allows maps a membership status to access.
func Allows(status string) bool {
	switch status {
	case StatusCreator, StatusAdministrator, StatusMember:
		return true
	default:
		return false
	}
}
