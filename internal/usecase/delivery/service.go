package delivery

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/tgassist/tgassist/internal/domain"
	"github.com/tgassist/tgassist/internal/logger"
)

// Outcome is the result of one delivery attempt.
type Outcome string

const (
	// Delivered means the book was sent and the user marked.
	Delivered Outcome = "delivered"
	// AlreadySent means the user got the book earlier; nothing was resent.
	AlreadySent Outcome = "already_sent"
	// NotSubscribed means the gate refused; nothing was persisted.
	NotSubscribed Outcome = "not_subscribed"
	// UserNotFound means the user never ran /start.
	UserNotFound Outcome = "user_not_found"
	// FileMissing means the book is absent on disk (configuration error).
	FileMissing Outcome = "file_missing"
	// Transient means a send, lookup or persistence failure; the user may retry.
	Transient Outcome = "transient"
)

// Request identifies who asked and which prompt carried the button.
type Request struct {
	TelegramID int64
	ChatID     int64
	MessageID  int
}

// Config holds the gated file settings.
type Config struct {
	BookPath string
	Caption  string
}

// Service runs the book delivery state machine.
type Service struct {
	users    UserStore
	gate     SubscriptionChecker
	sender   Sender
	cfg      Config
	outcomes *prometheus.CounterVec

	// inflight collapses concurrent attempts of one user (double taps) into one.
	inflight singleflight.Group
}

// New creates a Service. outcomes (label "outcome") may be nil.
func New(users UserStore, gate SubscriptionChecker, sender Sender, cfg Config, outcomes *prometheus.CounterVec) *Service {
	return &Service{users: users, gate: gate, sender: sender, cfg: cfg, outcomes: outcomes}
}

// Deliver sends the book at most once per user. The returned error carries
// detail for logs; the Outcome is what callers branch on. Calls for a user
// that already has an attempt in flight share that attempt's result.
func (s *Service) Deliver(ctx context.Context, req Request) (Outcome, error) {
	v, err, shared := s.inflight.Do(strconv.FormatInt(req.TelegramID, 10), func() (any, error) {
		outcome, err := s.deliver(ctx, req)
		if s.outcomes != nil {
			s.outcomes.WithLabelValues(string(outcome)).Inc()
		}
		return outcome, err
	})
	if shared {
		logger.FromContext(ctx).Debug("Joined in-flight book delivery", zap.Int64("telegram_id", req.TelegramID))
	}
	return v.(Outcome), err //nolint:forcetypeassert // the flight func only returns Outcome
}

func (s *Service) deliver(ctx context.Context, req Request) (Outcome, error) {
	log := logger.FromContext(ctx)

	u, err := s.users.GetUser(ctx, req.TelegramID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return UserNotFound, err
		}
		return Transient, fmt.Errorf("get user: %w", err)
	}

	if u.BookReceived {
		s.removeButton(ctx, req)
		return AlreadySent, nil
	}

	if !s.gate.IsSubscribed(ctx, req.TelegramID) {
		return NotSubscribed, nil
	}

	if _, err := os.Stat(s.cfg.BookPath); err != nil {
		log.Error("Book file is not available", zap.String("path", s.cfg.BookPath), zap.Error(err))
		return FileMissing, fmt.Errorf("%s: %w", s.cfg.BookPath, domain.ErrBookMissing)
	}

	if err := s.sender.SendDocument(ctx, req.ChatID, s.cfg.BookPath, s.cfg.Caption); err != nil {
		return Transient, fmt.Errorf("send book: %w", err)
	}

	if err := s.users.MarkBookReceived(ctx, req.TelegramID); err != nil {
		// The file reached the user; a retry would resend it, which is acceptable.
		return Transient, fmt.Errorf("mark book received: %w", err)
	}

	s.removeButton(ctx, req)
	log.Info("Book delivered", zap.Int64("telegram_id", req.TelegramID))
	return Delivered, nil
}

// removeButton is best-effort: old messages can no longer be edited.
func (s *Service) removeButton(ctx context.Context, req Request) {
	if req.MessageID == 0 {
		return
	}
	if err := s.sender.RemoveKeyboard(ctx, req.ChatID, req.MessageID); err != nil {
		logger.FromContext(ctx).Debug("Could not remove keyboard",
			zap.Int("message_id", req.MessageID),
			zap.Error(err),
		)
	}
}
