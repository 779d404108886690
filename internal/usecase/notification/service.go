package notification

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	domuser "github.com/tgassist/tgassist/internal/domain/user"
	"github.com/tgassist/tgassist/internal/logger"
)

const (
	eveningFrom = 18
	eveningTo   = 23
)

// Report summarizes one notification run.
type Report struct {
	Due    int `json:"due"`
	Sent   int `json:"sent"`
	Failed int `json:"failed"`
}

// Service sends scheduled motivational messages.
type Service struct {
	subscribers SubscriberLister
	sender      MessageSender
	delay       time.Duration
	sent        *prometheus.CounterVec
	pick        func(n int) int
}

// New creates a Service. delay separates consecutive sends; sent (label "status") may be nil.
func New(subscribers SubscriberLister, sender MessageSender, delay time.Duration, sent *prometheus.CounterVec) *Service {
	return &Service{
		subscribers: subscribers,
		sender:      sender,
		delay:       delay,
		sent:        sent,
		pick:        rand.Intn,
	}
}

// Due reports whether sub should be notified at now: the user-local hour,
// formatted "HH:00", equals the configured time and the frequency allows the
// local weekday.
func Due(now time.Time, sub domuser.Subscriber) bool {
	if sub.Settings.Time == "" {
		return false
	}
	local := sub.User.LocalTime(now)
	if fmt.Sprintf("%02d:00", local.Hour()) != sub.Settings.Time {
		return false
	}
	return sub.Settings.Frequency.Matches(local.Weekday())
}

// Compose builds the message for a user whose local hour is hour.
func (s *Service) Compose(username string, hour int) string {
	pool := motivational
	if hour >= eveningFrom && hour <= eveningTo {
		pool = evening
	}
	msg := pool[s.pick(len(pool))]
	if username != "" {
		msg = fmt.Sprintf(greetingFormat, username) + msg
	}
	return msg
}

// RunOnce notifies every subscriber due at now. A failed send is counted and
// the batch continues.
func (s *Service) RunOnce(ctx context.Context, now time.Time) (Report, error) {
	log := logger.FromContext(ctx)

	subs, err := s.subscribers.ListNotificationUsers(ctx)
	if err != nil {
		return Report{}, fmt.Errorf("list subscribers: %w", err)
	}

	var due []domuser.Subscriber
	for _, sub := range subs {
		if Due(now, sub) {
			due = append(due, sub)
		}
	}

	report := Report{Due: len(due)}
	if len(due) == 0 {
		log.Debug("No users to notify", zap.Time("now", now))
		return report, nil
	}

	for i, sub := range due {
		if i > 0 && !s.wait(ctx) {
			break
		}

		msg := s.Compose(sub.User.Username, sub.User.LocalTime(now).Hour())
		if err := s.sender.SendMessage(ctx, sub.User.TelegramID, msg); err != nil {
			report.Failed++
			s.count("failed")
			log.Warn("Notification failed", zap.Int64("telegram_id", sub.User.TelegramID), zap.Error(err))
			continue
		}
		report.Sent++
		s.count("sent")
	}

	log.Info("Notification batch completed",
		zap.Int("due", report.Due),
		zap.Int("sent", report.Sent),
		zap.Int("failed", report.Failed),
	)
	return report, nil
}

// SendTest sends the fixed test message to one chat.
func (s *Service) SendTest(ctx context.Context, chatID int64) error {
	if err := s.sender.SendMessage(ctx, chatID, TestMessage); err != nil {
		return fmt.Errorf("send test notification: %w", err)
	}
	return nil
}

func (s *Service) wait(ctx context.Context) bool {
	if s.delay <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(s.delay)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

func (s *Service) count(status string) {
	if s.sent != nil {
		s.sent.WithLabelValues(status).Inc()
	}
}
