package user

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/tgassist/tgassist/internal/domain"
	domuser "github.com/tgassist/tgassist/internal/domain/user"
	"github.com/tgassist/tgassist/internal/logger"
)

// DefaultTime is the first-time schedule hour offered when a user picks a frequency.
const DefaultTime = "09:00"

// Service manages registration and notification preferences.
type Service struct {
	store Store
}

// New creates a Service.
func New(store Store) *Service {
	return &Service{store: store}
}

// Register creates the user on first contact. Existing users are left untouched.
func (s *Service) Register(ctx context.Context, telegramID int64, username string) (*domuser.User, error) {
	created, err := s.store.CreateIfAbsent(ctx, telegramID, username)
	if err != nil {
		return nil, fmt.Errorf("register: %w", err)
	}
	if created {
		logger.FromContext(ctx).Info("New user registered", zap.Int64("telegram_id", telegramID))
	}

	u, err := s.store.GetUser(ctx, telegramID)
	if err != nil {
		return nil, fmt.Errorf("register: %w", err)
	}
	return u, nil
}

// Get returns the user.
func (s *Service) Get(ctx context.Context, telegramID int64) (*domuser.User, error) {
	u, err := s.store.GetUser(ctx, telegramID)
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}

// SetNotifications turns scheduled notifications on or off.
func (s *Service) SetNotifications(ctx context.Context, telegramID int64, enabled bool) error {
	if err := s.store.SetNotification(ctx, telegramID, enabled); err != nil {
		return fmt.Errorf("set notifications: %w", err)
	}
	return nil
}

// SetTimezone validates and stores "UTC", "UTC+N" or "UTC-N".
func (s *Service) SetTimezone(ctx context.Context, telegramID int64, tz string) error {
	if _, err := domuser.ParseOffset(tz); err != nil {
		return err //nolint:wrapcheck // domain validation error
	}
	if err := s.store.SetTimezone(ctx, telegramID, tz); err != nil {
		return fmt.Errorf("set timezone: %w", err)
	}
	return nil
}

// SetFrequency stores the frequency, keeping the current time or DefaultTime.
func (s *Service) SetFrequency(ctx context.Context, telegramID int64, frequency string) (domuser.Settings, error) {
	f, err := domuser.ParseFrequency(frequency)
	if err != nil {
		return domuser.Settings{}, err //nolint:wrapcheck // domain validation error
	}

	u, current, err := s.current(ctx, telegramID)
	if err != nil {
		return domuser.Settings{}, err
	}
	current.Frequency = f
	if current.Time == "" {
		current.Time = DefaultTime
	}
	return current, s.save(ctx, u.ID, current)
}

// SetSchedule validates and upserts both time and frequency.
func (s *Service) SetSchedule(ctx context.Context, telegramID int64, clock, frequency string) (domuser.Settings, error) {
	if err := domuser.ValidateTime(clock); err != nil {
		return domuser.Settings{}, err //nolint:wrapcheck // domain validation error
	}
	f, err := domuser.ParseFrequency(frequency)
	if err != nil {
		return domuser.Settings{}, err //nolint:wrapcheck // domain validation error
	}

	u, err := s.store.GetUser(ctx, telegramID)
	if err != nil {
		return domuser.Settings{}, fmt.Errorf("set schedule: %w", err)
	}
	settings := domuser.Settings{Time: clock, Frequency: f}
	return settings, s.save(ctx, u.ID, settings)
}

// Settings returns the user's schedule; users without one get zero settings.
func (s *Service) Settings(ctx context.Context, telegramID int64) (domuser.Settings, error) {
	_, current, err := s.current(ctx, telegramID)
	return current, err
}

func (s *Service) current(ctx context.Context, telegramID int64) (*domuser.User, domuser.Settings, error) {
	u, err := s.store.GetUser(ctx, telegramID)
	if err != nil {
		return nil, domuser.Settings{}, fmt.Errorf("get user: %w", err)
	}
	settings, err := s.store.GetNotificationSettings(ctx, u.ID)
	if err != nil && !errors.Is(err, domain.ErrSettingsNotFound) {
		return nil, domuser.Settings{}, fmt.Errorf("get settings: %w", err)
	}
	return u, settings, nil
}

func (s *Service) save(ctx context.Context, userID int64, settings domuser.Settings) error {
	if err := s.store.UpsertNotificationSettings(ctx, userID, settings); err != nil {
		return fmt.Errorf("save settings: %w", err)
	}
	return nil
}
