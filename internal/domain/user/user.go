package user

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/tgassist/tgassist/internal/domain"
)

// DefaultTimezone is used when a user never picked one.
const DefaultTimezone = "UTC"

// User is the bot's view of a Telegram user.
type User struct {
	ID           int64 // store row id
	TelegramID   int64
	Username     string
	BookReceived bool
	Notification bool
	Timezone     string
	IsAudio      bool
}

// Frequency controls on which weekdays notifications go out.
type Frequency string

const (
	// Daily sends every day.
	Daily Frequency = "daily"
	// Weekdays sends Monday through Friday.
	Weekdays Frequency = "weekdays"
	// Weekends sends Saturday and Sunday.
	Weekends Frequency = "weekends"
)

// ParseFrequency validates a frequency string.
func ParseFrequency(s string) (Frequency, error) {
	switch f := Frequency(s); f {
	case Daily, Weekdays, Weekends:
		return f, nil
	default:
		return "", fmt.Errorf("frequency %q: %w", s, domain.ErrInvalidSchedule)
	}
}

// Matches reports whether the frequency allows sending on the given weekday.
func (f Frequency) Matches(day time.Weekday) bool {
	weekend := day == time.Saturday || day == time.Sunday
	switch f {
	case Daily:
		return true
	case Weekdays:
		return !weekend
	case Weekends:
		return weekend
	default:
		return false
	}
}

// Settings are per-user notification preferences.
type Settings struct {
	Time      string    `json:"time,omitempty"`      // "HH:MM"
	Frequency Frequency `json:"frequency,omitempty"` // empty until chosen
}

var clockRegex = regexp.MustCompile(`^([01]\d|2[0-3]):[0-5]\d$`)

// ValidateTime checks the "HH:MM" 24h form.
func ValidateTime(s string) error {
	if !clockRegex.MatchString(s) {
		return fmt.Errorf("time %q: %w", s, domain.ErrInvalidSchedule)
	}
	return nil
}

// ParseOffset converts "UTC", "UTC+3", "UTC-5" into an hour offset.
func ParseOffset(tz string) (int, error) {
	if tz == "" || tz == "UTC" {
		return 0, nil
	}
	rest, ok := strings.CutPrefix(tz, "UTC")
	// Exactly one sign followed by digits: Atoi would accept a second sign.
	if !ok || len(rest) < 2 || (rest[0] != '+' && rest[0] != '-') || rest[1] < '0' || rest[1] > '9' {
		return 0, fmt.Errorf("timezone %q: %w", tz, domain.ErrInvalidTimezone)
	}
	n, err := strconv.Atoi(rest[1:])
	if err != nil || n > 14 {
		return 0, fmt.Errorf("timezone %q: %w", tz, domain.ErrInvalidTimezone)
	}
	if rest[0] == '-' {
		n = -n
	}
	return n, nil
}

// LocalTime shifts now into the user's timezone. Unparseable zones count as UTC.
func (u *User) LocalTime(now time.Time) time.Time {
	offset, err := ParseOffset(u.Timezone)
	if err != nil {
		offset = 0
	}
	return now.UTC().Add(time.Duration(offset) * time.Hour)
}

// Subscriber is a notification-enabled user together with their schedule.
type Subscriber struct {
	User     User
	Settings Settings
}
