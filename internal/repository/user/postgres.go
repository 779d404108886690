package user

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/tgassist/tgassist/internal/db"
	"github.com/tgassist/tgassist/internal/domain"
	domuser "github.com/tgassist/tgassist/internal/domain/user"
	"github.com/tgassist/tgassist/internal/logger"
)

const userColumns = `id, telegram_id, COALESCE(username, ''), book_received, notification, COALESCE(timezone, 'UTC'), is_audio`

// Repo stores users and their notification settings in Postgres.
// Writes are last-write-wins upserts keyed by telegram_id / user_id.
type Repo struct {
	db *sql.DB
}

// New creates a user repository.
func New(conn *sql.DB) *Repo {
	return &Repo{db: conn}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*domuser.User, error) {
	u := &domuser.User{}
	err := row.Scan(&u.ID, &u.TelegramID, &u.Username, &u.BookReceived, &u.Notification, &u.Timezone, &u.IsAudio)
	if err != nil {
		return nil, err //nolint:wrapcheck // callers wrap with op
	}
	return u, nil
}

// GetUser returns the user with the given Telegram id or domain.ErrUserNotFound.
func (r *Repo) GetUser(ctx context.Context, telegramID int64) (*domuser.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE telegram_id = $1`

	u, err := scanUser(r.db.QueryRowContext(ctx, query, telegramID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrUserNotFound
		}
		return nil, &db.Error{Op: db.OpQuery, Err: fmt.Errorf("get user: %w", err)}
	}
	return u, nil
}

// CreateIfAbsent inserts a user unless one already exists; existing rows are never
// overwritten. It reports whether a row was created.
func (r *Repo) CreateIfAbsent(ctx context.Context, telegramID int64, username string) (bool, error) {
	query := `
		INSERT INTO users (telegram_id, username)
		VALUES ($1, NULLIF($2, ''))
		ON CONFLICT (telegram_id) DO NOTHING
	`

	res, err := r.db.ExecContext(ctx, query, telegramID, username)
	if err != nil {
		return false, &db.Error{Op: db.OpExec, Err: fmt.Errorf("create user: %w", err)}
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, &db.Error{Op: db.OpExec, Err: err}
	}

	if n > 0 {
		logger.FromContext(ctx).Debug("user created", zap.Int64("telegram_id", telegramID))
	}
	return n > 0, nil
}

// UpsertUser writes every mutable field of u.
func (r *Repo) UpsertUser(ctx context.Context, u *domuser.User) error {
	query := `
		INSERT INTO users (telegram_id, username, book_received, notification, timezone, is_audio)
		VALUES ($1, NULLIF($2, ''), $3, $4, $5, $6)
		ON CONFLICT (telegram_id) DO UPDATE SET
			username = EXCLUDED.username,
			book_received = EXCLUDED.book_received,
			notification = EXCLUDED.notification,
			timezone = EXCLUDED.timezone,
			is_audio = EXCLUDED.is_audio
	`

	tz := u.Timezone
	if tz == "" {
		tz = domuser.DefaultTimezone
	}
	_, err := r.db.ExecContext(ctx, query, u.TelegramID, u.Username, u.BookReceived, u.Notification, tz, u.IsAudio)
	if err != nil {
		return &db.Error{Op: db.OpExec, Err: fmt.Errorf("upsert user: %w", err)}
	}
	return nil
}

// SetNotification toggles scheduled notifications for a user.
func (r *Repo) SetNotification(ctx context.Context, telegramID int64, enabled bool) error {
	return r.updateUser(ctx, "set notification", `UPDATE users SET notification = $2 WHERE telegram_id = $1`,
		telegramID, enabled)
}

// SetTimezone stores the user's "UTC±N" zone.
func (r *Repo) SetTimezone(ctx context.Context, telegramID int64, tz string) error {
	return r.updateUser(ctx, "set timezone", `UPDATE users SET timezone = $2 WHERE telegram_id = $1`,
		telegramID, tz)
}

// MarkBookReceived records a successful book delivery.
func (r *Repo) MarkBookReceived(ctx context.Context, telegramID int64) error {
	return r.updateUser(ctx, "mark book received", `UPDATE users SET book_received = TRUE WHERE telegram_id = $1`,
		telegramID)
}

func (r *Repo) updateUser(ctx context.Context, op, query string, args ...any) error {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return &db.Error{Op: db.OpExec, Err: fmt.Errorf("%s: %w", op, err)}
	}
	n, err := res.RowsAffected()
	if err != nil {
		return &db.Error{Op: db.OpExec, Err: err}
	}
	if n == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

// GetNotificationSettings returns the settings of the user row id or domain.ErrSettingsNotFound.
func (r *Repo) GetNotificationSettings(ctx context.Context, userID int64) (domuser.Settings, error) {
	var raw []byte
	err := r.db.QueryRowContext(ctx, `SELECT settings FROM notification_settings WHERE user_id = $1`, userID).Scan(&raw)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domuser.Settings{}, domain.ErrSettingsNotFound
		}
		return domuser.Settings{}, &db.Error{Op: db.OpQuery, Err: fmt.Errorf("get settings: %w", err)}
	}

	var s domuser.Settings
	if err := json.Unmarshal(raw, &s); err != nil {
		return domuser.Settings{}, fmt.Errorf("decode settings for user %d: %w", userID, err)
	}
	return s, nil
}

// UpsertNotificationSettings replaces the settings document of the user row id.
func (r *Repo) UpsertNotificationSettings(ctx context.Context, userID int64, s domuser.Settings) error {
	raw, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}

	query := `
		INSERT INTO notification_settings (user_id, settings)
		VALUES ($1, $2::jsonb)
		ON CONFLICT (user_id) DO UPDATE SET settings = EXCLUDED.settings
	`
	if _, err := r.db.ExecContext(ctx, query, userID, string(raw)); err != nil {
		return &db.Error{Op: db.OpExec, Err: fmt.Errorf("upsert settings: %w", err)}
	}
	return nil
}

// ListNotificationUsers returns every notification-enabled user that has settings.
// Rows with undecodable settings are skipped.
func (r *Repo) ListNotificationUsers(ctx context.Context) ([]domuser.Subscriber, error) {
	query := `
		SELECT u.id, u.telegram_id, COALESCE(u.username, ''), u.book_received, u.notification,
			COALESCE(u.timezone, 'UTC'), u.is_audio, s.settings
		FROM users u
		JOIN notification_settings s ON s.user_id = u.id
		WHERE u.notification = TRUE
		ORDER BY u.id
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, &db.Error{Op: db.OpQuery, Err: fmt.Errorf("list notification users: %w", err)}
	}
	defer rows.Close()

	log := logger.FromContext(ctx)
	var out []domuser.Subscriber
	for rows.Next() {
		var (
			sub domuser.Subscriber
			raw []byte
		)
		u := &sub.User
		if err := rows.Scan(&u.ID, &u.TelegramID, &u.Username, &u.BookReceived, &u.Notification,
			&u.Timezone, &u.IsAudio, &raw); err != nil {
			return nil, &db.Error{Op: db.OpQuery, Err: err}
		}
		if err := json.Unmarshal(raw, &sub.Settings); err != nil {
			log.Warn("skip user with malformed settings", zap.Int64("telegram_id", u.TelegramID), zap.Error(err))
			continue
		}
		out = append(out, sub)
	}
	if err := rows.Err(); err != nil {
		return nil, &db.Error{Op: db.OpQuery, Err: err}
	}
	return out, nil
}
