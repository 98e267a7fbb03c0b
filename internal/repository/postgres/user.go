package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"

	"esltrainer/internal/apperr"
	"esltrainer/internal/domain"
)

const userColumns = `id, name, email, password_hash, level, telegram_id, daily_goal,
	notifications_enabled, theme, total_practice_time, streak_days, last_practice_date,
	created_at, updated_at`

// UserRepo implements repository.UserRepository
type UserRepo struct {
	db *sql.DB
}

// NewUserRepo creates a new user repository
func NewUserRepo(db *sql.DB) *UserRepo {
	return &UserRepo{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*domain.User, error) {
	var u domain.User
	var telegramID sql.NullInt64
	var lastPractice sql.NullTime

	err := row.Scan(
		&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.Level, &telegramID, &u.Preferences.DailyGoal,
		&u.Preferences.NotificationsEnabled, &u.Preferences.Theme, &u.Stats.TotalPracticeTime,
		&u.Stats.StreakDays, &lastPractice, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if telegramID.Valid {
		u.TelegramID = &telegramID.Int64
	}
	if lastPractice.Valid {
		u.Stats.LastPracticeDate = &lastPractice.Time
	}
	return &u, nil
}

// Create inserts a new user and fills in its id and timestamps
func (r *UserRepo) Create(ctx context.Context, user *domain.User) error {
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}

	query := `
		INSERT INTO users (id, name, email, password_hash, level, daily_goal, notifications_enabled, theme)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at, updated_at
	`
	err := r.db.QueryRowContext(ctx, query,
		user.ID, user.Name, user.Email, user.PasswordHash, user.Level,
		user.Preferences.DailyGoal, user.Preferences.NotificationsEnabled, user.Preferences.Theme,
	).Scan(&user.CreatedAt, &user.UpdatedAt)

	if isUniqueViolation(err) {
		return apperr.Conflict("User already exists")
	}
	if err != nil {
		return apperr.Storage("failed to create user", err)
	}
	return nil
}

func (r *UserRepo) getOne(ctx context.Context, where string, arg any) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE ` + where
	u, err := scanUser(r.db.QueryRowContext(ctx, query, arg))

	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("User not found")
	}
	if err != nil {
		return nil, apperr.Storage("failed to load user", err)
	}
	return u, nil
}

// GetByID returns the user with id
func (r *UserRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	return r.getOne(ctx, "id = $1", id)
}

// GetByEmail returns the user registered with email
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.getOne(ctx, "email = $1", email)
}

// GetByTelegramID returns the user linked to a Telegram account
func (r *UserRepo) GetByTelegramID(ctx context.Context, telegramID int64) (*domain.User, error) {
	return r.getOne(ctx, "telegram_id = $1", telegramID)
}

// LinkTelegram attaches a Telegram account to a user
func (r *UserRepo) LinkTelegram(ctx context.Context, id uuid.UUID, telegramID int64) error {
	query := `UPDATE users SET telegram_id = $2, updated_at = NOW() WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, id, telegramID)
	if isUniqueViolation(err) {
		return apperr.Conflict("Telegram account is already linked to another user")
	}
	if err != nil {
		return apperr.Storage("failed to link telegram account", err)
	}
	return expectOneRow(res, "User not found")
}

// UpdatePreferences replaces the user's preferences
func (r *UserRepo) UpdatePreferences(ctx context.Context, id uuid.UUID, prefs domain.Preferences) error {
	query := `
		UPDATE users
		SET daily_goal = $2, notifications_enabled = $3, theme = $4, updated_at = NOW()
		WHERE id = $1
	`
	res, err := r.db.ExecContext(ctx, query, id, prefs.DailyGoal, prefs.NotificationsEnabled, prefs.Theme)
	if err != nil {
		return apperr.Storage("failed to update preferences", err)
	}
	return expectOneRow(res, "User not found")
}

// AddPracticeTime atomically increments the practice counter
func (r *UserRepo) AddPracticeTime(ctx context.Context, id uuid.UUID, seconds int) (*domain.Stats, error) {
	query := `
		UPDATE users
		SET total_practice_time = total_practice_time + $2, updated_at = NOW()
		WHERE id = $1
		RETURNING total_practice_time, streak_days, last_practice_date
	`
	var stats domain.Stats
	var lastPractice sql.NullTime
	err := r.db.QueryRowContext(ctx, query, id, seconds).Scan(&stats.TotalPracticeTime, &stats.StreakDays, &lastPractice)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("User not found")
	}
	if err != nil {
		return nil, apperr.Storage("failed to update practice time", err)
	}
	if lastPractice.Valid {
		stats.LastPracticeDate = &lastPractice.Time
	}
	return &stats, nil
}

func expectOneRow(res sql.Result, notFound string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return apperr.Storage("failed to read affected rows", err)
	}
	if n == 0 {
		return apperr.NotFound(notFound)
	}
	return nil
}
