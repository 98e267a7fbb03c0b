package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"esltrainer/internal/apperr"
	"esltrainer/internal/domain"
)

// ProgressRepo implements repository.ProgressRepository.
// Mutations run in a transaction holding the user's row lock, so concurrent
// updates for the same user are serialized instead of overwriting each other.
type ProgressRepo struct {
	db *sql.DB
}

// NewProgressRepo creates a new progress repository
func NewProgressRepo(db *sql.DB) *ProgressRepo {
	return &ProgressRepo{db: db}
}

// GetProgress loads mastery maps, completed scenarios and stats
func (r *ProgressRepo) GetProgress(ctx context.Context, userID uuid.UUID) (*domain.ProgressReport, error) {
	report := &domain.ProgressReport{Progress: domain.NewProgress()}

	var lastPractice sql.NullTime
	err := r.db.QueryRowContext(ctx,
		`SELECT total_practice_time, streak_days, last_practice_date FROM users WHERE id = $1`, userID,
	).Scan(&report.Stats.TotalPracticeTime, &report.Stats.StreakDays, &lastPractice)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("User not found")
	}
	if err != nil {
		return nil, apperr.Storage("failed to load stats", err)
	}
	if lastPractice.Valid {
		report.Stats.LastPracticeDate = &lastPractice.Time
	}

	rows, err := r.db.QueryContext(ctx, `SELECT kind, item, score FROM mastery WHERE user_id = $1`, userID)
	if err != nil {
		return nil, apperr.Storage("failed to load mastery", err)
	}
	defer rows.Close()

	for rows.Next() {
		var kind domain.MasteryKind
		var item string
		var score int
		if err := rows.Scan(&kind, &item, &score); err != nil {
			return nil, apperr.Storage("failed to scan mastery", err)
		}
		report.Progress.Mastery(kind)[item] = score
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Storage("failed to load mastery", err)
	}

	completed, err := r.db.QueryContext(ctx, `
		SELECT scenario_id, completed_at, score
		FROM completed_scenarios
		WHERE user_id = $1
		ORDER BY completed_at
	`, userID)
	if err != nil {
		return nil, apperr.Storage("failed to load completed scenarios", err)
	}
	defer completed.Close()

	for completed.Next() {
		var c domain.CompletedScenario
		if err := completed.Scan(&c.ScenarioID, &c.CompletedAt, &c.Score); err != nil {
			return nil, apperr.Storage("failed to scan completed scenario", err)
		}
		report.Progress.CompletedScenarios = append(report.Progress.CompletedScenarios, c)
	}
	if err := completed.Err(); err != nil {
		return nil, apperr.Storage("failed to load completed scenarios", err)
	}

	return report, nil
}

// UpdateMastery applies fn to the current score of item (0 when absent) and stores the result
func (r *ProgressRepo) UpdateMastery(ctx context.Context, userID uuid.UUID, kind domain.MasteryKind, item string, apply func(current int) int) (int, error) {
	var next int
	err := r.withUserLock(ctx, userID, func(tx *sql.Tx) error {
		var current int
		err := tx.QueryRowContext(ctx,
			`SELECT score FROM mastery WHERE user_id = $1 AND kind = $2 AND item = $3`,
			userID, kind, item,
		).Scan(&current)
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return apperr.Storage("failed to load mastery", err)
		}

		next = apply(current)

		_, err = tx.ExecContext(ctx, `
			INSERT INTO mastery (user_id, kind, item, score, updated_at)
			VALUES ($1, $2, $3, $4, NOW())
			ON CONFLICT (user_id, kind, item)
			DO UPDATE SET score = EXCLUDED.score, updated_at = NOW()
		`, userID, kind, item, next)
		if err != nil {
			return apperr.Storage("failed to save mastery", err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return next, nil
}

// RecordCompletion upserts the completion record and advances the streak
func (r *ProgressRepo) RecordCompletion(ctx context.Context, userID uuid.UUID, rec domain.CompletedScenario, now time.Time) (*domain.Stats, error) {
	var stats domain.Stats
	err := r.withUserLock(ctx, userID, func(tx *sql.Tx) error {
		var lastPractice sql.NullTime
		err := tx.QueryRowContext(ctx,
			`SELECT total_practice_time, streak_days, last_practice_date FROM users WHERE id = $1`, userID,
		).Scan(&stats.TotalPracticeTime, &stats.StreakDays, &lastPractice)
		if err != nil {
			return apperr.Storage("failed to load stats", err)
		}
		if lastPractice.Valid {
			stats.LastPracticeDate = &lastPractice.Time
		}

		_, err = tx.ExecContext(ctx, `
			INSERT INTO completed_scenarios (user_id, scenario_id, completed_at, score)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (user_id, scenario_id)
			DO UPDATE SET completed_at = EXCLUDED.completed_at, score = EXCLUDED.score
		`, userID, rec.ScenarioID, rec.CompletedAt, rec.Score)
		if err != nil {
			return apperr.Storage("failed to save completed scenario", err)
		}

		stats = domain.NextStreak(stats, now)

		_, err = tx.ExecContext(ctx, `
			UPDATE users
			SET streak_days = $2, last_practice_date = $3, updated_at = NOW()
			WHERE id = $1
		`, userID, stats.StreakDays, stats.LastPracticeDate)
		if err != nil {
			return apperr.Storage("failed to save stats", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &stats, nil
}

// withUserLock runs fn in a transaction after locking the user's row
func (r *ProgressRepo) withUserLock(ctx context.Context, userID uuid.UUID, fn func(tx *sql.Tx) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return apperr.Storage("failed to begin transaction", err)
	}
	defer tx.Rollback()

	var locked uuid.UUID
	err = tx.QueryRowContext(ctx, `SELECT id FROM users WHERE id = $1 FOR UPDATE`, userID).Scan(&locked)
	if errors.Is(err, sql.ErrNoRows) {
		return apperr.NotFound("User not found")
	}
	if err != nil {
		return apperr.Storage("failed to lock user", err)
	}

	if err := fn(tx); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return apperr.Storage("failed to commit transaction", err)
	}
	return nil
}
