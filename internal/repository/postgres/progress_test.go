package postgres

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"esltrainer/internal/apperr"
	"esltrainer/internal/domain"
)

const lockQuery = "SELECT id FROM users WHERE id = \\$1 FOR UPDATE"

func TestProgressRepo_GetProgress(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewProgressRepo(db)
	id := uuid.New()
	completedAt := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

	mock.ExpectQuery("SELECT total_practice_time, streak_days, last_practice_date FROM users").
		WithArgs(id).
		WillReturnRows(sqlmock.NewRows([]string{"total_practice_time", "streak_days", "last_practice_date"}).
			AddRow(120, 3, completedAt))
	mock.ExpectQuery("SELECT kind, item, score FROM mastery").
		WithArgs(id).
		WillReturnRows(sqlmock.NewRows([]string{"kind", "item", "score"}).
			AddRow("vocabulary", "coffee", 40).
			AddRow("phrase", "Table for two", 90))
	mock.ExpectQuery("SELECT scenario_id, completed_at, score FROM completed_scenarios").
		WithArgs(id).
		WillReturnRows(sqlmock.NewRows([]string{"scenario_id", "completed_at", "score"}).
			AddRow("coffee-shop", completedAt, 80))

	report, err := repo.GetProgress(context.Background(), id)

	require.NoError(t, err)
	assert.Equal(t, 40, report.Progress.VocabularyMastery["coffee"])
	assert.Equal(t, 90, report.Progress.PhraseMastery["Table for two"])
	assert.Equal(t, []domain.CompletedScenario{{ScenarioID: "coffee-shop", CompletedAt: completedAt, Score: 80}},
		report.Progress.CompletedScenarios)
	assert.Equal(t, 3, report.Stats.StreakDays)
	assert.Equal(t, 120, report.Stats.TotalPracticeTime)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProgressRepo_GetProgress_UserNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewProgressRepo(db)
	id := uuid.New()

	mock.ExpectQuery("SELECT total_practice_time").WithArgs(id).WillReturnError(sql.ErrNoRows)

	_, err = repo.GetProgress(context.Background(), id)

	assert.True(t, apperr.Is(err, apperr.KindNotFound))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProgressRepo_UpdateMastery(t *testing.T) {
	tests := []struct {
		name     string
		existing *int
		delta    int
		expected int
	}{
		{name: "clamped at 100", existing: intPtr(40), delta: 70, expected: 100},
		{name: "new item starts at zero", existing: nil, delta: 10, expected: 10},
		{name: "clamped at 0", existing: intPtr(5), delta: -20, expected: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock, err := sqlmock.New()
			require.NoError(t, err)
			defer db.Close()

			repo := NewProgressRepo(db)
			id := uuid.New()

			mock.ExpectBegin()
			mock.ExpectQuery(lockQuery).WithArgs(id).
				WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(id.String()))
			score := mock.ExpectQuery("SELECT score FROM mastery").WithArgs(id, "vocabulary", "coffee")
			if tt.existing != nil {
				score.WillReturnRows(sqlmock.NewRows([]string{"score"}).AddRow(*tt.existing))
			} else {
				score.WillReturnError(sql.ErrNoRows)
			}
			mock.ExpectExec("INSERT INTO mastery").
				WithArgs(id, "vocabulary", "coffee", tt.expected).
				WillReturnResult(sqlmock.NewResult(0, 1))
			mock.ExpectCommit()

			got, err := repo.UpdateMastery(context.Background(), id, domain.MasteryVocabulary, "coffee", func(current int) int {
				return domain.ApplyMasteryDelta(current, tt.delta)
			})

			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestProgressRepo_UpdateMastery_UnknownUserRollsBack(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewProgressRepo(db)
	id := uuid.New()

	mock.ExpectBegin()
	mock.ExpectQuery(lockQuery).WithArgs(id).WillReturnError(sql.ErrNoRows)
	mock.ExpectRollback()

	_, err = repo.UpdateMastery(context.Background(), id, domain.MasteryPhrase, "Excuse me", func(int) int { return 10 })

	assert.True(t, apperr.Is(err, apperr.KindNotFound))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProgressRepo_UpdateMastery_WriteFailureRollsBack(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewProgressRepo(db)
	id := uuid.New()

	mock.ExpectBegin()
	mock.ExpectQuery(lockQuery).WithArgs(id).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(id.String()))
	mock.ExpectQuery("SELECT score FROM mastery").WillReturnError(sql.ErrNoRows)
	mock.ExpectExec("INSERT INTO mastery").WillReturnError(sql.ErrConnDone)
	mock.ExpectRollback()

	_, err = repo.UpdateMastery(context.Background(), id, domain.MasteryVocabulary, "tea", func(int) int { return 10 })

	assert.True(t, apperr.Is(err, apperr.KindStorage))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProgressRepo_RecordCompletion(t *testing.T) {
	dayN := time.Date(2024, 5, 10, 9, 0, 0, 0, time.UTC)

	tests := []struct {
		name           string
		lastPractice   any
		streak         int
		now            time.Time
		expectedStreak int
	}{
		{name: "first practice", lastPractice: nil, streak: 0, now: dayN, expectedStreak: 1},
		{name: "same day", lastPractice: dayN, streak: 3, now: dayN.Add(2 * time.Hour), expectedStreak: 3},
		{name: "next day", lastPractice: dayN, streak: 3, now: dayN.Add(24 * time.Hour), expectedStreak: 4},
		{name: "gap resets", lastPractice: dayN, streak: 3, now: dayN.Add(5 * 24 * time.Hour), expectedStreak: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock, err := sqlmock.New()
			require.NoError(t, err)
			defer db.Close()

			repo := NewProgressRepo(db)
			id := uuid.New()
			rec := domain.CompletedScenario{ScenarioID: "restaurant", CompletedAt: tt.now, Score: 75}

			mock.ExpectBegin()
			mock.ExpectQuery(lockQuery).WithArgs(id).
				WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(id.String()))
			mock.ExpectQuery("SELECT total_practice_time, streak_days, last_practice_date FROM users").
				WithArgs(id).
				WillReturnRows(sqlmock.NewRows([]string{"total_practice_time", "streak_days", "last_practice_date"}).
					AddRow(0, tt.streak, tt.lastPractice))
			mock.ExpectExec("INSERT INTO completed_scenarios").
				WithArgs(id, "restaurant", tt.now, 75).
				WillReturnResult(sqlmock.NewResult(0, 1))
			mock.ExpectExec("UPDATE users").
				WithArgs(id, tt.expectedStreak, tt.now).
				WillReturnResult(sqlmock.NewResult(0, 1))
			mock.ExpectCommit()

			stats, err := repo.RecordCompletion(context.Background(), id, rec, tt.now)

			require.NoError(t, err)
			assert.Equal(t, tt.expectedStreak, stats.StreakDays)
			assert.True(t, stats.LastPracticeDate.Equal(tt.now))
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func intPtr(v int) *int {
	return &v
}
