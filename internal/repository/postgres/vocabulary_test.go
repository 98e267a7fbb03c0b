package postgres

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"esltrainer/internal/apperr"
	"esltrainer/internal/domain"
)

var vocabularyRowColumns = []string{
	"id", "type", "word", "translation", "definition", "examples", "category", "difficulty",
	"title", "slug", "description", "content", "cache_key", "expires_at", "ai_generated",
	"created_at", "updated_at",
}

func TestVocabularyRepo_Create(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewVocabularyRepo(db)
	item := &domain.VocabularyItem{
		Type:        domain.ItemWord,
		Word:        "coffee",
		Translation: "kahve",
		Examples:    []string{"I drink coffee every morning."},
		Category:    "food",
		Difficulty:  domain.DifficultyA1,
	}
	now := time.Now()

	mock.ExpectQuery("INSERT INTO vocabulary_items").
		WithArgs(sqlmock.AnyArg(), "word", "coffee", "kahve", "", []byte(`["I drink coffee every morning."]`),
			"food", "A1", "", "", "", sqlmock.AnyArg(), nil, nil, false).
		WillReturnRows(sqlmock.NewRows([]string{"created_at", "updated_at"}).AddRow(now, now))

	err = repo.Create(context.Background(), item)

	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, item.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestVocabularyRepo_GetByID(t *testing.T) {
	id := uuid.New()
	now := time.Now()

	tests := []struct {
		name         string
		mockRows     *sqlmock.Rows
		mockError    error
		expectedKind apperr.Kind
	}{
		{
			name: "scenario with content",
			mockRows: sqlmock.NewRows(vocabularyRowColumns).AddRow(
				id.String(), "scenario", "", "", "", []byte(`[]`), "travel", "beginner",
				"Airport", "airport", "Practice airport", []byte(`{"vocabulary":{"A1":["gate"]},"phrases":{},"dialogues":[]}`),
				"scenario:airport:beginner", now.Add(time.Hour), true, now, now,
			),
		},
		{
			name:         "missing or expired",
			mockError:    sql.ErrNoRows,
			expectedKind: apperr.KindNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock, err := sqlmock.New()
			require.NoError(t, err)
			defer db.Close()

			repo := NewVocabularyRepo(db)

			query := "SELECT (.+) FROM vocabulary_items WHERE id = \\$1 AND \\(expires_at IS NULL OR expires_at > NOW\\(\\)\\)"
			if tt.mockError != nil {
				mock.ExpectQuery(query).WithArgs(id).WillReturnError(tt.mockError)
			} else {
				mock.ExpectQuery(query).WithArgs(id).WillReturnRows(tt.mockRows)
			}

			item, err := repo.GetByID(context.Background(), id)

			if tt.expectedKind != "" {
				assert.Equal(t, tt.expectedKind, apperr.KindOf(err))
			} else {
				require.NoError(t, err)
				assert.Equal(t, domain.ItemScenario, item.Type)
				assert.Equal(t, "scenario:airport:beginner", item.CacheKey)
				require.NotNil(t, item.Content)
				assert.Equal(t, []string{"gate"}, item.Content.Vocabulary["A1"])
				assert.True(t, item.AIGenerated)
				assert.NotNil(t, item.ExpiresAt)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestVocabularyRepo_List(t *testing.T) {
	tests := []struct {
		name   string
		filter domain.VocabularyFilter
		query  string
		args   []driver.Value
	}{
		{
			name:   "no filters uses default page",
			filter: domain.VocabularyFilter{},
			query:  "WHERE \\(expires_at IS NULL OR expires_at > NOW\\(\\)\\) ORDER BY created_at DESC LIMIT \\$1 OFFSET \\$2",
			args:   []driver.Value{50, 0},
		},
		{
			name: "all filters",
			filter: domain.VocabularyFilter{
				Type: domain.ItemWord, Category: "food", Difficulty: domain.DifficultyA2,
				Query: "cof", Limit: 1000, Offset: 10,
			},
			query: "type = \\$1 AND category = \\$2 AND difficulty = \\$3 AND \\(word ILIKE \\$4 OR translation ILIKE \\$4 OR title ILIKE \\$4\\) ORDER BY created_at DESC LIMIT \\$5 OFFSET \\$6",
			args:  []driver.Value{"word", "food", "A2", "%cof%", 200, 10},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock, err := sqlmock.New()
			require.NoError(t, err)
			defer db.Close()

			repo := NewVocabularyRepo(db)
			now := time.Now()

			mock.ExpectQuery(tt.query).
				WithArgs(tt.args...).
				WillReturnRows(sqlmock.NewRows(vocabularyRowColumns).AddRow(
					uuid.NewString(), "word", "coffee", "kahve", "", []byte(`["x"]`), "food", "A2",
					"", "", "", nil, nil, nil, false, now, now,
				))

			items, err := repo.List(context.Background(), tt.filter)

			require.NoError(t, err)
			require.Len(t, items, 1)
			assert.Equal(t, "coffee", items[0].Word)
			assert.Equal(t, []string{"x"}, items[0].Examples)
			assert.Nil(t, items[0].Content)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestVocabularyRepo_UpsertScenario(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewVocabularyRepo(db)
	existing := uuid.New()
	expires := time.Now().Add(time.Hour)
	content := domain.EmptyScenarioContent()
	item := &domain.VocabularyItem{
		Title:       "Bakery",
		Slug:        "bakery",
		Difficulty:  "beginner",
		Category:    "general",
		Content:     &content,
		CacheKey:    "scenario:bakery:beginner",
		ExpiresAt:   &expires,
		AIGenerated: true,
	}
	now := time.Now()

	mock.ExpectQuery("INSERT INTO vocabulary_items (.+) ON CONFLICT \\(cache_key\\)").
		WithArgs(sqlmock.AnyArg(), "scenario", sqlmock.AnyArg(), "general", "beginner", "Bakery", "bakery",
			"", sqlmock.AnyArg(), "scenario:bakery:beginner", expires, true).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "updated_at"}).AddRow(existing.String(), now, now))

	err = repo.UpsertScenario(context.Background(), item)

	require.NoError(t, err)
	assert.Equal(t, existing, item.ID)
	assert.Equal(t, domain.ItemScenario, item.Type)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestVocabularyRepo_UpsertScenario_RequiresCacheKey(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	err = NewVocabularyRepo(db).UpsertScenario(context.Background(), &domain.VocabularyItem{Title: "x"})
	assert.True(t, apperr.Is(err, apperr.KindValidation))
}

func TestVocabularyRepo_DeleteExpired(t *testing.T) {
	tests := []struct {
		name      string
		mockError error
		affected  int64
		wantErr   bool
	}{
		{name: "deletes rows", affected: 3},
		{name: "nothing expired", affected: 0},
		{name: "failure", mockError: errors.New("boom"), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock, err := sqlmock.New()
			require.NoError(t, err)
			defer db.Close()

			repo := NewVocabularyRepo(db)
			now := time.Now()

			expect := mock.ExpectExec("DELETE FROM vocabulary_items WHERE expires_at IS NOT NULL AND expires_at <= \\$1").
				WithArgs(now)
			if tt.mockError != nil {
				expect.WillReturnError(tt.mockError)
			} else {
				expect.WillReturnResult(sqlmock.NewResult(0, tt.affected))
			}

			n, err := repo.DeleteExpired(context.Background(), now)

			if tt.wantErr {
				assert.True(t, apperr.Is(err, apperr.KindStorage))
			} else {
				assert.NoError(t, err)
				assert.Equal(t, tt.affected, n)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}
