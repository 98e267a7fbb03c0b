package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"esltrainer/internal/apperr"
	"esltrainer/internal/domain"
)

const (
	defaultListLimit = 50
	maxListLimit     = 200
)

const vocabularyColumns = `id, type, word, translation, definition, examples, category, difficulty,
	title, slug, description, content, cache_key, expires_at, ai_generated, created_at, updated_at`

// liveOnly hides entries whose TTL has passed but which the sweep has not removed yet
const liveOnly = `(expires_at IS NULL OR expires_at > NOW())`

// VocabularyRepo implements repository.VocabularyRepository
type VocabularyRepo struct {
	db *sql.DB
}

// NewVocabularyRepo creates a new vocabulary repository
func NewVocabularyRepo(db *sql.DB) *VocabularyRepo {
	return &VocabularyRepo{db: db}
}

func scanVocabulary(row rowScanner) (*domain.VocabularyItem, error) {
	var v domain.VocabularyItem
	var examples, content []byte
	var cacheKey sql.NullString
	var expiresAt sql.NullTime

	err := row.Scan(
		&v.ID, &v.Type, &v.Word, &v.Translation, &v.Definition, &examples, &v.Category, &v.Difficulty,
		&v.Title, &v.Slug, &v.Description, &content, &cacheKey, &expiresAt, &v.AIGenerated,
		&v.CreatedAt, &v.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if len(examples) > 0 {
		if err := json.Unmarshal(examples, &v.Examples); err != nil {
			return nil, fmt.Errorf("decode examples: %w", err)
		}
	}
	if len(content) > 0 {
		var c domain.ScenarioContent
		if err := json.Unmarshal(content, &c); err != nil {
			return nil, fmt.Errorf("decode content: %w", err)
		}
		v.Content = &c
	}
	if cacheKey.Valid {
		v.CacheKey = cacheKey.String
	}
	if expiresAt.Valid {
		v.ExpiresAt = &expiresAt.Time
	}
	return &v, nil
}

func encodeJSONColumns(item *domain.VocabularyItem) (examples, content []byte, err error) {
	ex := item.Examples
	if ex == nil {
		ex = []string{}
	}
	if examples, err = json.Marshal(ex); err != nil {
		return nil, nil, err
	}
	if item.Content != nil {
		if content, err = json.Marshal(item.Content); err != nil {
			return nil, nil, err
		}
	}
	return examples, content, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// Create inserts a word or scenario item
func (r *VocabularyRepo) Create(ctx context.Context, item *domain.VocabularyItem) error {
	if item.ID == uuid.Nil {
		item.ID = uuid.New()
	}
	examples, content, err := encodeJSONColumns(item)
	if err != nil {
		return apperr.Storage("failed to encode vocabulary item", err)
	}

	query := `
		INSERT INTO vocabulary_items (id, type, word, translation, definition, examples, category,
			difficulty, title, slug, description, content, cache_key, expires_at, ai_generated)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		RETURNING created_at, updated_at
	`
	err = r.db.QueryRowContext(ctx, query,
		item.ID, item.Type, item.Word, item.Translation, item.Definition, examples, item.Category,
		item.Difficulty, item.Title, item.Slug, item.Description, content, nullString(item.CacheKey),
		item.ExpiresAt, item.AIGenerated,
	).Scan(&item.CreatedAt, &item.UpdatedAt)

	if isUniqueViolation(err) {
		return apperr.Conflict("Vocabulary item already exists")
	}
	if err != nil {
		return apperr.Storage("failed to create vocabulary item", err)
	}
	return nil
}

// GetByID returns a live item by id
func (r *VocabularyRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.VocabularyItem, error) {
	query := `SELECT ` + vocabularyColumns + ` FROM vocabulary_items WHERE id = $1 AND ` + liveOnly
	item, err := scanVocabulary(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("Vocabulary item not found")
	}
	if err != nil {
		return nil, apperr.Storage("failed to load vocabulary item", err)
	}
	return item, nil
}

// GetByCacheKey returns a live item stored under key
func (r *VocabularyRepo) GetByCacheKey(ctx context.Context, key string) (*domain.VocabularyItem, error) {
	query := `SELECT ` + vocabularyColumns + ` FROM vocabulary_items WHERE cache_key = $1 AND ` + liveOnly
	item, err := scanVocabulary(r.db.QueryRowContext(ctx, query, key))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("Vocabulary item not found")
	}
	if err != nil {
		return nil, apperr.Storage("failed to load vocabulary item", err)
	}
	return item, nil
}

// List returns live items matching filter, newest first
func (r *VocabularyRepo) List(ctx context.Context, filter domain.VocabularyFilter) ([]domain.VocabularyItem, error) {
	where := []string{liveOnly}
	var args []any
	add := func(cond string, arg any) {
		args = append(args, arg)
		where = append(where, fmt.Sprintf(cond, len(args)))
	}

	if filter.Type != "" {
		add("type = $%d", filter.Type)
	}
	if filter.Category != "" {
		add("category = $%d", filter.Category)
	}
	if filter.Difficulty != "" {
		add("difficulty = $%d", filter.Difficulty)
	}
	if q := strings.TrimSpace(filter.Query); q != "" {
		add("(word ILIKE $%[1]d OR translation ILIKE $%[1]d OR title ILIKE $%[1]d)", "%"+q+"%")
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}
	args = append(args, limit, offset)

	query := fmt.Sprintf(`
		SELECT %s
		FROM vocabulary_items
		WHERE %s
		ORDER BY created_at DESC
		LIMIT $%d OFFSET $%d
	`, vocabularyColumns, strings.Join(where, " AND "), len(args)-1, len(args))

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperr.Storage("failed to list vocabulary", err)
	}
	defer rows.Close()

	items := []domain.VocabularyItem{}
	for rows.Next() {
		item, err := scanVocabulary(rows)
		if err != nil {
			return nil, apperr.Storage("failed to scan vocabulary item", err)
		}
		items = append(items, *item)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Storage("failed to list vocabulary", err)
	}
	return items, nil
}

// UpsertScenario stores a scenario under its cache key, replacing any previous entry
func (r *VocabularyRepo) UpsertScenario(ctx context.Context, item *domain.VocabularyItem) error {
	if item.CacheKey == "" {
		return apperr.Validation("cache key is required")
	}
	if item.ID == uuid.Nil {
		item.ID = uuid.New()
	}
	item.Type = domain.ItemScenario

	examples, content, err := encodeJSONColumns(item)
	if err != nil {
		return apperr.Storage("failed to encode scenario", err)
	}

	query := `
		INSERT INTO vocabulary_items (id, type, examples, category, difficulty, title, slug,
			description, content, cache_key, expires_at, ai_generated)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (cache_key) WHERE cache_key IS NOT NULL
		DO UPDATE SET
			category = EXCLUDED.category,
			difficulty = EXCLUDED.difficulty,
			title = EXCLUDED.title,
			slug = EXCLUDED.slug,
			description = EXCLUDED.description,
			content = EXCLUDED.content,
			expires_at = EXCLUDED.expires_at,
			ai_generated = EXCLUDED.ai_generated,
			updated_at = NOW()
		RETURNING id, created_at, updated_at
	`
	err = r.db.QueryRowContext(ctx, query,
		item.ID, item.Type, examples, item.Category, item.Difficulty, item.Title, item.Slug,
		item.Description, content, item.CacheKey, item.ExpiresAt, item.AIGenerated,
	).Scan(&item.ID, &item.CreatedAt, &item.UpdatedAt)
	if err != nil {
		return apperr.Storage("failed to save scenario", err)
	}
	return nil
}

// DeleteExpired removes items whose TTL has passed at now
func (r *VocabularyRepo) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM vocabulary_items WHERE expires_at IS NOT NULL AND expires_at <= $1`, now)
	if err != nil {
		return 0, apperr.Storage("failed to delete expired items", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, apperr.Storage("failed to read affected rows", err)
	}
	return n, nil
}
