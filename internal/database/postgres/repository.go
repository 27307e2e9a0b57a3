package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/encurta/url-shortener/internal/database"
	"github.com/encurta/url-shortener/internal/models"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

type urlRecord struct {
	ID          uuid.UUID `db:"id"`
	OriginalURL string    `db:"original_url"`
	URLCode     string    `db:"url_code"`
	ShortURL    string    `db:"short_url"`
	Clicks      int64     `db:"clicks"`
	CreatedAt   time.Time `db:"created_at"`
	UpdatedAt   time.Time `db:"updated_at"`
}

func (r *urlRecord) ToURL() *models.URL {
	return &models.URL{
		ID:          r.ID,
		OriginalURL: r.OriginalURL,
		URLCode:     r.URLCode,
		ShortURL:    r.ShortURL,
		Clicks:      r.Clicks,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}

func toURLs(recs []urlRecord) []models.URL {
	urls := make([]models.URL, 0, len(recs))
	for i := range recs {
		urls = append(urls, *recs[i].ToURL())
	}
	return urls
}

// URLRepository persists shortened URLs in PostgreSQL. Uniqueness of the url
// code is owned by the table's unique constraint, not by application logic.
type URLRepository struct {
	db *sqlx.DB
}

func NewURLRepository(db *sqlx.DB) *URLRepository {
	return &URLRepository{
		db: db,
	}
}

// Create inserts a new url record in a single atomic statement. A violation
// of the url_code unique constraint is reported as database.ErrCodeExists so
// the caller can retry with a fresh code.
func (r *URLRepository) Create(ctx context.Context, id uuid.UUID, urlCode, originalURL, shortURL string) (*models.URL, error) {
	const op = "database.postgres.URLRepository.Create"

	rec := new(urlRecord)
	query := `INSERT INTO urls(id, url_code, original_url, short_url)
		VALUES ($1, $2, $3, $4)
		RETURNING *`

	err := r.db.GetContext(ctx, rec, query, id, urlCode, originalURL, shortURL)
	if err != nil {
		if isUniqueViolationError(err) {
			return nil, fmt.Errorf("%s: %w", op, database.ErrCodeExists)
		}

		return nil, fmt.Errorf("%s: failed to create url record: %w", op, err)
	}

	return rec.ToURL(), nil
}

// GetByOriginalURL looks up a record by exact original URL match. No
// normalization is applied, so URLs differing in trailing slashes or query
// order are distinct.
func (r *URLRepository) GetByOriginalURL(ctx context.Context, originalURL string) (*models.URL, error) {
	const op = "database.postgres.URLRepository.GetByOriginalURL"

	rec := new(urlRecord)
	query := `SELECT * FROM urls
		WHERE original_url = $1
		LIMIT 1`

	err := r.db.GetContext(ctx, rec, query, originalURL)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, database.ErrURLNotFound)
		}

		return nil, fmt.Errorf("%s: failed to get url record: %w", op, err)
	}

	return rec.ToURL(), nil
}

func (r *URLRepository) GetByCode(ctx context.Context, urlCode string) (*models.URL, error) {
	const op = "database.postgres.URLRepository.GetByCode"

	rec := new(urlRecord)
	query := `SELECT * FROM urls
		WHERE url_code = $1`

	err := r.db.GetContext(ctx, rec, query, urlCode)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, database.ErrURLNotFound)
		}

		return nil, fmt.Errorf("%s: failed to get url record: %w", op, err)
	}

	return rec.ToURL(), nil
}

func (r *URLRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.URL, error) {
	const op = "database.postgres.URLRepository.GetByID"

	rec := new(urlRecord)
	query := `SELECT * FROM urls
		WHERE id = $1`

	err := r.db.GetContext(ctx, rec, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, database.ErrURLNotFound)
		}

		return nil, fmt.Errorf("%s: failed to get url record: %w", op, err)
	}

	return rec.ToURL(), nil
}

// CodeExists reports whether a url code is already taken. Used by the code
// generation retry loop as a cheap pre-check; the unique constraint remains
// the authoritative guarantee.
func (r *URLRepository) CodeExists(ctx context.Context, urlCode string) (bool, error) {
	const op = "database.postgres.URLRepository.CodeExists"

	var exists bool
	query := `SELECT EXISTS(SELECT 1 FROM urls WHERE url_code = $1)`

	if err := r.db.GetContext(ctx, &exists, query, urlCode); err != nil {
		return false, fmt.Errorf("%s: failed to check url code: %w", op, err)
	}

	return exists, nil
}

// ListByCreatedRange returns all records created within [start, end]
// inclusive, newest first.
func (r *URLRepository) ListByCreatedRange(ctx context.Context, start, end time.Time) ([]models.URL, error) {
	const op = "database.postgres.URLRepository.ListByCreatedRange"

	var recs []urlRecord
	query := `SELECT * FROM urls
		WHERE created_at BETWEEN $1 AND $2
		ORDER BY created_at DESC`

	if err := r.db.SelectContext(ctx, &recs, query, start, end); err != nil {
		return nil, fmt.Errorf("%s: failed to list url records: %w", op, err)
	}

	return toURLs(recs), nil
}

// IncrementClicks atomically bumps the click counter for a code and returns
// the updated record. The increment happens in the database, so concurrent
// redirects never lose updates.
func (r *URLRepository) IncrementClicks(ctx context.Context, urlCode string) (*models.URL, error) {
	const op = "database.postgres.URLRepository.IncrementClicks"

	rec := new(urlRecord)
	query := `UPDATE urls
		SET clicks = clicks + 1, updated_at = now()
		WHERE url_code = $1
		RETURNING *`

	err := r.db.GetContext(ctx, rec, query, urlCode)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, database.ErrURLNotFound)
		}

		return nil, fmt.Errorf("%s: failed to increment clicks: %w", op, err)
	}

	return rec.ToURL(), nil
}
