package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/encurta/url-shortener/internal/database"
	"github.com/encurta/url-shortener/internal/models"
	"github.com/google/uuid"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

// ErrCodeSpaceExhausted is returned when the maximum number of attempts for
// generating a unique url code is exceeded.
var ErrCodeSpaceExhausted = errors.New("maximum attempts exceeded for generating url code")

// URLRepository defines the interface for working with URLs at the business logic layer.
type URLRepository interface {
	// Create inserts a new shortened URL into the repository.
	// Returns database.ErrCodeExists if the url code is already taken.
	Create(ctx context.Context, id uuid.UUID, urlCode, originalURL, shortURL string) (*models.URL, error)

	// GetByOriginalURL retrieves a URL by exact original URL match.
	// Returns database.ErrURLNotFound if no record matches.
	GetByOriginalURL(ctx context.Context, originalURL string) (*models.URL, error)

	// GetByCode retrieves a URL by its code without side effects.
	GetByCode(ctx context.Context, urlCode string) (*models.URL, error)

	// GetByID retrieves a URL by its primary key.
	GetByID(ctx context.Context, id uuid.UUID) (*models.URL, error)

	// CodeExists reports whether a url code is already taken.
	CodeExists(ctx context.Context, urlCode string) (bool, error)

	// ListByCreatedRange returns records created within [start, end]
	// inclusive, newest first.
	ListByCreatedRange(ctx context.Context, start, end time.Time) ([]models.URL, error)

	// IncrementClicks atomically bumps the click counter for a code and
	// returns the updated record.
	IncrementClicks(ctx context.Context, urlCode string) (*models.URL, error)
}

// URLService provides methods to manage URL shortening operations.
// The service uses a URLRepository interface to interact with the underlying database.
type URLService struct {
	repo          URLRepository
	baseURL       string
	urlCodeLength int
}

// NewURLService creates a new instance of URLService with the provided
// repository, base URL and url code length.
func NewURLService(repo URLRepository, baseURL string, urlCodeLength int) *URLService {
	return &URLService{
		repo:          repo,
		baseURL:       baseURL,
		urlCodeLength: urlCodeLength,
	}
}

// ShortenURL returns the shortened URL record for the provided original URL.
// A URL that was already shortened is returned as-is with isNew=false; this
// dedup is best-effort and not protected by a uniqueness constraint, so
// concurrent identical submissions may still create duplicate rows.
//
// For a new URL it generates a code, pre-checks it for collisions and inserts
// the record. An insert losing a race on the unique constraint retries with a
// fresh code, up to a hard cap of attempts.
func (s *URLService) ShortenURL(ctx context.Context, originalURL string) (*models.URL, bool, error) {
	const op = "service.URLService.ShortenURL"
	const maxAttempts = 10

	existing, err := s.repo.GetByOriginalURL(ctx, originalURL)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, database.ErrURLNotFound) {
		return nil, false, fmt.Errorf("%s: failed to check for existing url: %w", op, err)
	}

	for i := 0; i < maxAttempts; i++ {
		urlCode, err := gonanoid.New(s.urlCodeLength)
		if err != nil {
			return nil, false, fmt.Errorf("%s: failed to generate url code: %w", op, err)
		}

		exists, err := s.repo.CodeExists(ctx, urlCode)
		if err != nil {
			return nil, false, fmt.Errorf("%s: failed to check url code: %w", op, err)
		}
		if exists {
			continue
		}

		url, err := s.repo.Create(ctx, uuid.New(), urlCode, originalURL, s.buildShortURL(urlCode))
		if err != nil {
			if errors.Is(err, database.ErrCodeExists) {
				continue
			}

			return nil, false, fmt.Errorf("%s: failed to shorten url: %w", op, err)
		}

		return url, true, nil
	}

	return nil, false, fmt.Errorf("%s: %w", op, ErrCodeSpaceExhausted)
}

// GetURLByID retrieves the URL record with the provided identifier.
func (s *URLService) GetURLByID(ctx context.Context, id uuid.UUID) (*models.URL, error) {
	const op = "service.URLService.GetURLByID"

	url, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to get url by id: %w", op, err)
	}

	return url, nil
}

// GetURLByCode retrieves the URL record associated with the provided code
// without touching the click counter.
func (s *URLService) GetURLByCode(ctx context.Context, urlCode string) (*models.URL, error) {
	const op = "service.URLService.GetURLByCode"

	url, err := s.repo.GetByCode(ctx, urlCode)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to get url by code: %w", op, err)
	}

	return url, nil
}

// Redirect resolves a code to its record and counts the visit. The increment
// is a single atomic update in the store, so it happens exactly once per call
// even under concurrent redirects of the same code.
func (s *URLService) Redirect(ctx context.Context, urlCode string) (*models.URL, error) {
	const op = "service.URLService.Redirect"

	url, err := s.repo.IncrementClicks(ctx, urlCode)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to redirect: %w", op, err)
	}

	return url, nil
}

// ListURLsByDay returns all records created on the given calendar day,
// interpreted in the day's location, newest first.
func (s *URLService) ListURLsByDay(ctx context.Context, day time.Time) ([]models.URL, error) {
	const op = "service.URLService.ListURLsByDay"

	startOfDay := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	endOfDay := startOfDay.Add(24*time.Hour - time.Nanosecond)

	urls, err := s.repo.ListByCreatedRange(ctx, startOfDay, endOfDay)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to list urls by day: %w", op, err)
	}

	return urls, nil
}

func (s *URLService) buildShortURL(urlCode string) string {
	return s.baseURL + "/" + urlCode
}
