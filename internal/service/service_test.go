package service

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"

	"github.com/encurta/url-shortener/internal/database"
	"github.com/encurta/url-shortener/internal/models"
)

var urlCodeRegexp = regexp.MustCompile(`^[A-Za-z0-9_-]{1,20}$`)

type MockURLRepository struct {
	mock.Mock
}

func (r *MockURLRepository) Create(ctx context.Context, id uuid.UUID, urlCode, originalURL, shortURL string) (*models.URL, error) {
	args := r.Called(ctx, id, urlCode, originalURL, shortURL)
	url, _ := args.Get(0).(*models.URL)
	return url, args.Error(1)
}

func (r *MockURLRepository) GetByOriginalURL(ctx context.Context, originalURL string) (*models.URL, error) {
	args := r.Called(ctx, originalURL)
	url, _ := args.Get(0).(*models.URL)
	return url, args.Error(1)
}

func (r *MockURLRepository) GetByCode(ctx context.Context, urlCode string) (*models.URL, error) {
	args := r.Called(ctx, urlCode)
	url, _ := args.Get(0).(*models.URL)
	return url, args.Error(1)
}

func (r *MockURLRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.URL, error) {
	args := r.Called(ctx, id)
	url, _ := args.Get(0).(*models.URL)
	return url, args.Error(1)
}

func (r *MockURLRepository) CodeExists(ctx context.Context, urlCode string) (bool, error) {
	args := r.Called(ctx, urlCode)
	return args.Bool(0), args.Error(1)
}

func (r *MockURLRepository) ListByCreatedRange(ctx context.Context, start, end time.Time) ([]models.URL, error) {
	args := r.Called(ctx, start, end)
	urls, _ := args.Get(0).([]models.URL)
	return urls, args.Error(1)
}

func (r *MockURLRepository) IncrementClicks(ctx context.Context, urlCode string) (*models.URL, error) {
	args := r.Called(ctx, urlCode)
	url, _ := args.Get(0).(*models.URL)
	return url, args.Error(1)
}

type URLServiceTestSuite struct {
	suite.Suite
	errUnknown  error
	urlRepoMock *MockURLRepository
	svc         *URLService
}

func (suite *URLServiceTestSuite) SetupSuite() {
	suite.errUnknown = errors.New("unknown error")
}

func (suite *URLServiceTestSuite) SetupSubTest() {
	suite.urlRepoMock = new(MockURLRepository)
	suite.svc = NewURLService(suite.urlRepoMock, "http://localhost:8080", 7)
}

func (suite *URLServiceTestSuite) TearDownSubTest() {
	suite.urlRepoMock.AssertExpectations(suite.T())
}

func (suite *URLServiceTestSuite) validCode() any {
	return mock.MatchedBy(func(urlCode string) bool {
		return urlCodeRegexp.MatchString(urlCode)
	})
}

func (suite *URLServiceTestSuite) TestShortenURL() {
	suite.Run("url already shortened", func() {
		existing := &models.URL{
			ID:          uuid.New(),
			OriginalURL: "https://example.com",
			URLCode:     "abc123x",
		}

		suite.urlRepoMock.
			On("GetByOriginalURL", context.Background(), "https://example.com").
			Once().
			Return(existing, nil)

		url, isNew, err := suite.svc.ShortenURL(context.Background(), "https://example.com")

		suite.NoError(err)
		suite.False(isNew)
		suite.Equal(existing, url)
		suite.urlRepoMock.AssertNotCalled(suite.T(), "Create")
	})

	suite.Run("dedup lookup error", func() {
		suite.urlRepoMock.
			On("GetByOriginalURL", context.Background(), "https://example.com").
			Once().
			Return(nil, suite.errUnknown)

		url, isNew, err := suite.svc.ShortenURL(context.Background(), "https://example.com")

		suite.Error(err)
		suite.ErrorIs(err, suite.errUnknown)
		suite.False(isNew)
		suite.Nil(url)
	})

	suite.Run("success", func() {
		suite.urlRepoMock.
			On("GetByOriginalURL", context.Background(), "https://example.com").
			Once().
			Return(nil, database.ErrURLNotFound)
		suite.urlRepoMock.
			On("CodeExists", context.Background(), suite.validCode()).
			Once().
			Return(false, nil)
		suite.urlRepoMock.
			On("Create", context.Background(), mock.AnythingOfType("uuid.UUID"), suite.validCode(), "https://example.com", mock.MatchedBy(func(shortURL string) bool {
				return len(shortURL) > len("http://localhost:8080/")
			})).
			Once().
			Return(&models.URL{
				ID:          uuid.New(),
				OriginalURL: "https://example.com",
				URLCode:     "abc123x",
				ShortURL:    "http://localhost:8080/abc123x",
			}, nil)

		url, isNew, err := suite.svc.ShortenURL(context.Background(), "https://example.com")

		suite.NoError(err)
		suite.True(isNew)
		suite.NotNil(url)
		suite.Equal("abc123x", url.URLCode)
		suite.Zero(url.Clicks)
	})

	suite.Run("code collision regenerates", func() {
		suite.urlRepoMock.
			On("GetByOriginalURL", context.Background(), "https://example.com").
			Once().
			Return(nil, database.ErrURLNotFound)
		suite.urlRepoMock.
			On("CodeExists", context.Background(), suite.validCode()).
			Once().
			Return(true, nil)
		suite.urlRepoMock.
			On("CodeExists", context.Background(), suite.validCode()).
			Once().
			Return(false, nil)
		suite.urlRepoMock.
			On("Create", context.Background(), mock.AnythingOfType("uuid.UUID"), suite.validCode(), "https://example.com", mock.Anything).
			Once().
			Return(&models.URL{URLCode: "abc123x"}, nil)

		url, isNew, err := suite.svc.ShortenURL(context.Background(), "https://example.com")

		suite.NoError(err)
		suite.True(isNew)
		suite.NotNil(url)
		suite.urlRepoMock.AssertNumberOfCalls(suite.T(), "CodeExists", 2)
	})

	suite.Run("insert race retried with fresh code", func() {
		suite.urlRepoMock.
			On("GetByOriginalURL", context.Background(), "https://example.com").
			Once().
			Return(nil, database.ErrURLNotFound)
		suite.urlRepoMock.
			On("CodeExists", context.Background(), suite.validCode()).
			Times(2).
			Return(false, nil)
		suite.urlRepoMock.
			On("Create", context.Background(), mock.AnythingOfType("uuid.UUID"), suite.validCode(), "https://example.com", mock.Anything).
			Once().
			Return(nil, database.ErrCodeExists)
		suite.urlRepoMock.
			On("Create", context.Background(), mock.AnythingOfType("uuid.UUID"), suite.validCode(), "https://example.com", mock.Anything).
			Once().
			Return(&models.URL{URLCode: "abc123x"}, nil)

		url, isNew, err := suite.svc.ShortenURL(context.Background(), "https://example.com")

		suite.NoError(err)
		suite.True(isNew)
		suite.NotNil(url)
		suite.urlRepoMock.AssertNumberOfCalls(suite.T(), "Create", 2)
	})

	suite.Run("code space exhausted", func() {
		suite.urlRepoMock.
			On("GetByOriginalURL", context.Background(), "https://example.com").
			Once().
			Return(nil, database.ErrURLNotFound)
		suite.urlRepoMock.
			On("CodeExists", context.Background(), suite.validCode()).
			Times(10).
			Return(true, nil)

		url, isNew, err := suite.svc.ShortenURL(context.Background(), "https://example.com")

		suite.Error(err)
		suite.ErrorIs(err, ErrCodeSpaceExhausted)
		suite.False(isNew)
		suite.Nil(url)
		suite.urlRepoMock.AssertNotCalled(suite.T(), "Create")
	})

	suite.Run("unknown create error", func() {
		suite.urlRepoMock.
			On("GetByOriginalURL", context.Background(), "https://example.com").
			Once().
			Return(nil, database.ErrURLNotFound)
		suite.urlRepoMock.
			On("CodeExists", context.Background(), suite.validCode()).
			Once().
			Return(false, nil)
		suite.urlRepoMock.
			On("Create", context.Background(), mock.AnythingOfType("uuid.UUID"), suite.validCode(), "https://example.com", mock.Anything).
			Once().
			Return(nil, suite.errUnknown)

		url, isNew, err := suite.svc.ShortenURL(context.Background(), "https://example.com")

		suite.Error(err)
		suite.ErrorIs(err, suite.errUnknown)
		suite.False(isNew)
		suite.Nil(url)
	})
}

func (suite *URLServiceTestSuite) TestGetURLByID() {
	id := uuid.New()

	suite.Run("url not found", func() {
		suite.urlRepoMock.
			On("GetByID", context.Background(), id).
			Once().
			Return(nil, database.ErrURLNotFound)

		url, err := suite.svc.GetURLByID(context.Background(), id)

		suite.Error(err)
		suite.ErrorIs(err, database.ErrURLNotFound)
		suite.Nil(url)
	})

	suite.Run("success", func() {
		suite.urlRepoMock.
			On("GetByID", context.Background(), id).
			Once().
			Return(&models.URL{ID: id, URLCode: "abc123x"}, nil)

		url, err := suite.svc.GetURLByID(context.Background(), id)

		suite.NoError(err)
		suite.NotNil(url)
		suite.Equal(id, url.ID)
	})
}

func (suite *URLServiceTestSuite) TestGetURLByCode() {
	suite.Run("url not found", func() {
		suite.urlRepoMock.
			On("GetByCode", context.Background(), "abc123x").
			Once().
			Return(nil, database.ErrURLNotFound)

		url, err := suite.svc.GetURLByCode(context.Background(), "abc123x")

		suite.Error(err)
		suite.ErrorIs(err, database.ErrURLNotFound)
		suite.Nil(url)
	})

	suite.Run("success", func() {
		suite.urlRepoMock.
			On("GetByCode", context.Background(), "abc123x").
			Once().
			Return(&models.URL{URLCode: "abc123x", Clicks: 2}, nil)

		url, err := suite.svc.GetURLByCode(context.Background(), "abc123x")

		suite.NoError(err)
		suite.NotNil(url)
		suite.Equal(int64(2), url.Clicks)
	})
}

func (suite *URLServiceTestSuite) TestRedirect() {
	suite.Run("url not found", func() {
		suite.urlRepoMock.
			On("IncrementClicks", context.Background(), "abc123x").
			Once().
			Return(nil, database.ErrURLNotFound)

		url, err := suite.svc.Redirect(context.Background(), "abc123x")

		suite.Error(err)
		suite.ErrorIs(err, database.ErrURLNotFound)
		suite.Nil(url)
	})

	suite.Run("success", func() {
		suite.urlRepoMock.
			On("IncrementClicks", context.Background(), "abc123x").
			Once().
			Return(&models.URL{
				OriginalURL: "https://example.com",
				URLCode:     "abc123x",
				Clicks:      1,
			}, nil)

		url, err := suite.svc.Redirect(context.Background(), "abc123x")

		suite.NoError(err)
		suite.NotNil(url)
		suite.Equal("https://example.com", url.OriginalURL)
		suite.Equal(int64(1), url.Clicks)
	})
}

func (suite *URLServiceTestSuite) TestListURLsByDay() {
	day := time.Date(2025, time.August, 5, 15, 4, 5, 0, time.UTC)
	startOfDay := time.Date(2025, time.August, 5, 0, 0, 0, 0, time.UTC)
	endOfDay := startOfDay.Add(24*time.Hour - time.Nanosecond)

	suite.Run("unknown error", func() {
		suite.urlRepoMock.
			On("ListByCreatedRange", context.Background(), startOfDay, endOfDay).
			Once().
			Return(nil, suite.errUnknown)

		urls, err := suite.svc.ListURLsByDay(context.Background(), day)

		suite.Error(err)
		suite.ErrorIs(err, suite.errUnknown)
		suite.Nil(urls)
	})

	suite.Run("success", func() {
		want := []models.URL{
			{URLCode: "code2", CreatedAt: startOfDay.Add(2 * time.Hour)},
			{URLCode: "code1", CreatedAt: startOfDay.Add(time.Hour)},
		}

		suite.urlRepoMock.
			On("ListByCreatedRange", context.Background(), startOfDay, endOfDay).
			Once().
			Return(want, nil)

		urls, err := suite.svc.ListURLsByDay(context.Background(), day)

		suite.NoError(err)
		suite.Equal(want, urls)
	})
}

func TestURLService(t *testing.T) {
	suite.Run(t, new(URLServiceTestSuite))
}
