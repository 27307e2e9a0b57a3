package http

import (
	"errors"
	"io"
	"net/http"
	"regexp"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httplog/v2"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/encurta/url-shortener/internal/database"
	"github.com/encurta/url-shortener/internal/models"
	"github.com/encurta/url-shortener/pkg/response"
)

var datePattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

type healthResponse struct {
	Success   bool   `json:"success"`
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"`
}

// handleHealth handles health check requests to ensure the server is running.
func handleHealth(w http.ResponseWriter, r *http.Request) {
	render.Status(r, http.StatusOK)
	render.JSON(w, r, healthResponse{
		Success:   true,
		Message:   "API is up and running.",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

// shortenRequest represents the request payload for shortening a URL.
type shortenRequest struct {
	OriginalURL string `json:"originalUrl" validate:"required,http_url,max=2048"`
}

// urlResponse represents the response payload for a shortened URL record.
type urlResponse struct {
	ID          uuid.UUID `json:"id"`
	OriginalURL string    `json:"originalUrl"`
	URLCode     string    `json:"urlCode"`
	ShortURL    string    `json:"shortUrl"`
	Clicks      int64     `json:"clicks"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// toURLResponse converts a URL model from the business layer into a response payload.
func toURLResponse(url *models.URL) urlResponse {
	return urlResponse{
		ID:          url.ID,
		OriginalURL: url.OriginalURL,
		URLCode:     url.URLCode,
		ShortURL:    url.ShortURL,
		Clicks:      url.Clicks,
		CreatedAt:   url.CreatedAt,
		UpdatedAt:   url.UpdatedAt,
	}
}

func toURLResponses(urls []models.URL) []urlResponse {
	resps := make([]urlResponse, 0, len(urls))
	for i := range urls {
		resps = append(resps, toURLResponse(&urls[i]))
	}
	return resps
}

// handleShortenURL handles POST requests to shorten a URL.
//
// The request must contain a valid http/https URL of at most 2048 characters.
// A URL that was already shortened is answered with 200 and the existing
// record; a new one with 201.
func handleShortenURL(svc URLService, validate *validator.Validate) http.HandlerFunc {
	const op = "api.http.handleShortenURL"

	return func(w http.ResponseWriter, r *http.Request) {
		var req shortenRequest

		if err := render.DecodeJSON(r.Body, &req); err != nil {
			if errors.Is(err, io.EOF) {
				render.Status(r, http.StatusBadRequest)
				render.JSON(w, r, response.EmptyRequestBodyResponse)
				return
			}

			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.BadRequestResponse)
			return
		}

		if err := validate.Struct(req); err != nil {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.ValidationErrorResponse(err))
			return
		}

		url, isNew, err := svc.ShortenURL(r.Context(), req.OriginalURL)
		if err != nil {
			httplog.LogEntrySetFields(r.Context(), map[string]any{"op": op, "err": err})

			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, response.ServerErrorResponse)
			return
		}

		if !isNew {
			render.Status(r, http.StatusOK)
			render.JSON(w, r, response.SuccessResponse("URL already exists.", toURLResponse(url)))
			return
		}

		render.Status(r, http.StatusCreated)
		render.JSON(w, r, response.SuccessResponse("URL shortened successfully.", toURLResponse(url)))
	}
}

// handleGetURLByID handles GET requests to retrieve a record by its identifier.
//
// A malformed identifier is rejected with 400 before the store is touched.
func handleGetURLByID(svc URLService) http.HandlerFunc {
	const op = "api.http.handleGetURLByID"

	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.ErrorResponse("The provided id is not a valid UUID."))
			return
		}

		url, err := svc.GetURLByID(r.Context(), id)
		if err != nil {
			if errors.Is(err, database.ErrURLNotFound) {
				render.Status(r, http.StatusNotFound)
				render.JSON(w, r, response.ResourceNotFoundResponse)
				return
			}

			httplog.LogEntrySetFields(r.Context(), map[string]any{"op": op, "err": err})

			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, response.ServerErrorResponse)
			return
		}

		render.Status(r, http.StatusOK)
		render.JSON(w, r, response.SuccessResponse("URL found.", toURLResponse(url)))
	}
}

// handleListURLsByDate handles GET requests to list all records created on a
// calendar day, newest first. The day is interpreted in server-local time.
func handleListURLsByDate(svc URLService) http.HandlerFunc {
	const op = "api.http.handleListURLsByDate"

	return func(w http.ResponseWriter, r *http.Request) {
		date := chi.URLParam(r, "date")

		if !datePattern.MatchString(date) {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.ErrorResponse("The date must be in the YYYY-MM-DD format."))
			return
		}

		day, err := time.ParseInLocation("2006-01-02", date, time.Local)
		if err != nil {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.ErrorResponse("The provided date is not a valid calendar date."))
			return
		}

		urls, err := svc.ListURLsByDay(r.Context(), day)
		if err != nil {
			httplog.LogEntrySetFields(r.Context(), map[string]any{"op": op, "err": err})

			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, response.ServerErrorResponse)
			return
		}

		render.Status(r, http.StatusOK)
		render.JSON(w, r, response.CollectionResponse("URLs found for "+date+".", len(urls), toURLResponses(urls)))
	}
}

// handleGetURLByCode handles GET requests to retrieve a record by its code
// without counting a visit.
func handleGetURLByCode(svc URLService) http.HandlerFunc {
	const op = "api.http.handleGetURLByCode"

	return func(w http.ResponseWriter, r *http.Request) {
		urlCode := chi.URLParam(r, "urlCode")

		url, err := svc.GetURLByCode(r.Context(), urlCode)
		if err != nil {
			if errors.Is(err, database.ErrURLNotFound) {
				render.Status(r, http.StatusNotFound)
				render.JSON(w, r, response.ResourceNotFoundResponse)
				return
			}

			httplog.LogEntrySetFields(r.Context(), map[string]any{"op": op, "err": err})

			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, response.ServerErrorResponse)
			return
		}

		render.Status(r, http.StatusOK)
		render.JSON(w, r, response.SuccessResponse("URL found.", toURLResponse(url)))
	}
}

// handleRedirect handles GET requests on a short code: it counts the visit
// and issues a permanent redirect to the original URL.
func handleRedirect(svc URLService) http.HandlerFunc {
	const op = "api.http.handleRedirect"

	return func(w http.ResponseWriter, r *http.Request) {
		urlCode := chi.URLParam(r, "urlCode")

		url, err := svc.Redirect(r.Context(), urlCode)
		if err != nil {
			if errors.Is(err, database.ErrURLNotFound) {
				render.Status(r, http.StatusNotFound)
				render.JSON(w, r, response.ResourceNotFoundResponse)
				return
			}

			httplog.LogEntrySetFields(r.Context(), map[string]any{"op": op, "err": err})

			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, response.ServerErrorResponse)
			return
		}

		http.Redirect(w, r, url.OriginalURL, http.StatusMovedPermanently)
	}
}
