// Package http provides the HTTP delivery layer for the URL shortener
// service: routing, request validation and response formatting.
package http

import (
	"context"
	"net/http"
	"reflect"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httplog/v2"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/encurta/url-shortener/internal/models"
	"github.com/encurta/url-shortener/pkg/response"
)

// urlCodePattern constrains code path parameters at the router; requests that
// don't match fall through to the JSON 404 handler.
const urlCodePattern = "[A-Za-z0-9_-]{1,20}"

// URLService defines the interface for the core URL shortening business logic.
type URLService interface {
	// ShortenURL creates a shortened version of the provided original URL.
	// An already shortened URL is returned with isNew=false instead of
	// creating a duplicate.
	ShortenURL(ctx context.Context, originalURL string) (url *models.URL, isNew bool, err error)

	// GetURLByID retrieves the URL record with the provided identifier.
	GetURLByID(ctx context.Context, id uuid.UUID) (*models.URL, error)

	// GetURLByCode retrieves the URL record for a code without counting a visit.
	GetURLByCode(ctx context.Context, urlCode string) (*models.URL, error)

	// Redirect resolves a code to its record and atomically counts the visit.
	Redirect(ctx context.Context, urlCode string) (*models.URL, error)

	// ListURLsByDay returns all records created on the given calendar day, newest first.
	ListURLsByDay(ctx context.Context, day time.Time) ([]models.URL, error)
}

// getValidate initializes a new validator instance for validating incoming request payloads.
// It customizes tag name extraction from struct fields to match JSON tags.
func getValidate() *validator.Validate {
	validate := validator.New()

	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	return validate
}

// NewRouter initializes and returns a new HTTP router with all routes and middleware configured.
func NewRouter(logger *httplog.Logger, urlSvc URLService) http.Handler {
	r := chi.NewRouter()

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"POST", "GET", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Accept"},
		AllowCredentials: false,
		MaxAge:           84600,
	}))
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(httplog.RequestLogger(logger))
	r.Use(middleware.Recoverer)
	r.Use(metricsMiddleware)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		render.Status(r, http.StatusNotFound)
		render.JSON(w, r, response.ErrorResponse("Endpoint not found."))
	})

	r.Get("/health", handleHealth)
	r.Handle("/metrics", promhttp.Handler())

	r.Get("/api-docs/*", httpSwagger.Handler(
		httpSwagger.URL("/docs/swagger.yml"),
	))

	r.Get("/docs/swagger.yml", func(w http.ResponseWriter, r *http.Request) {
		http.ServeFile(w, r, "./docs/swagger.yml")
	})

	r.Route("/api", func(r chi.Router) {
		validate := getValidate()

		r.Post("/shorten", handleShortenURL(urlSvc, validate))
		r.Get("/url/{id}", handleGetURLByID(urlSvc))
		r.Get("/urls/date/{date}", handleListURLsByDate(urlSvc))
		r.Get("/code/{urlCode:"+urlCodePattern+"}", handleGetURLByCode(urlSvc))
	})

	r.Get("/{urlCode:"+urlCodePattern+"}", handleRedirect(urlSvc))

	return r
}
