package server

import (
	"log/slog"
	"net/http"
	"time"

	cityHandlers "cities-server/internal/city/handlers"
	"cities-server/internal/middleware"
	serverHandlers "cities-server/internal/server/handlers"
	"cities-server/internal/shared/config"
	"cities-server/internal/shared/errors"
	"cities-server/internal/shared/metrics"
	"cities-server/internal/shared/response"
	"cities-server/internal/shared/validation"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
)

// requestTimeout bounds the context handed to handlers
const requestTimeout = 30 * time.Second

type Routes struct {
	db          serverHandlers.Pinger
	cityService cityHandlers.Service
	rateLimiter *middleware.RateLimiter
	cfg         *config.Config
	logger      *slog.Logger
}

func NewRoutes(db serverHandlers.Pinger, cityService cityHandlers.Service, rateLimiter *middleware.RateLimiter, cfg *config.Config, logger *slog.Logger) *Routes {
	return &Routes{
		db:          db,
		cityService: cityService,
		rateLimiter: rateLimiter,
		cfg:         cfg,
		logger:      logger,
	}
}

func (r *Routes) Setup() http.Handler {
	logger := r.logger.With("component", "routes", "operation", "setup")
	logger.Debug("Setting up application routes")

	router := chi.NewRouter()

	router.Use(chimiddleware.RequestID)
	router.Use(middleware.RequestIDHeader)
	router.Use(middleware.RequestLogger(r.logger))
	router.Use(chimiddleware.Recoverer)
	router.Use(middleware.Metrics)
	router.Use(middleware.NewCORS(r.cfg.Frontend).Middleware)
	router.Use(chimiddleware.Timeout(requestTimeout))

	router.NotFound(func(w http.ResponseWriter, req *http.Request) {
		response.Error(w, req, r.logger, errors.NotFoundf("route %s not found", req.URL.Path))
	})
	router.MethodNotAllowed(func(w http.ResponseWriter, req *http.Request) {
		response.Error(w, req, r.logger, errors.MethodNotAllowed(req.Method))
	})

	router.Method(http.MethodGet, "/health", serverHandlers.NewHealthHandler(r.db))
	router.Method(http.MethodGet, "/metrics", metrics.Handler())

	cityHandler := cityHandlers.NewCityHandler(r.cityService, validation.New(), r.cfg.Pagination)
	cityPath := "/{" + cityHandlers.CityUUIDParam + "}"

	router.Route("/cities", func(cities chi.Router) {
		cities.Use(r.rateLimiter.Middleware)

		// the mount serves both /cities and /cities/ from "/"
		cities.Post("/", cityHandler.Create)
		cities.Get("/", cityHandler.List)
		cities.Get(cityPath, cityHandler.Get)
		cities.Patch(cityPath, cityHandler.Update)
		cities.Delete(cityPath, cityHandler.Delete)
	})

	logger.Info("Routes configured successfully",
		"public_endpoints", []string{"/health", "/metrics"},
		"city_endpoints", []string{"/cities/", "/cities/{cityUUID}"},
	)

	return router
}
