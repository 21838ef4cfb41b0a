package serverhttp

import (
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	allocHnd "dms-upload-service/internal/allocate/handler"
	"dms-upload-service/internal/config"
	"dms-upload-service/internal/middleware"
	"dms-upload-service/server/http/handlers"
)

func NewRouter(cfg config.Config, logger zerolog.Logger) *chi.Mux {
	r := chi.NewRouter()

	// order matters: recover -> requestID -> logging -> cors -> limit
	r.Use(middleware.Recover(logger))
	r.Use(middleware.RequestID())
	r.Use(middleware.Logging(logger))
	r.Use(middleware.CORS(cfg.AllowOrigins))
	r.Use(middleware.LimitBytes(int64(cfg.MaxUploadMB) * 1024 * 1024))

	r.Get("/health", handlers.Health)
	r.Get("/brands", allocHnd.Brands())

	r.Post("/states", allocHnd.States(cfg, logger))
	r.Post("/questions", allocHnd.Questions(cfg, logger))
	r.Post("/process", allocHnd.Process(cfg, logger))

	return r
}
