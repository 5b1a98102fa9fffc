package server

import (
	"database/sql"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"stockledger/internal/config"
	"stockledger/internal/middleware"
	"stockledger/internal/repository"
	"stockledger/internal/service"
	"stockledger/internal/transport"
)

// Server wraps the HTTP server with its dependencies
type Server struct {
	*http.Server
	logger *zap.Logger
}

// New builds the router, wires all layers together and returns a Server
// ready to listen.
func New(cfg *config.Config, db *sql.DB, redisClient *redis.Client, logger *zap.Logger) *Server {
	// Repositories
	productRepo := repository.NewProductRepository(db)
	inventoryRepo := repository.NewInventoryRepository(db)
	saleRepo := repository.NewSaleRepository(db)
	uowFactory := repository.NewUnitOfWorkFactory(db)

	// Services
	productService := service.NewProductService(productRepo, inventoryRepo, logger)
	inventoryService := service.NewInventoryService(uowFactory, inventoryRepo, productRepo, logger)
	saleService := service.NewSaleService(uowFactory, saleRepo, productRepo, inventoryRepo, logger)

	// Handlers
	productHandler := transport.NewProductHandler(productService, logger)
	inventoryHandler := transport.NewInventoryHandler(inventoryService, productService, logger)
	saleHandler := transport.NewSaleHandler(saleService, logger)

	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Compress(5))
	r.Use(middleware.ErrorHandlingMiddleware(logger))
	r.Use(middleware.LoggingMiddleware(logger))
	r.Use(middleware.CORSMiddleware(nil, cfg.Server.IsDevelopment()))

	r.Get("/health", func(w http.ResponseWriter, req *http.Request) {
		if err := db.PingContext(req.Context()); err != nil {
			middleware.RespondWithError(w, http.StatusServiceUnavailable, "database unavailable")
			return
		}
		middleware.RespondWithJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/v1", func(r chi.Router) {
		if cfg.RateLimit.Enabled && redisClient != nil {
			r.Use(middleware.RateLimitMiddleware(redisClient, middleware.RateLimitConfig{
				RequestsPerWindow: cfg.RateLimit.RequestsPerWindow,
				Window:            time.Duration(cfg.RateLimit.WindowSeconds) * time.Second,
				KeyPrefix:         "ratelimit",
			}, logger))
		}

		productHandler.RegisterRoutes(r)
		inventoryHandler.RegisterRoutes(r)
		saleHandler.RegisterRoutes(r)
	})

	return &Server{
		Server: &http.Server{
			Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
			Handler:      r,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		logger: logger,
	}
}

// Start begins listening for HTTP requests
func (s *Server) Start() error {
	s.logger.Info("Starting HTTP server", zap.String("addr", s.Addr))

	if err := s.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server failed: %w", err)
	}
	return nil
}
