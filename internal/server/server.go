package server

import (
	"database/sql"
	"fmt"
	"net/http"
	"time"

	"mercato/internal/config"
	custommiddleware "mercato/internal/middleware"
	"mercato/internal/payment"
	"mercato/internal/repository"
	"mercato/internal/service"
	"mercato/internal/transport"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type Server struct {
	*http.Server
	config *config.Config
	logger *zap.Logger
	db     *sql.DB
	redis  *redis.Client
}

func NewServer(cfg *config.Config, logger *zap.Logger, db *sql.DB) *Server {
	// Create router
	router := chi.NewRouter()

	// Add basic middleware
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.Recoverer)
	router.Use(middleware.Compress(5))
	router.Use(custommiddleware.CORSMiddleware(cfg.Server.CORSOrigins, cfg.Server.Env == "development"))
	router.Use(custommiddleware.LoggingMiddleware(logger))
	router.Use(custommiddleware.ErrorHandlingMiddleware(logger))

	redisClient := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%s", cfg.Redis.Host, cfg.Redis.Port),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	router.Use(custommiddleware.RateLimitMiddleware(redisClient, custommiddleware.RateLimitConfig{
		RequestsPerWindow: 100,
		Window:            time.Minute,
		KeyPrefix:         "ratelimit",
	}, logger))

	// Health check endpoint
	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		custommiddleware.RespondWithJSON(w, http.StatusOK, map[string]any{
			"status":    "ok",
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		})
	})

	// Initialize repositories
	userRepo := repository.NewUserRepository(db)
	refreshTokenRepo := repository.NewRefreshTokenRepository(db)
	addressRepo := repository.NewAddressRepository(db)
	productRepo := repository.NewProductRepository(db)
	categoryRepo := repository.NewCategoryRepository(db)
	supplierRepo := repository.NewSupplierRepository(db)
	carrierRepo := repository.NewCarrierRepository(db)
	cartRepo := repository.NewCartRepository(db)
	orderRepo := repository.NewOrderRepository(db)
	discountRepo := repository.NewDiscountRepository(db)
	paymentRepo := repository.NewPaymentRepository(db)
	newsletterRepo := repository.NewNewsletterRepository(db)
	cmsRepo := repository.NewCMSRepository(db)

	// Initialize payment providers
	providers := payment.NewRegistry(
		payment.NewStripeProvider(cfg.Stripe, cfg.Checkout.Currency),
		payment.NewPayPalProvider(cfg.PayPal, cfg.Checkout.Currency),
		payment.NewKlarnaProvider(cfg.Klarna, cfg.Checkout.Currency),
	)

	// Initialize services
	userService := service.NewUserService(userRepo, refreshTokenRepo, cfg.JWT)
	cartService := service.NewCartService(cartRepo, productRepo)
	discountService := service.NewDiscountService(discountRepo)
	orderService := service.NewOrderService(orderRepo, cartRepo, addressRepo, carrierRepo, discountService, cfg.Checkout)
	paymentService := service.NewPaymentService(paymentRepo, orderRepo, addressRepo, providers)

	// Initialize handlers
	userHandler := transport.NewUserHandler(userService, logger)
	addressHandler := transport.NewAddressHandler(addressRepo, logger)
	productHandler := transport.NewProductHandler(productRepo, logger)
	categoryHandler := transport.NewCategoryHandler(categoryRepo, logger)
	supplierHandler := transport.NewSupplierHandler(supplierRepo, logger)
	carrierHandler := transport.NewCarrierHandler(carrierRepo, logger)
	cartHandler := transport.NewCartHandler(cartService, logger)
	orderHandler := transport.NewOrderHandler(orderService, logger)
	paymentHandler := transport.NewPaymentHandler(paymentService, logger)
	marketingHandler := transport.NewMarketingHandler(newsletterRepo, discountRepo, logger)
	cmsHandler := transport.NewCMSHandler(cmsRepo, logger)

	// Create auth middleware
	authMiddleware := custommiddleware.AuthMiddleware(cfg.JWT.Secret, logger)
	staffMiddleware := custommiddleware.RequireStaff(logger)

	// Register routes
	userHandler.RegisterRoutes(router, authMiddleware)
	addressHandler.RegisterRoutes(router, authMiddleware)
	productHandler.RegisterRoutes(router, authMiddleware, staffMiddleware)
	categoryHandler.RegisterRoutes(router, authMiddleware, staffMiddleware)
	supplierHandler.RegisterRoutes(router, authMiddleware, staffMiddleware)
	carrierHandler.RegisterRoutes(router, authMiddleware, staffMiddleware)
	cartHandler.RegisterRoutes(router, authMiddleware)
	orderHandler.RegisterRoutes(router, authMiddleware, staffMiddleware)
	paymentHandler.RegisterRoutes(router, authMiddleware)
	marketingHandler.RegisterRoutes(router, authMiddleware, staffMiddleware)
	cmsHandler.RegisterRoutes(router, authMiddleware, staffMiddleware)

	server := &Server{
		Server: &http.Server{
			Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
			Handler:      router,
			IdleTimeout:  time.Minute,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
		},
		config: cfg,
		logger: logger,
		db:     db,
		redis:  redisClient,
	}

	return server
}

func (s *Server) Close() error {
	s.logger.Info("Closing server resources")

	if s.redis != nil {
		if err := s.redis.Close(); err != nil {
			s.logger.Error("Failed to close redis connection", zap.Error(err))
		}
	}

	// Close database connection
	if s.db != nil {
		if err := s.db.Close(); err != nil {
			s.logger.Error("Failed to close database connection", zap.Error(err))
		}
	}

	s.logger.Sync()
	return nil
}
