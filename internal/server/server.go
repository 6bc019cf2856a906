// Package server contains the HTTP and WebSocket handlers for the auctions,
// encyclopedia, network and mail APIs.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	_ "agora/docs" // swagger docs
	"agora/internal/cache"
	"agora/internal/config"
	"agora/internal/database"
	"agora/internal/markdown"
	"agora/internal/middleware"
	"agora/internal/models"
	"agora/internal/notifications"
	"agora/internal/repository"
	"agora/internal/service"
	"agora/internal/wiki"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/swagger"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

var (
	signupLimit        = middleware.Limit{Name: "signup", Max: 3, Window: 10 * time.Minute}
	loginLimit         = middleware.Limit{Name: "login", Max: 10, Window: 5 * time.Minute}
	createListingLimit = middleware.Limit{Name: "create_listing", Max: 10, Window: 10 * time.Minute}
	placeBidLimit      = middleware.Limit{Name: "place_bid", Max: 30, Window: time.Minute}
	createCommentLimit = middleware.Limit{Name: "create_comment", Max: 10, Window: time.Minute}
	wikiWriteLimit     = middleware.Limit{Name: "wiki_write", Max: 20, Window: 10 * time.Minute}
	createPostLimit    = middleware.Limit{Name: "create_post", Max: 5, Window: time.Minute}
	sendEmailLimit     = middleware.Limit{Name: "send_email", Max: 20, Window: time.Minute}
)

// Server holds all dependencies and provides handlers
type Server struct {
	config         *config.Config
	db             *gorm.DB
	readDB         *gorm.DB
	redis          *redis.Client
	app            *fiber.App
	promMiddleware *fiberprometheus.FiberPrometheus
	shutdownCtx    context.Context
	shutdownFn     context.CancelFunc

	userRepo     repository.UserRepository
	categoryRepo repository.CategoryRepository
	listingRepo  repository.ListingRepository
	bidRepo      repository.BidRepository
	commentRepo  repository.CommentRepository
	watchRepo    repository.WatchRepository
	postRepo     repository.PostRepository
	followRepo   repository.FollowRepository
	emailRepo    repository.EmailRepository

	notifier *notifications.Notifier
	hub      *notifications.Hub

	accountService *service.AccountService
	auctionService *service.AuctionService
	networkService *service.NetworkService
	mailService    *service.MailService
	wikiService    *service.WikiService
	adminService   *service.AdminService
}

// NewServer creates a new server instance with all dependencies
func NewServer(cfg *config.Config) (*Server, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, fmt.Errorf("database connection failed: %w", err)
	}

	cache.InitRedis(cfg.RedisURL)

	store, err := wiki.NewOSStore(cfg.WikiDir)
	if err != nil {
		return nil, fmt.Errorf("wiki store: %w", err)
	}

	s, err := NewServerWithDeps(cfg, db, cache.GetClient(), store)
	if err != nil {
		return nil, err
	}

	read, err := database.ConnectRead(cfg, db)
	if err != nil {
		return nil, err
	}
	s.useReadDB(read)
	return s, nil
}

// useReadDB points the admin list views at read. Writes keep going to the
// primary.
func (s *Server) useReadDB(read *gorm.DB) {
	if read == s.db {
		return
	}
	s.readDB = read
	s.adminService = service.NewAdminService(
		repository.NewUserRepository(read),
		s.categoryRepo,
		repository.NewListingRepository(read),
		repository.NewCommentRepository(read),
		repository.NewBidRepository(read),
		repository.NewPostRepository(read),
		s.watchRepo,
	)
}

// NewServerWithDeps creates a Server using already-initialized dependencies.
// Tests use it with SQLite, miniredis and an in-memory wiki store. A nil Redis
// client disables caching, rate limits and cross-instance events.
func NewServerWithDeps(cfg *config.Config, db *gorm.DB, redisClient *redis.Client, store *wiki.Store) (*Server, error) {
	if store == nil {
		return nil, fmt.Errorf("wiki store is required")
	}

	s := &Server{
		config:         cfg,
		db:             db,
		redis:          redisClient,
		promMiddleware: middleware.InitMetrics("agora-api"),
		userRepo:       repository.NewUserRepository(db),
		categoryRepo:   repository.NewCategoryRepository(db),
		listingRepo:    repository.NewListingRepository(db),
		bidRepo:        repository.NewBidRepository(db),
		commentRepo:    repository.NewCommentRepository(db),
		watchRepo:      repository.NewWatchRepository(db),
		postRepo:       repository.NewPostRepository(db),
		followRepo:     repository.NewFollowRepository(db),
		emailRepo:      repository.NewEmailRepository(db),
		notifier:       notifications.NewNotifier(redisClient),
		hub:            notifications.NewHub(),
	}

	s.accountService = service.NewAccountService(s.userRepo)
	s.auctionService = service.NewAuctionService(
		s.listingRepo, s.bidRepo, s.commentRepo, s.watchRepo, s.categoryRepo, s.accountService.IsAdmin)
	s.networkService = service.NewNetworkService(s.postRepo, s.followRepo, s.userRepo)
	s.mailService = service.NewMailService(s.emailRepo, s.userRepo)
	s.wikiService = service.NewWikiService(store, markdown.NewRenderer())
	s.adminService = service.NewAdminService(
		s.userRepo, s.categoryRepo, s.listingRepo, s.commentRepo, s.bidRepo, s.postRepo, s.watchRepo)

	return s, nil
}

// SetupMiddleware configures middleware for the Fiber app
func (s *Server) SetupMiddleware(app *fiber.App) {
	app.Use(recover.New())
	app.Use(requestid.New())

	// Context Middleware to propagate Request ID and User ID
	app.Use(middleware.ContextMiddleware())

	if s.promMiddleware != nil {
		app.Use(middleware.MetricsMiddleware(s.promMiddleware))
	}

	app.Use(middleware.TracingMiddleware())
	app.Use(helmet.New())
	app.Use(middleware.StructuredLogger())

	// CORS runs before the limiter so that rejected requests still carry CORS headers.
	origins := s.config.AllowedOrigins
	if origins == "" {
		origins = "http://localhost:5173,http://localhost:3000,http://127.0.0.1:5173"
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, Upgrade, Connection, Sec-WebSocket-Key, Sec-WebSocket-Version",
		AllowCredentials: origins != "*",
		MaxAge:           86400,
	}))

	// Global rate limiting (100 requests per minute per IP)
	app.Use(limiter.New(limiter.Config{
		Max:        100,
		Expiration: 1 * time.Minute,
		Next: func(c *fiber.Ctx) bool {
			return c.Method() == fiber.MethodOptions || !s.config.IsProduction()
		},
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error": "Too many requests, please try again later.",
			})
		},
	}))
}

// SetupRoutes configures all routes for the application
func (s *Server) SetupRoutes(app *fiber.App) {
	app.Get("/health/live", s.LivenessCheck)
	app.Get("/health/ready", s.ReadinessCheck)

	if s.promMiddleware != nil {
		s.promMiddleware.RegisterAt(app, "/metrics")
	}

	api := app.Group("/api")
	api.Get("/swagger/*", swagger.HandlerDefault)

	// Auth routes
	auth := api.Group("/auth")
	auth.Post("/register", middleware.RateLimit(s.redis, signupLimit), s.Register)
	auth.Post("/login", middleware.RateLimit(s.redis, loginLimit), s.Login)
	auth.Post("/logout", s.AuthRequired(), s.Logout)
	auth.Get("/me", s.AuthRequired(), s.Me)

	// Realtime
	api.Post("/ws/ticket", s.AuthRequired(), s.IssueWSTicket)
	api.Get("/ws", s.AuthRequired(), s.WebsocketUpgradeRequired, s.WebsocketHandler())

	s.setupAuctionRoutes(api.Group("/auctions"))
	s.setupWikiRoutes(api.Group("/wiki"))
	s.setupNetworkRoutes(api.Group("/network"))
	s.setupMailRoutes(api.Group("/mail", s.AuthRequired()))
	s.setupAdminRoutes(api.Group("/admin", s.AuthRequired(), s.AdminRequired()))
}

func (s *Server) setupAuctionRoutes(auctions fiber.Router) {
	auctions.Get("/listings", s.GetListings)
	auctions.Post("/listings", s.AuthRequired(),
		middleware.RateLimit(s.redis, createListingLimit), s.CreateListing)
	// Define specific /:id/:resource routes BEFORE generic /:id route
	auctions.Post("/listings/:id/bids", s.AuthRequired(),
		middleware.RateLimit(s.redis, placeBidLimit), s.PlaceBid)
	auctions.Post("/listings/:id/close", s.AuthRequired(), s.CloseListing)
	auctions.Post("/listings/:id/comments", s.AuthRequired(),
		middleware.RateLimit(s.redis, createCommentLimit), s.AddComment)
	auctions.Get("/listings/:id", s.GetListing)

	watchlist := auctions.Group("/watchlist", s.AuthRequired())
	watchlist.Get("/", s.GetWatchlist)
	watchlist.Post("/", s.ToggleWatchlist)
	watchlist.Put("/:id", s.AddToWatchlist)
	watchlist.Delete("/:id", s.RemoveFromWatchlist)

	auctions.Get("/categories", s.GetCategories)
	auctions.Get("/categories/:id", s.GetCategory)
}

func (s *Server) setupWikiRoutes(wikiGroup fiber.Router) {
	writeLimit := middleware.RateLimit(s.redis, wikiWriteLimit)

	wikiGroup.Get("/entries", s.ListEntries)
	wikiGroup.Post("/entries", writeLimit, s.CreateEntry)
	wikiGroup.Get("/entries/:title", s.GetEntry)
	wikiGroup.Put("/entries/:title", writeLimit, s.SaveEntry)
	wikiGroup.Get("/search", s.SearchEntries)
	wikiGroup.Get("/random", s.RandomEntry)
}

func (s *Server) setupNetworkRoutes(network fiber.Router) {
	network.Get("/posts", s.GetPosts)
	network.Post("/posts", s.AuthRequired(),
		middleware.RateLimit(s.redis, createPostLimit), s.CreatePost)
	network.All("/posts", methodNotAllowed("GET or POST request required."))

	network.Get("/posts/subscriptions", s.AuthRequired(), s.GetSubscriptionPosts)
	network.All("/posts/subscriptions", methodNotAllowed("GET request required."))

	network.Put("/posts/:id", s.AuthRequired(), s.UpdatePost)
	network.All("/posts/:id", methodNotAllowed("PUT request required."))

	network.Get("/users/:id/posts", s.GetUserPosts)
	network.All("/users/:id/posts", methodNotAllowed("GET request required."))

	network.Get("/users/:id", s.GetProfile)
	network.Post("/users/:id", s.AuthRequired(), s.SetFollow)
	network.All("/users/:id", methodNotAllowed("GET or POST request required."))
}

func (s *Server) setupMailRoutes(mail fiber.Router) {
	mail.Post("/emails", middleware.RateLimit(s.redis, sendEmailLimit), s.SendEmail)
	mail.Get("/emails/:mailbox", s.GetMailboxOrEmail)
	mail.Put("/emails/:id", s.UpdateEmail)
}

func (s *Server) setupAdminRoutes(admin fiber.Router) {
	admin.Get("/users", s.AdminUsers)
	admin.Post("/users/:id/promote-admin", s.PromoteToAdmin)
	admin.Post("/users/:id/demote-admin", s.DemoteFromAdmin)
	admin.Get("/categories", s.AdminCategories)
	admin.Post("/categories", s.AdminCreateCategory)
	admin.Get("/listings", s.AdminListings)
	admin.Put("/listings/:id/watchers", s.AdminReplaceWatchers)
	admin.Get("/comments", s.AdminComments)
	admin.Get("/bids", s.AdminBids)
	admin.Get("/posts", s.AdminPosts)
}

// LivenessCheck handles liveness probe requests
func (s *Server) LivenessCheck(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status": "up",
		"time":   time.Now(),
	})
}

// ReadinessCheck handles readiness probe requests
func (s *Server) ReadinessCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 5*time.Second)
	defer cancel()

	dbStatus := "healthy"
	sqlDB, err := s.db.DB()
	if err != nil {
		dbStatus = "unhealthy"
	} else if err := sqlDB.PingContext(ctx); err != nil {
		dbStatus = "unhealthy"
	}

	// Redis is optional: without it the API runs uncached on a single instance.
	redisStatus := "unavailable"
	if s.redis != nil {
		redisStatus = "healthy"
		if err := s.redis.Ping(ctx).Err(); err != nil {
			redisStatus = "unhealthy"
		}
	}

	status := fiber.StatusOK
	overallStatus := "healthy"
	if dbStatus == "unhealthy" || redisStatus == "unhealthy" {
		status = fiber.StatusServiceUnavailable
		overallStatus = "unhealthy"
	}

	return c.Status(status).JSON(fiber.Map{
		"status": overallStatus,
		"checks": fiber.Map{
			"database": dbStatus,
			"redis":    redisStatus,
		},
		"time": time.Now(),
	})
}

// newApp builds the Fiber app with middleware and routes but does not listen.
func (s *Server) newApp() *fiber.App {
	app := fiber.New(fiber.Config{
		AppName: "Agora API",
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			var fe *fiber.Error
			if errors.As(err, &fe) {
				return models.RespondWithError(c, fe.Code, fe)
			}
			middleware.Logger.ErrorContext(c.UserContext(), "unhandled error", slog.String("error", err.Error()))
			return models.RespondWithError(c, fiber.StatusInternalServerError,
				models.NewInternalError(err))
		},
	})
	s.SetupMiddleware(app)
	s.SetupRoutes(app)
	return app
}

// StartRealtime wires the hub to Redis pub/sub so events published by any
// instance reach this instance's WebSocket clients.
func (s *Server) StartRealtime(ctx context.Context) error {
	if !s.notifier.Enabled() {
		return nil
	}
	return s.hub.StartWiring(ctx, s.notifier)
}

// Start starts the server
func (s *Server) Start() error {
	ctx, cancel := context.WithCancel(context.Background())
	s.shutdownCtx = ctx
	s.shutdownFn = cancel

	s.app = s.newApp()

	if err := s.StartRealtime(s.shutdownCtx); err != nil {
		middleware.Logger.Error("failed to start event hub wiring",
			slog.String("hub", s.hub.Name()), slog.String("error", err.Error()))
	}

	middleware.Logger.Info("Server starting", slog.String("port", s.config.Port))
	return s.app.Listen(":" + s.config.Port)
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	// Stops the Redis subscriber goroutine.
	if s.shutdownFn != nil {
		s.shutdownFn()
	}

	if err := s.hub.Shutdown(ctx); err != nil {
		middleware.Logger.Error("error shutting down hub", slog.String("error", err.Error()))
	}

	if s.app != nil {
		if err := s.app.ShutdownWithContext(ctx); err != nil {
			middleware.Logger.Error("error shutting down HTTP server", slog.String("error", err.Error()))
		}
	}

	if sqlDB, err := s.db.DB(); err == nil {
		if cerr := sqlDB.Close(); cerr != nil {
			middleware.Logger.Error("error closing sql DB", slog.String("error", cerr.Error()))
		}
	}
	if s.readDB != nil {
		if sqlDB, err := s.readDB.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}

	if s.redis != nil {
		if rerr := s.redis.Close(); rerr != nil {
			middleware.Logger.Error("error closing redis", slog.String("error", rerr.Error()))
		}
	}

	middleware.Logger.Info("Server shutdown complete")
	return nil
}
