package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/campusfound/apiserver/config"
	"github.com/campusfound/apiserver/internal/db"
	"github.com/campusfound/apiserver/internal/email"
	"github.com/campusfound/apiserver/internal/handlers"
	"github.com/campusfound/apiserver/internal/mq"
	"github.com/campusfound/apiserver/internal/services"
	"github.com/campusfound/apiserver/internal/storage"
	"github.com/campusfound/apiserver/internal/store"
)

// Server wraps the HTTP server and router.
type Server struct {
	httpServer *http.Server
	router     *chi.Mux
	db         *sql.DB
	broker     *mq.MQ
	cancel     context.CancelFunc
}

// New constructs a Server with its full dependency graph wired in.
func New(ctx context.Context, cfg config.Config) (*Server, error) {
	jwtSecret := strings.TrimSpace(cfg.JWT.Secret)
	if jwtSecret == "" {
		return nil, errors.New("JWT_SECRET is required")
	}

	dbConn, err := db.Open(ctx, cfg)
	if err != nil {
		return nil, err
	}

	objStorage, err := openStorage(ctx, cfg)
	if err != nil {
		_ = dbConn.Close()
		return nil, err
	}

	broker, err := mq.FromConfig(ctx, cfg.MQ)
	if err != nil {
		_ = dbConn.Close()
		return nil, err
	}

	userRepo := store.NewUserRepository(dbConn)
	itemRepo := store.NewItemRepository(dbConn)
	requestRepo := store.NewRequestRepository(dbConn)
	analyticsRepo := store.NewAnalyticsRepository(dbConn)

	mailer := email.NewService(cfg.Email)
	notifier := services.NewNotifierService(userRepo, mailer, broker, cfg.ClientURL)

	var imageRemover services.ImageRemover
	if objStorage != nil {
		imageRemover = objStorage
	}

	userService := services.NewUserService(userRepo, itemRepo)
	itemService := services.NewItemService(itemRepo, requestRepo, imageRemover)
	requestService := services.NewRequestService(requestRepo, itemRepo, notifier)
	subscriptionService := services.NewSubscriptionService(userRepo, analyticsRepo)
	analyticsService := services.NewAnalyticsService(analyticsRepo)

	runCtx, cancel := context.WithCancel(context.Background())
	go func() {
		if err := notifier.Run(runCtx); err != nil {
			log.Printf("notification consumer stopped: %v", err)
		}
	}()

	authMiddleware := handlers.RequireAuth(jwtSecret)
	adminMiddleware := handlers.RequireAdmin(userService)

	router := chi.NewRouter()
	router.Use(
		middleware.RequestID,
		middleware.RealIP,
		middleware.Recoverer,
		middleware.Logger,
		middleware.Timeout(60*time.Second),
	)
	router.Get("/healthz", handlers.Healthz)
	router.Get("/uploads/{key}", handlers.UploadsHandler(objStorage))
	router.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			handlers.AuthRouter(r, userService, jwtSecret, cfg.JWT.TokenTTL)
		})
		r.Route("/items", func(r chi.Router) {
			r.Use(authMiddleware)
			handlers.ItemRouter(r, itemService, requestService, objStorage)
		})
		r.Route("/users", func(r chi.Router) {
			r.Use(authMiddleware)
			handlers.UserRouter(r, userService)
		})
		r.Route("/subscribe", func(r chi.Router) {
			r.Use(authMiddleware)
			handlers.SubscribeRouter(r, subscriptionService)
		})
		r.Route("/requests", func(r chi.Router) {
			r.Use(authMiddleware, adminMiddleware)
			handlers.RequestRouter(r, requestService)
		})
		r.Route("/admin", func(r chi.Router) {
			r.Use(authMiddleware, adminMiddleware)
			handlers.AdminRouter(r, itemService)
		})
		r.Route("/analytics", func(r chi.Router) {
			r.Use(authMiddleware, adminMiddleware)
			handlers.AnalyticsRouter(r, analyticsService)
		})
	})

	port := cfg.ServerPort
	if port == 0 {
		port = 8080
	}

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return &Server{
		httpServer: httpServer,
		router:     router,
		db:         dbConn,
		broker:     broker,
		cancel:     cancel,
	}, nil
}

// openStorage constructs the object storage backend, or returns nil when
// none is configured. Image uploads and /uploads serving degrade to
// errors in that case; everything else keeps working.
func openStorage(ctx context.Context, cfg config.Config) (*storage.Storage, error) {
	if strings.TrimSpace(cfg.Storage.Backend) == "" {
		return nil, nil
	}

	objStorage, err := storage.FromConfig(ctx, cfg.Storage)
	if err != nil {
		return nil, err
	}
	if err := objStorage.EnsureBucket(ctx); err != nil {
		return nil, err
	}
	return objStorage, nil
}

// Router exposes the chi router for route registration.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// Start runs the HTTP server.
func (s *Server) Start() error {
	log.Printf("listening on %s", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown attempts a graceful shutdown.
func (s *Server) Shutdown() error {
	if s.cancel != nil {
		s.cancel()
	}
	if s.broker != nil {
		_ = s.broker.Close()
	}
	if s.db != nil {
		_ = s.db.Close()
	}
	return s.httpServer.Close()
}
