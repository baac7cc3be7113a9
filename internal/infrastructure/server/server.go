// Package server assembles the application: storage, domain services,
// middleware, routes, and the event hub.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	apihttp "github.com/SamisDone/tabsaver/internal/api/http"
	"github.com/SamisDone/tabsaver/internal/api/middleware"
	"github.com/SamisDone/tabsaver/internal/autosave"
	"github.com/SamisDone/tabsaver/internal/browser"
	"github.com/SamisDone/tabsaver/internal/domain/session"
	"github.com/SamisDone/tabsaver/internal/domain/settings"
	"github.com/SamisDone/tabsaver/internal/favicon"
	"github.com/SamisDone/tabsaver/internal/infrastructure/config"
	"github.com/SamisDone/tabsaver/internal/infrastructure/monitoring"
	"github.com/SamisDone/tabsaver/internal/logging"
	"github.com/SamisDone/tabsaver/internal/storage"
	"github.com/SamisDone/tabsaver/internal/ws"
)

// Server wraps the HTTP server and its dependencies.
type Server struct {
	httpServer *http.Server
	router     *gin.Engine
	store      *session.Store
	undo       *session.UndoBuffer
	scheduler  *autosave.Scheduler
	hub        *ws.Hub
	logger     *logging.Logger
	config     *config.Config
}

// New assembles a server from configuration.
func New(cfg *config.Config) (*Server, error) {
	logger, err := logging.New(logging.Config{
		Level:       cfg.Logging.Level,
		Development: cfg.Logging.Development,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to init logging: %w", err)
	}

	logger.Info("initializing tab session server",
		zap.String("port", cfg.Server.Port),
		zap.String("storage_path", cfg.Storage.Path))

	metrics := monitoring.New()

	kv, err := storage.NewFile(cfg.Storage.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open storage: %w", err)
	}

	vocab, err := session.LoadVocabulary(cfg.Storage.TagsFile)
	if err != nil {
		return nil, err
	}

	hub := ws.NewHub(logger).WithMetrics(metrics)

	store := session.NewStore(kv, logger).
		WithMetrics(metrics).
		WithSignaler(hub).
		WithVocabulary(vocab)
	if err := store.Load(context.Background()); err != nil {
		return nil, err
	}

	settingsMgr := settings.NewManager(kv, logger)
	if err := settingsMgr.Load(context.Background()); err != nil {
		logger.Warn("settings load failed, using defaults", zap.Error(err))
	}

	bridge := browser.NewRemote(cfg.Browser.BridgeURL, cfg.Browser.Timeout)

	service := session.NewService(store, bridge, logger).
		WithSettings(settingsMgr).
		WithSignaler(hub).
		WithMetrics(metrics)
	if cfg.Favicon.Enabled {
		service.WithFavicons(favicon.New(logger, cfg.Favicon.Timeout))
	}

	undo := session.NewUndoBuffer(store, cfg.Undo.TTL, logger).
		WithMetrics(metrics)

	scheduler := autosave.New(service, logger)
	scheduler.Apply(settingsMgr.Get())
	settingsMgr.Subscribe(scheduler.Apply)

	if !cfg.Logging.Development {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(metrics.Middleware())
	router.Use(middleware.CORS(middleware.DefaultCORSConfig()))
	if cfg.RateLimit.Enabled {
		logger.Info("rate limiting enabled",
			zap.Int("rps", cfg.RateLimit.RequestsPerSecond),
			zap.Int("burst", cfg.RateLimit.Burst))
		router.Use(middleware.RateLimit(middleware.RateLimitConfig{
			RequestsPerSecond: cfg.RateLimit.RequestsPerSecond,
			Burst:             cfg.RateLimit.Burst,
		}))
	}

	handlers := apihttp.NewHandlers(service, store, undo, settingsMgr, kv, cfg.Storage.MaxBytes, logger).
		WithSignaler(hub)
	handlers.RegisterRoutes(router)

	router.GET("/stream", hub.Handler)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	logger.Info("server initialized")

	return &Server{
		httpServer: &http.Server{
			Addr:    cfg.Server.Host + ":" + cfg.Server.Port,
			Handler: router,
		},
		router:    router,
		store:     store,
		undo:      undo,
		scheduler: scheduler,
		hub:       hub,
		logger:    logger,
		config:    cfg,
	}, nil
}

// Run starts the HTTP server and blocks until it stops.
func (s *Server) Run() error {
	s.logger.Info("starting HTTP server", zap.String("addr", s.httpServer.Addr))
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests and stops background work.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down")

	s.scheduler.Close()
	s.undo.Close()
	s.hub.Close()

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}

	s.logger.Info("shutdown complete")
	return nil
}
