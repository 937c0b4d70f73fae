package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/giftlab/giftserve/internal/auth"
	"github.com/giftlab/giftserve/internal/config"
	"github.com/giftlab/giftserve/internal/database"
	"github.com/giftlab/giftserve/internal/tag"
	"github.com/giftlab/giftserve/internal/token"
	"github.com/giftlab/giftserve/internal/user"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"moul.io/chizap"
)

func main() {
	// init logger
	logger, err := zap.NewProduction()
	if err != nil {
		panic("failed to initialize logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	// load configuration
	cfg, err := config.LoadConfig(logger)
	if err != nil {
		logger.Fatal("failed to load configuration", zap.Error(err))
	}

	// load database
	db, err := database.Init(cfg.DbConfig)
	if err != nil {
		logger.Fatal("failed to initialize database", zap.Error(err))
	}
	defer db.Close()

	// run migrations
	database.SetMigrationLogger(logger)
	if err := database.Migrate(context.Background(), db); err != nil {
		logger.Fatal("failed to migrate database", zap.Error(err))
	}

	// revocation store
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisConfig.Addr,
		Password: cfg.RedisConfig.Password,
		DB:       cfg.RedisConfig.DB,
	})
	defer redisClient.Close()

	blacklist, err := token.NewRedisBlacklist(redisClient)
	if err != nil {
		logger.Fatal("failed to connect revocation store", zap.Error(err))
	}

	// token stack
	codec, err := token.NewCodec(cfg.JWTConfig.Secret, cfg.JWTConfig.Algorithm)
	if err != nil {
		logger.Fatal("failed to build token codec", zap.Error(err))
	}
	tokenService := token.NewService(logger, codec, blacklist, cfg.JWTConfig)

	// repositories and services
	userRepo := user.NewRepo(db, logger)
	tagRepo := tag.NewRepo(db, logger)
	relationRepo := tag.NewRelationshipRepo(db, logger)
	authService := auth.NewService(logger, userRepo, tokenService)

	// handlers
	authHandler := auth.NewHandler(authService, tokenService, logger)
	userHandler := user.NewHandler(userRepo, logger)
	tagHandler := tag.NewHandler(tagRepo, relationRepo, userRepo, logger)

	// authentication middleware
	whitelist, err := auth.NewWhitelist(cfg.AuthConfig.Whitelist)
	if err != nil {
		logger.Fatal("invalid whitelist configuration", zap.Error(err))
	}
	authMiddleware := auth.NewMiddleware(logger, tokenService, whitelist)

	// router
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chizap.New(logger, &chizap.Opts{
		WithReferer:   true,
		WithUserAgent: true,
	}))
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Auth-Token"},
		AllowCredentials: false,
		MaxAge:           300,
	}))
	r.Use(authMiddleware.Handler)

	r.Route("/api", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			// tighter limit where credentials are presented
			r.Use(httprate.LimitByIP(20, time.Minute))
			authHandler.Register(r)
		})
		r.Group(func(r chi.Router) {
			r.Use(httprate.LimitByIP(300, time.Minute))
			userHandler.Register(r)
			tagHandler.Register(r)
		})
	})

	srv := &http.Server{
		Addr:         ":" + cfg.AppConfig.Port,
		Handler:      r,
		ReadTimeout:  cfg.AppConfig.ReadTimeout,
		WriteTimeout: cfg.AppConfig.WriteTimeout,
		IdleTimeout:  cfg.AppConfig.IdleTimeout,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Info("server listening", zap.String("port", cfg.AppConfig.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.AppConfig.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	}
}
