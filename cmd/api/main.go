package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"catlog/internal/config"
	"catlog/internal/db"
	"catlog/internal/email"
	apihttp "catlog/internal/http"
	"catlog/internal/metrics"
	"catlog/internal/registry"
	"catlog/internal/repository"
	"catlog/internal/service"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	ctx := context.Background()

	if err := godotenv.Load(); err != nil {
		log.Printf("warning: loading .env: %v", err)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		panic(err)
	}

	logger, _ := zap.NewProduction()
	defer logger.Sync()

	pool, err := db.NewPool(ctx, cfg)
	if err != nil {
		logger.Fatal("db connect", zap.Error(err))
	}
	defer pool.Close()

	userRepo := repository.NewPgUserRepository(pool)
	profRepo := repository.NewPgProfessionalRepository(pool)
	postRepo := repository.NewPgPostRepository(pool)
	commentRepo := repository.NewPgCommentRepository(pool)
	socialRepo := repository.NewPgSocialRepository(pool)
	itemRepo := repository.NewPgItemRepository(pool)
	offerRepo := repository.NewPgOfferRepository(pool)

	reg := registry.NewCSVRegistry(logger, cfg.ReferenceCSVPath)
	if err := reg.Reload(); err != nil {
		logger.Warn("reference register load failed", zap.Error(err))
	}

	m := metrics.New()

	emailSender := email.NewDisabledSender("email sender not configured")
	if cfg.SMTPHost != "" {
		sender, err := email.NewSMTPSender(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPass, cfg.SMTPFrom, cfg.SMTPFromName, cfg.SMTPUseTLS)
		if err != nil {
			logger.Warn("smtp sender init failed", zap.Error(err))
		} else {
			emailSender = sender
		}
	}

	var (
		issueLimiter service.IssueRateLimiter
		sessionStore service.ValidationSessionStore
		tokenStore   service.RefreshTokenStore
		redisClient  *redis.Client
	)
	if cfg.RedisAddr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		ctxPing, cancel := context.WithTimeout(ctx, 2*time.Second)
		if err := redisClient.Ping(ctxPing).Err(); err != nil {
			logger.Warn("redis ping failed", zap.Error(err))
		} else {
			issueLimiter = service.NewRedisIssueRateLimiter(redisClient, 10*time.Minute, 3)
			sessionStore = service.NewRedisValidationSessionStore(redisClient, time.Hour)
			tokenStore = service.NewRedisRefreshTokenStore(redisClient)
		}
		cancel()
	}
	if issueLimiter == nil {
		issueLimiter = service.NewIssueRateLimiter(10*time.Minute, 3)
	}

	jwtSvc := service.NewJWTServiceWithStore(
		cfg.JWTSecret,
		time.Duration(cfg.JWTAccessTTLMinutes)*time.Minute,
		time.Duration(cfg.JWTRefreshTTLMinutes)*time.Minute,
		tokenStore,
	)
	if cfg.JWTSecret == "" {
		logger.Warn("jwt secret not configured")
	}

	verifSvc := service.NewVerificationService(logger, userRepo, profRepo, reg, sessionStore, emailSender, issueLimiter, m)
	postSvc := service.NewPostService(logger, postRepo, commentRepo, socialRepo, userRepo)
	itemSvc := service.NewItemService(logger, itemRepo, offerRepo, socialRepo, userRepo)
	userSvc := service.NewUserService(logger, userRepo, socialRepo, postSvc, itemSvc, verifSvc, emailSender)

	userHandler := apihttp.NewUserHandler(logger, userSvc, jwtSvc)
	verifHandler := apihttp.NewVerificationHandler(logger, verifSvc)
	postHandler := apihttp.NewPostHandler(logger, postSvc)
	itemHandler := apihttp.NewItemHandler(logger, itemSvc)
	router := apihttp.NewRouter(logger, jwtSvc, userHandler, verifHandler, postHandler, itemHandler)

	server := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	logger.Info("starting server", zap.String("port", cfg.HTTPPort))

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatal("server error", zap.Error(err))
	}
}
