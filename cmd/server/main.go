package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"golang.org/x/crypto/bcrypt"

	apiecho "github.com/localspot/localspot/api/echo"
	"github.com/localspot/localspot/cache"
	cacheredis "github.com/localspot/localspot/cache/redis"
	"github.com/localspot/localspot/config"
	"github.com/localspot/localspot/internal/auth"
	"github.com/localspot/localspot/internal/mailer"
	"github.com/localspot/localspot/internal/server"
	"github.com/localspot/localspot/internal/telemetry"
	"github.com/localspot/localspot/mongodb"
	"github.com/localspot/localspot/services"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
		logger.Fatal().Err(err).Msg("Failed to load configuration")
	}

	initLogger(cfg)
	log.Info().
		Str("http_port", cfg.HTTPPort).
		Str("mongo_db_name", cfg.MongoDBName).
		Str("log_level", cfg.LogLevel).
		Msg("Starting localspot server")

	ctx := context.Background()

	var tracerProvider *sdktrace.TracerProvider
	if cfg.TracingEnabled {
		tracerProvider, err = telemetry.InitTracerProvider("localspot")
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to initialize tracer provider")
		}
	}

	if err := mongodb.InitMongoDB(ctx, cfg.MongoURI, cfg.MongoDBName); err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize MongoDB connection")
	}
	db := mongodb.GetDB()

	// Repositories
	userRepo, err := mongodb.NewUserRepository(ctx, db)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize UserRepository")
	}
	businessRepo, err := mongodb.NewBusinessRepository(ctx, db)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize BusinessRepository")
	}
	discussionRepo, err := mongodb.NewDiscussionRepository(ctx, db)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize DiscussionRepository")
	}
	favoriteRepo, err := mongodb.NewFavoriteRepository(ctx, db)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize FavoriteRepository")
	}
	requestRepo, err := mongodb.NewVerificationRequestRepository(ctx, db)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize VerificationRequestRepository")
	}
	emailTokenRepo, err := mongodb.NewEmailTokenRepository(ctx, db)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize EmailTokenRepository")
	}
	sessionTokenRepo, err := mongodb.NewSessionTokenRepository(ctx, db)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize SessionTokenRepository")
	}

	// Exchange token store: in-memory for a single instance, Redis when
	// configured for instances behind a load balancer.
	exchangeTTL := time.Duration(cfg.ExchangeTokenTTLMin) * time.Minute
	exchangeGrace := time.Duration(cfg.ExchangeGraceSec) * time.Second
	var exchangeStore cache.ExchangeStore
	if cfg.RedisAddr != "" {
		redisClient := goredis.NewClient(&goredis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
		})
		if err := redisClient.Ping(ctx).Err(); err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to Redis")
		}
		exchangeStore = cacheredis.NewExchangeStore(redisClient, cfg.RedisKeyPrefix, exchangeTTL, exchangeGrace)
		log.Info().Str("redis_addr", cfg.RedisAddr).Msg("Using Redis exchange token store")
	} else {
		memStore := cache.NewMemoryExchangeStore(
			cache.WithExchangeTTL(exchangeTTL),
			cache.WithExchangeGrace(exchangeGrace),
		)
		defer memStore.Close()
		exchangeStore = memStore
		log.Info().Msg("Using in-memory exchange token store (single instance)")
	}

	// Services
	passwordHasher := auth.NewBcryptPasswordHasher(bcrypt.DefaultCost)

	var mail services.Mailer
	if cfg.SMTPHost != "" {
		mail = mailer.NewSMTPMailer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPass, cfg.MailFrom)
	} else {
		mail = mailer.NewLogMailer()
	}

	tokenService := services.NewTokenService(sessionTokenRepo, time.Duration(cfg.SessionTokenTTLMin)*time.Minute)
	defer tokenService.Close()

	authService := services.NewAuthService(
		userRepo, emailTokenRepo, tokenService, passwordHasher, mail,
		time.Duration(cfg.EmailTokenTTLHour)*time.Hour, cfg.PublicURL,
	)
	oauthService := services.NewOAuthService(
		cfg.GoogleClientID, cfg.GoogleClientSecret, cfg.OAuthRedirectURL,
		authService, exchangeStore,
	)
	businessService := services.NewBusinessService(businessRepo)
	discussionService := services.NewDiscussionService(discussionRepo, businessRepo)
	favoriteService := services.NewFavoriteService(favoriteRepo, businessRepo)
	verificationService := services.NewVerificationService(requestRepo, businessRepo)

	httpServer := server.NewHTTPServer(cfg, server.APIs{
		Auth:      apiecho.NewAuthAPI(authService, oauthService, tokenService, userRepo, exchangeStore, cfg.FrontendURL),
		Directory: apiecho.NewDirectoryAPI(businessService, tokenService),
		Community: apiecho.NewCommunityAPI(discussionService, favoriteService, tokenService, userRepo),
		Admin:     apiecho.NewAdminAPI(verificationService, tokenService, userRepo),
	})

	go func() {
		log.Info().Str("addr", httpServer.Addr).Msg("HTTP server listening")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown failed")
	}
	if err := mongodb.Disconnect(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("MongoDB disconnect failed")
	}
	if tracerProvider != nil {
		if err := tracerProvider.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("Tracer provider shutdown failed")
		}
	}
}

func initLogger(cfg *config.ServerConfig) {
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	if cfg.LogPretty {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339})
	}
}
