package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	nethttp "net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-redisstream/pkg/redisstream"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/openclave/walletauth/adapters/events"
	"github.com/openclave/walletauth/adapters/ratelimit"
	"github.com/openclave/walletauth/adapters/store"
	"github.com/openclave/walletauth/adapters/tokenizer"
	"github.com/openclave/walletauth/config"
	"github.com/openclave/walletauth/ports"
	"github.com/openclave/walletauth/service"
	"github.com/openclave/walletauth/transport/http"
)

func main() {
	configPath := flag.String("config", os.Getenv("WALLETAUTH_CONFIG"), "path to config file")
	flag.Parse()

	// Configuration errors abort startup; this subsystem never runs with a
	// missing or weak signing secret.
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("configuration error: %v", err)
	}

	logger, err := config.NewLogger(cfg.Logging)
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	var redisClient *redis.Client
	if cfg.Redis.URL != "" {
		opts, err := redis.ParseURL(cfg.Redis.URL)
		if err != nil {
			logger.Fatal("invalid redis url", zap.Error(err))
		}
		redisClient = redis.NewClient(opts)
		if err := redisClient.Ping(context.Background()).Err(); err != nil {
			// Reachability is re-probed per operation; an unreachable primary
			// at boot just means starting degraded, not refusing to start.
			logger.Warn("redis unreachable at startup, running on fallback tier", zap.Error(err))
		}
	} else {
		logger.Warn("no redis configured, challenge store is process-local and rate limiting is disabled")
	}

	var (
		primary ports.KeyValueStore
		limiter ports.RateLimiter = ratelimit.Unlimited{}
		pub     ports.EventPublisher
	)
	if redisClient != nil {
		primary = store.NewRedisStore(redisClient)
		limiter = ratelimit.NewRedisLimiter(redisClient, cfg.RateLimit.MaxRequests, cfg.RateLimit.Window, logger)

		if cfg.Events.Enabled {
			wmPublisher, err := redisstream.NewPublisher(
				redisstream.PublisherConfig{Client: redisClient},
				watermill.NewStdLogger(false, false),
			)
			if err != nil {
				logger.Fatal("failed to create event publisher", zap.Error(err))
			}
			pub = events.NewWatermillPublisher(wmPublisher)
		}
	}

	challengeStore := store.NewTieredStore(primary, cfg.Auth.ChallengeTTL, logger)
	sessionTokenizer := tokenizer.NewHMACTokenizer(cfg.Auth.SessionSecret, cfg.Auth.TokenLifetime)

	authService := service.NewAuthService(
		challengeStore,
		limiter,
		sessionTokenizer,
		pub,
		service.Options{
			Domain:    cfg.Auth.Domain,
			Statement: cfg.Auth.Statement,
			URI:       cfg.Auth.URI,
			ChainID:   cfg.Auth.ChainID,
		},
		logger,
	)

	router := http.SetupRouter(authService, logger, http.RouterOptions{
		Metrics:  cfg.Metrics.Enabled,
		Degraded: challengeStore.Degraded,
	})

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &nethttp.Server{Addr: addr, Handler: router}

	go func() {
		logger.Info("starting server", zap.String("addr", addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, nethttp.ErrServerClosed) {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Error("shutdown error", zap.Error(err))
	}
	if redisClient != nil {
		_ = redisClient.Close()
	}
}
