package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/XavierBriggs/fortuna/services/batting-dashboard/internal/config"
	"github.com/XavierBriggs/fortuna/services/batting-dashboard/internal/consumer"
	"github.com/XavierBriggs/fortuna/services/batting-dashboard/internal/dashboard"
	"github.com/XavierBriggs/fortuna/services/batting-dashboard/internal/dedup"
	"github.com/XavierBriggs/fortuna/services/batting-dashboard/internal/gateway"
	"github.com/XavierBriggs/fortuna/services/batting-dashboard/internal/handlers"
	"github.com/XavierBriggs/fortuna/services/batting-dashboard/internal/hub"
	"github.com/XavierBriggs/fortuna/services/batting-dashboard/internal/logger"
	"github.com/XavierBriggs/fortuna/services/batting-dashboard/internal/middleware"
	"github.com/XavierBriggs/fortuna/services/batting-dashboard/internal/publisher"
	"github.com/XavierBriggs/fortuna/services/batting-dashboard/internal/retry"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	configPath := flag.String("config", "", "path to a config file (yaml, json or toml)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(logger.Config{
		Level:       cfg.LogLevel,
		Environment: cfg.Environment,
		ServiceName: cfg.ServiceName,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	if err := run(cfg, log); err != nil {
		log.Error("batting dashboard stopped", err)
		log.Sync()
		os.Exit(1)
	}
	log.Info("shutdown complete")
}

func run(cfg *config.AppConfig, log *logger.Logger) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store, err := openStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer store.Close()

	origin := instanceID(cfg)
	log = log.With(zap.String("instance", origin))

	h := hub.NewHub(log)
	go h.Run(ctx)

	notifiers := dashboard.Fanout{h}

	var redisClient *redis.Client
	if cfg.Redis.Enabled() {
		redisOpts, err := redis.ParseURL(cfg.Redis.URL)
		if err != nil {
			return fmt.Errorf("parse redis url: %w", err)
		}
		redisClient = redis.NewClient(redisOpts)
		defer redisClient.Close()

		// Redis may still be starting alongside us
		err = retry.NewPolicy(5, 500*time.Millisecond, 5*time.Second).Execute(ctx, func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		})
		if err != nil {
			return fmt.Errorf("connect to redis: %w", err)
		}
		log.Info("connected to redis", zap.String("stream", cfg.Redis.Stream))

		notifiers = append(notifiers, publisher.NewStreamPublisher(redisClient, cfg.Redis.Stream, log))
	}

	ctrl := dashboard.New(dashboard.Options{
		Store:    store,
		Logger:   log,
		Notifier: notifiers,
		Origin:   origin,
	})

	if err := ctrl.Refresh(ctx); err != nil {
		log.Warn("initial load failed; serving an empty roster until the next refresh", zap.Error(err))
	}

	if redisClient != nil {
		// Each instance reads the whole stream, so each gets its own group
		stream := consumer.NewStreamConsumer(redisClient, consumer.Config{
			Stream:        cfg.Redis.Stream,
			ConsumerGroup: cfg.Redis.ConsumerGroup + ":" + origin,
			ConsumerID:    origin,
			Origin:        origin,
			Dedup:         dedup.NewDeduplicator(redisClient, origin, dedup.DefaultTTL),
		}, ctrl, h, log)

		go func() {
			if err := stream.Start(ctx); err != nil {
				log.Error("stream consumer stopped", err)
			}
		}()
	}

	handler := handlers.NewHandler(ctrl, log, cfg.ServiceName, cfg.Server.Title)
	wsHandler := handlers.NewWebSocketHandler(ctx, h, log)

	r := chi.NewRouter()

	// Middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logger(log))
	r.Use(chimiddleware.Recoverer)

	// CORS configuration
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.Server.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Long-lived connections stay outside the request timeout
	r.Get("/ws", wsHandler.HandleWebSocket)
	r.Handle("/metrics", promhttp.Handler())

	r.Group(func(r chi.Router) {
		r.Use(chimiddleware.Timeout(30 * time.Second))
		handler.Mount(r)
	})

	srv := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 35 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	serverErrors := make(chan error, 1)
	go func() {
		log.Info("batting dashboard listening",
			zap.String("addr", cfg.Server.Addr),
			zap.String("backend", cfg.Gateway.Backend),
			zap.Bool("redis", cfg.Redis.Enabled()),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)

	case sig := <-shutdown:
		log.Info("received signal", zap.String("signal", sig.String()))

		// Give outstanding requests a deadline for completion
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Warn("graceful shutdown failed", zap.Error(err))
			if err := srv.Close(); err != nil {
				return fmt.Errorf("could not stop server: %w", err)
			}
		}
	}

	return nil
}

// openStore builds the configured players backend, wrapped with metrics
func openStore(ctx context.Context, cfg *config.AppConfig, log *logger.Logger) (gateway.PlayerStore, error) {
	switch cfg.Gateway.Backend {
	case config.BackendPostgres:
		pg, err := gateway.NewPostgresClient(gateway.PostgresOptions{
			DSN:             cfg.Postgres.DSN,
			MaxOpenConns:    cfg.Postgres.MaxOpenConns,
			MaxIdleConns:    cfg.Postgres.MaxIdleConns,
			ConnMaxLifetime: cfg.Postgres.ConnMaxLifetime,
		})
		if err != nil {
			return nil, fmt.Errorf("connect to postgres: %w", err)
		}

		schemaCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()
		if err := pg.EnsureSchema(schemaCtx); err != nil {
			pg.Close()
			return nil, fmt.Errorf("ensure schema: %w", err)
		}

		log.Info("connected to postgres")
		return gateway.NewInstrumented(pg, log), nil

	default:
		rest, err := gateway.NewRESTClient(gateway.RESTOptions{
			BaseURL:    cfg.Gateway.URL,
			APIKey:     cfg.Gateway.Key,
			Collection: cfg.Gateway.Collection,
			Timeout:    cfg.Gateway.Timeout,
		})
		if err != nil {
			return nil, fmt.Errorf("create rest client: %w", err)
		}

		log.Info("using rest backend", zap.String("url", cfg.Gateway.URL), zap.String("collection", cfg.Gateway.Collection))
		return gateway.NewInstrumented(rest, log), nil
	}
}

// instanceID names this process on change events and in the consumer group
func instanceID(cfg *config.AppConfig) string {
	if cfg.Redis.ConsumerID != "" {
		return cfg.Redis.ConsumerID
	}
	if host, err := os.Hostname(); err == nil && host != "" {
		return host
	}
	return uuid.NewString()
}
