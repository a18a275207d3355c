package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"storefront-bridge/internal/application"
	"storefront-bridge/internal/application/webhook_handlers"
	"storefront-bridge/internal/config"
	apiinfra "storefront-bridge/internal/infrastructure/api"
	"storefront-bridge/internal/infrastructure/auth"
	"storefront-bridge/internal/infrastructure/database"
	"storefront-bridge/internal/infrastructure/encryption"
	"storefront-bridge/internal/infrastructure/marker"
	"storefront-bridge/internal/infrastructure/metrics"
	"storefront-bridge/internal/infrastructure/pubsub"
	"storefront-bridge/internal/infrastructure/repository"
	shopifyinfra "storefront-bridge/internal/infrastructure/shopify"
	"storefront-bridge/internal/infrastructure/storage"
	"storefront-bridge/internal/ports"
	"storefront-bridge/migrations"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	httpSwagger "github.com/swaggo/http-swagger"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	securitymiddleware "storefront-bridge/internal/infrastructure/middleware"
)

// stores groups the repositories selected by STORE_DRIVER
type stores struct {
	credentials ports.CredentialRepository
	products    ports.ProductRepository
	pushes      ports.PushRecordRepository
	close       func()
}

func main() {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("Invalid configuration")
	}
	if level, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
		logger = logger.Level(level)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := openStores(ctx, cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Str("driver", cfg.Store.Driver).Msg("Failed to open store")
	}
	defer st.close()

	var markers ports.MarkerStore = marker.NewMemoryStore()
	if cfg.Redis.Addr != "" {
		redisStore, err := marker.NewRedisStore(ctx, &redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			logger.Fatal().Err(err).Msg("Failed to connect to Redis")
		}
		defer redisStore.Close()
		markers = redisStore
	} else {
		logger.Warn().Msg("REDIS_ADDR not set, keeping push and order markers in memory")
	}

	encryptionService, err := encryption.NewService(cfg.EncryptionKey)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to initialize encryption service")
	}

	images, err := storage.NewS3ObjectStorage(ctx, &cfg.Storage, storage.WithLogger(logger))
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to initialize image storage")
	}

	m := metrics.New()
	jwtService := auth.NewJWTService(cfg.Auth)

	shopifyClient, err := shopifyinfra.NewClient(cfg.Shopify, logger, shopifyinfra.WithMetrics(m))
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to initialize Shopify client")
	}

	credentialService := application.NewCredentialService(st.credentials, encryptionService, logger)
	productService := application.NewProductService(st.products, images, cfg.Storage.MaxImageBytes, logger)
	pushService := application.NewPushService(
		productService,
		credentialService,
		st.pushes,
		markers,
		shopifyClient,
		m,
		cfg.Shopify,
		logger,
	)
	orderService := application.NewOrderService(
		credentialService,
		markers,
		shopifyClient,
		m,
		cfg.Shopify.OrderLimit,
		cfg.Server.AppURL+"/auth/shopify",
		logger,
	)
	authService := application.NewAuthService(
		jwtService,
		jwtService,
		shopifyClient,
		credentialService,
		cfg.Server.AppURL+"/auth/callback",
		cfg.Server.FrontendURL,
		logger,
	)

	// Webhook events fan out to SSE subscribers once every handler succeeded
	events := pubsub.NewEventBus(logger)
	webhookDispatcher := application.NewWebhookDispatcher(logger, events)
	webhookDispatcher.RegisterHandler(webhook_handlers.NewAppUninstalledHandler(logger, credentialService))
	webhookDispatcher.RegisterHandler(webhook_handlers.NewProductHandler(logger, pushService))
	webhookDispatcher.RegisterHandler(webhook_handlers.NewOrderHandler(logger))
	webhookDispatcher.RegisterHandler(webhook_handlers.NewComplianceHandler(logger, credentialService))

	handler := apiinfra.NewHandler(apiinfra.Services{
		Auth:        authService,
		Credentials: credentialService,
		Products:    productService,
		Pushes:      pushService,
		Orders:      orderService,
		Webhooks:    webhookDispatcher,
		Verifier:    shopifyClient,
		Events:      events,
	}, cfg.Storage.MaxImageBytes, logger)

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(securitymiddleware.SecurityHeadersMiddleware())
	r.Use(securitymiddleware.InputValidationMiddleware(logger))
	r.Use(securitymiddleware.AuditLoggingMiddleware(logger))
	r.Use(securitymiddleware.MetricsMiddleware(m))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.Server.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", m.Handler())

	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))
	r.Get("/swagger/doc.json", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		http.ServeFile(w, r, "./docs/swagger.json")
	})

	handler.Routes(r)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		logger.Info().Str("port", cfg.Server.Port).Str("store", cfg.Store.Driver).Msg("Starting API server")
		logger.Info().Msg("Swagger documentation available at http://localhost:" + cfg.Server.Port + "/swagger/index.html")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	<-ctx.Done()
	logger.Info().Msg("Shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("Graceful shutdown failed")
	}
}

func openStores(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*stores, error) {
	switch cfg.Store.Driver {
	case config.DriverMongo:
		connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()
		client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(cfg.Mongo.URI))
		if err != nil {
			return nil, err
		}
		if err := client.Ping(connectCtx, nil); err != nil {
			client.Disconnect(context.Background())
			return nil, err
		}
		db := client.Database(cfg.Mongo.Database)
		if err := repository.EnsureMongoIndexes(connectCtx, db); err != nil {
			client.Disconnect(context.Background())
			return nil, err
		}
		logger.Info().Str("database", cfg.Mongo.Database).Msg("Connected to MongoDB")
		return &stores{
			credentials: repository.NewMongoCredentialRepository(db),
			products:    repository.NewMongoProductRepository(db),
			pushes:      repository.NewMongoPushRecordRepository(db),
			close:       func() { client.Disconnect(context.Background()) },
		}, nil

	case config.DriverPostgres:
		db, err := database.NewConnection(&cfg.Database)
		if err != nil {
			return nil, err
		}
		if cfg.Database.RunMigrations {
			if err := database.Migrate(ctx, db, migrations.FS, logger); err != nil {
				db.Close()
				return nil, err
			}
		}
		logger.Info().Msg("Connected to Postgres")
		return postgresStores(db), nil

	default:
		logger.Warn().Msg("Using in-memory store, data is lost on restart")
		return &stores{
			credentials: repository.NewMemoryCredentialRepository(),
			products:    repository.NewMemoryProductRepository(),
			pushes:      repository.NewMemoryPushRecordRepository(),
			close:       func() {},
		}, nil
	}
}

func postgresStores(db *sql.DB) *stores {
	return &stores{
		credentials: repository.NewPostgresCredentialRepository(db),
		products:    repository.NewPostgresProductRepository(db),
		pushes:      repository.NewPostgresPushRecordRepository(db),
		close:       func() { db.Close() },
	}
}
