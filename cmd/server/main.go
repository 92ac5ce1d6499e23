package main

import (
	"context"
	"errors"
	"io"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/rs/cors"

	"tenantchat/internal/auth"
	"tenantchat/internal/capabilities"
	"tenantchat/internal/company"
	"tenantchat/internal/config"
	"tenantchat/internal/handler"
	"tenantchat/internal/middleware"
	"tenantchat/internal/repository/postgres"
	"tenantchat/internal/service/chat"
	serviceLLM "tenantchat/internal/service/llm"
	"tenantchat/internal/service/llm/adapters"
	"tenantchat/internal/session"
)

func main() {
	// Load .env file (silently ignore if it doesn't exist - for production)
	_ = godotenv.Load()

	// Load configuration
	cfg := config.Load()

	// Setup structured logging
	logger, closeLog, err := config.NewLogger(cfg)
	if err != nil {
		log.Fatalf("Failed to setup logging: %v", err)
	}
	defer closeLog()
	slog.SetDefault(logger)

	logger.Info("server starting",
		"environment", cfg.Environment,
		"port", cfg.Port,
		"table_prefix", cfg.TablePrefix,
	)

	if cfg.JWTSecretKey == "" {
		log.Fatal("JWT_SECRET_KEY must be set")
	}

	ctx := context.Background()

	// Create pgx connection pool
	pool, err := postgres.CreateConnectionPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to create connection pool: %v", err)
	}
	defer pool.Close()

	repoConfig := &postgres.RepositoryConfig{
		Pool:   pool,
		Tables: postgres.NewTableNames(cfg.TablePrefix),
		Logger: logger,
	}
	if err := postgres.EnsureSchema(ctx, repoConfig); err != nil {
		log.Fatalf("Failed to ensure schema: %v", err)
	}
	logger.Info("database connected")

	companyRepo := postgres.NewCompanyRepository(repoConfig)
	userRepo := postgres.NewUserRepository(repoConfig)
	apiKeyRepo := postgres.NewAPIKeyRepository(repoConfig)
	accessLogRepo := postgres.NewAccessLogRepository(repoConfig)
	txManager := postgres.NewTransactionManager(repoConfig)

	// Session stores: Redis when configured, process memory otherwise
	healthDeps := map[string]handler.Pinger{"postgres": pool}
	var redisClient *redis.Client
	storeType := session.StoreTypeMemory
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			log.Fatalf("Invalid REDIS_URL: %v", err)
		}
		redisClient = redis.NewClient(opts)
		defer redisClient.Close()
		if err := redisClient.Ping(ctx).Err(); err != nil {
			log.Fatalf("Failed to connect to redis: %v", err)
		}
		storeType = session.StoreTypeRedis
		healthDeps["redis"] = handler.PingFunc(func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		})
	} else {
		logger.Warn("REDIS_URL not set - sessions and context kept in process memory")
	}

	contextStore, err := session.NewContextStore(storeType,
		session.WithRedisClient(redisClient),
		session.WithRedisTTL(config.ContextRecordTTL),
		session.WithKeyPrefix(cfg.TablePrefix),
	)
	if err != nil {
		log.Fatalf("Failed to create context store: %v", err)
	}
	webStore, err := session.NewWebStore(storeType,
		session.WithRedisClient(redisClient),
		session.WithRedisTTL(config.WebSessionTTL),
		session.WithKeyPrefix(cfg.TablePrefix),
	)
	if err != nil {
		log.Fatalf("Failed to create web session store: %v", err)
	}
	sessions := session.NewManager(webStore, config.WebSessionTTL, cfg.SecureCookies)

	// Auth
	tokens, err := auth.NewTokenService(cfg.JWTSecretKey)
	if err != nil {
		log.Fatalf("Failed to create token service: %v", err)
	}

	var federated auth.FederatedVerifier
	if cfg.JWKSURL != "" {
		verifier, err := auth.NewJWKSVerifier(ctx, cfg.JWKSURL, logger)
		if err != nil {
			log.Fatalf("Failed to create JWT verifier: %v", err)
		}
		defer verifier.Close()
		federated = verifier
	}

	resolver := auth.NewResolver(auth.ResolverConfig{
		Sessions:  sessions,
		Tokens:    tokens,
		Companies: companyRepo,
		Users:     userRepo,
		APIKeys:   apiKeyRepo,
		Tx:        txManager,
		Federated: federated,
		Audit:     auth.NewAccessLogger(accessLogRepo, logger),
		Logger:    logger,
	})

	// Tenants
	configs, err := company.LoadConfigs(cfg.CompaniesDir)
	if err != nil {
		log.Fatalf("Failed to load company configurations: %v", err)
	}
	directory := company.NewDirectory(companyRepo, configs, logger)
	if err := directory.Sync(ctx); err != nil {
		log.Fatalf("Failed to sync companies: %v", err)
	}

	buildOpts := company.BuildOptions{Logger: logger}
	if cfg.QdrantHost != "" {
		qdrantClient, err := company.NewQdrantClient(cfg.QdrantHost, cfg.QdrantPort, cfg.QdrantAPIKey, cfg.QdrantUseTLS)
		if err != nil {
			log.Fatalf("Failed to create qdrant client: %v", err)
		}
		defer qdrantClient.Close()
		buildOpts.Points = qdrantClient
	}
	if cfg.OpenAIAPIKey != "" {
		buildOpts.Embedder = adapters.NewOpenAIEmbedder(adapters.NewOpenAIClient(cfg.OpenAIAPIKey, ""), cfg.EmbeddingModel)
	}
	dispatcher, closers := company.Build(ctx, configs, buildOpts)
	defer closeAll(closers, logger)
	logger.Info("companies loaded", "companies", dispatcher.ShortNames())

	// LLM providers
	capabilityRegistry, err := capabilities.NewRegistry()
	if err != nil {
		log.Fatalf("Failed to initialize capability registry: %v", err)
	}
	providerRegistry, err := serviceLLM.SetupProviders(cfg, capabilityRegistry, redisClient, logger)
	if err != nil {
		log.Fatalf("Failed to setup LLM providers: %v", err)
	}

	preparer := chat.NewContextPreparer(directory, dispatcher, contextStore, providerRegistry, cfg.DefaultModel, logger)
	executor := chat.NewQueryExecutor(directory, dispatcher, contextStore, providerRegistry, cfg.DefaultModel, logger)

	// Handlers
	renderer, err := handler.NewRenderer(logger)
	if err != nil {
		log.Fatalf("Failed to parse templates: %v", err)
	}
	router := handler.NewLoginRouter(renderer, cfg.BaseURL, logger)

	mux := http.NewServeMux()
	handler.Register(mux, handler.Handlers{
		Auth:   handler.NewAuthHandler(directory, resolver, tokens, preparer, contextStore, router, renderer, logger),
		Chat:   handler.NewChatHandler(directory, resolver, preparer, executor, router, renderer, logger),
		Models: handler.NewModelsHandler(providerRegistry, capabilityRegistry, logger),
		Health: handler.NewHealthHandler(healthDeps, logger),
	}, middleware.RequireIdentity(resolver))

	logger.Info("services initialized")

	// Build middleware chain
	// Order: CORS → Recovery → Routes
	var h http.Handler = mux
	h = middleware.Recovery(logger)(h)

	// CORS - Must be outermost to handle OPTIONS pre-flight requests
	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   strings.Split(cfg.CORSOrigins, ","),
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Api-Key"},
		AllowCredentials: true,
	})
	h = corsHandler.Handler(h)

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      h,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 120 * time.Second, // Tool rounds can take a while
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "port", cfg.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	logger.Info("server shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", "error", err)
	}
}

func closeAll(closers []io.Closer, logger *slog.Logger) {
	for _, c := range closers {
		if err := c.Close(); err != nil {
			logger.Warn("close failed", "error", err)
		}
	}
}
