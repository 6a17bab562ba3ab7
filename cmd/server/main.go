package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"iris-server/config"
	"iris-server/internal/controllers"
	"iris-server/internal/identity"
	"iris-server/internal/kafka"
	"iris-server/internal/redis"
	"iris-server/internal/relay"
	"iris-server/internal/repositories"
	"iris-server/internal/search"
	"iris-server/internal/services"
	"iris-server/internal/session"
	"iris-server/pkg/middleware"
	"iris-server/pkg/utils"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type indexer interface {
	EnsureIndexes(ctx context.Context) error
}

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	// Load configuration
	cfg := config.LoadConfig()
	metrics := config.GetMetrics()
	utils.UseJSONFieldNames()

	// Initialize MongoDB
	clientOptions := options.Client().
		ApplyURI(cfg.MongoURI).
		SetMaxPoolSize(100).
		SetSocketTimeout(10 * time.Second)
	if cfg.MongoUser != "" {
		clientOptions.SetAuth(options.Credential{
			Username: cfg.MongoUser,
			Password: cfg.MongoPassword,
		})
	}

	mongoClient, err := mongo.Connect(context.Background(), clientOptions)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to MongoDB")
	}
	defer func() {
		if err := mongoClient.Disconnect(context.Background()); err != nil {
			log.Error().Err(err).Msg("Error disconnecting MongoDB")
		}
	}()

	db := mongoClient.Database(cfg.DBName)

	// Initialize Redis
	redisClient, err := redis.NewClient(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			log.Error().Err(err).Msg("Error closing Redis connection")
		}
	}()

	// Initialize Repositories
	userRepo := repositories.NewUserRepository(db)
	caseRepo := repositories.NewCaseRepository(db)
	customerRepo := repositories.NewCustomerRepository(db)
	groupRepo := repositories.NewGroupRepository(db)
	tagRepo := repositories.NewTagRepository(db)
	evidenceRepo := repositories.NewEvidenceRepository(db)
	noteRepo := repositories.NewNoteRepository(db)
	taskRepo := repositories.NewGlobalTaskRepository(db)
	filterRepo := repositories.NewSavedFilterRepository(db)
	activityRepo := repositories.NewActivityRepository(db)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	for _, repo := range []indexer{userRepo, caseRepo, customerRepo, groupRepo, tagRepo, evidenceRepo, noteRepo, taskRepo, filterRepo, activityRepo} {
		if err := repo.EnsureIndexes(ctx); err != nil {
			cancel()
			log.Fatal().Err(err).Msg("Failed to create indexes")
		}
	}
	cancel()

	// Initialize Kafka activity pipeline
	activityProducer := kafka.NewActivityProducer(cfg.KafkaBrokers, cfg.KafkaActivityTopic, metrics)
	defer func() {
		if err := activityProducer.Close(); err != nil {
			log.Error().Err(err).Msg("Error closing Kafka producer")
		}
	}()

	consumerCtx, stopConsumer := context.WithCancel(context.Background())
	activityConsumer := kafka.NewActivityConsumer(cfg.KafkaBrokers, cfg.KafkaActivityTopic, "iris-activity-writers", activityRepo, metrics)
	go activityConsumer.Start(consumerCtx)

	// Optional full-text index. Left as nil interfaces when not configured
	// so the services fall back to Mongo.
	var (
		noteIndex    services.NoteIndex
		noteSearcher services.NoteSearcher
	)
	if cfg.MeiliURL != "" {
		idx := search.NewNoteIndex(cfg.MeiliURL, cfg.MeiliMasterKey, 30*time.Second)
		defer idx.Close()
		noteIndex, noteSearcher = idx, idx
	}

	// Identity
	sessionStore := session.NewRedisStore(redisClient.GetClient())
	tokens := identity.NewTokenManager(cfg.JWTSecret, cfg.AccessTokenTTL, cfg.RefreshTokenTTL, sessionStore)
	resolver := identity.NewChain(
		identity.NewTokenResolver(tokens, userRepo),
		identity.NewLegacyResolver(userRepo),
		identity.NewSessionResolver(sessionStore, userRepo, cfg.SessionCookieName),
	)

	// Initialize Services
	groupService := services.NewGroupService(groupRepo, userRepo, activityProducer)
	caseService := services.NewCaseService(caseRepo, customerRepo, userRepo, groupService, activityProducer)

	// Initialize relay hub
	hub := relay.NewHub(caseService, groupService, cfg.Version, metrics)

	authService := services.NewAuthService(userRepo, tokens, sessionStore, groupService, cfg.SessionTTL, activityProducer)
	customerService := services.NewCustomerService(customerRepo, caseRepo, activityProducer)
	userService := services.NewUserService(userRepo, activityProducer)
	tagService := services.NewTagService(tagRepo)
	evidenceService := services.NewEvidenceService(evidenceRepo, hub, activityProducer)
	noteService := services.NewNoteService(noteRepo, noteIndex, hub, activityProducer)
	taskService := services.NewGlobalTaskService(taskRepo, userRepo, activityProducer)
	filterService := services.NewSavedFilterService(filterRepo)
	searchService := services.NewSearchService(caseService, noteRepo, evidenceRepo, noteSearcher)
	activityService := services.NewActivityService(activityRepo)

	ctx, cancel = context.WithTimeout(context.Background(), 10*time.Second)
	created, password, err := authService.EnsureAdministrator(ctx, cfg.AdminUsername, cfg.AdminPassword, cfg.AdminAPIKey)
	cancel()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to bootstrap administrator")
	}
	if created {
		log.Warn().Str("username", cfg.AdminUsername).Str("password", password).Msg("Administrator account created, change this password")
	}

	deps := controllers.Deps{
		Resolver:   resolver,
		APIKeys:    userRepo,
		Perms:      groupService,
		CaseAccess: caseService,
		MFAEnabled: cfg.MFAEnabled,

		Auth:       controllers.NewAuthController(authService, cfg.SessionCookieName, cfg.SessionTTL),
		Cases:      controllers.NewCaseController(caseService),
		Customers:  controllers.NewCustomerController(customerService),
		Groups:     controllers.NewGroupController(groupService),
		Users:      controllers.NewUserController(userService),
		Tags:       controllers.NewTagController(tagService),
		Evidences:  controllers.NewEvidenceController(evidenceService),
		Notes:      controllers.NewNoteController(noteService),
		Tasks:      controllers.NewTaskController(taskService),
		Filters:    controllers.NewSavedFilterController(filterService),
		Search:     controllers.NewSearchController(searchService),
		Activities: controllers.NewActivityController(activityService),
		Updates:    controllers.NewUpdateController(hub),
		Health: controllers.NewHealthController(cfg.Version, map[string]controllers.Probe{
			"mongo": func(ctx context.Context) error { return mongoClient.Ping(ctx, nil) },
			"redis": sessionStore.Ping,
		}),
	}

	// Initialize Gin Router with metrics middleware
	router := gin.Default()
	router.Use(middleware.Metrics(metrics))
	controllers.RegisterRoutes(router, deps)

	// WebSocket router (without metrics middleware)
	webSocketRouter := gin.Default()
	upgrader := relay.Upgrader(cfg.CORSOrigin)
	webSocketRouter.GET("/ws", append(controllers.Authenticated(deps), relay.ServeWs(hub, upgrader, relay.NamespaceDefault))...)
	webSocketRouter.GET("/ws/server-updates", append(controllers.Authenticated(deps), relay.ServeWs(hub, upgrader, relay.NamespaceUpdates))...)

	// Start metrics server on separate port
	metricsMux := http.NewServeMux()
	metricsMux.Handle("/metrics", config.MetricsHandler())
	metricsServer := &http.Server{
		Addr:    ":" + cfg.PrometheusPort,
		Handler: metricsMux,
	}

	srv := &http.Server{
		Addr:    ":" + cfg.ServerPort,
		Handler: router,
	}

	wsServer := &http.Server{
		Addr:    ":" + cfg.WebSocketPort,
		Handler: webSocketRouter,
	}

	// Graceful shutdown handling
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	for name, s := range map[string]*http.Server{"HTTP": srv, "WebSocket": wsServer, "Metrics": metricsServer} {
		go func(name string, s *http.Server) {
			log.Info().Str("addr", s.Addr).Msgf("%s server starting", name)
			if err := s.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Fatal().Err(err).Msgf("%s server failed", name)
			}
		}(name, s)
	}

	<-quit
	log.Info().Msg("Shutting down server...")

	ctx, cancel = context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	hub.Shutdown()
	for name, s := range map[string]*http.Server{"HTTP": srv, "WebSocket": wsServer, "Metrics": metricsServer} {
		if err := s.Shutdown(ctx); err != nil {
			log.Error().Err(err).Msgf("%s server shutdown error", name)
		}
	}

	stopConsumer()
	if err := activityConsumer.Close(); err != nil {
		log.Error().Err(err).Msg("Error closing Kafka consumer")
	}

	log.Info().Msg("Server exited properly")
}
