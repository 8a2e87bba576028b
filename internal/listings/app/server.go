package app

import (
	"io"
	"log"

	"github.com/redis/go-redis/v9"

	"golistingsync_api/config"
	"golistingsync_api/internal/listings/app/web"
	"golistingsync_api/internal/listings/app/web/handlers"
	"golistingsync_api/internal/listings/business/services"
	"golistingsync_api/internal/listings/business/services/ratelimit"
	"golistingsync_api/internal/listings/business/services/reconcile"
	syncservice "golistingsync_api/internal/listings/business/services/sync"
	"golistingsync_api/internal/listings/pkg/clients"
	"golistingsync_api/internal/listings/storage"
	"golistingsync_api/internal/listings/storage/staging"
	infra "golistingsync_api/migrations/infrastructure"
	listingsmigrations "golistingsync_api/migrations/listings"
	"golistingsync_api/pkg/dbconnect"
	"golistingsync_api/pkg/dbconnect/migration"
	"golistingsync_api/pkg/logger"
)

type ListingSyncServer struct {
	dbconnect.Database
	config *config.AppConfig
	addr   string
	log    logger.Logger
	writer io.Writer
}

func NewListingSyncServer(connector dbconnect.Database, appConfig *config.AppConfig, addr string, writer io.Writer) *ListingSyncServer {
	_log := logger.NewLogger(writer, "[ListingSyncServer]")
	return &ListingSyncServer{
		Database: connector,
		config:   appConfig,
		addr:     addr,
		log:      _log,
		writer:   writer,
	}
}

func (s *ListingSyncServer) Run() {
	db, err := s.Connect()
	if err != nil {
		log.Fatalf("Error connecting to PostgreSQL: %s", err)
	}
	defer db.Close()

	migrationApply := []migration.MigrationInterface{
		&infra.MigrationsSchema{},
		&listingsmigrations.CreateListingsSchema{},
		&listingsmigrations.CreateCachedListingsTable{},
		&listingsmigrations.CreateSyncAttemptsTable{},
		&listingsmigrations.CreateLocalDraftsTable{},
	}
	for _, _migration := range migrationApply {
		if err := _migration.UpMigration(db); err != nil {
			log.Fatalf("Migration failed: %v", err)
		}
	}
	s.log.Log("Listings migrations applied successfully!")

	authEngine := services.NewBearerAuth(s.config.Marketplace.ApiKey)
	if authEngine == nil {
		log.Fatalf("Marketplace api key is not configured")
	}

	cacheRepo := storage.NewCacheRepository(db)
	auditRepo := storage.NewAuditRepository(db)
	draftRepo := storage.NewDraftRepository(db)

	remoteClient := clients.NewRemoteListingsClient(s.config.Marketplace.Host, authEngine, s.writer)
	limiter := ratelimit.NewLimiter(auditRepo)
	reconciler := reconcile.NewReconciler(reconcile.NewStatusMapper(s.config.Sync.StatusMapping))

	orchestrator := syncservice.NewOrchestrator(
		limiter,
		reconciler,
		remoteClient,
		cacheRepo,
		auditRepo,
		draftRepo,
		s.config.Sync,
		s.writer,
	)

	stagingStore := s.buildStagingStore()

	syncHandler := handlers.NewSyncHandler(orchestrator, auditRepo, s.writer)
	listingsHandler := handlers.NewListingsHandler(cacheRepo, s.writer)
	stagingHandler := handlers.NewStagingHandler(stagingStore, cacheRepo, s.config.Sync.StagingTTL.Std(), s.writer)

	web.SetupRoutes(s.addr, s.config.Auth.JwtSecret, syncHandler, listingsHandler, stagingHandler)
}

func (s *ListingSyncServer) buildStagingStore() staging.Store {
	if s.config.Redis.Addr == "" {
		s.log.Log("No redis configured, staging store is in-memory")
		return staging.NewMemoryStore()
	}
	client := redis.NewClient(&redis.Options{
		Addr:     s.config.Redis.Addr,
		Password: s.config.Redis.Password,
		DB:       s.config.Redis.DB,
	})
	return staging.NewRedisStore(client)
}
