package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"tush00nka/filehub/internal/config"
	"tush00nka/filehub/internal/graph"
	"tush00nka/filehub/internal/handler"
	"tush00nka/filehub/internal/pkg/auth"
	"tush00nka/filehub/internal/pkg/logger"
	"tush00nka/filehub/internal/pkg/storage"
	"tush00nka/filehub/internal/pubsub"
	"tush00nka/filehub/internal/repository"
	"tush00nka/filehub/internal/service"
	"tush00nka/filehub/internal/ws"
)

func Run(cfg *config.Config) error {
	log := logger.New(cfg.Environment)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := repository.NewDB(cfg.DatabaseURL, !cfg.IsProduction())
	if err != nil {
		return err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get sql.DB: %w", err)
	}
	defer sqlDB.Close()

	if err := repository.Migrate(ctx, db); err != nil {
		return err
	}

	provider, err := storage.NewS3Provider(ctx, storage.S3Options{
		Endpoint:   cfg.S3URL(),
		Region:     cfg.S3Region,
		AccessKey:  cfg.S3AccessKey,
		SecretKey:  cfg.S3SecretKey,
		Bucket:     cfg.S3Bucket,
		PresignTTL: cfg.S3PresignTTL,
	}, log)
	if err != nil {
		return err
	}
	// Недоступное хранилище не мешает старту
	if err := provider.EnsureBucket(ctx); err != nil {
		log.Error("failed to ensure bucket", "bucket", cfg.S3Bucket, "err", err)
	}

	broker, err := newBroker(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer broker.Close()

	userRepo := repository.NewUserRepository(db)
	fileRepo := repository.NewFileRepository(db)

	tokens := auth.NewTokenManager(cfg.JWTSecret, cfg.JWTExpiresIn)
	userService := service.NewUserService(userRepo)
	authService := service.NewAuthService(userService, tokens, log)
	fileService := service.NewFileService(fileRepo, provider, broker, log)

	executor, err := graph.NewExecutor(authService, userService, fileService, log)
	if err != nil {
		return fmt.Errorf("build graphql schema: %w", err)
	}

	hub := ws.NewHub(ws.HubOptions{
		MaxConnectionsPerUser: cfg.WSMaxConnectionsPerUser,
	})
	wsServer := ws.NewServer(hub, executor, authService, ws.NewUpgrader(cfg.CORSAllowedOrigins), log)

	graphqlHandler := handler.NewGraphQLHandler(executor, wsServer, handler.UploadLimits{
		MaxFileSize: cfg.MaxFileSize,
		MaxFiles:    cfg.MaxFiles,
	}, log)
	healthHandler := handler.NewHealthHandler(sqlDB, provider, hub, log)

	server := NewServer(log, cfg.CORSAllowedOrigins, graphqlHandler, healthHandler)
	return server.Run(ctx, cfg.Addr(), hub.Shutdown)
}

// newBroker выбирает Redis, если задан REDIS_ADDR, иначе события живут в памяти
func newBroker(ctx context.Context, cfg *config.Config, log *slog.Logger) (pubsub.Broker, error) {
	if cfg.RedisAddr == "" {
		log.Info("using in-memory event broker")
		return pubsub.NewMemoryBroker(log), nil
	}

	client, err := storage.NewRedisClient(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		return nil, err
	}
	log.Info("using redis event broker", "addr", cfg.RedisAddr)
	return pubsub.NewRedisBroker(client, log), nil
}
