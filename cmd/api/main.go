package main

import (
	"context"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"filevault/internal/auth"
	"filevault/internal/config"
	"filevault/internal/file"
	"filevault/internal/logger"
	"filevault/internal/presigned"
	"filevault/internal/server"
	"filevault/internal/share"
	"filevault/internal/storage"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	_ = godotenv.Load()

	log, err := logger.Init()
	if err != nil {
		panic("init logger: " + err.Error())
	}
	defer log.Sync()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("load config", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	dbPool, err := storage.NewPostgresPool(ctx, cfg.Postgres)
	if err != nil {
		log.Fatal("connect postgres", zap.Error(err))
	}
	defer dbPool.Close()

	minioClient, err := storage.NewMinIOClient(cfg.MinIO)
	if err != nil {
		log.Fatal("connect minio", zap.Error(err))
	}

	if err := storage.EnsureBucket(ctx, minioClient, cfg.MinIO.Bucket, cfg.MinIO.Region); err != nil {
		log.Fatal("ensure bucket", zap.Error(err))
	}

	authRepo := auth.NewRepository(dbPool)
	authService := auth.NewService(authRepo, cfg.Auth)

	fileRepo := file.NewRepository(dbPool)
	shareRepo := share.NewRepository(dbPool)

	evaluator := share.NewEvaluator(shareRepo)
	quota := file.NewQuotaLedger(fileRepo, cfg.Limits.MaxStorageSize)

	objectStore := file.NewMinIOStore(minioClient)
	fileService := file.NewService(fileRepo, objectStore, cfg.MinIO.Bucket, quota, evaluator, shareRepo, cfg.Limits, log)
	shareService := share.NewService(shareRepo, authRepo, log)
	linkService := presigned.NewService(minioClient, fileRepo, evaluator, cfg.MinIO.Bucket, cfg.MinIO.LinkTTL)

	router := server.NewRouter(server.Dependencies{
		Config:       cfg,
		Logger:       log,
		DB:           dbPool,
		ObjectStore:  minioClient,
		AuthService:  authService,
		FileService:  fileService,
		ShareService: shareService,
		LinkService:  linkService,
	})

	httpServer := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		log.Info("FileVault API listening", zap.String("address", cfg.Server.Address()))
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("http server", zap.Error(err))
		}
	}()

	<-ctx.Done()
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	log.Info("shutting down gracefully")
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown error", zap.Error(err))
	}
}
