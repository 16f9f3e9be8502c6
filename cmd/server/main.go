package main

import (
	"VaultKeeper/internal/blobstore"
	"VaultKeeper/internal/config"
	"VaultKeeper/internal/handlers"
	"VaultKeeper/internal/metrics"
	"VaultKeeper/internal/middleware"
	"VaultKeeper/internal/ratelimit"
	"VaultKeeper/internal/repo"
	"VaultKeeper/internal/service"
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
)

func main() {
	cfg := config.NewConfig()

	// создаём предустановленный регистратор zap
	logger, err := zap.NewDevelopment()
	if err != nil {
		panic(err)
	}

	// делаем регистратор SugaredLogger
	sugar := logger.Sugar()
	middleware.SetLogger(sugar) // передаём логгер в middleware
	//сброс буфера логгера
	defer func() {
		if err := logger.Sync(); err != nil {
			sugar.Errorw("Failed to sync logger", "error", err)
		}
	}()

	if err := cfg.Validate(); err != nil {
		sugar.Fatalw("invalid configuration", "error", err)
	}
	master, err := cfg.MasterKeyBytes()
	if err != nil {
		sugar.Fatalw("invalid master key", "error", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	gormDB, err := repo.InitDB(ctx, cfg.DatabaseDSN)
	if err != nil {
		sugar.Fatalw("failed to initialize database", "error", err)
	}
	repos := repo.NewManager(gormDB)

	var blobs blobstore.Store
	switch cfg.BlobStore {
	case config.BlobStoreS3:
		blobs, err = blobstore.NewS3Store(ctx, blobstore.S3Config{
			Bucket:    cfg.S3Bucket,
			Region:    cfg.S3Region,
			Endpoint:  cfg.S3Endpoint,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
		})
		if err != nil {
			sugar.Fatalw("failed to initialize s3 blob store", "error", err)
		}
	default:
		blobs = blobstore.NewDBStore(repos.Blobs())
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	rec := metrics.New(reg)

	// бюджеты неудачных попыток восстанавливаются по одной в минуту
	loginLimiter := ratelimit.New(cfg.LoginMaxAttempts, time.Minute, time.Hour)
	shareLimiter := ratelimit.New(cfg.ShareMaxFailures, time.Minute, time.Hour)

	keys := service.NewKeyService(master, repos, sugar)
	otp := service.NewOTPService(repos.Users(), master)
	vaults := service.NewVaultService(repos, keys, blobs, service.OwnerPolicy{}, cfg.BlobMaxBytes(), sugar)
	shares := service.NewShareService(repos, vaults, shareLimiter, rec, service.ShareDefaults{
		Delay:      cfg.ShareDefaultDelay,
		Iterations: cfg.ShareDefaultIterations,
	}, sugar)

	h := handlers.NewHandler(handlers.Services{
		Users:   service.NewUserService(repos, keys, otp, loginLimiter, rec, sugar),
		OTP:     otp,
		Keys:    keys,
		APIKeys: service.NewAPIKeyService(repos.APIKeys()),
		Vaults:  vaults,
		Shares:  shares,
		Inbox:   service.NewInboxService(repos, shares, keys, sugar),
	}, rec, reg, sugar, cfg)

	sugar.Infow(
		"Starting server",
		"addr", cfg.BaseURL,
		"url", cfg.ServerURL,
	)

	sugar.Infow("Config",
		"BaseURL", cfg.BaseURL,
		"EnableHTTPS", cfg.EnableHTTPS,
		"DatabaseDSN", cfg.DatabaseDSN,
		"BlobStore", cfg.BlobStore,
		"BlobMaxSizeMB", cfg.BlobMaxSizeMB,
		"ShareDefaultDelay", cfg.ShareDefaultDelay,
		"ShareDefaultIterations", cfg.ShareDefaultIterations,
	)

	srv := &http.Server{Addr: cfg.BaseURL, Handler: h.Router, ReadHeaderTimeout: 10 * time.Second}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			sugar.Errorw("Server shutdown failed", "error", err)
		}
	}()

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		sugar.Fatalw("Server failed", "error", err)
	}
	sugar.Infow("Server stopped")
}
