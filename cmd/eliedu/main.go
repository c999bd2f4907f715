package main

import (
	"context"
	"encoding/hex"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hamzaz9912/eliedu/internal/api"
	"github.com/hamzaz9912/eliedu/internal/auth"
	"github.com/hamzaz9912/eliedu/internal/config"
	"github.com/hamzaz9912/eliedu/internal/courses"
	"github.com/hamzaz9912/eliedu/internal/crypto"
	"github.com/hamzaz9912/eliedu/internal/notify"
	"github.com/hamzaz9912/eliedu/internal/storage"
	"go.uber.org/zap"
)

const version = "0.1.0"

func main() {
	// Parse command line flags
	flags, configFile, showVersion := config.ParseFlags()

	if showVersion {
		fmt.Printf("European Language Institute API (eliedu) v%s\n", version)
		os.Exit(0)
	}

	if err := config.LoadDotEnv(flags.EnvFile()); err != nil {
		log.Fatalf("Failed to load env file: %v", err)
	}

	cfg, err := config.Load(configFile, flags)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger, err := initLogger(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	logger.Info("Starting European Language Institute API",
		zap.String("version", version),
		zap.String("database", cfg.Database.Type),
	)

	catalog := courses.Default()

	store, err := storage.New(cfg, catalog, logger)
	if err != nil {
		logger.Fatal("Failed to initialize storage", zap.Error(err))
	}

	connectTimeout := cfg.Database.Mongo.ConnectTimeout
	if connectTimeout <= 0 {
		connectTimeout = 2 * time.Minute
	}
	connectCtx, cancelConnect := context.WithTimeout(context.Background(), connectTimeout)
	if err := store.Connect(connectCtx); err != nil {
		// Reads fall back to empty results and the next request retries.
		logger.Error("Failed to connect to storage", zap.String("storage", store.Kind()), zap.Error(err))
	}
	cancelConnect()

	if cfg.JWT.Secret == "" {
		secret, err := crypto.GenerateKey()
		if err != nil {
			logger.Fatal("Failed to generate token secret", zap.Error(err))
		}
		cfg.JWT.Secret = hex.EncodeToString(secret)
		logger.Warn("No JWT secret configured, using a random one; sessions end on restart")
	}

	documentKey := cfg.DocumentKeyBytes()
	if documentKey == nil {
		documentKey, err = crypto.GenerateKey()
		if err != nil {
			logger.Fatal("Failed to generate document key", zap.Error(err))
		}
		logger.Warn("No document key configured, using a random one; sealed ID documents will not open after restart")
	}
	sealer, err := crypto.NewDocumentSealer(documentKey)
	if err != nil {
		logger.Fatal("Failed to initialize document sealer", zap.Error(err))
	}

	tokens := auth.NewTokenManager(cfg.JWT.Secret, cfg.JWT.Issuer, cfg.JWT.Expiration, cfg.JWT.StudentExpiration)

	router := api.NewRouter(cfg, api.Dependencies{
		Store:    store,
		Catalog:  catalog,
		Tokens:   tokens,
		Sealer:   sealer,
		Notifier: notify.New(cfg.Notify, cfg.Site, logger),
	}, logger)

	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		logger.Info("Starting HTTP server",
			zap.String("address", srv.Addr),
			zap.Bool("tls", cfg.Server.TLSEnabled),
		)

		var err error
		if cfg.Server.TLSEnabled {
			err = srv.ListenAndServeTLS(cfg.Server.TLSCert, cfg.Server.TLSKey)
		} else {
			err = srv.ListenAndServe()
		}

		if err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server failed to start", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	if err := store.Disconnect(ctx); err != nil {
		logger.Error("Failed to disconnect storage", zap.Error(err))
	}

	logger.Info("Server stopped")
}

func initLogger(cfg *config.Config) (*zap.Logger, error) {
	var zapConfig zap.Config

	if cfg.Logging.Format == "json" {
		zapConfig = zap.NewProductionConfig()
	} else {
		zapConfig = zap.NewDevelopmentConfig()
	}

	switch cfg.Logging.Level {
	case "debug":
		zapConfig.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	case "warn":
		zapConfig.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	case "error":
		zapConfig.Level = zap.NewAtomicLevelAt(zap.ErrorLevel)
	default:
		zapConfig.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	}

	if cfg.Logging.Output != "" {
		zapConfig.OutputPaths = []string{cfg.Logging.Output}
	}

	return zapConfig.Build()
}
