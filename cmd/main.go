package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"lattice-cms-init/internal/bootstrap"
	"lattice-cms-init/internal/bootstrap/config"
	apperrors "lattice-cms-init/internal/shared/errors"
	"lattice-cms-init/internal/shared/logger"

	"github.com/joho/godotenv"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Process exit codes
const (
	exitOK       = 0
	exitFailure  = 1
	exitConfig   = 2
	exitConflict = 3
)

const disconnectTimeout = 5 * time.Second

func main() {
	os.Exit(run())
}

// disconnect closes client, giving up after disconnectTimeout
func disconnect(client *mongo.Client, log logger.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), disconnectTimeout)
	defer cancel()

	if err := client.Disconnect(ctx); err != nil {
		log.Errorf("Failed to disconnect MongoDB: %v", err)
	}
}

// exitCode maps a bootstrap error to the process exit status
func exitCode(err error) int {
	switch {
	case err == nil:
		return exitOK
	case apperrors.IsConfiguration(err), apperrors.IsValidation(err):
		return exitConfig
	case apperrors.IsConflict(err):
		return exitConflict
	default:
		return exitFailure
	}
}

func run() int {
	appLogger := logger.NewLogger().WithComponent("main")

	// Load environment variables from .env file
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		appLogger.Warnf("Could not load .env file: %v", err)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		appLogger.Errorf("Failed to load bootstrap configuration: %v", err)
		return exitCode(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	connectCtx, cancel := context.WithTimeout(ctx, cfg.ConnectTimeout)
	defer cancel()

	mongoClient, err := mongo.Connect(connectCtx, options.Client().
		ApplyURI(cfg.MongoDBURI).
		SetServerSelectionTimeout(cfg.ConnectTimeout))
	if err != nil {
		appLogger.Errorf("Failed to connect to MongoDB: %v", err)
		return exitFailure
	}
	defer disconnect(mongoClient, appLogger)

	if err := mongoClient.Ping(connectCtx, nil); err != nil {
		appLogger.Errorf("Failed to ping MongoDB: %v", err)
		return exitFailure
	}
	appLogger.WithFields(map[string]interface{}{"database": cfg.DatabaseName}).Info("MongoDB connection established successfully")

	module, err := bootstrap.NewBootstrapModule(mongoClient.Database(cfg.DatabaseName), cfg, appLogger, os.Stdout)
	if err != nil {
		appLogger.Errorf("Failed to initialize bootstrap module: %v", err)
		return exitCode(err)
	}

	report, err := module.Run(ctx)
	if err != nil {
		switch {
		case apperrors.IsConflict(err):
			appLogger.Errorf("Database bootstrap stopped, existing indexes do not match the schema: %v", err)
		case apperrors.IsInfrastructure(err):
			appLogger.Errorf("Database bootstrap failed, check MongoDB connectivity and permissions: %v", err)
		default:
			appLogger.Errorf("Database bootstrap failed: %v", err)
		}
		return exitCode(err)
	}

	if !report.Changed() {
		appLogger.Infof("Database %s was already initialized, nothing to do", report.Database)
	}
	return exitOK
}
