package bootstrap

import (
	"context"
	"fmt"
	"io"

	"lattice-cms-init/internal/bootstrap/adapter/persistence/mongodb"
	"lattice-cms-init/internal/bootstrap/config"
	"lattice-cms-init/internal/bootstrap/domain/model"
	"lattice-cms-init/internal/bootstrap/domain/repository"
	"lattice-cms-init/internal/bootstrap/usecase"
	"lattice-cms-init/internal/shared/logger"

	"go.mongodb.org/mongo-driver/mongo"
)

// BootstrapModule wires the schema repository and the initializer together
type BootstrapModule struct {
	initializer *usecase.Initializer
	config      *config.Config
}

// NewBootstrapModule creates the module against db using cfg
func NewBootstrapModule(db *mongo.Database, cfg *config.Config, log logger.Logger, out io.Writer) (*BootstrapModule, error) {
	repo, err := mongodb.NewMongoSchemaRepository(db, log)
	if err != nil {
		return nil, fmt.Errorf("failed to create schema repository: %w", err)
	}

	return newModule(repo, cfg, log, out)
}

func newModule(repo repository.SchemaRepository, cfg *config.Config, log logger.Logger, out io.Writer) (*BootstrapModule, error) {
	if cfg == nil {
		return nil, fmt.Errorf("bootstrap config cannot be nil")
	}

	opts := usecase.Options{
		Schema: model.DefaultSchema(),
		Out:    out,
	}
	if cfg.SeedAdmin {
		opts.Admin = &usecase.AdminSeed{
			Email:    cfg.AdminEmail,
			Password: cfg.AdminPassword,
			Role:     cfg.AdminRoleOrDefault(),
		}
	}

	initializer, err := usecase.NewInitializer(repo, log, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to create initializer: %w", err)
	}

	return &BootstrapModule{
		initializer: initializer,
		config:      cfg,
	}, nil
}

// Run executes the bootstrap bounded by the configured run timeout
func (m *BootstrapModule) Run(ctx context.Context) (*usecase.Report, error) {
	ctx, cancel := context.WithTimeout(ctx, m.config.RunTimeout)
	defer cancel()

	return m.initializer.Run(ctx)
}
