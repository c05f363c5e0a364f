package config

import (
	"errors"
	"strings"
	"time"

	"lattice-cms-init/internal/bootstrap/domain/model"
	apperrors "lattice-cms-init/internal/shared/errors"
	"lattice-cms-init/internal/shared/validation"

	"github.com/caarlos0/env/v6"
)

// Config holds all configuration for the bootstrap run.
type Config struct {
	// MongoDB Configuration
	MongoDBURI     string        `env:"MONGODB_URI" envDefault:"mongodb://localhost:27017" validate:"required,mongo_uri"`
	DatabaseName   string        `env:"DATABASE_NAME" envDefault:"lattice-cms" validate:"required,mongo_dbname"`
	ConnectTimeout time.Duration `env:"CONNECT_TIMEOUT" envDefault:"10s" validate:"gt=0"`
	RunTimeout     time.Duration `env:"BOOTSTRAP_TIMEOUT" envDefault:"30s" validate:"gt=0"`

	// Admin seed, off unless SEED_ADMIN=true
	SeedAdmin     bool   `env:"SEED_ADMIN" envDefault:"false"`
	AdminEmail    string `env:"ADMIN_EMAIL" envDefault:"admin@lattice-cms.com" validate:"required_if=SeedAdmin true,omitempty,email"`
	AdminPassword string `env:"ADMIN_PASSWORD" validate:"required_if=SeedAdmin true"`
	AdminRole     string `env:"ADMIN_ROLE" envDefault:"admin" validate:"omitempty,max=64"`
}

// LoadConfig loads configuration from environment variables and applies defaults.
func LoadConfig() (*Config, error) {
	cfg := &Config{}

	if err := env.Parse(cfg); err != nil {
		return nil, apperrors.NewConfigurationError("failed to load configuration from environment").WithCause(err)
	}

	cfg.DatabaseName = strings.TrimSpace(cfg.DatabaseName)
	cfg.AdminEmail = strings.TrimSpace(cfg.AdminEmail)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate reports every invalid setting at once
func (c *Config) Validate() error {
	err := validation.ValidateStruct(c)
	if err == nil {
		return nil
	}

	var ve *apperrors.ValidationErrors
	if errors.As(err, &ve) {
		return ve.ToAppError(apperrors.ErrorTypeConfiguration).WithComponent("config")
	}
	return apperrors.NewConfigurationError("failed to validate configuration").WithCause(err).WithComponent("config")
}

// AdminRoleOrDefault returns the configured admin role, falling back to the default role
func (c *Config) AdminRoleOrDefault() string {
	if strings.TrimSpace(c.AdminRole) == "" {
		return model.DefaultAdminRole
	}
	return c.AdminRole
}
