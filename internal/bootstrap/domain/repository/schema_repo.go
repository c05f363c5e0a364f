package repository

import (
	"context"
	"errors"

	"lattice-cms-init/internal/bootstrap/domain/model"
)

// ErrAdminExists is returned by InsertAdmin when an account with the same email is
// present. Implementations also wrap errors.ErrDuplicateKey so it reads as a conflict.
var ErrAdminExists = errors.New("admin account already exists")

// SchemaRepository defines the database operations the bootstrap needs
type SchemaRepository interface {
	// DatabaseName returns the name of the bound database
	DatabaseName() string

	// Collection operations
	CollectionNames(ctx context.Context) ([]string, error)
	CreateCollection(ctx context.Context, name string) error

	// Index operations
	Indexes(ctx context.Context, collection string) ([]model.ExistingIndex, error)
	CreateIndexes(ctx context.Context, collection string, indexes []model.IndexSpec) ([]string, error)

	// InsertAdmin stores the seed admin account in the users collection
	InsertAdmin(ctx context.Context, admin *model.AdminAccount) error
}
