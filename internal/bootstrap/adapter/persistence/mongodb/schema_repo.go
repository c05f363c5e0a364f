package mongodb

import (
	"context"
	"errors"
	"fmt"

	"lattice-cms-init/internal/bootstrap/domain/model"
	"lattice-cms-init/internal/bootstrap/domain/repository"
	apperrors "lattice-cms-init/internal/shared/errors"
	"lattice-cms-init/internal/shared/logger"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Server error codes the repository tolerates
const (
	codeNamespaceNotFound = 26
	codeNamespaceExists   = 48
)

// MongoSchemaRepository implements the SchemaRepository interface using MongoDB
type MongoSchemaRepository struct {
	db     *mongo.Database
	logger logger.Logger
}

var _ repository.SchemaRepository = (*MongoSchemaRepository)(nil)

// NewMongoSchemaRepository creates a repository bound to db
func NewMongoSchemaRepository(db *mongo.Database, log logger.Logger) (*MongoSchemaRepository, error) {
	if db == nil {
		return nil, errors.New("mongo database cannot be nil")
	}
	if log == nil {
		log = logger.NewNopLogger()
	}

	return &MongoSchemaRepository{
		db:     db,
		logger: log.WithComponent("mongo_schema_repository"),
	}, nil
}

// DatabaseName returns the name of the bound database
func (r *MongoSchemaRepository) DatabaseName() string {
	return r.db.Name()
}

// CollectionNames lists the collections present in the database
func (r *MongoSchemaRepository) CollectionNames(ctx context.Context) ([]string, error) {
	names, err := r.db.ListCollectionNames(ctx, bson.D{})
	if err != nil {
		return nil, fmt.Errorf("failed to list collections: %w", err)
	}
	return names, nil
}

// CreateCollection creates name. A collection created concurrently by another
// process is not an error.
func (r *MongoSchemaRepository) CreateCollection(ctx context.Context, name string) error {
	if err := model.ValidateCollectionName(name); err != nil {
		return err
	}

	err := r.db.CreateCollection(ctx, name)
	if err != nil {
		if hasServerErrorCode(err, codeNamespaceExists) {
			r.logger.WithFields(map[string]interface{}{"collection": name}).Debug("collection already exists")
			return nil
		}
		return fmt.Errorf("failed to create collection %s: %w", name, err)
	}

	return nil
}

// Indexes lists the indexes of collection with their key pattern and uniqueness.
// A missing collection has no indexes.
func (r *MongoSchemaRepository) Indexes(ctx context.Context, collection string) ([]model.ExistingIndex, error) {
	specs, err := r.db.Collection(collection).Indexes().ListSpecifications(ctx)
	if err != nil {
		if hasServerErrorCode(err, codeNamespaceNotFound) {
			return []model.ExistingIndex{}, nil
		}
		return nil, fmt.Errorf("failed to list indexes on %s: %w", collection, err)
	}

	indexes := make([]model.ExistingIndex, 0, len(specs))
	for _, spec := range specs {
		idx, err := toExistingIndex(spec)
		if err != nil {
			return nil, fmt.Errorf("failed to decode index %s on %s: %w", spec.Name, collection, err)
		}
		indexes = append(indexes, idx)
	}
	return indexes, nil
}

// CreateIndexes creates indexes on collection in a single createIndexes command
// and returns the names the server reports.
func (r *MongoSchemaRepository) CreateIndexes(ctx context.Context, collection string, indexes []model.IndexSpec) ([]string, error) {
	if len(indexes) == 0 {
		return []string{}, nil
	}

	models := make([]mongo.IndexModel, 0, len(indexes))
	for _, idx := range indexes {
		models = append(models, toIndexModel(idx))
	}

	names, err := r.db.Collection(collection).Indexes().CreateMany(ctx, models)
	if err != nil {
		return nil, fmt.Errorf("failed to create indexes on %s: %w", collection, err)
	}

	return names, nil
}

// InsertAdmin stores admin in the users collection
func (r *MongoSchemaRepository) InsertAdmin(ctx context.Context, admin *model.AdminAccount) error {
	if admin == nil {
		return errors.New("admin account cannot be nil")
	}

	_, err := r.db.Collection(model.CollectionUsers).InsertOne(ctx, admin)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("%w: %w", repository.ErrAdminExists, apperrors.ErrDuplicateKey)
		}
		return fmt.Errorf("failed to insert admin account: %w", err)
	}

	return nil
}

// toIndexModel converts a declaration into the driver's index model
func toIndexModel(idx model.IndexSpec) mongo.IndexModel {
	opts := options.Index().SetName(idx.Name())
	if idx.Unique {
		opts.SetUnique(true)
	}

	return mongo.IndexModel{
		Keys:    bson.D{{Key: idx.Field, Value: int32(idx.Order)}},
		Options: opts,
	}
}

// toExistingIndex reads the key pattern and unique flag the server reports
func toExistingIndex(spec *mongo.IndexSpecification) (model.ExistingIndex, error) {
	elems, err := spec.KeysDocument.Elements()
	if err != nil {
		return model.ExistingIndex{}, err
	}

	idx := model.ExistingIndex{
		Name:   spec.Name,
		Keys:   make([]model.IndexKey, 0, len(elems)),
		Unique: spec.Unique != nil && *spec.Unique,
	}
	for _, elem := range elems {
		idx.Keys = append(idx.Keys, model.IndexKey{Field: elem.Key(), Order: keyOrder(elem.Value())})
	}
	return idx, nil
}

// keyOrder maps a key pattern value to a direction. The server stores directions
// as any numeric type; strings such as "text" or "hashed" have no direction.
func keyOrder(v bson.RawValue) model.IndexOrder {
	var n float64
	if i, ok := v.Int32OK(); ok {
		n = float64(i)
	} else if i, ok := v.Int64OK(); ok {
		n = float64(i)
	} else if f, ok := v.DoubleOK(); ok {
		n = f
	}

	switch {
	case n > 0:
		return model.Ascending
	case n < 0:
		return model.Descending
	default:
		return 0
	}
}

func hasServerErrorCode(err error, code int) bool {
	var serverErr mongo.ServerError
	if errors.As(err, &serverErr) {
		return serverErr.HasErrorCode(code)
	}
	return false
}
