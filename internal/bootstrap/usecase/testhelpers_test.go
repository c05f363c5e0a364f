package usecase

import (
	"context"
	"fmt"
	"sync"

	"lattice-cms-init/internal/bootstrap/domain/model"
	"lattice-cms-init/internal/bootstrap/domain/repository"
	apperrors "lattice-cms-init/internal/shared/errors"

	"github.com/stretchr/testify/mock"
)

// memoryRepository is an in-memory SchemaRepository that mimics the server:
// every collection gets an _id_ index, unique indexes reject duplicate values and
// an index that clashes with an existing one by name or key pattern is refused.
type memoryRepository struct {
	mu          sync.Mutex
	database    string
	collections []string
	indexes     map[string][]model.ExistingIndex
	documents   map[string][]*model.AdminAccount

	createCollectionCalls int
	createIndexCalls      int
}

func newMemoryRepository(database string) *memoryRepository {
	return &memoryRepository{
		database:  database,
		indexes:   make(map[string][]model.ExistingIndex),
		documents: make(map[string][]*model.AdminAccount),
	}
}

func (r *memoryRepository) DatabaseName() string { return r.database }

func (r *memoryRepository) CollectionNames(ctx context.Context) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string{}, r.collections...), nil
}

func (r *memoryRepository) CreateCollection(ctx context.Context, name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.createCollectionCalls++
	r.ensureCollectionLocked(name)
	return nil
}

func (r *memoryRepository) ensureCollectionLocked(name string) {
	for _, c := range r.collections {
		if c == name {
			return
		}
	}
	r.collections = append(r.collections, name)
	r.indexes[name] = append(r.indexes[name], idIndex())
}

func (r *memoryRepository) Indexes(ctx context.Context, collection string) ([]model.ExistingIndex, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]model.ExistingIndex{}, r.indexes[collection]...), nil
}

func (r *memoryRepository) CreateIndexes(ctx context.Context, collection string, indexes []model.IndexSpec) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.createIndexCalls++

	for _, idx := range indexes {
		for _, existing := range r.indexes[collection] {
			sameName := existing.Name == idx.Name()
			if (sameName || existing.SameKeys(idx)) && !(sameName && existing.Satisfies(idx)) {
				return nil, fmt.Errorf("index %s conflicts with existing index %s", idx.Name(), existing.Name)
			}
		}
	}

	r.ensureCollectionLocked(collection)
	names := make([]string, 0, len(indexes))
	for _, idx := range indexes {
		if !r.hasIndexLocked(collection, idx.Name()) {
			r.indexes[collection] = append(r.indexes[collection], existingIndex(idx))
		}
		names = append(names, idx.Name())
	}
	return names, nil
}

// addIndex installs an index the way an operator would by hand, bypassing the clash checks
func (r *memoryRepository) addIndex(collection string, idx model.ExistingIndex) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ensureCollectionLocked(collection)
	r.indexes[collection] = append(r.indexes[collection], idx)
}

func (r *memoryRepository) InsertAdmin(ctx context.Context, admin *model.AdminAccount) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, idx := range r.indexes[model.CollectionUsers] {
		if idx.Unique && len(idx.Keys) == 1 && idx.Keys[0].Field == "email" {
			for _, doc := range r.documents[model.CollectionUsers] {
				if doc.Email == admin.Email {
					return fmt.Errorf("%w: %w", repository.ErrAdminExists, apperrors.ErrDuplicateKey)
				}
			}
		}
	}
	r.ensureCollectionLocked(model.CollectionUsers)
	r.documents[model.CollectionUsers] = append(r.documents[model.CollectionUsers], admin)
	return nil
}

func (r *memoryRepository) hasIndexLocked(collection, name string) bool {
	for _, idx := range r.indexes[collection] {
		if idx.Name == name {
			return true
		}
	}
	return false
}

func idIndex() model.ExistingIndex {
	return model.ExistingIndex{Name: "_id_", Keys: []model.IndexKey{{Field: "_id", Order: model.Ascending}}}
}

func existingIndex(spec model.IndexSpec) model.ExistingIndex {
	return model.ExistingIndex{
		Name:   spec.Name(),
		Keys:   []model.IndexKey{{Field: spec.Field, Order: spec.Order}},
		Unique: spec.Unique,
	}
}

// indexesOf lists _id_ followed by specs, as the server reports a prepared collection
func indexesOf(specs ...model.IndexSpec) []model.ExistingIndex {
	indexes := []model.ExistingIndex{idIndex()}
	for _, spec := range specs {
		indexes = append(indexes, existingIndex(spec))
	}
	return indexes
}

// MockSchemaRepository is a testify mock of repository.SchemaRepository
type MockSchemaRepository struct {
	mock.Mock
}

func (m *MockSchemaRepository) DatabaseName() string {
	return m.Called().String(0)
}

func (m *MockSchemaRepository) CollectionNames(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockSchemaRepository) CreateCollection(ctx context.Context, name string) error {
	return m.Called(ctx, name).Error(0)
}

func (m *MockSchemaRepository) Indexes(ctx context.Context, collection string) ([]model.ExistingIndex, error) {
	args := m.Called(ctx, collection)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.ExistingIndex), args.Error(1)
}

func (m *MockSchemaRepository) CreateIndexes(ctx context.Context, collection string, indexes []model.IndexSpec) ([]string, error) {
	args := m.Called(ctx, collection, indexes)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockSchemaRepository) InsertAdmin(ctx context.Context, admin *model.AdminAccount) error {
	return m.Called(ctx, admin).Error(0)
}
