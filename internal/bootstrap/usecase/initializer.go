package usecase

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"lattice-cms-init/internal/bootstrap/domain/model"
	"lattice-cms-init/internal/bootstrap/domain/repository"
	"lattice-cms-init/internal/shared/contextkeys"
	apperrors "lattice-cms-init/internal/shared/errors"
	"lattice-cms-init/internal/shared/logger"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// Steps named in returned errors
const (
	stepListCollections  = "list_collections"
	stepCreateCollection = "create_collection"
	stepListIndexes      = "list_indexes"
	stepCreateIndexes    = "create_indexes"
	stepSeedAdmin        = "seed_admin"
)

// AdminSeed carries the optional admin account to insert after the schema is in place
type AdminSeed struct {
	Email    string
	Password string
	Role     string
}

// PasswordHasher hashes the seed admin password
type PasswordHasher func(password string) (string, error)

// BcryptHasher hashes with bcrypt at the default cost
func BcryptHasher(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// Options configures an Initializer. Zero values fall back to defaults.
type Options struct {
	Schema model.Schema
	Admin  *AdminSeed
	Out    io.Writer
	Hasher PasswordHasher
	Now    func() time.Time
	RunID  func() string
}

// Initializer prepares the database: collections, indexes, optional admin seed
type Initializer struct {
	repo   repository.SchemaRepository
	logger logger.Logger
	schema model.Schema
	admin  *AdminSeed
	out    io.Writer
	hasher PasswordHasher
	now    func() time.Time
	runID  func() string
}

// NewInitializer creates an Initializer. The schema is validated up front.
func NewInitializer(repo repository.SchemaRepository, log logger.Logger, opts Options) (*Initializer, error) {
	if repo == nil {
		return nil, errors.New("schema repository cannot be nil")
	}
	if log == nil {
		log = logger.NewNopLogger()
	}

	schema := opts.Schema
	if schema == nil {
		schema = model.DefaultSchema()
	}
	if err := schema.Validate(); err != nil {
		return nil, apperrors.NewValidationError("invalid bootstrap schema").WithCause(err).WithComponent("initializer")
	}

	initializer := &Initializer{
		repo:   repo,
		logger: log.WithComponent("initializer"),
		schema: schema,
		admin:  opts.Admin,
		out:    opts.Out,
		hasher: opts.Hasher,
		now:    opts.Now,
		runID:  opts.RunID,
	}
	if initializer.out == nil {
		initializer.out = os.Stdout
	}
	if initializer.hasher == nil {
		initializer.hasher = BcryptHasher
	}
	if initializer.now == nil {
		initializer.now = time.Now
	}
	if initializer.runID == nil {
		initializer.runID = func() string { return uuid.New().String() }
	}

	return initializer, nil
}

// Run performs one bootstrap pass. Every step checks what exists before creating,
// so running it again against a prepared database changes nothing.
func (i *Initializer) Run(ctx context.Context) (*Report, error) {
	database := i.repo.DatabaseName()
	ctx = context.WithValue(ctx, contextkeys.RunIDKey, i.runID())
	ctx = context.WithValue(ctx, contextkeys.DatabaseKey, database)
	log := i.logger.WithContext(ctx)

	log.Info("starting database bootstrap")
	report := &Report{Database: database}

	if err := i.ensureCollections(ctx, report); err != nil {
		log.Errorf("bootstrap aborted: %v", err)
		return report, err
	}

	if err := i.ensureIndexes(ctx, report); err != nil {
		log.Errorf("bootstrap aborted: %v", err)
		return report, err
	}

	if i.admin != nil {
		if err := i.seedAdmin(ctx, report); err != nil {
			log.Errorf("bootstrap aborted: %v", err)
			return report, err
		}
	}

	log.WithFields(map[string]interface{}{
		"collections_created":  len(report.CreatedCollections),
		"collections_existing": len(report.ExistingCollections),
		"indexes_created":      len(report.CreatedIndexes),
		"indexes_existing":     len(report.ExistingIndexes),
		"admin_seeded":         report.AdminSeeded,
	}).Info("database bootstrap completed")

	if err := i.printStatus(report); err != nil {
		return report, apperrors.NewInternalError("failed to write status output").WithCause(err).WithComponent("initializer")
	}

	return report, nil
}

func (i *Initializer) ensureCollections(ctx context.Context, report *Report) error {
	existing, err := i.repo.CollectionNames(ctx)
	if err != nil {
		return stepError(stepListCollections, "", err)
	}
	present := toSet(existing)

	for _, c := range i.schema {
		cctx := context.WithValue(ctx, contextkeys.CollectionKey, c.Name)
		if _, ok := present[c.Name]; ok {
			i.logger.WithContext(cctx).Debug("collection already exists")
			report.ExistingCollections = append(report.ExistingCollections, c.Name)
			continue
		}

		if err := i.repo.CreateCollection(cctx, c.Name); err != nil {
			return stepError(stepCreateCollection, c.Name, err)
		}
		i.logger.WithContext(cctx).Info("collection created")
		report.CreatedCollections = append(report.CreatedCollections, c.Name)
	}

	return nil
}

func (i *Initializer) ensureIndexes(ctx context.Context, report *Report) error {
	for _, c := range i.schema {
		if len(c.Indexes) == 0 {
			continue
		}
		cctx := context.WithValue(ctx, contextkeys.CollectionKey, c.Name)
		cctx = context.WithValue(cctx, contextkeys.OperationKey, stepCreateIndexes)

		existing, err := i.repo.Indexes(cctx, c.Name)
		if err != nil {
			return stepError(stepListIndexes, c.Name, err)
		}

		// All declarations are checked before anything is created
		missing := make([]model.IndexSpec, 0, len(c.Indexes))
		present := make([]string, 0, len(c.Indexes))
		for _, idx := range c.Indexes {
			found, ok := model.FindIndex(existing, idx)
			if !ok {
				missing = append(missing, idx)
				continue
			}
			if !found.Satisfies(idx) {
				return indexConflict(c.Name, idx, found)
			}
			if found.Name != idx.Name() {
				i.logger.WithContext(cctx).Debugf("index %s is covered by existing index %s", idx.Name(), found.Name)
			}
			present = append(present, qualify(c.Name, found.Name))
		}
		report.ExistingIndexes = append(report.ExistingIndexes, present...)
		if len(missing) == 0 {
			i.logger.WithContext(cctx).Debug("all indexes already exist")
			continue
		}

		names, err := i.repo.CreateIndexes(cctx, c.Name, missing)
		if err != nil {
			return stepError(stepCreateIndexes, c.Name, err)
		}
		for _, name := range names {
			report.CreatedIndexes = append(report.CreatedIndexes, qualify(c.Name, name))
		}
		i.logger.WithContext(cctx).Infof("created %d index(es): %s", len(names), strings.Join(names, ", "))
	}

	return nil
}

func (i *Initializer) seedAdmin(ctx context.Context, report *Report) error {
	ctx = context.WithValue(ctx, contextkeys.OperationKey, stepSeedAdmin)
	log := i.logger.WithContext(ctx)

	if i.admin.Password == "" {
		return apperrors.NewValidationError("admin seed requires a password").WithComponent("initializer")
	}

	hash, err := i.hasher(i.admin.Password)
	if err != nil {
		return apperrors.NewInternalError("failed to hash admin password").WithCause(err).WithComponent("initializer")
	}

	account, err := model.NewAdminAccount(i.admin.Email, hash, i.admin.Role, i.now())
	if err != nil {
		return apperrors.NewValidationError("invalid admin seed").WithCause(err).WithComponent("initializer")
	}

	if err := i.repo.InsertAdmin(ctx, account); err != nil {
		if apperrors.IsConflict(err) {
			log.WithFields(map[string]interface{}{"email": account.Email}).Warn("admin account already present, leaving it untouched")
			report.AdminPresent = true
			return nil
		}
		return stepError(stepSeedAdmin, model.CollectionUsers, err)
	}

	log.WithFields(map[string]interface{}{"email": account.Email, "role": account.Role}).Info("admin account seeded")
	report.AdminSeeded = true
	return nil
}

func (i *Initializer) printStatus(report *Report) error {
	for _, line := range StatusLines(report.Database, i.schema, report.AdminSeeded || report.AdminPresent) {
		if _, err := fmt.Fprintln(i.out, line); err != nil {
			return err
		}
	}
	return nil
}

// StatusLines renders the operator-facing completion message
func StatusLines(database string, schema model.Schema, adminExists bool) []string {
	reminder := "⚠️  Remember to create your admin user through Payload CMS admin panel"
	if adminExists {
		reminder = "⚠️  Remember to change the seeded admin password after first login"
	}

	return []string{
		fmt.Sprintf("✅ %s database initialized successfully", database),
		fmt.Sprintf("📄 Collections created: %s", strings.Join(schema.CollectionNames(), ", ")),
		"🔍 Indexes created for performance optimization",
		reminder,
	}
}

func stepError(step, collection string, cause error) error {
	msg := fmt.Sprintf("bootstrap step %s failed", step)
	if collection != "" {
		msg = fmt.Sprintf("bootstrap step %s failed on collection %s", step, collection)
	}

	appErr := apperrors.NewInfrastructureError(msg).WithCause(cause).WithComponent("initializer").WithDetail("step", step)
	if collection != "" {
		appErr.WithDetail("collection", collection)
	}
	return appErr
}

func indexConflict(collection string, want model.IndexSpec, found model.ExistingIndex) error {
	return apperrors.NewConflictError(fmt.Sprintf("index %s on collection %s does not match the declared index %s", found.Name, collection, want.Name())).
		WithCause(apperrors.ErrIndexConflict).
		WithComponent("initializer").
		WithDetail("step", stepCreateIndexes).
		WithDetail("collection", collection).
		WithDetail("index", found.Name).
		WithDetail("unique", found.Unique).
		WithDetail("declared_unique", want.Unique)
}

func qualify(collection, index string) string {
	return collection + "." + index
}

func toSet(values []string) map[string]struct{} {
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		set[v] = struct{}{}
	}
	return set
}
