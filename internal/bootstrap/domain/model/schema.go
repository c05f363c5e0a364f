package model

import (
	"fmt"
	"strconv"
	"strings"

	apperrors "lattice-cms-init/internal/shared/errors"
)

// Collection names managed by the bootstrap
const (
	CollectionUsers       = "users"
	CollectionPreferences = "payload-preferences"
	CollectionMigrations  = "payload-migrations"
)

// DefaultDatabaseName is the logical database prepared for the CMS
const DefaultDatabaseName = "lattice-cms"

// IndexOrder is the sort direction of an index key
type IndexOrder int

const (
	Ascending  IndexOrder = 1
	Descending IndexOrder = -1
)

// IsValid reports whether the order is one MongoDB accepts for a single-field index
func (o IndexOrder) IsValid() bool {
	return o == Ascending || o == Descending
}

// IndexSpec declares a single-field index
type IndexSpec struct {
	Field  string
	Order  IndexOrder
	Unique bool
}

// Name returns the index name, "<field>_<order>", the same name MongoDB generates
// so an index created by hand is recognised on rerun.
func (i IndexSpec) Name() string {
	return i.Field + "_" + strconv.Itoa(int(i.Order))
}

// CollectionSpec declares a collection and the indexes it must carry
type CollectionSpec struct {
	Name    string
	Indexes []IndexSpec
}

// IndexKey is one field of an index key pattern. Order is zero for
// non-directional keys such as "text" or "2dsphere".
type IndexKey struct {
	Field string
	Order IndexOrder
}

// ExistingIndex is an index already present on a collection
type ExistingIndex struct {
	Name   string
	Keys   []IndexKey
	Unique bool
}

// SameKeys reports whether the index has exactly the key pattern of spec
func (e ExistingIndex) SameKeys(spec IndexSpec) bool {
	return len(e.Keys) == 1 && e.Keys[0].Field == spec.Field && e.Keys[0].Order == spec.Order
}

// Satisfies reports whether the index is equivalent to spec: same key pattern
// and same uniqueness. The name is not compared.
func (e ExistingIndex) Satisfies(spec IndexSpec) bool {
	return e.SameKeys(spec) && e.Unique == spec.Unique
}

// FindIndex returns the index matching spec by name, or failing that by key pattern
func FindIndex(existing []ExistingIndex, spec IndexSpec) (ExistingIndex, bool) {
	for _, e := range existing {
		if e.Name == spec.Name() {
			return e, true
		}
	}
	for _, e := range existing {
		if e.SameKeys(spec) {
			return e, true
		}
	}
	return ExistingIndex{}, false
}

// Schema is the ordered list of collections to prepare
type Schema []CollectionSpec

// DefaultSchema returns the collections and indexes the CMS expects
func DefaultSchema() Schema {
	return Schema{
		{
			Name: CollectionUsers,
			Indexes: []IndexSpec{
				{Field: "email", Order: Ascending, Unique: true},
				{Field: "createdAt", Order: Ascending},
				{Field: "updatedAt", Order: Ascending},
			},
		},
		{Name: CollectionPreferences},
		{Name: CollectionMigrations},
	}
}

// CollectionNames returns the collection names in declaration order
func (s Schema) CollectionNames() []string {
	names := make([]string, 0, len(s))
	for _, c := range s {
		names = append(names, c.Name)
	}
	return names
}

// Collection returns the declaration for name
func (s Schema) Collection(name string) (CollectionSpec, bool) {
	for _, c := range s {
		if c.Name == name {
			return c, true
		}
	}
	return CollectionSpec{}, false
}

// Validate checks the schema for empty names, duplicates and invalid orders
func (s Schema) Validate() error {
	if len(s) == 0 {
		return fmt.Errorf("%w: no collections declared", apperrors.ErrInvalidSchema)
	}

	seen := make(map[string]struct{}, len(s))
	for _, c := range s {
		if err := ValidateCollectionName(c.Name); err != nil {
			return err
		}
		if _, dup := seen[c.Name]; dup {
			return fmt.Errorf("%w: collection %q declared twice", apperrors.ErrInvalidSchema, c.Name)
		}
		seen[c.Name] = struct{}{}

		indexNames := make(map[string]struct{}, len(c.Indexes))
		for _, idx := range c.Indexes {
			if strings.TrimSpace(idx.Field) == "" {
				return fmt.Errorf("%w: %w: empty field on collection %q", apperrors.ErrInvalidSchema, apperrors.ErrInvalidIndex, c.Name)
			}
			if !idx.Order.IsValid() {
				return fmt.Errorf("%w: %w: field %q has order %d", apperrors.ErrInvalidSchema, apperrors.ErrInvalidIndex, idx.Field, idx.Order)
			}
			if _, dup := indexNames[idx.Name()]; dup {
				return fmt.Errorf("%w: %w: index %q declared twice on %q", apperrors.ErrInvalidSchema, apperrors.ErrInvalidIndex, idx.Name(), c.Name)
			}
			indexNames[idx.Name()] = struct{}{}
		}
	}

	return nil
}

// ValidateCollectionName applies MongoDB's collection naming restrictions
func ValidateCollectionName(name string) error {
	switch {
	case strings.TrimSpace(name) == "":
		return fmt.Errorf("%w: %w: name is empty", apperrors.ErrInvalidSchema, apperrors.ErrInvalidCollectionName)
	case strings.Contains(name, "$"):
		return fmt.Errorf("%w: %w: %q contains '$'", apperrors.ErrInvalidSchema, apperrors.ErrInvalidCollectionName, name)
	case strings.ContainsRune(name, 0):
		return fmt.Errorf("%w: %w: %q contains a null character", apperrors.ErrInvalidSchema, apperrors.ErrInvalidCollectionName, name)
	case strings.HasPrefix(name, "system."):
		return fmt.Errorf("%w: %w: %q uses the reserved system. prefix", apperrors.ErrInvalidSchema, apperrors.ErrInvalidCollectionName, name)
	}
	return nil
}
