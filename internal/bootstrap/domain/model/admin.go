package model

import (
	"fmt"
	"strings"
	"time"

	apperrors "lattice-cms-init/internal/shared/errors"
	"lattice-cms-init/internal/shared/validation"
)

// DefaultAdminRole is the role given to a seeded admin account
const DefaultAdminRole = "admin"

// AdminAccount is the optional first account inserted into the users collection.
// Password holds a bcrypt hash, never the plain text.
type AdminAccount struct {
	Email     string    `json:"email" bson:"email" validate:"required,email"`
	Password  string    `json:"-" bson:"password" validate:"required"`
	Role      string    `json:"role" bson:"role" validate:"required,max=64"`
	CreatedAt time.Time `json:"createdAt" bson:"createdAt" validate:"required"`
	UpdatedAt time.Time `json:"updatedAt" bson:"updatedAt" validate:"required"`
}

// NewAdminAccount builds an account stamped with now. passwordHash must already be hashed.
func NewAdminAccount(email, passwordHash, role string, now time.Time) (*AdminAccount, error) {
	if strings.TrimSpace(role) == "" {
		role = DefaultAdminRole
	}

	now = now.UTC()
	admin := &AdminAccount{
		Email:     strings.ToLower(strings.TrimSpace(email)),
		Password:  passwordHash,
		Role:      role,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := validation.ValidateStruct(admin); err != nil {
		return nil, fmt.Errorf("%w: admin account: %w", apperrors.ErrInvalidInput, err)
	}

	return admin, nil
}
