// Package directory is the identity and permission directory: staff users,
// their roles and the permission maps the workflow engine consults.
package directory

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/laporkota/laporkota/internal/domain"
	apperrors "github.com/laporkota/laporkota/internal/pkg/errors"
)

// Directory resolves users and interprets permission keys. It satisfies the
// workflow engine's directory dependency.
type Directory struct {
	db *gorm.DB
}

// New creates a directory over db.
func New(db *gorm.DB) *Directory {
	return &Directory{db: db}
}

// GetUser returns a user with the role preloaded. Soft deleted users are
// still returned; callers decide through User.Active whether the account may
// act.
func (d *Directory) GetUser(ctx context.Context, id int64) (*domain.User, error) {
	var user domain.User
	err := d.db.WithContext(ctx).Preload("Role").First(&user, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound(apperrors.CodeUserNotFound,
				fmt.Sprintf("user %d not found", id))
		}
		return nil, apperrors.StorageUnavailable(err)
	}
	return &user, nil
}

// GetUserByEmail returns a user by email with the role preloaded.
func (d *Directory) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	var user domain.User
	err := d.db.WithContext(ctx).Preload("Role").Where("email = ?", email).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound(apperrors.CodeUserNotFound,
				fmt.Sprintf("user %s not found", email))
		}
		return nil, apperrors.StorageUnavailable(err)
	}
	return &user, nil
}

// HasPermission reports whether the role grants the permission key. The key
// is opaque to callers; only the role's permission map interprets it.
func (d *Directory) HasPermission(role *domain.Role, key string) bool {
	return role.Grants(key)
}

// GetRole returns a role by id.
func (d *Directory) GetRole(ctx context.Context, id int64) (*domain.Role, error) {
	var role domain.Role
	err := d.db.WithContext(ctx).First(&role, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound(apperrors.CodeRoleNotFound,
				fmt.Sprintf("role %d not found", id))
		}
		return nil, apperrors.StorageUnavailable(err)
	}
	return &role, nil
}

// ListRoles returns all roles by name.
func (d *Directory) ListRoles(ctx context.Context) ([]domain.Role, error) {
	var roles []domain.Role
	if err := d.db.WithContext(ctx).Order("name ASC").Find(&roles).Error; err != nil {
		return nil, apperrors.StorageUnavailable(err)
	}
	return roles, nil
}

// ListUsers returns users, excluding soft deleted accounts, newest first.
func (d *Directory) ListUsers(ctx context.Context, includeInactive bool) ([]domain.User, error) {
	q := d.db.WithContext(ctx).Preload("Role").Where("deleted_at IS NULL")
	if !includeInactive {
		q = q.Where("is_active = ?", true)
	}
	var users []domain.User
	if err := q.Order("created_at DESC").Find(&users).Error; err != nil {
		return nil, apperrors.StorageUnavailable(err)
	}
	return users, nil
}
