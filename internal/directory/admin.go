package directory

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/laporkota/laporkota/internal/domain"
	"github.com/laporkota/laporkota/internal/governance/audit"
	apperrors "github.com/laporkota/laporkota/internal/pkg/errors"
	"github.com/laporkota/laporkota/internal/pkg/logger"
)

// Admin manages users and roles. Every mutation writes an audit entry; role
// changes use the role_change action so they fall under the extended
// retention horizon.
type Admin struct {
	db       *gorm.DB
	auditor  *audit.Recorder
	validate *validator.Validate
	now      func() time.Time
}

// NewAdmin creates the directory administration service.
func NewAdmin(db *gorm.DB, auditor *audit.Recorder) *Admin {
	return &Admin{
		db:       db,
		auditor:  auditor,
		validate: validator.New(),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// WithClock overrides the clock for tests.
func (a *Admin) WithClock(now func() time.Time) *Admin {
	a.now = now
	return a
}

// CreateUserInput carries the fields for a new staff account. NIK is the
// 16-digit national identity number.
type CreateUserInput struct {
	Name   string  `validate:"required,min=1,max=255"`
	Email  string  `validate:"required,email"`
	NIK    string  `validate:"required,len=16,numeric"`
	Phone  *string `validate:"omitempty,max=32"`
	RoleID int64   `validate:"required,gt=0"`
}

// UpdateUserInput carries the mutable account fields. Nil fields stay
// unchanged. Role changes go through ChangeRole instead.
type UpdateUserInput struct {
	Name     *string `validate:"omitempty,min=1,max=255"`
	Email    *string `validate:"omitempty,email"`
	NIK      *string `validate:"omitempty,len=16,numeric"`
	Phone    *string `validate:"omitempty,max=32"`
	IsActive *bool
}

func (a *Admin) checkInput(input interface{}) error {
	err := a.validate.Struct(input)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return apperrors.Validation(apperrors.CodeValidationFailed, err.Error())
	}
	fields := make([]apperrors.FieldError, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, apperrors.FieldError{
			Field: strings.ToLower(fe.Field()),
			Code:  fe.Tag(),
		})
	}
	return apperrors.Validation(apperrors.CodeValidationFailed, "input validation failed").
		WithFieldErrors(fields)
}

// CreateUser registers a new active staff account.
func (a *Admin) CreateUser(ctx context.Context, input CreateUserInput, actorID int64) (*domain.User, error) {
	if err := a.checkInput(input); err != nil {
		return nil, err
	}
	if _, err := a.getRole(ctx, input.RoleID); err != nil {
		return nil, err
	}

	user := &domain.User{
		Name:      input.Name,
		Email:     input.Email,
		NIK:       input.NIK,
		Phone:     input.Phone,
		IsActive:  true,
		RoleID:    input.RoleID,
		CreatedAt: a.now(),
	}
	if err := a.db.WithContext(ctx).Create(user).Error; err != nil {
		return nil, apperrors.StorageUnavailable(err)
	}

	if err := a.recordAudit(ctx, actorID, domain.AuditCreate, domain.ResourceUser, user.ID,
		nil, domain.JSONMap{"email": user.Email, "role_id": user.RoleID}); err != nil {
		return nil, err
	}
	return user, nil
}

// UpdateUser applies the non-nil fields to an existing account.
func (a *Admin) UpdateUser(ctx context.Context, id int64, input UpdateUserInput, actorID int64) (*domain.User, error) {
	if err := a.checkInput(input); err != nil {
		return nil, err
	}

	user, err := a.getUser(ctx, id)
	if err != nil {
		return nil, err
	}

	old := domain.JSONMap{}
	changed := domain.JSONMap{}
	if input.Name != nil {
		old["name"], changed["name"] = user.Name, *input.Name
		user.Name = *input.Name
	}
	if input.Email != nil {
		old["email"], changed["email"] = user.Email, *input.Email
		user.Email = *input.Email
	}
	if input.NIK != nil {
		old["nik"], changed["nik"] = user.NIK, *input.NIK
		user.NIK = *input.NIK
	}
	if input.Phone != nil {
		user.Phone = input.Phone
		changed["phone"] = *input.Phone
	}
	if input.IsActive != nil {
		old["is_active"], changed["is_active"] = user.IsActive, *input.IsActive
		user.IsActive = *input.IsActive
	}
	if len(changed) == 0 {
		return user, nil
	}

	now := a.now()
	user.UpdatedAt = &now
	if err := a.db.WithContext(ctx).Save(user).Error; err != nil {
		return nil, apperrors.StorageUnavailable(err)
	}

	if err := a.recordAudit(ctx, actorID, domain.AuditUpdate, domain.ResourceUser, user.ID, old, changed); err != nil {
		return nil, err
	}
	return user, nil
}

// ChangeRole moves a user to another role. Audited as role_change, which the
// retention job keeps for the extended horizon.
func (a *Admin) ChangeRole(ctx context.Context, userID, roleID, actorID int64) (*domain.User, error) {
	user, err := a.getUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if _, err := a.getRole(ctx, roleID); err != nil {
		return nil, err
	}
	if user.RoleID == roleID {
		return user, nil
	}

	oldRole := user.RoleID
	now := a.now()
	user.RoleID = roleID
	user.Role = nil
	user.UpdatedAt = &now
	if err := a.db.WithContext(ctx).Save(user).Error; err != nil {
		return nil, apperrors.StorageUnavailable(err)
	}

	if err := a.recordAudit(ctx, actorID, domain.AuditRoleChange, domain.ResourceUser, user.ID,
		domain.JSONMap{"role_id": oldRole},
		domain.JSONMap{"role_id": roleID}); err != nil {
		return nil, err
	}
	logger.Info("User role changed",
		zap.Int64("user_id", userID),
		zap.Int64("old_role_id", oldRole),
		zap.Int64("new_role_id", roleID),
		zap.Int64("changed_by", actorID),
	)
	return user, nil
}

// DeleteUser soft deletes an account. The row stays so history and audit
// references keep resolving.
func (a *Admin) DeleteUser(ctx context.Context, id, actorID int64) error {
	user, err := a.getUser(ctx, id)
	if err != nil {
		return err
	}
	if user.DeletedAt != nil {
		return nil
	}

	now := a.now()
	user.DeletedAt = &now
	user.IsActive = false
	user.UpdatedAt = &now
	if err := a.db.WithContext(ctx).Save(user).Error; err != nil {
		return apperrors.StorageUnavailable(err)
	}

	return a.recordAudit(ctx, actorID, domain.AuditDelete, domain.ResourceUser, user.ID,
		domain.JSONMap{"email": user.Email}, nil)
}

// CreateRoleInput carries the fields for a new role.
type CreateRoleInput struct {
	Name        string  `validate:"required,min=1,max=64"`
	Description *string `validate:"omitempty,max=500"`
	Permissions domain.BoolMap
}

// CreateRole registers a new role with its permission map.
func (a *Admin) CreateRole(ctx context.Context, input CreateRoleInput, actorID int64) (*domain.Role, error) {
	if err := a.checkInput(input); err != nil {
		return nil, err
	}
	if input.Permissions == nil {
		input.Permissions = domain.BoolMap{}
	}

	role := &domain.Role{
		Name:        input.Name,
		Description: input.Description,
		Permissions: input.Permissions,
		CreatedAt:   a.now(),
	}
	if err := a.db.WithContext(ctx).Create(role).Error; err != nil {
		return nil, apperrors.StorageUnavailable(err)
	}

	if err := a.recordAudit(ctx, actorID, domain.AuditCreate, domain.ResourceRole, role.ID,
		nil, domain.JSONMap{"name": role.Name}); err != nil {
		return nil, err
	}
	return role, nil
}

// UpdateRolePermissions replaces a role's permission map. Audited as
// role_change since it alters what every member may do.
func (a *Admin) UpdateRolePermissions(ctx context.Context, roleID int64, permissions domain.BoolMap, actorID int64) (*domain.Role, error) {
	role, err := a.getRole(ctx, roleID)
	if err != nil {
		return nil, err
	}

	oldPerms := role.Permissions
	now := a.now()
	role.Permissions = permissions
	role.UpdatedAt = &now
	if err := a.db.WithContext(ctx).Save(role).Error; err != nil {
		return nil, apperrors.StorageUnavailable(err)
	}

	if err := a.recordAudit(ctx, actorID, domain.AuditRoleChange, domain.ResourceRole, role.ID,
		domain.JSONMap{"permissions": oldPerms},
		domain.JSONMap{"permissions": permissions}); err != nil {
		return nil, err
	}
	return role, nil
}

func (a *Admin) getUser(ctx context.Context, id int64) (*domain.User, error) {
	var user domain.User
	err := a.db.WithContext(ctx).First(&user, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound(apperrors.CodeUserNotFound,
				fmt.Sprintf("user %d not found", id))
		}
		return nil, apperrors.StorageUnavailable(err)
	}
	return &user, nil
}

func (a *Admin) getRole(ctx context.Context, id int64) (*domain.Role, error) {
	var role domain.Role
	err := a.db.WithContext(ctx).First(&role, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound(apperrors.CodeRoleNotFound,
				fmt.Sprintf("role %d not found", id))
		}
		return nil, apperrors.StorageUnavailable(err)
	}
	return &role, nil
}

func (a *Admin) recordAudit(ctx context.Context, actorID int64, action domain.AuditAction, resource domain.ResourceType, id int64, oldValues, newValues domain.JSONMap) error {
	return a.auditor.Record(ctx, &domain.AuditLog{
		UserID:       actorID,
		Action:       action,
		ResourceType: resource,
		ResourceID:   &id,
		OldValues:    oldValues,
		NewValues:    newValues,
		CreatedAt:    a.now(),
	})
}
