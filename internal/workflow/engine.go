package workflow

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/laporkota/laporkota/internal/domain"
	apperrors "github.com/laporkota/laporkota/internal/pkg/errors"
	"github.com/laporkota/laporkota/internal/pkg/logger"
)

// Engine drives the status lifecycle and assignment workflow. It depends only
// on the narrow Store and Directory interfaces so tests can run against
// in-memory fakes.
type Engine struct {
	store    Store
	dir      Directory
	validate *validator.Validate
	now      func() time.Time
}

// Option customizes an Engine.
type Option func(*Engine)

// WithClock overrides the engine clock. Tests use this to pin derived
// timestamps.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// New creates a workflow engine.
func New(store Store, dir Directory, opts ...Option) *Engine {
	e := &Engine{
		store:    store,
		dir:      dir,
		validate: validator.New(),
		now:      func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Permission required to move an entity INTO each status. Interpretation of
// the keys is delegated to the directory.
var complaintTransitionPerms = map[domain.ComplaintStatus]string{
	domain.ComplaintVerified:   domain.PermComplaintVerify,
	domain.ComplaintAssigned:   domain.PermComplaintAssign,
	domain.ComplaintInProgress: domain.PermComplaintWork,
	domain.ComplaintResolved:   domain.PermComplaintResolve,
	domain.ComplaintRejected:   domain.PermComplaintReject,
}

var reportTransitionPerms = map[domain.ReportStatus]string{
	domain.ReportVerified:   domain.PermReportVerify,
	domain.ReportScheduled:  domain.PermReportSchedule,
	domain.ReportInProgress: domain.PermReportWork,
	domain.ReportCompleted:  domain.PermReportComplete,
}

// requireActor loads the acting user and verifies the account may act.
// An empty permission key only checks that the account is active.
func (e *Engine) requireActor(ctx context.Context, actor Actor, permission string) (*domain.User, error) {
	user, err := e.dir.GetUser(ctx, actor.UserID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.Permission(apperrors.CodeActorForbidden,
				fmt.Sprintf("acting user %d does not exist", actor.UserID))
		}
		return nil, err
	}
	if !user.Active() {
		return nil, apperrors.Permission(apperrors.CodeUserInactive,
			fmt.Sprintf("acting user %d is not active", actor.UserID))
	}
	if permission != "" && !e.dir.HasPermission(user.Role, permission) {
		return nil, apperrors.Permission(apperrors.CodeActorForbidden,
			fmt.Sprintf("acting user %d lacks %s", actor.UserID, permission)).
			WithParams(map[string]interface{}{"permission": permission})
	}
	return user, nil
}

// requireAssignee verifies the target user exists, is active and holds the
// handling permission for the entity type.
func (e *Engine) requireAssignee(ctx context.Context, assigneeID int64, handlePerm string) (*domain.User, error) {
	user, err := e.dir.GetUser(ctx, assigneeID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.Validation(apperrors.CodeAssigneeInvalid,
				fmt.Sprintf("assignee %d does not exist", assigneeID))
		}
		return nil, err
	}
	if !user.Active() {
		return nil, apperrors.Validation(apperrors.CodeAssigneeInvalid,
			fmt.Sprintf("assignee %d is not active", assigneeID))
	}
	if !e.dir.HasPermission(user.Role, handlePerm) {
		return nil, apperrors.Validation(apperrors.CodeAssigneeInvalid,
			fmt.Sprintf("assignee %d lacks %s", assigneeID, handlePerm)).
			WithParams(map[string]interface{}{"permission": handlePerm})
	}
	return user, nil
}

// checkInput runs struct validation and converts failures to a typed error
// carrying field details.
func (e *Engine) checkInput(input interface{}) error {
	err := e.validate.Struct(input)
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

func invalidTransition(resource domain.ResourceType, id int64, from, to string) error {
	return apperrors.InvalidTransition(apperrors.CodeInvalidTransition,
		fmt.Sprintf("%s %d cannot move from %s to %s", resource, id, from, to)).
		WithParams(map[string]interface{}{
			"resource_type": string(resource),
			"resource_id":   id,
			"from":          from,
			"to":            to,
		})
}

func (e *Engine) transitionHistory(resource domain.ResourceType, id int64, from, to string, notes *string, actor Actor, at time.Time) *domain.StatusHistory {
	return &domain.StatusHistory{
		ResourceType: resource,
		ResourceID:   id,
		OldStatus:    &from,
		NewStatus:    to,
		Notes:        notes,
		ChangedBy:    actor.UserID,
		CreatedAt:    at,
	}
}

func (e *Engine) creationHistory(resource domain.ResourceType, id int64, status string, actor Actor, at time.Time) *domain.StatusHistory {
	return &domain.StatusHistory{
		ResourceType: resource,
		ResourceID:   id,
		OldStatus:    nil,
		NewStatus:    status,
		ChangedBy:    actor.UserID,
		CreatedAt:    at,
	}
}

func (e *Engine) auditEntry(actor Actor, action domain.AuditAction, resource domain.ResourceType, id int64, oldValues, newValues domain.JSONMap, at time.Time) *domain.AuditLog {
	return &domain.AuditLog{
		UserID:       actor.UserID,
		Action:       action,
		ResourceType: resource,
		ResourceID:   &id,
		OldValues:    oldValues,
		NewValues:    newValues,
		IPAddress:    actor.IPAddress,
		UserAgent:    actor.UserAgent,
		CreatedAt:    at,
	}
}

func logTransition(resource domain.ResourceType, id int64, from, to string, actor Actor) {
	logger.Info("Status transition",
		zap.String("resource_type", string(resource)),
		zap.Int64("resource_id", id),
		zap.String("from", from),
		zap.String("to", to),
		zap.Int64("changed_by", actor.UserID),
	)
}
