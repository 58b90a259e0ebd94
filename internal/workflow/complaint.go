package workflow

import (
	"context"

	"github.com/laporkota/laporkota/internal/domain"
	apperrors "github.com/laporkota/laporkota/internal/pkg/errors"
)

// CreateComplaintInput carries the citizen-facing intake fields. Status,
// assignment and derived timestamps are never accepted from input.
type CreateComplaintInput struct {
	Title         string                   `validate:"required,min=1,max=255"`
	Description   string                   `validate:"required,min=10"`
	Category      domain.ComplaintCategory `validate:"required"`
	ReporterName  string                   `validate:"required,min=1,max=255"`
	ReporterEmail string                   `validate:"required,email"`
	ReporterPhone *string                  `validate:"omitempty,max=32"`
	Location      *string                  `validate:"omitempty,max=500"`
	Coordinates   *string                  `validate:"omitempty,max=100"`
	Photos        []string                 `validate:"omitempty,dive,required"`
}

// TransitionOptions carries optional data accompanying a complaint
// transition. Notes land on the history entry, AdminNotes on the entity.
type TransitionOptions struct {
	Notes      *string
	AdminNotes *string
}

// CreateComplaint registers a new complaint in status new. The creation
// history entry (old status nil) and the audit entry commit with the row.
func (e *Engine) CreateComplaint(ctx context.Context, input CreateComplaintInput, actor Actor) (*domain.Complaint, error) {
	if err := e.checkInput(input); err != nil {
		return nil, err
	}
	if !input.Category.Valid() {
		return nil, apperrors.Validation(apperrors.CodeComplaintInvalid,
			"unknown complaint category").
			WithParams(map[string]interface{}{"category": string(input.Category)})
	}
	if _, err := e.requireActor(ctx, actor, ""); err != nil {
		return nil, err
	}

	now := e.now()
	complaint := &domain.Complaint{
		Title:         input.Title,
		Description:   input.Description,
		Category:      input.Category,
		Status:        domain.ComplaintNew,
		ReporterName:  input.ReporterName,
		ReporterEmail: input.ReporterEmail,
		ReporterPhone: input.ReporterPhone,
		Location:      input.Location,
		Coordinates:   input.Coordinates,
		Photos:        input.Photos,
		CreatedAt:     now,
	}

	err := e.store.WithTx(ctx, func(tx Tx) error {
		if err := tx.CreateComplaint(ctx, complaint); err != nil {
			return err
		}
		if err := tx.AppendHistory(ctx, e.creationHistory(
			domain.ResourceComplaint, complaint.ID, string(domain.ComplaintNew), actor, now)); err != nil {
			return err
		}
		return tx.AppendAudit(ctx, e.auditEntry(actor, domain.AuditCreate,
			domain.ResourceComplaint, complaint.ID,
			nil,
			domain.JSONMap{"title": complaint.Title, "status": string(complaint.Status)},
			now))
	})
	if err != nil {
		return nil, err
	}
	return complaint, nil
}

// TransitionComplaint moves a complaint to a direct successor status. Entering
// resolved stamps resolved_at from the engine clock.
func (e *Engine) TransitionComplaint(ctx context.Context, id int64, target domain.ComplaintStatus, actor Actor, opts TransitionOptions) (*domain.Complaint, error) {
	if !target.Valid() {
		return nil, apperrors.Validation(apperrors.CodeComplaintInvalid,
			"unknown complaint status").
			WithParams(map[string]interface{}{"status": string(target)})
	}
	if _, err := e.requireActor(ctx, actor, complaintTransitionPerms[target]); err != nil {
		return nil, err
	}

	var complaint *domain.Complaint
	err := e.store.WithTx(ctx, func(tx Tx) error {
		var err error
		complaint, err = tx.GetComplaintForUpdate(ctx, id)
		if err != nil {
			return err
		}
		from := complaint.Status
		if !from.CanTransitionTo(target) {
			return invalidTransition(domain.ResourceComplaint, id, string(from), string(target))
		}

		now := e.now()
		complaint.Status = target
		complaint.UpdatedAt = &now
		if opts.AdminNotes != nil {
			complaint.AdminNotes = opts.AdminNotes
		}
		if target == domain.ComplaintResolved {
			resolvedAt := now
			complaint.ResolvedAt = &resolvedAt
		}

		if err := tx.SaveComplaint(ctx, complaint); err != nil {
			return err
		}
		if err := tx.AppendHistory(ctx, e.transitionHistory(
			domain.ResourceComplaint, id, string(from), string(target), opts.Notes, actor, now)); err != nil {
			return err
		}
		if err := tx.AppendAudit(ctx, e.auditEntry(actor, domain.AuditStatusChange,
			domain.ResourceComplaint, id,
			domain.JSONMap{"status": string(from)},
			domain.JSONMap{"status": string(target)},
			now)); err != nil {
			return err
		}

		logTransition(domain.ResourceComplaint, id, string(from), string(target), actor)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return complaint, nil
}

// AssignComplaint sets the assignee. The assignee must be an active account
// holding the complaint handling permission. On a verified complaint the
// assignment implies the verified to assigned transition in the same
// transaction; on any other non-terminal status only assigned_to changes, so
// in-flight complaints can be reassigned. Terminal complaints are refused.
func (e *Engine) AssignComplaint(ctx context.Context, id, assigneeID int64, actor Actor, opts TransitionOptions) (*domain.Complaint, error) {
	if _, err := e.requireActor(ctx, actor, domain.PermComplaintAssign); err != nil {
		return nil, err
	}
	if _, err := e.requireAssignee(ctx, assigneeID, domain.PermComplaintHandle); err != nil {
		return nil, err
	}

	var complaint *domain.Complaint
	err := e.store.WithTx(ctx, func(tx Tx) error {
		var err error
		complaint, err = tx.GetComplaintForUpdate(ctx, id)
		if err != nil {
			return err
		}

		from := complaint.Status
		now := e.now()

		if from == domain.ComplaintVerified {
			complaint.AssignedTo = &assigneeID
			complaint.Status = domain.ComplaintAssigned
			complaint.UpdatedAt = &now
			if err := tx.SaveComplaint(ctx, complaint); err != nil {
				return err
			}
			if err := tx.AppendHistory(ctx, e.transitionHistory(
				domain.ResourceComplaint, id,
				string(domain.ComplaintVerified), string(domain.ComplaintAssigned),
				opts.Notes, actor, now)); err != nil {
				return err
			}
			if err := tx.AppendAudit(ctx, e.auditEntry(actor, domain.AuditStatusChange,
				domain.ResourceComplaint, id,
				domain.JSONMap{"status": string(domain.ComplaintVerified)},
				domain.JSONMap{"status": string(domain.ComplaintAssigned), "assigned_to": assigneeID},
				now)); err != nil {
				return err
			}
			logTransition(domain.ResourceComplaint, id,
				string(domain.ComplaintVerified), string(domain.ComplaintAssigned), actor)
			return nil
		}

		if from.Terminal() {
			return invalidTransition(domain.ResourceComplaint, id,
				string(from), string(domain.ComplaintAssigned))
		}

		// Assignment and reassignment outside verified record the assignee
		// without touching the lifecycle.
		complaint.AssignedTo = &assigneeID
		complaint.UpdatedAt = &now
		if err := tx.SaveComplaint(ctx, complaint); err != nil {
			return err
		}
		return tx.AppendAudit(ctx, e.auditEntry(actor, domain.AuditUpdate,
			domain.ResourceComplaint, id,
			nil,
			domain.JSONMap{"assigned_to": assigneeID},
			now))
	})
	if err != nil {
		return nil, err
	}
	return complaint, nil
}

// ResolveComplaint is a convenience wrapper for the in_progress to resolved
// transition.
func (e *Engine) ResolveComplaint(ctx context.Context, id int64, actor Actor, opts TransitionOptions) (*domain.Complaint, error) {
	return e.TransitionComplaint(ctx, id, domain.ComplaintResolved, actor, opts)
}

// RejectComplaint is a convenience wrapper for rejection; valid only before
// any work starts (status new or verified).
func (e *Engine) RejectComplaint(ctx context.Context, id int64, actor Actor, opts TransitionOptions) (*domain.Complaint, error) {
	return e.TransitionComplaint(ctx, id, domain.ComplaintRejected, actor, opts)
}
