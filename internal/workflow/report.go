package workflow

import (
	"context"
	"time"

	"github.com/laporkota/laporkota/internal/domain"
	apperrors "github.com/laporkota/laporkota/internal/pkg/errors"
)

// CreateReportInput carries the intake fields for an infrastructure report.
// estimated_cost is fixed here; actual_cost only exists once work completes.
type CreateReportInput struct {
	Title              string                    `validate:"required,min=1,max=255"`
	Description        string                    `validate:"required,min=10"`
	InfrastructureType domain.InfrastructureType `validate:"required"`
	Severity           domain.Severity           `validate:"required"`
	Location           *string                   `validate:"omitempty,max=500"`
	Coordinates        *string                   `validate:"omitempty,max=100"`
	EstimatedCost      *float64                  `validate:"omitempty,gte=0"`
	ReporterName       string                    `validate:"required,min=1,max=255"`
	ReporterEmail      string                    `validate:"required,email"`
	Photos             []string                  `validate:"omitempty,dive,required"`
}

// ReportTransitionOptions carries the data accompanying a report transition.
// ScheduledDate is mandatory when entering scheduled. ActualCostSet marks
// that the caller supplied actual_cost deliberately when entering completed;
// the value itself may still be nil (cost unknown).
type ReportTransitionOptions struct {
	Notes         *string
	ScheduledDate *time.Time
	ActualCost    *float64
	ActualCostSet bool
}

// CreateReport registers a new infrastructure report in status new.
func (e *Engine) CreateReport(ctx context.Context, input CreateReportInput, actor Actor) (*domain.InfrastructureReport, error) {
	if err := e.checkInput(input); err != nil {
		return nil, err
	}
	if !input.InfrastructureType.Valid() {
		return nil, apperrors.Validation(apperrors.CodeReportInvalid,
			"unknown infrastructure type").
			WithParams(map[string]interface{}{"infrastructure_type": string(input.InfrastructureType)})
	}
	if !input.Severity.Valid() {
		return nil, apperrors.Validation(apperrors.CodeReportInvalid,
			"unknown severity").
			WithParams(map[string]interface{}{"severity": string(input.Severity)})
	}
	if _, err := e.requireActor(ctx, actor, ""); err != nil {
		return nil, err
	}

	now := e.now()
	report := &domain.InfrastructureReport{
		Title:              input.Title,
		Description:        input.Description,
		InfrastructureType: input.InfrastructureType,
		Severity:           input.Severity,
		Status:             domain.ReportNew,
		Location:           input.Location,
		Coordinates:        input.Coordinates,
		EstimatedCost:      input.EstimatedCost,
		ReporterName:       input.ReporterName,
		ReporterEmail:      input.ReporterEmail,
		Photos:             input.Photos,
		CreatedAt:          now,
	}

	err := e.store.WithTx(ctx, func(tx Tx) error {
		if err := tx.CreateReport(ctx, report); err != nil {
			return err
		}
		if err := tx.AppendHistory(ctx, e.creationHistory(
			domain.ResourceReport, report.ID, string(domain.ReportNew), actor, now)); err != nil {
			return err
		}
		return tx.AppendAudit(ctx, e.auditEntry(actor, domain.AuditCreate,
			domain.ResourceReport, report.ID,
			nil,
			domain.JSONMap{"title": report.Title, "status": string(report.Status)},
			now))
	})
	if err != nil {
		return nil, err
	}
	return report, nil
}

// TransitionReport moves a report one step along the linear chain. Entering
// scheduled requires opts.ScheduledDate. Entering completed requires the
// caller to have carried actual_cost explicitly (ActualCostSet) and stamps
// completed_date from the engine clock.
func (e *Engine) TransitionReport(ctx context.Context, id int64, target domain.ReportStatus, actor Actor, opts ReportTransitionOptions) (*domain.InfrastructureReport, error) {
	if !target.Valid() {
		return nil, apperrors.Validation(apperrors.CodeReportInvalid,
			"unknown report status").
			WithParams(map[string]interface{}{"status": string(target)})
	}
	if target == domain.ReportScheduled && opts.ScheduledDate == nil {
		return nil, apperrors.Validation(apperrors.CodeScheduledDateReq,
			"scheduled_date is required when entering scheduled")
	}
	if target == domain.ReportCompleted && !opts.ActualCostSet {
		return nil, apperrors.Validation(apperrors.CodeActualCostReq,
			"actual_cost must be supplied when entering completed")
	}
	if _, err := e.requireActor(ctx, actor, reportTransitionPerms[target]); err != nil {
		return nil, err
	}

	var report *domain.InfrastructureReport
	err := e.store.WithTx(ctx, func(tx Tx) error {
		var err error
		report, err = tx.GetReportForUpdate(ctx, id)
		if err != nil {
			return err
		}
		from := report.Status
		if !from.CanTransitionTo(target) {
			return invalidTransition(domain.ResourceReport, id, string(from), string(target))
		}

		now := e.now()
		report.Status = target
		report.UpdatedAt = &now
		switch target {
		case domain.ReportScheduled:
			report.ScheduledDate = opts.ScheduledDate
		case domain.ReportCompleted:
			completedAt := now
			report.CompletedDate = &completedAt
			report.ActualCost = opts.ActualCost
		}

		if err := tx.SaveReport(ctx, report); err != nil {
			return err
		}
		if err := tx.AppendHistory(ctx, e.transitionHistory(
			domain.ResourceReport, id, string(from), string(target), opts.Notes, actor, now)); err != nil {
			return err
		}
		if err := tx.AppendAudit(ctx, e.auditEntry(actor, domain.AuditStatusChange,
			domain.ResourceReport, id,
			domain.JSONMap{"status": string(from)},
			domain.JSONMap{"status": string(target)},
			now)); err != nil {
			return err
		}

		logTransition(domain.ResourceReport, id, string(from), string(target), actor)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return report, nil
}

// ScheduleReport is a convenience wrapper for the verified to scheduled
// transition.
func (e *Engine) ScheduleReport(ctx context.Context, id int64, scheduledDate time.Time, actor Actor, notes *string) (*domain.InfrastructureReport, error) {
	return e.TransitionReport(ctx, id, domain.ReportScheduled, actor, ReportTransitionOptions{
		Notes:         notes,
		ScheduledDate: &scheduledDate,
	})
}

// CompleteReport is a convenience wrapper for the in_progress to completed
// transition. actualCost may be nil when the cost is unknown, but the caller
// states that deliberately by calling this method.
func (e *Engine) CompleteReport(ctx context.Context, id int64, actualCost *float64, actor Actor, notes *string) (*domain.InfrastructureReport, error) {
	return e.TransitionReport(ctx, id, domain.ReportCompleted, actor, ReportTransitionOptions{
		Notes:         notes,
		ActualCost:    actualCost,
		ActualCostSet: true,
	})
}

// AssignReport sets the assignee on a report. Unlike complaints there is no
// assigned status, so no transition is implied; assignment is refused once
// the report is completed.
func (e *Engine) AssignReport(ctx context.Context, id, assigneeID int64, actor Actor) (*domain.InfrastructureReport, error) {
	if _, err := e.requireActor(ctx, actor, domain.PermReportAssign); err != nil {
		return nil, err
	}
	if _, err := e.requireAssignee(ctx, assigneeID, domain.PermReportHandle); err != nil {
		return nil, err
	}

	var report *domain.InfrastructureReport
	err := e.store.WithTx(ctx, func(tx Tx) error {
		var err error
		report, err = tx.GetReportForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if report.Status.Terminal() {
			return invalidTransition(domain.ResourceReport, id,
				string(report.Status), string(report.Status))
		}

		now := e.now()
		report.AssignedTo = &assigneeID
		report.UpdatedAt = &now
		if err := tx.SaveReport(ctx, report); err != nil {
			return err
		}
		return tx.AppendAudit(ctx, e.auditEntry(actor, domain.AuditUpdate,
			domain.ResourceReport, id,
			nil,
			domain.JSONMap{"assigned_to": assigneeID},
			now))
	})
	if err != nil {
		return nil, err
	}
	return report, nil
}
