package workflow

import (
	"context"
	"errors"
	"fmt"

	"github.com/laporkota/laporkota/internal/domain"
	apperrors "github.com/laporkota/laporkota/internal/pkg/errors"
	"github.com/laporkota/laporkota/internal/pkg/logger"
)

func init() {
	_ = logger.Init("error", "json")
}

// fakeState is the backing data of the fake store.
type fakeState struct {
	complaints map[int64]domain.Complaint
	reports    map[int64]domain.InfrastructureReport
	history    []domain.StatusHistory
	audits     []domain.AuditLog
	nextID     int64
}

func (s *fakeState) clone() *fakeState {
	c := &fakeState{
		complaints: make(map[int64]domain.Complaint, len(s.complaints)),
		reports:    make(map[int64]domain.InfrastructureReport, len(s.reports)),
		history:    append([]domain.StatusHistory(nil), s.history...),
		audits:     append([]domain.AuditLog(nil), s.audits...),
		nextID:     s.nextID,
	}
	for id, v := range s.complaints {
		c.complaints[id] = v
	}
	for id, v := range s.reports {
		c.reports[id] = v
	}
	return c
}

// fakeStore implements Store over in-memory maps with transactional
// semantics: fn works on a staged copy that replaces the state only on
// success.
type fakeStore struct {
	state *fakeState

	// failAudit makes AppendAudit fail, for atomicity tests.
	failAudit bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{state: &fakeState{
		complaints: make(map[int64]domain.Complaint),
		reports:    make(map[int64]domain.InfrastructureReport),
		nextID:     1,
	}}
}

func (s *fakeStore) WithTx(ctx context.Context, fn func(tx Tx) error) error {
	staged := s.state.clone()
	tx := &fakeTx{state: staged, failAudit: s.failAudit}
	if err := fn(tx); err != nil {
		return err
	}
	s.state = staged
	return nil
}

type fakeTx struct {
	state     *fakeState
	failAudit bool
}

func (t *fakeTx) CreateComplaint(_ context.Context, c *domain.Complaint) error {
	c.ID = t.state.nextID
	t.state.nextID++
	t.state.complaints[c.ID] = *c
	return nil
}

func (t *fakeTx) GetComplaintForUpdate(_ context.Context, id int64) (*domain.Complaint, error) {
	c, ok := t.state.complaints[id]
	if !ok {
		return nil, apperrors.NotFound(apperrors.CodeComplaintNotFound,
			fmt.Sprintf("complaint %d not found", id))
	}
	return &c, nil
}

func (t *fakeTx) SaveComplaint(_ context.Context, c *domain.Complaint) error {
	if _, ok := t.state.complaints[c.ID]; !ok {
		return apperrors.NotFound(apperrors.CodeComplaintNotFound,
			fmt.Sprintf("complaint %d not found", c.ID))
	}
	t.state.complaints[c.ID] = *c
	return nil
}

func (t *fakeTx) CreateReport(_ context.Context, r *domain.InfrastructureReport) error {
	r.ID = t.state.nextID
	t.state.nextID++
	t.state.reports[r.ID] = *r
	return nil
}

func (t *fakeTx) GetReportForUpdate(_ context.Context, id int64) (*domain.InfrastructureReport, error) {
	r, ok := t.state.reports[id]
	if !ok {
		return nil, apperrors.NotFound(apperrors.CodeReportNotFound,
			fmt.Sprintf("report %d not found", id))
	}
	return &r, nil
}

func (t *fakeTx) SaveReport(_ context.Context, r *domain.InfrastructureReport) error {
	if _, ok := t.state.reports[r.ID]; !ok {
		return apperrors.NotFound(apperrors.CodeReportNotFound,
			fmt.Sprintf("report %d not found", r.ID))
	}
	t.state.reports[r.ID] = *r
	return nil
}

func (t *fakeTx) AppendHistory(_ context.Context, h *domain.StatusHistory) error {
	h.ID = t.state.nextID
	t.state.nextID++
	t.state.history = append(t.state.history, *h)
	return nil
}

func (t *fakeTx) AppendAudit(_ context.Context, a *domain.AuditLog) error {
	if t.failAudit {
		return apperrors.StorageUnavailable(errors.New("audit write refused"))
	}
	a.ID = t.state.nextID
	t.state.nextID++
	t.state.audits = append(t.state.audits, *a)
	return nil
}

// historyFor returns the history entries for one resource in insertion order.
func (s *fakeStore) historyFor(rt domain.ResourceType, id int64) []domain.StatusHistory {
	var out []domain.StatusHistory
	for _, h := range s.state.history {
		if h.ResourceType == rt && h.ResourceID == id {
			out = append(out, h)
		}
	}
	return out
}

// auditsFor returns the audit entries for one resource in insertion order.
func (s *fakeStore) auditsFor(rt domain.ResourceType, id int64) []domain.AuditLog {
	var out []domain.AuditLog
	for _, a := range s.state.audits {
		if a.ResourceType == rt && a.ResourceID != nil && *a.ResourceID == id {
			out = append(out, a)
		}
	}
	return out
}

// fakeDirectory implements Directory over a user map.
type fakeDirectory struct {
	users map[int64]*domain.User
}

func (d *fakeDirectory) GetUser(_ context.Context, id int64) (*domain.User, error) {
	u, ok := d.users[id]
	if !ok {
		return nil, apperrors.NotFound(apperrors.CodeUserNotFound,
			fmt.Sprintf("user %d not found", id))
	}
	return u, nil
}

func (d *fakeDirectory) HasPermission(role *domain.Role, key string) bool {
	return role.Grants(key)
}
