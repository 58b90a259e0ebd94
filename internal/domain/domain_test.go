package domain

import (
	"testing"
	"time"
)

func TestComplaintStatusTransitions(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		from   ComplaintStatus
		to     ComplaintStatus
		wantOK bool
	}{
		{"new to verified", ComplaintNew, ComplaintVerified, true},
		{"new to rejected", ComplaintNew, ComplaintRejected, true},
		{"verified to assigned", ComplaintVerified, ComplaintAssigned, true},
		{"verified to rejected", ComplaintVerified, ComplaintRejected, true},
		{"assigned to in_progress", ComplaintAssigned, ComplaintInProgress, true},
		{"in_progress to resolved", ComplaintInProgress, ComplaintResolved, true},
		{"no state skipping", ComplaintNew, ComplaintAssigned, false},
		{"no skipping to resolved", ComplaintAssigned, ComplaintResolved, false},
		{"no reject after assignment", ComplaintAssigned, ComplaintRejected, false},
		{"no reverse transition", ComplaintVerified, ComplaintNew, false},
		{"resolved is terminal", ComplaintResolved, ComplaintInProgress, false},
		{"rejected is terminal", ComplaintRejected, ComplaintVerified, false},
		{"no self transition", ComplaintNew, ComplaintNew, false},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := tt.from.CanTransitionTo(tt.to); got != tt.wantOK {
				t.Errorf("CanTransitionTo(%s → %s) = %v, want %v", tt.from, tt.to, got, tt.wantOK)
			}
		})
	}
}

func TestComplaintStatusTerminal(t *testing.T) {
	t.Parallel()

	for _, s := range []ComplaintStatus{ComplaintResolved, ComplaintRejected} {
		if !s.Terminal() {
			t.Errorf("%s.Terminal() = false, want true", s)
		}
	}
	for _, s := range []ComplaintStatus{ComplaintNew, ComplaintVerified, ComplaintAssigned, ComplaintInProgress} {
		if s.Terminal() {
			t.Errorf("%s.Terminal() = true, want false", s)
		}
	}
}

func TestReportStatusTransitionsAreLinear(t *testing.T) {
	t.Parallel()

	chain := []ReportStatus{ReportNew, ReportVerified, ReportScheduled, ReportInProgress, ReportCompleted}

	for i, from := range chain {
		for j, to := range chain {
			wantOK := j == i+1
			if got := from.CanTransitionTo(to); got != wantOK {
				t.Errorf("CanTransitionTo(%s → %s) = %v, want %v", from, to, got, wantOK)
			}
		}
	}

	if !ReportCompleted.Terminal() {
		t.Error("completed.Terminal() = false, want true")
	}
}

func TestStatusVocabularies(t *testing.T) {
	t.Parallel()

	if ComplaintStatus("archived").Valid() {
		t.Error("unknown complaint status should not be valid")
	}
	if ReportStatus("rejected").Valid() {
		t.Error("reports have no rejected status")
	}
	if !Severity("critical").Valid() {
		t.Error("critical severity should be valid")
	}
	if ComplaintCategory("umum").Valid() {
		t.Error("unknown category should not be valid")
	}
	if !InfrastructureType("fasilitas_umum").Valid() {
		t.Error("fasilitas_umum should be valid")
	}
	if !AnnouncementCategory("maintenance").Valid() {
		t.Error("maintenance announcement category should be valid")
	}
	if AuditAction("undo").Valid() {
		t.Error("undo is not an audit action")
	}
}

func TestAuditActionCritical(t *testing.T) {
	t.Parallel()

	critical := map[AuditAction]bool{
		AuditRoleChange: true,
		AuditDelete:     true,
	}
	all := []AuditAction{
		AuditCreate, AuditUpdate, AuditDelete, AuditStatusChange,
		AuditRoleChange, AuditLogin, AuditLogout,
	}
	for _, a := range all {
		if got := a.Critical(); got != critical[a] {
			t.Errorf("%s.Critical() = %v, want %v", a, got, critical[a])
		}
	}
}

func TestRoleGrants(t *testing.T) {
	t.Parallel()

	role := &Role{Permissions: BoolMap{
		PermComplaintVerify: true,
		PermComplaintHandle: false,
	}}

	if !role.Grants(PermComplaintVerify) {
		t.Error("granted permission should return true")
	}
	if role.Grants(PermComplaintHandle) {
		t.Error("explicitly false permission should return false")
	}
	if role.Grants(PermRolesManage) {
		t.Error("absent permission should return false")
	}

	var nilRole *Role
	if nilRole.Grants(PermComplaintVerify) {
		t.Error("nil role grants nothing")
	}
}

func TestUserActive(t *testing.T) {
	t.Parallel()

	now := time.Now().UTC()

	tests := []struct {
		name string
		user *User
		want bool
	}{
		{"active", &User{IsActive: true}, true},
		{"deactivated", &User{IsActive: false}, false},
		{"soft deleted", &User{IsActive: true, DeletedAt: &now}, false},
		{"nil", nil, false},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := tt.user.Active(); got != tt.want {
				t.Errorf("Active() = %v, want %v", got, tt.want)
			}
		})
	}
}
