package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestAppError_Error(t *testing.T) {
	tests := []struct {
		name string
		err  *AppError
		want string
	}{
		{
			name: "without wrapped error",
			err:  New("COMPLAINT_NOT_FOUND", "complaint not found", http.StatusNotFound),
			want: "COMPLAINT_NOT_FOUND: complaint not found",
		},
		{
			name: "with wrapped error",
			err:  Wrap(fmt.Errorf("db error"), "DB_ERROR", "database failure", http.StatusInternalServerError),
			want: "DB_ERROR: database failure: db error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestAppError_Unwrap(t *testing.T) {
	inner := fmt.Errorf("inner error")
	appErr := Wrap(inner, "CODE", "msg", 500)

	if !errors.Is(appErr, inner) {
		t.Error("errors.Is should match inner error")
	}
}

func TestIsAppError(t *testing.T) {
	appErr := NotFound(CodeComplaintNotFound, "complaint not found")
	wrapped := fmt.Errorf("wrapped: %w", appErr)

	got, ok := IsAppError(wrapped)
	if !ok {
		t.Fatal("IsAppError should return true for wrapped AppError")
	}
	if got.Code != CodeComplaintNotFound {
		t.Errorf("Code = %q, want %s", got.Code, CodeComplaintNotFound)
	}
}

func TestTypedConstructorsMatchSentinels(t *testing.T) {
	tests := []struct {
		name       string
		err        *AppError
		sentinel   error
		wantStatus int
	}{
		{"NotFound", NotFound("NF", "not found"), ErrNotFound, http.StatusNotFound},
		{"Validation", Validation("VF", "invalid"), ErrValidation, http.StatusBadRequest},
		{"InvalidTransition", InvalidTransition("IT", "not allowed"), ErrInvalidTransition, http.StatusConflict},
		{"Permission", Permission("PD", "denied"), ErrPermission, http.StatusForbidden},
		{"StorageUnavailable", StorageUnavailable(fmt.Errorf("timeout")), ErrStorageUnavail, http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err.HTTPStatus != tt.wantStatus {
				t.Errorf("HTTPStatus = %d, want %d", tt.err.HTTPStatus, tt.wantStatus)
			}
			if !errors.Is(tt.err, tt.sentinel) {
				t.Errorf("errors.Is(%v, sentinel) = false, want true", tt.err)
			}
		})
	}
}

func TestStorageUnavailableKeepsCause(t *testing.T) {
	cause := fmt.Errorf("connection refused")
	err := StorageUnavailable(cause)

	if !errors.Is(err, cause) {
		t.Error("errors.Is should match the storage cause")
	}
	if err.Code != CodeStorageUnavailable {
		t.Errorf("Code = %q, want %s", err.Code, CodeStorageUnavailable)
	}
}
