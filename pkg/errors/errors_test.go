// pkg/errors/errors_test.go
// TEST TYPE: Unit Test
// DEPENDENCIES: None
// PURPOSE: Test error creation, wrapping, and utility functions

package errors_test

import (
	stderrors "errors"
	"testing"

	"github.com/modsmith/modsmith/pkg/errors"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		code    errors.ErrorCode
		message string
		wantStr string
	}{
		{
			name:    "conflict_error",
			code:    errors.ErrConflict,
			message: "projects are incompatible",
			wantStr: "[CONFLICT] projects are incompatible",
		},
		{
			name:    "integrity_error",
			code:    errors.ErrIntegrity,
			message: "hash mismatch",
			wantStr: "[INTEGRITY] hash mismatch",
		},
		{
			name:    "not_found_error",
			code:    errors.ErrNotFound,
			message: "project not found",
			wantStr: "[NOT_FOUND] project not found",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := errors.New(tt.code, tt.message)

			if err.Code != tt.code {
				t.Errorf("New() code = %v, want %v", err.Code, tt.code)
			}

			if err.Message != tt.message {
				t.Errorf("New() message = %q, want %q", err.Message, tt.message)
			}

			if err.Details == nil {
				t.Error("New() details should be initialized")
			}

			if got := err.Error(); got != tt.wantStr {
				t.Errorf("Error() = %q, want %q", got, tt.wantStr)
			}
		})
	}
}

func TestWrap(t *testing.T) {
	base := stderrors.New("connection refused")
	err := errors.Wrap(base, errors.ErrNetwork, "search failed")

	if !stderrors.Is(err, base) {
		t.Error("wrapped error should unwrap to the base error")
	}

	if errors.GetErrorCode(err) != errors.ErrNetwork {
		t.Errorf("GetErrorCode() = %v, want %v", errors.GetErrorCode(err), errors.ErrNetwork)
	}

	if errors.Wrap(nil, errors.ErrNetwork, "noop") != nil {
		t.Error("Wrap(nil) should return nil")
	}
}

func TestIsErrorCode(t *testing.T) {
	err := errors.Newf(errors.ErrIntegrity, "hash mismatch for %s", "sodium.jar")

	if !errors.IsErrorCode(err, errors.ErrIntegrity) {
		t.Error("IsErrorCode should match the error's code")
	}
	if errors.IsErrorCode(err, errors.ErrConflict) {
		t.Error("IsErrorCode should not match a different code")
	}
	if errors.IsErrorCode(stderrors.New("plain"), errors.ErrIntegrity) {
		t.Error("IsErrorCode should not match a plain error")
	}
}

func TestWithDetail(t *testing.T) {
	err := errors.New(errors.ErrConflict, "projects are incompatible").
		WithDetail("project", "AANobbMI").
		WithDetail("incompatibleWith", "P7dR8mSH")

	details := errors.GetErrorDetails(err)
	if details["project"] != "AANobbMI" {
		t.Errorf("details[project] = %v, want AANobbMI", details["project"])
	}
	if details["incompatibleWith"] != "P7dR8mSH" {
		t.Errorf("details[incompatibleWith] = %v, want P7dR8mSH", details["incompatibleWith"])
	}
}

func TestGetErrorCodeUnknown(t *testing.T) {
	if errors.GetErrorCode(stderrors.New("plain")) != errors.ErrUnknown {
		t.Error("plain errors should report ErrUnknown")
	}
}
