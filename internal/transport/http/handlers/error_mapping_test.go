package handlers

import (
	"net/http"
	"testing"

	"github.com/TheVish04/CAprep/internal/infra/email"
	"github.com/TheVish04/CAprep/internal/usecase"
)

func findCase(t *testing.T, cases []errorCase, match error) errorCase {
	t.Helper()
	for _, ec := range cases {
		if ec.match == match {
			return ec
		}
	}
	t.Fatalf("no case mapped for %v", match)
	return errorCase{}
}

func TestOTPErrorStatuses(t *testing.T) {
	tests := []struct {
		err    error
		status int
		code   string
	}{
		{usecase.ErrOTPRateLimited, http.StatusTooManyRequests, "OTP_RATE_LIMITED"},
		{usecase.ErrOTPAttemptsExceeded, http.StatusBadRequest, "OTP_ATTEMPTS_EXCEEDED"},
		{usecase.ErrOTPNotFound, http.StatusBadRequest, "OTP_NOT_FOUND"},
		{usecase.ErrOTPExpired, http.StatusBadRequest, "OTP_EXPIRED"},
		{usecase.ErrOTPInvalid, http.StatusBadRequest, "OTP_INVALID"},
		{email.ErrSendFailed, http.StatusInternalServerError, "EMAIL_SEND_FAILED"},
	}
	for _, tc := range tests {
		ec := findCase(t, otpErrorCases, tc.err)
		if ec.status != tc.status {
			t.Errorf("%v mapped to %d, want %d", tc.err, ec.status, tc.status)
		}
		if ec.code != tc.code {
			t.Errorf("%v mapped to code %q, want %q", tc.err, ec.code, tc.code)
		}
	}
}

func TestRegistrationErrorStatuses(t *testing.T) {
	ec := findCase(t, registrationErrorCases, usecase.ErrEmailNotVerified)
	if ec.status != http.StatusBadRequest {
		t.Errorf("ErrEmailNotVerified mapped to %d, want %d", ec.status, http.StatusBadRequest)
	}
}

func TestResetErrorStatuses(t *testing.T) {
	ec := findCase(t, resetErrorCases, usecase.ErrResetTokenInvalid)
	if ec.status != http.StatusBadRequest {
		t.Errorf("ErrResetTokenInvalid mapped to %d, want %d", ec.status, http.StatusBadRequest)
	}
}
