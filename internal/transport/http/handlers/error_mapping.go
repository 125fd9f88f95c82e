package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/TheVish04/CAprep/internal/infra/email"
	"github.com/TheVish04/CAprep/internal/infra/security"
	"github.com/TheVish04/CAprep/internal/transport/http/middleware"
	"github.com/TheVish04/CAprep/internal/usecase"
)

// errorCase maps one usecase sentinel onto a wire status and code.
type errorCase struct {
	match   error
	status  int
	code    string
	message string
}

var authErrorCases = []errorCase{
	{usecase.ErrEmailNotRegistered, http.StatusUnauthorized, "EMAIL_NOT_REGISTERED", "No account exists for this email"},
	{usecase.ErrWrongPassword, http.StatusUnauthorized, "INVALID_CREDENTIALS", "Incorrect password"},
	{usecase.ErrAccountLocked, http.StatusTooManyRequests, "ACCOUNT_LOCKED", "Too many failed attempts, try again later"},
	{usecase.ErrRefreshInvalid, http.StatusUnauthorized, "INVALID_REFRESH_TOKEN", "Refresh token is invalid or expired"},
	{usecase.ErrAuthRequired, http.StatusUnauthorized, "AUTH_REQUIRED", "Authentication required"},
}

var otpErrorCases = []errorCase{
	{usecase.ErrOTPRateLimited, http.StatusTooManyRequests, "OTP_RATE_LIMITED", "Too many codes requested, try again later"},
	{usecase.ErrOTPAttemptsExceeded, http.StatusBadRequest, "OTP_ATTEMPTS_EXCEEDED", "Too many wrong attempts, request a new code"},
	{usecase.ErrOTPNotFound, http.StatusBadRequest, "OTP_NOT_FOUND", "No code was requested for this email"},
	{usecase.ErrOTPExpired, http.StatusBadRequest, "OTP_EXPIRED", "Code expired, request a new one"},
	{usecase.ErrOTPInvalid, http.StatusBadRequest, "OTP_INVALID", "Incorrect verification code"},
	{email.ErrNoCredentials, http.StatusInternalServerError, "NO_CREDENTIALS", "Email delivery is not configured"},
	{email.ErrInvalidRecipient, http.StatusBadRequest, "INVALID_EMAIL", "Email address was rejected"},
	{email.ErrSendFailed, http.StatusInternalServerError, "EMAIL_SEND_FAILED", "Could not send the email, try again"},
}

var registrationErrorCases = []errorCase{
	{usecase.ErrEmailNotVerified, http.StatusBadRequest, "EMAIL_NOT_VERIFIED", "Verify your email before registering"},
	{usecase.ErrEmailTaken, http.StatusConflict, "EMAIL_TAKEN", "An account with this email already exists"},
	{usecase.ErrInvalidEmail, http.StatusBadRequest, "INVALID_EMAIL", "Email address is malformed"},
	{usecase.ErrInvalidFullName, http.StatusBadRequest, "INVALID_NAME", "Full name can only contain letters and spaces"},
	{security.ErrWeakPassword, http.StatusBadRequest, "WEAK_PASSWORD", "Password does not meet the requirements"},
}

var resetErrorCases = []errorCase{
	{usecase.ErrResetTokenInvalid, http.StatusBadRequest, "INVALID_RESET_TOKEN", "Reset code is invalid or expired"},
	{security.ErrWeakPassword, http.StatusBadRequest, "WEAK_PASSWORD", "Password does not meet the requirements"},
}

// respondMapped walks the cases and writes the first match; unmatched
// errors become an opaque 500 carrying the request ID for correlation.
func respondMapped(c *gin.Context, err error, cases []errorCase) {
	for _, ec := range cases {
		if errors.Is(err, ec.match) {
			respondError(c, ec.status, ec.code, ec.message)
			return
		}
	}
	respondInternal(c, err)
}

func respondError(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, gin.H{
		"error": gin.H{
			"code":    code,
			"message": message,
		},
	})
}

func respondInternal(c *gin.Context, err error) {
	_ = c.Error(err)
	c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
		"error": gin.H{
			"code":       "INTERNAL",
			"message":    "Something went wrong",
			"request_id": middleware.RequestIDFrom(c),
		},
	})
}

func respondBadRequest(c *gin.Context, err error) {
	respondError(c, http.StatusBadRequest, "BAD_REQUEST", err.Error())
}

// setRetryAfter adds the Retry-After header when the error carries a retry
// hint from the OTP issue quota.
func setRetryAfter(c *gin.Context, err error) {
	var limited *usecase.RateLimitedError
	if errors.As(err, &limited) && limited.RetryAfter > 0 {
		c.Header("Retry-After", fmt.Sprintf("%.0f", limited.RetryAfter.Seconds()))
	}
}
