package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/TheVish04/CAprep/internal/core/port"
	"github.com/TheVish04/CAprep/internal/transport/http/middleware"
	"github.com/TheVish04/CAprep/internal/usecase"
)

// AuthHandler serves the /api/auth endpoints.
type AuthHandler struct {
	otp          *usecase.OTPService
	registration *usecase.RegistrationService
	auth         *usecase.AuthService
	reset        *usecase.PasswordResetService
}

func NewAuthHandler(
	otp *usecase.OTPService,
	registration *usecase.RegistrationService,
	auth *usecase.AuthService,
	reset *usecase.PasswordResetService,
) *AuthHandler {
	return &AuthHandler{
		otp:          otp,
		registration: registration,
		auth:         auth,
		reset:        reset,
	}
}

// SendOTP issues a registration verification code. Taken emails are
// refused up front so the issue quota is not spent on them.
func (h *AuthHandler) SendOTP(c *gin.Context) {
	var req sendOTPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}

	taken, err := h.registration.EmailInUse(c.Request.Context(), req.Email)
	if err != nil {
		respondMapped(c, err, registrationErrorCases)
		return
	}
	if taken {
		respondError(c, http.StatusConflict, "EMAIL_TAKEN", "An account with this email already exists")
		return
	}

	if err := h.otp.RequestCode(c.Request.Context(), req.Email, port.OTPPurposeRegistration); err != nil {
		setRetryAfter(c, err)
		respondMapped(c, err, otpErrorCases)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Verification code sent"})
}

// VerifyOTP checks a registration code and records the verified mark.
func (h *AuthHandler) VerifyOTP(c *gin.Context) {
	var req verifyOTPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}

	if err := h.otp.VerifyCode(c.Request.Context(), req.Email, port.OTPPurposeRegistration, req.Code); err != nil {
		respondMapped(c, err, otpErrorCases)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Email verified"})
}

// Register creates an account for a verified email.
func (h *AuthHandler) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}

	result, err := h.registration.Register(c.Request.Context(), req.FullName, req.Email, req.Password)
	if err != nil {
		respondMapped(c, err, registrationErrorCases)
		return
	}

	c.JSON(http.StatusCreated, tokenResponse{
		Token:        result.AccessToken,
		RefreshToken: result.RefreshToken,
		User:         newUserResponse(result.User),
	})
}

// Login authenticates a user.
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}

	result, err := h.auth.Login(c.Request.Context(), req.Email, req.Password, c.ClientIP())
	if err != nil {
		respondMapped(c, err, authErrorCases)
		return
	}

	c.JSON(http.StatusOK, tokenResponse{
		Token:        result.AccessToken,
		RefreshToken: result.RefreshToken,
		User:         newUserResponse(result.User),
	})
}

// Refresh exchanges a refresh token, or an expired bearer token, for a new
// access token.
func (h *AuthHandler) Refresh(c *gin.Context) {
	var req refreshRequest
	if err := c.ShouldBindJSON(&req); err != nil && c.Request.ContentLength > 0 {
		respondBadRequest(c, err)
		return
	}

	result, err := h.auth.Refresh(c.Request.Context(), req.RefreshToken, middleware.BearerToken(c))
	if err != nil {
		respondMapped(c, err, authErrorCases)
		return
	}

	c.JSON(http.StatusOK, tokenResponse{
		Token:        result.AccessToken,
		RefreshToken: result.RefreshToken,
	})
}

// Me returns the authenticated user's profile.
func (h *AuthHandler) Me(c *gin.Context) {
	identity, ok := middleware.IdentityFrom(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "AUTH_REQUIRED", "Authentication required")
		return
	}

	user, err := h.auth.Profile(c.Request.Context(), identity.UserID)
	if err != nil {
		respondMapped(c, err, authErrorCases)
		return
	}

	c.JSON(http.StatusOK, newUserResponse(user))
}

// ForgotPassword starts the reset flow. The response is identical whether
// or not the email has an account.
func (h *AuthHandler) ForgotPassword(c *gin.Context) {
	var req forgotPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}

	if err := h.reset.RequestReset(c.Request.Context(), req.Email); err != nil {
		setRetryAfter(c, err)
		respondMapped(c, err, otpErrorCases)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "If the email is registered, a reset code has been sent"})
}

// VerifyResetOTP checks the emailed reset code without consuming it; the
// same code is submitted again with the new password.
func (h *AuthHandler) VerifyResetOTP(c *gin.Context) {
	var req verifyOTPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}

	if err := h.reset.VerifyResetCode(c.Request.Context(), req.Email, req.Code); err != nil {
		respondMapped(c, err, resetErrorCases)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Code verified"})
}

// ResetPassword completes the flow with the emailed code and new password.
func (h *AuthHandler) ResetPassword(c *gin.Context) {
	var req resetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}

	if err := h.reset.ResetPassword(c.Request.Context(), req.Email, req.OTP, req.NewPassword); err != nil {
		respondMapped(c, err, resetErrorCases)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Password updated"})
}
