package controller

import (
	"errors"
	"net/http"

	"github.com/electroegy/electroegy-backend/internal/app/model"
	"github.com/electroegy/electroegy-backend/internal/app/service"
	apperrors "github.com/electroegy/electroegy-backend/internal/errors"
	"github.com/electroegy/electroegy-backend/internal/middleware"
	"github.com/gin-gonic/gin"
)

type AuthController struct {
	authService      service.AuthService
	resetService     service.PasswordResetService
	twoFactorService service.TwoFactorService
}

func NewAuthController(
	authService service.AuthService,
	resetService service.PasswordResetService,
	twoFactorService service.TwoFactorService,
) *AuthController {
	return &AuthController{
		authService:      authService,
		resetService:     resetService,
		twoFactorService: twoFactorService,
	}
}

type RegisterRequest struct {
	Email     string `json:"email" binding:"required,email"`
	Password  string `json:"password" binding:"required,min=8"`
	Username  string `json:"username" binding:"required,min=3,max=30"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type UpdateProfileRequest struct {
	Username  string `json:"username"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

type ForgotPasswordRequest struct {
	Email string `json:"email" binding:"required,email"`
}

type ResetPasswordRequest struct {
	Token       string `json:"token" binding:"required"`
	NewPassword string `json:"new_password" binding:"required,min=8"`
}

type TwoFactorVerifyRequest struct {
	Email string `json:"email" binding:"required,email"`
	Code  string `json:"code" binding:"required,len=6"`
}

func userResponse(user *model.User) gin.H {
	return gin.H{
		"id":                 user.ID,
		"email":              user.Email,
		"username":           user.Username,
		"first_name":         user.FirstName,
		"last_name":          user.LastName,
		"is_staff":           user.IsStaff,
		"two_factor_enabled": user.TwoFactorEnabled,
	}
}

// Register handles user registration
// POST /api/v1/auth/register
func (ctrl *AuthController) Register(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warn("Invalid registration request", map[string]interface{}{
			"error": err.Error(),
		})
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "Invalid registration data")
		return
	}

	user, tokens, err := ctrl.authService.Register(req.Email, req.Password, req.Username, req.FirstName, req.LastName)
	if err != nil {
		if errors.Is(err, service.ErrEmailAlreadyExists) {
			apperrors.Conflict(c, apperrors.AuthEmailAlreadyExists, "This email address is already in use")
			return
		}
		if errors.Is(err, service.ErrUsernameAlreadyExists) {
			apperrors.Conflict(c, apperrors.AuthUsernameExists, "This username is already taken")
			return
		}
		log.Error("Registration failed", err, map[string]interface{}{
			"email": req.Email,
		})
		apperrors.ParseAndRespond(c, http.StatusInternalServerError, err, "register user")
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "User registered successfully",
		"user":    userResponse(user),
		"tokens":  tokens,
	})
}

// Login handles user login, kicking off two-factor verification when the
// account has it enabled
// POST /api/v1/auth/login
func (ctrl *AuthController) Login(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warn("Invalid login request", map[string]interface{}{
			"error": err.Error(),
		})
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "Invalid login data")
		return
	}

	user, tokens, err := ctrl.authService.Login(req.Email, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrTwoFactorRequired) {
			c.JSON(http.StatusOK, gin.H{
				"two_factor_required": true,
				"message":             "A verification code has been sent to your email",
			})
			return
		}
		if errors.Is(err, service.ErrInvalidCredentials) {
			apperrors.RespondWithError(c, http.StatusUnauthorized, apperrors.AuthInvalidCredentials, "Invalid email or password")
			return
		}
		log.Error("Login failed", err, map[string]interface{}{
			"email": req.Email,
		})
		apperrors.ParseAndRespond(c, http.StatusInternalServerError, err, "login")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Logged in successfully",
		"user":    userResponse(user),
		"tokens":  tokens,
	})
}

// VerifyTwoFactor completes a two-factor login
// POST /api/v1/auth/2fa/verify
func (ctrl *AuthController) VerifyTwoFactor(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	var req TwoFactorVerifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warn("Invalid two-factor verification request", map[string]interface{}{
			"error": err.Error(),
		})
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "Invalid verification data")
		return
	}

	user, tokens, err := ctrl.twoFactorService.VerifyCode(req.Email, req.Code)
	if err != nil {
		if errors.Is(err, service.ErrInvalidTwoFactorCode) {
			apperrors.BadRequest(c, apperrors.AuthCodeInvalid, "Invalid or expired verification code")
			return
		}
		log.Error("Two-factor verification failed", err, map[string]interface{}{
			"email": req.Email,
		})
		apperrors.ParseAndRespond(c, http.StatusInternalServerError, err, "verify two-factor code")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Logged in successfully",
		"user":    userResponse(user),
		"tokens":  tokens,
	})
}

// RequestTwoFactorCode re-sends a login code during two-factor login
// POST /api/v1/auth/2fa/request-code
func (ctrl *AuthController) RequestTwoFactorCode(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	var req ForgotPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warn("Invalid two-factor code request", map[string]interface{}{
			"error": err.Error(),
		})
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "Invalid email address")
		return
	}

	if err := ctrl.twoFactorService.RequestCode(req.Email); err != nil {
		log.Error("Failed to send two-factor code", err, map[string]interface{}{
			"email": req.Email,
		})
		apperrors.ParseAndRespond(c, http.StatusInternalServerError, err, "send two-factor code")
		return
	}

	// Same response whether the account exists or has two-factor enabled
	c.JSON(http.StatusOK, gin.H{
		"message": "If the account requires verification, a code has been sent",
	})
}

// EnableTwoFactor turns on email-based login verification
// POST /api/v1/auth/2fa/enable
func (ctrl *AuthController) EnableTwoFactor(c *gin.Context) {
	ctrl.setTwoFactor(c, true)
}

// DisableTwoFactor turns off email-based login verification
// POST /api/v1/auth/2fa/disable
func (ctrl *AuthController) DisableTwoFactor(c *gin.Context) {
	ctrl.setTwoFactor(c, false)
}

func (ctrl *AuthController) setTwoFactor(c *gin.Context, enabled bool) {
	log := middleware.GetLoggerFromContext(c)

	userID, exists := middleware.GetUserID(c)
	if !exists {
		apperrors.Unauthorized(c, "")
		return
	}

	user, err := ctrl.authService.SetTwoFactor(userID, enabled)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			apperrors.NotFound(c, apperrors.ResourceNotFound, "User not found")
			return
		}
		log.Error("Failed to change two-factor setting", err, map[string]interface{}{
			"user_id": userID,
		})
		apperrors.ParseAndRespond(c, http.StatusInternalServerError, err, "change two-factor setting")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Two-factor setting updated",
		"user":    userResponse(user),
	})
}

// Logout revokes the current access token
// POST /api/v1/auth/logout
func (ctrl *AuthController) Logout(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	token, exists := middleware.GetToken(c)
	if !exists {
		apperrors.Unauthorized(c, "")
		return
	}

	if err := ctrl.authService.Logout(token); err != nil {
		log.Error("Logout failed", err, nil)
		apperrors.ParseAndRespond(c, http.StatusInternalServerError, err, "logout")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Logged out successfully",
	})
}

// Me returns the authenticated user's profile
// GET /api/v1/auth/me
func (ctrl *AuthController) Me(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	userID, exists := middleware.GetUserID(c)
	if !exists {
		apperrors.Unauthorized(c, "")
		return
	}

	user, err := ctrl.authService.GetUserByID(userID)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			apperrors.NotFound(c, apperrors.ResourceNotFound, "User not found")
			return
		}
		log.Error("Failed to fetch profile", err, map[string]interface{}{
			"user_id": userID,
		})
		apperrors.ParseAndRespond(c, http.StatusInternalServerError, err, "fetch profile")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user": userResponse(user),
	})
}

// UpdateMe updates the authenticated user's profile
// PUT /api/v1/auth/me
func (ctrl *AuthController) UpdateMe(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	userID, exists := middleware.GetUserID(c)
	if !exists {
		apperrors.Unauthorized(c, "")
		return
	}

	var req UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warn("Invalid profile update request", map[string]interface{}{
			"user_id": userID,
			"error":   err.Error(),
		})
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "Invalid profile data")
		return
	}

	user, err := ctrl.authService.UpdateProfile(userID, req.Username, req.FirstName, req.LastName)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			apperrors.NotFound(c, apperrors.ResourceNotFound, "User not found")
			return
		}
		if errors.Is(err, service.ErrUsernameAlreadyExists) {
			apperrors.Conflict(c, apperrors.AuthUsernameExists, "This username is already taken")
			return
		}
		log.Error("Profile update failed", err, map[string]interface{}{
			"user_id": userID,
		})
		apperrors.ParseAndRespond(c, http.StatusInternalServerError, err, "update profile")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Profile updated successfully",
		"user":    userResponse(user),
	})
}

// ForgotPassword starts the password reset flow
// POST /api/v1/auth/forgot-password
func (ctrl *AuthController) ForgotPassword(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	var req ForgotPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warn("Invalid forgot password request", map[string]interface{}{
			"error": err.Error(),
		})
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "Invalid email address")
		return
	}

	if err := ctrl.resetService.RequestReset(req.Email); err != nil {
		log.Error("Password reset request failed", err, map[string]interface{}{
			"email": req.Email,
		})
		apperrors.ParseAndRespond(c, http.StatusInternalServerError, err, "request password reset")
		return
	}

	// Same response whether the address exists or not
	c.JSON(http.StatusOK, gin.H{
		"message": "If the email address exists, a reset link has been sent",
	})
}

// ResetPassword completes the password reset flow
// POST /api/v1/auth/reset-password
func (ctrl *AuthController) ResetPassword(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	var req ResetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warn("Invalid reset password request", map[string]interface{}{
			"error": err.Error(),
		})
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "Invalid reset data")
		return
	}

	if err := ctrl.resetService.ResetPassword(req.Token, req.NewPassword); err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidResetToken):
			apperrors.BadRequest(c, apperrors.AuthResetTokenInvalid, "Invalid reset token")
		case errors.Is(err, service.ErrResetTokenUsed):
			apperrors.BadRequest(c, apperrors.AuthResetTokenInvalid, "This reset link has already been used")
		case errors.Is(err, service.ErrResetTokenExpired):
			apperrors.BadRequest(c, apperrors.AuthResetTokenExpired, "This reset link has expired")
		default:
			log.Error("Password reset failed", err, nil)
			apperrors.ParseAndRespond(c, http.StatusInternalServerError, err, "reset password")
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Password has been reset successfully",
	})
}
