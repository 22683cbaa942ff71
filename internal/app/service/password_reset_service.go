package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/electroegy/electroegy-backend/internal/app/model"
	"github.com/electroegy/electroegy-backend/internal/app/repository"
	"github.com/electroegy/electroegy-backend/pkg/logger"
	"github.com/electroegy/electroegy-backend/pkg/mail"
	"github.com/electroegy/electroegy-backend/pkg/util"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	ErrInvalidResetToken = errors.New("invalid or expired reset token")
	ErrResetTokenExpired = errors.New("reset token has expired")
	ErrResetTokenUsed    = errors.New("reset token has already been used")
)

// ResetTokenExpiry is how long a password reset link stays valid.
const ResetTokenExpiry = 30 * time.Minute

type PasswordResetService interface {
	RequestReset(email string) error
	ResetPassword(token, newPassword string) error
}

type passwordResetService struct {
	resetRepo repository.PasswordResetRepository
	userRepo  repository.UserRepository
	mailer    mail.Sender
	baseURL   string
}

func NewPasswordResetService(
	resetRepo repository.PasswordResetRepository,
	userRepo repository.UserRepository,
	mailer mail.Sender,
	baseURL string,
) PasswordResetService {
	return &passwordResetService{
		resetRepo: resetRepo,
		userRepo:  userRepo,
		mailer:    mailer,
		baseURL:   baseURL,
	}
}

// RequestReset emails a reset link. Unknown addresses get the same response
// as known ones so the endpoint cannot be used to enumerate accounts.
func (s *passwordResetService) RequestReset(email string) error {
	logger.Info("Processing password reset request", map[string]interface{}{
		"email": email,
	})

	user, err := s.userRepo.FindByEmail(email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			logger.Warn("Password reset requested for non-existent email", map[string]interface{}{
				"email": email,
			})
			return nil
		}
		logger.Error("Failed to find user for password reset", err, map[string]interface{}{
			"email": email,
		})
		return err
	}

	reset := &model.PasswordReset{
		Email:     email,
		Token:     uuid.NewString(),
		ExpiresAt: time.Now().Add(ResetTokenExpiry),
		Used:      false,
	}

	if err := s.resetRepo.Create(reset); err != nil {
		logger.Error("Failed to create password reset record", err, map[string]interface{}{
			"email": email,
		})
		return err
	}

	subject := "Reset your password"
	body := fmt.Sprintf(
		"Hi %s,\n\nUse the link below to reset your password. "+
			"It expires in %d minutes.\n\n%s/reset-password?token=%s\n\n"+
			"If you did not request this, you can ignore this email.",
		user.Username, int(ResetTokenExpiry.Minutes()), s.baseURL, reset.Token,
	)
	if err := s.mailer.Send(email, subject, body); err != nil {
		logger.Error("Failed to send password reset email", err, map[string]interface{}{
			"email": email,
		})
		return err
	}

	logger.Info("Password reset email sent", map[string]interface{}{
		"email":      email,
		"expires_at": reset.ExpiresAt,
	})
	return nil
}

func (s *passwordResetService) ResetPassword(token, newPassword string) error {
	logger.Info("Processing password reset with token")

	reset, err := s.resetRepo.FindByToken(token)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			logger.Warn("Invalid reset token provided", nil)
			return ErrInvalidResetToken
		}
		logger.Error("Failed to find password reset record", err, nil)
		return err
	}

	if reset.Used {
		logger.Warn("Reset token already used", map[string]interface{}{
			"email": reset.Email,
		})
		return ErrResetTokenUsed
	}

	if time.Now().After(reset.ExpiresAt) {
		logger.Warn("Reset token expired", map[string]interface{}{
			"email":      reset.Email,
			"expires_at": reset.ExpiresAt,
		})
		return ErrResetTokenExpired
	}

	user, err := s.userRepo.FindByEmail(reset.Email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			logger.Warn("User for reset token no longer exists", map[string]interface{}{
				"email": reset.Email,
			})
			return ErrInvalidResetToken
		}
		return err
	}

	hashedPassword, err := util.HashPassword(newPassword)
	if err != nil {
		logger.Error("Failed to hash new password", err, map[string]interface{}{
			"email": reset.Email,
		})
		return err
	}

	user.PasswordHash = hashedPassword
	if err := s.userRepo.Update(user); err != nil {
		logger.Error("Failed to update password", err, map[string]interface{}{
			"user_id": user.ID,
		})
		return err
	}

	if err := s.resetRepo.MarkAsUsed(reset.ID); err != nil {
		logger.Error("Failed to mark reset token as used", err, map[string]interface{}{
			"id": reset.ID,
		})
		return err
	}

	logger.Info("Password reset completed", map[string]interface{}{
		"user_id": user.ID,
		"email":   reset.Email,
	})
	return nil
}
