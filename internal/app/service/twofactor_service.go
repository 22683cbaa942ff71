package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/electroegy/electroegy-backend/internal/app/model"
	"github.com/electroegy/electroegy-backend/internal/app/repository"
	"github.com/electroegy/electroegy-backend/pkg/logger"
	"github.com/electroegy/electroegy-backend/pkg/mail"
	"github.com/electroegy/electroegy-backend/pkg/redis"
	"github.com/electroegy/electroegy-backend/pkg/util"
	"gorm.io/gorm"
)

var ErrInvalidTwoFactorCode = errors.New("invalid or expired verification code")

// TwoFactorCodeTTL is how long an emailed login code stays redeemable.
const TwoFactorCodeTTL = 5 * time.Minute

type TwoFactorService interface {
	SendCode(user *model.User) error
	RequestCode(email string) error
	VerifyCode(email, code string) (*model.User, *util.TokenPair, error)
}

type twoFactorService struct {
	userRepo      repository.UserRepository
	mailer        mail.Sender
	jwtSecret     string
	accessExpiry  time.Duration
	refreshExpiry time.Duration
}

func NewTwoFactorService(
	userRepo repository.UserRepository,
	mailer mail.Sender,
	jwtSecret string,
	accessExpiry, refreshExpiry time.Duration,
) TwoFactorService {
	return &twoFactorService{
		userRepo:      userRepo,
		mailer:        mailer,
		jwtSecret:     jwtSecret,
		accessExpiry:  accessExpiry,
		refreshExpiry: refreshExpiry,
	}
}

// SendCode emails the user a short-lived login code. Any previous code for
// the same account is replaced.
func (s *twoFactorService) SendCode(user *model.User) error {
	logger.Info("Sending two-factor code", map[string]interface{}{
		"user_id": user.ID,
		"email":   user.Email,
	})

	code, err := util.GenerateVerificationCode()
	if err != nil {
		logger.Error("Failed to generate two-factor code", err, map[string]interface{}{
			"user_id": user.ID,
		})
		return err
	}

	if err := redis.StoreTwoFactorCode(context.Background(), user.Email, code, TwoFactorCodeTTL); err != nil {
		logger.Error("Failed to store two-factor code", err, map[string]interface{}{
			"user_id": user.ID,
		})
		return err
	}

	subject := "Your login verification code"
	body := fmt.Sprintf(
		"Hi %s,\n\nYour verification code is %s. It expires in %d minutes.\n\n"+
			"If you did not try to log in, you can ignore this email.",
		user.Username, code, int(TwoFactorCodeTTL.Minutes()),
	)
	if err := s.mailer.Send(user.Email, subject, body); err != nil {
		logger.Error("Failed to send two-factor code email", err, map[string]interface{}{
			"user_id": user.ID,
			"email":   user.Email,
		})
		return err
	}

	logger.Info("Two-factor code sent", map[string]interface{}{
		"user_id": user.ID,
		"email":   user.Email,
	})
	return nil
}

// RequestCode re-sends a login code to an account mid two-factor login.
// Unknown emails and accounts without two-factor enabled are silently
// ignored so the endpoint cannot be used to probe for accounts.
func (s *twoFactorService) RequestCode(email string) error {
	logger.Info("Two-factor code requested", map[string]interface{}{
		"email": email,
	})

	user, err := s.userRepo.FindByEmail(email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			logger.Warn("Two-factor code requested for unknown email", map[string]interface{}{
				"email": email,
			})
			return nil
		}
		return err
	}

	if !user.TwoFactorEnabled {
		logger.Warn("Two-factor code requested for account without two-factor", map[string]interface{}{
			"user_id": user.ID,
		})
		return nil
	}

	return s.SendCode(user)
}

// VerifyCode redeems an emailed code and completes the login. Codes are
// single-use: a successful match deletes the stored code.
func (s *twoFactorService) VerifyCode(email, code string) (*model.User, *util.TokenPair, error) {
	logger.Info("Verifying two-factor code", map[string]interface{}{
		"email": email,
	})

	user, err := s.userRepo.FindByEmail(email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			logger.Warn("Two-factor verification for unknown email", map[string]interface{}{
				"email": email,
			})
			return nil, nil, ErrInvalidTwoFactorCode
		}
		return nil, nil, err
	}

	ok, err := redis.ConsumeTwoFactorCode(context.Background(), email, code)
	if err != nil {
		logger.Error("Failed to verify two-factor code", err, map[string]interface{}{
			"email": email,
		})
		return nil, nil, err
	}
	if !ok {
		logger.Warn("Two-factor verification failed: wrong or expired code", map[string]interface{}{
			"email": email,
		})
		return nil, nil, ErrInvalidTwoFactorCode
	}

	tokens, err := util.GenerateTokenPair(
		user.ID,
		user.Email,
		user.IsStaff,
		s.jwtSecret,
		s.accessExpiry,
		s.refreshExpiry,
	)
	if err != nil {
		logger.Error("Failed to generate tokens after two-factor verification", err, map[string]interface{}{
			"user_id": user.ID,
		})
		return nil, nil, err
	}

	logger.Info("Two-factor verification succeeded", map[string]interface{}{
		"user_id": user.ID,
		"email":   email,
	})

	return user, tokens, nil
}
