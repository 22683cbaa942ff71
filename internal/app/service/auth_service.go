package service

import (
	"context"
	"errors"
	"time"

	"github.com/electroegy/electroegy-backend/internal/app/model"
	"github.com/electroegy/electroegy-backend/internal/app/repository"
	"github.com/electroegy/electroegy-backend/pkg/logger"
	"github.com/electroegy/electroegy-backend/pkg/redis"
	"github.com/electroegy/electroegy-backend/pkg/util"
	"gorm.io/gorm"
)

var (
	ErrEmailAlreadyExists    = errors.New("email already exists")
	ErrUsernameAlreadyExists = errors.New("username already exists")
	ErrInvalidCredentials    = errors.New("invalid email or password")
	ErrUserNotFound          = errors.New("user not found")
	ErrTwoFactorRequired     = errors.New("two-factor verification required")
)

type AuthService interface {
	Register(email, password, username, firstName, lastName string) (*model.User, *util.TokenPair, error)
	Login(email, password string) (*model.User, *util.TokenPair, error)
	Logout(tokenString string) error
	GetUserByID(id uint) (*model.User, error)
	UpdateProfile(userID uint, username, firstName, lastName string) (*model.User, error)
	SetTwoFactor(userID uint, enabled bool) (*model.User, error)
}

type authService struct {
	userRepo      repository.UserRepository
	twoFactor     TwoFactorService
	jwtSecret     string
	accessExpiry  time.Duration
	refreshExpiry time.Duration
}

func NewAuthService(
	userRepo repository.UserRepository,
	twoFactor TwoFactorService,
	jwtSecret string,
	accessExpiry, refreshExpiry time.Duration,
) AuthService {
	return &authService{
		userRepo:      userRepo,
		twoFactor:     twoFactor,
		jwtSecret:     jwtSecret,
		accessExpiry:  accessExpiry,
		refreshExpiry: refreshExpiry,
	}
}

func (s *authService) Register(email, password, username, firstName, lastName string) (*model.User, *util.TokenPair, error) {
	logger.Info("Attempting user registration", map[string]interface{}{
		"email":    email,
		"username": username,
	})

	existingUser, err := s.userRepo.FindByEmail(email)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		logger.Error("Failed to check existing email", err, map[string]interface{}{
			"email": email,
		})
		return nil, nil, err
	}
	if existingUser != nil {
		logger.Warn("Registration failed: email already exists", map[string]interface{}{
			"email": email,
		})
		return nil, nil, ErrEmailAlreadyExists
	}

	existingUser, err = s.userRepo.FindByUsername(username)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		logger.Error("Failed to check existing username", err, map[string]interface{}{
			"username": username,
		})
		return nil, nil, err
	}
	if existingUser != nil {
		logger.Warn("Registration failed: username already exists", map[string]interface{}{
			"username": username,
		})
		return nil, nil, ErrUsernameAlreadyExists
	}

	hashedPassword, err := util.HashPassword(password)
	if err != nil {
		logger.Error("Failed to hash password", err, map[string]interface{}{
			"email": email,
		})
		return nil, nil, err
	}

	user := &model.User{
		Email:        email,
		PasswordHash: hashedPassword,
		Username:     username,
		FirstName:    firstName,
		LastName:     lastName,
	}

	if err := s.userRepo.Create(user); err != nil {
		logger.Error("Failed to create user in database", err, map[string]interface{}{
			"email": email,
		})
		return nil, nil, err
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
		logger.Error("Failed to generate tokens", err, map[string]interface{}{
			"user_id": user.ID,
			"email":   email,
		})
		return nil, nil, err
	}

	logger.Info("User registered successfully", map[string]interface{}{
		"user_id":  user.ID,
		"email":    email,
		"username": username,
	})

	return user, tokens, nil
}

// Login checks the credentials and issues tokens. Accounts with two-factor
// enabled get a code by email instead; the caller must finish the login
// through the two-factor verification endpoint.
func (s *authService) Login(email, password string) (*model.User, *util.TokenPair, error) {
	logger.Info("Login attempt", map[string]interface{}{
		"email": email,
	})

	user, err := s.userRepo.FindByEmail(email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			logger.Warn("Login failed: user not found", map[string]interface{}{
				"email": email,
			})
			return nil, nil, ErrInvalidCredentials
		}
		logger.Error("Failed to find user", err, map[string]interface{}{
			"email": email,
		})
		return nil, nil, err
	}

	if !util.VerifyPassword(user.PasswordHash, password) {
		logger.Warn("Login failed: invalid password", map[string]interface{}{
			"email":   email,
			"user_id": user.ID,
		})
		return nil, nil, ErrInvalidCredentials
	}

	if user.TwoFactorEnabled {
		if err := s.twoFactor.SendCode(user); err != nil {
			return nil, nil, err
		}
		logger.Info("Two-factor code sent, login pending verification", map[string]interface{}{
			"user_id": user.ID,
			"email":   email,
		})
		return user, nil, ErrTwoFactorRequired
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
		logger.Error("Failed to generate tokens", err, map[string]interface{}{
			"user_id": user.ID,
			"email":   email,
		})
		return nil, nil, err
	}

	logger.Info("User logged in successfully", map[string]interface{}{
		"user_id": user.ID,
		"email":   email,
	})

	return user, tokens, nil
}

// Logout blacklists the access token for the rest of its lifetime.
func (s *authService) Logout(tokenString string) error {
	logger.Info("Logout attempt")

	claims, err := util.ValidateToken(tokenString, s.jwtSecret)
	if err != nil {
		logger.Warn("Logout with invalid token", nil)
		return err
	}

	remaining := time.Until(claims.ExpiresAt.Time)
	if remaining <= 0 {
		// Already expired, nothing to revoke
		return nil
	}

	if err := redis.BlacklistToken(context.Background(), tokenString, remaining); err != nil {
		logger.Error("Failed to blacklist token", err, map[string]interface{}{
			"user_id": claims.UserID,
		})
		return err
	}

	logger.Info("User logged out", map[string]interface{}{
		"user_id": claims.UserID,
	})
	return nil
}

func (s *authService) GetUserByID(id uint) (*model.User, error) {
	logger.Debug("Fetching user by ID", map[string]interface{}{
		"user_id": id,
	})

	user, err := s.userRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			logger.Warn("User not found", map[string]interface{}{
				"user_id": id,
			})
			return nil, ErrUserNotFound
		}
		logger.Error("Failed to fetch user", err, map[string]interface{}{
			"user_id": id,
		})
		return nil, err
	}

	return user, nil
}

func (s *authService) UpdateProfile(userID uint, username, firstName, lastName string) (*model.User, error) {
	logger.Info("Updating user profile", map[string]interface{}{
		"user_id": userID,
	})

	user, err := s.userRepo.FindByID(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			logger.Warn("User not found for profile update", map[string]interface{}{
				"user_id": userID,
			})
			return nil, ErrUserNotFound
		}
		logger.Error("Failed to fetch user for profile update", err, map[string]interface{}{
			"user_id": userID,
		})
		return nil, err
	}

	updated := false
	if username != "" && username != user.Username {
		existing, err := s.userRepo.FindByUsername(username)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		if existing != nil {
			return nil, ErrUsernameAlreadyExists
		}
		user.Username = username
		updated = true
	}
	if firstName != "" && firstName != user.FirstName {
		user.FirstName = firstName
		updated = true
	}
	if lastName != "" && lastName != user.LastName {
		user.LastName = lastName
		updated = true
	}

	if !updated {
		logger.Debug("No changes detected for user profile", map[string]interface{}{
			"user_id": userID,
		})
		return user, nil
	}

	if err := s.userRepo.Update(user); err != nil {
		logger.Error("Failed to update user profile", err, map[string]interface{}{
			"user_id": userID,
		})
		return nil, err
	}

	logger.Info("User profile updated successfully", map[string]interface{}{
		"user_id":  user.ID,
		"username": user.Username,
	})

	return user, nil
}

func (s *authService) SetTwoFactor(userID uint, enabled bool) (*model.User, error) {
	logger.Info("Changing two-factor setting", map[string]interface{}{
		"user_id": userID,
		"enabled": enabled,
	})

	user, err := s.userRepo.FindByID(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	if user.TwoFactorEnabled == enabled {
		return user, nil
	}

	user.TwoFactorEnabled = enabled
	if err := s.userRepo.Update(user); err != nil {
		return nil, err
	}

	logger.Info("Two-factor setting changed", map[string]interface{}{
		"user_id": userID,
		"enabled": enabled,
	})

	return user, nil
}
