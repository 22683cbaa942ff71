package service

import (
	"testing"
	"time"

	"github.com/electroegy/electroegy-backend/config"
	"github.com/electroegy/electroegy-backend/internal/app/repository"
	"github.com/electroegy/electroegy-backend/internal/db"
	"github.com/electroegy/electroegy-backend/pkg/mail"
	"github.com/electroegy/electroegy-backend/pkg/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const testJWTSecret = "test-secret-key"

func setupAuthServiceTest(t *testing.T) (AuthService, *gorm.DB) {
	testDB, err := db.SetupTestDB()
	require.NoError(t, err)
	t.Cleanup(func() {
		db.CleanupTestDB(testDB)
	})

	userRepo := repository.NewUserRepository(testDB)
	mailer := mail.NewSender(config.SMTPConfig{})
	twoFactor := NewTwoFactorService(userRepo, mailer, testJWTSecret, time.Hour, 24*time.Hour)
	authService := NewAuthService(userRepo, twoFactor, testJWTSecret, time.Hour, 24*time.Hour)

	return authService, testDB
}

func TestAuthService_Register_Success(t *testing.T) {
	authService, _ := setupAuthServiceTest(t)

	user, tokens, err := authService.Register("new@example.com", "password123", "newuser", "New", "User")
	require.NoError(t, err)
	assert.NotZero(t, user.ID)
	assert.Equal(t, "new@example.com", user.Email)
	assert.Equal(t, "newuser", user.Username)
	assert.False(t, user.IsStaff)
	assert.False(t, user.TwoFactorEnabled)
	require.NotNil(t, tokens)
	assert.NotEmpty(t, tokens.AccessToken)
	assert.NotEmpty(t, tokens.RefreshToken)

	// The stored hash is not the raw password
	assert.NotEqual(t, "password123", user.PasswordHash)

	claims, err := util.ValidateToken(tokens.AccessToken, testJWTSecret)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)
	assert.Equal(t, user.Email, claims.Email)
}

func TestAuthService_Register_DuplicateEmail(t *testing.T) {
	authService, _ := setupAuthServiceTest(t)

	_, _, err := authService.Register("dup@example.com", "password123", "first", "", "")
	require.NoError(t, err)

	_, _, err = authService.Register("dup@example.com", "password123", "second", "", "")
	assert.ErrorIs(t, err, ErrEmailAlreadyExists)
}

func TestAuthService_Register_DuplicateUsername(t *testing.T) {
	authService, _ := setupAuthServiceTest(t)

	_, _, err := authService.Register("first@example.com", "password123", "taken", "", "")
	require.NoError(t, err)

	_, _, err = authService.Register("second@example.com", "password123", "taken", "", "")
	assert.ErrorIs(t, err, ErrUsernameAlreadyExists)
}

func TestAuthService_Login_Success(t *testing.T) {
	authService, _ := setupAuthServiceTest(t)

	registered, _, err := authService.Register("login@example.com", "password123", "loginuser", "", "")
	require.NoError(t, err)

	user, tokens, err := authService.Login("login@example.com", "password123")
	require.NoError(t, err)
	assert.Equal(t, registered.ID, user.ID)
	require.NotNil(t, tokens)
	assert.NotEmpty(t, tokens.AccessToken)
}

func TestAuthService_Login_WrongPassword(t *testing.T) {
	authService, _ := setupAuthServiceTest(t)

	_, _, err := authService.Register("login@example.com", "password123", "loginuser", "", "")
	require.NoError(t, err)

	_, _, err = authService.Login("login@example.com", "wrongpass")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestAuthService_Login_UnknownEmail(t *testing.T) {
	authService, _ := setupAuthServiceTest(t)

	_, _, err := authService.Login("ghost@example.com", "password123")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestAuthService_GetUserByID(t *testing.T) {
	authService, _ := setupAuthServiceTest(t)

	registered, _, err := authService.Register("me@example.com", "password123", "meuser", "", "")
	require.NoError(t, err)

	user, err := authService.GetUserByID(registered.ID)
	require.NoError(t, err)
	assert.Equal(t, "me@example.com", user.Email)

	_, err = authService.GetUserByID(9999)
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestAuthService_UpdateProfile(t *testing.T) {
	authService, _ := setupAuthServiceTest(t)

	registered, _, err := authService.Register("profile@example.com", "password123", "profileuser", "Old", "Name")
	require.NoError(t, err)

	user, err := authService.UpdateProfile(registered.ID, "", "New", "")
	require.NoError(t, err)
	assert.Equal(t, "New", user.FirstName)
	assert.Equal(t, "Name", user.LastName)
	assert.Equal(t, "profileuser", user.Username)
}

func TestAuthService_UpdateProfile_UsernameTaken(t *testing.T) {
	authService, _ := setupAuthServiceTest(t)

	_, _, err := authService.Register("a@example.com", "password123", "taken", "", "")
	require.NoError(t, err)
	registered, _, err := authService.Register("b@example.com", "password123", "free", "", "")
	require.NoError(t, err)

	_, err = authService.UpdateProfile(registered.ID, "taken", "", "")
	assert.ErrorIs(t, err, ErrUsernameAlreadyExists)
}

func TestAuthService_SetTwoFactor(t *testing.T) {
	authService, _ := setupAuthServiceTest(t)

	registered, _, err := authService.Register("2fa@example.com", "password123", "tfauser", "", "")
	require.NoError(t, err)

	user, err := authService.SetTwoFactor(registered.ID, true)
	require.NoError(t, err)
	assert.True(t, user.TwoFactorEnabled)

	user, err = authService.SetTwoFactor(registered.ID, false)
	require.NoError(t, err)
	assert.False(t, user.TwoFactorEnabled)

	_, err = authService.SetTwoFactor(9999, true)
	assert.ErrorIs(t, err, ErrUserNotFound)
}
