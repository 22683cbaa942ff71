package controller

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/electroegy/electroegy-backend/config"
	"github.com/electroegy/electroegy-backend/internal/app/repository"
	"github.com/electroegy/electroegy-backend/internal/app/service"
	"github.com/electroegy/electroegy-backend/internal/db"
	apperrors "github.com/electroegy/electroegy-backend/internal/errors"
	"github.com/electroegy/electroegy-backend/pkg/mail"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const controllerTestSecret = "test-secret-key"

func setupAuthControllerTest(t *testing.T) (*AuthController, *gin.Engine, *gorm.DB) {
	testDB, err := db.SetupTestDB()
	require.NoError(t, err)
	t.Cleanup(func() {
		db.CleanupTestDB(testDB)
	})

	userRepo := repository.NewUserRepository(testDB)
	resetRepo := repository.NewPasswordResetRepository(testDB)
	mailer := mail.NewSender(config.SMTPConfig{})

	twoFactorService := service.NewTwoFactorService(userRepo, mailer, controllerTestSecret, 15*time.Minute, 24*time.Hour)
	authService := service.NewAuthService(userRepo, twoFactorService, controllerTestSecret, 15*time.Minute, 24*time.Hour)
	resetService := service.NewPasswordResetService(resetRepo, userRepo, mailer, "http://localhost:3000")

	authController := NewAuthController(authService, resetService, twoFactorService)

	gin.SetMode(gin.TestMode)
	router := gin.New()

	return authController, router, testDB
}

func registerRequest() RegisterRequest {
	return RegisterRequest{
		Email:     "new@example.com",
		Password:  "supersecret1",
		Username:  "newuser",
		FirstName: "New",
		LastName:  "User",
	}
}

func TestAuthController_Register_Success(t *testing.T) {
	controller, router, _ := setupAuthControllerTest(t)

	router.POST("/auth/register", controller.Register)

	jsonBody, _ := json.Marshal(registerRequest())
	req := httptest.NewRequest(http.MethodPost, "/auth/register", bytes.NewBuffer(jsonBody))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusCreated, w.Code)

	var response map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))

	user, ok := response["user"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "new@example.com", user["email"])
	assert.Equal(t, "newuser", user["username"])
	assert.Equal(t, false, user["is_staff"])

	tokens, ok := response["tokens"].(map[string]interface{})
	require.True(t, ok)
	assert.NotEmpty(t, tokens["access_token"])
	assert.NotEmpty(t, tokens["refresh_token"])
}

func TestAuthController_Register_DuplicateEmail(t *testing.T) {
	controller, router, _ := setupAuthControllerTest(t)

	router.POST("/auth/register", controller.Register)

	jsonBody, _ := json.Marshal(registerRequest())
	req := httptest.NewRequest(http.MethodPost, "/auth/register", bytes.NewBuffer(jsonBody))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusCreated, w.Code)

	second := registerRequest()
	second.Username = "different"
	jsonBody, _ = json.Marshal(second)
	req = httptest.NewRequest(http.MethodPost, "/auth/register", bytes.NewBuffer(jsonBody))
	req.Header.Set("Content-Type", "application/json")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusConflict, w.Code)

	var response map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, apperrors.AuthEmailAlreadyExists, response["error"])
}

func TestAuthController_Register_InvalidPayload(t *testing.T) {
	controller, router, _ := setupAuthControllerTest(t)

	router.POST("/auth/register", controller.Register)

	tests := []struct {
		name    string
		reqBody map[string]interface{}
	}{
		{
			name:    "Missing email",
			reqBody: map[string]interface{}{"password": "supersecret1", "username": "someone"},
		},
		{
			name:    "Bad email",
			reqBody: map[string]interface{}{"email": "not-an-email", "password": "supersecret1", "username": "someone"},
		},
		{
			name:    "Short password",
			reqBody: map[string]interface{}{"email": "a@b.com", "password": "short", "username": "someone"},
		},
		{
			name:    "Short username",
			reqBody: map[string]interface{}{"email": "a@b.com", "password": "supersecret1", "username": "ab"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			jsonBody, _ := json.Marshal(tt.reqBody)
			req := httptest.NewRequest(http.MethodPost, "/auth/register", bytes.NewBuffer(jsonBody))
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, http.StatusBadRequest, w.Code)

			var response map[string]interface{}
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
			assert.Equal(t, apperrors.ValidationInvalidInput, response["error"])
		})
	}
}

func TestAuthController_Login_Success(t *testing.T) {
	controller, router, _ := setupAuthControllerTest(t)

	router.POST("/auth/register", controller.Register)
	router.POST("/auth/login", controller.Login)

	jsonBody, _ := json.Marshal(registerRequest())
	req := httptest.NewRequest(http.MethodPost, "/auth/register", bytes.NewBuffer(jsonBody))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusCreated, w.Code)

	jsonBody, _ = json.Marshal(LoginRequest{Email: "new@example.com", Password: "supersecret1"})
	req = httptest.NewRequest(http.MethodPost, "/auth/login", bytes.NewBuffer(jsonBody))
	req.Header.Set("Content-Type", "application/json")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var response map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))

	tokens, ok := response["tokens"].(map[string]interface{})
	require.True(t, ok)
	assert.NotEmpty(t, tokens["access_token"])
}

func TestAuthController_Login_WrongPassword(t *testing.T) {
	controller, router, _ := setupAuthControllerTest(t)

	router.POST("/auth/register", controller.Register)
	router.POST("/auth/login", controller.Login)

	jsonBody, _ := json.Marshal(registerRequest())
	req := httptest.NewRequest(http.MethodPost, "/auth/register", bytes.NewBuffer(jsonBody))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusCreated, w.Code)

	jsonBody, _ = json.Marshal(LoginRequest{Email: "new@example.com", Password: "wrongpassword"})
	req = httptest.NewRequest(http.MethodPost, "/auth/login", bytes.NewBuffer(jsonBody))
	req.Header.Set("Content-Type", "application/json")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)

	var response map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, apperrors.AuthInvalidCredentials, response["error"])
}

func TestAuthController_Login_UnknownEmail(t *testing.T) {
	controller, router, _ := setupAuthControllerTest(t)

	router.POST("/auth/login", controller.Login)

	jsonBody, _ := json.Marshal(LoginRequest{Email: "ghost@example.com", Password: "whatever1"})
	req := httptest.NewRequest(http.MethodPost, "/auth/login", bytes.NewBuffer(jsonBody))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthController_Me(t *testing.T) {
	controller, router, testDB := setupAuthControllerTest(t)

	userRepo := repository.NewUserRepository(testDB)
	twoFactorService := service.NewTwoFactorService(userRepo, mail.NewSender(config.SMTPConfig{}), controllerTestSecret, 15*time.Minute, 24*time.Hour)
	authService := service.NewAuthService(userRepo, twoFactorService, controllerTestSecret, 15*time.Minute, 24*time.Hour)
	user, _, err := authService.Register("me@example.com", "supersecret1", "meuser", "Me", "User")
	require.NoError(t, err)

	router.GET("/auth/me", func(c *gin.Context) {
		setUserInContext(c, user.ID, false)
		controller.Me(c)
	})

	req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var response map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	profile, ok := response["user"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "me@example.com", profile["email"])
}

func TestAuthController_Me_Unauthorized(t *testing.T) {
	controller, router, _ := setupAuthControllerTest(t)

	router.GET("/auth/me", controller.Me)

	req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthController_UpdateMe(t *testing.T) {
	controller, router, testDB := setupAuthControllerTest(t)

	userRepo := repository.NewUserRepository(testDB)
	twoFactorService := service.NewTwoFactorService(userRepo, mail.NewSender(config.SMTPConfig{}), controllerTestSecret, 15*time.Minute, 24*time.Hour)
	authService := service.NewAuthService(userRepo, twoFactorService, controllerTestSecret, 15*time.Minute, 24*time.Hour)
	user, _, err := authService.Register("rename@example.com", "supersecret1", "oldname", "", "")
	require.NoError(t, err)

	router.PUT("/auth/me", func(c *gin.Context) {
		setUserInContext(c, user.ID, false)
		controller.UpdateMe(c)
	})

	jsonBody, _ := json.Marshal(UpdateProfileRequest{Username: "newname", FirstName: "First"})
	req := httptest.NewRequest(http.MethodPut, "/auth/me", bytes.NewBuffer(jsonBody))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var response map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	profile, ok := response["user"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "newname", profile["username"])
	assert.Equal(t, "First", profile["first_name"])
}

func TestAuthController_ForgotPassword_AlwaysSucceeds(t *testing.T) {
	controller, router, _ := setupAuthControllerTest(t)

	router.POST("/auth/forgot-password", controller.ForgotPassword)

	// Unknown address gets the same response as a known one
	jsonBody, _ := json.Marshal(ForgotPasswordRequest{Email: "ghost@example.com"})
	req := httptest.NewRequest(http.MethodPost, "/auth/forgot-password", bytes.NewBuffer(jsonBody))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAuthController_ResetPassword_InvalidToken(t *testing.T) {
	controller, router, _ := setupAuthControllerTest(t)

	router.POST("/auth/reset-password", controller.ResetPassword)

	jsonBody, _ := json.Marshal(ResetPasswordRequest{Token: "no-such-token", NewPassword: "newsecret123"})
	req := httptest.NewRequest(http.MethodPost, "/auth/reset-password", bytes.NewBuffer(jsonBody))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)

	var response map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, apperrors.AuthResetTokenInvalid, response["error"])
}

func TestAuthController_ResetPassword_FullFlow(t *testing.T) {
	controller, router, testDB := setupAuthControllerTest(t)

	userRepo := repository.NewUserRepository(testDB)
	twoFactorService := service.NewTwoFactorService(userRepo, mail.NewSender(config.SMTPConfig{}), controllerTestSecret, 15*time.Minute, 24*time.Hour)
	authService := service.NewAuthService(userRepo, twoFactorService, controllerTestSecret, 15*time.Minute, 24*time.Hour)
	_, _, err := authService.Register("reset@example.com", "supersecret1", "resetuser", "", "")
	require.NoError(t, err)

	router.POST("/auth/forgot-password", controller.ForgotPassword)
	router.POST("/auth/reset-password", controller.ResetPassword)
	router.POST("/auth/login", controller.Login)

	jsonBody, _ := json.Marshal(ForgotPasswordRequest{Email: "reset@example.com"})
	req := httptest.NewRequest(http.MethodPost, "/auth/forgot-password", bytes.NewBuffer(jsonBody))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	// Fetch the token straight from the table, as the mail only logs in dev mode
	var reset struct{ Token string }
	require.NoError(t, testDB.Table("password_resets").Select("token").Order("id DESC").Take(&reset).Error)
	require.NotEmpty(t, reset.Token)

	jsonBody, _ = json.Marshal(ResetPasswordRequest{Token: reset.Token, NewPassword: "changedsecret1"})
	req = httptest.NewRequest(http.MethodPost, "/auth/reset-password", bytes.NewBuffer(jsonBody))
	req.Header.Set("Content-Type", "application/json")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	// Old password no longer works, new one does
	jsonBody, _ = json.Marshal(LoginRequest{Email: "reset@example.com", Password: "supersecret1"})
	req = httptest.NewRequest(http.MethodPost, "/auth/login", bytes.NewBuffer(jsonBody))
	req.Header.Set("Content-Type", "application/json")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	jsonBody, _ = json.Marshal(LoginRequest{Email: "reset@example.com", Password: "changedsecret1"})
	req = httptest.NewRequest(http.MethodPost, "/auth/login", bytes.NewBuffer(jsonBody))
	req.Header.Set("Content-Type", "application/json")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	// Token is single-use
	jsonBody, _ = json.Marshal(ResetPasswordRequest{Token: reset.Token, NewPassword: "anothersecret1"})
	req = httptest.NewRequest(http.MethodPost, "/auth/reset-password", bytes.NewBuffer(jsonBody))
	req.Header.Set("Content-Type", "application/json")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
