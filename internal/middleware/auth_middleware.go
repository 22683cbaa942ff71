package middleware

import (
	"net/http"
	"strings"

	"github.com/electroegy/electroegy-backend/internal/errors"
	"github.com/electroegy/electroegy-backend/pkg/redis"
	"github.com/electroegy/electroegy-backend/pkg/util"
	"github.com/gin-gonic/gin"
)

// Context keys for user information
const (
	UserIDKey    = "user_id"
	UserEmailKey = "user_email"
	UserStaffKey = "user_is_staff"
)

type AuthMiddleware struct {
	jwtSecret      string
	checkBlacklist bool
}

// NewAuthMiddleware builds the JWT middleware. checkBlacklist controls the
// Redis revocation lookup; pass false when no Redis is wired (tests).
func NewAuthMiddleware(jwtSecret string, checkBlacklist bool) *AuthMiddleware {
	return &AuthMiddleware{
		jwtSecret:      jwtSecret,
		checkBlacklist: checkBlacklist,
	}
}

// Authenticate validates the bearer token (required).
func (m *AuthMiddleware) Authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		log := GetLoggerFromContext(c)

		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			log.Warn("Missing authorization header", map[string]interface{}{
				"path": c.Request.URL.Path,
			})
			errors.Unauthorized(c, "Authentication required")
			c.Abort()
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			log.Warn("Invalid authorization header format", map[string]interface{}{
				"path": c.Request.URL.Path,
			})
			errors.RespondWithError(c, http.StatusUnauthorized, errors.AuthTokenInvalid, "Invalid authorization header")
			c.Abort()
			return
		}
		token := parts[1]

		claims, err := util.ValidateToken(token, m.jwtSecret)
		if err != nil {
			log.Warn("Token validation failed", map[string]interface{}{
				"path":  c.Request.URL.Path,
				"error": err.Error(),
			})

			if err == util.ErrExpiredToken {
				errors.RespondWithError(c, http.StatusUnauthorized, errors.AuthTokenExpired, "Your session has expired")
			} else {
				errors.RespondWithError(c, http.StatusUnauthorized, errors.AuthTokenInvalid, "Invalid authentication token")
			}
			c.Abort()
			return
		}

		if m.checkBlacklist {
			revoked, err := redis.IsTokenBlacklisted(c.Request.Context(), token)
			if err != nil {
				log.Error("Failed to check token blacklist", err, map[string]interface{}{
					"path": c.Request.URL.Path,
				})
				errors.InternalError(c, "")
				c.Abort()
				return
			}
			if revoked {
				log.Warn("Revoked token used", map[string]interface{}{
					"user_id": claims.UserID,
					"path":    c.Request.URL.Path,
				})
				errors.RespondWithError(c, http.StatusUnauthorized, errors.AuthTokenRevoked, "This session has been logged out")
				c.Abort()
				return
			}
		}

		c.Set(UserIDKey, claims.UserID)
		c.Set(UserEmailKey, claims.Email)
		c.Set(UserStaffKey, claims.IsStaff)
		c.Set("token", token)

		log.Debug("User authenticated successfully", map[string]interface{}{
			"user_id":  claims.UserID,
			"email":    claims.Email,
			"is_staff": claims.IsStaff,
		})

		c.Next()
	}
}

// RequireStaff gates a route to staff accounts. Must run after
// Authenticate.
func (m *AuthMiddleware) RequireStaff() gin.HandlerFunc {
	return func(c *gin.Context) {
		log := GetLoggerFromContext(c)

		isStaff, exists := GetIsStaff(c)
		userID, _ := GetUserID(c)
		if !exists || !isStaff {
			log.Warn("Staff access denied", map[string]interface{}{
				"user_id": userID,
				"path":    c.Request.URL.Path,
			})
			errors.RespondWithError(c, http.StatusForbidden, errors.AuthzStaffOnly, "Staff access required")
			c.Abort()
			return
		}

		c.Next()
	}
}

// GetUserID extracts the authenticated user's ID from context.
func GetUserID(c *gin.Context) (uint, bool) {
	userID, exists := c.Get(UserIDKey)
	if !exists {
		return 0, false
	}
	return userID.(uint), true
}

// GetUserEmail extracts the authenticated user's email from context.
func GetUserEmail(c *gin.Context) (string, bool) {
	email, exists := c.Get(UserEmailKey)
	if !exists {
		return "", false
	}
	return email.(string), true
}

// GetIsStaff reports whether the authenticated user is staff.
func GetIsStaff(c *gin.Context) (bool, bool) {
	isStaff, exists := c.Get(UserStaffKey)
	if !exists {
		return false, false
	}
	return isStaff.(bool), true
}

// GetToken returns the raw bearer token of the current request.
func GetToken(c *gin.Context) (string, bool) {
	token, exists := c.Get("token")
	if !exists {
		return "", false
	}
	return token.(string), true
}
