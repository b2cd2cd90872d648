package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/joshua-takyi/eventhub/internal/helpers"
	"github.com/joshua-takyi/eventhub/internal/models"
	"github.com/supabase-community/gotrue-go/types"
)

const (
	ClaimsKey    = "user"
	RequestIDKey = "request_id"

	accessCookie  = "access_token"
	refreshCookie = "refresh_token"
)

// RequestID middleware adds a unique request ID to each request
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader("X-Request-ID")
		if requestID == "" {
			requestID = uuid.New().String()
		}
		c.Set(RequestIDKey, requestID)
		c.Header("X-Request-ID", requestID)
		c.Next()
	}
}

// StructuredLogger provides structured logging middleware
func StructuredLogger(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		raw := c.Request.URL.RawQuery

		c.Next()

		if raw != "" {
			path = path + "?" + raw
		}
		requestID, _ := c.Get(RequestIDKey)

		attrs := []any{
			"request_id", requestID,
			"method", c.Request.Method,
			"path", path,
			"status", c.Writer.Status(),
			"latency", time.Since(start),
			"client_ip", c.ClientIP(),
		}
		if claims, ok := Claims(c); ok {
			attrs = append(attrs, "user_id", claims.Principal.ID, "role", claims.Principal.Role)
		}
		logger.Info("HTTP Request", attrs...)
	}
}

// ErrorHandler logs errors attached with c.Error and, when the handler has
// not written a response, answers with a generic 500.
func ErrorHandler(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}
		err := c.Errors.Last()
		requestID, _ := c.Get(RequestIDKey)
		logger.Error("Request error",
			"request_id", requestID,
			"error", err.Error(),
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
		)
		if !c.Writer.Written() {
			c.JSON(http.StatusInternalServerError, gin.H{
				"success":    false,
				"error":      "Internal server error",
				"request_id": requestID,
			})
		}
	}
}

// Authenticator is the part of the user service the auth middleware needs.
type Authenticator interface {
	GetUser(ctx context.Context, id uuid.UUID, accessToken string) (*models.User, error)
	RefreshToken(ctx context.Context, refreshToken string) (interface{}, error)
}

// bearerToken reads the access token from x-auth-token, an Authorization
// bearer header or the access_token cookie, in that order.
func bearerToken(c *gin.Context) (token string, fromCookie bool) {
	if t := strings.TrimSpace(c.GetHeader("x-auth-token")); t != "" {
		return t, false
	}
	if h := c.GetHeader("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(h, "Bearer ")), false
	}
	if t, err := c.Cookie(accessCookie); err == nil && t != "" {
		return t, true
	}
	return "", false
}

func unauthorized(c *gin.Context, reason string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, models.ApiResponse{
		Success: false,
		Message: "Unauthorized access",
		Error:   reason,
	})
}

func AuthMiddleware(validator *helpers.TokenValidator, users Authenticator, logger *slog.Logger, secureCookies bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, fromCookie := bearerToken(c)
		if token == "" {
			unauthorized(c, "no token, authorization denied")
			return
		}

		claims, err := validator.Validate(token)
		if err != nil && fromCookie {
			token, err = refreshSession(c, users, logger, secureCookies)
			if err == nil {
				claims, err = validator.Validate(token)
			}
		}
		if err != nil {
			unauthorized(c, err.Error())
			return
		}

		userID, err := uuid.Parse(claims.SubjectID())
		if err != nil {
			logger.Warn("Invalid user ID in token", "user_id", claims.SubjectID(), "error", err)
			unauthorized(c, "invalid user id in token")
			return
		}

		enhanced := &helpers.EnhancedClaims{
			CustomClaims: claims,
			Principal:    models.Principal{ID: userID, Role: models.RoleUser},
			AccessToken:  token,
		}
		if role, ok := claims.TokenRole(); ok {
			enhanced.Principal.Role = role
		}
		user, err := users.GetUser(c.Request.Context(), userID, token)
		if err != nil {
			logger.Info("Profile not found, using token role",
				"user_id", userID,
				"role", enhanced.Principal.Role,
				"error", err,
			)
		} else {
			if models.ValidRole(user.Role) {
				enhanced.Principal.Role = user.Role
			}
			enhanced.Username = user.Username
			enhanced.Fullname = user.FullName
			enhanced.AvatarURL = user.AvatarURL
		}

		c.Set(ClaimsKey, enhanced)
		c.Next()
	}
}

// refreshSession trades the refresh_token cookie for a new session and
// rewrites both cookies.
func refreshSession(c *gin.Context, users Authenticator, logger *slog.Logger, secure bool) (string, error) {
	refreshToken, err := c.Cookie(refreshCookie)
	if err != nil {
		return "", err
	}
	res, err := users.RefreshToken(c.Request.Context(), refreshToken)
	if err != nil {
		logger.Error("Token refresh failed", "error", err)
		return "", err
	}
	tokenRes, ok := res.(*types.TokenResponse)
	if !ok || tokenRes.AccessToken == "" {
		return "", models.Invalid("invalid refresh response")
	}
	logger.Info("Token refreshed successfully",
		"user_id", tokenRes.User.ID,
		"expires_in", tokenRes.ExpiresIn,
	)
	SetSessionCookies(c, tokenRes, secure)
	return tokenRes.AccessToken, nil
}

func SetSessionCookies(c *gin.Context, tokenRes *types.TokenResponse, secure bool) {
	c.SetCookie(accessCookie, tokenRes.AccessToken, tokenRes.ExpiresIn, "/", "", secure, true)
	c.SetCookie(refreshCookie, tokenRes.RefreshToken, 3600*24*30, "/", "", secure, true)
}

func ClearSessionCookies(c *gin.Context, secure bool) {
	c.SetCookie(accessCookie, "", -1, "/", "", secure, true)
	c.SetCookie(refreshCookie, "", -1, "/", "", secure, true)
}

// Claims returns the caller set by AuthMiddleware.
func Claims(c *gin.Context) (*helpers.EnhancedClaims, bool) {
	v, ok := c.Get(ClaimsKey)
	if !ok {
		return nil, false
	}
	claims, ok := v.(*helpers.EnhancedClaims)
	return claims, ok
}

// RequireRole lets the request through only for the listed roles.
func RequireRole(roles ...models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := Claims(c)
		if !ok {
			unauthorized(c, "unauthorized")
			return
		}
		for _, r := range roles {
			if claims.Principal.Role == r {
				c.Next()
				return
			}
		}
		c.AbortWithStatusJSON(http.StatusForbidden, models.ApiResponse{
			Success: false,
			Error:   "access denied",
			Kind:    models.KindNotAuthorized,
		})
	}
}
