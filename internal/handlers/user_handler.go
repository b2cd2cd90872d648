package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/joshua-takyi/eventhub/internal/middleware"
	"github.com/joshua-takyi/eventhub/internal/models"
	"github.com/joshua-takyi/eventhub/internal/services"
	"github.com/supabase-community/gotrue-go/types"
)

func CreateUser(u *services.UserService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var user models.User
		if err := c.ShouldBindJSON(&user); err != nil {
			badRequest(c, err.Error())
			return
		}

		createdUser, err := u.CreateUser(c.Request.Context(), &user)
		if err != nil {
			respondError(c, err)
			return
		}

		c.JSON(http.StatusCreated, models.SuccessResponse(createdUser, "User created successfully"))
	}
}

func AuthenticateUser(u *services.UserService, secure bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			Email    string `json:"email" binding:"required,email"`
			Password string `json:"password" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, "invalid request payload")
			return
		}

		authResponse, err := u.AuthenticateUser(c.Request.Context(), req.Email, req.Password)
		if err != nil {
			if models.KindOf(err) == models.KindValidation {
				respondError(c, err)
				return
			}
			c.JSON(http.StatusUnauthorized, models.ErrorResponse("invalid email or password"))
			return
		}

		tokenRes, ok := authResponse.(*types.TokenResponse)
		if !ok || tokenRes.AccessToken == "" {
			respondError(c, models.InvalidState("invalid token response"))
			return
		}
		middleware.SetSessionCookies(c, tokenRes, secure)

		// tokens travel in cookies only
		c.JSON(http.StatusOK, models.SuccessResponse(gin.H{"user": tokenRes.User}, "Logged in"))
	}
}

func RefreshSession(u *services.UserService, secure bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		refreshToken, err := c.Cookie("refresh_token")
		if err != nil || refreshToken == "" {
			c.JSON(http.StatusUnauthorized, models.ErrorResponse("refresh token not found"))
			return
		}
		res, err := u.RefreshToken(c.Request.Context(), refreshToken)
		if err != nil {
			c.JSON(http.StatusUnauthorized, models.ErrorResponse("session expired"))
			return
		}
		tokenRes, ok := res.(*types.TokenResponse)
		if !ok || tokenRes.AccessToken == "" {
			c.JSON(http.StatusUnauthorized, models.ErrorResponse("session expired"))
			return
		}
		middleware.SetSessionCookies(c, tokenRes, secure)
		c.JSON(http.StatusOK, models.SuccessResponse(nil, "Session refreshed"))
	}
}

func Logout(secure bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		middleware.ClearSessionCookies(c, secure)
		c.JSON(http.StatusOK, models.SuccessResponse(nil, "Logged out successfully"))
	}
}

// Profile returns the caller as resolved by AuthMiddleware.
func Profile() gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := caller(c)
		if !ok {
			return
		}
		c.JSON(http.StatusOK, models.SuccessResponse(gin.H{
			"id":         claims.Principal.ID,
			"role":       claims.Principal.Role,
			"email":      claims.Email,
			"username":   claims.Username,
			"full_name":  claims.Fullname,
			"avatar_url": claims.AvatarURL,
		}, ""))
	}
}

func ListUsers(u *services.UserService) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := caller(c)
		if !ok {
			return
		}
		role := models.Role(c.Query("role"))

		users, err := u.ListUsers(c.Request.Context(), claims.Principal, role, claims.AccessToken)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, models.SuccessResponse(users, ""))
	}
}

func ListContacts(u *services.UserService) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := caller(c)
		if !ok {
			return
		}
		users, err := u.Contacts(c.Request.Context(), claims.Principal, claims.AccessToken)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, models.SuccessResponse(users, ""))
	}
}

func GetUser(u *services.UserService) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := caller(c)
		if !ok {
			return
		}
		userID, ok := uuidParam(c, "id")
		if !ok {
			return
		}
		if !claims.IsOwner(userID) && !claims.IsAdmin() {
			respondError(c, models.NotAuthorized("access denied"))
			return
		}

		user, err := u.GetUser(c.Request.Context(), userID, claims.AccessToken)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, models.SuccessResponse(user, ""))
	}
}

func UpdateUser(u *services.UserService) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := caller(c)
		if !ok {
			return
		}
		userID, ok := uuidParam(c, "id")
		if !ok {
			return
		}
		var fields map[string]interface{}
		if err := c.ShouldBindJSON(&fields); err != nil {
			badRequest(c, err.Error())
			return
		}

		user, err := u.UpdateProfile(c.Request.Context(), claims.Principal, userID, fields, claims.AccessToken)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, models.SuccessResponse(user, "Profile updated"))
	}
}

func UpdateUserRole(u *services.UserService) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := caller(c)
		if !ok {
			return
		}
		userID, ok := uuidParam(c, "id")
		if !ok {
			return
		}
		var req struct {
			Role models.Role `json:"role" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}

		user, err := u.UpdateRole(c.Request.Context(), claims.Principal, userID, req.Role, claims.AccessToken)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, models.SuccessResponse(user, "Role updated"))
	}
}

func DeleteUser(u *services.UserService) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := caller(c)
		if !ok {
			return
		}
		userID, ok := uuidParam(c, "id")
		if !ok {
			return
		}
		if err := u.DeleteUser(c.Request.Context(), claims.Principal, userID, claims.AccessToken); err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, models.SuccessResponse(nil, "user deleted successfully"))
	}
}
