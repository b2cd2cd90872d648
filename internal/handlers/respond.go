package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/joshua-takyi/eventhub/internal/helpers"
	"github.com/joshua-takyi/eventhub/internal/middleware"
	"github.com/joshua-takyi/eventhub/internal/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func statusFor(err error) int {
	switch models.KindOf(err) {
	case models.KindNotFound:
		return http.StatusNotFound
	case models.KindNotAuthorized:
		return http.StatusForbidden
	case models.KindInvalidState:
		return http.StatusConflict
	case models.KindValidation:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// respondError writes the error with the status for its kind. Errors
// without a kind are hidden from the client and left to ErrorHandler.
func respondError(c *gin.Context, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		_ = c.Error(err)
		c.JSON(status, models.ErrorResponse("internal server error"))
		return
	}
	c.JSON(status, models.KindErrorResponse(err))
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, models.ApiResponse{
		Success: false,
		Error:   msg,
		Kind:    models.KindValidation,
	})
}

// caller returns the authenticated principal or answers 401.
func caller(c *gin.Context) (*helpers.EnhancedClaims, bool) {
	claims, ok := middleware.Claims(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, models.ErrorResponse("unauthorized"))
		return nil, false
	}
	return claims, true
}

func cleanParam(c *gin.Context, name string) string {
	// clients sometimes send ids wrapped in quotes
	return strings.Trim(strings.TrimSpace(c.Param(name)), "\"'")
}

func objectIDParam(c *gin.Context, name string) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(cleanParam(c, name))
	if err != nil {
		badRequest(c, "invalid "+name+" format")
		return primitive.NilObjectID, false
	}
	return id, true
}

func uuidParam(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(cleanParam(c, name))
	if err != nil {
		badRequest(c, "invalid "+name+" format")
		return uuid.Nil, false
	}
	return id, true
}
