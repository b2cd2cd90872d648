package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/joshua-takyi/eventhub/internal/models"
	"github.com/joshua-takyi/eventhub/internal/services"
)

func AddRequirement(rs *services.RequirementService) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := caller(c)
		if !ok {
			return
		}
		eventID, ok := objectIDParam(c, "id")
		if !ok {
			return
		}
		var in services.RequirementInput
		if err := c.ShouldBindJSON(&in); err != nil {
			badRequest(c, err.Error())
			return
		}
		event, err := rs.AddRequirement(c.Request.Context(), claims.Principal, eventID, in)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, models.SuccessResponse(event, "Requirement added"))
	}
}

func ListOpenRequirements(rs *services.RequirementService) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := caller(c)
		if !ok {
			return
		}
		open, err := rs.ListOpenRequirements(c.Request.Context(), claims.Principal)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, models.SuccessResponse(open, ""))
	}
}

func CompleteRequirement(rs *services.RequirementService) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := caller(c)
		if !ok {
			return
		}
		eventID, ok := objectIDParam(c, "id")
		if !ok {
			return
		}
		reqID, ok := objectIDParam(c, "requirementId")
		if !ok {
			return
		}
		event, err := rs.CompleteRequirement(c.Request.Context(), claims.Principal, eventID, reqID)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, models.SuccessResponse(event, "Requirement completed"))
	}
}

func ReopenRequirement(rs *services.RequirementService) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := caller(c)
		if !ok {
			return
		}
		eventID, ok := objectIDParam(c, "id")
		if !ok {
			return
		}
		reqID, ok := objectIDParam(c, "requirementId")
		if !ok {
			return
		}
		event, err := rs.ReopenRequirement(c.Request.Context(), claims.Principal, eventID, reqID)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, models.SuccessResponse(event, "Requirement reopened"))
	}
}
