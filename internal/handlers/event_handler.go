package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/joshua-takyi/eventhub/internal/models"
	"github.com/joshua-takyi/eventhub/internal/services"
)

func CreateEvent(es *services.EventService) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := caller(c)
		if !ok {
			return
		}
		var in services.EventInput
		if err := c.ShouldBindJSON(&in); err != nil {
			badRequest(c, err.Error())
			return
		}
		event, err := es.CreateEvent(c.Request.Context(), claims.Principal, in)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, models.SuccessResponse(event, "Event created successfully"))
	}
}

func ListEvents(es *services.EventService) gin.HandlerFunc {
	return func(c *gin.Context) {
		limit, err := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(services.DefaultEventLimit)))
		if err != nil || limit <= 0 {
			badRequest(c, "invalid limit parameter")
			return
		}
		offset, err := strconv.Atoi(c.DefaultQuery("offset", "0"))
		if err != nil || offset < 0 {
			badRequest(c, "invalid offset parameter")
			return
		}
		filter := models.EventFilter{EventType: models.EventType(c.Query("event_type"))}

		events, total, err := es.ListEvents(c.Request.Context(), filter, offset, limit)
		if err != nil {
			respondError(c, err)
			return
		}
		if limit > services.MaxEventLimit {
			limit = services.MaxEventLimit
		}
		page := (offset / limit) + 1
		c.JSON(http.StatusOK, models.PaginatedResponse(events, page, limit, total))
	}
}

func GetEvent(es *services.EventService) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := objectIDParam(c, "id")
		if !ok {
			return
		}
		event, err := es.GetEvent(c.Request.Context(), id)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, models.SuccessResponse(event, ""))
	}
}

func ListMyEvents(es *services.EventService) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := caller(c)
		if !ok {
			return
		}
		events, err := es.ListMyEvents(c.Request.Context(), claims.Principal)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, models.SuccessResponse(events, ""))
	}
}

func UpdateEvent(es *services.EventService) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := caller(c)
		if !ok {
			return
		}
		id, ok := objectIDParam(c, "id")
		if !ok {
			return
		}
		var patch models.EventPatch
		if err := c.ShouldBindJSON(&patch); err != nil {
			badRequest(c, err.Error())
			return
		}
		event, err := es.UpdateEvent(c.Request.Context(), claims.Principal, id, patch)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, models.SuccessResponse(event, "Event updated successfully"))
	}
}

func DeleteEvent(es *services.EventService) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := caller(c)
		if !ok {
			return
		}
		id, ok := objectIDParam(c, "id")
		if !ok {
			return
		}
		if err := es.DeleteEvent(c.Request.Context(), claims.Principal, id); err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, models.SuccessResponse(nil, "Event deleted successfully"))
	}
}

func EventAnalytics(es *services.EventService) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := caller(c)
		if !ok {
			return
		}
		stats, err := es.Analytics(c.Request.Context(), claims.Principal)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, models.SuccessResponse(stats, ""))
	}
}
