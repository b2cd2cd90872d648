package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/joshua-takyi/eventhub/internal/models"
	"github.com/joshua-takyi/eventhub/internal/services"
)

func ListNotifications(ns *services.NotificationService) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := caller(c)
		if !ok {
			return
		}
		list, err := ns.List(c.Request.Context(), claims.Principal)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, models.SuccessResponse(list, ""))
	}
}

func MarkNotificationRead(ns *services.NotificationService) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := caller(c)
		if !ok {
			return
		}
		id, ok := objectIDParam(c, "id")
		if !ok {
			return
		}
		n, err := ns.MarkRead(c.Request.Context(), claims.Principal, id)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, models.SuccessResponse(n, ""))
	}
}

func SendMessage(ms *services.MessageService) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := caller(c)
		if !ok {
			return
		}
		var in services.MessageInput
		if err := c.ShouldBindJSON(&in); err != nil {
			badRequest(c, err.Error())
			return
		}
		msg, err := ms.Send(c.Request.Context(), claims.Principal, in)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, models.SuccessResponse(msg, ""))
	}
}

func MessageThread(ms *services.MessageService) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := caller(c)
		if !ok {
			return
		}
		eventID, ok := objectIDParam(c, "eventId")
		if !ok {
			return
		}
		vendorID, ok := uuidParam(c, "vendorId")
		if !ok {
			return
		}
		msgs, err := ms.Thread(c.Request.Context(), claims.Principal, eventID, vendorID)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, models.SuccessResponse(msgs, ""))
	}
}

func Conversation(ms *services.MessageService) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := caller(c)
		if !ok {
			return
		}
		other, ok := uuidParam(c, "userId")
		if !ok {
			return
		}
		msgs, err := ms.Conversation(c.Request.Context(), claims.Principal, other)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, models.SuccessResponse(msgs, ""))
	}
}

func ConversationPartners(ms *services.MessageService) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := caller(c)
		if !ok {
			return
		}
		partners, err := ms.Partners(c.Request.Context(), claims.Principal)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, models.SuccessResponse(partners, ""))
	}
}

func MarkMessageRead(ms *services.MessageService) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := caller(c)
		if !ok {
			return
		}
		id, ok := objectIDParam(c, "id")
		if !ok {
			return
		}
		msg, err := ms.MarkRead(c.Request.Context(), claims.Principal, id)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, models.SuccessResponse(msg, ""))
	}
}
