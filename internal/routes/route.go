package routes

import (
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joshua-takyi/eventhub/internal/container"
	"github.com/joshua-takyi/eventhub/internal/handlers"
	"github.com/joshua-takyi/eventhub/internal/middleware"
	"github.com/joshua-takyi/eventhub/internal/models"
)

// SetupRoutes configures all routes with the dependency container
func SetupRoutes(container *container.Container) *gin.Engine {
	r := gin.New()
	r.Use(cors.New(cors.Config{
		AllowOrigins:     container.CORSOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS", "PATCH"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "X-Request-ID", "X-Auth-Token"},
		ExposeHeaders:    []string{"Content-Length", "X-Request-ID"},
		AllowCredentials: true,
	}))

	// Add middleware
	r.Use(middleware.RequestID())
	r.Use(middleware.StructuredLogger(container.Logger))
	r.Use(middleware.ErrorHandler(container.Logger))
	r.Use(gin.Recovery())

	secure := container.SecureCookies

	// API version 1
	v1 := r.Group("/api/v1")
	{
		// Health check
		v1.GET("/health", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{
				"status":  "OK",
				"service": "eventhub-api",
			})
		})

		// public routes
		v1.POST("/signup", handlers.CreateUser(container.UserService))
		v1.POST("/login", handlers.AuthenticateUser(container.UserService, secure))
		v1.POST("/refresh", handlers.RefreshSession(container.UserService, secure))
		v1.POST("/logout", handlers.Logout(secure))
		v1.GET("/events", handlers.ListEvents(container.EventService))
		v1.GET("/events/:id", handlers.GetEvent(container.EventService))
	}

	protected := v1.Group("/")
	protected.Use(middleware.AuthMiddleware(container.Tokens, container.UserService, container.Logger, secure))
	adminOnly := middleware.RequireRole(models.RoleAdmin)

	protected.GET("/profile", handlers.Profile())

	userRoutes := protected.Group("/users")
	{
		userRoutes.GET("", adminOnly, handlers.ListUsers(container.UserService))
		userRoutes.GET("/all", handlers.ListContacts(container.UserService))
		userRoutes.GET("/:id", handlers.GetUser(container.UserService))
		userRoutes.PATCH("/:id", handlers.UpdateUser(container.UserService))
		userRoutes.PATCH("/:id/role", adminOnly, handlers.UpdateUserRole(container.UserService))
		userRoutes.DELETE("/:id", adminOnly, handlers.DeleteUser(container.UserService))
	}

	eventRoutes := protected.Group("/events")
	{
		eventRoutes.POST("", handlers.CreateEvent(container.EventService))
		eventRoutes.GET("/mine", handlers.ListMyEvents(container.EventService))
		eventRoutes.GET("/analytics", handlers.EventAnalytics(container.EventService))
		eventRoutes.PATCH("/:id", handlers.UpdateEvent(container.EventService))
		eventRoutes.DELETE("/:id", handlers.DeleteEvent(container.EventService))
		eventRoutes.GET("/:id/proposals", handlers.ListEventProposals(container.ProposalService))

		eventRoutes.POST("/:id/requirements", handlers.AddRequirement(container.RequirementService))
		eventRoutes.PATCH("/:id/requirements/:requirementId/complete", handlers.CompleteRequirement(container.RequirementService))
		eventRoutes.PATCH("/:id/requirements/:requirementId/reopen", adminOnly, handlers.ReopenRequirement(container.RequirementService))
	}

	protected.GET("/requirements/open",
		middleware.RequireRole(models.RoleVendor, models.RoleAdmin),
		handlers.ListOpenRequirements(container.RequirementService))

	proposalRoutes := protected.Group("/proposals")
	{
		proposalRoutes.POST("", handlers.SubmitProposal(container.ProposalService))
		proposalRoutes.GET("/mine", handlers.ListMyProposals(container.ProposalService))
		proposalRoutes.GET("/:id", handlers.GetProposal(container.ProposalService))
		proposalRoutes.PATCH("/:id", handlers.EditProposal(container.ProposalService))
		proposalRoutes.DELETE("/:id", handlers.WithdrawProposal(container.ProposalService))
		proposalRoutes.PATCH("/:id/decision", handlers.DecideProposal(container.ProposalService))
	}

	notificationRoutes := protected.Group("/notifications")
	{
		notificationRoutes.GET("", handlers.ListNotifications(container.NotificationService))
		notificationRoutes.PATCH("/:id/read", handlers.MarkNotificationRead(container.NotificationService))
	}

	messageRoutes := protected.Group("/messages")
	{
		messageRoutes.POST("", handlers.SendMessage(container.MessageService))
		messageRoutes.GET("/partners", handlers.ConversationPartners(container.MessageService))
		messageRoutes.GET("/with/:userId", handlers.Conversation(container.MessageService))
		messageRoutes.GET("/thread/:eventId/:vendorId", handlers.MessageThread(container.MessageService))
		messageRoutes.PATCH("/:id/read", handlers.MarkMessageRead(container.MessageService))
	}

	return r
}
