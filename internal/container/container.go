package container

import (
	"log/slog"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/go-redis/redis/v8"
	"github.com/joshua-takyi/eventhub/internal/helpers"
	"github.com/joshua-takyi/eventhub/internal/models"
	"github.com/joshua-takyi/eventhub/internal/services"
)

// Deps are the connected backends the container is built from. Cloudinary
// and Redis are optional.
type Deps struct {
	Logger              *slog.Logger
	Store               models.Store
	Users               models.UserRepo
	Cloudinary          *cloudinary.Cloudinary
	Redis               *redis.Client
	NotificationChannel string
	Tokens              *helpers.TokenValidator
	SecureCookies       bool
	CORSOrigins         []string
}

// Container holds all application dependencies
type Container struct {
	Logger        *slog.Logger
	Store         models.Store
	Tokens        *helpers.TokenValidator
	SecureCookies bool
	CORSOrigins   []string

	Notifier            *services.Notifier
	UserService         *services.UserService
	EventService        *services.EventService
	RequirementService  *services.RequirementService
	ProposalService     *services.ProposalService
	NotificationService *services.NotificationService
	MessageService      *services.MessageService
}

// NewContainer creates a new dependency injection container
func NewContainer(d Deps) *Container {
	logger := d.Logger
	if logger == nil {
		logger = slog.Default()
	}

	var uploader services.ImageUploader
	if d.Cloudinary != nil {
		uploader = services.NewCloudinaryUploader(d.Cloudinary)
	}

	sinks := []services.NotificationSink{services.NewStoreSink(d.Store)}
	if d.Redis != nil {
		sinks = append(sinks, services.NewRedisSink(d.Redis, d.NotificationChannel))
	}
	sinks = append(sinks, services.NewLogSink(logger))
	notifier := services.NewNotifier(logger, sinks...)

	requirements := services.NewRequirementService(d.Store, logger)
	coordinator := services.NewAssignmentCoordinator(d.Store, requirements, notifier, logger)

	return &Container{
		Logger:        logger,
		Store:         d.Store,
		Tokens:        d.Tokens,
		SecureCookies: d.SecureCookies,
		CORSOrigins:   d.CORSOrigins,

		Notifier:            notifier,
		UserService:         services.NewUserService(d.Users, d.Store, logger),
		EventService:        services.NewEventService(d.Store, uploader, logger),
		RequirementService:  requirements,
		ProposalService:     services.NewProposalService(d.Store, coordinator, uploader, logger),
		NotificationService: services.NewNotificationService(d.Store),
		MessageService:      services.NewMessageService(d.Store),
	}
}
