package services

import (
	"context"

	"github.com/joshua-takyi/eventhub/internal/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type NotificationService struct {
	notifications models.NotificationRepo
}

func NewNotificationService(notifications models.NotificationRepo) *NotificationService {
	return &NotificationService{notifications: notifications}
}

// List returns the caller's latest notifications, newest first.
func (ns *NotificationService) List(ctx context.Context, p models.Principal) ([]*models.Notification, error) {
	return ns.notifications.ListNotifications(ctx, p.ID, models.NotificationListLimit)
}

func (ns *NotificationService) MarkRead(ctx context.Context, p models.Principal, id primitive.ObjectID) (*models.Notification, error) {
	return ns.notifications.MarkNotificationRead(ctx, id, p.ID)
}
