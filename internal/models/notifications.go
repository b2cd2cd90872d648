package models

import (
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const NotificationListLimit = 20

type Notification struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID     uuid.UUID          `bson:"user_id" json:"user_id"`
	Message    string             `bson:"message" json:"message"`
	EventID    primitive.ObjectID `bson:"event_id,omitempty" json:"event_id,omitempty"`
	ProposalID primitive.ObjectID `bson:"proposal_id,omitempty" json:"proposal_id,omitempty"`
	Read       bool               `bson:"read" json:"read"`
	CreatedAt  time.Time          `bson:"created_at" json:"created_at"`
}

func (n *Notification) BeforeCreate() error {
	if n.ID.IsZero() {
		n.ID = primitive.NewObjectID()
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now()
	}
	return nil
}
