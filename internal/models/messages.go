package models

import (
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Message is a chat record. Threads are keyed either by (event, vendor) or by
// the (sender, receiver) pair.
type Message struct {
	ID         primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	EventID    *primitive.ObjectID `bson:"event_id,omitempty" json:"event_id,omitempty"`
	VendorID   *uuid.UUID          `bson:"vendor_id,omitempty" json:"vendor_id,omitempty"`
	SenderID   uuid.UUID           `bson:"sender_id" json:"sender_id"`
	ReceiverID uuid.UUID           `bson:"receiver_id" json:"receiver_id"`
	Content    string              `bson:"content" json:"content"`
	Read       bool                `bson:"read" json:"read"`
	Timestamp  time.Time           `bson:"timestamp" json:"timestamp"`
}

func (m *Message) BeforeCreate() error {
	if m.ID.IsZero() {
		m.ID = primitive.NewObjectID()
	}
	if m.Timestamp.IsZero() {
		m.Timestamp = time.Now()
	}
	return nil
}
