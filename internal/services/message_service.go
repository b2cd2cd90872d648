package services

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/joshua-takyi/eventhub/internal/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type MessageInput struct {
	ReceiverID uuid.UUID           `json:"receiver_id"`
	EventID    *primitive.ObjectID `json:"event_id,omitempty"`
	VendorID   *uuid.UUID          `json:"vendor_id,omitempty"`
	Content    string              `json:"content" validate:"required,max=4000"`
}

// MessageService stores chat messages. It never touches requirement or
// proposal state.
type MessageService struct {
	messages models.MessageRepo
}

func NewMessageService(messages models.MessageRepo) *MessageService {
	return &MessageService{messages: messages}
}

func (ms *MessageService) Send(ctx context.Context, p models.Principal, in MessageInput) (*models.Message, error) {
	if p.ID == uuid.Nil {
		return nil, models.NotAuthorized("authentication required")
	}
	in.Content = strings.TrimSpace(in.Content)
	if err := validateInput(in); err != nil {
		return nil, err
	}
	if in.ReceiverID == uuid.Nil {
		return nil, models.Invalid("receiver_id is required")
	}
	if in.ReceiverID == p.ID {
		return nil, models.Invalid("cannot send a message to yourself")
	}
	if (in.EventID == nil) != (in.VendorID == nil) {
		return nil, models.Invalid("event_id and vendor_id must be given together")
	}
	return ms.messages.CreateMessage(ctx, &models.Message{
		EventID:    in.EventID,
		VendorID:   in.VendorID,
		SenderID:   p.ID,
		ReceiverID: in.ReceiverID,
		Content:    in.Content,
		Timestamp:  time.Now(),
	})
}

// Thread returns the (event, vendor) thread, oldest first. Only its
// participants can read it.
func (ms *MessageService) Thread(ctx context.Context, p models.Principal, eventID primitive.ObjectID, vendorID uuid.UUID) ([]*models.Message, error) {
	msgs, err := ms.messages.ListThread(ctx, eventID, vendorID)
	if err != nil {
		return nil, err
	}
	if p.IsAdmin() || p.Is(vendorID) {
		return msgs, nil
	}
	visible := make([]*models.Message, 0, len(msgs))
	for _, m := range msgs {
		if m.SenderID == p.ID || m.ReceiverID == p.ID {
			visible = append(visible, m)
		}
	}
	return visible, nil
}

func (ms *MessageService) Conversation(ctx context.Context, p models.Principal, otherID uuid.UUID) ([]*models.Message, error) {
	if otherID == uuid.Nil {
		return nil, models.Invalid("user id is required")
	}
	return ms.messages.ListConversation(ctx, p.ID, otherID)
}

// Partners lists the distinct users the caller has exchanged messages with,
// most recent first.
func (ms *MessageService) Partners(ctx context.Context, p models.Principal) ([]uuid.UUID, error) {
	// newest first
	msgs, err := ms.messages.ListMessagesForUser(ctx, p.ID)
	if err != nil {
		return nil, err
	}
	seen := map[uuid.UUID]bool{}
	partners := []uuid.UUID{}
	for _, m := range msgs {
		other := m.ReceiverID
		if other == p.ID {
			other = m.SenderID
		}
		if !seen[other] {
			seen[other] = true
			partners = append(partners, other)
		}
	}
	return partners, nil
}

func (ms *MessageService) MarkRead(ctx context.Context, p models.Principal, id primitive.ObjectID) (*models.Message, error) {
	return ms.messages.MarkMessageRead(ctx, id, p.ID)
}
