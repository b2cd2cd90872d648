package models

import (
	"context"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type EventRepo interface {
	CreateEvent(ctx context.Context, event *Event) (*Event, error)
	GetEvent(ctx context.Context, id primitive.ObjectID) (*Event, error)
	ListEvents(ctx context.Context, filter EventFilter, offset, limit int) ([]*Event, int, error)
	ListEventsByOrganizer(ctx context.Context, organizerID uuid.UUID) ([]*Event, error)
	UpdateEvent(ctx context.Context, id primitive.ObjectID, patch EventPatch) (*Event, error)
	DeleteEvent(ctx context.Context, id primitive.ObjectID) error
	DeleteEventsByOrganizer(ctx context.Context, organizerID uuid.UUID) ([]primitive.ObjectID, error)

	// AppendRequirement adds req to a non-cancelled event.
	AppendRequirement(ctx context.Context, eventID primitive.ObjectID, req Requirement) (*Event, error)
	// AssignRequirement moves an open requirement of a non-cancelled event to
	// assigned in a single conditional write. It fails with ErrInvalidState
	// when the requirement is no longer open.
	AssignRequirement(ctx context.Context, eventID, reqID primitive.ObjectID, vendorID uuid.UUID) error
	// ReleaseRequirement moves a requirement assigned to vendorID back to open.
	ReleaseRequirement(ctx context.Context, eventID, reqID primitive.ObjectID, vendorID uuid.UUID) error
	CompleteRequirement(ctx context.Context, eventID, reqID primitive.ObjectID) error
	ListOpenRequirements(ctx context.Context) ([]*OpenRequirement, error)
}

type ProposalRepo interface {
	CreateProposal(ctx context.Context, proposal *Proposal) (*Proposal, error)
	GetProposal(ctx context.Context, id primitive.ObjectID) (*Proposal, error)
	ListProposalsByEvent(ctx context.Context, eventID primitive.ObjectID) ([]*Proposal, error)
	ListProposalsByVendor(ctx context.Context, vendorID uuid.UUID) ([]*Proposal, error)

	// UpdatePendingProposal and DeletePendingProposal only touch a proposal
	// that is still pending and owned by vendorID.
	UpdatePendingProposal(ctx context.Context, id primitive.ObjectID, vendorID uuid.UUID, text string, price float64) (*Proposal, error)
	DeletePendingProposal(ctx context.Context, id primitive.ObjectID, vendorID uuid.UUID) error
	// SetProposalStatus is a compare-and-set on the status field.
	SetProposalStatus(ctx context.Context, id primitive.ObjectID, from, to ProposalStatus) (*Proposal, error)

	DeleteProposalsByEvents(ctx context.Context, eventIDs ...primitive.ObjectID) (int64, error)
	// DetachVendor nulls the vendor reference on every proposal of vendorID.
	DetachVendor(ctx context.Context, vendorID uuid.UUID) (int64, error)
}

type NotificationRepo interface {
	CreateNotification(ctx context.Context, n *Notification) (*Notification, error)
	ListNotifications(ctx context.Context, userID uuid.UUID, limit int) ([]*Notification, error)
	MarkNotificationRead(ctx context.Context, id primitive.ObjectID, userID uuid.UUID) (*Notification, error)
}

type MessageRepo interface {
	CreateMessage(ctx context.Context, m *Message) (*Message, error)
	ListThread(ctx context.Context, eventID primitive.ObjectID, vendorID uuid.UUID) ([]*Message, error)
	ListConversation(ctx context.Context, a, b uuid.UUID) ([]*Message, error)
	ListMessagesForUser(ctx context.Context, userID uuid.UUID) ([]*Message, error)
	MarkMessageRead(ctx context.Context, id primitive.ObjectID, receiverID uuid.UUID) (*Message, error)
}

// Transactor runs fn as one unit of work. Stores that cannot provide real
// transactions run fn directly.
type Transactor interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

type Store interface {
	EventRepo
	ProposalRepo
	NotificationRepo
	MessageRepo
	Transactor
}
