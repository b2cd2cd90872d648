package models

import (
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type ProposalStatus string

const (
	ProposalPending  ProposalStatus = "pending"
	ProposalApproved ProposalStatus = "approved"
	ProposalRejected ProposalStatus = "rejected"
)

// ValidDecision reports whether s is a status an organizer may move a
// pending proposal to.
func ValidDecision(s ProposalStatus) bool {
	return s == ProposalApproved || s == ProposalRejected
}

type PreviousWork struct {
	Description string   `bson:"description" json:"description"`
	Images      []string `bson:"images" json:"images"`
}

// Proposal is a vendor's priced bid against one requirement. VendorID is nil
// only after the vendor's account has been deleted.
type Proposal struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	VendorID      *uuid.UUID         `bson:"vendor_id" json:"vendor_id"`
	EventID       primitive.ObjectID `bson:"event_id" json:"event_id"`
	RequirementID primitive.ObjectID `bson:"requirement_id" json:"requirement_id"`
	Category      Category           `bson:"category" json:"category"`
	Proposal      string             `bson:"proposal" json:"proposal"`
	Price         float64            `bson:"price" json:"price"`
	Status        ProposalStatus     `bson:"status" json:"status"`
	Portfolio     []string           `bson:"portfolio" json:"portfolio"`
	PreviousWork  []PreviousWork     `bson:"previous_work" json:"previous_work"`
	CreatedAt     time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt     time.Time          `bson:"updated_at" json:"updated_at"`
}

func (p *Proposal) BeforeCreate() error {
	if p.ID.IsZero() {
		p.ID = primitive.NewObjectID()
	}
	if p.Status == "" {
		p.Status = ProposalPending
	}
	return nil
}

func (p *Proposal) IsPending() bool {
	return p.Status == ProposalPending
}

func (p *Proposal) OwnedBy(vendorID uuid.UUID) bool {
	return p.VendorID != nil && *p.VendorID == vendorID
}
