package services

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
	"github.com/joshua-takyi/eventhub/internal/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type RequirementInput struct {
	Category    string  `json:"category" validate:"required"`
	Description string  `json:"description" validate:"max=2000"`
	Budget      float64 `json:"budget" validate:"gte=0"`
}

// Requirement builds an open, unassigned requirement from the input.
func (in RequirementInput) Requirement() (models.Requirement, error) {
	if err := validateInput(in); err != nil {
		return models.Requirement{}, err
	}
	category, err := parseCategory(in.Category)
	if err != nil {
		return models.Requirement{}, err
	}
	return models.Requirement{
		ID:          primitive.NewObjectID(),
		Category:    category,
		Description: in.Description,
		Budget:      in.Budget,
		Status:      models.RequirementOpen,
	}, nil
}

// RequirementService owns the open -> assigned -> completed state machine of
// requirements embedded in events.
type RequirementService struct {
	events models.EventRepo
	logger *slog.Logger
}

func NewRequirementService(events models.EventRepo, logger *slog.Logger) *RequirementService {
	if logger == nil {
		logger = slog.Default()
	}
	return &RequirementService{events: events, logger: logger}
}

func (rs *RequirementService) ownedEvent(ctx context.Context, p models.Principal, eventID primitive.ObjectID) (*models.Event, error) {
	event, err := rs.events.GetEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if !p.Is(event.OrganizerID) {
		return nil, models.NotAuthorized("only the organizer can manage requirements of this event")
	}
	return event, nil
}

func (rs *RequirementService) AddRequirement(ctx context.Context, p models.Principal, eventID primitive.ObjectID, in RequirementInput) (*models.Event, error) {
	event, err := rs.ownedEvent(ctx, p, eventID)
	if err != nil {
		return nil, err
	}
	if event.IsCancelled() {
		return nil, models.InvalidState("event %s is cancelled", eventID.Hex())
	}
	req, err := in.Requirement()
	if err != nil {
		return nil, err
	}
	return rs.events.AppendRequirement(ctx, eventID, req)
}

// ListOpenRequirements is the vendor marketplace view.
func (rs *RequirementService) ListOpenRequirements(ctx context.Context, p models.Principal) ([]*models.OpenRequirement, error) {
	if !p.IsVendor() && !p.IsAdmin() {
		return nil, models.NotAuthorized("only vendors can browse open requirements")
	}
	return rs.events.ListOpenRequirements(ctx)
}

// Assign is reserved for the assignment coordinator and is never routed.
func (rs *RequirementService) Assign(ctx context.Context, eventID, reqID primitive.ObjectID, vendorID uuid.UUID) error {
	if vendorID == uuid.Nil {
		return models.Invalid("vendor id is required")
	}
	return rs.events.AssignRequirement(ctx, eventID, reqID, vendorID)
}

// release undoes Assign for the same vendor.
func (rs *RequirementService) release(ctx context.Context, eventID, reqID primitive.ObjectID, vendorID uuid.UUID) error {
	return rs.events.ReleaseRequirement(ctx, eventID, reqID, vendorID)
}

func (rs *RequirementService) CompleteRequirement(ctx context.Context, p models.Principal, eventID, reqID primitive.ObjectID) (*models.Event, error) {
	if _, err := rs.ownedEvent(ctx, p, eventID); err != nil {
		return nil, err
	}
	if err := rs.events.CompleteRequirement(ctx, eventID, reqID); err != nil {
		return nil, err
	}
	return rs.events.GetEvent(ctx, eventID)
}

// ReopenRequirement is the admin override that moves an assigned requirement
// back to open. The approved proposal keeps its status.
func (rs *RequirementService) ReopenRequirement(ctx context.Context, p models.Principal, eventID, reqID primitive.ObjectID) (*models.Event, error) {
	if !p.IsAdmin() {
		return nil, models.NotAuthorized("only admins can reopen requirements")
	}
	event, err := rs.events.GetEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}
	req := event.Requirement(reqID)
	if req == nil {
		return nil, models.NotFound("requirement %s not found", reqID.Hex())
	}
	if req.Status != models.RequirementAssigned || req.AssignedVendorID == nil {
		return nil, models.InvalidState("requirement %s is %s, only assigned requirements can be reopened", reqID.Hex(), req.Status)
	}
	if err := rs.release(ctx, eventID, reqID, *req.AssignedVendorID); err != nil {
		return nil, err
	}
	rs.logger.Info("Requirement reopened by admin",
		"event_id", eventID.Hex(),
		"requirement_id", reqID.Hex(),
		"admin_id", p.ID,
	)
	return rs.events.GetEvent(ctx, eventID)
}
