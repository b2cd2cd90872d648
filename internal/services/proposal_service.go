package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/joshua-takyi/eventhub/internal/helpers"
	"github.com/joshua-takyi/eventhub/internal/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const uploadTimeout = 30 * time.Second

type ProposalInput struct {
	EventID       primitive.ObjectID    `json:"event_id"`
	RequirementID primitive.ObjectID    `json:"requirement_id"`
	Category      string                `json:"category" validate:"required"`
	Proposal      string                `json:"proposal" validate:"required,max=5000"`
	Price         float64               `json:"price" validate:"gte=0"`
	Portfolio     []string              `json:"portfolio"`
	PreviousWork  []models.PreviousWork `json:"previous_work"`
}

type ProposalUpdate struct {
	Proposal string  `json:"proposal" validate:"required,max=5000"`
	Price    float64 `json:"price" validate:"gte=0"`
}

// ProposalService runs the pending -> approved | rejected state machine.
// Approval is handed to the assignment coordinator.
type ProposalService struct {
	store       models.Store
	coordinator *AssignmentCoordinator
	uploader    ImageUploader
	logger      *slog.Logger
}

func NewProposalService(store models.Store, coordinator *AssignmentCoordinator, uploader ImageUploader, logger *slog.Logger) *ProposalService {
	if logger == nil {
		logger = slog.Default()
	}
	return &ProposalService{
		store:       store,
		coordinator: coordinator,
		uploader:    uploader,
		logger:      logger,
	}
}

func (ps *ProposalService) Submit(ctx context.Context, p models.Principal, in ProposalInput) (*models.Proposal, error) {
	if !p.IsVendor() {
		return nil, models.NotAuthorized("only vendors can submit proposals")
	}
	if in.EventID.IsZero() || in.RequirementID.IsZero() {
		return nil, models.Invalid("event_id and requirement_id are required")
	}
	in.Proposal = strings.TrimSpace(in.Proposal)
	if err := validateInput(in); err != nil {
		return nil, err
	}
	category, err := parseCategory(in.Category)
	if err != nil {
		return nil, err
	}

	event, err := ps.store.GetEvent(ctx, in.EventID)
	if err != nil {
		return nil, err
	}
	req := event.Requirement(in.RequirementID)
	if req == nil {
		return nil, models.NotFound("requirement %s not found", in.RequirementID.Hex())
	}
	if event.IsCancelled() {
		return nil, models.InvalidState("event %s is cancelled and accepts no proposals", event.ID.Hex())
	}
	if !req.IsOpen() {
		return nil, models.InvalidState("requirement %s is %s", req.ID.Hex(), req.Status)
	}
	if category != req.Category {
		return nil, models.Invalid("category %s does not match the requirement category %s", category, req.Category)
	}

	portfolio, err := ps.uploadPortfolio(ctx, in.Portfolio)
	if err != nil {
		return nil, err
	}

	vendorID := p.ID
	now := time.Now()
	proposal := &models.Proposal{
		VendorID:      &vendorID,
		EventID:       event.ID,
		RequirementID: req.ID,
		Category:      req.Category,
		Proposal:      in.Proposal,
		Price:         in.Price,
		Status:        models.ProposalPending,
		Portfolio:     portfolio,
		PreviousWork:  in.PreviousWork,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	return ps.store.CreateProposal(ctx, proposal)
}

func (ps *ProposalService) uploadPortfolio(ctx context.Context, sources []string) ([]string, error) {
	if len(sources) == 0 || ps.uploader == nil {
		return sources, nil
	}
	ctx, cancel := context.WithTimeout(ctx, uploadTimeout)
	defer cancel()

	urls, err := ps.uploader.UploadImages(ctx, sources, helpers.PortfolioFolder)
	if err != nil {
		return nil, fmt.Errorf("failed to upload portfolio: %w", err)
	}
	ps.logger.Debug("Uploaded portfolio images", "count", len(urls))
	return urls, nil
}

func (ps *ProposalService) Edit(ctx context.Context, p models.Principal, id primitive.ObjectID, in ProposalUpdate) (*models.Proposal, error) {
	in.Proposal = strings.TrimSpace(in.Proposal)
	if err := validateInput(in); err != nil {
		return nil, err
	}
	return ps.store.UpdatePendingProposal(ctx, id, p.ID, in.Proposal, in.Price)
}

func (ps *ProposalService) Withdraw(ctx context.Context, p models.Principal, id primitive.ObjectID) error {
	return ps.store.DeletePendingProposal(ctx, id, p.ID)
}

// Decide applies the organizer's decision to a pending proposal.
func (ps *ProposalService) Decide(ctx context.Context, p models.Principal, id primitive.ObjectID, decision models.ProposalStatus) (*models.Proposal, error) {
	if !models.ValidDecision(decision) {
		return nil, models.Invalid("decision must be %q or %q", models.ProposalApproved, models.ProposalRejected)
	}
	if decision == models.ProposalApproved {
		return ps.coordinator.Approve(ctx, p, id)
	}

	proposal, err := ps.store.GetProposal(ctx, id)
	if err != nil {
		return nil, err
	}
	event, err := ps.store.GetEvent(ctx, proposal.EventID)
	if err != nil {
		return nil, err
	}
	if !p.Is(event.OrganizerID) {
		return nil, models.NotAuthorized("only the organizer of the event can decide its proposals")
	}
	return ps.store.SetProposalStatus(ctx, id, models.ProposalPending, models.ProposalRejected)
}

func (ps *ProposalService) ListForVendor(ctx context.Context, p models.Principal) ([]*models.Proposal, error) {
	if !p.IsVendor() {
		return nil, models.NotAuthorized("only vendors have proposals")
	}
	return ps.store.ListProposalsByVendor(ctx, p.ID)
}

// ProposalsForEvent lists every proposal of the event, newest first.
func (ps *ProposalService) ProposalsForEvent(ctx context.Context, p models.Principal, eventID primitive.ObjectID) ([]*models.Proposal, error) {
	event, err := ps.store.GetEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if !p.Is(event.OrganizerID) && !p.IsAdmin() {
		return nil, models.NotAuthorized("only the organizer can list proposals for this event")
	}
	return ps.store.ListProposalsByEvent(ctx, eventID)
}

// GetProposal is visible to its vendor, the event organizer and admins.
func (ps *ProposalService) GetProposal(ctx context.Context, p models.Principal, id primitive.ObjectID) (*models.Proposal, error) {
	proposal, err := ps.store.GetProposal(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.IsAdmin() || proposal.OwnedBy(p.ID) {
		return proposal, nil
	}
	event, err := ps.store.GetEvent(ctx, proposal.EventID)
	if err != nil {
		return nil, err
	}
	if !p.Is(event.OrganizerID) {
		return nil, models.NotAuthorized("proposal %s is not visible to this user", id.Hex())
	}
	return proposal, nil
}
