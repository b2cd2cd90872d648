package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/joshua-takyi/eventhub/internal/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

const (
	approveAttempts = 3
	approveBackoff  = 50 * time.Millisecond
)

// AssignmentCoordinator approves a proposal: the requirement is closed with
// a compare-and-set on its open status, the proposal moves to approved, and
// the vendor is notified once both writes stand.
type AssignmentCoordinator struct {
	store        models.Store
	requirements *RequirementService
	notifier     *Notifier
	logger       *slog.Logger
	backoff      time.Duration
}

func NewAssignmentCoordinator(store models.Store, requirements *RequirementService, notifier *Notifier, logger *slog.Logger) *AssignmentCoordinator {
	if logger == nil {
		logger = slog.Default()
	}
	return &AssignmentCoordinator{
		store:        store,
		requirements: requirements,
		notifier:     notifier,
		logger:       logger,
		backoff:      approveBackoff,
	}
}

func ApprovalMessage(eventTitle string) string {
	return fmt.Sprintf("Your proposal for the event '%s' has been approved!", eventTitle)
}

func (ac *AssignmentCoordinator) Approve(ctx context.Context, p models.Principal, proposalID primitive.ObjectID) (*models.Proposal, error) {
	proposal, err := ac.store.GetProposal(ctx, proposalID)
	if err != nil {
		return nil, err
	}
	event, err := ac.store.GetEvent(ctx, proposal.EventID)
	if err != nil {
		return nil, err
	}
	if !p.Is(event.OrganizerID) {
		return nil, models.NotAuthorized("only the organizer of the event can decide its proposals")
	}
	if !proposal.IsPending() {
		return nil, models.InvalidState("proposal %s is %s", proposalID.Hex(), proposal.Status)
	}
	if proposal.VendorID == nil {
		return nil, models.InvalidState("proposal %s no longer has a vendor", proposalID.Hex())
	}
	if event.IsCancelled() {
		return nil, models.InvalidState("event %s is cancelled", event.ID.Hex())
	}
	req := event.Requirement(proposal.RequirementID)
	if req == nil {
		return nil, models.NotFound("requirement %s not found", proposal.RequirementID.Hex())
	}
	if !req.IsOpen() {
		return nil, models.InvalidState("requirement %s is %s", req.ID.Hex(), req.Status)
	}

	vendorID := *proposal.VendorID
	var approved *models.Proposal
	err = ac.store.WithTransaction(ctx, func(ctx context.Context) error {
		// the conditional write re-checks status=open and closes the race
		if err := ac.requirements.Assign(ctx, event.ID, req.ID, vendorID); err != nil {
			return err
		}
		var setErr error
		approved, setErr = ac.approveProposal(ctx, proposalID)
		if setErr == nil {
			return nil
		}
		relErr := ac.retry(ctx, "release requirement", func() error {
			return ac.requirements.release(ctx, event.ID, req.ID, vendorID)
		})
		if relErr != nil {
			ac.logger.Error("Failed to release requirement after proposal write failed",
				"event_id", event.ID.Hex(),
				"requirement_id", req.ID.Hex(),
				"proposal_id", proposalID.Hex(),
				"error", relErr,
			)
		}
		return setErr
	})
	if err != nil {
		return nil, err
	}

	ac.logger.Info("Proposal approved",
		"proposal_id", proposalID.Hex(),
		"event_id", event.ID.Hex(),
		"requirement_id", req.ID.Hex(),
		"vendor_id", vendorID,
	)
	if ac.notifier != nil {
		ac.notifier.Notify(ctx, models.Notification{
			UserID:     vendorID,
			Message:    ApprovalMessage(event.Title),
			EventID:    event.ID,
			ProposalID: proposalID,
		})
	}
	return approved, nil
}

func (ac *AssignmentCoordinator) approveProposal(ctx context.Context, proposalID primitive.ObjectID) (*models.Proposal, error) {
	var approved *models.Proposal
	err := ac.retry(ctx, "approve proposal", func() error {
		var err error
		approved, err = ac.store.SetProposalStatus(ctx, proposalID, models.ProposalPending, models.ProposalApproved)
		return err
	})
	if err != nil {
		return nil, err
	}
	return approved, nil
}

// retry runs fn until it succeeds, returns a lifecycle error, or runs out of
// attempts. Inside a Mongo session the first driver error has already aborted
// the transaction, so fn runs once and the driver's WithTransaction decides
// whether to run the whole callback again.
func (ac *AssignmentCoordinator) retry(ctx context.Context, op string, fn func() error) error {
	attempts := approveAttempts
	if mongo.SessionFromContext(ctx) != nil {
		attempts = 1
	}
	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err = fn(); err == nil {
			return nil
		}
		if models.KindOf(err) != "" {
			return err
		}
		if attempt == attempts {
			break
		}
		ac.logger.Warn("Retrying "+op,
			"attempt", attempt,
			"error", err,
		)
		time.Sleep(ac.backoff * time.Duration(attempt))
	}
	if attempts == 1 {
		return err
	}
	return fmt.Errorf("failed to %s after %d attempts: %w", op, attempts, err)
}
