package services

import (
	"context"
	"errors"
	"testing"

	"github.com/joshua-takyi/eventhub/internal/helpers"
	"github.com/joshua-takyi/eventhub/internal/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestSubmitChecks(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	o, v := organizer(), vendor()
	event := f.createEvent(t, o, "Launch", "Catering", "Music")
	catering := event.Requirements[0]

	base := func() ProposalInput {
		return ProposalInput{
			EventID:       event.ID,
			RequirementID: catering.ID,
			Category:      "Catering",
			Proposal:      "Buffet for 120",
			Price:         900,
		}
	}

	cases := []struct {
		name   string
		caller models.Principal
		mutate func(*ProposalInput)
		want   error
	}{
		{"non vendor", organizer(), nil, models.ErrNotAuthorized},
		{"missing event", v, func(in *ProposalInput) { in.EventID = primitive.NilObjectID }, models.ErrValidation},
		{"empty text", v, func(in *ProposalInput) { in.Proposal = "   " }, models.ErrValidation},
		{"negative price", v, func(in *ProposalInput) { in.Price = -1 }, models.ErrValidation},
		{"unknown category", v, func(in *ProposalInput) { in.Category = "Fireworks" }, models.ErrValidation},
		{"category mismatch", v, func(in *ProposalInput) { in.Category = "Music" }, models.ErrValidation},
		{"unknown event", v, func(in *ProposalInput) { in.EventID = primitive.NewObjectID() }, models.ErrNotFound},
		{"unknown requirement", v, func(in *ProposalInput) { in.RequirementID = primitive.NewObjectID() }, models.ErrNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			in := base()
			if tc.mutate != nil {
				tc.mutate(&in)
			}
			_, err := f.proposals.Submit(ctx, tc.caller, in)
			wantKind(t, err, tc.want)
		})
	}

	t.Run("category is case insensitive", func(t *testing.T) {
		in := base()
		in.Category = "catering"
		p, err := f.proposals.Submit(ctx, v, in)
		if err != nil {
			t.Fatalf("Submit: %v", err)
		}
		if p.Status != models.ProposalPending || p.Category != models.CategoryCatering || *p.VendorID != v.ID {
			t.Fatalf("proposal = %+v", p)
		}
	})
}

func TestSubmitToClosedRequirementOrCancelledEvent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	o, v := organizer(), vendor()

	event := f.createEvent(t, o, "Launch", "Catering")
	p := f.submit(t, v, event, 0, 100)
	if _, err := f.proposals.Decide(ctx, o, p.ID, models.ProposalApproved); err != nil {
		t.Fatal(err)
	}
	_, err := f.proposals.Submit(ctx, vendor(), ProposalInput{
		EventID: event.ID, RequirementID: event.Requirements[0].ID,
		Category: "Catering", Proposal: "late bid", Price: 50,
	})
	wantKind(t, err, models.ErrInvalidState)

	other := f.createEvent(t, o, "Retreat", "Music")
	cancelled := models.EventCancelled
	if _, err := f.events.UpdateEvent(ctx, o, other.ID, models.EventPatch{Status: &cancelled}); err != nil {
		t.Fatal(err)
	}
	_, err = f.proposals.Submit(ctx, v, ProposalInput{
		EventID: other.ID, RequirementID: other.Requirements[0].ID,
		Category: "Music", Proposal: "DJ set", Price: 50,
	})
	wantKind(t, err, models.ErrInvalidState)
}

func TestEditAndWithdrawOnlyWhilePending(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	o, v := organizer(), vendor()
	event := f.createEvent(t, o, "Launch", "Catering", "Music")

	p := f.submit(t, v, event, 0, 100)
	edited, err := f.proposals.Edit(ctx, v, p.ID, ProposalUpdate{Proposal: "Revised menu", Price: 120})
	if err != nil {
		t.Fatalf("Edit: %v", err)
	}
	if edited.Proposal != "Revised menu" || edited.Price != 120 {
		t.Fatalf("edited = %+v", edited)
	}

	_, err = f.proposals.Edit(ctx, vendor(), p.ID, ProposalUpdate{Proposal: "hijack", Price: 1})
	wantKind(t, err, models.ErrNotAuthorized)
	wantKind(t, f.proposals.Withdraw(ctx, vendor(), p.ID), models.ErrNotAuthorized)

	if _, err := f.proposals.Decide(ctx, o, p.ID, models.ProposalRejected); err != nil {
		t.Fatal(err)
	}
	_, err = f.proposals.Edit(ctx, v, p.ID, ProposalUpdate{Proposal: "again", Price: 1})
	wantKind(t, err, models.ErrInvalidState)
	wantKind(t, f.proposals.Withdraw(ctx, v, p.ID), models.ErrInvalidState)

	// a non-pending proposal reports its state to any caller
	_, err = f.proposals.Edit(ctx, vendor(), p.ID, ProposalUpdate{Proposal: "again", Price: 1})
	wantKind(t, err, models.ErrInvalidState)

	q := f.submit(t, v, event, 1, 80)
	if err := f.proposals.Withdraw(ctx, v, q.ID); err != nil {
		t.Fatalf("Withdraw: %v", err)
	}
	_, err = f.memory.GetProposal(ctx, q.ID)
	wantKind(t, err, models.ErrNotFound)
}

func TestDecide(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	o, v := organizer(), vendor()
	event := f.createEvent(t, o, "Launch", "Catering")
	p := f.submit(t, v, event, 0, 100)

	_, err := f.proposals.Decide(ctx, o, p.ID, models.ProposalPending)
	wantKind(t, err, models.ErrValidation)

	_, err = f.proposals.Decide(ctx, organizer(), p.ID, models.ProposalRejected)
	wantKind(t, err, models.ErrNotAuthorized)

	rejected, err := f.proposals.Decide(ctx, o, p.ID, models.ProposalRejected)
	if err != nil {
		t.Fatalf("reject: %v", err)
	}
	if rejected.Status != models.ProposalRejected {
		t.Fatalf("status = %s", rejected.Status)
	}
	_, err = f.proposals.Decide(ctx, o, p.ID, models.ProposalRejected)
	wantKind(t, err, models.ErrInvalidState)

	if f.requirement(t, event, 0).Status != models.RequirementOpen {
		t.Fatal("rejection must leave the requirement open")
	}
}

func TestProposalVisibility(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	o, v := organizer(), vendor()
	event := f.createEvent(t, o, "Launch", "Catering")
	p := f.submit(t, v, event, 0, 100)

	for _, caller := range []models.Principal{o, v, admin()} {
		if _, err := f.proposals.GetProposal(ctx, caller, p.ID); err != nil {
			t.Fatalf("GetProposal as %s: %v", caller.Role, err)
		}
	}
	_, err := f.proposals.GetProposal(ctx, vendor(), p.ID)
	wantKind(t, err, models.ErrNotAuthorized)

	_, err = f.proposals.ProposalsForEvent(ctx, vendor(), event.ID)
	wantKind(t, err, models.ErrNotAuthorized)
	list, err := f.proposals.ProposalsForEvent(ctx, o, event.ID)
	if err != nil || len(list) != 1 {
		t.Fatalf("ProposalsForEvent = %d, %v", len(list), err)
	}

	mine, err := f.proposals.ListForVendor(ctx, v)
	if err != nil || len(mine) != 1 || mine[0].ID != p.ID {
		t.Fatalf("ListForVendor = %v, %v", mine, err)
	}
	_, err = f.proposals.ListForVendor(ctx, o)
	wantKind(t, err, models.ErrNotAuthorized)
}

type recordingUploader struct {
	folders []string
	err     error
}

func (u *recordingUploader) UploadImages(ctx context.Context, sources []string, folder string) ([]string, error) {
	u.folders = append(u.folders, folder)
	if u.err != nil {
		return nil, u.err
	}
	out := make([]string, len(sources))
	for i := range sources {
		out[i] = "https://res.cloudinary.com/demo/" + folder
	}
	return out, nil
}

func TestSubmitUploadsPortfolio(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	uploader := &recordingUploader{}
	f.proposals = NewProposalService(f.store, f.coordinator, uploader, quietLogger())

	o, v := organizer(), vendor()
	event := f.createEvent(t, o, "Launch", "Photography")
	in := ProposalInput{
		EventID:       event.ID,
		RequirementID: event.Requirements[0].ID,
		Category:      "Photography",
		Proposal:      "Two shooters",
		Portfolio:     []string{"data:image/png;base64,AAAA", "https://example.com/a.jpg"},
	}
	p, err := f.proposals.Submit(ctx, v, in)
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if len(p.Portfolio) != 2 || len(uploader.folders) != 1 || uploader.folders[0] != helpers.PortfolioFolder {
		t.Fatalf("portfolio %v uploaded to %v", p.Portfolio, uploader.folders)
	}

	uploader.err = errors.New("cloudinary unavailable")
	if _, err := f.proposals.Submit(ctx, v, in); err == nil {
		t.Fatal("expected upload failure")
	}
}
