package services

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/joshua-takyi/eventhub/internal/models"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fixture struct {
	store        models.Store
	memory       *models.MemoryRepo
	notifier     *Notifier
	requirements *RequirementService
	coordinator  *AssignmentCoordinator
	proposals    *ProposalService
	events       *EventService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	mem := models.NewMemoryRepo()
	return newFixtureWith(t, mem, mem)
}

// newFixtureWith builds the services over store; mem is the memory repo
// store reads through, for assertions and notifications.
func newFixtureWith(t *testing.T, store models.Store, mem *models.MemoryRepo) *fixture {
	t.Helper()
	logger := quietLogger()
	notifier := NewNotifier(logger, NewStoreSink(mem))
	notifier.backoff = 0
	requirements := NewRequirementService(store, logger)
	coordinator := NewAssignmentCoordinator(store, requirements, notifier, logger)
	coordinator.backoff = 0
	return &fixture{
		store:        store,
		memory:       mem,
		notifier:     notifier,
		requirements: requirements,
		coordinator:  coordinator,
		proposals:    NewProposalService(store, coordinator, nil, logger),
		events:       NewEventService(store, nil, logger),
	}
}

func organizer() models.Principal {
	return models.Principal{ID: uuid.New(), Role: models.RoleUser}
}

func vendor() models.Principal {
	return models.Principal{ID: uuid.New(), Role: models.RoleVendor}
}

func admin() models.Principal {
	return models.Principal{ID: uuid.New(), Role: models.RoleAdmin}
}

func (f *fixture) createEvent(t *testing.T, owner models.Principal, title string, categories ...string) *models.Event {
	t.Helper()
	in := EventInput{
		Title:     title,
		EventType: "wedding",
		Date:      time.Now().Add(30 * 24 * time.Hour),
		Location:  "Accra",
		Budget:    10000,
	}
	for _, c := range categories {
		in.Requirements = append(in.Requirements, RequirementInput{Category: c, Budget: 1000})
	}
	event, err := f.events.CreateEvent(context.Background(), owner, in)
	if err != nil {
		t.Fatalf("CreateEvent: %v", err)
	}
	return event
}

func (f *fixture) submit(t *testing.T, v models.Principal, event *models.Event, req int, price float64) *models.Proposal {
	t.Helper()
	r := event.Requirements[req]
	p, err := f.proposals.Submit(context.Background(), v, ProposalInput{
		EventID:       event.ID,
		RequirementID: r.ID,
		Category:      string(r.Category),
		Proposal:      "Full service for 200 guests",
		Price:         price,
	})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	return p
}

func (f *fixture) requirement(t *testing.T, event *models.Event, req int) models.Requirement {
	t.Helper()
	fresh, err := f.memory.GetEvent(context.Background(), event.ID)
	if err != nil {
		t.Fatalf("GetEvent: %v", err)
	}
	return fresh.Requirements[req]
}

func (f *fixture) proposalStatus(t *testing.T, id *models.Proposal) models.ProposalStatus {
	t.Helper()
	p, err := f.memory.GetProposal(context.Background(), id.ID)
	if err != nil {
		t.Fatalf("GetProposal: %v", err)
	}
	return p.Status
}

func wantKind(t *testing.T, err, kind error) {
	t.Helper()
	if !errors.Is(err, kind) {
		t.Fatalf("error = %v, want %v", err, kind)
	}
}
