package models

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
)

func seedEvent(t *testing.T, m *MemoryRepo, status EventStatus) *Event {
	t.Helper()
	e, err := m.CreateEvent(context.Background(), &Event{
		Title:       "Launch party",
		EventType:   EventTypeCorporate,
		Date:        time.Now().Add(48 * time.Hour),
		OrganizerID: uuid.New(),
		Status:      status,
		Requirements: []Requirement{
			{Category: CategoryCatering, Budget: 800, Status: RequirementOpen},
		},
	})
	if err != nil {
		t.Fatalf("CreateEvent: %v", err)
	}
	return e
}

func TestMemoryAssignRequirementIsCompareAndSet(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryRepo()
	e := seedEvent(t, m, EventUpcoming)
	reqID := e.Requirements[0].ID

	v1, v2 := uuid.New(), uuid.New()
	if err := m.AssignRequirement(ctx, e.ID, reqID, v1); err != nil {
		t.Fatalf("first assign: %v", err)
	}
	err := m.AssignRequirement(ctx, e.ID, reqID, v2)
	if !errors.Is(err, ErrInvalidState) {
		t.Fatalf("second assign = %v, want InvalidState", err)
	}

	got, _ := m.GetEvent(ctx, e.ID)
	r := got.Requirement(reqID)
	if r.Status != RequirementAssigned || r.AssignedVendorID == nil || *r.AssignedVendorID != v1 {
		t.Errorf("unexpected requirement after race: %+v", r)
	}

	if err := m.ReleaseRequirement(ctx, e.ID, reqID, v2); !errors.Is(err, ErrInvalidState) {
		t.Errorf("release by wrong vendor = %v, want InvalidState", err)
	}
	if err := m.ReleaseRequirement(ctx, e.ID, reqID, v1); err != nil {
		t.Fatalf("release: %v", err)
	}
	got, _ = m.GetEvent(ctx, e.ID)
	if r := got.Requirement(reqID); r.Status != RequirementOpen || r.AssignedVendorID != nil {
		t.Errorf("release left %+v", r)
	}
}

func TestMemoryAssignRejectsCancelledEvent(t *testing.T) {
	m := NewMemoryRepo()
	e := seedEvent(t, m, EventCancelled)
	err := m.AssignRequirement(context.Background(), e.ID, e.Requirements[0].ID, uuid.New())
	if !errors.Is(err, ErrInvalidState) {
		t.Fatalf("assign on cancelled event = %v, want InvalidState", err)
	}
}

func TestMemoryReturnsCopies(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryRepo()
	e := seedEvent(t, m, EventUpcoming)

	e.Requirements[0].Status = RequirementCompleted
	got, _ := m.GetEvent(ctx, e.ID)
	if got.Requirements[0].Status != RequirementOpen {
		t.Error("mutating a returned event leaked into the store")
	}
}

func TestMemoryTransactionRollsBack(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryRepo()
	e := seedEvent(t, m, EventUpcoming)
	reqID := e.Requirements[0].ID

	boom := errors.New("boom")
	err := m.WithTransaction(ctx, func(ctx context.Context) error {
		if err := m.AssignRequirement(ctx, e.ID, reqID, uuid.New()); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("WithTransaction = %v", err)
	}
	got, _ := m.GetEvent(ctx, e.ID)
	if r := got.Requirement(reqID); r.Status != RequirementOpen || r.AssignedVendorID != nil {
		t.Errorf("rollback left %+v", r)
	}
}

func TestMemoryListOpenRequirementsSkipsCancelledAndAssigned(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryRepo()
	open := seedEvent(t, m, EventUpcoming)
	seedEvent(t, m, EventCancelled)
	taken := seedEvent(t, m, EventUpcoming)
	if err := m.AssignRequirement(ctx, taken.ID, taken.Requirements[0].ID, uuid.New()); err != nil {
		t.Fatalf("assign: %v", err)
	}

	list, err := m.ListOpenRequirements(ctx)
	if err != nil {
		t.Fatalf("ListOpenRequirements: %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("got %d open requirements, want 1", len(list))
	}
	if list[0].EventID != open.ID || list[0].EventTitle != open.Title || list[0].OrganizerID != open.OrganizerID {
		t.Errorf("projection not enriched with event data: %+v", list[0])
	}
}

func TestMemoryPendingGuards(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryRepo()
	e := seedEvent(t, m, EventUpcoming)
	owner, other := uuid.New(), uuid.New()

	p, err := m.CreateProposal(ctx, &Proposal{
		VendorID:      &owner,
		EventID:       e.ID,
		RequirementID: e.Requirements[0].ID,
		Category:      CategoryCatering,
		Proposal:      "Buffet for 80",
		Price:         500,
	})
	if err != nil {
		t.Fatalf("CreateProposal: %v", err)
	}
	if p.Status != ProposalPending {
		t.Fatalf("new proposal status = %q", p.Status)
	}

	if _, err := m.UpdatePendingProposal(ctx, p.ID, other, "x", 1); !errors.Is(err, ErrNotAuthorized) {
		t.Errorf("edit by other vendor = %v, want NotAuthorized", err)
	}
	if _, err := m.SetProposalStatus(ctx, p.ID, ProposalPending, ProposalRejected); err != nil {
		t.Fatalf("reject: %v", err)
	}
	if _, err := m.UpdatePendingProposal(ctx, p.ID, owner, "x", 1); !errors.Is(err, ErrInvalidState) {
		t.Errorf("edit after reject = %v, want InvalidState", err)
	}
	if err := m.DeletePendingProposal(ctx, p.ID, owner); !errors.Is(err, ErrInvalidState) {
		t.Errorf("withdraw after reject = %v, want InvalidState", err)
	}
}

func TestMemoryDetachVendorKeepsProposals(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryRepo()
	e := seedEvent(t, m, EventUpcoming)
	vendor := uuid.New()
	p, _ := m.CreateProposal(ctx, &Proposal{VendorID: &vendor, EventID: e.ID, RequirementID: e.Requirements[0].ID})

	n, err := m.DetachVendor(ctx, vendor)
	if err != nil || n != 1 {
		t.Fatalf("DetachVendor = %d, %v", n, err)
	}
	got, err := m.GetProposal(ctx, p.ID)
	if err != nil {
		t.Fatalf("proposal should remain readable: %v", err)
	}
	if got.VendorID != nil {
		t.Error("vendor reference should be nulled")
	}
}

func TestMemoryNotificationsNewestFirstAndLimited(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryRepo()
	user := uuid.New()
	base := time.Now()
	for i := 0; i < NotificationListLimit+5; i++ {
		if _, err := m.CreateNotification(ctx, &Notification{
			UserID:    user,
			Message:   "hello",
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}); err != nil {
			t.Fatalf("CreateNotification: %v", err)
		}
	}
	list, _ := m.ListNotifications(ctx, user, NotificationListLimit)
	if len(list) != NotificationListLimit {
		t.Fatalf("got %d notifications, want %d", len(list), NotificationListLimit)
	}
	if !list[0].CreatedAt.After(list[1].CreatedAt) {
		t.Error("notifications not sorted newest first")
	}

	if _, err := m.MarkNotificationRead(ctx, list[0].ID, uuid.New()); !errors.Is(err, ErrNotAuthorized) {
		t.Errorf("mark read by stranger = %v, want NotAuthorized", err)
	}
}

func TestMemoryReadsWaitForTransaction(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryRepo()
	e := seedEvent(t, m, EventUpcoming)
	reqID := e.Requirements[0].ID

	for _, commit := range []bool{true, false} {
		seen := make(chan RequirementStatus, 1)
		err := m.WithTransaction(ctx, func(txCtx context.Context) error {
			if err := m.AssignRequirement(txCtx, e.ID, reqID, uuid.New()); err != nil {
				return err
			}
			go func() {
				got, err := m.GetEvent(ctx, e.ID)
				if err != nil {
					seen <- ""
					return
				}
				seen <- got.Requirement(reqID).Status
			}()
			select {
			case s := <-seen:
				t.Errorf("read outside the transaction saw %q before commit", s)
			case <-time.After(20 * time.Millisecond):
			}
			if !commit {
				return errors.New("abort")
			}
			return nil
		})
		if commit && err != nil {
			t.Fatalf("WithTransaction: %v", err)
		}

		want := RequirementOpen
		if commit {
			want = RequirementAssigned
		}
		select {
		case s := <-seen:
			if s != want {
				t.Errorf("commit=%v: read saw %q, want %q", commit, s, want)
			}
		case <-time.After(time.Second):
			t.Fatal("read never completed")
		}
		if commit {
			if err := m.ReleaseRequirement(ctx, e.ID, reqID, *mustEvent(t, m, e).Requirement(reqID).AssignedVendorID); err != nil {
				t.Fatalf("release: %v", err)
			}
		}
	}
}

func mustEvent(t *testing.T, m *MemoryRepo, e *Event) *Event {
	t.Helper()
	got, err := m.GetEvent(context.Background(), e.ID)
	if err != nil {
		t.Fatal(err)
	}
	return got
}
