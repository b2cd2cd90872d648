package services

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/joshua-takyi/eventhub/internal/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestSendMessage(t *testing.T) {
	ms := NewMessageService(models.NewMemoryRepo())
	ctx := context.Background()
	a, b := organizer(), vendor()
	eventID := primitive.NewObjectID()

	cases := map[string]MessageInput{
		"empty":           {ReceiverID: b.ID, Content: "  "},
		"no receiver":     {Content: "hi"},
		"to self":         {ReceiverID: a.ID, Content: "hi"},
		"half a thread":   {ReceiverID: b.ID, EventID: &eventID, Content: "hi"},
		"other half only": {ReceiverID: b.ID, VendorID: &b.ID, Content: "hi"},
	}
	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ms.Send(ctx, a, in)
			wantKind(t, err, models.ErrValidation)
		})
	}

	_, err := ms.Send(ctx, models.Principal{}, MessageInput{ReceiverID: b.ID, Content: "hi"})
	wantKind(t, err, models.ErrNotAuthorized)

	msg, err := ms.Send(ctx, a, MessageInput{ReceiverID: b.ID, EventID: &eventID, VendorID: &b.ID, Content: " Are you free? "})
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if msg.Content != "Are you free?" || msg.SenderID != a.ID || msg.Read || msg.ID.IsZero() {
		t.Fatalf("message = %+v", msg)
	}
}

func TestThreadVisibility(t *testing.T) {
	ms := NewMessageService(models.NewMemoryRepo())
	ctx := context.Background()
	o1, o2, v := organizer(), organizer(), vendor()
	eventID := primitive.NewObjectID()

	send := func(from models.Principal, to uuid.UUID, text string) {
		t.Helper()
		if _, err := ms.Send(ctx, from, MessageInput{ReceiverID: to, EventID: &eventID, VendorID: &v.ID, Content: text}); err != nil {
			t.Fatal(err)
		}
	}
	send(o1, v.ID, "first")
	send(v, o1.ID, "second")
	send(o2, v.ID, "third")

	forVendor, err := ms.Thread(ctx, v, eventID, v.ID)
	if err != nil || len(forVendor) != 3 {
		t.Fatalf("vendor thread = %d, %v", len(forVendor), err)
	}
	if forVendor[0].Content != "first" || forVendor[2].Content != "third" {
		t.Fatalf("thread order = %q..%q", forVendor[0].Content, forVendor[2].Content)
	}
	forO1, _ := ms.Thread(ctx, o1, eventID, v.ID)
	if len(forO1) != 2 {
		t.Fatalf("o1 sees %d messages, want 2", len(forO1))
	}
	stranger, _ := ms.Thread(ctx, organizer(), eventID, v.ID)
	if len(stranger) != 0 {
		t.Fatalf("stranger sees %d messages", len(stranger))
	}
	forAdmin, _ := ms.Thread(ctx, admin(), eventID, v.ID)
	if len(forAdmin) != 3 {
		t.Fatalf("admin sees %d messages", len(forAdmin))
	}
}

func TestPartnersAndMarkRead(t *testing.T) {
	ms := NewMessageService(models.NewMemoryRepo())
	ctx := context.Background()
	me, early, late := organizer(), vendor(), vendor()

	first, err := ms.Send(ctx, early, MessageInput{ReceiverID: me.ID, Content: "quote attached"})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := ms.Send(ctx, me, MessageInput{ReceiverID: late.ID, Content: "any dates in May?"}); err != nil {
		t.Fatal(err)
	}

	partners, err := ms.Partners(ctx, me)
	if err != nil || len(partners) != 2 {
		t.Fatalf("partners = %v, %v", partners, err)
	}
	if partners[0] != late.ID {
		t.Fatalf("most recent partner = %v, want %v", partners[0], late.ID)
	}

	convo, err := ms.Conversation(ctx, me, early.ID)
	if err != nil || len(convo) != 1 {
		t.Fatalf("conversation = %d, %v", len(convo), err)
	}
	_, err = ms.Conversation(ctx, me, uuid.Nil)
	wantKind(t, err, models.ErrValidation)

	_, err = ms.MarkRead(ctx, early, first.ID)
	wantKind(t, err, models.ErrNotAuthorized)
	read, err := ms.MarkRead(ctx, me, first.ID)
	if err != nil || !read.Read {
		t.Fatalf("MarkRead = %+v, %v", read, err)
	}
}
