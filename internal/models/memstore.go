package models

import (
	"bytes"
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MemoryRepo is an in-memory Store for local development and tests. Records
// are cloned on the way in and out so callers never share state with it.
// Transactions are serialized and roll back to a snapshot on error. Reads
// outside a transaction wait for a running one to finish, so no caller sees
// its writes before commit.
type MemoryRepo struct {
	mu   sync.RWMutex
	txMu sync.RWMutex

	events        map[primitive.ObjectID]*Event
	proposals     map[primitive.ObjectID]*Proposal
	notifications map[primitive.ObjectID]*Notification
	messages      map[primitive.ObjectID]*Message
}

type memorySnapshot struct {
	events        map[primitive.ObjectID]*Event
	proposals     map[primitive.ObjectID]*Proposal
	notifications map[primitive.ObjectID]*Notification
	messages      map[primitive.ObjectID]*Message
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		events:        map[primitive.ObjectID]*Event{},
		proposals:     map[primitive.ObjectID]*Proposal{},
		notifications: map[primitive.ObjectID]*Notification{},
		messages:      map[primitive.ObjectID]*Message{},
	}
}

type memoryTxKey struct{}

func (m *MemoryRepo) inTransaction(ctx context.Context) bool {
	owner, _ := ctx.Value(memoryTxKey{}).(*MemoryRepo)
	return owner == m
}

// WithTransaction holds txMu for the whole of fn. Nested calls join the
// outer transaction.
func (m *MemoryRepo) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if m.inTransaction(ctx) {
		return fn(ctx)
	}
	m.txMu.Lock()
	defer m.txMu.Unlock()

	snap := m.snapshot()
	if err := fn(context.WithValue(ctx, memoryTxKey{}, m)); err != nil {
		m.restore(snap)
		return err
	}
	return nil
}

// lock takes the write lock. Writes outside a transaction also wait on txMu
// so a rollback never discards them.
func (m *MemoryRepo) lock(ctx context.Context) func() {
	if m.inTransaction(ctx) {
		m.mu.Lock()
		return m.mu.Unlock
	}
	m.txMu.Lock()
	m.mu.Lock()
	return func() {
		m.mu.Unlock()
		m.txMu.Unlock()
	}
}

// rlock takes the read lock, waiting on txMu when ctx is outside a
// transaction.
func (m *MemoryRepo) rlock(ctx context.Context) func() {
	if m.inTransaction(ctx) {
		m.mu.RLock()
		return m.mu.RUnlock
	}
	m.txMu.RLock()
	m.mu.RLock()
	return func() {
		m.mu.RUnlock()
		m.txMu.RUnlock()
	}
}

func (m *MemoryRepo) snapshot() memorySnapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s := memorySnapshot{
		events:        make(map[primitive.ObjectID]*Event, len(m.events)),
		proposals:     make(map[primitive.ObjectID]*Proposal, len(m.proposals)),
		notifications: make(map[primitive.ObjectID]*Notification, len(m.notifications)),
		messages:      make(map[primitive.ObjectID]*Message, len(m.messages)),
	}
	for k, v := range m.events {
		s.events[k] = cloneEvent(v)
	}
	for k, v := range m.proposals {
		s.proposals[k] = cloneProposal(v)
	}
	for k, v := range m.notifications {
		n := *v
		s.notifications[k] = &n
	}
	for k, v := range m.messages {
		s.messages[k] = cloneMessage(v)
	}
	return s
}

func (m *MemoryRepo) restore(s memorySnapshot) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = s.events
	m.proposals = s.proposals
	m.notifications = s.notifications
	m.messages = s.messages
}

func cloneUUID(id *uuid.UUID) *uuid.UUID {
	if id == nil {
		return nil
	}
	c := *id
	return &c
}

func cloneEvent(e *Event) *Event {
	c := *e
	c.Images = append([]string(nil), e.Images...)
	c.Requirements = make([]Requirement, len(e.Requirements))
	for i, r := range e.Requirements {
		r.AssignedVendorID = cloneUUID(r.AssignedVendorID)
		c.Requirements[i] = r
	}
	return &c
}

func cloneProposal(p *Proposal) *Proposal {
	c := *p
	c.VendorID = cloneUUID(p.VendorID)
	c.Portfolio = append([]string(nil), p.Portfolio...)
	c.PreviousWork = make([]PreviousWork, len(p.PreviousWork))
	for i, w := range p.PreviousWork {
		w.Images = append([]string(nil), w.Images...)
		c.PreviousWork[i] = w
	}
	return &c
}

func cloneMessage(msg *Message) *Message {
	c := *msg
	c.VendorID = cloneUUID(msg.VendorID)
	if msg.EventID != nil {
		id := *msg.EventID
		c.EventID = &id
	}
	return &c
}

func newerFirst(aTime, bTime time.Time, aID, bID primitive.ObjectID) bool {
	if !aTime.Equal(bTime) {
		return aTime.After(bTime)
	}
	return bytes.Compare(aID[:], bID[:]) > 0
}

// Events

func (m *MemoryRepo) CreateEvent(ctx context.Context, event *Event) (*Event, error) {
	if err := event.BeforeCreate(); err != nil {
		return nil, err
	}
	defer m.lock(ctx)()
	m.events[event.ID] = cloneEvent(event)
	return cloneEvent(event), nil
}

func (m *MemoryRepo) GetEvent(ctx context.Context, id primitive.ObjectID) (*Event, error) {
	defer m.rlock(ctx)()
	e, ok := m.events[id]
	if !ok {
		return nil, NotFound("event %s not found", id.Hex())
	}
	return cloneEvent(e), nil
}

func (m *MemoryRepo) sortedEvents(keep func(*Event) bool) []*Event {
	events := []*Event{}
	for _, e := range m.events {
		if keep(e) {
			events = append(events, cloneEvent(e))
		}
	}
	sort.SliceStable(events, func(i, j int) bool {
		if !events[i].Date.Equal(events[j].Date) {
			return events[i].Date.Before(events[j].Date)
		}
		return bytes.Compare(events[i].ID[:], events[j].ID[:]) < 0
	})
	return events
}

func (m *MemoryRepo) ListEvents(ctx context.Context, filter EventFilter, offset, limit int) ([]*Event, int, error) {
	defer m.rlock(ctx)()
	events := m.sortedEvents(func(e *Event) bool {
		return filter.EventType == "" || e.EventType == filter.EventType
	})
	total := len(events)
	if offset >= total {
		return []*Event{}, total, nil
	}
	end := offset + limit
	if end > total {
		end = total
	}
	return events[offset:end], total, nil
}

func (m *MemoryRepo) ListEventsByOrganizer(ctx context.Context, organizerID uuid.UUID) ([]*Event, error) {
	defer m.rlock(ctx)()
	events := m.sortedEvents(func(e *Event) bool { return e.OrganizerID == organizerID })
	// newest date first, matching the Mongo sort
	for i, j := 0, len(events)-1; i < j; i, j = i+1, j-1 {
		events[i], events[j] = events[j], events[i]
	}
	return events, nil
}

func (m *MemoryRepo) UpdateEvent(ctx context.Context, id primitive.ObjectID, patch EventPatch) (*Event, error) {
	defer m.lock(ctx)()
	e, ok := m.events[id]
	if !ok {
		return nil, NotFound("event %s not found", id.Hex())
	}
	patch.Apply(e)
	e.UpdatedAt = time.Now()
	return cloneEvent(e), nil
}

func (m *MemoryRepo) DeleteEvent(ctx context.Context, id primitive.ObjectID) error {
	defer m.lock(ctx)()
	if _, ok := m.events[id]; !ok {
		return NotFound("event %s not found", id.Hex())
	}
	delete(m.events, id)
	return nil
}

func (m *MemoryRepo) DeleteEventsByOrganizer(ctx context.Context, organizerID uuid.UUID) ([]primitive.ObjectID, error) {
	defer m.lock(ctx)()
	var ids []primitive.ObjectID
	for id, e := range m.events {
		if e.OrganizerID == organizerID {
			ids = append(ids, id)
			delete(m.events, id)
		}
	}
	return ids, nil
}

func (m *MemoryRepo) AppendRequirement(ctx context.Context, eventID primitive.ObjectID, req Requirement) (*Event, error) {
	defer m.lock(ctx)()
	e, ok := m.events[eventID]
	if !ok {
		return nil, NotFound("event %s not found", eventID.Hex())
	}
	if e.IsCancelled() {
		return nil, InvalidState("event %s is cancelled", eventID.Hex())
	}
	if req.ID.IsZero() {
		req.ID = primitive.NewObjectID()
	}
	req.AssignedVendorID = cloneUUID(req.AssignedVendorID)
	e.Requirements = append(e.Requirements, req)
	e.UpdatedAt = time.Now()
	return cloneEvent(e), nil
}

// requirementLocked returns the stored event and requirement; m.mu must be held.
func (m *MemoryRepo) requirementLocked(eventID, reqID primitive.ObjectID) (*Event, *Requirement, error) {
	e, ok := m.events[eventID]
	if !ok {
		return nil, nil, NotFound("event %s not found", eventID.Hex())
	}
	r := e.Requirement(reqID)
	if r == nil {
		return nil, nil, NotFound("requirement %s not found", reqID.Hex())
	}
	return e, r, nil
}

func (m *MemoryRepo) AssignRequirement(ctx context.Context, eventID, reqID primitive.ObjectID, vendorID uuid.UUID) error {
	defer m.lock(ctx)()
	e, r, err := m.requirementLocked(eventID, reqID)
	if err != nil {
		return err
	}
	if e.IsCancelled() {
		return InvalidState("event %s is cancelled", eventID.Hex())
	}
	if r.Status != RequirementOpen {
		return InvalidState("requirement %s is not open (status %s)", reqID.Hex(), r.Status)
	}
	r.Status = RequirementAssigned
	r.AssignedVendorID = cloneUUID(&vendorID)
	e.UpdatedAt = time.Now()
	return nil
}

func (m *MemoryRepo) ReleaseRequirement(ctx context.Context, eventID, reqID primitive.ObjectID, vendorID uuid.UUID) error {
	defer m.lock(ctx)()
	e, r, err := m.requirementLocked(eventID, reqID)
	if err != nil {
		return err
	}
	if r.Status != RequirementAssigned || r.AssignedVendorID == nil || *r.AssignedVendorID != vendorID {
		return InvalidState("requirement %s is not assigned to this vendor (status %s)", reqID.Hex(), r.Status)
	}
	r.Status = RequirementOpen
	r.AssignedVendorID = nil
	e.UpdatedAt = time.Now()
	return nil
}

func (m *MemoryRepo) CompleteRequirement(ctx context.Context, eventID, reqID primitive.ObjectID) error {
	defer m.lock(ctx)()
	e, r, err := m.requirementLocked(eventID, reqID)
	if err != nil {
		return err
	}
	if r.Status != RequirementAssigned {
		return InvalidState("requirement %s is not assigned (status %s)", reqID.Hex(), r.Status)
	}
	r.Status = RequirementCompleted
	e.UpdatedAt = time.Now()
	return nil
}

func (m *MemoryRepo) ListOpenRequirements(ctx context.Context) ([]*OpenRequirement, error) {
	defer m.rlock(ctx)()
	events := m.sortedEvents(func(e *Event) bool { return !e.IsCancelled() })

	open := []*OpenRequirement{}
	for _, e := range events {
		for _, r := range e.Requirements {
			if r.Status != RequirementOpen {
				continue
			}
			open = append(open, &OpenRequirement{
				EventID:       e.ID,
				EventTitle:    e.Title,
				EventDate:     e.Date,
				EventLocation: e.Location,
				OrganizerID:   e.OrganizerID,
				RequirementID: r.ID,
				Category:      r.Category,
				Description:   r.Description,
				Budget:        r.Budget,
				Status:        r.Status,
			})
		}
	}
	return open, nil
}

// Proposals

func (m *MemoryRepo) CreateProposal(ctx context.Context, proposal *Proposal) (*Proposal, error) {
	if err := proposal.BeforeCreate(); err != nil {
		return nil, err
	}
	defer m.lock(ctx)()
	m.proposals[proposal.ID] = cloneProposal(proposal)
	return cloneProposal(proposal), nil
}

func (m *MemoryRepo) GetProposal(ctx context.Context, id primitive.ObjectID) (*Proposal, error) {
	defer m.rlock(ctx)()
	p, ok := m.proposals[id]
	if !ok {
		return nil, NotFound("proposal %s not found", id.Hex())
	}
	return cloneProposal(p), nil
}

func (m *MemoryRepo) listProposals(ctx context.Context, keep func(*Proposal) bool) []*Proposal {
	defer m.rlock(ctx)()
	out := []*Proposal{}
	for _, p := range m.proposals {
		if keep(p) {
			out = append(out, cloneProposal(p))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return newerFirst(out[i].CreatedAt, out[j].CreatedAt, out[i].ID, out[j].ID)
	})
	return out
}

func (m *MemoryRepo) ListProposalsByEvent(ctx context.Context, eventID primitive.ObjectID) ([]*Proposal, error) {
	return m.listProposals(ctx, func(p *Proposal) bool { return p.EventID == eventID }), nil
}

func (m *MemoryRepo) ListProposalsByVendor(ctx context.Context, vendorID uuid.UUID) ([]*Proposal, error) {
	return m.listProposals(ctx, func(p *Proposal) bool { return p.OwnedBy(vendorID) }), nil
}

// pendingLocked returns the stored proposal if it is pending and, when
// vendorID is set, owned by that vendor. Status is checked first. m.mu must
// be held.
func (m *MemoryRepo) pendingLocked(id primitive.ObjectID, vendorID *uuid.UUID) (*Proposal, error) {
	p, ok := m.proposals[id]
	if !ok {
		return nil, NotFound("proposal %s not found", id.Hex())
	}
	if !p.IsPending() {
		return nil, InvalidState("proposal %s is %s", id.Hex(), p.Status)
	}
	if vendorID != nil && !p.OwnedBy(*vendorID) {
		return nil, NotAuthorized("proposal %s belongs to another vendor", id.Hex())
	}
	return p, nil
}

func (m *MemoryRepo) UpdatePendingProposal(ctx context.Context, id primitive.ObjectID, vendorID uuid.UUID, text string, price float64) (*Proposal, error) {
	defer m.lock(ctx)()
	p, err := m.pendingLocked(id, &vendorID)
	if err != nil {
		return nil, err
	}
	p.Proposal = text
	p.Price = price
	p.UpdatedAt = time.Now()
	return cloneProposal(p), nil
}

func (m *MemoryRepo) DeletePendingProposal(ctx context.Context, id primitive.ObjectID, vendorID uuid.UUID) error {
	defer m.lock(ctx)()
	if _, err := m.pendingLocked(id, &vendorID); err != nil {
		return err
	}
	delete(m.proposals, id)
	return nil
}

func (m *MemoryRepo) SetProposalStatus(ctx context.Context, id primitive.ObjectID, from, to ProposalStatus) (*Proposal, error) {
	defer m.lock(ctx)()
	p, ok := m.proposals[id]
	if !ok {
		return nil, NotFound("proposal %s not found", id.Hex())
	}
	if p.Status != from {
		return nil, InvalidState("proposal %s is %s", id.Hex(), p.Status)
	}
	p.Status = to
	p.UpdatedAt = time.Now()
	return cloneProposal(p), nil
}

func (m *MemoryRepo) DeleteProposalsByEvents(ctx context.Context, eventIDs ...primitive.ObjectID) (int64, error) {
	defer m.lock(ctx)()
	doomed := make(map[primitive.ObjectID]bool, len(eventIDs))
	for _, id := range eventIDs {
		doomed[id] = true
	}
	var n int64
	for id, p := range m.proposals {
		if doomed[p.EventID] {
			delete(m.proposals, id)
			n++
		}
	}
	return n, nil
}

func (m *MemoryRepo) DetachVendor(ctx context.Context, vendorID uuid.UUID) (int64, error) {
	defer m.lock(ctx)()
	var n int64
	for _, p := range m.proposals {
		if p.OwnedBy(vendorID) {
			p.VendorID = nil
			p.UpdatedAt = time.Now()
			n++
		}
	}
	return n, nil
}

// Notifications

func (m *MemoryRepo) CreateNotification(ctx context.Context, n *Notification) (*Notification, error) {
	if err := n.BeforeCreate(); err != nil {
		return nil, err
	}
	defer m.lock(ctx)()
	stored := *n
	m.notifications[n.ID] = &stored
	out := *n
	return &out, nil
}

func (m *MemoryRepo) ListNotifications(ctx context.Context, userID uuid.UUID, limit int) ([]*Notification, error) {
	defer m.rlock(ctx)()
	out := []*Notification{}
	for _, n := range m.notifications {
		if n.UserID == userID {
			c := *n
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return newerFirst(out[i].CreatedAt, out[j].CreatedAt, out[i].ID, out[j].ID)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *MemoryRepo) MarkNotificationRead(ctx context.Context, id primitive.ObjectID, userID uuid.UUID) (*Notification, error) {
	defer m.lock(ctx)()
	n, ok := m.notifications[id]
	if !ok {
		return nil, NotFound("notification %s not found", id.Hex())
	}
	if n.UserID != userID {
		return nil, NotAuthorized("notification %s belongs to another user", id.Hex())
	}
	n.Read = true
	c := *n
	return &c, nil
}

// Messages

func (m *MemoryRepo) CreateMessage(ctx context.Context, msg *Message) (*Message, error) {
	if err := msg.BeforeCreate(); err != nil {
		return nil, err
	}
	defer m.lock(ctx)()
	m.messages[msg.ID] = cloneMessage(msg)
	return cloneMessage(msg), nil
}

func (m *MemoryRepo) listMessages(ctx context.Context, keep func(*Message) bool, newest bool) []*Message {
	defer m.rlock(ctx)()
	out := []*Message{}
	for _, msg := range m.messages {
		if keep(msg) {
			out = append(out, cloneMessage(msg))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		after := newerFirst(out[i].Timestamp, out[j].Timestamp, out[i].ID, out[j].ID)
		if newest {
			return after
		}
		return !after
	})
	return out
}

func (m *MemoryRepo) ListThread(ctx context.Context, eventID primitive.ObjectID, vendorID uuid.UUID) ([]*Message, error) {
	return m.listMessages(ctx, func(msg *Message) bool {
		return msg.EventID != nil && *msg.EventID == eventID && msg.VendorID != nil && *msg.VendorID == vendorID
	}, false), nil
}

func (m *MemoryRepo) ListConversation(ctx context.Context, a, b uuid.UUID) ([]*Message, error) {
	return m.listMessages(ctx, func(msg *Message) bool {
		return (msg.SenderID == a && msg.ReceiverID == b) || (msg.SenderID == b && msg.ReceiverID == a)
	}, false), nil
}

func (m *MemoryRepo) ListMessagesForUser(ctx context.Context, userID uuid.UUID) ([]*Message, error) {
	return m.listMessages(ctx, func(msg *Message) bool {
		return msg.SenderID == userID || msg.ReceiverID == userID
	}, true), nil
}

func (m *MemoryRepo) MarkMessageRead(ctx context.Context, id primitive.ObjectID, receiverID uuid.UUID) (*Message, error) {
	defer m.lock(ctx)()
	msg, ok := m.messages[id]
	if !ok {
		return nil, NotFound("message %s not found", id.Hex())
	}
	if msg.ReceiverID != receiverID {
		return nil, NotAuthorized("only the receiver can mark a message as read")
	}
	msg.Read = true
	return cloneMessage(msg), nil
}

var (
	_ Store = (*MemoryRepo)(nil)
	_ Store = (*MongodbRepo)(nil)
)
