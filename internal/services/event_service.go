package services

import (
	"context"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/joshua-takyi/eventhub/internal/helpers"
	"github.com/joshua-takyi/eventhub/internal/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	DefaultEventLimit = 10
	MaxEventLimit     = 100
)

type EventInput struct {
	Title        string             `json:"title" validate:"required,min=3,max=200"`
	Description  string             `json:"description" validate:"max=5000"`
	EventType    string             `json:"event_type" validate:"required"`
	Date         time.Time          `json:"date"`
	Location     string             `json:"location" validate:"required,max=300"`
	Budget       float64            `json:"budget" validate:"gte=0"`
	GuestCount   int                `json:"guest_count" validate:"gte=0"`
	Images       []string           `json:"images"`
	Requirements []RequirementInput `json:"vendor_requirements"`
}

type TypeCount struct {
	Name  models.EventType `json:"name"`
	Value int              `json:"value"`
}

type CategoryStats struct {
	Category  models.Category `json:"category"`
	Open      int             `json:"open"`
	Assigned  int             `json:"assigned"`
	Completed int             `json:"completed"`
}

type EventAnalytics struct {
	TotalEvents           int             `json:"total_events"`
	UpcomingEvents        int             `json:"upcoming_events"`
	CompletedEvents       int             `json:"completed_events"`
	TotalBudget           float64         `json:"total_budget"`
	EventTypeDistribution []TypeCount     `json:"event_type_distribution"`
	VendorStats           []CategoryStats `json:"vendor_stats"`
}

type EventService struct {
	store    models.Store
	uploader ImageUploader
	logger   *slog.Logger
	now      func() time.Time
}

func NewEventService(store models.Store, uploader ImageUploader, logger *slog.Logger) *EventService {
	if logger == nil {
		logger = slog.Default()
	}
	return &EventService{
		store:    store,
		uploader: uploader,
		logger:   logger,
		now:      time.Now,
	}
}

func (es *EventService) CreateEvent(ctx context.Context, p models.Principal, in EventInput) (*models.Event, error) {
	if p.ID == uuid.Nil {
		return nil, models.NotAuthorized("authentication required")
	}
	in.Title = strings.TrimSpace(in.Title)
	if err := validateInput(in); err != nil {
		return nil, err
	}
	eventType := models.EventType(strings.ToLower(strings.TrimSpace(in.EventType)))
	if !models.ValidEventType(eventType) {
		return nil, models.Invalid("unrecognized event type %q", in.EventType)
	}
	if in.Date.IsZero() {
		return nil, models.Invalid("date is required")
	}

	// every requirement starts open and unassigned whatever the client sent
	requirements := make([]models.Requirement, 0, len(in.Requirements))
	for _, ri := range in.Requirements {
		req, err := ri.Requirement()
		if err != nil {
			return nil, err
		}
		requirements = append(requirements, req)
	}

	images := in.Images
	if len(images) > 0 && es.uploader != nil {
		uploadCtx, cancel := context.WithTimeout(ctx, uploadTimeout)
		urls, err := es.uploader.UploadImages(uploadCtx, images, helpers.EventsFolder)
		cancel()
		if err != nil {
			return nil, err
		}
		images = urls
	}

	now := es.now()
	event := &models.Event{
		Title:        in.Title,
		Description:  in.Description,
		EventType:    eventType,
		Date:         in.Date,
		Location:     in.Location,
		OrganizerID:  p.ID,
		Status:       models.EventUpcoming,
		Budget:       in.Budget,
		GuestCount:   in.GuestCount,
		Images:       images,
		Requirements: requirements,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	return es.store.CreateEvent(ctx, event)
}

func (es *EventService) GetEvent(ctx context.Context, id primitive.ObjectID) (*models.Event, error) {
	return es.store.GetEvent(ctx, id)
}

func (es *EventService) ListEvents(ctx context.Context, filter models.EventFilter, offset, limit int) ([]*models.Event, int, error) {
	if limit <= 0 {
		limit = DefaultEventLimit
	}
	if limit > MaxEventLimit {
		limit = MaxEventLimit
	}
	if offset < 0 {
		offset = 0
	}
	if filter.EventType != "" && !models.ValidEventType(filter.EventType) {
		return nil, 0, models.Invalid("unrecognized event type %q", filter.EventType)
	}
	return es.store.ListEvents(ctx, filter, offset, limit)
}

func (es *EventService) ListMyEvents(ctx context.Context, p models.Principal) ([]*models.Event, error) {
	return es.store.ListEventsByOrganizer(ctx, p.ID)
}

func validatePatch(patch models.EventPatch) error {
	if patch.IsEmpty() {
		return models.Invalid("no fields to update")
	}
	if patch.Title != nil && strings.TrimSpace(*patch.Title) == "" {
		return models.Invalid("title cannot be empty")
	}
	if patch.EventType != nil && !models.ValidEventType(*patch.EventType) {
		return models.Invalid("unrecognized event type %q", *patch.EventType)
	}
	if patch.Status != nil && !models.ValidEventStatus(*patch.Status) {
		return models.Invalid("unrecognized event status %q", *patch.Status)
	}
	if patch.Date != nil && patch.Date.IsZero() {
		return models.Invalid("date cannot be empty")
	}
	if patch.Budget != nil && *patch.Budget < 0 {
		return models.Invalid("budget must be at least 0")
	}
	if patch.GuestCount != nil && *patch.GuestCount < 0 {
		return models.Invalid("guest_count must be at least 0")
	}
	return nil
}

// UpdateEvent changes organizer-editable fields. Requirements move only
// through the requirement lifecycle.
func (es *EventService) UpdateEvent(ctx context.Context, p models.Principal, id primitive.ObjectID, patch models.EventPatch) (*models.Event, error) {
	if err := validatePatch(patch); err != nil {
		return nil, err
	}
	event, err := es.store.GetEvent(ctx, id)
	if err != nil {
		return nil, err
	}
	if !p.Is(event.OrganizerID) {
		return nil, models.NotAuthorized("only the organizer can update this event")
	}
	return es.store.UpdateEvent(ctx, id, patch)
}

// DeleteEvent removes the event together with every proposal against it.
func (es *EventService) DeleteEvent(ctx context.Context, p models.Principal, id primitive.ObjectID) error {
	event, err := es.store.GetEvent(ctx, id)
	if err != nil {
		return err
	}
	if !p.Is(event.OrganizerID) && !p.IsAdmin() {
		return models.NotAuthorized("only the organizer can delete this event")
	}

	var removed int64
	err = es.store.WithTransaction(ctx, func(ctx context.Context) error {
		if err := es.store.DeleteEvent(ctx, id); err != nil {
			return err
		}
		n, err := es.store.DeleteProposalsByEvents(ctx, id)
		removed = n
		return err
	})
	if err != nil {
		return err
	}
	es.logger.Info("Event deleted",
		"event_id", id.Hex(),
		"deleted_by", p.ID,
		"proposals_removed", removed,
	)
	return nil
}

// Analytics summarizes the caller's own events. Upcoming and completed
// are judged by date, not by status.
func (es *EventService) Analytics(ctx context.Context, p models.Principal) (*EventAnalytics, error) {
	events, err := es.store.ListEventsByOrganizer(ctx, p.ID)
	if err != nil {
		return nil, err
	}

	now := es.now()
	out := &EventAnalytics{
		TotalEvents:           len(events),
		EventTypeDistribution: []TypeCount{},
		VendorStats:           []CategoryStats{},
	}
	types := map[models.EventType]int{}
	stats := map[models.Category]*CategoryStats{}
	for _, e := range events {
		switch {
		case e.Date.After(now):
			out.UpcomingEvents++
		case e.Date.Before(now):
			out.CompletedEvents++
		}
		out.TotalBudget += e.Budget
		types[e.EventType]++

		for _, r := range e.Requirements {
			s, ok := stats[r.Category]
			if !ok {
				s = &CategoryStats{Category: r.Category}
				stats[r.Category] = s
			}
			switch r.Status {
			case models.RequirementOpen:
				s.Open++
			case models.RequirementAssigned:
				s.Assigned++
			case models.RequirementCompleted:
				s.Completed++
			}
		}
	}

	for name, n := range types {
		out.EventTypeDistribution = append(out.EventTypeDistribution, TypeCount{Name: name, Value: n})
	}
	sort.Slice(out.EventTypeDistribution, func(i, j int) bool {
		return out.EventTypeDistribution[i].Name < out.EventTypeDistribution[j].Name
	})
	for _, s := range stats {
		out.VendorStats = append(out.VendorStats, *s)
	}
	sort.Slice(out.VendorStats, func(i, j int) bool {
		return out.VendorStats[i].Category < out.VendorStats[j].Category
	})
	return out, nil
}
