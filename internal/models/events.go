package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type EventType string

const (
	EventTypeWedding   EventType = "wedding"
	EventTypeMehendi   EventType = "mehendi"
	EventTypeBirthday  EventType = "birthday"
	EventTypeCorporate EventType = "corporate"
	EventTypeOther     EventType = "other"
)

func ValidEventType(t EventType) bool {
	switch t {
	case EventTypeWedding, EventTypeMehendi, EventTypeBirthday, EventTypeCorporate, EventTypeOther:
		return true
	default:
		return false
	}
}

type EventStatus string

const (
	EventUpcoming  EventStatus = "upcoming"
	EventOngoing   EventStatus = "ongoing"
	EventCompleted EventStatus = "completed"
	EventCancelled EventStatus = "cancelled"
)

func ValidEventStatus(s EventStatus) bool {
	switch s {
	case EventUpcoming, EventOngoing, EventCompleted, EventCancelled:
		return true
	default:
		return false
	}
}

type Category string

const (
	CategoryCatering    Category = "Catering"
	CategoryPhotography Category = "Photography"
	CategoryDecoration  Category = "Decoration"
	CategoryMusic       Category = "Music"
	CategoryMakeup      Category = "Makeup"
	CategoryOther       Category = "Other"
)

var categories = []Category{
	CategoryCatering,
	CategoryPhotography,
	CategoryDecoration,
	CategoryMusic,
	CategoryMakeup,
	CategoryOther,
}

// ParseCategory matches case-insensitively, so "catering" and "Catering"
// both resolve to CategoryCatering.
func ParseCategory(s string) (Category, bool) {
	s = strings.TrimSpace(s)
	for _, c := range categories {
		if strings.EqualFold(string(c), s) {
			return c, true
		}
	}
	return "", false
}

type RequirementStatus string

const (
	RequirementOpen      RequirementStatus = "open"
	RequirementAssigned  RequirementStatus = "assigned"
	RequirementCompleted RequirementStatus = "completed"
)

// Requirement is embedded in its Event and identified by an id unique within
// that event. AssignedVendorID is set iff Status is assigned or completed.
type Requirement struct {
	ID               primitive.ObjectID `bson:"_id" json:"id"`
	Category         Category           `bson:"category" json:"category"`
	Description      string             `bson:"description" json:"description"`
	Budget           float64            `bson:"budget" json:"budget"`
	Status           RequirementStatus  `bson:"status" json:"status"`
	AssignedVendorID *uuid.UUID         `bson:"assigned_vendor_id" json:"assigned_vendor_id"`
}

func (r *Requirement) IsOpen() bool {
	return r.Status == RequirementOpen
}

type Event struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Title        string             `bson:"title" json:"title"`
	Description  string             `bson:"description" json:"description"`
	EventType    EventType          `bson:"event_type" json:"event_type"`
	Date         time.Time          `bson:"date" json:"date"`
	Location     string             `bson:"location" json:"location"`
	OrganizerID  uuid.UUID          `bson:"organizer_id" json:"organizer_id"`
	Status       EventStatus        `bson:"status" json:"status"`
	Budget       float64            `bson:"budget" json:"budget"`
	GuestCount   int                `bson:"guest_count" json:"guest_count"`
	Images       []string           `bson:"images" json:"images"`
	Requirements []Requirement      `bson:"vendor_requirements" json:"vendor_requirements"`
	CreatedAt    time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt    time.Time          `bson:"updated_at" json:"updated_at"`
}

func (e *Event) BeforeCreate() error {
	if e.ID.IsZero() {
		e.ID = primitive.NewObjectID()
	}
	if e.Status == "" {
		e.Status = EventUpcoming
	}
	for i := range e.Requirements {
		if e.Requirements[i].ID.IsZero() {
			e.Requirements[i].ID = primitive.NewObjectID()
		}
	}
	return nil
}

func (e *Event) IsCancelled() bool {
	return e.Status == EventCancelled
}

// Requirement returns the embedded requirement with the given id, or nil.
func (e *Event) Requirement(id primitive.ObjectID) *Requirement {
	for i := range e.Requirements {
		if e.Requirements[i].ID == id {
			return &e.Requirements[i]
		}
	}
	return nil
}

// EventPatch lists the organizer-editable fields. The organizer and the
// requirement list cannot be patched.
type EventPatch struct {
	Title       *string      `json:"title,omitempty"`
	Description *string      `json:"description,omitempty"`
	EventType   *EventType   `json:"event_type,omitempty"`
	Date        *time.Time   `json:"date,omitempty"`
	Location    *string      `json:"location,omitempty"`
	Status      *EventStatus `json:"status,omitempty"`
	Budget      *float64     `json:"budget,omitempty"`
	GuestCount  *int         `json:"guest_count,omitempty"`
}

func (p EventPatch) IsEmpty() bool {
	return p.Title == nil && p.Description == nil && p.EventType == nil && p.Date == nil &&
		p.Location == nil && p.Status == nil && p.Budget == nil && p.GuestCount == nil
}

func (p EventPatch) Apply(e *Event) {
	if p.Title != nil {
		e.Title = *p.Title
	}
	if p.Description != nil {
		e.Description = *p.Description
	}
	if p.EventType != nil {
		e.EventType = *p.EventType
	}
	if p.Date != nil {
		e.Date = *p.Date
	}
	if p.Location != nil {
		e.Location = *p.Location
	}
	if p.Status != nil {
		e.Status = *p.Status
	}
	if p.Budget != nil {
		e.Budget = *p.Budget
	}
	if p.GuestCount != nil {
		e.GuestCount = *p.GuestCount
	}
}

type EventFilter struct {
	EventType EventType
}

// OpenRequirement is the marketplace projection of an open requirement
// joined with its parent event.
type OpenRequirement struct {
	EventID       primitive.ObjectID `bson:"event_id" json:"event_id"`
	EventTitle    string             `bson:"event_title" json:"event_title"`
	EventDate     time.Time          `bson:"event_date" json:"event_date"`
	EventLocation string             `bson:"event_location" json:"event_location"`
	OrganizerID   uuid.UUID          `bson:"organizer_id" json:"organizer_id"`
	RequirementID primitive.ObjectID `bson:"requirement_id" json:"requirement_id"`
	Category      Category           `bson:"category" json:"category"`
	Description   string             `bson:"description" json:"description"`
	Budget        float64            `bson:"budget" json:"budget"`
	Status        RequirementStatus  `bson:"status" json:"status"`
}
