package models

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func (mdb *MongodbRepo) CreateEvent(ctx context.Context, event *Event) (*Event, error) {
	if err := event.BeforeCreate(); err != nil {
		return nil, fmt.Errorf("failed to prepare event for creation: %w", err)
	}
	col, err := mdb.GetCollection(ctx, EventsColName)
	if err != nil {
		return nil, err
	}
	if _, err := col.InsertOne(ctx, event); err != nil {
		return nil, fmt.Errorf("failed to insert event into database: %w", err)
	}
	return event, nil
}

func (mdb *MongodbRepo) GetEvent(ctx context.Context, id primitive.ObjectID) (*Event, error) {
	col, err := mdb.GetCollection(ctx, EventsColName)
	if err != nil {
		return nil, err
	}
	var event Event
	err = col.FindOne(ctx, bson.M{"_id": id}).Decode(&event)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, NotFound("event %s not found", id.Hex())
	}
	if err != nil {
		return nil, fmt.Errorf("error finding event: %v", err)
	}
	return &event, nil
}

func (mdb *MongodbRepo) ListEvents(ctx context.Context, filter EventFilter, offset, limit int) ([]*Event, int, error) {
	col, err := mdb.GetCollection(ctx, EventsColName)
	if err != nil {
		return nil, 0, err
	}
	query := bson.M{}
	if filter.EventType != "" {
		query["event_type"] = filter.EventType
	}

	total, err := col.CountDocuments(ctx, query)
	if err != nil {
		return nil, 0, fmt.Errorf("error counting events: %v", err)
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "date", Value: 1}}).
		SetSkip(int64(offset)).
		SetLimit(int64(limit))
	cursor, err := col.Find(ctx, query, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("error finding events: %v", err)
	}
	defer cursor.Close(ctx)

	events := []*Event{}
	if err := cursor.All(ctx, &events); err != nil {
		return nil, 0, fmt.Errorf("error decoding events: %v", err)
	}
	return events, int(total), nil
}

func (mdb *MongodbRepo) ListEventsByOrganizer(ctx context.Context, organizerID uuid.UUID) ([]*Event, error) {
	col, err := mdb.GetCollection(ctx, EventsColName)
	if err != nil {
		return nil, err
	}
	opts := options.Find().SetSort(bson.D{{Key: "date", Value: -1}})
	cursor, err := col.Find(ctx, bson.M{"organizer_id": organizerID}, opts)
	if err != nil {
		return nil, fmt.Errorf("error finding organizer events: %v", err)
	}
	defer cursor.Close(ctx)

	events := []*Event{}
	if err := cursor.All(ctx, &events); err != nil {
		return nil, fmt.Errorf("error decoding events: %v", err)
	}
	return events, nil
}

func (mdb *MongodbRepo) UpdateEvent(ctx context.Context, id primitive.ObjectID, patch EventPatch) (*Event, error) {
	col, err := mdb.GetCollection(ctx, EventsColName)
	if err != nil {
		return nil, err
	}

	set := bson.M{"updated_at": time.Now()}
	if patch.Title != nil {
		set["title"] = *patch.Title
	}
	if patch.Description != nil {
		set["description"] = *patch.Description
	}
	if patch.EventType != nil {
		set["event_type"] = *patch.EventType
	}
	if patch.Date != nil {
		set["date"] = *patch.Date
	}
	if patch.Location != nil {
		set["location"] = *patch.Location
	}
	if patch.Status != nil {
		set["status"] = *patch.Status
	}
	if patch.Budget != nil {
		set["budget"] = *patch.Budget
	}
	if patch.GuestCount != nil {
		set["guest_count"] = *patch.GuestCount
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var event Event
	err = col.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set}, opts).Decode(&event)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, NotFound("event %s not found", id.Hex())
	}
	if err != nil {
		return nil, fmt.Errorf("error updating event: %v", err)
	}
	return &event, nil
}

func (mdb *MongodbRepo) DeleteEvent(ctx context.Context, id primitive.ObjectID) error {
	col, err := mdb.GetCollection(ctx, EventsColName)
	if err != nil {
		return err
	}
	res, err := col.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("error deleting event: %v", err)
	}
	if res.DeletedCount == 0 {
		return NotFound("event %s not found", id.Hex())
	}
	return nil
}

func (mdb *MongodbRepo) DeleteEventsByOrganizer(ctx context.Context, organizerID uuid.UUID) ([]primitive.ObjectID, error) {
	col, err := mdb.GetCollection(ctx, EventsColName)
	if err != nil {
		return nil, err
	}

	filter := bson.M{"organizer_id": organizerID}
	cursor, err := col.Find(ctx, filter, options.Find().SetProjection(bson.M{"_id": 1}))
	if err != nil {
		return nil, fmt.Errorf("error finding organizer events: %v", err)
	}
	var rows []struct {
		ID primitive.ObjectID `bson:"_id"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, fmt.Errorf("error decoding event ids: %v", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}

	ids := make([]primitive.ObjectID, 0, len(rows))
	for _, r := range rows {
		ids = append(ids, r.ID)
	}
	if _, err := col.DeleteMany(ctx, bson.M{"_id": bson.M{"$in": ids}}); err != nil {
		return nil, fmt.Errorf("error deleting organizer events: %v", err)
	}
	return ids, nil
}

func (mdb *MongodbRepo) AppendRequirement(ctx context.Context, eventID primitive.ObjectID, req Requirement) (*Event, error) {
	col, err := mdb.GetCollection(ctx, EventsColName)
	if err != nil {
		return nil, err
	}
	if req.ID.IsZero() {
		req.ID = primitive.NewObjectID()
	}

	filter := bson.M{"_id": eventID, "status": bson.M{"$ne": EventCancelled}}
	update := bson.M{
		"$push": bson.M{"vendor_requirements": req},
		"$set":  bson.M{"updated_at": time.Now()},
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var event Event
	err = col.FindOneAndUpdate(ctx, filter, update, opts).Decode(&event)
	if errors.Is(err, mongo.ErrNoDocuments) {
		if _, getErr := mdb.GetEvent(ctx, eventID); getErr != nil {
			return nil, getErr
		}
		return nil, InvalidState("event %s is cancelled", eventID.Hex())
	}
	if err != nil {
		return nil, fmt.Errorf("error adding requirement: %v", err)
	}
	return &event, nil
}

func (mdb *MongodbRepo) AssignRequirement(ctx context.Context, eventID, reqID primitive.ObjectID, vendorID uuid.UUID) error {
	filter := bson.M{
		"_id":    eventID,
		"status": bson.M{"$ne": EventCancelled},
		"vendor_requirements": bson.M{"$elemMatch": bson.M{
			"_id":    reqID,
			"status": RequirementOpen,
		}},
	}
	set := bson.M{
		"vendor_requirements.$.status":             RequirementAssigned,
		"vendor_requirements.$.assigned_vendor_id": vendorID,
	}
	return mdb.transitionRequirement(ctx, eventID, reqID, filter, set, "is not open")
}

func (mdb *MongodbRepo) ReleaseRequirement(ctx context.Context, eventID, reqID primitive.ObjectID, vendorID uuid.UUID) error {
	filter := bson.M{
		"_id": eventID,
		"vendor_requirements": bson.M{"$elemMatch": bson.M{
			"_id":                reqID,
			"status":             RequirementAssigned,
			"assigned_vendor_id": vendorID,
		}},
	}
	set := bson.M{
		"vendor_requirements.$.status":             RequirementOpen,
		"vendor_requirements.$.assigned_vendor_id": nil,
	}
	return mdb.transitionRequirement(ctx, eventID, reqID, filter, set, "is not assigned to this vendor")
}

func (mdb *MongodbRepo) CompleteRequirement(ctx context.Context, eventID, reqID primitive.ObjectID) error {
	filter := bson.M{
		"_id": eventID,
		"vendor_requirements": bson.M{"$elemMatch": bson.M{
			"_id":    reqID,
			"status": RequirementAssigned,
		}},
	}
	set := bson.M{"vendor_requirements.$.status": RequirementCompleted}
	return mdb.transitionRequirement(ctx, eventID, reqID, filter, set, "is not assigned")
}

// transitionRequirement applies set to the requirement matched by filter in a
// single document write. When nothing matches it works out whether the event
// or requirement is missing or merely in the wrong state.
func (mdb *MongodbRepo) transitionRequirement(ctx context.Context, eventID, reqID primitive.ObjectID, filter, set bson.M, stateMsg string) error {
	col, err := mdb.GetCollection(ctx, EventsColName)
	if err != nil {
		return err
	}
	set["updated_at"] = time.Now()

	res, err := col.UpdateOne(ctx, filter, bson.M{"$set": set})
	if err != nil {
		return fmt.Errorf("error updating requirement: %v", err)
	}
	if res.MatchedCount > 0 {
		return nil
	}

	event, err := mdb.GetEvent(ctx, eventID)
	if err != nil {
		return err
	}
	req := event.Requirement(reqID)
	if req == nil {
		return NotFound("requirement %s not found", reqID.Hex())
	}
	if _, guarded := filter["status"]; guarded && event.IsCancelled() {
		return InvalidState("event %s is cancelled", eventID.Hex())
	}
	return InvalidState("requirement %s %s (status %s)", reqID.Hex(), stateMsg, req.Status)
}

func (mdb *MongodbRepo) ListOpenRequirements(ctx context.Context) ([]*OpenRequirement, error) {
	col, err := mdb.GetCollection(ctx, EventsColName)
	if err != nil {
		return nil, err
	}

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{
			"status":                     bson.M{"$ne": EventCancelled},
			"vendor_requirements.status": RequirementOpen,
		}}},
		{{Key: "$unwind", Value: "$vendor_requirements"}},
		{{Key: "$match", Value: bson.M{"vendor_requirements.status": RequirementOpen}}},
		{{Key: "$sort", Value: bson.D{{Key: "date", Value: 1}}}},
		{{Key: "$project", Value: bson.M{
			"_id":            0,
			"event_id":       "$_id",
			"event_title":    "$title",
			"event_date":     "$date",
			"event_location": "$location",
			"organizer_id":   "$organizer_id",
			"requirement_id": "$vendor_requirements._id",
			"category":       "$vendor_requirements.category",
			"description":    "$vendor_requirements.description",
			"budget":         "$vendor_requirements.budget",
			"status":         "$vendor_requirements.status",
		}}},
	}

	cursor, err := col.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("error aggregating open requirements: %v", err)
	}
	defer cursor.Close(ctx)

	open := []*OpenRequirement{}
	if err := cursor.All(ctx, &open); err != nil {
		return nil, fmt.Errorf("error decoding open requirements: %v", err)
	}
	return open, nil
}
