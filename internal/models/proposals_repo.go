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

var newestFirst = bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}

func (mdb *MongodbRepo) CreateProposal(ctx context.Context, proposal *Proposal) (*Proposal, error) {
	if err := proposal.BeforeCreate(); err != nil {
		return nil, fmt.Errorf("failed to prepare proposal for creation: %w", err)
	}
	col, err := mdb.GetCollection(ctx, ProposalsColName)
	if err != nil {
		return nil, err
	}
	if _, err := col.InsertOne(ctx, proposal); err != nil {
		return nil, fmt.Errorf("failed to insert proposal into database: %w", err)
	}
	return proposal, nil
}

func (mdb *MongodbRepo) GetProposal(ctx context.Context, id primitive.ObjectID) (*Proposal, error) {
	col, err := mdb.GetCollection(ctx, ProposalsColName)
	if err != nil {
		return nil, err
	}
	var p Proposal
	err = col.FindOne(ctx, bson.M{"_id": id}).Decode(&p)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, NotFound("proposal %s not found", id.Hex())
	}
	if err != nil {
		return nil, fmt.Errorf("error finding proposal: %v", err)
	}
	return &p, nil
}

func (mdb *MongodbRepo) ListProposalsByEvent(ctx context.Context, eventID primitive.ObjectID) ([]*Proposal, error) {
	return mdb.findProposals(ctx, bson.M{"event_id": eventID})
}

func (mdb *MongodbRepo) ListProposalsByVendor(ctx context.Context, vendorID uuid.UUID) ([]*Proposal, error) {
	return mdb.findProposals(ctx, bson.M{"vendor_id": vendorID})
}

func (mdb *MongodbRepo) findProposals(ctx context.Context, filter bson.M) ([]*Proposal, error) {
	col, err := mdb.GetCollection(ctx, ProposalsColName)
	if err != nil {
		return nil, err
	}
	cursor, err := col.Find(ctx, filter, options.Find().SetSort(newestFirst))
	if err != nil {
		return nil, fmt.Errorf("error finding proposals: %v", err)
	}
	defer cursor.Close(ctx)

	proposals := []*Proposal{}
	if err := cursor.All(ctx, &proposals); err != nil {
		return nil, fmt.Errorf("error decoding proposals: %v", err)
	}
	return proposals, nil
}

func (mdb *MongodbRepo) UpdatePendingProposal(ctx context.Context, id primitive.ObjectID, vendorID uuid.UUID, text string, price float64) (*Proposal, error) {
	col, err := mdb.GetCollection(ctx, ProposalsColName)
	if err != nil {
		return nil, err
	}

	filter := bson.M{"_id": id, "vendor_id": vendorID, "status": ProposalPending}
	update := bson.M{"$set": bson.M{
		"proposal":   text,
		"price":      price,
		"updated_at": time.Now(),
	}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var p Proposal
	err = col.FindOneAndUpdate(ctx, filter, update, opts).Decode(&p)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, mdb.pendingMiss(ctx, id, &vendorID)
	}
	if err != nil {
		return nil, fmt.Errorf("error updating proposal: %v", err)
	}
	return &p, nil
}

func (mdb *MongodbRepo) DeletePendingProposal(ctx context.Context, id primitive.ObjectID, vendorID uuid.UUID) error {
	col, err := mdb.GetCollection(ctx, ProposalsColName)
	if err != nil {
		return err
	}
	res, err := col.DeleteOne(ctx, bson.M{"_id": id, "vendor_id": vendorID, "status": ProposalPending})
	if err != nil {
		return fmt.Errorf("error deleting proposal: %v", err)
	}
	if res.DeletedCount == 0 {
		return mdb.pendingMiss(ctx, id, &vendorID)
	}
	return nil
}

func (mdb *MongodbRepo) SetProposalStatus(ctx context.Context, id primitive.ObjectID, from, to ProposalStatus) (*Proposal, error) {
	col, err := mdb.GetCollection(ctx, ProposalsColName)
	if err != nil {
		return nil, err
	}

	filter := bson.M{"_id": id, "status": from}
	update := bson.M{"$set": bson.M{"status": to, "updated_at": time.Now()}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var p Proposal
	err = col.FindOneAndUpdate(ctx, filter, update, opts).Decode(&p)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, mdb.pendingMiss(ctx, id, nil)
	}
	if err != nil {
		return nil, fmt.Errorf("error updating proposal status: %v", err)
	}
	return &p, nil
}

// pendingMiss explains why a conditional proposal write matched nothing.
func (mdb *MongodbRepo) pendingMiss(ctx context.Context, id primitive.ObjectID, vendorID *uuid.UUID) error {
	current, err := mdb.GetProposal(ctx, id)
	if err != nil {
		return err
	}
	if !current.IsPending() {
		return InvalidState("proposal %s is %s", id.Hex(), current.Status)
	}
	if vendorID != nil && !current.OwnedBy(*vendorID) {
		return NotAuthorized("proposal %s belongs to another vendor", id.Hex())
	}
	return InvalidState("proposal %s changed concurrently", id.Hex())
}

func (mdb *MongodbRepo) DeleteProposalsByEvents(ctx context.Context, eventIDs ...primitive.ObjectID) (int64, error) {
	if len(eventIDs) == 0 {
		return 0, nil
	}
	col, err := mdb.GetCollection(ctx, ProposalsColName)
	if err != nil {
		return 0, err
	}
	res, err := col.DeleteMany(ctx, bson.M{"event_id": bson.M{"$in": eventIDs}})
	if err != nil {
		return 0, fmt.Errorf("error deleting event proposals: %v", err)
	}
	return res.DeletedCount, nil
}

func (mdb *MongodbRepo) DetachVendor(ctx context.Context, vendorID uuid.UUID) (int64, error) {
	col, err := mdb.GetCollection(ctx, ProposalsColName)
	if err != nil {
		return 0, err
	}
	res, err := col.UpdateMany(ctx,
		bson.M{"vendor_id": vendorID},
		bson.M{"$set": bson.M{"vendor_id": nil, "updated_at": time.Now()}},
	)
	if err != nil {
		return 0, fmt.Errorf("error detaching vendor proposals: %v", err)
	}
	return res.ModifiedCount, nil
}
