package models

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// EnsureIndexes creates the indexes the lifecycle queries rely on
func (mdb *MongodbRepo) EnsureIndexes(ctx context.Context) error {
	indexes := map[string][]mongo.IndexModel{
		EventsColName: {
			{
				Keys:    bson.D{{Key: "organizer_id", Value: 1}, {Key: "date", Value: -1}},
				Options: options.Index().SetName("organizer_date_idx"),
			},
			// Marketplace scan of open requirements
			{
				Keys: bson.D{
					{Key: "vendor_requirements.status", Value: 1},
					{Key: "status", Value: 1},
					{Key: "date", Value: 1},
				},
				Options: options.Index().SetName("open_requirements_idx"),
			},
			{
				Keys:    bson.D{{Key: "event_type", Value: 1}, {Key: "date", Value: 1}},
				Options: options.Index().SetName("event_type_date_idx"),
			},
		},
		ProposalsColName: {
			{
				Keys:    bson.D{{Key: "event_id", Value: 1}, {Key: "created_at", Value: -1}},
				Options: options.Index().SetName("event_created_idx"),
			},
			{
				Keys:    bson.D{{Key: "vendor_id", Value: 1}, {Key: "created_at", Value: -1}},
				Options: options.Index().SetName("vendor_created_idx"),
			},
			{
				Keys: bson.D{
					{Key: "event_id", Value: 1},
					{Key: "requirement_id", Value: 1},
					{Key: "status", Value: 1},
				},
				Options: options.Index().SetName("requirement_status_idx"),
			},
		},
		NotificationsColName: {
			{
				Keys:    bson.D{{Key: "user_id", Value: 1}, {Key: "created_at", Value: -1}},
				Options: options.Index().SetName("user_created_idx"),
			},
		},
		MessagesColName: {
			{
				Keys:    bson.D{{Key: "event_id", Value: 1}, {Key: "vendor_id", Value: 1}, {Key: "timestamp", Value: 1}},
				Options: options.Index().SetName("thread_idx"),
			},
			{
				Keys:    bson.D{{Key: "sender_id", Value: 1}, {Key: "receiver_id", Value: 1}, {Key: "timestamp", Value: 1}},
				Options: options.Index().SetName("conversation_idx"),
			},
		},
	}

	for colName, models := range indexes {
		col, err := mdb.GetCollection(ctx, colName)
		if err != nil {
			return fmt.Errorf("error getting collection: %v", err)
		}
		if _, err := col.Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("error creating %s indexes: %v", colName, err)
		}
	}
	return nil
}
