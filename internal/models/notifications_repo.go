package models

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func (mdb *MongodbRepo) CreateNotification(ctx context.Context, n *Notification) (*Notification, error) {
	if err := n.BeforeCreate(); err != nil {
		return nil, err
	}
	col, err := mdb.GetCollection(ctx, NotificationsColName)
	if err != nil {
		return nil, err
	}
	if _, err := col.InsertOne(ctx, n); err != nil {
		return nil, fmt.Errorf("error inserting notification: %v", err)
	}
	return n, nil
}

func (mdb *MongodbRepo) ListNotifications(ctx context.Context, userID uuid.UUID, limit int) ([]*Notification, error) {
	col, err := mdb.GetCollection(ctx, NotificationsColName)
	if err != nil {
		return nil, err
	}

	opts := options.Find().
		SetSort(newestFirst).
		SetLimit(int64(limit))
	cursor, err := col.Find(ctx, bson.M{"user_id": userID}, opts)
	if err != nil {
		return nil, fmt.Errorf("error finding notifications: %v", err)
	}
	defer cursor.Close(ctx)

	notifications := []*Notification{}
	if err := cursor.All(ctx, &notifications); err != nil {
		return nil, fmt.Errorf("error decoding notifications: %v", err)
	}
	return notifications, nil
}

func (mdb *MongodbRepo) MarkNotificationRead(ctx context.Context, id primitive.ObjectID, userID uuid.UUID) (*Notification, error) {
	col, err := mdb.GetCollection(ctx, NotificationsColName)
	if err != nil {
		return nil, err
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var n Notification
	err = col.FindOneAndUpdate(ctx,
		bson.M{"_id": id, "user_id": userID},
		bson.M{"$set": bson.M{"read": true}},
		opts,
	).Decode(&n)
	if errors.Is(err, mongo.ErrNoDocuments) {
		count, countErr := col.CountDocuments(ctx, bson.M{"_id": id})
		if countErr != nil {
			return nil, fmt.Errorf("error checking notification: %v", countErr)
		}
		if count == 0 {
			return nil, NotFound("notification %s not found", id.Hex())
		}
		return nil, NotAuthorized("notification %s belongs to another user", id.Hex())
	}
	if err != nil {
		return nil, fmt.Errorf("error marking notification read: %v", err)
	}
	return &n, nil
}
