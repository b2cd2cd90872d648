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

func (mdb *MongodbRepo) CreateMessage(ctx context.Context, m *Message) (*Message, error) {
	if err := m.BeforeCreate(); err != nil {
		return nil, err
	}
	col, err := mdb.GetCollection(ctx, MessagesColName)
	if err != nil {
		return nil, err
	}
	if _, err := col.InsertOne(ctx, m); err != nil {
		return nil, fmt.Errorf("error inserting message: %v", err)
	}
	return m, nil
}

func (mdb *MongodbRepo) ListThread(ctx context.Context, eventID primitive.ObjectID, vendorID uuid.UUID) ([]*Message, error) {
	return mdb.findMessages(ctx, bson.M{"event_id": eventID, "vendor_id": vendorID}, 1)
}

func (mdb *MongodbRepo) ListConversation(ctx context.Context, a, b uuid.UUID) ([]*Message, error) {
	filter := bson.M{"$or": bson.A{
		bson.M{"sender_id": a, "receiver_id": b},
		bson.M{"sender_id": b, "receiver_id": a},
	}}
	return mdb.findMessages(ctx, filter, 1)
}

func (mdb *MongodbRepo) ListMessagesForUser(ctx context.Context, userID uuid.UUID) ([]*Message, error) {
	filter := bson.M{"$or": bson.A{
		bson.M{"sender_id": userID},
		bson.M{"receiver_id": userID},
	}}
	return mdb.findMessages(ctx, filter, -1)
}

func (mdb *MongodbRepo) findMessages(ctx context.Context, filter bson.M, order int) ([]*Message, error) {
	col, err := mdb.GetCollection(ctx, MessagesColName)
	if err != nil {
		return nil, err
	}
	opts := options.Find().SetSort(bson.D{{Key: "timestamp", Value: order}, {Key: "_id", Value: order}})
	cursor, err := col.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("error finding messages: %v", err)
	}
	defer cursor.Close(ctx)

	messages := []*Message{}
	if err := cursor.All(ctx, &messages); err != nil {
		return nil, fmt.Errorf("error decoding messages: %v", err)
	}
	return messages, nil
}

func (mdb *MongodbRepo) MarkMessageRead(ctx context.Context, id primitive.ObjectID, receiverID uuid.UUID) (*Message, error) {
	col, err := mdb.GetCollection(ctx, MessagesColName)
	if err != nil {
		return nil, err
	}

	var current Message
	err = col.FindOne(ctx, bson.M{"_id": id}).Decode(&current)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, NotFound("message %s not found", id.Hex())
	}
	if err != nil {
		return nil, fmt.Errorf("error finding message: %v", err)
	}
	if current.ReceiverID != receiverID {
		return nil, NotAuthorized("only the receiver can mark a message as read")
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var updated Message
	err = col.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{"read": true}}, opts).Decode(&updated)
	if err != nil {
		return nil, fmt.Errorf("error marking message read: %v", err)
	}
	return &updated, nil
}
