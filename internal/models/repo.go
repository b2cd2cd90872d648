package models

import (
	"context"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/supabase-community/supabase-go"
	"go.mongodb.org/mongo-driver/mongo"
)

const (
	DefaultDbName        = "eventhub"
	EventsColName        = "events"
	ProposalsColName     = "vendor_requests"
	NotificationsColName = "notifications"
	MessagesColName      = "messages"
	ProfileTable         = "profiles"
)

var Validate = validator.New()

type SupabaseRepo struct {
	supabaseClient *supabase.Client
	url            string
	key            string
}

func SupabaseNewRepo(supabaseClient *supabase.Client, url, key string) *SupabaseRepo {
	return &SupabaseRepo{
		supabaseClient: supabaseClient,
		url:            url,
		key:            key,
	}
}

// GetAuthenticatedClient returns a Supabase client that sends the given access token
func (su *SupabaseRepo) GetAuthenticatedClient(accessToken string) (*supabase.Client, error) {
	if accessToken == "" || su.url == "" || su.key == "" {
		return su.supabaseClient, nil
	}

	options := &supabase.ClientOptions{
		Headers: map[string]string{
			"Authorization": "Bearer " + accessToken,
		},
	}

	return supabase.NewClient(su.url, su.key, options)
}

type MongodbRepo struct {
	mongodbClient *mongo.Client
	dbName        string
	transactions  bool
}

// MongodbNewRepo wraps a connected client. When transactions is true the
// client must point at a replica set so sessions can commit.
func MongodbNewRepo(mongodbClient *mongo.Client, dbName string, transactions bool) *MongodbRepo {
	if dbName == "" {
		dbName = DefaultDbName
	}
	return &MongodbRepo{
		mongodbClient: mongodbClient,
		dbName:        dbName,
		transactions:  transactions,
	}
}

func (mdb *MongodbRepo) GetCollection(ctx context.Context, colName string) (*mongo.Collection, error) {
	if mdb.mongodbClient == nil {
		return nil, fmt.Errorf("mongodb client is not initialized")
	}
	return mdb.mongodbClient.Database(mdb.dbName).Collection(colName), nil
}

func (mdb *MongodbRepo) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if !mdb.transactions {
		return fn(ctx)
	}
	session, err := mdb.mongodbClient.StartSession()
	if err != nil {
		return fmt.Errorf("failed to start session: %w", err)
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, fn(sc)
	})
	return err
}
