// Package database owns the MongoDB connection and collection indexes.
package database

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// Collection names.
const (
	Users    = "users"
	Products = "products"
	Orders   = "orders"
)

// Mongo is a connected client bound to one database.
type Mongo struct {
	Client *mongo.Client
	DB     *mongo.Database
}

// Connect opens the client, configures the pool and verifies the connection.
// It returns an error instead of exiting so the caller can shut down cleanly.
func Connect(ctx context.Context, uri, name string) (*Mongo, error) {
	opts := options.Client().
		ApplyURI(uri).
		SetMaxPoolSize(50).
		SetMinPoolSize(2).
		SetMaxConnIdleTime(2 * time.Minute).
		SetServerSelectionTimeout(5 * time.Second)

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("database: connect: %w", err)
	}

	m := &Mongo{Client: client, DB: client.Database(name)}
	if err := m.Ping(ctx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}
	return m, nil
}

// Ping checks the primary is reachable.
func (m *Mongo) Ping(ctx context.Context) error {
	if err := m.Client.Ping(ctx, readpref.Primary()); err != nil {
		return fmt.Errorf("database: ping: %w", err)
	}
	return nil
}

// Close disconnects the client.
func (m *Mongo) Close(ctx context.Context) error {
	return m.Client.Disconnect(ctx)
}

// Collection returns a handle on the named collection.
func (m *Mongo) Collection(name string) *mongo.Collection {
	return m.DB.Collection(name)
}

// Indexes lists the indexes each collection needs.
func Indexes() map[string][]mongo.IndexModel {
	return map[string][]mongo.IndexModel{
		Users: {
			{
				Keys:    bson.D{{Key: "email", Value: 1}},
				Options: options.Index().SetName("email_unique").SetUnique(true),
			},
		},
		Products: {
			{
				Keys:    bson.D{{Key: "category", Value: 1}},
				Options: options.Index().SetName("category"),
			},
		},
		Orders: {
			{
				Keys:    bson.D{{Key: "user", Value: 1}, {Key: "createdAt", Value: -1}},
				Options: options.Index().SetName("user_createdAt"),
			},
		},
	}
}

// EnsureIndexes creates every index from Indexes. Existing indexes with the
// same definition are left alone.
func (m *Mongo) EnsureIndexes(ctx context.Context) ([]string, error) {
	var created []string
	for collection, models := range Indexes() {
		names, err := m.Collection(collection).Indexes().CreateMany(ctx, models)
		if err != nil {
			return created, fmt.Errorf("database: indexes on %s: %w", collection, err)
		}
		for _, n := range names {
			created = append(created, collection+"."+n)
		}
	}
	return created, nil
}
