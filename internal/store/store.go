package store

import (
	"context"
	"fmt"
	"time"

	"petmarket/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Store struct {
	client   *mongo.Client
	products *mongo.Collection
	carts    *mongo.Collection
	tickets  *mongo.Collection
	users    *mongo.Collection
}

// NewStore connects to MongoDB and ensures the unique indexes the domain
// relies on (product code, user email, ticket code).
func NewStore(uri, database string) (*Store, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongo: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("failed to ping mongo: %w", err)
	}

	db := client.Database(database)
	s := &Store{
		client:   client,
		products: db.Collection("products"),
		carts:    db.Collection("carts"),
		tickets:  db.Collection("tickets"),
		users:    db.Collection("users"),
	}

	if err := s.ensureIndexes(ctx); err != nil {
		return nil, fmt.Errorf("failed to ensure indexes: %w", err)
	}

	return s, nil
}

func (s *Store) ensureIndexes(ctx context.Context) error {
	unique := options.Index().SetUnique(true)

	if _, err := s.products.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "code", Value: 1}},
		Options: unique,
	}); err != nil {
		return err
	}

	if _, err := s.users.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: unique,
	}); err != nil {
		return err
	}

	if _, err := s.tickets.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "code", Value: 1}},
		Options: unique,
	}); err != nil {
		return err
	}

	_, err := s.tickets.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "purchaser", Value: 1}, {Key: "purchase_datetime", Value: -1}},
	})
	return err
}

// Close disconnects from MongoDB
func (s *Store) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}

// parseID converts an opaque identifier string into an ObjectID
func parseID(id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, fmt.Errorf("%w: %q", models.ErrInvalidID, id)
	}
	return oid, nil
}
