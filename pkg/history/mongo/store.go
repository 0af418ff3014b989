// Package mongo stores run history in MongoDB, for server deployments where
// several instances share one history.
package mongo

import (
	"context"
	stderrors "errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/matzehuels/tokendeck/pkg/errors"
	"github.com/matzehuels/tokendeck/pkg/history"
)

const (
	// DefaultDatabase is used when Config.Database is empty.
	DefaultDatabase = "tokendeck"
	// Collection holds one document per run.
	Collection = "runs"

	connectTimeout = 10 * time.Second
)

// Config holds connection settings.
type Config struct {
	URI      string
	Database string
}

// Store is a history.Store backed by a MongoDB collection.
type Store struct {
	client *mongo.Client
	coll   *mongo.Collection
}

// Open connects, pings the server and ensures the created_at index.
func Open(ctx context.Context, cfg Config) (*Store, error) {
	if cfg.URI == "" {
		return nil, errors.New(errors.ErrCodeInvalidConfig, "mongo history: no URI configured")
	}
	if cfg.Database == "" {
		cfg.Database = DefaultDatabase
	}

	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeNetwork, err, "connect to mongo")
	}
	if err := client.Ping(ctx, nil); err != nil {
		client.Disconnect(context.Background())
		return nil, errors.Wrap(errors.ErrCodeNetwork, err, "ping mongo")
	}

	coll := client.Database(cfg.Database).Collection(Collection)
	_, err = coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "created_at", Value: -1}},
	})
	if err != nil {
		client.Disconnect(context.Background())
		return nil, fmt.Errorf("create runs index: %w", err)
	}
	return &Store{client: client, coll: coll}, nil
}

// Record implements history.Store.
func (s *Store) Record(ctx context.Context, run history.Run) error {
	if err := run.Validate(); err != nil {
		return err
	}
	run.CreatedAt = run.CreatedAt.UTC()
	if run.Images == nil {
		run.Images = []string{}
	}
	if _, err := s.coll.InsertOne(ctx, run); err != nil {
		return fmt.Errorf("record run %s: %w", run.ID, err)
	}
	return nil
}

// List implements history.Store.
func (s *Store) List(ctx context.Context, limit int) ([]history.Run, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetLimit(int64(history.Limit(limit)))
	cur, err := s.coll.Find(ctx, bson.D{}, opts)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	runs := []history.Run{}
	if err := cur.All(ctx, &runs); err != nil {
		return nil, fmt.Errorf("decode runs: %w", err)
	}
	return runs, nil
}

// Get implements history.Store.
func (s *Store) Get(ctx context.Context, id string) (*history.Run, error) {
	var run history.Run
	err := s.coll.FindOne(ctx, bson.D{{Key: "_id", Value: id}}).Decode(&run)
	if stderrors.Is(err, mongo.ErrNoDocuments) {
		return nil, history.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get run %s: %w", id, err)
	}
	return &run, nil
}

// Close disconnects the client.
func (s *Store) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()
	return s.client.Disconnect(ctx)
}

var _ history.Store = (*Store)(nil)
