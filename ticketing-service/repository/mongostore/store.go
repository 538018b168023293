// Package mongostore implements repository.Store on MongoDB. Multi-document
// transactions need a replica set deployment.
package mongostore

import (
	"context"
	"fmt"
	"time"

	"github.com/eventix/ticketing/ticketing-service/config"
	"github.com/eventix/ticketing/ticketing-service/repository"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.uber.org/zap"
)

const (
	ColUsers      = "users"
	ColEvents     = "events"
	ColCategories = "categories"
	ColBookings   = "bookings"
)

type Store struct {
	client *mongo.Client
	db     *mongo.Database
	inTx   bool
}

var _ repository.Store = (*Store)(nil)

func NewStore(cfg *config.Mongo, logger *zap.Logger) (*Store, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongo: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping mongo: %w", err)
	}

	s := &Store{client: client, db: client.Database(cfg.Database)}

	// a missing unique index would silently allow duplicate bookings
	if err := s.ensureIndexes(ctx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}

	logger.Info("database connected and indexes ensured",
		zap.String("driver", config.DriverMongo),
		zap.String("database", cfg.Database))

	return s, nil
}

func (s *Store) col(name string) *mongo.Collection {
	return s.db.Collection(name)
}

func (s *Store) ensureIndexes(ctx context.Context) error {
	type idx struct {
		col    string
		keys   bson.D
		unique bool
	}

	indexes := []idx{
		// users
		{ColUsers, bson.D{{Key: "email", Value: 1}}, true},
		{ColUsers, bson.D{{Key: "role", Value: 1}}, false},

		// events
		{ColEvents, bson.D{{Key: "name", Value: 1}}, true},
		{ColEvents, bson.D{{Key: "category_id", Value: 1}}, false},
		{ColEvents, bson.D{{Key: "date", Value: 1}}, false},

		// categories
		{ColCategories, bson.D{{Key: "name", Value: 1}}, true},

		// bookings: one booking per user per event
		{ColBookings, bson.D{{Key: "event_id", Value: 1}, {Key: "user_id", Value: -1}}, true},
		{ColBookings, bson.D{{Key: "user_id", Value: 1}}, false},
	}

	for _, i := range indexes {
		model := mongo.IndexModel{Keys: i.keys}
		if i.unique {
			model.Options = options.Index().SetUnique(true)
		}
		if _, err := s.col(i.col).Indexes().CreateOne(ctx, model); err != nil {
			return fmt.Errorf("create index on %s: %w", i.col, err)
		}
	}

	return nil
}

func (s *Store) Users() repository.UserRepository {
	return &UserRepository{col: s.col(ColUsers), inTx: s.inTx}
}

func (s *Store) Events() repository.EventRepository {
	return &EventRepository{col: s.col(ColEvents), inTx: s.inTx}
}

func (s *Store) Categories() repository.CategoryRepository {
	return &CategoryRepository{col: s.col(ColCategories)}
}

func (s *Store) Bookings() repository.BookingRepository {
	return &BookingRepository{col: s.col(ColBookings)}
}

// WithTransaction runs fn in a session transaction. The driver retries fn on
// transient transaction errors, so fn must not have side effects outside the
// store.
func (s *Store) WithTransaction(ctx context.Context, fn func(ctx context.Context, tx repository.Store) error) error {
	if s.inTx {
		return fn(ctx, s)
	}

	sess, err := s.client.StartSession()
	if err != nil {
		return fmt.Errorf("failed to start session: %w", err)
	}
	defer sess.EndSession(ctx)

	tx := &Store{client: s.client, db: s.db, inTx: true}
	_, err = sess.WithTransaction(ctx, func(sc context.Context) (interface{}, error) {
		return nil, fn(sc, tx)
	})
	return err
}

func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, nil)
}

func (s *Store) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}
