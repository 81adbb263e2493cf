// README: Driver store backed by MongoDB.
package driver

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"flashtaxi/internal/types"
)

const collectionName = "drivers"

type MongoStore struct {
	coll *mongo.Collection
}

func NewMongoStore(db *mongo.Database) *MongoStore {
	return &MongoStore{coll: db.Collection(collectionName)}
}

func (s *MongoStore) EnsureIndexes(ctx context.Context) error {
	_, err := s.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	return err
}

func (s *MongoStore) Get(ctx context.Context, id types.ID) (*Driver, error) {
	var d Driver
	err := s.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&d)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func (s *MongoStore) Count(ctx context.Context) (int64, error) {
	return s.coll.EstimatedDocumentCount(ctx)
}

func (s *MongoStore) Insert(ctx context.Context, drivers ...*Driver) error {
	if len(drivers) == 0 {
		return nil
	}
	docs := make([]interface{}, 0, len(drivers))
	for _, d := range drivers {
		docs = append(docs, d)
	}
	_, err := s.coll.InsertMany(ctx, docs)
	return err
}

func (s *MongoStore) UpdateLocation(ctx context.Context, id types.ID, p types.Point, at time.Time) error {
	return s.update(ctx, id, bson.M{"$set": bson.M{"currentLocation": p, "locationUpdatedAt": at}})
}

func (s *MongoStore) SetAvailability(ctx context.Context, id types.ID, available bool) error {
	return s.update(ctx, id, bson.M{"$set": bson.M{"isAvailable": available}})
}

func (s *MongoStore) IncrementRides(ctx context.Context, id types.ID) error {
	return s.update(ctx, id, bson.M{"$inc": bson.M{"totalRides": 1}})
}

func (s *MongoStore) update(ctx context.Context, id types.ID, update bson.M) error {
	res, err := s.coll.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}
