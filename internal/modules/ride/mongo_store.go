// README: Ride store backed by MongoDB.
package ride

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"flashtaxi/internal/types"
)

const collectionName = "rides"

type MongoStore struct {
	coll *mongo.Collection
}

func NewMongoStore(db *mongo.Database) *MongoStore {
	return &MongoStore{coll: db.Collection(collectionName)}
}

func (s *MongoStore) EnsureIndexes(ctx context.Context) error {
	_, err := s.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "riderId", Value: 1}, {Key: "requestedAt", Value: -1}}},
		{Keys: bson.D{{Key: "status", Value: 1}}},
	})
	return err
}

func (s *MongoStore) Create(ctx context.Context, r *Ride) error {
	_, err := s.coll.InsertOne(ctx, r)
	return err
}

func (s *MongoStore) Get(ctx context.Context, id types.ID) (*Ride, error) {
	var r Ride
	err := s.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&r)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &r, nil
}

func (s *MongoStore) UpdateStatus(ctx context.Context, t Transition) (bool, error) {
	filter := bson.M{
		"_id":           t.RideID,
		"status":        t.From,
		"statusVersion": t.Version,
	}
	set := bson.M{"status": t.To}
	if field := timestampField(t.To); field != "" {
		// write-once: the guard below refuses to overwrite an existing stamp
		filter[field] = bson.M{"$exists": false}
		set[field] = t.At
	}
	if t.DriverID != nil {
		set["driverId"] = *t.DriverID
	}
	if t.Reason != "" {
		set["cancelReason"] = t.Reason
	}
	res, err := s.coll.UpdateOne(ctx, filter, bson.M{
		"$set": set,
		"$inc": bson.M{"statusVersion": 1},
	})
	if err != nil {
		return false, err
	}
	return res.ModifiedCount == 1, nil
}

func (s *MongoStore) ListByRider(ctx context.Context, riderID types.ID, limit int) ([]*Ride, error) {
	opts := options.Find().SetSort(bson.D{{Key: "requestedAt", Value: -1}})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}
	cur, err := s.coll.Find(ctx, bson.M{"riderId": riderID}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []*Ride
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}
