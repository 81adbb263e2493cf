// README: Rider store backed by MongoDB.
package rider

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"flashtaxi/internal/types"
)

const collectionName = "riders"

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

func (s *MongoStore) Get(ctx context.Context, id types.ID) (*Rider, error) {
	return s.findOne(ctx, bson.M{"_id": id})
}

func (s *MongoStore) FindByEmail(ctx context.Context, email string) (*Rider, error) {
	return s.findOne(ctx, bson.M{"email": email})
}

func (s *MongoStore) findOne(ctx context.Context, filter bson.M) (*Rider, error) {
	var r Rider
	err := s.coll.FindOne(ctx, filter).Decode(&r)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &r, nil
}

func (s *MongoStore) Create(ctx context.Context, r *Rider) error {
	_, err := s.coll.InsertOne(ctx, r)
	if mongo.IsDuplicateKeyError(err) {
		return ErrDuplicate
	}
	return err
}

func (s *MongoStore) SetChallenge(ctx context.Context, id types.ID, c Challenge) error {
	return s.update(ctx, id, bson.M{"$set": bson.M{"otp": c}})
}

func (s *MongoStore) ClearChallenge(ctx context.Context, id types.ID) error {
	return s.update(ctx, id, bson.M{"$unset": bson.M{"otp": ""}})
}

func (s *MongoStore) MarkVerified(ctx context.Context, id types.ID, at time.Time) error {
	return s.update(ctx, id, bson.M{
		"$set":   bson.M{"isVerified": true, "lastLogin": at},
		"$unset": bson.M{"otp": ""},
	})
}

func (s *MongoStore) UpdateProfile(ctx context.Context, id types.ID, u ProfileUpdate) error {
	set := bson.M{}
	if u.Name != nil {
		set["name"] = *u.Name
	}
	if u.Phone != nil {
		set["phone"] = *u.Phone
	}
	if u.DefaultPaymentMethod != nil {
		set["preferences.defaultPaymentMethod"] = *u.DefaultPaymentMethod
	}
	if u.FavoriteLocations != nil {
		set["preferences.favoriteLocations"] = u.FavoriteLocations
	}
	if len(set) == 0 {
		_, err := s.Get(ctx, id)
		return err
	}
	return s.update(ctx, id, bson.M{"$set": set})
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
