package store

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Mongo is a KV backed by a single collection. Each key is one document:
// {_id: key, value: <record>, list: [...]}.
type Mongo struct {
	Client   *mongo.Client
	Database *mongo.Database
}

type kvDoc struct {
	Key   string        `bson:"_id"`
	Value bson.RawValue `bson:"value,omitempty"`
	List  []string      `bson:"list,omitempty"`
}

func NewMongoDB(ctx context.Context, uri, dbName string) (*Mongo, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, err
	}
	if err := client.Ping(ctx, nil); err != nil {
		return nil, err
	}
	return &Mongo{
		Client:   client,
		Database: client.Database(dbName),
	}, nil
}

func (m *Mongo) KV() *mongo.Collection {
	return m.Database.Collection("kv")
}

func (m *Mongo) Get(ctx context.Context, key string, dst any) (bool, error) {
	var d kvDoc
	err := m.KV().FindOne(ctx, bson.M{"_id": key}).Decode(&d)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if len(d.Value.Value) == 0 {
		return false, nil
	}
	if err := d.Value.Unmarshal(dst); err != nil {
		return false, err
	}
	return true, nil
}

func (m *Mongo) Set(ctx context.Context, key string, v any) error {
	_, err := m.KV().UpdateOne(ctx, bson.M{"_id": key}, bson.M{"$set": bson.M{"value": v}}, options.Update().SetUpsert(true))
	return err
}

func (m *Mongo) SetNX(ctx context.Context, key string, v any) (bool, error) {
	filter := bson.M{"_id": key, "value": bson.M{"$exists": false}}
	res, err := m.KV().UpdateOne(ctx, filter, bson.M{"$set": bson.M{"value": v}}, options.Update().SetUpsert(true))
	if mongo.IsDuplicateKeyError(err) {
		// the key exists with a value, so the upsert collided on _id
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return res.UpsertedCount == 1 || res.ModifiedCount == 1, nil
}

func (m *Mongo) Del(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	_, err := m.KV().DeleteMany(ctx, bson.M{"_id": bson.M{"$in": keys}})
	return err
}

func (m *Mongo) LPush(ctx context.Context, key string, values ...string) error {
	update := bson.M{"$push": bson.M{"list": bson.M{"$each": values, "$position": 0}}}
	_, err := m.KV().UpdateOne(ctx, bson.M{"_id": key}, update, options.Update().SetUpsert(true))
	return err
}

func (m *Mongo) LRange(ctx context.Context, key string) ([]string, error) {
	var d kvDoc
	err := m.KV().FindOne(ctx, bson.M{"_id": key}, options.FindOne().SetProjection(bson.M{"list": 1})).Decode(&d)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return d.List, nil
}

func (m *Mongo) LRem(ctx context.Context, key, value string) error {
	_, err := m.KV().UpdateOne(ctx, bson.M{"_id": key}, bson.M{"$pull": bson.M{"list": value}})
	return err
}

func (m *Mongo) Disconnect(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	return m.Client.Disconnect(ctx)
}
