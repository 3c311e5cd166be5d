package store

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	skelerrors "github.com/skeltree/skeltree/pkg/errors"
)

const (
	defaultDatabase   = "skeltree"
	defaultCollection = "morphologies"

	connectTimeout = 10 * time.Second
)

// MongoStore persists entries in a MongoDB collection, one document per run.
type MongoStore struct {
	client *mongo.Client
	coll   *mongo.Collection
}

// NewMongoStore connects to MongoDB and prepares the morphology collection.
// Empty database and collection names fall back to "skeltree" and
// "morphologies". The connection is verified with a ping before returning.
func NewMongoStore(ctx context.Context, uri, database, collection string) (*MongoStore, error) {
	if database == "" {
		database = defaultDatabase
	}
	if collection == "" {
		collection = defaultCollection
	}

	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, skelerrors.Wrap(skelerrors.ErrCodeInternal, err, "connecting to mongodb at %q", uri)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, skelerrors.Wrap(skelerrors.ErrCodeInternal, err, "pinging mongodb at %q", uri)
	}

	coll := client.Database(database).Collection(collection)
	_, err = coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "run_id", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		_ = client.Disconnect(ctx)
		return nil, skelerrors.Wrap(skelerrors.ErrCodeInternal, err, "creating run_id index")
	}

	return &MongoStore{client: client, coll: coll}, nil
}

func (s *MongoStore) Put(ctx context.Context, e Entry) error {
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	_, err := s.coll.ReplaceOne(ctx,
		bson.M{"run_id": e.RunID}, e,
		options.Replace().SetUpsert(true))
	if err != nil {
		return skelerrors.Wrap(skelerrors.ErrCodeInternal, err, "storing run %s", e.RunID)
	}
	return nil
}

func (s *MongoStore) Get(ctx context.Context, runID string) (Entry, error) {
	var e Entry
	err := s.coll.FindOne(ctx, bson.M{"run_id": runID}).Decode(&e)
	if err == mongo.ErrNoDocuments {
		return Entry{}, skelerrors.New(skelerrors.ErrCodeNotFound, "no morphology stored for run %s", runID)
	}
	if err != nil {
		return Entry{}, skelerrors.Wrap(skelerrors.ErrCodeInternal, err, "loading run %s", runID)
	}
	return e, nil
}

func (s *MongoStore) List(ctx context.Context, limit int) ([]Entry, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetProjection(bson.M{"document": 0})
	if limit > 0 {
		opts = opts.SetLimit(int64(limit))
	}

	cur, err := s.coll.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, skelerrors.Wrap(skelerrors.ErrCodeInternal, err, "listing morphologies")
	}
	defer cur.Close(ctx)

	var entries []Entry
	if err := cur.All(ctx, &entries); err != nil {
		return nil, skelerrors.Wrap(skelerrors.ErrCodeInternal, err, "decoding morphology list")
	}
	return entries, nil
}

func (s *MongoStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}
