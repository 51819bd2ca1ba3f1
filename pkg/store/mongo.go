package store

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	errs "github.com/matzehuels/jsonflow/pkg/errors"
)

// MongoConfig configures a [MongoStore].
type MongoConfig struct {
	URI        string
	Database   string
	Collection string
}

// mongoDoc is the stored shape of one key.
type mongoDoc struct {
	Key       string    `bson:"_id"`
	Value     string    `bson:"value"`
	UpdatedAt time.Time `bson:"updated_at"`
}

// MongoStore keeps one document per key. Watch needs a replica set or
// sharded cluster, since it relies on change streams.
type MongoStore struct {
	client *mongo.Client
	coll   *mongo.Collection
}

// NewMongoStore connects to MongoDB and pings the primary.
func NewMongoStore(ctx context.Context, cfg MongoConfig) (*MongoStore, error) {
	if cfg.URI == "" {
		cfg.URI = "mongodb://localhost:27017"
	}
	if cfg.Database == "" {
		cfg.Database = "jsonflow"
	}
	if cfg.Collection == "" {
		cfg.Collection = "documents"
	}
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, errs.Wrap(errs.ErrCodeStorage, err, "connect to mongo")
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, errs.Wrap(errs.ErrCodeStorage, err, "ping mongo")
	}
	return &MongoStore{
		client: client,
		coll:   client.Database(cfg.Database).Collection(cfg.Collection),
	}, nil
}

func (s *MongoStore) Get(ctx context.Context, key string) (value string, err error) {
	defer func(start time.Time) { observe(ctx, BackendMongo, "get", start, err) }(time.Now())
	if err := checkKey(key); err != nil {
		return "", err
	}
	var doc mongoDoc
	err = s.coll.FindOne(ctx, bson.M{"_id": key}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", errs.Wrap(errs.ErrCodeStorage, err, "mongo find %s", key)
	}
	return doc.Value, nil
}

// Set upserts the document for key.
func (s *MongoStore) Set(ctx context.Context, key, value string) (err error) {
	defer func(start time.Time) { observe(ctx, BackendMongo, "set", start, err) }(time.Now())
	if err := checkKey(key); err != nil {
		return err
	}
	update := bson.M{"$set": bson.M{"value": value, "updated_at": time.Now().UTC()}}
	_, err = s.coll.UpdateOne(ctx, bson.M{"_id": key}, update, options.Update().SetUpsert(true))
	if err != nil {
		return errs.Wrap(errs.ErrCodeStorage, err, "mongo upsert %s", key)
	}
	return nil
}

// changeEvent is the subset of a change stream event Watch reads.
type changeEvent struct {
	OperationType string    `bson:"operationType"`
	FullDocument  *mongoDoc `bson:"fullDocument"`
}

// Watch opens a change stream filtered on the key's _id.
func (s *MongoStore) Watch(ctx context.Context, key string) (<-chan Change, error) {
	if err := checkKey(key); err != nil {
		return nil, err
	}
	pipeline := mongo.Pipeline{
		bson.D{{Key: "$match", Value: bson.D{{Key: "documentKey._id", Value: key}}}},
	}
	cs, err := s.coll.Watch(ctx, pipeline, options.ChangeStream().SetFullDocument(options.UpdateLookup))
	if err != nil {
		return nil, errs.Wrap(errs.ErrCodeStorage, err, "mongo watch %s", key)
	}

	out := make(chan Change)
	go func() {
		defer close(out)
		defer cs.Close(context.Background())
		for cs.Next(ctx) {
			var ev changeEvent
			if err := cs.Decode(&ev); err != nil {
				continue
			}
			c := Change{Key: key}
			switch {
			case ev.OperationType == "delete":
				c.Deleted = true
			case ev.FullDocument != nil:
				c.Value = ev.FullDocument.Value
			default:
				continue
			}
			if !deliver(ctx, out, BackendMongo, c) {
				return
			}
		}
	}()
	return out, nil
}

func (s *MongoStore) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}

var _ Store = (*MongoStore)(nil)
