// Package mongokv is the MongoDB KV backend, for deployments that
// already run Mongo and want the triage state off the local disk.
package mongokv

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/lindenrealty/rentscreen/store"
)

const defaultCollection = "rentscreen_kv"

type Store struct {
	col *mongo.Collection
}

func New(db *mongo.Database, collection string) *Store {
	collection = strings.TrimSpace(collection)
	if collection == "" {
		collection = defaultCollection
	}
	return &Store{col: db.Collection(collection)}
}

// Connect dials a Mongo deployment and returns a Store on the named
// database/collection.
func Connect(ctx context.Context, uri, database, collection string) (*Store, func(context.Context) error, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, nil, fmt.Errorf("mongokv connect: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, nil, fmt.Errorf("%w: %v", store.ErrUnavailable, err)
	}
	database = strings.TrimSpace(database)
	if database == "" {
		database = "rentscreen"
	}
	return New(client.Database(database), collection), client.Disconnect, nil
}

type kvDocument struct {
	ID        string    `bson:"_id"`
	Value     []byte    `bson:"value"`
	UpdatedAt time.Time `bson:"updated_at"`
}

func (s *Store) Get(ctx context.Context, keys []string) (map[string][]byte, error) {
	cleaned := make([]string, 0, len(keys))
	for _, key := range keys {
		key = strings.TrimSpace(key)
		if key == "" {
			return nil, store.ErrEmptyKey
		}
		cleaned = append(cleaned, key)
	}
	if len(cleaned) == 0 {
		return map[string][]byte{}, nil
	}

	cur, err := s.col.Find(ctx, bson.M{"_id": bson.M{"$in": cleaned}})
	if err != nil {
		return nil, fmt.Errorf("mongokv get: %w", err)
	}
	defer cur.Close(ctx)

	out := make(map[string][]byte, len(cleaned))
	for cur.Next(ctx) {
		var doc kvDocument
		if err := cur.Decode(&doc); err != nil {
			return nil, fmt.Errorf("mongokv decode: %w", err)
		}
		out[doc.ID] = doc.Value
	}
	if err := cur.Err(); err != nil {
		return nil, fmt.Errorf("mongokv cursor: %w", err)
	}
	return out, nil
}

func (s *Store) Set(ctx context.Context, values map[string][]byte) error {
	now := time.Now().UTC()
	for key, value := range values {
		key = strings.TrimSpace(key)
		if key == "" {
			return store.ErrEmptyKey
		}
		doc := kvDocument{ID: key, Value: value, UpdatedAt: now}
		if _, err := s.col.UpdateByID(ctx, doc.ID, bson.M{"$set": doc}, options.Update().SetUpsert(true)); err != nil {
			return fmt.Errorf("mongokv set %s: %w", key, err)
		}
	}
	return nil
}

func (s *Store) List(ctx context.Context, prefix string) ([]string, error) {
	filter := bson.M{}
	if prefix != "" {
		filter["_id"] = bson.M{"$regex": "^" + regexp.QuoteMeta(prefix)}
	}
	cur, err := s.col.Find(ctx, filter, options.Find().SetProjection(bson.M{"_id": 1}))
	if err != nil {
		return nil, fmt.Errorf("mongokv list: %w", err)
	}
	defer cur.Close(ctx)

	var keys []string
	for cur.Next(ctx) {
		var doc struct {
			ID string `bson:"_id"`
		}
		if err := cur.Decode(&doc); err != nil {
			return nil, fmt.Errorf("mongokv decode: %w", err)
		}
		keys = append(keys, doc.ID)
	}
	if err := cur.Err(); err != nil {
		return nil, fmt.Errorf("mongokv cursor: %w", err)
	}
	return keys, nil
}

func (s *Store) Delete(ctx context.Context, keys []string) error {
	if len(keys) == 0 {
		return nil
	}
	if _, err := s.col.DeleteMany(ctx, bson.M{"_id": bson.M{"$in": keys}}); err != nil {
		return fmt.Errorf("mongokv delete: %w", err)
	}
	return nil
}
