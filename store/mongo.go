package store

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"reelops/models"
)

// MongoStore keeps the log in a collection. Standalone servers have no
// multi-document transactions, so a failed batch is undone by deleting
// everything carrying its batch id.
type MongoStore struct {
	client *mongo.Client
	coll   *mongo.Collection
}

func NewMongoStore(ctx context.Context, client *mongo.Client, database, collection string) (*MongoStore, error) {
	coll := client.Database(database).Collection(collection)
	_, err := coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "created_at", Value: -1}, {Key: "position", Value: -1}}},
		{Keys: bson.D{{Key: "batch_id", Value: 1}}},
	})
	if err != nil {
		return nil, fmt.Errorf("create indexes: %w", err)
	}
	return &MongoStore{client: client, coll: coll}, nil
}

func (s *MongoStore) Append(ctx context.Context, records []models.OperationRecord) error {
	if len(records) == 0 {
		return nil
	}
	batchID := records[0].BatchID
	if batchID == "" {
		batchID = uuid.NewString()
	}
	docs := make([]interface{}, 0, len(records))
	for _, r := range records {
		r.ID = uuid.NewString()
		r.BatchID = batchID
		docs = append(docs, r)
	}

	if _, err := s.coll.InsertMany(ctx, docs, options.InsertMany().SetOrdered(true)); err != nil {
		cause := fmt.Errorf("insert operations: %w", err)
		if _, derr := s.coll.DeleteMany(context.Background(), bson.M{"batch_id": batchID}); derr != nil {
			log.Printf("mongo rollback of batch %s failed: %v", batchID, derr)
			return errors.Join(cause, fmt.Errorf("rollback batch %s: %w", batchID, derr))
		}
		return cause
	}
	return nil
}

func (s *MongoStore) List(ctx context.Context) ([]models.OperationRecord, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "position", Value: -1}})
	cur, err := s.coll.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("find operations: %w", err)
	}
	defer cur.Close(ctx)

	var records []models.OperationRecord
	if err := cur.All(ctx, &records); err != nil {
		return nil, fmt.Errorf("decode operations: %w", err)
	}
	return records, nil
}

func (s *MongoStore) Clear(ctx context.Context) error {
	if _, err := s.coll.DeleteMany(ctx, bson.M{}); err != nil {
		return fmt.Errorf("delete operations: %w", err)
	}
	return nil
}

func (s *MongoStore) Close() error {
	return s.client.Disconnect(context.Background())
}
