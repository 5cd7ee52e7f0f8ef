package store

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoStore is an AnswerRepo backed by a MongoDB collection. Sequence
// numbers come from a counters document incremented with $inc.
type MongoStore struct {
	client   *mongo.Client
	answers  *mongo.Collection
	counters *mongo.Collection
}

// OpenMongo connects to uri, pings the server and ensures indexes exist.
func OpenMongo(ctx context.Context, uri, database string) (*MongoStore, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect to mongo: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx, nil); err != nil {
		client.Disconnect(ctx)
		return nil, fmt.Errorf("ping mongo: %w", err)
	}

	db := client.Database(database)
	s := &MongoStore{
		client:   client,
		answers:  db.Collection("answer_records"),
		counters: db.Collection("counters"),
	}

	_, err = s.answers.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "sequence", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "sessionId", Value: 1}, {Key: "sequence", Value: 1}}},
	})
	if err != nil {
		client.Disconnect(ctx)
		return nil, fmt.Errorf("create indexes: %w", err)
	}

	return s, nil
}

func (s *MongoStore) nextSequence(ctx context.Context) (int64, error) {
	var counter struct {
		Value int64 `bson:"value"`
	}
	err := s.counters.FindOneAndUpdate(ctx,
		bson.M{"_id": "answer_records"},
		bson.M{"$inc": bson.M{"value": int64(1)}},
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
	).Decode(&counter)
	if err != nil {
		return 0, fmt.Errorf("next sequence: %w", err)
	}
	return counter.Value, nil
}

func (s *MongoStore) Append(ctx context.Context, rec AnswerRecord) (int64, error) {
	rec, err := prepare(rec)
	if err != nil {
		return 0, err
	}

	rec.Sequence, err = s.nextSequence(ctx)
	if err != nil {
		return 0, err
	}

	if _, err := s.answers.InsertOne(ctx, rec); err != nil {
		return 0, fmt.Errorf("save answer record: %w", err)
	}
	return rec.Sequence, nil
}

func (s *MongoStore) History(ctx context.Context, sessionID string) ([]AnswerRecord, error) {
	return s.find(ctx, bson.M{"sessionId": sessionID})
}

func (s *MongoStore) Sessions(ctx context.Context) ([]SessionHistory, error) {
	records, err := s.find(ctx, bson.M{})
	if err != nil {
		return nil, err
	}
	return groupBySession(records), nil
}

func (s *MongoStore) find(ctx context.Context, filter bson.M) ([]AnswerRecord, error) {
	cursor, err := s.answers.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "sequence", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("query answer records: %w", err)
	}
	defer cursor.Close(ctx)

	records := []AnswerRecord{}
	if err := cursor.All(ctx, &records); err != nil {
		return nil, fmt.Errorf("decode answer records: %w", err)
	}
	for i := range records {
		records[i].Timestamp = records[i].Timestamp.UTC()
	}
	return records, nil
}

func (s *MongoStore) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}
