package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/Satyamdhote/appointment-scheduling-backend/services/scheduling-service/internal/model"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

type MongoOptions struct {
	URI        string
	Database   string
	Collection string
}

type MongoStore struct {
	client *mongo.Client
	coll   *mongo.Collection
	now    func() time.Time
}

type mongoEvent struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	Start     time.Time          `bson:"start"`
	Duration  int                `bson:"duration"`
	CreatedAt time.Time          `bson:"createdAt"`
}

func OpenMongo(ctx context.Context, opts MongoOptions) (*MongoStore, error) {
	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(opts.URI))
	if err != nil {
		return nil, err
	}
	if err := client.Ping(connectCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}
	if opts.Database == "" {
		opts.Database = "scheduling"
	}
	if opts.Collection == "" {
		opts.Collection = "events"
	}
	s := &MongoStore{
		client: client,
		coll:   client.Database(opts.Database).Collection(opts.Collection),
		now:    time.Now,
	}
	if err := s.EnsureIndexes(ctx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}
	return s, nil
}

// EnsureIndexes creates the start index used by every query.
func (s *MongoStore) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	_, err := s.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "start", Value: 1}},
		Options: options.Index().SetName("start_idx"),
	})
	if err != nil {
		return fmt.Errorf("failed to create events indexes: %w", err)
	}
	return nil
}

func (s *MongoStore) QueryRange(ctx context.Context, startUTC, endUTC time.Time) ([]model.BookedEvent, error) {
	return s.find(ctx, bson.M{"start": bson.M{"$gte": startUTC, "$lte": endUTC}})
}

func (s *MongoStore) QueryBefore(ctx context.Context, cutoffUTC time.Time) ([]model.BookedEvent, error) {
	return s.find(ctx, bson.M{"start": bson.M{"$lt": cutoffUTC}})
}

func (s *MongoStore) Create(ctx context.Context, startUTC time.Time, durationMinutes int) (model.BookedEvent, error) {
	doc := mongoEvent{
		Start:     startUTC.UTC(),
		Duration:  durationMinutes,
		CreatedAt: s.now().UTC(),
	}
	res, err := s.coll.InsertOne(ctx, doc)
	if err != nil {
		return model.BookedEvent{}, err
	}
	id, ok := res.InsertedID.(primitive.ObjectID)
	if !ok {
		return model.BookedEvent{}, fmt.Errorf("unexpected inserted id type %T", res.InsertedID)
	}
	doc.ID = id
	return fromMongo(doc), nil
}

func (s *MongoStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, readpref.Primary())
}

func (s *MongoStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

func (s *MongoStore) find(ctx context.Context, filter bson.M) ([]model.BookedEvent, error) {
	cursor, err := s.coll.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "start", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("failed to fetch events: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []mongoEvent
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("error decoding events: %w", err)
	}
	events := make([]model.BookedEvent, 0, len(docs))
	for _, d := range docs {
		events = append(events, fromMongo(d))
	}
	return events, nil
}

// Mongo keeps millisecond precision, so instants read back are truncated.
func fromMongo(d mongoEvent) model.BookedEvent {
	return model.BookedEvent{
		ID:              d.ID.Hex(),
		Start:           d.Start.UTC(),
		DurationMinutes: d.Duration,
		CreatedAt:       d.CreatedAt.UTC(),
	}
}
