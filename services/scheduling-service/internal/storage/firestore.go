package storage

import (
	"context"
	"errors"
	"time"

	"cloud.google.com/go/firestore"
	firebase "firebase.google.com/go/v4"
	"github.com/Satyamdhote/appointment-scheduling-backend/services/scheduling-service/internal/model"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
)

type FirestoreOptions struct {
	ProjectID       string
	CredentialsFile string
	Collection      string
}

// FirestoreStore keeps one document per booking with fields start, duration
// and createdAt.
type FirestoreStore struct {
	client     *firestore.Client
	collection string
	now        func() time.Time
}

type firestoreEvent struct {
	Start     time.Time `firestore:"start"`
	Duration  int       `firestore:"duration"`
	CreatedAt time.Time `firestore:"createdAt"`
}

// OpenFirestore initialises a Firebase app from a service account file (or
// application default credentials) and returns a store on its Firestore.
func OpenFirestore(ctx context.Context, opts FirestoreOptions) (*FirestoreStore, error) {
	var clientOpts []option.ClientOption
	if opts.CredentialsFile != "" {
		clientOpts = append(clientOpts, option.WithCredentialsFile(opts.CredentialsFile))
	}
	var conf *firebase.Config
	if opts.ProjectID != "" {
		conf = &firebase.Config{ProjectID: opts.ProjectID}
	}
	app, err := firebase.NewApp(ctx, conf, clientOpts...)
	if err != nil {
		return nil, err
	}
	client, err := app.Firestore(ctx)
	if err != nil {
		return nil, err
	}
	return NewFirestoreStore(client, opts.Collection), nil
}

func NewFirestoreStore(client *firestore.Client, collection string) *FirestoreStore {
	if collection == "" {
		collection = "events"
	}
	return &FirestoreStore{client: client, collection: collection, now: time.Now}
}

func (s *FirestoreStore) QueryRange(ctx context.Context, startUTC, endUTC time.Time) ([]model.BookedEvent, error) {
	q := s.client.Collection(s.collection).
		Where("start", ">=", startUTC).
		Where("start", "<=", endUTC).
		OrderBy("start", firestore.Asc)
	return s.collect(q.Documents(ctx))
}

func (s *FirestoreStore) QueryBefore(ctx context.Context, cutoffUTC time.Time) ([]model.BookedEvent, error) {
	q := s.client.Collection(s.collection).
		Where("start", "<", cutoffUTC).
		OrderBy("start", firestore.Asc)
	return s.collect(q.Documents(ctx))
}

func (s *FirestoreStore) Create(ctx context.Context, startUTC time.Time, durationMinutes int) (model.BookedEvent, error) {
	doc := firestoreEvent{
		Start:     startUTC.UTC(),
		Duration:  durationMinutes,
		CreatedAt: s.now().UTC(),
	}
	ref, _, err := s.client.Collection(s.collection).Add(ctx, doc)
	if err != nil {
		return model.BookedEvent{}, err
	}
	return fromFirestore(ref.ID, doc), nil
}

// Ping reads at most one document to prove the credentials and project work.
func (s *FirestoreStore) Ping(ctx context.Context) error {
	it := s.client.Collection(s.collection).Limit(1).Documents(ctx)
	defer it.Stop()
	_, err := it.Next()
	if errors.Is(err, iterator.Done) {
		return nil
	}
	return err
}

func (s *FirestoreStore) Close() error {
	return s.client.Close()
}

func (s *FirestoreStore) collect(it *firestore.DocumentIterator) ([]model.BookedEvent, error) {
	defer it.Stop()

	events := []model.BookedEvent{}
	for {
		snap, err := it.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, err
		}
		var doc firestoreEvent
		if err := snap.DataTo(&doc); err != nil {
			return nil, err
		}
		events = append(events, fromFirestore(snap.Ref.ID, doc))
	}
	return events, nil
}

func fromFirestore(id string, doc firestoreEvent) model.BookedEvent {
	return model.BookedEvent{
		ID:              id,
		Start:           doc.Start.UTC(),
		DurationMinutes: doc.Duration,
		CreatedAt:       doc.CreatedAt.UTC(),
	}
}
