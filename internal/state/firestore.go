package state

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const (
	defaultFirestoreCollection = "localDevState"
	firestoreDocID             = "state"
)

// FirestorePersister keeps the encoded document as a string field of a single
// Firestore document ({collection}/state). Firestore caps documents at 1 MiB,
// which bounds the size of a shared dev dataset.
type FirestorePersister struct {
	client     *firestore.Client
	collection string
}

type firestoreRecord struct {
	Payload   string    `firestore:"payload"`
	Version   int       `firestore:"version"`
	UpdatedAt time.Time `firestore:"updatedAt"`
}

// NewFirestorePersister connects to the given project and database. An empty
// databaseID selects "(default)"; credentialsFile may be empty to use
// application default credentials.
func NewFirestorePersister(ctx context.Context, projectID, databaseID, collection, credentialsFile string) (*FirestorePersister, error) {
	if databaseID == "" {
		databaseID = firestore.DefaultDatabaseID
	}
	if collection == "" {
		collection = defaultFirestoreCollection
	}
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}
	client, err := firestore.NewClientWithDatabase(ctx, projectID, databaseID, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating firestore client: %w", err)
	}
	return &FirestorePersister{client: client, collection: collection}, nil
}

func (f *FirestorePersister) doc() *firestore.DocumentRef {
	return f.client.Collection(f.collection).Doc(firestoreDocID)
}

func (f *FirestorePersister) Location() string {
	return "firestore:" + f.collection + "/" + firestoreDocID
}

func (f *FirestorePersister) Load(ctx context.Context) ([]byte, error) {
	snap, err := f.doc().Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, ErrNotExist
		}
		return nil, fmt.Errorf("%w: reading %s: %v", ErrUnavailable, f.Location(), err)
	}
	var rec firestoreRecord
	if err := snap.DataTo(&rec); err != nil {
		return nil, fmt.Errorf("decoding %s: %w", f.Location(), err)
	}
	return []byte(rec.Payload), nil
}

func (f *FirestorePersister) Save(ctx context.Context, data []byte) error {
	rec := firestoreRecord{
		Payload:   string(data),
		Version:   SchemaVersion,
		UpdatedAt: time.Now().UTC(),
	}
	if _, err := f.doc().Set(ctx, rec); err != nil {
		return fmt.Errorf("writing %s: %w", f.Location(), err)
	}
	return nil
}

func (f *FirestorePersister) Close() error {
	return f.client.Close()
}
