package state

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"
)

// DefaultPlayerPassword is the password given to seeded player accounts.
const DefaultPlayerPassword = "player123"

// Store is the local-dev state store. Read and Write are the only ways in
// and out of the persisted document; there is no in-memory cache, so a Read
// always observes the last successful Write of the process.
//
// Read followed by Write is not atomic: two callers interleaving their
// read-modify-write cycles lose one update. Update serializes whole cycles
// within the process.
type Store struct {
	p       Persister
	log     *slog.Logger
	metrics *Metrics

	ioMu     sync.Mutex
	updateMu sync.Mutex

	hashCost int
}

// New creates a Store over p. metrics may be nil.
func New(p Persister, logger *slog.Logger, metrics *Metrics) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		p:        p,
		log:      logger.With("component", "state", "location", p.Location()),
		metrics:  metrics,
		hashCost: bcrypt.DefaultCost,
	}
}

// Location describes where the document is persisted.
func (s *Store) Location() string { return s.p.Location() }

func (s *Store) load(ctx context.Context) ([]byte, error) {
	s.ioMu.Lock()
	defer s.ioMu.Unlock()
	return s.p.Load(ctx)
}

// Read returns the current document. Missing or unparsable data is replaced
// by a default document, which is persisted before Read returns. Unparsable
// data is quarantined first when the persister supports it.
func (s *Store) Read(ctx context.Context) (*Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := s.load(ctx)
	switch {
	case err == nil:
		doc, derr := Decode(data)
		if derr == nil {
			s.metrics.read("ok")
			return doc, nil
		}
		s.log.Warn("state document unparsable, reinitializing", "err", derr)
		s.quarantine(ctx)
	case errors.Is(err, ErrUnavailable):
		return nil, err
	case errors.Is(err, ErrNotExist):
		s.log.Info("state document absent, initializing defaults")
	default:
		s.log.Warn("state document unreadable, reinitializing", "err", err)
	}

	doc := NewDocument()
	if err := s.Write(ctx, doc); err != nil {
		return nil, err
	}
	s.metrics.read("reinitialized")
	return doc, nil
}

func (s *Store) quarantine(ctx context.Context) {
	q, ok := s.p.(Quarantiner)
	if !ok {
		return
	}
	s.ioMu.Lock()
	defer s.ioMu.Unlock()
	dst, err := q.Quarantine(ctx)
	if err != nil {
		s.log.Warn("quarantine failed", "err", err)
		return
	}
	s.log.Warn("corrupt state moved aside", "path", dst)
}

// Write replaces the persisted document with doc. The write runs to
// completion even if ctx is canceled. Any failure is an *IOError.
func (s *Store) Write(ctx context.Context, doc *Document) error {
	ctx = context.WithoutCancel(ctx)
	if doc.Version == 0 {
		doc.normalize()
	}
	data, err := doc.Encode()
	if err != nil {
		return &IOError{Op: "encode", Location: s.p.Location(), Err: err}
	}

	start := time.Now()
	s.ioMu.Lock()
	err = s.p.Save(ctx, data)
	s.ioMu.Unlock()
	s.metrics.wrote(err, len(data), time.Since(start))
	if err != nil {
		s.log.Error("state write failed", "err", err)
		return &IOError{Op: "write", Location: s.p.Location(), Err: err}
	}
	return nil
}

// Update runs a read-modify-write cycle while holding the process-wide update
// lock. If fn returns ErrNoChange nothing is written and Update returns nil;
// any other error aborts the cycle and is returned unchanged.
func (s *Store) Update(ctx context.Context, fn func(*Document) error) error {
	s.updateMu.Lock()
	defer s.updateMu.Unlock()

	doc, err := s.Read(ctx)
	if err != nil {
		return err
	}
	if err := fn(doc); err != nil {
		if errors.Is(err, ErrNoChange) {
			return nil
		}
		return err
	}
	return s.Write(ctx, doc)
}

// SetHashCost overrides the bcrypt cost used for seeded and synced accounts.
func (s *Store) SetHashCost(cost int) { s.hashCost = cost }

// HashPassword hashes a password with the store's bcrypt cost.
func (s *Store) HashPassword(password string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(password), s.hashCost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
