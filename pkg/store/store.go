package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	pkgerrors "github.com/angelmondragon/farmconnect-backend/pkg/errors"
	"github.com/angelmondragon/farmconnect-backend/pkg/logger"
	"github.com/angelmondragon/farmconnect-backend/pkg/models"
)

const DefaultKey = "farmconnect_data"

var (
	// ErrNotFound is returned by a Backend when the document does not exist yet.
	ErrNotFound = errors.New("store: document not found")
	// ErrConflict is returned when a concurrent writer won every attempt.
	ErrConflict = errors.New("store: concurrent write conflict")
)

// Backend persists one opaque document per key.
//
// Swap must run fn against the current bytes (nil when absent) and persist
// its result atomically with respect to other Swap calls on the same key.
// When fn returns an error nothing is written and that error is returned.
type Backend interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Swap(ctx context.Context, key string, fn func(current []byte) ([]byte, error)) error
}

// Transactor is the slice of Store that services depend on.
type Transactor interface {
	View(ctx context.Context, fn func(*models.Snapshot) error) error
	Update(ctx context.Context, fn func(*models.Snapshot) error) error
}

// Options tunes a Store.
type Options struct {
	Key    string
	Logger *logger.Logger
	Clock  func() time.Time
}

// Store loads and saves the marketplace Snapshot through a Backend. Every
// logical operation sees and writes the whole document.
type Store struct {
	backend Backend
	key     string
	logg    *logger.Logger
	clock   func() time.Time
	tracer  trace.Tracer
}

func New(backend Backend, opts Options) (*Store, error) {
	if backend == nil {
		return nil, fmt.Errorf("store backend is required")
	}
	if opts.Key == "" {
		opts.Key = DefaultKey
	}
	if opts.Logger == nil {
		opts.Logger = logger.Nop()
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	return &Store{
		backend: backend,
		key:     opts.Key,
		logg:    opts.Logger,
		clock:   opts.Clock,
		tracer:  otel.Tracer("github.com/angelmondragon/farmconnect-backend/pkg/store"),
	}, nil
}

// Key is the document name the store reads and writes.
func (s *Store) Key() string {
	return s.key
}

// Load returns the current snapshot. A missing or unreadable document yields
// a fresh empty snapshot; only backend failures are errors.
func (s *Store) Load(ctx context.Context) (*models.Snapshot, error) {
	raw, err := s.backend.Get(ctx, s.key)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load snapshot")
	}
	return s.decode(ctx, raw), nil
}

// Save overwrites the stored document with snap.
func (s *Store) Save(ctx context.Context, snap *models.Snapshot) error {
	if snap == nil {
		return pkgerrors.New(pkgerrors.CodeInternal, "snapshot is required")
	}
	base := snap.Version
	err := s.backend.Swap(ctx, s.key, func(current []byte) ([]byte, error) {
		out := *snap
		out.Version = base
		if prev := s.decode(ctx, current); prev.Version > out.Version {
			out.Version = prev.Version
		}
		return s.encode(&out)
	})
	if err != nil {
		return s.persistError(err)
	}
	return nil
}

// View runs fn against a freshly loaded snapshot. Mutations are discarded.
func (s *Store) View(ctx context.Context, fn func(*models.Snapshot) error) error {
	ctx, span := s.tracer.Start(ctx, "store.view", trace.WithAttributes(attribute.String("store.key", s.key)))
	defer span.End()

	snap, err := s.Load(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "load failed")
		return err
	}
	return fn(snap)
}

// Update is the transaction boundary: fn mutates a decoded snapshot and the
// result is written back only if fn succeeds. fn may run more than once when
// another writer races it, so it must not have effects outside the snapshot.
func (s *Store) Update(ctx context.Context, fn func(*models.Snapshot) error) error {
	ctx, span := s.tracer.Start(ctx, "store.update", trace.WithAttributes(attribute.String("store.key", s.key)))
	defer span.End()

	var fnErr error
	err := s.backend.Swap(ctx, s.key, func(current []byte) ([]byte, error) {
		snap := s.decode(ctx, current)
		if fnErr = fn(snap); fnErr != nil {
			return nil, fnErr
		}
		return s.encode(snap)
	})
	if fnErr != nil {
		span.SetStatus(codes.Error, "operation rejected")
		return fnErr
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "persist failed")
		return s.persistError(err)
	}
	return nil
}

// Ping checks that the backend answers; a missing document is healthy.
func (s *Store) Ping(ctx context.Context) error {
	if _, err := s.backend.Get(ctx, s.key); err != nil && !errors.Is(err, ErrNotFound) {
		return err
	}
	return nil
}

func (s *Store) decode(ctx context.Context, raw []byte) *models.Snapshot {
	if len(raw) == 0 {
		return models.NewSnapshot()
	}
	var snap models.Snapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		s.logg.Error(s.logg.WithField(ctx, "store_key", s.key), "store.snapshot.corrupt", err)
		return models.NewSnapshot()
	}
	snap.Normalize()
	return &snap
}

func (s *Store) encode(snap *models.Snapshot) ([]byte, error) {
	snap.Normalize()
	snap.Version++
	now := s.clock().UTC()
	snap.UpdatedAt = &now
	payload, err := json.Marshal(snap)
	if err != nil {
		return nil, fmt.Errorf("encode snapshot: %w", err)
	}
	return payload, nil
}

func (s *Store) persistError(err error) error {
	if errors.Is(err, ErrConflict) {
		return pkgerrors.Wrap(pkgerrors.CodeConflict, err, "the marketplace was updated concurrently, please retry")
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist snapshot")
}
