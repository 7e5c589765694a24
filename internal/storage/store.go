package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/claude/fittracker/internal/metrics"
	"github.com/google/uuid"
)

// ErrNotFound is returned when a template, instance or progress record
// referenced by id does not exist.
var ErrNotFound = errors.New("not found")

// ErrInvalid wraps validation failures of records passed in for saving.
var ErrInvalid = errors.New("invalid")

// Collection names. The store prefixes each with its key prefix.
const (
	collTemplates = "session_templates"
	collInstances = "session_instances"
	collProgress  = "workout_progress"
	collActive    = "active_workout"
	collImportLog = "import_log"
)

// Store implements the session data model on top of a KV. Every mutation
// is a read-modify-write of one collection performed under a single mutex.
type Store struct {
	kv      KV
	prefix  string
	metrics *metrics.Manager
	log     *slog.Logger

	mu    sync.Mutex
	now   func() time.Time
	newID func() string
}

// NewStore creates a Store writing collections under prefix.
func NewStore(kv KV, prefix string, m *metrics.Manager, log *slog.Logger) *Store {
	return &Store{
		kv:      kv,
		prefix:  prefix,
		metrics: m,
		log:     log,
		now:     time.Now,
		newID:   uuid.NewString,
	}
}

// Close closes the underlying KV.
func (s *Store) Close() error {
	return s.kv.Close()
}

func (s *Store) key(collection string) string {
	return s.prefix + collection
}

// validated is implemented by pointers to stored record types.
type validated[T any] interface {
	*T
	Normalize()
	Validate() error
}

// loadList reads a collection and decodes each element on its own.
// Elements that fail to decode or validate are dropped and counted.
func loadList[T any, P validated[T]](ctx context.Context, s *Store, collection string) ([]T, error) {
	data, err := s.kv.Get(ctx, s.key(collection))
	if errors.Is(err, ErrKeyNotFound) {
		return []T{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", collection, err)
	}

	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		s.discard(collection, -1, err)
		return []T{}, nil
	}

	out := make([]T, 0, len(raw))
	for i, r := range raw {
		var v T
		if err := json.Unmarshal(r, &v); err != nil {
			s.discard(collection, i, err)
			continue
		}
		P(&v).Normalize()
		if err := P(&v).Validate(); err != nil {
			s.discard(collection, i, err)
			continue
		}
		out = append(out, v)
	}
	return out, nil
}

func saveList[T any](ctx context.Context, s *Store, collection string, list []T) error {
	data, err := json.Marshal(list)
	if err != nil {
		return fmt.Errorf("encoding %s: %w", collection, err)
	}
	if err := s.kv.Set(ctx, s.key(collection), data); err != nil {
		return fmt.Errorf("saving %s: %w", collection, err)
	}
	return nil
}

func (s *Store) discard(collection string, index int, err error) {
	s.log.Warn("discarding stored record", "collection", collection, "index", index, "error", err)
	s.metrics.CounterRecordsDiscarded.WithLabelValues(collection).Inc()
}
