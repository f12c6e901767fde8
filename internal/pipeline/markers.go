package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"hub/internal/submission"
	id "hub/pkg/domain"
)

// Marker is the persisted progress of one record. Executed is set once the
// action executor has completed, and from then on execute is never run
// again for the record; Family and Aborted replay its outcome.
type Marker struct {
	Stage     Stage             `json:"stage"`
	Executed  bool              `json:"executed"`
	Family    submission.Family `json:"family,omitempty"`
	Aborted   bool              `json:"aborted,omitempty"`
	Failed    bool              `json:"failed,omitempty"`
	UpdatedAt time.Time         `json:"updated_at"`
}

// Markers stores per-record progress.
type Markers interface {
	Get(ctx context.Context, recordID id.RecordID) (Marker, bool, error)
	Put(ctx context.Context, recordID id.RecordID, m Marker) error
}

// MemoryMarkers keeps markers in process memory.
type MemoryMarkers struct {
	mu      sync.Mutex
	markers map[id.RecordID]Marker
}

func NewMemoryMarkers() *MemoryMarkers {
	return &MemoryMarkers{markers: make(map[id.RecordID]Marker)}
}

func (s *MemoryMarkers) Get(_ context.Context, recordID id.RecordID) (Marker, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.markers[recordID]
	return m, ok, nil
}

func (s *MemoryMarkers) Put(_ context.Context, recordID id.RecordID, m Marker) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.markers[recordID] = m
	return nil
}

const markerKeyPrefix = "hub:pipeline:marker:"

// RedisMarkers shares markers between workers. Entries expire after ttl so
// finished records do not accumulate.
type RedisMarkers struct {
	client redis.Cmdable
	ttl    time.Duration
}

// NewRedisMarkers constructs a Redis-backed marker store. A zero ttl keeps
// markers forever.
func NewRedisMarkers(client redis.Cmdable, ttl time.Duration) *RedisMarkers {
	return &RedisMarkers{client: client, ttl: ttl}
}

func (s *RedisMarkers) Get(ctx context.Context, recordID id.RecordID) (Marker, bool, error) {
	raw, err := s.client.Get(ctx, markerKeyPrefix+recordID.String()).Bytes()
	if errors.Is(err, redis.Nil) {
		return Marker{}, false, nil
	}
	if err != nil {
		return Marker{}, false, fmt.Errorf("read stage marker: %w", err)
	}
	var m Marker
	if err := json.Unmarshal(raw, &m); err != nil {
		return Marker{}, false, fmt.Errorf("decode stage marker: %w", err)
	}
	return m, true, nil
}

func (s *RedisMarkers) Put(ctx context.Context, recordID id.RecordID, m Marker) error {
	raw, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("encode stage marker: %w", err)
	}
	if err := s.client.Set(ctx, markerKeyPrefix+recordID.String(), raw, s.ttl).Err(); err != nil {
		return fmt.Errorf("write stage marker: %w", err)
	}
	return nil
}
