package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/sigmatax/console/internal/api"
	"github.com/sigmatax/console/internal/auth"
)

// ErrNotFound is returned when no record exists for a session id.
var ErrNotFound = errors.New("session not found")

// Record is what gets persisted per browser session: the raw token, the
// decoded claims and the extended profile.
type Record struct {
	Token   string
	Claims  *auth.Claims
	Profile *api.Profile
}

// Store persists session records keyed by the hashed session id.
type Store interface {
	Save(ctx context.Context, key string, rec Record, ttl time.Duration) error
	Load(ctx context.Context, key string) (Record, error)
	Delete(ctx context.Context, key string) error
}

const (
	fieldToken   = "token"
	fieldClaims  = "claims"
	fieldProfile = "profile"
)

// RedisStore keeps records as Redis hashes.
type RedisStore struct {
	client redis.UniversalClient
}

// NewRedisStore wraps an existing client.
func NewRedisStore(client redis.UniversalClient) *RedisStore {
	return &RedisStore{client: client}
}

// Save writes the record and sets the key to expire with the token.
func (s *RedisStore) Save(ctx context.Context, key string, rec Record, ttl time.Duration) error {
	claims, err := json.Marshal(rec.Claims)
	if err != nil {
		return fmt.Errorf("session: encode claims: %w", err)
	}
	values := map[string]any{
		fieldToken:  rec.Token,
		fieldClaims: string(claims),
	}
	if rec.Profile != nil {
		profile, err := json.Marshal(rec.Profile)
		if err != nil {
			return fmt.Errorf("session: encode profile: %w", err)
		}
		values[fieldProfile] = string(profile)
	}

	pipe := s.client.TxPipeline()
	pipe.Del(ctx, key)
	pipe.HSet(ctx, key, values)
	if ttl > 0 {
		pipe.Expire(ctx, key, ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("session: save: %w", err)
	}
	return nil
}

// Load reads a record. Claims that fail to decode are reported as an error so
// the caller can clear the entry.
func (s *RedisStore) Load(ctx context.Context, key string) (Record, error) {
	values, err := s.client.HGetAll(ctx, key).Result()
	if err != nil {
		return Record{}, fmt.Errorf("session: load: %w", err)
	}
	if len(values) == 0 {
		return Record{}, ErrNotFound
	}

	rec := Record{Token: values[fieldToken]}
	if raw := values[fieldClaims]; raw != "" {
		rec.Claims = &auth.Claims{}
		if err := json.Unmarshal([]byte(raw), rec.Claims); err != nil {
			return Record{}, fmt.Errorf("session: decode claims: %w", err)
		}
	}
	if raw := values[fieldProfile]; raw != "" {
		rec.Profile = &api.Profile{}
		if err := json.Unmarshal([]byte(raw), rec.Profile); err != nil {
			return Record{}, fmt.Errorf("session: decode profile: %w", err)
		}
	}
	return rec, nil
}

// Delete removes the record.
func (s *RedisStore) Delete(ctx context.Context, key string) error {
	return s.client.Del(ctx, key).Err()
}

// Ping checks connectivity.
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// MemoryStore keeps records in process memory. Used when no Redis is configured.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	now     func() time.Time
}

type memoryEntry struct {
	rec     Record
	expires time.Time
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]memoryEntry), now: time.Now}
}

func (s *MemoryStore) Save(ctx context.Context, key string, rec Record, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry := memoryEntry{rec: rec}
	if ttl > 0 {
		entry.expires = s.now().Add(ttl)
	}
	s.entries[key] = entry

	for k, e := range s.entries {
		if !e.expires.IsZero() && s.now().After(e.expires) {
			delete(s.entries, k)
		}
	}
	return nil
}

func (s *MemoryStore) Load(ctx context.Context, key string) (Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[key]
	if !ok {
		return Record{}, ErrNotFound
	}
	if !entry.expires.IsZero() && s.now().After(entry.expires) {
		delete(s.entries, key)
		return Record{}, ErrNotFound
	}
	return entry.rec, nil
}

func (s *MemoryStore) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, key)
	return nil
}

// Len returns the number of stored records.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}
