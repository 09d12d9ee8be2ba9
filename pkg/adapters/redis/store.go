// Package redis provides the distributed state store and locker for
// multi-replica deployments.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/parleylabs/parley/pkg/domain"
	backend "github.com/redis/go-redis/v9"
)

const (
	// DefaultPrefix namespaces all keys written by the store.
	DefaultPrefix = "parley:session:"

	// DefaultTTL bounds how long an abandoned session survives. Voice calls are
	// short-lived; anything older than a day is garbage.
	DefaultTTL = 24 * time.Hour

	indexKey = "index"
)

// Store implements ports.StateStore on Redis. States are stored as JSON values
// with a TTL, and a sorted-set index (scored by expiry time) backs List without
// a SCAN over the keyspace.
type Store struct {
	client *backend.Client
	prefix string
	ttl    time.Duration
}

// StoreOption configures the Store.
type StoreOption func(*Store)

// WithPrefix overrides the key prefix.
func WithPrefix(prefix string) StoreOption {
	return func(s *Store) {
		s.prefix = prefix
	}
}

// WithTTL overrides the session TTL.
func WithTTL(ttl time.Duration) StoreOption {
	return func(s *Store) {
		s.ttl = ttl
	}
}

// NewFromClient creates a Store over an existing Redis client.
func NewFromClient(client *backend.Client, opts ...StoreOption) *Store {
	s := &Store{
		client: client,
		prefix: DefaultPrefix,
		ttl:    DefaultTTL,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// New connects to the given address and creates a Store.
func New(addr string, opts ...StoreOption) *Store {
	client := backend.NewClient(&backend.Options{Addr: addr})
	return NewFromClient(client, opts...)
}

func (s *Store) key(sessionID string) string {
	return s.prefix + sessionID
}

func (s *Store) index() string {
	return s.prefix + indexKey
}

// Save serializes the state and refreshes its TTL and index entry.
func (s *Store) Save(ctx context.Context, sessionID string, state *domain.State) error {
	payload, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to serialize session state: %w", err)
	}

	expiry := time.Now().Add(s.ttl)
	pipe := s.client.TxPipeline()
	pipe.Set(ctx, s.key(sessionID), payload, s.ttl)
	pipe.ZAdd(ctx, s.index(), backend.Z{
		Score:  float64(expiry.Unix()),
		Member: sessionID,
	})
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to persist session state: %w", err)
	}
	return nil
}

// Load retrieves and deserializes the state.
func (s *Store) Load(ctx context.Context, sessionID string) (*domain.State, error) {
	payload, err := s.client.Get(ctx, s.key(sessionID)).Bytes()
	if errors.Is(err, backend.Nil) {
		return nil, domain.ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read session state: %w", err)
	}

	var state domain.State
	if err := json.Unmarshal(payload, &state); err != nil {
		return nil, fmt.Errorf("failed to deserialize session state: %w", err)
	}
	return &state, nil
}

// Delete removes the state and its index entry.
func (s *Store) Delete(ctx context.Context, sessionID string) error {
	pipe := s.client.TxPipeline()
	pipe.Del(ctx, s.key(sessionID))
	pipe.ZRem(ctx, s.index(), sessionID)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to delete session state: %w", err)
	}
	return nil
}

// List returns the IDs of live sessions. Expired index entries are lazily
// removed on each call; the values themselves expire via TTL.
func (s *Store) List(ctx context.Context) ([]string, error) {
	now := strconv.FormatInt(time.Now().Unix(), 10)
	if err := s.client.ZRemRangeByScore(ctx, s.index(), "-inf", now).Err(); err != nil {
		return nil, fmt.Errorf("failed to prune session index: %w", err)
	}

	sessions, err := s.client.ZRange(ctx, s.index(), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	return sessions, nil
}
