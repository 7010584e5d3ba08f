// Package redis provides a Redis-backed DefinitionStore.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	backend "github.com/redis/go-redis/v9"

	"github.com/cicerone-chat/cicerone/pkg/domain"
)

// Store implements ports.DefinitionStore on Redis, one JSON value per
// definition under a common key prefix.
type Store struct {
	client *backend.Client
	prefix string
	ttl    time.Duration
}

// Option configures the Store.
type Option func(*Store)

// WithTTL sets an expiration on stored definitions. Zero (the default) keeps
// them forever.
func WithTTL(ttl time.Duration) Option {
	return func(s *Store) { s.ttl = ttl }
}

// WithPrefix overrides the key prefix.
func WithPrefix(prefix string) Option {
	return func(s *Store) { s.prefix = prefix }
}

// New creates a Redis store with its own client.
func New(address, password string, db int, opts ...Option) *Store {
	client := backend.NewClient(&backend.Options{
		Addr:     address,
		Password: password,
		DB:       db,
	})
	return NewFromClient(client, opts...)
}

// NewFromClient creates a Redis store from an existing client.
func NewFromClient(client *backend.Client, opts ...Option) *Store {
	s := &Store{
		client: client,
		prefix: "cicerone:def:",
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) key(id string) string { return s.prefix + id }

// Save serializes and stores the definition.
func (s *Store) Save(ctx context.Context, def *domain.Definition) error {
	if def == nil || def.ID == "" {
		return fmt.Errorf("definition has no id")
	}
	data, err := json.Marshal(def)
	if err != nil {
		return fmt.Errorf("marshal definition %s: %w", def.ID, err)
	}
	if err := s.client.Set(ctx, s.key(def.ID), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("save definition %s: %w", def.ID, err)
	}
	return nil
}

// Load retrieves and deserializes a definition.
func (s *Store) Load(ctx context.Context, id string) (*domain.Definition, error) {
	data, err := s.client.Get(ctx, s.key(id)).Bytes()
	if errors.Is(err, backend.Nil) {
		return nil, fmt.Errorf("%w: %s", domain.ErrDefinitionNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("load definition %s: %w", id, err)
	}
	var def domain.Definition
	if err := json.Unmarshal(data, &def); err != nil {
		return nil, fmt.Errorf("unmarshal definition %s: %w", id, err)
	}
	return &def, nil
}

// Delete removes a definition; unknown IDs are a no-op.
func (s *Store) Delete(ctx context.Context, id string) error {
	if err := s.client.Del(ctx, s.key(id)).Err(); err != nil {
		return fmt.Errorf("delete definition %s: %w", id, err)
	}
	return nil
}

// List scans the key space for stored definition IDs.
func (s *Store) List(ctx context.Context) ([]string, error) {
	var ids []string
	iter := s.client.Scan(ctx, 0, s.prefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		ids = append(ids, iter.Val()[len(s.prefix):])
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("list definitions: %w", err)
	}
	return ids, nil
}
