// Auditus - Listening Session Analytics and Taste-Based Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/auditus

package profile

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"

	"github.com/tomtom215/auditus/internal/logging"
)

// ErrNotFound is returned when no profile exists for a user id.
var ErrNotFound = errors.New("profile not found")

// Key prefix for profile documents in BadgerDB.
const profileKeyPrefix = "profile:"

// Store is the persistence boundary for taste documents.
type Store interface {
	Get(ctx context.Context, userID string) (*UserProfile, error)
	Put(ctx context.Context, p *UserProfile) error
	UpdateQueueFields(ctx context.Context, userID string, f QueueFields) error
	Delete(ctx context.Context, userID string) error
	Count(ctx context.Context) (int, error)
}

// QueueFields is the queue slice of a profile document. The ranker
// writes these fields without touching the rest of the document.
type QueueFields struct {
	Queue            TrackQueue
	UpdatedAt        int64
	EmbeddingVersion string
	EmbeddingTS      int64
}

// Config controls where the profile database lives.
type Config struct {
	// Path is the BadgerDB directory. Ignored when InMemory is set.
	Path string

	// InMemory keeps the whole store in RAM. Used by tests and the
	// simulator mode; nothing survives a restart.
	InMemory bool

	// SyncWrites forces an fsync per write batch.
	SyncWrites bool
}

// DefaultConfig returns the production store configuration.
func DefaultConfig() Config {
	return Config{
		Path: "data/profiles",
	}
}

// Open creates or opens the BadgerDB backing the profile store.
func Open(cfg Config) (*badger.DB, error) {
	var opts badger.Options
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if err := os.MkdirAll(cfg.Path, 0o750); err != nil {
			return nil, fmt.Errorf("create profile store dir: %w", err)
		}
		opts = badger.DefaultOptions(cfg.Path)
	}
	opts.SyncWrites = cfg.SyncWrites
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open profile store: %w", err)
	}

	logging.Info().
		Str("path", cfg.Path).
		Bool("in_memory", cfg.InMemory).
		Bool("sync_writes", cfg.SyncWrites).
		Msg("Profile store opened")

	return db, nil
}

// BadgerStore persists taste documents in BadgerDB. Put replaces the
// whole document; UpdateQueueFields rewrites only the queue fields
// inside one transaction. See the package docs for the concurrency
// contract.
type BadgerStore struct {
	db *badger.DB
}

// NewBadgerStore wraps an open BadgerDB.
func NewBadgerStore(db *badger.DB) *BadgerStore {
	return &BadgerStore{db: db}
}

// Get retrieves the profile for userID, or ErrNotFound.
func (s *BadgerStore) Get(ctx context.Context, userID string) (*UserProfile, error) {
	var p UserProfile

	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(profileKeyPrefix + userID))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("get profile: %w", err)
		}

		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &p)
		})
	})
	if err != nil {
		return nil, err
	}

	return &p, nil
}

// Put writes the whole profile document, replacing any previous version.
func (s *BadgerStore) Put(ctx context.Context, p *UserProfile) error {
	if p == nil || p.UserID == "" {
		return errors.New("profile missing user id")
	}

	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshal profile: %w", err)
	}

	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(profileKeyPrefix+p.UserID), data)
	})
}

// UpdateQueueFields rewrites only the queue fields of an existing
// profile. The read and write share one transaction, so a concurrent
// taste update never loses to a queue write. Missing profiles return
// ErrNotFound.
func (s *BadgerStore) UpdateQueueFields(ctx context.Context, userID string, f QueueFields) error {
	if userID == "" {
		return errors.New("missing user id")
	}

	key := []byte(profileKeyPrefix + userID)
	return s.db.Update(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("get profile: %w", err)
		}

		var p UserProfile
		if err := item.Value(func(val []byte) error {
			return json.Unmarshal(val, &p)
		}); err != nil {
			return fmt.Errorf("decode profile: %w", err)
		}

		p.RecommendationQueue = f.Queue
		p.QueueUpdatedAt = f.UpdatedAt
		p.QueueEmbeddingVersion = f.EmbeddingVersion
		p.QueueEmbeddingTS = f.EmbeddingTS

		data, err := json.Marshal(&p)
		if err != nil {
			return fmt.Errorf("marshal profile: %w", err)
		}
		return txn.Set(key, data)
	})
}

// Delete removes the profile for userID. Deleting a missing profile is
// not an error.
func (s *BadgerStore) Delete(ctx context.Context, userID string) error {
	return s.db.Update(func(txn *badger.Txn) error {
		err := txn.Delete([]byte(profileKeyPrefix + userID))
		if err != nil && !errors.Is(err, badger.ErrKeyNotFound) {
			return fmt.Errorf("delete profile: %w", err)
		}
		return nil
	})
}

// Count returns the number of stored profiles.
func (s *BadgerStore) Count(ctx context.Context) (int, error) {
	count := 0

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := []byte(profileKeyPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			count++
		}
		return nil
	})

	return count, err
}
