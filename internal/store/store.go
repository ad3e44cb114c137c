// Package store is the local, device-private record store. All registrations live as a
// single JSON-encoded ordered list under one key, next to a log of sync attempts.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/gdg-garage/msp-registration/internal/models"
	"gorm.io/gorm"
)

// DefaultHistoryLimit is how many sync runs are kept per backend.
const DefaultHistoryLimit = 500

type Store struct {
	db           *gorm.DB
	key          string
	historyLimit int
	mu           sync.Mutex
}

type Option func(*Store)

// WithHistoryLimit caps the sync runs kept per backend. Zero or less keeps everything.
func WithHistoryLimit(n int) Option {
	return func(s *Store) {
		s.historyLimit = n
	}
}

func New(db *gorm.DB, key string, opts ...Option) *Store {
	s := &Store{db: db, key: key, historyLimit: DefaultHistoryLimit}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) Key() string {
	return s.key
}

// Load returns every stored registration in capture order. A missing key is an empty list.
func (s *Store) Load(ctx context.Context) ([]models.Registration, error) {
	return load(s.db.WithContext(ctx), s.key)
}

// Save replaces the stored list.
func (s *Store) Save(ctx context.Context, registrations []models.Registration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return save(s.db.WithContext(ctx), s.key, registrations)
}

// Append adds one registration to the end of the stored list.
func (s *Store) Append(ctx context.Context, registration models.Registration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		registrations, err := load(tx, s.key)
		if err != nil {
			return err
		}
		return save(tx, s.key, append(registrations, registration))
	})
}

func load(db *gorm.DB, key string) ([]models.Registration, error) {
	var entry models.StoreEntry
	err := db.Where("key = ?", key).Take(&entry).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return []models.Registration{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", key, err)
	}

	registrations := []models.Registration{}
	if entry.Value == "" {
		return registrations, nil
	}
	if err := json.Unmarshal([]byte(entry.Value), &registrations); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", key, err)
	}
	return registrations, nil
}

func save(db *gorm.DB, key string, registrations []models.Registration) error {
	if registrations == nil {
		registrations = []models.Registration{}
	}
	value, err := json.Marshal(registrations)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", key, err)
	}

	entry := models.StoreEntry{Key: key, Value: string(value)}
	if err := db.Save(&entry).Error; err != nil {
		return fmt.Errorf("failed to write %s: %w", key, err)
	}
	return nil
}

// RecordRun appends a sync attempt to the history log and drops the oldest runs of
// the same backend beyond the history limit.
func (s *Store) RecordRun(ctx context.Context, run *models.SyncRun) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(run).Error; err != nil {
			return fmt.Errorf("failed to record sync run: %w", err)
		}
		if s.historyLimit <= 0 {
			return nil
		}

		keep := tx.Unscoped().Model(&models.SyncRun{}).
			Select("id").
			Where("backend = ?", run.Backend).
			Order("id desc").
			Limit(s.historyLimit)
		err := tx.Unscoped().
			Where("backend = ? AND id NOT IN (?)", run.Backend, keep).
			Delete(&models.SyncRun{}).Error
		if err != nil {
			return fmt.Errorf("failed to prune sync runs: %w", err)
		}
		return nil
	})
}

// Runs returns the most recent sync attempts, newest first.
func (s *Store) Runs(ctx context.Context, limit int) ([]models.SyncRun, error) {
	var runs []models.SyncRun
	err := s.db.WithContext(ctx).
		Order("started_at desc").
		Order("id desc").
		Limit(limit).
		Find(&runs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list sync runs: %w", err)
	}
	return runs, nil
}
