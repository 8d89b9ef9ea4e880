package idalloc

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/jmoiron/sqlx"
	"gorm.io/gorm"
)

// CounterAllocator keeps the next id in memory behind a mutex. It is only
// correct when a single process writes to the store. The counter is seeded
// from the store on first use and re-seeded whenever an insert hits a
// duplicate key.
type CounterAllocator struct {
	db     *gorm.DB
	seedDB *sqlx.DB
	logger *slog.Logger

	mu     sync.Mutex
	last   int64
	seeded bool
}

func NewCounterAllocator(db *gorm.DB, seedDB *sqlx.DB, logger *slog.Logger) *CounterAllocator {
	return &CounterAllocator{db: db, seedDB: seedDB, logger: logger}
}

// Seed re-derives the counter from the persisted maximum.
func (a *CounterAllocator) Seed(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.seedLocked(ctx)
}

func (a *CounterAllocator) seedLocked(ctx context.Context) error {
	highest, err := maxID(func(query string, dest *int64) error {
		return a.seedDB.GetContext(ctx, dest, query)
	})
	if err != nil {
		return err
	}
	a.last = highest
	a.seeded = true
	a.logger.Debug("id counter seeded", "last_id", highest)
	return nil
}

func (a *CounterAllocator) Allocate(ctx context.Context, insert InsertFunc) (int64, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if !a.seeded {
		if err := a.seedLocked(ctx); err != nil {
			return 0, fmt.Errorf("seed id counter: %w", err)
		}
	}

	for attempt := 1; attempt <= defaultMaxAttempts; attempt++ {
		id := a.last + 1
		err := a.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			return insert(tx, id)
		})
		if err == nil {
			a.last = id
			return id, nil
		}
		if !retryable(err) {
			return 0, err
		}

		a.logger.Warn("id counter out of date, re-seeding", "attempted_id", id, "error", err)
		if err := a.seedLocked(ctx); err != nil {
			return 0, fmt.Errorf("re-seed id counter: %w", err)
		}
	}
	return 0, fmt.Errorf("%w after %d attempts", ErrExhausted, defaultMaxAttempts)
}
