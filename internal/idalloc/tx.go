package idalloc

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"gorm.io/gorm"
)

const (
	defaultMaxAttempts = 5
	baseBackoff        = 10 * time.Millisecond
)

// TxAllocator reads the current maximum and inserts inside one serializable
// transaction. Safe when several processes share the database.
type TxAllocator struct {
	db          *gorm.DB
	logger      *slog.Logger
	maxAttempts int
}

func NewTxAllocator(db *gorm.DB, logger *slog.Logger) *TxAllocator {
	return &TxAllocator{db: db, logger: logger, maxAttempts: defaultMaxAttempts}
}

func (a *TxAllocator) WithMaxAttempts(n int) *TxAllocator {
	if n > 0 {
		a.maxAttempts = n
	}
	return a
}

func (a *TxAllocator) Allocate(ctx context.Context, insert InsertFunc) (int64, error) {
	var lastErr error
	for attempt := 1; attempt <= a.maxAttempts; attempt++ {
		id, err := a.attempt(ctx, insert)
		if err == nil {
			return id, nil
		}
		if !retryable(err) {
			return 0, err
		}

		lastErr = err
		a.logger.Warn("id allocation conflict, retrying",
			"attempt", attempt,
			"max_attempts", a.maxAttempts,
			"error", err)

		select {
		case <-ctx.Done():
			return 0, ctx.Err()
		case <-time.After(baseBackoff * time.Duration(attempt)):
		}
	}
	return 0, fmt.Errorf("%w after %d attempts: %v", ErrExhausted, a.maxAttempts, lastErr)
}

func (a *TxAllocator) attempt(ctx context.Context, insert InsertFunc) (int64, error) {
	var id int64
	err := a.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		highest, err := maxID(func(query string, dest *int64) error {
			return tx.Raw(query).Scan(dest).Error
		})
		if err != nil {
			return err
		}

		id = highest + 1
		return insert(tx, id)
	}, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return 0, err
	}
	return id, nil
}
