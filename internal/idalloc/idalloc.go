// Package idalloc hands out request identifiers from the single id space
// shared by the requests and recurring_requests tables.
package idalloc

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// InsertFunc persists a row with the allocated id inside tx.
type InsertFunc func(tx *gorm.DB, id int64) error

type Allocator interface {
	Allocate(ctx context.Context, insert InsertFunc) (int64, error)
}

// Tables drawing from the shared id space.
var Tables = []string{"requests", "recurring_requests"}

const (
	pgSerializationFailure = "40001"
	pgDeadlockDetected     = "40P01"
	pgUniqueViolation      = "23505"
)

var ErrExhausted = errors.New("idalloc: retries exhausted")

// maxID reads max(id) across Tables through q, treating empty tables as 0.
func maxID(q func(query string, dest *int64) error) (int64, error) {
	var highest int64
	for _, table := range Tables {
		var n int64
		if err := q(fmt.Sprintf("SELECT COALESCE(MAX(id), 0) FROM %s", table), &n); err != nil {
			return 0, fmt.Errorf("read max id from %s: %w", table, err)
		}
		if n > highest {
			highest = n
		}
	}
	return highest, nil
}

// retryable reports whether err is a lost race another attempt can win.
func retryable(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgSerializationFailure, pgDeadlockDetected, pgUniqueViolation:
			return true
		}
	}
	return false
}
