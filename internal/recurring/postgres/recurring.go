package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/frahmantamala/smartwork/internal"
	requestDatamodel "github.com/frahmantamala/smartwork/internal/core/datamodel/request"
	"github.com/frahmantamala/smartwork/internal/idalloc"
	"github.com/frahmantamala/smartwork/internal/recurring"
)

type Repository struct {
	db  *gorm.DB
	ids idalloc.Allocator
}

func NewRepository(db *gorm.DB, ids idalloc.Allocator) *Repository {
	return &Repository{db: db, ids: ids}
}

func (r *Repository) Create(ctx context.Context, rr *recurring.RecurringRequest) error {
	row := recurring.ToDataModel(rr)
	id, err := r.ids.Allocate(ctx, func(tx *gorm.DB, id int64) error {
		row.ID = id
		return tx.Create(row).Error
	})
	if err != nil {
		return fmt.Errorf("create recurring request: %w", err)
	}
	rr.ID = id
	return nil
}

func (r *Repository) GetByID(ctx context.Context, id int64) (*recurring.RecurringRequest, error) {
	var row requestDatamodel.RecurringRequest
	if err := r.db.WithContext(ctx).Where("id = ?", id).Take(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, internal.ErrRequestNotFound
		}
		return nil, fmt.Errorf("get recurring request: %w", err)
	}
	return recurring.FromDataModel(&row), nil
}

func (r *Repository) ListAll(ctx context.Context) ([]*recurring.RecurringRequest, error) {
	return r.list(r.db.WithContext(ctx))
}

func (r *Repository) ListByEmployee(ctx context.Context, username string) ([]*recurring.RecurringRequest, error) {
	return r.list(r.db.WithContext(ctx).Where("employee_username = ?", username))
}

func (r *Repository) list(q *gorm.DB) ([]*recurring.RecurringRequest, error) {
	var rows []requestDatamodel.RecurringRequest
	if err := q.Order("day_of_week ASC").Order("id ASC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list recurring requests: %w", err)
	}

	out := make([]*recurring.RecurringRequest, 0, len(rows))
	for i := range rows {
		out = append(out, recurring.FromDataModel(&rows[i]))
	}
	return out, nil
}

func (r *Repository) Decide(ctx context.Context, id int64, status, decidedBy string, at time.Time) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&requestDatamodel.RecurringRequest{}).
		Where("id = ? AND status = ?", id, recurring.StatusPending).
		Updates(map[string]interface{}{
			"status":      status,
			"decision_by": decidedBy,
			"decision_at": at,
		})
	if result.Error != nil {
		return false, fmt.Errorf("decide recurring request: %w", result.Error)
	}
	return result.RowsAffected > 0, nil
}

func (r *Repository) Delete(ctx context.Context, id int64) error {
	result := r.db.WithContext(ctx).Where("id = ?", id).Delete(&requestDatamodel.RecurringRequest{})
	if result.Error != nil {
		return fmt.Errorf("delete recurring request: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return internal.ErrRequestNotFound
	}
	return nil
}
