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
	"github.com/frahmantamala/smartwork/internal/request"
)

type Repository struct {
	db  *gorm.DB
	ids idalloc.Allocator
}

func NewRepository(db *gorm.DB, ids idalloc.Allocator) *Repository {
	return &Repository{db: db, ids: ids}
}

func (r *Repository) Create(ctx context.Context, req *request.Request) error {
	row := request.ToDataModel(req)
	id, err := r.ids.Allocate(ctx, func(tx *gorm.DB, id int64) error {
		row.ID = id
		return tx.Create(row).Error
	})
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.ID = id
	return nil
}

func (r *Repository) GetByID(ctx context.Context, id int64) (*request.Request, error) {
	var row requestDatamodel.Request
	if err := r.db.WithContext(ctx).Where("id = ?", id).Take(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, internal.ErrRequestNotFound
		}
		return nil, fmt.Errorf("get request: %w", err)
	}
	return request.FromDataModel(&row), nil
}

func (r *Repository) ListAll(ctx context.Context) ([]*request.Request, error) {
	return r.list(r.db.WithContext(ctx))
}

func (r *Repository) ListByEmployee(ctx context.Context, username string) ([]*request.Request, error) {
	return r.list(r.db.WithContext(ctx).Where("employee_username = ?", username))
}

func (r *Repository) list(q *gorm.DB) ([]*request.Request, error) {
	var rows []requestDatamodel.Request
	if err := q.Order("date ASC").Order("id ASC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list requests: %w", err)
	}

	out := make([]*request.Request, 0, len(rows))
	for i := range rows {
		out = append(out, request.FromDataModel(&rows[i]))
	}
	return out, nil
}

// Decide only touches rows that are still pending, so two concurrent
// decisions on one request cannot both win.
func (r *Repository) Decide(ctx context.Context, id int64, status, decidedBy string, at time.Time) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&requestDatamodel.Request{}).
		Where("id = ? AND status = ?", id, request.StatusPending).
		Updates(map[string]interface{}{
			"status":      status,
			"decision_by": decidedBy,
			"decision_at": at,
		})
	if result.Error != nil {
		return false, fmt.Errorf("decide request: %w", result.Error)
	}
	return result.RowsAffected > 0, nil
}

func (r *Repository) Delete(ctx context.Context, id int64) error {
	result := r.db.WithContext(ctx).Where("id = ?", id).Delete(&requestDatamodel.Request{})
	if result.Error != nil {
		return fmt.Errorf("delete request: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return internal.ErrRequestNotFound
	}
	return nil
}
