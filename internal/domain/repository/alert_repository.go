package repository

import (
	"context"
	"time"

	"github.com/jhoicas/inventory-ledger/internal/domain/entity"
)

// AlertFilter criterios para listar alertas.
type AlertFilter struct {
	ItemID     *int64
	UnreadOnly bool
}

// AlertRepository define el puerto de persistencia para Alert.
type AlertRepository interface {
	Create(ctx context.Context, alert *entity.Alert) error
	GetByID(ctx context.Context, id int64) (*entity.Alert, error)
	// List ordena por created_at descendente.
	List(ctx context.Context, filter AlertFilter, limit, offset int) ([]*entity.Alert, error)
	Count(ctx context.Context, filter AlertFilter) (int, error)
	MarkRead(ctx context.Context, id int64, at time.Time) error
	Delete(ctx context.Context, id int64) error
	DeleteByItem(ctx context.Context, itemID int64) error
}
