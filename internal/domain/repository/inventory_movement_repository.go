package repository

import (
	"context"
	"time"

	"github.com/jhoicas/inventory-ledger/internal/domain/entity"
)

// MovementFilter criterios del libro de movimientos. BeforeID y UpToID acotan por id
// (0 = sin cota) y permiten recorrer el libro por keyset sin OFFSET.
type MovementFilter struct {
	ItemID   *int64
	Type     *entity.MovementType
	From     *time.Time
	To       *time.Time
	BeforeID int64 // exclusivo
	UpToID   int64 // inclusivo
}

// InventoryMovementRepository define el puerto de persistencia para movimientos de inventario.
// El libro es de solo inserción; DeleteByItem solo se usa al eliminar el item.
type InventoryMovementRepository interface {
	Create(ctx context.Context, movement *entity.InventoryMovement) error
	GetByID(ctx context.Context, id int64) (*entity.InventoryMovement, error)
	// List ordena por id descendente (más reciente primero).
	List(ctx context.Context, filter MovementFilter, limit int) ([]*entity.InventoryMovement, error)
	LatestID(ctx context.Context) (int64, error)
	DeleteByItem(ctx context.Context, itemID int64) error
}
