package repository

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/inventory-ledger/internal/domain/entity"
	"github.com/jhoicas/inventory-ledger/internal/domain/inventory"
)

// ItemFilter criterios combinables (AND) para listar items.
// Los campos nil o vacíos no filtran.
type ItemFilter struct {
	CategoryID  *int64
	SupplierID  *int64
	LocationID  *int64
	IsActive    *bool
	Status      *inventory.StockStatus
	Search      string // coincidencia parcial, sin distinguir mayúsculas, en name/sku/description/barcode
	MinQuantity *int64
	MaxQuantity *int64
	MinPrice    *decimal.Decimal
	MaxPrice    *decimal.Decimal
}

// ItemRepository define el puerto de persistencia para Item (DIP).
// Todas las lecturas devuelven (nil, nil) cuando el item no existe.
type ItemRepository interface {
	Create(ctx context.Context, item *entity.Item) error
	GetByID(ctx context.Context, id int64) (*entity.Item, error)
	GetBySKU(ctx context.Context, sku string) (*entity.Item, error)
	// GetForUpdate bloquea la fila hasta el fin de la transacción (SELECT FOR UPDATE).
	GetForUpdate(ctx context.Context, id int64) (*entity.Item, error)
	// Update persiste los campos de catálogo; nunca toca cantidades ni costos de stock.
	Update(ctx context.Context, item *entity.Item) error
	// UpdateStock persiste quantity, reserved/available, last_cost, average_cost y last_movement.
	UpdateStock(ctx context.Context, item *entity.Item) error
	Delete(ctx context.Context, id int64) error
	// List ordena por id ascendente.
	List(ctx context.Context, filter ItemFilter, limit, offset int) ([]*entity.Item, error)
	Count(ctx context.Context, filter ItemFilter) (int, error)
}
