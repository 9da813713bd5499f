package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// CreateItemRequest entrada para crear un item. Quantity > 0 queda registrado como
// movimiento de entrada inicial.
type CreateItemRequest struct {
	SKU             string           `json:"sku" validate:"required,min=3,max=20"`
	Barcode         string           `json:"barcode"`
	Name            string           `json:"name" validate:"required,min=1,max=200"`
	Description     string           `json:"description"`
	CategoryID      int64            `json:"category_id" validate:"required"`
	SupplierID      *int64           `json:"supplier_id"`
	LocationID      *int64           `json:"location_id"`
	Unit            string           `json:"unit"`
	Quantity        int64            `json:"quantity" validate:"min=0"`
	MinStock        *int64           `json:"min_stock"`
	MaxStock        *int64           `json:"max_stock"`
	ReorderPoint    *int64           `json:"reorder_point"`
	ReorderQuantity *int64           `json:"reorder_quantity"`
	Price           *decimal.Decimal `json:"price"`
	Cost            *decimal.Decimal `json:"cost"`
}

// UpdateItemRequest actualización parcial. Quantity pasa por el motor de stock como ajuste.
type UpdateItemRequest struct {
	Barcode         *string          `json:"barcode"`
	Name            *string          `json:"name" validate:"omitempty,min=1,max=200"`
	Description     *string          `json:"description"`
	CategoryID      *int64           `json:"category_id"`
	SupplierID      *int64           `json:"supplier_id"`
	LocationID      *int64           `json:"location_id"`
	Unit            *string          `json:"unit"`
	MinStock        *int64           `json:"min_stock"`
	MaxStock        *int64           `json:"max_stock"`
	ReorderPoint    *int64           `json:"reorder_point"`
	ReorderQuantity *int64           `json:"reorder_quantity"`
	Price           *decimal.Decimal `json:"price"`
	Cost            *decimal.Decimal `json:"cost"`
	Quantity        *int64           `json:"quantity"`
	Reason          string           `json:"reason"`
}

// ItemResponse salida de un item con su estado de stock derivado.
type ItemResponse struct {
	ID                int64              `json:"id"`
	SKU               string             `json:"sku"`
	Barcode           string             `json:"barcode,omitempty"`
	Name              string             `json:"name"`
	Description       string             `json:"description,omitempty"`
	CategoryID        int64              `json:"category_id"`
	SupplierID        *int64             `json:"supplier_id,omitempty"`
	LocationID        *int64             `json:"location_id,omitempty"`
	Unit              string             `json:"unit"`
	Quantity          int64              `json:"quantity"`
	ReservedQuantity  int64              `json:"reserved_quantity"`
	AvailableQuantity int64              `json:"available_quantity"`
	MinStock          int64              `json:"min_stock"`
	MaxStock          int64              `json:"max_stock"`
	ReorderPoint      int64              `json:"reorder_point"`
	ReorderQuantity   int64              `json:"reorder_quantity"`
	Price             *decimal.Decimal   `json:"price,omitempty"`
	Cost              *decimal.Decimal   `json:"cost,omitempty"`
	LastCost          *decimal.Decimal   `json:"last_cost,omitempty"`
	AverageCost       *decimal.Decimal   `json:"average_cost,omitempty"`
	TotalValue        decimal.Decimal    `json:"total_value"`
	StockStatus       string             `json:"stock_status"`
	IsActive          bool               `json:"is_active"`
	CreatedAt         time.Time          `json:"created_at"`
	UpdatedAt         time.Time          `json:"updated_at"`
	LastMovement      *time.Time         `json:"last_movement,omitempty"`
	RecentMovements   []MovementResponse `json:"recent_movements,omitempty"`
}

// ItemListResponse lista paginada de items.
type ItemListResponse struct {
	Items []ItemResponse `json:"items"`
	Page  PageResponse   `json:"page"`
}
