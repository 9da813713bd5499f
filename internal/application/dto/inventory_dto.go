package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// AdjustRequest body para POST /api/items/:id/adjust.
type AdjustRequest struct {
	Delta  int64  `json:"delta"`
	Reason string `json:"reason"`
}

// ReceiveRequest body para POST /api/items/:id/receive.
type ReceiveRequest struct {
	Quantity  int64            `json:"quantity"`
	Reference string           `json:"reference"`
	Notes     string           `json:"notes"`
	UnitCost  *decimal.Decimal `json:"unit_cost,omitempty"`
}

// IssueRequest body para POST /api/items/:id/issue.
type IssueRequest struct {
	Quantity  int64  `json:"quantity"`
	Reference string `json:"reference"`
	Notes     string `json:"notes"`
}

// TransferRequest body para POST /api/inventory/transfer.
type TransferRequest struct {
	FromItemID int64  `json:"from_item_id"`
	ToItemID   int64  `json:"to_item_id"`
	Quantity   int64  `json:"quantity"`
	Notes      string `json:"notes"`
}

// MutationResponse resultado de una mutación de stock.
type MutationResponse struct {
	ItemID        int64     `json:"item_id"`
	OldQuantity   int64     `json:"old_quantity"`
	NewQuantity   int64     `json:"new_quantity"`
	Delta         int64     `json:"delta"`
	MovementID    int64     `json:"movement_id,omitempty"`
	MovementType  string    `json:"movement_type"`
	TransactionID string    `json:"transaction_id,omitempty"`
	StockStatus   string    `json:"stock_status"`
	Timestamp     time.Time `json:"timestamp"`
}

// TransferResponse resultado de un traslado.
type TransferResponse struct {
	FromItemID     int64     `json:"from_item_id"`
	ToItemID       int64     `json:"to_item_id"`
	Quantity       int64     `json:"quantity"`
	FromMovementID int64     `json:"from_movement_id"`
	ToMovementID   int64     `json:"to_movement_id"`
	TransactionID  string    `json:"transaction_id"`
	Timestamp      time.Time `json:"timestamp"`
}

// MovementResponse entrada del libro de movimientos.
type MovementResponse struct {
	ID              int64            `json:"id"`
	TransactionID   string           `json:"transaction_id,omitempty"`
	ItemID          int64            `json:"item_id"`
	UserID          int64            `json:"user_id"`
	LocationID      *int64           `json:"location_id,omitempty"`
	MovementType    string           `json:"movement_type"`
	Quantity        int64            `json:"quantity"`
	QuantityBefore  int64            `json:"quantity_before"`
	QuantityAfter   int64            `json:"quantity_after"`
	UnitCost        *decimal.Decimal `json:"unit_cost,omitempty"`
	TotalCost       *decimal.Decimal `json:"total_cost,omitempty"`
	ReferenceNumber string           `json:"reference_number,omitempty"`
	Reason          string           `json:"reason,omitempty"`
	Notes           string           `json:"notes,omitempty"`
	CreatedAt       time.Time        `json:"created_at"`
}

// MovementListResponse historial de movimientos, más reciente primero.
type MovementListResponse struct {
	Items []MovementResponse `json:"items"`
	Count int                `json:"count"`
}

// CategoryStockSummary agregado por categoría.
type CategoryStockSummary struct {
	CategoryID    int64           `json:"category_id"`
	Name          string          `json:"name"`
	ItemCount     int             `json:"item_count"`
	TotalQuantity int64           `json:"total_quantity"`
	TotalValue    decimal.Decimal `json:"total_value"`
}

// InventorySummaryResponse resumen general del inventario.
type InventorySummaryResponse struct {
	TotalItems      int                    `json:"total_items"`
	ActiveItems     int                    `json:"active_items"`
	TotalQuantity   int64                  `json:"total_quantity"`
	TotalValue      decimal.Decimal        `json:"total_value"`
	LowStockItems   int                    `json:"low_stock_items"`
	OutOfStockItems int                    `json:"out_of_stock_items"`
	OverstockItems  int                    `json:"overstock_items"`
	Categories      []CategoryStockSummary `json:"categories"`
	GeneratedAt     time.Time              `json:"generated_at"`
}

// LowStockItemResponse item en o bajo su punto de reorden.
type LowStockItemResponse struct {
	ItemID          int64  `json:"item_id"`
	SKU             string `json:"sku"`
	Name            string `json:"name"`
	Quantity        int64  `json:"quantity"`
	ReorderPoint    int64  `json:"reorder_point"`
	ReorderQuantity int64  `json:"reorder_quantity"`
	Shortage        int64  `json:"shortage"`
	Urgency         string `json:"urgency"` // critical | high | medium
}

// OverstockItemResponse item por encima de max_stock.
type OverstockItemResponse struct {
	ItemID      int64           `json:"item_id"`
	SKU         string          `json:"sku"`
	Name        string          `json:"name"`
	Quantity    int64           `json:"quantity"`
	MaxStock    int64           `json:"max_stock"`
	Excess      int64           `json:"excess"`
	ExcessValue decimal.Decimal `json:"excess_value"` // capital inmovilizado: Excess * cost
}

// StockCountLine renglón de la planilla de conteo físico.
type StockCountLine struct {
	ItemID           int64  `json:"item_id"`
	SKU              string `json:"sku"`
	Barcode          string `json:"barcode,omitempty"`
	Name             string `json:"name"`
	Unit             string `json:"unit"`
	ExpectedQuantity int64  `json:"expected_quantity"`
}

// StockCountResponse planilla de conteo para una ubicación (o todas).
type StockCountResponse struct {
	LocationID  *int64           `json:"location_id,omitempty"`
	GeneratedAt time.Time        `json:"generated_at"`
	Lines       []StockCountLine `json:"lines"`
}

// ReplenishmentSuggestionDTO sugerencia de reposición para un SKU
// que se encuentra en o por debajo de su punto de reorden.
type ReplenishmentSuggestionDTO struct {
	ItemID             int64           `json:"item_id"`
	SKU                string          `json:"sku"`
	Name               string          `json:"name"`
	CurrentStock       int64           `json:"current_stock"`
	ReorderPoint       int64           `json:"reorder_point"`
	IdealStock         int64           `json:"ideal_stock"`          // max(ReorderPoint + ReorderQuantity, ReorderPoint*1.5)
	SuggestedOrderQty  int64           `json:"suggested_order_qty"`  // IdealStock - CurrentStock, tope max_stock
	UnitCost           decimal.Decimal `json:"unit_cost"`            // costo promedio ponderado
	EstimatedOrderCost decimal.Decimal `json:"estimated_order_cost"` // SuggestedOrderQty * UnitCost
	GrossMarginPct     decimal.Decimal `json:"gross_margin_pct"`
	Urgency            string          `json:"urgency"`
	Priority           int             `json:"priority"` // 1 = más urgente
}
