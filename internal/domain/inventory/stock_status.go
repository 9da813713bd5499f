package inventory

import (
	"fmt"

	"github.com/jhoicas/inventory-ledger/internal/domain/entity"
)

// StockStatus etiqueta derivada del nivel de stock.
type StockStatus string

const (
	StatusNormal     StockStatus = "normal"
	StatusLowStock   StockStatus = "low_stock"
	StatusOutOfStock StockStatus = "out_of_stock"
	StatusOverstock  StockStatus = "overstock"
)

// ParseStockStatus valida una etiqueta recibida como filtro.
func ParseStockStatus(s string) (StockStatus, error) {
	switch st := StockStatus(s); st {
	case StatusNormal, StatusLowStock, StatusOutOfStock, StatusOverstock:
		return st, nil
	}
	return "", fmt.Errorf("estado de stock desconocido %q", s)
}

// Status deriva exactamente una etiqueta. Las ramas son excluyentes y van en este orden:
// agotado, bajo punto de reorden, sobre el máximo, normal.
func Status(quantity, reorderPoint, maxStock int64) StockStatus {
	switch {
	case quantity == 0:
		return StatusOutOfStock
	case quantity <= reorderPoint:
		return StatusLowStock
	case quantity > maxStock:
		return StatusOverstock
	default:
		return StatusNormal
	}
}

// StatusOf aplica Status sobre un item.
func StatusOf(item *entity.Item) StockStatus {
	return Status(item.Quantity, item.ReorderPoint, item.MaxStock)
}

// LowStockUrgency clasifica la urgencia de reposición de un item bajo punto de reorden.
func LowStockUrgency(quantity, reorderPoint int64) string {
	switch {
	case quantity == 0:
		return "critical"
	case float64(quantity) < float64(reorderPoint)*0.5:
		return "high"
	default:
		return "medium"
	}
}
