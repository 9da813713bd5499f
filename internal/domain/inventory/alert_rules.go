package inventory

import (
	"fmt"
	"time"

	"github.com/jhoicas/inventory-ledger/internal/domain/entity"
)

// DeriveAlert evalúa el item después de una mutación y devuelve como máximo una alerta.
// Es función pura de (Quantity, ReorderPoint, MaxStock): misma entrada, misma alerta.
func DeriveAlert(item *entity.Item, now time.Time) *entity.Alert {
	var (
		typ      entity.AlertType
		severity entity.AlertSeverity
		title    string
		message  string
	)
	switch Status(item.Quantity, item.ReorderPoint, item.MaxStock) {
	case StatusOutOfStock:
		typ, severity = entity.AlertOutOfStock, entity.SeverityCritical
		title = "Artículo agotado"
		message = fmt.Sprintf("Item %s (%s) is out of stock", item.Name, item.SKU)
	case StatusLowStock:
		typ, severity = entity.AlertLowStock, entity.SeverityHigh
		title = "Stock bajo"
		message = fmt.Sprintf("Item %s (%s) is below reorder point: %d <= %d", item.Name, item.SKU, item.Quantity, item.ReorderPoint)
	case StatusOverstock:
		typ, severity = entity.AlertOverstock, entity.SeverityMedium
		title = "Sobre-stock"
		message = fmt.Sprintf("Item %s (%s) exceeds maximum stock level: %d > %d", item.Name, item.SKU, item.Quantity, item.MaxStock)
	default:
		return nil
	}
	itemID := item.ID
	return &entity.Alert{
		Type:      typ,
		Severity:  severity,
		Title:     title,
		Message:   message,
		ItemID:    &itemID,
		CreatedAt: now,
	}
}
