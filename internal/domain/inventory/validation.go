package inventory

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/inventory-ledger/internal/domain"
	"github.com/jhoicas/inventory-ledger/internal/domain/entity"
)

// ValidateItem verifica las invariantes estáticas del catálogo.
func ValidateItem(item *entity.Item) error {
	if strings.TrimSpace(item.SKU) == "" || strings.TrimSpace(item.Name) == "" {
		return fmt.Errorf("%w: sku y name son requeridos", domain.ErrInvalidInput)
	}
	if item.CategoryID <= 0 {
		return fmt.Errorf("%w: category_id es requerido", domain.ErrInvalidInput)
	}
	if item.Quantity < 0 || item.ReservedQuantity < 0 {
		return fmt.Errorf("%w: cantidades negativas", domain.ErrInvalidInput)
	}
	if item.ReservedQuantity > item.Quantity {
		return fmt.Errorf("%w: reserved_quantity mayor que quantity", domain.ErrInvalidInput)
	}
	if item.MinStock < 0 || item.MaxStock < 0 || item.ReorderPoint < 0 || item.ReorderQuantity < 0 {
		return fmt.Errorf("%w: umbrales negativos", domain.ErrInvalidInput)
	}
	if item.MaxStock < item.MinStock {
		return fmt.Errorf("%w: max_stock menor que min_stock", domain.ErrInvalidInput)
	}
	for name, v := range map[string]*decimal.Decimal{
		"price": item.Price, "cost": item.Cost, "last_cost": item.LastCost, "average_cost": item.AverageCost,
	} {
		if v != nil && v.IsNegative() {
			return fmt.Errorf("%w: %s negativo", domain.ErrInvalidInput, name)
		}
	}
	return nil
}
