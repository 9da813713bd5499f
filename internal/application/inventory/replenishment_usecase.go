package inventory

import (
	"context"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/inventory-ledger/internal/application/dto"
	"github.com/jhoicas/inventory-ledger/internal/domain/entity"
	"github.com/jhoicas/inventory-ledger/internal/domain/inventory"
	"github.com/jhoicas/inventory-ledger/internal/domain/repository"
)

// ReplenishmentUseCase genera la lista de reposición a partir de los items bajo punto de reorden.
type ReplenishmentUseCase struct {
	itemRepo repository.ItemRepository
}

// NewReplenishmentUseCase construye el caso de uso de reposición.
func NewReplenishmentUseCase(itemRepo repository.ItemRepository) *ReplenishmentUseCase {
	return &ReplenishmentUseCase{itemRepo: itemRepo}
}

// GenerateReplenishmentList devuelve los items activos en o bajo su punto de reorden con la
// cantidad sugerida de pedido y un ranking de prioridad. locationID nil considera todas.
func (uc *ReplenishmentUseCase) GenerateReplenishmentList(ctx context.Context, locationID *int64) ([]dto.ReplenishmentSuggestionDTO, error) {
	active := true
	qs := &QueryService{itemRepo: uc.itemRepo}
	var low []*entity.Item
	err := qs.scan(ctx, repository.ItemFilter{IsActive: &active, LocationID: locationID}, func(it *entity.Item) {
		if it.Quantity <= it.ReorderPoint {
			low = append(low, it)
		}
	})
	if err != nil {
		return nil, err
	}

	hundred := decimal.NewFromInt(100)
	suggestions := make([]dto.ReplenishmentSuggestionDTO, 0, len(low))
	for _, it := range low {
		ideal := it.ReorderPoint + it.ReorderQuantity
		if alt := decimal.NewFromInt(it.ReorderPoint).Mul(decimal.NewFromFloat(1.5)).Ceil().IntPart(); alt > ideal {
			ideal = alt
		}
		if it.MaxStock > 0 && ideal > it.MaxStock {
			ideal = it.MaxStock
		}
		suggested := ideal - it.Quantity
		if suggested < 0 {
			suggested = 0
		}

		unitCost := decimal.Zero
		if c := costOf(it); c != nil {
			unitCost = *c
		}
		// Margen estimado por precio y costo
		margin := decimal.Zero
		if it.Price != nil && it.Price.GreaterThan(decimal.Zero) {
			margin = it.Price.Sub(unitCost).Div(*it.Price).Mul(hundred).Round(2)
		}

		suggestions = append(suggestions, dto.ReplenishmentSuggestionDTO{
			ItemID:             it.ID,
			SKU:                it.SKU,
			Name:               it.Name,
			CurrentStock:       it.Quantity,
			ReorderPoint:       it.ReorderPoint,
			IdealStock:         ideal,
			SuggestedOrderQty:  suggested,
			UnitCost:           unitCost,
			EstimatedOrderCost: unitCost.Mul(decimal.NewFromInt(suggested)),
			GrossMarginPct:     margin,
			Urgency:            inventory.LowStockUrgency(it.Quantity, it.ReorderPoint),
		})
	}

	// Orden: urgencia, luego mayor margen, finalmente mayor déficit bajo el reorden.
	sort.SliceStable(suggestions, func(i, j int) bool {
		a, b := suggestions[i], suggestions[j]
		if ra, rb := urgencyRank(a.Urgency), urgencyRank(b.Urgency); ra != rb {
			return ra < rb
		}
		if !a.GrossMarginPct.Equal(b.GrossMarginPct) {
			return a.GrossMarginPct.GreaterThan(b.GrossMarginPct)
		}
		return a.ReorderPoint-a.CurrentStock > b.ReorderPoint-b.CurrentStock
	})

	for i := range suggestions {
		suggestions[i].Priority = i + 1
	}
	return suggestions, nil
}
