package inventory

import (
	"context"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/inventory-ledger/internal/application/dto"
	"github.com/jhoicas/inventory-ledger/internal/domain/entity"
	"github.com/jhoicas/inventory-ledger/internal/domain/inventory"
	"github.com/jhoicas/inventory-ledger/internal/domain/repository"
)

const scanBatch = 500

// QueryService lecturas sobre el catálogo de items; nunca modifica stock.
type QueryService struct {
	itemRepo     repository.ItemRepository
	categoryRepo repository.CategoryRepository
	now          func() time.Time
}

// NewQueryService construye la fachada de consultas.
func NewQueryService(itemRepo repository.ItemRepository, categoryRepo repository.CategoryRepository) *QueryService {
	return &QueryService{itemRepo: itemRepo, categoryRepo: categoryRepo, now: time.Now}
}

// List página de items (orden por id) y total calculado con el mismo filtro.
func (s *QueryService) List(ctx context.Context, filter repository.ItemFilter, page dto.PageRequest) (*dto.ItemListResponse, error) {
	page.DefaultPage()
	total, err := s.itemRepo.Count(ctx, filter)
	if err != nil {
		return nil, err
	}
	items, err := s.itemRepo.List(ctx, filter, page.PageSize, page.Offset())
	if err != nil {
		return nil, err
	}
	out := make([]dto.ItemResponse, 0, len(items))
	for _, it := range items {
		out = append(out, ToItemResponse(it))
	}
	return &dto.ItemListResponse{Items: out, Page: dto.NewPageResponse(page, total)}, nil
}

// StockStatus etiqueta derivada del item.
func (s *QueryService) StockStatus(item *entity.Item) inventory.StockStatus {
	return inventory.StatusOf(item)
}

// Summary totales del inventario y desglose por categoría.
func (s *QueryService) Summary(ctx context.Context) (*dto.InventorySummaryResponse, error) {
	cats, err := s.categoryRepo.List(ctx)
	if err != nil {
		return nil, err
	}
	names := make(map[int64]string, len(cats))
	for _, c := range cats {
		names[c.ID] = c.Name
	}

	res := &dto.InventorySummaryResponse{TotalValue: decimal.Zero, GeneratedAt: s.now()}
	byCat := make(map[int64]*dto.CategoryStockSummary)
	err = s.scan(ctx, repository.ItemFilter{}, func(it *entity.Item) {
		res.TotalItems++
		if it.IsActive {
			res.ActiveItems++
		}
		res.TotalQuantity += it.Quantity
		value := it.TotalValue()
		res.TotalValue = res.TotalValue.Add(value)
		switch inventory.StatusOf(it) {
		case inventory.StatusOutOfStock:
			res.OutOfStockItems++
		case inventory.StatusLowStock:
			res.LowStockItems++
		case inventory.StatusOverstock:
			res.OverstockItems++
		}
		cs, ok := byCat[it.CategoryID]
		if !ok {
			cs = &dto.CategoryStockSummary{CategoryID: it.CategoryID, Name: names[it.CategoryID], TotalValue: decimal.Zero}
			byCat[it.CategoryID] = cs
		}
		cs.ItemCount++
		cs.TotalQuantity += it.Quantity
		cs.TotalValue = cs.TotalValue.Add(value)
	})
	if err != nil {
		return nil, err
	}
	res.Categories = make([]dto.CategoryStockSummary, 0, len(byCat))
	for _, cs := range byCat {
		res.Categories = append(res.Categories, *cs)
	}
	sort.Slice(res.Categories, func(i, j int) bool { return res.Categories[i].CategoryID < res.Categories[j].CategoryID })
	return res, nil
}

// LowStock items activos en o bajo su punto de reorden (incluye agotados), más urgentes primero.
func (s *QueryService) LowStock(ctx context.Context) ([]dto.LowStockItemResponse, error) {
	out := make([]dto.LowStockItemResponse, 0)
	active := true
	err := s.scan(ctx, repository.ItemFilter{IsActive: &active}, func(it *entity.Item) {
		if it.Quantity > it.ReorderPoint {
			return
		}
		out = append(out, dto.LowStockItemResponse{
			ItemID:          it.ID,
			SKU:             it.SKU,
			Name:            it.Name,
			Quantity:        it.Quantity,
			ReorderPoint:    it.ReorderPoint,
			ReorderQuantity: it.ReorderQuantity,
			Shortage:        it.ReorderPoint - it.Quantity,
			Urgency:         inventory.LowStockUrgency(it.Quantity, it.ReorderPoint),
		})
	})
	if err != nil {
		return nil, err
	}
	sort.SliceStable(out, func(i, j int) bool {
		if ri, rj := urgencyRank(out[i].Urgency), urgencyRank(out[j].Urgency); ri != rj {
			return ri < rj
		}
		return out[i].Quantity < out[j].Quantity
	})
	return out, nil
}

// Overstock items activos por encima de max_stock, mayor excedente primero.
func (s *QueryService) Overstock(ctx context.Context) ([]dto.OverstockItemResponse, error) {
	out := make([]dto.OverstockItemResponse, 0)
	active := true
	status := inventory.StatusOverstock
	err := s.scan(ctx, repository.ItemFilter{IsActive: &active, Status: &status}, func(it *entity.Item) {
		excess := it.Quantity - it.MaxStock
		value := decimal.Zero
		if c := costOf(it); c != nil {
			value = c.Mul(decimal.NewFromInt(excess))
		}
		out = append(out, dto.OverstockItemResponse{
			ItemID:      it.ID,
			SKU:         it.SKU,
			Name:        it.Name,
			Quantity:    it.Quantity,
			MaxStock:    it.MaxStock,
			Excess:      excess,
			ExcessValue: value,
		})
	})
	if err != nil {
		return nil, err
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Excess > out[j].Excess })
	return out, nil
}

// StockCount planilla de conteo físico; locationID nil incluye todas las ubicaciones.
func (s *QueryService) StockCount(ctx context.Context, locationID *int64) (*dto.StockCountResponse, error) {
	active := true
	res := &dto.StockCountResponse{LocationID: locationID, GeneratedAt: s.now(), Lines: make([]dto.StockCountLine, 0)}
	err := s.scan(ctx, repository.ItemFilter{IsActive: &active, LocationID: locationID}, func(it *entity.Item) {
		res.Lines = append(res.Lines, dto.StockCountLine{
			ItemID:           it.ID,
			SKU:              it.SKU,
			Barcode:          it.Barcode,
			Name:             it.Name,
			Unit:             it.Unit,
			ExpectedQuantity: it.Quantity,
		})
	})
	if err != nil {
		return nil, err
	}
	sort.SliceStable(res.Lines, func(i, j int) bool { return res.Lines[i].SKU < res.Lines[j].SKU })
	return res, nil
}

// scan recorre todos los items del filtro por lotes.
func (s *QueryService) scan(ctx context.Context, filter repository.ItemFilter, fn func(*entity.Item)) error {
	for offset := 0; ; offset += scanBatch {
		batch, err := s.itemRepo.List(ctx, filter, scanBatch, offset)
		if err != nil {
			return err
		}
		for _, it := range batch {
			fn(it)
		}
		if len(batch) < scanBatch {
			return nil
		}
	}
}

func urgencyRank(u string) int {
	switch u {
	case "critical":
		return 0
	case "high":
		return 1
	default:
		return 2
	}
}

// costOf costo de referencia: promedio, si no el último, si no el de catálogo.
func costOf(it *entity.Item) *decimal.Decimal {
	switch {
	case it.AverageCost != nil:
		return it.AverageCost
	case it.LastCost != nil:
		return it.LastCost
	default:
		return it.Cost
	}
}
