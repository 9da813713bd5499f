package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"golang.org/x/text/cases"

	"github.com/jhoicas/inventory-ledger/internal/domain"
	"github.com/jhoicas/inventory-ledger/internal/domain/entity"
	"github.com/jhoicas/inventory-ledger/internal/domain/inventory"
	"github.com/jhoicas/inventory-ledger/internal/domain/repository"
)

var (
	_ repository.ItemRepository = (*itemTx)(nil)
	_ repository.ItemRepository = (*itemRepo)(nil)
)

// itemTx repositorio de items atado a una transacción.
type itemTx struct{ t *tx }

func (r *itemTx) Create(_ context.Context, item *entity.Item) error {
	if id, ok := r.skuOwner(item.SKU); ok && id != item.ID {
		return fmt.Errorf("sku %s: %w", item.SKU, domain.ErrDuplicate)
	}
	item.ID = r.t.s.itemSeq.Add(1)
	item.RecomputeAvailable()
	r.t.created[item.ID] = true
	r.t.stage(item)
	return nil
}

func (r *itemTx) skuOwner(sku string) (int64, bool) {
	for id, it := range r.t.staged {
		if it.SKU == sku && !r.t.deleted[id] {
			return id, true
		}
	}
	r.t.s.mu.RLock()
	defer r.t.s.mu.RUnlock()
	id, ok := r.t.s.skus[sku]
	if ok && r.t.deleted[id] {
		return 0, false
	}
	return id, ok
}

func (r *itemTx) GetByID(_ context.Context, id int64) (*entity.Item, error) {
	return r.t.item(id).Clone(), nil
}

func (r *itemTx) GetBySKU(_ context.Context, sku string) (*entity.Item, error) {
	id, ok := r.skuOwner(sku)
	if !ok {
		return nil, nil
	}
	return r.t.item(id).Clone(), nil
}

func (r *itemTx) GetForUpdate(ctx context.Context, id int64) (*entity.Item, error) {
	if err := r.t.lockRow(ctx, id); err != nil {
		return nil, err
	}
	return r.t.item(id).Clone(), nil
}

func (r *itemTx) Update(ctx context.Context, item *entity.Item) error {
	if err := r.t.lockRow(ctx, item.ID); err != nil {
		return err
	}
	cur := r.t.item(item.ID)
	if cur == nil {
		return domain.ErrNotFound
	}
	next := cur.Clone()
	next.Barcode = item.Barcode
	next.Name = item.Name
	next.Description = item.Description
	next.CategoryID = item.CategoryID
	next.SupplierID = item.SupplierID
	next.LocationID = item.LocationID
	next.Unit = item.Unit
	next.MinStock = item.MinStock
	next.MaxStock = item.MaxStock
	next.ReorderPoint = item.ReorderPoint
	next.ReorderQuantity = item.ReorderQuantity
	next.Price = item.Price
	next.Cost = item.Cost
	next.IsActive = item.IsActive
	next.UpdatedAt = item.UpdatedAt
	r.t.stage(next)
	return nil
}

func (r *itemTx) UpdateStock(ctx context.Context, item *entity.Item) error {
	if err := r.t.lockRow(ctx, item.ID); err != nil {
		return err
	}
	cur := r.t.item(item.ID)
	if cur == nil {
		return domain.ErrNotFound
	}
	next := cur.Clone()
	next.Quantity = item.Quantity
	next.ReservedQuantity = item.ReservedQuantity
	next.RecomputeAvailable()
	next.LastCost = item.LastCost
	next.AverageCost = item.AverageCost
	next.LastMovement = item.LastMovement
	next.UpdatedAt = item.UpdatedAt
	r.t.stage(next)
	return nil
}

func (r *itemTx) Delete(ctx context.Context, id int64) error {
	if err := r.t.lockRow(ctx, id); err != nil {
		return err
	}
	cur := r.t.item(id)
	if cur == nil {
		return domain.ErrNotFound
	}
	sku := cur.SKU
	r.t.deleted[id] = true
	delete(r.t.staged, id)
	delete(r.t.created, id)
	r.t.ops = append(r.t.ops, func(s *Store) {
		delete(s.items, id)
		if s.skus[sku] == id {
			delete(s.skus, sku)
		}
	})
	return nil
}

func (r *itemTx) List(_ context.Context, filter repository.ItemFilter, limit, offset int) ([]*entity.Item, error) {
	matched := r.matching(filter)
	if offset < 0 || offset >= len(matched) {
		return []*entity.Item{}, nil
	}
	matched = matched[offset:]
	if limit > 0 && limit < len(matched) {
		matched = matched[:limit]
	}
	out := make([]*entity.Item, len(matched))
	for i, it := range matched {
		out[i] = it.Clone()
	}
	return out, nil
}

func (r *itemTx) Count(_ context.Context, filter repository.ItemFilter) (int, error) {
	return len(r.matching(filter)), nil
}

// matching items visibles que cumplen el filtro, por id ascendente.
func (r *itemTx) matching(f repository.ItemFilter) []*entity.Item {
	r.t.s.mu.RLock()
	visible := make(map[int64]*entity.Item, len(r.t.s.items)+len(r.t.staged))
	for id, it := range r.t.s.items {
		visible[id] = it
	}
	r.t.s.mu.RUnlock()
	for id, it := range r.t.staged {
		visible[id] = it
	}

	fold := cases.Fold()
	needle := fold.String(strings.TrimSpace(f.Search))
	out := make([]*entity.Item, 0, len(visible))
	for id, it := range visible {
		if r.t.deleted[id] || !matchItem(it, f) {
			continue
		}
		if needle != "" && !containsFolded(fold, needle, it.Name, it.SKU, it.Description, it.Barcode) {
			continue
		}
		out = append(out, it)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func matchItem(it *entity.Item, f repository.ItemFilter) bool {
	if f.CategoryID != nil && it.CategoryID != *f.CategoryID {
		return false
	}
	if f.SupplierID != nil && (it.SupplierID == nil || *it.SupplierID != *f.SupplierID) {
		return false
	}
	if f.LocationID != nil && (it.LocationID == nil || *it.LocationID != *f.LocationID) {
		return false
	}
	if f.IsActive != nil && it.IsActive != *f.IsActive {
		return false
	}
	if f.Status != nil && inventory.StatusOf(it) != *f.Status {
		return false
	}
	if f.MinQuantity != nil && it.Quantity < *f.MinQuantity {
		return false
	}
	if f.MaxQuantity != nil && it.Quantity > *f.MaxQuantity {
		return false
	}
	if f.MinPrice != nil && (it.Price == nil || it.Price.LessThan(*f.MinPrice)) {
		return false
	}
	if f.MaxPrice != nil && (it.Price == nil || it.Price.GreaterThan(*f.MaxPrice)) {
		return false
	}
	return true
}

func containsFolded(fold cases.Caser, needle string, fields ...string) bool {
	for _, f := range fields {
		if strings.Contains(fold.String(f), needle) {
			return true
		}
	}
	return false
}

// itemRepo versión autocommit: cada llamada es su propia unidad de trabajo.
type itemRepo struct{ s *Store }

func (r *itemRepo) Create(ctx context.Context, item *entity.Item) error {
	return r.s.atomically(ctx, func(t *tx) error { return (&itemTx{t}).Create(ctx, item) })
}

func (r *itemRepo) GetByID(ctx context.Context, id int64) (*entity.Item, error) {
	return (&itemTx{newTx(r.s)}).GetByID(ctx, id)
}

func (r *itemRepo) GetBySKU(ctx context.Context, sku string) (*entity.Item, error) {
	return (&itemTx{newTx(r.s)}).GetBySKU(ctx, sku)
}

// GetForUpdate fuera de una transacción equivale a una lectura simple.
func (r *itemRepo) GetForUpdate(ctx context.Context, id int64) (*entity.Item, error) {
	return r.GetByID(ctx, id)
}

func (r *itemRepo) Update(ctx context.Context, item *entity.Item) error {
	return r.s.atomically(ctx, func(t *tx) error { return (&itemTx{t}).Update(ctx, item) })
}

func (r *itemRepo) UpdateStock(ctx context.Context, item *entity.Item) error {
	return r.s.atomically(ctx, func(t *tx) error { return (&itemTx{t}).UpdateStock(ctx, item) })
}

func (r *itemRepo) Delete(ctx context.Context, id int64) error {
	return r.s.atomically(ctx, func(t *tx) error { return (&itemTx{t}).Delete(ctx, id) })
}

func (r *itemRepo) List(ctx context.Context, filter repository.ItemFilter, limit, offset int) ([]*entity.Item, error) {
	return (&itemTx{newTx(r.s)}).List(ctx, filter, limit, offset)
}

func (r *itemRepo) Count(ctx context.Context, filter repository.ItemFilter) (int, error) {
	return (&itemTx{newTx(r.s)}).Count(ctx, filter)
}
