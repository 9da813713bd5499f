package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/inventory-ledger/internal/domain"
	"github.com/jhoicas/inventory-ledger/internal/domain/entity"
	"github.com/jhoicas/inventory-ledger/internal/domain/inventory"
	"github.com/jhoicas/inventory-ledger/internal/domain/repository"
)

var _ repository.ItemRepository = (*ItemRepo)(nil)

const itemColumns = `id, sku, barcode, name, description, category_id, supplier_id, location_id, unit,
	quantity, reserved_quantity, available_quantity, min_stock, max_stock, reorder_point, reorder_quantity,
	price, cost, last_cost, average_cost, is_active, created_at, updated_at, last_movement`

// ItemRepo implementación de ItemRepository sobre PostgreSQL (usable con pool o tx).
type ItemRepo struct {
	q Querier
}

// NewItemRepository construye el adaptador. Pasar pool o tx (Querier).
func NewItemRepository(q Querier) *ItemRepo {
	return &ItemRepo{q: q}
}

func scanItem(row pgx.Row) (*entity.Item, error) {
	var it entity.Item
	err := row.Scan(
		&it.ID, &it.SKU, &it.Barcode, &it.Name, &it.Description, &it.CategoryID, &it.SupplierID, &it.LocationID, &it.Unit,
		&it.Quantity, &it.ReservedQuantity, &it.AvailableQuantity, &it.MinStock, &it.MaxStock, &it.ReorderPoint, &it.ReorderQuantity,
		&it.Price, &it.Cost, &it.LastCost, &it.AverageCost, &it.IsActive, &it.CreatedAt, &it.UpdatedAt, &it.LastMovement,
	)
	if err != nil {
		return nil, err
	}
	return &it, nil
}

// Create inserta el item y asigna ID y timestamps.
func (r *ItemRepo) Create(ctx context.Context, it *entity.Item) error {
	it.RecomputeAvailable()
	query := `
		INSERT INTO items (sku, barcode, name, description, category_id, supplier_id, location_id, unit,
			quantity, reserved_quantity, available_quantity, min_stock, max_stock, reorder_point, reorder_quantity,
			price, cost, last_cost, average_cost, is_active, last_movement)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21)
		RETURNING id, created_at, updated_at`
	err := r.q.QueryRow(ctx, query,
		it.SKU, it.Barcode, it.Name, it.Description, it.CategoryID, it.SupplierID, it.LocationID, it.Unit,
		it.Quantity, it.ReservedQuantity, it.AvailableQuantity, it.MinStock, it.MaxStock, it.ReorderPoint, it.ReorderQuantity,
		it.Price, it.Cost, it.LastCost, it.AverageCost, it.IsActive, it.LastMovement,
	).Scan(&it.ID, &it.CreatedAt, &it.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("sku %s: %w", it.SKU, domain.ErrDuplicate)
		}
		return wrapErr("create item", err)
	}
	return nil
}

func (r *ItemRepo) getOne(ctx context.Context, op, query string, arg any) (*entity.Item, error) {
	it, err := scanItem(r.q.QueryRow(ctx, query, arg))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, wrapErr(op, err)
	}
	return it, nil
}

// GetByID obtiene un item por ID.
func (r *ItemRepo) GetByID(ctx context.Context, id int64) (*entity.Item, error) {
	return r.getOne(ctx, "get item", `SELECT `+itemColumns+` FROM items WHERE id = $1`, id)
}

// GetBySKU obtiene un item por SKU.
func (r *ItemRepo) GetBySKU(ctx context.Context, sku string) (*entity.Item, error) {
	return r.getOne(ctx, "get item by sku", `SELECT `+itemColumns+` FROM items WHERE sku = $1`, sku)
}

// GetForUpdate obtiene el item y bloquea la fila (SELECT FOR UPDATE). Solo tiene efecto dentro de una tx.
func (r *ItemRepo) GetForUpdate(ctx context.Context, id int64) (*entity.Item, error) {
	return r.getOne(ctx, "get item for update", `SELECT `+itemColumns+` FROM items WHERE id = $1 FOR UPDATE`, id)
}

// Update persiste los campos de catálogo (sin cantidades ni costos de stock).
func (r *ItemRepo) Update(ctx context.Context, it *entity.Item) error {
	query := `
		UPDATE items SET barcode = $2, name = $3, description = $4, category_id = $5, supplier_id = $6,
			location_id = $7, unit = $8, min_stock = $9, max_stock = $10, reorder_point = $11,
			reorder_quantity = $12, price = $13, cost = $14, is_active = $15, updated_at = now()
		WHERE id = $1
		RETURNING updated_at`
	err := r.q.QueryRow(ctx, query,
		it.ID, it.Barcode, it.Name, it.Description, it.CategoryID, it.SupplierID,
		it.LocationID, it.Unit, it.MinStock, it.MaxStock, it.ReorderPoint,
		it.ReorderQuantity, it.Price, it.Cost, it.IsActive,
	).Scan(&it.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ErrNotFound
		}
		return wrapErr("update item", err)
	}
	return nil
}

// UpdateStock persiste los campos de existencia y costo que cambia el motor de stock.
func (r *ItemRepo) UpdateStock(ctx context.Context, it *entity.Item) error {
	it.RecomputeAvailable()
	query := `
		UPDATE items SET quantity = $2, reserved_quantity = $3, available_quantity = $4,
			last_cost = $5, average_cost = $6, last_movement = $7, updated_at = $8
		WHERE id = $1`
	tag, err := r.q.Exec(ctx, query,
		it.ID, it.Quantity, it.ReservedQuantity, it.AvailableQuantity,
		it.LastCost, it.AverageCost, it.LastMovement, it.UpdatedAt,
	)
	if err != nil {
		return wrapErr("update item stock", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// Delete elimina el item; movimientos y alertas caen por ON DELETE CASCADE.
func (r *ItemRepo) Delete(ctx context.Context, id int64) error {
	tag, err := r.q.Exec(ctx, `DELETE FROM items WHERE id = $1`, id)
	if err != nil {
		return wrapErr("delete item", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// List lista items que cumplen el filtro, por id ascendente.
func (r *ItemRepo) List(ctx context.Context, filter repository.ItemFilter, limit, offset int) ([]*entity.Item, error) {
	w := itemWhere(filter)
	query := `SELECT ` + itemColumns + ` FROM items` + w.sql() + ` ORDER BY id` + w.page(limit, offset)
	rows, err := r.q.Query(ctx, query, w.args...)
	if err != nil {
		return nil, wrapErr("list items", err)
	}
	defer rows.Close()
	var list []*entity.Item
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, wrapErr("scan item", err)
		}
		list = append(list, it)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapErr("list items", err)
	}
	return list, nil
}

// Count total de items que cumplen el filtro (mismo predicado que List).
func (r *ItemRepo) Count(ctx context.Context, filter repository.ItemFilter) (int, error) {
	w := itemWhere(filter)
	var n int
	if err := r.q.QueryRow(ctx, `SELECT COUNT(*) FROM items`+w.sql(), w.args...).Scan(&n); err != nil {
		return 0, wrapErr("count items", err)
	}
	return n, nil
}

// statusPredicate traduce la etiqueta de stock a SQL con las mismas ramas excluyentes
// que inventory.Status.
var statusPredicate = map[inventory.StockStatus]string{
	inventory.StatusOutOfStock: `quantity = 0`,
	inventory.StatusLowStock:   `quantity > 0 AND quantity <= reorder_point`,
	inventory.StatusOverstock:  `quantity > 0 AND quantity > reorder_point AND quantity > max_stock`,
	inventory.StatusNormal:     `quantity > 0 AND quantity > reorder_point AND quantity <= max_stock`,
}

func itemWhere(f repository.ItemFilter) *where {
	w := &where{}
	if f.CategoryID != nil {
		w.add("category_id = $%d", *f.CategoryID)
	}
	if f.SupplierID != nil {
		w.add("supplier_id = $%d", *f.SupplierID)
	}
	if f.LocationID != nil {
		w.add("location_id = $%d", *f.LocationID)
	}
	if f.IsActive != nil {
		w.add("is_active = $%d", *f.IsActive)
	}
	if f.Status != nil {
		if pred, ok := statusPredicate[*f.Status]; ok {
			w.add("(" + pred + ")")
		}
	}
	if s := strings.TrimSpace(f.Search); s != "" {
		w.add("(name ILIKE $%[1]d OR sku ILIKE $%[1]d OR description ILIKE $%[1]d OR barcode ILIKE $%[1]d)", likePattern(s))
	}
	if f.MinQuantity != nil {
		w.add("quantity >= $%d", *f.MinQuantity)
	}
	if f.MaxQuantity != nil {
		w.add("quantity <= $%d", *f.MaxQuantity)
	}
	if f.MinPrice != nil {
		w.add("price >= $%d", *f.MinPrice)
	}
	if f.MaxPrice != nil {
		w.add("price <= $%d", *f.MaxPrice)
	}
	return w
}
