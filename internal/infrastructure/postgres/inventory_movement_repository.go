package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/inventory-ledger/internal/domain/entity"
	"github.com/jhoicas/inventory-ledger/internal/domain/repository"
)

var _ repository.InventoryMovementRepository = (*InventoryMovementRepo)(nil)

const movementColumns = `id, transaction_id, item_id, user_id, location_id, movement_type, quantity,
	quantity_before, quantity_after, unit_cost, total_cost, reference_number, reason, notes, created_at`

// InventoryMovementRepo implementación del libro de movimientos sobre PostgreSQL.
// Solo inserta y lee: los movimientos no se modifican.
type InventoryMovementRepo struct {
	q Querier
}

// NewInventoryMovementRepository construye el adaptador. Pasar pool o tx (Querier).
func NewInventoryMovementRepository(q Querier) *InventoryMovementRepo {
	return &InventoryMovementRepo{q: q}
}

func scanMovement(row pgx.Row) (*entity.InventoryMovement, error) {
	var m entity.InventoryMovement
	var typ string
	err := row.Scan(&m.ID, &m.TransactionID, &m.ItemID, &m.UserID, &m.LocationID, &typ, &m.Quantity,
		&m.QuantityBefore, &m.QuantityAfter, &m.UnitCost, &m.TotalCost, &m.ReferenceNumber, &m.Reason, &m.Notes, &m.CreatedAt)
	if err != nil {
		return nil, err
	}
	m.Type = entity.MovementType(typ)
	return &m, nil
}

// Create inserta el movimiento y asigna su ID.
func (r *InventoryMovementRepo) Create(ctx context.Context, m *entity.InventoryMovement) error {
	query := `
		INSERT INTO inventory_movements (transaction_id, item_id, user_id, location_id, movement_type, quantity,
			quantity_before, quantity_after, unit_cost, total_cost, reference_number, reason, notes, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		RETURNING id`
	err := r.q.QueryRow(ctx, query,
		m.TransactionID, m.ItemID, m.UserID, m.LocationID, string(m.Type), m.Quantity,
		m.QuantityBefore, m.QuantityAfter, m.UnitCost, m.TotalCost, m.ReferenceNumber, m.Reason, m.Notes, m.CreatedAt,
	).Scan(&m.ID)
	if err != nil {
		return wrapErr("create movement", err)
	}
	return nil
}

// GetByID obtiene un movimiento por ID.
func (r *InventoryMovementRepo) GetByID(ctx context.Context, id int64) (*entity.InventoryMovement, error) {
	m, err := scanMovement(r.q.QueryRow(ctx, `SELECT `+movementColumns+` FROM inventory_movements WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, wrapErr("get movement", err)
	}
	return m, nil
}

// List movimientos que cumplen el filtro, por id descendente (más reciente primero).
func (r *InventoryMovementRepo) List(ctx context.Context, f repository.MovementFilter, limit int) ([]*entity.InventoryMovement, error) {
	w := &where{}
	if f.ItemID != nil {
		w.add("item_id = $%d", *f.ItemID)
	}
	if f.Type != nil {
		w.add("movement_type = $%d", string(*f.Type))
	}
	if f.From != nil {
		w.add("created_at >= $%d", *f.From)
	}
	if f.To != nil {
		w.add("created_at <= $%d", *f.To)
	}
	if f.BeforeID > 0 {
		w.add("id < $%d", f.BeforeID)
	}
	if f.UpToID > 0 {
		w.add("id <= $%d", f.UpToID)
	}
	query := `SELECT ` + movementColumns + ` FROM inventory_movements` + w.sql() + ` ORDER BY id DESC` + w.page(limit, 0)
	rows, err := r.q.Query(ctx, query, w.args...)
	if err != nil {
		return nil, wrapErr("list movements", err)
	}
	defer rows.Close()
	list := make([]*entity.InventoryMovement, 0)
	for rows.Next() {
		m, err := scanMovement(rows)
		if err != nil {
			return nil, wrapErr("scan movement", err)
		}
		list = append(list, m)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapErr("list movements", err)
	}
	return list, nil
}

// LatestID id del último movimiento insertado (0 si el libro está vacío).
func (r *InventoryMovementRepo) LatestID(ctx context.Context) (int64, error) {
	var id int64
	if err := r.q.QueryRow(ctx, `SELECT COALESCE(MAX(id), 0) FROM inventory_movements`).Scan(&id); err != nil {
		return 0, wrapErr("latest movement", err)
	}
	return id, nil
}

// DeleteByItem borra el historial de un item (solo al eliminar el item).
func (r *InventoryMovementRepo) DeleteByItem(ctx context.Context, itemID int64) error {
	if _, err := r.q.Exec(ctx, `DELETE FROM inventory_movements WHERE item_id = $1`, itemID); err != nil {
		return wrapErr("delete movements", err)
	}
	return nil
}
