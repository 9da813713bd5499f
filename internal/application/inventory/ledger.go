package inventory

import (
	"context"
	"iter"
	"time"

	"github.com/jhoicas/inventory-ledger/internal/domain/entity"
	"github.com/jhoicas/inventory-ledger/internal/domain/inventory"
	"github.com/jhoicas/inventory-ledger/internal/domain/repository"
)

const defaultLedgerPageSize = 200

// Record construye el movimiento (QuantityAfter = QuantityBefore + Delta) y lo inserta con
// el repositorio de la transacción en curso. Devuelve el movimiento con su ID asignado.
func Record(ctx context.Context, movRepo repository.InventoryMovementRepository, r inventory.Record, now time.Time) (*entity.InventoryMovement, error) {
	mov, err := inventory.NewMovement(r, now)
	if err != nil {
		return nil, err
	}
	if err := movRepo.Create(ctx, mov); err != nil {
		return nil, err
	}
	return mov, nil
}

// MovementQuery filtros del historial; todos opcionales.
type MovementQuery struct {
	ItemID *int64
	Type   *entity.MovementType
	From   *time.Time
	To     *time.Time
}

// Ledger lectura del libro de movimientos.
type Ledger struct {
	movRepo  repository.InventoryMovementRepository
	pageSize int
}

// NewLedger construye el lector del libro.
func NewLedger(movRepo repository.InventoryMovementRepository) *Ledger {
	return &Ledger{movRepo: movRepo, pageSize: defaultLedgerPageSize}
}

// Movements recorre el libro del más reciente al más antiguo, por páginas y bajo demanda.
// La cota superior es el mayor id confirmado al primer paso: movimientos con id mayor no
// aparecen, y volver a recorrer la secuencia toma una nueva foto. Una transacción que ya
// tenía asignado un id menor y confirma durante el recorrido puede aparecer en una página
// posterior; la foto acota por id, no por instante de commit. Termina en el primer error.
func (l *Ledger) Movements(ctx context.Context, q MovementQuery) iter.Seq2[*entity.InventoryMovement, error] {
	return func(yield func(*entity.InventoryMovement, error) bool) {
		upTo, err := l.movRepo.LatestID(ctx)
		if err != nil {
			yield(nil, err)
			return
		}
		if upTo == 0 {
			return
		}
		filter := repository.MovementFilter{
			ItemID: q.ItemID,
			Type:   q.Type,
			From:   q.From,
			To:     q.To,
			UpToID: upTo,
		}
		for {
			if err := ctx.Err(); err != nil {
				yield(nil, err)
				return
			}
			page, err := l.movRepo.List(ctx, filter, l.pageSize)
			if err != nil {
				yield(nil, err)
				return
			}
			for _, m := range page {
				if !yield(m, nil) {
					return
				}
			}
			if len(page) < l.pageSize {
				return
			}
			filter.BeforeID = page[len(page)-1].ID
		}
	}
}

// Collect toma como máximo limit movimientos (limit <= 0: todos).
func (l *Ledger) Collect(ctx context.Context, q MovementQuery, limit int) ([]*entity.InventoryMovement, error) {
	src := l
	if limit > 0 && limit < l.pageSize {
		src = &Ledger{movRepo: l.movRepo, pageSize: limit}
	}
	out := make([]*entity.InventoryMovement, 0)
	for m, err := range src.Movements(ctx, q) {
		if err != nil {
			return nil, err
		}
		out = append(out, m)
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}

// Recent últimos n movimientos de un item.
func (l *Ledger) Recent(ctx context.Context, itemID int64, n int) ([]*entity.InventoryMovement, error) {
	return l.Collect(ctx, MovementQuery{ItemID: &itemID}, n)
}
