package inventory

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/inventory-ledger/internal/domain"
	"github.com/jhoicas/inventory-ledger/internal/domain/entity"
)

// MovementTypeForDelta tipo por defecto según el signo del delta.
func MovementTypeForDelta(delta int64) entity.MovementType {
	switch {
	case delta > 0:
		return entity.MovementInbound
	case delta < 0:
		return entity.MovementOutbound
	default:
		return entity.MovementAdjustment
	}
}

// Record describe una entrada del libro antes de persistirla.
// QuantityBefore debe leerse con la fila del item bloqueada.
type Record struct {
	TransactionID  string
	ItemID         int64
	Type           entity.MovementType
	Delta          int64
	QuantityBefore int64
	UserID         int64
	LocationID     *int64
	UnitCost       *decimal.Decimal
	Reference      string
	Reason         string
	Notes          string
}

// NewMovement calcula QuantityAfter y valida las invariantes del libro.
func NewMovement(r Record, now time.Time) (*entity.InventoryMovement, error) {
	if !r.Type.Valid() {
		return nil, domain.InvalidOperation("tipo de movimiento %q", r.Type)
	}
	if r.QuantityBefore < 0 {
		return nil, domain.InvalidOperation("cantidad previa negativa en item %d", r.ItemID)
	}
	after := r.QuantityBefore + r.Delta
	if after < 0 {
		return nil, domain.InvalidOperation("el stock del item %d quedaría en %d", r.ItemID, after)
	}
	mov := &entity.InventoryMovement{
		TransactionID:   r.TransactionID,
		ItemID:          r.ItemID,
		UserID:          r.UserID,
		LocationID:      r.LocationID,
		Type:            r.Type,
		Quantity:        r.Delta,
		QuantityBefore:  r.QuantityBefore,
		QuantityAfter:   after,
		UnitCost:        r.UnitCost,
		ReferenceNumber: r.Reference,
		Reason:          r.Reason,
		Notes:           r.Notes,
		CreatedAt:       now,
	}
	if r.UnitCost != nil {
		total := r.UnitCost.Mul(decimal.NewFromInt(r.Delta))
		mov.TotalCost = &total
	}
	return mov, nil
}

// VerifyChain comprueba que una secuencia de movimientos de un mismo item, en orden de
// creación, encadena sin huecos: cada QuantityBefore es el QuantityAfter anterior.
func VerifyChain(movs []*entity.InventoryMovement) bool {
	for i, m := range movs {
		if m.QuantityAfter != m.QuantityBefore+m.Quantity || m.QuantityAfter < 0 {
			return false
		}
		if i > 0 && movs[i-1].QuantityAfter != m.QuantityBefore {
			return false
		}
	}
	return true
}
