package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// MovementType tipo de movimiento del libro de inventario.
type MovementType string

// Tipos de movimiento de inventario.
const (
	MovementInbound    MovementType = "INBOUND"    // entrada
	MovementOutbound   MovementType = "OUTBOUND"   // salida
	MovementTransfer   MovementType = "TRANSFER"   // traslado
	MovementAdjustment MovementType = "ADJUSTMENT" // ajuste sin cambio neto
	MovementReturn     MovementType = "RETURN"
	MovementDamaged    MovementType = "DAMAGED"
	MovementLost       MovementType = "LOST"
)

// Valid indica si el tipo pertenece al conjunto cerrado.
func (t MovementType) Valid() bool {
	switch t {
	case MovementInbound, MovementOutbound, MovementTransfer, MovementAdjustment,
		MovementReturn, MovementDamaged, MovementLost:
		return true
	}
	return false
}

// InventoryMovement es una entrada inmutable del libro: un cambio de cantidad aplicado a un item.
// Invariante: QuantityAfter = QuantityBefore + Quantity y QuantityAfter >= 0.
type InventoryMovement struct {
	ID              int64
	TransactionID   string // agrupa las dos patas de un traslado
	ItemID          int64
	UserID          int64
	LocationID      *int64
	Type            MovementType
	Quantity        int64 // delta con signo efectivamente aplicado
	QuantityBefore  int64
	QuantityAfter   int64
	UnitCost        *decimal.Decimal
	TotalCost       *decimal.Decimal
	ReferenceNumber string
	Reason          string
	Notes           string
	CreatedAt       time.Time
}
