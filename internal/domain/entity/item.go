package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Item representa un artículo del inventario con su nivel de stock y umbrales.
// Quantity es la existencia autoritativa y solo cambia vía el motor de mutaciones (con movimiento).
type Item struct {
	ID          int64
	SKU         string // único, inmutable una vez asignado
	Barcode     string
	Name        string
	Description string
	CategoryID  int64
	SupplierID  *int64
	LocationID  *int64
	Unit        string

	Quantity          int64
	ReservedQuantity  int64
	AvailableQuantity int64 // Quantity - ReservedQuantity, recalculado en cada escritura

	MinStock        int64
	MaxStock        int64
	ReorderPoint    int64
	ReorderQuantity int64

	Price       *decimal.Decimal
	Cost        *decimal.Decimal
	LastCost    *decimal.Decimal
	AverageCost *decimal.Decimal

	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
	LastMovement *time.Time
}

// Valores por defecto del catálogo.
const (
	DefaultMaxStock        int64 = 1000
	DefaultReorderPoint    int64 = 10
	DefaultReorderQuantity int64 = 100
	DefaultUnit                  = "pcs"
)

// RecomputeAvailable recalcula AvailableQuantity a partir de Quantity y ReservedQuantity.
// Nunca queda negativo ni por encima de Quantity.
func (i *Item) RecomputeAvailable() {
	avail := i.Quantity - i.ReservedQuantity
	if avail < 0 {
		avail = 0
	}
	i.AvailableQuantity = avail
}

// Clone copia el item (los punteros a decimal se comparten; decimal es inmutable).
func (i *Item) Clone() *Item {
	if i == nil {
		return nil
	}
	c := *i
	if i.SupplierID != nil {
		v := *i.SupplierID
		c.SupplierID = &v
	}
	if i.LocationID != nil {
		v := *i.LocationID
		c.LocationID = &v
	}
	if i.LastMovement != nil {
		v := *i.LastMovement
		c.LastMovement = &v
	}
	return &c
}

// TotalValue devuelve Quantity * Price (0 si no hay precio).
func (i *Item) TotalValue() decimal.Decimal {
	if i.Price == nil {
		return decimal.Zero
	}
	return i.Price.Mul(decimal.NewFromInt(i.Quantity))
}
