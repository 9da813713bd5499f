package entity

import "time"

// Supplier proveedor de artículos.
type Supplier struct {
	ID            int64
	Name          string // único
	ContactPerson string
	Email         string
	Phone         string
	Address       string
	City          string
	Country       string
	TaxID         string
	PaymentTerms  string
	Rating        float64
	IsActive      bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
}
