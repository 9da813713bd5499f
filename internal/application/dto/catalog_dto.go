package dto

import "time"

// CreateCategoryRequest entrada para crear una categoría.
type CreateCategoryRequest struct {
	Name        string `json:"name" validate:"required"`
	Description string `json:"description"`
	ParentID    *int64 `json:"parent_id"`
}

// CategoryResponse salida de una categoría.
type CategoryResponse struct {
	ID          int64     `json:"id"`
	ParentID    *int64    `json:"parent_id,omitempty"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
}

// CreateSupplierRequest entrada para crear un proveedor.
type CreateSupplierRequest struct {
	Name          string  `json:"name" validate:"required"`
	ContactPerson string  `json:"contact_person"`
	Email         string  `json:"email"`
	Phone         string  `json:"phone"`
	Address       string  `json:"address"`
	City          string  `json:"city"`
	Country       string  `json:"country"`
	TaxID         string  `json:"tax_id"`
	PaymentTerms  string  `json:"payment_terms"`
	Rating        float64 `json:"rating"`
}

// SupplierResponse salida de un proveedor.
type SupplierResponse struct {
	ID            int64     `json:"id"`
	Name          string    `json:"name"`
	ContactPerson string    `json:"contact_person,omitempty"`
	Email         string    `json:"email,omitempty"`
	Phone         string    `json:"phone,omitempty"`
	Address       string    `json:"address,omitempty"`
	City          string    `json:"city,omitempty"`
	Country       string    `json:"country,omitempty"`
	TaxID         string    `json:"tax_id,omitempty"`
	PaymentTerms  string    `json:"payment_terms,omitempty"`
	Rating        float64   `json:"rating"`
	IsActive      bool      `json:"is_active"`
	CreatedAt     time.Time `json:"created_at"`
}

// CreateLocationRequest entrada para crear una ubicación.
type CreateLocationRequest struct {
	Name        string   `json:"name" validate:"required"`
	Code        string   `json:"code" validate:"required"`
	Description string   `json:"description"`
	Type        string   `json:"type"`
	Address     string   `json:"address"`
	ParentID    *int64   `json:"parent_id"`
	Capacity    *float64 `json:"capacity"`
}

// LocationResponse salida de una ubicación.
type LocationResponse struct {
	ID          int64     `json:"id"`
	ParentID    *int64    `json:"parent_id,omitempty"`
	Name        string    `json:"name"`
	Code        string    `json:"code"`
	Description string    `json:"description,omitempty"`
	Type        string    `json:"type,omitempty"`
	Address     string    `json:"address,omitempty"`
	Capacity    *float64  `json:"capacity,omitempty"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
}
