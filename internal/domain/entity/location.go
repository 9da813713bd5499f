package entity

import "time"

// Location ubicación física de almacenamiento (bodega, tienda, sección, estante).
type Location struct {
	ID          int64
	ParentID    *int64
	Name        string
	Code        string // único
	Description string
	Type        string
	Address     string
	Capacity    *float64
	IsActive    bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
