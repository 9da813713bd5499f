package entity

import "time"

// Category representa una categoría de artículos (jerárquica opcional).
type Category struct {
	ID          int64
	ParentID    *int64 // nil si es raíz
	Name        string // único
	Description string
	IsActive    bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
