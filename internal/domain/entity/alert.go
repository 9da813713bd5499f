package entity

import "time"

// AlertType tipo de alerta.
type AlertType string

const (
	AlertLowStock   AlertType = "low_stock"
	AlertOutOfStock AlertType = "out_of_stock"
	AlertOverstock  AlertType = "overstock"
	AlertReorder    AlertType = "reorder"
	AlertExpiry     AlertType = "expiry"
	AlertSystem     AlertType = "system"
	AlertCustom     AlertType = "custom"
)

// AlertSeverity severidad de la alerta.
type AlertSeverity string

const (
	SeverityLow      AlertSeverity = "LOW"
	SeverityMedium   AlertSeverity = "MEDIUM"
	SeverityHigh     AlertSeverity = "HIGH"
	SeverityCritical AlertSeverity = "CRITICAL"
)

// Alert hecho derivado de una mutación; no modifica el estado del item.
type Alert struct {
	ID        int64
	Type      AlertType
	Severity  AlertSeverity
	Title     string
	Message   string
	ItemID    *int64
	UserID    *int64
	IsRead    bool
	CreatedAt time.Time
	ReadAt    *time.Time
}
