package dto

import "time"

// AlertResponse salida de una alerta.
type AlertResponse struct {
	ID        int64      `json:"id"`
	Type      string     `json:"type"`
	Severity  string     `json:"severity"`
	Title     string     `json:"title"`
	Message   string     `json:"message"`
	ItemID    *int64     `json:"item_id,omitempty"`
	UserID    *int64     `json:"user_id,omitempty"`
	IsRead    bool       `json:"is_read"`
	CreatedAt time.Time  `json:"created_at"`
	ReadAt    *time.Time `json:"read_at,omitempty"`
}

// AlertListResponse lista paginada de alertas.
type AlertListResponse struct {
	Items []AlertResponse `json:"items"`
	Page  PageResponse    `json:"page"`
}
