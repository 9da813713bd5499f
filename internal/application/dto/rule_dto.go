package dto

import "time"

// ConditionDTO condición campo-operador-valor.
type ConditionDTO struct {
	Field    string `json:"field"`
	Operator string `json:"operator"`
	Value    string `json:"value"`
}

// ActionDTO acción de una regla.
type ActionDTO struct {
	Type    string `json:"type"`
	Field   string `json:"field,omitempty"`
	Value   string `json:"value,omitempty"`
	Message string `json:"message,omitempty"`
}

// CreateRuleRequest body para POST /api/rules.
type CreateRuleRequest struct {
	ID          string         `json:"id" validate:"required"`
	Description string         `json:"description"`
	Type        string         `json:"type" validate:"required"`
	Priority    int            `json:"priority"`
	Active      *bool          `json:"active"`
	Conditions  []ConditionDTO `json:"conditions"`
	Actions     []ActionDTO    `json:"actions"`
}

// RuleResponse salida de una regla.
type RuleResponse struct {
	ID          string         `json:"id"`
	Description string         `json:"description"`
	Type        string         `json:"type"`
	Priority    int            `json:"priority"`
	Active      bool           `json:"active"`
	Conditions  []ConditionDTO `json:"conditions"`
	Actions     []ActionDTO    `json:"actions"`
	CreatedAt   time.Time      `json:"created_at"`
}

// ExecuteRuleRequest body para POST /api/rules/:id/execute.
type ExecuteRuleRequest struct {
	ItemID int64 `json:"item_id"`
}

// RuleResultResponse resultado de ejecutar una regla sobre un item.
type RuleResultResponse struct {
	RuleID    string            `json:"rule_id"`
	Status    string            `json:"status"` // success | not_applicable | inactive | error
	Message   string            `json:"message,omitempty"`
	Changes   map[string]string `json:"changes,omitempty"`
	Flags     []string          `json:"flags,omitempty"`
	Timestamp time.Time         `json:"timestamp"`
}

// RuleSummaryResponse conteos del registro de reglas.
type RuleSummaryResponse struct {
	Total    int            `json:"total"`
	Active   int            `json:"active"`
	Inactive int            `json:"inactive"`
	ByType   map[string]int `json:"by_type"`
	Rules    []RuleResponse `json:"rules"`
}
