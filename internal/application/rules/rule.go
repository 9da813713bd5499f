// Package rules implementa el registro de reglas de negocio sobre items: condiciones
// campo-operador-valor de un conjunto cerrado y acciones set_field / flag.
package rules

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/inventory-ledger/internal/domain"
	"github.com/jhoicas/inventory-ledger/internal/domain/entity"
)

// Type categoría de la regla.
type Type string

const (
	TypeValidation     Type = "validation"
	TypeTransformation Type = "transformation"
	TypeBusinessLogic  Type = "business_logic"
	TypeAlert          Type = "alert"
	TypeAutomation     Type = "automation"
)

func (t Type) valid() bool {
	switch t {
	case TypeValidation, TypeTransformation, TypeBusinessLogic, TypeAlert, TypeAutomation:
		return true
	}
	return false
}

// Priority 1 (baja) a 4 (crítica).
type Priority int

const (
	PriorityLow Priority = iota + 1
	PriorityMedium
	PriorityHigh
	PriorityCritical
)

// Field campo del item evaluable por una condición.
type Field string

const (
	FieldQuantity     Field = "quantity"
	FieldReorderPoint Field = "reorder_point"
	FieldMaxStock     Field = "max_stock"
	FieldMinStock     Field = "min_stock"
	FieldPrice        Field = "price"
	FieldCost         Field = "cost"
	FieldSKU          Field = "sku"
	FieldName         Field = "name"
)

func (f Field) numeric() bool {
	switch f {
	case FieldQuantity, FieldReorderPoint, FieldMaxStock, FieldMinStock, FieldPrice, FieldCost:
		return true
	}
	return false
}

func (f Field) valid() bool {
	return f.numeric() || f == FieldSKU || f == FieldName
}

// Operator comparación de una condición.
type Operator string

const (
	OpEquals      Operator = "equals"
	OpGreaterThan Operator = "greater_than"
	OpLessThan    Operator = "less_than"
	OpContains    Operator = "contains"
	OpMatches     Operator = "matches" // expresión regular (RE2)
)

// Condition compara un campo del item con un valor literal.
type Condition struct {
	Field    Field
	Operator Operator
	Value    string
}

// ActionType tipo de acción.
type ActionType string

const (
	ActionSetField ActionType = "set_field"
	ActionFlag     ActionType = "flag"
)

// Action efecto propuesto cuando todas las condiciones se cumplen. Las acciones no
// modifican el item: el resultado describe los cambios para quien los aplique.
type Action struct {
	Type    ActionType
	Field   Field
	Value   string
	Message string
}

// Rule regla registrada.
type Rule struct {
	ID          string
	Type        Type
	Priority    Priority
	Description string
	Active      bool
	Conditions  []Condition
	Actions     []Action
	CreatedAt   time.Time
}

// Estados de un Result.
const (
	StatusSuccess       = "success"
	StatusNotApplicable = "not_applicable"
	StatusInactive      = "inactive"
	StatusError         = "error"
)

// Result resultado de ejecutar una regla sobre un item.
type Result struct {
	RuleID    string
	Status    string
	Message   string
	Changes   map[string]string
	Flags     []string
	Timestamp time.Time
}

// compiled condición con el valor ya interpretado.
type compiled struct {
	cond Condition
	num  decimal.Decimal
	re   *regexp.Regexp
}

func compile(c Condition) (compiled, error) {
	out := compiled{cond: c}
	if !c.Field.valid() {
		return out, fmt.Errorf("%w: campo %q no soportado", domain.ErrInvalidInput, c.Field)
	}
	switch c.Operator {
	case OpEquals, OpContains:
	case OpGreaterThan, OpLessThan:
		if !c.Field.numeric() {
			return out, fmt.Errorf("%w: %s requiere un campo numérico", domain.ErrInvalidInput, c.Operator)
		}
	case OpMatches:
		re, err := regexp.Compile(c.Value)
		if err != nil {
			return out, fmt.Errorf("%w: expresión %q: %v", domain.ErrInvalidInput, c.Value, err)
		}
		out.re = re
		return out, nil
	default:
		return out, fmt.Errorf("%w: operador %q no soportado", domain.ErrInvalidInput, c.Operator)
	}
	if c.Field.numeric() && c.Operator != OpContains {
		n, err := decimal.NewFromString(strings.TrimSpace(c.Value))
		if err != nil {
			return out, fmt.Errorf("%w: valor %q no es numérico", domain.ErrInvalidInput, c.Value)
		}
		out.num = n
	}
	return out, nil
}

// value lee el campo del item. ok=false si el campo no tiene valor (precio o costo nulos).
func value(item *entity.Item, f Field) (num decimal.Decimal, text string, ok bool) {
	switch f {
	case FieldQuantity:
		num = decimal.NewFromInt(item.Quantity)
	case FieldReorderPoint:
		num = decimal.NewFromInt(item.ReorderPoint)
	case FieldMaxStock:
		num = decimal.NewFromInt(item.MaxStock)
	case FieldMinStock:
		num = decimal.NewFromInt(item.MinStock)
	case FieldPrice:
		if item.Price == nil {
			return num, "", false
		}
		num = *item.Price
	case FieldCost:
		if item.Cost == nil {
			return num, "", false
		}
		num = *item.Cost
	case FieldSKU:
		return num, item.SKU, true
	case FieldName:
		return num, item.Name, true
	}
	return num, num.String(), true
}

// eval evalúa la condición; present=false si el campo está ausente.
func (c compiled) eval(item *entity.Item) (matched, present bool) {
	num, text, ok := value(item, c.cond.Field)
	if !ok {
		return false, false
	}
	switch c.cond.Operator {
	case OpEquals:
		if c.cond.Field.numeric() {
			return num.Equal(c.num), true
		}
		return text == c.cond.Value, true
	case OpGreaterThan:
		return num.GreaterThan(c.num), true
	case OpLessThan:
		return num.LessThan(c.num), true
	case OpContains:
		return strings.Contains(text, c.cond.Value), true
	case OpMatches:
		return c.re.MatchString(text), true
	}
	return false, true
}

func validateAction(a Action) error {
	switch a.Type {
	case ActionSetField:
		if !a.Field.valid() {
			return fmt.Errorf("%w: set_field sobre campo %q no soportado", domain.ErrInvalidInput, a.Field)
		}
	case ActionFlag:
	default:
		return fmt.Errorf("%w: acción %q no soportada", domain.ErrInvalidInput, a.Type)
	}
	return nil
}
