package domain

import (
	"errors"
	"fmt"
)

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound          = errors.New("recurso no encontrado")
	ErrInvalidInput      = errors.New("entrada inválida")
	ErrInvalidOperation  = errors.New("operación inválida")
	ErrDuplicate         = errors.New("recurso duplicado")
	ErrUnauthorized      = errors.New("no autorizado")
	ErrForbidden         = errors.New("acceso denegado")
	ErrConflict          = errors.New("conflicto con el estado actual")
	ErrInsufficientStock = errors.New("stock insuficiente")
	ErrPersistence       = errors.New("falla de persistencia")
)

// InsufficientStockError detalla una salida que pide más de lo disponible.
// errors.Is(err, ErrInsufficientStock) es verdadero.
type InsufficientStockError struct {
	ItemID    int64
	Available int64
	Requested int64
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("stock insuficiente en item %d: disponible %d, solicitado %d", e.ItemID, e.Available, e.Requested)
}

func (e *InsufficientStockError) Is(target error) bool {
	return target == ErrInsufficientStock
}

// InvalidOperationError rechaza una mutación que violaría una invariante de stock.
// errors.Is(err, ErrInvalidOperation) es verdadero.
type InvalidOperationError struct {
	Reason string
}

func (e *InvalidOperationError) Error() string {
	return "operación inválida: " + e.Reason
}

func (e *InvalidOperationError) Is(target error) bool {
	return target == ErrInvalidOperation
}

// InvalidOperation construye un InvalidOperationError con el motivo formateado.
func InvalidOperation(format string, args ...any) error {
	return &InvalidOperationError{Reason: fmt.Sprintf(format, args...)}
}

// PersistenceError envuelve un fallo del almacenamiento durante la unidad de trabajo.
// Retryable indica que repetir la unidad completa puede tener éxito (deadlock, serialización).
type PersistenceError struct {
	Op        string
	Err       error
	Retryable bool
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistencia %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

func (e *PersistenceError) Is(target error) bool {
	return target == ErrPersistence
}

// IsRetryable indica si err es un fallo de persistencia transitorio.
func IsRetryable(err error) bool {
	var pe *PersistenceError
	return errors.As(err, &pe) && pe.Retryable
}
