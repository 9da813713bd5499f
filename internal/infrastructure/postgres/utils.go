package postgres

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/jhoicas/inventory-ledger/internal/domain"
)

// Códigos SQLSTATE que se tratan de forma explícita.
const (
	codeUniqueViolation      = "23505"
	codeForeignKeyViolation  = "23503"
	codeCheckViolation       = "23514"
	codeSerializationFailure = "40001"
	codeDeadlockDetected     = "40P01"
	codeLockNotAvailable     = "55P03"
)

// isUniqueViolation verifica si un error es una violación de constraint único (23505).
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == codeUniqueViolation
	}
	return strings.Contains(err.Error(), codeUniqueViolation)
}

// wrapErr traduce un error de pgx al error de dominio correspondiente.
func wrapErr(op string, err error) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case codeUniqueViolation:
			return fmt.Errorf("%s: %w", op, domain.ErrDuplicate)
		case codeForeignKeyViolation:
			return fmt.Errorf("%s: %w: referencia inexistente (%s)", op, domain.ErrInvalidInput, pgErr.ConstraintName)
		case codeCheckViolation:
			return domain.InvalidOperation("%s viola %s", op, pgErr.ConstraintName)
		case codeSerializationFailure, codeDeadlockDetected, codeLockNotAvailable:
			return &domain.PersistenceError{Op: op, Err: err, Retryable: true}
		}
	}
	return &domain.PersistenceError{Op: op, Err: err}
}

// likePattern arma un patrón ILIKE de subcadena escapando comodines.
func likePattern(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(s) + "%"
}

// where acumula condiciones con placeholders $n.
type where struct {
	conds []string
	args  []any
}

// add agrega cond; cada %d (o %[n]d) se reemplaza por el placeholder del argumento.
func (w *where) add(cond string, args ...any) {
	pos := make([]any, len(args))
	for i, a := range args {
		w.args = append(w.args, a)
		pos[i] = len(w.args)
	}
	w.conds = append(w.conds, fmt.Sprintf(cond, pos...))
}

func (w *where) sql() string {
	if len(w.conds) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(w.conds, " AND ")
}

// page agrega LIMIT/OFFSET como argumentos; valores en cero se omiten.
// Un offset negativo no corresponde a ninguna página y produce un resultado vacío.
func (w *where) page(limit, offset int) string {
	if offset < 0 {
		return " LIMIT 0"
	}
	var b strings.Builder
	if limit > 0 {
		w.args = append(w.args, limit)
		fmt.Fprintf(&b, " LIMIT $%d", len(w.args))
	}
	if offset > 0 {
		w.args = append(w.args, offset)
		fmt.Fprintf(&b, " OFFSET $%d", len(w.args))
	}
	return b.String()
}
