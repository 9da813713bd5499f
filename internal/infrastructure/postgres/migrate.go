package postgres

import (
	"context"
	_ "embed"
)

//go:embed schema.sql
var schema string

// Migrate aplica el esquema (CREATE ... IF NOT EXISTS). Sin argumentos pgx usa el protocolo
// simple, así que el archivo completo va en un solo Exec.
func Migrate(ctx context.Context, q Querier) error {
	if _, err := q.Exec(ctx, schema); err != nil {
		return wrapErr("migrate", err)
	}
	return nil
}
