package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/inventory-ledger/internal/domain"
	"github.com/jhoicas/inventory-ledger/internal/domain/entity"
	"github.com/jhoicas/inventory-ledger/internal/domain/repository"
)

var _ repository.AlertRepository = (*AlertRepo)(nil)

const alertColumns = `id, alert_type, severity, title, message, item_id, user_id, is_read, created_at, read_at`

// AlertRepo alertas de stock en PostgreSQL.
type AlertRepo struct {
	q Querier
}

// NewAlertRepository construye el adaptador. Pasar pool o tx (Querier).
func NewAlertRepository(q Querier) *AlertRepo {
	return &AlertRepo{q: q}
}

func scanAlert(row pgx.Row) (*entity.Alert, error) {
	var a entity.Alert
	var typ, sev string
	if err := row.Scan(&a.ID, &typ, &sev, &a.Title, &a.Message, &a.ItemID, &a.UserID, &a.IsRead, &a.CreatedAt, &a.ReadAt); err != nil {
		return nil, err
	}
	a.Type = entity.AlertType(typ)
	a.Severity = entity.AlertSeverity(sev)
	return &a, nil
}

func (r *AlertRepo) Create(ctx context.Context, a *entity.Alert) error {
	query := `
		INSERT INTO alerts (alert_type, severity, title, message, item_id, user_id, is_read, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id`
	err := r.q.QueryRow(ctx, query,
		string(a.Type), string(a.Severity), a.Title, a.Message, a.ItemID, a.UserID, a.IsRead, a.CreatedAt,
	).Scan(&a.ID)
	if err != nil {
		return wrapErr("create alert", err)
	}
	return nil
}

func (r *AlertRepo) GetByID(ctx context.Context, id int64) (*entity.Alert, error) {
	a, err := scanAlert(r.q.QueryRow(ctx, `SELECT `+alertColumns+` FROM alerts WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, wrapErr("get alert", err)
	}
	return a, nil
}

func alertWhere(f repository.AlertFilter) *where {
	w := &where{}
	if f.ItemID != nil {
		w.add("item_id = $%d", *f.ItemID)
	}
	if f.UnreadOnly {
		w.add("NOT is_read")
	}
	return w
}

// List alertas más recientes primero.
func (r *AlertRepo) List(ctx context.Context, f repository.AlertFilter, limit, offset int) ([]*entity.Alert, error) {
	w := alertWhere(f)
	query := `SELECT ` + alertColumns + ` FROM alerts` + w.sql() + ` ORDER BY created_at DESC, id DESC` + w.page(limit, offset)
	rows, err := r.q.Query(ctx, query, w.args...)
	if err != nil {
		return nil, wrapErr("list alerts", err)
	}
	defer rows.Close()
	list := make([]*entity.Alert, 0)
	for rows.Next() {
		a, err := scanAlert(rows)
		if err != nil {
			return nil, wrapErr("scan alert", err)
		}
		list = append(list, a)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapErr("list alerts", err)
	}
	return list, nil
}

func (r *AlertRepo) Count(ctx context.Context, f repository.AlertFilter) (int, error) {
	w := alertWhere(f)
	var n int
	if err := r.q.QueryRow(ctx, `SELECT COUNT(*) FROM alerts`+w.sql(), w.args...).Scan(&n); err != nil {
		return 0, wrapErr("count alerts", err)
	}
	return n, nil
}

func (r *AlertRepo) MarkRead(ctx context.Context, id int64, at time.Time) error {
	tag, err := r.q.Exec(ctx, `UPDATE alerts SET is_read = TRUE, read_at = $2 WHERE id = $1`, id, at)
	if err != nil {
		return wrapErr("mark alert read", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *AlertRepo) Delete(ctx context.Context, id int64) error {
	tag, err := r.q.Exec(ctx, `DELETE FROM alerts WHERE id = $1`, id)
	if err != nil {
		return wrapErr("delete alert", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *AlertRepo) DeleteByItem(ctx context.Context, itemID int64) error {
	if _, err := r.q.Exec(ctx, `DELETE FROM alerts WHERE item_id = $1`, itemID); err != nil {
		return wrapErr("delete item alerts", err)
	}
	return nil
}
