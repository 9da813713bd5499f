package memory

import (
	"context"
	"sort"
	"time"

	"github.com/jhoicas/inventory-ledger/internal/domain"
	"github.com/jhoicas/inventory-ledger/internal/domain/entity"
	"github.com/jhoicas/inventory-ledger/internal/domain/repository"
)

var (
	_ repository.AlertRepository = (*alertTx)(nil)
	_ repository.AlertRepository = (*alertRepo)(nil)
)

type alertTx struct{ t *tx }

func cloneAlert(a *entity.Alert) *entity.Alert {
	c := *a
	if a.ItemID != nil {
		v := *a.ItemID
		c.ItemID = &v
	}
	if a.UserID != nil {
		v := *a.UserID
		c.UserID = &v
	}
	if a.ReadAt != nil {
		v := *a.ReadAt
		c.ReadAt = &v
	}
	return &c
}

func (r *alertTx) Create(_ context.Context, a *entity.Alert) error {
	a.ID = r.t.s.alertSeq.Add(1)
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now()
	}
	c := cloneAlert(a)
	r.t.ops = append(r.t.ops, func(s *Store) { s.alerts[c.ID] = c })
	return nil
}

func (r *alertTx) GetByID(_ context.Context, id int64) (*entity.Alert, error) {
	r.t.s.mu.RLock()
	defer r.t.s.mu.RUnlock()
	a, ok := r.t.s.alerts[id]
	if !ok {
		return nil, nil
	}
	return cloneAlert(a), nil
}

func (r *alertTx) List(_ context.Context, f repository.AlertFilter, limit, offset int) ([]*entity.Alert, error) {
	r.t.s.mu.RLock()
	out := make([]*entity.Alert, 0, len(r.t.s.alerts))
	for _, a := range r.t.s.alerts {
		if f.ItemID != nil && (a.ItemID == nil || *a.ItemID != *f.ItemID) {
			continue
		}
		if f.UnreadOnly && a.IsRead {
			continue
		}
		out = append(out, cloneAlert(a))
	}
	r.t.s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	if offset < 0 || offset >= len(out) {
		return []*entity.Alert{}, nil
	}
	out = out[offset:]
	if limit > 0 && limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}

func (r *alertTx) Count(ctx context.Context, f repository.AlertFilter) (int, error) {
	list, err := r.List(ctx, f, 0, 0)
	return len(list), err
}

func (r *alertTx) MarkRead(ctx context.Context, id int64, at time.Time) error {
	if a, _ := r.GetByID(ctx, id); a == nil {
		return domain.ErrNotFound
	}
	r.t.ops = append(r.t.ops, func(s *Store) {
		if a, ok := s.alerts[id]; ok && !a.IsRead {
			ts := at
			a.IsRead = true
			a.ReadAt = &ts
		}
	})
	return nil
}

func (r *alertTx) Delete(ctx context.Context, id int64) error {
	if a, _ := r.GetByID(ctx, id); a == nil {
		return domain.ErrNotFound
	}
	r.t.ops = append(r.t.ops, func(s *Store) { delete(s.alerts, id) })
	return nil
}

func (r *alertTx) DeleteByItem(_ context.Context, itemID int64) error {
	r.t.ops = append(r.t.ops, func(s *Store) {
		for id, a := range s.alerts {
			if a.ItemID != nil && *a.ItemID == itemID {
				delete(s.alerts, id)
			}
		}
	})
	return nil
}

type alertRepo struct{ s *Store }

func (r *alertRepo) Create(ctx context.Context, a *entity.Alert) error {
	return r.s.atomically(ctx, func(t *tx) error { return (&alertTx{t}).Create(ctx, a) })
}

func (r *alertRepo) GetByID(ctx context.Context, id int64) (*entity.Alert, error) {
	return (&alertTx{newTx(r.s)}).GetByID(ctx, id)
}

func (r *alertRepo) List(ctx context.Context, f repository.AlertFilter, limit, offset int) ([]*entity.Alert, error) {
	return (&alertTx{newTx(r.s)}).List(ctx, f, limit, offset)
}

func (r *alertRepo) Count(ctx context.Context, f repository.AlertFilter) (int, error) {
	return (&alertTx{newTx(r.s)}).Count(ctx, f)
}

func (r *alertRepo) MarkRead(ctx context.Context, id int64, at time.Time) error {
	return r.s.atomically(ctx, func(t *tx) error { return (&alertTx{t}).MarkRead(ctx, id, at) })
}

func (r *alertRepo) Delete(ctx context.Context, id int64) error {
	return r.s.atomically(ctx, func(t *tx) error { return (&alertTx{t}).Delete(ctx, id) })
}

func (r *alertRepo) DeleteByItem(ctx context.Context, itemID int64) error {
	return r.s.atomically(ctx, func(t *tx) error { return (&alertTx{t}).DeleteByItem(ctx, itemID) })
}
