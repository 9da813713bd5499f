package memory

import (
	"context"
	"time"

	"github.com/jhoicas/inventory-ledger/internal/domain/entity"
	"github.com/jhoicas/inventory-ledger/internal/domain/repository"
)

var (
	_ repository.InventoryMovementRepository = (*movementTx)(nil)
	_ repository.InventoryMovementRepository = (*movementRepo)(nil)
)

type movementTx struct{ t *tx }

func (r *movementTx) Create(_ context.Context, m *entity.InventoryMovement) error {
	m.ID = r.t.s.movSeq.Add(1)
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now()
	}
	c := *m
	r.t.ops = append(r.t.ops, func(s *Store) {
		s.movements[c.ID] = &c
		s.movOrder = insertOrdered(s.movOrder, c.ID)
	})
	return nil
}

func (r *movementTx) GetByID(_ context.Context, id int64) (*entity.InventoryMovement, error) {
	r.t.s.mu.RLock()
	defer r.t.s.mu.RUnlock()
	m, ok := r.t.s.movements[id]
	if !ok {
		return nil, nil
	}
	c := *m
	return &c, nil
}

func (r *movementTx) List(_ context.Context, f repository.MovementFilter, limit int) ([]*entity.InventoryMovement, error) {
	r.t.s.mu.RLock()
	defer r.t.s.mu.RUnlock()
	out := make([]*entity.InventoryMovement, 0)
	for i := len(r.t.s.movOrder) - 1; i >= 0; i-- {
		m := r.t.s.movements[r.t.s.movOrder[i]]
		if !matchMovement(m, f) {
			continue
		}
		c := *m
		out = append(out, &c)
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}

func matchMovement(m *entity.InventoryMovement, f repository.MovementFilter) bool {
	switch {
	case f.BeforeID > 0 && m.ID >= f.BeforeID:
		return false
	case f.UpToID > 0 && m.ID > f.UpToID:
		return false
	case f.ItemID != nil && m.ItemID != *f.ItemID:
		return false
	case f.Type != nil && m.Type != *f.Type:
		return false
	case f.From != nil && m.CreatedAt.Before(*f.From):
		return false
	case f.To != nil && m.CreatedAt.After(*f.To):
		return false
	}
	return true
}

func (r *movementTx) LatestID(context.Context) (int64, error) {
	r.t.s.mu.RLock()
	defer r.t.s.mu.RUnlock()
	if n := len(r.t.s.movOrder); n > 0 {
		return r.t.s.movOrder[n-1], nil
	}
	return 0, nil
}

func (r *movementTx) DeleteByItem(_ context.Context, itemID int64) error {
	r.t.ops = append(r.t.ops, func(s *Store) {
		kept := s.movOrder[:0]
		for _, id := range s.movOrder {
			if s.movements[id].ItemID == itemID {
				delete(s.movements, id)
				continue
			}
			kept = append(kept, id)
		}
		s.movOrder = kept
	})
	return nil
}

type movementRepo struct{ s *Store }

func (r *movementRepo) Create(ctx context.Context, m *entity.InventoryMovement) error {
	return r.s.atomically(ctx, func(t *tx) error { return (&movementTx{t}).Create(ctx, m) })
}

func (r *movementRepo) GetByID(ctx context.Context, id int64) (*entity.InventoryMovement, error) {
	return (&movementTx{newTx(r.s)}).GetByID(ctx, id)
}

func (r *movementRepo) List(ctx context.Context, f repository.MovementFilter, limit int) ([]*entity.InventoryMovement, error) {
	return (&movementTx{newTx(r.s)}).List(ctx, f, limit)
}

func (r *movementRepo) LatestID(ctx context.Context) (int64, error) {
	return (&movementTx{newTx(r.s)}).LatestID(ctx)
}

func (r *movementRepo) DeleteByItem(ctx context.Context, itemID int64) error {
	return r.s.atomically(ctx, func(t *tx) error { return (&movementTx{t}).DeleteByItem(ctx, itemID) })
}
