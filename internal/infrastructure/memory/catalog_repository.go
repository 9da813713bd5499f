package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/jhoicas/inventory-ledger/internal/domain"
	"github.com/jhoicas/inventory-ledger/internal/domain/entity"
	"github.com/jhoicas/inventory-ledger/internal/domain/repository"
)

var (
	_ repository.CategoryRepository = (*categoryRepo)(nil)
	_ repository.SupplierRepository = (*supplierRepo)(nil)
	_ repository.LocationRepository = (*locationRepo)(nil)
)

type categoryRepo struct{ s *Store }

func (r *categoryRepo) Create(_ context.Context, c *entity.Category) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, other := range r.s.categories {
		if strings.EqualFold(other.Name, c.Name) {
			return fmt.Errorf("categoría %s: %w", c.Name, domain.ErrDuplicate)
		}
	}
	c.ID = r.s.catalogSeq.Add(1)
	stamp(&c.CreatedAt, &c.UpdatedAt)
	v := *c
	r.s.categories[c.ID] = &v
	return nil
}

func (r *categoryRepo) GetByID(_ context.Context, id int64) (*entity.Category, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	if c, ok := r.s.categories[id]; ok {
		v := *c
		return &v, nil
	}
	return nil, nil
}

func (r *categoryRepo) GetByName(_ context.Context, name string) (*entity.Category, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, c := range r.s.categories {
		if strings.EqualFold(c.Name, name) {
			v := *c
			return &v, nil
		}
	}
	return nil, nil
}

func (r *categoryRepo) List(context.Context) ([]*entity.Category, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := make([]*entity.Category, 0, len(r.s.categories))
	for _, c := range r.s.categories {
		v := *c
		out = append(out, &v)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

type supplierRepo struct{ s *Store }

func (r *supplierRepo) Create(_ context.Context, sp *entity.Supplier) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, other := range r.s.suppliers {
		if strings.EqualFold(other.Name, sp.Name) {
			return fmt.Errorf("proveedor %s: %w", sp.Name, domain.ErrDuplicate)
		}
	}
	sp.ID = r.s.catalogSeq.Add(1)
	stamp(&sp.CreatedAt, &sp.UpdatedAt)
	v := *sp
	r.s.suppliers[sp.ID] = &v
	return nil
}

func (r *supplierRepo) GetByID(_ context.Context, id int64) (*entity.Supplier, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	if sp, ok := r.s.suppliers[id]; ok {
		v := *sp
		return &v, nil
	}
	return nil, nil
}

func (r *supplierRepo) GetByName(_ context.Context, name string) (*entity.Supplier, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, sp := range r.s.suppliers {
		if strings.EqualFold(sp.Name, name) {
			v := *sp
			return &v, nil
		}
	}
	return nil, nil
}

func (r *supplierRepo) List(context.Context) ([]*entity.Supplier, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := make([]*entity.Supplier, 0, len(r.s.suppliers))
	for _, sp := range r.s.suppliers {
		v := *sp
		out = append(out, &v)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

type locationRepo struct{ s *Store }

func (r *locationRepo) Create(_ context.Context, l *entity.Location) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, other := range r.s.locations {
		if strings.EqualFold(other.Code, l.Code) {
			return fmt.Errorf("ubicación %s: %w", l.Code, domain.ErrDuplicate)
		}
	}
	l.ID = r.s.catalogSeq.Add(1)
	stamp(&l.CreatedAt, &l.UpdatedAt)
	v := *l
	r.s.locations[l.ID] = &v
	return nil
}

func (r *locationRepo) GetByID(_ context.Context, id int64) (*entity.Location, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	if l, ok := r.s.locations[id]; ok {
		v := *l
		return &v, nil
	}
	return nil, nil
}

func (r *locationRepo) GetByCode(_ context.Context, code string) (*entity.Location, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, l := range r.s.locations {
		if strings.EqualFold(l.Code, code) {
			v := *l
			return &v, nil
		}
	}
	return nil, nil
}

func (r *locationRepo) List(context.Context) ([]*entity.Location, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := make([]*entity.Location, 0, len(r.s.locations))
	for _, l := range r.s.locations {
		v := *l
		out = append(out, &v)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func stamp(created, updated *time.Time) {
	now := time.Now()
	if created.IsZero() {
		*created = now
	}
	if updated.IsZero() {
		*updated = *created
	}
}
