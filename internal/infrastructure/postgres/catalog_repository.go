package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/inventory-ledger/internal/domain"
	"github.com/jhoicas/inventory-ledger/internal/domain/entity"
	"github.com/jhoicas/inventory-ledger/internal/domain/repository"
)

var (
	_ repository.CategoryRepository = (*CategoryRepo)(nil)
	_ repository.SupplierRepository = (*SupplierRepo)(nil)
	_ repository.LocationRepository = (*LocationRepo)(nil)
)

// queryOne ejecuta una consulta de una fila y traduce "sin filas" a (nil, nil).
func queryOne[T any](ctx context.Context, q Querier, op string, scan func(pgx.Row) (*T, error), query string, args ...any) (*T, error) {
	v, err := scan(q.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, wrapErr(op, err)
	}
	return v, nil
}

func queryAll[T any](ctx context.Context, q Querier, op string, scan func(pgx.Row) (*T, error), query string, args ...any) ([]*T, error) {
	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, wrapErr(op, err)
	}
	defer rows.Close()
	list := make([]*T, 0)
	for rows.Next() {
		v, err := scan(rows)
		if err != nil {
			return nil, wrapErr(op, err)
		}
		list = append(list, v)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapErr(op, err)
	}
	return list, nil
}

// ── categorías ───────────────────────────────────────────────────────────────

const categoryColumns = `id, parent_id, name, description, is_active, created_at, updated_at`

// CategoryRepo categorías en PostgreSQL.
type CategoryRepo struct{ q Querier }

// NewCategoryRepository construye el adaptador.
func NewCategoryRepository(q Querier) *CategoryRepo { return &CategoryRepo{q: q} }

func scanCategory(row pgx.Row) (*entity.Category, error) {
	var c entity.Category
	if err := row.Scan(&c.ID, &c.ParentID, &c.Name, &c.Description, &c.IsActive, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *CategoryRepo) Create(ctx context.Context, c *entity.Category) error {
	query := `
		INSERT INTO categories (parent_id, name, description, is_active)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, updated_at`
	err := r.q.QueryRow(ctx, query, c.ParentID, c.Name, c.Description, c.IsActive).Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("category %s: %w", c.Name, domain.ErrDuplicate)
		}
		return wrapErr("create category", err)
	}
	return nil
}

func (r *CategoryRepo) GetByID(ctx context.Context, id int64) (*entity.Category, error) {
	return queryOne(ctx, r.q, "get category", scanCategory, `SELECT `+categoryColumns+` FROM categories WHERE id = $1`, id)
}

func (r *CategoryRepo) GetByName(ctx context.Context, name string) (*entity.Category, error) {
	return queryOne(ctx, r.q, "get category by name", scanCategory, `SELECT `+categoryColumns+` FROM categories WHERE lower(name) = lower($1)`, name)
}

func (r *CategoryRepo) List(ctx context.Context) ([]*entity.Category, error) {
	return queryAll(ctx, r.q, "list categories", scanCategory, `SELECT `+categoryColumns+` FROM categories ORDER BY name`)
}

// ── proveedores ──────────────────────────────────────────────────────────────

const supplierColumns = `id, name, contact_person, email, phone, address, city, country, tax_id,
	payment_terms, rating, is_active, created_at, updated_at`

// SupplierRepo proveedores en PostgreSQL.
type SupplierRepo struct{ q Querier }

// NewSupplierRepository construye el adaptador.
func NewSupplierRepository(q Querier) *SupplierRepo { return &SupplierRepo{q: q} }

func scanSupplier(row pgx.Row) (*entity.Supplier, error) {
	var s entity.Supplier
	err := row.Scan(&s.ID, &s.Name, &s.ContactPerson, &s.Email, &s.Phone, &s.Address, &s.City, &s.Country, &s.TaxID,
		&s.PaymentTerms, &s.Rating, &s.IsActive, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *SupplierRepo) Create(ctx context.Context, s *entity.Supplier) error {
	query := `
		INSERT INTO suppliers (name, contact_person, email, phone, address, city, country, tax_id, payment_terms, rating, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id, created_at, updated_at`
	err := r.q.QueryRow(ctx, query,
		s.Name, s.ContactPerson, s.Email, s.Phone, s.Address, s.City, s.Country, s.TaxID, s.PaymentTerms, s.Rating, s.IsActive,
	).Scan(&s.ID, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("supplier %s: %w", s.Name, domain.ErrDuplicate)
		}
		return wrapErr("create supplier", err)
	}
	return nil
}

func (r *SupplierRepo) GetByID(ctx context.Context, id int64) (*entity.Supplier, error) {
	return queryOne(ctx, r.q, "get supplier", scanSupplier, `SELECT `+supplierColumns+` FROM suppliers WHERE id = $1`, id)
}

func (r *SupplierRepo) GetByName(ctx context.Context, name string) (*entity.Supplier, error) {
	return queryOne(ctx, r.q, "get supplier by name", scanSupplier, `SELECT `+supplierColumns+` FROM suppliers WHERE lower(name) = lower($1)`, name)
}

func (r *SupplierRepo) List(ctx context.Context) ([]*entity.Supplier, error) {
	return queryAll(ctx, r.q, "list suppliers", scanSupplier, `SELECT `+supplierColumns+` FROM suppliers ORDER BY name`)
}

// ── ubicaciones ──────────────────────────────────────────────────────────────

const locationColumns = `id, parent_id, name, code, description, location_type, address, capacity, is_active, created_at, updated_at`

// LocationRepo ubicaciones en PostgreSQL.
type LocationRepo struct{ q Querier }

// NewLocationRepository construye el adaptador.
func NewLocationRepository(q Querier) *LocationRepo { return &LocationRepo{q: q} }

func scanLocation(row pgx.Row) (*entity.Location, error) {
	var l entity.Location
	err := row.Scan(&l.ID, &l.ParentID, &l.Name, &l.Code, &l.Description, &l.Type, &l.Address, &l.Capacity,
		&l.IsActive, &l.CreatedAt, &l.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &l, nil
}

func (r *LocationRepo) Create(ctx context.Context, l *entity.Location) error {
	query := `
		INSERT INTO locations (parent_id, name, code, description, location_type, address, capacity, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at, updated_at`
	err := r.q.QueryRow(ctx, query,
		l.ParentID, l.Name, l.Code, l.Description, l.Type, l.Address, l.Capacity, l.IsActive,
	).Scan(&l.ID, &l.CreatedAt, &l.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("location %s: %w", l.Code, domain.ErrDuplicate)
		}
		return wrapErr("create location", err)
	}
	return nil
}

func (r *LocationRepo) GetByID(ctx context.Context, id int64) (*entity.Location, error) {
	return queryOne(ctx, r.q, "get location", scanLocation, `SELECT `+locationColumns+` FROM locations WHERE id = $1`, id)
}

func (r *LocationRepo) GetByCode(ctx context.Context, code string) (*entity.Location, error) {
	return queryOne(ctx, r.q, "get location by code", scanLocation, `SELECT `+locationColumns+` FROM locations WHERE lower(code) = lower($1)`, code)
}

func (r *LocationRepo) List(ctx context.Context) ([]*entity.Location, error) {
	return queryAll(ctx, r.q, "list locations", scanLocation, `SELECT `+locationColumns+` FROM locations ORDER BY code`)
}
