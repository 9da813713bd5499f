package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/jhoicas/inventory-ledger/internal/application/dto"
	"github.com/jhoicas/inventory-ledger/internal/domain"
	"github.com/jhoicas/inventory-ledger/internal/domain/entity"
	"github.com/jhoicas/inventory-ledger/internal/domain/repository"
)

// CatalogUseCase alta y listado de categorías, proveedores y ubicaciones.
type CatalogUseCase struct {
	categories repository.CategoryRepository
	suppliers  repository.SupplierRepository
	locations  repository.LocationRepository
}

// NewCatalogUseCase construye el caso de uso.
func NewCatalogUseCase(categories repository.CategoryRepository, suppliers repository.SupplierRepository, locations repository.LocationRepository) *CatalogUseCase {
	return &CatalogUseCase{categories: categories, suppliers: suppliers, locations: locations}
}

// CreateCategory crea una categoría; el nombre es único sin distinguir mayúsculas.
func (uc *CatalogUseCase) CreateCategory(ctx context.Context, in dto.CreateCategoryRequest) (*dto.CategoryResponse, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: name es requerido", domain.ErrInvalidInput)
	}
	if in.ParentID != nil {
		parent, err := uc.categories.GetByID(ctx, *in.ParentID)
		if err != nil {
			return nil, err
		}
		if parent == nil {
			return nil, fmt.Errorf("%w: categoría padre %d no existe", domain.ErrInvalidInput, *in.ParentID)
		}
	}
	c := &entity.Category{Name: name, Description: in.Description, ParentID: in.ParentID, IsActive: true}
	if err := uc.categories.Create(ctx, c); err != nil {
		return nil, err
	}
	return toCategoryResponse(c), nil
}

// ListCategories lista todas las categorías.
func (uc *CatalogUseCase) ListCategories(ctx context.Context) ([]dto.CategoryResponse, error) {
	list, err := uc.categories.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]dto.CategoryResponse, 0, len(list))
	for _, c := range list {
		out = append(out, *toCategoryResponse(c))
	}
	return out, nil
}

// CreateSupplier crea un proveedor. Rating entre 0 y 5.
func (uc *CatalogUseCase) CreateSupplier(ctx context.Context, in dto.CreateSupplierRequest) (*dto.SupplierResponse, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: name es requerido", domain.ErrInvalidInput)
	}
	if in.Rating < 0 || in.Rating > 5 {
		return nil, fmt.Errorf("%w: rating debe estar entre 0 y 5", domain.ErrInvalidInput)
	}
	s := &entity.Supplier{
		Name:          name,
		ContactPerson: in.ContactPerson,
		Email:         in.Email,
		Phone:         in.Phone,
		Address:       in.Address,
		City:          in.City,
		Country:       in.Country,
		TaxID:         in.TaxID,
		PaymentTerms:  in.PaymentTerms,
		Rating:        in.Rating,
		IsActive:      true,
	}
	if err := uc.suppliers.Create(ctx, s); err != nil {
		return nil, err
	}
	return toSupplierResponse(s), nil
}

// ListSuppliers lista todos los proveedores.
func (uc *CatalogUseCase) ListSuppliers(ctx context.Context) ([]dto.SupplierResponse, error) {
	list, err := uc.suppliers.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]dto.SupplierResponse, 0, len(list))
	for _, s := range list {
		out = append(out, *toSupplierResponse(s))
	}
	return out, nil
}

// CreateLocation crea una ubicación; el código es único.
func (uc *CatalogUseCase) CreateLocation(ctx context.Context, in dto.CreateLocationRequest) (*dto.LocationResponse, error) {
	name, code := strings.TrimSpace(in.Name), strings.TrimSpace(in.Code)
	if name == "" || code == "" {
		return nil, fmt.Errorf("%w: name y code son requeridos", domain.ErrInvalidInput)
	}
	if in.Capacity != nil && *in.Capacity < 0 {
		return nil, fmt.Errorf("%w: capacity negativa", domain.ErrInvalidInput)
	}
	if in.ParentID != nil {
		parent, err := uc.locations.GetByID(ctx, *in.ParentID)
		if err != nil {
			return nil, err
		}
		if parent == nil {
			return nil, fmt.Errorf("%w: ubicación padre %d no existe", domain.ErrInvalidInput, *in.ParentID)
		}
	}
	l := &entity.Location{
		ParentID:    in.ParentID,
		Name:        name,
		Code:        code,
		Description: in.Description,
		Type:        in.Type,
		Address:     in.Address,
		Capacity:    in.Capacity,
		IsActive:    true,
	}
	if err := uc.locations.Create(ctx, l); err != nil {
		return nil, err
	}
	return toLocationResponse(l), nil
}

// ListLocations lista todas las ubicaciones.
func (uc *CatalogUseCase) ListLocations(ctx context.Context) ([]dto.LocationResponse, error) {
	list, err := uc.locations.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]dto.LocationResponse, 0, len(list))
	for _, l := range list {
		out = append(out, *toLocationResponse(l))
	}
	return out, nil
}

func toCategoryResponse(c *entity.Category) *dto.CategoryResponse {
	return &dto.CategoryResponse{
		ID:          c.ID,
		ParentID:    c.ParentID,
		Name:        c.Name,
		Description: c.Description,
		IsActive:    c.IsActive,
		CreatedAt:   c.CreatedAt,
	}
}

func toSupplierResponse(s *entity.Supplier) *dto.SupplierResponse {
	return &dto.SupplierResponse{
		ID:            s.ID,
		Name:          s.Name,
		ContactPerson: s.ContactPerson,
		Email:         s.Email,
		Phone:         s.Phone,
		Address:       s.Address,
		City:          s.City,
		Country:       s.Country,
		TaxID:         s.TaxID,
		PaymentTerms:  s.PaymentTerms,
		Rating:        s.Rating,
		IsActive:      s.IsActive,
		CreatedAt:     s.CreatedAt,
	}
}

func toLocationResponse(l *entity.Location) *dto.LocationResponse {
	return &dto.LocationResponse{
		ID:          l.ID,
		ParentID:    l.ParentID,
		Name:        l.Name,
		Code:        l.Code,
		Description: l.Description,
		Type:        l.Type,
		Address:     l.Address,
		Capacity:    l.Capacity,
		IsActive:    l.IsActive,
		CreatedAt:   l.CreatedAt,
	}
}
