package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jhoicas/inventory-ledger/internal/application/dto"
	inventoryapp "github.com/jhoicas/inventory-ledger/internal/application/inventory"
	"github.com/jhoicas/inventory-ledger/internal/domain"
	"github.com/jhoicas/inventory-ledger/internal/domain/entity"
	"github.com/jhoicas/inventory-ledger/internal/domain/inventory"
	"github.com/jhoicas/inventory-ledger/internal/domain/repository"
)

// recentMovementsLimit movimientos que acompañan al detalle de un item.
const recentMovementsLimit = 10

// ItemValidator reglas adicionales de catálogo (el registro de reglas).
type ItemValidator interface {
	Validate(item *entity.Item) error
}

// ItemUseCase casos de uso del catálogo de items. Las cantidades solo cambian vía el motor de stock.
type ItemUseCase struct {
	engine     *inventoryapp.StockEngine
	txRunner   inventoryapp.TxRunner
	itemRepo   repository.ItemRepository
	categories repository.CategoryRepository
	suppliers  repository.SupplierRepository
	locations  repository.LocationRepository
	ledger     *inventoryapp.Ledger
	validator  ItemValidator
	now        func() time.Time
}

// ItemUseCaseDeps dependencias del caso de uso.
type ItemUseCaseDeps struct {
	Engine     *inventoryapp.StockEngine
	TxRunner   inventoryapp.TxRunner
	Items      repository.ItemRepository
	Movements  repository.InventoryMovementRepository
	Categories repository.CategoryRepository
	Suppliers  repository.SupplierRepository
	Locations  repository.LocationRepository
	Validator  ItemValidator // opcional
}

// NewItemUseCase construye el caso de uso.
func NewItemUseCase(d ItemUseCaseDeps) *ItemUseCase {
	return &ItemUseCase{
		engine:     d.Engine,
		txRunner:   d.TxRunner,
		itemRepo:   d.Items,
		categories: d.Categories,
		suppliers:  d.Suppliers,
		locations:  d.Locations,
		ledger:     inventoryapp.NewLedger(d.Movements),
		validator:  d.Validator,
		now:        time.Now,
	}
}

// Create da de alta un item. La existencia inicial queda registrada como movimiento de entrada.
func (uc *ItemUseCase) Create(ctx context.Context, actorID int64, in dto.CreateItemRequest) (*dto.ItemResponse, error) {
	item := &entity.Item{
		SKU:             strings.TrimSpace(in.SKU),
		Barcode:         in.Barcode,
		Name:            strings.TrimSpace(in.Name),
		Description:     in.Description,
		CategoryID:      in.CategoryID,
		SupplierID:      in.SupplierID,
		LocationID:      in.LocationID,
		Unit:            in.Unit,
		Quantity:        in.Quantity,
		MaxStock:        entity.DefaultMaxStock,
		ReorderPoint:    entity.DefaultReorderPoint,
		ReorderQuantity: entity.DefaultReorderQuantity,
		Price:           in.Price,
		Cost:            in.Cost,
		IsActive:        true,
	}
	if item.Unit == "" {
		item.Unit = entity.DefaultUnit
	}
	if in.MinStock != nil {
		item.MinStock = *in.MinStock
	}
	if in.MaxStock != nil {
		item.MaxStock = *in.MaxStock
	}
	if in.ReorderPoint != nil {
		item.ReorderPoint = *in.ReorderPoint
	}
	if in.ReorderQuantity != nil {
		item.ReorderQuantity = *in.ReorderQuantity
	}
	if err := uc.validate(ctx, item); err != nil {
		return nil, err
	}
	existing, err := uc.itemRepo.GetBySKU(ctx, item.SKU)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, fmt.Errorf("sku %s: %w", item.SKU, domain.ErrDuplicate)
	}

	created, _, err := uc.engine.Open(ctx, item, actorID)
	if err != nil {
		return nil, err
	}
	out := inventoryapp.ToItemResponse(created)
	return &out, nil
}

// Get devuelve el item con sus movimientos más recientes.
func (uc *ItemUseCase) Get(ctx context.Context, id int64) (*dto.ItemResponse, error) {
	item, err := uc.find(ctx, id)
	if err != nil {
		return nil, err
	}
	movs, err := uc.ledger.Recent(ctx, id, recentMovementsLimit)
	if err != nil {
		return nil, err
	}
	out := inventoryapp.ToItemResponse(item)
	out.RecentMovements = inventoryapp.ToMovementResponses(movs)
	return &out, nil
}

// Update modifica los campos de catálogo. Si trae quantity, la diferencia se registra como
// ajuste a través del motor de stock antes de escribir el catálogo: si el ajuste falla no
// queda ningún cambio. La escritura del catálogo se hace sobre la fila bloqueada, así que
// is_active y las cantidades vigentes no se pisan con una lectura vieja.
func (uc *ItemUseCase) Update(ctx context.Context, actorID, id int64, in dto.UpdateItemRequest) (*dto.ItemResponse, error) {
	if in.Quantity != nil && *in.Quantity < 0 {
		return nil, domain.InvalidOperation("la cantidad no puede ser negativa, recibido %d", *in.Quantity)
	}
	item, err := uc.find(ctx, id)
	if err != nil {
		return nil, err
	}
	applyUpdate(item, in)
	if err := uc.validate(ctx, item); err != nil {
		return nil, err
	}
	if in.Quantity != nil {
		if _, err := uc.engine.SetQuantity(ctx, inventoryapp.SetQuantityInput{
			ItemID:   id,
			Quantity: *in.Quantity,
			ActorID:  actorID,
			Reason:   in.Reason,
		}); err != nil {
			return nil, err
		}
	}
	err = uc.txRunner.Run(ctx, func(
		itemRepo repository.ItemRepository,
		_ repository.InventoryMovementRepository,
		_ repository.AlertRepository,
	) error {
		cur, err := itemRepo.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if cur == nil {
			return fmt.Errorf("item %d: %w", id, domain.ErrNotFound)
		}
		applyUpdate(cur, in)
		cur.UpdatedAt = uc.now()
		return itemRepo.Update(ctx, cur)
	})
	if err != nil {
		return nil, err
	}
	return uc.Get(ctx, id)
}

// applyUpdate copia al item los campos presentes en la petición.
func applyUpdate(item *entity.Item, in dto.UpdateItemRequest) {
	if in.Barcode != nil {
		item.Barcode = *in.Barcode
	}
	if in.Name != nil {
		item.Name = strings.TrimSpace(*in.Name)
	}
	if in.Description != nil {
		item.Description = *in.Description
	}
	if in.CategoryID != nil {
		item.CategoryID = *in.CategoryID
	}
	if in.SupplierID != nil {
		item.SupplierID = in.SupplierID
	}
	if in.LocationID != nil {
		item.LocationID = in.LocationID
	}
	if in.Unit != nil {
		item.Unit = *in.Unit
	}
	if in.MinStock != nil {
		item.MinStock = *in.MinStock
	}
	if in.MaxStock != nil {
		item.MaxStock = *in.MaxStock
	}
	if in.ReorderPoint != nil {
		item.ReorderPoint = *in.ReorderPoint
	}
	if in.ReorderQuantity != nil {
		item.ReorderQuantity = *in.ReorderQuantity
	}
	if in.Price != nil {
		item.Price = in.Price
	}
	if in.Cost != nil {
		item.Cost = in.Cost
	}
}

// SetActive activa o desactiva el item.
func (uc *ItemUseCase) SetActive(ctx context.Context, id int64, active bool) (*dto.ItemResponse, error) {
	var out dto.ItemResponse
	err := uc.txRunner.Run(ctx, func(
		itemRepo repository.ItemRepository,
		_ repository.InventoryMovementRepository,
		_ repository.AlertRepository,
	) error {
		item, err := itemRepo.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if item == nil {
			return fmt.Errorf("item %d: %w", id, domain.ErrNotFound)
		}
		if item.IsActive != active {
			item.IsActive = active
			item.UpdatedAt = uc.now()
			if err := itemRepo.Update(ctx, item); err != nil {
				return err
			}
		}
		out = inventoryapp.ToItemResponse(item)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Delete elimina un item sin existencia junto con su historial y sus alertas.
func (uc *ItemUseCase) Delete(ctx context.Context, id int64) error {
	return uc.txRunner.Run(ctx, func(
		itemRepo repository.ItemRepository,
		movRepo repository.InventoryMovementRepository,
		alertRepo repository.AlertRepository,
	) error {
		item, err := itemRepo.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if item == nil {
			return fmt.Errorf("item %d: %w", id, domain.ErrNotFound)
		}
		if item.Quantity != 0 {
			return domain.InvalidOperation("el item %d tiene existencia %d; solo se elimina con existencia cero", id, item.Quantity)
		}
		if err := movRepo.DeleteByItem(ctx, id); err != nil {
			return err
		}
		if err := alertRepo.DeleteByItem(ctx, id); err != nil {
			return err
		}
		return itemRepo.Delete(ctx, id)
	})
}

func (uc *ItemUseCase) find(ctx context.Context, id int64) (*entity.Item, error) {
	item, err := uc.itemRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, fmt.Errorf("item %d: %w", id, domain.ErrNotFound)
	}
	return item, nil
}

// validate invariantes estáticas, reglas de validación y referencias de catálogo.
func (uc *ItemUseCase) validate(ctx context.Context, item *entity.Item) error {
	if err := inventory.ValidateItem(item); err != nil {
		return err
	}
	if uc.validator != nil {
		if err := uc.validator.Validate(item); err != nil {
			return err
		}
	}
	cat, err := uc.categories.GetByID(ctx, item.CategoryID)
	if err != nil {
		return err
	}
	if cat == nil {
		return fmt.Errorf("%w: categoría %d no existe", domain.ErrInvalidInput, item.CategoryID)
	}
	if item.SupplierID != nil {
		sup, err := uc.suppliers.GetByID(ctx, *item.SupplierID)
		if err != nil {
			return err
		}
		if sup == nil {
			return fmt.Errorf("%w: proveedor %d no existe", domain.ErrInvalidInput, *item.SupplierID)
		}
	}
	if item.LocationID != nil {
		loc, err := uc.locations.GetByID(ctx, *item.LocationID)
		if err != nil {
			return err
		}
		if loc == nil {
			return fmt.Errorf("%w: ubicación %d no existe", domain.ErrInvalidInput, *item.LocationID)
		}
	}
	return nil
}
