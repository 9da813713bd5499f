package inventory

import (
	"github.com/jhoicas/inventory-ledger/internal/application/dto"
	"github.com/jhoicas/inventory-ledger/internal/domain/entity"
	"github.com/jhoicas/inventory-ledger/internal/domain/inventory"
)

// ToItemResponse mapea un item con su estado derivado.
func ToItemResponse(i *entity.Item) dto.ItemResponse {
	return dto.ItemResponse{
		ID:                i.ID,
		SKU:               i.SKU,
		Barcode:           i.Barcode,
		Name:              i.Name,
		Description:       i.Description,
		CategoryID:        i.CategoryID,
		SupplierID:        i.SupplierID,
		LocationID:        i.LocationID,
		Unit:              i.Unit,
		Quantity:          i.Quantity,
		ReservedQuantity:  i.ReservedQuantity,
		AvailableQuantity: i.AvailableQuantity,
		MinStock:          i.MinStock,
		MaxStock:          i.MaxStock,
		ReorderPoint:      i.ReorderPoint,
		ReorderQuantity:   i.ReorderQuantity,
		Price:             i.Price,
		Cost:              i.Cost,
		LastCost:          i.LastCost,
		AverageCost:       i.AverageCost,
		TotalValue:        i.TotalValue(),
		StockStatus:       string(inventory.StatusOf(i)),
		IsActive:          i.IsActive,
		CreatedAt:         i.CreatedAt,
		UpdatedAt:         i.UpdatedAt,
		LastMovement:      i.LastMovement,
	}
}

// ToMovementResponse mapea una entrada del libro.
func ToMovementResponse(m *entity.InventoryMovement) dto.MovementResponse {
	return dto.MovementResponse{
		ID:              m.ID,
		TransactionID:   m.TransactionID,
		ItemID:          m.ItemID,
		UserID:          m.UserID,
		LocationID:      m.LocationID,
		MovementType:    string(m.Type),
		Quantity:        m.Quantity,
		QuantityBefore:  m.QuantityBefore,
		QuantityAfter:   m.QuantityAfter,
		UnitCost:        m.UnitCost,
		TotalCost:       m.TotalCost,
		ReferenceNumber: m.ReferenceNumber,
		Reason:          m.Reason,
		Notes:           m.Notes,
		CreatedAt:       m.CreatedAt,
	}
}

// ToMovementResponses mapea una lista de movimientos.
func ToMovementResponses(movs []*entity.InventoryMovement) []dto.MovementResponse {
	out := make([]dto.MovementResponse, 0, len(movs))
	for _, m := range movs {
		out = append(out, ToMovementResponse(m))
	}
	return out
}

// ToMutationResponse mapea el resultado del motor.
func ToMutationResponse(r *MutationResult) dto.MutationResponse {
	return dto.MutationResponse{
		ItemID:        r.ItemID,
		OldQuantity:   r.OldQuantity,
		NewQuantity:   r.NewQuantity,
		Delta:         r.Delta,
		MovementID:    r.MovementID,
		MovementType:  string(r.MovementType),
		TransactionID: r.TransactionID,
		StockStatus:   string(r.StockStatus),
		Timestamp:     r.Timestamp,
	}
}

// ToTransferResponse mapea el resultado de un traslado.
func ToTransferResponse(r *TransferResult) dto.TransferResponse {
	return dto.TransferResponse{
		FromItemID:     r.FromItemID,
		ToItemID:       r.ToItemID,
		Quantity:       r.Quantity,
		FromMovementID: r.FromMovementID,
		ToMovementID:   r.ToMovementID,
		TransactionID:  r.TransactionID,
		Timestamp:      r.Timestamp,
	}
}
