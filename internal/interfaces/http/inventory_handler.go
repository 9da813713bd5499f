package http

import (
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/inventory-ledger/internal/application/dto"
	inventoryapp "github.com/jhoicas/inventory-ledger/internal/application/inventory"
	"github.com/jhoicas/inventory-ledger/internal/domain"
	"github.com/jhoicas/inventory-ledger/internal/domain/entity"
)

const (
	defaultMovementLimit = 100
	maxMovementLimit     = 1000
)

// InventoryHandler maneja las mutaciones de stock y los reportes (protegido).
type InventoryHandler struct {
	engine        *inventoryapp.StockEngine
	ledger        *inventoryapp.Ledger
	query         *inventoryapp.QueryService
	replenishment *inventoryapp.ReplenishmentUseCase
}

// NewInventoryHandler construye el handler.
func NewInventoryHandler(engine *inventoryapp.StockEngine, ledger *inventoryapp.Ledger, query *inventoryapp.QueryService, replenishment *inventoryapp.ReplenishmentUseCase) *InventoryHandler {
	return &InventoryHandler{engine: engine, ledger: ledger, query: query, replenishment: replenishment}
}

// Adjust godoc
// @Summary      Ajustar existencia con un delta con signo
// @Tags         inventory
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  int                true  "ID del item"
// @Param        body  body  dto.AdjustRequest  true  "Delta y motivo"
// @Success      200   {object}  dto.MutationResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /api/items/{id}/adjust [post]
func (h *InventoryHandler) Adjust(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return writeError(c, err)
	}
	var in dto.AdjustRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	res, err := h.engine.Adjust(c.UserContext(), inventoryapp.AdjustInput{
		ItemID:  id,
		Delta:   in.Delta,
		ActorID: GetUserID(c),
		Reason:  in.Reason,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(inventoryapp.ToMutationResponse(res))
}

// Receive godoc
// @Summary      Registrar entrada de mercancía
// @Tags         inventory
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  int                 true  "ID del item"
// @Param        body  body  dto.ReceiveRequest  true  "Cantidad, referencia y costo unitario opcional"
// @Success      200   {object}  dto.MutationResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /api/items/{id}/receive [post]
func (h *InventoryHandler) Receive(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return writeError(c, err)
	}
	var in dto.ReceiveRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	res, err := h.engine.Receive(c.UserContext(), inventoryapp.ReceiveInput{
		ItemID:    id,
		Quantity:  in.Quantity,
		ActorID:   GetUserID(c),
		Reference: in.Reference,
		Notes:     in.Notes,
		UnitCost:  in.UnitCost,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(inventoryapp.ToMutationResponse(res))
}

// Issue godoc
// @Summary      Registrar salida de mercancía
// @Tags         inventory
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  int               true  "ID del item"
// @Param        body  body  dto.IssueRequest  true  "Cantidad y referencia"
// @Success      200   {object}  dto.MutationResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse  "stock insuficiente"
// @Router       /api/items/{id}/issue [post]
func (h *InventoryHandler) Issue(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return writeError(c, err)
	}
	var in dto.IssueRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	res, err := h.engine.Issue(c.UserContext(), inventoryapp.IssueInput{
		ItemID:    id,
		Quantity:  in.Quantity,
		ActorID:   GetUserID(c),
		Reference: in.Reference,
		Notes:     in.Notes,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(inventoryapp.ToMutationResponse(res))
}

// Transfer godoc
// @Summary      Trasladar cantidad entre dos items
// @Tags         inventory
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.TransferRequest  true  "Origen, destino y cantidad"
// @Success      200   {object}  dto.TransferResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse  "stock insuficiente en origen"
// @Router       /api/inventory/transfer [post]
func (h *InventoryHandler) Transfer(c *fiber.Ctx) error {
	var in dto.TransferRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	res, err := h.engine.Transfer(c.UserContext(), inventoryapp.TransferInput{
		FromItemID: in.FromItemID,
		ToItemID:   in.ToItemID,
		Quantity:   in.Quantity,
		ActorID:    GetUserID(c),
		Notes:      in.Notes,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(inventoryapp.ToTransferResponse(res))
}

// Movements godoc
// @Summary      Historial de movimientos (más reciente primero)
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        item_id  query  int     false  "Item"
// @Param        type     query  string  false  "INBOUND | OUTBOUND | TRANSFER | ADJUSTMENT | RETURN | DAMAGED | LOST"
// @Param        from     query  string  false  "Desde (RFC3339)"
// @Param        to       query  string  false  "Hasta (RFC3339)"
// @Param        limit    query  int     false  "Máximo de movimientos"  default(100)
// @Success      200  {object}  dto.MovementListResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/inventory/movements [get]
func (h *InventoryHandler) Movements(c *fiber.Ctx) error {
	q, err := parseMovementQuery(c)
	if err != nil {
		return writeError(c, err)
	}
	limit := c.QueryInt("limit", defaultMovementLimit)
	if limit <= 0 || limit > maxMovementLimit {
		limit = defaultMovementLimit
	}
	movs, err := h.ledger.Collect(c.UserContext(), q, limit)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.MovementListResponse{Items: inventoryapp.ToMovementResponses(movs), Count: len(movs)})
}

func parseMovementQuery(c *fiber.Ctx) (inventoryapp.MovementQuery, error) {
	var q inventoryapp.MovementQuery
	itemID, err := queryInt64(c, "item_id")
	if err != nil {
		return q, fmt.Errorf("item_id: %w", domain.ErrInvalidInput)
	}
	q.ItemID = itemID
	if raw := c.Query("type"); raw != "" {
		t := entity.MovementType(raw)
		if !t.Valid() {
			return q, fmt.Errorf("type %q: %w", raw, domain.ErrInvalidInput)
		}
		q.Type = &t
	}
	for key, dst := range map[string]**time.Time{"from": &q.From, "to": &q.To} {
		raw := c.Query(key)
		if raw == "" {
			continue
		}
		ts, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return q, fmt.Errorf("%s: %w", key, domain.ErrInvalidInput)
		}
		*dst = &ts
	}
	return q, nil
}

// Summary godoc
// @Summary      Resumen del inventario
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  dto.InventorySummaryResponse
// @Router       /api/inventory/summary [get]
func (h *InventoryHandler) Summary(c *fiber.Ctx) error {
	out, err := h.query.Summary(c.UserContext())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// LowStock godoc
// @Summary      Items en o bajo el punto de reorden
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Success      200  {array}  dto.LowStockItemResponse
// @Router       /api/inventory/low-stock [get]
func (h *InventoryHandler) LowStock(c *fiber.Ctx) error {
	out, err := h.query.LowStock(c.UserContext())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// Overstock godoc
// @Summary      Items por encima del stock máximo
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Success      200  {array}  dto.OverstockItemResponse
// @Router       /api/inventory/overstock [get]
func (h *InventoryHandler) Overstock(c *fiber.Ctx) error {
	out, err := h.query.Overstock(c.UserContext())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// StockCount godoc
// @Summary      Planilla de conteo físico
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        location_id  query  int  false  "Ubicación"
// @Success      200  {object}  dto.StockCountResponse
// @Router       /api/inventory/stock-count [get]
func (h *InventoryHandler) StockCount(c *fiber.Ctx) error {
	locationID, err := queryInt64(c, "location_id")
	if err != nil {
		return writeError(c, fmt.Errorf("location_id: %w", domain.ErrInvalidInput))
	}
	out, err := h.query.StockCount(c.UserContext(), locationID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// ReplenishmentList godoc
// @Summary      Sugerencias de reposición
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        location_id  query  int  false  "Ubicación"
// @Success      200  {array}  dto.ReplenishmentSuggestionDTO
// @Router       /api/inventory/replenishment-list [get]
func (h *InventoryHandler) ReplenishmentList(c *fiber.Ctx) error {
	locationID, err := queryInt64(c, "location_id")
	if err != nil {
		return writeError(c, fmt.Errorf("location_id: %w", domain.ErrInvalidInput))
	}
	out, err := h.replenishment.GenerateReplenishmentList(c.UserContext(), locationID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}
