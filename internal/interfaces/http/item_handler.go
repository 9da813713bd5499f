package http

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/inventory-ledger/internal/application/dto"
	inventoryapp "github.com/jhoicas/inventory-ledger/internal/application/inventory"
	"github.com/jhoicas/inventory-ledger/internal/application/usecase"
	"github.com/jhoicas/inventory-ledger/internal/domain/inventory"
	"github.com/jhoicas/inventory-ledger/internal/domain/repository"
)

// ItemHandler maneja el catálogo de items (protegido).
type ItemHandler struct {
	uc    *usecase.ItemUseCase
	query *inventoryapp.QueryService
}

// NewItemHandler construye el handler.
func NewItemHandler(uc *usecase.ItemUseCase, query *inventoryapp.QueryService) *ItemHandler {
	return &ItemHandler{uc: uc, query: query}
}

// List godoc
// @Summary      Listar items
// @Tags         items
// @Security     Bearer
// @Produce      json
// @Param        category_id   query  int     false  "Categoría"
// @Param        supplier_id   query  int     false  "Proveedor"
// @Param        location_id   query  int     false  "Ubicación"
// @Param        is_active     query  bool    false  "Activo"
// @Param        status        query  string  false  "out_of_stock | low_stock | normal | overstock"
// @Param        search        query  string  false  "Texto en nombre, sku, descripción o código de barras"
// @Param        min_quantity  query  int     false  "Cantidad mínima"
// @Param        max_quantity  query  int     false  "Cantidad máxima"
// @Param        min_price     query  string  false  "Precio mínimo"
// @Param        max_price     query  string  false  "Precio máximo"
// @Param        page          query  int     false  "Página"  default(1)
// @Param        page_size     query  int     false  "Tamaño"  default(20)
// @Success      200  {object}  dto.ItemListResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/items [get]
func (h *ItemHandler) List(c *fiber.Ctx) error {
	filter, err := parseItemFilter(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_QUERY", Message: err.Error()})
	}
	page := dto.PageRequest{Page: c.QueryInt("page", 1), PageSize: c.QueryInt("page_size", 20)}
	out, err := h.query.List(c.UserContext(), filter, page)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

func parseItemFilter(c *fiber.Ctx) (repository.ItemFilter, error) {
	var f repository.ItemFilter
	var err error
	if f.CategoryID, err = queryInt64(c, "category_id"); err != nil {
		return f, err
	}
	if f.SupplierID, err = queryInt64(c, "supplier_id"); err != nil {
		return f, err
	}
	if f.LocationID, err = queryInt64(c, "location_id"); err != nil {
		return f, err
	}
	if f.MinQuantity, err = queryInt64(c, "min_quantity"); err != nil {
		return f, err
	}
	if f.MaxQuantity, err = queryInt64(c, "max_quantity"); err != nil {
		return f, err
	}
	if raw := c.Query("is_active"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			return f, err
		}
		f.IsActive = &v
	}
	if raw := c.Query("status"); raw != "" {
		st, err := inventory.ParseStockStatus(raw)
		if err != nil {
			return f, err
		}
		f.Status = &st
	}
	if raw := c.Query("min_price"); raw != "" {
		d, err := decimal.NewFromString(raw)
		if err != nil {
			return f, err
		}
		f.MinPrice = &d
	}
	if raw := c.Query("max_price"); raw != "" {
		d, err := decimal.NewFromString(raw)
		if err != nil {
			return f, err
		}
		f.MaxPrice = &d
	}
	f.Search = c.Query("search")
	return f, nil
}

// Create godoc
// @Summary      Crear item
// @Description  Una cantidad inicial mayor a cero queda registrada como movimiento INBOUND.
// @Tags         items
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateItemRequest  true  "Datos del item"
// @Success      201   {object}  dto.ItemResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/items [post]
func (h *ItemHandler) Create(c *fiber.Ctx) error {
	var in dto.CreateItemRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	if in.SKU == "" || in.Name == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "sku y name son requeridos"})
	}
	out, err := h.uc.Create(c.UserContext(), GetUserID(c), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// Get godoc
// @Summary      Obtener item con sus movimientos recientes
// @Tags         items
// @Security     Bearer
// @Produce      json
// @Param        id   path  int  true  "ID del item"
// @Success      200  {object}  dto.ItemResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/items/{id} [get]
func (h *ItemHandler) Get(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return writeError(c, err)
	}
	out, err := h.uc.Get(c.UserContext(), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// Update godoc
// @Summary      Actualizar item
// @Description  Un campo quantity se aplica como ajuste y queda en el libro.
// @Tags         items
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  int                    true  "ID del item"
// @Param        body  body  dto.UpdateItemRequest  true  "Campos a cambiar"
// @Success      200   {object}  dto.ItemResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /api/items/{id} [put]
func (h *ItemHandler) Update(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return writeError(c, err)
	}
	var in dto.UpdateItemRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	out, err := h.uc.Update(c.UserContext(), GetUserID(c), id, in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// Delete godoc
// @Summary      Eliminar item (solo con existencia 0)
// @Tags         items
// @Security     Bearer
// @Param        id   path  int  true  "ID del item"
// @Success      204
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/items/{id} [delete]
func (h *ItemHandler) Delete(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return writeError(c, err)
	}
	if err := h.uc.Delete(c.UserContext(), id); err != nil {
		return writeError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// Activate godoc
// @Summary      Activar item
// @Tags         items
// @Security     Bearer
// @Produce      json
// @Param        id   path  int  true  "ID del item"
// @Success      200  {object}  dto.ItemResponse
// @Router       /api/items/{id}/activate [post]
func (h *ItemHandler) Activate(c *fiber.Ctx) error {
	return h.setActive(c, true)
}

// Deactivate godoc
// @Summary      Desactivar item
// @Tags         items
// @Security     Bearer
// @Produce      json
// @Param        id   path  int  true  "ID del item"
// @Success      200  {object}  dto.ItemResponse
// @Router       /api/items/{id}/deactivate [post]
func (h *ItemHandler) Deactivate(c *fiber.Ctx) error {
	return h.setActive(c, false)
}

func (h *ItemHandler) setActive(c *fiber.Ctx, active bool) error {
	id, err := paramID(c, "id")
	if err != nil {
		return writeError(c, err)
	}
	out, err := h.uc.SetActive(c.UserContext(), id, active)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}
