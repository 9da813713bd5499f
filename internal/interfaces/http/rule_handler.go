package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/inventory-ledger/internal/application/dto"
	"github.com/jhoicas/inventory-ledger/internal/application/usecase"
)

// RuleHandler registro de reglas de negocio (protegido).
type RuleHandler struct {
	uc *usecase.RuleUseCase
}

// NewRuleHandler construye el handler.
func NewRuleHandler(uc *usecase.RuleUseCase) *RuleHandler {
	return &RuleHandler{uc: uc}
}

// List godoc
// @Summary      Resumen y listado de reglas
// @Tags         rules
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  dto.RuleSummaryResponse
// @Router       /api/rules [get]
func (h *RuleHandler) List(c *fiber.Ctx) error {
	return c.JSON(h.uc.Summary())
}

// Create godoc
// @Summary      Registrar regla
// @Tags         rules
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateRuleRequest  true  "Regla"
// @Success      201   {object}  dto.RuleResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/rules [post]
func (h *RuleHandler) Create(c *fiber.Ctx) error {
	var in dto.CreateRuleRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	out, err := h.uc.Create(in)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// Get godoc
// @Summary      Obtener regla
// @Tags         rules
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID de la regla"
// @Success      200  {object}  dto.RuleResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/rules/{id} [get]
func (h *RuleHandler) Get(c *fiber.Ctx) error {
	out, err := h.uc.Get(c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// Activate godoc
// @Summary      Activar regla
// @Tags         rules
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID de la regla"
// @Success      200  {object}  dto.RuleResponse
// @Router       /api/rules/{id}/activate [post]
func (h *RuleHandler) Activate(c *fiber.Ctx) error {
	out, err := h.uc.SetActive(c.Params("id"), true)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// Deactivate godoc
// @Summary      Desactivar regla
// @Tags         rules
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID de la regla"
// @Success      200  {object}  dto.RuleResponse
// @Router       /api/rules/{id}/deactivate [post]
func (h *RuleHandler) Deactivate(c *fiber.Ctx) error {
	out, err := h.uc.SetActive(c.Params("id"), false)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// Execute godoc
// @Summary      Ejecutar regla sobre un item
// @Tags         rules
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string                  true  "ID de la regla"
// @Param        body  body  dto.ExecuteRuleRequest  true  "Item"
// @Success      200   {object}  dto.RuleResultResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /api/rules/{id}/execute [post]
func (h *RuleHandler) Execute(c *fiber.Ctx) error {
	var in dto.ExecuteRuleRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	out, err := h.uc.Execute(c.UserContext(), c.Params("id"), in.ItemID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// Delete godoc
// @Summary      Eliminar regla
// @Tags         rules
// @Security     Bearer
// @Param        id   path  string  true  "ID de la regla"
// @Success      204
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/rules/{id} [delete]
func (h *RuleHandler) Delete(c *fiber.Ctx) error {
	if err := h.uc.Delete(c.Params("id")); err != nil {
		return writeError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
