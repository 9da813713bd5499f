package http

import (
	"github.com/gofiber/fiber/v2"

	inventoryapp "github.com/jhoicas/inventory-ledger/internal/application/inventory"
	"github.com/jhoicas/inventory-ledger/internal/application/usecase"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	Engine        *inventoryapp.StockEngine
	Ledger        *inventoryapp.Ledger
	Query         *inventoryapp.QueryService
	Replenishment *inventoryapp.ReplenishmentUseCase
	ItemUC        *usecase.ItemUseCase
	CatalogUC     *usecase.CatalogUseCase
	AlertUC       *usecase.AlertUseCase
	RuleUC        *usecase.RuleUseCase
	JWTSecret     string
}

// Router registra las rutas de la API. Todo /api requiere Bearer Token; las lecturas
// quedan abiertas a cualquier rol y las escrituras se restringen con RequireRole.
func Router(app *fiber.App, deps RouterDeps) {
	protected := app.Group("/api", AuthMiddleware(deps.JWTSecret))

	writers := RequireRole(RoleAdmin, RoleManager, RoleUser)
	managers := RequireRole(RoleAdmin, RoleManager)

	// Items
	itemHandler := NewItemHandler(deps.ItemUC, deps.Query)
	invHandler := NewInventoryHandler(deps.Engine, deps.Ledger, deps.Query, deps.Replenishment)
	items := protected.Group("/items")
	items.Get("/", itemHandler.List)
	items.Post("/", writers, itemHandler.Create)
	items.Get("/:id", itemHandler.Get)
	items.Put("/:id", writers, itemHandler.Update)
	items.Delete("/:id", managers, itemHandler.Delete)
	items.Post("/:id/activate", managers, itemHandler.Activate)
	items.Post("/:id/deactivate", managers, itemHandler.Deactivate)
	items.Post("/:id/adjust", writers, invHandler.Adjust)
	items.Post("/:id/receive", writers, invHandler.Receive)
	items.Post("/:id/issue", writers, invHandler.Issue)

	// Inventario
	inv := protected.Group("/inventory")
	inv.Post("/transfer", writers, invHandler.Transfer)
	inv.Get("/movements", invHandler.Movements)
	inv.Get("/summary", invHandler.Summary)
	inv.Get("/low-stock", invHandler.LowStock)
	inv.Get("/overstock", invHandler.Overstock)
	inv.Get("/stock-count", invHandler.StockCount)
	inv.Get("/replenishment-list", invHandler.ReplenishmentList)

	// Catálogo
	catalogHandler := NewCatalogHandler(deps.CatalogUC)
	protected.Get("/categories", catalogHandler.ListCategories)
	protected.Post("/categories", writers, catalogHandler.CreateCategory)
	protected.Get("/suppliers", catalogHandler.ListSuppliers)
	protected.Post("/suppliers", writers, catalogHandler.CreateSupplier)
	protected.Get("/locations", catalogHandler.ListLocations)
	protected.Post("/locations", writers, catalogHandler.CreateLocation)

	// Alertas
	alertHandler := NewAlertHandler(deps.AlertUC)
	alerts := protected.Group("/alerts")
	alerts.Get("/", alertHandler.List)
	alerts.Post("/:id/read", alertHandler.MarkRead)
	alerts.Delete("/:id", managers, alertHandler.Delete)

	// Reglas
	ruleHandler := NewRuleHandler(deps.RuleUC)
	rulesGroup := protected.Group("/rules")
	rulesGroup.Get("/", ruleHandler.List)
	rulesGroup.Post("/", managers, ruleHandler.Create)
	rulesGroup.Get("/:id", ruleHandler.Get)
	rulesGroup.Post("/:id/activate", managers, ruleHandler.Activate)
	rulesGroup.Post("/:id/deactivate", managers, ruleHandler.Deactivate)
	rulesGroup.Post("/:id/execute", writers, ruleHandler.Execute)
	rulesGroup.Delete("/:id", managers, ruleHandler.Delete)
}
