package http_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/inventory-ledger/internal/application/dto"
	inventoryapp "github.com/jhoicas/inventory-ledger/internal/application/inventory"
	"github.com/jhoicas/inventory-ledger/internal/application/rules"
	"github.com/jhoicas/inventory-ledger/internal/application/usecase"
	"github.com/jhoicas/inventory-ledger/internal/infrastructure/memory"
	apphttp "github.com/jhoicas/inventory-ledger/internal/interfaces/http"
	pkgjwt "github.com/jhoicas/inventory-ledger/pkg/jwt"
)

// ──────────────────────────────────────────────────────────────────────────────
// Aplicación completa sobre el store en memoria
// ──────────────────────────────────────────────────────────────────────────────

type apiEnv struct {
	app   *fiber.App
	store *memory.Store
	token string
	catID int64
}

func newAPI(t *testing.T) *apiEnv {
	t.Helper()
	store := memory.New()
	engine := inventoryapp.NewStockEngine(store, store.Alerts())
	registry := rules.NewDefaultRegistry(zerolog.Nop())
	query := inventoryapp.NewQueryService(store.Items(), store.Categories())

	app := fiber.New()
	apphttp.Router(app, apphttp.RouterDeps{
		Engine:        engine,
		Ledger:        inventoryapp.NewLedger(store.Movements()),
		Query:         query,
		Replenishment: inventoryapp.NewReplenishmentUseCase(store.Items()),
		ItemUC: usecase.NewItemUseCase(usecase.ItemUseCaseDeps{
			Engine:     engine,
			TxRunner:   store,
			Items:      store.Items(),
			Movements:  store.Movements(),
			Categories: store.Categories(),
			Suppliers:  store.Suppliers(),
			Locations:  store.Locations(),
			Validator:  registry,
		}),
		CatalogUC: usecase.NewCatalogUseCase(store.Categories(), store.Suppliers(), store.Locations()),
		AlertUC:   usecase.NewAlertUseCase(store.Alerts()),
		RuleUC:    usecase.NewRuleUseCase(registry, store.Items()),
		JWTSecret: testJWTSecret,
	})

	e := &apiEnv{app: app, store: store, token: tokenForRole(t, "admin")}
	var cat dto.CategoryResponse
	e.call(t, http.MethodPost, "/api/categories", dto.CreateCategoryRequest{Name: "General"}, http.StatusCreated, &cat)
	e.catID = cat.ID
	return e
}

// call envía la petición, verifica el status y decodifica la respuesta en out (si no es nil).
func (e *apiEnv) call(t *testing.T, method, path string, body any, wantStatus int, out any) []byte {
	t.Helper()
	return e.callAs(t, e.token, method, path, body, wantStatus, out)
}

func (e *apiEnv) callAs(t *testing.T, token, method, path string, body any, wantStatus int, out any) []byte {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", token)
	}
	resp, err := e.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.Equal(t, wantStatus, resp.StatusCode, "respuesta: %s", raw)
	if out != nil {
		require.NoError(t, json.Unmarshal(raw, out))
	}
	return raw
}

func (e *apiEnv) createItem(t *testing.T, sku string, qty int64) dto.ItemResponse {
	t.Helper()
	var item dto.ItemResponse
	e.call(t, http.MethodPost, "/api/items", map[string]any{
		"sku": sku, "name": "Item " + sku, "category_id": e.catID, "quantity": qty, "price": "12.50",
	}, http.StatusCreated, &item)
	return item
}

// ──────────────────────────────────────────────────────────────────────────────
// Items
// ──────────────────────────────────────────────────────────────────────────────

func TestItems_CrearObtenerYListar(t *testing.T) {
	e := newAPI(t)
	item := e.createItem(t, "HTTP-1", 25)
	assert.Equal(t, int64(25), item.Quantity)
	assert.Equal(t, "normal", item.StockStatus)

	var got dto.ItemResponse
	e.call(t, http.MethodGet, fmt.Sprintf("/api/items/%d", item.ID), nil, http.StatusOK, &got)
	require.Len(t, got.RecentMovements, 1, "la existencia inicial queda en el libro")
	assert.Equal(t, "INBOUND", got.RecentMovements[0].MovementType)

	e.createItem(t, "HTTP-2", 3)
	var list dto.ItemListResponse
	e.call(t, http.MethodGet, "/api/items?status=low_stock", nil, http.StatusOK, &list)
	require.Len(t, list.Items, 1)
	assert.Equal(t, "HTTP-2", list.Items[0].SKU)

	e.call(t, http.MethodGet, "/api/items?search=http&page_size=1&page=2", nil, http.StatusOK, &list)
	require.Len(t, list.Items, 1)
	assert.Equal(t, 2, list.Page.TotalItems)

	var huge dto.ItemListResponse
	e.call(t, http.MethodGet, "/api/items?page=461168601842738792&page_size=20", nil, http.StatusOK, &huge)
	assert.Empty(t, huge.Items)
	assert.Equal(t, 2, huge.Page.TotalItems)

	var alerts dto.AlertListResponse
	e.call(t, http.MethodGet, "/api/alerts?page=461168601842738792&page_size=20", nil, http.StatusOK, &alerts)
	assert.Empty(t, alerts.Items)
}

func TestItems_ErroresDeEntrada(t *testing.T) {
	e := newAPI(t)
	e.createItem(t, "DUP-1", 0)

	raw := e.call(t, http.MethodPost, "/api/items", map[string]any{
		"sku": "DUP-1", "name": "otro", "category_id": e.catID, "price": "1",
	}, http.StatusConflict, nil)
	assert.Contains(t, string(raw), "DUPLICATE")

	e.call(t, http.MethodGet, "/api/items/abc", nil, http.StatusBadRequest, nil)
	e.call(t, http.MethodGet, "/api/items/999", nil, http.StatusNotFound, nil)
	e.call(t, http.MethodGet, "/api/items?status=agotado", nil, http.StatusBadRequest, nil)
	e.call(t, http.MethodGet, "/api/items?min_price=barato", nil, http.StatusBadRequest, nil)
}

func TestItems_EliminarSoloConExistenciaCero(t *testing.T) {
	e := newAPI(t)
	item := e.createItem(t, "DEL-1", 4)
	path := fmt.Sprintf("/api/items/%d", item.ID)

	raw := e.call(t, http.MethodDelete, path, nil, http.StatusBadRequest, nil)
	assert.Contains(t, string(raw), "INVALID_OPERATION")

	e.call(t, http.MethodPost, path+"/issue", dto.IssueRequest{Quantity: 4}, http.StatusOK, nil)
	e.call(t, http.MethodDelete, path, nil, http.StatusNoContent, nil)
	e.call(t, http.MethodGet, path, nil, http.StatusNotFound, nil)
}

func TestItems_ActualizarCantidadGeneraAjuste(t *testing.T) {
	e := newAPI(t)
	item := e.createItem(t, "UPD-1", 10)
	path := fmt.Sprintf("/api/items/%d", item.ID)

	var got dto.ItemResponse
	e.call(t, http.MethodPut, path, map[string]any{"name": "Renombrado", "quantity": 40}, http.StatusOK, &got)
	assert.Equal(t, "Renombrado", got.Name)
	assert.Equal(t, int64(40), got.Quantity)
	require.NotEmpty(t, got.RecentMovements)
	assert.Equal(t, "ADJUSTMENT", got.RecentMovements[0].MovementType)
	assert.Equal(t, int64(30), got.RecentMovements[0].Quantity)

	e.call(t, http.MethodPut, path, map[string]any{"quantity": -1}, http.StatusBadRequest, nil)

	e.call(t, http.MethodPost, path+"/deactivate", nil, http.StatusOK, &got)
	assert.False(t, got.IsActive)
}

// ──────────────────────────────────────────────────────────────────────────────
// Mutaciones de stock
// ──────────────────────────────────────────────────────────────────────────────

func TestInventory_SalidaInsuficienteDevuelveDetalle(t *testing.T) {
	e := newAPI(t)
	item := e.createItem(t, "ISS-1", 5)

	var body dto.ErrorResponse
	e.call(t, http.MethodPost, fmt.Sprintf("/api/items/%d/issue", item.ID), dto.IssueRequest{Quantity: 8}, http.StatusConflict, &body)
	assert.Equal(t, "INSUFFICIENT_STOCK", body.Code)
	assert.EqualValues(t, 5, body.Details["available"])
	assert.EqualValues(t, 8, body.Details["requested"])
	assert.EqualValues(t, item.ID, body.Details["item_id"])

	var got dto.ItemResponse
	e.call(t, http.MethodGet, fmt.Sprintf("/api/items/%d", item.ID), nil, http.StatusOK, &got)
	assert.Equal(t, int64(5), got.Quantity, "el rechazo no cambia la existencia")
}

func TestInventory_AjusteEntradaYTraslado(t *testing.T) {
	e := newAPI(t)
	a := e.createItem(t, "MOV-A", 20)
	b := e.createItem(t, "MOV-B", 0)

	var res dto.MutationResponse
	e.call(t, http.MethodPost, fmt.Sprintf("/api/items/%d/adjust", a.ID), dto.AdjustRequest{Delta: -5, Reason: "merma"}, http.StatusOK, &res)
	assert.Equal(t, int64(20), res.OldQuantity)
	assert.Equal(t, int64(15), res.NewQuantity)

	e.call(t, http.MethodPost, fmt.Sprintf("/api/items/%d/adjust", a.ID), dto.AdjustRequest{Delta: -100}, http.StatusConflict, nil)
	e.call(t, http.MethodPost, fmt.Sprintf("/api/items/%d/receive", a.ID), dto.ReceiveRequest{Quantity: 0}, http.StatusBadRequest, nil)
	e.call(t, http.MethodPost, fmt.Sprintf("/api/items/%d/receive", a.ID), dto.ReceiveRequest{Quantity: 5, Reference: "OC-1"}, http.StatusOK, &res)
	assert.Equal(t, int64(20), res.NewQuantity)

	var tr dto.TransferResponse
	e.call(t, http.MethodPost, "/api/inventory/transfer", dto.TransferRequest{FromItemID: a.ID, ToItemID: b.ID, Quantity: 7}, http.StatusOK, &tr)
	assert.NotEmpty(t, tr.TransactionID)

	e.call(t, http.MethodPost, "/api/inventory/transfer", dto.TransferRequest{FromItemID: a.ID, ToItemID: a.ID, Quantity: 1}, http.StatusBadRequest, nil)

	var movs dto.MovementListResponse
	e.call(t, http.MethodGet, fmt.Sprintf("/api/inventory/movements?item_id=%d", b.ID), nil, http.StatusOK, &movs)
	require.Equal(t, 1, movs.Count)
	assert.Equal(t, "INBOUND", movs.Items[0].MovementType)
	assert.Equal(t, tr.TransactionID, movs.Items[0].TransactionID)

	e.call(t, http.MethodGet, fmt.Sprintf("/api/inventory/movements?item_id=%d&type=OUTBOUND&limit=10", a.ID), nil, http.StatusOK, &movs)
	require.Equal(t, 2, movs.Count, "ajuste negativo y pata de salida del traslado")
	assert.Equal(t, tr.FromMovementID, movs.Items[0].ID)
	e.call(t, http.MethodGet, "/api/inventory/movements?type=ROBO", nil, http.StatusBadRequest, nil)
	e.call(t, http.MethodGet, "/api/inventory/movements?from=ayer", nil, http.StatusBadRequest, nil)
}

func TestInventory_Reportes(t *testing.T) {
	e := newAPI(t)
	e.createItem(t, "REP-0", 0)
	e.createItem(t, "REP-50", 50)
	e.createItem(t, "REP-2000", 2000)

	var sum dto.InventorySummaryResponse
	e.call(t, http.MethodGet, "/api/inventory/summary", nil, http.StatusOK, &sum)
	assert.Equal(t, 3, sum.TotalItems)
	assert.Equal(t, 1, sum.OutOfStockItems)

	var low []dto.LowStockItemResponse
	e.call(t, http.MethodGet, "/api/inventory/low-stock", nil, http.StatusOK, &low)
	require.Len(t, low, 1)
	assert.Equal(t, "critical", low[0].Urgency)

	var over []dto.OverstockItemResponse
	e.call(t, http.MethodGet, "/api/inventory/overstock", nil, http.StatusOK, &over)
	require.Len(t, over, 1)
	assert.Equal(t, int64(1000), over[0].Excess)

	var count dto.StockCountResponse
	e.call(t, http.MethodGet, "/api/inventory/stock-count", nil, http.StatusOK, &count)
	assert.Len(t, count.Lines, 3)

	var repl []dto.ReplenishmentSuggestionDTO
	e.call(t, http.MethodGet, "/api/inventory/replenishment-list", nil, http.StatusOK, &repl)
	require.Len(t, repl, 1)
	assert.Equal(t, "REP-0", repl[0].SKU)
}

// ──────────────────────────────────────────────────────────────────────────────
// Alertas y reglas
// ──────────────────────────────────────────────────────────────────────────────

func TestAlerts_SeGeneranTrasMutacionYSeMarcanLeidas(t *testing.T) {
	e := newAPI(t)
	item := e.createItem(t, "ALR-1", 20)
	e.call(t, http.MethodPost, fmt.Sprintf("/api/items/%d/issue", item.ID), dto.IssueRequest{Quantity: 20}, http.StatusOK, nil)

	var list dto.AlertListResponse
	e.call(t, http.MethodGet, fmt.Sprintf("/api/alerts?item_id=%d&unread_only=true", item.ID), nil, http.StatusOK, &list)
	require.Len(t, list.Items, 1)
	assert.Equal(t, "out_of_stock", list.Items[0].Type)

	var read dto.AlertResponse
	e.call(t, http.MethodPost, fmt.Sprintf("/api/alerts/%d/read", list.Items[0].ID), nil, http.StatusOK, &read)
	assert.True(t, read.IsRead)

	e.call(t, http.MethodGet, "/api/alerts?unread_only=true", nil, http.StatusOK, &list)
	assert.Empty(t, list.Items)

	e.call(t, http.MethodDelete, fmt.Sprintf("/api/alerts/%d", read.ID), nil, http.StatusNoContent, nil)
	e.call(t, http.MethodDelete, fmt.Sprintf("/api/alerts/%d", read.ID), nil, http.StatusNotFound, nil)
}

func TestRules_RegistrarYEjecutar(t *testing.T) {
	e := newAPI(t)
	item := e.createItem(t, "RUL-1", 3)

	e.call(t, http.MethodPost, "/api/rules", dto.CreateRuleRequest{
		ID:   "reponer_bajo",
		Type: "automation",
		Conditions: []dto.ConditionDTO{
			{Field: "quantity", Operator: "less_than", Value: "5"},
		},
		Actions: []dto.ActionDTO{{Type: "flag", Message: "reponer"}},
	}, http.StatusCreated, nil)
	e.call(t, http.MethodPost, "/api/rules", dto.CreateRuleRequest{ID: "reponer_bajo", Type: "automation"}, http.StatusConflict, nil)

	var res dto.RuleResultResponse
	e.call(t, http.MethodPost, "/api/rules/reponer_bajo/execute", dto.ExecuteRuleRequest{ItemID: item.ID}, http.StatusOK, &res)
	assert.Equal(t, "success", res.Status)
	assert.Contains(t, res.Flags, "reponer")

	e.call(t, http.MethodPost, "/api/rules/reponer_bajo/deactivate", nil, http.StatusOK, nil)
	e.call(t, http.MethodPost, "/api/rules/reponer_bajo/execute", dto.ExecuteRuleRequest{ItemID: item.ID}, http.StatusOK, &res)
	assert.Equal(t, "inactive", res.Status)

	var sum dto.RuleSummaryResponse
	e.call(t, http.MethodGet, "/api/rules", nil, http.StatusOK, &sum)
	assert.Equal(t, 3, sum.Total)

	e.call(t, http.MethodDelete, "/api/rules/reponer_bajo", nil, http.StatusNoContent, nil)
	e.call(t, http.MethodGet, "/api/rules/reponer_bajo", nil, http.StatusNotFound, nil)
}

// ──────────────────────────────────────────────────────────────────────────────
// Autorización por rol
// ──────────────────────────────────────────────────────────────────────────────

func TestRouter_ViewerSoloLee(t *testing.T) {
	e := newAPI(t)
	item := e.createItem(t, "RBAC-1", 5)
	viewer := tokenForRole(t, "viewer")

	e.callAs(t, viewer, http.MethodGet, fmt.Sprintf("/api/items/%d", item.ID), nil, http.StatusOK, nil)
	e.callAs(t, viewer, http.MethodPost, fmt.Sprintf("/api/items/%d/issue", item.ID), dto.IssueRequest{Quantity: 1}, http.StatusForbidden, nil)
	e.callAs(t, "", http.MethodGet, "/api/items", nil, http.StatusUnauthorized, nil)

	user := tokenForRole(t, "user")
	e.callAs(t, user, http.MethodPost, fmt.Sprintf("/api/items/%d/issue", item.ID), dto.IssueRequest{Quantity: 1}, http.StatusOK, nil)
	e.callAs(t, user, http.MethodDelete, fmt.Sprintf("/api/items/%d", item.ID), nil, http.StatusForbidden, nil)
}

func TestRouter_ActorDelTokenQuedaEnElLibro(t *testing.T) {
	e := newAPI(t)
	item := e.createItem(t, "ACT-1", 5)

	var movs dto.MovementListResponse
	e.call(t, http.MethodGet, fmt.Sprintf("/api/inventory/movements?item_id=%d", item.ID), nil, http.StatusOK, &movs)
	require.Equal(t, 1, movs.Count)
	assert.Equal(t, testJWTUserID, movs.Items[0].UserID)

	other, err := pkgjwt.Generate(testJWTSecret, 7, "user", testIssuer, testExpMin)
	require.NoError(t, err)
	e.callAs(t, "Bearer "+other, http.MethodPost, fmt.Sprintf("/api/items/%d/adjust", item.ID), dto.AdjustRequest{Delta: 1}, http.StatusOK, nil)
	e.call(t, http.MethodGet, fmt.Sprintf("/api/inventory/movements?item_id=%d", item.ID), nil, http.StatusOK, &movs)
	require.Equal(t, 2, movs.Count)
	assert.Equal(t, int64(7), movs.Items[0].UserID)
}
