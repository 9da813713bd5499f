package inventory_test

import (
	"context"
	"math"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/inventory-ledger/internal/application/dto"
	inventoryapp "github.com/jhoicas/inventory-ledger/internal/application/inventory"
	"github.com/jhoicas/inventory-ledger/internal/domain/entity"
	"github.com/jhoicas/inventory-ledger/internal/domain/inventory"
	"github.com/jhoicas/inventory-ledger/internal/domain/repository"
)

func TestLedger_MovementsMasRecientePrimeroYReiniciable(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	item := f.seed(t, "LED-1", 1, 0, 100)
	for i := 0; i < 4; i++ {
		_, err := f.engine.Adjust(ctx, inventoryapp.AdjustInput{ItemID: item.ID, Delta: 1, ActorID: 1})
		require.NoError(t, err)
	}
	ledger := inventoryapp.NewLedger(f.store.Movements())
	seq := ledger.Movements(ctx, inventoryapp.MovementQuery{ItemID: &item.ID})

	var ids []int64
	for m, err := range seq {
		require.NoError(t, err)
		ids = append(ids, m.ID)
	}
	require.Len(t, ids, 5)
	for i := 1; i < len(ids); i++ {
		assert.Greater(t, ids[i-1], ids[i], "orden descendente")
	}

	// cortar a mitad y volver a recorrer toma una nueva foto
	for range seq {
		break
	}
	_, err := f.engine.Adjust(ctx, inventoryapp.AdjustInput{ItemID: item.ID, Delta: 1, ActorID: 1})
	require.NoError(t, err)
	n := 0
	for _, err := range seq {
		require.NoError(t, err)
		n++
	}
	assert.Equal(t, 6, n)
}

func TestLedger_FiltraPorTipo(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	item := f.seed(t, "LED-2", 10, 0, 100)
	_, err := f.engine.Issue(ctx, inventoryapp.IssueInput{ItemID: item.ID, Quantity: 3, ActorID: 1})
	require.NoError(t, err)

	out := entity.MovementOutbound
	movs, err := inventoryapp.NewLedger(f.store.Movements()).Collect(ctx, inventoryapp.MovementQuery{Type: &out}, 0)
	require.NoError(t, err)
	require.Len(t, movs, 1)
	assert.Equal(t, int64(-3), movs[0].Quantity)

	recent, err := inventoryapp.NewLedger(f.store.Movements()).Recent(ctx, item.ID, 1)
	require.NoError(t, err)
	require.Len(t, recent, 1)
	assert.Equal(t, movs[0].ID, recent[0].ID)
}

func TestQueryService_ListFiltraYPagina(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.seed(t, "Q-OUT", 0, 10, 100)
	f.seed(t, "Q-LOW", 5, 10, 100)
	f.seed(t, "Q-NOR", 50, 10, 100)
	f.seed(t, "Q-OVR", 150, 10, 100)
	qs := inventoryapp.NewQueryService(f.store.Items(), f.store.Categories())

	for _, st := range []inventory.StockStatus{inventory.StatusOutOfStock, inventory.StatusLowStock, inventory.StatusNormal, inventory.StatusOverstock} {
		st := st
		res, err := qs.List(ctx, repository.ItemFilter{Status: &st}, dto.PageRequest{})
		require.NoError(t, err)
		require.Len(t, res.Items, 1, "status %s", st)
		assert.Equal(t, string(st), res.Items[0].StockStatus)
	}

	res, err := qs.List(ctx, repository.ItemFilter{}, dto.PageRequest{Page: 2, PageSize: 3})
	require.NoError(t, err)
	assert.Len(t, res.Items, 1)
	assert.Equal(t, 4, res.Page.TotalItems)
	assert.Equal(t, 2, res.Page.TotalPages)

	res, err = qs.List(ctx, repository.ItemFilter{Search: "q-lo"}, dto.PageRequest{})
	require.NoError(t, err)
	require.Len(t, res.Items, 1)
	assert.Equal(t, "Q-LOW", res.Items[0].SKU)

	minQ := int64(10)
	res, err = qs.List(ctx, repository.ItemFilter{MinQuantity: &minQ}, dto.PageRequest{})
	require.NoError(t, err)
	assert.Len(t, res.Items, 2)
}

func TestQueryService_ListPaginaEnormeDevuelveVacia(t *testing.T) {
	f := newFixture(t)
	f.seed(t, "BIG-1", 5, 10, 100)
	qs := inventoryapp.NewQueryService(f.store.Items(), f.store.Categories())

	res, err := qs.List(context.Background(), repository.ItemFilter{}, dto.PageRequest{Page: math.MaxInt/20 + 2, PageSize: 20})
	require.NoError(t, err)
	assert.Empty(t, res.Items)
	assert.Equal(t, 1, res.Page.TotalItems)
	assert.Equal(t, 1, res.Page.TotalPages)
}

func TestQueryService_Reportes(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	cat := &entity.Category{Name: "Ferretería"}
	require.NoError(t, f.store.Categories().Create(ctx, cat))

	price := decimal.NewFromInt(2)
	cost := decimal.NewFromInt(1)
	open := func(sku string, qty, reorder, max int64) {
		_, _, err := f.engine.Open(ctx, &entity.Item{
			SKU: sku, Name: sku, CategoryID: cat.ID, Quantity: qty, ReorderPoint: reorder,
			MaxStock: max, ReorderQuantity: 20, Price: &price, Cost: &cost, IsActive: true,
		}, 1)
		require.NoError(t, err)
	}
	open("R-0", 0, 10, 100)
	open("R-3", 3, 10, 100)
	open("R-7", 7, 10, 100)
	open("R-130", 130, 10, 100)

	qs := inventoryapp.NewQueryService(f.store.Items(), f.store.Categories())

	sum, err := qs.Summary(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, sum.TotalItems)
	assert.Equal(t, int64(140), sum.TotalQuantity)
	assert.True(t, sum.TotalValue.Equal(decimal.NewFromInt(280)))
	assert.Equal(t, 1, sum.OutOfStockItems)
	assert.Equal(t, 2, sum.LowStockItems)
	assert.Equal(t, 1, sum.OverstockItems)
	require.Len(t, sum.Categories, 1)
	assert.Equal(t, "Ferretería", sum.Categories[0].Name)

	low, err := qs.LowStock(ctx)
	require.NoError(t, err)
	require.Len(t, low, 3)
	assert.Equal(t, "critical", low[0].Urgency)
	assert.Equal(t, "high", low[1].Urgency)
	assert.Equal(t, "medium", low[2].Urgency)

	over, err := qs.Overstock(ctx)
	require.NoError(t, err)
	require.Len(t, over, 1)
	assert.Equal(t, int64(30), over[0].Excess)
	assert.True(t, over[0].ExcessValue.Equal(decimal.NewFromInt(30)))

	count, err := qs.StockCount(ctx, nil)
	require.NoError(t, err)
	assert.Len(t, count.Lines, 4)

	repl, err := inventoryapp.NewReplenishmentUseCase(f.store.Items()).GenerateReplenishmentList(ctx, nil)
	require.NoError(t, err)
	require.Len(t, repl, 3)
	assert.Equal(t, 1, repl[0].Priority)
	assert.Equal(t, "R-0", repl[0].SKU)
	assert.Equal(t, int64(30), repl[0].SuggestedOrderQty)
}
