package memory_test

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/inventory-ledger/internal/domain"
	"github.com/jhoicas/inventory-ledger/internal/domain/entity"
	"github.com/jhoicas/inventory-ledger/internal/domain/repository"
	"github.com/jhoicas/inventory-ledger/internal/infrastructure/memory"
)

func newItem(sku string, qty int64) *entity.Item {
	return &entity.Item{SKU: sku, Name: "Item " + sku, CategoryID: 1, Quantity: qty, MaxStock: 100, ReorderPoint: 10, IsActive: true}
}

// ────────────────────────────────────────────────────────────────────────────
// Unidad de trabajo
// ────────────────────────────────────────────────────────────────────────────

func TestRun_RollbackDescartaTodo(t *testing.T) {
	s := memory.New()
	ctx := context.Background()
	it := newItem("RB-1", 5)
	require.NoError(t, s.Items().Create(ctx, it))

	boom := errors.New("falla")
	err := s.Run(ctx, func(items repository.ItemRepository, movs repository.InventoryMovementRepository, alerts repository.AlertRepository) error {
		cur, err := items.GetForUpdate(ctx, it.ID)
		require.NoError(t, err)
		cur.Quantity = 50
		require.NoError(t, items.UpdateStock(ctx, cur))
		require.NoError(t, movs.Create(ctx, &entity.InventoryMovement{ItemID: it.ID, Type: entity.MovementInbound, Quantity: 45, QuantityBefore: 5, QuantityAfter: 50}))
		require.NoError(t, items.Create(ctx, newItem("RB-2", 1)))
		return boom
	})
	require.ErrorIs(t, err, boom)

	got, err := s.Items().GetByID(ctx, it.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(5), got.Quantity)
	latest, err := s.Movements().LatestID(ctx)
	require.NoError(t, err)
	assert.Zero(t, latest)
	missing, err := s.Items().GetBySKU(ctx, "RB-2")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestRun_LecturaPropiaDentroDeLaTx(t *testing.T) {
	s := memory.New()
	ctx := context.Background()
	it := newItem("RW-1", 5)
	require.NoError(t, s.Items().Create(ctx, it))

	require.NoError(t, s.Run(ctx, func(items repository.ItemRepository, _ repository.InventoryMovementRepository, _ repository.AlertRepository) error {
		cur, _ := items.GetForUpdate(ctx, it.ID)
		cur.Quantity = 9
		require.NoError(t, items.UpdateStock(ctx, cur))
		again, _ := items.GetByID(ctx, it.ID)
		assert.Equal(t, int64(9), again.Quantity)
		outside, _ := s.Items().GetByID(ctx, it.ID)
		assert.Equal(t, int64(5), outside.Quantity, "sin commit no es visible afuera")
		return nil
	}))
	got, _ := s.Items().GetByID(ctx, it.ID)
	assert.Equal(t, int64(9), got.Quantity)
	assert.Equal(t, int64(9), got.AvailableQuantity)
}

func TestGetForUpdate_BloqueaHastaElFinDeLaTx(t *testing.T) {
	s := memory.New()
	ctx := context.Background()
	it := newItem("LK-1", 1)
	require.NoError(t, s.Items().Create(ctx, it))

	locked := make(chan struct{})
	release := make(chan struct{})
	done := make(chan error, 1)
	go func() {
		done <- s.Run(ctx, func(items repository.ItemRepository, _ repository.InventoryMovementRepository, _ repository.AlertRepository) error {
			if _, err := items.GetForUpdate(ctx, it.ID); err != nil {
				return err
			}
			close(locked)
			<-release
			return nil
		})
	}()
	<-locked

	waitCtx, cancel := context.WithTimeout(ctx, 30*time.Millisecond)
	defer cancel()
	err := s.Run(waitCtx, func(items repository.ItemRepository, _ repository.InventoryMovementRepository, _ repository.AlertRepository) error {
		_, err := items.GetForUpdate(waitCtx, it.ID)
		return err
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrPersistence)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	close(release)
	require.NoError(t, <-done)

	// liberado: una nueva tx lo obtiene
	require.NoError(t, s.Run(ctx, func(items repository.ItemRepository, _ repository.InventoryMovementRepository, _ repository.AlertRepository) error {
		_, err := items.GetForUpdate(ctx, it.ID)
		return err
	}))
}

func TestRun_ContextoCanceladoAntesDelCommit(t *testing.T) {
	s := memory.New()
	ctx, cancel := context.WithCancel(context.Background())
	err := s.Run(ctx, func(items repository.ItemRepository, _ repository.InventoryMovementRepository, _ repository.AlertRepository) error {
		require.NoError(t, items.Create(ctx, newItem("CX-1", 1)))
		cancel()
		return nil
	})
	require.ErrorIs(t, err, context.Canceled)
	got, _ := s.Items().GetBySKU(context.Background(), "CX-1")
	assert.Nil(t, got)
}

// ────────────────────────────────────────────────────────────────────────────
// Items
// ────────────────────────────────────────────────────────────────────────────

func TestItems_SKUUnico(t *testing.T) {
	s := memory.New()
	ctx := context.Background()
	require.NoError(t, s.Items().Create(ctx, newItem("DUP", 1)))
	assert.ErrorIs(t, s.Items().Create(ctx, newItem("DUP", 2)), domain.ErrDuplicate)
}

func TestItems_UpdateNoTocaStock(t *testing.T) {
	s := memory.New()
	ctx := context.Background()
	it := newItem("UP-1", 7)
	require.NoError(t, s.Items().Create(ctx, it))

	edit := it.Clone()
	edit.Name = "Renombrado"
	edit.Quantity = 999
	require.NoError(t, s.Items().Update(ctx, edit))

	got, _ := s.Items().GetByID(ctx, it.ID)
	assert.Equal(t, "Renombrado", got.Name)
	assert.Equal(t, int64(7), got.Quantity)
}

func TestItems_BusquedaSinDistinguirMayusculas(t *testing.T) {
	s := memory.New()
	ctx := context.Background()
	a := newItem("STRASSE-1", 1)
	a.Name = "Straße Schild"
	require.NoError(t, s.Items().Create(ctx, a))
	require.NoError(t, s.Items().Create(ctx, newItem("OTRO-1", 1)))

	list, err := s.Items().List(ctx, repository.ItemFilter{Search: "STRASSE SCHILD"}, 0, 0)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, a.ID, list[0].ID)

	n, err := s.Items().Count(ctx, repository.ItemFilter{Search: "item"})
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestList_OffsetFueraDeRangoDevuelveVacio(t *testing.T) {
	s := memory.New()
	ctx := context.Background()
	require.NoError(t, s.Items().Create(ctx, newItem("OFF-1", 1)))
	require.NoError(t, s.Alerts().Create(ctx, &entity.Alert{Type: entity.AlertSystem, Severity: entity.SeverityLow, Title: "x", CreatedAt: time.Now()}))

	for _, offset := range []int{-9223372036854775796, -1, 1, math.MaxInt} {
		items, err := s.Items().List(ctx, repository.ItemFilter{}, 20, offset)
		require.NoError(t, err)
		assert.Empty(t, items, "offset %d", offset)

		alerts, err := s.Alerts().List(ctx, repository.AlertFilter{}, 20, offset)
		require.NoError(t, err)
		assert.Empty(t, alerts, "offset %d", offset)
	}
}

func TestItems_DeleteLiberaSKU(t *testing.T) {
	s := memory.New()
	ctx := context.Background()
	it := newItem("DEL-1", 0)
	require.NoError(t, s.Items().Create(ctx, it))
	require.NoError(t, s.Items().Delete(ctx, it.ID))
	assert.ErrorIs(t, s.Items().Delete(ctx, it.ID), domain.ErrNotFound)
	require.NoError(t, s.Items().Create(ctx, newItem("DEL-1", 0)))
}

// ────────────────────────────────────────────────────────────────────────────
// Alertas y catálogo
// ────────────────────────────────────────────────────────────────────────────

func TestAlerts_MarkReadYFiltros(t *testing.T) {
	s := memory.New()
	ctx := context.Background()
	itemID := int64(3)
	a := &entity.Alert{Type: entity.AlertLowStock, Severity: entity.SeverityMedium, Title: "bajo", ItemID: &itemID, CreatedAt: time.Now()}
	require.NoError(t, s.Alerts().Create(ctx, a))
	require.NoError(t, s.Alerts().Create(ctx, &entity.Alert{Type: entity.AlertSystem, Severity: entity.SeverityLow, Title: "otro", CreatedAt: time.Now()}))

	now := time.Now()
	require.NoError(t, s.Alerts().MarkRead(ctx, a.ID, now))
	assert.ErrorIs(t, s.Alerts().MarkRead(ctx, 999, now), domain.ErrNotFound)

	unread, err := s.Alerts().List(ctx, repository.AlertFilter{UnreadOnly: true}, 0, 0)
	require.NoError(t, err)
	require.Len(t, unread, 1)
	assert.Equal(t, "otro", unread[0].Title)

	byItem, err := s.Alerts().List(ctx, repository.AlertFilter{ItemID: &itemID}, 0, 0)
	require.NoError(t, err)
	require.Len(t, byItem, 1)
	assert.True(t, byItem[0].IsRead)
	require.NotNil(t, byItem[0].ReadAt)

	require.NoError(t, s.Alerts().DeleteByItem(ctx, itemID))
	all, _ := s.Alerts().List(ctx, repository.AlertFilter{}, 0, 0)
	assert.Len(t, all, 1)
}

func TestCatalogo_NombresUnicosSinMayusculas(t *testing.T) {
	s := memory.New()
	ctx := context.Background()
	require.NoError(t, s.Categories().Create(ctx, &entity.Category{Name: "Herramientas"}))
	assert.ErrorIs(t, s.Categories().Create(ctx, &entity.Category{Name: "HERRAMIENTAS"}), domain.ErrDuplicate)

	require.NoError(t, s.Locations().Create(ctx, &entity.Location{Name: "Bodega", Code: "B-01"}))
	assert.ErrorIs(t, s.Locations().Create(ctx, &entity.Location{Name: "Otra", Code: "b-01"}), domain.ErrDuplicate)
	loc, err := s.Locations().GetByCode(ctx, "b-01")
	require.NoError(t, err)
	require.NotNil(t, loc)
	assert.Equal(t, "Bodega", loc.Name)

	require.NoError(t, s.Suppliers().Create(ctx, &entity.Supplier{Name: "ACME"}))
	sup, err := s.Suppliers().GetByName(ctx, "acme")
	require.NoError(t, err)
	require.NotNil(t, sup)
}
