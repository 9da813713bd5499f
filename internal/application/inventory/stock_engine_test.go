package inventory_test

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"golang.org/x/sync/errgroup"

	inventoryapp "github.com/jhoicas/inventory-ledger/internal/application/inventory"
	"github.com/jhoicas/inventory-ledger/internal/domain"
	"github.com/jhoicas/inventory-ledger/internal/domain/entity"
	"github.com/jhoicas/inventory-ledger/internal/domain/inventory"
	"github.com/jhoicas/inventory-ledger/internal/domain/repository"
	"github.com/jhoicas/inventory-ledger/internal/infrastructure/memory"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// ──────────────────────────────────────────────────────────────────────────────
// Dobles de prueba
// ──────────────────────────────────────────────────────────────────────────────

type recordingPublisher struct {
	mu     sync.Mutex
	events []inventoryapp.StockChangedEvent
	err    error
}

func (p *recordingPublisher) PublishStockChanged(_ context.Context, ev inventoryapp.StockChangedEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return p.err
}

type recordingObserver struct {
	mu         sync.Mutex
	outcomes   map[string]int
	quantities map[int64]int64
}

func (o *recordingObserver) ObserveQuantity(itemID int64, _ string, quantity int64) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.quantities == nil {
		o.quantities = map[int64]int64{}
	}
	o.quantities[itemID] = quantity
}

func (o *recordingObserver) quantity(itemID int64) (int64, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	q, ok := o.quantities[itemID]
	return q, ok
}

func (o *recordingObserver) ObserveMutation(op, outcome string, _ time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.outcomes == nil {
		o.outcomes = map[string]int{}
	}
	o.outcomes[op+"/"+outcome]++
}

func (o *recordingObserver) count(key string) int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.outcomes[key]
}

// failingAlerts rechaza toda inserción de alertas.
type failingAlerts struct {
	repository.AlertRepository
}

func (failingAlerts) Create(context.Context, *entity.Alert) error {
	return errors.New("alert store caído")
}

// flakyRunner falla con un error transitorio las primeras n unidades de trabajo.
type flakyRunner struct {
	inventoryapp.TxRunner
	failures  int32
	retryable bool
	calls     atomic.Int32
}

func (r *flakyRunner) Run(ctx context.Context, fn func(repository.ItemRepository, repository.InventoryMovementRepository, repository.AlertRepository) error) error {
	if r.calls.Add(1) <= r.failures {
		return r.TxRunner.Run(ctx, func(i repository.ItemRepository, m repository.InventoryMovementRepository, a repository.AlertRepository) error {
			if err := fn(i, m, a); err != nil {
				return err
			}
			return &domain.PersistenceError{Op: "commit", Err: errors.New("deadlock detected"), Retryable: r.retryable}
		})
	}
	return r.TxRunner.Run(ctx, fn)
}

type fixture struct {
	store     *memory.Store
	engine    *inventoryapp.StockEngine
	publisher *recordingPublisher
	observer  *recordingObserver
}

func newFixture(t *testing.T, opts ...inventoryapp.EngineOption) *fixture {
	t.Helper()
	f := &fixture{store: memory.New(), publisher: &recordingPublisher{}, observer: &recordingObserver{}}
	base := []inventoryapp.EngineOption{
		inventoryapp.WithEventPublisher(f.publisher),
		inventoryapp.WithObserver(f.observer),
	}
	f.engine = inventoryapp.NewStockEngine(f.store, f.store.Alerts(), append(base, opts...)...)
	return f
}

// seed crea un item con existencia inicial a través del motor.
func (f *fixture) seed(t *testing.T, sku string, qty, reorder, max int64) *entity.Item {
	t.Helper()
	item, _, err := f.engine.Open(context.Background(), &entity.Item{
		SKU: sku, Name: "Item " + sku, CategoryID: 1, Unit: entity.DefaultUnit,
		Quantity: qty, ReorderPoint: reorder, MaxStock: max, IsActive: true,
	}, 1)
	require.NoError(t, err)
	return item
}

func (f *fixture) quantity(t *testing.T, id int64) int64 {
	t.Helper()
	it, err := f.store.Items().GetByID(context.Background(), id)
	require.NoError(t, err)
	require.NotNil(t, it)
	return it.Quantity
}

func (f *fixture) movements(t *testing.T, id int64) []*entity.InventoryMovement {
	t.Helper()
	movs, err := f.store.Movements().List(context.Background(), repository.MovementFilter{ItemID: &id}, 0)
	require.NoError(t, err)
	return movs
}

func (f *fixture) alerts(t *testing.T, id int64) []*entity.Alert {
	t.Helper()
	alerts, err := f.store.Alerts().List(context.Background(), repository.AlertFilter{ItemID: &id}, 0, 0)
	require.NoError(t, err)
	return alerts
}

// ──────────────────────────────────────────────────────────────────────────────
// Escenarios de mutación
// ──────────────────────────────────────────────────────────────────────────────

func TestEngine_EscenariosSecuenciales(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	item := f.seed(t, "SCN-1", 50, 10, 200)
	baseAlerts := len(f.alerts(t, item.ID))

	// Escenario 1: Issue(30) → 20, normal
	res, err := f.engine.Issue(ctx, inventoryapp.IssueInput{ItemID: item.ID, Quantity: 30, ActorID: 7})
	require.NoError(t, err)
	assert.Equal(t, int64(50), res.OldQuantity)
	assert.Equal(t, int64(20), res.NewQuantity)
	assert.Equal(t, int64(-30), res.Delta)
	assert.Equal(t, inventory.StatusNormal, res.StockStatus)
	mov, err := f.store.Movements().GetByID(ctx, res.MovementID)
	require.NoError(t, err)
	require.NotNil(t, mov)
	assert.Equal(t, int64(50), mov.QuantityBefore)
	assert.Equal(t, int64(20), mov.QuantityAfter)
	assert.Equal(t, int64(-30), mov.Quantity)
	assert.Equal(t, entity.MovementOutbound, mov.Type)
	assert.Equal(t, int64(7), mov.UserID)
	assert.Len(t, f.alerts(t, item.ID), baseAlerts, "normal no genera alerta")

	// Escenario 2: Issue(15) → 5, low_stock con una alerta HIGH
	res, err = f.engine.Issue(ctx, inventoryapp.IssueInput{ItemID: item.ID, Quantity: 15, ActorID: 7})
	require.NoError(t, err)
	assert.Equal(t, int64(5), res.NewQuantity)
	assert.Equal(t, inventory.StatusLowStock, res.StockStatus)
	alerts := f.alerts(t, item.ID)
	require.Len(t, alerts, baseAlerts+1)
	assert.Equal(t, entity.AlertLowStock, alerts[0].Type)
	assert.Equal(t, entity.SeverityHigh, alerts[0].Severity)

	// Escenario 3: Issue(10) sobre 5 → InsufficientStock, sin rastro
	movsBefore := len(f.movements(t, item.ID))
	_, err = f.engine.Issue(ctx, inventoryapp.IssueInput{ItemID: item.ID, Quantity: 10, ActorID: 7})
	require.Error(t, err)
	var ise *domain.InsufficientStockError
	require.ErrorAs(t, err, &ise)
	assert.Equal(t, int64(5), ise.Available)
	assert.Equal(t, int64(10), ise.Requested)
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)
	assert.Equal(t, int64(5), f.quantity(t, item.ID))
	assert.Len(t, f.movements(t, item.ID), movsBefore)
	assert.Len(t, f.alerts(t, item.ID), baseAlerts+1)

	// Escenario 4: Receive(250) sobre 20 → 270, overstock con alerta MEDIUM
	_, err = f.engine.Adjust(ctx, inventoryapp.AdjustInput{ItemID: item.ID, Delta: 15, ActorID: 7})
	require.NoError(t, err)
	res, err = f.engine.Receive(ctx, inventoryapp.ReceiveInput{ItemID: item.ID, Quantity: 250, ActorID: 7, Reference: "PO-1"})
	require.NoError(t, err)
	assert.Equal(t, int64(270), res.NewQuantity)
	assert.Equal(t, inventory.StatusOverstock, res.StockStatus)
	alerts = f.alerts(t, item.ID)
	assert.Equal(t, entity.AlertOverstock, alerts[0].Type)
	assert.Equal(t, entity.SeverityMedium, alerts[0].Severity)

	// El libro encadena sin huecos
	movs := f.movements(t, item.ID)
	sort.Slice(movs, func(i, j int) bool { return movs[i].ID < movs[j].ID })
	assert.True(t, inventory.VerifyChain(movs))
	assert.Equal(t, int64(270), movs[len(movs)-1].QuantityAfter)
}

func TestEngine_Transfer(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.seed(t, "TRF-A", 10, 2, 100)
	b := f.seed(t, "TRF-B", 0, 2, 100)

	res, err := f.engine.Transfer(ctx, inventoryapp.TransferInput{FromItemID: a.ID, ToItemID: b.ID, Quantity: 10, ActorID: 3})
	require.NoError(t, err)
	assert.Equal(t, int64(0), f.quantity(t, a.ID))
	assert.Equal(t, int64(10), f.quantity(t, b.ID))

	out, err := f.store.Movements().GetByID(ctx, res.FromMovementID)
	require.NoError(t, err)
	in, err := f.store.Movements().GetByID(ctx, res.ToMovementID)
	require.NoError(t, err)
	assert.Equal(t, entity.MovementOutbound, out.Type)
	assert.Equal(t, entity.MovementInbound, in.Type)
	assert.Equal(t, fmt.Sprintf("Transfer to item %d", b.ID), out.ReferenceNumber)
	assert.Equal(t, fmt.Sprintf("Transfer from item %d", a.ID), in.ReferenceNumber)
	assert.NotEmpty(t, res.TransactionID)
	assert.Equal(t, res.TransactionID, out.TransactionID)
	assert.Equal(t, res.TransactionID, in.TransactionID)
}

func TestEngine_TransferRechazadoNoDejaRastro(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.seed(t, "TRF-C", 4, 2, 100)
	b := f.seed(t, "TRF-D", 1, 2, 100)
	movsA, movsB := len(f.movements(t, a.ID)), len(f.movements(t, b.ID))

	_, err := f.engine.Transfer(ctx, inventoryapp.TransferInput{FromItemID: a.ID, ToItemID: b.ID, Quantity: 5, ActorID: 3})
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)

	_, err = f.engine.Transfer(ctx, inventoryapp.TransferInput{FromItemID: a.ID, ToItemID: 9999, Quantity: 1, ActorID: 3})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = f.engine.Transfer(ctx, inventoryapp.TransferInput{FromItemID: a.ID, ToItemID: a.ID, Quantity: 1, ActorID: 3})
	assert.ErrorIs(t, err, domain.ErrInvalidOperation)

	_, err = f.engine.Transfer(ctx, inventoryapp.TransferInput{FromItemID: a.ID, ToItemID: b.ID, Quantity: 0, ActorID: 3})
	assert.ErrorIs(t, err, domain.ErrInvalidOperation)

	assert.Equal(t, int64(4), f.quantity(t, a.ID))
	assert.Equal(t, int64(1), f.quantity(t, b.ID))
	assert.Len(t, f.movements(t, a.ID), movsA)
	assert.Len(t, f.movements(t, b.ID), movsB)
}

func TestEngine_AdjustRechazos(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	item := f.seed(t, "ADJ-1", 3, 1, 10)

	_, err := f.engine.Adjust(ctx, inventoryapp.AdjustInput{ItemID: item.ID, Delta: -4, ActorID: 1})
	assert.ErrorIs(t, err, domain.ErrInvalidOperation)
	assert.Equal(t, int64(3), f.quantity(t, item.ID))

	_, err = f.engine.Adjust(ctx, inventoryapp.AdjustInput{ItemID: 424242, Delta: 1, ActorID: 1})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = f.engine.Receive(ctx, inventoryapp.ReceiveInput{ItemID: item.ID, Quantity: 0, ActorID: 1})
	assert.ErrorIs(t, err, domain.ErrInvalidOperation)

	_, err = f.engine.Issue(ctx, inventoryapp.IssueInput{ItemID: item.ID, Quantity: -1, ActorID: 1})
	assert.ErrorIs(t, err, domain.ErrInvalidOperation)

	// delta cero: movimiento ADJUSTMENT
	res, err := f.engine.Adjust(ctx, inventoryapp.AdjustInput{ItemID: item.ID, Delta: 0, ActorID: 1, Reason: "conteo"})
	require.NoError(t, err)
	assert.Equal(t, entity.MovementAdjustment, res.MovementType)
	assert.Equal(t, int64(3), res.NewQuantity)
	assert.Equal(t, 1, f.observer.count(inventoryapp.OpAdjust+"/"+inventoryapp.OutcomeNotFound))
}

func TestEngine_ReceiveCostoNegativoCuentaComoInvalido(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	item := f.seed(t, "RCV-NEG", 3, 1, 10)
	movs := len(f.movements(t, item.ID))

	cost := decimal.NewFromInt(-1)
	_, err := f.engine.Receive(ctx, inventoryapp.ReceiveInput{ItemID: item.ID, Quantity: 2, ActorID: 1, UnitCost: &cost})
	require.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Equal(t, 1, f.observer.count(inventoryapp.OpReceive+"/"+inventoryapp.OutcomeInvalid))
	assert.Equal(t, int64(3), f.quantity(t, item.ID))
	assert.Len(t, f.movements(t, item.ID), movs)
}

func TestEngine_ObservaExistenciaTrasCommit(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.seed(t, "OBS-A", 10, 1, 100)
	b := f.seed(t, "OBS-B", 0, 1, 100)

	_, err := f.engine.Transfer(ctx, inventoryapp.TransferInput{FromItemID: a.ID, ToItemID: b.ID, Quantity: 4, ActorID: 1})
	require.NoError(t, err)
	q, ok := f.observer.quantity(a.ID)
	require.True(t, ok)
	assert.Equal(t, int64(6), q)
	q, ok = f.observer.quantity(b.ID)
	require.True(t, ok)
	assert.Equal(t, int64(4), q)

	_, err = f.engine.Issue(ctx, inventoryapp.IssueInput{ItemID: a.ID, Quantity: 100, ActorID: 1})
	require.ErrorIs(t, err, domain.ErrInsufficientStock)
	q, _ = f.observer.quantity(a.ID)
	assert.Equal(t, int64(6), q, "un rechazo no publica existencia")
}

func TestEngine_ReceiveConCostoRecalculaPromedio(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	cost := decimal.NewFromInt(10)
	item, _, err := f.engine.Open(ctx, &entity.Item{SKU: "COST-1", Name: "Cable", CategoryID: 1, Quantity: 10, MaxStock: 100, Cost: &cost, IsActive: true}, 1)
	require.NoError(t, err)
	require.NotNil(t, item.AverageCost)
	assert.True(t, item.AverageCost.Equal(cost))

	in := decimal.NewFromInt(20)
	_, err = f.engine.Receive(ctx, inventoryapp.ReceiveInput{ItemID: item.ID, Quantity: 10, ActorID: 1, UnitCost: &in})
	require.NoError(t, err)

	got, err := f.store.Items().GetByID(ctx, item.ID)
	require.NoError(t, err)
	assert.True(t, got.AverageCost.Equal(decimal.NewFromInt(15)), "avg %s", got.AverageCost)
	assert.True(t, got.LastCost.Equal(in))
	assert.NotNil(t, got.LastMovement)
	assert.Equal(t, int64(20), got.AvailableQuantity)
}

func TestEngine_OpenRegistraEntradaInicial(t *testing.T) {
	f := newFixture(t)
	item := f.seed(t, "OPEN-1", 12, 5, 100)
	assert.Equal(t, int64(12), item.Quantity)

	movs := f.movements(t, item.ID)
	require.Len(t, movs, 1)
	assert.Equal(t, entity.MovementInbound, movs[0].Type)
	assert.Equal(t, inventoryapp.InitialStockReference, movs[0].ReferenceNumber)
	assert.Equal(t, int64(0), movs[0].QuantityBefore)

	empty := f.seed(t, "OPEN-2", 0, 5, 100)
	assert.Empty(t, f.movements(t, empty.ID))

	_, _, err := f.engine.Open(context.Background(), &entity.Item{SKU: "OPEN-1", Name: "dup", CategoryID: 1}, 1)
	assert.ErrorIs(t, err, domain.ErrDuplicate)
}

func TestEngine_SetQuantity(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	item := f.seed(t, "SET-1", 8, 2, 100)

	res, err := f.engine.SetQuantity(ctx, inventoryapp.SetQuantityInput{ItemID: item.ID, Quantity: 5, ActorID: 2})
	require.NoError(t, err)
	assert.Equal(t, int64(-3), res.Delta)
	assert.Equal(t, entity.MovementAdjustment, res.MovementType)
	mov, err := f.store.Movements().GetByID(ctx, res.MovementID)
	require.NoError(t, err)
	assert.Equal(t, "Quantity adjusted from 8 to 5", mov.Reason)

	before := len(f.movements(t, item.ID))
	res, err = f.engine.SetQuantity(ctx, inventoryapp.SetQuantityInput{ItemID: item.ID, Quantity: 5, ActorID: 2})
	require.NoError(t, err)
	assert.Zero(t, res.MovementID)
	assert.Len(t, f.movements(t, item.ID), before, "sin delta no se escribe movimiento")

	_, err = f.engine.SetQuantity(ctx, inventoryapp.SetQuantityInput{ItemID: item.ID, Quantity: -1, ActorID: 2})
	assert.ErrorIs(t, err, domain.ErrInvalidOperation)
}

// ──────────────────────────────────────────────────────────────────────────────
// Concurrencia
// ──────────────────────────────────────────────────────────────────────────────

func TestEngine_AjustesConcurrentesNoPierdenActualizaciones(t *testing.T) {
	f := newFixture(t)
	item := f.seed(t, "CONC-1", 0, 0, 1000)

	var g errgroup.Group
	for i := 0; i < 100; i++ {
		g.Go(func() error {
			_, err := f.engine.Adjust(context.Background(), inventoryapp.AdjustInput{ItemID: item.ID, Delta: 1, ActorID: 1})
			return err
		})
	}
	require.NoError(t, g.Wait())

	assert.Equal(t, int64(100), f.quantity(t, item.ID))
	movs := f.movements(t, item.ID)
	require.Len(t, movs, 100)
	sort.Slice(movs, func(i, j int) bool { return movs[i].ID < movs[j].ID })
	assert.True(t, inventory.VerifyChain(movs))
	assert.Equal(t, int64(0), movs[0].QuantityBefore)
	assert.Equal(t, int64(100), movs[99].QuantityAfter)
}

func TestEngine_SalidasConcurrentesNuncaQuedanNegativas(t *testing.T) {
	f := newFixture(t)
	item := f.seed(t, "CONC-2", 30, 0, 1000)

	var ok, insufficient atomic.Int32
	g, ctx := errgroup.WithContext(context.Background())
	for i := 0; i < 50; i++ {
		g.Go(func() error {
			_, err := f.engine.Issue(ctx, inventoryapp.IssueInput{ItemID: item.ID, Quantity: 1, ActorID: 1})
			switch {
			case err == nil:
				ok.Add(1)
			case errors.Is(err, domain.ErrInsufficientStock):
				insufficient.Add(1)
			default:
				return err
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())
	assert.Equal(t, int32(30), ok.Load())
	assert.Equal(t, int32(20), insufficient.Load())
	assert.Equal(t, int64(0), f.quantity(t, item.ID))
}

func TestEngine_TrasladosCruzadosSinDeadlock(t *testing.T) {
	f := newFixture(t)
	a := f.seed(t, "X-A", 100, 0, 1000)
	b := f.seed(t, "X-B", 100, 0, 1000)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	var g errgroup.Group
	for i := 0; i < 40; i++ {
		from, to := a.ID, b.ID
		if i%2 == 1 {
			from, to = to, from
		}
		g.Go(func() error {
			_, err := f.engine.Transfer(ctx, inventoryapp.TransferInput{FromItemID: from, ToItemID: to, Quantity: 1, ActorID: 1})
			return err
		})
	}
	require.NoError(t, g.Wait())
	assert.Equal(t, int64(200), f.quantity(t, a.ID)+f.quantity(t, b.ID))
	assert.Equal(t, int64(100), f.quantity(t, a.ID))
}

// ──────────────────────────────────────────────────────────────────────────────
// Efectos posteriores al commit, reintentos y cancelación
// ──────────────────────────────────────────────────────────────────────────────

func TestEngine_FallaDeAlertaNoRevierteMutacion(t *testing.T) {
	store := memory.New()
	engine := inventoryapp.NewStockEngine(store, failingAlerts{store.Alerts()})
	item, _, err := engine.Open(context.Background(), &entity.Item{SKU: "ALR-1", Name: "x", CategoryID: 1, Quantity: 5, ReorderPoint: 2, MaxStock: 10}, 1)
	require.NoError(t, err)

	res, err := engine.Issue(context.Background(), inventoryapp.IssueInput{ItemID: item.ID, Quantity: 5, ActorID: 1})
	require.NoError(t, err)
	assert.Equal(t, int64(0), res.NewQuantity)
	got, _ := store.Items().GetByID(context.Background(), item.ID)
	assert.Equal(t, int64(0), got.Quantity)
}

func TestEngine_PublicaEventosTrasCommit(t *testing.T) {
	f := newFixture(t)
	f.publisher.err = errors.New("broker caído")
	item := f.seed(t, "EVT-1", 5, 1, 100)

	res, err := f.engine.Adjust(context.Background(), inventoryapp.AdjustInput{ItemID: item.ID, Delta: 2, ActorID: 4})
	require.NoError(t, err, "un fallo del broker no afecta la mutación")

	f.publisher.mu.Lock()
	defer f.publisher.mu.Unlock()
	require.Len(t, f.publisher.events, 2)
	ev := f.publisher.events[1]
	assert.Equal(t, res.MovementID, ev.MovementID)
	assert.Equal(t, int64(5), ev.QuantityBefore)
	assert.Equal(t, int64(7), ev.QuantityAfter)
	assert.Equal(t, "EVT-1", ev.SKU)
	assert.Equal(t, int64(4), ev.ActorID)
	assert.NotEmpty(t, ev.EventID)
}

func TestEngine_ReintentaFallosTransitorios(t *testing.T) {
	store := memory.New()
	runner := &flakyRunner{TxRunner: store, failures: 2, retryable: true}
	engine := inventoryapp.NewStockEngine(runner, store.Alerts(), inventoryapp.WithMaxRetries(3))

	item, _, err := inventoryapp.NewStockEngine(store, store.Alerts()).Open(context.Background(),
		&entity.Item{SKU: "RTY-1", Name: "x", CategoryID: 1, Quantity: 1, MaxStock: 10}, 1)
	require.NoError(t, err)

	_, err = engine.Adjust(context.Background(), inventoryapp.AdjustInput{ItemID: item.ID, Delta: 1, ActorID: 1})
	require.NoError(t, err)
	assert.Equal(t, int32(3), runner.calls.Load())

	got, _ := store.Items().GetByID(context.Background(), item.ID)
	assert.Equal(t, int64(2), got.Quantity, "los intentos fallidos no dejan rastro")
	movs, _ := store.Movements().List(context.Background(), repository.MovementFilter{ItemID: &item.ID}, 0)
	assert.Len(t, movs, 2)
}

func TestEngine_NoReintentaFallosPermanentes(t *testing.T) {
	store := memory.New()
	runner := &flakyRunner{TxRunner: store, failures: 1, retryable: false}
	engine := inventoryapp.NewStockEngine(runner, store.Alerts(), inventoryapp.WithMaxRetries(3))
	item, _, err := inventoryapp.NewStockEngine(store, store.Alerts()).Open(context.Background(),
		&entity.Item{SKU: "RTY-2", Name: "x", CategoryID: 1, Quantity: 1, MaxStock: 10}, 1)
	require.NoError(t, err)

	_, err = engine.Adjust(context.Background(), inventoryapp.AdjustInput{ItemID: item.ID, Delta: 1, ActorID: 1})
	assert.ErrorIs(t, err, domain.ErrPersistence)
	assert.Equal(t, int32(1), runner.calls.Load())
}

func TestEngine_CancelacionNoDejaRastro(t *testing.T) {
	f := newFixture(t)
	item := f.seed(t, "CNL-1", 5, 1, 100)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := f.engine.Adjust(ctx, inventoryapp.AdjustInput{ItemID: item.ID, Delta: 3, ActorID: 1})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, int64(5), f.quantity(t, item.ID))
	assert.Len(t, f.movements(t, item.ID), 1)
}
