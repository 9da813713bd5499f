package inventory

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/inventory-ledger/internal/domain"
	"github.com/jhoicas/inventory-ledger/internal/domain/entity"
	"github.com/jhoicas/inventory-ledger/internal/domain/inventory"
	"github.com/jhoicas/inventory-ledger/internal/domain/repository"
)

// Nombres de operación usados en logs y métricas.
const (
	OpAdjust      = "adjust"
	OpReceive     = "receive"
	OpIssue       = "issue"
	OpTransfer    = "transfer"
	OpSetQuantity = "set_quantity"
	OpOpen        = "open"
)

// Referencias que el motor escribe en el libro.
const (
	InitialStockReference = "Initial stock entry"
	transferToFormat      = "Transfer to item %d"
	transferFromFormat    = "Transfer from item %d"
)

const retryBackoff = 20 * time.Millisecond

// StockEngine es el único camino para cambiar Item.Quantity. Cada operación corre en una
// unidad de trabajo: bloquea la(s) fila(s), valida, persiste cantidad + movimiento y hace
// commit. Alertas y eventos se emiten después del commit y nunca revierten la mutación.
type StockEngine struct {
	txRunner   TxRunner
	alertRepo  repository.AlertRepository
	publisher  EventPublisher
	observer   MutationObserver
	log        zerolog.Logger
	maxRetries int
	now        func() time.Time
}

// EngineOption configura dependencias opcionales del motor.
type EngineOption func(*StockEngine)

// WithEventPublisher publica stock.changed después de cada commit.
func WithEventPublisher(p EventPublisher) EngineOption {
	return func(e *StockEngine) {
		if p != nil {
			e.publisher = p
		}
	}
}

// WithObserver registra duración y resultado de cada operación.
func WithObserver(o MutationObserver) EngineOption {
	return func(e *StockEngine) {
		if o != nil {
			e.observer = o
		}
	}
}

// WithLogger asigna el logger del motor.
func WithLogger(l zerolog.Logger) EngineOption {
	return func(e *StockEngine) { e.log = l }
}

// WithMaxRetries reintentos de la unidad completa ante fallos transitorios.
func WithMaxRetries(n int) EngineOption {
	return func(e *StockEngine) {
		if n >= 0 {
			e.maxRetries = n
		}
	}
}

// WithClock reemplaza time.Now (tests).
func WithClock(now func() time.Time) EngineOption {
	return func(e *StockEngine) { e.now = now }
}

// NewStockEngine construye el motor. alertRepo se usa fuera de la transacción.
func NewStockEngine(txRunner TxRunner, alertRepo repository.AlertRepository, opts ...EngineOption) *StockEngine {
	e := &StockEngine{
		txRunner:   txRunner,
		alertRepo:  alertRepo,
		publisher:  noopPublisher{},
		observer:   noopObserver{},
		log:        zerolog.Nop(),
		maxRetries: 3,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// AdjustInput delta con signo; el tipo de movimiento sale del signo.
type AdjustInput struct {
	ItemID  int64
	Delta   int64
	ActorID int64
	Reason  string
}

// ReceiveInput entrada de mercancía. UnitCost opcional recalcula el costo promedio.
type ReceiveInput struct {
	ItemID    int64
	Quantity  int64
	ActorID   int64
	Reference string
	Notes     string
	UnitCost  *decimal.Decimal
}

// IssueInput salida de mercancía.
type IssueInput struct {
	ItemID    int64
	Quantity  int64
	ActorID   int64
	Reference string
	Notes     string
}

// TransferInput traslado entre dos items.
type TransferInput struct {
	FromItemID int64
	ToItemID   int64
	Quantity   int64
	ActorID    int64
	Notes      string
}

// SetQuantityInput fija la existencia a un valor absoluto (conteo físico, edición de catálogo).
type SetQuantityInput struct {
	ItemID   int64
	Quantity int64
	ActorID  int64
	Reason   string
}

// MutationResult resultado de una mutación sobre un item.
type MutationResult struct {
	ItemID        int64
	OldQuantity   int64
	NewQuantity   int64
	Delta         int64
	MovementID    int64
	MovementType  entity.MovementType
	TransactionID string
	StockStatus   inventory.StockStatus
	Timestamp     time.Time
}

// TransferResult resultado de un traslado; ambas patas comparten TransactionID.
type TransferResult struct {
	FromItemID     int64
	ToItemID       int64
	Quantity       int64
	FromMovementID int64
	ToMovementID   int64
	TransactionID  string
	Timestamp      time.Time
}

// Adjust aplica un delta con signo. El resultado no puede quedar negativo.
func (e *StockEngine) Adjust(ctx context.Context, in AdjustInput) (*MutationResult, error) {
	legs := []leg{{
		itemID:  in.ItemID,
		delta:   in.Delta,
		typ:     inventory.MovementTypeForDelta(in.Delta),
		actorID: in.ActorID,
		reason:  in.Reason,
	}}
	res, err := e.execute(ctx, OpAdjust, func(ctx context.Context, u *unit) error {
		return u.applyAll(ctx, legs)
	})
	if err != nil {
		return nil, err
	}
	return res[0], nil
}

// Receive suma quantity (> 0) con movimiento INBOUND.
func (e *StockEngine) Receive(ctx context.Context, in ReceiveInput) (*MutationResult, error) {
	if in.Quantity <= 0 {
		e.observer.ObserveMutation(OpReceive, outcomeOf(domain.ErrInvalidOperation), 0)
		return nil, domain.InvalidOperation("la cantidad a recibir debe ser positiva, recibido %d", in.Quantity)
	}
	if in.UnitCost != nil && in.UnitCost.IsNegative() {
		err := fmt.Errorf("%w: unit_cost negativo", domain.ErrInvalidInput)
		e.observer.ObserveMutation(OpReceive, outcomeOf(err), 0)
		return nil, err
	}
	legs := []leg{{
		itemID:    in.ItemID,
		delta:     in.Quantity,
		typ:       entity.MovementInbound,
		actorID:   in.ActorID,
		reference: in.Reference,
		notes:     in.Notes,
		unitCost:  in.UnitCost,
	}}
	res, err := e.execute(ctx, OpReceive, func(ctx context.Context, u *unit) error {
		return u.applyAll(ctx, legs)
	})
	if err != nil {
		return nil, err
	}
	return res[0], nil
}

// Issue resta quantity (> 0) con movimiento OUTBOUND; rechaza con InsufficientStockError
// si la existencia no alcanza.
func (e *StockEngine) Issue(ctx context.Context, in IssueInput) (*MutationResult, error) {
	if in.Quantity <= 0 {
		e.observer.ObserveMutation(OpIssue, outcomeOf(domain.ErrInvalidOperation), 0)
		return nil, domain.InvalidOperation("la cantidad a despachar debe ser positiva, recibido %d", in.Quantity)
	}
	legs := []leg{{
		itemID:      in.ItemID,
		delta:       -in.Quantity,
		typ:         entity.MovementOutbound,
		actorID:     in.ActorID,
		reference:   in.Reference,
		notes:       in.Notes,
		checkOnHand: true,
	}}
	res, err := e.execute(ctx, OpIssue, func(ctx context.Context, u *unit) error {
		return u.applyAll(ctx, legs)
	})
	if err != nil {
		return nil, err
	}
	return res[0], nil
}

// Transfer mueve quantity de un item a otro en una sola transacción. Ambas filas se
// bloquean en orden ascendente de id y ambas patas se validan antes de aplicar ninguna.
func (e *StockEngine) Transfer(ctx context.Context, in TransferInput) (*TransferResult, error) {
	if in.Quantity <= 0 {
		e.observer.ObserveMutation(OpTransfer, outcomeOf(domain.ErrInvalidOperation), 0)
		return nil, domain.InvalidOperation("la cantidad a trasladar debe ser positiva, recibido %d", in.Quantity)
	}
	if in.FromItemID == in.ToItemID {
		e.observer.ObserveMutation(OpTransfer, outcomeOf(domain.ErrInvalidOperation), 0)
		return nil, domain.InvalidOperation("origen y destino son el mismo item %d", in.FromItemID)
	}
	txID := uuid.New().String()
	legs := []leg{
		{
			itemID:      in.FromItemID,
			delta:       -in.Quantity,
			typ:         entity.MovementOutbound,
			actorID:     in.ActorID,
			reference:   fmt.Sprintf(transferToFormat, in.ToItemID),
			notes:       in.Notes,
			txID:        txID,
			checkOnHand: true,
		},
		{
			itemID:    in.ToItemID,
			delta:     in.Quantity,
			typ:       entity.MovementInbound,
			actorID:   in.ActorID,
			reference: fmt.Sprintf(transferFromFormat, in.FromItemID),
			notes:     in.Notes,
			txID:      txID,
		},
	}
	res, err := e.execute(ctx, OpTransfer, func(ctx context.Context, u *unit) error {
		return u.applyAll(ctx, legs)
	})
	if err != nil {
		return nil, err
	}
	return &TransferResult{
		FromItemID:     in.FromItemID,
		ToItemID:       in.ToItemID,
		Quantity:       in.Quantity,
		FromMovementID: res[0].MovementID,
		ToMovementID:   res[1].MovementID,
		TransactionID:  txID,
		Timestamp:      res[0].Timestamp,
	}, nil
}

// SetQuantity lleva la existencia a un valor absoluto con un movimiento ADJUSTMENT.
// El delta se calcula con la fila bloqueada; un delta cero no escribe nada.
func (e *StockEngine) SetQuantity(ctx context.Context, in SetQuantityInput) (*MutationResult, error) {
	if in.Quantity < 0 {
		e.observer.ObserveMutation(OpSetQuantity, outcomeOf(domain.ErrInvalidOperation), 0)
		return nil, domain.InvalidOperation("la cantidad no puede ser negativa, recibido %d", in.Quantity)
	}
	res, err := e.execute(ctx, OpSetQuantity, func(ctx context.Context, u *unit) error {
		if err := u.lock(ctx, in.ItemID); err != nil {
			return err
		}
		current := u.locked[in.ItemID]
		delta := in.Quantity - current.Quantity
		if delta == 0 {
			u.unchanged(current)
			return nil
		}
		reason := in.Reason
		if reason == "" {
			reason = fmt.Sprintf("Quantity adjusted from %d to %d", current.Quantity, in.Quantity)
		}
		return u.apply(ctx, leg{
			itemID:  in.ItemID,
			delta:   delta,
			typ:     entity.MovementAdjustment,
			actorID: in.ActorID,
			reason:  reason,
		})
	})
	if err != nil {
		return nil, err
	}
	return res[0], nil
}

// Open da de alta un item y registra su existencia inicial (si la hay) como movimiento
// INBOUND "Initial stock entry" en la misma transacción.
func (e *StockEngine) Open(ctx context.Context, item *entity.Item, actorID int64) (*entity.Item, *MutationResult, error) {
	if item.Quantity < 0 {
		return nil, nil, domain.InvalidOperation("existencia inicial negativa %d", item.Quantity)
	}
	initial := item.Quantity
	var created *entity.Item
	res, err := e.execute(ctx, OpOpen, func(ctx context.Context, u *unit) error {
		draft := item.Clone()
		draft.Quantity = 0
		draft.ReservedQuantity = 0
		draft.LastMovement = nil
		draft.RecomputeAvailable()
		if err := u.items.Create(ctx, draft); err != nil {
			return err
		}
		if initial == 0 {
			created = draft
			return nil
		}
		if err := u.apply(ctx, leg{
			itemID:    draft.ID,
			delta:     initial,
			typ:       entity.MovementInbound,
			actorID:   actorID,
			reference: InitialStockReference,
			unitCost:  item.Cost,
		}); err != nil {
			return err
		}
		created = u.locked[draft.ID]
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	if len(res) == 0 {
		return created, nil, nil
	}
	return created, res[0], nil
}

// execute corre fn en una unidad de trabajo, repitiendo la unidad completa ante fallos
// transitorios. Tras el commit deriva alertas y publica eventos.
func (e *StockEngine) execute(ctx context.Context, op string, fn func(context.Context, *unit) error) ([]*MutationResult, error) {
	start := time.Now()
	var (
		u   *unit
		err error
	)
	for attempt := 0; ; attempt++ {
		u = newUnit(e.now())
		err = e.txRunner.Run(ctx, func(
			itemRepo repository.ItemRepository,
			movRepo repository.InventoryMovementRepository,
			_ repository.AlertRepository,
		) error {
			u.bind(itemRepo, movRepo)
			return fn(ctx, u)
		})
		if err == nil || !domain.IsRetryable(err) || attempt >= e.maxRetries {
			break
		}
		e.log.Warn().Err(err).Str("op", op).Int("attempt", attempt+1).Msg("unidad de trabajo en conflicto, reintentando")
		select {
		case <-ctx.Done():
			err = ctx.Err()
		case <-time.After(retryBackoff * time.Duration(attempt+1)):
			continue
		}
		break
	}
	e.observer.ObserveMutation(op, outcomeOf(err), time.Since(start))
	if err != nil {
		e.log.Debug().Err(err).Str("op", op).Msg("mutación rechazada")
		return nil, err
	}

	results := make([]*MutationResult, 0, len(u.applied))
	for _, a := range u.applied {
		results = append(results, a.result())
		e.log.Info().
			Str("op", op).
			Int64("item_id", a.item.ID).
			Int64("delta", a.movement.Quantity).
			Int64("quantity", a.item.Quantity).
			Int64("movement_id", a.movement.ID).
			Msg("stock actualizado")
	}
	if len(results) == 0 && u.noop != nil {
		results = append(results, u.noop)
	}
	e.afterCommit(ctx, u.applied)
	return results, nil
}

// afterCommit emite alertas y eventos. Los fallos se registran y se ignoran.
func (e *StockEngine) afterCommit(ctx context.Context, applied []appliedLeg) {
	ctx = context.WithoutCancel(ctx)
	for _, a := range applied {
		e.observer.ObserveQuantity(a.item.ID, a.item.SKU, a.item.Quantity)
		if alert := inventory.DeriveAlert(a.item, a.movement.CreatedAt); alert != nil {
			if a.movement.UserID > 0 {
				uid := a.movement.UserID
				alert.UserID = &uid
			}
			if err := e.alertRepo.Create(ctx, alert); err != nil {
				e.log.Warn().Err(err).Int64("item_id", a.item.ID).Str("alert", string(alert.Type)).Msg("no se pudo persistir la alerta")
			}
		}
		ev := StockChangedEvent{
			EventID:        uuid.New().String(),
			TransactionID:  a.movement.TransactionID,
			MovementID:     a.movement.ID,
			ItemID:         a.item.ID,
			SKU:            a.item.SKU,
			MovementType:   a.movement.Type,
			Delta:          a.movement.Quantity,
			QuantityBefore: a.movement.QuantityBefore,
			QuantityAfter:  a.movement.QuantityAfter,
			StockStatus:    string(inventory.StatusOf(a.item)),
			ActorID:        a.movement.UserID,
			OccurredAt:     a.movement.CreatedAt,
		}
		if err := e.publisher.PublishStockChanged(ctx, ev); err != nil {
			e.log.Error().Err(err).Int64("movement_id", a.movement.ID).Msg("no se pudo publicar stock.changed")
		}
	}
}

// Resultados para métricas.
const (
	OutcomeOK           = "ok"
	OutcomeNotFound     = "not_found"
	OutcomeInvalid      = "invalid"
	OutcomeInsufficient = "insufficient_stock"
	OutcomePersistence  = "persistence"
	OutcomeCanceled     = "canceled"
	OutcomeError        = "error"
)

func outcomeOf(err error) string {
	switch {
	case err == nil:
		return OutcomeOK
	case errors.Is(err, domain.ErrNotFound):
		return OutcomeNotFound
	case errors.Is(err, domain.ErrInsufficientStock):
		return OutcomeInsufficient
	case errors.Is(err, domain.ErrInvalidOperation), errors.Is(err, domain.ErrInvalidInput):
		return OutcomeInvalid
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return OutcomeCanceled
	case errors.Is(err, domain.ErrPersistence):
		return OutcomePersistence
	default:
		return OutcomeError
	}
}

// ── unidad de trabajo ────────────────────────────────────────────────────────

// leg es un cambio sobre un item dentro de una unidad de trabajo.
type leg struct {
	itemID      int64
	delta       int64
	typ         entity.MovementType
	actorID     int64
	reference   string
	reason      string
	notes       string
	txID        string
	unitCost    *decimal.Decimal
	checkOnHand bool
}

type appliedLeg struct {
	item     *entity.Item
	movement *entity.InventoryMovement
}

func (a appliedLeg) result() *MutationResult {
	return &MutationResult{
		ItemID:        a.item.ID,
		OldQuantity:   a.movement.QuantityBefore,
		NewQuantity:   a.movement.QuantityAfter,
		Delta:         a.movement.Quantity,
		MovementID:    a.movement.ID,
		MovementType:  a.movement.Type,
		TransactionID: a.movement.TransactionID,
		StockStatus:   inventory.StatusOf(a.item),
		Timestamp:     a.movement.CreatedAt,
	}
}

// unit mantiene las filas bloqueadas y lo aplicado durante un intento.
type unit struct {
	items   repository.ItemRepository
	movs    repository.InventoryMovementRepository
	now     time.Time
	locked  map[int64]*entity.Item
	applied []appliedLeg
	noop    *MutationResult
}

func newUnit(now time.Time) *unit {
	return &unit{now: now, locked: make(map[int64]*entity.Item, 2)}
}

func (u *unit) bind(items repository.ItemRepository, movs repository.InventoryMovementRepository) {
	u.items, u.movs = items, movs
}

// lock bloquea las filas en orden ascendente de id para evitar deadlocks entre traslados.
func (u *unit) lock(ctx context.Context, ids ...int64) error {
	sorted := append([]int64(nil), ids...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	for _, id := range sorted {
		if _, ok := u.locked[id]; ok {
			continue
		}
		item, err := u.items.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if item == nil {
			return fmt.Errorf("item %d: %w", id, domain.ErrNotFound)
		}
		u.locked[id] = item
	}
	return nil
}

// check valida una pata contra la fila bloqueada sin modificar nada.
func (u *unit) check(l leg) error {
	item := u.locked[l.itemID]
	if l.checkOnHand && item.Quantity < -l.delta {
		return &domain.InsufficientStockError{ItemID: item.ID, Available: item.Quantity, Requested: -l.delta}
	}
	if after := item.Quantity + l.delta; after < 0 {
		return domain.InvalidOperation("el stock del item %d quedaría en %d", item.ID, after)
	}
	return nil
}

// applyAll bloquea, valida todas las patas y solo entonces las aplica.
func (u *unit) applyAll(ctx context.Context, legs []leg) error {
	ids := make([]int64, len(legs))
	for i, l := range legs {
		ids[i] = l.itemID
	}
	if err := u.lock(ctx, ids...); err != nil {
		return err
	}
	for _, l := range legs {
		if err := u.check(l); err != nil {
			return err
		}
	}
	for _, l := range legs {
		if err := u.apply(ctx, l); err != nil {
			return err
		}
	}
	return nil
}

// apply persiste la nueva cantidad y el movimiento de una pata ya validada.
func (u *unit) apply(ctx context.Context, l leg) error {
	if err := u.lock(ctx, l.itemID); err != nil {
		return err
	}
	if err := u.check(l); err != nil {
		return err
	}
	item := u.locked[l.itemID].Clone()
	mov, err := Record(ctx, u.movs, inventory.Record{
		TransactionID:  l.txID,
		ItemID:         item.ID,
		Type:           l.typ,
		Delta:          l.delta,
		QuantityBefore: item.Quantity,
		UserID:         l.actorID,
		LocationID:     item.LocationID,
		UnitCost:       unitCostFor(item, l),
		Reference:      l.reference,
		Reason:         l.reason,
		Notes:          l.notes,
	}, u.now)
	if err != nil {
		return err
	}
	if l.unitCost != nil && l.delta > 0 {
		avg := inventory.CostCalculator(item.Quantity, item.AverageCost, l.delta, *l.unitCost)
		last := *l.unitCost
		item.LastCost = &last
		item.AverageCost = &avg
	}
	item.Quantity = mov.QuantityAfter
	if item.ReservedQuantity > item.Quantity {
		item.ReservedQuantity = item.Quantity
	}
	item.RecomputeAvailable()
	ts := u.now
	item.LastMovement = &ts
	item.UpdatedAt = u.now
	if err := u.items.UpdateStock(ctx, item); err != nil {
		return err
	}
	u.locked[item.ID] = item
	u.applied = append(u.applied, appliedLeg{item: item, movement: mov})
	return nil
}

// unchanged registra el resultado de una unidad que no modificó el item.
func (u *unit) unchanged(item *entity.Item) {
	u.noop = &MutationResult{
		ItemID:       item.ID,
		OldQuantity:  item.Quantity,
		NewQuantity:  item.Quantity,
		MovementType: entity.MovementAdjustment,
		StockStatus:  inventory.StatusOf(item),
		Timestamp:    u.now,
	}
}

// unitCostFor costo unitario del movimiento: el de la entrada si viene, si no el promedio.
func unitCostFor(item *entity.Item, l leg) *decimal.Decimal {
	if l.unitCost != nil {
		return l.unitCost
	}
	if item.AverageCost != nil {
		return item.AverageCost
	}
	return item.Cost
}
