package inventory

import (
	"context"
	"time"

	"github.com/jhoicas/inventory-ledger/internal/domain/entity"
	"github.com/jhoicas/inventory-ledger/internal/domain/repository"
)

// TxRunner ejecuta una función dentro de una transacción, pasando repositorios atados a esa tx.
// Si fn devuelve error se hace rollback y no queda rastro de la unidad de trabajo.
type TxRunner interface {
	Run(ctx context.Context, fn func(
		itemRepo repository.ItemRepository,
		movRepo repository.InventoryMovementRepository,
		alertRepo repository.AlertRepository,
	) error) error
}

// StockChangedEvent se publica después del commit de cada movimiento.
type StockChangedEvent struct {
	EventID        string              `json:"event_id"`
	TransactionID  string              `json:"transaction_id"`
	MovementID     int64               `json:"movement_id"`
	ItemID         int64               `json:"item_id"`
	SKU            string              `json:"sku"`
	MovementType   entity.MovementType `json:"movement_type"`
	Delta          int64               `json:"delta"`
	QuantityBefore int64               `json:"quantity_before"`
	QuantityAfter  int64               `json:"quantity_after"`
	StockStatus    string              `json:"stock_status"`
	ActorID        int64               `json:"actor_id"`
	OccurredAt     time.Time           `json:"occurred_at"`
}

// EventPublisher puerto de salida para eventos de stock (Kafka u otro broker).
type EventPublisher interface {
	PublishStockChanged(ctx context.Context, event StockChangedEvent) error
}

// MutationObserver recibe el resultado de cada operación del motor (métricas) y la
// existencia de cada item tras un commit.
type MutationObserver interface {
	ObserveMutation(operation, outcome string, elapsed time.Duration)
	ObserveQuantity(itemID int64, sku string, quantity int64)
}

type noopPublisher struct{}

func (noopPublisher) PublishStockChanged(context.Context, StockChangedEvent) error { return nil }

type noopObserver struct{}

func (noopObserver) ObserveMutation(string, string, time.Duration) {}

func (noopObserver) ObserveQuantity(int64, string, int64) {}
