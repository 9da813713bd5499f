// Package memory implementa los puertos de persistencia en proceso. Cada unidad de trabajo
// acumula sus escrituras y las aplica en bloque al hacer commit; las filas de items se
// bloquean con un candado por id, equivalente a SELECT ... FOR UPDATE.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"

	inventoryapp "github.com/jhoicas/inventory-ledger/internal/application/inventory"
	"github.com/jhoicas/inventory-ledger/internal/domain"
	"github.com/jhoicas/inventory-ledger/internal/domain/entity"
	"github.com/jhoicas/inventory-ledger/internal/domain/repository"
)

// Store estado en memoria. Es seguro para uso concurrente.
type Store struct {
	mu         sync.RWMutex
	items      map[int64]*entity.Item
	skus       map[string]int64
	movements  map[int64]*entity.InventoryMovement
	movOrder   []int64 // ids ascendentes
	alerts     map[int64]*entity.Alert
	categories map[int64]*entity.Category
	suppliers  map[int64]*entity.Supplier
	locations  map[int64]*entity.Location

	locksMu  sync.Mutex
	rowLocks map[int64]chan struct{}

	itemSeq    atomic.Int64
	movSeq     atomic.Int64
	alertSeq   atomic.Int64
	catalogSeq atomic.Int64
}

var _ inventoryapp.TxRunner = (*Store)(nil)

// New crea un store vacío.
func New() *Store {
	return &Store{
		items:      make(map[int64]*entity.Item),
		skus:       make(map[string]int64),
		movements:  make(map[int64]*entity.InventoryMovement),
		alerts:     make(map[int64]*entity.Alert),
		categories: make(map[int64]*entity.Category),
		suppliers:  make(map[int64]*entity.Supplier),
		locations:  make(map[int64]*entity.Location),
		rowLocks:   make(map[int64]chan struct{}),
	}
}

// Run ejecuta fn en una unidad de trabajo. Si fn falla o ctx se cancela antes del commit,
// nada de lo escrito se aplica.
func (s *Store) Run(ctx context.Context, fn func(
	itemRepo repository.ItemRepository,
	movRepo repository.InventoryMovementRepository,
	alertRepo repository.AlertRepository,
) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	t := newTx(s)
	defer t.release()
	if err := fn(&itemTx{t}, &movementTx{t}, &alertTx{t}); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return t.commit()
}

// Items repositorio de items en modo autocommit.
func (s *Store) Items() repository.ItemRepository { return &itemRepo{s} }

// Movements repositorio del libro en modo autocommit.
func (s *Store) Movements() repository.InventoryMovementRepository { return &movementRepo{s} }

// Alerts repositorio de alertas en modo autocommit.
func (s *Store) Alerts() repository.AlertRepository { return &alertRepo{s} }

// Categories repositorio de categorías.
func (s *Store) Categories() repository.CategoryRepository { return &categoryRepo{s} }

// Suppliers repositorio de proveedores.
func (s *Store) Suppliers() repository.SupplierRepository { return &supplierRepo{s} }

// Locations repositorio de ubicaciones.
func (s *Store) Locations() repository.LocationRepository { return &locationRepo{s} }

// atomically corre una operación suelta en su propia unidad de trabajo.
func (s *Store) atomically(ctx context.Context, fn func(t *tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	t := newTx(s)
	defer t.release()
	if err := fn(t); err != nil {
		return err
	}
	return t.commit()
}

func (s *Store) rowLock(id int64) chan struct{} {
	s.locksMu.Lock()
	defer s.locksMu.Unlock()
	ch, ok := s.rowLocks[id]
	if !ok {
		ch = make(chan struct{}, 1)
		s.rowLocks[id] = ch
	}
	return ch
}

// ── transacción ──────────────────────────────────────────────────────────────

type tx struct {
	s       *Store
	held    map[int64]chan struct{}
	staged  map[int64]*entity.Item
	deleted map[int64]bool
	created map[int64]bool
	ops     []func(s *Store)
}

func newTx(s *Store) *tx {
	return &tx{
		s:       s,
		held:    make(map[int64]chan struct{}),
		staged:  make(map[int64]*entity.Item),
		deleted: make(map[int64]bool),
		created: make(map[int64]bool),
	}
}

// lockRow toma el candado de la fila hasta el fin de la transacción.
func (t *tx) lockRow(ctx context.Context, id int64) error {
	if _, ok := t.held[id]; ok || t.created[id] {
		return nil
	}
	ch := t.s.rowLock(id)
	select {
	case ch <- struct{}{}:
		t.held[id] = ch
		return nil
	case <-ctx.Done():
		return &domain.PersistenceError{Op: "lock item", Err: ctx.Err()}
	}
}

func (t *tx) release() {
	for id, ch := range t.held {
		<-ch
		delete(t.held, id)
	}
}

// item devuelve la versión visible para esta transacción (sin copiar).
func (t *tx) item(id int64) *entity.Item {
	if t.deleted[id] {
		return nil
	}
	if it, ok := t.staged[id]; ok {
		return it
	}
	t.s.mu.RLock()
	defer t.s.mu.RUnlock()
	return t.s.items[id]
}

func (t *tx) stage(it *entity.Item) {
	c := it.Clone()
	t.staged[c.ID] = c
	t.ops = append(t.ops, func(s *Store) {
		if old, ok := s.items[c.ID]; ok && old.SKU != c.SKU {
			delete(s.skus, old.SKU)
		}
		s.items[c.ID] = c
		s.skus[c.SKU] = c.ID
	})
}

func (t *tx) commit() error {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	for id := range t.created {
		it := t.staged[id]
		if it == nil {
			continue
		}
		if other, ok := t.s.skus[it.SKU]; ok && other != id {
			return fmt.Errorf("sku %s: %w", it.SKU, domain.ErrDuplicate)
		}
	}
	for _, op := range t.ops {
		op(t.s)
	}
	t.ops = nil
	return nil
}

// insertOrdered inserta id en una lista ascendente.
func insertOrdered(ids []int64, id int64) []int64 {
	i := sort.Search(len(ids), func(i int) bool { return ids[i] >= id })
	ids = append(ids, 0)
	copy(ids[i+1:], ids[i:])
	ids[i] = id
	return ids
}
