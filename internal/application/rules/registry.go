package rules

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/jhoicas/inventory-ledger/internal/domain"
	"github.com/jhoicas/inventory-ledger/internal/domain/entity"
)

type entry struct {
	rule  Rule
	conds []compiled
}

// Registry reglas indexadas por id. Lo crea la raíz de composición; no hay estado global.
// Es seguro para uso concurrente.
type Registry struct {
	mu    sync.RWMutex
	rules map[string]*entry
	log   zerolog.Logger
	now   func() time.Time
}

// NewRegistry registro vacío.
func NewRegistry(log zerolog.Logger) *Registry {
	return &Registry{rules: make(map[string]*entry), log: log, now: time.Now}
}

// NewDefaultRegistry registro con las validaciones de catálogo: precio positivo y formato de SKU.
func NewDefaultRegistry(log zerolog.Logger) *Registry {
	r := NewRegistry(log)
	defaults := []Rule{
		{
			ID:          "price_validation",
			Type:        TypeValidation,
			Priority:    PriorityHigh,
			Description: "El precio del item debe ser positivo",
			Conditions:  []Condition{{Field: FieldPrice, Operator: OpGreaterThan, Value: "0"}},
		},
		{
			ID:          "sku_format_validation",
			Type:        TypeValidation,
			Priority:    PriorityHigh,
			Description: "El SKU debe tener 3 a 20 caracteres alfanuméricos, guion o guion bajo",
			Conditions:  []Condition{{Field: FieldSKU, Operator: OpMatches, Value: `(?i)^[A-Z0-9_-]{3,20}$`}},
		},
	}
	for _, rule := range defaults {
		rule.Active = true
		if err := r.Register(rule); err != nil {
			panic(err)
		}
	}
	return r
}

// Register agrega la regla. Prioridad 0 se toma como media. Un id repetido devuelve ErrDuplicate.
func (r *Registry) Register(rule Rule) error {
	rule.ID = strings.TrimSpace(rule.ID)
	if rule.ID == "" {
		return fmt.Errorf("%w: id de regla requerido", domain.ErrInvalidInput)
	}
	if !rule.Type.valid() {
		return fmt.Errorf("%w: tipo de regla %q", domain.ErrInvalidInput, rule.Type)
	}
	if rule.Priority == 0 {
		rule.Priority = PriorityMedium
	}
	if rule.Priority < PriorityLow || rule.Priority > PriorityCritical {
		return fmt.Errorf("%w: prioridad %d fuera de rango", domain.ErrInvalidInput, rule.Priority)
	}
	conds := make([]compiled, 0, len(rule.Conditions))
	for _, c := range rule.Conditions {
		cc, err := compile(c)
		if err != nil {
			return err
		}
		conds = append(conds, cc)
	}
	for _, a := range rule.Actions {
		if err := validateAction(a); err != nil {
			return err
		}
	}
	rule.Conditions = append([]Condition(nil), rule.Conditions...)
	rule.Actions = append([]Action(nil), rule.Actions...)

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.rules[rule.ID]; ok {
		return fmt.Errorf("regla %s: %w", rule.ID, domain.ErrDuplicate)
	}
	rule.CreatedAt = r.now()
	r.rules[rule.ID] = &entry{rule: rule, conds: conds}
	r.log.Info().Str("rule_id", rule.ID).Str("type", string(rule.Type)).Msg("regla registrada")
	return nil
}

// Remove elimina la regla.
func (r *Registry) Remove(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.rules[id]; !ok {
		return fmt.Errorf("regla %s: %w", id, domain.ErrNotFound)
	}
	delete(r.rules, id)
	r.log.Info().Str("rule_id", id).Msg("regla eliminada")
	return nil
}

// Activate marca la regla como activa.
func (r *Registry) Activate(id string) error { return r.setActive(id, true) }

// Deactivate marca la regla como inactiva; Execute la reporta como inactive y Validate la ignora.
func (r *Registry) Deactivate(id string) error { return r.setActive(id, false) }

func (r *Registry) setActive(id string, active bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.rules[id]
	if !ok {
		return fmt.Errorf("regla %s: %w", id, domain.ErrNotFound)
	}
	e.rule.Active = active
	r.log.Info().Str("rule_id", id).Bool("active", active).Msg("estado de regla actualizado")
	return nil
}

// Get copia de la regla, o ErrNotFound.
func (r *Registry) Get(id string) (Rule, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.rules[id]
	if !ok {
		return Rule{}, fmt.Errorf("regla %s: %w", id, domain.ErrNotFound)
	}
	return cloneRule(e.rule), nil
}

// List todas las reglas, por prioridad descendente y luego id.
func (r *Registry) List() []Rule {
	r.mu.RLock()
	out := make([]Rule, 0, len(r.rules))
	for _, e := range r.rules {
		out = append(out, cloneRule(e.rule))
	}
	r.mu.RUnlock()
	sortRules(out)
	return out
}

// Summary conteos por estado y por tipo.
type Summary struct {
	Total    int
	Active   int
	Inactive int
	ByType   map[Type]int
	Rules    []Rule
}

// Summary resume el registro.
func (r *Registry) Summary() Summary {
	rules := r.List()
	s := Summary{Total: len(rules), ByType: make(map[Type]int), Rules: rules}
	for _, rule := range rules {
		if rule.Active {
			s.Active++
		} else {
			s.Inactive++
		}
		s.ByType[rule.Type]++
	}
	return s
}

// Execute evalúa una regla contra el item. Una regla sin condiciones siempre aplica.
// Si el item no tiene valor para un campo de la condición, la regla no aplica.
func (r *Registry) Execute(id string, item *entity.Item) (*Result, error) {
	r.mu.RLock()
	e, ok := r.rules[id]
	var snapshot entry
	if ok {
		snapshot = entry{rule: cloneRule(e.rule), conds: e.conds}
	}
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("regla %s: %w", id, domain.ErrNotFound)
	}

	res := &Result{RuleID: id, Timestamp: r.now()}
	if item == nil {
		res.Status = StatusError
		res.Message = "item requerido"
		return res, nil
	}
	if !snapshot.rule.Active {
		res.Status = StatusInactive
		res.Message = "la regla está inactiva"
		return res, nil
	}
	for _, c := range snapshot.conds {
		if matched, _ := c.eval(item); !matched {
			res.Status = StatusNotApplicable
			res.Message = "condición no cumplida"
			return res, nil
		}
	}
	res.Status = StatusSuccess
	res.Message = "regla ejecutada"
	for _, a := range snapshot.rule.Actions {
		switch a.Type {
		case ActionSetField:
			if res.Changes == nil {
				res.Changes = make(map[string]string)
			}
			res.Changes[string(a.Field)] = a.Value
		case ActionFlag:
			msg := a.Message
			if msg == "" {
				msg = snapshot.rule.Description
			}
			res.Flags = append(res.Flags, msg)
		}
	}
	return res, nil
}

// Validate aplica las reglas de validación activas. Las condiciones sobre campos ausentes
// se omiten. Devuelve ErrInvalidInput con la descripción de cada regla incumplida.
func (r *Registry) Validate(item *entity.Item) error {
	r.mu.RLock()
	entries := make([]entry, 0, len(r.rules))
	for _, e := range r.rules {
		if e.rule.Active && e.rule.Type == TypeValidation {
			entries = append(entries, *e)
		}
	}
	r.mu.RUnlock()
	sort.Slice(entries, func(i, j int) bool { return less(entries[i].rule, entries[j].rule) })

	var failed []string
	for _, e := range entries {
		for _, c := range e.conds {
			matched, present := c.eval(item)
			if present && !matched {
				failed = append(failed, e.rule.Description)
				break
			}
		}
	}
	if len(failed) > 0 {
		return fmt.Errorf("%w: %s", domain.ErrInvalidInput, strings.Join(failed, "; "))
	}
	return nil
}

func cloneRule(r Rule) Rule {
	r.Conditions = append([]Condition(nil), r.Conditions...)
	r.Actions = append([]Action(nil), r.Actions...)
	return r
}

func less(a, b Rule) bool {
	if a.Priority != b.Priority {
		return a.Priority > b.Priority
	}
	return a.ID < b.ID
}

func sortRules(rs []Rule) {
	sort.Slice(rs, func(i, j int) bool { return less(rs[i], rs[j]) })
}
