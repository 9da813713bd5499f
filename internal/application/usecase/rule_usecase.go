package usecase

import (
	"context"
	"fmt"

	"github.com/jhoicas/inventory-ledger/internal/application/dto"
	"github.com/jhoicas/inventory-ledger/internal/application/rules"
	"github.com/jhoicas/inventory-ledger/internal/domain"
	"github.com/jhoicas/inventory-ledger/internal/domain/repository"
)

// RuleUseCase expone el registro de reglas y ejecuta reglas contra items guardados.
type RuleUseCase struct {
	registry *rules.Registry
	itemRepo repository.ItemRepository
}

// NewRuleUseCase construye el caso de uso.
func NewRuleUseCase(registry *rules.Registry, itemRepo repository.ItemRepository) *RuleUseCase {
	return &RuleUseCase{registry: registry, itemRepo: itemRepo}
}

// Create registra una regla. Sin "active" explícito queda activa.
func (uc *RuleUseCase) Create(in dto.CreateRuleRequest) (*dto.RuleResponse, error) {
	rule := rules.Rule{
		ID:          in.ID,
		Type:        rules.Type(in.Type),
		Priority:    rules.Priority(in.Priority),
		Description: in.Description,
		Active:      in.Active == nil || *in.Active,
	}
	for _, c := range in.Conditions {
		rule.Conditions = append(rule.Conditions, rules.Condition{
			Field:    rules.Field(c.Field),
			Operator: rules.Operator(c.Operator),
			Value:    c.Value,
		})
	}
	for _, a := range in.Actions {
		rule.Actions = append(rule.Actions, rules.Action{
			Type:    rules.ActionType(a.Type),
			Field:   rules.Field(a.Field),
			Value:   a.Value,
			Message: a.Message,
		})
	}
	if err := uc.registry.Register(rule); err != nil {
		return nil, err
	}
	return uc.Get(rule.ID)
}

// Get devuelve una regla.
func (uc *RuleUseCase) Get(id string) (*dto.RuleResponse, error) {
	rule, err := uc.registry.Get(id)
	if err != nil {
		return nil, err
	}
	out := toRuleResponse(rule)
	return &out, nil
}

// Summary totales y listado completo.
func (uc *RuleUseCase) Summary() dto.RuleSummaryResponse {
	s := uc.registry.Summary()
	out := dto.RuleSummaryResponse{
		Total:    s.Total,
		Active:   s.Active,
		Inactive: s.Inactive,
		ByType:   make(map[string]int, len(s.ByType)),
		Rules:    make([]dto.RuleResponse, 0, len(s.Rules)),
	}
	for t, n := range s.ByType {
		out.ByType[string(t)] = n
	}
	for _, r := range s.Rules {
		out.Rules = append(out.Rules, toRuleResponse(r))
	}
	return out
}

// SetActive activa o desactiva la regla.
func (uc *RuleUseCase) SetActive(id string, active bool) (*dto.RuleResponse, error) {
	var err error
	if active {
		err = uc.registry.Activate(id)
	} else {
		err = uc.registry.Deactivate(id)
	}
	if err != nil {
		return nil, err
	}
	return uc.Get(id)
}

// Delete elimina la regla.
func (uc *RuleUseCase) Delete(id string) error {
	return uc.registry.Remove(id)
}

// Execute evalúa la regla contra el estado actual del item.
func (uc *RuleUseCase) Execute(ctx context.Context, id string, itemID int64) (*dto.RuleResultResponse, error) {
	item, err := uc.itemRepo.GetByID(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, fmt.Errorf("item %d: %w", itemID, domain.ErrNotFound)
	}
	res, err := uc.registry.Execute(id, item)
	if err != nil {
		return nil, err
	}
	return &dto.RuleResultResponse{
		RuleID:    res.RuleID,
		Status:    res.Status,
		Message:   res.Message,
		Changes:   res.Changes,
		Flags:     res.Flags,
		Timestamp: res.Timestamp,
	}, nil
}

func toRuleResponse(r rules.Rule) dto.RuleResponse {
	out := dto.RuleResponse{
		ID:          r.ID,
		Description: r.Description,
		Type:        string(r.Type),
		Priority:    int(r.Priority),
		Active:      r.Active,
		Conditions:  make([]dto.ConditionDTO, 0, len(r.Conditions)),
		Actions:     make([]dto.ActionDTO, 0, len(r.Actions)),
		CreatedAt:   r.CreatedAt,
	}
	for _, c := range r.Conditions {
		out.Conditions = append(out.Conditions, dto.ConditionDTO{Field: string(c.Field), Operator: string(c.Operator), Value: c.Value})
	}
	for _, a := range r.Actions {
		out.Actions = append(out.Actions, dto.ActionDTO{Type: string(a.Type), Field: string(a.Field), Value: a.Value, Message: a.Message})
	}
	return out
}
