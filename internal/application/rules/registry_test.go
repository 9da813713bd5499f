package rules_test

import (
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/inventory-ledger/internal/application/rules"
	"github.com/jhoicas/inventory-ledger/internal/domain"
	"github.com/jhoicas/inventory-ledger/internal/domain/entity"
)

func dec(v int64) *decimal.Decimal {
	d := decimal.NewFromInt(v)
	return &d
}

func TestDefaultRegistry_Validaciones(t *testing.T) {
	r := rules.NewDefaultRegistry(zerolog.Nop())

	ok := &entity.Item{SKU: "abc-123", Price: dec(10)}
	assert.NoError(t, r.Validate(ok))

	err := r.Validate(&entity.Item{SKU: "a b", Price: dec(0)})
	require.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Contains(t, err.Error(), "precio")
	assert.Contains(t, err.Error(), "SKU")

	// sin precio la validación de precio se omite
	assert.NoError(t, r.Validate(&entity.Item{SKU: "NOPRICE"}))

	require.NoError(t, r.Deactivate("sku_format_validation"))
	assert.NoError(t, r.Validate(&entity.Item{SKU: "x"}))
}

func TestRegistry_RegisterRechazaDefinicionesInvalidas(t *testing.T) {
	r := rules.NewRegistry(zerolog.Nop())
	cases := []rules.Rule{
		{ID: "", Type: rules.TypeAlert},
		{ID: "t", Type: "magic"},
		{ID: "p", Type: rules.TypeAlert, Priority: 9},
		{ID: "f", Type: rules.TypeAlert, Conditions: []rules.Condition{{Field: "color", Operator: rules.OpEquals, Value: "x"}}},
		{ID: "o", Type: rules.TypeAlert, Conditions: []rules.Condition{{Field: rules.FieldQuantity, Operator: "between", Value: "1"}}},
		{ID: "n", Type: rules.TypeAlert, Conditions: []rules.Condition{{Field: rules.FieldQuantity, Operator: rules.OpLessThan, Value: "diez"}}},
		{ID: "s", Type: rules.TypeAlert, Conditions: []rules.Condition{{Field: rules.FieldName, Operator: rules.OpGreaterThan, Value: "a"}}},
		{ID: "r", Type: rules.TypeAlert, Conditions: []rules.Condition{{Field: rules.FieldSKU, Operator: rules.OpMatches, Value: "("}}},
		{ID: "a", Type: rules.TypeAlert, Actions: []rules.Action{{Type: "email"}}},
	}
	for _, c := range cases {
		assert.ErrorIs(t, r.Register(c), domain.ErrInvalidInput, "regla %q", c.ID)
	}
	assert.Empty(t, r.List())

	require.NoError(t, r.Register(rules.Rule{ID: "dup", Type: rules.TypeAlert}))
	assert.ErrorIs(t, r.Register(rules.Rule{ID: "dup", Type: rules.TypeAlert}), domain.ErrDuplicate)
}

func TestRegistry_Execute(t *testing.T) {
	r := rules.NewRegistry(zerolog.Nop())
	require.NoError(t, r.Register(rules.Rule{
		ID: "reponer", Type: rules.TypeAutomation, Active: true,
		Conditions: []rules.Condition{
			{Field: rules.FieldQuantity, Operator: rules.OpLessThan, Value: "5"},
			{Field: rules.FieldName, Operator: rules.OpContains, Value: "Tornillo"},
		},
		Actions: []rules.Action{
			{Type: rules.ActionSetField, Field: rules.FieldQuantity, Value: "200"},
			{Type: rules.ActionFlag, Message: "pedir al proveedor"},
		},
	}))

	res, err := r.Execute("reponer", &entity.Item{Name: "Tornillo 3mm", Quantity: 2})
	require.NoError(t, err)
	assert.Equal(t, rules.StatusSuccess, res.Status)
	assert.Equal(t, map[string]string{"quantity": "200"}, res.Changes)
	assert.Equal(t, []string{"pedir al proveedor"}, res.Flags)

	res, err = r.Execute("reponer", &entity.Item{Name: "Tornillo 3mm", Quantity: 9})
	require.NoError(t, err)
	assert.Equal(t, rules.StatusNotApplicable, res.Status)

	require.NoError(t, r.Deactivate("reponer"))
	res, err = r.Execute("reponer", &entity.Item{Name: "Tornillo", Quantity: 1})
	require.NoError(t, err)
	assert.Equal(t, rules.StatusInactive, res.Status)

	_, err = r.Execute("no-existe", &entity.Item{})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestRegistry_SummaryYOrden(t *testing.T) {
	r := rules.NewDefaultRegistry(zerolog.Nop())
	require.NoError(t, r.Register(rules.Rule{ID: "critica", Type: rules.TypeAlert, Priority: rules.PriorityCritical, Active: true}))
	require.NoError(t, r.Register(rules.Rule{ID: "baja", Type: rules.TypeBusinessLogic, Priority: rules.PriorityLow}))

	s := r.Summary()
	assert.Equal(t, 4, s.Total)
	assert.Equal(t, 3, s.Active)
	assert.Equal(t, 1, s.Inactive)
	assert.Equal(t, 2, s.ByType[rules.TypeValidation])
	assert.Equal(t, "critica", s.Rules[0].ID)
	assert.Equal(t, "baja", s.Rules[len(s.Rules)-1].ID)

	require.NoError(t, r.Remove("baja"))
	assert.ErrorIs(t, r.Remove("baja"), domain.ErrNotFound)
	_, err := r.Get("baja")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestRegistry_RegistrosAislados(t *testing.T) {
	a := rules.NewDefaultRegistry(zerolog.Nop())
	b := rules.NewDefaultRegistry(zerolog.Nop())
	require.NoError(t, a.Deactivate("price_validation"))

	ra, _ := a.Get("price_validation")
	rb, _ := b.Get("price_validation")
	assert.False(t, ra.Active)
	assert.True(t, rb.Active)
}

func TestRegistry_Concurrente(t *testing.T) {
	r := rules.NewDefaultRegistry(zerolog.Nop())
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if i%2 == 0 {
				_ = r.Deactivate("price_validation")
			} else {
				_ = r.Activate("price_validation")
			}
			_ = r.Validate(&entity.Item{SKU: "ABC", Price: dec(1)})
			_ = r.Summary()
		}(i)
	}
	wg.Wait()
	assert.Equal(t, 2, r.Summary().Total)
}
