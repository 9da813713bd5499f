package dto_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jhoicas/inventory-ledger/internal/application/dto"
)

func TestPageRequest_DefaultPage(t *testing.T) {
	p := dto.PageRequest{Page: -3, PageSize: 500}
	p.DefaultPage()
	assert.Equal(t, 1, p.Page)
	assert.Equal(t, 100, p.PageSize)
	assert.Zero(t, p.Offset())
}

func TestPageRequest_OffsetSaturaSinDesbordar(t *testing.T) {
	tests := []struct {
		name string
		page dto.PageRequest
		want int
	}{
		{"primera página", dto.PageRequest{Page: 1, PageSize: 20}, 0},
		{"tercera página", dto.PageRequest{Page: 3, PageSize: 20}, 40},
		{"última sin desborde", dto.PageRequest{Page: math.MaxInt/20 + 1, PageSize: 20}, (math.MaxInt / 20) * 20},
		{"página enorme", dto.PageRequest{Page: math.MaxInt/20 + 2, PageSize: 20}, math.MaxInt},
		{"page máximo", dto.PageRequest{Page: math.MaxInt, PageSize: 100}, math.MaxInt},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.page.Offset()
			assert.Equal(t, tt.want, got)
			assert.GreaterOrEqual(t, got, 0)
		})
	}
}
