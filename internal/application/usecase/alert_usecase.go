package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/jhoicas/inventory-ledger/internal/application/dto"
	"github.com/jhoicas/inventory-ledger/internal/domain"
	"github.com/jhoicas/inventory-ledger/internal/domain/entity"
	"github.com/jhoicas/inventory-ledger/internal/domain/repository"
)

// AlertUseCase consulta y gestión de las alertas que deriva el motor de stock.
type AlertUseCase struct {
	repo repository.AlertRepository
	now  func() time.Time
}

// NewAlertUseCase construye el caso de uso.
func NewAlertUseCase(repo repository.AlertRepository) *AlertUseCase {
	return &AlertUseCase{repo: repo, now: time.Now}
}

// List alertas paginadas, más recientes primero.
func (uc *AlertUseCase) List(ctx context.Context, filter repository.AlertFilter, page dto.PageRequest) (*dto.AlertListResponse, error) {
	page.DefaultPage()
	total, err := uc.repo.Count(ctx, filter)
	if err != nil {
		return nil, err
	}
	list, err := uc.repo.List(ctx, filter, page.PageSize, page.Offset())
	if err != nil {
		return nil, err
	}
	items := make([]dto.AlertResponse, 0, len(list))
	for _, a := range list {
		items = append(items, toAlertResponse(a))
	}
	return &dto.AlertListResponse{Items: items, Page: dto.NewPageResponse(page, total)}, nil
}

// MarkRead marca la alerta como leída.
func (uc *AlertUseCase) MarkRead(ctx context.Context, id int64) (*dto.AlertResponse, error) {
	if err := uc.repo.MarkRead(ctx, id, uc.now()); err != nil {
		return nil, err
	}
	a, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if a == nil {
		return nil, fmt.Errorf("alerta %d: %w", id, domain.ErrNotFound)
	}
	out := toAlertResponse(a)
	return &out, nil
}

// Delete elimina la alerta.
func (uc *AlertUseCase) Delete(ctx context.Context, id int64) error {
	return uc.repo.Delete(ctx, id)
}

func toAlertResponse(a *entity.Alert) dto.AlertResponse {
	return dto.AlertResponse{
		ID:        a.ID,
		Type:      string(a.Type),
		Severity:  string(a.Severity),
		Title:     a.Title,
		Message:   a.Message,
		ItemID:    a.ItemID,
		UserID:    a.UserID,
		IsRead:    a.IsRead,
		CreatedAt: a.CreatedAt,
		ReadAt:    a.ReadAt,
	}
}
