package usecases_port

import (
	"context"
	"listings-agent/internal/core/domain"
)

type ToggleFavoriteUseCasePort interface {
	// Возвращает новое состояние: true - объявление в избранном
	Execute(ctx context.Context, listingID string, payload *domain.Listing) (bool, error)
}
